package metadata

import (
	"encoding/binary"
	"errors"
	stdmath "math"
	"testing"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
)

func floatAt(b []byte, offset int) float32 {
	return stdmath.Float32frombits(binary.LittleEndian.Uint32(b[offset:]))
}

func TestSceneConstantsLayout(t *testing.T) {
	mvp := math.NewMat4Translation(math.Vec3{X: 7, Y: 8, Z: 9})
	light := math.NewMat4Scale(math.Vec3{X: 2, Y: 3, Z: 4})
	c := SceneConstants{
		MVP:             mvp,
		LightDir:        math.Vec3{X: 0.1, Y: 0.2, Z: 0.3},
		ViewportSize:    math.Vec2{X: 1920, Y: 1080},
		LineThicknessPx: 2.5,
		LightMVP:        light,
	}
	buf := make([]byte, SCENE_CONSTANTS_SIZE)
	for i := range buf {
		buf[i] = 0xFF
	}
	c.Encode(buf)

	// Column-major: the translation of a row-major matrix lands in the last
	// element of the first three columns.
	if floatAt(buf, 12) != 7 || floatAt(buf, 28) != 8 || floatAt(buf, 44) != 9 {
		t.Fatalf("translation not stored column-major: %v %v %v", floatAt(buf, 12), floatAt(buf, 28), floatAt(buf, 44))
	}
	if floatAt(buf, 48) != 0 || floatAt(buf, 60) != 1 {
		t.Fatal("last column wrong")
	}
	if floatAt(buf, 64) != 0.1 || floatAt(buf, 68) != 0.2 || floatAt(buf, 72) != 0.3 || floatAt(buf, 76) != 0 {
		t.Fatal("light direction or padding wrong")
	}
	if floatAt(buf, 80) != 1920 || floatAt(buf, 84) != 1080 || floatAt(buf, 88) != 2.5 || floatAt(buf, 92) != 0 {
		t.Fatal("viewport block wrong")
	}
	if floatAt(buf, 96) != 2 || floatAt(buf, 116) != 3 || floatAt(buf, 136) != 4 || floatAt(buf, 156) != 1 {
		t.Fatal("light mvp wrong")
	}

	back := DecodeSceneConstants(buf)
	if back != c {
		t.Fatalf("decode(encode(c)) = %+v, want %+v", back, c)
	}
}

func TestVertexStrides(t *testing.T) {
	verts := []VertexPC{{}, {}, {}}
	if len(VertexBytes(verts)) != 3*VERTEX_PC_SIZE {
		t.Fatal("VertexPC stride is not 24 bytes")
	}
	lit := []VertexPNC{{Color: math.Vec3{X: 1}}}
	b := VertexBytes(lit)
	if len(b) != VERTEX_PNC_SIZE || floatAt(b, 24) != 1 {
		t.Fatal("VertexPNC layout is not position, normal, colour")
	}
	if VertexBytes([]VertexPC{}) != nil {
		t.Fatal("empty slice should give nil bytes")
	}
}

func TestPipelineTable(t *testing.T) {
	for _, v := range PipelineVariants() {
		d := PipelineDescFor(v)
		if d.Name == "" || d.VertexShader == "" {
			t.Fatalf("variant %d incomplete: %+v", v, d)
		}
		if d.Layout.Stride == 0 {
			t.Fatalf("variant %s has no input layout", d.Name)
		}
	}
	shadow := PipelineDescFor(PIPELINE_SHADOW_DEPTH)
	if shadow.FragmentShader != "" || shadow.Target != RENDER_TARGET_SHADOW_MAP {
		t.Fatal("shadow variant must be depth only")
	}
	if PipelineDescFor(PIPELINE_HUD_UNLIT).DepthStencil.TestEnabled {
		t.Fatal("hud variant must not depth test")
	}
	if PipelineDescFor(PIPELINE_LINE_UNLIT).Topology != TOPOLOGY_LINE_LIST {
		t.Fatal("line variant must use line lists")
	}
	if got := len(ShaderArtifacts()); got != 4 {
		t.Fatalf("expected 4 shader artifacts, got %d", got)
	}
}

func TestNextState(t *testing.T) {
	cases := []struct {
		current  ResourceState
		use      ResourceUse
		want     ResourceState
		required bool
	}{
		{RESOURCE_STATE_UNINITIALIZED, RESOURCE_USE_DEPTH_TARGET, RESOURCE_STATE_DEPTH_WRITE, true},
		{RESOURCE_STATE_UNINITIALIZED, RESOURCE_USE_SHADER_SAMPLE, RESOURCE_STATE_SHADER_READ, true},
		{RESOURCE_STATE_DEPTH_WRITE, RESOURCE_USE_DEPTH_TARGET, RESOURCE_STATE_DEPTH_WRITE, false},
		{RESOURCE_STATE_DEPTH_WRITE, RESOURCE_USE_SHADER_SAMPLE, RESOURCE_STATE_SHADER_READ, true},
		{RESOURCE_STATE_SHADER_READ, RESOURCE_USE_SHADER_SAMPLE, RESOURCE_STATE_SHADER_READ, false},
		{RESOURCE_STATE_SHADER_READ, RESOURCE_USE_DEPTH_TARGET, RESOURCE_STATE_DEPTH_WRITE, true},
	}
	for _, c := range cases {
		got, req := NextState(c.current, c.use)
		if got != c.want || req != c.required {
			t.Errorf("NextState(%s, %d) = %s, %v; want %s, %v", c.current, c.use, got, req, c.want, c.required)
		}
	}

	shadow := TrackedResource{Name: "shadow"}
	for frame := 0; frame < 3; frame++ {
		if _, _, req := shadow.Transition(RESOURCE_USE_DEPTH_TARGET); !req {
			t.Fatalf("frame %d: depth transition skipped", frame)
		}
		if from, to, req := shadow.Transition(RESOURCE_USE_SHADER_SAMPLE); !req || from != RESOURCE_STATE_DEPTH_WRITE || to != RESOURCE_STATE_SHADER_READ {
			t.Fatalf("frame %d: read transition %s->%s %v", frame, from, to, req)
		}
	}
}

func TestPassOrder(t *testing.T) {
	var p PassTracker
	if err := p.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := p.Enter(PASS_STATE_OPAQUE); !errors.Is(err, core.ErrPassOrder) {
		t.Fatalf("skipping the shadow pass should fail, got %v", err)
	}
	for _, s := range []PassState{PASS_STATE_SHADOW, PASS_STATE_OPAQUE, PASS_STATE_HUD, PASS_STATE_SUBMITTED} {
		if err := p.Enter(s); err != nil {
			t.Fatalf("enter %s: %v", s, err)
		}
	}
	if err := p.Enter(PASS_STATE_SHADOW); !errors.Is(err, core.ErrPassOrder) {
		t.Fatal("re-entering without Begin should fail")
	}
	if got := p.Recorded(); len(got) != 4 || got[0] != PASS_STATE_SHADOW || got[3] != PASS_STATE_SUBMITTED {
		t.Fatalf("recorded %v", got)
	}
	if err := p.Begin(); err != nil {
		t.Fatalf("second frame: %v", err)
	}
	_ = p.Enter(PASS_STATE_SHADOW)
	if err := p.Begin(); !errors.Is(err, core.ErrPassOrder) {
		t.Fatal("begin mid frame should fail")
	}
	p.Abort()
	if err := p.Begin(); err != nil {
		t.Fatalf("begin after abort: %v", err)
	}
}
