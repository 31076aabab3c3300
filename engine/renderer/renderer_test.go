package renderer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/spaghettifunk/prism/engine/config"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/descriptors"
	"github.com/spaghettifunk/prism/engine/renderer/frame"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"github.com/spaghettifunk/prism/engine/renderer/views"
)

func approx(a, b float32) bool {
	return math.Abs(a-b) <= 1e-5
}

type fakeTimeline struct {
	completed uint64
	events    *[]string
}

func (t *fakeTimeline) Signal(value uint64) error {
	t.completed = value
	return nil
}

func (t *fakeTimeline) Completed() uint64 {
	return t.completed
}

func (t *fakeTimeline) Wait(value uint64) error {
	*t.events = append(*t.events, "wait")
	if t.completed < value {
		return fmt.Errorf("value %d never signaled", value)
	}
	return nil
}

type recorder struct {
	barriers  int
	open      int
	viewports []metadata.Viewport
	scissors  []metadata.Rect
	draws     []metadata.DrawCall
}

func (r *recorder) Barrier(*metadata.TrackedResource, metadata.ResourceState, metadata.ResourceState) {
	r.barriers++
}

func (r *recorder) BeginRenderTarget(metadata.RenderTargetBinding, metadata.ClearValues) {
	r.open++
}

func (r *recorder) EndRenderTarget() {
	r.open--
}

func (r *recorder) SetViewport(v metadata.Viewport) {
	r.viewports = append(r.viewports, v)
}

func (r *recorder) SetScissor(s metadata.Rect) {
	r.scissors = append(r.scissors, s)
}

func (r *recorder) Draw(call *metadata.DrawCall) {
	r.draws = append(r.draws, *call)
}

type fakeBackend struct {
	events   []string
	timeline *fakeTimeline
	mapped   []byte
	staticID uint32

	outOfDate bool
	recorders []*recorder
	ended     int
	vsync     bool
	reloads   int

	// onResized runs inside Resized, before the new size is applied.
	onResized func()
}

func newFakeBackend() *fakeBackend {
	b := &fakeBackend{mapped: make([]byte, 3*1024*1024), vsync: true}
	b.timeline = &fakeTimeline{events: &b.events}
	return b
}

func (b *fakeBackend) Initialize(cfg *metadata.RendererBackendConfig, width, height uint32) error {
	b.events = append(b.events, fmt.Sprintf("init %dx%d", width, height))
	return nil
}

func (b *fakeBackend) Shutdown() error {
	b.events = append(b.events, "shutdown")
	return nil
}

func (b *fakeBackend) Timeline() frame.Timeline {
	return b.timeline
}

func (b *fakeBackend) UploadMemory() ([]byte, uint64) {
	return b.mapped, 0
}

func (b *fakeBackend) DescriptorHeaps() (srv, rtv, dsv descriptors.HeapDesc) {
	srv = descriptors.HeapDesc{Type: descriptors.HEAP_TYPE_CBV_SRV_UAV, Count: 4096, DescriptorSize: 1, ShaderVisible: true}
	rtv = descriptors.HeapDesc{Type: descriptors.HEAP_TYPE_RTV, Count: 128, DescriptorSize: 1}
	dsv = descriptors.HeapDesc{Type: descriptors.HEAP_TYPE_DSV, Count: 32, DescriptorSize: 1}
	return
}

func (b *fakeBackend) CreateStaticVertexBuffer(name string, data []byte, stride uint32) (metadata.VertexBufferView, error) {
	b.staticID++
	return metadata.VertexBufferView{Static: true, StaticID: b.staticID, Stride: stride, VertexCount: uint32(len(data)) / stride}, nil
}

func (b *fakeBackend) Resized(width, height uint32) error {
	if b.onResized != nil {
		b.onResized()
	}
	b.events = append(b.events, fmt.Sprintf("resized %dx%d", width, height))
	return nil
}

func (b *fakeBackend) SetVSync(enabled bool) error {
	b.vsync = enabled
	return nil
}

func (b *fakeBackend) ReloadPipelines() error {
	b.reloads++
	return nil
}

func (b *fakeBackend) BeginFrame(frameIndex uint32) (views.CommandList, error) {
	if b.outOfDate {
		b.outOfDate = false
		return nil, core.ErrSwapchainOutOfDate
	}
	rec := &recorder{}
	b.recorders = append(b.recorders, rec)
	return rec, nil
}

func (b *fakeBackend) EndFrame(frameIndex uint32) error {
	b.ended++
	return nil
}

func (b *fakeBackend) last() *recorder {
	return b.recorders[len(b.recorders)-1]
}

func newTestRenderer(t *testing.T) (*Renderer, *fakeBackend) {
	t.Helper()
	b := newFakeBackend()
	r := New(b, config.Default())
	if !r.Initialize(1280, 720) {
		t.Fatal("initialize failed")
	}
	return r, b
}

func TestRenderBeforeInitialize(t *testing.T) {
	r := New(newFakeBackend(), nil)
	if err := r.Render(); !errors.Is(err, core.ErrNotInitialized) {
		t.Fatalf("Render() = %v", err)
	}
}

func TestRenderRecordsPassesInOrder(t *testing.T) {
	r, b := newTestRenderer(t)
	r.Update(1.0 / 60.0)
	if err := r.Render(); err != nil {
		t.Fatal(err)
	}

	want := []metadata.PassState{
		metadata.PASS_STATE_SHADOW,
		metadata.PASS_STATE_OPAQUE,
		metadata.PASS_STATE_HUD,
		metadata.PASS_STATE_SUBMITTED,
	}
	got := r.passes.Recorded()
	if len(got) != len(want) {
		t.Fatalf("passes = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pass %d = %s, want %s", i, got[i], want[i])
		}
	}
	rec := b.last()
	if rec.open != 0 {
		t.Fatalf("%d render targets left open", rec.open)
	}
	if b.ended != 1 || len(rec.draws) == 0 {
		t.Fatalf("ended = %d, draws = %d", b.ended, len(rec.draws))
	}
	if last := rec.draws[len(rec.draws)-1]; last.Variant != metadata.PIPELINE_HUD_UNLIT {
		t.Fatalf("last draw is %d, want the HUD", last.Variant)
	}
}

func TestFrameSlotsRotate(t *testing.T) {
	r, _ := newTestRenderer(t)
	for i := 0; i < 7; i++ {
		if err := r.Render(); err != nil {
			t.Fatal(err)
		}
		if got, want := r.sync.FrameIndex(), uint32(i%3); got != want {
			t.Fatalf("frame %d used slot %d, want %d", i, got, want)
		}
	}
	if r.sync.SlotValue(0) == 0 || r.sync.SlotValue(1) == 0 || r.sync.SlotValue(2) == 0 {
		t.Fatal("every slot should carry a submitted fence value")
	}
}

func TestResizeWaitsForIdleBeforeRecreation(t *testing.T) {
	r, b := newTestRenderer(t)
	if err := r.Render(); err != nil {
		t.Fatal(err)
	}

	var idleAtResize uint64
	var aspectAtResize float32
	b.onResized = func() {
		idleAtResize = r.sync.IdleWaits()
		aspectAtResize = r.camera.Aspect
	}
	before := r.sync.IdleWaits()
	if err := r.Resize(1920, 1080); err != nil {
		t.Fatal(err)
	}
	if idleAtResize-before != 1 {
		t.Fatalf("%d idle waits before recreation, want 1", idleAtResize-before)
	}
	if !approx(aspectAtResize, 1280.0/720.0) {
		t.Fatalf("aspect changed before recreation: %f", aspectAtResize)
	}
	if n := len(b.events); b.events[n-2] != "wait" || b.events[n-1] != "resized 1920x1080" {
		t.Fatalf("events = %v", b.events)
	}
	if !approx(r.camera.Aspect, 1920.0/1080.0) || !approx(r.playerCamera.Aspect, 1920.0/1080.0) {
		t.Fatalf("aspect = %f / %f", r.camera.Aspect, r.playerCamera.Aspect)
	}

	if err := r.Render(); err != nil {
		t.Fatal(err)
	}
	rec := b.last()
	// The shadow pass comes first at the shadow map size, then the world pass.
	if vp := rec.viewports[1]; vp.Width != 1920 || vp.Height != 1080 || vp.MinDepth != 0 || vp.MaxDepth != 1 {
		t.Fatalf("viewport = %+v", vp)
	}
	if sc := rec.scissors[1]; sc.Width() != 1920 || sc.Height() != 1080 {
		t.Fatalf("scissor = %+v", sc)
	}
}

func TestZeroSizeSuspendsRendering(t *testing.T) {
	r, b := newTestRenderer(t)
	if err := r.Resize(0, 720); err != nil {
		t.Fatal(err)
	}
	if !r.Suspended() {
		t.Fatal("zero width should suspend")
	}
	if err := r.Render(); err != nil {
		t.Fatal(err)
	}
	if len(b.recorders) != 0 {
		t.Fatal("no frame may be recorded while suspended")
	}
	if err := r.Resize(800, 600); err != nil {
		t.Fatal(err)
	}
	if err := r.Render(); err != nil {
		t.Fatal(err)
	}
	if r.Suspended() || len(b.recorders) != 1 {
		t.Fatalf("suspended = %t, frames = %d", r.Suspended(), len(b.recorders))
	}
}

func TestOutOfDateSwapchainIsRecreated(t *testing.T) {
	r, b := newTestRenderer(t)
	b.outOfDate = true
	if err := r.Render(); err != nil {
		t.Fatal(err)
	}
	if b.ended != 0 || b.events[len(b.events)-1] != "resized 1280x720" {
		t.Fatalf("ended = %d, events = %v", b.ended, b.events)
	}
	if err := r.Render(); err != nil {
		t.Fatal(err)
	}
	if b.ended != 1 {
		t.Fatal("the frame after recreation should be submitted")
	}
}

func TestLightDisabledGivesZeroLightDir(t *testing.T) {
	r, b := newTestRenderer(t)
	r.OnKeyDown(core.KEY_H)
	r.OnKeyUp(core.KEY_H)
	if r.scene.LightEnabled {
		t.Fatal("H should switch the light off")
	}
	if err := r.Render(); err != nil {
		t.Fatal(err)
	}
	rec := b.last()
	for i, call := range rec.draws {
		if call.Variant == metadata.PIPELINE_SHADOW_DEPTH {
			t.Fatal("no shadow casters while the light is off")
		}
		c := metadata.DecodeSceneConstants(b.mapped[call.Constants.Offset:])
		if c.LightDir != (math.Vec3{}) {
			t.Fatalf("draw %d got light dir %+v", i, c.LightDir)
		}
	}
}

func TestLightDirectionDefaults(t *testing.T) {
	s := NewSceneState(config.Default())
	dir := s.LightDirection()
	want := math.NewVec3(math.Cos(0.3)*math.Cos(-0.7), math.Sin(-0.7), math.Sin(0.3)*math.Cos(-0.7))
	if !dir.Compare(want, 1e-5) {
		t.Fatalf("light dir = %+v, want %+v", dir, want)
	}
	// The test cube sits in the middle of the light volume.
	p := s.TestCube.Position.ToVec4(1).Transform(s.LightViewProjection())
	if math.Abs(p.X) > 1e-3 || math.Abs(p.Y) > 1e-3 || p.Z <= 0 || p.Z >= 1 {
		t.Fatalf("test cube projects to %+v", p)
	}
}

func TestKeyBindings(t *testing.T) {
	tests := []struct {
		name  string
		keys  []core.KeyCode
		check func(s *SceneState) bool
	}{
		{"frustum toggle", []core.KeyCode{core.KEY_F}, func(s *SceneState) bool { return !s.ShowFrustum }},
		{"grid toggle", []core.KeyCode{core.KEY_G}, func(s *SceneState) bool { return !s.ShowGrid }},
		{"vsync toggle", []core.KeyCode{core.KEY_V}, func(s *SceneState) bool { return !s.VSync }},
		{"shadows toggle", []core.KeyCode{core.KEY_B}, func(s *SceneState) bool { return !s.ShadowsEnabled }},
		{"test cube toggle", []core.KeyCode{core.KEY_T}, func(s *SceneState) bool { return !s.ShowTestCube }},
		{"random cubes toggle", []core.KeyCode{core.KEY_R}, func(s *SceneState) bool { return !s.ShowRandomCubes }},
		{"auto orbit toggle", []core.KeyCode{core.KEY_N}, func(s *SceneState) bool { return s.LightAutoOrbit }},
		{"cull override toggle", []core.KeyCode{core.KEY_O}, func(s *SceneState) bool { return !s.CullOverride }},
		{"cull far grows", []core.KeyCode{core.KEY_PLUS}, func(s *SceneState) bool { return approx(s.CullFar, 6.25) }},
		{"cull far shrinks", []core.KeyCode{core.KEY_MINUS}, func(s *SceneState) bool { return approx(s.CullFar, 4) }},
		{"cull near grows", []core.KeyCode{core.KEY_0}, func(s *SceneState) bool { return approx(s.CullNear, 0.125) }},
		{"cull near floor", []core.KeyCode{core.KEY_9, core.KEY_9, core.KEY_9, core.KEY_9, core.KEY_9, core.KEY_9, core.KEY_9, core.KEY_9, core.KEY_9, core.KEY_9, core.KEY_9}, func(s *SceneState) bool {
			return approx(s.CullNear, CULL_NEAR_MIN)
		}},
		{"light yaw", []core.KeyCode{core.KEY_L, core.KEY_L, core.KEY_J}, func(s *SceneState) bool { return approx(s.LightYaw, 0.38) }},
		{"light pitch", []core.KeyCode{core.KEY_I}, func(s *SceneState) bool { return approx(s.LightPitch, -0.62) }},
		{"sensitivity up", []core.KeyCode{core.KEY_RBRACKET}, func(s *SceneState) bool { return approx(s.MouseSensitivity, 0.00275) }},
		{"acceleration floor", []core.KeyCode{core.KEY_SEMICOLON, core.KEY_SEMICOLON, core.KEY_SEMICOLON, core.KEY_SEMICOLON}, func(s *SceneState) bool {
			return s.MouseAcceleration == 0
		}},
		{"frustum offset", []core.KeyCode{core.KEY_HOME, core.KEY_INSERT, core.KEY_M, core.KEY_M}, func(s *SceneState) bool {
			return s.FrustumOffset.Compare(math.NewVec3(0.25, 0.25, -0.5), 1e-6)
		}},
		{"frustum offset reset", []core.KeyCode{core.KEY_END, core.KEY_DELETE, core.KEY_BACKSPACE}, func(s *SceneState) bool {
			return s.FrustumOffset == math.Vec3{}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(newFakeBackend(), config.Default())
			for _, k := range tt.keys {
				r.OnKeyDown(k)
				r.OnKeyUp(k)
			}
			if !tt.check(r.scene) {
				t.Fatalf("unexpected scene state %+v", r.scene)
			}
		})
	}
}

func TestLightPitchClamp(t *testing.T) {
	r := New(newFakeBackend(), config.Default())
	for i := 0; i < 40; i++ {
		r.OnKeyDown(core.KEY_K)
	}
	if !approx(r.scene.LightPitch, -LIGHT_PITCH_LIMIT) {
		t.Fatalf("pitch = %f", r.scene.LightPitch)
	}
}

func TestControlSpeedsUpFrustumOffset(t *testing.T) {
	r := New(newFakeBackend(), config.Default())
	r.OnKeyDown(core.KEY_LCONTROL)
	r.OnKeyDown(core.KEY_HOME)
	if !approx(r.scene.FrustumOffset.Y, 1.25) {
		t.Fatalf("offset = %+v", r.scene.FrustumOffset)
	}
}

func TestCameraModeCycle(t *testing.T) {
	r := New(newFakeBackend(), config.Default())
	r.OnKeyDown(core.KEY_C)
	if r.scene.CameraMode != CAMERA_MODE_THIRD_PERSON {
		t.Fatalf("mode = %s", r.scene.CameraMode)
	}
	// Placed behind the player along the horizontal heading, raised by the height offset.
	if y := r.camera.GetPosition().Y; !approx(y, r.scene.PlayerPosition.Y+CAMERA_HEIGHT_OFFSET) {
		t.Fatalf("camera height = %f", y)
	}
	if d := r.camera.GetPosition().Sub(r.scene.PlayerPosition); math.Abs(math.Sqrt(d.X*d.X+d.Z*d.Z)-FOLLOW_DISTANCE) > 1e-4 {
		t.Fatalf("camera offset = %+v", d)
	}

	r.Update(0.016)
	want := r.scene.PlayerPosition.Add(math.NewVec3(0, CAMERA_HEIGHT_OFFSET, -FOLLOW_DISTANCE))
	if !r.camera.GetPosition().Compare(want, 1e-5) {
		t.Fatalf("follow position = %+v, want %+v", r.camera.GetPosition(), want)
	}

	r.OnKeyDown(core.KEY_C)
	r.OnKeyDown(core.KEY_C)
	if r.scene.CameraMode != CAMERA_MODE_FREE {
		t.Fatalf("mode = %s", r.scene.CameraMode)
	}
}

func TestMouseLookNeedsHeldButton(t *testing.T) {
	r := New(newFakeBackend(), config.Default())
	yaw := r.camera.Yaw

	r.OnMouseMove(10, 10, false, true)
	if r.camera.Yaw != yaw {
		t.Fatal("the first move after pressing must not rotate")
	}
	r.OnMouseMove(20, 10, false, true)
	want := yaw + 10*0.0025*(1+0.00015*10)
	if !approx(r.camera.Yaw, want) {
		t.Fatalf("yaw = %f, want %f", r.camera.Yaw, want)
	}
	r.OnMouseMove(40, 10, false, false)
	if !approx(r.camera.Yaw, want) {
		t.Fatal("released button must not rotate")
	}
}

func TestMouseWheelClampsFov(t *testing.T) {
	r := New(newFakeBackend(), config.Default())
	r.OnMouseWheel(120)
	if !approx(r.camera.FovY, math.DegToRad(58)) {
		t.Fatalf("fov = %f", math.RadToDeg(r.camera.FovY))
	}
	for i := 0; i < 100; i++ {
		r.OnMouseWheel(120)
	}
	if !approx(r.camera.FovY, math.DegToRad(FOV_MIN_DEGREES)) {
		t.Fatalf("fov = %f", math.RadToDeg(r.camera.FovY))
	}
	for i := 0; i < 100; i++ {
		r.OnMouseWheel(-120)
	}
	if !approx(r.camera.FovY, math.DegToRad(FOV_MAX_DEGREES)) {
		t.Fatalf("fov = %f", math.RadToDeg(r.camera.FovY))
	}
}

func TestUpdateMovesCameraAndPlayer(t *testing.T) {
	r := New(newFakeBackend(), config.Default())
	start := r.camera.GetPosition()
	forward := r.camera.Forward()

	r.OnKeyDown(core.KEY_W)
	r.OnKeyDown(core.KEY_UP)
	r.Update(1)
	if want := start.Add(forward.MulScalar(5)); !r.camera.GetPosition().Compare(want, 1e-4) {
		t.Fatalf("camera = %+v, want %+v", r.camera.GetPosition(), want)
	}
	if !approx(r.scene.PlayerPosition.Z, 3) {
		t.Fatalf("player = %+v", r.scene.PlayerPosition)
	}

	r.OnKeyDown(core.KEY_LSHIFT)
	r.Update(1)
	if want := start.Add(forward.MulScalar(15)); !r.camera.GetPosition().Compare(want, 1e-4) {
		t.Fatalf("sprint camera = %+v, want %+v", r.camera.GetPosition(), want)
	}
}

func TestVSyncAndReloadApplyBetweenFrames(t *testing.T) {
	r, b := newTestRenderer(t)
	r.OnKeyDown(core.KEY_V)
	r.RequestReload("lit.frag.spv")
	r.RequestReload("lit.vert.spv")
	before := r.sync.IdleWaits()
	if err := r.Render(); err != nil {
		t.Fatal(err)
	}
	if b.vsync || b.reloads != 1 {
		t.Fatalf("vsync = %t, reloads = %d", b.vsync, b.reloads)
	}
	if r.sync.IdleWaits()-before != 1 {
		t.Fatalf("%d idle waits, want 1", r.sync.IdleWaits()-before)
	}
	if err := r.Render(); err != nil {
		t.Fatal(err)
	}
	if b.reloads != 1 || r.sync.IdleWaits()-before != 1 {
		t.Fatal("nothing left to apply on the next frame")
	}
}

func TestTitleRefresh(t *testing.T) {
	r := New(newFakeBackend(), config.Default())
	var titles []string
	r.SetTitleHandler(func(title string) { titles = append(titles, title) })
	for i := 0; i < 40; i++ {
		r.Update(1.0 / 60.0)
	}
	if len(titles) != 1 {
		t.Fatalf("titles = %v", titles)
	}
	if r.fps < 59 || r.fps > 61 {
		t.Fatalf("fps = %f", r.fps)
	}
}

func TestShutdownDrainsGPU(t *testing.T) {
	r, b := newTestRenderer(t)
	if err := r.Render(); err != nil {
		t.Fatal(err)
	}
	if err := r.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if n := len(b.events); b.events[n-2] != "wait" || b.events[n-1] != "shutdown" {
		t.Fatalf("events = %v", b.events)
	}
	if err := r.Render(); !errors.Is(err, core.ErrNotInitialized) {
		t.Fatalf("Render after shutdown = %v", err)
	}
}
