package platform

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/prism/engine/core"
)

func TestTranslateKey(t *testing.T) {
	tests := []struct {
		key  glfw.Key
		want core.KeyCode
	}{
		{glfw.KeyA, core.KEY_A},
		{glfw.KeyW, core.KEY_W},
		{glfw.KeyZ, core.KEY_Z},
		{glfw.Key0, core.KEY_0},
		{glfw.Key9, core.KEY_9},
		{glfw.KeyF1, core.KEY_F1},
		{glfw.KeyF12, core.KEY_F12},
		{glfw.KeyF24, core.KEY_F24},
		{glfw.KeyKP0, core.KEY_NUMPAD0},
		{glfw.KeyKP7, core.KEY_NUMPAD7},
		{glfw.KeyEscape, core.KEY_ESCAPE},
		{glfw.KeyPageUp, core.KEY_PRIOR},
		{glfw.KeyPageDown, core.KEY_NEXT},
		{glfw.KeyEqual, core.KEY_PLUS},
		{glfw.KeyMinus, core.KEY_MINUS},
		{glfw.KeyLeftBracket, core.KEY_LBRACKET},
		{glfw.KeyApostrophe, core.KEY_APOSTROPHE},
		{glfw.KeyLeftShift, core.KEY_SHIFT},
		{glfw.KeyRightShift, core.KEY_SHIFT},
		{glfw.KeyRightControl, core.KEY_CONTROL},
		{glfw.KeyBackspace, core.KEY_BACKSPACE},
	}
	for _, tt := range tests {
		got, ok := TranslateKey(tt.key)
		if !ok {
			t.Errorf("key %d not translated", tt.key)
			continue
		}
		if got != tt.want {
			t.Errorf("key %d: got 0x%X, want 0x%X", tt.key, got, tt.want)
		}
	}
}

func TestTranslateKeyUnknown(t *testing.T) {
	for _, key := range []glfw.Key{glfw.KeyUnknown, glfw.KeyF25, glfw.KeyWorld1} {
		if code, ok := TranslateKey(key); ok {
			t.Errorf("key %d translated to 0x%X", key, code)
		}
	}
}

type recordingInput struct {
	down  []core.KeyCode
	up    []core.KeyCode
	wheel []float32
	moves int
}

func (r *recordingInput) OnKeyDown(k core.KeyCode) { r.down = append(r.down, k) }
func (r *recordingInput) OnKeyUp(k core.KeyCode)   { r.up = append(r.up, k) }
func (r *recordingInput) OnMouseMove(x, y int32, l, rt bool) {
	r.moves++
}
func (r *recordingInput) OnMouseWheel(d float32) { r.wheel = append(r.wheel, d) }

func TestScrollUsesWheelNotches(t *testing.T) {
	rec := &recordingInput{}
	p := New()
	p.SetInputHandler(rec)
	p.scrollCallback(nil, 0, -1)
	p.scrollCallback(nil, 3, 0)
	if len(rec.wheel) != 1 || rec.wheel[0] != -WHEEL_DELTA {
		t.Fatalf("wheel deltas = %v", rec.wheel)
	}
}

func TestKeyReleaseForwarded(t *testing.T) {
	rec := &recordingInput{}
	p := New()
	p.SetInputHandler(rec)
	p.keyCallback(nil, glfw.KeyB, 0, glfw.Release, 0)
	p.keyCallback(nil, glfw.KeyUnknown, 0, glfw.Release, 0)
	if len(rec.up) != 1 || rec.up[0] != core.KEY_B || len(rec.down) != 0 {
		t.Fatalf("down %v up %v", rec.down, rec.up)
	}
}

func TestResizeClampsNegativeSizes(t *testing.T) {
	var gotW, gotH uint32 = 99, 99
	p := New()
	p.SetResizeHandler(func(w, h uint32) { gotW, gotH = w, h })
	p.framebufferSizeCallback(nil, -1, 0)
	if gotW != 0 || gotH != 0 {
		t.Fatalf("resize = %dx%d", gotW, gotH)
	}
}
