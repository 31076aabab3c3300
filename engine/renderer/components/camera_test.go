package components

import (
	"testing"

	"github.com/spaghettifunk/prism/engine/math"
)

func TestCameraDefaultBasis(t *testing.T) {
	c := NewCamera()
	if !c.Forward().Compare(math.NewVec3(0, 0, 1), 1e-5) {
		t.Fatalf("forward = %+v", c.Forward())
	}
	if !c.Right().Compare(math.NewVec3(1, 0, 0), 1e-5) {
		t.Fatalf("right = %+v", c.Right())
	}
	if !c.Up().Compare(math.NewVec3(0, 1, 0), 1e-5) {
		t.Fatalf("up = %+v", c.Up())
	}
}

func TestCameraPitchClamp(t *testing.T) {
	c := NewCamera()
	c.YawPitch(0, 10)
	if c.Pitch != CAMERA_PITCH_LIMIT {
		t.Fatalf("pitch = %v, want %v", c.Pitch, CAMERA_PITCH_LIMIT)
	}
	c.YawPitch(0, -20)
	if c.Pitch != -CAMERA_PITCH_LIMIT {
		t.Fatalf("pitch = %v, want %v", c.Pitch, -CAMERA_PITCH_LIMIT)
	}
	if l := c.Up().Length(); math.Abs(l-1) > 1e-4 {
		t.Fatalf("up not unit length at clamp: %v", l)
	}
}

func TestCameraTranslateRelative(t *testing.T) {
	c := NewCamera()
	c.SetPosition(math.NewVec3Zero())
	c.SetYawPitch(math.HALF_PI, 0)
	c.TranslateRelative(0, 0, 2)
	if !c.GetPosition().Compare(math.NewVec3(2, 0, 0), 1e-4) {
		t.Fatalf("position = %+v", c.GetPosition())
	}
}

func TestCameraViewMatchesCameraToWorld(t *testing.T) {
	c := NewCamera()
	c.SetPosition(math.NewVec3(-5, 3, -5))
	c.SetYawPitch(0.7, -0.2)
	inv, ok := c.GetCameraToWorld().Inverse()
	if !ok {
		t.Fatal("camera to world not invertible")
	}
	if !inv.Compare(c.GetView(), 1e-4) {
		t.Fatalf("view mismatch\n%v\n%v", inv, c.GetView())
	}
}

func TestCameraAspectUpdate(t *testing.T) {
	c := NewCamera()
	c.SetAspect(1920.0 / 1080.0)
	if math.Abs(c.Aspect-1.7777778) > 1e-5 {
		t.Fatalf("aspect = %v", c.Aspect)
	}
	c.SetAspect(0)
	if math.Abs(c.Aspect-1.7777778) > 1e-5 {
		t.Fatalf("zero aspect must be ignored, got %v", c.Aspect)
	}
}

func TestCameraLookAt(t *testing.T) {
	c := NewCamera()
	c.SetPosition(math.NewVec3Zero())
	c.LookAt(math.NewVec3(3, 0, 0))
	if !c.Forward().Compare(math.NewVec3(1, 0, 0), 1e-4) {
		t.Fatalf("forward = %+v", c.Forward())
	}
}
