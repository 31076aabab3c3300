package config

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spaghettifunk/prism/engine/core"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults rejected: %v", err)
	}
	b := cfg.Backend()
	if b.FramesInFlight != 3 || b.UploadBufferSize != 32*1024*1024 || b.SRVDescriptorCount != 4096 || b.RTVDescriptorCount != 128 || b.DSVDescriptorCount != 32 {
		t.Fatalf("unexpected backend defaults: %+v", b)
	}
}

func TestDecodeOverrides(t *testing.T) {
	src := `
[application]
width = 1920
height = 1080

[renderer]
vsync = false
frames_in_flight = 2

[camera]
position = [1.0, 2.0, 3.0]
`
	cfg, err := Decode(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Application.Width != 1920 || cfg.Application.Height != 1080 {
		t.Fatalf("window = %dx%d", cfg.Application.Width, cfg.Application.Height)
	}
	if cfg.Renderer.VSync || cfg.Renderer.FramesInFlight != 2 {
		t.Fatalf("renderer = %+v", cfg.Renderer)
	}
	if Vec3(cfg.Camera.Position).Z != 3 {
		t.Fatalf("position = %v", cfg.Camera.Position)
	}
	// untouched keys keep their defaults
	if cfg.Renderer.SRVDescriptors != 4096 || cfg.Light.Yaw != 0.3 {
		t.Fatal("defaults lost while decoding")
	}
}

func TestDecodeRejects(t *testing.T) {
	cases := map[string]string{
		"depth too small": "[renderer]\nframes_in_flight = 1\n",
		"depth too large": "[renderer]\nframes_in_flight = 5\n",
		"zero budget":     "[renderer]\nsrv_descriptors = 0\n",
		"unknown key":     "[renderer]\nbogus = 1\n",
		"bad syntax":      "[renderer\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(src))
			if !errors.Is(err, core.ErrInvalidConfig) {
				t.Fatalf("err = %v", err)
			}
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Application.Width != Default().Application.Width {
		t.Fatal("missing file should produce defaults")
	}
}
