package assets

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

func spirvWords(words ...uint32) []byte {
	out := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[4*i:], w)
	}
	return out
}

func writeArtifact(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+SHADER_ARTIFACT_EXTENSION), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestShaderLibraryLoad(t *testing.T) {
	dir := t.TempDir()
	want := spirvWords(0x07230203, 0x00010000, 0, 1, 0)
	writeArtifact(t, dir, metadata.SHADER_LIT_VERTEX, want)

	lib := NewShaderLibrary(dir)
	got, err := lib.Load(metadata.SHADER_LIT_VERTEX)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(want) {
		t.Fatalf("loaded %d bytes, want %d", len(got), len(want))
	}
	if p := lib.Path("basic.frag"); p != filepath.Join(dir, "basic.frag.spv") {
		t.Fatalf("path = %s", p)
	}
}

func TestShaderLibraryErrors(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "empty.frag", nil)
	writeArtifact(t, dir, "odd.frag", []byte{1, 2, 3})

	lib := NewShaderLibrary(dir)
	for _, name := range []string{"missing.vert", "empty.frag", "odd.frag"} {
		if _, err := lib.Load(name); !errors.Is(err, core.ErrShaderArtifact) {
			t.Errorf("%s: got %v, want ErrShaderArtifact", name, err)
		}
	}
}

func TestShaderLibraryInvalidate(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, metadata.SHADER_BASIC_VERTEX, spirvWords(0x07230203, 1))
	lib := NewShaderLibrary(dir)
	if _, err := lib.Load(metadata.SHADER_BASIC_VERTEX); err != nil {
		t.Fatal(err)
	}

	// Same modification time, so only invalidation makes the new bytes visible.
	path := lib.Path(metadata.SHADER_BASIC_VERTEX)
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	writeArtifact(t, dir, metadata.SHADER_BASIC_VERTEX, spirvWords(0x07230203, 2))
	if err := os.Chtimes(path, info.ModTime(), info.ModTime()); err != nil {
		t.Fatal(err)
	}
	got, _ := lib.Load(metadata.SHADER_BASIC_VERTEX)
	if binary.LittleEndian.Uint32(got[4:]) != 1 {
		t.Fatalf("expected the cached artifact before invalidation")
	}
	lib.Invalidate(metadata.SHADER_BASIC_VERTEX)
	got, _ = lib.Load(metadata.SHADER_BASIC_VERTEX)
	if binary.LittleEndian.Uint32(got[4:]) != 2 {
		t.Fatalf("expected the new artifact after invalidation")
	}
}

func TestShaderLibraryMissing(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, metadata.SHADER_LIT_VERTEX, spirvWords(0x07230203))
	missing := NewShaderLibrary(dir).Missing()
	if len(missing) != len(metadata.ShaderArtifacts())-1 {
		t.Fatalf("missing = %v", missing)
	}
	for _, name := range missing {
		if name == metadata.SHADER_LIT_VERTEX {
			t.Fatalf("%s reported missing", name)
		}
	}
}

func TestArtifactName(t *testing.T) {
	tests := []struct {
		path string
		name string
		ok   bool
	}{
		{"assets/shaders/lit.frag.spv", "lit.frag", true},
		{"basic.vert.spv", "basic.vert", true},
		{"assets/shaders/lit.frag", "", false},
		{".spv", "", false},
	}
	for _, tt := range tests {
		name, ok := ArtifactName(tt.path)
		if name != tt.name || ok != tt.ok {
			t.Errorf("%s: got (%q, %t), want (%q, %t)", tt.path, name, ok, tt.name, tt.ok)
		}
	}
}

func TestShaderWatcherReportsKnownArtifacts(t *testing.T) {
	dir := t.TempDir()
	lib := NewShaderLibrary(dir)
	changed := make(chan string, 8)
	w, err := NewShaderWatcher(lib, func(name string) { changed <- name })
	if err != nil {
		t.Fatal(err)
	}
	w.settle = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	writeArtifact(t, dir, "unrelated.vert", spirvWords(0x07230203))
	writeArtifact(t, dir, metadata.SHADER_LIT_FRAGMENT, spirvWords(0x07230203))
	writeArtifact(t, dir, metadata.SHADER_LIT_FRAGMENT, spirvWords(0x07230203, 0))

	select {
	case name := <-changed:
		if name != metadata.SHADER_LIT_FRAGMENT {
			t.Fatalf("reported %s", name)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
	timeout := time.After(200 * time.Millisecond)
drain:
	for {
		select {
		case name := <-changed:
			if name != metadata.SHADER_LIT_FRAGMENT {
				t.Fatalf("reported %s", name)
			}
		case <-timeout:
			break drain
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}
