package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

const SHADER_ARTIFACT_EXTENSION = ".spv"

type shaderArtifact struct {
	Data     []byte
	Modified time.Time
}

/**
 * @brief Reads compiled SPIR-V artifacts from one directory. Artifacts are
 * named after their shader, "lit.vert" lives in "lit.vert.spv". Loaded
 * bytes are cached until the file changes or the watcher invalidates them.
 */
type ShaderLibrary struct {
	dir string

	mutex sync.RWMutex
	cache map[string]shaderArtifact
}

func NewShaderLibrary(dir string) *ShaderLibrary {
	return &ShaderLibrary{
		dir:   dir,
		cache: make(map[string]shaderArtifact),
	}
}

func (l *ShaderLibrary) Directory() string {
	return l.dir
}

// Path returns where the artifact for name is expected.
func (l *ShaderLibrary) Path(name string) string {
	return filepath.Join(l.dir, name+SHADER_ARTIFACT_EXTENSION)
}

func (l *ShaderLibrary) Load(name string) ([]byte, error) {
	path := l.Path(name)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w: not found at %s", name, core.ErrShaderArtifact, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	l.mutex.RLock()
	cached, ok := l.cache[name]
	l.mutex.RUnlock()
	if ok && cached.Modified.Equal(info.ModTime()) {
		return cached.Data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("%s: %w: %d bytes is not a whole number of SPIR-V words", name, core.ErrShaderArtifact, len(data))
	}

	l.mutex.Lock()
	l.cache[name] = shaderArtifact{Data: data, Modified: info.ModTime()}
	l.mutex.Unlock()
	core.LogDebug("loaded shader artifact %s (%d bytes)", path, len(data))
	return data, nil
}

// Invalidate drops the cached bytes of name so the next Load reads the file.
func (l *ShaderLibrary) Invalidate(name string) {
	l.mutex.Lock()
	delete(l.cache, name)
	l.mutex.Unlock()
}

// Missing lists the artifacts the pipeline table needs that are not on disk.
func (l *ShaderLibrary) Missing() []string {
	var out []string
	for _, name := range metadata.ShaderArtifacts() {
		if _, err := os.Stat(l.Path(name)); err != nil {
			out = append(out, name)
		}
	}
	return out
}

// ArtifactName turns an artifact path back into its shader name.
func ArtifactName(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, SHADER_ARTIFACT_EXTENSION) {
		return "", false
	}
	name := strings.TrimSuffix(base, SHADER_ARTIFACT_EXTENSION)
	return name, name != ""
}
