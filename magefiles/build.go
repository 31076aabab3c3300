//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
)

const shaderDir = "assets/shaders"

type Build mg.Namespace

// Compiles every GLSL stage under assets/shaders into a SPIR-V artifact next to it.
func (Build) Shaders() error {
	return buildShaders()
}

// Builds the prism binary.
func (Build) Engine() error {
	mg.Deps(Build.Shaders)
	return goTool("build", "-o", "bin/prism", ".")
}

// buildShaders turns lit.vert into lit.vert.spv, skipping artifacts newer than their source.
func buildShaders() error {
	sources, err := shaderSources(shaderDir)
	if err != nil {
		return err
	}
	for _, src := range sources {
		out := src + ".spv"
		if upToDate(src, out) {
			continue
		}
		if err := glslc(src, out); err != nil {
			return err
		}
	}
	return nil
}

func shaderSources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasSuffix(name, ".vert") || strings.HasSuffix(name, ".frag")) {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

func upToDate(src, out string) bool {
	s, err := os.Stat(src)
	if err != nil {
		return false
	}
	o, err := os.Stat(out)
	if err != nil {
		return false
	}
	return !o.ModTime().Before(s.ModTime())
}
