//go:build mage

package main

import (
	"fmt"
	"os/exec"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// cgo is required by glfw and the vulkan bindings.
var goEnv = map[string]string{"CGO_ENABLED": "1"}

// goTool runs the go command with output streamed.
func goTool(args ...string) error {
	return sh.RunWithV(goEnv, mg.GoCmd(), args...)
}

// glslc compiles one shader stage. It fails early with a hint when the
// Vulkan SDK is not on PATH.
func glslc(src, out string) error {
	if _, err := exec.LookPath("glslc"); err != nil {
		return fmt.Errorf("glslc not found, install the Vulkan SDK or shaderc: %w", err)
	}
	return sh.RunV("glslc", "--target-env=vulkan1.1", src, "-o", out)
}
