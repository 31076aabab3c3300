//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Compiles the shaders and runs the engine with prism.toml.
func (Run) Engine() error {
	mg.Deps(Build.Shaders)
	return goTool("run", ".", "-config", "prism.toml")
}

// Runs the engine with debug logging and shader hot reload forced on.
func (Run) Debug() error {
	mg.Deps(Build.Shaders)
	return goTool("run", ".", "-config", "prism.toml", "-debug")
}
