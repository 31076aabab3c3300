//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs every package test with the race detector.
func (Test) All() error {
	return goTool("test", "-race", "./...")
}

// Runs the tests that need no GPU or window: memory, descriptors, frame pacing and math.
func (Test) Core() error {
	return goTool("test",
		"./engine/math/...",
		"./engine/config/...",
		"./engine/containers/...",
		"./engine/renderer/memory/...",
		"./engine/renderer/descriptors/...",
		"./engine/renderer/frame/...",
		"./engine/renderer/metadata/...",
	)
}
