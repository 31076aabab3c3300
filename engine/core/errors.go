package core

import (
	"errors"
)

var (
	ErrSwapchainBooting   = errors.New("swapchain resized or recreated, booting")
	ErrSwapchainOutOfDate = errors.New("swapchain out of date")
	ErrDeviceLost         = errors.New("gpu device lost")
	ErrUploadExhausted    = errors.New("upload ring exhausted for the current frame")
	ErrDescriptorOverflow = errors.New("descriptor slice exhausted for the current frame")
	ErrArenaExhausted     = errors.New("arena exhausted")
	ErrPassOrder          = errors.New("render pass recorded out of order")
	ErrShaderArtifact     = errors.New("shader artifact missing or invalid")
	ErrNotInitialized     = errors.New("renderer not initialized")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrUnknown            = errors.New("unknown")
)
