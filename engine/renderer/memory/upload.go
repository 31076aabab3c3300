package memory

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
)

const (
	/** @brief Default placement for constant data. */
	UPLOAD_DEFAULT_ALIGNMENT uint64 = 256
	/** @brief Frame regions start on this boundary. */
	UPLOAD_REGION_ALIGNMENT uint64 = 64 * 1024
)

/**
 * @brief One transient block in the upload ring. CPU is the mapped memory to
 * write to and GPU the address (or byte offset, depending on the backend) the
 * shaders read it from. The zero value is the invalid allocation.
 */
type UploadAllocation struct {
	CPU    []byte
	GPU    uint64
	Offset uint64
	Size   uint64
}

func (a UploadAllocation) Valid() bool {
	return a.CPU != nil
}

/**
 * @brief Ring of transient upload memory over one persistently mapped buffer.
 * The buffer is split into frameCount fixed regions; each frame bump allocates
 * inside its own region only, so the CPU never writes memory the GPU may still
 * be reading for another in-flight frame.
 */
type UploadAllocator struct {
	mapped       []byte
	gpuBase      uint64
	frameCount   uint32
	perFrameSize uint64

	frameIndex uint32
	frameStart uint64
	head       uint64
	failed     uint32
}

/**
 * @brief Wraps mapped (the whole upload buffer) in a ring of frameCount regions.
 * The region size is total/frameCount rounded down to 64 KiB.
 */
func NewUploadAllocator(mapped []byte, gpuBase uint64, frameCount uint32) (*UploadAllocator, error) {
	if frameCount == 0 {
		return nil, fmt.Errorf("upload allocator needs at least one frame region")
	}
	perFrame := math.AlignDown(uint64(len(mapped))/uint64(frameCount), UPLOAD_REGION_ALIGNMENT)
	if perFrame == 0 {
		return nil, fmt.Errorf("upload buffer of %d bytes is too small for %d regions of %d bytes", len(mapped), frameCount, UPLOAD_REGION_ALIGNMENT)
	}
	return &UploadAllocator{
		mapped:       mapped,
		gpuBase:      gpuBase,
		frameCount:   frameCount,
		perFrameSize: perFrame,
	}, nil
}

/**
 * @brief Activates the region of frameIndex and rewinds its cursor. Must only be
 * called once the fence protecting that region has completed.
 */
func (u *UploadAllocator) BeginFrame(frameIndex uint32) {
	u.frameIndex = frameIndex % u.frameCount
	u.frameStart = uint64(u.frameIndex) * u.perFrameSize
	u.head = u.frameStart
	u.failed = 0
}

/**
 * @brief Bump allocates size bytes aligned to alignment (zero means 256) inside
 * the active region. Returns the invalid allocation when the request is empty,
 * misaligned or would cross the end of the region; it never wraps.
 */
func (u *UploadAllocator) Allocate(size, alignment uint64) UploadAllocation {
	if alignment == 0 {
		alignment = UPLOAD_DEFAULT_ALIGNMENT
	}
	if size == 0 || !math.IsPowerOfTwo(alignment) {
		return UploadAllocation{}
	}
	frameEnd := u.frameStart + u.perFrameSize
	aligned := math.AlignUp(u.head, alignment)
	if aligned < u.head || aligned > frameEnd || size > frameEnd-aligned {
		u.failed++
		return UploadAllocation{}
	}
	u.head = aligned + size
	return UploadAllocation{
		CPU:    u.mapped[aligned:u.head:u.head],
		GPU:    u.gpuBase + aligned,
		Offset: aligned,
		Size:   size,
	}
}

/**
 * @brief Allocates and copies data in one step. Returns an error wrapping
 * ErrUploadExhausted when the region is full.
 */
func (u *UploadAllocator) Upload(data []byte, alignment uint64) (UploadAllocation, error) {
	alloc := u.Allocate(uint64(len(data)), alignment)
	if !alloc.Valid() {
		return alloc, fmt.Errorf("upload of %d bytes in frame %d (%d of %d used): %w",
			len(data), u.frameIndex, u.UsedThisFrame(), u.perFrameSize, core.ErrUploadExhausted)
	}
	copy(alloc.CPU, data)
	return alloc, nil
}

func (u *UploadAllocator) FrameIndex() uint32 {
	return u.frameIndex
}

func (u *UploadAllocator) FrameStart() uint64 {
	return u.frameStart
}

func (u *UploadAllocator) PerFrameSize() uint64 {
	return u.perFrameSize
}

func (u *UploadAllocator) UsedThisFrame() uint64 {
	return u.head - u.frameStart
}

func (u *UploadAllocator) AvailableThisFrame() uint64 {
	return u.perFrameSize - u.UsedThisFrame()
}

// FailedThisFrame counts rejected requests since BeginFrame.
func (u *UploadAllocator) FailedThisFrame() uint32 {
	return u.failed
}
