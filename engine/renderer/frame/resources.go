package frame

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/descriptors"
	"github.com/spaghettifunk/prism/engine/renderer/memory"
)

const (
	DEFAULT_FRAME_ARENA_SIZE uint64 = 256 * 1024
	DEFAULT_PASS_ARENA_SIZE  uint64 = 128 * 1024
)

/**
 * @brief Everything a frame allocates from. Returned by Manager.BeginFrame and
 * valid until the same slot begins again.
 */
type Resources struct {
	ID         core.ResourceID
	Index      uint32
	FenceValue uint64

	Descriptors descriptors.FrameView
	Upload      *memory.UploadAllocator
	// FrameArena holds scratch data that lives for the whole frame.
	FrameArena *memory.Arena
	// PassArena holds scratch data of a single pass. Passes may Reset it.
	PassArena *memory.Arena
}

/**
 * @brief Aggregates the descriptor system, the upload ring and one pair of
 * scratch arenas per frame slot behind a single BeginFrame/EndFrame choke point.
 */
type Manager struct {
	frameCount  uint32
	descriptors *descriptors.System
	upload      *memory.UploadAllocator
	slots       []*Resources
	current     *Resources
}

func NewManager(frameCount uint32, system *descriptors.System, upload *memory.UploadAllocator, frameArenaSize, passArenaSize uint64) (*Manager, error) {
	if frameCount == 0 {
		return nil, fmt.Errorf("frame resource manager needs at least one slot")
	}
	if system == nil || upload == nil {
		return nil, fmt.Errorf("frame resource manager needs a descriptor system and an upload allocator")
	}
	if frameArenaSize == 0 {
		frameArenaSize = DEFAULT_FRAME_ARENA_SIZE
	}
	if passArenaSize == 0 {
		passArenaSize = DEFAULT_PASS_ARENA_SIZE
	}

	m := &Manager{
		frameCount:  frameCount,
		descriptors: system,
		upload:      upload,
		slots:       make([]*Resources, frameCount),
	}
	for i := uint32(0); i < frameCount; i++ {
		id := core.NewResourceID("frame-slot")
		m.slots[i] = &Resources{
			ID:         id,
			Index:      i,
			Upload:     upload,
			FrameArena: memory.NewArena(fmt.Sprintf("%s/frame", id), frameArenaSize),
			PassArena:  memory.NewArena(fmt.Sprintf("%s/pass", id), passArenaSize),
		}
		core.LogDebug("frame slot %d resources created as %s", i, id)
	}
	return m, nil
}

/**
 * @brief Hands out the resources of frameIndex. Both arenas of the slot are
 * reset, the upload region is rewound and the descriptor cursors start over.
 * The caller guarantees the slot's fence has completed.
 */
func (m *Manager) BeginFrame(frameIndex uint32, fenceValue uint64) *Resources {
	slot := m.slots[frameIndex%m.frameCount]
	slot.FenceValue = fenceValue
	slot.FrameArena.Reset()
	slot.PassArena.Reset()
	m.upload.BeginFrame(slot.Index)
	slot.Descriptors = m.descriptors.BeginFrame(slot.Index)
	m.current = slot
	return slot
}

func (m *Manager) EndFrame(frameIndex uint32) {
	m.descriptors.EndFrame(frameIndex % m.frameCount)
	if failed := m.upload.FailedThisFrame(); failed > 0 {
		core.LogWarn("frame slot %d: %d upload requests did not fit in %d bytes", frameIndex, failed, m.upload.PerFrameSize())
	}
	m.current = nil
}

// Current returns the slot between BeginFrame and EndFrame, nil otherwise.
func (m *Manager) Current() *Resources {
	return m.current
}

func (m *Manager) Slot(frameIndex uint32) *Resources {
	return m.slots[frameIndex%m.frameCount]
}

func (m *Manager) Descriptors() *descriptors.System {
	return m.descriptors
}

func (m *Manager) Upload() *memory.UploadAllocator {
	return m.upload
}

func (m *Manager) FrameCount() uint32 {
	return m.frameCount
}
