package descriptors

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
)

type HeapType int

const (
	HEAP_TYPE_CBV_SRV_UAV HeapType = iota
	HEAP_TYPE_RTV
	HEAP_TYPE_DSV
)

func (t HeapType) String() string {
	switch t {
	case HEAP_TYPE_CBV_SRV_UAV:
		return "cbv_srv_uav"
	case HEAP_TYPE_RTV:
		return "rtv"
	case HEAP_TYPE_DSV:
		return "dsv"
	}
	return "unknown"
}

/**
 * @brief Describes a descriptor heap created by the backend. CPUStart and
 * GPUStart are the handles of the first descriptor; DescriptorSize is the
 * handle increment between two consecutive descriptors.
 */
type HeapDesc struct {
	Type           HeapType
	Count          uint32
	DescriptorSize uint32
	CPUStart       uint64
	GPUStart       uint64
	ShaderVisible  bool
}

/**
 * @brief One frame's partition of a heap. First and Count never change after
 * initialization; the cursor only grows until the next BeginFrame.
 */
type Slice struct {
	heapType       HeapType
	first          uint32
	count          uint32
	cursor         uint32
	cpuBase        uint64
	gpuBase        uint64
	descriptorSize uint32
}

/**
 * @brief Reserves n consecutive descriptors and returns the offset of the first
 * one relative to the slice. Exceeding the per frame budget is a sizing bug and
 * panics.
 */
func (s *Slice) Alloc(n uint32) uint32 {
	if n > s.count-s.cursor {
		panic(fmt.Errorf("%s slice [%d, %d): %d requested with %d in use: %w",
			s.heapType, s.first, s.first+s.count, n, s.cursor, core.ErrDescriptorOverflow))
	}
	at := s.cursor
	s.cursor += n
	return at
}

// CPU returns the handle index positions past the cursor, the next descriptor to be allocated.
func (s *Slice) CPU(index uint32) uint64 {
	return s.cpuBase + uint64(s.cursor+index)*uint64(s.descriptorSize)
}

// GPU returns the shader visible handle index positions past the cursor.
func (s *Slice) GPU(index uint32) uint64 {
	return s.gpuBase + uint64(s.cursor+index)*uint64(s.descriptorSize)
}

// CPUAt returns the handle of an offset returned by Alloc.
func (s *Slice) CPUAt(offset uint32) uint64 {
	return s.cpuBase + uint64(offset)*uint64(s.descriptorSize)
}

// GPUAt returns the shader visible handle of an offset returned by Alloc.
func (s *Slice) GPUAt(offset uint32) uint64 {
	return s.gpuBase + uint64(offset)*uint64(s.descriptorSize)
}

// HeapIndex converts a slice offset into an absolute descriptor index in the heap.
func (s *Slice) HeapIndex(offset uint32) uint32 {
	return s.first + offset
}

func (s *Slice) Reset() {
	s.cursor = 0
}

func (s *Slice) First() uint32 {
	return s.first
}

func (s *Slice) Count() uint32 {
	return s.count
}

func (s *Slice) Cursor() uint32 {
	return s.cursor
}

func (s *Slice) Remaining() uint32 {
	return s.count - s.cursor
}

/**
 * @brief Splits one descriptor heap into frames disjoint, fixed size slices.
 */
type Ring struct {
	desc          HeapDesc
	frameCount    uint32
	perFrameCount uint32
	slices        []*Slice
}

func NewRing(desc HeapDesc, frames uint32) (*Ring, error) {
	if frames == 0 {
		return nil, fmt.Errorf("%s ring needs at least one frame", desc.Type)
	}
	if desc.DescriptorSize == 0 {
		return nil, fmt.Errorf("%s heap reports a zero descriptor size", desc.Type)
	}
	perFrame := desc.Count / frames
	if perFrame == 0 {
		return nil, fmt.Errorf("%s heap of %d descriptors cannot be split into %d frames", desc.Type, desc.Count, frames)
	}

	r := &Ring{
		desc:          desc,
		frameCount:    frames,
		perFrameCount: perFrame,
		slices:        make([]*Slice, frames),
	}
	for i := uint32(0); i < frames; i++ {
		first := i * perFrame
		s := &Slice{
			heapType:       desc.Type,
			first:          first,
			count:          perFrame,
			cpuBase:        desc.CPUStart + uint64(first)*uint64(desc.DescriptorSize),
			descriptorSize: desc.DescriptorSize,
		}
		if desc.ShaderVisible {
			s.gpuBase = desc.GPUStart + uint64(first)*uint64(desc.DescriptorSize)
		}
		r.slices[i] = s
	}
	return r, nil
}

// BeginFrame rewinds and returns the slice owned by frameIndex.
func (r *Ring) BeginFrame(frameIndex uint32) *Slice {
	s := r.slices[frameIndex%r.frameCount]
	s.Reset()
	return s
}

func (r *Ring) EndFrame(frameIndex uint32) {}

func (r *Ring) Desc() HeapDesc {
	return r.desc
}

func (r *Ring) PerFrameCount() uint32 {
	return r.perFrameCount
}

func (r *Ring) FrameCount() uint32 {
	return r.frameCount
}
