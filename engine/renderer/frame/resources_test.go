package frame

import (
	"testing"

	"github.com/spaghettifunk/prism/engine/renderer/descriptors"
	"github.com/spaghettifunk/prism/engine/renderer/memory"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	system, err := descriptors.NewSystem(3,
		descriptors.HeapDesc{Type: descriptors.HEAP_TYPE_CBV_SRV_UAV, Count: 4096, DescriptorSize: 1, ShaderVisible: true},
		descriptors.HeapDesc{Type: descriptors.HEAP_TYPE_RTV, Count: 128, DescriptorSize: 1},
		descriptors.HeapDesc{Type: descriptors.HEAP_TYPE_DSV, Count: 32, DescriptorSize: 1},
	)
	if err != nil {
		t.Fatalf("descriptor system: %v", err)
	}
	upload, err := memory.NewUploadAllocator(make([]byte, 3*64*1024), 0, 3)
	if err != nil {
		t.Fatalf("upload allocator: %v", err)
	}
	m, err := NewManager(3, system, upload, 0, 0)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return m
}

func TestEachSlotOwnsItsArenas(t *testing.T) {
	m := newTestManager(t)
	a := m.BeginFrame(0, 1)
	b := m.Slot(1)
	if a.FrameArena == b.FrameArena || a.PassArena == b.PassArena {
		t.Fatal("frame slots share arenas")
	}
	if a.FrameArena.Capacity() != DEFAULT_FRAME_ARENA_SIZE || a.PassArena.Capacity() != DEFAULT_PASS_ARENA_SIZE {
		t.Fatal("default arena sizes not applied")
	}

	if _, err := a.FrameArena.Alloc(1024, 0); err != nil {
		t.Fatalf("alloc: %v", err)
	}
	m.EndFrame(0)

	// Beginning another slot leaves slot 0's scratch memory alone.
	m.BeginFrame(1, 2)
	if a.FrameArena.Used() == 0 {
		t.Fatal("slot 0 arena reset by slot 1")
	}
	m.EndFrame(1)

	again := m.BeginFrame(0, 4)
	if again != a || again.FrameArena.Used() != 0 || again.FenceValue != 4 {
		t.Fatal("slot 0 not reset on reuse")
	}
}

func TestBeginFrameRewindsSubAllocators(t *testing.T) {
	m := newTestManager(t)
	res := m.BeginFrame(2, 3)
	res.Descriptors.SRV.Alloc(5)
	if !res.Upload.Allocate(1000, 0).Valid() {
		t.Fatal("upload allocation failed")
	}
	m.EndFrame(2)

	res = m.BeginFrame(2, 6)
	if res.Descriptors.SRV.Cursor() != 0 {
		t.Fatal("descriptor cursor not rewound")
	}
	if res.Upload.UsedThisFrame() != 0 || res.Upload.FrameStart() != 2*64*1024 {
		t.Fatal("upload region not rewound")
	}
	if m.Current() != res {
		t.Fatal("current slot not tracked")
	}
}
