package frame

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spaghettifunk/prism/engine/core"
)

// fakeTimeline stands in for the GPU queue. Nothing completes until the test says so.
type fakeTimeline struct {
	mu        sync.Mutex
	cond      *sync.Cond
	signaled  []uint64
	completed uint64
	waits     []uint64
	failWait  error
	// idle completes every signaled value as soon as someone waits.
	idle bool
}

func newFakeTimeline() *fakeTimeline {
	f := &fakeTimeline{}
	f.cond = sync.NewCond(&f.mu)
	return f
}

func (f *fakeTimeline) Signal(value uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signaled = append(f.signaled, value)
	return nil
}

func (f *fakeTimeline) Completed() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed
}

func (f *fakeTimeline) Wait(value uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waits = append(f.waits, value)
	if f.failWait != nil {
		return f.failWait
	}
	if f.idle {
		for _, v := range f.signaled {
			if v > f.completed {
				f.completed = v
			}
		}
	}
	for f.completed < value {
		f.cond.Wait()
	}
	return nil
}

func (f *fakeTimeline) complete(value uint64) {
	f.mu.Lock()
	f.completed = value
	f.mu.Unlock()
	f.cond.Broadcast()
}

// completeAll marks every signaled value as done, the way an idle GPU would.
func (f *fakeTimeline) completeAll() {
	f.mu.Lock()
	for _, v := range f.signaled {
		if v > f.completed {
			f.completed = v
		}
	}
	f.mu.Unlock()
	f.cond.Broadcast()
}

func advanceWithin(t *testing.T, s *Sync, d time.Duration) (bool, <-chan error) {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- s.AdvanceFrame() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
		return true, done
	case <-time.After(d):
		return false, done
	}
}

func TestFirstDepthFramesNeverBlock(t *testing.T) {
	tl := newFakeTimeline()
	s, err := NewSync(tl, 3)
	if err != nil {
		t.Fatalf("new sync: %v", err)
	}

	for k := 1; k <= 3; k++ {
		returned, _ := advanceWithin(t, s, time.Second)
		if !returned {
			t.Fatalf("advance %d blocked without any prior work in its slot", k)
		}
		if want := uint32(k - 1); s.FrameIndex() != want {
			t.Fatalf("advance %d: frame index %d, want %d", k, s.FrameIndex(), want)
		}
		if v := s.Submit(); v != uint64(k) {
			t.Fatalf("submit %d returned %d", k, v)
		}
	}
	if s.BlockingWaits() != 0 {
		t.Fatalf("blocking waits = %d", s.BlockingWaits())
	}

	// The next advance reuses slot 0 whose value 1 has not completed.
	returned, done := advanceWithin(t, s, 50*time.Millisecond)
	if returned {
		t.Fatal("advance past the buffering depth did not block")
	}
	tl.complete(1)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("advance still blocked after the oldest value completed")
	}
	if s.FrameIndex() != 0 || s.BlockingWaits() != 1 {
		t.Fatalf("frame index %d, blocking waits %d", s.FrameIndex(), s.BlockingWaits())
	}
	if len(tl.waits) != 1 || tl.waits[0] != 1 {
		t.Fatalf("waited for %v, want [1]", tl.waits)
	}
}

func TestSignalsAreStrictlyIncreasing(t *testing.T) {
	tl := newFakeTimeline()
	tl.idle = true
	s, _ := NewSync(tl, 2)
	for i := 0; i < 10; i++ {
		if err := s.AdvanceFrame(); err != nil {
			t.Fatalf("advance: %v", err)
		}
		s.Submit()
		tl.completeAll()
		if i == 4 {
			if err := s.WaitForIdle(); err != nil {
				t.Fatalf("wait for idle: %v", err)
			}
		}
		tl.completeAll()
	}
	for i := 1; i < len(tl.signaled); i++ {
		if tl.signaled[i] <= tl.signaled[i-1] {
			t.Fatalf("signals not increasing: %v", tl.signaled)
		}
	}
	if s.IdleWaits() != 1 {
		t.Fatalf("idle waits = %d", s.IdleWaits())
	}
}

func TestSubmitIsReservedOncePerFrame(t *testing.T) {
	s, _ := NewSync(newFakeTimeline(), 3)
	_ = s.AdvanceFrame()
	a := s.Submit()
	b := s.Submit()
	if a != b || s.SlotValue(0) != a {
		t.Fatalf("submit returned %d then %d, slot value %d", a, b, s.SlotValue(0))
	}
}

func TestWaitFailureIsDeviceLost(t *testing.T) {
	tl := newFakeTimeline()
	tl.failWait = errors.New("VK_ERROR_DEVICE_LOST")
	s, _ := NewSync(tl, 1)
	_ = s.AdvanceFrame()
	s.Submit()
	err := s.AdvanceFrame()
	if !errors.Is(err, core.ErrDeviceLost) {
		t.Fatalf("expected ErrDeviceLost, got %v", err)
	}
	if err := s.WaitForIdle(); !errors.Is(err, core.ErrDeviceLost) {
		t.Fatalf("expected ErrDeviceLost from idle wait, got %v", err)
	}
}
