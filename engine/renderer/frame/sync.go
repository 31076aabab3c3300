package frame

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
)

/** @brief The number of frames the CPU may record ahead of the GPU. */
const DEFAULT_BUFFERING_DEPTH uint32 = 3

/**
 * @brief The GPU side of a monotonically increasing fence counter.
 */
type Timeline interface {
	// Signal asks the GPU to publish value once all previously submitted work completes.
	Signal(value uint64) error
	// Completed returns the highest value the GPU has reached.
	Completed() uint64
	// Wait blocks the calling thread until Completed() >= value.
	Wait(value uint64) error
}

/**
 * @brief Paces the CPU against the GPU with one fence counter and a ring of
 * frame slots. A slot is only handed back to the CPU once the value it was
 * last submitted with has completed, so at most depth frames are in flight.
 */
type Sync struct {
	timeline   Timeline
	depth      uint32
	frameIndex uint32
	started    bool

	nextValue  uint64
	pending    uint64
	slotValues []uint64

	blockingWaits uint64
	idleWaits     uint64
}

func NewSync(timeline Timeline, depth uint32) (*Sync, error) {
	if timeline == nil {
		return nil, fmt.Errorf("frame sync requires a timeline")
	}
	if depth == 0 {
		return nil, fmt.Errorf("buffering depth must be at least 1")
	}
	return &Sync{
		timeline:   timeline,
		depth:      depth,
		nextValue:  1,
		slotValues: make([]uint64, depth),
	}, nil
}

/**
 * @brief Reserves the fence value the current frame's work is tracked by.
 * The value is signaled by the next AdvanceFrame or WaitForIdle.
 */
func (s *Sync) Submit() uint64 {
	if s.pending != 0 {
		return s.pending
	}
	value := s.nextValue
	s.nextValue++
	s.pending = value
	s.slotValues[s.frameIndex] = value
	return value
}

/**
 * @brief Signals the pending value, moves to the next slot and waits until the
 * GPU has finished the work last submitted from that slot. The first call only
 * enters slot 0, so the first depth calls never block. A failed wait means the
 * device is gone and is returned wrapping ErrDeviceLost.
 */
func (s *Sync) AdvanceFrame() error {
	if !s.started {
		s.started = true
		s.frameIndex = 0
		return nil
	}

	if err := s.flush(); err != nil {
		return err
	}

	s.frameIndex = (s.frameIndex + 1) % s.depth
	target := s.slotValues[s.frameIndex]
	if target == 0 || s.timeline.Completed() >= target {
		return nil
	}

	s.blockingWaits++
	if err := s.timeline.Wait(target); err != nil {
		return fmt.Errorf("waiting for fence value %d on frame slot %d: %w: %w", target, s.frameIndex, core.ErrDeviceLost, err)
	}
	return nil
}

/**
 * @brief Blocks until every piece of submitted work has completed. Used before
 * swapchain recreation, pipeline rebuilds and shutdown.
 */
func (s *Sync) WaitForIdle() error {
	if err := s.flush(); err != nil {
		return err
	}
	value := s.nextValue
	s.nextValue++
	if err := s.timeline.Signal(value); err != nil {
		return fmt.Errorf("signaling idle fence value %d: %w: %w", value, core.ErrDeviceLost, err)
	}
	s.idleWaits++
	if err := s.timeline.Wait(value); err != nil {
		return fmt.Errorf("waiting for idle fence value %d: %w: %w", value, core.ErrDeviceLost, err)
	}
	return nil
}

func (s *Sync) flush() error {
	if s.pending == 0 {
		return nil
	}
	value := s.pending
	s.pending = 0
	if err := s.timeline.Signal(value); err != nil {
		return fmt.Errorf("signaling fence value %d: %w: %w", value, core.ErrDeviceLost, err)
	}
	return nil
}

func (s *Sync) FrameIndex() uint32 {
	return s.frameIndex
}

func (s *Sync) Depth() uint32 {
	return s.depth
}

// NextValue is the fence value the next Submit will reserve.
func (s *Sync) NextValue() uint64 {
	return s.nextValue
}

// SlotValue returns the value a slot was last submitted with, 0 if never.
func (s *Sync) SlotValue(slot uint32) uint64 {
	return s.slotValues[slot%s.depth]
}

// BlockingWaits counts AdvanceFrame calls that had to wait for the GPU.
func (s *Sync) BlockingWaits() uint64 {
	return s.blockingWaits
}

func (s *Sync) IdleWaits() uint64 {
	return s.idleWaits
}
