package descriptors

import "fmt"

/** @brief The three slices a frame allocates descriptors from. */
type FrameView struct {
	SRV *Slice
	RTV *Slice
	DSV *Slice
}

/**
 * @brief Owns one ring per heap type: shader visible CBV/SRV/UAV, RTV and DSV.
 */
type System struct {
	frameCount uint32
	srv        *Ring
	rtv        *Ring
	dsv        *Ring
	current    FrameView
}

func NewSystem(frames uint32, srv, rtv, dsv HeapDesc) (*System, error) {
	s := &System{frameCount: frames}
	var err error
	if s.srv, err = NewRing(srv, frames); err != nil {
		return nil, fmt.Errorf("failed to create srv ring: %w", err)
	}
	if s.rtv, err = NewRing(rtv, frames); err != nil {
		return nil, fmt.Errorf("failed to create rtv ring: %w", err)
	}
	if s.dsv, err = NewRing(dsv, frames); err != nil {
		return nil, fmt.Errorf("failed to create dsv ring: %w", err)
	}
	return s, nil
}

func (s *System) BeginFrame(frameIndex uint32) FrameView {
	s.current = FrameView{
		SRV: s.srv.BeginFrame(frameIndex),
		RTV: s.rtv.BeginFrame(frameIndex),
		DSV: s.dsv.BeginFrame(frameIndex),
	}
	return s.current
}

func (s *System) EndFrame(frameIndex uint32) {
	s.srv.EndFrame(frameIndex)
	s.rtv.EndFrame(frameIndex)
	s.dsv.EndFrame(frameIndex)
}

func (s *System) Current() FrameView {
	return s.current
}

func (s *System) SRVRing() *Ring {
	return s.srv
}

func (s *System) RTVRing() *Ring {
	return s.rtv
}

func (s *System) DSVRing() *Ring {
	return s.dsv
}
