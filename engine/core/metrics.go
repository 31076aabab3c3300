package core

import "github.com/spaghettifunk/prism/engine/containers"

const AVG_COUNT uint8 = 30

// FRAME_HISTORY is the number of frame times kept for the HUD graph.
const FRAME_HISTORY int = 160

// FrameMetrics tracks the frame time average, frames per second and a short history
// of frame times. It is owned by the renderer; there is no package level instance.
type FrameMetrics struct {
	frameAVGCounter    uint8
	msTimes            [AVG_COUNT]float64
	msAvg              float64
	frames             int32
	accumulatedFrameMS float64
	fps                float64
	history            *containers.Ring[float32]
}

func NewFrameMetrics() *FrameMetrics {
	return &FrameMetrics{
		history: containers.NewRing[float32](FRAME_HISTORY),
	}
}

// Update records one frame that took frameElapsedTime seconds.
func (m *FrameMetrics) Update(frameElapsedTime float64) {
	// Calculate frame ms average
	frameMS := frameElapsedTime * 1000.0
	m.msTimes[m.frameAVGCounter] = frameMS
	if m.frameAVGCounter == AVG_COUNT-1 {
		sum := 0.0
		for i := uint8(0); i < AVG_COUNT; i++ {
			sum += m.msTimes[i]
		}
		m.msAvg = sum / float64(AVG_COUNT)
	}
	m.frameAVGCounter++
	m.frameAVGCounter %= AVG_COUNT

	m.history.Push(float32(frameMS))

	// Calculate Frames per second.
	m.accumulatedFrameMS += frameMS
	m.frames++
	if m.accumulatedFrameMS >= 1000 {
		m.fps = float64(m.frames)
		m.accumulatedFrameMS -= 1000
		m.frames = 0
	}
}

func (m *FrameMetrics) FPS() float64 {
	return m.fps
}

func (m *FrameMetrics) FrameTime() float64 {
	return m.msAvg
}

func (m *FrameMetrics) Frame() (float64, float64) {
	return m.fps, m.msAvg
}

// History returns the recorded frame times in milliseconds, oldest first.
func (m *FrameMetrics) History() []float32 {
	return m.history.Values()
}
