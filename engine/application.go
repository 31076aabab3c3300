package engine

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing the window and the renderer
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released everything it owned
	EngineStageShutdown
)

func (s Stage) String() string {
	switch s {
	case EngineStageUninitialized:
		return "uninitialized"
	case EngineStageInitializing:
		return "initializing"
	case EngineStageInitialized:
		return "initialized"
	case EngineStageRunning:
		return "running"
	case EngineStageShuttingDown:
		return "shutting down"
	case EngineStageShutdown:
		return "shut down"
	}
	return "unknown"
}

// window is the part of the platform shell the run loop drives.
type window interface {
	PumpMessages() bool
	WaitMessages() bool
	Wake()
}

// frameRenderer is the part of the renderer the run loop drives.
type frameRenderer interface {
	Update(dt float64)
	Render() error
	Resize(width, height uint32) error
	Suspended() bool
}
