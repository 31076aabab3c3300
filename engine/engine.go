package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/spaghettifunk/prism/engine/assets"
	"github.com/spaghettifunk/prism/engine/config"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/platform"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/vulkan"
)

/**
 * @brief Owns the window, the shader library and exactly one renderer. The
 * render loop runs on the calling goroutine, which must be the main thread;
 * the shader watcher is the only other goroutine.
 */
type Engine struct {
	currentStage Stage
	cfg          *config.Config

	platform *platform.Platform
	shaders  *assets.ShaderLibrary
	renderer *renderer.Renderer

	window window
	frames frameRenderer
	clock  *core.Clock
}

func New(cfg *config.Config) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Engine{
		currentStage: EngineStageUninitialized,
		cfg:          cfg,
		platform:     platform.New(),
		shaders:      assets.NewShaderLibrary(cfg.Assets.ShaderDirectory),
		clock:        core.NewClock(),
	}
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("engine initialize called while %s", e.currentStage)
	}
	e.currentStage = EngineStageInitializing

	app := &e.cfg.Application
	if err := e.platform.Startup(app.Name, app.Width, app.Height); err != nil {
		return err
	}

	if missing := e.shaders.Missing(); len(missing) > 0 {
		core.LogWarn("shader artifacts %v missing from %s, run `mage build:shaders`", missing, e.shaders.Directory())
	}

	backend := vulkan.New(e.platform, e.shaders)
	e.renderer = renderer.New(backend, e.cfg)
	e.renderer.SetTitleHandler(e.platform.SetTitle)
	e.window = e.platform
	e.frames = e.renderer
	e.platform.SetInputHandler(e.renderer)
	e.platform.SetResizeHandler(e.onResize)

	width, height := e.platform.FramebufferSize()
	if !e.renderer.Initialize(width, height) {
		return fmt.Errorf("renderer initialization failed")
	}
	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) onResize(width, height uint32) {
	if width == 0 || height == 0 {
		core.LogInfo("window minimized, suspending rendering")
	} else {
		core.LogDebug("window resize: %d, %d", width, height)
	}
	if err := e.frames.Resize(width, height); err != nil {
		core.LogError("resize to %dx%d failed: %s", width, height, err)
	}
}

/**
 * @brief Runs until the window closes, ctx is cancelled or a frame fails.
 * With hot reload enabled the shader watcher runs beside the loop and is
 * stopped when the loop returns.
 */
func (e *Engine) Run(ctx context.Context) error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine run called while %s", e.currentStage)
	}
	e.currentStage = EngineStageRunning

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if e.cfg.Assets.HotReload {
		watcher, err := assets.NewShaderWatcher(e.shaders, e.renderer.RequestReload)
		if err != nil {
			core.LogWarn("shader hot reload disabled: %s", err)
		} else {
			g.Go(func() error { return watcher.Run(gctx) })
		}
	}

	// A minimized window blocks in WaitMessages; cancellation has to wake it.
	g.Go(func() error {
		<-gctx.Done()
		e.window.Wake()
		return nil
	})

	err := e.loop(gctx)
	cancel()
	return errors.Join(err, g.Wait())
}

func (e *Engine) loop(ctx context.Context) error {
	e.clock.Start()
	for {
		if ctx.Err() != nil {
			return nil
		}

		if e.frames.Suspended() {
			// Nothing to draw until the window is restored.
			if !e.window.WaitMessages() {
				return nil
			}
			e.clock.Update()
			continue
		}
		if !e.window.PumpMessages() {
			return nil
		}
		e.clock.Update()
		if e.frames.Suspended() {
			continue
		}
		e.frames.Update(e.clock.Delta())
		if err := e.frames.Render(); err != nil {
			core.LogError("render failed, shutting down: %s", err)
			return err
		}
		runtime.Gosched()
	}
}

func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShutdown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	var errs []error
	if e.renderer != nil {
		if err := e.renderer.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := e.platform.Shutdown(); err != nil {
		errs = append(errs, err)
	}
	e.currentStage = EngineStageShutdown
	return errors.Join(errs...)
}
