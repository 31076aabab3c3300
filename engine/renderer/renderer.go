package renderer

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/prism/engine/config"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/components"
	"github.com/spaghettifunk/prism/engine/renderer/descriptors"
	"github.com/spaghettifunk/prism/engine/renderer/frame"
	"github.com/spaghettifunk/prism/engine/renderer/geometry"
	"github.com/spaghettifunk/prism/engine/renderer/memory"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"github.com/spaghettifunk/prism/engine/renderer/views"
)

// TITLE_INTERVAL is how often, in seconds, the window title is refreshed.
const TITLE_INTERVAL float64 = 0.5

/**
 * @brief The platform facing renderer. It owns the scene controls, the frame
 * pacing and the transient memory of every frame slot, and drives the
 * shadow, world and HUD passes through a RendererBackend.
 */
type Renderer struct {
	cfg     *config.Config
	backend RendererBackend

	input        *core.InputState
	scene        *SceneState
	camera       *components.Camera
	playerCamera *components.Camera
	metrics      *core.FrameMetrics
	boxes        []geometry.DebugBox

	sync   *frame.Sync
	frames *frame.Manager
	passes metadata.PassTracker
	static views.StaticGeometry
	shadow *views.ShadowView
	world  *views.WorldView
	hud    *views.HUDView
	packet views.Packet

	width       uint32
	height      uint32
	initialized bool
	suspended   bool
	vsync       bool

	fps          float32
	lastFrameMs  float32
	titleElapsed float64
	titleFrames  int
	onTitle      func(string)

	reload chan string
}

func New(backend RendererBackend, cfg *config.Config) *Renderer {
	if cfg == nil {
		cfg = config.Default()
	}
	r := &Renderer{
		cfg:          cfg,
		backend:      backend,
		input:        core.NewInputState(),
		scene:        NewSceneState(cfg),
		camera:       components.NewCamera(),
		playerCamera: components.NewCamera(),
		metrics:      core.NewFrameMetrics(),
		boxes:        geometry.GenerateDebugBoxes(geometry.DEBUG_BOX_SEED, geometry.DEBUG_BOX_COUNT),
		width:        cfg.Application.Width,
		height:       cfg.Application.Height,
		vsync:        cfg.Renderer.VSync,
		reload:       make(chan string, 16),
	}

	height := r.height
	if height == 0 {
		height = 1
	}
	aspect := float32(r.width) / float32(height)
	c := &cfg.Camera
	r.camera.SetLens(math.DegToRad(c.FovDegrees), aspect, c.Near, c.Far)
	r.camera.SetPosition(config.Vec3(c.Position))
	r.camera.SetYawPitch(c.Yaw, c.Pitch)
	r.playerCamera.SetLens(math.DegToRad(c.PlayerFovDegrees), aspect, c.PlayerNear, c.PlayerFar)
	r.playerCamera.SetPosition(r.scene.PlayerPosition)
	return r
}

/**
 * @brief Brings up the backend and every per frame system. Any failure is
 * fatal for the renderer: it is logged and false is returned.
 */
func (r *Renderer) Initialize(width, height uint32) bool {
	if err := r.initialize(width, height); err != nil {
		core.LogError("renderer initialization failed: %s", err)
		// Release whatever the backend created before the failure.
		if err := r.backend.Shutdown(); err != nil {
			core.LogError(err.Error())
		}
		return false
	}
	r.initialized = true
	core.LogInfo("renderer initialized at %dx%d with %d frames in flight", r.width, r.height, r.sync.Depth())
	return true
}

func (r *Renderer) initialize(width, height uint32) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("invalid surface size %dx%d", width, height)
	}
	backendConfig := r.cfg.Backend()
	if err := r.backend.Initialize(&backendConfig, width, height); err != nil {
		return err
	}

	frames := r.cfg.Renderer.FramesInFlight
	sync, err := frame.NewSync(r.backend.Timeline(), frames)
	if err != nil {
		return err
	}

	mapped, gpuBase := r.backend.UploadMemory()
	upload, err := memory.NewUploadAllocator(mapped, gpuBase, frames)
	if err != nil {
		return err
	}
	srv, rtv, dsv := r.backend.DescriptorHeaps()
	system, err := descriptors.NewSystem(frames, srv, rtv, dsv)
	if err != nil {
		return err
	}
	manager, err := frame.NewManager(frames, system, upload, r.cfg.Renderer.FrameArenaSize, r.cfg.Renderer.PassArenaSize)
	if err != nil {
		return err
	}

	if err := r.createStaticGeometry(); err != nil {
		return err
	}

	r.sync = sync
	r.frames = manager
	r.shadow = views.NewShadowView(r.cfg.Renderer.ShadowMapSize, &r.static)
	r.world = views.NewWorldView(&r.static)
	r.hud = views.NewHUDView()
	r.setSize(width, height)
	return nil
}

// createStaticGeometry builds the grid, axes, cube and ground once.
func (r *Renderer) createStaticGeometry() error {
	grid := geometry.NewHeapBatch[metadata.VertexPC](geometry.GridVertexCount(geometry.GRID_HALF_EXTENT, geometry.GRID_SPACING))
	geometry.AddGrid(grid, geometry.GRID_HALF_EXTENT, geometry.GRID_SPACING, geometry.GridColour)

	axes := geometry.NewHeapBatch[metadata.VertexPC](geometry.AXES_VERTEX_COUNT)
	geometry.AddAxes(axes, geometry.AXES_LENGTH)

	cube := geometry.NewHeapBatch[metadata.VertexPNC](geometry.CUBE_VERTEX_COUNT)
	geometry.AddCube(cube, geometry.CUBE_HALF_EXTENT)

	ground := geometry.NewHeapBatch[metadata.VertexPNC](geometry.GROUND_VERTEX_COUNT)
	geometry.AddGround(ground, geometry.GROUND_HALF_EXTENT, geometry.GroundColour)

	var err error
	if r.static.Grid, err = r.backend.CreateStaticVertexBuffer("grid", grid.Bytes(), metadata.VERTEX_PC_SIZE); err != nil {
		return err
	}
	if r.static.Axes, err = r.backend.CreateStaticVertexBuffer("axes", axes.Bytes(), metadata.VERTEX_PC_SIZE); err != nil {
		return err
	}
	if r.static.Cube, err = r.backend.CreateStaticVertexBuffer("cube", cube.Bytes(), metadata.VERTEX_PNC_SIZE); err != nil {
		return err
	}
	if r.static.Ground, err = r.backend.CreateStaticVertexBuffer("ground", ground.Bytes(), metadata.VERTEX_PNC_SIZE); err != nil {
		return err
	}
	return nil
}

func (r *Renderer) setSize(width, height uint32) {
	r.width = width
	r.height = height
	aspect := float32(width) / float32(height)
	r.camera.SetAspect(aspect)
	r.playerCamera.SetAspect(aspect)
}

/**
 * @brief Follows the window size. A zero dimension means the window is
 * minimized: rendering is suspended until a real size arrives. Otherwise
 * the GPU is drained before the size dependent objects are recreated.
 */
func (r *Renderer) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		r.suspended = true
		return nil
	}
	r.suspended = false
	if !r.initialized {
		r.setSize(width, height)
		return nil
	}
	return r.recreate(width, height)
}

func (r *Renderer) recreate(width, height uint32) error {
	if err := r.sync.WaitForIdle(); err != nil {
		core.LogError(err.Error())
		return err
	}
	if err := r.backend.Resized(width, height); err != nil {
		err = fmt.Errorf("recreating swapchain at %dx%d: %w", width, height, err)
		core.LogError(err.Error())
		return err
	}
	r.setSize(width, height)
	core.LogDebug("swapchain recreated at %dx%d", width, height)
	return nil
}

// Suspended reports whether frames are currently skipped because the window is minimized.
func (r *Renderer) Suspended() bool {
	return r.suspended
}

/**
 * @brief Queues a pipeline rebuild. Safe to call from any goroutine; the
 * rebuild happens on the render thread before the next frame.
 */
func (r *Renderer) RequestReload(artifact string) {
	select {
	case r.reload <- artifact:
	default:
		core.LogDebug("pipeline reload already queued, dropping %s", artifact)
	}
}

// applyPending runs the stop-the-world work queued since the last frame.
func (r *Renderer) applyPending() error {
	var changed []string
drain:
	for {
		select {
		case name := <-r.reload:
			changed = append(changed, name)
		default:
			break drain
		}
	}

	if len(changed) == 0 && r.vsync == r.scene.VSync {
		return nil
	}
	if err := r.sync.WaitForIdle(); err != nil {
		return err
	}
	if r.vsync != r.scene.VSync {
		if err := r.backend.SetVSync(r.scene.VSync); err != nil {
			return fmt.Errorf("switching vsync: %w", err)
		}
		r.vsync = r.scene.VSync
		core.LogInfo("vsync %t", r.vsync)
	}
	if len(changed) > 0 {
		if err := r.backend.ReloadPipelines(); err != nil {
			// Broken artifacts keep the previous pipelines alive.
			core.LogWarn("pipeline reload after %v failed: %s", changed, err)
			return nil
		}
		core.LogInfo("pipelines reloaded after %d shader change(s)", len(changed))
	}
	return nil
}

/**
 * @brief Records and submits one frame: shadow, world then HUD. An out of
 * date swapchain recreates it and drops the frame. Returned errors are fatal.
 */
func (r *Renderer) Render() error {
	if !r.initialized {
		return core.ErrNotInitialized
	}
	if r.suspended {
		return nil
	}
	if err := r.applyPending(); err != nil {
		core.LogError(err.Error())
		return err
	}

	if err := r.sync.AdvanceFrame(); err != nil {
		core.LogError(err.Error())
		return err
	}
	index := r.sync.FrameIndex()

	commands, err := r.backend.BeginFrame(index)
	if errors.Is(err, core.ErrSwapchainOutOfDate) {
		return r.recreate(r.width, r.height)
	}
	if errors.Is(err, core.ErrSwapchainBooting) {
		return nil
	}
	if err != nil {
		core.LogError(err.Error())
		return err
	}

	resources := r.frames.BeginFrame(index, r.sync.SlotValue(index))
	f := &views.Frame{Resources: resources, Commands: commands, Packet: r.buildPacket()}
	if err := r.record(f); err != nil {
		r.passes.Abort()
		core.LogError(err.Error())
		return err
	}

	r.sync.Submit()
	err = r.backend.EndFrame(index)
	if err == nil || errors.Is(err, core.ErrSwapchainOutOfDate) {
		if passErr := r.passes.Enter(metadata.PASS_STATE_SUBMITTED); passErr != nil {
			return passErr
		}
	}
	r.frames.EndFrame(index)
	if f.Skipped > 0 {
		core.LogDebug("frame slot %d skipped %d draws", index, f.Skipped)
	}

	if errors.Is(err, core.ErrSwapchainOutOfDate) {
		return r.recreate(r.width, r.height)
	}
	if err != nil {
		r.passes.Abort()
		core.LogError(err.Error())
		return err
	}
	return nil
}

func (r *Renderer) record(f *views.Frame) error {
	if err := r.passes.Begin(); err != nil {
		return err
	}
	if err := r.passes.Enter(metadata.PASS_STATE_SHADOW); err != nil {
		return err
	}
	r.shadow.Record(f)
	if err := r.passes.Enter(metadata.PASS_STATE_OPAQUE); err != nil {
		return err
	}
	r.world.Record(f)
	if err := r.passes.Enter(metadata.PASS_STATE_HUD); err != nil {
		return err
	}
	r.hud.Record(f)
	return nil
}

// buildPacket snapshots the scene for the passes of this frame.
func (r *Renderer) buildPacket() *views.Packet {
	s := r.scene
	p := &r.packet

	near, far := s.CullRange(r.playerCamera.Near, r.playerCamera.Far)
	origin := s.PlayerPosition.Add(s.FrustumOffset)
	cameraToWorld := math.NewMat4CameraToWorld(origin, r.camera.Forward(), r.camera.Up())

	*p = views.Packet{
		Width:               r.width,
		Height:              r.height,
		ViewProjection:      r.camera.GetViewProjection(),
		LightEnabled:        s.LightEnabled,
		ShadowsEnabled:      s.ShadowsEnabled,
		LightDir:            s.LightDirection(),
		LightViewProjection: s.LightViewProjection(),
		ShowGrid:            s.ShowGrid,
		ShowFrustum:         s.ShowFrustum,
		ShowTestCube:        s.ShowTestCube,
		ShowRandomCubes:     s.ShowRandomCubes,
		TestCubeModel:       s.TestCubeModel(),
		PlayerPosition:      s.PlayerPosition,
		CullFrustum:         math.NewFrustum(cameraToWorld, r.playerCamera.FovY, r.playerCamera.Aspect, near, far),
		DebugBoxes:          r.boxes,
		HUD: geometry.HUDInfo{
			FPS:         r.fps,
			FrameTimeMs: r.lastFrameMs,
			Position:    r.camera.GetPosition(),
			Forward:     r.camera.Forward(),
			Speed:       r.moveSpeed(),
			Toggles:     s.Toggles(),
			CameraMode:  int(s.CameraMode),
			ModeCount:   int(CAMERA_MODE_COUNT),
			History:     r.metrics.History(),
		},
	}
	return p
}

// Shutdown drains the GPU and releases the backend.
func (r *Renderer) Shutdown() error {
	if !r.initialized {
		return nil
	}
	r.initialized = false
	var errs []error
	if err := r.sync.WaitForIdle(); err != nil {
		errs = append(errs, err)
	}
	if err := r.backend.Shutdown(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		core.LogError("renderer shutdown: %s", err)
		return err
	}
	core.LogInfo("renderer shut down after %d blocking frame waits", r.sync.BlockingWaits())
	return nil
}

// SetTitleHandler receives the window title every TITLE_INTERVAL seconds.
func (r *Renderer) SetTitleHandler(fn func(title string)) {
	r.onTitle = fn
}

func (r *Renderer) Scene() *SceneState {
	return r.scene
}

func (r *Renderer) Camera() *components.Camera {
	return r.camera
}

func (r *Renderer) Size() (uint32, uint32) {
	return r.width, r.height
}
