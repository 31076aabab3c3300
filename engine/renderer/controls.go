package renderer

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
)

func onOff(v bool) string {
	if v {
		return "On"
	}
	return "Off"
}

// OnKeyDown handles toggles and one shot adjustments. Held keys are read by Update.
func (r *Renderer) OnKeyDown(key core.KeyCode) {
	r.input.ProcessKey(key, true)
	s := r.scene

	switch key {
	case core.KEY_F:
		s.ShowFrustum = !s.ShowFrustum
	case core.KEY_G:
		s.ShowGrid = !s.ShowGrid
	case core.KEY_V:
		s.VSync = !s.VSync

	case core.KEY_LBRACKET:
		s.ScaleMouseSensitivity(0.9)
	case core.KEY_RBRACKET:
		s.ScaleMouseSensitivity(1.1)
	case core.KEY_SEMICOLON:
		s.AdjustMouseAcceleration(-MOUSE_ACCELERATION_STEP)
	case core.KEY_APOSTROPHE:
		s.AdjustMouseAcceleration(MOUSE_ACCELERATION_STEP)

	case core.KEY_C:
		r.cycleCameraMode()

	case core.KEY_O:
		s.CullOverride = !s.CullOverride
	case core.KEY_PLUS:
		s.ScaleCullFar(1.25, 0.01)
	case core.KEY_MINUS:
		s.ScaleCullFar(0.8, 0.02)
	case core.KEY_0:
		s.ScaleCullNear(1.25)
	case core.KEY_9:
		s.ScaleCullNear(0.8)

	case core.KEY_H:
		s.LightEnabled = !s.LightEnabled
	case core.KEY_B:
		s.ShadowsEnabled = !s.ShadowsEnabled
	case core.KEY_T:
		s.ShowTestCube = !s.ShowTestCube
	case core.KEY_R:
		s.ShowRandomCubes = !s.ShowRandomCubes
	case core.KEY_N:
		s.LightAutoOrbit = !s.LightAutoOrbit

	case core.KEY_J:
		s.AdjustLight(-LIGHT_ANGLE_STEP, 0)
	case core.KEY_L:
		s.AdjustLight(LIGHT_ANGLE_STEP, 0)
	case core.KEY_I:
		s.AdjustLight(0, LIGHT_ANGLE_STEP)
	case core.KEY_K:
		s.AdjustLight(0, -LIGHT_ANGLE_STEP)

	case core.KEY_HOME:
		s.FrustumOffset.Y += r.frustumStep()
	case core.KEY_END:
		s.FrustumOffset.Y -= r.frustumStep()
	case core.KEY_INSERT:
		s.FrustumOffset.X += r.frustumStep()
	case core.KEY_DELETE:
		s.FrustumOffset.X -= r.frustumStep()
	case core.KEY_M:
		s.FrustumOffset.Z -= r.frustumStep()
	case core.KEY_BACKSPACE:
		s.FrustumOffset = math.NewVec3Zero()
	}
}

func (r *Renderer) OnKeyUp(key core.KeyCode) {
	r.input.ProcessKey(key, false)
}

func (r *Renderer) controlHeld() bool {
	return r.input.IsKeyDown(core.KEY_CONTROL) || r.input.IsKeyDown(core.KEY_LCONTROL) || r.input.IsKeyDown(core.KEY_RCONTROL)
}

func (r *Renderer) frustumStep() float32 {
	if r.controlHeld() {
		return FRUSTUM_OFFSET_STEP * FRUSTUM_OFFSET_FAST
	}
	return FRUSTUM_OFFSET_STEP
}

// cameraTarget is what the follow and orbit modes look after.
func (r *Renderer) cameraTarget() (math.Vec3, float32) {
	if r.scene.CameraMode == CAMERA_MODE_ORBIT {
		return r.scene.OrbitFocus, ORBIT_DISTANCE
	}
	return r.scene.PlayerPosition, FOLLOW_DISTANCE
}

/**
 * @brief Free -> ThirdPerson -> Orbit -> Free. Leaving the free camera puts
 * it behind the target along its current horizontal heading.
 */
func (r *Renderer) cycleCameraMode() {
	previous := r.scene.CameraMode
	r.scene.CameraMode = previous.Next()
	if previous != CAMERA_MODE_FREE {
		return
	}
	target, distance := r.cameraTarget()
	forward := r.camera.Forward()
	forward.Y = 0
	forward = forward.NormalizeSafe(math.NewVec3Forward())
	position := target.Sub(forward.MulScalar(distance)).Add(math.NewVec3(0, CAMERA_HEIGHT_OFFSET, 0))
	r.camera.SetPosition(position)
	core.LogDebug("camera mode %s", r.scene.CameraMode)
}

/**
 * @brief Mouse look needs the right button held for this move and the
 * previous one, so the first move after a press never jumps.
 */
func (r *Renderer) OnMouseMove(x, y int32, leftDown, rightDown bool) {
	wasHeld := r.input.IsButtonDown(core.BUTTON_RIGHT)
	dx, dy := r.input.ProcessMouseMove(x, y)
	r.input.ProcessButton(core.BUTTON_LEFT, leftDown)
	r.input.ProcessButton(core.BUTTON_RIGHT, rightDown)
	if !rightDown || !wasHeld {
		return
	}

	fdx, fdy := float32(dx), float32(dy)
	gain := 1 + r.scene.MouseAcceleration*math.Sqrt(fdx*fdx+fdy*fdy)
	sensitivity := r.scene.MouseSensitivity * gain
	r.camera.YawPitch(fdx*sensitivity, fdy*sensitivity)
}

// OnMouseWheel zooms: a positive delta narrows the field of view.
func (r *Renderer) OnMouseWheel(delta float32) {
	r.input.ProcessMouseWheel(delta)
	step := math.DegToRad(FOV_STEP_DEGREES)
	if delta > 0 {
		step = -step
	}
	fov := math.Clamp(r.camera.FovY+step, math.DegToRad(FOV_MIN_DEGREES), math.DegToRad(FOV_MAX_DEGREES))
	r.camera.SetLens(fov, r.camera.Aspect, r.camera.Near, r.camera.Far)
}

func (r *Renderer) sprinting() bool {
	return r.input.IsKeyDown(core.KEY_LSHIFT) || r.input.IsKeyDown(core.KEY_SHIFT)
}

func (r *Renderer) moveSpeed() float32 {
	if r.sprinting() {
		return r.scene.MoveSpeed * r.scene.SprintMultiplier
	}
	return r.scene.MoveSpeed
}

/**
 * @brief Advances the scene by dt seconds: held movement keys, the follow
 * camera, the light orbit, frame metrics and the window title.
 */
func (r *Renderer) Update(dt float64) {
	step := float32(dt)
	s := r.scene

	d := r.moveSpeed() * step
	if r.input.IsKeyDown(core.KEY_W) {
		r.camera.TranslateRelative(0, 0, d)
	}
	if r.input.IsKeyDown(core.KEY_S) {
		r.camera.TranslateRelative(0, 0, -d)
	}
	if r.input.IsKeyDown(core.KEY_A) {
		r.camera.TranslateRelative(-d, 0, 0)
	}
	if r.input.IsKeyDown(core.KEY_D) {
		r.camera.TranslateRelative(d, 0, 0)
	}
	if r.input.IsKeyDown(core.KEY_Q) {
		r.camera.TranslateRelative(0, -d, 0)
	}
	if r.input.IsKeyDown(core.KEY_E) {
		r.camera.TranslateRelative(0, d, 0)
	}

	p := s.PlayerSpeed * step
	var move math.Vec3
	if r.input.IsKeyDown(core.KEY_LEFT) {
		move.X -= p
	}
	if r.input.IsKeyDown(core.KEY_RIGHT) {
		move.X += p
	}
	if r.input.IsKeyDown(core.KEY_UP) {
		move.Z += p
	}
	if r.input.IsKeyDown(core.KEY_DOWN) {
		move.Z -= p
	}
	if r.input.IsKeyDown(core.KEY_PRIOR) {
		move.Y += p
	}
	if r.input.IsKeyDown(core.KEY_NEXT) {
		move.Y -= p
	}
	s.PlayerPosition = s.PlayerPosition.Add(move)

	if s.CameraMode != CAMERA_MODE_FREE {
		target, distance := r.cameraTarget()
		r.camera.SetPosition(target.Add(math.NewVec3(0, CAMERA_HEIGHT_OFFSET, -distance)))
	}
	r.playerCamera.SetPosition(s.PlayerPosition.Add(s.FrustumOffset))

	if s.LightAutoOrbit {
		s.LightYaw += s.LightOrbitSpeed * step
	}

	r.metrics.Update(dt)
	r.lastFrameMs = step * 1000
	r.updateTitle(dt)
	r.input.Update()
}

func (r *Renderer) updateTitle(dt float64) {
	r.titleElapsed += dt
	r.titleFrames++
	if r.titleElapsed <= TITLE_INTERVAL {
		return
	}
	r.fps = float32(float64(r.titleFrames) / r.titleElapsed)
	r.titleElapsed = 0
	r.titleFrames = 0
	if r.onTitle != nil {
		r.onTitle(r.Title())
	}
}

// Title summarizes frame rate and scene toggles for the window caption.
func (r *Renderer) Title() string {
	s := r.scene
	return fmt.Sprintf("%s | FPS: %.1f | VSync: %s | Light %s Auto:%s | Random:%s Test:%s | FrustumOff (%.2f, %.2f, %.2f)",
		r.cfg.Application.Name, r.fps, onOff(s.VSync), onOff(s.LightEnabled), onOff(s.LightAutoOrbit),
		onOff(s.ShowRandomCubes), onOff(s.ShowTestCube), s.FrustumOffset.X, s.FrustumOffset.Y, s.FrustumOffset.Z)
}
