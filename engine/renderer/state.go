package renderer

import (
	"github.com/spaghettifunk/prism/engine/config"
	"github.com/spaghettifunk/prism/engine/math"
)

/** @brief How the render camera is driven. */
type CameraMode int

const (
	CAMERA_MODE_FREE CameraMode = iota
	CAMERA_MODE_THIRD_PERSON
	CAMERA_MODE_ORBIT
	CAMERA_MODE_COUNT
)

func (m CameraMode) Next() CameraMode {
	return (m + 1) % CAMERA_MODE_COUNT
}

func (m CameraMode) String() string {
	switch m {
	case CAMERA_MODE_FREE:
		return "free"
	case CAMERA_MODE_THIRD_PERSON:
		return "third_person"
	case CAMERA_MODE_ORBIT:
		return "orbit"
	}
	return "unknown"
}

const (
	FOLLOW_DISTANCE      float32 = 4
	ORBIT_DISTANCE       float32 = 6
	CAMERA_HEIGHT_OFFSET float32 = 1.2

	FRUSTUM_OFFSET_STEP float32 = 0.25
	FRUSTUM_OFFSET_FAST float32 = 5

	LIGHT_ANGLE_STEP  float32 = 0.08
	LIGHT_PITCH_LIMIT float32 = 1.35

	MOUSE_SENSITIVITY_MIN   float32 = 0.0005
	MOUSE_SENSITIVITY_MAX   float32 = 0.02
	MOUSE_ACCELERATION_MAX  float32 = 0.001
	MOUSE_ACCELERATION_STEP float32 = 0.00005

	CULL_FAR_MAX  float32 = 500
	CULL_NEAR_MIN float32 = 0.01

	FOV_STEP_DEGREES float32 = 2
	FOV_MIN_DEGREES  float32 = 20
	FOV_MAX_DEGREES  float32 = 110
)

/**
 * @brief Scene toggles and tunables changed by the controls between frames.
 */
type SceneState struct {
	LightEnabled    bool
	ShadowsEnabled  bool
	LightAutoOrbit  bool
	ShowGrid        bool
	ShowFrustum     bool
	ShowTestCube    bool
	ShowRandomCubes bool
	CullOverride    bool
	VSync           bool

	LightYaw        float32
	LightPitch      float32
	LightOrbitSpeed float32
	LightDistance   float32
	LightOrthoHalf  float32
	LightNear       float32
	LightFar        float32

	CameraMode     CameraMode
	OrbitFocus     math.Vec3
	PlayerPosition math.Vec3
	FrustumOffset  math.Vec3
	CullNear       float32
	CullFar        float32

	MoveSpeed         float32
	SprintMultiplier  float32
	PlayerSpeed       float32
	MouseSensitivity  float32
	MouseAcceleration float32

	// TestCube places the lit cube the light looks at.
	TestCube *math.Transform
}

func NewSceneState(cfg *config.Config) *SceneState {
	return &SceneState{
		LightEnabled:    cfg.Light.Enabled,
		ShadowsEnabled:  cfg.Light.Shadows,
		ShowGrid:        true,
		ShowFrustum:     true,
		ShowTestCube:    true,
		ShowRandomCubes: true,
		CullOverride:    true,
		VSync:           cfg.Renderer.VSync,

		LightYaw:        cfg.Light.Yaw,
		LightPitch:      cfg.Light.Pitch,
		LightOrbitSpeed: cfg.Light.AutoOrbitSpeed,
		LightDistance:   cfg.Light.Distance,
		LightOrthoHalf:  cfg.Light.OrthoHalfExtent,
		LightNear:       cfg.Light.Near,
		LightFar:        cfg.Light.Far,

		PlayerPosition: config.Vec3(cfg.Camera.PlayerPosition),
		CullNear:       cfg.Camera.PlayerNear,
		CullFar:        cfg.Camera.PlayerFar,

		MoveSpeed:         cfg.Camera.MoveSpeed,
		SprintMultiplier:  cfg.Camera.SprintMultiplier,
		PlayerSpeed:       cfg.Camera.PlayerSpeed,
		MouseSensitivity:  cfg.Camera.MouseSensitivity,
		MouseAcceleration: cfg.Camera.MouseAcceleration,

		TestCube: math.NewTransformFromPosition(math.NewVec3(9.4, 0.9, 0)),
	}
}

// LightDirection is the direction the light travels, from the light into the scene.
func (s *SceneState) LightDirection() math.Vec3 {
	cy, sy := math.Cos(s.LightYaw), math.Sin(s.LightYaw)
	cp, sp := math.Cos(s.LightPitch), math.Sin(s.LightPitch)
	return math.NewVec3(cy*cp, sp, sy*cp).NormalizeSafe(math.NewVec3Up())
}

/**
 * @brief The light looks at the test cube from LightDistance away along the
 * light direction, with an orthographic volume around it.
 */
func (s *SceneState) LightViewProjection() math.Mat4 {
	target := s.TestCube.Position
	eye := target.Sub(s.LightDirection().MulScalar(s.LightDistance))
	view := math.NewMat4LookAtLH(eye, target, math.NewVec3Up())
	h := s.LightOrthoHalf
	proj := math.NewMat4OrthographicOffCenterLH(-h, h, -h, h, s.LightNear, s.LightFar)
	return view.Mul(proj)
}

func (s *SceneState) TestCubeModel() math.Mat4 {
	return s.TestCube.GetWorld()
}

// Toggles returns the HUD toggle row: light, shadows, grid, frustum, test cube, random cubes.
func (s *SceneState) Toggles() [6]bool {
	return [6]bool{s.LightEnabled, s.ShadowsEnabled, s.ShowGrid, s.ShowFrustum, s.ShowTestCube, s.ShowRandomCubes}
}

// CullRange is the near/far pair the debug boxes are culled with.
func (s *SceneState) CullRange(playerNear, playerFar float32) (float32, float32) {
	near, far := playerNear, playerFar
	if s.CullOverride {
		near, far = s.CullNear, s.CullFar
	}
	if far <= near+0.001 {
		far = near + 0.001
	}
	return near, far
}

// ScaleCullFar keeps far at most CULL_FAR_MAX and at least gap beyond near.
func (s *SceneState) ScaleCullFar(factor, gap float32) {
	far := s.CullFar * factor
	if far > CULL_FAR_MAX {
		far = CULL_FAR_MAX
	}
	if far < s.CullNear+gap {
		far = s.CullNear + gap
	}
	s.CullFar = far
}

func (s *SceneState) ScaleCullNear(factor float32) {
	near := s.CullNear * factor
	if near > s.CullFar-0.02 {
		near = s.CullFar - 0.02
	}
	if near < CULL_NEAR_MIN {
		near = CULL_NEAR_MIN
	}
	s.CullNear = near
}

func (s *SceneState) AdjustLight(dyaw, dpitch float32) {
	s.LightYaw += dyaw
	s.LightPitch = math.Clamp(s.LightPitch+dpitch, -LIGHT_PITCH_LIMIT, LIGHT_PITCH_LIMIT)
}

func (s *SceneState) ScaleMouseSensitivity(factor float32) {
	s.MouseSensitivity = math.Clamp(s.MouseSensitivity*factor, MOUSE_SENSITIVITY_MIN, MOUSE_SENSITIVITY_MAX)
}

func (s *SceneState) AdjustMouseAcceleration(delta float32) {
	s.MouseAcceleration = math.Clamp(s.MouseAcceleration+delta, 0, MOUSE_ACCELERATION_MAX)
}
