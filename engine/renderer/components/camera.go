package components

import (
	"github.com/spaghettifunk/prism/engine/math"
)

/** @brief Pitch limit, 89 degrees, to keep the basis away from the up vector. */
const CAMERA_PITCH_LIMIT float32 = 1.55334306

/**
 * @brief A perspective camera described by position, yaw, pitch and lens.
 * Yaw rotates around +Y starting at +Z, pitch tilts towards +Y. The basis and
 * view matrix are rebuilt lazily when something changes.
 */
type Camera struct {
	/**
	 * @brief The position of this camera.
	 * NOTE: Do not set this directly, use SetPosition() instead
	 * so the view matrix is recalculated when needed.
	 */
	Position math.Vec3
	Yaw      float32
	Pitch    float32

	/** @brief Vertical field of view in radians. */
	FovY   float32
	Aspect float32
	Near   float32
	Far    float32

	forward math.Vec3
	right   math.Vec3
	up      math.Vec3

	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	IsDirty    bool
	viewMatrix math.Mat4
}

func NewCamera() *Camera {
	camera := &Camera{}
	camera.Reset()
	return camera
}

func (c *Camera) Reset() {
	c.Position = math.Vec3{X: 0, Y: 1.5, Z: -5}
	c.Yaw = 0
	c.Pitch = 0
	c.FovY = math.PI / 4
	c.Aspect = 16.0 / 9.0
	c.Near = 0.1
	c.Far = 500
	c.updateBasis()
}

func (c *Camera) SetLens(fovY, aspect, near, far float32) {
	c.FovY = fovY
	c.Aspect = aspect
	c.Near = near
	c.Far = far
}

// SetAspect keeps the other lens values.
func (c *Camera) SetAspect(aspect float32) {
	if aspect > math.EPSILON {
		c.Aspect = aspect
	}
}

func (c *Camera) GetPosition() math.Vec3 {
	return c.Position
}

func (c *Camera) SetPosition(position math.Vec3) {
	c.Position = position
	c.IsDirty = true
}

// SetYawPitch replaces the orientation. Pitch is clamped to +-89 degrees.
func (c *Camera) SetYawPitch(yaw, pitch float32) {
	c.Yaw = yaw
	c.Pitch = math.Clamp(pitch, -CAMERA_PITCH_LIMIT, CAMERA_PITCH_LIMIT)
	c.updateBasis()
}

// YawPitch rotates by the given deltas.
func (c *Camera) YawPitch(dyaw, dpitch float32) {
	c.SetYawPitch(c.Yaw+dyaw, c.Pitch+dpitch)
}

func (c *Camera) updateBasis() {
	cy, sy := math.Cos(c.Yaw), math.Sin(c.Yaw)
	cp, sp := math.Cos(c.Pitch), math.Sin(c.Pitch)
	c.forward = math.Vec3{X: sy * cp, Y: sp, Z: cy * cp}.NormalizeSafe(math.NewVec3Forward())
	c.right = math.NewVec3Up().Cross(c.forward).NormalizeSafe(math.NewVec3Right())
	c.up = c.forward.Cross(c.right)
	c.IsDirty = true
}

func (c *Camera) Forward() math.Vec3 {
	return c.forward
}

func (c *Camera) Right() math.Vec3 {
	return c.right
}

func (c *Camera) Up() math.Vec3 {
	return c.up
}

/**
 * @brief The left-handed look-at view matrix. Cached until the camera moves.
 */
func (c *Camera) GetView() math.Mat4 {
	if c.IsDirty {
		c.viewMatrix = math.NewMat4LookAtLH(c.Position, c.Position.Add(c.forward), c.up)
		c.IsDirty = false
	}
	return c.viewMatrix
}

func (c *Camera) GetProjection() math.Mat4 {
	return math.NewMat4PerspectiveFovLH(c.FovY, c.Aspect, c.Near, c.Far)
}

func (c *Camera) GetViewProjection() math.Mat4 {
	return c.GetView().Mul(c.GetProjection())
}

// GetCameraToWorld returns the matrix with rows right, up, forward and position.
func (c *Camera) GetCameraToWorld() math.Mat4 {
	return math.NewMat4CameraToWorld(c.Position, c.forward, c.up)
}

/**
 * @brief Builds the view frustum from the camera pose. near and far replace the
 * lens values so a culling volume can differ from the projection volume.
 */
func (c *Camera) Frustum(near, far float32) math.Frustum {
	return math.NewFrustum(c.GetCameraToWorld(), c.FovY, c.Aspect, near, far)
}

// TranslateRelative moves along the camera's own right, up and forward axes.
func (c *Camera) TranslateRelative(dx, dy, dz float32) {
	delta := c.right.MulScalar(dx).Add(c.up.MulScalar(dy)).Add(c.forward.MulScalar(dz))
	c.Position = c.Position.Add(delta)
	c.IsDirty = true
}

func (c *Camera) MoveForward(amount float32) {
	c.TranslateRelative(0, 0, amount)
}

func (c *Camera) MoveBackward(amount float32) {
	c.TranslateRelative(0, 0, -amount)
}

func (c *Camera) MoveLeft(amount float32) {
	c.TranslateRelative(-amount, 0, 0)
}

func (c *Camera) MoveRight(amount float32) {
	c.TranslateRelative(amount, 0, 0)
}

func (c *Camera) MoveUp(amount float32) {
	c.Position = c.Position.Add(math.NewVec3Up().MulScalar(amount))
	c.IsDirty = true
}

func (c *Camera) MoveDown(amount float32) {
	c.MoveUp(-amount)
}

/**
 * @brief Points the camera at target by deriving yaw and pitch from the
 * direction. A target at the camera position keeps the current orientation.
 */
func (c *Camera) LookAt(target math.Vec3) {
	dir := target.Sub(c.Position)
	if dir.LengthSquared() < math.EPSILON*math.EPSILON {
		return
	}
	dir = dir.Normalized()
	c.SetYawPitch(math.Atan2(dir.X, dir.Z), math.Asin(dir.Y))
}
