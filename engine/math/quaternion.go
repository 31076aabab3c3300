package math

func NewQuatIdentity() Quaternion {
	return Quaternion{0, 0, 0, 1}
}

/**
 * @brief Creates a quaternion rotating angle radians around axis. A degenerate
 * axis yields the identity.
 */
func NewQuatFromAxisAngle(axis Vec3, angle float32) Quaternion {
	if axis.LengthSquared() < EPSILON*EPSILON {
		return NewQuatIdentity()
	}
	n := axis.Normalized()
	half := angle * 0.5
	s := Sin(half)
	return Quaternion{n.X * s, n.Y * s, n.Z * s, Cos(half)}
}

/** @brief Applies roll (around Z), then pitch (around X), then yaw (around Y). */
func NewQuatFromEuler(pitch, yaw, roll float32) Quaternion {
	qx := NewQuatFromAxisAngle(Vec3{1, 0, 0}, pitch)
	qy := NewQuatFromAxisAngle(Vec3{0, 1, 0}, yaw)
	qz := NewQuatFromAxisAngle(Vec3{0, 0, 1}, roll)
	return qz.Mul(qx).Mul(qy)
}

func (q Quaternion) Normal() float32 {
	return Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
}

func (q Quaternion) Normalize() Quaternion {
	n := q.Normal()
	if n < EPSILON {
		return NewQuatIdentity()
	}
	return Quaternion{q.X / n, q.Y / n, q.Z / n, q.W / n}
}

func (q Quaternion) Conjugate() Quaternion {
	return Quaternion{-q.X, -q.Y, -q.Z, q.W}
}

/**
 * @brief Composes rotations so that, with row vectors, q is applied first and
 * other second. Matches ToMat4: (q.Mul(o)).ToMat4() == q.ToMat4().Mul(o.ToMat4()).
 */
func (q Quaternion) Mul(other Quaternion) Quaternion {
	a := other
	b := q
	return Quaternion{
		X: a.W*b.X + a.X*b.W + a.Y*b.Z - a.Z*b.Y,
		Y: a.W*b.Y - a.X*b.Z + a.Y*b.W + a.Z*b.X,
		Z: a.W*b.Z + a.X*b.Y - a.Y*b.X + a.Z*b.W,
		W: a.W*b.W - a.X*b.X - a.Y*b.Y - a.Z*b.Z,
	}
}

func (q Quaternion) Dot(other Quaternion) float32 {
	return q.X*other.X + q.Y*other.Y + q.Z*other.Z + q.W*other.W
}

/**
 * @brief Rotation matrix for row vectors. The quaternion is normalized first.
 */
func (q Quaternion) ToMat4() Mat4 {
	n := q.Normalize()
	x, y, z, w := n.X, n.Y, n.Z, n.W
	return Mat4{Data: [16]float32{
		1 - 2*(y*y+z*z), 2 * (x*y + z*w), 2 * (x*z - y*w), 0,
		2 * (x*y - z*w), 1 - 2*(x*x+z*z), 2 * (y*z + x*w), 0,
		2 * (x*z + y*w), 2 * (y*z - x*w), 1 - 2*(x*x+y*y), 0,
		0, 0, 0, 1,
	}}
}
