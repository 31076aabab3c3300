package math

/**
 * @brief Creates and returns an identity matrix:
 *
 * {
 *   {1, 0, 0, 0},
 *   {0, 1, 0, 0},
 *   {0, 0, 1, 0},
 *   {0, 0, 0, 1}
 * }
 */
func NewMat4Identity() Mat4 {
	return Mat4{Data: [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}}
}

// NewMat4FromRows builds a matrix from four row vectors.
func NewMat4FromRows(r0, r1, r2, r3 Vec4) Mat4 {
	return Mat4{Data: [16]float32{
		r0.X, r0.Y, r0.Z, r0.W,
		r1.X, r1.Y, r1.Z, r1.W,
		r2.X, r2.Y, r2.Z, r2.W,
		r3.X, r3.Y, r3.Z, r3.W,
	}}
}

func (mt Mat4) Row(i int) Vec4 {
	return Vec4{mt.Data[i*4+0], mt.Data[i*4+1], mt.Data[i*4+2], mt.Data[i*4+3]}
}

/**
 * @brief Returns the result of multiplying mt and other (mt * other). With row
 * vectors the result applies mt first, then other.
 */
func (mt Mat4) Mul(other Mat4) Mat4 {
	var out Mat4
	a := &mt.Data
	b := &other.Data
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out.Data[i*4+j] = a[i*4+0]*b[0*4+j] +
				a[i*4+1]*b[1*4+j] +
				a[i*4+2]*b[2*4+j] +
				a[i*4+3]*b[3*4+j]
		}
	}
	return out
}

/**
 * @brief Creates a left-handed perspective projection with depth mapped to [0, 1].
 *
 * @param fovY The vertical field of view in radians.
 * @param aspect Width divided by height.
 * @param near The near clipping plane distance.
 * @param far The far clipping plane distance.
 */
func NewMat4PerspectiveFovLH(fovY, aspect, near, far float32) Mat4 {
	y := 1.0 / Tan(fovY*0.5)
	x := y / aspect
	q := far / (far - near)
	return Mat4{Data: [16]float32{
		x, 0, 0, 0,
		0, y, 0, 0,
		0, 0, q, 1,
		0, 0, -near * q, 0,
	}}
}

/**
 * @brief Creates a left-handed off-center orthographic projection with depth
 * mapped to [0, 1].
 */
func NewMat4OrthographicOffCenterLH(left, right, bottom, top, near, far float32) Mat4 {
	return Mat4{Data: [16]float32{
		2.0 / (right - left), 0, 0, 0,
		0, 2.0 / (top - bottom), 0, 0,
		0, 0, 1.0 / (far - near), 0,
		(left + right) / (left - right), (top + bottom) / (bottom - top), -near / (far - near), 1,
	}}
}

/**
 * @brief Creates a left-handed view matrix looking from eye towards target.
 * Degenerate inputs fall back to the world axes instead of producing NaNs.
 */
func NewMat4LookAtLH(eye, target, up Vec3) Mat4 {
	z := target.Sub(eye).NormalizeSafe(NewVec3Forward())
	x := up.Cross(z).NormalizeSafe(NewVec3Right())
	y := z.Cross(x)
	return Mat4{Data: [16]float32{
		x.X, y.X, z.X, 0,
		x.Y, y.Y, z.Y, 0,
		x.Z, y.Z, z.Z, 0,
		-x.Dot(eye), -y.Dot(eye), -z.Dot(eye), 1,
	}}
}

/**
 * @brief Builds the camera-to-world matrix whose rows are right, up, forward
 * and position. The view matrix is its affine inverse.
 */
func NewMat4CameraToWorld(position, forward, up Vec3) Mat4 {
	f := forward.NormalizeSafe(NewVec3Forward())
	r := up.Cross(f).NormalizeSafe(NewVec3Right())
	u := f.Cross(r)
	return NewMat4FromRows(r.ToVec4(0), u.ToVec4(0), f.ToVec4(0), position.ToVec4(1))
}

func NewMat4Translation(position Vec3) Mat4 {
	m := NewMat4Identity()
	m.Data[12] = position.X
	m.Data[13] = position.Y
	m.Data[14] = position.Z
	return m
}

func NewMat4Scale(scale Vec3) Mat4 {
	m := NewMat4Identity()
	m.Data[0] = scale.X
	m.Data[5] = scale.Y
	m.Data[10] = scale.Z
	return m
}

/**
 * @brief Rotation of angle radians around axis. The axis is normalized; a zero
 * axis yields the identity.
 */
func NewMat4RotationAxis(axis Vec3, angle float32) Mat4 {
	if axis.LengthSquared() < EPSILON*EPSILON {
		return NewMat4Identity()
	}
	n := axis.Normalized()
	c := Cos(angle)
	s := Sin(angle)
	t := 1.0 - c
	return Mat4{Data: [16]float32{
		c + n.X*n.X*t, n.X*n.Y*t + n.Z*s, n.X*n.Z*t - n.Y*s, 0,
		n.X*n.Y*t - n.Z*s, c + n.Y*n.Y*t, n.Y*n.Z*t + n.X*s, 0,
		n.X*n.Z*t + n.Y*s, n.Y*n.Z*t - n.X*s, c + n.Z*n.Z*t, 0,
		0, 0, 0, 1,
	}}
}

/**
 * @brief Scale, then rotate, then translate (S * R * T).
 */
func NewMat4TRS(translation Vec3, rotation Quaternion, scale Vec3) Mat4 {
	return NewMat4Scale(scale).Mul(rotation.ToMat4()).Mul(NewMat4Translation(translation))
}

func (mt Mat4) Transposed() Mat4 {
	var out Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out.Data[j*4+i] = mt.Data[i*4+j]
		}
	}
	return out
}

/**
 * @brief Returns the general inverse of the matrix. A singular matrix returns
 * the identity and false.
 */
func (mt Mat4) Inverse() (Mat4, bool) {
	m := &mt.Data
	var inv [16]float32

	inv[0] = m[5]*m[10]*m[15] - m[5]*m[11]*m[14] - m[9]*m[6]*m[15] + m[9]*m[7]*m[14] + m[13]*m[6]*m[11] - m[13]*m[7]*m[10]
	inv[4] = -m[4]*m[10]*m[15] + m[4]*m[11]*m[14] + m[8]*m[6]*m[15] - m[8]*m[7]*m[14] - m[12]*m[6]*m[11] + m[12]*m[7]*m[10]
	inv[8] = m[4]*m[9]*m[15] - m[4]*m[11]*m[13] - m[8]*m[5]*m[15] + m[8]*m[7]*m[13] + m[12]*m[5]*m[11] - m[12]*m[7]*m[9]
	inv[12] = -m[4]*m[9]*m[14] + m[4]*m[10]*m[13] + m[8]*m[5]*m[14] - m[8]*m[6]*m[13] - m[12]*m[5]*m[10] + m[12]*m[6]*m[9]
	inv[1] = -m[1]*m[10]*m[15] + m[1]*m[11]*m[14] + m[9]*m[2]*m[15] - m[9]*m[3]*m[14] - m[13]*m[2]*m[11] + m[13]*m[3]*m[10]
	inv[5] = m[0]*m[10]*m[15] - m[0]*m[11]*m[14] - m[8]*m[2]*m[15] + m[8]*m[3]*m[14] + m[12]*m[2]*m[11] - m[12]*m[3]*m[10]
	inv[9] = -m[0]*m[9]*m[15] + m[0]*m[11]*m[13] + m[8]*m[1]*m[15] - m[8]*m[3]*m[13] - m[12]*m[1]*m[11] + m[12]*m[3]*m[9]
	inv[13] = m[0]*m[9]*m[14] - m[0]*m[10]*m[13] - m[8]*m[1]*m[14] + m[8]*m[2]*m[13] + m[12]*m[1]*m[10] - m[12]*m[2]*m[9]
	inv[2] = m[1]*m[6]*m[15] - m[1]*m[7]*m[14] - m[5]*m[2]*m[15] + m[5]*m[3]*m[14] + m[13]*m[2]*m[7] - m[13]*m[3]*m[6]
	inv[6] = -m[0]*m[6]*m[15] + m[0]*m[7]*m[14] + m[4]*m[2]*m[15] - m[4]*m[3]*m[14] - m[12]*m[2]*m[7] + m[12]*m[3]*m[6]
	inv[10] = m[0]*m[5]*m[15] - m[0]*m[7]*m[13] - m[4]*m[1]*m[15] + m[4]*m[3]*m[13] + m[12]*m[1]*m[7] - m[12]*m[3]*m[5]
	inv[14] = -m[0]*m[5]*m[14] + m[0]*m[6]*m[13] + m[4]*m[1]*m[14] - m[4]*m[2]*m[13] - m[12]*m[1]*m[6] + m[12]*m[2]*m[5]
	inv[3] = -m[1]*m[6]*m[11] + m[1]*m[7]*m[10] + m[5]*m[2]*m[11] - m[5]*m[3]*m[10] - m[9]*m[2]*m[7] + m[9]*m[3]*m[6]
	inv[7] = m[0]*m[6]*m[11] - m[0]*m[7]*m[10] - m[4]*m[2]*m[11] + m[4]*m[3]*m[10] + m[8]*m[2]*m[7] - m[8]*m[3]*m[6]
	inv[11] = -m[0]*m[5]*m[11] + m[0]*m[7]*m[9] + m[4]*m[1]*m[11] - m[4]*m[3]*m[9] - m[8]*m[1]*m[7] + m[8]*m[3]*m[5]
	inv[15] = m[0]*m[5]*m[10] - m[0]*m[6]*m[9] - m[4]*m[1]*m[10] + m[4]*m[2]*m[9] + m[8]*m[1]*m[6] - m[8]*m[2]*m[5]

	det := m[0]*inv[0] + m[1]*inv[4] + m[2]*inv[8] + m[3]*inv[12]
	if Abs(det) < EPSILON*EPSILON {
		return NewMat4Identity(), false
	}
	invDet := 1.0 / det
	var out Mat4
	for i := range inv {
		out.Data[i] = inv[i] * invDet
	}
	return out, true
}

/**
 * @brief Inverse of a rotation + translation matrix (no scale, no projection).
 * Used to turn a camera-to-world matrix into a view matrix.
 */
func (mt Mat4) InverseAffine() Mat4 {
	r := mt.Row(0).ToVec3()
	u := mt.Row(1).ToVec3()
	f := mt.Row(2).ToVec3()
	p := mt.Row(3).ToVec3()
	return Mat4{Data: [16]float32{
		r.X, u.X, f.X, 0,
		r.Y, u.Y, f.Y, 0,
		r.Z, u.Z, f.Z, 0,
		-r.Dot(p), -u.Dot(p), -f.Dot(p), 1,
	}}
}

// Right returns the first basis row.
func (mt Mat4) Right() Vec3 {
	return mt.Row(0).ToVec3()
}

// Up returns the second basis row.
func (mt Mat4) Up() Vec3 {
	return mt.Row(1).ToVec3()
}

// Forward returns the third basis row.
func (mt Mat4) Forward() Vec3 {
	return mt.Row(2).ToVec3()
}

func (mt Mat4) Translation() Vec3 {
	return mt.Row(3).ToVec3()
}

/**
 * @brief Writes the matrix in column-major order, the layout the shaders read
 * constant buffer matrices in: out[0..3] is the first column.
 */
func (mt Mat4) StoreColumnMajor(out []float32) {
	_ = out[15]
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			out[c*4+r] = mt.Data[r*4+c]
		}
	}
}

/** @brief Inverse of StoreColumnMajor. */
func LoadColumnMajor(in []float32) Mat4 {
	_ = in[15]
	var m Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			m.Data[r*4+c] = in[c*4+r]
		}
	}
	return m
}

func (mt Mat4) Compare(other Mat4, tolerance float32) bool {
	for i := range mt.Data {
		if Abs(mt.Data[i]-other.Data[i]) > tolerance {
			return false
		}
	}
	return true
}
