package math

/**
 * @brief Builds the plane through a, b and c. The normal follows the winding
 * (b-a) x (c-a); degenerate triangles fall back to +Y.
 */
func NewPlaneFromPoints(a, b, c Vec3) Plane {
	n := b.Sub(a).Cross(c.Sub(a)).NormalizeSafe(NewVec3Up())
	return Plane{Normal: n, D: n.Dot(a)}
}

// SignedDistance is positive in front of the plane.
func (p Plane) SignedDistance(x Vec3) float32 {
	return p.Normal.Dot(x) - p.D
}

func (p Plane) Flipped() Plane {
	return Plane{Normal: p.Normal.Negate(), D: -p.D}
}

/** @brief Relation of a volume to a plane or frustum. */
type Containment int

const (
	OUTSIDE Containment = iota
	INTERSECTING
	INSIDE
)

func (c Containment) String() string {
	switch c {
	case OUTSIDE:
		return "outside"
	case INTERSECTING:
		return "intersecting"
	case INSIDE:
		return "inside"
	}
	return "unknown"
}

/**
 * @brief Creates a box from a centre and half extents. Negative extents are
 * made positive.
 */
func NewAABB(center, extents Vec3) AABB {
	return AABB{Center: center, Extents: extents.Abs()}
}

func NewAABBFromMinMax(min, max Vec3) AABB {
	return AABB{
		Center:  min.Add(max).MulScalar(0.5),
		Extents: max.Sub(min).MulScalar(0.5).Abs(),
	}
}

func (b AABB) Min() Vec3 {
	return b.Center.Sub(b.Extents)
}

func (b AABB) Max() Vec3 {
	return b.Center.Add(b.Extents)
}

/**
 * @brief Returns the eight corners; bit 0 of the index selects +X, bit 1 +Y
 * and bit 2 +Z.
 */
func (b AABB) Corners() [8]Vec3 {
	var out [8]Vec3
	for i := 0; i < 8; i++ {
		c := b.Center
		e := b.Extents
		if i&1 != 0 {
			c.X += e.X
		} else {
			c.X -= e.X
		}
		if i&2 != 0 {
			c.Y += e.Y
		} else {
			c.Y -= e.Y
		}
		if i&4 != 0 {
			c.Z += e.Z
		} else {
			c.Z -= e.Z
		}
		out[i] = c
	}
	return out
}

/**
 * @brief Bounds of the box after an affine transform. The result encloses the
 * transformed box; it is exact for translations and axis permutations.
 */
func (b AABB) TransformAffine(m Mat4) AABB {
	center := b.Center.Transform(m)
	d := &m.Data
	e := b.Extents
	ext := Vec3{
		X: Abs(d[0])*e.X + Abs(d[4])*e.Y + Abs(d[8])*e.Z,
		Y: Abs(d[1])*e.X + Abs(d[5])*e.Y + Abs(d[9])*e.Z,
		Z: Abs(d[2])*e.X + Abs(d[6])*e.Y + Abs(d[10])*e.Z,
	}
	return AABB{Center: center, Extents: ext}
}

/**
 * @brief Projected half extent of the box onto the plane normal.
 */
func (b AABB) ProjectedRadius(p Plane) float32 {
	return p.Normal.Abs().Dot(b.Extents)
}

func (b AABB) ClassifyPlane(p Plane) Containment {
	r := b.ProjectedRadius(p)
	s := p.SignedDistance(b.Center)
	if s+r < 0 {
		return OUTSIDE
	}
	if s-r >= 0 {
		return INSIDE
	}
	return INTERSECTING
}

/**
 * @brief Builds a frustum from a camera-to-world matrix (rows right, up,
 * forward, position) and perspective parameters. far is clamped to at least
 * near + 0.001 and aspect to a positive value.
 */
func NewFrustum(cameraToWorld Mat4, fovY, aspect, near, far float32) Frustum {
	if near < EPSILON {
		near = EPSILON
	}
	if far < near+0.001 {
		far = near + 0.001
	}
	if aspect < EPSILON {
		aspect = 1
	}

	right := cameraToWorld.Right()
	up := cameraToWorld.Up()
	forward := cameraToWorld.Forward()
	pos := cameraToWorld.Translation()

	t := Tan(fovY * 0.5)
	nearH := t * near
	nearW := nearH * aspect
	farH := t * far
	farW := farH * aspect

	nc := pos.Add(forward.MulScalar(near))
	fc := pos.Add(forward.MulScalar(far))

	var f Frustum
	corner := func(c Vec3, w, h, sx, sy float32) Vec3 {
		return c.Add(up.MulScalar(h * sy)).Add(right.MulScalar(w * sx))
	}
	f.Corners[FAR_TOP_LEFT] = corner(fc, farW, farH, -1, 1)
	f.Corners[FAR_TOP_RIGHT] = corner(fc, farW, farH, 1, 1)
	f.Corners[FAR_BOTTOM_LEFT] = corner(fc, farW, farH, -1, -1)
	f.Corners[FAR_BOTTOM_RIGHT] = corner(fc, farW, farH, 1, -1)
	f.Corners[NEAR_TOP_LEFT] = corner(nc, nearW, nearH, -1, 1)
	f.Corners[NEAR_TOP_RIGHT] = corner(nc, nearW, nearH, 1, 1)
	f.Corners[NEAR_BOTTOM_LEFT] = corner(nc, nearW, nearH, -1, -1)
	f.Corners[NEAR_BOTTOM_RIGHT] = corner(nc, nearW, nearH, 1, -1)

	c := &f.Corners
	f.Planes[FRUSTUM_LEFT] = NewPlaneFromPoints(c[NEAR_TOP_LEFT], c[NEAR_BOTTOM_LEFT], c[FAR_BOTTOM_LEFT])
	f.Planes[FRUSTUM_RIGHT] = NewPlaneFromPoints(c[NEAR_TOP_RIGHT], c[FAR_TOP_RIGHT], c[FAR_BOTTOM_RIGHT])
	f.Planes[FRUSTUM_TOP] = NewPlaneFromPoints(c[NEAR_TOP_LEFT], c[FAR_TOP_LEFT], c[FAR_TOP_RIGHT])
	f.Planes[FRUSTUM_BOTTOM] = NewPlaneFromPoints(c[NEAR_BOTTOM_LEFT], c[NEAR_BOTTOM_RIGHT], c[FAR_BOTTOM_RIGHT])
	f.Planes[FRUSTUM_NEAR] = NewPlaneFromPoints(c[NEAR_TOP_LEFT], c[NEAR_TOP_RIGHT], c[NEAR_BOTTOM_RIGHT])
	f.Planes[FRUSTUM_FAR] = NewPlaneFromPoints(c[FAR_TOP_LEFT], c[FAR_BOTTOM_LEFT], c[FAR_BOTTOM_RIGHT])

	// Orient every plane so the volume's centroid is in front of it.
	centroid := f.Center()
	for i := range f.Planes {
		if f.Planes[i].SignedDistance(centroid) < 0 {
			f.Planes[i] = f.Planes[i].Flipped()
		}
	}
	return f
}

// Center is the average of the eight corners.
func (f *Frustum) Center() Vec3 {
	var sum Vec3
	for _, c := range f.Corners {
		sum = sum.Add(c)
	}
	return sum.MulScalar(1.0 / float32(FRUSTUM_CORNER_COUNT))
}

// PlaneCenter is the average of the four corners of the named face.
func (f *Frustum) PlaneCenter(p FrustumPlane) Vec3 {
	var idx [4]FrustumCorner
	switch p {
	case FRUSTUM_LEFT:
		idx = [4]FrustumCorner{NEAR_TOP_LEFT, NEAR_BOTTOM_LEFT, FAR_TOP_LEFT, FAR_BOTTOM_LEFT}
	case FRUSTUM_RIGHT:
		idx = [4]FrustumCorner{NEAR_TOP_RIGHT, NEAR_BOTTOM_RIGHT, FAR_TOP_RIGHT, FAR_BOTTOM_RIGHT}
	case FRUSTUM_TOP:
		idx = [4]FrustumCorner{NEAR_TOP_LEFT, NEAR_TOP_RIGHT, FAR_TOP_LEFT, FAR_TOP_RIGHT}
	case FRUSTUM_BOTTOM:
		idx = [4]FrustumCorner{NEAR_BOTTOM_LEFT, NEAR_BOTTOM_RIGHT, FAR_BOTTOM_LEFT, FAR_BOTTOM_RIGHT}
	case FRUSTUM_NEAR:
		idx = [4]FrustumCorner{NEAR_TOP_LEFT, NEAR_TOP_RIGHT, NEAR_BOTTOM_LEFT, NEAR_BOTTOM_RIGHT}
	default:
		idx = [4]FrustumCorner{FAR_TOP_LEFT, FAR_TOP_RIGHT, FAR_BOTTOM_LEFT, FAR_BOTTOM_RIGHT}
	}
	var sum Vec3
	for _, i := range idx {
		sum = sum.Add(f.Corners[i])
	}
	return sum.MulScalar(0.25)
}

/**
 * @brief Reports whether the box may be visible: it is rejected as soon as its
 * centre lies further behind any plane than its projected half extent.
 */
func (f *Frustum) ContainsAABB(b AABB) bool {
	for i := range f.Planes {
		if b.ClassifyPlane(f.Planes[i]) == OUTSIDE {
			return false
		}
	}
	return true
}

func (f *Frustum) ClassifyAABB(b AABB) Containment {
	result := INSIDE
	for i := range f.Planes {
		switch b.ClassifyPlane(f.Planes[i]) {
		case OUTSIDE:
			return OUTSIDE
		case INTERSECTING:
			result = INTERSECTING
		}
	}
	return result
}

func (f *Frustum) ContainsPoint(p Vec3) bool {
	for i := range f.Planes {
		if f.Planes[i].SignedDistance(p) < 0 {
			return false
		}
	}
	return true
}

/**
 * @brief Appends the boxes that survive ContainsAABB to dst and returns it.
 */
func (f *Frustum) CullAABBs(dst []int, boxes []AABB) []int {
	for i := range boxes {
		if f.ContainsAABB(boxes[i]) {
			dst = append(dst, i)
		}
	}
	return dst
}
