package math

// Vec2 represents a 2D vector
type Vec2 struct {
	X, Y float32
}

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 represents a 4D vector
type Vec4 struct {
	X, Y, Z, W float32
}

/** @brief A quaternion, used to represent rotational orientation. */
type Quaternion Vec4

/**
 * @brief a 4x4 matrix stored row-major and applied to row vectors (v * M).
 * Translation lives in Data[12..14].
 */
type Mat4 struct {
	/** @brief The matrix elements */
	Data [16]float32
}

/**
 * @brief An axis aligned box described by its centre and half extents.
 */
type AABB struct {
	/** @brief The centre of the box. */
	Center Vec3
	/** @brief Half size of the box along each axis. Never negative. */
	Extents Vec3
}

/**
 * @brief A plane in normal/distance form: points x with dot(n, x) == D lie on it.
 * Signed distance is dot(n, x) - D; positive means in front.
 */
type Plane struct {
	Normal Vec3
	D      float32
}

/** @brief Names the six planes of a Frustum. */
type FrustumPlane int

const (
	FRUSTUM_LEFT FrustumPlane = iota
	FRUSTUM_RIGHT
	FRUSTUM_TOP
	FRUSTUM_BOTTOM
	FRUSTUM_NEAR
	FRUSTUM_FAR
	FRUSTUM_PLANE_COUNT
)

/** @brief Names the eight corners of a Frustum. */
type FrustumCorner int

const (
	FAR_TOP_LEFT FrustumCorner = iota
	FAR_TOP_RIGHT
	FAR_BOTTOM_LEFT
	FAR_BOTTOM_RIGHT
	NEAR_TOP_LEFT
	NEAR_TOP_RIGHT
	NEAR_BOTTOM_LEFT
	NEAR_BOTTOM_RIGHT
	FRUSTUM_CORNER_COUNT
)

/**
 * @brief A view volume. Every plane normal points inward, so a point is inside
 * when its signed distance to all six planes is non-negative.
 */
type Frustum struct {
	Planes  [FRUSTUM_PLANE_COUNT]Plane
	Corners [FRUSTUM_CORNER_COUNT]Vec3
}

/**
 * @brief Represents the transform of an object in the world.
 * Transforms can have a parent whose own transform is then
 * taken into account. NOTE: The properties of this should not
 * be edited directly, but done via the methods in transform.go
 * to ensure proper matrix generation.
 */
type Transform struct {
	/** @brief The position in the world. */
	Position Vec3
	/** @brief The rotation in the world. */
	Rotation Quaternion
	/** @brief The scale in the world. */
	Scale Vec3
	/**
	 * @brief Indicates if the position, rotation or scale have changed,
	 * indicating that the local matrix needs to be recalculated.
	 */
	IsDirty bool
	/**
	 * @brief The local transformation matrix, updated whenever
	 * the position, rotation or scale have changed.
	 */
	Local Mat4
	/** @brief A pointer to a parent transform if one is assigned. Can also be nil. */
	Parent *Transform
}
