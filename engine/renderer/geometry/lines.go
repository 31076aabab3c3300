package geometry

import (
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// LineBatch holds line list vertices, two per segment.
type LineBatch = Batch[metadata.VertexPC]

const (
	GRID_HALF_EXTENT float32 = 100
	GRID_SPACING     float32 = 1
	AXES_LENGTH      float32 = 1.5

	AXES_VERTEX_COUNT        = 6
	BOX_VERTEX_COUNT         = 24
	FRUSTUM_VIZ_VERTEX_COUNT = 36
)

var (
	GridColour        = math.Vec3{X: 0.25, Y: 0.25, Z: 0.25}
	FrustumEdgeColour = math.Vec3{X: 1, Y: 1, Z: 0}
)

/** @brief Corner index pairs of the twelve box edges, using AABB.Corners order. */
var BoxEdges = [12][2]int{
	{0, 1}, {1, 3}, {3, 2}, {2, 0},
	{4, 5}, {5, 7}, {7, 6}, {6, 4},
	{0, 4}, {1, 5}, {3, 7}, {2, 6},
}

// Plane normal indicator colours, indexed by math.FrustumPlane.
var frustumNormalColours = [math.FRUSTUM_PLANE_COUNT]math.Vec3{
	math.FRUSTUM_LEFT:   {X: 1, Y: 0.25, Z: 0.25},
	math.FRUSTUM_RIGHT:  {X: 0.25, Y: 1, Z: 0.25},
	math.FRUSTUM_TOP:    {X: 0.25, Y: 0.25, Z: 1},
	math.FRUSTUM_BOTTOM: {X: 1, Y: 0, Z: 1},
	math.FRUSTUM_NEAR:   {X: 0, Y: 1, Z: 1},
	math.FRUSTUM_FAR:    {X: 1, Y: 1, Z: 0},
}

func AddLine(b *LineBatch, from, to, colour math.Vec3) bool {
	return b.Push(
		metadata.VertexPC{Position: from, Color: colour},
		metadata.VertexPC{Position: to, Color: colour},
	)
}

// GridLineCount is the number of lines per direction AddGrid emits.
func GridLineCount(halfExtent, spacing float32) int {
	return int(halfExtent*2/spacing) + 1
}

// GridVertexCount includes the two coloured axis lines.
func GridVertexCount(halfExtent, spacing float32) int {
	return GridLineCount(halfExtent, spacing)*4 + 4
}

/**
 * @brief A square grid on the XZ plane with a red X axis and a blue Z axis
 * drawn on top.
 */
func AddGrid(b *LineBatch, halfExtent, spacing float32, colour math.Vec3) {
	lines := GridLineCount(halfExtent, spacing)
	start, end := -halfExtent, halfExtent
	for i := 0; i < lines; i++ {
		o := start + float32(i)*spacing
		AddLine(b, math.NewVec3(o, 0, start), math.NewVec3(o, 0, end), colour)
		AddLine(b, math.NewVec3(start, 0, o), math.NewVec3(end, 0, o), colour)
	}
	AddLine(b, math.NewVec3(-halfExtent, 0, 0), math.NewVec3(halfExtent, 0, 0), math.NewVec3(1, 0, 0))
	AddLine(b, math.NewVec3(0, 0, -halfExtent), math.NewVec3(0, 0, halfExtent), math.NewVec3(0, 0, 1))
}

// AddAxes draws X red, Y green and Z blue from the origin.
func AddAxes(b *LineBatch, length float32) {
	o := math.NewVec3Zero()
	AddLine(b, o, math.NewVec3(length, 0, 0), math.NewVec3(1, 0, 0))
	AddLine(b, o, math.NewVec3(0, length, 0), math.NewVec3(0, 1, 0))
	AddLine(b, o, math.NewVec3(0, 0, length), math.NewVec3(0, 0, 1))
}

// AddBox emits the twelve edges of the box as one primitive.
func AddBox(b *LineBatch, box math.AABB, colour math.Vec3) bool {
	corners := box.Corners()
	var v [BOX_VERTEX_COUNT]metadata.VertexPC
	for i, e := range BoxEdges {
		v[i*2] = metadata.VertexPC{Position: corners[e[0]], Color: colour}
		v[i*2+1] = metadata.VertexPC{Position: corners[e[1]], Color: colour}
	}
	return b.Push(v[:]...)
}

/**
 * @brief The frustum outline in yellow plus one short indicator per plane,
 * starting at the face centre and following the plane normal.
 */
func AddFrustum(b *LineBatch, f *math.Frustum) {
	c := &f.Corners
	edges := [12][2]math.FrustumCorner{
		{math.NEAR_TOP_LEFT, math.NEAR_TOP_RIGHT},
		{math.NEAR_TOP_RIGHT, math.NEAR_BOTTOM_RIGHT},
		{math.NEAR_BOTTOM_RIGHT, math.NEAR_BOTTOM_LEFT},
		{math.NEAR_BOTTOM_LEFT, math.NEAR_TOP_LEFT},
		{math.FAR_TOP_LEFT, math.FAR_TOP_RIGHT},
		{math.FAR_TOP_RIGHT, math.FAR_BOTTOM_RIGHT},
		{math.FAR_BOTTOM_RIGHT, math.FAR_BOTTOM_LEFT},
		{math.FAR_BOTTOM_LEFT, math.FAR_TOP_LEFT},
		{math.NEAR_TOP_LEFT, math.FAR_TOP_LEFT},
		{math.NEAR_TOP_RIGHT, math.FAR_TOP_RIGHT},
		{math.NEAR_BOTTOM_LEFT, math.FAR_BOTTOM_LEFT},
		{math.NEAR_BOTTOM_RIGHT, math.FAR_BOTTOM_RIGHT},
	}
	for _, e := range edges {
		AddLine(b, c[e[0]], c[e[1]], FrustumEdgeColour)
	}

	length := f.PlaneCenter(math.FRUSTUM_FAR).Distance(f.PlaneCenter(math.FRUSTUM_NEAR)) * 0.15
	for p := math.FRUSTUM_LEFT; p < math.FRUSTUM_PLANE_COUNT; p++ {
		from := f.PlaneCenter(p)
		AddLine(b, from, from.Add(f.Planes[p].Normal.MulScalar(length)), frustumNormalColours[p])
	}
}
