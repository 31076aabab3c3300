package geometry

import (
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// MeshBatch holds lit triangle list vertices.
type MeshBatch = Batch[metadata.VertexPNC]

const (
	GROUND_HALF_EXTENT float32 = 50
	CUBE_HALF_EXTENT   float32 = 0.5

	GROUND_VERTEX_COUNT = 6
	CUBE_VERTEX_COUNT   = 36
)

var GroundColour = math.Vec3{X: 0.5, Y: 0.5, Z: 0.5}

func AddTriangle(b *MeshBatch, p0, p1, p2, normal, colour math.Vec3) bool {
	return b.Push(
		metadata.VertexPNC{Position: p0, Normal: normal, Color: colour},
		metadata.VertexPNC{Position: p1, Normal: normal, Color: colour},
		metadata.VertexPNC{Position: p2, Normal: normal, Color: colour},
	)
}

// AddGround emits a flat quad on y = 0 facing +Y.
func AddGround(b *MeshBatch, halfExtent float32, colour math.Vec3) {
	h := halfExtent
	n := math.NewVec3Up()
	AddTriangle(b, math.NewVec3(-h, 0, -h), math.NewVec3(h, 0, -h), math.NewVec3(h, 0, h), n, colour)
	AddTriangle(b, math.NewVec3(-h, 0, -h), math.NewVec3(h, 0, h), math.NewVec3(-h, 0, h), n, colour)
}

/**
 * @brief A solid cube centred on the origin with flat normals and one colour
 * per face: -Z red, +Z green, -X blue, +X yellow, -Y cyan, +Y magenta.
 */
func AddCube(b *MeshBatch, h float32) {
	red := math.NewVec3(1, 0.5, 0.5)
	green := math.NewVec3(0.5, 1, 0.5)
	blue := math.NewVec3(0.5, 0.5, 1)
	yellow := math.NewVec3(1, 1, 0)
	cyan := math.NewVec3(0, 1, 1)
	magenta := math.NewVec3(1, 0, 1)

	p000 := math.NewVec3(-h, -h, -h)
	p100 := math.NewVec3(h, -h, -h)
	p110 := math.NewVec3(h, h, -h)
	p010 := math.NewVec3(-h, h, -h)
	p001 := math.NewVec3(-h, -h, h)
	p101 := math.NewVec3(h, -h, h)
	p111 := math.NewVec3(h, h, h)
	p011 := math.NewVec3(-h, h, h)

	AddTriangle(b, p000, p100, p110, math.NewVec3(0, 0, -1), red)
	AddTriangle(b, p000, p110, p010, math.NewVec3(0, 0, -1), red)
	AddTriangle(b, p101, p001, p011, math.NewVec3(0, 0, 1), green)
	AddTriangle(b, p101, p011, p111, math.NewVec3(0, 0, 1), green)
	AddTriangle(b, p001, p000, p010, math.NewVec3(-1, 0, 0), blue)
	AddTriangle(b, p001, p010, p011, math.NewVec3(-1, 0, 0), blue)
	AddTriangle(b, p100, p101, p111, math.NewVec3(1, 0, 0), yellow)
	AddTriangle(b, p100, p111, p110, math.NewVec3(1, 0, 0), yellow)
	AddTriangle(b, p001, p101, p100, math.NewVec3(0, -1, 0), cyan)
	AddTriangle(b, p001, p100, p000, math.NewVec3(0, -1, 0), cyan)
	AddTriangle(b, p010, p110, p111, math.NewVec3(0, 1, 0), magenta)
	AddTriangle(b, p010, p111, p011, math.NewVec3(0, 1, 0), magenta)
}
