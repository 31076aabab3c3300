package geometry

import (
	"github.com/spaghettifunk/prism/engine/math"
)

const (
	DEBUG_BOX_SEED  uint32 = 1337
	DEBUG_BOX_COUNT        = 200
)

/** @brief A coloured box used to exercise frustum culling. */
type DebugBox struct {
	Bounds math.AABB
	Colour math.Vec3
}

// lcg is a 32 bit linear congruential generator yielding values in [0, 1].
type lcg struct {
	state uint32
}

func (g *lcg) next() float32 {
	g.state = g.state*1664525 + 1013904223
	return float32((g.state>>8)&0xFFFF) / 65535.0
}

/**
 * @brief Scatters count boxes over a 60x60 area, up to 5 units high. The
 * same seed always yields the same field.
 */
func GenerateDebugBoxes(seed uint32, count int) []DebugBox {
	g := lcg{state: seed}
	boxes := make([]DebugBox, 0, count)
	for i := 0; i < count; i++ {
		var box DebugBox
		box.Bounds.Center.X = (g.next() - 0.5) * 60
		box.Bounds.Center.Y = g.next() * 5
		box.Bounds.Center.Z = (g.next() - 0.5) * 60
		box.Bounds.Extents.X = 0.5 + g.next()*1.5
		box.Bounds.Extents.Y = 0.5 + g.next()*1.5
		box.Bounds.Extents.Z = 0.5 + g.next()*1.5
		box.Colour.X = 0.4 + 0.6*g.next()
		box.Colour.Y = 0.4 + 0.6*g.next()
		box.Colour.Z = 0.4 + 0.6*g.next()
		boxes = append(boxes, box)
	}
	return boxes
}

// Bounds extracts the boxes' AABBs into dst for culling.
func Bounds(dst []math.AABB, boxes []DebugBox) []math.AABB {
	for i := range boxes {
		dst = append(dst, boxes[i].Bounds)
	}
	return dst
}
