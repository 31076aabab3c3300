package metadata

import (
	"encoding/binary"
	stdmath "math"

	"github.com/spaghettifunk/prism/engine/math"
)

const (
	/** @brief Size in bytes of one encoded SceneConstants record. */
	SCENE_CONSTANTS_SIZE = 160
	/** @brief Required placement of constant data inside the upload ring. */
	CONSTANT_BUFFER_ALIGNMENT = 256
)

/**
 * @brief Per draw constants shared by every shader. Matrices are kept row-major
 * on the CPU and written column-major by Encode.
 *
 * Byte layout (little endian):
 *
 *	  0  mvp             16 floats
 *	 64  lightDir         3 floats + 1 pad
 *	 80  viewportSize     2 floats
 *	 88  lineThicknessPx  1 float + 1 pad
 *	 96  lightMVP        16 floats
 */
type SceneConstants struct {
	MVP             math.Mat4
	LightDir        math.Vec3
	ViewportSize    math.Vec2
	LineThicknessPx float32
	LightMVP        math.Mat4
}

/**
 * @brief Writes the record into dst, which must hold SCENE_CONSTANTS_SIZE bytes.
 * Padding is zeroed.
 */
func (c *SceneConstants) Encode(dst []byte) {
	_ = dst[SCENE_CONSTANTS_SIZE-1]
	var cm [16]float32

	c.MVP.StoreColumnMajor(cm[:])
	putFloats(dst[0:64], cm[:])

	putFloats(dst[64:80], []float32{c.LightDir.X, c.LightDir.Y, c.LightDir.Z, 0})
	putFloats(dst[80:96], []float32{c.ViewportSize.X, c.ViewportSize.Y, c.LineThicknessPx, 0})

	c.LightMVP.StoreColumnMajor(cm[:])
	putFloats(dst[96:160], cm[:])
}

// Decode is the inverse of Encode.
func DecodeSceneConstants(src []byte) SceneConstants {
	_ = src[SCENE_CONSTANTS_SIZE-1]
	var c SceneConstants
	var cm [16]float32

	getFloats(src[0:64], cm[:])
	c.MVP = math.LoadColumnMajor(cm[:])

	var v [4]float32
	getFloats(src[64:80], v[:])
	c.LightDir = math.Vec3{X: v[0], Y: v[1], Z: v[2]}
	getFloats(src[80:96], v[:])
	c.ViewportSize = math.Vec2{X: v[0], Y: v[1]}
	c.LineThicknessPx = v[2]

	getFloats(src[96:160], cm[:])
	c.LightMVP = math.LoadColumnMajor(cm[:])
	return c
}

func putFloats(dst []byte, values []float32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(dst[i*4:], stdmath.Float32bits(v))
	}
}

func getFloats(src []byte, values []float32) {
	for i := range values {
		values[i] = stdmath.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
}
