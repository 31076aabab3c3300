package metadata

import (
	"unsafe"

	"github.com/spaghettifunk/prism/engine/math"
)

/**
 * @brief Position + colour vertex used by lines, debug geometry and the HUD.
 */
type VertexPC struct {
	Position math.Vec3
	Color    math.Vec3
}

/**
 * @brief Position + normal + colour vertex used by lit triangle geometry.
 */
type VertexPNC struct {
	Position math.Vec3
	Normal   math.Vec3
	Color    math.Vec3
}

const (
	VERTEX_PC_SIZE  = 24
	VERTEX_PNC_SIZE = 36
)

// Compile time layout checks: the shaders read these exact strides.
var (
	_ [VERTEX_PC_SIZE - unsafe.Sizeof(VertexPC{})]struct{}
	_ [unsafe.Sizeof(VertexPC{}) - VERTEX_PC_SIZE]struct{}
	_ [VERTEX_PNC_SIZE - unsafe.Sizeof(VertexPNC{})]struct{}
	_ [unsafe.Sizeof(VertexPNC{}) - VERTEX_PNC_SIZE]struct{}
)

/** @brief Vertex attribute formats understood by the backends. */
type AttributeFormat int

const (
	ATTRIBUTE_FORMAT_FLOAT32x2 AttributeFormat = iota
	ATTRIBUTE_FORMAT_FLOAT32x3
	ATTRIBUTE_FORMAT_FLOAT32x4
)

type VertexAttribute struct {
	/** @brief The shader input location. */
	Location uint32
	Format   AttributeFormat
	/** @brief Byte offset inside one vertex. */
	Offset uint32
}

/** @brief One interleaved vertex stream. */
type InputLayout struct {
	Stride     uint32
	Attributes []VertexAttribute
}

var (
	InputLayoutPC = InputLayout{
		Stride: VERTEX_PC_SIZE,
		Attributes: []VertexAttribute{
			{Location: 0, Format: ATTRIBUTE_FORMAT_FLOAT32x3, Offset: 0},
			{Location: 1, Format: ATTRIBUTE_FORMAT_FLOAT32x3, Offset: 12},
		},
	}
	InputLayoutPNC = InputLayout{
		Stride: VERTEX_PNC_SIZE,
		Attributes: []VertexAttribute{
			{Location: 0, Format: ATTRIBUTE_FORMAT_FLOAT32x3, Offset: 0},
			{Location: 1, Format: ATTRIBUTE_FORMAT_FLOAT32x3, Offset: 12},
			{Location: 2, Format: ATTRIBUTE_FORMAT_FLOAT32x3, Offset: 24},
		},
	}
)

/**
 * @brief Reinterprets a vertex slice as raw bytes without copying. V must be a
 * plain value type such as VertexPC or VertexPNC.
 */
func VertexBytes[V VertexPC | VertexPNC](vertices []V) []byte {
	if len(vertices) == 0 {
		return nil
	}
	size := int(unsafe.Sizeof(vertices[0])) * len(vertices)
	return unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), size)
}
