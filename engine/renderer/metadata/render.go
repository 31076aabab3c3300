package metadata

import (
	"github.com/spaghettifunk/prism/engine/math"
)

type RendererBackendConfig struct {
	/** @brief The name of the application */
	ApplicationName string
	/** @brief Enables validation layers and the debug messenger. */
	EnableValidation bool
	/** @brief Present with vsync (FIFO) instead of the lowest latency mode available. */
	VSync bool
	/** @brief The number of frames in flight. */
	FramesInFlight uint32
	/** @brief Total size of the upload ring in bytes. */
	UploadBufferSize uint64
	/** @brief Descriptor budgets for the whole heap, split evenly across frames. */
	SRVDescriptorCount uint32
	RTVDescriptorCount uint32
	DSVDescriptorCount uint32
	/** @brief Edge length of the square shadow map in texels. */
	ShadowMapSize uint32
	/** @brief Directory holding compiled <name>.<stage>.spv shader artifacts. */
	ShaderDirectory string
}

/**
 * @brief A viewport in pixels with a [MinDepth, MaxDepth] range. Y grows
 * downwards from the top left corner.
 */
type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

func NewViewport(width, height uint32) Viewport {
	return Viewport{Width: float32(width), Height: float32(height), MinDepth: 0, MaxDepth: 1}
}

/** @brief A pixel rectangle, Right and Bottom exclusive. */
type Rect struct {
	Left, Top     int32
	Right, Bottom int32
}

func NewRect(width, height uint32) Rect {
	return Rect{Right: int32(width), Bottom: int32(height)}
}

func (r Rect) Width() uint32 {
	return uint32(r.Right - r.Left)
}

func (r Rect) Height() uint32 {
	return uint32(r.Bottom - r.Top)
}

/**
 * @brief The types of clearing to be done on a renderpass.
 * Can be combined together for multiple clearing functions.
 */
type RenderpassClearFlag uint32

const (
	/** @brief No clearing should be done. */
	RENDERPASS_CLEAR_NONE_FLAG RenderpassClearFlag = 0x0
	/** @brief Clear the colour buffer. */
	RENDERPASS_CLEAR_COLOUR_BUFFER_FLAG RenderpassClearFlag = 0x1
	/** @brief Clear the depth buffer. */
	RENDERPASS_CLEAR_DEPTH_BUFFER_FLAG RenderpassClearFlag = 0x2
)

type ClearValues struct {
	Flags  RenderpassClearFlag
	Colour math.Vec4
	Depth  float32
}

/**
 * @brief Names a render target through a descriptor handle from the RTV/DSV
 * slices of the frame. The backend resolves handles to its own objects.
 */
type RenderTargetBinding struct {
	Kind RenderTargetKind
	// ColourView is the RTV handle, unused for depth only targets.
	ColourView uint64
	DepthView  uint64
}

/**
 * @brief A vertex stream living in either the per frame upload ring or a
 * static buffer created at startup.
 */
type VertexBufferView struct {
	// Static selects a buffer created through CreateStaticVertexBuffer.
	Static   bool
	StaticID uint32
	// Offset is the byte offset into the upload ring or the static buffer.
	Offset      uint64
	Stride      uint32
	VertexCount uint32
}

/** @brief Location of a SceneConstants record inside the upload ring. */
type ConstantsView struct {
	Offset uint64
	// Descriptor is the shader visible descriptor handle the record is bound through.
	Descriptor uint64
}

/** @brief Everything needed to issue one non-indexed draw. */
type DrawCall struct {
	Variant     PipelineVariant
	Vertices    VertexBufferView
	Constants   ConstantsView
	FirstVertex uint32
	VertexCount uint32
	LineWidth   float32
}
