package views

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/frame"
	"github.com/spaghettifunk/prism/engine/renderer/geometry"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

/**
 * @brief The recording surface a pass draws through. Implemented by the
 * backend's per frame command buffer.
 */
type CommandList interface {
	// Barrier records a state transition of a tracked resource. Never called
	// inside a render target scope.
	Barrier(resource *metadata.TrackedResource, from, to metadata.ResourceState)
	BeginRenderTarget(target metadata.RenderTargetBinding, clear metadata.ClearValues)
	EndRenderTarget()
	SetViewport(viewport metadata.Viewport)
	SetScissor(scissor metadata.Rect)
	Draw(call *metadata.DrawCall)
}

/**
 * @brief Vertex buffers created once at startup and drawn every frame.
 */
type StaticGeometry struct {
	Grid   metadata.VertexBufferView
	Axes   metadata.VertexBufferView
	Cube   metadata.VertexBufferView
	Ground metadata.VertexBufferView
}

/**
 * @brief Everything the passes need to know about the scene for one frame.
 * Built by the renderer after Update, read only while recording.
 */
type Packet struct {
	Width  uint32
	Height uint32

	/** @brief Render camera view * projection. */
	ViewProjection math.Mat4

	LightEnabled   bool
	ShadowsEnabled bool
	/** @brief Normalized direction the light travels. */
	LightDir math.Vec3
	/** @brief Light view * light orthographic projection. */
	LightViewProjection math.Mat4

	ShowGrid        bool
	ShowFrustum     bool
	ShowTestCube    bool
	ShowRandomCubes bool

	TestCubeModel  math.Mat4
	PlayerPosition math.Vec3
	/** @brief The volume the debug boxes are culled against. */
	CullFrustum math.Frustum
	DebugBoxes  []geometry.DebugBox

	HUD geometry.HUDInfo
}

// ShaderLightDir is what the lit shaders receive: zero switches lighting off.
func (p *Packet) ShaderLightDir() math.Vec3 {
	if !p.LightEnabled {
		return math.NewVec3Zero()
	}
	return p.LightDir
}

/** @brief What a pass records into. */
type Frame struct {
	Resources *frame.Resources
	Commands  CommandList
	Packet    *Packet
	// Skipped counts draws dropped because the frame ran out of transient memory.
	Skipped int
}

func (f *Frame) skip(what string, err error) {
	f.Skipped++
	core.LogDebug("frame slot %d: skipping %s: %s", f.Resources.Index, what, err)
}

/**
 * @brief Places one SceneConstants record in the upload ring and gives it a
 * shader visible descriptor from the frame's slice.
 */
func (f *Frame) pushConstants(c *metadata.SceneConstants) (metadata.ConstantsView, error) {
	alloc := f.Resources.Upload.Allocate(metadata.SCENE_CONSTANTS_SIZE, metadata.CONSTANT_BUFFER_ALIGNMENT)
	if !alloc.Valid() {
		return metadata.ConstantsView{}, fmt.Errorf("scene constants for frame slot %d: %w", f.Resources.Index, core.ErrUploadExhausted)
	}
	c.Encode(alloc.CPU)
	srv := f.Resources.Descriptors.SRV
	offset := srv.Alloc(1)
	return metadata.ConstantsView{Offset: alloc.Offset, Descriptor: srv.GPUAt(offset)}, nil
}

// uploadVertices copies a transient batch into the upload ring.
func uploadVertices[V geometry.Vertex](f *Frame, b *geometry.Batch[V], stride uint32) (metadata.VertexBufferView, error) {
	alloc, err := f.Resources.Upload.Upload(b.Bytes(), 16)
	if err != nil {
		return metadata.VertexBufferView{}, err
	}
	return metadata.VertexBufferView{
		Offset:      alloc.Offset,
		Stride:      stride,
		VertexCount: uint32(b.Len()),
	}, nil
}

/**
 * @brief Pushes the constants and records one draw. A draw whose constants do
 * not fit in the upload region is skipped, the frame carries on.
 */
func (f *Frame) draw(variant metadata.PipelineVariant, vertices metadata.VertexBufferView, constants *metadata.SceneConstants, lineWidth float32) {
	cb, err := f.pushConstants(constants)
	if err != nil {
		f.skip(metadata.PipelineDescFor(variant).Name, err)
		return
	}
	f.Commands.Draw(&metadata.DrawCall{
		Variant:     variant,
		Vertices:    vertices,
		Constants:   cb,
		VertexCount: vertices.VertexCount,
		LineWidth:   lineWidth,
	})
}
