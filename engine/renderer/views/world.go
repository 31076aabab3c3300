package views

import (
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/geometry"
	"github.com/spaghettifunk/prism/engine/renderer/memory"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

const (
	GRID_LINE_THICKNESS  float32 = 1
	DEBUG_LINE_THICKNESS float32 = 2.5
)

var ClearColour = math.Vec4{X: 0.1, Y: 0.1, Z: 0.1, W: 1}

/**
 * @brief The opaque pass: clears the back buffer and depth, then draws the lit
 * ground and test cube, the grid, the culled debug boxes, the player axes and
 * the cull frustum. It leaves the render target open for the HUD.
 */
type WorldView struct {
	static *StaticGeometry
	// Visible is the number of debug boxes that survived culling last frame.
	Visible int
}

func NewWorldView(static *StaticGeometry) *WorldView {
	return &WorldView{static: static}
}

func (v *WorldView) Record(f *Frame) {
	cmd := f.Commands
	p := f.Packet
	heaps := f.Resources.Descriptors

	cmd.BeginRenderTarget(
		metadata.RenderTargetBinding{
			Kind:       metadata.RENDER_TARGET_SWAPCHAIN,
			ColourView: heaps.RTV.CPUAt(heaps.RTV.Alloc(1)),
			DepthView:  heaps.DSV.CPUAt(heaps.DSV.Alloc(1)),
		},
		metadata.ClearValues{
			Flags:  metadata.RENDERPASS_CLEAR_COLOUR_BUFFER_FLAG | metadata.RENDERPASS_CLEAR_DEPTH_BUFFER_FLAG,
			Colour: ClearColour,
			Depth:  1,
		},
	)
	cmd.SetViewport(metadata.NewViewport(p.Width, p.Height))
	cmd.SetScissor(metadata.NewRect(p.Width, p.Height))

	identity := math.NewMat4Identity()
	v.lit(f, identity, v.static.Ground)

	if p.ShowGrid {
		v.line(f, identity, v.static.Grid, GRID_LINE_THICKNESS)
	}

	v.Visible = 0
	if p.ShowRandomCubes && len(p.DebugBoxes) > 0 {
		v.debugBoxes(f)
	}

	v.line(f, math.NewMat4Translation(p.PlayerPosition), v.static.Axes, DEBUG_LINE_THICKNESS)

	if p.ShowTestCube {
		v.lit(f, p.TestCubeModel, v.static.Cube)
	}

	if p.ShowFrustum {
		v.frustum(f)
	}
}

func (v *WorldView) lit(f *Frame, model math.Mat4, vertices metadata.VertexBufferView) {
	p := f.Packet
	f.draw(metadata.PIPELINE_TRIANGLE_LIT, vertices, &metadata.SceneConstants{
		MVP:      model.Mul(p.ViewProjection),
		LightDir: p.ShaderLightDir(),
		LightMVP: model.Mul(p.LightViewProjection),
	}, 0)
}

func (v *WorldView) line(f *Frame, model math.Mat4, vertices metadata.VertexBufferView, thickness float32) {
	p := f.Packet
	f.draw(metadata.PIPELINE_LINE_UNLIT, vertices, &metadata.SceneConstants{
		MVP:             model.Mul(p.ViewProjection),
		LightDir:        p.ShaderLightDir(),
		ViewportSize:    math.NewVec2(float32(p.Width), float32(p.Height)),
		LineThicknessPx: thickness,
		LightMVP:        model.Mul(p.LightViewProjection),
	}, thickness)
}

// debugBoxes culls the box field against the cull frustum and batches the
// survivors into a single line list.
func (v *WorldView) debugBoxes(f *Frame) {
	p := f.Packet
	arena := f.Resources.FrameArena

	bounds, err := memory.AllocSlice[math.AABB](arena, len(p.DebugBoxes))
	if err != nil {
		f.skip("debug boxes", err)
		return
	}
	visible, err := memory.AllocSlice[int](arena, len(p.DebugBoxes))
	if err != nil {
		f.skip("debug boxes", err)
		return
	}
	bounds = geometry.Bounds(bounds, p.DebugBoxes)
	visible = p.CullFrustum.CullAABBs(visible, bounds)
	v.Visible = len(visible)
	if len(visible) == 0 {
		return
	}

	batch, err := geometry.NewBatch[metadata.VertexPC](arena, len(visible)*geometry.BOX_VERTEX_COUNT)
	if err != nil {
		f.skip("debug boxes", err)
		return
	}
	for _, i := range visible {
		geometry.AddBox(batch, p.DebugBoxes[i].Bounds, p.DebugBoxes[i].Colour)
	}
	vb, err := uploadVertices(f, batch, metadata.VERTEX_PC_SIZE)
	if err != nil {
		f.skip("debug boxes", err)
		return
	}
	v.line(f, math.NewMat4Identity(), vb, DEBUG_LINE_THICKNESS)
}

func (v *WorldView) frustum(f *Frame) {
	batch, err := geometry.NewBatch[metadata.VertexPC](f.Resources.FrameArena, geometry.FRUSTUM_VIZ_VERTEX_COUNT)
	if err != nil {
		f.skip("frustum", err)
		return
	}
	geometry.AddFrustum(batch, &f.Packet.CullFrustum)
	vb, err := uploadVertices(f, batch, metadata.VERTEX_PC_SIZE)
	if err != nil {
		f.skip("frustum", err)
		return
	}
	v.line(f, math.NewMat4Identity(), vb, DEBUG_LINE_THICKNESS)
}
