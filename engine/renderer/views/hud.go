package views

import (
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/geometry"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

/**
 * @brief Screen space overlay drawn last into the back buffer with a pixel
 * orthographic projection and no depth. Closes the render target the world
 * pass opened.
 */
type HUDView struct {
	face font.Face
}

func NewHUDView() *HUDView {
	return &HUDView{face: basicfont.Face7x13}
}

// PixelProjection maps x in [0, width] and y in [0, height], y down, to clip space.
func PixelProjection(width, height uint32) math.Mat4 {
	return math.NewMat4OrthographicOffCenterLH(0, float32(width), float32(height), 0, 0, 1)
}

func (v *HUDView) Record(f *Frame) {
	defer f.Commands.EndRenderTarget()

	p := f.Packet
	// The HUD owns the pass arena for the rest of the frame.
	f.Resources.PassArena.Reset()
	batch, err := geometry.NewBatch[metadata.VertexPC](f.Resources.PassArena, geometry.HUD_VERTEX_CAPACITY)
	if err != nil {
		f.skip("hud", err)
		return
	}
	geometry.BuildHUD(batch, v.face, float32(p.Width), float32(p.Height), &p.HUD)
	if batch.Dropped() > 0 {
		core.LogWarn("hud dropped %d vertices, capacity is %d", batch.Dropped(), batch.Cap())
	}
	if batch.Len() == 0 {
		return
	}
	vb, err := uploadVertices(f, batch, metadata.VERTEX_PC_SIZE)
	if err != nil {
		f.skip("hud", err)
		return
	}
	f.draw(metadata.PIPELINE_HUD_UNLIT, vb, &metadata.SceneConstants{MVP: PixelProjection(p.Width, p.Height)}, 0)
}
