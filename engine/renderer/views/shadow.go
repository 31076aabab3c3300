package views

import (
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

/** @brief Edge length of the square shadow map when none is configured. */
const DEFAULT_SHADOW_MAP_SIZE uint32 = 2048

/**
 * @brief Renders depth from the light into the shadow map. The pass always
 * runs so the opaque pass can sample a valid, cleared map; casters are only
 * drawn while both the light and shadows are enabled.
 */
type ShadowView struct {
	Size      uint32
	ShadowMap *metadata.TrackedResource
	static    *StaticGeometry
}

func NewShadowView(size uint32, static *StaticGeometry) *ShadowView {
	if size == 0 {
		size = DEFAULT_SHADOW_MAP_SIZE
	}
	return &ShadowView{
		Size:      size,
		ShadowMap: &metadata.TrackedResource{Name: metadata.SHADOW_MAP_RESOURCE, State: metadata.RESOURCE_STATE_UNINITIALIZED},
		static:    static,
	}
}

func (v *ShadowView) Record(f *Frame) {
	cmd := f.Commands
	p := f.Packet

	if from, to, required := v.ShadowMap.Transition(metadata.RESOURCE_USE_DEPTH_TARGET); required {
		cmd.Barrier(v.ShadowMap, from, to)
	}

	dsv := f.Resources.Descriptors.DSV
	cmd.BeginRenderTarget(
		metadata.RenderTargetBinding{Kind: metadata.RENDER_TARGET_SHADOW_MAP, DepthView: dsv.CPUAt(dsv.Alloc(1))},
		metadata.ClearValues{Flags: metadata.RENDERPASS_CLEAR_DEPTH_BUFFER_FLAG, Depth: 1},
	)
	cmd.SetViewport(metadata.NewViewport(v.Size, v.Size))
	cmd.SetScissor(metadata.NewRect(v.Size, v.Size))

	if p.LightEnabled && p.ShadowsEnabled && p.ShowTestCube {
		mvp := p.TestCubeModel.Mul(p.LightViewProjection)
		f.draw(metadata.PIPELINE_SHADOW_DEPTH, v.static.Cube, &metadata.SceneConstants{MVP: mvp, LightMVP: mvp}, 0)
	}
	cmd.EndRenderTarget()

	if from, to, required := v.ShadowMap.Transition(metadata.RESOURCE_USE_SHADER_SAMPLE); required {
		cmd.Barrier(v.ShadowMap, from, to)
	}
}
