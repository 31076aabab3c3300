package metadata

/** @brief The fixed set of pipeline states a draw call can select. */
type PipelineVariant int

const (
	/** @brief Lit triangles with depth test and shadow lookup. */
	PIPELINE_TRIANGLE_LIT PipelineVariant = iota
	/** @brief Unlit line lists drawn over the scene. */
	PIPELINE_LINE_UNLIT
	/** @brief Screen space triangles without depth. */
	PIPELINE_HUD_UNLIT
	/** @brief Depth only rendering into the shadow map. */
	PIPELINE_SHADOW_DEPTH
	PIPELINE_VARIANT_COUNT
)

func (v PipelineVariant) String() string {
	if v >= 0 && v < PIPELINE_VARIANT_COUNT {
		return pipelineTable[v].Name
	}
	return "unknown"
}

type PrimitiveTopology int

const (
	TOPOLOGY_TRIANGLE_LIST PrimitiveTopology = iota
	TOPOLOGY_LINE_LIST
)

type BlendMode int

const (
	BLEND_OPAQUE BlendMode = iota
	BLEND_ALPHA
)

type CompareOp int

const (
	COMPARE_NEVER CompareOp = iota
	COMPARE_LESS
	COMPARE_LESS_EQUAL
	COMPARE_ALWAYS
)

/** @brief Determines face culling mode during rendering. */
type FaceCullMode int

const (
	/** @brief No faces are culled. */
	FaceCullModeNone FaceCullMode = 0x0
	/** @brief Only front faces are culled. */
	FaceCullModeFront FaceCullMode = 0x1
	/** @brief Only back faces are culled. */
	FaceCullModeBack FaceCullMode = 0x2
)

type RasterState struct {
	CullMode FaceCullMode
	// DynamicLineWidth makes the line width part of the recorded draw state.
	DynamicLineWidth bool
}

type DepthStencilState struct {
	TestEnabled  bool
	WriteEnabled bool
	Compare      CompareOp
}

/**
 * @brief Describes one pipeline variant: which shader pair it binds and the
 * fixed function state around it. FragmentShader is empty for depth only
 * variants.
 */
type PipelineDesc struct {
	Name           string
	VertexShader   string
	FragmentShader string
	Blend          BlendMode
	Raster         RasterState
	DepthStencil   DepthStencilState
	Layout         InputLayout
	Topology       PrimitiveTopology
	// Target says which render pass the pipeline is compatible with.
	Target RenderTargetKind
}

/** @brief The render passes a pipeline can be built against. */
type RenderTargetKind int

const (
	RENDER_TARGET_SWAPCHAIN RenderTargetKind = iota
	RENDER_TARGET_SHADOW_MAP
)

const (
	SHADER_BASIC_VERTEX   = "basic.vert"
	SHADER_BASIC_FRAGMENT = "basic.frag"
	SHADER_LIT_VERTEX     = "lit.vert"
	SHADER_LIT_FRAGMENT   = "lit.frag"
)

var pipelineTable = [PIPELINE_VARIANT_COUNT]PipelineDesc{
	PIPELINE_TRIANGLE_LIT: {
		Name:           "triangle_lit",
		VertexShader:   SHADER_LIT_VERTEX,
		FragmentShader: SHADER_LIT_FRAGMENT,
		Blend:          BLEND_OPAQUE,
		Raster:         RasterState{CullMode: FaceCullModeNone},
		DepthStencil:   DepthStencilState{TestEnabled: true, WriteEnabled: true, Compare: COMPARE_LESS_EQUAL},
		Layout:         InputLayoutPNC,
		Topology:       TOPOLOGY_TRIANGLE_LIST,
		Target:         RENDER_TARGET_SWAPCHAIN,
	},
	PIPELINE_LINE_UNLIT: {
		Name:           "line_unlit",
		VertexShader:   SHADER_BASIC_VERTEX,
		FragmentShader: SHADER_BASIC_FRAGMENT,
		Blend:          BLEND_OPAQUE,
		Raster:         RasterState{CullMode: FaceCullModeNone, DynamicLineWidth: true},
		DepthStencil:   DepthStencilState{TestEnabled: false, WriteEnabled: false, Compare: COMPARE_ALWAYS},
		Layout:         InputLayoutPC,
		Topology:       TOPOLOGY_LINE_LIST,
		Target:         RENDER_TARGET_SWAPCHAIN,
	},
	PIPELINE_HUD_UNLIT: {
		Name:           "hud_unlit",
		VertexShader:   SHADER_BASIC_VERTEX,
		FragmentShader: SHADER_BASIC_FRAGMENT,
		Blend:          BLEND_OPAQUE,
		Raster:         RasterState{CullMode: FaceCullModeNone},
		DepthStencil:   DepthStencilState{TestEnabled: false, WriteEnabled: false, Compare: COMPARE_ALWAYS},
		Layout:         InputLayoutPC,
		Topology:       TOPOLOGY_TRIANGLE_LIST,
		Target:         RENDER_TARGET_SWAPCHAIN,
	},
	PIPELINE_SHADOW_DEPTH: {
		Name:         "shadow_depth",
		VertexShader: SHADER_LIT_VERTEX,
		Blend:        BLEND_OPAQUE,
		Raster:       RasterState{CullMode: FaceCullModeNone},
		DepthStencil: DepthStencilState{TestEnabled: true, WriteEnabled: true, Compare: COMPARE_LESS_EQUAL},
		Layout:       InputLayoutPNC,
		Topology:     TOPOLOGY_TRIANGLE_LIST,
		Target:       RENDER_TARGET_SHADOW_MAP,
	},
}

/**
 * @brief Returns the description of a variant. The table is fixed, so an
 * unknown variant is a programming error.
 */
func PipelineDescFor(v PipelineVariant) PipelineDesc {
	if v < 0 || v >= PIPELINE_VARIANT_COUNT {
		panic("unknown pipeline variant")
	}
	return pipelineTable[v]
}

// PipelineVariants lists every variant in table order.
func PipelineVariants() []PipelineVariant {
	out := make([]PipelineVariant, 0, PIPELINE_VARIANT_COUNT)
	for v := PipelineVariant(0); v < PIPELINE_VARIANT_COUNT; v++ {
		out = append(out, v)
	}
	return out
}

// ShaderArtifacts returns the distinct shader names the table references.
func ShaderArtifacts() []string {
	seen := map[string]bool{}
	var out []string
	for _, d := range pipelineTable {
		for _, s := range []string{d.VertexShader, d.FragmentShader} {
			if s != "" && !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}
