package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

/**
 * @brief Holds a Vulkan pipeline built for one variant.
 */
type VulkanPipeline struct {
	/** @brief The internal pipeline handle. */
	Handle  vk.Pipeline
	Variant metadata.PipelineVariant
	Desc    metadata.PipelineDesc
}

type VulkanPipelineConfig struct {
	Variant metadata.PipelineVariant
	Desc    metadata.PipelineDesc
	/** @brief The renderpass the pipeline is compatible with. */
	Renderpass *VulkanRenderpass
	/** @brief The layout shared by every variant. */
	Layout vk.PipelineLayout
	/** @brief The vertex stage, then the fragment stage when there is one. */
	Stages []vk.PipelineShaderStageCreateInfo
}

func vkTopology(t metadata.PrimitiveTopology) vk.PrimitiveTopology {
	if t == metadata.TOPOLOGY_LINE_LIST {
		return vk.PrimitiveTopologyLineList
	}
	return vk.PrimitiveTopologyTriangleList
}

func vkCompareOp(op metadata.CompareOp) vk.CompareOp {
	switch op {
	case metadata.COMPARE_NEVER:
		return vk.CompareOpNever
	case metadata.COMPARE_LESS:
		return vk.CompareOpLess
	case metadata.COMPARE_LESS_EQUAL:
		return vk.CompareOpLessOrEqual
	}
	return vk.CompareOpAlways
}

func vkCullMode(mode metadata.FaceCullMode) vk.CullModeFlags {
	switch mode {
	case metadata.FaceCullModeFront:
		return vk.CullModeFlags(vk.CullModeFrontBit)
	case metadata.FaceCullModeBack:
		return vk.CullModeFlags(vk.CullModeBackBit)
	}
	return vk.CullModeFlags(vk.CullModeNone)
}

func vkAttributeFormat(format metadata.AttributeFormat) vk.Format {
	switch format {
	case metadata.ATTRIBUTE_FORMAT_FLOAT32x2:
		return vk.FormatR32g32Sfloat
	case metadata.ATTRIBUTE_FORMAT_FLOAT32x4:
		return vk.FormatR32g32b32a32Sfloat
	}
	return vk.FormatR32g32b32Sfloat
}

func vertexAttributes(layout metadata.InputLayout) []vk.VertexInputAttributeDescription {
	attributes := make([]vk.VertexInputAttributeDescription, len(layout.Attributes))
	for i, a := range layout.Attributes {
		attributes[i] = vk.VertexInputAttributeDescription{
			Location: a.Location,
			Binding:  0,
			Format:   vkAttributeFormat(a.Format),
			Offset:   a.Offset,
		}
	}
	return attributes
}

func colourBlendAttachment(mode metadata.BlendMode) vk.PipelineColorBlendAttachmentState {
	state := vk.PipelineColorBlendAttachmentState{
		BlendEnable: vk.False,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit |
			vk.ColorComponentBBit | vk.ColorComponentABit),
	}
	if mode == metadata.BLEND_ALPHA {
		state.BlendEnable = vk.True
		state.SrcColorBlendFactor = vk.BlendFactorSrcAlpha
		state.DstColorBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		state.ColorBlendOp = vk.BlendOpAdd
		state.SrcAlphaBlendFactor = vk.BlendFactorSrcAlpha
		state.DstAlphaBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		state.AlphaBlendOp = vk.BlendOpAdd
	}
	return state
}

func vkBool(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}

func NewGraphicsPipeline(context *VulkanContext, config *VulkanPipelineConfig) (*VulkanPipeline, error) {
	outPipeline := &VulkanPipeline{Variant: config.Variant, Desc: config.Desc}
	desc := &config.Desc

	// Viewport and scissor are dynamic, only the counts matter here.
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	// Rasterizer
	rasterizerCreateInfo := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		LineWidth:               1.0,
		CullMode:                vkCullMode(desc.Raster.CullMode),
		FrontFace:               vk.FrontFaceClockwise,
		DepthBiasEnable:         vk.False,
	}

	// Multisampling.
	multisamplingCreateInfo := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:  vk.False,
		RasterizationSamples: vk.SampleCount1Bit,
		MinSampleShading:     1.0,
	}

	// Depth and stencil testing.
	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:       vkBool(desc.DepthStencil.TestEnabled),
		DepthWriteEnable:      vkBool(desc.DepthStencil.WriteEnabled),
		DepthCompareOp:        vkCompareOp(desc.DepthStencil.Compare),
		DepthBoundsTestEnable: vk.False,
		StencilTestEnable:     vk.False,
		MaxDepthBounds:        1.0,
	}

	// Depth only targets have no colour attachment to blend into.
	colorBlendStateCreateInfo := vk.PipelineColorBlendStateCreateInfo{
		SType:         vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable: vk.False,
		LogicOp:       vk.LogicOpCopy,
	}
	if config.Renderpass.HasColour {
		colorBlendStateCreateInfo.AttachmentCount = 1
		colorBlendStateCreateInfo.PAttachments = []vk.PipelineColorBlendAttachmentState{colourBlendAttachment(desc.Blend)}
	}

	// Dynamic state
	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
		vk.DynamicStateLineWidth,
	}
	dynamicStateCreateInfo := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	// Vertex input
	bindingDescription := vk.VertexInputBindingDescription{
		Binding:   0, // Binding index
		Stride:    desc.Layout.Stride,
		InputRate: vk.VertexInputRateVertex, // Move to next data entry for each vertex.
	}
	attributes := vertexAttributes(desc.Layout)
	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   1,
		PVertexBindingDescriptions:      []vk.VertexInputBindingDescription{bindingDescription},
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}

	// Input assembly
	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vkTopology(desc.Topology),
		PrimitiveRestartEnable: vk.False,
	}

	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(config.Stages)),
		PStages:             config.Stages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizerCreateInfo,
		PMultisampleState:   &multisamplingCreateInfo,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlendStateCreateInfo,
		PDynamicState:       &dynamicStateCreateInfo,
		Layout:              config.Layout,
		RenderPass:          config.Renderpass.Handle,
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}

	pPipelines := make([]vk.Pipeline, 1)
	result := vk.CreateGraphicsPipelines(
		context.Device.LogicalDevice,
		vk.NullPipelineCache,
		1,
		[]vk.GraphicsPipelineCreateInfo{pipelineCreateInfo},
		context.Allocator,
		pPipelines)
	if err := vulkanError("vkCreateGraphicsPipelines", result); err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", desc.Name, err)
	}
	outPipeline.Handle = pPipelines[0]

	core.LogDebug("Graphics pipeline %s created!", desc.Name)
	return outPipeline, nil
}

func (pipeline *VulkanPipeline) Destroy(context *VulkanContext) {
	if pipeline.Handle != vk.NullPipeline {
		vk.DestroyPipeline(context.Device.LogicalDevice, pipeline.Handle, context.Allocator)
		pipeline.Handle = vk.NullPipeline
	}
}

func (pipeline *VulkanPipeline) Bind(commandBuffer *VulkanCommandBuffer, bindPoint vk.PipelineBindPoint) {
	vk.CmdBindPipeline(commandBuffer.Handle, bindPoint, pipeline.Handle)
}

func PipelineLayoutCreate(context *VulkanContext, setLayout vk.DescriptorSetLayout) (vk.PipelineLayout, error) {
	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: 1,
		PSetLayouts:    []vk.DescriptorSetLayout{setLayout},
	}
	var layout vk.PipelineLayout
	if err := vulkanError("vkCreatePipelineLayout", vk.CreatePipelineLayout(context.Device.LogicalDevice, &pipelineLayoutCreateInfo, context.Allocator, &layout)); err != nil {
		return vk.NullPipelineLayout, err
	}
	return layout, nil
}

/**
 * @brief Every pipeline variant, indexed by metadata.PipelineVariant.
 */
type VulkanPipelineTable struct {
	Pipelines [metadata.PIPELINE_VARIANT_COUNT]*VulkanPipeline
}

func (t *VulkanPipelineTable) Get(variant metadata.PipelineVariant) (*VulkanPipeline, error) {
	if variant < 0 || variant >= metadata.PIPELINE_VARIANT_COUNT || t.Pipelines[variant] == nil {
		return nil, fmt.Errorf("no pipeline for variant %d", variant)
	}
	return t.Pipelines[variant], nil
}

func (t *VulkanPipelineTable) Destroy(context *VulkanContext) {
	for i, p := range t.Pipelines {
		if p != nil {
			p.Destroy(context)
			t.Pipelines[i] = nil
		}
	}
}

func shaderStageFor(name string) vk.ShaderStageFlagBits {
	if name == metadata.SHADER_BASIC_FRAGMENT || name == metadata.SHADER_LIT_FRAGMENT {
		return vk.ShaderStageFragmentBit
	}
	return vk.ShaderStageVertexBit
}

/**
 * @brief Compiles every variant into a new table. Nothing is replaced on
 * failure: the partially built table is destroyed and the error returned.
 */
func BuildPipelineTable(context *VulkanContext, shaders ShaderSource, layout vk.PipelineLayout) (*VulkanPipelineTable, error) {
	modules := map[string]*VulkanShaderStage{}
	defer func() {
		for _, m := range modules {
			m.Destroy(context)
		}
	}()
	for _, name := range metadata.ShaderArtifacts() {
		stage, err := NewShaderModule(context, shaders, name, shaderStageFor(name))
		if err != nil {
			return nil, err
		}
		modules[name] = stage
	}

	table := &VulkanPipelineTable{}
	for _, variant := range metadata.PipelineVariants() {
		desc := metadata.PipelineDescFor(variant)
		renderpass := context.MainRenderpass
		if desc.Target == metadata.RENDER_TARGET_SHADOW_MAP {
			renderpass = context.ShadowRenderpass
		}
		stages := []vk.PipelineShaderStageCreateInfo{modules[desc.VertexShader].ShaderStageCreateInfo}
		if desc.FragmentShader != "" {
			stages = append(stages, modules[desc.FragmentShader].ShaderStageCreateInfo)
		}
		pipeline, err := NewGraphicsPipeline(context, &VulkanPipelineConfig{
			Variant:    variant,
			Desc:       desc,
			Renderpass: renderpass,
			Layout:     layout,
			Stages:     stages,
		})
		if err != nil {
			table.Destroy(context)
			return nil, err
		}
		table.Pipelines[variant] = pipeline
	}
	return table, nil
}
