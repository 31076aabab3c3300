package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

/**
 * @brief Describes the attachments of a single subpass renderpass. A colour
 * format of vk.FormatUndefined makes the pass depth only.
 */
type VulkanRenderpassConfig struct {
	Name         string
	ColourFormat vk.Format
	// ColourFinalLayout is the layout the colour attachment ends in.
	ColourFinalLayout vk.ImageLayout
	DepthFormat       vk.Format
	// DepthInitialLayout is the layout the depth attachment is in when the pass starts.
	DepthInitialLayout vk.ImageLayout
	DepthFinalLayout   vk.ImageLayout
	// StoreDepth keeps the depth contents after the pass, for sampling later.
	StoreDepth bool
	// ClearFlags are baked into the attachment load ops.
	ClearFlags metadata.RenderpassClearFlag
}

type VulkanRenderpass struct {
	Handle     vk.RenderPass
	Name       string
	HasColour  bool
	ClearFlags metadata.RenderpassClearFlag
}

// mainRenderpassConfig draws the scene and the HUD into a swapchain image.
func mainRenderpassConfig(colourFormat, depthFormat vk.Format) VulkanRenderpassConfig {
	return VulkanRenderpassConfig{
		Name:               "main",
		ColourFormat:       colourFormat,
		ColourFinalLayout:  vk.ImageLayoutPresentSrc,
		DepthFormat:        depthFormat,
		DepthInitialLayout: vk.ImageLayoutUndefined,
		DepthFinalLayout:   vk.ImageLayoutDepthStencilAttachmentOptimal,
		ClearFlags:         metadata.RENDERPASS_CLEAR_COLOUR_BUFFER_FLAG | metadata.RENDERPASS_CLEAR_DEPTH_BUFFER_FLAG,
	}
}

// shadowRenderpassConfig renders light depth. Layout changes are recorded as explicit barriers around it.
func shadowRenderpassConfig(depthFormat vk.Format) VulkanRenderpassConfig {
	return VulkanRenderpassConfig{
		Name:               "shadow",
		ColourFormat:       vk.FormatUndefined,
		DepthFormat:        depthFormat,
		DepthInitialLayout: vk.ImageLayoutDepthStencilAttachmentOptimal,
		DepthFinalLayout:   vk.ImageLayoutDepthStencilAttachmentOptimal,
		StoreDepth:         true,
		ClearFlags:         metadata.RENDERPASS_CLEAR_DEPTH_BUFFER_FLAG,
	}
}

func loadOp(clear bool, initial vk.ImageLayout) vk.AttachmentLoadOp {
	if clear {
		return vk.AttachmentLoadOpClear
	}
	if initial == vk.ImageLayoutUndefined {
		return vk.AttachmentLoadOpDontCare
	}
	return vk.AttachmentLoadOpLoad
}

/**
 * @brief Builds the attachment descriptions for a config, colour first.
 */
func renderpassAttachments(config *VulkanRenderpassConfig) []vk.AttachmentDescription {
	var attachments []vk.AttachmentDescription
	if config.ColourFormat != vk.FormatUndefined {
		attachments = append(attachments, vk.AttachmentDescription{
			Format:         config.ColourFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         loadOp(config.ClearFlags&metadata.RENDERPASS_CLEAR_COLOUR_BUFFER_FLAG != 0, vk.ImageLayoutUndefined),
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			// Do not expect any particular layout before render pass starts.
			InitialLayout: vk.ImageLayoutUndefined,
			FinalLayout:   config.ColourFinalLayout,
		})
	}

	depthStore := vk.AttachmentStoreOpDontCare
	if config.StoreDepth {
		depthStore = vk.AttachmentStoreOpStore
	}
	attachments = append(attachments, vk.AttachmentDescription{
		Format:         config.DepthFormat,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         loadOp(config.ClearFlags&metadata.RENDERPASS_CLEAR_DEPTH_BUFFER_FLAG != 0, config.DepthInitialLayout),
		StoreOp:        depthStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  config.DepthInitialLayout,
		FinalLayout:    config.DepthFinalLayout,
	})
	return attachments
}

func RenderpassCreate(context *VulkanContext, config VulkanRenderpassConfig) (*VulkanRenderpass, error) {
	outRenderpass := &VulkanRenderpass{
		Name:       config.Name,
		HasColour:  config.ColourFormat != vk.FormatUndefined,
		ClearFlags: config.ClearFlags,
	}

	attachments := renderpassAttachments(&config)

	// Main subpass
	subpass := vk.SubpassDescription{
		PipelineBindPoint: vk.PipelineBindPointGraphics,
	}
	depthIndex := uint32(0)
	if outRenderpass.HasColour {
		subpass.ColorAttachmentCount = 1
		subpass.PColorAttachments = []vk.AttachmentReference{
			{Attachment: 0, Layout: vk.ImageLayoutColorAttachmentOptimal},
		}
		depthIndex = 1
	}
	subpass.PDepthStencilAttachment = &vk.AttachmentReference{
		Attachment: depthIndex,
		Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
	}

	renderpassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
	}

	if outRenderpass.HasColour {
		dependency := vk.SubpassDependency{
			SrcSubpass:    vk.SubpassExternal,
			DstSubpass:    0,
			SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit),
			SrcAccessMask: 0,
			DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit),
			DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit | vk.AccessDepthStencilAttachmentWriteBit),
		}
		renderpassCreateInfo.DependencyCount = 1
		renderpassCreateInfo.PDependencies = []vk.SubpassDependency{dependency}
	}

	var pRenderPass vk.RenderPass
	if err := vulkanError("vkCreateRenderPass", vk.CreateRenderPass(context.Device.LogicalDevice, &renderpassCreateInfo, context.Allocator, &pRenderPass)); err != nil {
		return nil, err
	}
	outRenderpass.Handle = pRenderPass
	return outRenderpass, nil
}

func (vr *VulkanRenderpass) RenderpassDestroy(context *VulkanContext) {
	if vr.Handle != vk.NullRenderPass {
		vk.DestroyRenderPass(context.Device.LogicalDevice, vr.Handle, context.Allocator)
		vr.Handle = vk.NullRenderPass
	}
}

// clearValuesFor orders the clear values like the attachments.
func (vr *VulkanRenderpass) clearValuesFor(clear metadata.ClearValues) []vk.ClearValue {
	var values []vk.ClearValue
	if vr.HasColour {
		var colour vk.ClearValue
		colour.SetColor([]float32{clear.Colour.X, clear.Colour.Y, clear.Colour.Z, clear.Colour.W})
		values = append(values, colour)
	}
	var depth vk.ClearValue
	depth.SetDepthStencil(clear.Depth, 0)
	return append(values, depth)
}

func (vr *VulkanRenderpass) RenderpassBegin(commandBuffer *VulkanCommandBuffer, framebuffer *VulkanFramebuffer, clear metadata.ClearValues) {
	clearValues := vr.clearValuesFor(clear)
	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  vr.Handle,
		Framebuffer: framebuffer.Handle,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: vk.Extent2D{Width: framebuffer.Width, Height: framebuffer.Height},
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}

	vk.CmdBeginRenderPass(commandBuffer.Handle, &beginInfo, vk.SubpassContentsInline)
	commandBuffer.State = COMMAND_BUFFER_STATE_IN_RENDER_PASS
}

func (vr *VulkanRenderpass) RenderpassEnd(commandBuffer *VulkanCommandBuffer) {
	vk.CmdEndRenderPass(commandBuffer.Handle)
	commandBuffer.State = COMMAND_BUFFER_STATE_RECORDING
}
