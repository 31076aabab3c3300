package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

/**
 * @brief Records the passes of one frame slot into its command buffer.
 * Recording cannot fail part way through a pass, so the first error is kept
 * and reported by EndFrame.
 */
type vulkanCommandList struct {
	backend       *VulkanRenderer
	commandBuffer *VulkanCommandBuffer
	imageIndex    uint32

	activePass *VulkanRenderpass
	bound      *VulkanPipeline
	err        error
}

func (cl *vulkanCommandList) begin(commandBuffer *VulkanCommandBuffer, imageIndex uint32) {
	cl.commandBuffer = commandBuffer
	cl.imageIndex = imageIndex
	cl.activePass = nil
	cl.bound = nil
	cl.err = nil
}

func (cl *vulkanCommandList) fail(err error) {
	if cl.err == nil {
		cl.err = err
		core.LogError(err.Error())
	}
}

func (cl *vulkanCommandList) Barrier(resource *metadata.TrackedResource, from, to metadata.ResourceState) {
	if cl.activePass != nil {
		cl.fail(fmt.Errorf("barrier on %s inside the %s render pass: %w", resource.Name, cl.activePass.Name, core.ErrPassOrder))
		return
	}
	if resource.Name != metadata.SHADOW_MAP_RESOURCE {
		cl.fail(fmt.Errorf("barrier on unknown resource %q", resource.Name))
		return
	}
	cl.backend.shadowMap.Image.Transition(cl.commandBuffer, from, to)
}

func (cl *vulkanCommandList) BeginRenderTarget(target metadata.RenderTargetBinding, clear metadata.ClearValues) {
	if cl.activePass != nil {
		cl.fail(fmt.Errorf("render target opened while %s is active: %w", cl.activePass.Name, core.ErrPassOrder))
		return
	}
	context := cl.backend.context
	var renderpass *VulkanRenderpass
	var framebuffer *VulkanFramebuffer
	switch target.Kind {
	case metadata.RENDER_TARGET_SWAPCHAIN:
		renderpass = context.MainRenderpass
		framebuffer = context.Swapchain.Framebuffers[cl.imageIndex]
	case metadata.RENDER_TARGET_SHADOW_MAP:
		renderpass = context.ShadowRenderpass
		framebuffer = cl.backend.shadowMap.Framebuffer
	default:
		cl.fail(fmt.Errorf("unknown render target kind %d", target.Kind))
		return
	}
	renderpass.RenderpassBegin(cl.commandBuffer, framebuffer, clear)
	cl.activePass = renderpass
	cl.bound = nil
}

func (cl *vulkanCommandList) EndRenderTarget() {
	if cl.activePass == nil {
		cl.fail(fmt.Errorf("no render target to end: %w", core.ErrPassOrder))
		return
	}
	cl.activePass.RenderpassEnd(cl.commandBuffer)
	cl.activePass = nil
}

/**
 * @brief Flips the viewport so that +Y is up in clip space, matching the
 * projection matrices. Requires Vulkan 1.1.
 */
func vkViewport(viewport metadata.Viewport) vk.Viewport {
	return vk.Viewport{
		X:        viewport.X,
		Y:        viewport.Y + viewport.Height,
		Width:    viewport.Width,
		Height:   -viewport.Height,
		MinDepth: viewport.MinDepth,
		MaxDepth: viewport.MaxDepth,
	}
}

func vkScissor(scissor metadata.Rect) vk.Rect2D {
	return vk.Rect2D{
		Offset: vk.Offset2D{X: scissor.Left, Y: scissor.Top},
		Extent: vk.Extent2D{Width: scissor.Width(), Height: scissor.Height()},
	}
}

func (cl *vulkanCommandList) SetViewport(viewport metadata.Viewport) {
	vk.CmdSetViewport(cl.commandBuffer.Handle, 0, 1, []vk.Viewport{vkViewport(viewport)})
}

func (cl *vulkanCommandList) SetScissor(scissor metadata.Rect) {
	vk.CmdSetScissor(cl.commandBuffer.Handle, 0, 1, []vk.Rect2D{vkScissor(scissor)})
}

// lineWidthFor returns 1 unless the variant takes a dynamic width and the device has wide lines.
func lineWidthFor(call *metadata.DrawCall, desc *metadata.PipelineDesc, wideLines bool, maxWidth float32) float32 {
	if !desc.Raster.DynamicLineWidth || !wideLines || call.LineWidth <= 1 {
		return 1
	}
	if call.LineWidth > maxWidth {
		return maxWidth
	}
	return call.LineWidth
}

func (cl *vulkanCommandList) Draw(call *metadata.DrawCall) {
	if cl.activePass == nil {
		cl.fail(fmt.Errorf("draw outside a render target: %w", core.ErrPassOrder))
		return
	}
	backend := cl.backend
	pipeline, err := backend.pipeline(call.Variant)
	if err != nil {
		cl.fail(err)
		return
	}
	if cl.bound != pipeline {
		pipeline.Bind(cl.commandBuffer, vk.PipelineBindPointGraphics)
		cl.bound = pipeline
	}

	set, err := backend.descriptorSets.Write(backend.context, call.Constants.Descriptor, call.Variant,
		backend.uploadBuffer.Handle, call.Constants.Offset, backend.shadowMap)
	if err != nil {
		cl.fail(err)
		return
	}
	vk.CmdBindDescriptorSets(cl.commandBuffer.Handle, vk.PipelineBindPointGraphics, backend.pipelineLayout,
		0, 1, []vk.DescriptorSet{set}, 0, nil)

	vertexBuffer := backend.uploadBuffer
	if call.Vertices.Static {
		if int(call.Vertices.StaticID) >= len(backend.staticBuffers) {
			cl.fail(fmt.Errorf("unknown static vertex buffer %d", call.Vertices.StaticID))
			return
		}
		vertexBuffer = backend.staticBuffers[call.Vertices.StaticID]
	}
	vk.CmdBindVertexBuffers(cl.commandBuffer.Handle, 0, 1,
		[]vk.Buffer{vertexBuffer.Handle}, []vk.DeviceSize{vk.DeviceSize(call.Vertices.Offset)})

	device := backend.context.Device
	vk.CmdSetLineWidth(cl.commandBuffer.Handle, lineWidthFor(call, &pipeline.Desc, device.WideLines, device.LineWidthMax))
	vk.CmdDraw(cl.commandBuffer.Handle, call.VertexCount, 1, call.FirstVertex, 0)
}
