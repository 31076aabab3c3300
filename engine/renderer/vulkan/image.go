package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

type VulkanImage struct {
	Handle vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
	Format vk.Format
	Aspect vk.ImageAspectFlags
	Width  uint32
	Height uint32
}

/**
 * @brief Creates a 2D, single mip, optimally tiled image in device local
 * memory, together with a view covering it.
 */
func ImageCreate(context *VulkanContext, width, height uint32, format vk.Format, usage vk.ImageUsageFlags, aspect vk.ImageAspectFlags) (*VulkanImage, error) {
	outImage := &VulkanImage{
		Format: format,
		Aspect: aspect,
		Width:  width,
		Height: height,
	}

	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        vk.ImageTilingOptimal,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         usage,
		Samples:       vk.SampleCount1Bit,
		SharingMode:   vk.SharingModeExclusive,
	}

	var handle vk.Image
	if err := vulkanError("vkCreateImage", vk.CreateImage(context.Device.LogicalDevice, &imageCreateInfo, context.Allocator, &handle)); err != nil {
		return nil, err
	}
	outImage.Handle = handle

	var requirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(context.Device.LogicalDevice, handle, &requirements)
	requirements.Deref()

	memoryType, err := context.FindMemoryIndex(requirements.MemoryTypeBits, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		outImage.ImageDestroy(context)
		return nil, fmt.Errorf("image memory: %w", err)
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryType,
	}
	var memory vk.DeviceMemory
	if err := vulkanError("vkAllocateMemory", vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &memory)); err != nil {
		outImage.ImageDestroy(context)
		return nil, err
	}
	outImage.Memory = memory

	if err := vulkanError("vkBindImageMemory", vk.BindImageMemory(context.Device.LogicalDevice, handle, memory, 0)); err != nil {
		outImage.ImageDestroy(context)
		return nil, err
	}

	view, err := createImageView(context, handle, format, aspect)
	if err != nil {
		outImage.ImageDestroy(context)
		return nil, err
	}
	outImage.View = view
	return outImage, nil
}

func createImageView(context *VulkanContext, image vk.Image, format vk.Format, aspect vk.ImageAspectFlags) (vk.ImageView, error) {
	viewCreateInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	var view vk.ImageView
	if err := vulkanError("vkCreateImageView", vk.CreateImageView(context.Device.LogicalDevice, &viewCreateInfo, context.Allocator, &view)); err != nil {
		return vk.NullImageView, err
	}
	return view, nil
}

func (vi *VulkanImage) ImageDestroy(context *VulkanContext) {
	if vi.View != vk.NullImageView {
		vk.DestroyImageView(context.Device.LogicalDevice, vi.View, context.Allocator)
		vi.View = vk.NullImageView
	}
	if vi.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(context.Device.LogicalDevice, vi.Memory, context.Allocator)
		vi.Memory = vk.NullDeviceMemory
	}
	if vi.Handle != vk.NullImage {
		vk.DestroyImage(context.Device.LogicalDevice, vi.Handle, context.Allocator)
		vi.Handle = vk.NullImage
	}
}

/**
 * @brief The layout, access mask and pipeline stage an image must be in for
 * a tracked resource state.
 */
type imageUsage struct {
	Layout vk.ImageLayout
	Access vk.AccessFlags
	Stage  vk.PipelineStageFlags
}

func usageForState(state metadata.ResourceState) imageUsage {
	switch state {
	case metadata.RESOURCE_STATE_DEPTH_WRITE:
		return imageUsage{
			Layout: vk.ImageLayoutDepthStencilAttachmentOptimal,
			Access: vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit),
			Stage:  vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit | vk.PipelineStageLateFragmentTestsBit),
		}
	case metadata.RESOURCE_STATE_SHADER_READ:
		return imageUsage{
			Layout: vk.ImageLayoutShaderReadOnlyOptimal,
			Access: vk.AccessFlags(vk.AccessShaderReadBit),
			Stage:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		}
	}
	return imageUsage{
		Layout: vk.ImageLayoutUndefined,
		Access: 0,
		Stage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
	}
}

/**
 * @brief Builds the barrier moving the image between two tracked states.
 */
func (vi *VulkanImage) transitionBarrier(from, to metadata.ResourceState) (vk.ImageMemoryBarrier, vk.PipelineStageFlags, vk.PipelineStageFlags) {
	src := usageForState(from)
	dst := usageForState(to)
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       src.Access,
		DstAccessMask:       dst.Access,
		OldLayout:           src.Layout,
		NewLayout:           dst.Layout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               vi.Handle,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vi.Aspect,
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	return barrier, src.Stage, dst.Stage
}

func (vi *VulkanImage) Transition(commandBuffer *VulkanCommandBuffer, from, to metadata.ResourceState) {
	barrier, srcStage, dstStage := vi.transitionBarrier(from, to)
	vk.CmdPipelineBarrier(commandBuffer.Handle, srcStage, dstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}

/**
 * @brief The light depth map, sampled by the lit pipeline through a
 * comparison sampler.
 */
type VulkanShadowMap struct {
	Image   *VulkanImage
	Sampler vk.Sampler
	// Framebuffer targets Image with the shadow renderpass.
	Framebuffer *VulkanFramebuffer
}

func ShadowMapCreate(context *VulkanContext, size uint32) (*VulkanShadowMap, error) {
	image, err := ImageCreate(context, size, size, context.Device.ShadowFormat,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit|vk.ImageUsageSampledBit),
		vk.ImageAspectFlags(vk.ImageAspectDepthBit))
	if err != nil {
		return nil, fmt.Errorf("creating shadow map: %w", err)
	}
	shadow := &VulkanShadowMap{Image: image}

	samplerCreateInfo := vk.SamplerCreateInfo{
		SType:         vk.StructureTypeSamplerCreateInfo,
		MagFilter:     vk.FilterLinear,
		MinFilter:     vk.FilterLinear,
		MipmapMode:    vk.SamplerMipmapModeNearest,
		AddressModeU:  vk.SamplerAddressModeClampToBorder,
		AddressModeV:  vk.SamplerAddressModeClampToBorder,
		AddressModeW:  vk.SamplerAddressModeClampToBorder,
		CompareEnable: vk.True,
		CompareOp:     vk.CompareOpLessOrEqual,
		// Outside the light volume counts as lit.
		BorderColor: vk.BorderColorFloatOpaqueWhite,
		MaxLod:      1,
	}
	var sampler vk.Sampler
	if err := vulkanError("vkCreateSampler", vk.CreateSampler(context.Device.LogicalDevice, &samplerCreateInfo, context.Allocator, &sampler)); err != nil {
		shadow.Destroy(context)
		return nil, err
	}
	shadow.Sampler = sampler

	framebuffer, err := FramebufferCreate(context, context.ShadowRenderpass, size, size, []vk.ImageView{image.View})
	if err != nil {
		shadow.Destroy(context)
		return nil, err
	}
	shadow.Framebuffer = framebuffer
	return shadow, nil
}

func (vs *VulkanShadowMap) Destroy(context *VulkanContext) {
	if vs.Framebuffer != nil {
		vs.Framebuffer.Destroy(context)
		vs.Framebuffer = nil
	}
	if vs.Sampler != vk.NullSampler {
		vk.DestroySampler(context.Device.LogicalDevice, vs.Sampler, context.Allocator)
		vs.Sampler = vk.NullSampler
	}
	if vs.Image != nil {
		vs.Image.ImageDestroy(context)
		vs.Image = nil
	}
}
