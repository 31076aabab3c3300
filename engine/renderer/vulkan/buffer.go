package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
)

type VulkanBuffer struct {
	ID     core.ResourceID
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Size   uint64
	Usage  vk.BufferUsageFlags
	// Mapped is set for host visible buffers kept mapped for their lifetime.
	Mapped []byte
}

func BufferCreate(context *VulkanContext, size uint64, usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags) (*VulkanBuffer, error) {
	outBuffer := &VulkanBuffer{ID: core.NewResourceID("buffer"), Size: size, Usage: usage}

	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	var handle vk.Buffer
	if err := vulkanError("vkCreateBuffer", vk.CreateBuffer(context.Device.LogicalDevice, &bufferCreateInfo, context.Allocator, &handle)); err != nil {
		return nil, err
	}
	outBuffer.Handle = handle

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, handle, &requirements)
	requirements.Deref()

	memoryType, err := context.FindMemoryIndex(requirements.MemoryTypeBits, properties)
	if err != nil {
		outBuffer.Destroy(context)
		return nil, fmt.Errorf("buffer memory: %w", err)
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryType,
	}
	var memory vk.DeviceMemory
	if err := vulkanError("vkAllocateMemory", vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &memory)); err != nil {
		outBuffer.Destroy(context)
		return nil, err
	}
	outBuffer.Memory = memory

	if err := vulkanError("vkBindBufferMemory", vk.BindBufferMemory(context.Device.LogicalDevice, handle, memory, 0)); err != nil {
		outBuffer.Destroy(context)
		return nil, err
	}
	core.LogDebug("created %s: %d bytes", outBuffer.ID, size)
	return outBuffer, nil
}

// Map maps the whole buffer. The memory must be host visible and coherent.
func (vb *VulkanBuffer) Map(context *VulkanContext) ([]byte, error) {
	if vb.Mapped != nil {
		return vb.Mapped, nil
	}
	var data unsafe.Pointer
	if err := vulkanError("vkMapMemory", vk.MapMemory(context.Device.LogicalDevice, vb.Memory, 0, vk.DeviceSize(vb.Size), 0, &data)); err != nil {
		return nil, err
	}
	vb.Mapped = unsafe.Slice((*byte)(data), vb.Size)
	return vb.Mapped, nil
}

func (vb *VulkanBuffer) Unmap(context *VulkanContext) {
	if vb.Mapped != nil {
		vk.UnmapMemory(context.Device.LogicalDevice, vb.Memory)
		vb.Mapped = nil
	}
}

func (vb *VulkanBuffer) Destroy(context *VulkanContext) {
	vb.Unmap(context)
	if vb.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(context.Device.LogicalDevice, vb.Memory, context.Allocator)
		vb.Memory = vk.NullDeviceMemory
	}
	if vb.Handle != vk.NullBuffer {
		vk.DestroyBuffer(context.Device.LogicalDevice, vb.Handle, context.Allocator)
		vb.Handle = vk.NullBuffer
	}
	vb.Size = 0
}

/**
 * @brief Copies size bytes from src to dst and waits for the copy to finish.
 */
func BufferCopy(context *VulkanContext, src, dst *VulkanBuffer, size uint64) error {
	region := vk.BufferCopy{Size: vk.DeviceSize(size)}
	return SubmitOnce(context, context.Device.GraphicsCommandPool, context.Device.GraphicsQueue, func(cb *VulkanCommandBuffer) {
		vk.CmdCopyBuffer(cb.Handle, src.Handle, dst.Handle, 1, []vk.BufferCopy{region})
	})
}

/**
 * @brief Creates a device local vertex buffer holding data, uploaded through
 * a temporary staging buffer.
 */
func StaticVertexBufferCreate(context *VulkanContext, data []byte) (*VulkanBuffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("static vertex buffer needs data")
	}
	size := uint64(len(data))

	staging, err := BufferCreate(context, size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return nil, err
	}
	defer staging.Destroy(context)

	mapped, err := staging.Map(context)
	if err != nil {
		return nil, err
	}
	copy(mapped, data)
	staging.Unmap(context)

	buffer, err := BufferCreate(context, size,
		vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit|vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, err
	}
	if err := BufferCopy(context, staging, buffer, size); err != nil {
		buffer.Destroy(context)
		return nil, err
	}
	return buffer, nil
}
