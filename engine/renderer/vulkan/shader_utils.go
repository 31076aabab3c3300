package vulkan

import (
	"encoding/binary"
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
)

const spirvMagic uint32 = 0x07230203

/**
 * @brief Supplies compiled SPIR-V by shader name, e.g. "lit.vert". The
 * backend never touches the filesystem itself.
 */
type ShaderSource interface {
	Load(name string) ([]byte, error)
}

/**
 * @brief Represents a single shader stage.
 */
type VulkanShaderStage struct {
	/** @brief The internal shader module Handle. */
	Handle vk.ShaderModule
	/** @brief The pipeline shader stage creation info. */
	ShaderStageCreateInfo vk.PipelineShaderStageCreateInfo
}

// decodeSPIRV checks the magic number and returns the code as words.
func decodeSPIRV(name string, data []byte) ([]uint32, error) {
	if len(data) < 4 || len(data)%4 != 0 {
		return nil, fmt.Errorf("%s: %d bytes is not a whole number of SPIR-V words: %w", name, len(data), core.ErrShaderArtifact)
	}
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	if words[0] != spirvMagic {
		return nil, fmt.Errorf("%s: bad SPIR-V magic %#08x: %w", name, words[0], core.ErrShaderArtifact)
	}
	return words, nil
}

func NewShaderModule(context *VulkanContext, source ShaderSource, name string, stage vk.ShaderStageFlagBits) (*VulkanShaderStage, error) {
	data, err := source.Load(name)
	if err != nil {
		return nil, fmt.Errorf("loading shader %s: %w: %w", name, err, core.ErrShaderArtifact)
	}
	code, err := decodeSPIRV(name, data)
	if err != nil {
		return nil, err
	}

	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(data)),
		PCode:    code,
	}

	shaderStage := &VulkanShaderStage{}
	var handle vk.ShaderModule
	if err := vulkanError("vkCreateShaderModule", vk.CreateShaderModule(context.Device.LogicalDevice, &createInfo, context.Allocator, &handle)); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", name, err, core.ErrShaderArtifact)
	}
	shaderStage.Handle = handle

	// Shader stage info
	shaderStage.ShaderStageCreateInfo = vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  stage,
		Module: handle,
		PName:  VulkanSafeString("main"),
	}
	return shaderStage, nil
}

func (s *VulkanShaderStage) Destroy(context *VulkanContext) {
	if s.Handle != vk.NullShaderModule {
		vk.DestroyShaderModule(context.Device.LogicalDevice, s.Handle, context.Allocator)
		s.Handle = vk.NullShaderModule
	}
}
