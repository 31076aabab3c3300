package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

const (
	/** @brief Binding of the SceneConstants uniform block. */
	BINDING_SCENE_CONSTANTS uint32 = 0
	/** @brief Binding of the shadow map comparison sampler. */
	BINDING_SHADOW_MAP uint32 = 1
)

/**
 * @brief One descriptor set per shader visible descriptor slot. A draw's
 * constants handle picks the set it writes and binds, so a set is only
 * rewritten once the frame that last used it has retired.
 */
type VulkanDescriptorSets struct {
	Layout vk.DescriptorSetLayout
	Pool   vk.DescriptorPool
	Sets   []vk.DescriptorSet
}

func setLayoutBindings() []vk.DescriptorSetLayoutBinding {
	return []vk.DescriptorSetLayoutBinding{
		{
			Binding:         BINDING_SCENE_CONSTANTS,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit),
		},
		{
			Binding:         BINDING_SHADOW_MAP,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		},
	}
}

func DescriptorSetsCreate(context *VulkanContext, count uint32) (*VulkanDescriptorSets, error) {
	if count == 0 {
		return nil, fmt.Errorf("descriptor set count must be positive")
	}
	out := &VulkanDescriptorSets{}

	bindings := setLayoutBindings()
	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	var layout vk.DescriptorSetLayout
	if err := vulkanError("vkCreateDescriptorSetLayout", vk.CreateDescriptorSetLayout(context.Device.LogicalDevice, &layoutInfo, context.Allocator, &layout)); err != nil {
		return nil, err
	}
	out.Layout = layout

	poolSizes := []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: count},
		{Type: vk.DescriptorTypeCombinedImageSampler, DescriptorCount: count},
	}
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       count,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}
	var pool vk.DescriptorPool
	if err := vulkanError("vkCreateDescriptorPool", vk.CreateDescriptorPool(context.Device.LogicalDevice, &poolInfo, context.Allocator, &pool)); err != nil {
		out.Destroy(context)
		return nil, err
	}
	out.Pool = pool

	layouts := make([]vk.DescriptorSetLayout, count)
	for i := range layouts {
		layouts[i] = layout
	}
	allocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: count,
		PSetLayouts:        layouts,
	}
	out.Sets = make([]vk.DescriptorSet, count)
	if err := vulkanError("vkAllocateDescriptorSets", vk.AllocateDescriptorSets(context.Device.LogicalDevice, &allocateInfo, &out.Sets[0])); err != nil {
		out.Destroy(context)
		return nil, err
	}
	return out, nil
}

/**
 * @brief Points set index at a SceneConstants record in the upload buffer
 * and, for lit pipelines, at the shadow map.
 */
func (ds *VulkanDescriptorSets) Write(context *VulkanContext, index uint64, variant metadata.PipelineVariant, uniform vk.Buffer, offset uint64, shadow *VulkanShadowMap) (vk.DescriptorSet, error) {
	if index >= uint64(len(ds.Sets)) {
		return vk.NullDescriptorSet, fmt.Errorf("descriptor handle %d outside the %d allocated sets", index, len(ds.Sets))
	}
	set := ds.Sets[index]

	writes := []vk.WriteDescriptorSet{
		{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      BINDING_SCENE_CONSTANTS,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			PBufferInfo: []vk.DescriptorBufferInfo{{
				Buffer: uniform,
				Offset: vk.DeviceSize(offset),
				Range:  vk.DeviceSize(metadata.SCENE_CONSTANTS_SIZE),
			}},
		},
	}
	if variant == metadata.PIPELINE_TRIANGLE_LIT && shadow != nil {
		writes = append(writes, vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      BINDING_SHADOW_MAP,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			PImageInfo: []vk.DescriptorImageInfo{{
				Sampler:     shadow.Sampler,
				ImageView:   shadow.Image.View,
				ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
			}},
		})
	}
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, uint32(len(writes)), writes, 0, nil)
	return set, nil
}

func (ds *VulkanDescriptorSets) Destroy(context *VulkanContext) {
	// Sets go with the pool.
	if ds.Pool != vk.NullDescriptorPool {
		vk.DestroyDescriptorPool(context.Device.LogicalDevice, ds.Pool, context.Allocator)
		ds.Pool = vk.NullDescriptorPool
	}
	ds.Sets = nil
	if ds.Layout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(context.Device.LogicalDevice, ds.Layout, context.Allocator)
		ds.Layout = vk.NullDescriptorSetLayout
	}
}
