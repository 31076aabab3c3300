package vulkan

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/descriptors"
	"github.com/spaghettifunk/prism/engine/renderer/frame"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"github.com/spaghettifunk/prism/engine/renderer/views"
)

const validationLayerName = "VK_LAYER_KHRONOS_validation"

/**
 * @brief The window side of the backend: the loader entry point, the
 * instance extensions the window system needs and surface creation.
 */
type SurfaceSource interface {
	GetInstanceProcAddress() unsafe.Pointer
	GetRequiredExtensionNames() []string
	CreateWindowSurface(instance interface{}) (uintptr, error)
}

// frameSlot holds what one frame in flight records and waits on.
type frameSlot struct {
	commandBuffer  *VulkanCommandBuffer
	imageAvailable vk.Semaphore
	list           *vulkanCommandList
}

type VulkanRenderer struct {
	surface SurfaceSource
	shaders ShaderSource
	config  metadata.RendererBackendConfig
	context *VulkanContext

	slots []*frameSlot
	// renderFinished is indexed by swapchain image.
	renderFinished []vk.Semaphore
	timeline       *FenceTimeline
	// recreatePending is set once the surface reported out of date.
	recreatePending bool

	uploadBuffer   *VulkanBuffer
	staticBuffers  []*VulkanBuffer
	descriptorSets *VulkanDescriptorSets
	pipelineLayout vk.PipelineLayout
	pipelines      *VulkanPipelineTable
	shadowMap      *VulkanShadowMap

	FrameNumber uint64
	debug       bool
}

func New(surface SurfaceSource, shaders ShaderSource) *VulkanRenderer {
	return &VulkanRenderer{
		surface: surface,
		shaders: shaders,
		context: &VulkanContext{
			Allocator: nil,
			locks:     NewVulkanLockPool(),
		},
	}
}

func (vr *VulkanRenderer) Initialize(config *metadata.RendererBackendConfig, width, height uint32) error {
	if config.FramesInFlight == 0 || config.SRVDescriptorCount == 0 || config.UploadBufferSize == 0 || config.ShadowMapSize == 0 {
		return fmt.Errorf("vulkan backend config %+v: %w", *config, core.ErrInvalidConfig)
	}
	vr.config = *config
	vr.debug = config.EnableValidation
	vr.context.VSync = config.VSync
	vr.context.FramebufferWidth = width
	vr.context.FramebufferHeight = height

	procAddr := vr.surface.GetInstanceProcAddress()
	if procAddr == nil {
		return fmt.Errorf("GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return fmt.Errorf("failed to initialize vk: %w", err)
	}

	if err := vr.createInstance(config.ApplicationName); err != nil {
		return err
	}

	if vr.debug {
		if err := vr.createDebugCallback(); err != nil {
			return err
		}
	}

	core.LogDebug("Creating Vulkan surface...")
	surface, err := vr.surface.CreateWindowSurface(vr.context.Instance)
	if err != nil {
		return fmt.Errorf("vulkan surface creation failed: %w", err)
	}
	vr.context.Surface = vk.SurfaceFromPointer(surface)
	core.LogDebug("Vulkan surface created.")

	vr.context.Device = &VulkanDevice{GraphicsQueueIndex: -1, PresentQueueIndex: -1}
	if err := DeviceCreate(vr.context); err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}

	sc, err := SwapchainCreate(vr.context, width, height)
	if err != nil {
		return err
	}
	vr.context.Swapchain = sc
	vr.context.FramebufferWidth = sc.Extent.Width
	vr.context.FramebufferHeight = sc.Extent.Height

	if vr.context.MainRenderpass, err = RenderpassCreate(vr.context, mainRenderpassConfig(sc.ImageFormat.Format, vr.context.Device.DepthFormat)); err != nil {
		return err
	}
	if vr.context.ShadowRenderpass, err = RenderpassCreate(vr.context, shadowRenderpassConfig(vr.context.Device.ShadowFormat)); err != nil {
		return err
	}
	if err := sc.RegenerateFramebuffers(vr.context, vr.context.MainRenderpass); err != nil {
		return err
	}

	if err := vr.createFrameSlots(config.FramesInFlight); err != nil {
		return err
	}
	if err := vr.createRenderFinishedSemaphores(); err != nil {
		return err
	}
	vr.timeline = newFenceTimeline(&deviceFenceOps{context: vr.context})

	vr.uploadBuffer, err = BufferCreate(vr.context, config.UploadBufferSize,
		vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit|vk.BufferUsageUniformBufferBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return fmt.Errorf("creating upload buffer: %w", err)
	}
	if _, err := vr.uploadBuffer.Map(vr.context); err != nil {
		return fmt.Errorf("mapping upload buffer: %w", err)
	}

	if vr.descriptorSets, err = DescriptorSetsCreate(vr.context, config.SRVDescriptorCount); err != nil {
		return err
	}
	if vr.pipelineLayout, err = PipelineLayoutCreate(vr.context, vr.descriptorSets.Layout); err != nil {
		return err
	}
	if vr.shadowMap, err = ShadowMapCreate(vr.context, config.ShadowMapSize); err != nil {
		return err
	}
	if vr.pipelines, err = BuildPipelineTable(vr.context, vr.shaders, vr.pipelineLayout); err != nil {
		return err
	}

	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

func (vr *VulkanRenderer) createInstance(appName string) error {
	// Negative viewport heights are core from 1.1.
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 1, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("Prism"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	// Obtain a list of required extensions
	requiredExtensions := []string{"VK_KHR_surface"} // Generic surface extension
	requiredExtensions = append(requiredExtensions, vr.surface.GetRequiredExtensionNames()...)

	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	var requiredLayers []string
	if vr.debug {
		present, err := instanceHasLayer(validationLayerName)
		if err != nil {
			return err
		}
		if present {
			requiredLayers = []string{validationLayerName}
			requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
			core.LogInfo("Validation layers enabled.")
		} else {
			core.LogWarn("Validation layer %s is missing, continuing without validation.", validationLayerName)
			vr.debug = false
		}
	}

	core.LogDebug("Required extensions: %v", requiredExtensions)
	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)
	createInfo.EnabledLayerCount = uint32(len(requiredLayers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(requiredLayers)

	var instance vk.Instance
	if err := vulkanError("vkCreateInstance", vk.CreateInstance(&createInfo, vr.context.Allocator, &instance)); err != nil {
		return err
	}
	vr.context.Instance = instance
	if err := vk.InitInstance(instance); err != nil {
		return err
	}
	core.LogInfo("Vulkan Instance created.")
	return nil
}

func instanceHasLayer(name string) (bool, error) {
	var count uint32
	if err := vulkanError("vkEnumerateInstanceLayerProperties", vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return false, err
	}
	available := make([]vk.LayerProperties, count)
	if count > 0 {
		if err := vulkanError("vkEnumerateInstanceLayerProperties", vk.EnumerateInstanceLayerProperties(&count, available)); err != nil {
			return false, err
		}
	}
	for i := range available {
		available[i].Deref()
		if fixedString(available[i].LayerName[:]) == name {
			return true, nil
		}
	}
	return false, nil
}

func (vr *VulkanRenderer) createDebugCallback() error {
	core.LogDebug("Creating Vulkan debugger...")
	debugCreateInfo := vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
		PfnCallback: dbgCallbackFunc,
	}
	var dbg vk.DebugReportCallback
	if err := vk.Error(vk.CreateDebugReportCallback(vr.context.Instance, &debugCreateInfo, vr.context.Allocator, &dbg)); err != nil {
		return fmt.Errorf("vk.CreateDebugReportCallback failed with %w", err)
	}
	vr.context.debugCallback = dbg
	core.LogDebug("Vulkan debugger created.")
	return nil
}

func (vr *VulkanRenderer) createFrameSlots(count uint32) error {
	vr.slots = make([]*frameSlot, count)
	for i := range vr.slots {
		cb, err := NewVulkanCommandBuffer(vr.context, vr.context.Device.GraphicsCommandPool)
		if err != nil {
			return err
		}
		semaphore, err := vr.createSemaphore()
		if err != nil {
			return err
		}
		vr.slots[i] = &frameSlot{
			commandBuffer:  cb,
			imageAvailable: semaphore,
			list:           &vulkanCommandList{backend: vr},
		}
	}
	core.LogDebug("Vulkan command buffers created.")
	return nil
}

func (vr *VulkanRenderer) createSemaphore() (vk.Semaphore, error) {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if err := vulkanError("vkCreateSemaphore", vk.CreateSemaphore(vr.context.Device.LogicalDevice, &semaphoreCreateInfo, vr.context.Allocator, &semaphore)); err != nil {
		return vk.NullSemaphore, err
	}
	return semaphore, nil
}

func (vr *VulkanRenderer) createRenderFinishedSemaphores() error {
	vr.destroyRenderFinishedSemaphores()
	vr.renderFinished = make([]vk.Semaphore, vr.context.Swapchain.ImageCount)
	for i := range vr.renderFinished {
		semaphore, err := vr.createSemaphore()
		if err != nil {
			return err
		}
		vr.renderFinished[i] = semaphore
	}
	return nil
}

func (vr *VulkanRenderer) destroyRenderFinishedSemaphores() {
	for _, s := range vr.renderFinished {
		if s != vk.NullSemaphore {
			vk.DestroySemaphore(vr.context.Device.LogicalDevice, s, vr.context.Allocator)
		}
	}
	vr.renderFinished = nil
}

func (vr *VulkanRenderer) Timeline() frame.Timeline {
	return vr.timeline
}

func (vr *VulkanRenderer) UploadMemory() ([]byte, uint64) {
	// Offsets into the upload buffer double as GPU addresses.
	return vr.uploadBuffer.Mapped, 0
}

/**
 * @brief Every heap starts at zero with a descriptor size of one, so a
 * handle is the absolute descriptor index. SRV handles select a descriptor
 * set; RTV and DSV handles only exist for bookkeeping.
 */
func (vr *VulkanRenderer) DescriptorHeaps() (srv, rtv, dsv descriptors.HeapDesc) {
	return heapDescs(&vr.config)
}

func heapDescs(config *metadata.RendererBackendConfig) (srv, rtv, dsv descriptors.HeapDesc) {
	srv = descriptors.HeapDesc{Type: descriptors.HEAP_TYPE_CBV_SRV_UAV, Count: config.SRVDescriptorCount, DescriptorSize: 1, ShaderVisible: true}
	rtv = descriptors.HeapDesc{Type: descriptors.HEAP_TYPE_RTV, Count: config.RTVDescriptorCount, DescriptorSize: 1}
	dsv = descriptors.HeapDesc{Type: descriptors.HEAP_TYPE_DSV, Count: config.DSVDescriptorCount, DescriptorSize: 1}
	return srv, rtv, dsv
}

func (vr *VulkanRenderer) CreateStaticVertexBuffer(name string, data []byte, stride uint32) (metadata.VertexBufferView, error) {
	if stride == 0 || len(data)%int(stride) != 0 {
		return metadata.VertexBufferView{}, fmt.Errorf("static buffer %s: %d bytes is not a multiple of stride %d", name, len(data), stride)
	}
	buffer, err := StaticVertexBufferCreate(vr.context, data)
	if err != nil {
		return metadata.VertexBufferView{}, fmt.Errorf("static buffer %s: %w", name, err)
	}
	vr.staticBuffers = append(vr.staticBuffers, buffer)
	core.LogDebug("static vertex buffer %s is %s", name, buffer.ID)
	return metadata.VertexBufferView{
		Static:      true,
		StaticID:    uint32(len(vr.staticBuffers) - 1),
		Stride:      stride,
		VertexCount: uint32(len(data)) / stride,
	}, nil
}

func (vr *VulkanRenderer) recreateSwapchain(width, height uint32) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("cannot recreate the swapchain at %dx%d", width, height)
	}
	if err := vulkanError("vkDeviceWaitIdle", vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)); err != nil {
		return err
	}
	sc, err := vr.context.Swapchain.SwapchainRecreate(vr.context, width, height)
	if err != nil {
		return err
	}
	vr.context.Swapchain = sc
	if err := vr.createRenderFinishedSemaphores(); err != nil {
		return err
	}
	vr.context.FramebufferWidth = sc.Extent.Width
	vr.context.FramebufferHeight = sc.Extent.Height
	vr.recreatePending = false
	return nil
}

func (vr *VulkanRenderer) Resized(width, height uint32) error {
	core.LogInfo("Vulkan renderer backend->resized: w/h: %d/%d", width, height)
	return vr.recreateSwapchain(width, height)
}

func (vr *VulkanRenderer) SetVSync(enabled bool) error {
	if vr.context.VSync == enabled {
		return nil
	}
	vr.context.VSync = enabled
	return vr.recreateSwapchain(vr.context.FramebufferWidth, vr.context.FramebufferHeight)
}

/**
 * @brief Rebuilds every pipeline from the current shader artifacts. The old
 * table stays in place when anything fails.
 */
func (vr *VulkanRenderer) ReloadPipelines() error {
	table, err := BuildPipelineTable(vr.context, vr.shaders, vr.pipelineLayout)
	if err != nil {
		return err
	}
	return vr.context.locks.SafeCall(PipelineManagement, func() error {
		if vr.pipelines != nil {
			vr.pipelines.Destroy(vr.context)
		}
		vr.pipelines = table
		return nil
	})
}

func (vr *VulkanRenderer) pipeline(variant metadata.PipelineVariant) (*VulkanPipeline, error) {
	var p *VulkanPipeline
	err := vr.context.locks.SafeCall(PipelineManagement, func() error {
		var err error
		p, err = vr.pipelines.Get(variant)
		return err
	})
	return p, err
}

func (vr *VulkanRenderer) BeginFrame(frameIndex uint32) (views.CommandList, error) {
	if int(frameIndex) >= len(vr.slots) {
		return nil, fmt.Errorf("frame index %d outside %d slots", frameIndex, len(vr.slots))
	}
	if vr.recreatePending {
		return nil, fmt.Errorf("recreate pending: %w", core.ErrSwapchainOutOfDate)
	}
	slot := vr.slots[frameIndex]

	// Acquire the next image from the swap chain. Pass along the semaphore that should signaled when this completes.
	// This same semaphore will later be waited on by the queue submission to ensure this image is available.
	imageIndex, err := vr.context.Swapchain.SwapchainAcquireNextImageIndex(vr.context, vk.MaxUint64, slot.imageAvailable, vk.NullFence)
	if errors.Is(err, core.ErrSwapchainOutOfDate) {
		vr.recreatePending = true
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	// The frame sync waited for this slot, so its buffer is no longer in use.
	if err := slot.commandBuffer.Reset(); err != nil {
		return nil, err
	}
	if err := slot.commandBuffer.Begin(true); err != nil {
		return nil, err
	}
	slot.list.begin(slot.commandBuffer, imageIndex)
	return slot.list, nil
}

func (vr *VulkanRenderer) EndFrame(frameIndex uint32) error {
	if int(frameIndex) >= len(vr.slots) {
		return fmt.Errorf("frame index %d outside %d slots", frameIndex, len(vr.slots))
	}
	slot := vr.slots[frameIndex]
	list := slot.list
	commandBuffer := slot.commandBuffer

	if list.activePass != nil {
		list.fail(fmt.Errorf("render pass %s left open: %w", list.activePass.Name, core.ErrPassOrder))
		list.activePass.RenderpassEnd(commandBuffer)
		list.activePass = nil
	}
	if err := commandBuffer.End(); err != nil {
		return err
	}

	renderFinished := vr.renderFinished[list.imageIndex]
	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{slot.imageAvailable},
		// Colour writes wait for the image; the shadow pass does not.
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{commandBuffer.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{renderFinished},
	}
	// Completion is published by the timeline signal queued behind this submission.
	if err := vr.context.locks.SafeCall(QueueManagement, func() error {
		return vulkanError("vkQueueSubmit", vk.QueueSubmit(vr.context.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence))
	}); err != nil {
		return err
	}
	commandBuffer.UpdateSubmitted()
	vr.FrameNumber++

	// Give the image back to the swapchain.
	if err := vr.context.Swapchain.SwapchainPresent(vr.context, vr.context.Device.PresentQueue, renderFinished, list.imageIndex); err != nil {
		return err
	}
	return list.err
}

func (vr *VulkanRenderer) Shutdown() error {
	context := vr.context
	if context.Instance == nil {
		return nil
	}
	if context.Device != nil && context.Device.LogicalDevice != nil {
		vr.destroyDeviceObjects()
	}

	core.LogDebug("Destroying Vulkan surface...")
	if context.Surface != vk.NullSurface {
		vk.DestroySurface(context.Instance, context.Surface, context.Allocator)
		context.Surface = vk.NullSurface
	}

	if context.debugCallback != vk.NullDebugReportCallback {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(context.Instance, context.debugCallback, context.Allocator)
		context.debugCallback = vk.NullDebugReportCallback
	}

	core.LogDebug("Destroying Vulkan instance...")
	vk.DestroyInstance(context.Instance, context.Allocator)
	context.Instance = nil
	return nil
}

// destroyDeviceObjects releases everything created from the logical device, then the device.
func (vr *VulkanRenderer) destroyDeviceObjects() {
	context := vr.context
	vk.DeviceWaitIdle(context.Device.LogicalDevice)

	// Destroy in the opposite order of creation.
	if vr.pipelines != nil {
		vr.pipelines.Destroy(context)
		vr.pipelines = nil
	}
	if vr.shadowMap != nil {
		vr.shadowMap.Destroy(context)
		vr.shadowMap = nil
	}
	if vr.pipelineLayout != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(context.Device.LogicalDevice, vr.pipelineLayout, context.Allocator)
		vr.pipelineLayout = vk.NullPipelineLayout
	}
	if vr.descriptorSets != nil {
		vr.descriptorSets.Destroy(context)
		vr.descriptorSets = nil
	}
	for _, b := range vr.staticBuffers {
		b.Destroy(context)
	}
	vr.staticBuffers = nil
	if vr.uploadBuffer != nil {
		vr.uploadBuffer.Destroy(context)
		vr.uploadBuffer = nil
	}

	// Sync objects
	if vr.timeline != nil {
		vr.timeline.Destroy()
		vr.timeline = nil
	}
	vr.destroyRenderFinishedSemaphores()
	for _, slot := range vr.slots {
		if slot == nil {
			continue
		}
		if slot.imageAvailable != vk.NullSemaphore {
			vk.DestroySemaphore(context.Device.LogicalDevice, slot.imageAvailable, context.Allocator)
		}
		slot.commandBuffer.Free(context, context.Device.GraphicsCommandPool)
	}
	vr.slots = nil

	if context.ShadowRenderpass != nil {
		context.ShadowRenderpass.RenderpassDestroy(context)
		context.ShadowRenderpass = nil
	}
	if context.Swapchain != nil {
		context.Swapchain.SwapchainDestroy(context)
		context.Swapchain = nil
	}
	if context.MainRenderpass != nil {
		context.MainRenderpass.RenderpassDestroy(context)
		context.MainRenderpass = nil
	}

	core.LogDebug("Destroying Vulkan device...")
	DeviceDestroy(context)
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
		core.LogDebug("DEBUG: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogInfo("INFORMATION: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
