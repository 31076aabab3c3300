package renderer

import (
	"github.com/spaghettifunk/prism/engine/renderer/descriptors"
	"github.com/spaghettifunk/prism/engine/renderer/frame"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"github.com/spaghettifunk/prism/engine/renderer/views"
)

/**
 * @brief The GPU side of the renderer. The Renderer owns pacing, transient
 * memory and pass ordering; a backend owns device objects and turns the
 * recorded commands into API calls.
 */
type RendererBackend interface {
	// Initialize creates the device, swapchain, heaps, upload buffer and pipelines.
	Initialize(config *metadata.RendererBackendConfig, width, height uint32) error
	Shutdown() error

	// Timeline is the fence counter the frame sync paces against.
	Timeline() frame.Timeline
	// UploadMemory returns the persistently mapped upload ring and its GPU base address.
	UploadMemory() ([]byte, uint64)
	// DescriptorHeaps describes the SRV, RTV and DSV heaps the descriptor system slices.
	DescriptorHeaps() (srv, rtv, dsv descriptors.HeapDesc)
	// CreateStaticVertexBuffer uploads data once into device memory.
	CreateStaticVertexBuffer(name string, data []byte, stride uint32) (metadata.VertexBufferView, error)

	// Resized recreates size dependent objects. The GPU is idle when called.
	Resized(width, height uint32) error
	// SetVSync switches the present mode. The GPU is idle when called.
	SetVSync(enabled bool) error
	// ReloadPipelines rebuilds every pipeline variant from the shader artifacts.
	// The GPU is idle when called.
	ReloadPipelines() error

	// BeginFrame readies the command list of frameIndex and acquires a back buffer.
	// It returns core.ErrSwapchainOutOfDate when the swapchain must be recreated first.
	BeginFrame(frameIndex uint32) (views.CommandList, error)
	// EndFrame submits the recorded commands and presents.
	EndFrame(frameIndex uint32) error
}
