package platform

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/prism/engine/core"
)

// WHEEL_DELTA is the wheel distance of one notch, so one scroll step reads like a classic mouse wheel.
const WHEEL_DELTA float32 = 120

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

/**
 * @brief Receives translated window input. The engine hands its renderer
 * to the platform as one of these; the platform never owns it.
 */
type InputHandler interface {
	OnKeyDown(key core.KeyCode)
	OnKeyUp(key core.KeyCode)
	OnMouseMove(x, y int32, leftDown, rightDown bool)
	OnMouseWheel(delta float32)
}

// ResizeHandler receives framebuffer sizes in pixels. Zero means minimized.
type ResizeHandler func(width, height uint32)

type Platform struct {
	Window *glfw.Window

	input    InputHandler
	onResize ResizeHandler
}

func New() *Platform {
	return &Platform{}
}

func (p *Platform) Startup(applicationName string, width uint32, height uint32) error {
	if err := glfw.Init(); err != nil {
		core.LogError("failed to initialize glfw: %s", err)
		return err
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return fmt.Errorf("glfw reports no vulkan loader on this system")
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		core.LogError("failed to create window: %s", err)
		glfw.Terminate()
		return err
	}
	p.Window = window

	p.Window.SetKeyCallback(p.keyCallback)
	p.Window.SetCursorPosCallback(p.cursorPosCallback)
	p.Window.SetScrollCallback(p.scrollCallback)
	p.Window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	p.Window.Show()
	return nil
}

func (p *Platform) Shutdown() error {
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
	return nil
}

// SetInputHandler routes keyboard and mouse input. A nil handler drops it.
func (p *Platform) SetInputHandler(h InputHandler) {
	p.input = h
}

func (p *Platform) SetResizeHandler(fn ResizeHandler) {
	p.onResize = fn
}

// PumpMessages dispatches pending window events and reports whether the window is still open.
func (p *Platform) PumpMessages() bool {
	glfw.PollEvents()
	return !p.Window.ShouldClose()
}

// WaitMessages blocks until an event arrives. Used while minimized.
func (p *Platform) WaitMessages() bool {
	glfw.WaitEvents()
	return !p.Window.ShouldClose()
}

// Wake unblocks WaitMessages. Safe from any goroutine.
func (p *Platform) Wake() {
	glfw.PostEmptyEvent()
}

func (p *Platform) SetTitle(title string) {
	p.Window.SetTitle(title)
}

func (p *Platform) FramebufferSize() (uint32, uint32) {
	w, h := p.Window.GetFramebufferSize()
	return uint32(max(w, 0)), uint32(max(h, 0))
}

func (p *Platform) GetInstanceProcAddress() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

func (p *Platform) GetRequiredExtensionNames() []string {
	return p.Window.GetRequiredInstanceExtensions()
}

// CreateWindowSurface returns the raw VkSurfaceKHR handle for instance.
func (p *Platform) CreateWindowSurface(instance interface{}) (uintptr, error) {
	surface, err := p.Window.CreateWindowSurface(instance, nil)
	if err != nil {
		return 0, fmt.Errorf("creating window surface: %w", err)
	}
	return surface, nil
}

func (p *Platform) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	code, ok := TranslateKey(key)
	if !ok {
		return
	}
	// Repeats are delivered as presses, the same way held keys auto repeat on Windows.
	if action == glfw.Press || action == glfw.Repeat {
		if p.input != nil {
			p.input.OnKeyDown(code)
		}
		if code == core.KEY_ESCAPE {
			w.SetShouldClose(true)
		}
		return
	}
	if p.input != nil {
		p.input.OnKeyUp(code)
	}
}

func (p *Platform) cursorPosCallback(w *glfw.Window, xpos, ypos float64) {
	if p.input == nil {
		return
	}
	left := w.GetMouseButton(glfw.MouseButtonLeft) == glfw.Press
	right := w.GetMouseButton(glfw.MouseButtonRight) == glfw.Press
	p.input.OnMouseMove(int32(xpos), int32(ypos), left, right)
}

func (p *Platform) scrollCallback(w *glfw.Window, xoff, yoff float64) {
	if p.input == nil || yoff == 0 {
		return
	}
	p.input.OnMouseWheel(float32(yoff) * WHEEL_DELTA)
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	if p.onResize != nil {
		p.onResize(uint32(max(width, 0)), uint32(max(height, 0)))
	}
}
