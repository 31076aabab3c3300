package vulkan

import (
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/descriptors"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// fakeFenceOps completes a fence only when the test or a wait says so.
type fakeFenceOps struct {
	queued     map[int]bool
	finished   map[int]bool
	created    int
	resets     int
	failSignal error
}

func newFakeFenceOps() *fakeFenceOps {
	return &fakeFenceOps{queued: map[int]bool{}, finished: map[int]bool{}}
}

func (f *fakeFenceOps) create() (int, error) {
	f.created++
	return f.created - 1, nil
}

func (f *fakeFenceOps) signal(id int) error {
	if f.failSignal != nil {
		return f.failSignal
	}
	f.queued[id] = true
	return nil
}

func (f *fakeFenceOps) done(id int) (bool, error) { return f.finished[id], nil }

func (f *fakeFenceOps) wait(id int) error {
	f.finished[id] = true
	return nil
}

func (f *fakeFenceOps) reset(id int) error {
	f.resets++
	f.queued[id] = false
	f.finished[id] = false
	return nil
}

func (f *fakeFenceOps) destroy(id int) {}

func newTestTimeline() (*FenceTimeline, *fakeFenceOps) {
	ops := newFakeFenceOps()
	return newFenceTimeline(ops), ops
}

func TestFenceTimelineCompletesInOrder(t *testing.T) {
	tl, ops := newTestTimeline()
	if err := tl.Signal(1); err != nil {
		t.Fatal(err)
	}
	if err := tl.Signal(2); err != nil {
		t.Fatal(err)
	}
	if got := tl.Completed(); got != 0 {
		t.Fatalf("nothing finished yet, got completed %d", got)
	}

	ops.finished[0] = true
	if got := tl.Completed(); got != 1 {
		t.Fatalf("completed = %d, want 1", got)
	}
	// A later fence finishing alone does not skip the earlier value.
	tl2, ops2 := newTestTimeline()
	_ = tl2.Signal(1)
	_ = tl2.Signal(2)
	ops2.finished[1] = true
	if got := tl2.Completed(); got != 0 {
		t.Fatalf("completed = %d, want 0 while value 1 is pending", got)
	}
}

func TestFenceTimelineWaitRetiresEarlierFences(t *testing.T) {
	tl, ops := newTestTimeline()
	for v := uint64(1); v <= 3; v++ {
		if err := tl.Signal(v); err != nil {
			t.Fatal(err)
		}
	}
	if err := tl.Wait(2); err != nil {
		t.Fatal(err)
	}
	if got := tl.Completed(); got != 2 {
		t.Fatalf("completed = %d, want 2", got)
	}
	if ops.resets != 2 {
		t.Fatalf("resets = %d, want 2", ops.resets)
	}

	// Retired fences are reused before new ones are created.
	if err := tl.Signal(4); err != nil {
		t.Fatal(err)
	}
	if err := tl.Signal(5); err != nil {
		t.Fatal(err)
	}
	if ops.created != 3 {
		t.Fatalf("created %d fences, want 3", ops.created)
	}
}

func TestFenceTimelineWaitBetweenValues(t *testing.T) {
	tl, _ := newTestTimeline()
	_ = tl.Signal(5)
	_ = tl.Signal(9)
	// 7 is covered by the fence carrying 9.
	if err := tl.Wait(7); err != nil {
		t.Fatal(err)
	}
	if got := tl.Completed(); got != 9 {
		t.Fatalf("completed = %d, want 9", got)
	}
	if err := tl.Wait(3); err != nil {
		t.Fatalf("waiting on a completed value: %s", err)
	}
}

func TestFenceTimelineRejectsBadValues(t *testing.T) {
	tl, ops := newTestTimeline()
	if err := tl.Wait(1); err == nil {
		t.Fatal("waiting on a value never signalled should fail")
	}
	_ = tl.Signal(2)
	if err := tl.Signal(2); err == nil {
		t.Fatal("signalling the same value twice should fail")
	}

	ops.failSignal = errors.New("queue gone")
	if err := tl.Signal(3); err == nil {
		t.Fatal("signal failure not reported")
	}
	ops.failSignal = nil
	if err := tl.Signal(3); err != nil {
		t.Fatal(err)
	}
	if ops.created != 2 {
		t.Fatalf("failed signal leaked a fence: created %d", ops.created)
	}
}

func spirv(words ...uint32) []byte {
	out := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

func TestDecodeSPIRV(t *testing.T) {
	code, err := decodeSPIRV("lit.vert", spirv(spirvMagic, 0x00010000, 7))
	if err != nil {
		t.Fatal(err)
	}
	if len(code) != 3 || code[2] != 7 {
		t.Fatalf("decoded %v", code)
	}

	cases := map[string][]byte{
		"empty":     nil,
		"ragged":    {0x03, 0x02, 0x23, 0x07, 0x00},
		"bad magic": spirv(0xdeadbeef, 1),
	}
	for name, data := range cases {
		if _, err := decodeSPIRV(name, data); !errors.Is(err, core.ErrShaderArtifact) {
			t.Errorf("%s: err = %v, want ErrShaderArtifact", name, err)
		}
	}
}

func TestVulkanErrorClassification(t *testing.T) {
	if err := vulkanError("call", vk.Success); err != nil {
		t.Fatalf("success produced %v", err)
	}
	if err := vulkanError("call", vk.Suboptimal); err != nil {
		t.Fatalf("suboptimal is a success code, got %v", err)
	}
	if err := vulkanError("present", vk.ErrorOutOfDate); !errors.Is(err, core.ErrSwapchainOutOfDate) {
		t.Fatalf("out of date: %v", err)
	}
	if err := vulkanError("submit", vk.ErrorDeviceLost); !errors.Is(err, core.ErrDeviceLost) {
		t.Fatalf("device lost: %v", err)
	}
	err := vulkanError("alloc", vk.ErrorOutOfDeviceMemory)
	if err == nil || errors.Is(err, core.ErrDeviceLost) || errors.Is(err, core.ErrSwapchainOutOfDate) {
		t.Fatalf("out of memory: %v", err)
	}
	if got := VulkanResultString(vk.Result(-12345)); got != "VkResult(-12345)" {
		t.Fatalf("unknown result string %q", got)
	}
}

func TestChoosePresentMode(t *testing.T) {
	all := []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeImmediate, vk.PresentModeMailbox}
	if got := choosePresentMode(all, true); got != vk.PresentModeFifo {
		t.Errorf("vsync picked %d", got)
	}
	if got := choosePresentMode(all, false); got != vk.PresentModeMailbox {
		t.Errorf("no vsync picked %d, want mailbox", got)
	}
	if got := choosePresentMode([]vk.PresentMode{vk.PresentModeFifo, vk.PresentModeImmediate}, false); got != vk.PresentModeImmediate {
		t.Errorf("no mailbox picked %d, want immediate", got)
	}
	if got := choosePresentMode([]vk.PresentMode{vk.PresentModeFifo}, false); got != vk.PresentModeFifo {
		t.Errorf("fifo only picked %d", got)
	}
}

func TestChooseSurfaceFormat(t *testing.T) {
	preferred := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	other := vk.SurfaceFormat{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	if got := chooseSurfaceFormat([]vk.SurfaceFormat{other, preferred}); got.Format != preferred.Format {
		t.Errorf("picked %d, want BGRA", got.Format)
	}
	if got := chooseSurfaceFormat([]vk.SurfaceFormat{other}); got.Format != other.Format {
		t.Errorf("fallback picked %d", got.Format)
	}
}

func TestChooseExtentAndImageCount(t *testing.T) {
	caps := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: 1024, Height: 768},
		MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
		MinImageCount:  2,
		MaxImageCount:  3,
	}
	if got := chooseExtent(caps, 10, 10); got.Width != 1024 || got.Height != 768 {
		t.Errorf("fixed surface extent ignored: %+v", got)
	}

	caps.CurrentExtent = vk.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32}
	if got := chooseExtent(caps, 8000, 600); got.Width != 4096 || got.Height != 600 {
		t.Errorf("clamped extent %+v", got)
	}

	if got := chooseImageCount(caps); got != 3 {
		t.Errorf("image count %d, want 3", got)
	}
	caps.MaxImageCount = 2
	if got := chooseImageCount(caps); got != 2 {
		t.Errorf("image count %d, want capped 2", got)
	}
	caps.MaxImageCount = 0
	if got := chooseImageCount(caps); got != 3 {
		t.Errorf("unbounded image count %d, want 3", got)
	}
}

func TestUsageForState(t *testing.T) {
	cases := []struct {
		state  metadata.ResourceState
		layout vk.ImageLayout
	}{
		{metadata.RESOURCE_STATE_UNINITIALIZED, vk.ImageLayoutUndefined},
		{metadata.RESOURCE_STATE_DEPTH_WRITE, vk.ImageLayoutDepthStencilAttachmentOptimal},
		{metadata.RESOURCE_STATE_SHADER_READ, vk.ImageLayoutShaderReadOnlyOptimal},
	}
	for _, c := range cases {
		if got := usageForState(c.state).Layout; got != c.layout {
			t.Errorf("%s: layout %d, want %d", c.state, got, c.layout)
		}
	}
	read := usageForState(metadata.RESOURCE_STATE_SHADER_READ)
	if read.Access != vk.AccessFlags(vk.AccessShaderReadBit) || read.Stage != vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit) {
		t.Errorf("shader read usage %+v", read)
	}

	image := &VulkanImage{Aspect: vk.ImageAspectFlags(vk.ImageAspectDepthBit)}
	barrier, src, dst := image.transitionBarrier(metadata.RESOURCE_STATE_DEPTH_WRITE, metadata.RESOURCE_STATE_SHADER_READ)
	if barrier.OldLayout != vk.ImageLayoutDepthStencilAttachmentOptimal || barrier.NewLayout != vk.ImageLayoutShaderReadOnlyOptimal {
		t.Errorf("barrier layouts %d -> %d", barrier.OldLayout, barrier.NewLayout)
	}
	if src != usageForState(metadata.RESOURCE_STATE_DEPTH_WRITE).Stage || dst != read.Stage {
		t.Errorf("barrier stages %d -> %d", src, dst)
	}
	if barrier.SubresourceRange.AspectMask != image.Aspect {
		t.Errorf("barrier aspect %d", barrier.SubresourceRange.AspectMask)
	}
}

func TestPipelineStateMapping(t *testing.T) {
	if vkCompareOp(metadata.COMPARE_LESS_EQUAL) != vk.CompareOpLessOrEqual || vkCompareOp(metadata.COMPARE_ALWAYS) != vk.CompareOpAlways {
		t.Error("compare op mapping")
	}
	if vkTopology(metadata.TOPOLOGY_LINE_LIST) != vk.PrimitiveTopologyLineList || vkTopology(metadata.TOPOLOGY_TRIANGLE_LIST) != vk.PrimitiveTopologyTriangleList {
		t.Error("topology mapping")
	}
	if vkCullMode(metadata.FaceCullModeNone) != vk.CullModeFlags(vk.CullModeNone) {
		t.Error("cull mapping")
	}
	if vkAttributeFormat(metadata.ATTRIBUTE_FORMAT_FLOAT32x2) != vk.FormatR32g32Sfloat {
		t.Error("attribute format mapping")
	}

	attributes := vertexAttributes(metadata.InputLayoutPNC)
	if len(attributes) != 3 {
		t.Fatalf("%d attributes", len(attributes))
	}
	for i, a := range attributes {
		if a.Location != uint32(i) || a.Offset != uint32(12*i) || a.Format != vk.FormatR32g32b32Sfloat || a.Binding != 0 {
			t.Errorf("attribute %d: %+v", i, a)
		}
	}
}

func TestShaderStageFor(t *testing.T) {
	for _, name := range metadata.ShaderArtifacts() {
		want := vk.ShaderStageVertexBit
		if name == metadata.SHADER_LIT_FRAGMENT || name == metadata.SHADER_BASIC_FRAGMENT {
			want = vk.ShaderStageFragmentBit
		}
		if got := shaderStageFor(name); got != want {
			t.Errorf("%s: stage %d, want %d", name, got, want)
		}
	}
}

func TestViewportIsFlipped(t *testing.T) {
	v := vkViewport(metadata.NewViewport(800, 600))
	if v.Y != 600 || v.Height != -600 || v.Width != 800 || v.MaxDepth != 1 {
		t.Fatalf("viewport %+v", v)
	}
	s := vkScissor(metadata.Rect{Left: 10, Top: 20, Right: 110, Bottom: 70})
	if s.Offset.X != 10 || s.Offset.Y != 20 || s.Extent.Width != 100 || s.Extent.Height != 50 {
		t.Fatalf("scissor %+v", s)
	}
}

func TestLineWidthFor(t *testing.T) {
	line := metadata.PipelineDescFor(metadata.PIPELINE_LINE_UNLIT)
	lit := metadata.PipelineDescFor(metadata.PIPELINE_TRIANGLE_LIT)
	call := &metadata.DrawCall{LineWidth: 3}

	if got := lineWidthFor(call, &line, true, 8); got != 3 {
		t.Errorf("wide lines: %v", got)
	}
	if got := lineWidthFor(call, &line, false, 1); got != 1 {
		t.Errorf("without wide lines: %v", got)
	}
	if got := lineWidthFor(call, &line, true, 2); got != 2 {
		t.Errorf("over the device maximum: %v", got)
	}
	if got := lineWidthFor(call, &lit, true, 8); got != 1 {
		t.Errorf("triangles: %v", got)
	}
	if got := lineWidthFor(&metadata.DrawCall{}, &line, true, 8); got != 1 {
		t.Errorf("unset width: %v", got)
	}
}

func TestRenderpassAttachments(t *testing.T) {
	main := mainRenderpassConfig(vk.FormatB8g8r8a8Unorm, vk.FormatD32Sfloat)
	attachments := renderpassAttachments(&main)
	if len(attachments) != 2 {
		t.Fatalf("main pass has %d attachments", len(attachments))
	}
	if attachments[0].LoadOp != vk.AttachmentLoadOpClear || attachments[0].FinalLayout != vk.ImageLayoutPresentSrc {
		t.Errorf("colour attachment %+v", attachments[0])
	}
	if attachments[1].StoreOp != vk.AttachmentStoreOpDontCare {
		t.Errorf("scene depth should not be stored")
	}

	shadow := shadowRenderpassConfig(vk.FormatD32Sfloat)
	attachments = renderpassAttachments(&shadow)
	if len(attachments) != 1 {
		t.Fatalf("shadow pass has %d attachments", len(attachments))
	}
	depth := attachments[0]
	if depth.StoreOp != vk.AttachmentStoreOpStore || depth.LoadOp != vk.AttachmentLoadOpClear {
		t.Errorf("shadow depth ops %d/%d", depth.LoadOp, depth.StoreOp)
	}
	if depth.InitialLayout != vk.ImageLayoutDepthStencilAttachmentOptimal || depth.FinalLayout != vk.ImageLayoutDepthStencilAttachmentOptimal {
		t.Errorf("shadow layouts %d -> %d", depth.InitialLayout, depth.FinalLayout)
	}

	if loadOp(false, vk.ImageLayoutUndefined) != vk.AttachmentLoadOpDontCare || loadOp(false, vk.ImageLayoutDepthStencilAttachmentOptimal) != vk.AttachmentLoadOpLoad {
		t.Error("load op without clear")
	}
}

func TestHeapDescs(t *testing.T) {
	cfg := &metadata.RendererBackendConfig{SRVDescriptorCount: 3000, RTVDescriptorCount: 6, DSVDescriptorCount: 6}
	srv, rtv, dsv := heapDescs(cfg)
	if srv.Type != descriptors.HEAP_TYPE_CBV_SRV_UAV || !srv.ShaderVisible || srv.Count != 3000 || srv.DescriptorSize != 1 {
		t.Errorf("srv %+v", srv)
	}
	if rtv.Type != descriptors.HEAP_TYPE_RTV || rtv.ShaderVisible || rtv.Count != 6 {
		t.Errorf("rtv %+v", rtv)
	}
	if dsv.Type != descriptors.HEAP_TYPE_DSV || dsv.Count != 6 {
		t.Errorf("dsv %+v", dsv)
	}
}

func TestLockPoolSerializes(t *testing.T) {
	pool := NewVulkanLockPool()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pool.SafeCall(QueueManagement, func() error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()
	if counter != 32 {
		t.Fatalf("counter = %d", counter)
	}

	want := errors.New("boom")
	if err := pool.SafeCall(PipelineManagement, func() error { return want }); !errors.Is(err, want) {
		t.Fatalf("SafeCall returned %v", err)
	}
}

func TestStringHelpers(t *testing.T) {
	if got := fixedString([]byte{'a', 'b', 0, 'c'}); got != "ab" {
		t.Errorf("fixedString = %q", got)
	}
	if got := VulkanSafeString("main"); got != "main\x00" {
		t.Errorf("VulkanSafeString = %q", got)
	}
	in := []string{"a", "b\x00"}
	out := VulkanSafeStrings(in)
	if in[0] != "a" || out[0] != "a\x00" || out[1] != "b\x00" {
		t.Errorf("VulkanSafeStrings in=%q out=%q", in, out)
	}
	if clampUint32(0, 1, 5) != 1 || clampUint32(9, 1, 5) != 5 || clampUint32(3, 1, 5) != 3 {
		t.Error("clampUint32")
	}
}

func TestCommandBufferStateGuards(t *testing.T) {
	// Both calls must fail before reaching the driver.
	submitted := &VulkanCommandBuffer{State: COMMAND_BUFFER_STATE_SUBMITTED}
	if err := submitted.Begin(true); err == nil {
		t.Error("Begin accepted a submitted buffer")
	}
	inPass := &VulkanCommandBuffer{State: COMMAND_BUFFER_STATE_IN_RENDER_PASS}
	if err := inPass.End(); err == nil {
		t.Error("End accepted a buffer inside a render pass")
	}
	if COMMAND_BUFFER_STATE_READY.String() != "ready" || VulkanCommandBufferState(42).String() != "unknown" {
		t.Error("unexpected state names")
	}
}
