package vulkan

import (
	"fmt"
	"sync"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
)

type VulkanFence struct {
	Handle     vk.Fence
	IsSignaled bool
}

func NewFence(context *VulkanContext, createSignaled bool) (*VulkanFence, error) {
	fence := &VulkanFence{
		// Make sure to signal the fence if required.
		IsSignaled: createSignaled,
	}

	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if fence.IsSignaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var pFence vk.Fence
	if err := vulkanError("vkCreateFence", vk.CreateFence(context.Device.LogicalDevice, &fenceCreateInfo, context.Allocator, &pFence)); err != nil {
		return nil, err
	}
	fence.Handle = pFence
	return fence, nil
}

func (vf *VulkanFence) FenceDestroy(context *VulkanContext) {
	if vf.Handle != vk.NullFence {
		vk.DestroyFence(context.Device.LogicalDevice, vf.Handle, context.Allocator)
		vf.Handle = vk.NullFence
	}
	vf.IsSignaled = false
}

func (vf *VulkanFence) FenceWait(context *VulkanContext, timeoutNs uint64) error {
	if vf.IsSignaled {
		// If already signaled, do not wait.
		return nil
	}
	result := vk.WaitForFences(context.Device.LogicalDevice, 1, []vk.Fence{vf.Handle}, vk.True, timeoutNs)
	if result == vk.Timeout {
		core.LogWarn("vk_fence_wait - Timed out")
		return fmt.Errorf("vkWaitForFences timed out after %dns", timeoutNs)
	}
	if err := vulkanError("vkWaitForFences", result); err != nil {
		return err
	}
	vf.IsSignaled = true
	return nil
}

// FenceStatus polls the fence without blocking.
func (vf *VulkanFence) FenceStatus(context *VulkanContext) (bool, error) {
	if vf.IsSignaled {
		return true, nil
	}
	result := vk.GetFenceStatus(context.Device.LogicalDevice, vf.Handle)
	if result == vk.NotReady {
		return false, nil
	}
	if err := vulkanError("vkGetFenceStatus", result); err != nil {
		return false, err
	}
	vf.IsSignaled = true
	return true, nil
}

func (vf *VulkanFence) FenceReset(context *VulkanContext) error {
	if vf.IsSignaled {
		if err := vulkanError("vkResetFences", vk.ResetFences(context.Device.LogicalDevice, 1, []vk.Fence{vf.Handle})); err != nil {
			return err
		}
		vf.IsSignaled = false
	}
	return nil
}

/**
 * @brief The fence primitives FenceTimeline is built on. Fences are named by
 * index so the bookkeeping can run without a device.
 */
type fenceOps interface {
	create() (int, error)
	// signal queues a fence signal behind all work already on the queue.
	signal(id int) error
	done(id int) (bool, error)
	wait(id int) error
	reset(id int) error
	destroy(id int)
}

type pendingFence struct {
	value uint64
	id    int
}

/**
 * @brief A monotonic fence counter built from a pool of binary fences. Every
 * Signal queues one fence; values complete in submission order because they
 * all go through the same queue.
 */
type FenceTimeline struct {
	mu        sync.Mutex
	ops       fenceOps
	completed uint64
	last      uint64
	pending   []pendingFence
	free      []int
	all       []int
}

func newFenceTimeline(ops fenceOps) *FenceTimeline {
	return &FenceTimeline{ops: ops}
}

func (ft *FenceTimeline) Signal(value uint64) error {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	if value <= ft.last {
		return fmt.Errorf("fence value %d is not above the last signalled value %d", value, ft.last)
	}
	var id int
	if n := len(ft.free); n > 0 {
		id = ft.free[n-1]
		ft.free = ft.free[:n-1]
	} else {
		created, err := ft.ops.create()
		if err != nil {
			return err
		}
		id = created
		ft.all = append(ft.all, id)
	}
	if err := ft.ops.signal(id); err != nil {
		ft.free = append(ft.free, id)
		return err
	}
	ft.pending = append(ft.pending, pendingFence{value: value, id: id})
	ft.last = value
	return nil
}

func (ft *FenceTimeline) Completed() uint64 {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	for len(ft.pending) > 0 {
		done, err := ft.ops.done(ft.pending[0].id)
		if err != nil {
			core.LogError("polling fence for value %d: %s", ft.pending[0].value, err)
			break
		}
		if !done {
			break
		}
		if err := ft.retire(1); err != nil {
			core.LogError(err.Error())
			break
		}
	}
	return ft.completed
}

func (ft *FenceTimeline) Wait(value uint64) error {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	if value <= ft.completed {
		return nil
	}
	for i, p := range ft.pending {
		if p.value < value {
			continue
		}
		if err := ft.ops.wait(p.id); err != nil {
			return fmt.Errorf("waiting for fence value %d: %w", value, err)
		}
		// Everything queued before it has finished too.
		return ft.retire(i + 1)
	}
	return fmt.Errorf("fence value %d was never signalled (last %d)", value, ft.last)
}

// retire recycles the first n pending fences, which are known to be done.
func (ft *FenceTimeline) retire(n int) error {
	for _, p := range ft.pending[:n] {
		if err := ft.ops.reset(p.id); err != nil {
			return err
		}
		ft.free = append(ft.free, p.id)
		ft.completed = p.value
	}
	ft.pending = append(ft.pending[:0], ft.pending[n:]...)
	return nil
}

// Destroy releases every fence. The queue must be idle.
func (ft *FenceTimeline) Destroy() {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	for _, id := range ft.all {
		ft.ops.destroy(id)
	}
	ft.all = nil
	ft.free = nil
	ft.pending = nil
}

/**
 * @brief fenceOps over real fences. A signal is an empty submission to the
 * graphics queue carrying only the fence.
 */
type deviceFenceOps struct {
	context *VulkanContext
	fences  []*VulkanFence
}

func (d *deviceFenceOps) create() (int, error) {
	fence, err := NewFence(d.context, false)
	if err != nil {
		return 0, err
	}
	d.fences = append(d.fences, fence)
	return len(d.fences) - 1, nil
}

func (d *deviceFenceOps) signal(id int) error {
	fence := d.fences[id]
	return d.context.locks.SafeCall(QueueManagement, func() error {
		return vulkanError("vkQueueSubmit", vk.QueueSubmit(d.context.Device.GraphicsQueue, 0, nil, fence.Handle))
	})
}

func (d *deviceFenceOps) done(id int) (bool, error) {
	return d.fences[id].FenceStatus(d.context)
}

func (d *deviceFenceOps) wait(id int) error {
	return d.fences[id].FenceWait(d.context, vk.MaxUint64)
}

// reset runs for fences retired without being polled, so the cached flag cannot be trusted.
func (d *deviceFenceOps) reset(id int) error {
	fence := d.fences[id]
	fence.IsSignaled = true
	return fence.FenceReset(d.context)
}

func (d *deviceFenceOps) destroy(id int) {
	d.fences[id].FenceDestroy(d.context)
}
