package vulkan

import "sync"

type LockGroup string

const (
	// QueueManagement guards submissions and presents on the shared graphics queue.
	QueueManagement LockGroup = "queue_management"
	// PipelineManagement guards the pipeline table while it is rebuilt.
	PipelineManagement LockGroup = "pipeline_management"
)

/**
 * @brief Hands out one mutex per group of Vulkan objects that require
 * external synchronization.
 */
type VulkanLockPool struct {
	mu    sync.Mutex
	locks map[LockGroup]*sync.Mutex
}

func NewVulkanLockPool() *VulkanLockPool {
	return &VulkanLockPool{locks: make(map[LockGroup]*sync.Mutex)}
}

func (vs *VulkanLockPool) lock(group LockGroup) *sync.Mutex {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	l, ok := vs.locks[group]
	if !ok {
		l = &sync.Mutex{}
		vs.locks[group] = l
	}
	return l
}

// SafeCall runs fn while holding the group's mutex.
func (vs *VulkanLockPool) SafeCall(group LockGroup, fn func() error) error {
	l := vs.lock(group)
	l.Lock()
	defer l.Unlock()

	return fn()
}
