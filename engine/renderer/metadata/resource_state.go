package metadata

/** @brief Name of the light depth map tracked across the shadow and opaque passes. */
const SHADOW_MAP_RESOURCE = "shadow-map"

/** @brief The states a depth texture moves through between passes. */
type ResourceState int

const (
	RESOURCE_STATE_UNINITIALIZED ResourceState = iota
	RESOURCE_STATE_DEPTH_WRITE
	RESOURCE_STATE_SHADER_READ
)

func (s ResourceState) String() string {
	switch s {
	case RESOURCE_STATE_UNINITIALIZED:
		return "uninitialized"
	case RESOURCE_STATE_DEPTH_WRITE:
		return "depth_write"
	case RESOURCE_STATE_SHADER_READ:
		return "shader_read"
	}
	return "unknown"
}

/** @brief How a pass is about to use a resource. */
type ResourceUse int

const (
	RESOURCE_USE_DEPTH_TARGET ResourceUse = iota
	RESOURCE_USE_SHADER_SAMPLE
)

/**
 * @brief Returns the state a resource must be in for use and whether a
 * transition barrier has to be recorded to get there.
 */
func NextState(current ResourceState, use ResourceUse) (ResourceState, bool) {
	var want ResourceState
	switch use {
	case RESOURCE_USE_DEPTH_TARGET:
		want = RESOURCE_STATE_DEPTH_WRITE
	case RESOURCE_USE_SHADER_SAMPLE:
		want = RESOURCE_STATE_SHADER_READ
	default:
		return current, false
	}
	return want, current != want
}

/**
 * @brief Tracks the state of one GPU resource across passes.
 */
type TrackedResource struct {
	Name  string
	State ResourceState
}

/**
 * @brief Moves the resource to the state required by use. The returned pair is
 * the transition to record, if any.
 */
func (r *TrackedResource) Transition(use ResourceUse) (from, to ResourceState, required bool) {
	from = r.State
	to, required = NextState(r.State, use)
	r.State = to
	return from, to, required
}
