package metadata

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
)

/** @brief Where the frame is in its fixed pass sequence. */
type PassState int

const (
	PASS_STATE_IDLE PassState = iota
	PASS_STATE_SHADOW
	PASS_STATE_OPAQUE
	PASS_STATE_HUD
	PASS_STATE_SUBMITTED
)

func (p PassState) String() string {
	switch p {
	case PASS_STATE_IDLE:
		return "idle"
	case PASS_STATE_SHADOW:
		return "shadow"
	case PASS_STATE_OPAQUE:
		return "opaque"
	case PASS_STATE_HUD:
		return "hud"
	case PASS_STATE_SUBMITTED:
		return "submitted"
	}
	return "unknown"
}

/**
 * @brief Enforces Idle -> Shadow -> Opaque -> HUD -> Submitted once per frame.
 * No pass can be skipped: the opaque pass always samples the shadow map.
 */
type PassTracker struct {
	state PassState
	log   []PassState
}

func (t *PassTracker) State() PassState {
	return t.state
}

// Begin starts a new frame. Only valid when idle or after the previous submit.
func (t *PassTracker) Begin() error {
	if t.state != PASS_STATE_IDLE && t.state != PASS_STATE_SUBMITTED {
		return fmt.Errorf("frame begun while in %s pass: %w", t.state, core.ErrPassOrder)
	}
	t.state = PASS_STATE_IDLE
	t.log = t.log[:0]
	return nil
}

// Enter moves to next, which must directly follow the current state.
func (t *PassTracker) Enter(next PassState) error {
	if next != t.state+1 || next > PASS_STATE_SUBMITTED {
		return fmt.Errorf("cannot move from %s to %s: %w", t.state, next, core.ErrPassOrder)
	}
	t.state = next
	t.log = append(t.log, next)
	return nil
}

// Abort returns to idle after a failed frame so the next one can begin.
func (t *PassTracker) Abort() {
	t.state = PASS_STATE_IDLE
}

// Recorded returns the passes entered since Begin.
func (t *PassTracker) Recorded() []PassState {
	out := make([]PassState, len(t.log))
	copy(out, t.log)
	return out
}
