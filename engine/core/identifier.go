package core

import (
	"fmt"

	"github.com/google/uuid"
)

// ResourceID names a GPU object for debug output. The UUID keeps names unique across
// swapchain recreations, where the same logical resource is created several times.
type ResourceID struct {
	Kind string
	ID   uuid.UUID
}

func NewResourceID(kind string) ResourceID {
	return ResourceID{
		Kind: kind,
		ID:   uuid.New(),
	}
}

func (r ResourceID) String() string {
	return fmt.Sprintf("%s-%s", r.Kind, r.ID.String()[:8])
}

func (r ResourceID) IsZero() bool {
	return r.ID == uuid.Nil
}
