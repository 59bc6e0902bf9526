package userinfo

import (
	"sync"
	"time"
)

// DefaultContainerID is the element id cards are rendered into.
const DefaultContainerID = "user_info"

// Container owns the content shown in the user info element. Content is
// only accepted for a generation newer than the one currently held.
// Generations are issued by Next, so every widget rendering into the same
// container draws from one sequence.
type Container struct {
	id  string
	now func() time.Time

	mu       sync.RWMutex
	issued   uint64
	snapshot Snapshot
}

// NewContainer builds an empty container for the element id.
func NewContainer(id string) *Container {
	if id == "" {
		id = DefaultContainerID
	}
	return &Container{
		id:       id,
		now:      time.Now,
		snapshot: Snapshot{ContainerID: id, State: StateLoading},
	}
}

// ID returns the element id.
func (c *Container) ID() string {
	return c.id
}

// Next reserves the generation for the next render.
func (c *Container) Next() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot.Generation > c.issued {
		c.issued = c.snapshot.Generation
	}
	c.issued++
	return c.issued
}

// Replace swaps the content when snap.Generation is greater than the current
// generation. It reports whether the content was accepted.
func (c *Container) Replace(snap Snapshot) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if snap.Generation <= c.snapshot.Generation {
		return false
	}
	snap.ContainerID = c.id
	snap.UpdatedAt = c.now().UTC()
	c.snapshot = snap
	return true
}

// Generation returns the generation of the current content.
func (c *Container) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot.Generation
}

// Snapshot returns a copy of the current content.
func (c *Container) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}
