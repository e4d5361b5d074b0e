package memory

import (
	"context"
	"sync"

	"github.com/karahan-cpu/martek-marina/internal/core/port"
)

// GrantCache tracks verified (user, pedestal) grants in process memory.
// Grants live until revoked or the process restarts; a restart forcing
// re-verification is accepted behavior for single-instance deployments.
type GrantCache struct {
	mu     sync.RWMutex
	grants map[string]map[string]struct{}
}

// NewGrantCache constructs an empty in-memory grant cache.
func NewGrantCache() *GrantCache {
	return &GrantCache{grants: make(map[string]map[string]struct{})}
}

// Grant records that the user verified the pedestal. Repeated grants are
// idempotent.
func (c *GrantCache) Grant(_ context.Context, userID, pedestalID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	set, ok := c.grants[userID]
	if !ok {
		set = make(map[string]struct{})
		c.grants[userID] = set
	}
	set[pedestalID] = struct{}{}
	return nil
}

// HasAccess reports whether the user holds a grant for the pedestal.
func (c *GrantCache) HasAccess(_ context.Context, userID, pedestalID string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	set, ok := c.grants[userID]
	if !ok {
		return false, nil
	}
	_, ok = set[pedestalID]
	return ok, nil
}

// Revoke removes the user's grant for the pedestal.
func (c *GrantCache) Revoke(_ context.Context, userID, pedestalID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if set, ok := c.grants[userID]; ok {
		delete(set, pedestalID)
		if len(set) == 0 {
			delete(c.grants, userID)
		}
	}
	return nil
}

var _ port.GrantCache = (*GrantCache)(nil)
