package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/barbertime/backend/internal/domain/accounting"
)

// InMemoryCountsCache implements CountsCache with a process-local map.
// Suitable for single-instance deployments and testing.
// WARNING: state is not shared across instances, so dashboards behind a
// load balancer may briefly show different counts per node.
type InMemoryCountsCache struct {
	mu      sync.RWMutex
	entries map[string]inMemoryCountsEntry
}

type inMemoryCountsEntry struct {
	counts    accounting.UnsyncedCounts
	expiresAt time.Time
}

// NewInMemoryCountsCache creates a new in-memory counts cache
func NewInMemoryCountsCache() *InMemoryCountsCache {
	return &InMemoryCountsCache{entries: make(map[string]inMemoryCountsEntry)}
}

var _ accounting.CountsCache = (*InMemoryCountsCache)(nil)

func countsKey(tenantID uuid.UUID, provider accounting.ProviderCode) string {
	return tenantID.String() + ":" + provider.String()
}

// Get returns the cached counts and true, or nil and false on a miss
func (c *InMemoryCountsCache) Get(_ context.Context, tenantID uuid.UUID, provider accounting.ProviderCode) (*accounting.UnsyncedCounts, bool) {
	c.mu.RLock()
	entry, ok := c.entries[countsKey(tenantID, provider)]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	counts := entry.counts
	return &counts, true
}

// Set stores the counts with a TTL
func (c *InMemoryCountsCache) Set(_ context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, counts *accounting.UnsyncedCounts, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[countsKey(tenantID, provider)] = inMemoryCountsEntry{
		counts:    *counts,
		expiresAt: time.Now().Add(ttl),
	}
}

// Invalidate drops the cached counts
func (c *InMemoryCountsCache) Invalidate(_ context.Context, tenantID uuid.UUID, provider accounting.ProviderCode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, countsKey(tenantID, provider))
}
