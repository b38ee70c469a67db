package accounting

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UnsyncedCounts summarizes how many local entities still lack a synced
// mapping for a provider. Shown on the integration dashboard.
type UnsyncedCounts struct {
	Customers int64 `json:"customers"`
	Invoices  int64 `json:"invoices"`
	Payments  int64 `json:"payments"`
}

// Total returns the sum across entity types.
func (c *UnsyncedCounts) Total() int64 {
	return c.Customers + c.Invoices + c.Payments
}

// CountsCache caches unsynced counts per tenant+provider. Implementations
// must treat a miss as a signal to recompute, never as zero.
type CountsCache interface {
	// Get returns the cached counts and true, or nil and false on a miss.
	Get(ctx context.Context, tenantID uuid.UUID, provider ProviderCode) (*UnsyncedCounts, bool)

	// Set stores the counts with a TTL.
	Set(ctx context.Context, tenantID uuid.UUID, provider ProviderCode, counts *UnsyncedCounts, ttl time.Duration)

	// Invalidate drops the cached counts after a sync run changes them.
	Invalidate(ctx context.Context, tenantID uuid.UUID, provider ProviderCode)
}
