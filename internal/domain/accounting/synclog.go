package accounting

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SyncLogEntry is one row of the append-only sync history. Every bulk sync
// invocation writes exactly one entry, including runs that abort before
// processing any item. Token refresh failures are logged here too.
type SyncLogEntry struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Provider ProviderCode

	// Operation names what ran, e.g. "sync_customers", "sync_invoices",
	// "sync_payments", "sync_all", "oauth_refresh".
	Operation string
	Status    RunStatus

	ItemsProcessed int
	ItemsFailed    int

	// Details carries per-item results or error context as JSON.
	Details string

	DurationMS  int64
	TriggeredBy TriggerSource
	CreatedAt   time.Time
}

// NewSyncLogEntry creates a log entry for a completed operation.
func NewSyncLogEntry(tenantID uuid.UUID, provider ProviderCode, operation string, status RunStatus, trigger TriggerSource) *SyncLogEntry {
	return &SyncLogEntry{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Provider:    provider,
		Operation:   operation,
		Status:      status,
		TriggeredBy: trigger,
		CreatedAt:   time.Now(),
	}
}

// SyncLogRepository persists the append-only sync history.
type SyncLogRepository interface {
	// Append writes one entry. Entries are never updated or deleted.
	Append(ctx context.Context, entry *SyncLogEntry) error

	// List returns a tenant's most recent entries for a provider,
	// newest first, capped at limit.
	List(ctx context.Context, tenantID uuid.UUID, provider ProviderCode, limit int) ([]*SyncLogEntry, error)
}
