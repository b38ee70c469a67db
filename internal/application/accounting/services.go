package accounting

import (
	"context"

	"github.com/google/uuid"

	"github.com/barbertime/backend/internal/domain/accounting"
)

// SettingsService manages provider configuration and the read side of the
// integration dashboard.
type SettingsService interface {
	// GetSettings returns the tenant's settings for a provider, or a
	// disabled default when none are stored yet.
	GetSettings(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode) (*SettingsView, error)

	// UpdateSettings applies the input, creating the row on first save.
	UpdateSettings(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, input *SettingsInput) (*SettingsView, error)

	// TestConnection probes the provider with the stored credentials.
	TestConnection(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode) (*accounting.ConnectionStatus, error)

	// SyncHistory returns the most recent sync log entries, newest first.
	// Callers must pass a positive, already-bounded limit.
	SyncHistory(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, limit int) ([]*accounting.SyncLogEntry, error)

	// UnsyncedCounts reports how many local entities still lack a synced
	// mapping, served from cache when fresh.
	UnsyncedCounts(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode) (*accounting.UnsyncedCounts, error)
}

// SyncService pushes local entities to external accounting systems.
type SyncService interface {
	// SyncCustomer pushes one customer as a remote contact.
	SyncCustomer(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, customerID uuid.UUID) accounting.SyncItemResult

	// SyncOrder pushes one completed order as a remote invoice.
	SyncOrder(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, orderID uuid.UUID) accounting.SyncItemResult

	// SyncPayment registers an order's payments against its remote invoice.
	SyncPayment(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, orderID uuid.UUID) accounting.SyncItemResult

	// BulkSync runs one entity type for the given IDs, or for all unsynced
	// entities when ids is empty. Writes exactly one sync log entry.
	BulkSync(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, entityType accounting.EntityType, ids []uuid.UUID, trigger accounting.TriggerSource) (*accounting.BulkSyncResult, error)

	// SyncAll runs customers, then invoices, then payments.
	SyncAll(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, trigger accounting.TriggerSource) (map[accounting.EntityType]*accounting.BulkSyncResult, error)
}

var (
	_ SettingsService = (*SettingsServiceImpl)(nil)
	_ SyncService     = (*SyncServiceImpl)(nil)
)
