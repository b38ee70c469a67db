package accounting

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/barbertime/backend/internal/domain/accounting"
)

// stubSettingsRepo is an in-memory ProviderSettingsRepository for client
// tests. It hands out copies so tests can assert exactly what was persisted.
type stubSettingsRepo struct {
	mu           sync.Mutex
	rows         map[string]*accounting.ProviderSettings
	tokenUpdates int
}

func newStubSettingsRepo(rows ...*accounting.ProviderSettings) *stubSettingsRepo {
	repo := &stubSettingsRepo{rows: make(map[string]*accounting.ProviderSettings)}
	for _, row := range rows {
		repo.rows[settingsKey(row.TenantID, row.Provider)] = row
	}
	return repo
}

func settingsKey(tenantID uuid.UUID, provider accounting.ProviderCode) string {
	return tenantID.String() + "|" + provider.String()
}

func (r *stubSettingsRepo) FindByTenantAndProvider(_ context.Context, tenantID uuid.UUID, provider accounting.ProviderCode) (*accounting.ProviderSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[settingsKey(tenantID, provider)]
	if !ok {
		return nil, accounting.ErrSettingsNotFound
	}
	copied := *row
	return &copied, nil
}

func (r *stubSettingsRepo) FindAllEnabled(_ context.Context) ([]*accounting.ProviderSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*accounting.ProviderSettings
	for _, row := range r.rows {
		if row.Enabled {
			copied := *row
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *stubSettingsRepo) Save(_ context.Context, settings *accounting.ProviderSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *settings
	r.rows[settingsKey(settings.TenantID, settings.Provider)] = &copied
	return nil
}

func (r *stubSettingsRepo) UpdateTokens(_ context.Context, settings *accounting.ProviderSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokenUpdates++
	key := settingsKey(settings.TenantID, settings.Provider)
	row, ok := r.rows[key]
	if !ok {
		return accounting.ErrSettingsNotFound
	}
	row.AccessToken = settings.AccessToken
	row.RefreshToken = settings.RefreshToken
	row.TokenExpiresAt = settings.TokenExpiresAt
	return nil
}

func (r *stubSettingsRepo) stored(tenantID uuid.UUID, provider accounting.ProviderCode) *accounting.ProviderSettings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[settingsKey(tenantID, provider)]
}

// stubSyncLog is an in-memory SyncLogRepository.
type stubSyncLog struct {
	mu      sync.Mutex
	entries []*accounting.SyncLogEntry
}

func (r *stubSyncLog) Append(_ context.Context, entry *accounting.SyncLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *stubSyncLog) List(_ context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, limit int) ([]*accounting.SyncLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*accounting.SyncLogEntry
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := r.entries[i]
		if e.TenantID == tenantID && e.Provider == provider {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *stubSyncLog) all() []*accounting.SyncLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*accounting.SyncLogEntry(nil), r.entries...)
}
