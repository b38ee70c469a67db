package accounting

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/barbertime/backend/internal/domain/accounting"
	"github.com/barbertime/backend/internal/domain/partner"
	"github.com/barbertime/backend/internal/domain/trade"
)

const countsCacheTTL = 60 * time.Second

// SettingsServiceImpl manages per-tenant provider configuration and the
// read-side operations of the integration dashboard.
type SettingsServiceImpl struct {
	registry  accounting.ProviderRegistry
	settings  accounting.ProviderSettingsRepository
	mappings  accounting.EntityMappingRepository
	syncLog   accounting.SyncLogRepository
	counts    accounting.CountsCache
	customers partner.CustomerRepository
	orders    trade.OrderRepository
	logger    *zap.Logger
}

// NewSettingsService creates a new SettingsServiceImpl.
func NewSettingsService(
	registry accounting.ProviderRegistry,
	settings accounting.ProviderSettingsRepository,
	mappings accounting.EntityMappingRepository,
	syncLog accounting.SyncLogRepository,
	counts accounting.CountsCache,
	customers partner.CustomerRepository,
	orders trade.OrderRepository,
	logger *zap.Logger,
) *SettingsServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsServiceImpl{
		registry:  registry,
		settings:  settings,
		mappings:  mappings,
		syncLog:   syncLog,
		counts:    counts,
		customers: customers,
		orders:    orders,
		logger:    logger,
	}
}

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

// GetSettings returns the tenant's settings for a provider. Missing settings
// come back as a disabled default rather than an error so the dashboard can
// render the setup form.
func (s *SettingsServiceImpl) GetSettings(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode) (*SettingsView, error) {
	if !provider.IsValid() {
		return nil, accounting.ErrUnknownProvider
	}

	settings, err := s.settings.FindByTenantAndProvider(ctx, tenantID, provider)
	if errors.Is(err, accounting.ErrSettingsNotFound) {
		settings, err = accounting.NewProviderSettings(tenantID, provider)
	}
	if err != nil {
		return nil, err
	}
	return newSettingsView(settings), nil
}

// UpdateSettings applies the input to the tenant's settings, creating the
// row on first save. Secrets are only overwritten when the input provides
// them; an empty secret field means keep the stored value.
func (s *SettingsServiceImpl) UpdateSettings(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, input *SettingsInput) (*SettingsView, error) {
	if !provider.IsValid() {
		return nil, accounting.ErrUnknownProvider
	}

	settings, err := s.settings.FindByTenantAndProvider(ctx, tenantID, provider)
	if errors.Is(err, accounting.ErrSettingsNotFound) {
		settings, err = accounting.NewProviderSettings(tenantID, provider)
	}
	if err != nil {
		return nil, err
	}

	settings.Enabled = input.Enabled
	settings.AutoSyncEnabled = input.AutoSyncEnabled
	if input.ClientID != "" {
		settings.ClientID = input.ClientID
	}
	if input.ClientSecret != "" {
		settings.ClientSecret = input.ClientSecret
	}
	if input.ConsumerToken != "" {
		settings.ConsumerToken = input.ConsumerToken
	}
	if input.EmployeeToken != "" {
		settings.EmployeeToken = input.EmployeeToken
	}
	if input.CompanyID != "" {
		settings.CompanyID = input.CompanyID
	}
	if input.CompanySlug != "" {
		settings.CompanySlug = input.CompanySlug
	}
	if input.PaymentAccount != "" {
		settings.PaymentAccount = input.PaymentAccount
	}

	if settings.Enabled && !settings.IsConfigured() {
		return nil, accounting.ErrNotConfigured
	}

	settings.UpdatedAt = time.Now()
	if err := s.settings.Save(ctx, settings); err != nil {
		return nil, err
	}

	s.logger.Info("Provider settings updated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("provider", provider.String()),
		zap.Bool("enabled", settings.Enabled))

	return newSettingsView(settings), nil
}

// TestConnection probes the provider with the stored credentials.
func (s *SettingsServiceImpl) TestConnection(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode) (*accounting.ConnectionStatus, error) {
	client, err := s.registry.Get(provider)
	if err != nil {
		return nil, err
	}
	return client.TestConnection(ctx, tenantID)
}

// ---------------------------------------------------------------------------
// Dashboard reads
// ---------------------------------------------------------------------------

// SyncHistory returns the tenant's most recent sync log entries. The limit
// is taken as-is; the HTTP layer owns defaulting and capping it.
func (s *SettingsServiceImpl) SyncHistory(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, limit int) ([]*accounting.SyncLogEntry, error) {
	if !provider.IsValid() {
		return nil, accounting.ErrUnknownProvider
	}
	return s.syncLog.List(ctx, tenantID, provider, limit)
}

// UnsyncedCounts reports how many local entities still lack a synced
// mapping, cached briefly since the dashboard polls it.
func (s *SettingsServiceImpl) UnsyncedCounts(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode) (*accounting.UnsyncedCounts, error) {
	if !provider.IsValid() {
		return nil, accounting.ErrUnknownProvider
	}

	if s.counts != nil {
		if cached, ok := s.counts.Get(ctx, tenantID, provider); ok {
			return cached, nil
		}
	}

	counts := &accounting.UnsyncedCounts{}

	customerIDs, err := s.customers.ListActiveIDs(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	counts.Customers, err = s.unsyncedCount(ctx, tenantID, provider, accounting.EntityTypeCustomer, customerIDs)
	if err != nil {
		return nil, err
	}

	orderIDs, err := s.orders.ListCompletedIDs(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	counts.Invoices, err = s.unsyncedCount(ctx, tenantID, provider, accounting.EntityTypeInvoice, orderIDs)
	if err != nil {
		return nil, err
	}

	paidIDs, err := s.orders.ListPaidOrderIDs(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	counts.Payments, err = s.unsyncedCount(ctx, tenantID, provider, accounting.EntityTypePayment, paidIDs)
	if err != nil {
		return nil, err
	}

	if s.counts != nil {
		s.counts.Set(ctx, tenantID, provider, counts, countsCacheTTL)
	}
	return counts, nil
}

func (s *SettingsServiceImpl) unsyncedCount(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, entityType accounting.EntityType, all []uuid.UUID) (int64, error) {
	syncedIDs, err := s.mappings.FindSyncedLocalIDs(ctx, tenantID, provider, entityType)
	if err != nil {
		return 0, err
	}
	synced := make(map[uuid.UUID]struct{}, len(syncedIDs))
	for _, id := range syncedIDs {
		synced[id] = struct{}{}
	}
	var count int64
	for _, id := range all {
		if _, ok := synced[id]; !ok {
			count++
		}
	}
	return count, nil
}
