package accounting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/barbertime/backend/internal/domain/accounting"
	"github.com/barbertime/backend/internal/domain/partner"
	"github.com/barbertime/backend/internal/domain/trade"
)

// MockEntityMappingRepository is a mock implementation of EntityMappingRepository
type MockEntityMappingRepository struct {
	mock.Mock
}

func (m *MockEntityMappingRepository) Find(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, entityType accounting.EntityType, localID uuid.UUID) (*accounting.EntityMapping, error) {
	args := m.Called(ctx, tenantID, provider, entityType, localID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.EntityMapping), args.Error(1)
}

func (m *MockEntityMappingRepository) FindSyncedLocalIDs(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, entityType accounting.EntityType) ([]uuid.UUID, error) {
	args := m.Called(ctx, tenantID, provider, entityType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockEntityMappingRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, entityType accounting.EntityType) (map[accounting.MappingStatus]int64, error) {
	args := m.Called(ctx, tenantID, provider, entityType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[accounting.MappingStatus]int64), args.Error(1)
}

func (m *MockEntityMappingRepository) Upsert(ctx context.Context, mapping *accounting.EntityMapping) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}

// MockProviderSettingsRepository is a mock implementation of ProviderSettingsRepository
type MockProviderSettingsRepository struct {
	mock.Mock
}

func (m *MockProviderSettingsRepository) FindByTenantAndProvider(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode) (*accounting.ProviderSettings, error) {
	args := m.Called(ctx, tenantID, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.ProviderSettings), args.Error(1)
}

func (m *MockProviderSettingsRepository) FindAllEnabled(ctx context.Context) ([]*accounting.ProviderSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*accounting.ProviderSettings), args.Error(1)
}

func (m *MockProviderSettingsRepository) Save(ctx context.Context, settings *accounting.ProviderSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

func (m *MockProviderSettingsRepository) UpdateTokens(ctx context.Context, settings *accounting.ProviderSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

// MockSyncLogRepository is a mock implementation of SyncLogRepository
type MockSyncLogRepository struct {
	mock.Mock
}

func (m *MockSyncLogRepository) Append(ctx context.Context, entry *accounting.SyncLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockSyncLogRepository) List(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, limit int) ([]*accounting.SyncLogEntry, error) {
	args := m.Called(ctx, tenantID, provider, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*accounting.SyncLogEntry), args.Error(1)
}

// MockAccountingProvider is a mock implementation of AccountingProvider
type MockAccountingProvider struct {
	mock.Mock
	code accounting.ProviderCode
}

func (m *MockAccountingProvider) Code() accounting.ProviderCode {
	if m.code != "" {
		return m.code
	}
	return accounting.ProviderFiken
}

func (m *MockAccountingProvider) TestConnection(ctx context.Context, tenantID uuid.UUID) (*accounting.ConnectionStatus, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.ConnectionStatus), args.Error(1)
}

func (m *MockAccountingProvider) CreateContact(ctx context.Context, tenantID uuid.UUID, contact *accounting.ContactUpsert) (string, error) {
	args := m.Called(ctx, tenantID, contact)
	return args.String(0), args.Error(1)
}

func (m *MockAccountingProvider) UpdateContact(ctx context.Context, tenantID uuid.UUID, remoteID string, contact *accounting.ContactUpsert) error {
	args := m.Called(ctx, tenantID, remoteID, contact)
	return args.Error(0)
}

func (m *MockAccountingProvider) CreateInvoice(ctx context.Context, tenantID uuid.UUID, draft *accounting.InvoiceDraft) (*accounting.RemoteInvoice, error) {
	args := m.Called(ctx, tenantID, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.RemoteInvoice), args.Error(1)
}

func (m *MockAccountingProvider) RegisterPayment(ctx context.Context, tenantID uuid.UUID, draft *accounting.PaymentDraft) (string, error) {
	args := m.Called(ctx, tenantID, draft)
	return args.String(0), args.Error(1)
}

// MockProviderRegistry is a mock implementation of ProviderRegistry
type MockProviderRegistry struct {
	mock.Mock
}

func (m *MockProviderRegistry) Get(code accounting.ProviderCode) (accounting.AccountingProvider, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(accounting.AccountingProvider), args.Error(1)
}

func (m *MockProviderRegistry) List() []accounting.AccountingProvider {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]accounting.AccountingProvider)
}

// MockCustomerRepository is a mock implementation of partner.CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, tenantID, customerID uuid.UUID) (*partner.Customer, error) {
	args := m.Called(ctx, tenantID, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) ListActiveIDs(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockOrderRepository is a mock implementation of trade.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, tenantID, orderID uuid.UUID) (*trade.Order, error) {
	args := m.Called(ctx, tenantID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Order), args.Error(1)
}

func (m *MockOrderRepository) ListCompletedIDs(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockOrderRepository) ListPaidOrderIDs(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockCountsCache is a mock implementation of CountsCache
type MockCountsCache struct {
	mock.Mock
}

func (m *MockCountsCache) Get(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode) (*accounting.UnsyncedCounts, bool) {
	args := m.Called(ctx, tenantID, provider)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*accounting.UnsyncedCounts), args.Bool(1)
}

func (m *MockCountsCache) Set(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, counts *accounting.UnsyncedCounts, ttl time.Duration) {
	m.Called(ctx, tenantID, provider, counts, ttl)
}

func (m *MockCountsCache) Invalidate(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode) {
	m.Called(ctx, tenantID, provider)
}
