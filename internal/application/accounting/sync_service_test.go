package accounting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/barbertime/backend/internal/domain/accounting"
	"github.com/barbertime/backend/internal/domain/partner"
	"github.com/barbertime/backend/internal/domain/trade"
)

type syncFixture struct {
	registry  *MockProviderRegistry
	provider  *MockAccountingProvider
	settings  *MockProviderSettingsRepository
	mappings  *MockEntityMappingRepository
	syncLog   *MockSyncLogRepository
	customers *MockCustomerRepository
	orders    *MockOrderRepository
	service   *SyncServiceImpl
}

func newSyncFixture(cfg SyncConfig) *syncFixture {
	f := &syncFixture{
		registry:  new(MockProviderRegistry),
		provider:  new(MockAccountingProvider),
		settings:  new(MockProviderSettingsRepository),
		mappings:  new(MockEntityMappingRepository),
		syncLog:   new(MockSyncLogRepository),
		customers: new(MockCustomerRepository),
		orders:    new(MockOrderRepository),
	}
	f.service = NewSyncService(f.registry, f.settings, f.mappings, f.syncLog, nil, f.customers, f.orders, cfg, nil)
	return f
}

func testCustomer(tenantID uuid.UUID) *partner.Customer {
	return &partner.Customer{
		ID:        uuid.New(),
		TenantID:  tenantID,
		FirstName: "Ola",
		LastName:  "Nordmann",
		Email:     "ola@example.no",
		Phone:     "+4790000000",
		Type:      partner.CustomerTypeIndividual,
	}
}

func testOrder(tenantID, customerID uuid.UUID) *trade.Order {
	completed := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	return &trade.Order{
		ID:          uuid.New(),
		TenantID:    tenantID,
		CustomerID:  customerID,
		OrderNumber: "ORD-1042",
		Status:      trade.OrderStatusCompleted,
		CompletedAt: &completed,
		CreatedAt:   completed.Add(-time.Hour),
		Items: []trade.OrderItem{
			{
				Description: "Herreklipp",
				Quantity:    decimal.NewFromInt(1),
				UnitPrice:   decimal.NewFromInt(450),
				VATRate:     decimal.NewFromInt(25),
			},
		},
		Payments: []trade.Payment{
			{Amount: decimal.RequireFromString("562.50"), Method: trade.PaymentMethodCard, PaidAt: completed},
		},
	}
}

// ---------------------------------------------------------------------------
// Sync Executor
// ---------------------------------------------------------------------------

func TestSyncCustomer_CreatesContactOnFirstSync(t *testing.T) {
	f := newSyncFixture(SyncConfig{})
	tenantID := uuid.New()
	customer := testCustomer(tenantID)

	f.mappings.On("Find", mock.Anything, tenantID, accounting.ProviderFiken, accounting.EntityTypeCustomer, customer.ID).
		Return(nil, accounting.ErrMappingNotFound)
	f.registry.On("Get", accounting.ProviderFiken).Return(f.provider, nil)
	f.customers.On("FindByID", mock.Anything, tenantID, customer.ID).Return(customer, nil)
	f.provider.On("CreateContact", mock.Anything, tenantID, mock.MatchedBy(func(c *accounting.ContactUpsert) bool {
		return c.Name == "Ola Nordmann" && c.Email == "ola@example.no"
	})).Return("FIKEN-C-7", nil)

	var saved *accounting.EntityMapping
	f.mappings.On("Upsert", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*accounting.EntityMapping)
	}).Return(nil)

	result := f.service.SyncCustomer(context.Background(), tenantID, accounting.ProviderFiken, customer.ID)

	assert.True(t, result.Success)
	assert.Equal(t, "FIKEN-C-7", result.RemoteID)
	require.NotNil(t, saved)
	assert.Equal(t, accounting.MappingStatusSynced, saved.Status)
	assert.Equal(t, "FIKEN-C-7", saved.RemoteID)
}

func TestSyncCustomer_UpdatesWhenRemoteIDExists(t *testing.T) {
	f := newSyncFixture(SyncConfig{})
	tenantID := uuid.New()
	customer := testCustomer(tenantID)

	existing, err := accounting.NewEntityMapping(tenantID, accounting.ProviderFiken, accounting.EntityTypeCustomer, customer.ID)
	require.NoError(t, err)
	existing.RecordSyncSuccess("FIKEN-C-7")

	f.mappings.On("Find", mock.Anything, tenantID, accounting.ProviderFiken, accounting.EntityTypeCustomer, customer.ID).
		Return(existing, nil)
	f.registry.On("Get", accounting.ProviderFiken).Return(f.provider, nil)
	f.customers.On("FindByID", mock.Anything, tenantID, customer.ID).Return(customer, nil)
	f.provider.On("UpdateContact", mock.Anything, tenantID, "FIKEN-C-7", mock.Anything).Return(nil)
	f.mappings.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	result := f.service.SyncCustomer(context.Background(), tenantID, accounting.ProviderFiken, customer.ID)

	assert.True(t, result.Success)
	assert.Equal(t, "FIKEN-C-7", result.RemoteID)
	f.provider.AssertNotCalled(t, "CreateContact", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncCustomer_RecordsFailureWithoutPropagating(t *testing.T) {
	f := newSyncFixture(SyncConfig{})
	tenantID := uuid.New()
	customer := testCustomer(tenantID)

	f.mappings.On("Find", mock.Anything, tenantID, accounting.ProviderFiken, accounting.EntityTypeCustomer, customer.ID).
		Return(nil, accounting.ErrMappingNotFound)
	f.registry.On("Get", accounting.ProviderFiken).Return(f.provider, nil)
	f.customers.On("FindByID", mock.Anything, tenantID, customer.ID).Return(customer, nil)
	f.provider.On("CreateContact", mock.Anything, tenantID, mock.Anything).
		Return("", accounting.ErrRemoteAPI)

	var saved *accounting.EntityMapping
	f.mappings.On("Upsert", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*accounting.EntityMapping)
	}).Return(nil)

	result := f.service.SyncCustomer(context.Background(), tenantID, accounting.ProviderFiken, customer.ID)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "remote api error")
	require.NotNil(t, saved)
	assert.Equal(t, accounting.MappingStatusFailed, saved.Status)
	assert.NotEmpty(t, saved.ErrorMessage)
}

func TestSyncCustomer_MappingLookupErrorNeverReachesProvider(t *testing.T) {
	f := newSyncFixture(SyncConfig{})
	tenantID := uuid.New()
	customerID := uuid.New()

	// A transient lookup failure is not "no mapping"; starting a fresh
	// mapping here would re-create a contact that may already exist.
	f.mappings.On("Find", mock.Anything, tenantID, accounting.ProviderFiken, accounting.EntityTypeCustomer, customerID).
		Return(nil, errors.New("driver: bad connection"))

	result := f.service.SyncCustomer(context.Background(), tenantID, accounting.ProviderFiken, customerID)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "bad connection")
	f.provider.AssertNotCalled(t, "CreateContact", mock.Anything, mock.Anything, mock.Anything)
	f.provider.AssertNotCalled(t, "UpdateContact", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.mappings.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestSyncOrder_RequiresSyncedCustomerMapping(t *testing.T) {
	f := newSyncFixture(SyncConfig{})
	tenantID := uuid.New()
	order := testOrder(tenantID, uuid.New())

	f.mappings.On("Find", mock.Anything, tenantID, accounting.ProviderFiken, accounting.EntityTypeInvoice, order.ID).
		Return(nil, accounting.ErrMappingNotFound)
	f.registry.On("Get", accounting.ProviderFiken).Return(f.provider, nil)
	f.orders.On("FindByID", mock.Anything, tenantID, order.ID).Return(order, nil)
	f.mappings.On("Find", mock.Anything, tenantID, accounting.ProviderFiken, accounting.EntityTypeCustomer, order.CustomerID).
		Return(nil, accounting.ErrMappingNotFound)
	f.mappings.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	result := f.service.SyncOrder(context.Background(), tenantID, accounting.ProviderFiken, order.ID)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "dependent entity not synced")
	f.provider.AssertNotCalled(t, "CreateInvoice", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncOrder_DependencyLookupErrorRecordsRealCause(t *testing.T) {
	f := newSyncFixture(SyncConfig{})
	tenantID := uuid.New()
	order := testOrder(tenantID, uuid.New())

	f.mappings.On("Find", mock.Anything, tenantID, accounting.ProviderFiken, accounting.EntityTypeInvoice, order.ID).
		Return(nil, accounting.ErrMappingNotFound)
	f.registry.On("Get", accounting.ProviderFiken).Return(f.provider, nil)
	f.orders.On("FindByID", mock.Anything, tenantID, order.ID).Return(order, nil)
	f.mappings.On("Find", mock.Anything, tenantID, accounting.ProviderFiken, accounting.EntityTypeCustomer, order.CustomerID).
		Return(nil, errors.New("driver: bad connection"))
	f.mappings.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	result := f.service.SyncOrder(context.Background(), tenantID, accounting.ProviderFiken, order.ID)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "bad connection")
	assert.NotContains(t, result.Error, "dependent entity not synced")
	f.provider.AssertNotCalled(t, "CreateInvoice", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncOrder_BuildsInvoiceDraft(t *testing.T) {
	f := newSyncFixture(SyncConfig{})
	tenantID := uuid.New()
	customerID := uuid.New()
	order := testOrder(tenantID, customerID)

	customerMapping, err := accounting.NewEntityMapping(tenantID, accounting.ProviderFiken, accounting.EntityTypeCustomer, customerID)
	require.NoError(t, err)
	customerMapping.RecordSyncSuccess("FIKEN-C-7")

	f.mappings.On("Find", mock.Anything, tenantID, accounting.ProviderFiken, accounting.EntityTypeInvoice, order.ID).
		Return(nil, accounting.ErrMappingNotFound)
	f.registry.On("Get", accounting.ProviderFiken).Return(f.provider, nil)
	f.orders.On("FindByID", mock.Anything, tenantID, order.ID).Return(order, nil)
	f.mappings.On("Find", mock.Anything, tenantID, accounting.ProviderFiken, accounting.EntityTypeCustomer, customerID).
		Return(customerMapping, nil)

	f.provider.On("CreateInvoice", mock.Anything, tenantID, mock.MatchedBy(func(d *accounting.InvoiceDraft) bool {
		if d.RemoteContactID != "FIKEN-C-7" || d.Currency != "NOK" || len(d.Lines) != 1 {
			return false
		}
		line := d.Lines[0]
		return line.NetAmount.Equal(decimal.RequireFromString("450.00")) &&
			line.VATAmount.Equal(decimal.RequireFromString("112.50")) &&
			line.GrossAmount.Equal(decimal.RequireFromString("562.50")) &&
			line.VATType == "HIGH" &&
			d.DueDate.Equal(d.IssueDate.AddDate(0, 0, 14))
	})).Return(&accounting.RemoteInvoice{RemoteID: "INV-300", InvoiceNumber: "2026-300"}, nil)
	f.mappings.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	result := f.service.SyncOrder(context.Background(), tenantID, accounting.ProviderFiken, order.ID)

	assert.True(t, result.Success)
	assert.Equal(t, "INV-300", result.RemoteID)
}

func TestSyncOrder_AlreadySyncedIsNoOp(t *testing.T) {
	f := newSyncFixture(SyncConfig{})
	tenantID := uuid.New()
	orderID := uuid.New()

	mapping, err := accounting.NewEntityMapping(tenantID, accounting.ProviderFiken, accounting.EntityTypeInvoice, orderID)
	require.NoError(t, err)
	mapping.RecordSyncSuccess("INV-300")

	f.mappings.On("Find", mock.Anything, tenantID, accounting.ProviderFiken, accounting.EntityTypeInvoice, orderID).
		Return(mapping, nil)

	result := f.service.SyncOrder(context.Background(), tenantID, accounting.ProviderFiken, orderID)

	assert.True(t, result.Success)
	assert.Equal(t, "INV-300", result.RemoteID)
	f.provider.AssertNotCalled(t, "CreateInvoice", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncPayment_RequiresSyncedInvoiceMapping(t *testing.T) {
	f := newSyncFixture(SyncConfig{})
	tenantID := uuid.New()
	order := testOrder(tenantID, uuid.New())

	f.mappings.On("Find", mock.Anything, tenantID, accounting.ProviderTripletex, accounting.EntityTypePayment, order.ID).
		Return(nil, accounting.ErrMappingNotFound)
	f.registry.On("Get", accounting.ProviderTripletex).Return(f.provider, nil)
	f.orders.On("FindByID", mock.Anything, tenantID, order.ID).Return(order, nil)
	f.mappings.On("Find", mock.Anything, tenantID, accounting.ProviderTripletex, accounting.EntityTypeInvoice, order.ID).
		Return(nil, accounting.ErrMappingNotFound)
	f.mappings.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	result := f.service.SyncPayment(context.Background(), tenantID, accounting.ProviderTripletex, order.ID)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "dependent entity not synced")
	f.provider.AssertNotCalled(t, "RegisterPayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncPayment_DependencyLookupErrorRecordsRealCause(t *testing.T) {
	f := newSyncFixture(SyncConfig{})
	tenantID := uuid.New()
	order := testOrder(tenantID, uuid.New())

	f.mappings.On("Find", mock.Anything, tenantID, accounting.ProviderTripletex, accounting.EntityTypePayment, order.ID).
		Return(nil, accounting.ErrMappingNotFound)
	f.registry.On("Get", accounting.ProviderTripletex).Return(f.provider, nil)
	f.orders.On("FindByID", mock.Anything, tenantID, order.ID).Return(order, nil)
	f.mappings.On("Find", mock.Anything, tenantID, accounting.ProviderTripletex, accounting.EntityTypeInvoice, order.ID).
		Return(nil, errors.New("driver: bad connection"))
	f.mappings.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	result := f.service.SyncPayment(context.Background(), tenantID, accounting.ProviderTripletex, order.ID)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "bad connection")
	assert.NotContains(t, result.Error, "dependent entity not synced")
	f.provider.AssertNotCalled(t, "RegisterPayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncPayment_RegistersSettledTotal(t *testing.T) {
	f := newSyncFixture(SyncConfig{})
	tenantID := uuid.New()
	order := testOrder(tenantID, uuid.New())

	invoiceMapping, err := accounting.NewEntityMapping(tenantID, accounting.ProviderFiken, accounting.EntityTypeInvoice, order.ID)
	require.NoError(t, err)
	invoiceMapping.RecordSyncSuccess("INV-300")

	settings, err := accounting.NewProviderSettings(tenantID, accounting.ProviderFiken)
	require.NoError(t, err)
	settings.PaymentAccount = "1920:10001"

	f.mappings.On("Find", mock.Anything, tenantID, accounting.ProviderFiken, accounting.EntityTypePayment, order.ID).
		Return(nil, accounting.ErrMappingNotFound)
	f.registry.On("Get", accounting.ProviderFiken).Return(f.provider, nil)
	f.orders.On("FindByID", mock.Anything, tenantID, order.ID).Return(order, nil)
	f.mappings.On("Find", mock.Anything, tenantID, accounting.ProviderFiken, accounting.EntityTypeInvoice, order.ID).
		Return(invoiceMapping, nil)
	f.settings.On("FindByTenantAndProvider", mock.Anything, tenantID, accounting.ProviderFiken).
		Return(settings, nil)
	f.provider.On("RegisterPayment", mock.Anything, tenantID, mock.MatchedBy(func(d *accounting.PaymentDraft) bool {
		return d.RemoteInvoiceID == "INV-300" &&
			d.Amount.Equal(decimal.RequireFromString("562.50")) &&
			d.Account == "1920:10001"
	})).Return("PAY-55", nil)
	f.mappings.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	result := f.service.SyncPayment(context.Background(), tenantID, accounting.ProviderFiken, order.ID)

	assert.True(t, result.Success)
	assert.Equal(t, "PAY-55", result.RemoteID)
}

// ---------------------------------------------------------------------------
// Bulk Sync Orchestrator
// ---------------------------------------------------------------------------

func enabledSettings(t *testing.T, tenantID uuid.UUID, provider accounting.ProviderCode) *accounting.ProviderSettings {
	t.Helper()
	settings, err := accounting.NewProviderSettings(tenantID, provider)
	require.NoError(t, err)
	settings.Enabled = true
	settings.ClientID = "client"
	settings.ClientSecret = "secret"
	return settings
}

func TestBulkSync_PartialResultAndSingleLogEntry(t *testing.T) {
	f := newSyncFixture(SyncConfig{})
	tenantID := uuid.New()
	good1, bad, good2 := uuid.New(), uuid.New(), uuid.New()
	ids := []uuid.UUID{good1, bad, good2}

	f.settings.On("FindByTenantAndProvider", mock.Anything, tenantID, accounting.ProviderFiken).
		Return(enabledSettings(t, tenantID, accounting.ProviderFiken), nil)
	f.customers.On("ListActiveIDs", mock.Anything, tenantID).Return(ids, nil)
	f.mappings.On("FindSyncedLocalIDs", mock.Anything, tenantID, accounting.ProviderFiken, accounting.EntityTypeCustomer).
		Return([]uuid.UUID{}, nil)
	f.mappings.On("Find", mock.Anything, tenantID, accounting.ProviderFiken, accounting.EntityTypeCustomer, mock.Anything).
		Return(nil, accounting.ErrMappingNotFound)
	f.registry.On("Get", accounting.ProviderFiken).Return(f.provider, nil)

	for _, id := range []uuid.UUID{good1, good2} {
		customer := testCustomer(tenantID)
		customer.ID = id
		f.customers.On("FindByID", mock.Anything, tenantID, id).Return(customer, nil)
	}
	// The invalid customer has no name, which fails contact validation.
	invalid := &partner.Customer{ID: bad, TenantID: tenantID, Type: partner.CustomerTypeIndividual}
	f.customers.On("FindByID", mock.Anything, tenantID, bad).Return(invalid, nil)

	f.provider.On("CreateContact", mock.Anything, tenantID, mock.Anything).Return("C-OK", nil)
	f.mappings.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	var logged *accounting.SyncLogEntry
	f.syncLog.On("Append", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		logged = args.Get(1).(*accounting.SyncLogEntry)
	}).Return(nil)

	result, err := f.service.BulkSync(context.Background(), tenantID, accounting.ProviderFiken, accounting.EntityTypeCustomer, nil, accounting.TriggerManual)

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 3, result.TotalProcessed)
	assert.Equal(t, 1, result.TotalFailed)
	assert.Equal(t, accounting.RunStatusPartial, result.Status())

	f.syncLog.AssertNumberOfCalls(t, "Append", 1)
	require.NotNil(t, logged)
	assert.Equal(t, "sync_customers", logged.Operation)
	assert.Equal(t, accounting.RunStatusPartial, logged.Status)
	assert.Equal(t, 3, logged.ItemsProcessed)
	assert.Equal(t, 1, logged.ItemsFailed)
	assert.Equal(t, accounting.TriggerManual, logged.TriggeredBy)
	assert.Contains(t, logged.Details, bad.String())
}

func TestBulkSync_SetDifferenceSelection(t *testing.T) {
	f := newSyncFixture(SyncConfig{})
	tenantID := uuid.New()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	f.settings.On("FindByTenantAndProvider", mock.Anything, tenantID, accounting.ProviderFiken).
		Return(enabledSettings(t, tenantID, accounting.ProviderFiken), nil)
	f.customers.On("ListActiveIDs", mock.Anything, tenantID).Return([]uuid.UUID{a, b, c}, nil)
	f.mappings.On("FindSyncedLocalIDs", mock.Anything, tenantID, accounting.ProviderFiken, accounting.EntityTypeCustomer).
		Return([]uuid.UUID{b}, nil)
	f.mappings.On("Find", mock.Anything, tenantID, accounting.ProviderFiken, accounting.EntityTypeCustomer, mock.Anything).
		Return(nil, accounting.ErrMappingNotFound)
	f.registry.On("Get", accounting.ProviderFiken).Return(f.provider, nil)
	for _, id := range []uuid.UUID{a, c} {
		customer := testCustomer(tenantID)
		customer.ID = id
		f.customers.On("FindByID", mock.Anything, tenantID, id).Return(customer, nil)
	}
	f.provider.On("CreateContact", mock.Anything, tenantID, mock.Anything).Return("C-OK", nil)
	f.mappings.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	f.syncLog.On("Append", mock.Anything, mock.Anything).Return(nil)

	result, err := f.service.BulkSync(context.Background(), tenantID, accounting.ProviderFiken, accounting.EntityTypeCustomer, nil, accounting.TriggerManual)

	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalProcessed)
	assert.Equal(t, accounting.RunStatusSuccess, result.Status())
	f.customers.AssertNotCalled(t, "FindByID", mock.Anything, tenantID, b)
}

func TestBulkSync_AllFailedStatus(t *testing.T) {
	f := newSyncFixture(SyncConfig{})
	tenantID := uuid.New()
	id := uuid.New()

	f.settings.On("FindByTenantAndProvider", mock.Anything, tenantID, accounting.ProviderFiken).
		Return(enabledSettings(t, tenantID, accounting.ProviderFiken), nil)
	f.mappings.On("Find", mock.Anything, tenantID, accounting.ProviderFiken, accounting.EntityTypeCustomer, id).
		Return(nil, accounting.ErrMappingNotFound)
	f.registry.On("Get", accounting.ProviderFiken).Return(f.provider, nil)
	f.customers.On("FindByID", mock.Anything, tenantID, id).Return(nil, partner.ErrCustomerNotFound)
	f.mappings.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	f.syncLog.On("Append", mock.Anything, mock.Anything).Return(nil)

	result, err := f.service.BulkSync(context.Background(), tenantID, accounting.ProviderFiken, accounting.EntityTypeCustomer, []uuid.UUID{id}, accounting.TriggerManual)

	require.NoError(t, err)
	assert.Equal(t, accounting.RunStatusFailed, result.Status())
	assert.Equal(t, 1, result.TotalFailed)
}

func TestBulkSync_DisabledProviderLogsAndReturnsError(t *testing.T) {
	f := newSyncFixture(SyncConfig{})
	tenantID := uuid.New()

	disabled, err := accounting.NewProviderSettings(tenantID, accounting.ProviderFiken)
	require.NoError(t, err)
	f.settings.On("FindByTenantAndProvider", mock.Anything, tenantID, accounting.ProviderFiken).
		Return(disabled, nil)

	var logged *accounting.SyncLogEntry
	f.syncLog.On("Append", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		logged = args.Get(1).(*accounting.SyncLogEntry)
	}).Return(nil)

	_, err = f.service.BulkSync(context.Background(), tenantID, accounting.ProviderFiken, accounting.EntityTypeCustomer, nil, accounting.TriggerAuto)

	assert.ErrorIs(t, err, accounting.ErrNotEnabled)
	f.syncLog.AssertNumberOfCalls(t, "Append", 1)
	require.NotNil(t, logged)
	assert.Equal(t, accounting.RunStatusFailed, logged.Status)
	assert.Equal(t, accounting.TriggerAuto, logged.TriggeredBy)
}

func TestSyncAll_RunsInDependencyOrder(t *testing.T) {
	f := newSyncFixture(SyncConfig{})
	tenantID := uuid.New()

	f.settings.On("FindByTenantAndProvider", mock.Anything, tenantID, accounting.ProviderFiken).
		Return(enabledSettings(t, tenantID, accounting.ProviderFiken), nil)

	var order []accounting.EntityType
	f.customers.On("ListActiveIDs", mock.Anything, tenantID).Run(func(mock.Arguments) {
		order = append(order, accounting.EntityTypeCustomer)
	}).Return([]uuid.UUID{}, nil)
	f.orders.On("ListCompletedIDs", mock.Anything, tenantID).Run(func(mock.Arguments) {
		order = append(order, accounting.EntityTypeInvoice)
	}).Return([]uuid.UUID{}, nil)
	f.orders.On("ListPaidOrderIDs", mock.Anything, tenantID).Run(func(mock.Arguments) {
		order = append(order, accounting.EntityTypePayment)
	}).Return([]uuid.UUID{}, nil)
	f.mappings.On("FindSyncedLocalIDs", mock.Anything, tenantID, accounting.ProviderFiken, mock.Anything).
		Return([]uuid.UUID{}, nil)
	f.syncLog.On("Append", mock.Anything, mock.Anything).Return(nil)

	results, err := f.service.SyncAll(context.Background(), tenantID, accounting.ProviderFiken, accounting.TriggerManual)

	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, []accounting.EntityType{
		accounting.EntityTypeCustomer,
		accounting.EntityTypeInvoice,
		accounting.EntityTypePayment,
	}, order)
	f.syncLog.AssertNumberOfCalls(t, "Append", 3)
}
