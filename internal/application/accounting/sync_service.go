package accounting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/barbertime/backend/internal/domain/accounting"
	"github.com/barbertime/backend/internal/domain/partner"
	"github.com/barbertime/backend/internal/domain/trade"
)

const (
	defaultDueDays        = 14
	defaultCurrency       = "NOK"
	defaultRequestTimeout = 30 * time.Second
)

// SyncConfig holds the orchestration knobs.
type SyncConfig struct {
	// MaxConcurrency bounds parallel item syncs within one bulk run.
	// 1 means serial, which keeps provider rate limits happy.
	MaxConcurrency int
	// RequestTimeout caps each remote provider call.
	RequestTimeout time.Duration
}

func (c SyncConfig) normalized() SyncConfig {
	if c.MaxConcurrency < 1 {
		c.MaxConcurrency = 1
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	return c
}

// SyncServiceImpl pushes local customers, invoices and payments to external
// accounting systems. Single-entity methods never return item-level errors;
// the outcome lands in the mapping row and the returned SyncItemResult.
type SyncServiceImpl struct {
	registry  accounting.ProviderRegistry
	settings  accounting.ProviderSettingsRepository
	mappings  accounting.EntityMappingRepository
	syncLog   accounting.SyncLogRepository
	counts    accounting.CountsCache
	customers partner.CustomerRepository
	orders    trade.OrderRepository
	config    SyncConfig
	logger    *zap.Logger
}

// NewSyncService creates a new SyncServiceImpl.
func NewSyncService(
	registry accounting.ProviderRegistry,
	settings accounting.ProviderSettingsRepository,
	mappings accounting.EntityMappingRepository,
	syncLog accounting.SyncLogRepository,
	counts accounting.CountsCache,
	customers partner.CustomerRepository,
	orders trade.OrderRepository,
	config SyncConfig,
	logger *zap.Logger,
) *SyncServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncServiceImpl{
		registry:  registry,
		settings:  settings,
		mappings:  mappings,
		syncLog:   syncLog,
		counts:    counts,
		customers: customers,
		orders:    orders,
		config:    config.normalized(),
		logger:    logger,
	}
}

// ---------------------------------------------------------------------------
// Sync Executor
// ---------------------------------------------------------------------------

// SyncCustomer pushes one customer to the provider as a contact. Creates the
// remote contact on first sync, updates it when a remote ID already exists.
func (s *SyncServiceImpl) SyncCustomer(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, customerID uuid.UUID) accounting.SyncItemResult {
	mapping, result := s.prepareMapping(ctx, tenantID, provider, accounting.EntityTypeCustomer, customerID)
	if mapping == nil {
		return result
	}

	client, err := s.registry.Get(provider)
	if err != nil {
		return s.recordFailure(ctx, mapping, err)
	}

	customer, err := s.customers.FindByID(ctx, tenantID, customerID)
	if err != nil {
		return s.recordFailure(ctx, mapping, err)
	}

	contact := &accounting.ContactUpsert{
		Name:               customer.FullName(),
		Email:              customer.Email,
		Phone:              customer.Phone,
		OrganizationNumber: customer.OrganizationNumber,
	}
	if err := contact.Validate(); err != nil {
		return s.recordFailure(ctx, mapping, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	if mapping.RemoteID != "" {
		if err := client.UpdateContact(callCtx, tenantID, mapping.RemoteID, contact); err != nil {
			return s.recordFailure(ctx, mapping, err)
		}
		return s.recordSuccess(ctx, mapping, mapping.RemoteID)
	}

	remoteID, err := client.CreateContact(callCtx, tenantID, contact)
	if err != nil {
		return s.recordFailure(ctx, mapping, err)
	}
	return s.recordSuccess(ctx, mapping, remoteID)
}

// SyncOrder pushes one completed order to the provider as an invoice. The
// order's customer must already have a synced mapping; invoices are created
// once and never updated remotely.
func (s *SyncServiceImpl) SyncOrder(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, orderID uuid.UUID) accounting.SyncItemResult {
	mapping, result := s.prepareMapping(ctx, tenantID, provider, accounting.EntityTypeInvoice, orderID)
	if mapping == nil {
		return result
	}
	if mapping.IsSynced() {
		return successResult(mapping)
	}

	client, err := s.registry.Get(provider)
	if err != nil {
		return s.recordFailure(ctx, mapping, err)
	}

	order, err := s.orders.FindByID(ctx, tenantID, orderID)
	if err != nil {
		return s.recordFailure(ctx, mapping, err)
	}
	if err := order.Validate(); err != nil {
		return s.recordFailure(ctx, mapping, err)
	}

	customerMapping, err := s.mappings.Find(ctx, tenantID, provider, accounting.EntityTypeCustomer, order.CustomerID)
	switch {
	case errors.Is(err, accounting.ErrMappingNotFound):
		return s.recordFailure(ctx, mapping, accounting.ErrDependencyNotSynced)
	case err != nil:
		return s.recordFailure(ctx, mapping, err)
	case !customerMapping.IsSynced():
		return s.recordFailure(ctx, mapping, accounting.ErrDependencyNotSynced)
	}

	draft := buildInvoiceDraft(order, customerMapping.RemoteID)
	if err := draft.Validate(); err != nil {
		return s.recordFailure(ctx, mapping, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	invoice, err := client.CreateInvoice(callCtx, tenantID, draft)
	if err != nil {
		return s.recordFailure(ctx, mapping, err)
	}
	return s.recordSuccess(ctx, mapping, invoice.RemoteID)
}

// SyncPayment registers an order's settled payments against its remote
// invoice. The invoice mapping must already be synced.
func (s *SyncServiceImpl) SyncPayment(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, orderID uuid.UUID) accounting.SyncItemResult {
	mapping, result := s.prepareMapping(ctx, tenantID, provider, accounting.EntityTypePayment, orderID)
	if mapping == nil {
		return result
	}
	if mapping.IsSynced() {
		return successResult(mapping)
	}

	client, err := s.registry.Get(provider)
	if err != nil {
		return s.recordFailure(ctx, mapping, err)
	}

	order, err := s.orders.FindByID(ctx, tenantID, orderID)
	if err != nil {
		return s.recordFailure(ctx, mapping, err)
	}
	if len(order.Payments) == 0 {
		return s.recordFailure(ctx, mapping, fmt.Errorf("%w: order has no payments", accounting.ErrValidation))
	}

	invoiceMapping, err := s.mappings.Find(ctx, tenantID, provider, accounting.EntityTypeInvoice, orderID)
	switch {
	case errors.Is(err, accounting.ErrMappingNotFound):
		return s.recordFailure(ctx, mapping, accounting.ErrDependencyNotSynced)
	case err != nil:
		return s.recordFailure(ctx, mapping, err)
	case !invoiceMapping.IsSynced():
		return s.recordFailure(ctx, mapping, accounting.ErrDependencyNotSynced)
	}

	settings, err := s.settings.FindByTenantAndProvider(ctx, tenantID, provider)
	if err != nil {
		return s.recordFailure(ctx, mapping, err)
	}

	draft := buildPaymentDraft(order, invoiceMapping.RemoteID, settings.PaymentAccount)
	if err := draft.Validate(); err != nil {
		return s.recordFailure(ctx, mapping, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	remoteID, err := client.RegisterPayment(callCtx, tenantID, draft)
	if err != nil {
		return s.recordFailure(ctx, mapping, err)
	}
	return s.recordSuccess(ctx, mapping, remoteID)
}

// ---------------------------------------------------------------------------
// Bulk Sync Orchestrator
// ---------------------------------------------------------------------------

// BulkSync runs the executor over a set of local entities. When ids is
// empty, the set is every eligible local entity without a synced mapping,
// recomputed from scratch on each call. Per-item failures are collected in
// the result; the returned error is reserved for run-level failures
// (disabled integration, selection query errors), which are also logged.
func (s *SyncServiceImpl) BulkSync(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, entityType accounting.EntityType, ids []uuid.UUID, trigger accounting.TriggerSource) (*accounting.BulkSyncResult, error) {
	start := time.Now()

	settings, err := s.settings.FindByTenantAndProvider(ctx, tenantID, provider)
	if err != nil {
		return nil, s.failRun(ctx, tenantID, provider, entityType, trigger, start, err)
	}
	if !settings.Enabled {
		return nil, s.failRun(ctx, tenantID, provider, entityType, trigger, start, accounting.ErrNotEnabled)
	}

	if len(ids) == 0 {
		ids, err = s.selectUnsynced(ctx, tenantID, provider, entityType)
		if err != nil {
			return nil, s.failRun(ctx, tenantID, provider, entityType, trigger, start, err)
		}
	}

	s.logger.Info("Starting bulk sync",
		zap.String("tenant_id", tenantID.String()),
		zap.String("provider", provider.String()),
		zap.String("entity_type", entityType.String()),
		zap.Int("items", len(ids)),
		zap.String("trigger", string(trigger)))

	result := s.runItems(ctx, tenantID, provider, entityType, ids)

	entry := accounting.NewSyncLogEntry(tenantID, provider, operationFor(entityType), result.Status(), trigger)
	entry.ItemsProcessed = result.TotalProcessed
	entry.ItemsFailed = result.TotalFailed
	entry.Details = marshalFailures(result)
	entry.DurationMS = time.Since(start).Milliseconds()
	if err := s.syncLog.Append(ctx, entry); err != nil {
		s.logger.Error("Failed to append sync log entry", zap.Error(err))
	}

	if s.counts != nil {
		s.counts.Invalidate(ctx, tenantID, provider)
	}

	return result, nil
}

// SyncAll runs customer, invoice and payment bulk syncs in dependency
// order. Each pass writes its own sync log entry.
func (s *SyncServiceImpl) SyncAll(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, trigger accounting.TriggerSource) (map[accounting.EntityType]*accounting.BulkSyncResult, error) {
	results := make(map[accounting.EntityType]*accounting.BulkSyncResult, 3)
	for _, entityType := range []accounting.EntityType{
		accounting.EntityTypeCustomer,
		accounting.EntityTypeInvoice,
		accounting.EntityTypePayment,
	} {
		result, err := s.BulkSync(ctx, tenantID, provider, entityType, nil, trigger)
		if err != nil {
			return results, err
		}
		results[entityType] = result
	}
	return results, nil
}

// runItems executes the per-item syncs, serially unless MaxConcurrency
// allows more. Results keep selection order either way.
func (s *SyncServiceImpl) runItems(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, entityType accounting.EntityType, ids []uuid.UUID) *accounting.BulkSyncResult {
	results := make([]accounting.SyncItemResult, len(ids))

	if s.config.MaxConcurrency <= 1 {
		for i, id := range ids {
			results[i] = s.syncOne(ctx, tenantID, provider, entityType, id)
		}
	} else {
		sem := make(chan struct{}, s.config.MaxConcurrency)
		var wg sync.WaitGroup
		for i, id := range ids {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int, id uuid.UUID) {
				defer wg.Done()
				defer func() { <-sem }()
				results[i] = s.syncOne(ctx, tenantID, provider, entityType, id)
			}(i, id)
		}
		wg.Wait()
	}

	out := &accounting.BulkSyncResult{
		Results:        results,
		TotalProcessed: len(results),
	}
	for i := range results {
		if !results[i].Success {
			out.TotalFailed++
		}
	}
	out.Success = out.TotalFailed == 0
	return out
}

func (s *SyncServiceImpl) syncOne(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, entityType accounting.EntityType, id uuid.UUID) accounting.SyncItemResult {
	switch entityType {
	case accounting.EntityTypeCustomer:
		return s.SyncCustomer(ctx, tenantID, provider, id)
	case accounting.EntityTypeInvoice:
		return s.SyncOrder(ctx, tenantID, provider, id)
	case accounting.EntityTypePayment:
		return s.SyncPayment(ctx, tenantID, provider, id)
	default:
		return accounting.SyncItemResult{LocalID: id, Error: accounting.ErrValidation.Error()}
	}
}

// selectUnsynced computes the set difference between all eligible local
// entities and those already carrying a synced mapping.
func (s *SyncServiceImpl) selectUnsynced(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, entityType accounting.EntityType) ([]uuid.UUID, error) {
	var all []uuid.UUID
	var err error
	switch entityType {
	case accounting.EntityTypeCustomer:
		all, err = s.customers.ListActiveIDs(ctx, tenantID)
	case accounting.EntityTypeInvoice:
		all, err = s.orders.ListCompletedIDs(ctx, tenantID)
	case accounting.EntityTypePayment:
		all, err = s.orders.ListPaidOrderIDs(ctx, tenantID)
	default:
		return nil, accounting.ErrValidation
	}
	if err != nil {
		return nil, err
	}

	syncedIDs, err := s.mappings.FindSyncedLocalIDs(ctx, tenantID, provider, entityType)
	if err != nil {
		return nil, err
	}
	synced := make(map[uuid.UUID]struct{}, len(syncedIDs))
	for _, id := range syncedIDs {
		synced[id] = struct{}{}
	}

	selected := make([]uuid.UUID, 0, len(all))
	for _, id := range all {
		if _, ok := synced[id]; !ok {
			selected = append(selected, id)
		}
	}
	return selected, nil
}

// failRun logs a run-level failure to the sync log before returning it.
func (s *SyncServiceImpl) failRun(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, entityType accounting.EntityType, trigger accounting.TriggerSource, start time.Time, err error) error {
	s.logger.Error("Bulk sync aborted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("provider", provider.String()),
		zap.String("entity_type", entityType.String()),
		zap.Error(err))

	entry := accounting.NewSyncLogEntry(tenantID, provider, operationFor(entityType), accounting.RunStatusFailed, trigger)
	entry.Details = marshalRunError(err)
	entry.DurationMS = time.Since(start).Milliseconds()
	if logErr := s.syncLog.Append(ctx, entry); logErr != nil {
		s.logger.Error("Failed to append sync log entry", zap.Error(logErr))
	}
	return err
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// prepareMapping loads or creates the mapping for a local entity. Returns a
// nil mapping with a failed result when the identifiers are invalid or the
// lookup itself fails. Only a confirmed missing mapping may start a fresh
// one; anything else must not reach the provider, or a retry after a
// transient lookup failure would create a duplicate remote record.
func (s *SyncServiceImpl) prepareMapping(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, entityType accounting.EntityType, localID uuid.UUID) (*accounting.EntityMapping, accounting.SyncItemResult) {
	mapping, err := s.mappings.Find(ctx, tenantID, provider, entityType, localID)
	if err == nil {
		return mapping, accounting.SyncItemResult{}
	}
	if !errors.Is(err, accounting.ErrMappingNotFound) {
		return nil, accounting.SyncItemResult{LocalID: localID, Error: err.Error()}
	}

	mapping, err = accounting.NewEntityMapping(tenantID, provider, entityType, localID)
	if err != nil {
		return nil, accounting.SyncItemResult{LocalID: localID, Error: err.Error()}
	}
	return mapping, accounting.SyncItemResult{}
}

func (s *SyncServiceImpl) recordSuccess(ctx context.Context, mapping *accounting.EntityMapping, remoteID string) accounting.SyncItemResult {
	mapping.RecordSyncSuccess(remoteID)
	if err := s.mappings.Upsert(ctx, mapping); err != nil {
		s.logger.Error("Failed to persist mapping",
			zap.String("local_id", mapping.LocalID.String()),
			zap.Error(err))
		return accounting.SyncItemResult{LocalID: mapping.LocalID, Error: err.Error()}
	}
	return successResult(mapping)
}

func (s *SyncServiceImpl) recordFailure(ctx context.Context, mapping *accounting.EntityMapping, cause error) accounting.SyncItemResult {
	mapping.RecordSyncFailure(cause.Error())
	if err := s.mappings.Upsert(ctx, mapping); err != nil {
		s.logger.Error("Failed to persist mapping",
			zap.String("local_id", mapping.LocalID.String()),
			zap.Error(err))
	}
	return accounting.SyncItemResult{LocalID: mapping.LocalID, Error: cause.Error()}
}

func successResult(mapping *accounting.EntityMapping) accounting.SyncItemResult {
	return accounting.SyncItemResult{
		LocalID:  mapping.LocalID,
		Success:  true,
		RemoteID: mapping.RemoteID,
	}
}

func operationFor(entityType accounting.EntityType) string {
	switch entityType {
	case accounting.EntityTypeCustomer:
		return "sync_customers"
	case accounting.EntityTypeInvoice:
		return "sync_invoices"
	case accounting.EntityTypePayment:
		return "sync_payments"
	default:
		return "sync"
	}
}

// buildInvoiceDraft maps a completed order to a provider-agnostic invoice.
// Amounts are computed per line and rounded to 2 decimals.
func buildInvoiceDraft(order *trade.Order, remoteContactID string) *accounting.InvoiceDraft {
	issueDate := order.CreatedAt
	if order.CompletedAt != nil {
		issueDate = *order.CompletedAt
	}

	lines := make([]accounting.InvoiceLine, 0, len(order.Items))
	for i := range order.Items {
		item := &order.Items[i]
		lines = append(lines, accounting.InvoiceLine{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			VATRate:     item.VATRate,
			NetAmount:   item.NetAmount(),
			VATAmount:   item.VATAmount(),
			GrossAmount: item.GrossAmount(),
			VATType:     vatTypeFor(item.VATRate),
		})
	}

	return &accounting.InvoiceDraft{
		RemoteContactID: remoteContactID,
		IssueDate:       issueDate,
		DueDate:         issueDate.AddDate(0, 0, defaultDueDays),
		Currency:        defaultCurrency,
		Lines:           lines,
		OrderNumber:     order.OrderNumber,
	}
}

// buildPaymentDraft registers the order's settled total against the remote
// invoice, dated by the latest payment.
func buildPaymentDraft(order *trade.Order, remoteInvoiceID, account string) *accounting.PaymentDraft {
	draft := &accounting.PaymentDraft{
		RemoteInvoiceID: remoteInvoiceID,
		Account:         account,
	}
	for i := range order.Payments {
		p := &order.Payments[i]
		draft.Amount = draft.Amount.Add(p.Amount)
		if p.PaidAt.After(draft.PaidAt) {
			draft.PaidAt = p.PaidAt
		}
	}
	return draft
}

// Norwegian VAT rates as of 2025: 25% standard, 15% food, 12% transport
// and lodging.
var (
	vatRateMedium = decimal.NewFromInt(15)
	vatRateLow    = decimal.NewFromInt(12)
)

// vatTypeFor maps Norwegian VAT rates to provider VAT classifications.
func vatTypeFor(rate decimal.Decimal) string {
	switch {
	case rate.IsZero():
		return "EXEMPT"
	case rate.Equal(vatRateLow):
		return "LOW"
	case rate.Equal(vatRateMedium):
		return "MEDIUM"
	default:
		return "HIGH"
	}
}

func marshalFailures(result *accounting.BulkSyncResult) string {
	if result.TotalFailed == 0 {
		return ""
	}
	type failure struct {
		LocalID string `json:"localId"`
		Error   string `json:"error"`
	}
	failures := make([]failure, 0, result.TotalFailed)
	for i := range result.Results {
		r := &result.Results[i]
		if !r.Success {
			failures = append(failures, failure{LocalID: r.LocalID.String(), Error: r.Error})
		}
	}
	data, err := json.Marshal(map[string]any{"failures": failures})
	if err != nil {
		return ""
	}
	return string(data)
}

func marshalRunError(err error) string {
	data, marshalErr := json.Marshal(map[string]string{"error": err.Error()})
	if marshalErr != nil {
		return ""
	}
	return string(data)
}
