package accounting

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

var (
	// Provider/token errors
	ErrNotConfigured = errors.New("accounting: provider credentials not configured")
	ErrNotEnabled    = errors.New("accounting: provider not enabled for tenant")
	ErrRefreshFailed = errors.New("accounting: oauth token refresh failed")
	ErrAuthExpired   = errors.New("accounting: authentication expired")
	ErrRemoteAPI     = errors.New("accounting: remote api error")
	ErrNetwork       = errors.New("accounting: network error")
	ErrTimeout       = errors.New("accounting: remote call timed out")

	// Sync errors
	ErrDependencyNotSynced = errors.New("accounting: dependent entity not synced")
	ErrValidation          = errors.New("accounting: local data cannot be mapped to remote schema")

	// Lookup errors
	ErrSettingsNotFound = errors.New("accounting: provider settings not found")
	ErrMappingNotFound  = errors.New("accounting: entity mapping not found")
	ErrUnknownProvider  = errors.New("accounting: unknown provider code")

	// Field validation errors
	ErrInvalidTenantID = errors.New("accounting: invalid tenant ID")
	ErrInvalidLocalID  = errors.New("accounting: invalid local entity ID")
)

// ---------------------------------------------------------------------------
// ProviderCode
// ---------------------------------------------------------------------------

// ProviderCode identifies an external accounting system.
type ProviderCode string

const (
	// ProviderFiken is the Fiken accounting system (api.fiken.no, v2)
	ProviderFiken ProviderCode = "fiken"
	// ProviderTripletex is the Tripletex accounting system (v2)
	ProviderTripletex ProviderCode = "tripletex"
	// ProviderUnimicro is the Unimicro accounting system
	ProviderUnimicro ProviderCode = "unimicro"
	// ProviderDNB is DNB Regnskap
	ProviderDNB ProviderCode = "dnb"
)

// IsValid returns true if the provider code is known.
func (c ProviderCode) IsValid() bool {
	switch c {
	case ProviderFiken, ProviderTripletex, ProviderUnimicro, ProviderDNB:
		return true
	default:
		return false
	}
}

// String returns the string representation of the provider code.
func (c ProviderCode) String() string {
	return string(c)
}

// DisplayName returns a human-readable provider name.
func (c ProviderCode) DisplayName() string {
	switch c {
	case ProviderFiken:
		return "Fiken"
	case ProviderTripletex:
		return "Tripletex"
	case ProviderUnimicro:
		return "Unimicro"
	case ProviderDNB:
		return "DNB Regnskap"
	default:
		return string(c)
	}
}

// ---------------------------------------------------------------------------
// EntityType
// ---------------------------------------------------------------------------

// EntityType identifies the kind of local entity being synced.
type EntityType string

const (
	// EntityTypeCustomer maps a local customer to a remote contact.
	EntityTypeCustomer EntityType = "customer"
	// EntityTypeInvoice maps a local order to a remote invoice.
	EntityTypeInvoice EntityType = "invoice"
	// EntityTypePayment maps a local order payment to a remote invoice payment.
	EntityTypePayment EntityType = "payment"
)

// IsValid returns true if the entity type is known.
func (t EntityType) IsValid() bool {
	switch t {
	case EntityTypeCustomer, EntityTypeInvoice, EntityTypePayment:
		return true
	default:
		return false
	}
}

// String returns the string representation of the entity type.
func (t EntityType) String() string {
	return string(t)
}

// ---------------------------------------------------------------------------
// Statuses
// ---------------------------------------------------------------------------

// MappingStatus is the sync state of a single entity mapping.
type MappingStatus string

const (
	MappingStatusPending MappingStatus = "pending"
	MappingStatusSynced  MappingStatus = "synced"
	MappingStatusFailed  MappingStatus = "failed"
)

// IsValid returns true if the status is known.
func (s MappingStatus) IsValid() bool {
	switch s {
	case MappingStatusPending, MappingStatusSynced, MappingStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of the mapping status.
func (s MappingStatus) String() string {
	return string(s)
}

// RunStatus is the aggregate outcome of one sync invocation.
type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusPartial RunStatus = "partial"
	RunStatusFailed  RunStatus = "failed"
)

// String returns the string representation of the run status.
func (s RunStatus) String() string {
	return string(s)
}

// TriggerSource records what initiated a sync run.
type TriggerSource string

const (
	TriggerManual TriggerSource = "manual"
	TriggerAuto   TriggerSource = "auto"
)

// ---------------------------------------------------------------------------
// Value objects exchanged with providers
// ---------------------------------------------------------------------------

// ContactUpsert is the provider-agnostic shape of a customer pushed to a
// remote accounting system.
type ContactUpsert struct {
	// Name is the contact's full name.
	Name string
	// Email is the contact email, empty if unknown.
	Email string
	// Phone is the contact phone number, empty if unknown.
	Phone string
	// OrganizationNumber is set for business customers only.
	OrganizationNumber string
}

// Validate checks the minimum fields a remote contact requires.
func (c *ContactUpsert) Validate() error {
	if c.Name == "" {
		return ErrValidation
	}
	return nil
}

// InvoiceLine is one line of a remote invoice with amounts computed per line.
type InvoiceLine struct {
	// Description is the line text (service or product name).
	Description string
	// Quantity is the number of units.
	Quantity decimal.Decimal
	// UnitPrice is the net price per unit.
	UnitPrice decimal.Decimal
	// VATRate is the VAT percentage applied to this line (e.g. 25).
	VATRate decimal.Decimal
	// NetAmount is quantity * unit price, rounded to 2 decimals.
	NetAmount decimal.Decimal
	// VATAmount is net * rate/100, rounded to 2 decimals.
	VATAmount decimal.Decimal
	// GrossAmount is net + VAT.
	GrossAmount decimal.Decimal
	// VATType is the provider VAT classification (e.g. "HIGH" for 25%).
	VATType string
}

// InvoiceDraft is the provider-agnostic shape of an invoice to create remotely.
type InvoiceDraft struct {
	// RemoteContactID is the already-synced remote contact the invoice bills.
	RemoteContactID string
	// IssueDate is the invoice issue date.
	IssueDate time.Time
	// DueDate is the payment due date.
	DueDate time.Time
	// Currency is the invoice currency (NOK for all providers here).
	Currency string
	// Lines contains the invoice lines.
	Lines []InvoiceLine
	// OrderNumber is the local order reference carried for traceability.
	OrderNumber string
}

// Validate checks the draft can be sent to a provider.
func (d *InvoiceDraft) Validate() error {
	if d.RemoteContactID == "" {
		return ErrDependencyNotSynced
	}
	if len(d.Lines) == 0 {
		return ErrValidation
	}
	return nil
}

// RemoteInvoice is the provider's handle for a created invoice.
type RemoteInvoice struct {
	// RemoteID is the invoice ID in the provider's system.
	RemoteID string
	// InvoiceNumber is the human-facing invoice number, if assigned.
	InvoiceNumber string
}

// PaymentDraft registers a payment against an already-synced remote invoice.
type PaymentDraft struct {
	// RemoteInvoiceID is the remote invoice the payment settles.
	RemoteInvoiceID string
	// Amount is the payment amount.
	Amount decimal.Decimal
	// PaidAt is when the payment was received.
	PaidAt time.Time
	// Account is the provider bookkeeping account code, empty for the
	// tenant's configured default.
	Account string
}

// Validate checks the draft can be sent to a provider.
func (d *PaymentDraft) Validate() error {
	if d.RemoteInvoiceID == "" {
		return ErrDependencyNotSynced
	}
	if d.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrValidation
	}
	return nil
}

// ConnectionStatus is the result of a test-connection probe.
type ConnectionStatus struct {
	// Success is true if the provider accepted our credentials.
	Success bool
	// CompanyName is the remote company we are connected to, when known.
	CompanyName string
	// Error describes the failure when Success is false.
	Error string
}

// ---------------------------------------------------------------------------
// Sync results
// ---------------------------------------------------------------------------

// SyncItemResult is the outcome of syncing one local entity.
type SyncItemResult struct {
	// LocalID identifies the local entity.
	LocalID uuid.UUID
	// Success is true if the entity now has a synced mapping.
	Success bool
	// RemoteID is the remote entity ID on success.
	RemoteID string
	// Error describes the failure when Success is false.
	Error string
}

// BulkSyncResult aggregates the outcome of one bulk sync invocation.
// Callers must inspect TotalFailed; per-item failures never surface as errors.
type BulkSyncResult struct {
	// Success is true when no item failed.
	Success bool
	// Results holds per-item outcomes in processing order.
	Results []SyncItemResult
	// TotalProcessed is the number of items attempted.
	TotalProcessed int
	// TotalFailed is the number of items that failed.
	TotalFailed int
}

// Status derives the aggregate run status: failed iff everything failed,
// success iff nothing failed, partial otherwise.
func (r *BulkSyncResult) Status() RunStatus {
	switch {
	case r.TotalFailed == 0:
		return RunStatusSuccess
	case r.TotalFailed == r.TotalProcessed:
		return RunStatusFailed
	default:
		return RunStatusPartial
	}
}

// ---------------------------------------------------------------------------
// AccountingProvider port interface
// ---------------------------------------------------------------------------

// AccountingProvider is the port interface for external accounting systems.
// It is defined in the domain layer; concrete clients (Fiken, Tripletex,
// Unimicro, DNB Regnskap) are infrastructure adapters. The sync executor and
// orchestrator depend only on this interface.
type AccountingProvider interface {
	// Code returns the provider code this client handles.
	Code() ProviderCode

	// TestConnection verifies the stored credentials against the provider.
	TestConnection(ctx context.Context, tenantID uuid.UUID) (*ConnectionStatus, error)

	// CreateContact creates a remote contact and returns its remote ID.
	CreateContact(ctx context.Context, tenantID uuid.UUID, contact *ContactUpsert) (string, error)

	// UpdateContact updates an existing remote contact.
	UpdateContact(ctx context.Context, tenantID uuid.UUID, remoteID string, contact *ContactUpsert) error

	// CreateInvoice creates a remote invoice for an already-synced contact.
	CreateInvoice(ctx context.Context, tenantID uuid.UUID, draft *InvoiceDraft) (*RemoteInvoice, error)

	// RegisterPayment records a payment against an already-synced invoice.
	RegisterPayment(ctx context.Context, tenantID uuid.UUID, draft *PaymentDraft) (string, error)
}

// ProviderRegistry resolves provider clients by code.
type ProviderRegistry interface {
	// Get returns the client for the given code, or ErrUnknownProvider.
	Get(code ProviderCode) (AccountingProvider, error)

	// List returns all registered provider clients.
	List() []AccountingProvider
}
