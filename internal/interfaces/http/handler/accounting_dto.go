package handler

import (
	"time"

	"github.com/google/uuid"

	appaccounting "github.com/barbertime/backend/internal/application/accounting"
	"github.com/barbertime/backend/internal/domain/accounting"
)

// UpdateAccountingSettingsRequest represents a settings update request.
// Secret fields left empty keep their stored values.
type UpdateAccountingSettingsRequest struct {
	Enabled         bool   `json:"enabled"`
	AutoSyncEnabled bool   `json:"auto_sync_enabled"`
	ClientID        string `json:"client_id" binding:"max=255"`
	ClientSecret    string `json:"client_secret" binding:"max=255"`
	ConsumerToken   string `json:"consumer_token" binding:"max=255"`
	EmployeeToken   string `json:"employee_token" binding:"max=255"`
	CompanyID       string `json:"company_id" binding:"max=100"`
	CompanySlug     string `json:"company_slug" binding:"max=100"`
	PaymentAccount  string `json:"payment_account" binding:"max=20"`
}

// BulkSyncRequest optionally narrows a bulk sync to specific entity IDs.
// An empty list means sync everything that is not synced yet.
type BulkSyncRequest struct {
	IDs []string `json:"ids" binding:"omitempty,dive,uuid"`
}

func (r *BulkSyncRequest) parsedIDs() ([]uuid.UUID, error) {
	if len(r.IDs) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(r.IDs))
	for _, raw := range r.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// AccountingSettingsResponse is the settings read model. Secrets are
// reduced to presence flags.
type AccountingSettingsResponse struct {
	Provider         string     `json:"provider"`
	ProviderName     string     `json:"provider_name"`
	Enabled          bool       `json:"enabled"`
	AutoSyncEnabled  bool       `json:"auto_sync_enabled"`
	ClientID         string     `json:"client_id,omitempty"`
	HasClientSecret  bool       `json:"has_client_secret"`
	HasConsumerToken bool       `json:"has_consumer_token"`
	HasEmployeeToken bool       `json:"has_employee_token"`
	CompanyID        string     `json:"company_id,omitempty"`
	CompanySlug      string     `json:"company_slug,omitempty"`
	PaymentAccount   string     `json:"payment_account,omitempty"`
	Connected        bool       `json:"connected"`
	TokenExpiresAt   *time.Time `json:"token_expires_at,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// NewAccountingSettingsResponse converts a settings view to a response
func NewAccountingSettingsResponse(view *appaccounting.SettingsView) AccountingSettingsResponse {
	return AccountingSettingsResponse{
		Provider:         view.Provider.String(),
		ProviderName:     view.ProviderName,
		Enabled:          view.Enabled,
		AutoSyncEnabled:  view.AutoSyncEnabled,
		ClientID:         view.ClientID,
		HasClientSecret:  view.HasClientSecret,
		HasConsumerToken: view.HasConsumerToken,
		HasEmployeeToken: view.HasEmployeeToken,
		CompanyID:        view.CompanyID,
		CompanySlug:      view.CompanySlug,
		PaymentAccount:   view.PaymentAccount,
		Connected:        view.Connected,
		TokenExpiresAt:   view.TokenExpiresAt,
		UpdatedAt:        view.UpdatedAt,
	}
}

// ConnectionStatusResponse is the result of a test-connection probe
type ConnectionStatusResponse struct {
	Success     bool   `json:"success"`
	CompanyName string `json:"company_name,omitempty"`
	Error       string `json:"error,omitempty"`
}

// SyncItemResultResponse is the outcome of syncing one entity
type SyncItemResultResponse struct {
	LocalID  string `json:"local_id"`
	Success  bool   `json:"success"`
	RemoteID string `json:"remote_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// BulkSyncResultResponse aggregates one bulk sync run
type BulkSyncResultResponse struct {
	Success        bool                     `json:"success"`
	Status         string                   `json:"status"`
	TotalProcessed int                      `json:"total_processed"`
	TotalFailed    int                      `json:"total_failed"`
	Results        []SyncItemResultResponse `json:"results"`
}

// NewBulkSyncResultResponse converts a bulk sync result to a response
func NewBulkSyncResultResponse(result *accounting.BulkSyncResult) BulkSyncResultResponse {
	items := make([]SyncItemResultResponse, 0, len(result.Results))
	for _, r := range result.Results {
		items = append(items, SyncItemResultResponse{
			LocalID:  r.LocalID.String(),
			Success:  r.Success,
			RemoteID: r.RemoteID,
			Error:    r.Error,
		})
	}
	return BulkSyncResultResponse{
		Success:        result.Success,
		Status:         string(result.Status()),
		TotalProcessed: result.TotalProcessed,
		TotalFailed:    result.TotalFailed,
		Results:        items,
	}
}

// SyncAllResponse holds per-entity-type results of a full sync
type SyncAllResponse struct {
	Customers *BulkSyncResultResponse `json:"customers,omitempty"`
	Invoices  *BulkSyncResultResponse `json:"invoices,omitempty"`
	Payments  *BulkSyncResultResponse `json:"payments,omitempty"`
}

// NewSyncAllResponse converts the per-type result map to a response
func NewSyncAllResponse(results map[accounting.EntityType]*accounting.BulkSyncResult) SyncAllResponse {
	var resp SyncAllResponse
	if r, ok := results[accounting.EntityTypeCustomer]; ok {
		converted := NewBulkSyncResultResponse(r)
		resp.Customers = &converted
	}
	if r, ok := results[accounting.EntityTypeInvoice]; ok {
		converted := NewBulkSyncResultResponse(r)
		resp.Invoices = &converted
	}
	if r, ok := results[accounting.EntityTypePayment]; ok {
		converted := NewBulkSyncResultResponse(r)
		resp.Payments = &converted
	}
	return resp
}

// SyncLogEntryResponse is one row of the sync history
type SyncLogEntryResponse struct {
	ID             string    `json:"id"`
	Operation      string    `json:"operation"`
	Status         string    `json:"status"`
	ItemsProcessed int       `json:"items_processed"`
	ItemsFailed    int       `json:"items_failed"`
	Details        string    `json:"details,omitempty"`
	DurationMS     int64     `json:"duration_ms"`
	TriggeredBy    string    `json:"triggered_by"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewSyncLogResponse converts sync log entries to responses
func NewSyncLogResponse(entries []*accounting.SyncLogEntry) []SyncLogEntryResponse {
	out := make([]SyncLogEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, SyncLogEntryResponse{
			ID:             e.ID.String(),
			Operation:      e.Operation,
			Status:         string(e.Status),
			ItemsProcessed: e.ItemsProcessed,
			ItemsFailed:    e.ItemsFailed,
			Details:        e.Details,
			DurationMS:     e.DurationMS,
			TriggeredBy:    string(e.TriggeredBy),
			CreatedAt:      e.CreatedAt,
		})
	}
	return out
}

// UnsyncedCountsResponse summarizes entities still waiting for sync
type UnsyncedCountsResponse struct {
	Customers int64 `json:"customers"`
	Invoices  int64 `json:"invoices"`
	Payments  int64 `json:"payments"`
	Total     int64 `json:"total"`
}

// NewUnsyncedCountsResponse converts unsynced counts to a response
func NewUnsyncedCountsResponse(counts *accounting.UnsyncedCounts) UnsyncedCountsResponse {
	return UnsyncedCountsResponse{
		Customers: counts.Customers,
		Invoices:  counts.Invoices,
		Payments:  counts.Payments,
		Total:     counts.Total(),
	}
}
