package accounting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/barbertime/backend/internal/domain/accounting"
)

const (
	defaultTripletexBaseURL = "https://tripletex.no/v2"
	// sessionLifetime matches the expiration date sent on session create.
	tripletexSessionLifetime = 30 * 24 * time.Hour
)

// Tripletex vatType IDs for the Norwegian output VAT rates.
var tripletexVATTypes = map[string]int64{
	"HIGH":   3,
	"MEDIUM": 31,
	"LOW":    32,
	"EXEMPT": 5,
}

// TripletexClient implements AccountingProvider for Tripletex. Tripletex
// does not use OAuth: a session token is derived from the tenant's consumer
// and employee tokens and sent as HTTP Basic companyId:sessionToken. The
// session is stored in the settings token fields and recreated when it
// expires or the API returns 401.
type TripletexClient struct {
	settings   accounting.ProviderSettingsRepository
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

// TripletexOption is a functional option for configuring the client.
type TripletexOption func(*TripletexClient)

// WithTripletexBaseURL overrides the API base URL.
func WithTripletexBaseURL(baseURL string) TripletexOption {
	return func(c *TripletexClient) {
		c.baseURL = baseURL
	}
}

// WithTripletexHTTPClient overrides the HTTP client.
func WithTripletexHTTPClient(client *http.Client) TripletexOption {
	return func(c *TripletexClient) {
		c.httpClient = client
	}
}

// NewTripletexClient creates a new TripletexClient.
func NewTripletexClient(settings accounting.ProviderSettingsRepository, logger *zap.Logger, opts ...TripletexOption) *TripletexClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &TripletexClient{
		settings:   settings,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultTripletexBaseURL,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Code returns the provider code this client handles.
func (c *TripletexClient) Code() accounting.ProviderCode {
	return accounting.ProviderTripletex
}

// TestConnection fetches the company resource to verify the session works.
func (c *TripletexClient) TestConnection(ctx context.Context, tenantID uuid.UUID) (*accounting.ConnectionStatus, error) {
	body, err := c.doRequest(ctx, tenantID, http.MethodGet, "/company", nil)
	if err != nil {
		return &accounting.ConnectionStatus{Success: false, Error: err.Error()}, nil
	}

	var company tripletexCompanyResponse
	if err := json.Unmarshal(body, &company); err != nil {
		return &accounting.ConnectionStatus{Success: false, Error: "tripletex: unexpected company response"}, nil
	}
	return &accounting.ConnectionStatus{Success: true, CompanyName: company.Value.Name}, nil
}

// CreateContact creates a remote customer.
func (c *TripletexClient) CreateContact(ctx context.Context, tenantID uuid.UUID, contact *accounting.ContactUpsert) (string, error) {
	payload := tripletexCustomerRequest{
		Name:                  contact.Name,
		Email:                 contact.Email,
		PhoneNumber:           contact.Phone,
		OrganizationNumber:    contact.OrganizationNumber,
		CustomerAccountNumber: 1500,
		IsCustomer:            true,
	}
	body, err := c.doRequest(ctx, tenantID, http.MethodPost, "/customer", payload)
	if err != nil {
		return "", err
	}

	var created tripletexCustomerResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("%w: decoding customer: %v", accounting.ErrRemoteAPI, err)
	}
	if created.Value.ID == 0 {
		return "", fmt.Errorf("%w: customer response missing id", accounting.ErrRemoteAPI)
	}
	return strconv.FormatInt(created.Value.ID, 10), nil
}

// UpdateContact updates an existing remote customer.
func (c *TripletexClient) UpdateContact(ctx context.Context, tenantID uuid.UUID, remoteID string, contact *accounting.ContactUpsert) error {
	payload := tripletexCustomerRequest{
		Name:                  contact.Name,
		Email:                 contact.Email,
		PhoneNumber:           contact.Phone,
		OrganizationNumber:    contact.OrganizationNumber,
		CustomerAccountNumber: 1500,
		IsCustomer:            true,
	}
	_, err := c.doRequest(ctx, tenantID, http.MethodPut, "/customer/"+remoteID, payload)
	return err
}

// CreateInvoice creates a remote invoice with its order lines.
func (c *TripletexClient) CreateInvoice(ctx context.Context, tenantID uuid.UUID, draft *accounting.InvoiceDraft) (*accounting.RemoteInvoice, error) {
	customerID, err := strconv.ParseInt(draft.RemoteContactID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: customer id %q is not numeric", accounting.ErrValidation, draft.RemoteContactID)
	}

	lines := make([]tripletexOrderLine, 0, len(draft.Lines))
	for _, line := range draft.Lines {
		vatTypeID, ok := tripletexVATTypes[line.VATType]
		if !ok {
			vatTypeID = tripletexVATTypes["HIGH"]
		}
		lines = append(lines, tripletexOrderLine{
			Description:                   line.Description,
			Count:                         line.Quantity.String(),
			UnitPriceExcludingVatCurrency: line.UnitPrice.StringFixed(2),
			VATType:                       tripletexRef{ID: vatTypeID},
		})
	}

	payload := tripletexInvoiceRequest{
		InvoiceDate:    draft.IssueDate.Format("2006-01-02"),
		DueDate:        draft.DueDate.Format("2006-01-02"),
		Customer:       tripletexRef{ID: customerID},
		OrderLines:     lines,
		InvoiceRemarks: draft.OrderNumber,
	}
	body, err := c.doRequest(ctx, tenantID, http.MethodPost, "/invoice", payload)
	if err != nil {
		return nil, err
	}

	var created tripletexInvoiceResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("%w: decoding invoice: %v", accounting.ErrRemoteAPI, err)
	}
	if created.Value.ID == 0 {
		return nil, fmt.Errorf("%w: invoice response missing id", accounting.ErrRemoteAPI)
	}
	remote := &accounting.RemoteInvoice{RemoteID: strconv.FormatInt(created.Value.ID, 10)}
	if created.Value.InvoiceNumber != 0 {
		remote.InvoiceNumber = strconv.FormatInt(created.Value.InvoiceNumber, 10)
	}
	return remote, nil
}

// RegisterPayment records a payment against a remote invoice.
func (c *TripletexClient) RegisterPayment(ctx context.Context, tenantID uuid.UUID, draft *accounting.PaymentDraft) (string, error) {
	invoiceID, err := strconv.ParseInt(draft.RemoteInvoiceID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: invoice id %q is not numeric", accounting.ErrValidation, draft.RemoteInvoiceID)
	}

	payload := tripletexPaymentRequest{
		Invoice:     tripletexRef{ID: invoiceID},
		Amount:      draft.Amount.StringFixed(2),
		PaymentDate: draft.PaidAt.Format("2006-01-02"),
		PaymentType: tripletexRef{ID: 1},
	}
	body, err := c.doRequest(ctx, tenantID, http.MethodPut, "/invoice/"+draft.RemoteInvoiceID+"/:payment", payload)
	if err != nil {
		return "", err
	}

	var created tripletexPaymentResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("%w: decoding payment: %v", accounting.ErrRemoteAPI, err)
	}
	return strconv.FormatInt(created.Value.ID, 10), nil
}

// ---------------------------------------------------------------------------
// Session handling
// ---------------------------------------------------------------------------

// sessionToken returns a valid session token, creating one when the stored
// session is missing or expired.
func (c *TripletexClient) sessionToken(ctx context.Context, tenantID uuid.UUID, force bool) (*accounting.ProviderSettings, error) {
	settings, err := c.settings.FindByTenantAndProvider(ctx, tenantID, accounting.ProviderTripletex)
	if err != nil {
		return nil, accounting.ErrNotConfigured
	}
	if !settings.Enabled {
		return nil, accounting.ErrNotEnabled
	}
	if !settings.IsConfigured() {
		return nil, accounting.ErrNotConfigured
	}
	if !force && !settings.TokenExpired(time.Now()) {
		return settings, nil
	}
	if err := c.createSession(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// createSession exchanges the consumer and employee tokens for a session
// token valid for 30 days, persisting it in the settings token fields.
func (c *TripletexClient) createSession(ctx context.Context, settings *accounting.ProviderSettings) error {
	expiresAt := time.Now().Add(tripletexSessionLifetime)
	payload := tripletexSessionRequest{
		ConsumerToken:  settings.ConsumerToken,
		EmployeeToken:  settings.EmployeeToken,
		ExpirationDate: expiresAt.Format("2006-01-02"),
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("tripletex: failed to marshal session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/token/session/:create", bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("tripletex: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wrapTransportError("tripletex", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("tripletex: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: tripletex session create failed with HTTP %d", accounting.ErrRefreshFailed, resp.StatusCode)
	}

	var session tripletexSessionResponse
	if err := json.Unmarshal(body, &session); err != nil {
		return fmt.Errorf("%w: decoding session: %v", accounting.ErrRefreshFailed, err)
	}
	if session.Value.Token == "" {
		return fmt.Errorf("%w: empty session token", accounting.ErrRefreshFailed)
	}

	settings.ApplyTokens(session.Value.Token, "", expiresAt)
	if err := c.settings.UpdateTokens(ctx, settings); err != nil {
		return fmt.Errorf("%w: persisting session: %v", accounting.ErrRefreshFailed, err)
	}

	c.logger.Info("Tripletex session created",
		zap.String("tenant_id", settings.TenantID.String()),
		zap.Time("expires_at", expiresAt))
	return nil
}

// doRequest performs one authenticated call. A 401 triggers exactly one
// session recreate and retry.
func (c *TripletexClient) doRequest(ctx context.Context, tenantID uuid.UUID, method, path string, payload any) ([]byte, error) {
	var bodyBytes []byte
	if payload != nil {
		var err error
		bodyBytes, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("tripletex: failed to marshal request: %w", err)
		}
	}

	for attempt := 0; attempt < 2; attempt++ {
		settings, err := c.sessionToken(ctx, tenantID, attempt > 0)
		if err != nil {
			return nil, err
		}

		companyID := settings.CompanyID
		if companyID == "" {
			// 0 selects the company the session was created for.
			companyID = "0"
		}

		var reqBody io.Reader
		if bodyBytes != nil {
			reqBody = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return nil, fmt.Errorf("tripletex: failed to create request: %w", err)
		}
		req.SetBasicAuth(companyID, settings.AccessToken)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, wrapTransportError("tripletex", err)
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("tripletex: failed to read response: %w", readErr)
		}

		if resp.StatusCode == http.StatusUnauthorized {
			continue
		}
		if resp.StatusCode >= 400 {
			var apiErr tripletexError
			if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
				return nil, fmt.Errorf("%w: tripletex HTTP %d: %s", accounting.ErrRemoteAPI, resp.StatusCode, apiErr.Message)
			}
			return nil, fmt.Errorf("%w: tripletex HTTP %d", accounting.ErrRemoteAPI, resp.StatusCode)
		}
		return body, nil
	}
	return nil, fmt.Errorf("%w: tripletex rejected the recreated session", accounting.ErrAuthExpired)
}

var _ accounting.AccountingProvider = (*TripletexClient)(nil)
