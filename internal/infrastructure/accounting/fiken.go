package accounting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/barbertime/backend/internal/domain/accounting"
)

const defaultFikenBaseURL = "https://api.fiken.no/api/v2"

// FikenClient implements AccountingProvider for Fiken. All endpoints are
// scoped by the tenant's company slug; auth is an OAuth2 Bearer token
// obtained through the token manager.
type FikenClient struct {
	settings   accounting.ProviderSettingsRepository
	tokens     *TokenManager
	httpClient *http.Client
	baseURL    string
}

// FikenOption is a functional option for configuring the client.
type FikenOption func(*FikenClient)

// WithFikenBaseURL overrides the API base URL.
func WithFikenBaseURL(baseURL string) FikenOption {
	return func(c *FikenClient) {
		c.baseURL = baseURL
	}
}

// WithFikenHTTPClient overrides the HTTP client.
func WithFikenHTTPClient(client *http.Client) FikenOption {
	return func(c *FikenClient) {
		c.httpClient = client
	}
}

// NewFikenClient creates a new FikenClient.
func NewFikenClient(settings accounting.ProviderSettingsRepository, tokens *TokenManager, opts ...FikenOption) *FikenClient {
	c := &FikenClient{
		settings:   settings,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultFikenBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Code returns the provider code this client handles.
func (c *FikenClient) Code() accounting.ProviderCode {
	return accounting.ProviderFiken
}

// TestConnection fetches the configured company to verify credentials.
func (c *FikenClient) TestConnection(ctx context.Context, tenantID uuid.UUID) (*accounting.ConnectionStatus, error) {
	slug, err := c.companySlug(ctx, tenantID)
	if err != nil {
		return &accounting.ConnectionStatus{Success: false, Error: err.Error()}, nil
	}

	body, err := c.doRequest(ctx, tenantID, http.MethodGet, "/companies/"+slug, nil)
	if err != nil {
		return &accounting.ConnectionStatus{Success: false, Error: err.Error()}, nil
	}

	var company fikenCompany
	if err := json.Unmarshal(body, &company); err != nil {
		return &accounting.ConnectionStatus{Success: false, Error: "fiken: unexpected company response"}, nil
	}
	return &accounting.ConnectionStatus{Success: true, CompanyName: company.Name}, nil
}

// CreateContact creates a remote customer contact.
func (c *FikenClient) CreateContact(ctx context.Context, tenantID uuid.UUID, contact *accounting.ContactUpsert) (string, error) {
	slug, err := c.companySlug(ctx, tenantID)
	if err != nil {
		return "", err
	}

	payload := fikenContactRequest{
		Name:               contact.Name,
		Email:              contact.Email,
		PhoneNumber:        contact.Phone,
		OrganizationNumber: contact.OrganizationNumber,
		Customer:           true,
	}
	body, err := c.doRequest(ctx, tenantID, http.MethodPost, "/companies/"+slug+"/contacts", payload)
	if err != nil {
		return "", err
	}

	var created fikenContact
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("%w: decoding contact: %v", accounting.ErrRemoteAPI, err)
	}
	if created.ContactID == 0 {
		return "", fmt.Errorf("%w: contact response missing contactId", accounting.ErrRemoteAPI)
	}
	return strconv.FormatInt(created.ContactID, 10), nil
}

// UpdateContact updates an existing remote contact.
func (c *FikenClient) UpdateContact(ctx context.Context, tenantID uuid.UUID, remoteID string, contact *accounting.ContactUpsert) error {
	slug, err := c.companySlug(ctx, tenantID)
	if err != nil {
		return err
	}

	payload := fikenContactRequest{
		Name:               contact.Name,
		Email:              contact.Email,
		PhoneNumber:        contact.Phone,
		OrganizationNumber: contact.OrganizationNumber,
		Customer:           true,
	}
	_, err = c.doRequest(ctx, tenantID, http.MethodPut, "/companies/"+slug+"/contacts/"+remoteID, payload)
	return err
}

// CreateInvoice creates a remote invoice for an already-synced contact.
func (c *FikenClient) CreateInvoice(ctx context.Context, tenantID uuid.UUID, draft *accounting.InvoiceDraft) (*accounting.RemoteInvoice, error) {
	slug, err := c.companySlug(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	customerID, err := strconv.ParseInt(draft.RemoteContactID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: contact id %q is not numeric", accounting.ErrValidation, draft.RemoteContactID)
	}

	lines := make([]fikenInvoiceLine, 0, len(draft.Lines))
	for _, line := range draft.Lines {
		vatPercent, _ := line.VATRate.Float64()
		lines = append(lines, fikenInvoiceLine{
			Description: line.Description,
			Quantity:    line.Quantity.String(),
			UnitPrice:   line.UnitPrice.StringFixed(2),
			VATType:     line.VATType,
			NetAmount:   line.NetAmount.StringFixed(2),
			VATAmount:   line.VATAmount.StringFixed(2),
			GrossAmount: line.GrossAmount.StringFixed(2),
			VATPercent:  vatPercent,
		})
	}

	payload := fikenInvoiceRequest{
		IssueDate:      draft.IssueDate.Format("2006-01-02"),
		DueDate:        draft.DueDate.Format("2006-01-02"),
		CustomerID:     customerID,
		Currency:       draft.Currency,
		Lines:          lines,
		OrderReference: draft.OrderNumber,
	}
	body, err := c.doRequest(ctx, tenantID, http.MethodPost, "/companies/"+slug+"/invoices", payload)
	if err != nil {
		return nil, err
	}

	var created fikenInvoice
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("%w: decoding invoice: %v", accounting.ErrRemoteAPI, err)
	}
	if created.InvoiceID == 0 {
		return nil, fmt.Errorf("%w: invoice response missing invoiceId", accounting.ErrRemoteAPI)
	}
	remote := &accounting.RemoteInvoice{RemoteID: strconv.FormatInt(created.InvoiceID, 10)}
	if created.InvoiceNumber != 0 {
		remote.InvoiceNumber = strconv.FormatInt(created.InvoiceNumber, 10)
	}
	return remote, nil
}

// RegisterPayment records a payment against a remote invoice.
func (c *FikenClient) RegisterPayment(ctx context.Context, tenantID uuid.UUID, draft *accounting.PaymentDraft) (string, error) {
	slug, err := c.companySlug(ctx, tenantID)
	if err != nil {
		return "", err
	}

	payload := fikenPaymentRequest{
		Date:    draft.PaidAt.Format("2006-01-02"),
		Amount:  draft.Amount.StringFixed(2),
		Account: draft.Account,
	}
	body, err := c.doRequest(ctx, tenantID, http.MethodPost, "/companies/"+slug+"/invoices/"+draft.RemoteInvoiceID+"/payments", payload)
	if err != nil {
		return "", err
	}

	var created fikenPayment
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("%w: decoding payment: %v", accounting.ErrRemoteAPI, err)
	}
	return strconv.FormatInt(created.PaymentID, 10), nil
}

// companySlug returns the tenant's configured Fiken company slug.
func (c *FikenClient) companySlug(ctx context.Context, tenantID uuid.UUID) (string, error) {
	settings, err := c.settings.FindByTenantAndProvider(ctx, tenantID, accounting.ProviderFiken)
	if err != nil {
		return "", accounting.ErrNotConfigured
	}
	if settings.CompanySlug == "" {
		return "", fmt.Errorf("%w: company slug not set", accounting.ErrNotConfigured)
	}
	return settings.CompanySlug, nil
}

// doRequest performs one authenticated call. A 401 triggers exactly one
// forced token refresh and retry; a second 401 surfaces as ErrAuthExpired.
func (c *FikenClient) doRequest(ctx context.Context, tenantID uuid.UUID, method, path string, payload any) ([]byte, error) {
	var bodyBytes []byte
	if payload != nil {
		var err error
		bodyBytes, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("fiken: failed to marshal request: %w", err)
		}
	}

	for attempt := 0; attempt < 2; attempt++ {
		var token string
		var err error
		if attempt == 0 {
			token, err = c.tokens.Token(ctx, tenantID, accounting.ProviderFiken)
		} else {
			token, err = c.tokens.ForceRefresh(ctx, tenantID, accounting.ProviderFiken)
		}
		if err != nil {
			return nil, err
		}

		var reqBody io.Reader
		if bodyBytes != nil {
			reqBody = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return nil, fmt.Errorf("fiken: failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", uuid.NewString())

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, wrapTransportError("fiken", err)
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("fiken: failed to read response: %w", readErr)
		}

		if resp.StatusCode == http.StatusUnauthorized {
			continue
		}
		if resp.StatusCode >= 400 {
			return nil, remoteAPIError("fiken", resp.StatusCode, body)
		}
		return body, nil
	}
	return nil, fmt.Errorf("%w: fiken rejected the refreshed token", accounting.ErrAuthExpired)
}

// wrapTransportError classifies a transport failure as timeout or network.
func wrapTransportError(provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", accounting.ErrTimeout, provider, err)
	}
	return fmt.Errorf("%w: %s: %v", accounting.ErrNetwork, provider, err)
}

// remoteAPIError builds an ErrRemoteAPI with the provider's message when
// one can be extracted from the body.
func remoteAPIError(provider string, status int, body []byte) error {
	var apiErr fikenError
	if json.Unmarshal(body, &apiErr) == nil {
		if apiErr.Message != "" {
			return fmt.Errorf("%w: %s HTTP %d: %s", accounting.ErrRemoteAPI, provider, status, apiErr.Message)
		}
		if apiErr.ErrorDescription != "" {
			return fmt.Errorf("%w: %s HTTP %d: %s", accounting.ErrRemoteAPI, provider, status, apiErr.ErrorDescription)
		}
	}
	return fmt.Errorf("%w: %s HTTP %d", accounting.ErrRemoteAPI, provider, status)
}

var _ accounting.AccountingProvider = (*FikenClient)(nil)
