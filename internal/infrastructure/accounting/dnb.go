package accounting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/barbertime/backend/internal/domain/accounting"
)

const defaultDNBBaseURL = "https://api.dnb.no/regnskap/v1"

// DNBClient implements AccountingProvider for DNB Regnskap. Endpoints are
// scoped by the tenant's company ID; auth is an OAuth2 Bearer token from
// the shared token manager.
type DNBClient struct {
	settings   accounting.ProviderSettingsRepository
	tokens     *TokenManager
	httpClient *http.Client
	baseURL    string
}

// DNBOption is a functional option for configuring the client.
type DNBOption func(*DNBClient)

// WithDNBBaseURL overrides the API base URL.
func WithDNBBaseURL(baseURL string) DNBOption {
	return func(c *DNBClient) {
		c.baseURL = baseURL
	}
}

// WithDNBHTTPClient overrides the HTTP client.
func WithDNBHTTPClient(client *http.Client) DNBOption {
	return func(c *DNBClient) {
		c.httpClient = client
	}
}

// NewDNBClient creates a new DNBClient.
func NewDNBClient(settings accounting.ProviderSettingsRepository, tokens *TokenManager, opts ...DNBOption) *DNBClient {
	c := &DNBClient{
		settings:   settings,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultDNBBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Code returns the provider code this client handles.
func (c *DNBClient) Code() accounting.ProviderCode {
	return accounting.ProviderDNB
}

type dnbCompany struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type dnbCustomerRequest struct {
	Name               string `json:"name"`
	Email              string `json:"email,omitempty"`
	Phone              string `json:"phone,omitempty"`
	OrganizationNumber string `json:"organizationNumber,omitempty"`
}

type dnbCustomer struct {
	ID             string `json:"id"`
	CustomerNumber string `json:"customerNumber"`
}

type dnbInvoiceLine struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
	VATCode     string `json:"vatCode"`
}

type dnbInvoiceRequest struct {
	CustomerID  string           `json:"customerId"`
	InvoiceDate string           `json:"invoiceDate"`
	DueDate     string           `json:"dueDate"`
	Lines       []dnbInvoiceLine `json:"lines"`
	Reference   string           `json:"reference,omitempty"`
}

type dnbInvoice struct {
	ID            string `json:"id"`
	InvoiceNumber string `json:"invoiceNumber"`
}

type dnbPaymentRequest struct {
	Amount        string `json:"amount"`
	PaymentDate   string `json:"paymentDate"`
	PaymentMethod string `json:"paymentMethod"`
}

type dnbPayment struct {
	ID string `json:"id"`
}

// DNB VAT codes for the Norwegian output VAT rates.
var dnbVATCodes = map[string]string{
	"HIGH":   "3",
	"MEDIUM": "31",
	"LOW":    "32",
	"EXEMPT": "5",
}

// TestConnection fetches the configured company to verify credentials.
func (c *DNBClient) TestConnection(ctx context.Context, tenantID uuid.UUID) (*accounting.ConnectionStatus, error) {
	companyID, err := c.companyID(ctx, tenantID)
	if err != nil {
		return &accounting.ConnectionStatus{Success: false, Error: err.Error()}, nil
	}

	body, err := c.doRequest(ctx, tenantID, http.MethodGet, "/companies/"+companyID, nil)
	if err != nil {
		return &accounting.ConnectionStatus{Success: false, Error: err.Error()}, nil
	}

	var company dnbCompany
	if err := json.Unmarshal(body, &company); err != nil {
		return &accounting.ConnectionStatus{Success: false, Error: "dnb: unexpected company response"}, nil
	}
	return &accounting.ConnectionStatus{Success: true, CompanyName: company.Name}, nil
}

// CreateContact creates a remote customer.
func (c *DNBClient) CreateContact(ctx context.Context, tenantID uuid.UUID, contact *accounting.ContactUpsert) (string, error) {
	companyID, err := c.companyID(ctx, tenantID)
	if err != nil {
		return "", err
	}

	payload := dnbCustomerRequest{
		Name:               contact.Name,
		Email:              contact.Email,
		Phone:              contact.Phone,
		OrganizationNumber: contact.OrganizationNumber,
	}
	body, err := c.doRequest(ctx, tenantID, http.MethodPost, "/companies/"+companyID+"/customers", payload)
	if err != nil {
		return "", err
	}

	var created dnbCustomer
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("%w: decoding customer: %v", accounting.ErrRemoteAPI, err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("%w: customer response missing id", accounting.ErrRemoteAPI)
	}
	return created.ID, nil
}

// UpdateContact updates an existing remote customer.
func (c *DNBClient) UpdateContact(ctx context.Context, tenantID uuid.UUID, remoteID string, contact *accounting.ContactUpsert) error {
	companyID, err := c.companyID(ctx, tenantID)
	if err != nil {
		return err
	}

	payload := dnbCustomerRequest{
		Name:               contact.Name,
		Email:              contact.Email,
		Phone:              contact.Phone,
		OrganizationNumber: contact.OrganizationNumber,
	}
	_, err = c.doRequest(ctx, tenantID, http.MethodPut, "/companies/"+companyID+"/customers/"+remoteID, payload)
	return err
}

// CreateInvoice creates a remote invoice.
func (c *DNBClient) CreateInvoice(ctx context.Context, tenantID uuid.UUID, draft *accounting.InvoiceDraft) (*accounting.RemoteInvoice, error) {
	companyID, err := c.companyID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	lines := make([]dnbInvoiceLine, 0, len(draft.Lines))
	for _, line := range draft.Lines {
		vatCode, ok := dnbVATCodes[line.VATType]
		if !ok {
			vatCode = dnbVATCodes["HIGH"]
		}
		lines = append(lines, dnbInvoiceLine{
			Description: line.Description,
			Quantity:    line.Quantity.String(),
			UnitPrice:   line.UnitPrice.StringFixed(2),
			VATCode:     vatCode,
		})
	}

	payload := dnbInvoiceRequest{
		CustomerID:  draft.RemoteContactID,
		InvoiceDate: draft.IssueDate.Format("2006-01-02"),
		DueDate:     draft.DueDate.Format("2006-01-02"),
		Lines:       lines,
		Reference:   draft.OrderNumber,
	}
	body, err := c.doRequest(ctx, tenantID, http.MethodPost, "/companies/"+companyID+"/invoices", payload)
	if err != nil {
		return nil, err
	}

	var created dnbInvoice
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("%w: decoding invoice: %v", accounting.ErrRemoteAPI, err)
	}
	if created.ID == "" {
		return nil, fmt.Errorf("%w: invoice response missing id", accounting.ErrRemoteAPI)
	}
	return &accounting.RemoteInvoice{RemoteID: created.ID, InvoiceNumber: created.InvoiceNumber}, nil
}

// RegisterPayment records a payment against a remote invoice.
func (c *DNBClient) RegisterPayment(ctx context.Context, tenantID uuid.UUID, draft *accounting.PaymentDraft) (string, error) {
	companyID, err := c.companyID(ctx, tenantID)
	if err != nil {
		return "", err
	}

	payload := dnbPaymentRequest{
		Amount:        draft.Amount.StringFixed(2),
		PaymentDate:   draft.PaidAt.Format("2006-01-02"),
		PaymentMethod: "bank",
	}
	body, err := c.doRequest(ctx, tenantID, http.MethodPost, "/companies/"+companyID+"/invoices/"+draft.RemoteInvoiceID+"/payments", payload)
	if err != nil {
		return "", err
	}

	var created dnbPayment
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("%w: decoding payment: %v", accounting.ErrRemoteAPI, err)
	}
	return created.ID, nil
}

func (c *DNBClient) companyID(ctx context.Context, tenantID uuid.UUID) (string, error) {
	settings, err := c.settings.FindByTenantAndProvider(ctx, tenantID, accounting.ProviderDNB)
	if err != nil {
		return "", accounting.ErrNotConfigured
	}
	if settings.CompanyID == "" {
		return "", fmt.Errorf("%w: company id not set", accounting.ErrNotConfigured)
	}
	return settings.CompanyID, nil
}

// doRequest performs one authenticated call with the 401 retry-once loop.
func (c *DNBClient) doRequest(ctx context.Context, tenantID uuid.UUID, method, path string, payload any) ([]byte, error) {
	var bodyBytes []byte
	if payload != nil {
		var err error
		bodyBytes, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("dnb: failed to marshal request: %w", err)
		}
	}

	for attempt := 0; attempt < 2; attempt++ {
		var token string
		var err error
		if attempt == 0 {
			token, err = c.tokens.Token(ctx, tenantID, accounting.ProviderDNB)
		} else {
			token, err = c.tokens.ForceRefresh(ctx, tenantID, accounting.ProviderDNB)
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
			return nil, fmt.Errorf("dnb: failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, wrapTransportError("dnb", err)
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("dnb: failed to read response: %w", readErr)
		}

		if resp.StatusCode == http.StatusUnauthorized {
			continue
		}
		if resp.StatusCode >= 400 {
			return nil, remoteAPIError("dnb", resp.StatusCode, body)
		}
		return body, nil
	}
	return nil, fmt.Errorf("%w: dnb rejected the refreshed token", accounting.ErrAuthExpired)
}

var _ accounting.AccountingProvider = (*DNBClient)(nil)
