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

const defaultUnimicroBaseURL = "https://api.unieconomy.no/api/biz"

// UnimicroClient implements AccountingProvider for Unimicro. The API uses
// PascalCase JSON and GUID entity IDs; auth is an OAuth2 Bearer token from
// the shared token manager.
type UnimicroClient struct {
	settings   accounting.ProviderSettingsRepository
	tokens     *TokenManager
	httpClient *http.Client
	baseURL    string
}

// UnimicroOption is a functional option for configuring the client.
type UnimicroOption func(*UnimicroClient)

// WithUnimicroBaseURL overrides the API base URL.
func WithUnimicroBaseURL(baseURL string) UnimicroOption {
	return func(c *UnimicroClient) {
		c.baseURL = baseURL
	}
}

// WithUnimicroHTTPClient overrides the HTTP client.
func WithUnimicroHTTPClient(client *http.Client) UnimicroOption {
	return func(c *UnimicroClient) {
		c.httpClient = client
	}
}

// NewUnimicroClient creates a new UnimicroClient.
func NewUnimicroClient(settings accounting.ProviderSettingsRepository, tokens *TokenManager, opts ...UnimicroOption) *UnimicroClient {
	c := &UnimicroClient{
		settings:   settings,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultUnimicroBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Code returns the provider code this client handles.
func (c *UnimicroClient) Code() accounting.ProviderCode {
	return accounting.ProviderUnimicro
}

type unimicroCompany struct {
	Name string `json:"Name"`
}

type unimicroCustomerRequest struct {
	Name               string `json:"Name"`
	Email              string `json:"EmailAddress,omitempty"`
	Phone              string `json:"Phone,omitempty"`
	OrganizationNumber string `json:"OrgNumber,omitempty"`
}

type unimicroCustomer struct {
	ID string `json:"Id"`
}

type unimicroInvoiceRow struct {
	Description string `json:"Description"`
	Quantity    string `json:"Quantity"`
	UnitPrice   string `json:"UnitPrice"`
	VATPercent  string `json:"VatPercent"`
}

type unimicroInvoiceRequest struct {
	CustomerID  string               `json:"CustomerId"`
	InvoiceDate string               `json:"InvoiceDate"`
	DueDate     string               `json:"DueDate"`
	Currency    string               `json:"CurrencyCode"`
	Rows        []unimicroInvoiceRow `json:"Rows"`
	Reference   string               `json:"YourReference,omitempty"`
}

type unimicroInvoice struct {
	ID            string `json:"Id"`
	InvoiceNumber string `json:"InvoiceNumber"`
}

type unimicroPaymentRequest struct {
	InvoiceID   string `json:"InvoiceId"`
	Amount      string `json:"Amount"`
	PaymentDate string `json:"PaymentDate"`
}

type unimicroPayment struct {
	ID string `json:"Id"`
}

// TestConnection fetches the company info resource to verify credentials.
func (c *UnimicroClient) TestConnection(ctx context.Context, tenantID uuid.UUID) (*accounting.ConnectionStatus, error) {
	body, err := c.doRequest(ctx, tenantID, http.MethodGet, "/companysettings", nil)
	if err != nil {
		return &accounting.ConnectionStatus{Success: false, Error: err.Error()}, nil
	}

	var company unimicroCompany
	if err := json.Unmarshal(body, &company); err != nil {
		return &accounting.ConnectionStatus{Success: false, Error: "unimicro: unexpected company response"}, nil
	}
	return &accounting.ConnectionStatus{Success: true, CompanyName: company.Name}, nil
}

// CreateContact creates a remote customer.
func (c *UnimicroClient) CreateContact(ctx context.Context, tenantID uuid.UUID, contact *accounting.ContactUpsert) (string, error) {
	payload := unimicroCustomerRequest{
		Name:               contact.Name,
		Email:              contact.Email,
		Phone:              contact.Phone,
		OrganizationNumber: contact.OrganizationNumber,
	}
	body, err := c.doRequest(ctx, tenantID, http.MethodPost, "/customers", payload)
	if err != nil {
		return "", err
	}

	var created unimicroCustomer
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("%w: decoding customer: %v", accounting.ErrRemoteAPI, err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("%w: customer response missing id", accounting.ErrRemoteAPI)
	}
	return created.ID, nil
}

// UpdateContact updates an existing remote customer.
func (c *UnimicroClient) UpdateContact(ctx context.Context, tenantID uuid.UUID, remoteID string, contact *accounting.ContactUpsert) error {
	payload := unimicroCustomerRequest{
		Name:               contact.Name,
		Email:              contact.Email,
		Phone:              contact.Phone,
		OrganizationNumber: contact.OrganizationNumber,
	}
	_, err := c.doRequest(ctx, tenantID, http.MethodPut, "/customers/"+remoteID, payload)
	return err
}

// CreateInvoice creates a remote customer invoice.
func (c *UnimicroClient) CreateInvoice(ctx context.Context, tenantID uuid.UUID, draft *accounting.InvoiceDraft) (*accounting.RemoteInvoice, error) {
	rows := make([]unimicroInvoiceRow, 0, len(draft.Lines))
	for _, line := range draft.Lines {
		rows = append(rows, unimicroInvoiceRow{
			Description: line.Description,
			Quantity:    line.Quantity.String(),
			UnitPrice:   line.UnitPrice.StringFixed(2),
			VATPercent:  line.VATRate.String(),
		})
	}

	payload := unimicroInvoiceRequest{
		CustomerID:  draft.RemoteContactID,
		InvoiceDate: draft.IssueDate.Format("2006-01-02"),
		DueDate:     draft.DueDate.Format("2006-01-02"),
		Currency:    draft.Currency,
		Rows:        rows,
		Reference:   draft.OrderNumber,
	}
	body, err := c.doRequest(ctx, tenantID, http.MethodPost, "/customerinvoices", payload)
	if err != nil {
		return nil, err
	}

	var created unimicroInvoice
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("%w: decoding invoice: %v", accounting.ErrRemoteAPI, err)
	}
	if created.ID == "" {
		return nil, fmt.Errorf("%w: invoice response missing id", accounting.ErrRemoteAPI)
	}
	return &accounting.RemoteInvoice{RemoteID: created.ID, InvoiceNumber: created.InvoiceNumber}, nil
}

// RegisterPayment records a payment against a remote invoice.
func (c *UnimicroClient) RegisterPayment(ctx context.Context, tenantID uuid.UUID, draft *accounting.PaymentDraft) (string, error) {
	payload := unimicroPaymentRequest{
		InvoiceID:   draft.RemoteInvoiceID,
		Amount:      draft.Amount.StringFixed(2),
		PaymentDate: draft.PaidAt.Format("2006-01-02"),
	}
	body, err := c.doRequest(ctx, tenantID, http.MethodPost, "/customerinvoicepayments", payload)
	if err != nil {
		return "", err
	}

	var created unimicroPayment
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("%w: decoding payment: %v", accounting.ErrRemoteAPI, err)
	}
	return created.ID, nil
}

// doRequest performs one authenticated call with the 401 retry-once loop.
func (c *UnimicroClient) doRequest(ctx context.Context, tenantID uuid.UUID, method, path string, payload any) ([]byte, error) {
	var bodyBytes []byte
	if payload != nil {
		var err error
		bodyBytes, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("unimicro: failed to marshal request: %w", err)
		}
	}

	for attempt := 0; attempt < 2; attempt++ {
		var token string
		var err error
		if attempt == 0 {
			token, err = c.tokens.Token(ctx, tenantID, accounting.ProviderUnimicro)
		} else {
			token, err = c.tokens.ForceRefresh(ctx, tenantID, accounting.ProviderUnimicro)
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
			return nil, fmt.Errorf("unimicro: failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, wrapTransportError("unimicro", err)
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("unimicro: failed to read response: %w", readErr)
		}

		if resp.StatusCode == http.StatusUnauthorized {
			continue
		}
		if resp.StatusCode >= 400 {
			return nil, remoteAPIError("unimicro", resp.StatusCode, body)
		}
		return body, nil
	}
	return nil, fmt.Errorf("%w: unimicro rejected the refreshed token", accounting.ErrAuthExpired)
}

var _ accounting.AccountingProvider = (*UnimicroClient)(nil)
