package accounting

// Request/response shapes for the Fiken v2 API
// (https://api.fiken.no/api/v2/docs/). Amounts are NOK with two decimals;
// contact and invoice IDs are numeric.

type fikenCompany struct {
	Name             string `json:"name"`
	Slug             string `json:"slug"`
	OrganizationNumb string `json:"organizationNumber"`
}

type fikenContactRequest struct {
	Name               string `json:"name"`
	Email              string `json:"email,omitempty"`
	PhoneNumber        string `json:"phoneNumber,omitempty"`
	OrganizationNumber string `json:"organizationNumber,omitempty"`
	Customer           bool   `json:"customer"`
}

type fikenContact struct {
	ContactID int64  `json:"contactId"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
}

type fikenInvoiceLine struct {
	Description string  `json:"description"`
	Quantity    string  `json:"quantity"`
	UnitPrice   string  `json:"unitPrice"`
	VATType     string  `json:"vatType"`
	NetAmount   string  `json:"netAmount"`
	VATAmount   string  `json:"vatAmount"`
	GrossAmount string  `json:"grossAmount"`
	VATPercent  float64 `json:"vatPercent"`
}

type fikenInvoiceRequest struct {
	IssueDate      string             `json:"issueDate"`
	DueDate        string             `json:"dueDate"`
	CustomerID     int64              `json:"customerId"`
	Currency       string             `json:"currency"`
	Lines          []fikenInvoiceLine `json:"lines"`
	OrderReference string             `json:"orderReference,omitempty"`
	BankAccountURL string             `json:"bankAccountCode,omitempty"`
}

type fikenInvoice struct {
	InvoiceID     int64  `json:"invoiceId"`
	InvoiceNumber int64  `json:"invoiceNumber"`
	Kid           string `json:"kid,omitempty"`
}

type fikenPaymentRequest struct {
	Date    string `json:"date"`
	Amount  string `json:"amount"`
	Account string `json:"account,omitempty"`
}

type fikenPayment struct {
	PaymentID int64 `json:"paymentId"`
}

type fikenError struct {
	ErrorDescription string `json:"error_description,omitempty"`
	Message          string `json:"message,omitempty"`
}
