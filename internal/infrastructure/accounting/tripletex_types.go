package accounting

// Request/response shapes for the Tripletex v2 API
// (https://tripletex.no/v2-docs/). Responses wrap the payload in "value";
// amounts are in currency units, not øre.

type tripletexSessionRequest struct {
	ConsumerToken  string `json:"consumerToken"`
	EmployeeToken  string `json:"employeeToken"`
	ExpirationDate string `json:"expirationDate"`
}

type tripletexSessionResponse struct {
	Value struct {
		Token string `json:"token"`
	} `json:"value"`
}

type tripletexCompanyResponse struct {
	Value struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"value"`
}

type tripletexCustomerRequest struct {
	Name               string `json:"name"`
	Email              string `json:"email,omitempty"`
	PhoneNumber        string `json:"phoneNumber,omitempty"`
	OrganizationNumber string `json:"organizationNumber,omitempty"`
	// 1500 is the standard customer receivables account.
	CustomerAccountNumber int  `json:"customerAccountNumber"`
	IsCustomer            bool `json:"isCustomer"`
}

type tripletexCustomerResponse struct {
	Value struct {
		ID int64 `json:"id"`
	} `json:"value"`
}

type tripletexRef struct {
	ID int64 `json:"id"`
}

type tripletexOrderLine struct {
	Description                  string       `json:"description"`
	Count                        string       `json:"count"`
	UnitPriceExcludingVatCurrency string      `json:"unitPriceExcludingVatCurrency"`
	VATType                      tripletexRef `json:"vatType"`
}

type tripletexInvoiceRequest struct {
	InvoiceDate    string               `json:"invoiceDate"`
	DueDate        string               `json:"dueDate"`
	Customer       tripletexRef         `json:"customer"`
	OrderLines     []tripletexOrderLine `json:"orderLines"`
	InvoiceRemarks string               `json:"invoiceRemarks,omitempty"`
}

type tripletexInvoiceResponse struct {
	Value struct {
		ID            int64 `json:"id"`
		InvoiceNumber int64 `json:"invoiceNumber"`
	} `json:"value"`
}

type tripletexPaymentRequest struct {
	Invoice     tripletexRef `json:"invoice"`
	Amount      string       `json:"amount"`
	PaymentDate string       `json:"paymentDate"`
	// 1 is the bank payment type.
	PaymentType tripletexRef `json:"paymentType"`
	Description string       `json:"description,omitempty"`
}

type tripletexPaymentResponse struct {
	Value struct {
		ID int64 `json:"id"`
	} `json:"value"`
}

type tripletexError struct {
	Message string `json:"message,omitempty"`
}
