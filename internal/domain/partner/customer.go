// Package partner contains the customer side of the salon domain: the
// people and businesses that book appointments and receive invoices.
package partner

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrCustomerNotFound    = errors.New("partner: customer not found")
	ErrInvalidCustomerName = errors.New("partner: customer name is required")
	ErrInvalidTenantID     = errors.New("partner: invalid tenant ID")
)

// CustomerType distinguishes private individuals from businesses. Business
// customers carry an organization number used on remote accounting contacts.
type CustomerType string

const (
	CustomerTypeIndividual   CustomerType = "individual"
	CustomerTypeOrganization CustomerType = "organization"
)

// IsValid returns true if the customer type is known.
func (t CustomerType) IsValid() bool {
	return t == CustomerTypeIndividual || t == CustomerTypeOrganization
}

// Customer is a salon customer. Soft deleted customers are excluded from
// listings but their accounting mappings remain as audit history.
type Customer struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Type      CustomerType
	// OrganizationNumber is set for organization customers only.
	OrganizationNumber string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          *time.Time
}

// NewCustomer creates an individual customer with the required fields.
func NewCustomer(tenantID uuid.UUID, firstName, lastName string) (*Customer, error) {
	if tenantID == uuid.Nil {
		return nil, ErrInvalidTenantID
	}
	if strings.TrimSpace(firstName) == "" && strings.TrimSpace(lastName) == "" {
		return nil, ErrInvalidCustomerName
	}
	now := time.Now()
	return &Customer{
		ID:        uuid.New(),
		TenantID:  tenantID,
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Type:      CustomerTypeIndividual,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// FullName returns the customer's display name.
func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// IsDeleted reports whether the customer is soft deleted.
func (c *Customer) IsDeleted() bool {
	return c.DeletedAt != nil
}

// CustomerRepository provides access to customers.
type CustomerRepository interface {
	// FindByID returns a customer by ID, or ErrCustomerNotFound. Soft
	// deleted customers are still returned; callers decide relevance.
	FindByID(ctx context.Context, tenantID, customerID uuid.UUID) (*Customer, error)

	// ListActiveIDs returns the IDs of all non-deleted customers for a
	// tenant. Used by the bulk sync selection.
	ListActiveIDs(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error)
}
