package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/barbertime/backend/internal/domain/partner"
)

// CustomerModel is the persistence model for the Customer entity.
type CustomerModel struct {
	ID                 uuid.UUID            `gorm:"type:uuid;primary_key"`
	TenantID           uuid.UUID            `gorm:"type:uuid;not null;index:idx_customer_tenant"`
	FirstName          string               `gorm:"type:varchar(100);not null"`
	LastName           string               `gorm:"type:varchar(100)"`
	Email              string               `gorm:"type:varchar(255);index"`
	Phone              string               `gorm:"type:varchar(30)"`
	Type               partner.CustomerType `gorm:"type:varchar(20);not null"`
	OrganizationNumber string               `gorm:"type:varchar(20)"`
	CreatedAt          time.Time            `gorm:"not null"`
	UpdatedAt          time.Time            `gorm:"not null"`
	DeletedAt          *time.Time           `gorm:"index"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		ID:                 m.ID,
		TenantID:           m.TenantID,
		FirstName:          m.FirstName,
		LastName:           m.LastName,
		Email:              m.Email,
		Phone:              m.Phone,
		Type:               m.Type,
		OrganizationNumber: m.OrganizationNumber,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
		DeletedAt:          m.DeletedAt,
	}
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.ID = c.ID
	m.TenantID = c.TenantID
	m.FirstName = c.FirstName
	m.LastName = c.LastName
	m.Email = c.Email
	m.Phone = c.Phone
	m.Type = c.Type
	m.OrganizationNumber = c.OrganizationNumber
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
	m.DeletedAt = c.DeletedAt
}
