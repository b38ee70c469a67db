package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/barbertime/backend/internal/domain/trade"
)

// OrderModel is the persistence model for the Order aggregate root.
type OrderModel struct {
	ID          uuid.UUID           `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_order_tenant_number,priority:1"`
	CustomerID  uuid.UUID           `gorm:"type:uuid;not null;index"`
	OrderNumber string              `gorm:"type:varchar(50);not null;uniqueIndex:idx_order_tenant_number,priority:2"`
	Status      trade.OrderStatus   `gorm:"type:varchar(20);not null;index"`
	CompletedAt *time.Time          `gorm:"index"`
	Items       []OrderItemModel    `gorm:"foreignKey:OrderID;references:ID"`
	Payments    []OrderPaymentModel `gorm:"foreignKey:OrderID;references:ID"`
	CreatedAt   time.Time           `gorm:"not null"`
	UpdatedAt   time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order entity.
func (m *OrderModel) ToDomain() *trade.Order {
	order := &trade.Order{
		ID:          m.ID,
		TenantID:    m.TenantID,
		CustomerID:  m.CustomerID,
		OrderNumber: m.OrderNumber,
		Status:      m.Status,
		CompletedAt: m.CompletedAt,
		Items:       make([]trade.OrderItem, len(m.Items)),
		Payments:    make([]trade.Payment, len(m.Payments)),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	for i := range m.Items {
		order.Items[i] = m.Items[i].ToDomain()
	}
	for i := range m.Payments {
		order.Payments[i] = m.Payments[i].ToDomain()
	}
	return order
}

// OrderItemModel is the persistence model for one order line.
type OrderItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description string          `gorm:"type:varchar(255);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	VATRate     decimal.Decimal `gorm:"type:decimal(5,2);not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain OrderItem.
func (m *OrderItemModel) ToDomain() trade.OrderItem {
	return trade.OrderItem{
		ID:          m.ID,
		OrderID:     m.OrderID,
		Description: m.Description,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		VATRate:     m.VATRate,
	}
}

// OrderPaymentModel is the persistence model for a settled order payment.
type OrderPaymentModel struct {
	ID      uuid.UUID           `gorm:"type:uuid;primary_key"`
	OrderID uuid.UUID           `gorm:"type:uuid;not null;index"`
	Amount  decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	Method  trade.PaymentMethod `gorm:"type:varchar(20);not null"`
	PaidAt  time.Time           `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (OrderPaymentModel) TableName() string {
	return "order_payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *OrderPaymentModel) ToDomain() trade.Payment {
	return trade.Payment{
		ID:      m.ID,
		OrderID: m.OrderID,
		Amount:  m.Amount,
		Method:  m.Method,
		PaidAt:  m.PaidAt,
	}
}
