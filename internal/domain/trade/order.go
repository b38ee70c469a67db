// Package trade contains completed salon orders and their payments, the
// source records invoices and remote payments are generated from.
package trade

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound   = errors.New("trade: order not found")
	ErrInvalidTenantID = errors.New("trade: invalid tenant ID")
	ErrOrderNoCustomer = errors.New("trade: order has no customer")
	ErrOrderNoItems    = errors.New("trade: order has no items")
)

// OrderStatus is the lifecycle state of an order. Only completed orders are
// eligible for invoice sync.
type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsValid returns true if the status is known.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusOpen, OrderStatusCompleted, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// PaymentMethod is how an order was paid at the point of sale.
type PaymentMethod string

const (
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodVipps    PaymentMethod = "vipps"
	PaymentMethodTransfer PaymentMethod = "transfer"
)

// OrderItem is one sold service or product on an order. Unit prices are net
// of VAT; the VAT rate is a percentage (25 for standard Norwegian VAT).
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	VATRate     decimal.Decimal
}

// NetAmount returns quantity times unit price, rounded to 2 decimals.
func (i *OrderItem) NetAmount() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice).Round(2)
}

// VATAmount returns the VAT on the net amount, rounded to 2 decimals.
func (i *OrderItem) VATAmount() decimal.Decimal {
	return i.NetAmount().Mul(i.VATRate).Div(decimal.NewFromInt(100)).Round(2)
}

// GrossAmount returns net plus VAT.
func (i *OrderItem) GrossAmount() decimal.Decimal {
	return i.NetAmount().Add(i.VATAmount())
}

// Payment is a settled payment against an order.
type Payment struct {
	ID      uuid.UUID
	OrderID uuid.UUID
	Amount  decimal.Decimal
	Method  PaymentMethod
	PaidAt  time.Time
}

// Order is a completed point-of-sale transaction for one customer.
type Order struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	CustomerID  uuid.UUID
	OrderNumber string
	Status      OrderStatus
	CompletedAt *time.Time
	Items       []OrderItem
	Payments    []Payment
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TotalGross sums the gross amounts of all items.
func (o *Order) TotalGross() decimal.Decimal {
	total := decimal.Zero
	for i := range o.Items {
		total = total.Add(o.Items[i].GrossAmount())
	}
	return total
}

// Validate checks the order can be turned into an invoice.
func (o *Order) Validate() error {
	if o.CustomerID == uuid.Nil {
		return ErrOrderNoCustomer
	}
	if len(o.Items) == 0 {
		return ErrOrderNoItems
	}
	return nil
}

// OrderRepository provides access to orders with their items and payments.
type OrderRepository interface {
	// FindByID returns an order with items and payments loaded, or
	// ErrOrderNotFound.
	FindByID(ctx context.Context, tenantID, orderID uuid.UUID) (*Order, error)

	// ListCompletedIDs returns the IDs of all completed orders for a
	// tenant. Used by the bulk sync selection.
	ListCompletedIDs(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error)

	// ListPaidOrderIDs returns the IDs of completed orders that have at
	// least one payment. Used by the payment bulk sync selection.
	ListPaidOrderIDs(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error)
}
