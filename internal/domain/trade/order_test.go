package trade

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderItem_Amounts(t *testing.T) {
	item := OrderItem{
		Description: "Dameklipp",
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   decimal.RequireFromString("520.00"),
		VATRate:     decimal.NewFromInt(25),
	}

	assert.True(t, item.NetAmount().Equal(decimal.RequireFromString("520.00")))
	assert.True(t, item.VATAmount().Equal(decimal.RequireFromString("130.00")))
	assert.True(t, item.GrossAmount().Equal(decimal.RequireFromString("650.00")))
}

func TestOrderItem_AmountsRounding(t *testing.T) {
	// 3 * 33.33 = 99.99 net, 25% VAT = 24.9975 -> 25.00
	item := OrderItem{
		Quantity:  decimal.NewFromInt(3),
		UnitPrice: decimal.RequireFromString("33.33"),
		VATRate:   decimal.NewFromInt(25),
	}

	assert.True(t, item.NetAmount().Equal(decimal.RequireFromString("99.99")))
	assert.True(t, item.VATAmount().Equal(decimal.RequireFromString("25.00")))
	assert.True(t, item.GrossAmount().Equal(decimal.RequireFromString("124.99")))
}

func TestOrder_TotalGross(t *testing.T) {
	order := &Order{
		Items: []OrderItem{
			{Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(450), VATRate: decimal.NewFromInt(25)},
			{Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(100), VATRate: decimal.NewFromInt(25)},
		},
	}
	// 450 + 112.50 + 200 + 50
	assert.True(t, order.TotalGross().Equal(decimal.RequireFromString("812.50")))
}

func TestOrder_Validate(t *testing.T) {
	t.Run("Valid order", func(t *testing.T) {
		order := &Order{
			CustomerID: uuid.New(),
			Items:      []OrderItem{{Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100)}},
		}
		assert.NoError(t, order.Validate())
	})

	t.Run("Missing customer", func(t *testing.T) {
		order := &Order{Items: []OrderItem{{}}}
		assert.ErrorIs(t, order.Validate(), ErrOrderNoCustomer)
	})

	t.Run("No items", func(t *testing.T) {
		order := &Order{CustomerID: uuid.New()}
		assert.ErrorIs(t, order.Validate(), ErrOrderNoItems)
	})
}
