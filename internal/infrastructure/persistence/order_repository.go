package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/barbertime/backend/internal/domain/trade"
	"github.com/barbertime/backend/internal/infrastructure/persistence/models"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

var _ trade.OrderRepository = (*GormOrderRepository)(nil)

// FindByID returns an order with items and payments loaded
func (r *GormOrderRepository) FindByID(ctx context.Context, tenantID, orderID uuid.UUID) (*trade.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		Where("id = ? AND tenant_id = ?", orderID, tenantID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, trade.ErrOrderNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListCompletedIDs returns the IDs of all completed orders for a tenant
func (r *GormOrderRepository) ListCompletedIDs(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("tenant_id = ? AND status = ?", tenantID, trade.OrderStatusCompleted).
		Order("completed_at ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// ListPaidOrderIDs returns the IDs of completed orders with at least one
// settled payment
func (r *GormOrderRepository) ListPaidOrderIDs(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Joins("JOIN order_payments ON order_payments.order_id = orders.id").
		Where("orders.tenant_id = ? AND orders.status = ?", tenantID, trade.OrderStatusCompleted).
		Group("orders.id").
		Order("orders.id ASC").
		Pluck("orders.id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
