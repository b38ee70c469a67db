package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/barbertime/backend/internal/domain/accounting"
	"github.com/barbertime/backend/internal/infrastructure/persistence/models"
)

// GormSyncLogRepository implements SyncLogRepository using GORM
type GormSyncLogRepository struct {
	db *gorm.DB
}

// NewGormSyncLogRepository creates a new GormSyncLogRepository
func NewGormSyncLogRepository(db *gorm.DB) *GormSyncLogRepository {
	return &GormSyncLogRepository{db: db}
}

var _ accounting.SyncLogRepository = (*GormSyncLogRepository)(nil)

// Append writes one history entry. The table is append-only.
func (r *GormSyncLogRepository) Append(ctx context.Context, entry *accounting.SyncLogEntry) error {
	var model models.SyncLogEntryModel
	model.FromDomain(entry)
	return r.db.WithContext(ctx).Create(&model).Error
}

// List returns a tenant's most recent entries for a provider, newest first
func (r *GormSyncLogRepository) List(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, limit int) ([]*accounting.SyncLogEntry, error) {
	var entryModels []models.SyncLogEntryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND provider = ?", tenantID, provider).
		Order("created_at DESC").
		Limit(limit).
		Find(&entryModels).Error; err != nil {
		return nil, err
	}

	entries := make([]*accounting.SyncLogEntry, len(entryModels))
	for i := range entryModels {
		entries[i] = entryModels[i].ToDomain()
	}
	return entries, nil
}
