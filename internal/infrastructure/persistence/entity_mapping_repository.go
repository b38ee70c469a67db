package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/barbertime/backend/internal/domain/accounting"
	"github.com/barbertime/backend/internal/infrastructure/persistence/models"
)

// GormEntityMappingRepository implements EntityMappingRepository using GORM
type GormEntityMappingRepository struct {
	db *gorm.DB
}

// NewGormEntityMappingRepository creates a new GormEntityMappingRepository
func NewGormEntityMappingRepository(db *gorm.DB) *GormEntityMappingRepository {
	return &GormEntityMappingRepository{db: db}
}

var _ accounting.EntityMappingRepository = (*GormEntityMappingRepository)(nil)

// ---------------------------------------------------------------------------
// EntityMappingReader implementation
// ---------------------------------------------------------------------------

// Find returns the mapping for a local entity
func (r *GormEntityMappingRepository) Find(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, entityType accounting.EntityType, localID uuid.UUID) (*accounting.EntityMapping, error) {
	var model models.EntityMappingModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND provider = ? AND entity_type = ? AND local_id = ?",
			tenantID, provider, entityType, localID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, accounting.ErrMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindSyncedLocalIDs returns the local IDs of all synced mappings for an
// entity type
func (r *GormEntityMappingRepository) FindSyncedLocalIDs(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, entityType accounting.EntityType) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.EntityMappingModel{}).
		Where("tenant_id = ? AND provider = ? AND entity_type = ? AND status = ?",
			tenantID, provider, entityType, accounting.MappingStatusSynced).
		Pluck("local_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// CountByStatus returns the number of mappings per status for an entity type
func (r *GormEntityMappingRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, entityType accounting.EntityType) (map[accounting.MappingStatus]int64, error) {
	type statusCount struct {
		Status accounting.MappingStatus
		Count  int64
	}
	var rows []statusCount
	if err := r.db.WithContext(ctx).
		Model(&models.EntityMappingModel{}).
		Select("status, COUNT(*) as count").
		Where("tenant_id = ? AND provider = ? AND entity_type = ?", tenantID, provider, entityType).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[accounting.MappingStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// ---------------------------------------------------------------------------
// EntityMappingWriter implementation
// ---------------------------------------------------------------------------

// Upsert inserts the mapping or updates the existing row for the same
// (tenant, provider, entity type, local ID)
func (r *GormEntityMappingRepository) Upsert(ctx context.Context, mapping *accounting.EntityMapping) error {
	var model models.EntityMappingModel
	model.FromDomain(mapping)

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "tenant_id"}, {Name: "provider"},
				{Name: "entity_type"}, {Name: "local_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"remote_id", "status", "error_message", "synced_at", "updated_at",
			}),
		}).
		Create(&model).Error
}
