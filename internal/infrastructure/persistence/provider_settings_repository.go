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

// GormProviderSettingsRepository implements ProviderSettingsRepository using GORM
type GormProviderSettingsRepository struct {
	db *gorm.DB
}

// NewGormProviderSettingsRepository creates a new GormProviderSettingsRepository
func NewGormProviderSettingsRepository(db *gorm.DB) *GormProviderSettingsRepository {
	return &GormProviderSettingsRepository{db: db}
}

var _ accounting.ProviderSettingsRepository = (*GormProviderSettingsRepository)(nil)

// FindByTenantAndProvider returns the settings row for a tenant+provider pair
func (r *GormProviderSettingsRepository) FindByTenantAndProvider(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode) (*accounting.ProviderSettings, error) {
	var model models.ProviderSettingsModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND provider = ?", tenantID, provider).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, accounting.ErrSettingsNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllEnabled returns every enabled settings row across tenants
func (r *GormProviderSettingsRepository) FindAllEnabled(ctx context.Context) ([]*accounting.ProviderSettings, error) {
	var settingsModels []models.ProviderSettingsModel
	if err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("tenant_id ASC, provider ASC").
		Find(&settingsModels).Error; err != nil {
		return nil, err
	}

	settings := make([]*accounting.ProviderSettings, len(settingsModels))
	for i := range settingsModels {
		settings[i] = settingsModels[i].ToDomain()
	}
	return settings, nil
}

// Save inserts the settings row or updates it in place when the
// tenant+provider pair already exists
func (r *GormProviderSettingsRepository) Save(ctx context.Context, settings *accounting.ProviderSettings) error {
	var model models.ProviderSettingsModel
	model.FromDomain(settings)

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}, {Name: "provider"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"enabled", "auto_sync_enabled",
				"client_id", "client_secret",
				"consumer_token", "employee_token", "company_id",
				"company_slug", "payment_account",
				"updated_at",
			}),
		}).
		Create(&model).Error
}

// UpdateTokens persists only the token columns so a refresh cannot clobber
// concurrent settings edits
func (r *GormProviderSettingsRepository) UpdateTokens(ctx context.Context, settings *accounting.ProviderSettings) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProviderSettingsModel{}).
		Where("tenant_id = ? AND provider = ?", settings.TenantID, settings.Provider).
		Updates(map[string]interface{}{
			"access_token":     settings.AccessToken,
			"refresh_token":    settings.RefreshToken,
			"token_expires_at": settings.TokenExpiresAt,
			"updated_at":       settings.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return accounting.ErrSettingsNotFound
	}
	return nil
}
