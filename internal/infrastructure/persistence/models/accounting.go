package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/barbertime/backend/internal/domain/accounting"
)

// ProviderSettingsModel is the persistence model for a tenant's accounting
// provider configuration, one row per (tenant, provider).
type ProviderSettingsModel struct {
	ID       uuid.UUID               `gorm:"type:uuid;primary_key"`
	TenantID uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:idx_provider_settings_tenant_provider,priority:1"`
	Provider accounting.ProviderCode `gorm:"type:varchar(20);not null;uniqueIndex:idx_provider_settings_tenant_provider,priority:2"`

	Enabled         bool `gorm:"not null;index"`
	AutoSyncEnabled bool `gorm:"not null"`

	ClientID     string `gorm:"type:varchar(255)"`
	ClientSecret string `gorm:"type:text"`

	AccessToken    string `gorm:"type:text"`
	RefreshToken   string `gorm:"type:text"`
	TokenExpiresAt *time.Time

	ConsumerToken string `gorm:"type:text"`
	EmployeeToken string `gorm:"type:text"`
	CompanyID     string `gorm:"type:varchar(50)"`

	CompanySlug    string `gorm:"type:varchar(100)"`
	PaymentAccount string `gorm:"type:varchar(50)"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProviderSettingsModel) TableName() string {
	return "accounting_provider_settings"
}

// ToDomain converts the persistence model to a domain ProviderSettings entity.
func (m *ProviderSettingsModel) ToDomain() *accounting.ProviderSettings {
	return &accounting.ProviderSettings{
		ID:              m.ID,
		TenantID:        m.TenantID,
		Provider:        m.Provider,
		Enabled:         m.Enabled,
		AutoSyncEnabled: m.AutoSyncEnabled,
		ClientID:        m.ClientID,
		ClientSecret:    m.ClientSecret,
		AccessToken:     m.AccessToken,
		RefreshToken:    m.RefreshToken,
		TokenExpiresAt:  m.TokenExpiresAt,
		ConsumerToken:   m.ConsumerToken,
		EmployeeToken:   m.EmployeeToken,
		CompanyID:       m.CompanyID,
		CompanySlug:     m.CompanySlug,
		PaymentAccount:  m.PaymentAccount,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain ProviderSettings entity.
func (m *ProviderSettingsModel) FromDomain(s *accounting.ProviderSettings) {
	m.ID = s.ID
	m.TenantID = s.TenantID
	m.Provider = s.Provider
	m.Enabled = s.Enabled
	m.AutoSyncEnabled = s.AutoSyncEnabled
	m.ClientID = s.ClientID
	m.ClientSecret = s.ClientSecret
	m.AccessToken = s.AccessToken
	m.RefreshToken = s.RefreshToken
	m.TokenExpiresAt = s.TokenExpiresAt
	m.ConsumerToken = s.ConsumerToken
	m.EmployeeToken = s.EmployeeToken
	m.CompanyID = s.CompanyID
	m.CompanySlug = s.CompanySlug
	m.PaymentAccount = s.PaymentAccount
	m.CreatedAt = s.CreatedAt
	m.UpdatedAt = s.UpdatedAt
}

// EntityMappingModel is the persistence model for the local-to-remote
// entity mapping. The unique index backs the repository's upsert.
type EntityMappingModel struct {
	ID           uuid.UUID                `gorm:"type:uuid;primary_key"`
	TenantID     uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex:idx_entity_mapping_identity,priority:1"`
	Provider     accounting.ProviderCode  `gorm:"type:varchar(20);not null;uniqueIndex:idx_entity_mapping_identity,priority:2"`
	EntityType   accounting.EntityType    `gorm:"type:varchar(20);not null;uniqueIndex:idx_entity_mapping_identity,priority:3"`
	LocalID      uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex:idx_entity_mapping_identity,priority:4"`
	RemoteID     string                   `gorm:"type:varchar(100);index"`
	Status       accounting.MappingStatus `gorm:"type:varchar(20);not null;index"`
	ErrorMessage string                   `gorm:"type:text"`
	SyncedAt     *time.Time               `gorm:"index"`
	CreatedAt    time.Time                `gorm:"not null"`
	UpdatedAt    time.Time                `gorm:"not null"`
}

// TableName returns the table name for GORM
func (EntityMappingModel) TableName() string {
	return "accounting_entity_mappings"
}

// ToDomain converts the persistence model to a domain EntityMapping entity.
func (m *EntityMappingModel) ToDomain() *accounting.EntityMapping {
	return &accounting.EntityMapping{
		ID:           m.ID,
		TenantID:     m.TenantID,
		Provider:     m.Provider,
		EntityType:   m.EntityType,
		LocalID:      m.LocalID,
		RemoteID:     m.RemoteID,
		Status:       m.Status,
		ErrorMessage: m.ErrorMessage,
		SyncedAt:     m.SyncedAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain EntityMapping entity.
func (m *EntityMappingModel) FromDomain(em *accounting.EntityMapping) {
	m.ID = em.ID
	m.TenantID = em.TenantID
	m.Provider = em.Provider
	m.EntityType = em.EntityType
	m.LocalID = em.LocalID
	m.RemoteID = em.RemoteID
	m.Status = em.Status
	m.ErrorMessage = em.ErrorMessage
	m.SyncedAt = em.SyncedAt
	m.CreatedAt = em.CreatedAt
	m.UpdatedAt = em.UpdatedAt
}

// SyncLogEntryModel is the persistence model for the append-only sync
// history. Rows are inserted and read, never updated.
type SyncLogEntryModel struct {
	ID             uuid.UUID                `gorm:"type:uuid;primary_key"`
	TenantID       uuid.UUID                `gorm:"type:uuid;not null;index:idx_sync_log_tenant_provider,priority:1"`
	Provider       accounting.ProviderCode  `gorm:"type:varchar(20);not null;index:idx_sync_log_tenant_provider,priority:2"`
	Operation      string                   `gorm:"type:varchar(50);not null"`
	Status         accounting.RunStatus     `gorm:"type:varchar(20);not null"`
	ItemsProcessed int                      `gorm:"not null"`
	ItemsFailed    int                      `gorm:"not null"`
	Details        string                   `gorm:"type:jsonb"`
	DurationMS     int64                    `gorm:"not null"`
	TriggeredBy    accounting.TriggerSource `gorm:"type:varchar(20);not null"`
	CreatedAt      time.Time                `gorm:"not null;index:idx_sync_log_tenant_provider,priority:3,sort:desc"`
}

// TableName returns the table name for GORM
func (SyncLogEntryModel) TableName() string {
	return "accounting_sync_log"
}

// ToDomain converts the persistence model to a domain SyncLogEntry.
func (m *SyncLogEntryModel) ToDomain() *accounting.SyncLogEntry {
	return &accounting.SyncLogEntry{
		ID:             m.ID,
		TenantID:       m.TenantID,
		Provider:       m.Provider,
		Operation:      m.Operation,
		Status:         m.Status,
		ItemsProcessed: m.ItemsProcessed,
		ItemsFailed:    m.ItemsFailed,
		Details:        m.Details,
		DurationMS:     m.DurationMS,
		TriggeredBy:    m.TriggeredBy,
		CreatedAt:      m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain SyncLogEntry.
func (m *SyncLogEntryModel) FromDomain(e *accounting.SyncLogEntry) {
	m.ID = e.ID
	m.TenantID = e.TenantID
	m.Provider = e.Provider
	m.Operation = e.Operation
	m.Status = e.Status
	m.ItemsProcessed = e.ItemsProcessed
	m.ItemsFailed = e.ItemsFailed
	m.Details = e.Details
	m.DurationMS = e.DurationMS
	m.TriggeredBy = e.TriggeredBy
	m.CreatedAt = e.CreatedAt
}
