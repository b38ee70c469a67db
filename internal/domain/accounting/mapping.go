package accounting

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// EntityMapping entity
// ---------------------------------------------------------------------------

// EntityMapping links a local entity to its counterpart in an external
// accounting system. At most one mapping exists per
// (tenant, provider, entity type, local ID); repeated syncs update the row
// in place. Mappings are never deleted, even when the local entity is.
type EntityMapping struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Provider     ProviderCode
	EntityType   EntityType
	LocalID      uuid.UUID
	RemoteID     string
	Status       MappingStatus
	ErrorMessage string
	SyncedAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewEntityMapping creates a pending mapping for a local entity.
func NewEntityMapping(tenantID uuid.UUID, provider ProviderCode, entityType EntityType, localID uuid.UUID) (*EntityMapping, error) {
	if tenantID == uuid.Nil {
		return nil, ErrInvalidTenantID
	}
	if !provider.IsValid() {
		return nil, ErrUnknownProvider
	}
	if !entityType.IsValid() {
		return nil, ErrValidation
	}
	if localID == uuid.Nil {
		return nil, ErrInvalidLocalID
	}
	now := time.Now()
	return &EntityMapping{
		ID:         uuid.New(),
		TenantID:   tenantID,
		Provider:   provider,
		EntityType: entityType,
		LocalID:    localID,
		Status:     MappingStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// RecordSyncSuccess marks the mapping synced with the given remote ID and
// clears any previous error.
func (m *EntityMapping) RecordSyncSuccess(remoteID string) {
	now := time.Now()
	m.RemoteID = remoteID
	m.Status = MappingStatusSynced
	m.ErrorMessage = ""
	m.SyncedAt = &now
	m.UpdatedAt = now
}

// RecordSyncFailure marks the mapping failed with an error message.
// A previously assigned remote ID is kept so a later retry can update
// instead of create.
func (m *EntityMapping) RecordSyncFailure(errorMessage string) {
	m.Status = MappingStatusFailed
	m.ErrorMessage = errorMessage
	m.UpdatedAt = time.Now()
}

// IsSynced returns true if the mapping reflects a successful sync.
func (m *EntityMapping) IsSynced() bool {
	return m.Status == MappingStatusSynced
}

// ---------------------------------------------------------------------------
// Repository interfaces
// ---------------------------------------------------------------------------

// EntityMappingReader provides lookup access to mappings.
type EntityMappingReader interface {
	// Find returns the mapping for a local entity, or ErrMappingNotFound.
	Find(ctx context.Context, tenantID uuid.UUID, provider ProviderCode, entityType EntityType, localID uuid.UUID) (*EntityMapping, error)

	// FindSyncedLocalIDs returns the local IDs of all synced mappings for
	// an entity type. Used by the bulk orchestrator's set-difference
	// selection.
	FindSyncedLocalIDs(ctx context.Context, tenantID uuid.UUID, provider ProviderCode, entityType EntityType) ([]uuid.UUID, error)

	// CountByStatus returns the number of mappings per status for an
	// entity type.
	CountByStatus(ctx context.Context, tenantID uuid.UUID, provider ProviderCode, entityType EntityType) (map[MappingStatus]int64, error)
}

// EntityMappingWriter persists mappings.
type EntityMappingWriter interface {
	// Upsert inserts the mapping or, when a row already exists for the
	// same (tenant, provider, entity type, local ID), updates it in place.
	// Idempotent; safe to call on every sync attempt.
	Upsert(ctx context.Context, mapping *EntityMapping) error
}

// EntityMappingRepository combines read and write access.
type EntityMappingRepository interface {
	EntityMappingReader
	EntityMappingWriter
}
