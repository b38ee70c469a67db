package accounting

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// tokenExpirySkew is how long before the stored expiry a token is treated
// as expired, so a call made with it cannot die mid-flight.
const tokenExpirySkew = 5 * time.Minute

// ProviderSettings holds one tenant's configuration for one accounting
// provider, including the OAuth token state the token manager maintains.
// Tripletex does not use OAuth; its consumer/employee tokens live in the
// dedicated fields and AccessToken carries the derived session token.
type ProviderSettings struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Provider ProviderCode

	// Enabled gates all sync operations for this tenant+provider.
	Enabled bool
	// AutoSyncEnabled opts the tenant into the scheduler's periodic sync.
	AutoSyncEnabled bool

	// OAuth2 client credentials (Fiken, Unimicro, DNB Regnskap).
	ClientID     string
	ClientSecret string

	// Token state. RefreshToken rotates on every refresh.
	AccessToken    string
	RefreshToken   string
	TokenExpiresAt *time.Time

	// Tripletex credentials. The session token derived from them is stored
	// in AccessToken with its expiry in TokenExpiresAt.
	ConsumerToken string
	EmployeeToken string
	CompanyID     string

	// CompanySlug scopes Fiken API paths (fiken.no company identifier).
	CompanySlug string
	// PaymentAccount is the bookkeeping account payments are registered
	// against, empty for the provider default.
	PaymentAccount string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProviderSettings creates disabled settings for a tenant+provider pair.
func NewProviderSettings(tenantID uuid.UUID, provider ProviderCode) (*ProviderSettings, error) {
	if tenantID == uuid.Nil {
		return nil, ErrInvalidTenantID
	}
	if !provider.IsValid() {
		return nil, ErrUnknownProvider
	}
	now := time.Now()
	return &ProviderSettings{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Provider:  provider,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsConfigured reports whether the credentials needed to talk to the
// provider are present.
func (s *ProviderSettings) IsConfigured() bool {
	if s.Provider == ProviderTripletex {
		return s.ConsumerToken != "" && s.EmployeeToken != ""
	}
	return s.ClientID != "" && s.ClientSecret != ""
}

// TokenExpired reports whether the stored access token is missing or within
// the expiry skew window.
func (s *ProviderSettings) TokenExpired(now time.Time) bool {
	if s.AccessToken == "" {
		return true
	}
	if s.TokenExpiresAt == nil {
		return false
	}
	return !now.Before(s.TokenExpiresAt.Add(-tokenExpirySkew))
}

// ApplyTokens records a fresh token set from a refresh or session-create
// exchange. An empty refreshToken keeps the current one (some providers do
// not rotate on every exchange).
func (s *ProviderSettings) ApplyTokens(accessToken, refreshToken string, expiresAt time.Time) {
	s.AccessToken = accessToken
	if refreshToken != "" {
		s.RefreshToken = refreshToken
	}
	s.TokenExpiresAt = &expiresAt
	s.UpdatedAt = time.Now()
}

// ---------------------------------------------------------------------------
// Repository interface
// ---------------------------------------------------------------------------

// ProviderSettingsRepository persists per-tenant provider settings.
type ProviderSettingsRepository interface {
	// FindByTenantAndProvider returns the settings row, or
	// ErrSettingsNotFound.
	FindByTenantAndProvider(ctx context.Context, tenantID uuid.UUID, provider ProviderCode) (*ProviderSettings, error)

	// FindAllEnabled returns every enabled settings row across tenants.
	// Used by the auto-sync scheduler.
	FindAllEnabled(ctx context.Context) ([]*ProviderSettings, error)

	// Save inserts or updates the settings row.
	Save(ctx context.Context, settings *ProviderSettings) error

	// UpdateTokens persists only the token fields in a single write so a
	// refresh cannot clobber concurrent settings edits.
	UpdateTokens(ctx context.Context, settings *ProviderSettings) error
}
