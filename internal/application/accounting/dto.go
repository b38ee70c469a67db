package accounting

import (
	"time"

	"github.com/barbertime/backend/internal/domain/accounting"
)

// SettingsInput carries a settings update. Secret fields left empty keep
// their stored values so the dashboard never has to round-trip credentials.
type SettingsInput struct {
	Enabled         bool
	AutoSyncEnabled bool
	ClientID        string
	ClientSecret    string
	ConsumerToken   string
	EmployeeToken   string
	CompanyID       string
	CompanySlug     string
	PaymentAccount  string
}

// SettingsView is the settings read model. Secrets are reduced to presence
// flags; tokens never leave the service.
type SettingsView struct {
	Provider         accounting.ProviderCode
	ProviderName     string
	Enabled          bool
	AutoSyncEnabled  bool
	ClientID         string
	HasClientSecret  bool
	HasConsumerToken bool
	HasEmployeeToken bool
	CompanyID        string
	CompanySlug      string
	PaymentAccount   string
	Connected        bool
	TokenExpiresAt   *time.Time
	UpdatedAt        time.Time
}

func newSettingsView(s *accounting.ProviderSettings) *SettingsView {
	return &SettingsView{
		Provider:         s.Provider,
		ProviderName:     s.Provider.DisplayName(),
		Enabled:          s.Enabled,
		AutoSyncEnabled:  s.AutoSyncEnabled,
		ClientID:         s.ClientID,
		HasClientSecret:  s.ClientSecret != "",
		HasConsumerToken: s.ConsumerToken != "",
		HasEmployeeToken: s.EmployeeToken != "",
		CompanyID:        s.CompanyID,
		CompanySlug:      s.CompanySlug,
		PaymentAccount:   s.PaymentAccount,
		Connected:        s.AccessToken != "" || s.RefreshToken != "",
		TokenExpiresAt:   s.TokenExpiresAt,
		UpdatedAt:        s.UpdatedAt,
	}
}
