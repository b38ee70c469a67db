// Package accounting contains the concrete clients for external accounting
// systems and the OAuth token manager they share.
package accounting

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/barbertime/backend/internal/domain/accounting"
)

// maxResponseSize limits provider response bodies to prevent memory exhaustion
const maxResponseSize = 10 * 1024 * 1024 // 10MB max response

// defaultOAuthTokenURLs holds each provider's token endpoint. Tests override
// them with WithTokenURL.
var defaultOAuthTokenURLs = map[accounting.ProviderCode]string{
	accounting.ProviderFiken:    "https://fiken.no/oauth/token",
	accounting.ProviderUnimicro: "https://login.unimicro.no/connect/token",
	accounting.ProviderDNB:      "https://api.dnb.no/regnskap/v1/oauth/token",
}

// TokenManager owns the OAuth2 refresh-token lifecycle for the providers
// that use it. Callers get a valid access token and never see refresh
// mechanics; a token within five minutes of expiry is refreshed before it
// is handed out.
type TokenManager struct {
	settings   accounting.ProviderSettingsRepository
	syncLog    accounting.SyncLogRepository
	httpClient *http.Client
	logger     *zap.Logger
	tokenURLs  map[accounting.ProviderCode]string

	// locks serializes refreshes per tenant+provider.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// TokenManagerOption is a functional option for configuring the manager.
type TokenManagerOption func(*TokenManager)

// WithTokenURL overrides a provider's token endpoint.
func WithTokenURL(provider accounting.ProviderCode, tokenURL string) TokenManagerOption {
	return func(m *TokenManager) {
		m.tokenURLs[provider] = tokenURL
	}
}

// WithTokenHTTPClient overrides the HTTP client used for token exchanges.
func WithTokenHTTPClient(client *http.Client) TokenManagerOption {
	return func(m *TokenManager) {
		m.httpClient = client
	}
}

// NewTokenManager creates a new TokenManager.
func NewTokenManager(settings accounting.ProviderSettingsRepository, syncLog accounting.SyncLogRepository, logger *zap.Logger, opts ...TokenManagerOption) *TokenManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &TokenManager{
		settings:   settings,
		syncLog:    syncLog,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		tokenURLs:  make(map[accounting.ProviderCode]string, len(defaultOAuthTokenURLs)),
		locks:      make(map[string]*sync.Mutex),
	}
	for code, u := range defaultOAuthTokenURLs {
		m.tokenURLs[code] = u
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Token returns a valid access token for the tenant+provider, refreshing it
// first when it is missing or inside the expiry skew window.
func (m *TokenManager) Token(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode) (string, error) {
	settings, err := m.loadSettings(ctx, tenantID, provider)
	if err != nil {
		return "", err
	}
	if !settings.TokenExpired(time.Now()) {
		return settings.AccessToken, nil
	}
	return m.refresh(ctx, tenantID, provider, "")
}

// ForceRefresh discards the cached token and refreshes, used by clients
// after the provider rejected a token that looked valid locally.
func (m *TokenManager) ForceRefresh(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode) (string, error) {
	settings, err := m.loadSettings(ctx, tenantID, provider)
	if err != nil {
		return "", err
	}
	return m.refresh(ctx, tenantID, provider, settings.AccessToken)
}

func (m *TokenManager) loadSettings(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode) (*accounting.ProviderSettings, error) {
	settings, err := m.settings.FindByTenantAndProvider(ctx, tenantID, provider)
	if err != nil {
		return nil, accounting.ErrNotConfigured
	}
	if !settings.Enabled {
		return nil, accounting.ErrNotEnabled
	}
	if !settings.IsConfigured() {
		return nil, accounting.ErrNotConfigured
	}
	return settings, nil
}

// refresh performs the OAuth2 refresh-token exchange under the tenant's
// lock. staleToken is the access token the caller already deemed invalid;
// if the stored token differs after the lock is acquired, another refresh
// won the race and its token is returned as-is.
func (m *TokenManager) refresh(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, staleToken string) (string, error) {
	lock := m.lockFor(tenantID, provider)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock; a concurrent refresh may have finished.
	settings, err := m.loadSettings(ctx, tenantID, provider)
	if err != nil {
		return "", err
	}
	if !settings.TokenExpired(time.Now()) && settings.AccessToken != staleToken {
		return settings.AccessToken, nil
	}

	token, err := m.exchange(ctx, settings)
	if err == nil {
		return token, nil
	}

	// The stored refresh token may have rotated under a concurrent
	// process between our read and the exchange. Re-read and retry once
	// with the fresh value.
	reread, rereadErr := m.loadSettings(ctx, tenantID, provider)
	if rereadErr == nil && reread.RefreshToken != settings.RefreshToken {
		if token, retryErr := m.exchange(ctx, reread); retryErr == nil {
			return token, nil
		}
	}

	m.logRefreshFailure(ctx, tenantID, provider, err)
	return "", err
}

// exchange performs one grant_type=refresh_token POST and persists the
// rotated token set. Stored tokens are left untouched on failure.
func (m *TokenManager) exchange(ctx context.Context, settings *accounting.ProviderSettings) (string, error) {
	if settings.RefreshToken == "" {
		return "", fmt.Errorf("%w: no refresh token stored", accounting.ErrRefreshFailed)
	}
	tokenURL, ok := m.tokenURLs[settings.Provider]
	if !ok {
		return "", fmt.Errorf("%w: %s has no token endpoint", accounting.ErrRefreshFailed, settings.Provider)
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", settings.RefreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", accounting.ErrRefreshFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(settings.ClientID, settings.ClientSecret)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", accounting.ErrRefreshFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("%w: %v", accounting.ErrRefreshFailed, err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: HTTP %d", accounting.ErrRefreshFailed, resp.StatusCode)
	}

	var payload struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("%w: %v", accounting.ErrRefreshFailed, err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token in response", accounting.ErrRefreshFailed)
	}

	expiresAt := time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	settings.ApplyTokens(payload.AccessToken, payload.RefreshToken, expiresAt)
	if err := m.settings.UpdateTokens(ctx, settings); err != nil {
		return "", fmt.Errorf("%w: persisting tokens: %v", accounting.ErrRefreshFailed, err)
	}

	m.logger.Info("Access token refreshed",
		zap.String("tenant_id", settings.TenantID.String()),
		zap.String("provider", settings.Provider.String()),
		zap.Time("expires_at", expiresAt))
	return payload.AccessToken, nil
}

func (m *TokenManager) logRefreshFailure(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, cause error) {
	m.logger.Error("Token refresh failed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("provider", provider.String()),
		zap.Error(cause))

	entry := accounting.NewSyncLogEntry(tenantID, provider, "oauth_refresh", accounting.RunStatusFailed, accounting.TriggerAuto)
	entry.Details = fmt.Sprintf(`{"error":%q}`, cause.Error())
	if err := m.syncLog.Append(ctx, entry); err != nil {
		m.logger.Error("Failed to append sync log entry", zap.Error(err))
	}
}

func (m *TokenManager) lockFor(tenantID uuid.UUID, provider accounting.ProviderCode) *sync.Mutex {
	key := tenantID.String() + "|" + provider.String()
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key] = lock
	}
	return lock
}
