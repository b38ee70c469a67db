package accounting

import (
	"sync"

	"github.com/barbertime/backend/internal/domain/accounting"
)

// Registry is the in-process provider registry keyed by provider code.
type Registry struct {
	mu        sync.RWMutex
	providers map[accounting.ProviderCode]accounting.AccountingProvider
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[accounting.ProviderCode]accounting.AccountingProvider),
	}
}

// Register adds a provider client, replacing any existing one for the code.
func (r *Registry) Register(provider accounting.AccountingProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Code()] = provider
}

// Get returns the client for the given code, or ErrUnknownProvider.
func (r *Registry) Get(code accounting.ProviderCode) (accounting.AccountingProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	provider, ok := r.providers[code]
	if !ok {
		return nil, accounting.ErrUnknownProvider
	}
	return provider, nil
}

// List returns all registered provider clients.
func (r *Registry) List() []accounting.AccountingProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]accounting.AccountingProvider, 0, len(r.providers))
	for _, provider := range r.providers {
		out = append(out, provider)
	}
	return out
}

var _ accounting.ProviderRegistry = (*Registry)(nil)
