package accounting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barbertime/backend/internal/domain/accounting"
)

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	repo := newStubSettingsRepo()
	tokens := NewTokenManager(repo, &stubSyncLog{}, nil)

	registry.Register(NewFikenClient(repo, tokens))
	registry.Register(NewTripletexClient(repo, nil))

	t.Run("Get returns registered client", func(t *testing.T) {
		client, err := registry.Get(accounting.ProviderFiken)
		require.NoError(t, err)
		assert.Equal(t, accounting.ProviderFiken, client.Code())
	})

	t.Run("Unknown code", func(t *testing.T) {
		_, err := registry.Get(accounting.ProviderDNB)
		assert.ErrorIs(t, err, accounting.ErrUnknownProvider)
	})

	t.Run("List returns all", func(t *testing.T) {
		assert.Len(t, registry.List(), 2)
	})
}
