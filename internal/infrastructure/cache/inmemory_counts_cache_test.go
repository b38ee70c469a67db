package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barbertime/backend/internal/domain/accounting"
)

func TestInMemoryCountsCache(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	counts := &accounting.UnsyncedCounts{Customers: 3, Invoices: 7, Payments: 2}

	t.Run("miss before set", func(t *testing.T) {
		cache := NewInMemoryCountsCache()

		got, ok := cache.Get(ctx, tenantID, accounting.ProviderFiken)

		assert.False(t, ok)
		assert.Nil(t, got)
	})

	t.Run("set then get returns a copy", func(t *testing.T) {
		cache := NewInMemoryCountsCache()
		cache.Set(ctx, tenantID, accounting.ProviderFiken, counts, time.Minute)

		got, ok := cache.Get(ctx, tenantID, accounting.ProviderFiken)

		require.True(t, ok)
		assert.Equal(t, int64(12), got.Total())

		got.Customers = 99
		again, ok := cache.Get(ctx, tenantID, accounting.ProviderFiken)
		require.True(t, ok)
		assert.Equal(t, int64(3), again.Customers, "callers must not mutate the cached value")
	})

	t.Run("entries are scoped per provider", func(t *testing.T) {
		cache := NewInMemoryCountsCache()
		cache.Set(ctx, tenantID, accounting.ProviderFiken, counts, time.Minute)

		_, ok := cache.Get(ctx, tenantID, accounting.ProviderTripletex)

		assert.False(t, ok)
	})

	t.Run("expired entry is a miss", func(t *testing.T) {
		cache := NewInMemoryCountsCache()
		cache.Set(ctx, tenantID, accounting.ProviderFiken, counts, -time.Second)

		_, ok := cache.Get(ctx, tenantID, accounting.ProviderFiken)

		assert.False(t, ok)
	})

	t.Run("invalidate drops the entry", func(t *testing.T) {
		cache := NewInMemoryCountsCache()
		cache.Set(ctx, tenantID, accounting.ProviderFiken, counts, time.Minute)

		cache.Invalidate(ctx, tenantID, accounting.ProviderFiken)

		_, ok := cache.Get(ctx, tenantID, accounting.ProviderFiken)
		assert.False(t, ok)
	})
}
