package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/barbertime/backend/internal/domain/accounting"
)

type stubSettingsSource struct {
	rows []*accounting.ProviderSettings
	err  error
}

func (s *stubSettingsSource) FindByTenantAndProvider(context.Context, uuid.UUID, accounting.ProviderCode) (*accounting.ProviderSettings, error) {
	return nil, accounting.ErrSettingsNotFound
}

func (s *stubSettingsSource) FindAllEnabled(context.Context) ([]*accounting.ProviderSettings, error) {
	return s.rows, s.err
}

func (s *stubSettingsSource) Save(context.Context, *accounting.ProviderSettings) error {
	return nil
}

func (s *stubSettingsSource) UpdateTokens(context.Context, *accounting.ProviderSettings) error {
	return nil
}

type recordingRunner struct {
	mu      sync.Mutex
	calls   []uuid.UUID
	failFor map[uuid.UUID]error
}

func (r *recordingRunner) SyncAll(_ context.Context, tenantID uuid.UUID, _ accounting.ProviderCode, trigger accounting.TriggerSource) (map[accounting.EntityType]*accounting.BulkSyncResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, tenantID)
	if err, ok := r.failFor[tenantID]; ok {
		return nil, err
	}
	if trigger != accounting.TriggerAuto {
		return nil, errors.New("scheduler runs must be triggered as auto")
	}
	return map[accounting.EntityType]*accounting.BulkSyncResult{
		accounting.EntityTypeCustomer: {Success: true},
	}, nil
}

func (r *recordingRunner) synced() []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uuid.UUID(nil), r.calls...)
}

func autoSyncRow(provider accounting.ProviderCode, auto bool) *accounting.ProviderSettings {
	row, _ := accounting.NewProviderSettings(uuid.New(), provider)
	row.Enabled = true
	row.AutoSyncEnabled = auto
	return row
}

func TestAccountingSyncScheduler_RunOnce(t *testing.T) {
	t.Run("syncs only tenants with auto-sync enabled", func(t *testing.T) {
		optedIn := autoSyncRow(accounting.ProviderFiken, true)
		optedOut := autoSyncRow(accounting.ProviderTripletex, false)
		runner := &recordingRunner{}

		s, err := NewAccountingSyncScheduler(
			DefaultAccountingSyncSchedulerConfig(),
			&stubSettingsSource{rows: []*accounting.ProviderSettings{optedIn, optedOut}},
			runner,
			zap.NewNop(),
		)
		require.NoError(t, err)

		s.RunOnce(context.Background())

		calls := runner.synced()
		require.Len(t, calls, 1)
		assert.Equal(t, optedIn.TenantID, calls[0])
	})

	t.Run("one failing tenant does not stop the pass", func(t *testing.T) {
		failing := autoSyncRow(accounting.ProviderFiken, true)
		healthy := autoSyncRow(accounting.ProviderFiken, true)
		runner := &recordingRunner{failFor: map[uuid.UUID]error{
			failing.TenantID: accounting.ErrRefreshFailed,
		}}

		s, err := NewAccountingSyncScheduler(
			DefaultAccountingSyncSchedulerConfig(),
			&stubSettingsSource{rows: []*accounting.ProviderSettings{failing, healthy}},
			runner,
			zap.NewNop(),
		)
		require.NoError(t, err)

		s.RunOnce(context.Background())

		assert.Len(t, runner.synced(), 2)
	})

	t.Run("settings lookup failure skips the pass", func(t *testing.T) {
		runner := &recordingRunner{}
		s, err := NewAccountingSyncScheduler(
			DefaultAccountingSyncSchedulerConfig(),
			&stubSettingsSource{err: errors.New("database down")},
			runner,
			zap.NewNop(),
		)
		require.NoError(t, err)

		s.RunOnce(context.Background())

		assert.Empty(t, runner.synced())
	})
}

func TestAccountingSyncScheduler_StartStop(t *testing.T) {
	row := autoSyncRow(accounting.ProviderFiken, true)
	runner := &recordingRunner{}

	cfg := AccountingSyncSchedulerConfig{
		Interval:             20 * time.Millisecond,
		MaxConcurrentTenants: 2,
		RunTimeout:           time.Second,
	}
	s, err := NewAccountingSyncScheduler(cfg,
		&stubSettingsSource{rows: []*accounting.ProviderSettings{row}},
		runner,
		zap.NewNop(),
	)
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return len(runner.synced()) >= 2
	}, time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
}

func TestAccountingSyncSchedulerConfig_Validate(t *testing.T) {
	cfg := DefaultAccountingSyncSchedulerConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Interval = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultAccountingSyncSchedulerConfig()
	cfg.MaxConcurrentTenants = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}
