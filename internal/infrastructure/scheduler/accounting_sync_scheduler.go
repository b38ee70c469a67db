// Package scheduler runs periodic background jobs, currently the automatic
// accounting sync for tenants that opted in.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/barbertime/backend/internal/domain/accounting"
)

// TenantSyncRunner runs a full sync pass for one tenant+provider. Implemented
// by the application sync service.
type TenantSyncRunner interface {
	SyncAll(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, trigger accounting.TriggerSource) (map[accounting.EntityType]*accounting.BulkSyncResult, error)
}

// AccountingSyncSchedulerConfig holds configuration for the auto-sync loop
type AccountingSyncSchedulerConfig struct {
	// Interval between passes over all auto-sync tenants.
	Interval time.Duration
	// MaxConcurrentTenants bounds how many tenants sync at once per pass.
	MaxConcurrentTenants int
	// RunTimeout is the maximum time one tenant+provider pass can run.
	RunTimeout time.Duration
}

// DefaultAccountingSyncSchedulerConfig returns default configuration
func DefaultAccountingSyncSchedulerConfig() AccountingSyncSchedulerConfig {
	return AccountingSyncSchedulerConfig{
		Interval:             15 * time.Minute,
		MaxConcurrentTenants: 3,
		RunTimeout:           10 * time.Minute,
	}
}

// Validate validates the configuration
func (c *AccountingSyncSchedulerConfig) Validate() error {
	if c.Interval <= 0 {
		return ErrInvalidConfig
	}
	if c.MaxConcurrentTenants <= 0 {
		return ErrInvalidConfig
	}
	if c.RunTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// AccountingSyncScheduler periodically syncs every tenant that enabled
// auto-sync. Runs are triggered as TriggerAuto so the sync log records who
// started them. A tenant failing never stops the pass for the others.
type AccountingSyncScheduler struct {
	config   AccountingSyncSchedulerConfig
	settings accounting.ProviderSettingsRepository
	runner   TenantSyncRunner
	logger   *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewAccountingSyncScheduler creates a new scheduler
func NewAccountingSyncScheduler(
	config AccountingSyncSchedulerConfig,
	settings accounting.ProviderSettingsRepository,
	runner TenantSyncRunner,
	logger *zap.Logger,
) (*AccountingSyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AccountingSyncScheduler{
		config:   config,
		settings: settings,
		runner:   runner,
		logger:   logger,
	}, nil
}

// Start starts the scheduler loop
func (s *AccountingSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("Accounting sync scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Int("max_concurrent_tenants", s.config.MaxConcurrentTenants),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *AccountingSyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Accounting sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Accounting sync scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *AccountingSyncScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single pass over all auto-sync tenants. Exported so an
// operator endpoint or test can trigger a pass without waiting a tick.
func (s *AccountingSyncScheduler) RunOnce(ctx context.Context) {
	enabled, err := s.settings.FindAllEnabled(ctx)
	if err != nil {
		s.logger.Error("Failed to load enabled provider settings", zap.Error(err))
		return
	}

	var targets []*accounting.ProviderSettings
	for _, row := range enabled {
		if row.AutoSyncEnabled {
			targets = append(targets, row)
		}
	}
	if len(targets) == 0 {
		return
	}

	s.logger.Info("Starting auto-sync pass", zap.Int("tenants", len(targets)))

	sem := make(chan struct{}, s.config.MaxConcurrentTenants)
	var wg sync.WaitGroup
	for _, row := range targets {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(row *accounting.ProviderSettings) {
			defer wg.Done()
			defer func() { <-sem }()
			s.syncTenant(ctx, row)
		}(row)
	}
	wg.Wait()
}

func (s *AccountingSyncScheduler) syncTenant(ctx context.Context, row *accounting.ProviderSettings) {
	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	results, err := s.runner.SyncAll(runCtx, row.TenantID, row.Provider, accounting.TriggerAuto)
	if err != nil {
		s.logger.Warn("Auto-sync failed for tenant",
			zap.String("tenant_id", row.TenantID.String()),
			zap.String("provider", row.Provider.String()),
			zap.Error(err))
		return
	}

	var processed, failed int
	for _, result := range results {
		processed += result.TotalProcessed
		failed += result.TotalFailed
	}
	s.logger.Info("Auto-sync finished for tenant",
		zap.String("tenant_id", row.TenantID.String()),
		zap.String("provider", row.Provider.String()),
		zap.Int("items_processed", processed),
		zap.Int("items_failed", failed))
}
