package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/manorfm/cpa-auth/internal/domain"
	"github.com/manorfm/cpa-auth/internal/infrastructure/instrumentation"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// deviceSessionRetention keeps expired sessions around long enough for a
// polling device to be told expired_token instead of invalid_grant.
const deviceSessionRetention = time.Hour

// CleanupService periodically purges artifacts that can no longer be redeemed
type CleanupService struct {
	repo     domain.MaintenanceRepository
	schedule string
	cron     *cron.Cron
	purgers  []func() int
	metrics  *instrumentation.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewCleanupService creates a cleanup job running on the given cron schedule.
// Extra purgers run with every pass; they return how many entries they dropped.
func NewCleanupService(repo domain.MaintenanceRepository, schedule string, metrics *instrumentation.Metrics, logger *zap.Logger, purgers ...func() int) *CleanupService {
	return &CleanupService{
		repo:     repo,
		schedule: schedule,
		cron:     cron.New(),
		purgers:  purgers,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Start schedules the cleanup job
func (c *CleanupService) Start() error {
	_, err := c.cron.AddFunc(c.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := c.RunOnce(ctx); err != nil {
			c.logger.Error("Cleanup failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", c.schedule, err)
	}

	c.cron.Start()
	c.logger.Info("Cleanup scheduler started", zap.String("schedule", c.schedule))
	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (c *CleanupService) Stop() {
	<-c.cron.Stop().Done()
	c.logger.Info("Cleanup scheduler stopped")
}

// RunOnce performs a single cleanup pass. Every step runs even when an
// earlier one fails.
func (c *CleanupService) RunOnce(ctx context.Context) error {
	now := c.now()

	steps := []struct {
		kind string
		run  func(context.Context, time.Time) (int64, error)
		at   time.Time
	}{
		{"authorization_codes", c.repo.DeleteStaleAuthorizationCodes, now},
		{"device_sessions_expired", c.repo.ExpireDeviceSessions, now},
		{"device_sessions", c.repo.DeleteStaleDeviceSessions, now.Add(-deviceSessionRetention)},
		{"refresh_tokens", c.repo.DeleteStaleRefreshTokens, now},
		{"access_tokens", c.repo.DeleteExpiredAccessTokens, now},
	}

	var errs []error
	for _, step := range steps {
		n, err := step.run(ctx, step.at)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.kind, err))
			continue
		}
		c.metrics.RecordPurged(ctx, step.kind, n)
		if n > 0 {
			c.logger.Info("Purged expired artifacts", zap.String("kind", step.kind), zap.Int64("count", n))
		}
	}

	for _, purge := range c.purgers {
		if n := purge(); n > 0 {
			c.logger.Debug("Purged in-memory entries", zap.Int("count", n))
		}
	}

	return errors.Join(errs...)
}
