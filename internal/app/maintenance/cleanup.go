package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/gatehouse-io/gatehouse/internal/services"
	"github.com/gatehouse-io/gatehouse/pkg/logger"
)

const (
	defaultRegistrationTTL  = 30 * 24 * time.Hour
	defaultRegistrationSpec = "@daily"
)

// Cleaner coordinates background maintenance tasks such as purging stale
// registration requests that were never promoted to users.
type Cleaner struct {
	registrations *services.RegistrationService
	cron          *cron.Cron
	now           func() time.Time
	log           *zap.Logger
	enabled       bool
	retention     time.Duration

	registrationSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for scheduling and cleanup comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithRegistrationTTL adjusts how long pending registrations are retained before cleanup.
func WithRegistrationTTL(ttl time.Duration) Option {
	return func(cleaner *Cleaner) {
		if ttl > 0 {
			cleaner.retention = ttl
		}
	}
}

// WithRegistrationSchedule overrides the cron specification for registration cleanup.
func WithRegistrationSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.registrationSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. A nil registration
// service results in the cleanup job being skipped.
func NewCleaner(registrations *services.RegistrationService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		registrations:        registrations,
		now:                  time.Now,
		retention:            defaultRegistrationTTL,
		registrationSchedule: defaultRegistrationSpec,
		log:                  logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	cleaner.enabled = cleaner.registrations != nil

	return cleaner
}

// Start registers cleanup jobs with the cron scheduler and launches it if at least one cleanup is enabled.
func (c *Cleaner) Start() error {
	if !c.enabled {
		return nil
	}

	if c.registrations != nil && c.retention > 0 {
		if _, err := c.cron.AddFunc(c.registrationSchedule, func() {
			ctx := context.Background()
			if _, err := c.registrations.PurgeExpired(ctx, c.retention); err != nil {
				c.log.Warn("registration cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially. Primarily used in tests
// and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.registrations != nil && c.retention > 0 {
		if purged, err := c.registrations.PurgeExpired(ctx, c.retention); err != nil {
			errs = multierr.Append(errs, err)
		} else if purged > 0 {
			c.log.Info("purged stale registrations", zap.Int64("count", purged))
		}
	}

	return errs
}
