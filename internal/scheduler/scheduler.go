// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// KeyPurger deletes idempotency keys that expired at or before now.
type KeyPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Scheduler owns the cron runner of the server.
type Scheduler struct {
	cron   *cron.Cron
	logger zerolog.Logger
}

// New creates a Scheduler. Jobs are added with the Add* methods before Start.
func New(logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cronLogger{logger}))),
		logger: logger.With().Str("component", "scheduler").Logger(),
	}
}

// AddIdempotencyPurge schedules purger on spec, e.g. "@every 1h".
func (s *Scheduler) AddIdempotencyPurge(spec string, purger KeyPurger) error {
	_, err := s.cron.AddFunc(spec, func() {
		PurgeIdempotencyKeys(context.Background(), purger, time.Now(), s.logger)
	})
	if err != nil {
		return fmt.Errorf("invalid purge schedule %q: %w", spec, err)
	}
	return nil
}

// Start runs the scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling new runs and waits for running jobs or ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// PurgeIdempotencyKeys runs one purge and logs the outcome.
func PurgeIdempotencyKeys(ctx context.Context, purger KeyPurger, now time.Time, logger zerolog.Logger) {
	purged, err := purger.PurgeExpired(ctx, now)
	if err != nil {
		logger.Error().Err(err).Msg("idempotency key purge failed")
		return
	}
	logger.Debug().Int64("purged", purged).Msg("purged expired idempotency keys")
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
