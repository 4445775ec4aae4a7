package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultCleanupSpec runs the cleanup job hourly
const DefaultCleanupSpec = "@every 1h"

// Sweeper is implemented by stores that expire entries lazily
type Sweeper interface {
	Sweep() int
}

// CleanupReport summarizes one cleanup run
type CleanupReport struct {
	RefreshTokensDeleted int64
	KVEntriesSwept       int
}

// CronService runs periodic housekeeping in the background
type CronService struct {
	tokens  *TokenService
	sweeper Sweeper
	logger  *slog.Logger
	spec    string
	timeout time.Duration
	cron    *cron.Cron
}

// NewCronService creates the scheduler. sweeper may be nil when the KV store
// expires keys itself.
func NewCronService(tokens *TokenService, sweeper Sweeper, logger *slog.Logger, spec string) *CronService {
	if spec == "" {
		spec = DefaultCleanupSpec
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CronService{
		tokens:  tokens,
		sweeper: sweeper,
		logger:  logger.With("service", "cron"),
		spec:    spec,
		timeout: time.Minute,
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
	}
}

// Start schedules the cleanup job and starts the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.RunCleanup(ctx)
	}); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("cron started", "cleanup", s.spec)
	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("cron stopped")
}

// RunCleanup deletes expired refresh tokens and sweeps the KV store once
func (s *CronService) RunCleanup(ctx context.Context) CleanupReport {
	var report CleanupReport

	deleted, err := s.tokens.CleanupExpired(ctx)
	if err != nil {
		s.logger.Error("cleanup refresh tokens", "error", err)
	} else {
		report.RefreshTokensDeleted = deleted
	}

	if s.sweeper != nil {
		report.KVEntriesSwept = s.sweeper.Sweep()
	}

	if report.RefreshTokensDeleted > 0 || report.KVEntriesSwept > 0 {
		s.logger.Info("cleanup finished",
			"refresh_tokens_deleted", report.RefreshTokensDeleted,
			"kv_entries_swept", report.KVEntriesSwept,
		)
	}
	return report
}
