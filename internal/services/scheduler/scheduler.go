// Package scheduler runs the periodic source cache maintenance sweep.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cursana/internal/common"
	"github.com/ternarybob/cursana/internal/interfaces"
)

// Service deletes sources older than the configured max age on a cron
// schedule, forcing the next pipeline run to re-fetch them. Disabled unless
// refresh is enabled in configuration.
type Service struct {
	config  *common.RefreshConfig
	storage interfaces.SourceStorage
	cron    *cron.Cron
	logger  arbor.ILogger

	mu       sync.Mutex
	sweeping bool
	running  bool
}

// NewService creates a refresh scheduler
func NewService(config *common.RefreshConfig, storage interfaces.SourceStorage, logger arbor.ILogger) *Service {
	return &Service{
		config:  config,
		storage: storage,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger,
	}
}

// Start registers the sweep job and begins the scheduler. A no-op when
// refresh is disabled.
func (s *Service) Start() error {
	if !s.config.Enabled {
		s.logger.Debug().Msg("Source refresh disabled, scheduler not started")
		return nil
	}
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	maxAge, err := time.ParseDuration(s.config.MaxAge)
	if err != nil {
		return fmt.Errorf("invalid refresh max_age %q: %w", s.config.MaxAge, err)
	}

	schedule := s.config.Schedule
	if schedule == "" {
		schedule = "0 0 */6 * * *"
	}

	if _, err := s.cron.AddFunc(schedule, func() {
		s.sweep(maxAge)
	}); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", schedule).
		Str("max_age", s.config.MaxAge).
		Msg("Source refresh scheduler started")

	return nil
}

// Stop halts the scheduler and waits for an in-flight sweep to finish
func (s *Service) Stop() {
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info().Msg("Source refresh scheduler stopped")
}

// IsRunning reports whether the scheduler is active
func (s *Service) IsRunning() bool {
	return s.running
}

// Sweep deletes sources fetched before now minus the configured max age.
// Exposed for manual triggering.
func (s *Service) Sweep() error {
	maxAge, err := time.ParseDuration(s.config.MaxAge)
	if err != nil {
		return fmt.Errorf("invalid refresh max_age %q: %w", s.config.MaxAge, err)
	}
	s.sweep(maxAge)
	return nil
}

func (s *Service) sweep(maxAge time.Duration) {
	s.mu.Lock()
	if s.sweeping {
		s.mu.Unlock()
		s.logger.Debug().Msg("Sweep already in progress, skipping cycle")
		return
	}
	s.sweeping = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.sweeping = false
		s.mu.Unlock()
	}()

	cutoff := time.Now().Add(-maxAge)
	deleted, err := s.storage.DeleteOlderThan(cutoff)
	if err != nil {
		s.logger.Error().Err(err).Str("cutoff", cutoff.Format(time.RFC3339)).Msg("Stale source sweep failed")
		return
	}

	s.logger.Info().
		Int("deleted", deleted).
		Str("cutoff", cutoff.Format(time.RFC3339)).
		Msg("Stale source sweep completed")
}
