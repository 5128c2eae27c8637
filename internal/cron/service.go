package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-gate-api/internal/observability"
)

const defaultInterval = 5 * time.Minute

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   zerolog.Logger
	Registry *Registry
	Lock     Lock
	Interval time.Duration
}

// Service executes registered jobs on a fixed cadence.
type Service struct {
	logger   zerolog.Logger
	registry *Registry
	lock     Lock
	interval time.Duration
}

// NewService builds a cron service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logger:   params.Logger.With().Str("component", "cron").Logger(),
		registry: registry,
		lock:     params.Lock,
		interval: interval,
	}, nil
}

// Run executes one cycle immediately and then one per interval until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.runCycle(ctx); err != nil {
		s.logger.Error().Err(err).Msg("scheduled run failed")
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("cron service stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.runCycle(ctx); err != nil {
				s.logger.Error().Err(err).Msg("scheduled run failed")
			}
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logger.Debug().Msg("another instance holds the cron lock; skipping cycle")
		return nil
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logger.Error().Err(relErr).Msg("failed to release cron lock")
		}
	}()

	for _, job := range s.registry.Jobs() {
		s.runJob(ctx, job)
	}
	return nil
}

func (s *Service) runJob(ctx context.Context, job Job) {
	jobLogger := s.logger.With().Str("job", job.Name()).Logger()
	start := time.Now()
	err := job.Run(ctx)
	duration := time.Since(start)

	observability.CronJobDuration().WithLabelValues(job.Name()).Observe(duration.Seconds())
	if err != nil {
		observability.CronJobRuns().WithLabelValues(job.Name(), "failure").Inc()
		jobLogger.Error().Err(err).Int64("duration_ms", duration.Milliseconds()).Msg("job failed")
		return
	}
	observability.CronJobRuns().WithLabelValues(job.Name(), "success").Inc()
	jobLogger.Debug().Int64("duration_ms", duration.Milliseconds()).Msg("job completed")
}
