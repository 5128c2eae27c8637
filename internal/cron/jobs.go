package cron

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-gate-api/internal/observability"
)

// Job names.
const (
	PassExpiryJobName = "gate_pass_expiry"
	OTPCleanupJobName = "otp_cleanup"
)

type passExpirer interface {
	ExpireStale(ctx context.Context) (int64, error)
}

type otpPurger interface {
	PurgeStaleCodes(ctx context.Context) (int64, error)
}

// NewPassExpiryJob expires pending gate passes whose validity window has closed.
func NewPassExpiryJob(passes passExpirer, logger zerolog.Logger) (Job, error) {
	if passes == nil {
		return nil, fmt.Errorf("gate pass service required")
	}
	return &sweepJob{name: PassExpiryJobName, sweep: passes.ExpireStale, logger: logger}, nil
}

// NewOTPCleanupJob deletes used and expired login codes.
func NewOTPCleanupJob(codes otpPurger, logger zerolog.Logger) (Job, error) {
	if codes == nil {
		return nil, fmt.Errorf("auth service required")
	}
	return &sweepJob{name: OTPCleanupJobName, sweep: codes.PurgeStaleCodes, logger: logger}, nil
}

type sweepJob struct {
	name   string
	sweep  func(ctx context.Context) (int64, error)
	logger zerolog.Logger
}

func (j *sweepJob) Name() string { return j.name }

func (j *sweepJob) Run(ctx context.Context) error {
	rows, err := j.sweep(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}
	observability.CronJobAffectedRows().WithLabelValues(j.name).Add(float64(rows))
	if rows > 0 {
		j.logger.Info().Str("job", j.name).Int64("rows", rows).Msg("sweep complete")
	}
	return nil
}
