package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// TokenPurger removes refresh tokens past their expiry.
type TokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// TokenPurgeJob deletes expired refresh tokens on a schedule. Revoked but
// unexpired tokens stay in place so rotation anomalies remain visible until
// they age out.
type TokenPurgeJob struct {
	Purger TokenPurger
	Logger *slog.Logger
	clock  func() time.Time
}

// NewTokenPurgeJob constructs the job handler.
func NewTokenPurgeJob(purger TokenPurger, logger *slog.Logger) *TokenPurgeJob {
	return &TokenPurgeJob{
		Purger: purger,
		Logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the purge.
func (j *TokenPurgeJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Purger == nil {
		return errors.New("token purge: dependencies not configured")
	}
	start := j.now()
	purged, err := j.Purger.PurgeExpired(ctx)
	if err != nil {
		j.log().Error("purge expired tokens", slog.Any("error", err))
		return err
	}
	j.log().Info("purged expired refresh tokens",
		slog.Int64("purged", purged),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *TokenPurgeJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTokenPurge))
	}
	return slog.Default().With(slog.String("job", TaskTokenPurge))
}

func (j *TokenPurgeJob) now() time.Time {
	if j != nil && j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

// WithClock overrides the internal clock for deterministic tests.
func (j *TokenPurgeJob) WithClock(clock func() time.Time) {
	if j != nil && clock != nil {
		j.clock = clock
	}
}
