// Package sweep schedules the periodic subscription expiry sweep. A Redis
// lock, when configured, keeps replicas from sweeping at the same time.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/musaabMD/expoiosweb/internal/platform/logger"
	"github.com/musaabMD/expoiosweb/internal/platform/redis"
	"github.com/musaabMD/expoiosweb/internal/platform/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// LockKey names the Redis lock guarding a sweep run.
const LockKey = "expoiosweb:expire-sweep"

// DefaultRunTimeout bounds one scheduled run.
const DefaultRunTimeout = 10 * time.Minute

// Expirer flips elapsed subscriptions to expired.
type Expirer interface {
	ExpireSweep(ctx context.Context, now time.Time) (int, error)
}

// Locker provides the cross-replica lock.
type Locker interface {
	Acquire(ctx context.Context, key string) (redis.ReleaseFunc, error)
}

// Runner performs one sweep run.
type Runner struct {
	expirer Expirer
	locker  Locker
	now     func() time.Time
	logger  *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLocker guards runs with a cross-replica lock.
func WithLocker(l Locker) RunnerOption {
	return func(r *Runner) { r.locker = l }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// NewRunner creates a Runner for expirer.
func NewRunner(expirer Expirer, log *slog.Logger, opts ...RunnerOption) *Runner {
	if log == nil {
		log = slog.Default()
	}
	r := &Runner{
		expirer: expirer,
		now:     time.Now,
		logger:  log.With(slog.String("component", "expire_sweep")),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunOnce runs the sweep unless another replica holds the lock, in which case
// it reports skipped.
func (r *Runner) RunOnce(ctx context.Context) (expired int, skipped bool, err error) {
	ctx, span := tracing.Tracer().Start(ctx, "expire_sweep")
	defer span.End()
	log := logger.FromContextOrDefault(ctx, r.logger)

	if r.locker != nil {
		release, err := r.locker.Acquire(ctx, LockKey)
		if errors.Is(err, redis.ErrLockHeld) {
			log.Info("expiry sweep skipped, lock held elsewhere")
			span.SetAttributes(attribute.Bool("sweep.skipped", true))
			return 0, true, nil
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "lock failed")
			return 0, false, err
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				log.Warn("failed to release sweep lock", slog.String("error", err.Error()))
			}
		}()
	}

	expired, err = r.expirer.ExpireSweep(ctx, r.now())
	span.SetAttributes(attribute.Int("sweep.expired", expired))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sweep failed")
		return expired, false, err
	}
	return expired, false, nil
}

// Scheduler triggers the Runner once a day.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    *Runner
	timeout   time.Duration
}

// NewScheduler schedules runner daily at the UTC wall-clock time at ("15:04").
func NewScheduler(runner *Runner, at string) (*Scheduler, error) {
	s := &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		runner:    runner,
		timeout:   DefaultRunTimeout,
	}
	if _, err := s.scheduler.Every(1).Day().At(at).SingletonMode().Do(s.run); err != nil {
		return nil, fmt.Errorf("schedule expiry sweep at %q: %w", at, err)
	}
	return s, nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, _, err := s.runner.RunOnce(ctx); err != nil {
		s.runner.logger.Error("scheduled expiry sweep failed", slog.String("error", err.Error()))
	}
}

// Start begins running the schedule in the background.
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

// Stop halts the schedule and waits for a running sweep to return.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}
