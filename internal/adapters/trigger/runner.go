// Package trigger provides the periodic caller that invokes the dispatch handler.
package trigger

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/target/ticketgate/internal/core"
	"github.com/target/ticketgate/internal/domain/model"
)

// Dispatcher runs one dispatch invocation.
type Dispatcher interface {
	Dispatch(ctx context.Context) (*model.DispatchOutcome, error)
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Dispatcher Dispatcher
	Interval   time.Duration
	Logger     *slog.Logger

	// Optional: lets only one replica fire per tick.
	Cache      core.CacheRepository
	InstanceID string
}

// Runner calls the dispatcher on a fixed interval. The gate decides whether anything is sent;
// the runner only supplies invocations.
type Runner struct {
	dispatcher Dispatcher
	interval   time.Duration
	logger     *slog.Logger
	cache      core.CacheRepository
	instanceID string
}

// NewRunner creates a new trigger runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.InstanceID == "" {
		opts.InstanceID = "ticketgate"
	}
	return &Runner{
		dispatcher: opts.Dispatcher,
		interval:   opts.Interval,
		logger:     opts.Logger.With("component", "trigger"),
		cache:      opts.Cache,
		instanceID: opts.InstanceID,
	}, nil
}

// Run invokes the dispatcher every interval until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting trigger runner", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "trigger runner stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case now := <-ticker.C:
			r.Tick(ctx, now)
		}
	}
}

// Tick performs one scheduled invocation and reports whether the dispatcher was called.
// Dispatch errors are logged; the runner keeps going.
func (r *Runner) Tick(ctx context.Context, now time.Time) bool {
	if !r.acquireTick(ctx, now) {
		r.logger.DebugContext(ctx, "tick owned by another instance", "tick", now.Truncate(r.interval))
		return false
	}

	out, err := r.dispatcher.Dispatch(ctx)
	switch {
	case err != nil:
		r.logger.ErrorContext(ctx, "scheduled dispatch failed", "error", err)
	case out.Dispatched():
		r.logger.InfoContext(ctx, "scheduled dispatch sent",
			"invocation_id", out.InvocationID,
			"next_interval_minutes", out.NextIntervalMinutes,
		)
	default:
		r.logger.DebugContext(ctx, "scheduled dispatch not eligible",
			"invocation_id", out.InvocationID,
			"minutes_remaining", out.MinutesRemaining,
		)
	}
	return true
}

func (r *Runner) acquireTick(ctx context.Context, now time.Time) bool {
	if r.cache == nil {
		return true
	}
	slot := now.Truncate(r.interval).Unix()
	key := "trigger:tick:" + strconv.FormatInt(slot, 10)
	ok, err := r.cache.SetIfNotExists(ctx, key, []byte(r.instanceID), r.interval)
	if err != nil {
		// The row lock still serializes dispatches.
		r.logger.WarnContext(ctx, "tick lock unavailable; invoking anyway", "error", err)
		return true
	}
	return ok
}
