package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/target/ticketgate/internal/core"
	"github.com/target/ticketgate/internal/domain/dispatch"
	"github.com/target/ticketgate/internal/domain/model"
	obserrors "github.com/target/ticketgate/internal/observability/errors"
	"github.com/target/ticketgate/internal/observability/metrics"
	"github.com/target/ticketgate/internal/observability/notify"
	"github.com/target/ticketgate/internal/service/failurenotifier"
)

const (
	defaultNotifyTimeout  = 5 * time.Second
	defaultPersistTimeout = 10 * time.Second
)

// StatsVersionKey holds the id of the newest committed record. Cached stats are keyed by it.
const StatsVersionKey = "stats:version"

// DispatchServiceOptions groups dependencies for DispatchService.
type DispatchServiceOptions struct {
	Configs         core.DispatchConfigRepository // Required: gate row and transactional writes
	Notifier        core.TicketNotifier           // Required: external ticket notification
	Catalog         *dispatch.Catalog             // Required: selectable variants
	Randomizer      *dispatch.Randomizer          // Optional: defaults to a randomly seeded source
	Clock           core.TimeProvider             // Optional: defaults to time.Now
	NotifyTimeout   time.Duration                 // Optional: bound on the notifier call (default 5s)
	PersistTimeout  time.Duration                 // Optional: budget for the gate read and writes (default 10s)
	Cache           core.CacheRepository          // Optional: stats cache version bump
	Metrics         *metrics.DispatchMetrics      // Optional: prometheus collectors
	FailureNotifier *failurenotifier.Service      // Optional: failure notification fan-out
	Logger          *slog.Logger                  // Optional: structured logger
}

// DispatchService runs one gated dispatch per invocation.
//
// The gate check, notifier call and both writes run while the config row lock is held, so
// concurrent invocations serialize and at most one of them dispatches per interval.
type DispatchService struct {
	configs         core.DispatchConfigRepository
	notifier        core.TicketNotifier
	catalog         *dispatch.Catalog
	randomizer      *dispatch.Randomizer
	clock           core.TimeProvider
	notifyTimeout   time.Duration
	persistTimeout  time.Duration
	cache           core.CacheRepository
	metrics         *metrics.DispatchMetrics
	failureNotifier *failurenotifier.Service
	logger          *slog.Logger
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// NewDispatchService constructs a new DispatchService.
func NewDispatchService(opts DispatchServiceOptions) (*DispatchService, error) {
	if opts.Configs == nil {
		return nil, errors.New("DispatchConfigRepository is required")
	}
	if opts.Notifier == nil {
		return nil, errors.New("TicketNotifier is required")
	}
	if opts.Catalog == nil || opts.Catalog.Len() == 0 {
		return nil, errors.New("non-empty Catalog is required")
	}

	randomizer := opts.Randomizer
	if randomizer == nil {
		randomizer = dispatch.NewRandomizer(nil)
	}
	var clock core.TimeProvider = systemClock{}
	if opts.Clock != nil {
		clock = opts.Clock
	}
	timeout := opts.NotifyTimeout
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	persist := opts.PersistTimeout
	if persist <= 0 {
		persist = defaultPersistTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &DispatchService{
		configs:         opts.Configs,
		notifier:        opts.Notifier,
		catalog:         opts.Catalog,
		randomizer:      randomizer,
		clock:           clock,
		notifyTimeout:   timeout,
		persistTimeout:  persist,
		cache:           opts.Cache,
		metrics:         opts.Metrics,
		failureNotifier: opts.FailureNotifier,
		logger:          logger.With("component", "dispatch_service"),
	}, nil
}

// MustNewDispatchService constructs a new DispatchService and panics on error.
func MustNewDispatchService(opts DispatchServiceOptions) *DispatchService {
	svc, err := NewDispatchService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create DispatchService: %v", err))
	}
	return svc
}

// Dispatch runs one invocation: check the gate, notify, then record.
//
// An ineligible gate is not an error; the outcome reports the minutes remaining. Errors wrap
// model.ErrConfigUnavailable or model.ErrPersistenceFailure. Notifier failures never surface here.
//
// Once started, an invocation ignores caller cancellation: a ticket that may already have been
// delivered is always recorded. The service bounds the run by the notify and persist timeouts.
func (s *DispatchService) Dispatch(ctx context.Context) (*model.DispatchOutcome, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout+s.persistTimeout)
	defer cancel()

	started := time.Now()
	inv := dispatch.NewInvocation(uuid.NewString())
	logger := s.logger.With("invocation_id", inv.ID)
	s.advance(ctx, logger, inv, dispatch.StateChecking)

	var outcome *model.DispatchOutcome
	err := s.configs.WithConfigLock(ctx, func(ctx context.Context, cfg model.DispatchConfig, tx core.DispatchTx) error {
		var err error
		outcome, err = s.run(ctx, logger, inv, cfg, tx)
		return err
	})

	switch {
	case err == nil && inv.State() == dispatch.StateIneligible:
		s.metrics.ObserveInvocation(metrics.OutcomeIneligible, time.Since(started), nil)
		return outcome, nil
	case err == nil:
		s.advance(ctx, logger, inv, dispatch.StateDone)
		s.completed(ctx, logger, outcome)
		s.metrics.ObserveInvocation(metrics.OutcomeDispatched, time.Since(started), nil)
		return outcome, nil
	case inv.State() == dispatch.StateIneligible:
		// Nothing was written; a failed read-only commit does not change the decision.
		logger.WarnContext(ctx, "gate transaction did not commit cleanly", "error", err)
		s.metrics.ObserveInvocation(metrics.OutcomeIneligible, time.Since(started), nil)
		return outcome, nil
	}

	stage := inv.State()
	err = classifyFailure(stage, err)
	s.advance(ctx, logger, inv, dispatch.StateFailed)
	s.metrics.ObserveInvocation(metrics.OutcomeFailed, time.Since(started), err)
	logger.ErrorContext(ctx, "dispatch failed", "stage", stage, "error", err)
	s.reportFailure(ctx, inv.ID, stage, err)
	return nil, err
}

func (s *DispatchService) run(
	ctx context.Context,
	logger *slog.Logger,
	inv *dispatch.Invocation,
	cfg model.DispatchConfig,
	tx core.DispatchTx,
) (*model.DispatchOutcome, error) {
	decision := dispatch.Evaluate(cfg, s.clock.Now())
	if !decision.Eligible {
		s.advance(ctx, logger, inv, dispatch.StateIneligible)
		logger.InfoContext(ctx, "dispatch not eligible",
			"interval_minutes", cfg.IntervalMinutes,
			"minutes_remaining", decision.MinutesRemaining,
		)
		return &model.DispatchOutcome{
			InvocationID:     inv.ID,
			Status:           model.DispatchStatusIneligible,
			MinutesRemaining: decision.MinutesRemaining,
		}, nil
	}
	s.advance(ctx, logger, inv, dispatch.StateEligible)

	variant, _ := s.randomizer.ChooseVariant(s.catalog.Variants())
	rate := s.randomizer.DeliveryRate()
	next := s.randomizer.NextIntervalMinutes()

	s.advance(ctx, logger, inv, dispatch.StateNotifying)
	notifyErr := s.notify(ctx, variant, rate)
	if notifyErr != nil {
		s.metrics.ObserveNotifierFailure(variant.Destination, notifyErr)
		logger.WarnContext(ctx, "ticket notification failed; recording dispatch anyway",
			"destination_domain", metrics.DestinationDomain(variant.Destination),
			"error", notifyErr,
		)
	}

	s.advance(ctx, logger, inv, dispatch.StateRecording)
	rec := model.NewDispatchRecord{
		Value:        variant.Value,
		DeliveryRate: rate,
		Destination:  variant.Destination,
		NotifyStatus: model.NotifyStatusOK,
		SentAt:       s.clock.Now(),
	}
	if notifyErr != nil {
		msg := notifyErr.Error()
		rec.NotifyStatus = model.NotifyStatusFailed
		rec.NotifyError = &msg
	}

	stored, err := tx.InsertRecord(ctx, rec)
	if err != nil {
		return nil, err
	}
	if err := tx.AdvanceConfig(ctx, model.AdvanceConfig{
		ID:              cfg.ID,
		LastSentAt:      stored.SentAt,
		IntervalMinutes: next,
	}); err != nil {
		return nil, err
	}

	return &model.DispatchOutcome{
		InvocationID:        inv.ID,
		Status:              model.DispatchStatusDispatched,
		Record:              stored,
		NextIntervalMinutes: next,
	}, nil
}

func (s *DispatchService) notify(ctx context.Context, variant model.Variant, rate model.DeliveryRate) error {
	notifyCtx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()
	if err := s.notifier.Notify(notifyCtx, variant, rate); err != nil {
		if errors.Is(err, model.ErrNotifierFailure) {
			return err
		}
		return fmt.Errorf("%w: %w", model.ErrNotifierFailure, err)
	}
	return nil
}

func (s *DispatchService) advance(ctx context.Context, logger *slog.Logger, inv *dispatch.Invocation, next dispatch.State) {
	from := inv.State()
	if err := inv.Transition(next); err != nil {
		logger.ErrorContext(ctx, "invalid invocation transition", "error", err)
		return
	}
	logger.DebugContext(ctx, "invocation state changed", "from", from, "to", next)
}

func (s *DispatchService) completed(ctx context.Context, logger *slog.Logger, outcome *model.DispatchOutcome) {
	rec := outcome.Record
	logger.InfoContext(ctx, "dispatch recorded",
		"record_id", rec.ID,
		"value", rec.Value.String(),
		"delivery_rate", rec.DeliveryRate.String(),
		"notify_status", rec.NotifyStatus,
		"next_interval_minutes", outcome.NextIntervalMinutes,
	)
	s.metrics.ObserveDispatch(rec.Value.Float64(), rec.SentAt, outcome.NextIntervalMinutes)

	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, StatsVersionKey, []byte(rec.ID), 0); err != nil {
		logger.WarnContext(ctx, "failed to bump stats cache version", "error", err)
	}
}

func (s *DispatchService) reportFailure(ctx context.Context, invocationID string, stage dispatch.State, err error) {
	if s.failureNotifier == nil || !s.failureNotifier.Enabled() {
		return
	}
	s.failureNotifier.NotifyDispatchFailure(context.WithoutCancel(ctx), notify.DispatchFailurePayload{
		InvocationID: invocationID,
		Stage:        string(stage),
		Error:        err.Error(),
		ErrorClass:   obserrors.Classify(err),
		Severity:     notify.SeverityCritical,
		OccurredAt:   s.clock.Now(),
	})
}

// classifyFailure makes sure every returned error carries one of the abort sentinels.
func classifyFailure(stage dispatch.State, err error) error {
	if errors.Is(err, model.ErrConfigUnavailable) || errors.Is(err, model.ErrPersistenceFailure) {
		return err
	}
	if stage == dispatch.StateChecking {
		return fmt.Errorf("%w: %w", model.ErrConfigUnavailable, err)
	}
	return fmt.Errorf("%w: %w", model.ErrPersistenceFailure, err)
}

// Status reports the gate state without locking or writing.
func (s *DispatchService) Status(ctx context.Context) (*model.GateStatus, error) {
	cfg, err := s.configs.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get gate status: %w", err)
	}
	now := s.clock.Now()
	decision := dispatch.Evaluate(*cfg, now)
	return &model.GateStatus{
		Config:           *cfg,
		NextEligibleAt:   cfg.NextEligibleAt(),
		Eligible:         decision.Eligible,
		MinutesRemaining: decision.MinutesRemaining,
		CheckedAt:        now,
	}, nil
}
