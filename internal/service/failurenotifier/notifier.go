package failurenotifier

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/target/ticketgate/internal/core"
	"github.com/target/ticketgate/internal/observability/notify"
)

const defaultDedupWindow = 5 * time.Minute

// SinkRegistration pairs a sink implementation with a human-readable name for logging.
type SinkRegistration struct {
	Name string
	Sink notify.Sink
}

// Options configures the failure notifier service.
type Options struct {
	Logger *slog.Logger
	Sinks  []SinkRegistration
	// Dedup suppresses repeats of the same error class within DedupWindow. Optional.
	Dedup       core.CacheRepository
	DedupWindow time.Duration
}

// Service dispatches failure events to all registered sinks.
type Service struct {
	logger      *slog.Logger
	sinks       []SinkRegistration
	dedup       core.CacheRepository
	dedupWindow time.Duration
}

// NewService constructs a failure notifier.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "failure_notifier")
	}

	var sinks []SinkRegistration
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		name := entry.Name
		if name == "" {
			name = "sink"
		}
		sinks = append(sinks, SinkRegistration{Name: name, Sink: entry.Sink})
	}

	window := opts.DedupWindow
	if window <= 0 {
		window = defaultDedupWindow
	}

	return &Service{
		logger:      logger,
		sinks:       sinks,
		dedup:       opts.Dedup,
		dedupWindow: window,
	}
}

// NotifyDispatchFailure fans the payload out to all sinks and waits for them.
// Delivery errors are logged, never returned.
func (s *Service) NotifyDispatchFailure(ctx context.Context, payload notify.DispatchFailurePayload) {
	if len(s.sinks) == 0 {
		return
	}
	if payload.Severity == "" {
		payload.Severity = notify.SeverityCritical
	}
	if s.suppressed(ctx, payload) {
		s.logger.DebugContext(ctx, "suppressing repeated dispatch failure notification",
			"invocation_id", payload.InvocationID,
			"error_class", payload.ErrorClass,
		)
		return
	}

	var wg sync.WaitGroup
	for _, entry := range s.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := entry.Sink.SendDispatchFailure(ctx, payload); err != nil {
				s.logger.ErrorContext(ctx, "failure notifier delivery error",
					"sink", entry.Name,
					"invocation_id", payload.InvocationID,
					"stage", payload.Stage,
					"error", err,
				)
			}
		}()
	}
	wg.Wait()
}

func (s *Service) suppressed(ctx context.Context, payload notify.DispatchFailurePayload) bool {
	if s.dedup == nil || payload.ErrorClass == "" {
		return false
	}
	first, err := s.dedup.SetIfNotExists(ctx, "failure:"+payload.ErrorClass, []byte(payload.InvocationID), s.dedupWindow)
	if err != nil {
		// Fail open.
		s.logger.WarnContext(ctx, "failure notifier dedup check failed", "error", err)
		return false
	}
	return !first
}

// Enabled reports whether the notifier has any active sinks.
func (s *Service) Enabled() bool {
	return len(s.sinks) > 0
}
