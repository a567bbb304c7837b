package dispatch

import (
	"time"

	"github.com/target/ticketgate/internal/domain/model"
)

// Decision is the outcome of evaluating the gate at a point in time.
type Decision struct {
	Eligible bool
	// Elapsed is zero when no dispatch has happened yet.
	Elapsed time.Duration
	// MinutesRemaining is fractional and only set when Eligible is false.
	MinutesRemaining float64
}

// Evaluate decides whether a dispatch is permitted at now.
// A config without LastSentAt is always eligible; otherwise the elapsed time must
// reach IntervalMinutes, boundary included.
func Evaluate(cfg model.DispatchConfig, now time.Time) Decision {
	if cfg.LastSentAt == nil {
		return Decision{Eligible: true}
	}
	elapsed := now.Sub(*cfg.LastSentAt)
	interval := time.Duration(cfg.IntervalMinutes) * time.Minute
	if elapsed >= interval {
		return Decision{Eligible: true, Elapsed: elapsed}
	}
	return Decision{
		Elapsed:          elapsed,
		MinutesRemaining: float64(cfg.IntervalMinutes) - elapsed.Minutes(),
	}
}

// IsEligible reports whether a dispatch is permitted at now.
func IsEligible(cfg model.DispatchConfig, now time.Time) bool {
	return Evaluate(cfg, now).Eligible
}
