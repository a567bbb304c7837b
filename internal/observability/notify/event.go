// Package notify defines outbound notification payloads and the shared webhook plumbing.
package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityError    = "error"
)

// DispatchFailurePayload describes a dispatch invocation that ended in the failed state.
type DispatchFailurePayload struct {
	InvocationID string
	// Stage is the invocation state in which the failure happened (checking, recording).
	Stage      string
	Error      string
	ErrorClass string
	Severity   string
	OccurredAt time.Time
	Metadata   map[string]string
}

// Sink describes a destination capable of consuming dispatch failure notifications.
type Sink interface {
	SendDispatchFailure(ctx context.Context, payload DispatchFailurePayload) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, payload DispatchFailurePayload) error

// SendDispatchFailure implements the Sink interface.
func (f SinkFunc) SendDispatchFailure(ctx context.Context, payload DispatchFailurePayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}
