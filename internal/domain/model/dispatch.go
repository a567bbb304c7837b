//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"time"
)

// Dispatch error taxonomy.
var (
	// ErrConfigUnavailable means the dispatch configuration row could not be read.
	ErrConfigUnavailable = errors.New("dispatch config unavailable")
	// ErrNotifierFailure means the external notification failed. It is recovered locally and never aborts a dispatch.
	ErrNotifierFailure = errors.New("notifier failure")
	// ErrPersistenceFailure means the record insert or config update failed and the transaction was rolled back.
	ErrPersistenceFailure = errors.New("persistence failure")
)

// Variant is one selectable ticket in the catalog.
type Variant struct {
	Value       Amount `json:"value"`
	Destination string `json:"destination"`
}

// DispatchConfig is the single persisted gate state.
type DispatchConfig struct {
	ID              string     `json:"id"                     db:"id"`
	LastSentAt      *time.Time `json:"last_sent_at,omitempty" db:"last_sent_at"`
	IntervalMinutes int        `json:"interval_minutes"       db:"interval_minutes"`
	UpdatedAt       time.Time  `json:"updated_at"             db:"updated_at"`
}

// NextEligibleAt returns the earliest time a dispatch is permitted, or nil when one is permitted immediately.
func (c DispatchConfig) NextEligibleAt() *time.Time {
	if c.LastSentAt == nil {
		return nil
	}
	t := c.LastSentAt.Add(time.Duration(c.IntervalMinutes) * time.Minute)
	return &t
}

// NotifyStatus records how the external notification went for a dispatch.
type NotifyStatus string

const (
	NotifyStatusOK     NotifyStatus = "ok"
	NotifyStatusFailed NotifyStatus = "failed"
)

// DispatchRecord is an immutable log entry for one dispatch.
type DispatchRecord struct {
	ID           string       `json:"id"                     db:"id"`
	Value        Amount       `json:"value"                  db:"value"`
	DeliveryRate DeliveryRate `json:"delivery_rate"          db:"delivery_rate"`
	Destination  string       `json:"destination"            db:"destination"`
	NotifyStatus NotifyStatus `json:"notify_status"          db:"notify_status"`
	NotifyError  *string      `json:"notify_error,omitempty" db:"notify_error"`
	SentAt       time.Time    `json:"sent_at"                db:"sent_at"`
}

// NewDispatchRecord groups the fields written for a fresh dispatch.
type NewDispatchRecord struct {
	Value        Amount
	DeliveryRate DeliveryRate
	Destination  string
	NotifyStatus NotifyStatus
	NotifyError  *string
	SentAt       time.Time
}

// AdvanceConfig groups the fields written to the gate after a dispatch.
type AdvanceConfig struct {
	ID              string
	LastSentAt      time.Time
	IntervalMinutes int
}

// DispatchStatus is the terminal result of a successful invocation.
type DispatchStatus string

const (
	DispatchStatusDispatched DispatchStatus = "dispatched"
	DispatchStatusIneligible DispatchStatus = "ineligible"
)

// DispatchOutcome describes a completed invocation.
// For DispatchStatusIneligible only MinutesRemaining is meaningful.
type DispatchOutcome struct {
	InvocationID        string          `json:"invocation_id"`
	Status              DispatchStatus  `json:"status"`
	Record              *DispatchRecord `json:"record,omitempty"`
	NextIntervalMinutes int             `json:"next_interval_minutes,omitempty"`
	MinutesRemaining    float64         `json:"minutes_remaining,omitempty"`
}

// Dispatched reports whether the invocation produced a record.
func (o *DispatchOutcome) Dispatched() bool {
	return o != nil && o.Status == DispatchStatusDispatched && o.Record != nil
}

// GateStatus is the gate state as seen at a point in time.
type GateStatus struct {
	Config           DispatchConfig `json:"config"`
	NextEligibleAt   *time.Time     `json:"next_eligible_at,omitempty"`
	Eligible         bool           `json:"eligible"`
	MinutesRemaining float64        `json:"minutes_remaining"`
	CheckedAt        time.Time      `json:"checked_at"`
}
