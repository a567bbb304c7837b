//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidFilter is returned when a record filter is internally inconsistent.
var ErrInvalidFilter = errors.New("invalid record filter")

// RecordFilter narrows dispatch records by send time and value. Bounds are inclusive.
type RecordFilter struct {
	From     *time.Time
	To       *time.Time
	MinValue *Amount
	MaxValue *Amount
}

// Validate reports ErrInvalidFilter when a lower bound exceeds its upper bound.
func (f RecordFilter) Validate() error {
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return fmt.Errorf("%w: from is after to", ErrInvalidFilter)
	}
	if f.MinValue != nil && f.MaxValue != nil && *f.MinValue > *f.MaxValue {
		return fmt.Errorf("%w: min_value is greater than max_value", ErrInvalidFilter)
	}
	return nil
}

// CacheKey returns a stable key fragment identifying this filter.
func (f RecordFilter) CacheKey() string {
	parts := []string{"from=", "to=", "min=", "max="}
	if f.From != nil {
		parts[0] += f.From.UTC().Format(time.RFC3339Nano)
	}
	if f.To != nil {
		parts[1] += f.To.UTC().Format(time.RFC3339Nano)
	}
	if f.MinValue != nil {
		parts[2] += f.MinValue.String()
	}
	if f.MaxValue != nil {
		parts[3] += f.MaxValue.String()
	}
	return strings.Join(parts, "&")
}

// RecordListOptions groups parameters for listing dispatch records, newest first.
type RecordListOptions struct {
	Filter RecordFilter
	Limit  int
	Offset int
}

// RecordStats summarizes dispatch records matching a filter.
type RecordStats struct {
	TotalRevenue        Amount  `json:"total_revenue"`
	TotalCount          int64   `json:"total_count"`
	AverageValue        Amount  `json:"average_value"`
	AverageDeliveryRate float64 `json:"average_delivery_rate"`
}

// DailyTotal aggregates dispatches for one UTC day.
type DailyTotal struct {
	Day     time.Time `json:"day"`
	Revenue Amount    `json:"revenue"`
	Count   int64     `json:"count"`
}

// DispatchOverview bundles the data shown on the status view.
type DispatchOverview struct {
	Config DispatchConfig    `json:"config"`
	Latest *DispatchRecord   `json:"latest,omitempty"`
	Stats  RecordStats       `json:"stats"`
	Recent []*DispatchRecord `json:"recent"`
}
