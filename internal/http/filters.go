package httpx

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/target/ticketgate/internal/domain/model"
)

const (
	// DateLayout is accepted for from/to alongside RFC 3339. A date-only "to" covers the whole day.
	DateLayout = "2006-01-02"
)

// ParseRecordFilter reads from, to, min_value and max_value from URL query parameters.
// Malformed values are reported as model.ErrInvalidFilter.
func ParseRecordFilter(q url.Values) (model.RecordFilter, error) {
	var f model.RecordFilter

	if v := strings.TrimSpace(q.Get("from")); v != "" {
		t, _, err := parseTimeParam(v)
		if err != nil {
			return f, fmt.Errorf("%w: from: %w", model.ErrInvalidFilter, err)
		}
		f.From = &t
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		t, dateOnly, err := parseTimeParam(v)
		if err != nil {
			return f, fmt.Errorf("%w: to: %w", model.ErrInvalidFilter, err)
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		f.To = &t
	}
	if v := strings.TrimSpace(q.Get("min_value")); v != "" {
		a, err := model.ParseAmount(v)
		if err != nil {
			return f, fmt.Errorf("%w: min_value: %w", model.ErrInvalidFilter, err)
		}
		f.MinValue = &a
	}
	if v := strings.TrimSpace(q.Get("max_value")); v != "" {
		a, err := model.ParseAmount(v)
		if err != nil {
			return f, fmt.Errorf("%w: max_value: %w", model.ErrInvalidFilter, err)
		}
		f.MaxValue = &a
	}

	return f, f.Validate()
}

func parseTimeParam(v string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), false, nil
	}
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("expected RFC 3339 or YYYY-MM-DD, got %q", v)
	}
	return t, true, nil
}
