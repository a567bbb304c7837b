package httpx

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/ticketgate/internal/domain/model"
)

func TestParseRecordFilter(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		f, err := ParseRecordFilter(url.Values{})
		require.NoError(t, err)
		assert.Equal(t, model.RecordFilter{}, f)
	})

	t.Run("rfc3339 bounds", func(t *testing.T) {
		f, err := ParseRecordFilter(url.Values{
			"from": {"2025-03-01T10:00:00+02:00"},
			"to":   {"2025-03-01T12:00:00Z"},
		})
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC), *f.From)
		assert.Equal(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), *f.To)
	})

	t.Run("date-only to covers the day", func(t *testing.T) {
		f, err := ParseRecordFilter(url.Values{"from": {"2025-03-01"}, "to": {"2025-03-02"}})
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), *f.From)
		assert.Equal(t, time.Date(2025, 3, 2, 23, 59, 59, 999999999, time.UTC), *f.To)
	})

	t.Run("values", func(t *testing.T) {
		f, err := ParseRecordFilter(url.Values{"min_value": {"39"}, "max_value": {"97.98"}})
		require.NoError(t, err)
		assert.Equal(t, model.Amount(3900), *f.MinValue)
		assert.Equal(t, model.Amount(9798), *f.MaxValue)
	})

	for name, q := range map[string]url.Values{
		"bad from":       {"from": {"03/01/2025"}},
		"bad to":         {"to": {"soon"}},
		"bad min":        {"min_value": {"1.234"}},
		"bad max":        {"max_value": {"x"}},
		"inverted range": {"min_value": {"10"}, "max_value": {"9.99"}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRecordFilter(q)
			require.ErrorIs(t, err, model.ErrInvalidFilter)
		})
	}
}
