//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    Amount
		wantErr bool
	}{
		{in: "57.90", want: 5790},
		{in: "97.98", want: 9798},
		{in: "39", want: 3900},
		{in: "39.0", want: 3900},
		{in: " 1.5 ", want: 150},
		{in: "-2.25", want: -225},
		{in: "", wantErr: true},
		{in: "1.234", wantErr: true},
		{in: "abc", wantErr: true},
		{in: ".5", wantErr: true},
		{in: "1.", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAmount_String(t *testing.T) {
	assert.Equal(t, "57.90", Amount(5790).String())
	assert.Equal(t, "0.05", Amount(5).String())
	assert.Equal(t, "-1.50", Amount(-150).String())
	assert.InDelta(t, 97.98, Amount(9798).Float64(), 1e-9)
}

func TestDeliveryRate_Render(t *testing.T) {
	r := DeliveryRate(703)
	assert.Equal(t, "70.3", r.String())
	assert.Equal(t, "70.3%", r.Percent())
	assert.False(t, r.WholeNumber())
	assert.True(t, DeliveryRate(700).WholeNumber())

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `"70.3"`, string(b))

	var back DeliveryRate
	require.NoError(t, json.Unmarshal([]byte(`"55.3"`), &back))
	assert.Equal(t, DeliveryRate(553), back)
}

func TestParseDeliveryRate_Invalid(t *testing.T) {
	for _, in := range []string{"", "70.35", "x.1", "-1.2"} {
		_, err := ParseDeliveryRate(in)
		assert.ErrorIs(t, err, ErrInvalidDeliveryRate, in)
	}
}

func TestDispatchConfig_NextEligibleAt(t *testing.T) {
	assert.Nil(t, DispatchConfig{IntervalMinutes: 10}.NextEligibleAt())

	last := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	next := DispatchConfig{LastSentAt: &last, IntervalMinutes: 10}.NextEligibleAt()
	require.NotNil(t, next)
	assert.Equal(t, last.Add(10*time.Minute), *next)
}

func TestRecordFilter_Validate(t *testing.T) {
	now := time.Now()
	earlier := now.Add(-time.Hour)
	lo, hi := Amount(100), Amount(50)

	require.NoError(t, RecordFilter{}.Validate())
	require.NoError(t, RecordFilter{From: &earlier, To: &now}.Validate())
	assert.ErrorIs(t, RecordFilter{From: &now, To: &earlier}.Validate(), ErrInvalidFilter)
	assert.ErrorIs(t, RecordFilter{MinValue: &lo, MaxValue: &hi}.Validate(), ErrInvalidFilter)
}

func TestRecordFilter_CacheKey(t *testing.T) {
	floor := Amount(3900)
	a := RecordFilter{MinValue: &floor}.CacheKey()
	b := RecordFilter{}.CacheKey()
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, RecordFilter{MinValue: &floor}.CacheKey())
}

func TestRecordFilter_CacheKeyKeepsSubsecondBounds(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	later := base.Add(900 * time.Millisecond)

	a := RecordFilter{To: &base}.CacheKey()
	b := RecordFilter{To: &later}.CacheKey()
	assert.NotEqual(t, a, b)
	assert.Equal(t, "from=&to=2025-03-01T10:00:00.9Z&min=&max=", b)

	c := RecordFilter{From: &later}.CacheKey()
	assert.Contains(t, c, "from=2025-03-01T10:00:00.9Z")
}
