package dispatch

import (
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/ticketgate/internal/domain/model"
)

const hook = "https://api.pushcut.io/example/notifications/Ticket"

func TestNewCatalog(t *testing.T) {
	t.Run("default variants", func(t *testing.T) {
		c, err := NewCatalog(DefaultVariants(hook))
		require.NoError(t, err)
		require.Equal(t, 3, c.Len())
		got := c.Variants()
		assert.Equal(t, model.Amount(5790), got[0].Value)
		assert.Equal(t, model.Amount(9798), got[1].Value)
		assert.Equal(t, model.Amount(3900), got[2].Value)
		for _, v := range got {
			assert.Equal(t, hook, v.Destination)
		}
	})

	t.Run("empty", func(t *testing.T) {
		c, err := NewCatalog(nil)
		require.ErrorIs(t, err, ErrEmptyCatalog)
		assert.Nil(t, c)
	})

	t.Run("non-positive value", func(t *testing.T) {
		_, err := NewCatalog([]model.Variant{{Value: 0, Destination: hook}})
		require.ErrorIs(t, err, ErrInvalidVariant)
	})

	t.Run("missing destination", func(t *testing.T) {
		_, err := NewCatalog([]model.Variant{{Value: 100, Destination: "  "}})
		require.ErrorIs(t, err, ErrInvalidVariant)
	})

	t.Run("variants are copied", func(t *testing.T) {
		in := DefaultVariants(hook)
		c, err := NewCatalog(in)
		require.NoError(t, err)
		in[0].Value = 1
		out := c.Variants()
		out[1].Value = 2
		assert.Equal(t, DefaultVariants(hook), c.Variants())
	})
}

func TestRandomizer_DeliveryRate(t *testing.T) {
	r := NewRandomizer(rand.NewPCG(1, 2))
	seen := map[model.DeliveryRate]bool{}
	for range 10000 {
		v := r.DeliveryRate()
		require.GreaterOrEqual(t, v, MinDeliveryRate)
		require.Less(t, v, MaxDeliveryRate)
		require.False(t, v.WholeNumber(), "rate %s renders with .0", v)
		require.NotRegexp(t, `\.0$`, v.String())
		seen[v] = true
	}
	assert.Greater(t, len(seen), 200, "rates should cover the range")
}

func TestNudgeRate(t *testing.T) {
	tests := []struct {
		in, want model.DeliveryRate
	}{
		{in: 700, want: 701},
		{in: 860, want: 859},
		{in: 861, want: 859},
		{in: 550, want: 553},
		{in: 703, want: 703},
	}
	for _, tt := range tests {
		got := nudgeRate(tt.in)
		assert.Equal(t, tt.want, got, "nudge(%d)", tt.in)
		assert.True(t, acceptableRate(got))
	}
}

func TestRandomizer_NextIntervalMinutes(t *testing.T) {
	r := NewRandomizer(rand.NewPCG(3, 4))
	seen := map[int]bool{}
	for range 5000 {
		v := r.NextIntervalMinutes()
		require.GreaterOrEqual(t, v, MinIntervalMinutes)
		require.LessOrEqual(t, v, MaxIntervalMinutes)
		seen[v] = true
	}
	assert.Len(t, seen, MaxIntervalMinutes-MinIntervalMinutes+1)
}

func TestRandomizer_ChooseVariant(t *testing.T) {
	r := NewRandomizer(rand.NewPCG(5, 6))
	variants := DefaultVariants(hook)

	counts := map[model.Amount]int{}
	for range 3000 {
		v, ok := r.ChooseVariant(variants)
		require.True(t, ok)
		counts[v.Value]++
	}
	require.Len(t, counts, len(variants))
	for _, v := range variants {
		assert.Greater(t, counts[v.Value], 800, "variant %s under-selected", v.Value)
	}

	_, ok := r.ChooseVariant(nil)
	assert.False(t, ok)
}

func TestRandomizer_ConcurrentUse(t *testing.T) {
	r := NewRandomizer(nil)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				_ = r.DeliveryRate()
				_ = r.NextIntervalMinutes()
			}
		}()
	}
	wg.Wait()
}

func TestEvaluate(t *testing.T) {
	last := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	cfg := model.DispatchConfig{LastSentAt: &last, IntervalMinutes: 10}

	t.Run("first dispatch", func(t *testing.T) {
		d := Evaluate(model.DispatchConfig{IntervalMinutes: 19}, last)
		assert.True(t, d.Eligible)
		assert.Zero(t, d.MinutesRemaining)
	})

	t.Run("exact boundary is eligible", func(t *testing.T) {
		d := Evaluate(cfg, last.Add(10*time.Minute))
		assert.True(t, d.Eligible)
		assert.Equal(t, 10*time.Minute, d.Elapsed)
		assert.True(t, IsEligible(cfg, last.Add(10*time.Minute)))
	})

	t.Run("one second early", func(t *testing.T) {
		d := Evaluate(cfg, last.Add(9*time.Minute+59*time.Second))
		assert.False(t, d.Eligible)
		assert.InDelta(t, 0.0167, d.MinutesRemaining, 0.0001)
	})

	t.Run("long after", func(t *testing.T) {
		assert.True(t, IsEligible(cfg, last.Add(3*time.Hour)))
	})

	t.Run("immediately after", func(t *testing.T) {
		d := Evaluate(cfg, last)
		assert.False(t, d.Eligible)
		assert.InDelta(t, 10.0, d.MinutesRemaining, 1e-9)
	})
}

func TestInvocation_Transitions(t *testing.T) {
	t.Run("eligible path", func(t *testing.T) {
		inv := NewInvocation("inv-1")
		for _, s := range []State{StateChecking, StateEligible, StateNotifying, StateRecording, StateDone} {
			require.NoError(t, inv.Transition(s))
		}
		assert.True(t, inv.State().Terminal())
		assert.Equal(t, []State{
			StateIdle, StateChecking, StateEligible, StateNotifying, StateRecording, StateDone,
		}, inv.History())
	})

	t.Run("ineligible path", func(t *testing.T) {
		inv := NewInvocation("inv-2")
		require.NoError(t, inv.Transition(StateChecking))
		require.NoError(t, inv.Transition(StateIneligible))
		assert.True(t, inv.State().Terminal())
	})

	t.Run("failure from checking and recording", func(t *testing.T) {
		assert.True(t, CanTransition(StateChecking, StateFailed))
		assert.True(t, CanTransition(StateRecording, StateFailed))
		assert.False(t, CanTransition(StateNotifying, StateFailed))
	})

	t.Run("skipping notify is rejected", func(t *testing.T) {
		inv := NewInvocation("inv-3")
		require.NoError(t, inv.Transition(StateChecking))
		require.NoError(t, inv.Transition(StateEligible))
		err := inv.Transition(StateRecording)
		require.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, StateEligible, inv.State())
	})
}
