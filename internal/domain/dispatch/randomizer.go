package dispatch

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/target/ticketgate/internal/domain/model"
)

const (
	// MinIntervalMinutes is the shortest wait chosen between dispatches.
	MinIntervalMinutes = 6
	// MaxIntervalMinutes is the longest wait chosen between dispatches.
	MaxIntervalMinutes = 19

	// MinDeliveryRate is the inclusive lower bound of generated rates.
	MinDeliveryRate model.DeliveryRate = 553
	// MaxDeliveryRate is the exclusive upper bound of generated rates.
	MaxDeliveryRate model.DeliveryRate = 861

	maxRateDraws = 32
)

// Randomizer draws dispatch parameters. It is safe for concurrent use.
type Randomizer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomizer returns a Randomizer over src. A nil src uses a randomly seeded PCG.
func NewRandomizer(src rand.Source) *Randomizer {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Randomizer{rng: rand.New(src)}
}

// NextIntervalMinutes returns a whole number of minutes in [MinIntervalMinutes, MaxIntervalMinutes].
func (r *Randomizer) NextIntervalMinutes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return MinIntervalMinutes + r.rng.IntN(MaxIntervalMinutes-MinIntervalMinutes+1)
}

// ChooseVariant picks one variant uniformly. It reports false for an empty slice.
func (r *Randomizer) ChooseVariant(variants []model.Variant) (model.Variant, bool) {
	if len(variants) == 0 {
		return model.Variant{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return variants[r.rng.IntN(len(variants))], true
}

// DeliveryRate returns a rate in [MinDeliveryRate, MaxDeliveryRate) whose tenths digit is never zero.
func (r *Randomizer) DeliveryRate() model.DeliveryRate {
	r.mu.Lock()
	defer r.mu.Unlock()

	var last model.DeliveryRate
	for range maxRateDraws {
		last = r.drawRate()
		if acceptableRate(last) {
			return last
		}
	}
	return nudgeRate(last)
}

func (r *Randomizer) drawRate() model.DeliveryRate {
	span := (MaxDeliveryRate - MinDeliveryRate).Float64()
	f := MinDeliveryRate.Float64() + r.rng.Float64()*span
	return model.DeliveryRate(math.Round(f * 10))
}

func acceptableRate(v model.DeliveryRate) bool {
	return v >= MinDeliveryRate && v < MaxDeliveryRate && !v.WholeNumber()
}

// nudgeRate moves a rejected draw to the nearest acceptable neighbour.
func nudgeRate(v model.DeliveryRate) model.DeliveryRate {
	v = min(max(v, MinDeliveryRate), MaxDeliveryRate-1)
	if !v.WholeNumber() {
		return v
	}
	if v+1 < MaxDeliveryRate {
		return v + 1
	}
	return v - 1
}
