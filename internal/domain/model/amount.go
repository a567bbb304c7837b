//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Amount is a monetary value in minor units (cents).
type Amount int64

// ErrInvalidAmount is returned when a textual amount cannot be parsed.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount parses a decimal string such as "57.90" or "39" into an Amount.
// At most two fractional digits are accepted.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" || (hasFrac && (frac == "" || len(frac) > 2)) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || cents < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	v := Amount(units*100 + cents)
	if neg {
		v = -v
	}
	return v, nil
}

// String renders the amount with exactly two decimals.
func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Float64 returns the amount in major units.
func (a Amount) Float64() float64 {
	return float64(a) / 100
}

// MarshalJSON encodes the amount as a JSON number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(b []byte) error {
	v, err := ParseAmount(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// DeliveryRate is a percentage expressed in tenths (703 means 70.3%).
type DeliveryRate int

// ErrInvalidDeliveryRate is returned when a textual delivery rate cannot be parsed.
var ErrInvalidDeliveryRate = errors.New("invalid delivery rate")

// ParseDeliveryRate parses a one-decimal percentage such as "70.3".
func ParseDeliveryRate(s string) (DeliveryRate, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" || (hasFrac && len(frac) != 1) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDeliveryRate, s)
	}
	if !hasFrac {
		frac = "0"
	}
	w, err := strconv.Atoi(whole)
	if err != nil || w < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDeliveryRate, s)
	}
	f, err := strconv.Atoi(frac)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDeliveryRate, s)
	}
	return DeliveryRate(w*10 + f), nil
}

// String renders the rate with exactly one decimal and no percent sign.
func (r DeliveryRate) String() string {
	return fmt.Sprintf("%d.%d", int(r)/10, int(r)%10)
}

// Percent renders the rate with a trailing percent sign, e.g. "70.3%".
func (r DeliveryRate) Percent() string {
	return r.String() + "%"
}

// Float64 returns the rate as a percentage value.
func (r DeliveryRate) Float64() float64 {
	return float64(r) / 10
}

// WholeNumber reports whether the rate would render with a ".0" fraction.
func (r DeliveryRate) WholeNumber() bool {
	return int(r)%10 == 0
}

// MarshalJSON encodes the rate as a string so the single decimal is preserved.
func (r DeliveryRate) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(r.String())), nil
}

// UnmarshalJSON accepts a quoted or bare one-decimal value.
func (r *DeliveryRate) UnmarshalJSON(b []byte) error {
	v, err := ParseDeliveryRate(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
