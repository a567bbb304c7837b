// Package dispatch holds the pure decision logic for ticket dispatches:
// the variant catalog, the randomizers, the eligibility gate and the
// invocation state machine.
package dispatch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/target/ticketgate/internal/domain/model"
)

var (
	// ErrEmptyCatalog indicates the catalog was configured without variants.
	ErrEmptyCatalog = errors.New("catalog must contain at least one variant")
	// ErrInvalidVariant indicates a variant with a non-positive value or no destination.
	ErrInvalidVariant = errors.New("invalid catalog variant")
)

// DefaultValues lists the reference ticket values in catalog order.
var DefaultValues = []model.Amount{5790, 9798, 3900}

// Catalog is the immutable, ordered set of dispatchable variants.
type Catalog struct {
	variants []model.Variant
}

// NewCatalog validates and copies the variants.
func NewCatalog(variants []model.Variant) (*Catalog, error) {
	if len(variants) == 0 {
		return nil, ErrEmptyCatalog
	}
	out := make([]model.Variant, len(variants))
	for i, v := range variants {
		if v.Value <= 0 {
			return nil, fmt.Errorf("%w: variant %d value %s", ErrInvalidVariant, i, v.Value)
		}
		if strings.TrimSpace(v.Destination) == "" {
			return nil, fmt.Errorf("%w: variant %d has no destination", ErrInvalidVariant, i)
		}
		out[i] = v
	}
	return &Catalog{variants: out}, nil
}

// DefaultVariants builds the reference variants, all sent to destination.
func DefaultVariants(destination string) []model.Variant {
	return VariantsFor(DefaultValues, destination)
}

// VariantsFor pairs each value with the same destination.
func VariantsFor(values []model.Amount, destination string) []model.Variant {
	out := make([]model.Variant, 0, len(values))
	for _, v := range values {
		out = append(out, model.Variant{Value: v, Destination: destination})
	}
	return out
}

// Variants returns a copy of the catalog entries in order.
func (c *Catalog) Variants() []model.Variant {
	if c == nil {
		return nil
	}
	out := make([]model.Variant, len(c.variants))
	copy(out, c.variants)
	return out
}

// Len returns the number of variants.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.variants)
}
