package scc

import (
	"fmt"
	"math"

	"socialcost/domain/core"
)

// DiscountKind distinguishes the two supported discounting conventions.
type DiscountKind string

const (
	DiscountFlat   DiscountKind = "flat"
	DiscountRamsey DiscountKind = "ramsey"
)

// DiscountSpec is either a flat exogenous rate or an explicit Ramsey
// (pure time preference, elasticity of marginal utility) pair. Ramsey
// specs also switch on equity weighting of regional damages.
type DiscountSpec struct {
	Kind DiscountKind `json:"kind"`
	Rate float64      `json:"rate,omitempty"` // flat annual rate
	PRTP float64      `json:"prtp,omitempty"` // pure rate of time preference
	Eta  float64      `json:"eta,omitempty"`  // elasticity of marginal utility
}

// FlatDiscount constructs a flat-rate spec.
func FlatDiscount(rate float64) DiscountSpec {
	return DiscountSpec{Kind: DiscountFlat, Rate: rate}
}

// RamseyDiscount constructs a Ramsey spec.
func RamseyDiscount(prtp, eta float64) DiscountSpec {
	return DiscountSpec{Kind: DiscountRamsey, PRTP: prtp, Eta: eta}
}

// Validate checks the spec is one of the two known conventions with sane
// parameters.
func (d DiscountSpec) Validate() error {
	switch d.Kind {
	case DiscountFlat:
		if d.Rate <= -1 || math.IsNaN(d.Rate) || math.IsInf(d.Rate, 0) {
			return fmt.Errorf("%w: flat rate %v", core.ErrUnknownDiscount, d.Rate)
		}
		return nil
	case DiscountRamsey:
		if d.PRTP < 0 || d.Eta < 0 || math.IsNaN(d.PRTP) || math.IsNaN(d.Eta) {
			return fmt.Errorf("%w: prtp=%v eta=%v", core.ErrUnknownDiscount, d.PRTP, d.Eta)
		}
		return nil
	default:
		return fmt.Errorf("%w: kind %q", core.ErrUnknownDiscount, d.Kind)
	}
}

// Label returns a short, filesystem-safe name for the spec, used for
// result table file names and map keys.
func (d DiscountSpec) Label() string {
	if d.Kind == DiscountRamsey {
		return fmt.Sprintf("ramsey_%.3g_%.3g", d.PRTP, d.Eta)
	}
	return fmt.Sprintf("%.4g", d.Rate)
}

// String implements fmt.Stringer.
func (d DiscountSpec) String() string {
	if d.Kind == DiscountRamsey {
		return fmt.Sprintf("ramsey(prtp=%.3g, eta=%.3g)", d.PRTP, d.Eta)
	}
	return fmt.Sprintf("flat(%.4g)", d.Rate)
}
