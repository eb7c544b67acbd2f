package dice

import (
	"fmt"

	"socialcost/domain/core"
	"socialcost/ports"
)

// Params is the model's uncertain-parameter record. Every field has a
// public name the engine can override through UpdateParameter; the record
// itself is strongly typed, never a loose dictionary.
type Params struct {
	// ClimateSensitivity is equilibrium warming per CO2 doubling, degC.
	ClimateSensitivity float64
	// DamageCoeff scales the quadratic damage share of output.
	DamageCoeff float64
	// DiscontinuityThreshold is the warming, degC, past which the
	// discontinuity damage term activates.
	DiscontinuityThreshold float64
	// DiscontinuityShare is the extra share of output lost while the
	// discontinuity is active.
	DiscontinuityShare float64
	// SavingsRate is the fixed share of net output not consumed.
	SavingsRate float64
	// EmissionsGrowthDelta is a grid-aligned addition to the emissions
	// trajectory's growth; the pulse injector's write channel. Nil means
	// no perturbation.
	EmissionsGrowthDelta []float64
}

// DefaultParams returns the central parameterization.
func DefaultParams() Params {
	return Params{
		ClimateSensitivity:     3.0,
		DamageCoeff:            0.00267,
		DiscontinuityThreshold: 3.5,
		DiscontinuityShare:     0.03,
		SavingsRate:            0.22,
	}
}

// set applies one named override onto the record.
func (p *Params) set(name string, value any, gridLen int) error {
	switch name {
	case ports.ParamEmissionsGrowthDelta:
		delta, ok := value.([]float64)
		if !ok {
			return fmt.Errorf("%s expects []float64, got %T", name, value)
		}
		if delta != nil && len(delta) != gridLen {
			return fmt.Errorf("%s length %d does not match grid length %d", name, len(delta), gridLen)
		}
		p.EmissionsGrowthDelta = delta
		return nil
	}

	v, ok := value.(float64)
	if !ok {
		return fmt.Errorf("%s expects float64, got %T", name, value)
	}
	switch name {
	case ports.ParamClimateSensitivity:
		p.ClimateSensitivity = v
	case ports.ParamDamageCoefficient:
		p.DamageCoeff = v
	case ports.ParamDiscontinuityThreshold:
		p.DiscontinuityThreshold = v
	case ports.ParamDiscontinuityShare:
		p.DiscontinuityShare = v
	case ports.ParamSavingsRate:
		p.SavingsRate = v
	default:
		return fmt.Errorf("%w: unknown parameter %q", core.ErrConfiguration, name)
	}
	return nil
}

// validate rejects parameterizations the transition equations cannot run
// with; these surface as engine failures, not configuration errors, since
// sampled values land here.
func (p Params) validate() error {
	if !(p.ClimateSensitivity > 0) {
		return fmt.Errorf("climate sensitivity %v must be positive", p.ClimateSensitivity)
	}
	if p.DamageCoeff < 0 {
		return fmt.Errorf("damage coefficient %v must be non-negative", p.DamageCoeff)
	}
	if p.SavingsRate < 0 || p.SavingsRate >= 1 {
		return fmt.Errorf("savings rate %v outside [0, 1)", p.SavingsRate)
	}
	return nil
}
