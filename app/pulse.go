package app

import (
	"fmt"
	"math"

	"socialcost/domain/core"
	"socialcost/domain/grid"
	"socialcost/domain/scc"
)

// PulseInjector derives the standardized emissions perturbation for a
// marginal twin. The injected mass is fixed (MassGtC); the growth-rate
// magnitude is rescaled by the local timestep width and the realized
// baseline emissions so the physical mass is independent of the grid.
type PulseInjector struct {
	MassGtC float64
}

// NewPulseInjector returns an injector with the reference pulse mass.
func NewPulseInjector() PulseInjector {
	return PulseInjector{MassGtC: scc.ReferencePulseGtC}
}

// Magnitude computes the emissions-growth delta representing MassGtC of
// additional emissions at the given grid year of a completed base run.
// The year must be an exact grid point; off-grid SCC years are bracketed
// upstream, so the injector only ever sees grid years.
func (p PulseInjector) Magnitude(base scc.RunOutputs, year int) (float64, error) {
	pt, err := base.Grid.Resolve(year)
	if err != nil {
		return 0, err
	}
	if !pt.Exact {
		return 0, fmt.Errorf("%w: pulse year %d is not a grid point", core.ErrInvalidYear, year)
	}
	width, err := base.Grid.PeriodLength(year)
	if err != nil {
		return 0, err
	}
	baseline := base.EmissionsGtC[pt.Index]
	if !(baseline > 0) || math.IsInf(baseline, 0) {
		return 0, fmt.Errorf("%w: baseline emissions %v at year %d", core.ErrNonFinite, baseline, year)
	}
	// mass = magnitude * baseline * width, so one unit of magnitude on a
	// wide period carries more mass; dividing keeps the mass constant.
	return p.MassGtC / (width * baseline), nil
}

// MarginalDelta builds the grid-aligned growth-delta series: zero
// everywhere except the pulse year's index.
func (p PulseInjector) MarginalDelta(g grid.TimeGrid, year int, magnitude float64) ([]float64, error) {
	pt, err := g.Resolve(year)
	if err != nil {
		return nil, err
	}
	if !pt.Exact {
		return nil, fmt.Errorf("%w: pulse year %d is not a grid point", core.ErrInvalidYear, year)
	}
	delta := make([]float64, g.Len())
	delta[pt.Index] = magnitude
	return delta, nil
}

// Build derives the complete Pulse for a completed base run.
func (p PulseInjector) Build(base scc.RunOutputs, year int) (scc.Pulse, error) {
	mag, err := p.Magnitude(base, year)
	if err != nil {
		return scc.Pulse{}, err
	}
	delta, err := p.MarginalDelta(base.Grid, year, mag)
	if err != nil {
		return scc.Pulse{}, err
	}
	return scc.Pulse{Year: year, MassGtC: p.MassGtC, Magnitude: mag, Delta: delta}, nil
}
