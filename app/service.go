package app

import (
	"context"
	"fmt"

	"socialcost/domain/core"
	"socialcost/domain/scc"
	"socialcost/ports"
)

// SCCService is the deterministic SCC pipeline: twin runs plus damage
// aggregation, including the bracketing evaluation for pulse years that
// fall between grid points.
type SCCService struct {
	twins      *TwinRunner
	aggregator DamageAggregator
}

// NewSCCService wires the pipeline over a model builder.
func NewSCCService(builder ports.ModelBuilder, aggregator DamageAggregator) *SCCService {
	return &SCCService{twins: NewTwinRunner(builder), aggregator: aggregator}
}

// Compute evaluates one scenario/year/discount combination and returns a
// fully populated result, or fails outright.
func (s *SCCService) Compute(ctx context.Context, scenario scc.Scenario, year int, spec scc.DiscountSpec, domestic bool) (*scc.SCCResult, error) {
	values, err := s.ComputeAll(ctx, scenario, year, nil, []scc.DiscountSpec{spec}, domestic)
	if err != nil {
		return nil, err
	}
	return &scc.SCCResult{
		Scenario:     scenario,
		Year:         year,
		Discount:     spec,
		Domestic:     domestic,
		Value:        values[spec.Label()],
		CurrencyYear: s.aggregator.CurrencyYear,
	}, nil
}

// ComputeAll evaluates every discount spec for one pulse year, sharing
// twin runs across specs. An off-grid year is evaluated fully at both
// bracketing grid years and the two scalars interpolated linearly; the
// recursion is bounded because bracket years are grid-exact.
func (s *SCCService) ComputeAll(ctx context.Context, scenario scc.Scenario, year int, overrides map[string]float64, specs []scc.DiscountSpec, domestic bool) (map[string]float64, error) {
	if len(specs) == 0 {
		return nil, core.NewConfigurationError("discounts", "at least one discount spec is required")
	}
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
	}

	probe, err := s.twins.builder.Build(scenario)
	if err != nil {
		return nil, err
	}
	g := probe.Grid()
	if !g.Contains(year) {
		return nil, fmt.Errorf("%w: pulse year %d outside [%d, %d]", core.ErrOutOfHorizon, year, g.First(), g.Last())
	}

	pt, err := g.Resolve(year)
	if err != nil {
		return nil, err
	}
	if pt.Exact {
		return s.computeAtGridYear(ctx, scenario, year, overrides, specs, domestic)
	}

	low, err := s.computeAtGridYear(ctx, scenario, g.Year(pt.Lower), overrides, specs, domestic)
	if err != nil {
		return nil, err
	}
	high, err := s.computeAtGridYear(ctx, scenario, g.Year(pt.Upper), overrides, specs, domestic)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(specs))
	for _, spec := range specs {
		label := spec.Label()
		out[label] = low[label] + (high[label]-low[label])*pt.Frac
	}
	return out, nil
}

func (s *SCCService) computeAtGridYear(ctx context.Context, scenario scc.Scenario, year int, overrides map[string]float64, specs []scc.DiscountSpec, domestic bool) (map[string]float64, error) {
	twin, err := s.twins.Run(ctx, scenario, year, overrides)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(specs))
	for _, spec := range specs {
		value, err := s.aggregator.ComputeSCC(twin, spec, domestic)
		if err != nil {
			return nil, err
		}
		out[spec.Label()] = value
	}
	return out, nil
}

// MarginalDamages runs a twin at a grid-exact pulse year and returns the
// undiscounted marginal damage series.
func (s *SCCService) MarginalDamages(ctx context.Context, scenario scc.Scenario, year int) (MarginalDamageSeries, error) {
	twin, err := s.twins.Run(ctx, scenario, year, nil)
	if err != nil {
		return MarginalDamageSeries{}, err
	}
	return s.aggregator.MarginalDamages(twin), nil
}

// Twin exposes a raw twin run for callers that need both halves, such as
// the Monte Carlo discontinuity check.
func (s *SCCService) Twin(ctx context.Context, scenario scc.Scenario, year int, overrides map[string]float64) (*scc.TwinRun, error) {
	return s.twins.Run(ctx, scenario, year, overrides)
}
