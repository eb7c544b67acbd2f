package app

import (
	"fmt"
	"math"

	"socialcost/domain/core"
	"socialcost/domain/scc"
)

// DamageAggregator turns a completed twin run into a discounted,
// equity-weighted scalar SCC in USD per tonne CO2.
//
// Two discounting conventions are supported. A flat spec discounts the
// already dollar-aggregated damage differences at a fixed exogenous rate
// with identity equity weights. A Ramsey spec recomputes the factor each
// grid year from realized world consumption-per-capita growth, the pure
// time-preference rate and the elasticity of marginal utility, and weights
// regional damages by relative marginal utility of consumption.
type DamageAggregator struct {
	// InflationFactor converts model dollars to the reporting currency
	// year; 1 means model dollars are already in the reporting year.
	InflationFactor float64
	CurrencyYear    int
}

// NewDamageAggregator returns an aggregator reporting in model-native
// dollars.
func NewDamageAggregator(currencyYear int) DamageAggregator {
	return DamageAggregator{InflationFactor: 1.0, CurrencyYear: currencyYear}
}

// ComputeSCC aggregates a grid-exact twin run into a scalar SCC. Domestic
// restricts the spatial sum to the model's home region before
// aggregation; discount treatment is identical either way.
func (a DamageAggregator) ComputeSCC(twin *scc.TwinRun, spec scc.DiscountSpec, domestic bool) (float64, error) {
	if err := spec.Validate(); err != nil {
		return 0, err
	}
	g := twin.Base.Grid
	years := g.Years()
	t0 := twin.Pulse.Year

	pt, err := g.Resolve(t0)
	if err != nil {
		return 0, err
	}
	if !pt.Exact {
		return 0, fmt.Errorf("%w: aggregation requires a grid-exact pulse year, got %d", core.ErrInvalidYear, t0)
	}

	regions := a.regionIndices(twin, domestic)
	if len(regions) == 0 {
		return 0, core.NewConfigurationError("domestic", fmt.Sprintf("home region %q not in model regions", twin.Base.HomeRegion))
	}

	// World average consumption per capita on the base path, needed for
	// Ramsey factors and equity weights.
	var cbar []float64
	if spec.Kind == scc.DiscountRamsey {
		cbar = worldConsumptionPC(twin.Base)
	}

	npv := 0.0
	for i := pt.Index; i < g.Len(); i++ {
		year := years[i]
		width, err := g.PeriodLength(year)
		if err != nil {
			return 0, err
		}
		df, err := a.discountFactor(spec, cbar, pt.Index, i, t0, year)
		if err != nil {
			return 0, err
		}
		for _, r := range regions {
			dd := twin.Marginal.Damages[i][r] - twin.Base.Damages[i][r]
			w := 1.0
			if spec.Kind == scc.DiscountRamsey {
				w = equityWeight(cbar[pt.Index], twin.Base.ConsumptionPC[i][r], spec.Eta)
			}
			npv += width * df * w * dd
		}
	}

	// Dollars per tonne CO2 from trillion dollars per GtC of pulse mass.
	value := npv * scc.DamageUnitUSD / (twin.Pulse.MassGtC * scc.TonnesPerGt * scc.CO2PerC)
	value *= a.InflationFactor
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: SCC evaluated to %v", core.ErrNonFinite, value)
	}
	return value, nil
}

// MarginalDamageSeries is the undiscounted per-year damage difference
// between the twins, in trillion USD per year. Global is the exact sum of
// Regional over regions.
type MarginalDamageSeries struct {
	Years    []int       `json:"years"`
	Regions  []string    `json:"regions"`
	Regional [][]float64 `json:"regional"` // [time][region]
	Global   []float64   `json:"global"`
}

// MarginalDamages extracts the marginal damage series from a twin run.
func (a DamageAggregator) MarginalDamages(twin *scc.TwinRun) MarginalDamageSeries {
	g := twin.Base.Grid
	out := MarginalDamageSeries{
		Years:    g.Years(),
		Regions:  twin.Base.Regions,
		Regional: make([][]float64, g.Len()),
		Global:   make([]float64, g.Len()),
	}
	for i := 0; i < g.Len(); i++ {
		row := make([]float64, len(out.Regions))
		sum := 0.0
		for r := range out.Regions {
			row[r] = twin.Marginal.Damages[i][r] - twin.Base.Damages[i][r]
			sum += row[r]
		}
		out.Regional[i] = row
		out.Global[i] = sum
	}
	return out
}

// regionIndices returns the indices included in the spatial sum.
func (a DamageAggregator) regionIndices(twin *scc.TwinRun, domestic bool) []int {
	if !domestic {
		all := make([]int, len(twin.Base.Regions))
		for i := range all {
			all[i] = i
		}
		return all
	}
	if idx := twin.Base.RegionIndex(twin.Base.HomeRegion); idx >= 0 {
		return []int{idx}
	}
	return nil
}

// discountFactor maps a grid year onto its present-value factor relative
// to the pulse year.
func (a DamageAggregator) discountFactor(spec scc.DiscountSpec, cbar []float64, i0, i, t0, year int) (float64, error) {
	elapsed := float64(year - t0)
	switch spec.Kind {
	case scc.DiscountFlat:
		return math.Pow(1.0+spec.Rate, -elapsed), nil
	case scc.DiscountRamsey:
		if cbar[i] <= 0 || cbar[i0] <= 0 {
			return 0, fmt.Errorf("%w: non-positive consumption per capita", core.ErrNonFinite)
		}
		growth := math.Pow(cbar[i0]/cbar[i], spec.Eta)
		return growth / math.Pow(1.0+spec.PRTP, elapsed), nil
	default:
		return 0, fmt.Errorf("%w: kind %q", core.ErrUnknownDiscount, spec.Kind)
	}
}

// equityWeight is the relative marginal utility of consumption in a
// region against the world average at the pulse year.
func equityWeight(cbarPulse, regionalCPC, eta float64) float64 {
	if regionalCPC <= 0 {
		return 0
	}
	return math.Pow(cbarPulse/regionalCPC, eta)
}

// worldConsumptionPC computes population-weighted world average
// consumption per capita on a run's own grid.
func worldConsumptionPC(run scc.RunOutputs) []float64 {
	out := make([]float64, run.Grid.Len())
	for i := range out {
		totalC, totalP := 0.0, 0.0
		for r := range run.Regions {
			totalC += run.ConsumptionPC[i][r] * run.PopulationMill[i][r]
			totalP += run.PopulationMill[i][r]
		}
		if totalP > 0 {
			out[i] = totalC / totalP
		}
	}
	return out
}
