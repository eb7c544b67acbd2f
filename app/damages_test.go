package app

import (
	"errors"
	"math"
	"testing"

	"socialcost/domain/core"
	"socialcost/domain/grid"
	"socialcost/domain/scc"
)

// syntheticTwin builds a small hand-checkable twin: three decadal grid
// years, two regions, zero base damages and constant marginal damages of
// 1 and 2 trillion USD/yr, uniform consumption and population.
func syntheticTwin(t *testing.T, pulseYear int) *scc.TwinRun {
	t.Helper()
	g, err := grid.NewTimeGrid([]int{2000, 2010, 2020})
	if err != nil {
		t.Fatalf("NewTimeGrid: %v", err)
	}
	n := g.Len()
	zero := func() [][]float64 {
		out := make([][]float64, n)
		for i := range out {
			out[i] = []float64{0, 0}
		}
		return out
	}
	filled := func(a, b float64) [][]float64 {
		out := make([][]float64, n)
		for i := range out {
			out[i] = []float64{a, b}
		}
		return out
	}
	common := scc.RunOutputs{
		Grid:           g,
		Regions:        []string{"USA", "RestOfWorld"},
		HomeRegion:     "USA",
		EmissionsGtC:   []float64{8, 8, 8},
		ConsumptionPC:  filled(5000, 5000),
		PopulationMill: filled(300, 5700),
	}

	base := common
	base.Damages = zero()
	marginal := common
	marginal.Damages = filled(1, 2)

	return &scc.TwinRun{
		Base:     base,
		Marginal: marginal,
		Pulse:    scc.Pulse{Year: pulseYear, MassGtC: 1.0},
	}
}

// perTrillion converts an undiscounted trillion-USD NPV into USD/tCO2 for
// a 1 GtC pulse.
func perTrillion(npv float64) float64 {
	return npv * scc.DamageUnitUSD / (scc.TonnesPerGt * scc.CO2PerC)
}

func TestComputeSCC_UndiscountedHandValue(t *testing.T) {
	agg := NewDamageAggregator(2020)
	twin := syntheticTwin(t, 2000)

	// Each of the three grid points has width 10 and a marginal damage
	// sum of 3 trillion, so the zero-rate NPV is 90 trillion.
	got, err := agg.ComputeSCC(twin, scc.FlatDiscount(0), false)
	if err != nil {
		t.Fatalf("ComputeSCC: %v", err)
	}
	want := perTrillion(90)
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("SCC = %v, want %v", got, want)
	}
}

func TestComputeSCC_StartsAtPulseYear(t *testing.T) {
	agg := NewDamageAggregator(2020)

	full, err := agg.ComputeSCC(syntheticTwin(t, 2000), scc.FlatDiscount(0), false)
	if err != nil {
		t.Fatalf("pulse 2000: %v", err)
	}
	late, err := agg.ComputeSCC(syntheticTwin(t, 2010), scc.FlatDiscount(0), false)
	if err != nil {
		t.Fatalf("pulse 2010: %v", err)
	}
	// A 2010 pulse drops the 2000 grid point: two of three equal-width
	// contributions remain.
	if math.Abs(late/full-2.0/3.0) > 1e-12 {
		t.Fatalf("late/full = %v, want 2/3", late/full)
	}
}

func TestComputeSCC_DomesticRestrictsToHomeRegion(t *testing.T) {
	agg := NewDamageAggregator(2020)
	twin := syntheticTwin(t, 2000)

	global, err := agg.ComputeSCC(twin, scc.FlatDiscount(0.03), false)
	if err != nil {
		t.Fatalf("global: %v", err)
	}
	domestic, err := agg.ComputeSCC(twin, scc.FlatDiscount(0.03), true)
	if err != nil {
		t.Fatalf("domestic: %v", err)
	}
	// USA carries 1 of the 3 trillion marginal damages each year.
	if math.Abs(domestic/global-1.0/3.0) > 1e-12 {
		t.Fatalf("domestic/global = %v, want 1/3", domestic/global)
	}
}

func TestComputeSCC_HigherRateLowersValue(t *testing.T) {
	agg := NewDamageAggregator(2020)
	twin := syntheticTwin(t, 2000)

	var prev float64
	for i, rate := range []float64{0.025, 0.03, 0.05} {
		v, err := agg.ComputeSCC(twin, scc.FlatDiscount(rate), false)
		if err != nil {
			t.Fatalf("rate %v: %v", rate, err)
		}
		if v <= 0 {
			t.Fatalf("rate %v: SCC %v not positive", rate, v)
		}
		if i > 0 && v >= prev {
			t.Fatalf("rate %v: SCC %v did not fall below %v", rate, v, prev)
		}
		prev = v
	}
}

func TestComputeSCC_FlatDiscountFactorExact(t *testing.T) {
	agg := NewDamageAggregator(2020)
	twin := syntheticTwin(t, 2000)
	r := 0.03

	got, err := agg.ComputeSCC(twin, scc.FlatDiscount(r), false)
	if err != nil {
		t.Fatalf("ComputeSCC: %v", err)
	}
	npv := 0.0
	for _, elapsed := range []float64{0, 10, 20} {
		npv += 10 * 3 * math.Pow(1+r, -elapsed)
	}
	if want := perTrillion(npv); math.Abs(got-want) > 1e-6 {
		t.Fatalf("SCC = %v, want %v", got, want)
	}
}

func TestComputeSCC_RamseyReducesToFlatUnderConstantConsumption(t *testing.T) {
	// With uniform, constant consumption per capita the growth term and
	// every equity weight are exactly 1, so ramsey(prtp, eta) must equal
	// flat(prtp) for any eta.
	agg := NewDamageAggregator(2020)
	twin := syntheticTwin(t, 2000)

	flat, err := agg.ComputeSCC(twin, scc.FlatDiscount(0.015), false)
	if err != nil {
		t.Fatalf("flat: %v", err)
	}
	for _, eta := range []float64{0, 1.0, 1.5} {
		ramsey, err := agg.ComputeSCC(twin, scc.RamseyDiscount(0.015, eta), false)
		if err != nil {
			t.Fatalf("ramsey eta=%v: %v", eta, err)
		}
		if math.Abs(ramsey-flat) > 1e-9 {
			t.Fatalf("eta=%v: ramsey %v != flat %v", eta, ramsey, flat)
		}
	}
}

func TestComputeSCC_EquityWeightsFavorPoorRegions(t *testing.T) {
	agg := NewDamageAggregator(2020)
	twin := syntheticTwin(t, 2000)

	// Make the non-home region much poorer; eta > 0 should upweight its
	// damages relative to the unweighted case.
	for i := range twin.Base.ConsumptionPC {
		twin.Base.ConsumptionPC[i] = []float64{20000, 2000}
		twin.Marginal.ConsumptionPC[i] = []float64{20000, 2000}
	}

	unweighted, err := agg.ComputeSCC(twin, scc.RamseyDiscount(0.015, 0), false)
	if err != nil {
		t.Fatalf("eta=0: %v", err)
	}
	weighted, err := agg.ComputeSCC(twin, scc.RamseyDiscount(0.015, 1.0), false)
	if err != nil {
		t.Fatalf("eta=1: %v", err)
	}
	// Most marginal damage falls in the poor region, so weighting must
	// raise the total.
	if weighted <= unweighted {
		t.Fatalf("equity weighting did not raise SCC: %v <= %v", weighted, unweighted)
	}
}

func TestComputeSCC_InflationFactor(t *testing.T) {
	twin := syntheticTwin(t, 2000)

	plain := NewDamageAggregator(2020)
	adjusted := NewDamageAggregator(2020)
	adjusted.InflationFactor = 1.1

	a, err := plain.ComputeSCC(twin, scc.FlatDiscount(0.03), false)
	if err != nil {
		t.Fatalf("plain: %v", err)
	}
	b, err := adjusted.ComputeSCC(twin, scc.FlatDiscount(0.03), false)
	if err != nil {
		t.Fatalf("adjusted: %v", err)
	}
	if math.Abs(b/a-1.1) > 1e-12 {
		t.Fatalf("inflation multiplier %v, want 1.1", b/a)
	}
}

func TestComputeSCC_Errors(t *testing.T) {
	agg := NewDamageAggregator(2020)

	if _, err := agg.ComputeSCC(syntheticTwin(t, 2005), scc.FlatDiscount(0.03), false); !errors.Is(err, core.ErrInvalidYear) {
		t.Fatalf("off-grid pulse: expected ErrInvalidYear, got %v", err)
	}
	if _, err := agg.ComputeSCC(syntheticTwin(t, 2000), scc.DiscountSpec{Kind: "hyperbolic"}, false); !errors.Is(err, core.ErrUnknownDiscount) {
		t.Fatalf("bad spec: expected ErrUnknownDiscount, got %v", err)
	}

	bad := syntheticTwin(t, 2000)
	bad.Marginal.Damages[1][0] = math.Inf(1)
	if _, err := agg.ComputeSCC(bad, scc.FlatDiscount(0.03), false); !errors.Is(err, core.ErrNonFinite) {
		t.Fatalf("infinite damages: expected ErrNonFinite, got %v", err)
	}

	noHome := syntheticTwin(t, 2000)
	noHome.Base.HomeRegion = "Atlantis"
	if _, err := agg.ComputeSCC(noHome, scc.FlatDiscount(0.03), true); !core.IsConfigurationError(err) {
		t.Fatalf("missing home region: expected configuration error, got %v", err)
	}
}

func TestMarginalDamages_GlobalSumsRegional(t *testing.T) {
	agg := NewDamageAggregator(2020)
	twin := syntheticTwin(t, 2000)

	series := agg.MarginalDamages(twin)
	if len(series.Years) != 3 || len(series.Regions) != 2 {
		t.Fatalf("series shape wrong: %d years, %d regions", len(series.Years), len(series.Regions))
	}
	for i := range series.Years {
		sum := 0.0
		for r := range series.Regions {
			sum += series.Regional[i][r]
		}
		if series.Global[i] != sum {
			t.Fatalf("year %d: global %v != regional sum %v", series.Years[i], series.Global[i], sum)
		}
		if series.Global[i] != 3 {
			t.Fatalf("year %d: marginal damages %v, want 3", series.Years[i], series.Global[i])
		}
	}
}
