package dice

import (
	"socialcost/domain/scc"
)

// Region names in output order. USA is the designated home region for
// domestic-only aggregation.
var regionNames = []string{
	"USA", "WesternEU", "OtherHighIncome", "China",
	"India", "Africa", "LatinAmerica", "OtherAsia",
}

// HomeRegionName is the region a domestic SCC restricts to.
const HomeRegionName = "USA"

// Static regional structure: shares of world output and population, and
// relative damage vulnerability.
var (
	gdpShares = []float64{0.25, 0.22, 0.10, 0.12, 0.05, 0.04, 0.08, 0.14}
	popShares = []float64{0.047, 0.066, 0.040, 0.210, 0.170, 0.130, 0.085, 0.252}
	vulnMult  = []float64{0.8, 0.8, 0.9, 1.1, 1.4, 1.6, 1.2, 1.3}
)

// defaultGridYears is the model's irregular simulation grid: decadal to
// mid-century, widening toward the 2300 horizon.
var defaultGridYears = []int{2000, 2010, 2020, 2030, 2040, 2050, 2075, 2100, 2150, 2200, 2300}

// ScenarioTable is the immutable socioeconomic pathway record for one
// scenario: per-grid-segment annual growth rates. Tables are constructed
// once at startup and passed explicitly; nothing here is process-global
// mutable state.
type ScenarioTable struct {
	Name scc.Scenario
	// Annual rates applying over the segment starting at each grid year;
	// the final entry is unused.
	PopGrowth        []float64
	GDPGrowth        []float64
	IntensityDecline []float64
}

// baseline per-segment annual rates shared by every scenario before its
// multipliers apply.
var (
	basePopGrowth = []float64{0.0120, 0.0110, 0.0090, 0.0080, 0.0060, 0.0040, 0.0020, 0.0010, 0.0005, 0.0002, 0}
	baseGDPGrowth = []float64{0.0350, 0.0320, 0.0300, 0.0280, 0.0250, 0.0220, 0.0200, 0.0150, 0.0100, 0.0080, 0}
	baseIntensity = []float64{0.0120, 0.0130, 0.0140, 0.0150, 0.0150, 0.0160, 0.0170, 0.0180, 0.0190, 0.0200, 0}
)

// scenarioScales are the EMF-22 pathway multipliers over the baseline
// rates: {GDP growth, population growth, intensity decline}.
var scenarioScales = map[scc.Scenario][3]float64{
	scc.ScenarioIMAGE:   {1.00, 1.00, 1.00},
	scc.ScenarioMERGE:   {1.15, 0.95, 0.90},
	scc.ScenarioMESSAGE: {0.95, 1.05, 1.00},
	scc.ScenarioMiniCAM: {1.05, 0.90, 1.10},
	scc.ScenarioFifth:   {0.85, 1.00, 1.35},
}

// DefaultScenarioTables builds the built-in pathway records, one per
// supported scenario.
func DefaultScenarioTables() map[scc.Scenario]ScenarioTable {
	tables := make(map[scc.Scenario]ScenarioTable, len(scenarioScales))
	for _, name := range scc.Scenarios() {
		scale := scenarioScales[name]
		tables[name] = ScenarioTable{
			Name:             name,
			PopGrowth:        scaled(basePopGrowth, scale[1]),
			GDPGrowth:        scaled(baseGDPGrowth, scale[0]),
			IntensityDecline: scaled(baseIntensity, scale[2]),
		}
	}
	return tables
}

func scaled(base []float64, factor float64) []float64 {
	out := make([]float64, len(base))
	for i, v := range base {
		out[i] = v * factor
	}
	return out
}
