package scc

import (
	"fmt"
	"strings"

	"socialcost/domain/core"
	"socialcost/domain/grid"
)

// Scenario identifies one of the closed set of socioeconomic pathways the
// engine supports. The set matches the five EMF-22 reference scenarios.
type Scenario string

const (
	ScenarioIMAGE   Scenario = "IMAGE"
	ScenarioMERGE   Scenario = "MERGE Optimistic"
	ScenarioMESSAGE Scenario = "MESSAGE"
	ScenarioMiniCAM Scenario = "MiniCAM Base"
	ScenarioFifth   Scenario = "5th Scenario"
)

// Scenarios lists every supported scenario in canonical order.
func Scenarios() []Scenario {
	return []Scenario{ScenarioIMAGE, ScenarioMERGE, ScenarioMESSAGE, ScenarioMiniCAM, ScenarioFifth}
}

// ParseScenario resolves a scenario name case-insensitively.
func ParseScenario(name string) (Scenario, error) {
	for _, s := range Scenarios() {
		if strings.EqualFold(string(s), name) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnknownScenario, name)
}

// Slug returns a filesystem-safe scenario name.
func (s Scenario) Slug() string {
	return strings.ToLower(strings.ReplaceAll(string(s), " ", "_"))
}

// Unit conversion constants. Models report damages in trillion USD per
// year and emissions in GtC per year; SCC is reported in USD per tonne of
// CO2.
const (
	ReferencePulseGtC = 1.0
	TonnesPerGt       = 1e9
	CO2PerC           = 44.0 / 12.0
	DamageUnitUSD     = 1e12
)

// Pulse describes the emissions perturbation injected into the marginal
// twin: the calendar year, the computed growth-rate magnitude, and the
// per-grid-year delta applied to the emissions growth trajectory.
type Pulse struct {
	Year      int
	MassGtC   float64
	Magnitude float64
	Delta     []float64
}

// RunOutputs captures everything the damage aggregation needs from one
// completed simulation. Slices are indexed [time] or [time][region] on the
// run's own grid and are never mutated after extraction.
type RunOutputs struct {
	Grid            grid.TimeGrid
	Regions         []string
	HomeRegion      string
	EmissionsGtC    []float64   // global emissions, GtC/yr
	Damages         [][]float64 // trillion USD/yr by region
	ConsumptionPC   [][]float64 // USD per person per year by region
	PopulationMill  [][]float64 // millions by region
	Discontinuities []bool      // per grid year: damage discontinuity active
}

// RegionIndex resolves a region name to its index, or -1.
func (o RunOutputs) RegionIndex(name string) int {
	for i, r := range o.Regions {
		if r == name {
			return i
		}
	}
	return -1
}

// DiscontinuityCrossed reports whether the run triggered the damage
// discontinuity at any grid year.
func (o RunOutputs) DiscontinuityCrossed() bool {
	for _, d := range o.Discontinuities {
		if d {
			return true
		}
	}
	return false
}

// TwinRun pairs a base run with its marginal twin. The two runs share
// identical parameters apart from the injected pulse.
type TwinRun struct {
	Base     RunOutputs
	Marginal RunOutputs
	Pulse    Pulse
}

// SCCResult is a fully populated SCC estimate. Values are only comparable
// across identical discount specs and currency-year normalization.
type SCCResult struct {
	Scenario     Scenario     `json:"scenario"`
	Year         int          `json:"year"`
	Discount     DiscountSpec `json:"discount"`
	Domestic     bool         `json:"domestic"`
	Value        float64      `json:"value"` // USD per tonne CO2
	CurrencyYear int          `json:"currency_year"`
}
