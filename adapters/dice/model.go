package dice

import (
	"context"
	"fmt"
	"math"

	"socialcost/domain/core"
	"socialcost/domain/grid"
	"socialcost/domain/scc"
	"socialcost/ports"
)

// Physical constants of the reduced-form climate system.
const (
	initialWorldPopMill = 6100.0 // millions, 2000
	initialWorldGDPTril = 33.0   // trillion USD/yr, 2000
	initialEmissionsGtC = 6.7    // GtC/yr, 2000
	initialWarmingDegC  = 0.8    // above preindustrial, 2000

	preindustrialStockGtC = 588.0
	initialStockGtC       = 790.0
	airborneFraction      = 0.45
	stockDecayYears       = 120.0
	tempRelaxYears        = 40.0
	forcingPerDoubling    = 3.708 // 5.35 * ln 2, W/m2
	exogenousForcing      = 0.30
)

// Model is a compact DICE-family integrated assessment model: exogenous
// socioeconomic growth, a single-box carbon stock, logarithmic forcing,
// first-order temperature relaxation, and quadratic regional damages with
// a threshold discontinuity. It exists to give the SCC engine a runnable,
// deterministic collaborator; it is not a calibrated policy model.
type Model struct {
	scenario scc.Scenario
	table    ScenarioTable
	params   Params
	g        grid.TimeGrid
	ran      bool

	emissions []float64   // GtC/yr
	warming   []float64   // degC
	disc      []float64   // 1 while the discontinuity is active
	damages   [][]float64 // [time][region] trillion USD/yr
	cpc       [][]float64 // [time][region] USD/person/yr
	pop       [][]float64 // [time][region] millions
}

// Run executes every timestep. The model is frozen afterwards.
func (m *Model) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.ran {
		return fmt.Errorf("model for %s already run", m.scenario)
	}
	if err := m.params.validate(); err != nil {
		return fmt.Errorf("scenario %s: %w", m.scenario, err)
	}

	n := m.g.Len()
	years := m.g.Years()

	worldPop := make([]float64, n)
	worldGDP := make([]float64, n)
	intensity := make([]float64, n)
	stock := make([]float64, n)

	worldPop[0] = initialWorldPopMill
	worldGDP[0] = initialWorldGDPTril
	intensity[0] = initialEmissionsGtC / initialWorldGDPTril
	stock[0] = initialStockGtC
	m.warming[0] = initialWarmingDegC

	// Exogenous growth paths.
	for i := 0; i < n-1; i++ {
		dt := float64(years[i+1] - years[i])
		worldPop[i+1] = worldPop[i] * math.Pow(1+m.table.PopGrowth[i], dt)
		worldGDP[i+1] = worldGDP[i] * math.Pow(1+m.table.GDPGrowth[i], dt)
		intensity[i+1] = intensity[i] * math.Pow(1-m.table.IntensityDecline[i], dt)
	}

	// Emissions, carbon stock and temperature.
	for i := 0; i < n; i++ {
		e := intensity[i] * worldGDP[i]
		if m.params.EmissionsGrowthDelta != nil {
			e *= 1 + m.params.EmissionsGrowthDelta[i]
		}
		m.emissions[i] = e

		if i < n-1 {
			dt := float64(years[i+1] - years[i])
			retained := math.Exp(-dt / stockDecayYears)
			stock[i+1] = preindustrialStockGtC +
				(stock[i]-preindustrialStockGtC)*retained +
				airborneFraction*e*dt

			forcing := forcingPerDoubling*math.Log2(stock[i]/preindustrialStockGtC) + exogenousForcing
			equilibrium := m.params.ClimateSensitivity * forcing / forcingPerDoubling
			m.warming[i+1] = m.warming[i] + (1-math.Exp(-dt/tempRelaxYears))*(equilibrium-m.warming[i])
		}
	}

	// Regional damages and consumption.
	for i := 0; i < n; i++ {
		t := m.warming[i]
		discActive := t > m.params.DiscontinuityThreshold
		if discActive {
			m.disc[i] = 1
		}
		for r := range regionNames {
			y := worldGDP[i] * gdpShares[r]
			share := vulnMult[r] * m.params.DamageCoeff * t * t
			if discActive {
				share += m.params.DiscontinuityShare
			}
			d := y * share
			m.damages[i][r] = d

			p := worldPop[i] * popShares[r]
			m.pop[i][r] = p
			// trillion USD over millions of people -> USD per person.
			m.cpc[i][r] = (y - d) * (1 - m.params.SavingsRate) / p * 1e6
		}
	}

	// The engine treats non-finite state as a numerical engine failure.
	for i := 0; i < n; i++ {
		if !finite(m.emissions[i]) || !finite(m.warming[i]) {
			return fmt.Errorf("non-finite state at year %d (emissions=%v, warming=%v)",
				years[i], m.emissions[i], m.warming[i])
		}
		for r := range regionNames {
			if !finite(m.damages[i][r]) || !finite(m.cpc[i][r]) {
				return fmt.Errorf("non-finite regional state at year %d region %s", years[i], regionNames[r])
			}
		}
	}

	m.ran = true
	return nil
}

// GetVariable reads a simulated series. Legal only after Run.
func (m *Model) GetVariable(component, name string) (ports.Series, error) {
	if !m.ran {
		return ports.Series{}, fmt.Errorf("model for %s has not run", m.scenario)
	}
	switch {
	case component == ports.CompEmissions && name == ports.VarEmissions:
		return ports.Series{Global: copyGlobal(m.emissions)}, nil
	case component == ports.CompClimate && name == ports.VarTemperature:
		return ports.Series{Global: copyGlobal(m.warming)}, nil
	case component == ports.CompClimate && name == ports.VarDiscontinuity:
		return ports.Series{Global: copyGlobal(m.disc)}, nil
	case component == ports.CompDamages && name == ports.VarDamages:
		return ports.Series{Regional: copyRegional(m.damages)}, nil
	case component == ports.CompEconomy && name == ports.VarConsumptionPC:
		return ports.Series{Regional: copyRegional(m.cpc)}, nil
	case component == ports.CompEconomy && name == ports.VarPopulation:
		return ports.Series{Regional: copyRegional(m.pop)}, nil
	}
	return ports.Series{}, core.NewVariableNotFoundError(component, name)
}

// UpdateParameter overrides a named parameter; illegal once run.
func (m *Model) UpdateParameter(name string, value any) error {
	if m.ran {
		return core.ErrModelFinalized
	}
	return m.params.set(name, value, m.g.Len())
}

// Grid returns the immutable time grid.
func (m *Model) Grid() grid.TimeGrid { return m.g }

// Regions returns region names in output order.
func (m *Model) Regions() []string {
	out := make([]string, len(regionNames))
	copy(out, regionNames)
	return out
}

// HomeRegion names the domestic aggregation region.
func (m *Model) HomeRegion() string { return HomeRegionName }

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func copyGlobal(src []float64) []float64 {
	out := make([]float64, len(src))
	copy(out, src)
	return out
}

func copyRegional(src [][]float64) [][]float64 {
	out := make([][]float64, len(src))
	for i, row := range src {
		out[i] = make([]float64, len(row))
		copy(out[i], row)
	}
	return out
}
