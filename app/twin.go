package app

import (
	"context"
	"fmt"
	"log"

	"socialcost/domain/core"
	"socialcost/domain/scc"
	"socialcost/ports"
)

// TwinRunner executes the base/marginal pair for one SCC evaluation. The
// marginal twin's pulse is derived from the base run's realized emissions,
// never from default parameters, so the pair is a true local derivative of
// the realized base state.
type TwinRunner struct {
	builder  ports.ModelBuilder
	injector PulseInjector
}

// NewTwinRunner creates a twin runner over a model builder.
func NewTwinRunner(builder ports.ModelBuilder) *TwinRunner {
	return &TwinRunner{builder: builder, injector: NewPulseInjector()}
}

// Run executes base then marginal for a grid-exact pulse year. Overrides
// are the sampled uncertain-parameter values applied identically to both
// twins; the pulse is the only difference between them.
func (r *TwinRunner) Run(ctx context.Context, scenario scc.Scenario, pulseYear int, overrides map[string]float64) (*scc.TwinRun, error) {
	base, err := r.buildModel(scenario, overrides)
	if err != nil {
		return nil, err
	}
	if !base.Grid().Contains(pulseYear) {
		return nil, fmt.Errorf("%w: pulse year %d outside [%d, %d]",
			core.ErrOutOfHorizon, pulseYear, base.Grid().First(), base.Grid().Last())
	}

	if err := base.Run(ctx); err != nil {
		return nil, core.NewEngineError("base run", err)
	}
	baseOut, err := extractOutputs(base)
	if err != nil {
		return nil, err
	}

	// Pulse magnitude requires the completed base run.
	pulse, err := r.injector.Build(baseOut, pulseYear)
	if err != nil {
		return nil, err
	}

	marginal, err := r.buildModel(scenario, overrides)
	if err != nil {
		return nil, err
	}
	// Injection happens after construction, strictly before execution.
	if err := marginal.UpdateParameter(ports.ParamEmissionsGrowthDelta, pulse.Delta); err != nil {
		return nil, core.NewEngineError("pulse injection", err)
	}
	if err := marginal.Run(ctx); err != nil {
		return nil, core.NewEngineError("marginal run", err)
	}
	marginalOut, err := extractOutputs(marginal)
	if err != nil {
		return nil, err
	}

	log.Printf("[TwinRunner] twin complete: scenario=%s pulse_year=%d magnitude=%.6g", scenario, pulseYear, pulse.Magnitude)
	return &scc.TwinRun{Base: baseOut, Marginal: marginalOut, Pulse: pulse}, nil
}

// buildModel constructs a fresh instance and applies sampled overrides.
// Base and marginal are built independently; no state is shared.
func (r *TwinRunner) buildModel(scenario scc.Scenario, overrides map[string]float64) (ports.Model, error) {
	m, err := r.builder.Build(scenario)
	if err != nil {
		return nil, err
	}
	for name, value := range overrides {
		if err := m.UpdateParameter(name, value); err != nil {
			return nil, core.NewConfigurationError(name, err.Error())
		}
	}
	return m, nil
}

// extractOutputs snapshots everything damage aggregation needs from a
// completed model.
func extractOutputs(m ports.Model) (scc.RunOutputs, error) {
	out := scc.RunOutputs{
		Grid:       m.Grid(),
		Regions:    m.Regions(),
		HomeRegion: m.HomeRegion(),
	}

	emissions, err := m.GetVariable(ports.CompEmissions, ports.VarEmissions)
	if err != nil {
		return scc.RunOutputs{}, err
	}
	out.EmissionsGtC = emissions.Global

	damages, err := m.GetVariable(ports.CompDamages, ports.VarDamages)
	if err != nil {
		return scc.RunOutputs{}, err
	}
	out.Damages = damages.Regional

	cpc, err := m.GetVariable(ports.CompEconomy, ports.VarConsumptionPC)
	if err != nil {
		return scc.RunOutputs{}, err
	}
	out.ConsumptionPC = cpc.Regional

	pop, err := m.GetVariable(ports.CompEconomy, ports.VarPopulation)
	if err != nil {
		return scc.RunOutputs{}, err
	}
	out.PopulationMill = pop.Regional

	disc, err := m.GetVariable(ports.CompClimate, ports.VarDiscontinuity)
	if err != nil {
		return scc.RunOutputs{}, err
	}
	out.Discontinuities = make([]bool, len(disc.Global))
	for i, v := range disc.Global {
		out.Discontinuities[i] = v > 0.5
	}
	return out, nil
}
