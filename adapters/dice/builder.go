package dice

import (
	"fmt"

	"socialcost/domain/core"
	"socialcost/domain/grid"
	"socialcost/domain/scc"
	"socialcost/ports"
)

// Builder constructs fresh Model instances for a scenario. Each Build
// call returns a fully independent model; base and marginal twins, and
// every Monte Carlo trial, get their own instance.
type Builder struct {
	tables map[scc.Scenario]ScenarioTable
	params Params
	g      grid.TimeGrid
}

// NewBuilder creates a builder over the built-in scenario tables and
// default parameters.
func NewBuilder() (*Builder, error) {
	g, err := grid.NewTimeGrid(defaultGridYears)
	if err != nil {
		return nil, err
	}
	return &Builder{
		tables: DefaultScenarioTables(),
		params: DefaultParams(),
		g:      g,
	}, nil
}

// WithScenarioTables replaces pathway records, e.g. with tables read from
// a scenario workbook. Tables must cover every grid year.
func (b *Builder) WithScenarioTables(tables map[scc.Scenario]ScenarioTable) (*Builder, error) {
	for name, t := range tables {
		if len(t.PopGrowth) != b.g.Len() || len(t.GDPGrowth) != b.g.Len() || len(t.IntensityDecline) != b.g.Len() {
			return nil, core.NewConfigurationError(string(name),
				fmt.Sprintf("scenario table rows must match grid length %d", b.g.Len()))
		}
		b.tables[name] = t
	}
	return b, nil
}

// Kind identifies the IAM family.
func (b *Builder) Kind() ports.ModelKind { return ports.KindDICE }

// Build returns a fresh, runnable model for the scenario.
func (b *Builder) Build(scenario scc.Scenario) (ports.Model, error) {
	table, ok := b.tables[scenario]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownScenario, scenario)
	}
	n := b.g.Len()
	m := &Model{
		scenario:  scenario,
		table:     table,
		params:    b.params,
		g:         b.g,
		emissions: make([]float64, n),
		warming:   make([]float64, n),
		disc:      make([]float64, n),
		damages:   makeMatrix(n, len(regionNames)),
		cpc:       makeMatrix(n, len(regionNames)),
		pop:       makeMatrix(n, len(regionNames)),
	}
	return m, nil
}

func makeMatrix(rows, cols int) [][]float64 {
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, cols)
	}
	return out
}
