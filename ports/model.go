package ports

import (
	"context"

	"socialcost/domain/grid"
	"socialcost/domain/scc"
)

// ModelKind is the closed set of supported IAM families. Selecting a
// family is a tagged enumeration, never string-keyed runtime wiring.
type ModelKind string

const (
	KindDICE ModelKind = "dice"
	KindFUND ModelKind = "fund"
	KindPAGE ModelKind = "page"
)

// Series is a simulated output indexed by [time] (Global) or
// [time][region] (Regional). Exactly one of the two is populated.
type Series struct {
	Global   []float64
	Regional [][]float64
}

// IsRegional reports whether the series carries a region dimension.
func (s Series) IsRegional() bool { return s.Regional != nil }

// Model is the contract the engine needs from a runnable IAM. How the
// model wires its internal component network is the implementation's
// business; the engine only builds, parameterizes, runs, and reads.
type Model interface {
	// Run executes all timesteps. After a successful Run the model's
	// parameters are frozen; UpdateParameter returns ErrModelFinalized.
	Run(ctx context.Context) error

	// GetVariable reads a simulated output series by component and name.
	GetVariable(component, name string) (Series, error)

	// UpdateParameter overrides a named parameter. Legal only before Run.
	UpdateParameter(name string, value any) error

	// Grid returns the model's immutable time grid.
	Grid() grid.TimeGrid

	// Regions returns the model's region names in output order.
	Regions() []string

	// HomeRegion names the region a domestic-only SCC restricts to.
	HomeRegion() string
}

// ModelBuilder constructs fresh, fully parameterized, runnable model
// instances for a scenario. Every call returns an independent instance;
// the engine never reuses a model across runs or trials.
type ModelBuilder interface {
	Kind() ModelKind
	Build(scenario scc.Scenario) (Model, error)
}
