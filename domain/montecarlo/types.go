package montecarlo

import (
	"socialcost/domain/core"
	"socialcost/domain/scc"
)

// Trial records one randomized repetition: the sampled parameter
// overrides and either one SCC estimate per discount spec or a failure
// marker. Failed trials carry no estimates at all.
type Trial struct {
	Index     int                `json:"index"`
	Overrides map[string]float64 `json:"overrides"`
	SCC       map[string]float64 `json:"scc,omitempty"` // keyed by DiscountSpec.Label
	Failed    bool               `json:"failed"`
	Reason    string             `json:"reason,omitempty"`
}

// Batch is the complete, reproducibly ordered outcome of a Monte Carlo
// run: every trial in index order plus per-discount-spec summaries over
// the non-failed trials.
type Batch struct {
	ID         core.BatchID       `json:"id"`
	Scenario   scc.Scenario       `json:"scenario"`
	PulseYear  int                `json:"pulse_year"`
	Seed       int64              `json:"seed"`
	Domestic   bool               `json:"domestic"`
	Discounts  []scc.DiscountSpec `json:"discounts"`
	ParamNames []string           `json:"param_names"`
	Requested  int                `json:"requested"`
	Succeeded  int                `json:"succeeded"`
	Dropped    int                `json:"dropped"`
	Trials     []Trial            `json:"trials"`
	Summaries  map[string]Summary `json:"summaries"` // keyed by DiscountSpec.Label
}

// SucceededTrials returns the non-failed trials in index order.
func (b *Batch) SucceededTrials() []Trial {
	out := make([]Trial, 0, b.Succeeded)
	for _, t := range b.Trials {
		if !t.Failed {
			out = append(out, t)
		}
	}
	return out
}

// Estimates collects the SCC values for one discount spec over the
// non-failed trials, in trial order.
func (b *Batch) Estimates(spec scc.DiscountSpec) []float64 {
	label := spec.Label()
	out := make([]float64, 0, b.Succeeded)
	for _, t := range b.Trials {
		if t.Failed {
			continue
		}
		if v, ok := t.SCC[label]; ok {
			out = append(out, v)
		}
	}
	return out
}
