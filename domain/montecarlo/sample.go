package montecarlo

import (
	"fmt"
	"math/rand"
	"sort"

	"socialcost/domain/core"

	"gonum.org/v1/gonum/stat/distuv"
)

// DistKind enumerates the supported sampling distributions.
type DistKind string

const (
	DistUniform    DistKind = "uniform"
	DistTriangular DistKind = "triangular"
	// DistEmpirical resamples whole rows of a precomputed joint
	// distribution, preserving correlation between its parameters.
	DistEmpirical DistKind = "empirical"
)

// DistributionSpec configures the distribution of one uncertain parameter
// (uniform, triangular) or of a correlated parameter group (empirical).
type DistributionSpec struct {
	Kind DistKind `json:"kind"`

	// Single-parameter distributions.
	Param string  `json:"param,omitempty"`
	Min   float64 `json:"min,omitempty"`
	Max   float64 `json:"max,omitempty"`
	Mode  float64 `json:"mode,omitempty"` // triangular only

	// Empirical joint distribution: Rows[i][j] is the value of Params[j]
	// in the i-th precomputed draw.
	Params []string    `json:"params,omitempty"`
	Rows   [][]float64 `json:"rows,omitempty"`
}

// Validate checks a spec before any sampling happens.
func (d DistributionSpec) Validate() error {
	switch d.Kind {
	case DistUniform:
		if d.Param == "" {
			return core.NewConfigurationError("distribution", "uniform spec missing param name")
		}
		if !(d.Min < d.Max) {
			return core.NewConfigurationError(d.Param, fmt.Sprintf("uniform bounds [%v, %v] are not increasing", d.Min, d.Max))
		}
	case DistTriangular:
		if d.Param == "" {
			return core.NewConfigurationError("distribution", "triangular spec missing param name")
		}
		if !(d.Min < d.Max) || d.Mode < d.Min || d.Mode > d.Max {
			return core.NewConfigurationError(d.Param, fmt.Sprintf("triangular (%v, %v, %v) is malformed", d.Min, d.Mode, d.Max))
		}
	case DistEmpirical:
		if len(d.Params) == 0 {
			return core.NewConfigurationError("distribution", "empirical spec has no param names")
		}
		if len(d.Rows) == 0 {
			return core.NewConfigurationError("distribution", "empirical spec has no rows")
		}
		for i, row := range d.Rows {
			if len(row) != len(d.Params) {
				return core.NewConfigurationError("distribution",
					fmt.Sprintf("empirical row %d has %d values for %d params", i, len(row), len(d.Params)))
			}
		}
	default:
		return core.NewConfigurationError("distribution", fmt.Sprintf("unknown kind %q", d.Kind))
	}
	return nil
}

// names returns the parameter names this spec produces values for.
func (d DistributionSpec) names() []string {
	if d.Kind == DistEmpirical {
		return d.Params
	}
	return []string{d.Param}
}

// Sampler draws the complete trial-by-parameter override matrix from a
// single seeded stream. The whole matrix is drawn before any trial is
// dispatched, so parallel execution can never perturb the draw order.
type Sampler struct {
	specs []DistributionSpec
	names []string
}

// NewSampler validates specs and fixes the parameter column order.
func NewSampler(specs []DistributionSpec) (*Sampler, error) {
	seen := map[string]bool{}
	var names []string
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		for _, n := range spec.names() {
			if seen[n] {
				return nil, core.NewConfigurationError(n, "parameter sampled by more than one distribution")
			}
			seen[n] = true
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return &Sampler{specs: specs, names: names}, nil
}

// ParamNames returns the sampled parameter names in canonical column
// order.
func (s *Sampler) ParamNames() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Draw produces one override map per trial from the given stream.
// Identical stream state and trial count always produce identical values:
// sampling uses inverse-CDF quantiles of the single stream, so the draw
// sequence depends only on the spec order and the stream's seed.
func (s *Sampler) Draw(rng *rand.Rand, trials int) ([]map[string]float64, error) {
	if trials <= 0 {
		return nil, core.NewConfigurationError("trials", fmt.Sprintf("must be positive, got %d", trials))
	}
	out := make([]map[string]float64, trials)
	for i := range out {
		overrides := make(map[string]float64, len(s.names))
		for _, spec := range s.specs {
			switch spec.Kind {
			case DistUniform:
				u := distuv.Uniform{Min: spec.Min, Max: spec.Max}
				overrides[spec.Param] = u.Quantile(rng.Float64())
			case DistTriangular:
				tri := distuv.NewTriangle(spec.Min, spec.Max, spec.Mode, nil)
				overrides[spec.Param] = tri.Quantile(rng.Float64())
			case DistEmpirical:
				row := spec.Rows[rng.Intn(len(spec.Rows))]
				for j, name := range spec.Params {
					overrides[name] = row[j]
				}
			}
		}
		out[i] = overrides
	}
	return out, nil
}
