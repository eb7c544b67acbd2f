package app

import (
	"errors"
	"math"
	"testing"

	"socialcost/domain/core"
	"socialcost/domain/grid"
	"socialcost/domain/scc"
)

func pulseBase(t *testing.T, years []int, emissions []float64) scc.RunOutputs {
	t.Helper()
	g, err := grid.NewTimeGrid(years)
	if err != nil {
		t.Fatalf("NewTimeGrid: %v", err)
	}
	return scc.RunOutputs{Grid: g, EmissionsGtC: emissions}
}

func TestPulseInjector_MassIndependentOfPeriodWidth(t *testing.T) {
	// mass = magnitude * baseline * width must come out to MassGtC at
	// every grid year, including the wide late periods.
	base := pulseBase(t,
		[]int{2000, 2010, 2020, 2050, 2100},
		[]float64{6.7, 7.5, 8.0, 9.0, 5.0})
	inj := NewPulseInjector()

	for _, year := range []int{2000, 2010, 2020, 2050, 2100} {
		mag, err := inj.Magnitude(base, year)
		if err != nil {
			t.Fatalf("Magnitude(%d): %v", year, err)
		}
		width, err := base.Grid.PeriodLength(year)
		if err != nil {
			t.Fatalf("PeriodLength(%d): %v", year, err)
		}
		pt, _ := base.Grid.Resolve(year)
		mass := mag * base.EmissionsGtC[pt.Index] * width
		if math.Abs(mass-inj.MassGtC) > 1e-12 {
			t.Errorf("year %d: realized mass %v, want %v", year, mass, inj.MassGtC)
		}
	}
}

func TestPulseInjector_WiderPeriodSmallerMagnitude(t *testing.T) {
	// Equal baseline emissions at a 10y-wide point and a 25y-wide point:
	// the wider period must get proportionally less growth delta.
	base := pulseBase(t,
		[]int{2000, 2010, 2020, 2050},
		[]float64{8.0, 8.0, 8.0, 8.0})
	inj := NewPulseInjector()

	narrow, err := inj.Magnitude(base, 2010) // width 10
	if err != nil {
		t.Fatalf("Magnitude(2010): %v", err)
	}
	wide, err := inj.Magnitude(base, 2020) // width (2050-2010)/2 = 20
	if err != nil {
		t.Fatalf("Magnitude(2020): %v", err)
	}
	if math.Abs(narrow/wide-2.0) > 1e-12 {
		t.Fatalf("magnitude ratio %v, want 2 for a 2x width ratio", narrow/wide)
	}
}

func TestPulseInjector_RequiresGridYear(t *testing.T) {
	base := pulseBase(t, []int{2000, 2010, 2020}, []float64{6.7, 7.5, 8.0})
	inj := NewPulseInjector()

	if _, err := inj.Magnitude(base, 2005); !errors.Is(err, core.ErrInvalidYear) {
		t.Fatalf("Magnitude(2005): expected ErrInvalidYear, got %v", err)
	}
	if _, err := inj.MarginalDelta(base.Grid, 2005, 0.01); !errors.Is(err, core.ErrInvalidYear) {
		t.Fatalf("MarginalDelta(2005): expected ErrInvalidYear, got %v", err)
	}
}

func TestPulseInjector_RejectsBadBaseline(t *testing.T) {
	inj := NewPulseInjector()
	for _, baseline := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		base := pulseBase(t, []int{2000, 2010}, []float64{baseline, 7.0})
		if _, err := inj.Magnitude(base, 2000); !errors.Is(err, core.ErrNonFinite) {
			t.Errorf("baseline %v: expected ErrNonFinite, got %v", baseline, err)
		}
	}
}

func TestPulseInjector_DeltaShape(t *testing.T) {
	base := pulseBase(t, []int{2000, 2010, 2020, 2030}, []float64{6, 7, 8, 9})
	inj := NewPulseInjector()

	pulse, err := inj.Build(base, 2020)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if pulse.Year != 2020 || pulse.MassGtC != scc.ReferencePulseGtC {
		t.Fatalf("pulse header wrong: %+v", pulse)
	}
	if len(pulse.Delta) != base.Grid.Len() {
		t.Fatalf("delta length %d, grid %d", len(pulse.Delta), base.Grid.Len())
	}
	for i, d := range pulse.Delta {
		if i == 2 {
			if d != pulse.Magnitude {
				t.Fatalf("delta[%d] = %v, want magnitude %v", i, d, pulse.Magnitude)
			}
			continue
		}
		if d != 0 {
			t.Fatalf("delta[%d] = %v, want 0 away from the pulse", i, d)
		}
	}
}
