package montecarlo

import (
	"math"
	"testing"

	"socialcost/domain/scc"
)

func TestSummarize_KnownValues(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50}
	s := Summarize(values)

	if s.Count != 5 {
		t.Fatalf("Count = %d, want 5", s.Count)
	}
	if s.Mean != 30 {
		t.Fatalf("Mean = %v, want 30", s.Mean)
	}
	if s.Median != 30 {
		t.Fatalf("Median = %v, want 30", s.Median)
	}
	// Sample stddev of 10..50 step 10 is sqrt(250).
	if math.Abs(s.StdDev-math.Sqrt(250)) > 1e-9 {
		t.Fatalf("StdDev = %v, want %v", s.StdDev, math.Sqrt(250))
	}
	if s.P5 > s.P25 || s.P25 > s.Median || s.Median > s.P75 || s.P75 > s.P95 {
		t.Fatalf("percentiles not monotone: %+v", s)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.Count != 0 || s.Mean != 0 || s.StdDev != 0 {
		t.Fatalf("empty input should yield a zero summary, got %+v", s)
	}
}

func TestSummarize_SingleValue(t *testing.T) {
	s := Summarize([]float64{42})
	if s.Count != 1 || s.Mean != 42 || s.Median != 42 {
		t.Fatalf("single value summary wrong: %+v", s)
	}
	if s.StdDev != 0 {
		t.Fatalf("a single trial has no sample stddev, got %v", s.StdDev)
	}
}

func TestBatch_EstimatesSkipFailedTrials(t *testing.T) {
	spec := scc.FlatDiscount(0.03)
	label := spec.Label()
	b := &Batch{
		Succeeded: 2,
		Trials: []Trial{
			{Index: 0, SCC: map[string]float64{label: 25.0}},
			{Index: 1, Failed: true, Reason: "model diverged"},
			{Index: 2, SCC: map[string]float64{label: 31.0}},
		},
	}
	got := b.Estimates(spec)
	if len(got) != 2 || got[0] != 25.0 || got[1] != 31.0 {
		t.Fatalf("Estimates = %v, want [25 31]", got)
	}
	if n := len(b.SucceededTrials()); n != 2 {
		t.Fatalf("SucceededTrials returned %d trials, want 2", n)
	}
}
