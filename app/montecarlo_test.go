package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"socialcost/adapters/dice"
	"socialcost/domain/core"
	"socialcost/domain/montecarlo"
	"socialcost/domain/scc"
	"socialcost/internal/rng"
	"socialcost/ports"
)

func newTestOrchestrator(t *testing.T) *MonteCarloOrchestrator {
	t.Helper()
	builder, err := dice.NewBuilder()
	if err != nil {
		t.Fatalf("dice.NewBuilder: %v", err)
	}
	agg := NewDamageAggregator(2020)
	return NewMonteCarloOrchestrator(NewSCCService(builder, agg), agg, rng.NewDeterministic(), nil, nil)
}

func testBatchRequest(trials int) BatchRequest {
	return BatchRequest{
		Scenario:  scc.ScenarioIMAGE,
		PulseYear: 2020,
		Trials:    trials,
		Distributions: []montecarlo.DistributionSpec{
			{Kind: montecarlo.DistTriangular, Param: ports.ParamClimateSensitivity, Min: 1.5, Max: 6.0, Mode: 3.0},
			{Kind: montecarlo.DistUniform, Param: ports.ParamDamageCoefficient, Min: 0.0015, Max: 0.0040},
		},
		Discounts: []scc.DiscountSpec{scc.FlatDiscount(0.025), scc.FlatDiscount(0.03), scc.FlatDiscount(0.05)},
		Seed:      12345,
		Workers:   2,
	}
}

func TestRunBatch_CompleteAndOrdered(t *testing.T) {
	o := newTestOrchestrator(t)
	req := testBatchRequest(8)

	batch, err := o.RunBatch(context.Background(), req)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if batch.Requested != 8 || len(batch.Trials) != 8 {
		t.Fatalf("batch has %d/%d trials, want 8", batch.Succeeded, len(batch.Trials))
	}
	if batch.Succeeded+batch.Dropped != 8 {
		t.Fatalf("succeeded %d + dropped %d != requested 8", batch.Succeeded, batch.Dropped)
	}
	if batch.ID == "" {
		t.Fatal("batch has no ID")
	}
	for i, trial := range batch.Trials {
		if trial.Index != i {
			t.Fatalf("trial at position %d has index %d", i, trial.Index)
		}
		if trial.Failed {
			t.Fatalf("trial %d unexpectedly failed: %s", i, trial.Reason)
		}
		if len(trial.SCC) != len(req.Discounts) {
			t.Fatalf("trial %d has %d SCC values, want %d", i, len(trial.SCC), len(req.Discounts))
		}
		if len(trial.Overrides) != 2 {
			t.Fatalf("trial %d has %d overrides, want 2", i, len(trial.Overrides))
		}
		for label, v := range trial.SCC {
			if v <= 0 {
				t.Fatalf("trial %d %s: SCC %v not positive", i, label, v)
			}
		}
	}
	for _, spec := range req.Discounts {
		s, ok := batch.Summaries[spec.Label()]
		if !ok || s.Count != 8 {
			t.Fatalf("summary for %s missing or wrong count: %+v", spec, s)
		}
	}
}

func TestRunBatch_ReproducibleAcrossWorkerCounts(t *testing.T) {
	sequential := testBatchRequest(6)
	sequential.Workers = 1
	parallel := testBatchRequest(6)
	parallel.Workers = 4

	a, err := newTestOrchestrator(t).RunBatch(context.Background(), sequential)
	if err != nil {
		t.Fatalf("sequential: %v", err)
	}
	b, err := newTestOrchestrator(t).RunBatch(context.Background(), parallel)
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}

	for i := range a.Trials {
		ta, tb := a.Trials[i], b.Trials[i]
		for name, v := range ta.Overrides {
			if tb.Overrides[name] != v {
				t.Fatalf("trial %d override %s: %v != %v", i, name, v, tb.Overrides[name])
			}
		}
		for label, v := range ta.SCC {
			if tb.SCC[label] != v {
				t.Fatalf("trial %d %s: %v != %v", i, label, v, tb.SCC[label])
			}
		}
	}
	for label, sa := range a.Summaries {
		if b.Summaries[label] != sa {
			t.Fatalf("summary %s differs across worker counts", label)
		}
	}
}

func TestRunBatch_SeedChangesSamples(t *testing.T) {
	o := newTestOrchestrator(t)
	first := testBatchRequest(4)
	second := testBatchRequest(4)
	second.Seed = 54321

	a, err := o.RunBatch(context.Background(), first)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	b, err := o.RunBatch(context.Background(), second)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	same := true
	for i := range a.Trials {
		for name, v := range a.Trials[i].Overrides {
			if b.Trials[i].Overrides[name] != v {
				same = false
			}
		}
	}
	if same {
		t.Fatal("different seeds produced identical override draws")
	}
}

func TestRunBatch_RecoverableFailuresDroppedAndCounted(t *testing.T) {
	o := newTestOrchestrator(t)
	req := testBatchRequest(40)
	// Sensitivities straddling zero: non-positive draws fail the engine
	// run, positive draws succeed.
	req.Distributions = []montecarlo.DistributionSpec{
		{Kind: montecarlo.DistUniform, Param: ports.ParamClimateSensitivity, Min: -1.0, Max: 1.0},
	}

	batch, err := o.RunBatch(context.Background(), req)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if batch.Dropped == 0 || batch.Succeeded == 0 {
		t.Fatalf("expected a mixed batch, got succeeded=%d dropped=%d", batch.Succeeded, batch.Dropped)
	}
	if batch.Succeeded+batch.Dropped != batch.Requested {
		t.Fatalf("counts do not partition: %d + %d != %d", batch.Succeeded, batch.Dropped, batch.Requested)
	}
	for _, trial := range batch.Trials {
		if trial.Failed {
			if trial.SCC != nil {
				t.Fatalf("dropped trial %d retains SCC values", trial.Index)
			}
			if trial.Reason == "" {
				t.Fatalf("dropped trial %d has no reason", trial.Index)
			}
			continue
		}
		if trial.Overrides[ports.ParamClimateSensitivity] <= 0 {
			t.Fatalf("trial %d succeeded with sensitivity %v", trial.Index, trial.Overrides[ports.ParamClimateSensitivity])
		}
	}
	for label, s := range batch.Summaries {
		if s.Count != batch.Succeeded {
			t.Fatalf("summary %s over %d values, want %d", label, s.Count, batch.Succeeded)
		}
	}
}

func TestRunBatch_FailureRateAbort(t *testing.T) {
	o := newTestOrchestrator(t)
	req := testBatchRequest(10)
	// Every draw is non-positive; every trial drops.
	req.Distributions = []montecarlo.DistributionSpec{
		{Kind: montecarlo.DistUniform, Param: ports.ParamClimateSensitivity, Min: -2.0, Max: -1.0},
	}
	req.MaxFailureRate = 0.5

	batch, err := o.RunBatch(context.Background(), req)
	if !errors.Is(err, core.ErrBatchFailureRate) {
		t.Fatalf("expected ErrBatchFailureRate, got %v", err)
	}
	if batch != nil {
		t.Fatal("aborted batch should not be returned")
	}

	// Without the threshold the same batch returns, fully dropped.
	req.MaxFailureRate = 0
	batch, err = o.RunBatch(context.Background(), req)
	if err != nil {
		t.Fatalf("RunBatch without threshold: %v", err)
	}
	if batch.Dropped != 10 || batch.Succeeded != 0 {
		t.Fatalf("expected all trials dropped, got succeeded=%d dropped=%d", batch.Succeeded, batch.Dropped)
	}
	for _, s := range batch.Summaries {
		if s.Count != 0 {
			t.Fatalf("summary over a fully dropped batch has count %d", s.Count)
		}
	}
}

func TestRunBatch_DiscontinuityArtifactsDropped(t *testing.T) {
	// Place the discontinuity threshold a hair above the base run's peak
	// warming: the base stays below it while the marginal twin's extra
	// warming crosses, so base and marginal disagree and the trial is an
	// artifact.
	builder, err := dice.NewBuilder()
	if err != nil {
		t.Fatalf("dice.NewBuilder: %v", err)
	}
	probe, err := builder.Build(scc.ScenarioIMAGE)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := probe.Run(context.Background()); err != nil {
		t.Fatalf("probe run: %v", err)
	}
	temp, err := probe.GetVariable(ports.CompClimate, ports.VarTemperature)
	if err != nil {
		t.Fatalf("temperature: %v", err)
	}
	peak := 0.0
	for _, v := range temp.Global {
		if v > peak {
			peak = v
		}
	}

	o := newTestOrchestrator(t)
	req := testBatchRequest(4)
	req.DropDiscontinuities = true
	req.Distributions = []montecarlo.DistributionSpec{
		{
			Kind:   montecarlo.DistEmpirical,
			Params: []string{ports.ParamDiscontinuityThreshold},
			Rows:   [][]float64{{peak + 1e-7}},
		},
	}

	batch, err := o.RunBatch(context.Background(), req)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if batch.Dropped != 4 {
		t.Fatalf("expected every trial dropped as an artifact, got dropped=%d", batch.Dropped)
	}
	for _, trial := range batch.Trials {
		if trial.Reason != "discontinuity artifact" {
			t.Fatalf("trial %d reason %q", trial.Index, trial.Reason)
		}
	}

	// The same threshold without screening keeps every trial.
	req.DropDiscontinuities = false
	batch, err = o.RunBatch(context.Background(), req)
	if err != nil {
		t.Fatalf("RunBatch without screening: %v", err)
	}
	if batch.Succeeded != 4 {
		t.Fatalf("expected every trial kept, got succeeded=%d", batch.Succeeded)
	}
}

func TestRunBatch_ConfigurationErrorAborts(t *testing.T) {
	o := newTestOrchestrator(t)
	req := testBatchRequest(4)
	req.Distributions = []montecarlo.DistributionSpec{
		{Kind: montecarlo.DistUniform, Param: "not_a_parameter", Min: 0, Max: 1},
	}

	if _, err := o.RunBatch(context.Background(), req); !core.IsConfigurationError(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRunBatch_RequestValidation(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	req := testBatchRequest(0)
	if _, err := o.RunBatch(ctx, req); !core.IsConfigurationError(err) {
		t.Fatalf("zero trials: expected configuration error, got %v", err)
	}

	req = testBatchRequest(4)
	req.Discounts = nil
	if _, err := o.RunBatch(ctx, req); !core.IsConfigurationError(err) {
		t.Fatalf("no discounts: expected configuration error, got %v", err)
	}

	req = testBatchRequest(4)
	req.Scenario = "SRES A2"
	if _, err := o.RunBatch(ctx, req); !errors.Is(err, core.ErrUnknownScenario) {
		t.Fatalf("unknown scenario: expected ErrUnknownScenario, got %v", err)
	}

	req = testBatchRequest(4)
	req.PulseYear = 1990
	if _, err := o.RunBatch(ctx, req); !errors.Is(err, core.ErrOutOfHorizon) {
		t.Fatalf("pre-horizon pulse: expected ErrOutOfHorizon, got %v", err)
	}
}

func TestRunBatch_OffGridPulseYearInterpolates(t *testing.T) {
	o := newTestOrchestrator(t)
	label := scc.FlatDiscount(0.03).Label()

	at := func(year int) *montecarlo.Batch {
		req := testBatchRequest(3)
		req.PulseYear = year
		req.Workers = 1
		batch, err := o.RunBatch(context.Background(), req)
		if err != nil {
			t.Fatalf("RunBatch(%d): %v", year, err)
		}
		return batch
	}

	low, high, mid := at(2050), at(2075), at(2060)
	frac := float64(2060-2050) / float64(2075-2050)
	for i := range mid.Trials {
		lo := low.Trials[i].SCC[label]
		hi := high.Trials[i].SCC[label]
		want := lo + (hi-lo)*frac
		got := mid.Trials[i].SCC[label]
		if diff := got - want; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("trial %d: interpolated SCC %v, want %v", i, got, want)
		}
	}
}

// cancelAfterBuilds wraps a model builder and cancels a context once a
// fixed number of models have been constructed, so batch cancellation can
// be exercised deterministically mid-run.
type cancelAfterBuilds struct {
	inner  ports.ModelBuilder
	after  int
	cancel context.CancelFunc

	mu    sync.Mutex
	count int
}

func (c *cancelAfterBuilds) Kind() ports.ModelKind { return c.inner.Kind() }

func (c *cancelAfterBuilds) Build(scenario scc.Scenario) (ports.Model, error) {
	c.mu.Lock()
	c.count++
	if c.count == c.after {
		c.cancel()
	}
	c.mu.Unlock()
	return c.inner.Build(scenario)
}

func TestRunBatch_StopKeepsCompletedTrials(t *testing.T) {
	inner, err := dice.NewBuilder()
	if err != nil {
		t.Fatalf("dice.NewBuilder: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// Build order with one worker: probe, then base+marginal per trial.
	// Cancelling on the fourth build lands inside trial 1, after trial 0
	// has fully completed.
	builder := &cancelAfterBuilds{inner: inner, after: 4, cancel: cancel}

	agg := NewDamageAggregator(2020)
	o := NewMonteCarloOrchestrator(NewSCCService(builder, agg), agg, rng.NewDeterministic(), nil, nil)

	req := testBatchRequest(6)
	req.Workers = 1
	batch, err := o.RunBatch(ctx, req)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if batch.Requested != 6 || len(batch.Trials) != 6 {
		t.Fatalf("stopped batch lost trials: %+v", batch)
	}
	if batch.Trials[0].Failed {
		t.Fatalf("completed trial 0 discarded: %s", batch.Trials[0].Reason)
	}
	notRun := 0
	for _, trial := range batch.Trials[1:] {
		if !trial.Failed {
			t.Fatalf("trial %d reported success after the stop", trial.Index)
		}
		if strings.HasPrefix(trial.Reason, "not run") {
			notRun++
		}
	}
	if notRun == 0 {
		t.Fatal("no trial was marked as not run")
	}
	// Trials never dispatched are not engine failures and must not count
	// against the failure rate.
	if batch.Dropped >= 5 {
		t.Fatalf("not-run trials counted as dropped: %d", batch.Dropped)
	}
}
