package app

import (
	"context"
	"fmt"
	"log"

	"socialcost/domain/core"
	"socialcost/domain/grid"
	"socialcost/domain/montecarlo"
	"socialcost/domain/scc"
	"socialcost/ports"

	"golang.org/x/sync/errgroup"
)

// BatchRequest is the full configuration surface of one Monte Carlo
// batch.
type BatchRequest struct {
	Scenario            scc.Scenario
	PulseYear           int
	Trials              int
	Distributions       []montecarlo.DistributionSpec
	Discounts           []scc.DiscountSpec
	Domestic            bool
	DropDiscontinuities bool
	Seed                int64
	Workers             int     // 0 or 1 means sequential
	OutputDir           string  // optional; delimited tables written when set
	MaxFailureRate      float64 // 0 disables the failure-rate abort
}

// MonteCarloOrchestrator drives the twin-run + aggregation pipeline once
// per randomized trial. Trials are mutually independent: each builds its
// own model instances and no mutable state crosses trials. The complete
// sample matrix is drawn before dispatch, so worker scheduling can never
// affect reproducibility.
type MonteCarloOrchestrator struct {
	service  *SCCService
	agg      DamageAggregator
	rng      ports.RNGPort
	store    ports.BatchStore    // optional
	exporter ports.BatchExporter // optional
}

// NewMonteCarloOrchestrator wires the batch harness. Store and exporter
// may be nil; the batch is always returned in memory.
func NewMonteCarloOrchestrator(service *SCCService, agg DamageAggregator, rng ports.RNGPort, store ports.BatchStore, exporter ports.BatchExporter) *MonteCarloOrchestrator {
	return &MonteCarloOrchestrator{service: service, agg: agg, rng: rng, store: store, exporter: exporter}
}

// RunBatch executes the batch. Recoverable per-trial failures are dropped
// and counted; configuration problems abort immediately. A cancelled
// context stops dispatch between trials and the batch returns with every
// already-computed trial retained.
func (o *MonteCarloOrchestrator) RunBatch(ctx context.Context, req BatchRequest) (*montecarlo.Batch, error) {
	if req.Trials <= 0 {
		return nil, core.NewConfigurationError("trials", fmt.Sprintf("must be positive, got %d", req.Trials))
	}
	if len(req.Discounts) == 0 {
		return nil, core.NewConfigurationError("discounts", "at least one discount spec is required")
	}
	for _, spec := range req.Discounts {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
	}
	if _, err := scc.ParseScenario(string(req.Scenario)); err != nil {
		return nil, err
	}

	probe, err := o.service.twins.builder.Build(req.Scenario)
	if err != nil {
		return nil, err
	}
	g := probe.Grid()
	if !g.Contains(req.PulseYear) {
		return nil, fmt.Errorf("%w: pulse year %d outside [%d, %d]",
			core.ErrOutOfHorizon, req.PulseYear, g.First(), g.Last())
	}

	sampler, err := montecarlo.NewSampler(req.Distributions)
	if err != nil {
		return nil, err
	}
	stream, err := o.rng.SeededStream(ctx, "montecarlo", req.Seed)
	if err != nil {
		return nil, err
	}
	// Full trial x parameter matrix up front, from the single stream.
	samples, err := sampler.Draw(stream, req.Trials)
	if err != nil {
		return nil, err
	}

	trials := make([]montecarlo.Trial, req.Trials)
	workers := req.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > req.Trials {
		workers = req.Trials
	}

	log.Printf("[MonteCarlo] batch start: scenario=%s year=%d trials=%d workers=%d seed=%d",
		req.Scenario, req.PulseYear, req.Trials, workers, req.Seed)

	// Each worker owns a pre-partitioned contiguous range of trial
	// indices; results land in the pre-sized slice at the trial index, so
	// output order is independent of scheduling.
	eg, egCtx := errgroup.WithContext(ctx)
	chunk := (req.Trials + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > req.Trials {
			end = req.Trials
		}
		if start >= end {
			continue
		}
		eg.Go(func() error {
			for idx := start; idx < end; idx++ {
				// Stop signal checked between trials only.
				if egCtx.Err() != nil {
					trials[idx] = montecarlo.Trial{Index: idx, Overrides: samples[idx], Failed: true, Reason: "not run: batch stopped"}
					continue
				}
				trial, err := o.runTrial(egCtx, g, req, idx, samples[idx])
				if err != nil {
					// Non-recoverable (configuration) failure: abort the
					// whole batch.
					return err
				}
				trials[idx] = trial
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	batch := &montecarlo.Batch{
		ID:         core.NewBatchID(),
		Scenario:   req.Scenario,
		PulseYear:  req.PulseYear,
		Seed:       req.Seed,
		Domestic:   req.Domestic,
		Discounts:  req.Discounts,
		ParamNames: sampler.ParamNames(),
		Requested:  req.Trials,
		Trials:     trials,
		Summaries:  make(map[string]montecarlo.Summary, len(req.Discounts)),
	}
	for _, t := range trials {
		if t.Failed {
			if t.Reason != "not run: batch stopped" {
				batch.Dropped++
			}
			continue
		}
		batch.Succeeded++
	}
	for _, spec := range req.Discounts {
		batch.Summaries[spec.Label()] = montecarlo.Summarize(batch.Estimates(spec))
	}

	if req.MaxFailureRate > 0 {
		rate := float64(batch.Dropped) / float64(batch.Requested)
		if rate > req.MaxFailureRate {
			return nil, fmt.Errorf("%w: %d of %d trials dropped (%.1f%% > %.1f%%)",
				core.ErrBatchFailureRate, batch.Dropped, batch.Requested, rate*100, req.MaxFailureRate*100)
		}
	}

	if req.OutputDir != "" && o.exporter != nil {
		if err := o.exporter.WriteTables(req.OutputDir, batch); err != nil {
			return nil, err
		}
	}
	if o.store != nil {
		if err := o.store.SaveBatch(ctx, batch); err != nil {
			// Persistence is best-effort; the in-memory batch is the
			// contract.
			log.Printf("[MonteCarlo] batch %s persistence failed: %v", batch.ID, err)
		}
	}

	log.Printf("[MonteCarlo] batch done: id=%s requested=%d succeeded=%d dropped=%d",
		batch.ID, batch.Requested, batch.Succeeded, batch.Dropped)
	return batch, nil
}

// runTrial evaluates one trial: twin run(s), discontinuity screening, and
// one SCC per discount spec. Off-grid pulse years evaluate both
// bracketing grid years and interpolate, exactly as the deterministic
// path does. Recoverable failures mark the trial dropped; anything else
// is returned as a batch-fatal error.
func (o *MonteCarloOrchestrator) runTrial(ctx context.Context, g grid.TimeGrid, req BatchRequest, idx int, overrides map[string]float64) (montecarlo.Trial, error) {
	trial := montecarlo.Trial{Index: idx, Overrides: overrides}

	pt, err := g.Resolve(req.PulseYear)
	if err != nil {
		return trial, err
	}
	evalYears := []int{req.PulseYear}
	if !pt.Exact {
		evalYears = []int{g.Year(pt.Lower), g.Year(pt.Upper)}
	}

	perYear := make([]map[string]float64, 0, len(evalYears))
	for _, year := range evalYears {
		twin, err := o.service.Twin(ctx, req.Scenario, year, overrides)
		if err != nil {
			return dropOrAbort(trial, err)
		}
		if req.DropDiscontinuities &&
			twin.Base.DiscontinuityCrossed() != twin.Marginal.DiscontinuityCrossed() {
			trial.Failed = true
			trial.Reason = "discontinuity artifact"
			return trial, nil
		}
		values := make(map[string]float64, len(req.Discounts))
		for _, spec := range req.Discounts {
			v, err := o.agg.ComputeSCC(twin, spec, req.Domestic)
			if err != nil {
				return dropOrAbort(trial, err)
			}
			values[spec.Label()] = v
		}
		perYear = append(perYear, values)
	}

	trial.SCC = perYear[0]
	if len(perYear) == 2 {
		interp := make(map[string]float64, len(req.Discounts))
		for _, spec := range req.Discounts {
			label := spec.Label()
			lo, hi := perYear[0][label], perYear[1][label]
			interp[label] = lo + (hi-lo)*pt.Frac
		}
		trial.SCC = interp
	}
	return trial, nil
}

// dropOrAbort classifies a trial failure: engine failures are dropped and
// counted, configuration failures abort the batch.
func dropOrAbort(trial montecarlo.Trial, err error) (montecarlo.Trial, error) {
	if !core.IsRecoverable(err) {
		return trial, err
	}
	trial.Failed = true
	trial.SCC = nil
	trial.Reason = err.Error()
	return trial, nil
}
