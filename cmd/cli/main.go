package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"socialcost/adapters/dice"
	"socialcost/adapters/excel"
	"socialcost/adapters/export"
	"socialcost/app"
	"socialcost/domain/montecarlo"
	"socialcost/domain/scc"
	"socialcost/internal/config"
	"socialcost/internal/rng"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "socialcost",
		Short: "Social cost of carbon computation engine",
	}

	rootCmd.AddCommand(
		newSCCCmd(),
		newMonteCarloCmd(),
		newDamagesCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildService wires the engine from configuration.
func buildService() (*app.SCCService, app.DamageAggregator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, app.DamageAggregator{}, err
	}
	builder, err := dice.NewBuilder()
	if err != nil {
		return nil, app.DamageAggregator{}, err
	}
	if cfg.Paths.ScenarioFile != "" {
		tables, err := excel.NewScenarioReader(cfg.Paths.ScenarioFile).ReadTables()
		if err != nil {
			return nil, app.DamageAggregator{}, err
		}
		if _, err := builder.WithScenarioTables(tables); err != nil {
			return nil, app.DamageAggregator{}, err
		}
	}
	aggregator := app.DamageAggregator{
		InflationFactor: cfg.Engine.InflationFactor,
		CurrencyYear:    cfg.Engine.CurrencyYear,
	}
	return app.NewSCCService(builder, aggregator), aggregator, nil
}

func newSCCCmd() *cobra.Command {
	var (
		year     int
		rate     float64
		prtp     float64
		eta      float64
		ramsey   bool
		domestic bool
	)

	cmd := &cobra.Command{
		Use:   "scc [scenario]",
		Short: "Compute a deterministic SCC estimate",
		Long: `Compute the social cost of carbon for one scenario and pulse year.

Example: socialcost scc IMAGE --year 2020 --rate 0.03`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, err := scc.ParseScenario(args[0])
			if err != nil {
				return err
			}
			service, _, err := buildService()
			if err != nil {
				return err
			}
			spec := scc.FlatDiscount(rate)
			if ramsey {
				spec = scc.RamseyDiscount(prtp, eta)
			}
			result, err := service.Compute(context.Background(), scenario, year, spec, domestic)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}

	cmd.Flags().IntVar(&year, "year", 2020, "pulse year")
	cmd.Flags().Float64Var(&rate, "rate", 0.03, "flat annual discount rate")
	cmd.Flags().BoolVar(&ramsey, "ramsey", false, "use Ramsey discounting")
	cmd.Flags().Float64Var(&prtp, "prtp", 0.015, "pure rate of time preference (Ramsey)")
	cmd.Flags().Float64Var(&eta, "eta", 1.45, "elasticity of marginal utility (Ramsey)")
	cmd.Flags().BoolVar(&domestic, "domestic", false, "restrict damages to the home region")
	return cmd
}

func newDamagesCmd() *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "damages [scenario]",
		Short: "Print the marginal damage series for a pulse year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, err := scc.ParseScenario(args[0])
			if err != nil {
				return err
			}
			service, _, err := buildService()
			if err != nil {
				return err
			}
			series, err := service.MarginalDamages(context.Background(), scenario, year)
			if err != nil {
				return err
			}
			return printJSON(series)
		},
	}

	cmd.Flags().IntVar(&year, "year", 2020, "pulse year (must be a grid year)")
	return cmd
}

func newMonteCarloCmd() *cobra.Command {
	var (
		year         int
		trials       int
		rates        []float64
		seed         int64
		workers      int
		domestic     bool
		dropDiscont  bool
		outputDir    string
		distribution string
	)

	cmd := &cobra.Command{
		Use:   "montecarlo [scenario]",
		Short: "Run a Monte Carlo SCC batch",
		Long: `Run randomized SCC trials over uncertain parameters and report
summary statistics per discount rate.

Example: socialcost montecarlo IMAGE --year 2020 --trials 100 --rates 0.025,0.03,0.05 --seed 42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, err := scc.ParseScenario(args[0])
			if err != nil {
				return err
			}
			service, aggregator, err := buildService()
			if err != nil {
				return err
			}

			distributions := defaultDistributions()
			if distribution != "" {
				data, err := os.ReadFile(distribution)
				if err != nil {
					return err
				}
				distributions = nil
				if err := json.Unmarshal(data, &distributions); err != nil {
					return fmt.Errorf("parsing %s: %w", distribution, err)
				}
			}

			discounts := make([]scc.DiscountSpec, len(rates))
			for i, r := range rates {
				discounts[i] = scc.FlatDiscount(r)
			}

			orchestrator := app.NewMonteCarloOrchestrator(
				service, aggregator, rng.NewDeterministic(), nil, export.NewCSVWriter())
			batch, err := orchestrator.RunBatch(context.Background(), app.BatchRequest{
				Scenario:            scenario,
				PulseYear:           year,
				Trials:              trials,
				Distributions:       distributions,
				Discounts:           discounts,
				Domestic:            domestic,
				DropDiscontinuities: dropDiscont,
				Seed:                seed,
				Workers:             workers,
				OutputDir:           outputDir,
			})
			if err != nil {
				return err
			}
			return printJSON(batch)
		},
	}

	cmd.Flags().IntVar(&year, "year", 2020, "pulse year")
	cmd.Flags().IntVar(&trials, "trials", 100, "number of trials")
	cmd.Flags().Float64SliceVar(&rates, "rates", []float64{0.025, 0.03, 0.05}, "flat discount rates")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().IntVar(&workers, "workers", 1, "parallel trial workers")
	cmd.Flags().BoolVar(&domestic, "domestic", false, "restrict damages to the home region")
	cmd.Flags().BoolVar(&dropDiscont, "drop-discontinuities", false, "drop trials where the pulse flips the damage discontinuity")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "write delimited result tables here")
	cmd.Flags().StringVar(&distribution, "distributions", "", "JSON file of distribution specs (default: built-in climate uncertainty)")
	return cmd
}

// defaultDistributions is the built-in uncertainty description: triangular
// climate sensitivity and uniform damage coefficient.
func defaultDistributions() []montecarlo.DistributionSpec {
	return []montecarlo.DistributionSpec{
		{Kind: montecarlo.DistTriangular, Param: "climate_sensitivity", Min: 1.5, Max: 6.0, Mode: 3.0},
		{Kind: montecarlo.DistUniform, Param: "damage_coeff", Min: 0.0015, Max: 0.0040},
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
