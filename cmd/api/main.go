package main

import (
	"log"

	"socialcost/adapters/dice"
	"socialcost/adapters/excel"
	"socialcost/adapters/export"
	"socialcost/adapters/postgres"
	"socialcost/app"
	"socialcost/internal/api"
	"socialcost/internal/config"
	"socialcost/internal/rng"
	"socialcost/ports"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	builder, err := dice.NewBuilder()
	if err != nil {
		log.Fatalf("Failed to build model: %v", err)
	}
	if cfg.Paths.ScenarioFile != "" {
		tables, err := excel.NewScenarioReader(cfg.Paths.ScenarioFile).ReadTables()
		if err != nil {
			log.Fatalf("Failed to read scenario file: %v", err)
		}
		if _, err := builder.WithScenarioTables(tables); err != nil {
			log.Fatalf("Invalid scenario tables: %v", err)
		}
	}

	var store ports.BatchStore
	if cfg.Database.URL != "" {
		store, err = postgres.Open(cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect batch store: %v", err)
		}
	}

	aggregator := app.DamageAggregator{
		InflationFactor: cfg.Engine.InflationFactor,
		CurrencyYear:    cfg.Engine.CurrencyYear,
	}
	service := app.NewSCCService(builder, aggregator)
	orchestrator := app.NewMonteCarloOrchestrator(
		service, aggregator, rng.NewDeterministic(), store, export.NewCSVWriter())

	server := api.NewServer(cfg, service, orchestrator)
	if err := server.Run(); err != nil {
		log.Fatalf("Server exited: %v", err)
	}
}
