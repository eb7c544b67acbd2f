package config

import (
	"os"
	"strconv"

	"socialcost/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Paths    PathConfig
	Engine   EngineConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// DatabaseConfig holds the optional batch-store connection; an empty URL
// disables persistence.
type DatabaseConfig struct {
	URL string
}

// PathConfig holds file system paths
type PathConfig struct {
	// ScenarioFile optionally overrides the built-in scenario tables
	// with a workbook (.xlsx) or delimited (.csv) file.
	ScenarioFile string
	// OutputDir is the default directory for batch result tables.
	OutputDir string
}

// EngineConfig holds SCC engine settings
type EngineConfig struct {
	// CurrencyYear is the reporting currency year for SCC values.
	CurrencyYear int
	// InflationFactor converts model dollars into the reporting year.
	InflationFactor float64
	// Workers is the default Monte Carlo worker count.
	Workers int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:    envString("SCC_PORT", "8080"),
			GinMode: envString("GIN_MODE", "release"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("SCC_DATABASE_URL"),
		},
		Paths: PathConfig{
			ScenarioFile: os.Getenv("SCC_SCENARIO_FILE"),
			OutputDir:    envString("SCC_OUTPUT_DIR", ""),
		},
	}

	currencyYear, err := envInt("SCC_CURRENCY_YEAR", 2020)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load engine configuration")
	}
	inflation, err := envFloat("SCC_INFLATION_FACTOR", 1.0)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load engine configuration")
	}
	workers, err := envInt("SCC_WORKERS", 1)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load engine configuration")
	}
	if inflation <= 0 {
		return nil, errors.Configuration("SCC_INFLATION_FACTOR must be positive")
	}
	if workers < 1 {
		return nil, errors.Configuration("SCC_WORKERS must be at least 1")
	}
	cfg.Engine = EngineConfig{
		CurrencyYear:    currencyYear,
		InflationFactor: inflation,
		Workers:         workers,
	}
	return cfg, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "%s must be a number, got %q", key, v)
	}
	return f, nil
}
