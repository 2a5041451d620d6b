package config

import (
	"fleet-planning-service/internal/fam"
	"fleet-planning-service/internal/itinerary"
	"fleet-planning-service/internal/milp"
	"fleet-planning-service/internal/platform/validation"
	"fleet-planning-service/internal/routing"
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// OptimizerConfig holds the tunable parameters of every optimization run.
type OptimizerConfig struct {
	RecaptureRatio       float64 `yaml:"recapture_ratio" validate:"gte=0,lte=1"`
	DemandIncreasePct    float64 `yaml:"demand_increase_pct" validate:"gte=0,lte=100"`
	DemandDecreasePct    float64 `yaml:"demand_decrease_pct" validate:"gte=0,lte=100"`
	MinConnectionMinutes int     `yaml:"min_connection_minutes" validate:"gte=0"`
	MaxConnectionMinutes int     `yaml:"max_connection_minutes" validate:"gtefield=MinConnectionMinutes,lt=1440"`
	DistanceRatio        float64 `yaml:"distance_ratio" validate:"gte=1"`
	TurnaroundMinutes    int     `yaml:"turnaround_minutes" validate:"gte=0"`

	Solver  SolverConfig  `yaml:"solver"`
	Routing RoutingConfig `yaml:"routing"`
}

type SolverConfig struct {
	TimeLimit time.Duration `yaml:"time_limit" validate:"gt=0"`
	MaxNodes  int           `yaml:"max_nodes" validate:"gte=1"`
}

type RoutingConfig struct {
	MaxProduct      int           `yaml:"max_product" validate:"gte=1"`
	MaxCombinations int           `yaml:"max_combinations" validate:"gte=1"`
	MaxRoutes       int           `yaml:"max_routes" validate:"gte=1"`
	Timeout         time.Duration `yaml:"timeout" validate:"gt=0"`
	Workers         int           `yaml:"workers" validate:"gte=0"`
	Hubs            []string      `yaml:"hubs" validate:"dive,required"`
}

func Default() OptimizerConfig {
	return OptimizerConfig{
		RecaptureRatio:       0.9,
		DemandIncreasePct:    15,
		DemandDecreasePct:    5,
		MinConnectionMinutes: 30,
		MaxConnectionMinutes: 240,
		DistanceRatio:        1.5,
		Solver: SolverConfig{
			TimeLimit: 60 * time.Second,
			MaxNodes:  200000,
		},
		Routing: RoutingConfig{
			MaxProduct:      20,
			MaxCombinations: 100000,
			MaxRoutes:       50000,
			Timeout:         30 * time.Second,
			Workers:         runtime.GOMAXPROCS(0),
		},
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
func Load(path string) (OptimizerConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("load optimizer config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("load optimizer config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("load optimizer config %q: %w", path, err)
	}
	return cfg, nil
}

func (c OptimizerConfig) Validate() error {
	return validation.Struct(c)
}

func (c OptimizerConfig) FAMParams() fam.Params {
	return fam.Params{
		TurnaroundMinutes: c.TurnaroundMinutes,
		RecaptureRatio:    c.RecaptureRatio,
		Corrections: itinerary.CorrectionRates{
			IncreasePct: c.DemandIncreasePct,
			DecreasePct: c.DemandDecreasePct,
		},
	}
}

func (c OptimizerConfig) ItineraryOptions() itinerary.Options {
	return itinerary.Options{
		MinConnection: c.MinConnectionMinutes,
		MaxConnection: c.MaxConnectionMinutes,
		DistanceRatio: c.DistanceRatio,
	}
}

func (c OptimizerConfig) SolverOptions() milp.Options {
	return milp.Options{TimeLimit: c.Solver.TimeLimit, MaxNodes: c.Solver.MaxNodes}
}

// RoutingOptions carries the search limits; the caller fills in the
// per-request fields (flights per day, days, aircraft).
func (c OptimizerConfig) RoutingOptions() routing.Options {
	return routing.Options{
		Hubs:              c.Routing.Hubs,
		TurnaroundMinutes: c.TurnaroundMinutes,
		MaxProduct:        c.Routing.MaxProduct,
		MaxCombinations:   c.Routing.MaxCombinations,
		MaxRoutes:         c.Routing.MaxRoutes,
		Workers:           c.Routing.Workers,
		Timeout:           c.Routing.Timeout,
	}
}
