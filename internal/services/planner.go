package services

import (
	"context"
	"errors"
	"fleet-planning-service/internal/config"
	"fleet-planning-service/internal/domain"
	"fleet-planning-service/internal/fam"
	"fleet-planning-service/internal/ingest"
	"fleet-planning-service/internal/itinerary"
	"fleet-planning-service/internal/platform/metrics"
	"fleet-planning-service/internal/platform/obs"
	"fleet-planning-service/internal/ports"
	"fleet-planning-service/internal/routing"
	"fmt"
	"time"
)

// ProviderFactory builds a distance provider over a run's airports.
type ProviderFactory func(airports []domain.Airport) ports.DistanceProvider

// Planner runs the optimization pipelines against a schedule source.
type Planner struct {
	Config      config.OptimizerConfig
	Repo        ports.ScheduleRepository
	NewProvider ProviderFactory
	Metrics     *metrics.Registry
}

func NewPlanner(cfg config.OptimizerConfig, repo ports.ScheduleRepository, newProvider ProviderFactory, reg *metrics.Registry) *Planner {
	return &Planner{Config: cfg, Repo: repo, NewProvider: newProvider, Metrics: reg}
}

// Schedule is the input of one run. Empty sections are read from the
// repository.
type Schedule struct {
	Flights         []domain.Flight
	Fleets          []domain.Fleet
	Itineraries     []domain.Itinerary
	Airports        []domain.Airport
	OptionalFlights []int
}

func (p *Planner) load(ctx context.Context, s Schedule, needFleets, needItineraries bool) (Schedule, error) {
	var err error
	if len(s.Flights) == 0 {
		if p.Repo == nil {
			return s, fmt.Errorf("load schedule: no flights: %w", domain.ErrInvalidInput)
		}
		if s.Flights, err = p.Repo.ListFlights(ctx); err != nil {
			return s, fmt.Errorf("load schedule: %w", err)
		}
	}
	if needFleets && len(s.Fleets) == 0 && p.Repo != nil {
		if s.Fleets, err = p.Repo.ListFleets(ctx); err != nil {
			return s, fmt.Errorf("load schedule: %w", err)
		}
	}
	if needItineraries && len(s.Itineraries) == 0 && p.Repo != nil {
		if s.Itineraries, err = p.Repo.ListItineraries(ctx); err != nil {
			return s, fmt.Errorf("load schedule: %w", err)
		}
	}

	if len(s.OptionalFlights) > 0 {
		if s.Flights, err = ingest.MarkOptional(s.Flights, s.OptionalFlights); err != nil {
			return s, fmt.Errorf("load schedule: %w", err)
		}
	}
	return s, nil
}

func (p *Planner) airports(ctx context.Context, s Schedule) ([]domain.Airport, error) {
	if len(s.Airports) > 0 || p.Repo == nil {
		return s.Airports, nil
	}
	airports, err := p.Repo.ListAirports(ctx)
	if err != nil {
		return nil, fmt.Errorf("load airports: %w", err)
	}
	return airports, nil
}

// distanceTable builds the station-pair table for the schedule's flights.
func (p *Planner) distanceTable(ctx context.Context, s Schedule) (domain.DistanceTable, error) {
	if p.NewProvider == nil {
		return nil, fmt.Errorf("distance table: no distance provider: %w", domain.ErrInvalidInput)
	}
	airports, err := p.airports(ctx, s)
	if err != nil {
		return nil, err
	}
	return BuildDistanceTable(ctx, domain.Stations(s.Flights), p.NewProvider(airports))
}

// annotate fills missing flight distances. Flights that all carry a
// distance skip the lookup entirely.
func (p *Planner) annotate(ctx context.Context, s Schedule) ([]domain.Flight, error) {
	missing := false
	for _, f := range s.Flights {
		if f.Distance <= 0 {
			missing = true
			break
		}
	}
	table := domain.DistanceTable{}
	if missing {
		var err error
		if table, err = p.distanceTable(ctx, s); err != nil {
			return nil, err
		}
	}
	return domain.Annotate(s.Flights, table)
}

// outcome labels an error for the solve metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return "optimal"
	case errors.Is(err, domain.ErrInfeasible):
		return "infeasible"
	case errors.Is(err, domain.ErrUnbounded):
		return "unbounded"
	case errors.Is(err, domain.ErrBudgetExceeded):
		return "budget_exceeded"
	case errors.Is(err, domain.ErrInsufficientFPD):
		return "insufficient_fpd"
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidItinerary),
		errors.Is(err, domain.ErrDisconnectedStation):
		return "invalid"
	}
	return "error"
}

type PlanFleetRequest struct {
	Variant  fam.Variant
	Schedule Schedule
	Costs    map[fam.AssignKey]float64
	// Params overrides the configured model parameters when set.
	Params *fam.Params
}

// PlanFleet builds and solves one fleet assignment model.
func (p *Planner) PlanFleet(ctx context.Context, req PlanFleetRequest) (_ *domain.FleetPlan, err error) {
	ctx = obs.WithRunID(ctx)
	defer obs.Time(ctx, "services.PlanFleet."+req.Variant.String())(&err)

	start := time.Now()
	defer func() {
		if p.Metrics != nil {
			p.Metrics.RecordSolve(req.Variant.String(), outcome(err), time.Since(start))
		}
	}()

	s, err := p.load(ctx, req.Schedule, true, req.Variant != fam.FAM)
	if err != nil {
		return nil, fmt.Errorf("plan fleet: %w", err)
	}
	flights, err := p.annotate(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("plan fleet: %w", err)
	}

	params := p.Config.FAMParams()
	if req.Params != nil {
		params = *req.Params
	}

	m, err := fam.Build(ctx, req.Variant, fam.Input{
		Flights:     flights,
		Fleets:      s.Fleets,
		Itineraries: s.Itineraries,
		Costs:       req.Costs,
		Params:      params,
	})
	if err != nil {
		return nil, fmt.Errorf("plan fleet: %w", err)
	}
	if p.Metrics != nil {
		p.Metrics.SetModelSize(req.Variant.String(), m.Problem.NumVars(), m.Problem.NumConstraints())
	}

	plan, err := fam.Solve(ctx, m, p.Config.SolverOptions())
	if err != nil {
		return nil, fmt.Errorf("plan fleet: %w", err)
	}
	return plan, nil
}

type BuildItinerariesRequest struct {
	Schedule Schedule
	// Options overrides the configured connection window and circuity cap.
	Options *itinerary.Options
}

// BuildItineraries generates single- and double-stop connections over the
// schedule's flights.
func (p *Planner) BuildItineraries(ctx context.Context, req BuildItinerariesRequest) (_ []domain.BuiltItinerary, err error) {
	ctx = obs.WithRunID(ctx)
	defer obs.Time(ctx, "services.BuildItineraries")(&err)

	s, err := p.load(ctx, req.Schedule, false, false)
	if err != nil {
		return nil, fmt.Errorf("build itineraries: %w", err)
	}
	table, err := p.distanceTable(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("build itineraries: %w", err)
	}

	opts := p.Config.ItineraryOptions()
	if req.Options != nil {
		opts = *req.Options
	}
	return itinerary.Build(ctx, s.Flights, table, opts)
}

type PlanRotationsRequest struct {
	Flights       []domain.Flight
	FlightsPerDay int
	Days          int
	Aircraft      int
	// Hubs and Turnaround fall back to the configured values when unset.
	Hubs       []string
	Turnaround *int
}

// PlanRotations runs the multi-day routing search for one fleet's flights.
func (p *Planner) PlanRotations(ctx context.Context, req PlanRotationsRequest) (_ *domain.RoutingPlan, err error) {
	ctx = obs.WithRunID(ctx)
	defer obs.Time(ctx, "services.PlanRotations")(&err)

	start := time.Now()
	defer func() {
		if p.Metrics != nil {
			p.Metrics.RecordSolve("routing", outcome(err), time.Since(start))
		}
	}()

	s, err := p.load(ctx, Schedule{Flights: req.Flights}, false, false)
	if err != nil {
		return nil, fmt.Errorf("plan rotations: %w", err)
	}

	opts := p.Config.RoutingOptions()
	opts.FlightsPerDay = req.FlightsPerDay
	opts.Days = req.Days
	opts.Aircraft = req.Aircraft
	if len(req.Hubs) > 0 {
		opts.Hubs = req.Hubs
	}
	if req.Turnaround != nil {
		opts.TurnaroundMinutes = *req.Turnaround
	}

	plan, res, err := routing.Plan(ctx, s.Flights, opts, p.Config.SolverOptions())
	if res != nil && p.Metrics != nil {
		p.Metrics.RecordRouting(res.Combinations, res.Rejected, len(res.Routes))
	}
	if err != nil {
		return nil, fmt.Errorf("plan rotations: %w", err)
	}
	return plan, nil
}
