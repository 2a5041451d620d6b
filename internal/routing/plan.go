package routing

import (
	"context"
	"errors"
	"fleet-planning-service/internal/domain"
	"fleet-planning-service/internal/milp"
	"fmt"
)

// Plan runs the combination search and the route assignment.
//
// No candidate route at all is reported as *domain.InsufficientFPDError,
// not as a solver failure. An infeasible assignment comes back as
// *InfeasibleError with delay suggestions.
func Plan(ctx context.Context, flights []domain.Flight, opts Options, solver milp.Options) (*domain.RoutingPlan, *SearchResult, error) {
	res, err := Search(ctx, flights, opts)
	if err != nil {
		return nil, nil, err
	}
	if len(res.Routes) == 0 {
		return nil, res, &domain.InsufficientFPDError{
			FlightsPerDay: opts.FlightsPerDay,
			Days:          opts.Days,
			Hubs:          opts.Hubs,
		}
	}

	rotations, obj, err := BuildAssignment(res.Routes, opts.Aircraft).Solve(ctx, solver)
	if errors.Is(err, domain.ErrInfeasible) {
		return nil, res, fmt.Errorf("routing plan: %w", &InfeasibleError{
			Suggestions: SuggestDelays(flights, opts.TurnaroundMinutes),
		})
	}
	if err != nil {
		return nil, res, fmt.Errorf("routing plan: %w", err)
	}

	return &domain.RoutingPlan{
		FlightsPerDay:    opts.FlightsPerDay,
		MaxFlightsPerDay: MaxFlightsPerDay(flights, opts.TurnaroundMinutes),
		Days:             opts.Days,
		Candidates:       len(res.Routes),
		Objective:        obj,
		Rotations:        rotations,
	}, res, nil
}
