package fam

import (
	"context"
	"fleet-planning-service/internal/domain"
	"fleet-planning-service/internal/itinerary"
	"fleet-planning-service/internal/milp"
	"fleet-planning-service/internal/platform/obs"
	"fmt"
	"math"
	"sort"
)

const positive = 1e-6

// Solve runs the solver and converts its outcome into a plan or a typed
// failure. A non-optimal outcome never yields a partial plan.
func Solve(ctx context.Context, m *Model, opts milp.Options) (_ *domain.FleetPlan, err error) {
	defer obs.Time(ctx, "fam.Solve."+m.Variant.String())(&err)

	sol, err := m.Problem.Solve(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("solve %s: %w: %w", m.Variant, domain.ErrSolver, err)
	}
	if err := sol.Status.Err(); err != nil {
		return nil, fmt.Errorf("solve %s after %d nodes: %w", m.Variant, sol.Nodes, err)
	}
	return m.Extract(sol), nil
}

// Extract reads the result tables out of an optimal solution.
func (m *Model) Extract(sol *milp.Solution) *domain.FleetPlan {
	plan := &domain.FleetPlan{
		Variant:   m.Variant.String(),
		Objective: sol.Objective,
		DummyID:   m.DummyID,
	}

	for _, f := range m.Flights {
		fleet := domain.Unassigned
		for _, fl := range m.Fleets {
			if sol.Value(m.X[AssignKey{Flight: f.Number, Fleet: fl.Type}]) > 0.5 {
				fleet = fl.Type
				break
			}
		}
		plan.Assignments = append(plan.Assignments, domain.Assignment{FlightNumber: f.Number, Fleet: fleet})
	}

	for _, s := range m.Network.Stations() {
		for _, fl := range m.Fleets {
			v := sol.Value(m.RON[RONKey{Station: s, Fleet: fl.Type}])
			plan.RON = append(plan.RON, domain.RONCount{Station: s, Fleet: fl.Type, Count: int(math.Round(v))})
		}
	}

	for _, it := range m.Itineraries {
		if v := sol.Value(m.Spilled[it.ID]); v > positive {
			plan.Spills = append(plan.Spills, domain.Spill{ItineraryID: it.ID, Passengers: v})
		}
	}

	keys := make([]itinerary.SpillKey, 0, len(m.Flow))
	for k := range m.Flow {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].P != keys[j].P {
			return keys[i].P < keys[j].P
		}
		return keys[i].Q < keys[j].Q
	})
	for _, k := range keys {
		v := sol.Value(m.Flow[k])
		if v <= positive {
			continue
		}
		rec := 0.0
		if k.Q != m.DummyID {
			rec = math.Round(m.Params.RecaptureRatio*v*10) / 10
		}
		plan.Recaptures = append(plan.Recaptures, domain.SpillRecapture{FromID: k.P, ToID: k.Q, Spilled: v, Recaptured: rec})
	}

	for _, it := range m.Itineraries {
		if z, ok := m.Z[it.ID]; ok {
			plan.Decisions = append(plan.Decisions, domain.ItineraryDecision{ItineraryID: it.ID, Operate: sol.Value(z) > 0.5})
		}
	}

	return plan
}
