package routing

import (
	"context"
	"fleet-planning-service/internal/domain"
	"fleet-planning-service/internal/milp"
	"fleet-planning-service/internal/platform/obs"
	"fmt"
	"sort"
)

type dayFlight struct {
	Day    int
	Flight int
}

// AssignmentModel picks routes for the available aircraft: maximize hub
// touches, cover every (day, flight) that any route flies exactly once,
// and fly at most aircraft routes.
type AssignmentModel struct {
	Problem *milp.Model
	Routes  []Route
	X       []milp.Var
}

func BuildAssignment(routes []Route, aircraft int) *AssignmentModel {
	p := milp.NewModel("routing")
	am := &AssignmentModel{Problem: p, Routes: routes, X: make([]milp.Var, len(routes))}

	cover := make(map[dayFlight][]milp.Var)
	var obj, fleet milp.Expr
	for r, route := range routes {
		x := p.AddVar(fmt.Sprintf("x[%d]", r+1), milp.Binary, 0, 1)
		am.X[r] = x
		obj.Add(x, float64(route.HubTouches))
		fleet.Add(x, 1)
		for d, day := range route.Days {
			for _, f := range day {
				k := dayFlight{Day: d, Flight: f.Number}
				cover[k] = append(cover[k], x)
			}
		}
	}
	p.SetObjective(milp.Maximize, obj)

	keys := make([]dayFlight, 0, len(cover))
	for k := range cover {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Day != keys[j].Day {
			return keys[i].Day < keys[j].Day
		}
		return keys[i].Flight < keys[j].Flight
	})
	for _, k := range keys {
		p.AddConstraint(fmt.Sprintf("cover[%d,%d]", k.Day+1, k.Flight), milp.Sum(cover[k]...), milp.EQ, 1)
	}
	p.AddConstraint("aircraft", fleet, milp.LE, float64(aircraft))
	return am
}

// Solve returns the chosen routes as numbered rotations.
func (am *AssignmentModel) Solve(ctx context.Context, opts milp.Options) (_ []domain.Rotation, objective float64, err error) {
	defer obs.Time(ctx, "routing.Assign")(&err)

	sol, err := am.Problem.Solve(ctx, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("assign routes: %w: %w", domain.ErrSolver, err)
	}
	if err := sol.Status.Err(); err != nil {
		return nil, 0, fmt.Errorf("assign routes after %d nodes: %w", sol.Nodes, err)
	}

	var out []domain.Rotation
	for r, x := range am.X {
		if sol.Value(x) < 0.5 {
			continue
		}
		route := am.Routes[r]
		rot := domain.Rotation{Aircraft: len(out) + 1, Route: r + 1, HubTouches: route.HubTouches}
		for d, day := range route.Days {
			rot.Days = append(rot.Days, domain.RotationDay{Day: d + 1, Flights: day})
		}
		out = append(out, rot)
	}
	return out, sol.Objective, nil
}
