package fam

import (
	"context"
	"errors"
	"fleet-planning-service/internal/adapters/repositories"
	"fleet-planning-service/internal/domain"
	"fleet-planning-service/internal/itinerary"
	"fleet-planning-service/internal/milp"
	"math"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func roundTrip(optional bool) []domain.Flight {
	return []domain.Flight{
		{Number: 1, Origin: "A", Destination: "B", Departure: 480, Arrival: 600, Distance: 500, Optional: optional},
		{Number: 2, Origin: "B", Destination: "A", Departure: 660, Arrival: 780, Distance: 500, Optional: optional},
	}
}

func ron(plan *domain.FleetPlan, station, fleet string) int {
	for _, r := range plan.RON {
		if r.Station == station && r.Fleet == fleet {
			return r.Count
		}
	}
	return -1
}

func near(a, b float64) bool { return math.Abs(a-b) <= 1e-6 }

func checkSpills(t *testing.T, want map[int]float64, got []domain.Spill) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("spills = %+v, want %v", got, want)
	}
	for _, s := range got {
		if !near(want[s.ItineraryID], s.Passengers) {
			t.Fatalf("itinerary %d spills %v, want %v", s.ItineraryID, s.Passengers, want[s.ItineraryID])
		}
	}
}

func build(t *testing.T, variant Variant, in Input) *Model {
	t.Helper()
	m, err := Build(context.Background(), variant, in)
	if err != nil {
		t.Fatalf("Build(%s) error: %v", variant, err)
	}
	return m
}

func solve(t *testing.T, variant Variant, in Input) (*Model, *domain.FleetPlan, error) {
	t.Helper()
	m := build(t, variant, in)
	plan, err := Solve(context.Background(), m, milp.Options{})
	return m, plan, err
}

func mustPlan(t *testing.T, variant Variant, in Input) (*Model, *domain.FleetPlan) {
	t.Helper()
	m, plan, err := solve(t, variant, in)
	if err != nil {
		t.Fatalf("Solve(%s) error: %v", variant, err)
	}
	return m, plan
}

func TestFAMShortTurnNeedsNoOvernightAtOutstation(t *testing.T) {
	params := DefaultParams()
	params.TurnaroundMinutes = 30
	_, plan := mustPlan(t, FAM, Input{
		Flights: roundTrip(false),
		Fleets:  []domain.Fleet{{Type: "E1", CostPerMile: 2, Seats: 150, Count: 1}},
		Params:  params,
	})

	want := []domain.Assignment{{FlightNumber: 1, Fleet: "E1"}, {FlightNumber: 2, Fleet: "E1"}}
	if !reflect.DeepEqual(plan.Assignments, want) {
		t.Fatalf("Assignments = %+v, want %+v", plan.Assignments, want)
	}
	if !near(plan.Objective, 2000) {
		t.Fatalf("Objective = %v, want 2000", plan.Objective)
	}
	if a, b := ron(plan, "A", "E1"), ron(plan, "B", "E1"); a != 1 || b != 0 {
		t.Fatalf("RON A = %d, B = %d, want 1 and 0", a, b)
	}
}

func TestFAMLongTurnForcesOvernightAtBothStations(t *testing.T) {
	params := DefaultParams()
	params.TurnaroundMinutes = 600
	_, plan := mustPlan(t, FAM, Input{
		Flights: roundTrip(false),
		Fleets:  []domain.Fleet{{Type: "E1", CostPerMile: 2, Seats: 150, Count: 2}},
		Params:  params,
	})
	if a, b := ron(plan, "A", "E1"), ron(plan, "B", "E1"); a != 1 || b != 1 {
		t.Fatalf("RON A = %d, B = %d, want 1 and 1", a, b)
	}

	_, _, err := solve(t, FAM, Input{
		Flights: roundTrip(false),
		Fleets:  []domain.Fleet{{Type: "E1", CostPerMile: 2, Seats: 150, Count: 1}},
		Params:  params,
	})
	if !errors.Is(err, domain.ErrInfeasible) {
		t.Fatalf("error = %v, want ErrInfeasible with one aircraft", err)
	}
}

func TestFAMPicksCheaperFleet(t *testing.T) {
	_, plan := mustPlan(t, FAM, Input{
		Flights: roundTrip(false),
		Fleets: []domain.Fleet{
			{Type: "E1", CostPerMile: 2, Seats: 150, Count: 1},
			{Type: "E2", CostPerMile: 1, Seats: 100, Count: 1},
		},
		Params: DefaultParams(),
	})
	if got, want := plan.ByFleet(), map[string][]int{"E2": {1, 2}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("ByFleet = %v, want %v", got, want)
	}
	if !near(plan.Objective, 1000) {
		t.Fatalf("Objective = %v, want 1000", plan.Objective)
	}
}

func TestFAMObjectiveGrowsWithCostPerMile(t *testing.T) {
	prev := -1.0
	for _, cpm := range []float64{0, 1, 3} {
		_, plan := mustPlan(t, FAM, Input{
			Flights: roundTrip(false),
			Fleets:  []domain.Fleet{{Type: "E1", CostPerMile: cpm, Seats: 100, Count: 1}},
			Params:  DefaultParams(),
		})
		if plan.Objective < 0 || plan.Objective <= prev {
			t.Fatalf("cost per mile %v: Objective = %v after %v", cpm, plan.Objective, prev)
		}
		prev = plan.Objective
	}
}

func TestFAMDropsOptionalFlightsWhenOnlyCostCounts(t *testing.T) {
	_, plan := mustPlan(t, FAM, Input{
		Flights: roundTrip(true),
		Fleets:  []domain.Fleet{{Type: "E1", CostPerMile: 1, Seats: 100, Count: 1}},
		Params:  DefaultParams(),
	})
	for _, a := range plan.Assignments {
		if a.Fleet != domain.Unassigned {
			t.Fatalf("flight %d assigned to %s, want unassigned", a.FlightNumber, a.Fleet)
		}
	}
	if !near(plan.Objective, 0) {
		t.Fatalf("Objective = %v, want 0", plan.Objective)
	}
}

func TestFAMCostOverride(t *testing.T) {
	_, plan := mustPlan(t, FAM, Input{
		Flights: roundTrip(false),
		Fleets: []domain.Fleet{
			{Type: "E1", CostPerMile: 2, Seats: 150, Count: 1},
			{Type: "E2", CostPerMile: 1, Seats: 100, Count: 1},
		},
		Costs: map[AssignKey]float64{
			{Flight: 1, Fleet: "E1"}: 10, {Flight: 2, Fleet: "E1"}: 10,
		},
		Params: DefaultParams(),
	})
	if got, want := plan.ByFleet(), map[string][]int{"E1": {1, 2}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("ByFleet = %v, want %v", got, want)
	}
	if !near(plan.Objective, 20) {
		t.Fatalf("Objective = %v, want 20", plan.Objective)
	}
}

func TestIFAMSpillsExcessDemandToDummy(t *testing.T) {
	_, plan := mustPlan(t, IFAM, Input{
		Flights: roundTrip(false),
		Fleets:  []domain.Fleet{{Type: "E1", CostPerMile: 1, Seats: 100, Count: 1}},
		Itineraries: []domain.Itinerary{
			{ID: 1, Legs: []int{1}, Demand: 120, Fare: 200, Type: domain.NonStop},
			{ID: 2, Legs: []int{2}, Demand: 50, Fare: 150, Type: domain.NonStop},
		},
		Params: DefaultParams(),
	})
	if !near(plan.Objective, 5000) {
		t.Fatalf("Objective = %v, want 5000", plan.Objective)
	}
	if plan.DummyID != 3 {
		t.Fatalf("DummyID = %d, want 3", plan.DummyID)
	}
	checkSpills(t, map[int]float64{1: 20}, plan.Spills)
	want := []domain.SpillRecapture{{FromID: 1, ToID: 3, Spilled: 20, Recaptured: 0}}
	if !reflect.DeepEqual(plan.Recaptures, want) {
		t.Fatalf("Recaptures = %+v, want %+v", plan.Recaptures, want)
	}
}

func TestIFAMRecapturesOntoSameMarketAlternative(t *testing.T) {
	flights := []domain.Flight{
		{Number: 1, Origin: "A", Destination: "B", Departure: 480, Arrival: 600, Distance: 500},
		{Number: 2, Origin: "B", Destination: "A", Departure: 660, Arrival: 780, Distance: 500},
		{Number: 3, Origin: "A", Destination: "B", Departure: 720, Arrival: 840, Distance: 500},
		{Number: 4, Origin: "B", Destination: "A", Departure: 900, Arrival: 1020, Distance: 500},
	}
	params := DefaultParams()
	params.TurnaroundMinutes = 30

	_, plan := mustPlan(t, IFAM, Input{
		Flights: flights,
		Fleets:  []domain.Fleet{{Type: "E1", CostPerMile: 1, Seats: 100, Count: 2}},
		Itineraries: []domain.Itinerary{
			{ID: 1, Legs: []int{1}, Demand: 120, Fare: 200, Type: domain.NonStop},
			{ID: 2, Legs: []int{3}, Demand: 50, Fare: 180, Type: domain.NonStop},
		},
		Params: params,
	})
	if !near(plan.Objective, 2760) {
		t.Fatalf("Objective = %v, want 2760", plan.Objective)
	}
	want := []domain.SpillRecapture{{FromID: 1, ToID: 2, Spilled: 20, Recaptured: 18}}
	if !reflect.DeepEqual(plan.Recaptures, want) {
		t.Fatalf("Recaptures = %+v, want %+v", plan.Recaptures, want)
	}
}

func isdInput() Input {
	return Input{
		Flights: roundTrip(true),
		Fleets:  []domain.Fleet{{Type: "E1", CostPerMile: 1, Seats: 100, Count: 1}},
		Itineraries: []domain.Itinerary{
			{ID: 1, Legs: []int{1}, Demand: 80, Fare: 200, Type: domain.NonStop},
			{ID: 2, Legs: []int{2}, Demand: 60, Fare: 150, Type: domain.NonStop},
		},
		Params: DefaultParams(),
	}
}

func TestISDIFAMOperatesProfitableItineraries(t *testing.T) {
	m, plan := mustPlan(t, ISDIFAM, isdInput())

	wantCorr := map[itinerary.CorrectionKey]int{
		{Cancelled: 1, Alternative: 2}: -4,
		{Cancelled: 2, Alternative: 1}: -3,
	}
	if !reflect.DeepEqual(m.Corrections, wantCorr) {
		t.Fatalf("Corrections = %v, want %v", m.Corrections, wantCorr)
	}
	if !near(plan.Objective, 24000) {
		t.Fatalf("Objective = %v, want 24000", plan.Objective)
	}
	wantDec := []domain.ItineraryDecision{{ItineraryID: 1, Operate: true}, {ItineraryID: 2, Operate: true}}
	if !reflect.DeepEqual(plan.Decisions, wantDec) {
		t.Fatalf("Decisions = %+v, want %+v", plan.Decisions, wantDec)
	}
	if len(plan.Spills) != 0 {
		t.Fatalf("Spills = %+v, want none", plan.Spills)
	}
}

func TestISDIFAMCorrectionWeighting(t *testing.T) {
	m := build(t, ISDIFAM, isdInput())

	// demand[1]: t[1,3] - 3*z[2] <= 80 - 3, so the correction vanishes at z[2] = 1.
	row, ok := m.Problem.ConstraintByName("demand[1]")
	if !ok {
		t.Fatal("demand[1] row missing")
	}
	if row.Coef(m.Z[2]) != -3 || row.RHS != 77 {
		t.Fatalf("demand[1]: z[2] coef %v, rhs %v, want -3 and 77", row.Coef(m.Z[2]), row.RHS)
	}

	// Retained: both z pinned to 1 reproduces the uncorrected economics.
	for _, z := range m.Z {
		m.Problem.SetBounds(z, 1, 1)
	}
	plan, err := Solve(context.Background(), m, milp.Options{})
	if err != nil {
		t.Fatalf("Solve(retained) error: %v", err)
	}
	if !near(plan.Objective, 24000) {
		t.Fatalf("retained Objective = %v, want 24000", plan.Objective)
	}

	// Cancelled: corrections engage and shrink the demand that must spill.
	for _, z := range m.Z {
		m.Problem.SetBounds(z, 0, 0)
	}
	plan, err = Solve(context.Background(), m, milp.Options{})
	if err != nil {
		t.Fatalf("Solve(cancelled) error: %v", err)
	}
	if !near(plan.Objective, -25000) {
		t.Fatalf("cancelled Objective = %v, want -25000", plan.Objective)
	}
	checkSpills(t, map[int]float64{1: 77, 2: 56}, plan.Spills)
	for _, a := range plan.Assignments {
		if a.Fleet != domain.Unassigned {
			t.Fatalf("flight %d assigned to %s, want unassigned", a.FlightNumber, a.Fleet)
		}
	}
}

func seedInput(t *testing.T, turnaround int) Input {
	t.Helper()
	s, err := repositories.LoadSeedJSON(filepath.Join("..", "..", "data", "seeds", "schedule.json"))
	if err != nil {
		t.Fatalf("LoadSeedJSON() error: %v", err)
	}
	flights, err := domain.Annotate(s.Flights, domain.NewDistanceTable(s.Airports))
	if err != nil {
		t.Fatalf("Annotate() error: %v", err)
	}
	params := DefaultParams()
	params.TurnaroundMinutes = turnaround
	return Input{Flights: flights, Fleets: s.Fleets, Itineraries: s.Itineraries, Params: params}
}

// The shipped schedule mixes binary assignments with unbounded integer
// passenger flows; every variant must prove optimality well inside the
// default budget.
func TestShippedSeedSolvesToOptimality(t *testing.T) {
	const revenue = 267210 // sum of demand * fare over the seed itineraries

	for _, turnaround := range []int{0, 40} {
		objective := make(map[Variant]float64)
		for _, variant := range []Variant{FAM, IFAM, ISDIFAM} {
			m := build(t, variant, seedInput(t, turnaround))
			sol, err := m.Problem.Solve(context.Background(), milp.Options{TimeLimit: 30 * time.Second})
			if err != nil {
				t.Fatalf("turnaround %d, %s: Solve() error: %v", turnaround, variant, err)
			}
			if sol.Status != milp.StatusOptimal {
				t.Fatalf("turnaround %d, %s: Status = %v after %d nodes, want optimal", turnaround, variant, sol.Status, sol.Nodes)
			}
			if sol.Nodes > 1000 {
				t.Fatalf("turnaround %d, %s: %d nodes, want a short search", turnaround, variant, sol.Nodes)
			}

			plan := m.Extract(sol)
			for _, a := range plan.Assignments {
				if a.Fleet == domain.Unassigned && variant == IFAM {
					t.Fatalf("turnaround %d, ifam: flight %d left unassigned", turnaround, a.FlightNumber)
				}
			}
			objective[variant] = plan.Objective
		}

		if got := objective[FAM]; math.Abs(got-27914.87) > 0.01 {
			t.Fatalf("turnaround %d: fam objective = %.2f, want 27914.87", turnaround, got)
		}
		if got := objective[IFAM]; math.Abs(got-36189.21) > 0.01 {
			t.Fatalf("turnaround %d: ifam objective = %.2f, want 36189.21", turnaround, got)
		}
		// Keeping every itinerary, ISD-IFAM profit is revenue less the IFAM cost.
		if got := objective[ISDIFAM] + objective[IFAM]; math.Abs(got-revenue) > 0.01 {
			t.Fatalf("turnaround %d: isd-ifam %.2f + ifam %.2f = %.2f, want %d", turnaround,
				objective[ISDIFAM], objective[IFAM], got, revenue)
		}
	}
}

func TestBuildTopologyErrors(t *testing.T) {
	flights := append(roundTrip(false), domain.Flight{Number: 3, Origin: "A", Destination: "C", Distance: 100})
	_, err := Build(context.Background(), FAM, Input{
		Flights: flights,
		Fleets:  []domain.Fleet{{Type: "E1", CostPerMile: 1, Seats: 100, Count: 1}},
		Params:  DefaultParams(),
	})
	if !errors.Is(err, domain.ErrDisconnectedStation) {
		t.Fatalf("error = %v, want ErrDisconnectedStation", err)
	}

	_, err = Build(context.Background(), IFAM, Input{
		Flights:     roundTrip(false),
		Fleets:      []domain.Fleet{{Type: "E1", CostPerMile: 1, Seats: 100, Count: 1}},
		Itineraries: []domain.Itinerary{{ID: 1, Legs: []int{99}, Demand: 10, Fare: 10, Type: domain.NonStop}},
		Params:      DefaultParams(),
	})
	if !errors.Is(err, domain.ErrInvalidItinerary) {
		t.Fatalf("error = %v, want ErrInvalidItinerary", err)
	}

	_, err = Build(context.Background(), IFAM, Input{
		Flights: roundTrip(false),
		Fleets:  []domain.Fleet{{Type: "E1", CostPerMile: 1, Seats: 100, Count: 1}},
		Params:  DefaultParams(),
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput without itineraries", err)
	}
}

func TestSolveBudgetExceeded(t *testing.T) {
	m := build(t, FAM, Input{
		Flights: roundTrip(false),
		Fleets:  []domain.Fleet{{Type: "E1", CostPerMile: 1, Seats: 100, Count: 1}},
		Params:  DefaultParams(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Solve(ctx, m, milp.Options{}); !errors.Is(err, domain.ErrBudgetExceeded) {
		t.Fatalf("error = %v, want ErrBudgetExceeded", err)
	}
}

func TestParseVariant(t *testing.T) {
	for in, want := range map[string]Variant{"fam": FAM, "IFAM": IFAM, "isd-ifam": ISDIFAM, "isd_ifam": ISDIFAM} {
		got, err := ParseVariant(in)
		if err != nil || got != want {
			t.Fatalf("ParseVariant(%q) = %v, %v, want %v", in, got, err, want)
		}
	}
	if _, err := ParseVariant("lp"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("ParseVariant(lp) error = %v, want ErrInvalidInput", err)
	}
}
