package fam

import (
	"context"
	"fleet-planning-service/internal/domain"
	"fleet-planning-service/internal/itinerary"
	"fleet-planning-service/internal/milp"
	"fleet-planning-service/internal/network"
	"fleet-planning-service/internal/platform/obs"
	"fmt"
	"math"
	"sort"
)

// Build assembles the formulation for variant.
//
// FAM minimizes operating cost under coverage, fleet count and flow
// balance. IFAM adds spill and recapture flows and minimizes operating
// cost plus spill cost less recaptured revenue, with every flight covered.
// ISD-IFAM maximizes profit and may cancel optional itineraries, shifting
// demand onto the remaining ones.
func Build(ctx context.Context, variant Variant, in Input) (_ *Model, err error) {
	defer obs.Time(ctx, "fam.Build."+variant.String())(&err)

	if len(in.Flights) == 0 {
		return nil, fmt.Errorf("build %s: no flights: %w", variant, domain.ErrInvalidInput)
	}
	if len(in.Fleets) == 0 {
		return nil, fmt.Errorf("build %s: no fleets: %w", variant, domain.ErrInvalidInput)
	}
	if r := in.Params.RecaptureRatio; r < 0 || r > 1 {
		return nil, fmt.Errorf("build %s: recapture ratio %.3f outside [0, 1]: %w", variant, r, domain.ErrInvalidInput)
	}
	seenFleet := make(map[string]struct{}, len(in.Fleets))
	for _, e := range in.Fleets {
		if _, ok := seenFleet[e.Type]; ok || e.Type == "" {
			return nil, fmt.Errorf("build %s: fleet %q is empty or duplicated: %w", variant, e.Type, domain.ErrInvalidInput)
		}
		seenFleet[e.Type] = struct{}{}
	}

	idx, err := domain.NewFlightIndex(in.Flights)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", variant, err)
	}
	if err := domain.CheckStations(in.Flights); err != nil {
		return nil, fmt.Errorf("build %s: %w", variant, err)
	}

	flights := append([]domain.Flight(nil), in.Flights...)
	sort.Slice(flights, func(i, j int) bool { return flights[i].Number < flights[j].Number })

	m := &Model{
		Variant: variant,
		Problem: milp.NewModel(variant.String()),
		Network: network.Build(flights, in.Params.TurnaroundMinutes),
		Flights: flights,
		Fleets:  in.Fleets,
		Params:  in.Params,
		X:       make(map[AssignKey]milp.Var),
		RON:     make(map[RONKey]milp.Var),
		Y:       make(map[network.ArcKey]milp.Var),
		Spilled: make(map[int]milp.Var),
		Flow:    make(map[itinerary.SpillKey]milp.Var),
		Z:       make(map[int]milp.Var),
	}

	if variant.usesItineraries() {
		if len(in.Itineraries) == 0 {
			return nil, fmt.Errorf("build %s: no itineraries: %w", variant, domain.ErrInvalidInput)
		}
		its, err := domain.ResolveItineraries(in.Itineraries, idx)
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", variant, err)
		}
		sort.Slice(its, func(i, j int) bool { return its[i].ID < its[j].ID })
		m.Itineraries = its
		m.Targets = itinerary.SpillTargets(its)
		m.DummyID = itinerary.DummyID(its)
		if variant == ISDIFAM {
			m.Corrections = itinerary.DemandCorrections(its, idx, in.Params.Corrections)
		}
	}

	m.addFleetVariables()
	cost := m.operatingCost(in.Costs)

	switch variant {
	case FAM:
		m.Problem.SetObjective(milp.Minimize, cost)
	case IFAM:
		m.addPassengerVariables()
		obj := cost
		obj.AddExpr(m.spillCost(), 1)
		obj.AddExpr(m.recapturedRevenue(), -1)
		m.Problem.SetObjective(milp.Minimize, obj)
	case ISDIFAM:
		m.addPassengerVariables()
		m.addCancelVariables()
		var obj milp.Expr
		obj.AddExpr(cost, -1)
		obj.AddExpr(m.spillCost(), -1)
		obj.AddConstant(m.unconstrainedRevenue())
		obj.AddExpr(m.recapturedRevenue(), 1)
		obj.AddExpr(m.cancellationLoss(), -1)
		m.Problem.SetObjective(milp.Maximize, obj)
	default:
		return nil, fmt.Errorf("build: unknown variant %d: %w", int(variant), domain.ErrInvalidInput)
	}

	m.addCoverage()
	m.addFleetCount()
	m.addBalance()
	if variant.usesItineraries() {
		m.addFlightInteraction()
		m.addDemandAndLinkage()
	}
	if variant == ISDIFAM {
		m.addCancelLinks()
	}

	return m, nil
}

func (m *Model) fleetTypes() []string {
	out := make([]string, 0, len(m.Fleets))
	for _, e := range m.Fleets {
		out = append(out, e.Type)
	}
	return out
}

func (m *Model) addFleetVariables() {
	p := m.Problem
	for _, f := range m.Flights {
		for _, e := range m.Fleets {
			m.X[AssignKey{Flight: f.Number, Fleet: e.Type}] = p.AddVar(fmt.Sprintf("x[%d,%s]", f.Number, e.Type), milp.Binary, 0, 1)
		}
	}

	// Overnight counts are undefined at single-node stations and pinned to zero.
	for _, s := range m.Network.Stations() {
		span, _ := m.Network.Span(s)
		for _, e := range m.Fleets {
			ub := float64(e.Count)
			if span.Single() {
				ub = 0
			}
			m.RON[RONKey{Station: s, Fleet: e.Type}] = p.AddVar(fmt.Sprintf("RON[%s,%s]", s, e.Type), milp.Integer, 0, ub)
		}
	}

	for _, a := range m.Network.GroundArcs(m.fleetTypes()) {
		m.Y[a] = p.AddVar(fmt.Sprintf("y[%d,%d,%s]", a.From, a.To, a.Fleet), milp.Integer, 0, math.Inf(1))
	}
}

func (m *Model) operatingCost(override map[AssignKey]float64) milp.Expr {
	var e milp.Expr
	for _, f := range m.Flights {
		for _, fl := range m.Fleets {
			k := AssignKey{Flight: f.Number, Fleet: fl.Type}
			c, ok := override[k]
			if !ok {
				c = fl.OperatingCost(f)
			}
			e.Add(m.X[k], c)
		}
	}
	return e
}

func (m *Model) addPassengerVariables() {
	p := m.Problem

	// Positive corrections can lift an itinerary's demand above its
	// unconstrained value, so its spill bound widens accordingly.
	lift := make(map[int]int)
	for k, v := range m.Corrections {
		if v > 0 {
			lift[k.Alternative] += v
		}
	}

	for _, it := range m.Itineraries {
		m.Spilled[it.ID] = p.AddVar(fmt.Sprintf("t_spilled[%d]", it.ID), milp.Continuous, 0, float64(it.Demand+lift[it.ID]))
	}
	for _, k := range itinerary.SpillKeys(m.Itineraries, m.Targets) {
		m.Flow[k] = p.AddVar(fmt.Sprintf("t[%d,%d]", k.P, k.Q), milp.Integer, 0, math.Inf(1))
	}
}

func (m *Model) addCancelVariables() {
	for _, it := range m.Itineraries {
		if it.Optional {
			m.Z[it.ID] = m.Problem.AddVar(fmt.Sprintf("z[%d]", it.ID), milp.Binary, 0, 1)
		}
	}
}

func (m *Model) itineraryByID() map[int]domain.Itinerary {
	out := make(map[int]domain.Itinerary, len(m.Itineraries))
	for _, it := range m.Itineraries {
		out[it.ID] = it
	}
	return out
}

// spillCost prices every spilled passenger at the fare of the itinerary
// they were spilled from.
func (m *Model) spillCost() milp.Expr {
	byID := m.itineraryByID()
	var e milp.Expr
	for k, v := range m.Flow {
		e.Add(v, byID[k.P].Fare)
	}
	return e
}

// recapturedRevenue credits the recapture ratio of each flow at the fare
// of the itinerary that absorbs it. Flows to the dummy earn nothing.
func (m *Model) recapturedRevenue() milp.Expr {
	byID := m.itineraryByID()
	var e milp.Expr
	for k, v := range m.Flow {
		if k.Q == m.DummyID {
			continue
		}
		e.Add(v, m.Params.RecaptureRatio*byID[k.Q].Fare)
	}
	return e
}

func (m *Model) unconstrainedRevenue() float64 {
	r := 0.0
	for _, it := range m.Itineraries {
		r += float64(it.Demand) * it.Fare
	}
	return r
}

// cancellationLoss is sum over optional q of loss(q)*(1 - z[q]), where
// loss(q) is q's revenue less the corrected revenue it pushes to others.
func (m *Model) cancellationLoss() milp.Expr {
	byID := m.itineraryByID()
	var e milp.Expr
	for _, q := range m.Itineraries {
		z, ok := m.Z[q.ID]
		if !ok {
			continue
		}
		loss := float64(q.Demand) * q.Fare
		for _, p := range m.Itineraries {
			if d, ok := m.Corrections[itinerary.CorrectionKey{Cancelled: q.ID, Alternative: p.ID}]; ok {
				loss -= float64(d) * byID[p.ID].Fare
			}
		}
		e.AddConstant(loss)
		e.Add(z, -loss)
	}
	return e
}

func (m *Model) addCoverage() {
	for _, f := range m.Flights {
		var e milp.Expr
		for _, fl := range m.Fleets {
			e.Add(m.X[AssignKey{Flight: f.Number, Fleet: fl.Type}], 1)
		}
		op := milp.EQ
		if f.Optional && m.Variant != IFAM {
			op = milp.LE
		}
		m.Problem.AddConstraint(fmt.Sprintf("coverage[%d]", f.Number), e, op, 1)
	}
}

func (m *Model) addFleetCount() {
	for _, fl := range m.Fleets {
		var e milp.Expr
		for _, s := range m.Network.Stations() {
			e.Add(m.RON[RONKey{Station: s, Fleet: fl.Type}], 1)
		}
		m.Problem.AddConstraint(fmt.Sprintf("fleet_count[%s]", fl.Type), e, milp.LE, float64(fl.Count))
	}
}

// addBalance writes one flow conservation row per node and fleet:
// ground flow in, minus ground flow out, plus signed flight flow, plus the
// overnight count entering the first node and leaving the last, equals 0.
func (m *Model) addBalance() {
	for _, node := range m.Network.Nodes() {
		span, _ := m.Network.Span(node.Station)
		for _, fl := range m.Fleets {
			var e milp.Expr
			if !span.Single() {
				if node.ID > span.First {
					e.Add(m.Y[network.ArcKey{From: node.ID - 1, To: node.ID, Fleet: fl.Type}], 1)
				}
				if node.ID < span.Last {
					e.Add(m.Y[network.ArcKey{From: node.ID, To: node.ID + 1, Fleet: fl.Type}], -1)
				}
				ron := m.RON[RONKey{Station: node.Station, Fleet: fl.Type}]
				switch node.ID {
				case span.First:
					e.Add(ron, 1)
				case span.Last:
					e.Add(ron, -1)
				}
			}
			for _, ev := range node.Events {
				e.Add(m.X[AssignKey{Flight: ev.Flight, Fleet: fl.Type}], float64(ev.Sign))
			}
			m.Problem.AddConstraint(fmt.Sprintf("balance[%d,%s]", node.ID, fl.Type), e, milp.EQ, 0)
		}
	}
}

// correctionTerms adds, for itinerary p, sum over optional q of
// D[q,p]*(1 - z[q]) to the right-hand side: the constant part goes to
// rhs and the z part moves to the left as +D[q,p]*z[q].
func (m *Model) correctionTerms(p int, lhs *milp.Expr) float64 {
	rhs := 0.0
	for _, q := range m.Itineraries {
		z, ok := m.Z[q.ID]
		if !ok {
			continue
		}
		d, ok := m.Corrections[itinerary.CorrectionKey{Cancelled: q.ID, Alternative: p}]
		if !ok {
			continue
		}
		rhs += float64(d)
		lhs.Add(z, float64(d))
	}
	return rhs
}

// addFlightInteraction requires, per flight, spilled passengers less
// those recaptured onto it to cover demand in excess of assigned seats.
func (m *Model) addFlightInteraction() {
	for _, f := range m.Flights {
		var lhs milp.Expr
		rhs := 0.0
		used := false

		for _, p := range m.Itineraries {
			if !p.Uses(f.Number) {
				continue
			}
			used = true
			rhs += float64(p.Demand)
			for _, q := range m.Targets[p.ID] {
				lhs.Add(m.Flow[itinerary.SpillKey{P: p.ID, Q: q}], 1)
			}
			for _, src := range m.Itineraries {
				if v, ok := m.Flow[itinerary.SpillKey{P: src.ID, Q: p.ID}]; ok {
					lhs.Add(v, -m.Params.RecaptureRatio)
				}
			}
			rhs += m.correctionTerms(p.ID, &lhs)
		}
		if !used {
			continue
		}

		for _, fl := range m.Fleets {
			lhs.Add(m.X[AssignKey{Flight: f.Number, Fleet: fl.Type}], float64(fl.Seats))
		}
		m.Problem.AddConstraint(fmt.Sprintf("interaction[%d]", f.Number), lhs, milp.GE, rhs)
	}
}

func (m *Model) addDemandAndLinkage() {
	for _, p := range m.Itineraries {
		var out milp.Expr
		for _, q := range m.Targets[p.ID] {
			out.Add(m.Flow[itinerary.SpillKey{P: p.ID, Q: q}], 1)
		}

		demand := out
		demand.Terms = append([]milp.Term(nil), out.Terms...)
		rhs := float64(p.Demand) + m.correctionTerms(p.ID, &demand)
		m.Problem.AddConstraint(fmt.Sprintf("demand[%d]", p.ID), demand, milp.LE, rhs)

		link := out
		link.Add(m.Spilled[p.ID], -1)
		m.Problem.AddConstraint(fmt.Sprintf("spill_link[%d]", p.ID), link, milp.EQ, 0)
	}
}

// addCancelLinks ties z[q] to the assignment of q's flights: z may be 1
// only if every flight is flown and must be 1 when all are.
func (m *Model) addCancelLinks() {
	for _, q := range m.Itineraries {
		z, ok := m.Z[q.ID]
		if !ok {
			continue
		}
		all := milp.Sum(z)
		for _, n := range q.Legs {
			upper := milp.Sum(z)
			for _, fl := range m.Fleets {
				x := m.X[AssignKey{Flight: n, Fleet: fl.Type}]
				upper.Add(x, -1)
				all.Add(x, -1)
			}
			m.Problem.AddConstraint(fmt.Sprintf("z_upper[%d,%d]", q.ID, n), upper, milp.LE, 0)
		}
		m.Problem.AddConstraint(fmt.Sprintf("z_lower[%d]", q.ID), all, milp.GE, float64(1-len(q.Legs)))
	}
}
