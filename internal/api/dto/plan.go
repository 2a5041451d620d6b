package dto

import (
	"fleet-planning-service/internal/domain"
	"fleet-planning-service/internal/fam"
	"fleet-planning-service/internal/itinerary"
)

// ParamsDTO overrides individual model parameters; nil fields keep the
// configured value.
type ParamsDTO struct {
	TurnaroundMinutes *int     `json:"turnaround_minutes" validate:"omitempty,gte=0"`
	RecaptureRatio    *float64 `json:"recapture_ratio" validate:"omitempty,gte=0,lte=1"`
	DemandIncreasePct *float64 `json:"demand_increase_pct" validate:"omitempty,gte=0,lte=100"`
	DemandDecreasePct *float64 `json:"demand_decrease_pct" validate:"omitempty,gte=0,lte=100"`
}

func (p ParamsDTO) Apply(base fam.Params) fam.Params {
	if p.TurnaroundMinutes != nil {
		base.TurnaroundMinutes = *p.TurnaroundMinutes
	}
	if p.RecaptureRatio != nil {
		base.RecaptureRatio = *p.RecaptureRatio
	}
	if p.DemandIncreasePct != nil {
		base.Corrections.IncreasePct = *p.DemandIncreasePct
	}
	if p.DemandDecreasePct != nil {
		base.Corrections.DecreasePct = *p.DemandDecreasePct
	}
	return base
}

type CostDTO struct {
	Flight int     `json:"flight" validate:"gt=0"`
	Fleet  string  `json:"fleet" validate:"required"`
	Cost   float64 `json:"cost" validate:"gte=0"`
}

func Costs(in []CostDTO) map[fam.AssignKey]float64 {
	if len(in) == 0 {
		return nil
	}
	out := make(map[fam.AssignKey]float64, len(in))
	for _, c := range in {
		out[fam.AssignKey{Flight: c.Flight, Fleet: c.Fleet}] = c.Cost
	}
	return out
}

type FleetPlanRequest struct {
	Schedule ScheduleDTO `json:"schedule"`
	Costs    []CostDTO   `json:"costs" validate:"dive"`
	Params   *ParamsDTO  `json:"params" validate:"omitempty"`
}

type AssignmentDTO struct {
	Flight int    `json:"flight"`
	Fleet  string `json:"fleet"`
}

type RONDTO struct {
	Station string `json:"station"`
	Fleet   string `json:"fleet"`
	Count   int    `json:"count"`
}

type SpillDTO struct {
	Itinerary  int     `json:"itinerary"`
	Passengers float64 `json:"passengers"`
}

type RecaptureDTO struct {
	From       int     `json:"from"`
	To         int     `json:"to"`
	Spilled    float64 `json:"spilled"`
	Recaptured float64 `json:"recaptured"`
}

type DecisionDTO struct {
	Itinerary int  `json:"itinerary"`
	Operate   bool `json:"operate"`
}

type FleetPlanResponse struct {
	RunID       string           `json:"run_id"`
	Variant     string           `json:"variant"`
	Objective   float64          `json:"objective"`
	Assignments []AssignmentDTO  `json:"assignments"`
	ByFleet     map[string][]int `json:"by_fleet"`
	RON         []RONDTO         `json:"ron"`
	Spills      []SpillDTO       `json:"spills,omitempty"`
	Recaptures  []RecaptureDTO   `json:"recaptures,omitempty"`
	Decisions   []DecisionDTO    `json:"decisions,omitempty"`
	// DummyID is the itinerary id that stands for passengers lost to the market.
	DummyID int `json:"dummy_id,omitempty"`
}

func FleetPlanFromDomain(runID string, p *domain.FleetPlan) FleetPlanResponse {
	res := FleetPlanResponse{
		RunID:       runID,
		Variant:     p.Variant,
		Objective:   p.Objective,
		Assignments: make([]AssignmentDTO, 0, len(p.Assignments)),
		ByFleet:     p.ByFleet(),
		RON:         make([]RONDTO, 0, len(p.RON)),
		DummyID:     p.DummyID,
	}
	for _, a := range p.Assignments {
		res.Assignments = append(res.Assignments, AssignmentDTO{Flight: a.FlightNumber, Fleet: a.Fleet})
	}
	for _, r := range p.RON {
		res.RON = append(res.RON, RONDTO(r))
	}
	for _, s := range p.Spills {
		res.Spills = append(res.Spills, SpillDTO{Itinerary: s.ItineraryID, Passengers: s.Passengers})
	}
	for _, r := range p.Recaptures {
		res.Recaptures = append(res.Recaptures, RecaptureDTO{From: r.FromID, To: r.ToID, Spilled: r.Spilled, Recaptured: r.Recaptured})
	}
	for _, d := range p.Decisions {
		res.Decisions = append(res.Decisions, DecisionDTO{Itinerary: d.ItineraryID, Operate: d.Operate})
	}
	return res
}

type ItinerariesRequest struct {
	Flights              []FlightDTO  `json:"flights" validate:"dive"`
	Airports             []AirportDTO `json:"airports" validate:"dive"`
	MinConnectionMinutes *int         `json:"min_connection_minutes" validate:"omitempty,gte=0"`
	MaxConnectionMinutes *int         `json:"max_connection_minutes" validate:"omitempty,gte=0,lt=1440"`
	DistanceRatio        *float64     `json:"distance_ratio" validate:"omitempty,gte=1"`
}

// Options overlays the request's window and circuity on base.
func (r ItinerariesRequest) Options(base itinerary.Options) itinerary.Options {
	if r.MinConnectionMinutes != nil {
		base.MinConnection = *r.MinConnectionMinutes
	}
	if r.MaxConnectionMinutes != nil {
		base.MaxConnection = *r.MaxConnectionMinutes
	}
	if r.DistanceRatio != nil {
		base.DistanceRatio = *r.DistanceRatio
	}
	return base
}

type BuiltItineraryDTO struct {
	ID             int     `json:"id"`
	Flights        []int   `json:"flights"`
	Type           string  `json:"type"`
	Origin         string  `json:"origin"`
	Destination    string  `json:"destination"`
	Departure      string  `json:"departure"`
	Arrival        string  `json:"arrival"`
	TransitMinutes int     `json:"transit_minutes"`
	TotalMinutes   int     `json:"total_minutes"`
	Total          string  `json:"total"`
	DistanceMiles  float64 `json:"distance_miles"`
}

type ItinerariesResponse struct {
	RunID       string              `json:"run_id"`
	Itineraries []BuiltItineraryDTO `json:"itineraries"`
}

func ItinerariesFromDomain(runID string, its []domain.BuiltItinerary) ItinerariesResponse {
	res := ItinerariesResponse{RunID: runID, Itineraries: make([]BuiltItineraryDTO, 0, len(its))}
	for _, it := range its {
		res.Itineraries = append(res.Itineraries, BuiltItineraryDTO{
			ID:             it.ID,
			Flights:        it.Legs,
			Type:           it.Type.String(),
			Origin:         it.Origin,
			Destination:    it.Destination,
			Departure:      domain.FormatClock(it.Departure),
			Arrival:        domain.FormatClock(it.Arrival),
			TransitMinutes: it.Transit,
			TotalMinutes:   it.Total,
			Total:          domain.FormatDuration(it.Total),
			DistanceMiles:  it.Distance,
		})
	}
	return res
}

type RoutingRequest struct {
	Flights           []FlightDTO `json:"flights" validate:"dive"`
	FlightsPerDay     int         `json:"flights_per_day" validate:"gte=1"`
	Days              int         `json:"days" validate:"gte=1"`
	Aircraft          int         `json:"aircraft" validate:"gte=1"`
	Hubs              []string    `json:"hubs" validate:"dive,required,alpha"`
	TurnaroundMinutes *int        `json:"turnaround_minutes" validate:"omitempty,gte=0"`
}

type RotationDayDTO struct {
	Day     int         `json:"day"`
	Flights []FlightDTO `json:"flights"`
}

type RotationDTO struct {
	Aircraft   int              `json:"aircraft"`
	Route      int              `json:"route"`
	HubTouches int              `json:"hub_touches"`
	Days       []RotationDayDTO `json:"days"`
}

type RoutingResponse struct {
	RunID            string        `json:"run_id"`
	FlightsPerDay    int           `json:"flights_per_day"`
	MaxFlightsPerDay int           `json:"max_flights_per_day"`
	Days             int           `json:"days"`
	Candidates       int           `json:"candidates"`
	Objective        float64       `json:"objective"`
	Rotations        []RotationDTO `json:"rotations"`
}

func RoutingFromDomain(runID string, p *domain.RoutingPlan) RoutingResponse {
	res := RoutingResponse{
		RunID:            runID,
		FlightsPerDay:    p.FlightsPerDay,
		MaxFlightsPerDay: p.MaxFlightsPerDay,
		Days:             p.Days,
		Candidates:       p.Candidates,
		Objective:        p.Objective,
		Rotations:        make([]RotationDTO, 0, len(p.Rotations)),
	}
	for _, rot := range p.Rotations {
		out := RotationDTO{Aircraft: rot.Aircraft, Route: rot.Route, HubTouches: rot.HubTouches}
		for _, d := range rot.Days {
			day := RotationDayDTO{Day: d.Day, Flights: make([]FlightDTO, 0, len(d.Flights))}
			for _, f := range d.Flights {
				day.Flights = append(day.Flights, FlightFromDomain(f))
			}
			out.Days = append(out.Days, day)
		}
		res.Rotations = append(res.Rotations, out)
	}
	return res
}

type DelayDTO struct {
	Flight             int    `json:"flight"`
	CurrentDeparture   string `json:"current_departure"`
	SuggestedDeparture string `json:"suggested_departure"`
	CurrentArrival     string `json:"current_arrival"`
	SuggestedArrival   string `json:"suggested_arrival"`
	ConflictFlight     int    `json:"conflict_flight"`
	ConflictArrival    string `json:"conflict_arrival"`
	DelayMinutes       int    `json:"delay_minutes"`
}

func DelaysFromDomain(in []domain.DelaySuggestion) []DelayDTO {
	out := make([]DelayDTO, 0, len(in))
	for _, s := range in {
		out = append(out, DelayDTO{
			Flight:             s.FlightNumber,
			CurrentDeparture:   domain.FormatClock(s.CurrentDeparture),
			SuggestedDeparture: domain.FormatClock(s.SuggestedDeparture),
			CurrentArrival:     domain.FormatClock(s.CurrentArrival),
			SuggestedArrival:   domain.FormatClock(s.SuggestedArrival),
			ConflictFlight:     s.ConflictFlight,
			ConflictArrival:    domain.FormatClock(s.ConflictArrival),
			DelayMinutes:       s.DelayMinutes,
		})
	}
	return out
}

type ErrorResponse struct {
	Error       string     `json:"error"`
	Field       string     `json:"field,omitempty"`
	Suggestions []DelayDTO `json:"suggestions,omitempty"`
}
