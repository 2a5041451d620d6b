package domain

// Unassigned marks a flight that no fleet flies.
const Unassigned = "unassigned"

// Assignment is one row of the fleet assignment table.
type Assignment struct {
	FlightNumber int
	Fleet        string
}

// RONCount is the number of aircraft of a fleet that stay overnight at a station.
type RONCount struct {
	Station string
	Fleet   string
	Count   int
}

// Spill is the number of passengers spilled from an itinerary.
type Spill struct {
	ItineraryID int
	Passengers  float64
}

// SpillRecapture is the flow of spilled passengers from one itinerary to
// another. ToID equal to the dummy id means passengers lost to the market.
type SpillRecapture struct {
	FromID     int
	ToID       int
	Spilled    float64
	Recaptured float64
}

// ItineraryDecision is the operate/cancel outcome of an optional itinerary.
type ItineraryDecision struct {
	ItineraryID int
	Operate     bool
}

// FleetPlan is the extracted solution of a fleet assignment run.
type FleetPlan struct {
	Variant     string
	Objective   float64
	Assignments []Assignment
	RON         []RONCount
	Spills      []Spill
	Recaptures  []SpillRecapture
	Decisions   []ItineraryDecision
	DummyID     int
}

// ByFleet groups assigned flight numbers per fleet type.
func (p *FleetPlan) ByFleet() map[string][]int {
	out := make(map[string][]int)
	for _, a := range p.Assignments {
		if a.Fleet == Unassigned {
			continue
		}
		out[a.Fleet] = append(out[a.Fleet], a.FlightNumber)
	}
	return out
}

// RotationDay is the flight sequence an aircraft flies on one day of its cycle.
type RotationDay struct {
	Day     int
	Flights []Flight
}

// Rotation is the multi-day route assigned to one aircraft.
type Rotation struct {
	Aircraft   int
	Route      int
	HubTouches int
	Days       []RotationDay
}

// DelaySuggestion proposes a departure slip that restores turnaround time.
type DelaySuggestion struct {
	FlightNumber       int
	CurrentDeparture   int
	SuggestedDeparture int
	CurrentArrival     int
	SuggestedArrival   int
	ConflictFlight     int
	ConflictArrival    int
	DelayMinutes       int
}

// RoutingPlan is the result of the rotation search.
type RoutingPlan struct {
	FlightsPerDay int
	// MaxFlightsPerDay is the greedy upper bound for this schedule.
	MaxFlightsPerDay int
	Days             int
	Candidates       int
	Objective        float64
	Rotations        []Rotation
}
