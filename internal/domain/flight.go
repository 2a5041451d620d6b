package domain

import (
	"fmt"
	"sort"
)

// Flight is one scheduled leg. Times are minutes since midnight of the
// schedule day and may exceed 1440 for legs that close after midnight.
// A Flight is read once per run and never mutated afterwards.
type Flight struct {
	Number      int
	Origin      string
	Destination string
	Departure   int
	Arrival     int
	Distance    float64 // miles
	Duration    float64 // hours
	Optional    bool
}

// BlockMinutes returns the airborne time, treating an arrival before the
// departure as a midnight crossing.
func (f Flight) BlockMinutes() int {
	return Elapsed(f.Departure, f.Arrival)
}

// Fleet is an aircraft type available to the schedule.
type Fleet struct {
	Type        string
	CostPerMile float64
	Seats       int
	Count       int
}

// OperatingCost is the cost of flying f with this fleet.
func (e Fleet) OperatingCost(f Flight) float64 {
	return f.Distance * e.CostPerMile
}

// FlightIndex looks flights up by number.
type FlightIndex map[int]Flight

// NewFlightIndex indexes flights by number and rejects duplicates.
func NewFlightIndex(flights []Flight) (FlightIndex, error) {
	idx := make(FlightIndex, len(flights))
	for _, f := range flights {
		if _, ok := idx[f.Number]; ok {
			return nil, fmt.Errorf("index flights: duplicate flight number %d: %w", f.Number, ErrInvalidInput)
		}
		idx[f.Number] = f
	}
	return idx, nil
}

// Stations returns every station touched by the flights, sorted.
func Stations(flights []Flight) []string {
	seen := make(map[string]struct{}, len(flights))
	for _, f := range flights {
		seen[f.Origin] = struct{}{}
		seen[f.Destination] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// CheckStations reports the first station that is only ever departed from
// or only ever arrived at. Aircraft flow cannot balance at such a station.
func CheckStations(flights []Flight) error {
	departs := make(map[string]bool)
	arrives := make(map[string]bool)
	for _, f := range flights {
		departs[f.Origin] = true
		arrives[f.Destination] = true
	}

	for _, s := range Stations(flights) {
		if !departs[s] || !arrives[s] {
			return &StationError{Station: s}
		}
	}
	return nil
}

// Annotate fills missing distances from the distance table and recomputes
// durations from the clock times. It returns new records.
func Annotate(flights []Flight, table DistanceTable) ([]Flight, error) {
	out := make([]Flight, 0, len(flights))
	for _, f := range flights {
		if f.Distance <= 0 {
			d, ok := table.Lookup(f.Origin, f.Destination)
			if !ok {
				return nil, fmt.Errorf("annotate flights: flight %d: no distance for %s-%s: %w",
					f.Number, f.Origin, f.Destination, ErrInvalidInput)
			}
			f.Distance = d
		}
		f.Duration = float64(f.BlockMinutes()) / 60
		out = append(out, f)
	}
	return out, nil
}
