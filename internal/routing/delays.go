package routing

import (
	"fleet-planning-service/internal/domain"
	"fmt"
)

// MaxSuggestedDelay is the largest departure slip SuggestDelays proposes.
const MaxSuggestedDelay = 180

// SuggestDelays looks, for each flight in input order, at the later
// flights leaving its arrival station too soon after it lands, and
// proposes the departure that would restore the turnaround.
func SuggestDelays(flights []domain.Flight, turnaround int) []domain.DelaySuggestion {
	var out []domain.DelaySuggestion
	for i, in := range flights {
		ready := in.Arrival + turnaround
		for _, next := range flights[i+1:] {
			if next.Origin != in.Destination {
				continue
			}
			delay := ready - next.Departure
			if delay <= 0 || delay > MaxSuggestedDelay {
				continue
			}
			out = append(out, domain.DelaySuggestion{
				FlightNumber:       next.Number,
				CurrentDeparture:   next.Departure,
				SuggestedDeparture: ready,
				CurrentArrival:     next.Arrival,
				SuggestedArrival:   ready + next.BlockMinutes(),
				ConflictFlight:     in.Number,
				ConflictArrival:    in.Arrival,
				DelayMinutes:       delay,
			})
		}
	}
	return out
}

// InfeasibleError is returned when routes exist but no selection covers
// the schedule with the available aircraft.
type InfeasibleError struct {
	Suggestions []domain.DelaySuggestion
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("no route selection covers the schedule; %d departure delays could help", len(e.Suggestions))
}

func (e *InfeasibleError) Unwrap() error { return domain.ErrInfeasible }
