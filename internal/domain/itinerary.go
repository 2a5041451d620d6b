package domain

import (
	"fmt"
	"strings"
)

// ItineraryType ranks itineraries for spill targeting. Lower is better.
type ItineraryType int

const (
	NonStop ItineraryType = iota + 1
	Direct
	SingleStop
	DoubleStop
)

func (t ItineraryType) Priority() int { return int(t) }

func (t ItineraryType) String() string {
	switch t {
	case NonStop:
		return "non_stop"
	case Direct:
		return "direct"
	case SingleStop:
		return "single_stop"
	case DoubleStop:
		return "double_stop"
	default:
		return fmt.Sprintf("itinerary_type(%d)", int(t))
	}
}

// ParseItineraryType accepts the snake, dashed and spaced spellings used in
// schedule exports ("non_stop", "Non-Stop", "single stop").
func ParseItineraryType(s string) (ItineraryType, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)

	switch norm {
	case "non_stop", "nonstop":
		return NonStop, nil
	case "direct":
		return Direct, nil
	case "single_stop", "one_stop":
		return SingleStop, nil
	case "double_stop", "two_stop":
		return DoubleStop, nil
	}
	return 0, fmt.Errorf("parse itinerary type %q: %w", s, ErrInvalidInput)
}

// Market is an origin-destination pair.
type Market struct {
	From string
	To   string
}

func (m Market) String() string { return m.From + "-" + m.To }

// Itinerary is a passenger path of one to three connected legs.
// Origin, Destination and Optional are derived from the legs when the
// itinerary is resolved against the flight table.
type Itinerary struct {
	ID          int
	Legs        []int
	Demand      int
	Fare        float64
	Type        ItineraryType
	Optional    bool
	Origin      string
	Destination string
}

func (it Itinerary) Market() Market { return Market{From: it.Origin, To: it.Destination} }

// Uses reports whether the itinerary flies flight number.
func (it Itinerary) Uses(number int) bool {
	for _, l := range it.Legs {
		if l == number {
			return true
		}
	}
	return false
}

// SharedLegs returns the flight numbers both itineraries fly.
func (it Itinerary) SharedLegs(other Itinerary) []int {
	var out []int
	for _, l := range it.Legs {
		if other.Uses(l) {
			out = append(out, l)
		}
	}
	return out
}

// ResolveItineraries checks every itinerary against the flight table and
// returns copies with Origin, Destination and Optional filled in.
func ResolveItineraries(its []Itinerary, flights FlightIndex) ([]Itinerary, error) {
	out := make([]Itinerary, 0, len(its))
	seen := make(map[int]struct{}, len(its))

	for _, it := range its {
		if it.ID <= 0 {
			return nil, fmt.Errorf("resolve itineraries: id %d must be positive: %w", it.ID, ErrInvalidInput)
		}
		if _, ok := seen[it.ID]; ok {
			return nil, fmt.Errorf("resolve itineraries: duplicate id %d: %w", it.ID, ErrInvalidInput)
		}
		seen[it.ID] = struct{}{}

		if len(it.Legs) == 0 || len(it.Legs) > 3 {
			return nil, &ItineraryError{ItineraryID: it.ID, Reason: fmt.Sprintf("has %d legs", len(it.Legs))}
		}

		optional := false
		var prev *Flight
		for _, n := range it.Legs {
			f, ok := flights[n]
			if !ok {
				return nil, &ItineraryError{ItineraryID: it.ID, FlightNumber: n, Reason: "unknown flight"}
			}
			if prev != nil && prev.Destination != f.Origin {
				return nil, &ItineraryError{ItineraryID: it.ID, FlightNumber: n, Reason: "leg does not connect"}
			}
			optional = optional || f.Optional
			cur := f
			prev = &cur
		}

		it.Legs = append([]int(nil), it.Legs...)
		it.Origin = flights[it.Legs[0]].Origin
		it.Destination = flights[it.Legs[len(it.Legs)-1]].Destination
		it.Optional = optional
		out = append(out, it)
	}
	return out, nil
}

// BuiltItinerary is a connection generated from the flight table.
// Transit and Total are minutes.
type BuiltItinerary struct {
	ID          int
	Legs        []int
	Type        ItineraryType
	Origin      string
	Destination string
	Departure   int
	Arrival     int
	Transit     int
	Total       int
	Distance    float64
}
