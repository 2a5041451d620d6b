// Package itinerary generates connecting itineraries from a flight table and
// derives the spill targets and demand corrections used by the itinerary
// based fleet assignment models.
package itinerary

import (
	"context"
	"fleet-planning-service/internal/domain"
	"fleet-planning-service/internal/platform/obs"
	"fmt"
)

// Options bounds which connections are accepted.
type Options struct {
	MinConnection int     // minutes
	MaxConnection int     // minutes
	DistanceRatio float64 // max flown distance over direct distance
}

func DefaultOptions() Options {
	return Options{MinConnection: 30, MaxConnection: 240, DistanceRatio: 1.5}
}

func (o Options) validate() error {
	if o.MinConnection < 0 || o.MaxConnection < o.MinConnection || o.MaxConnection >= domain.MinutesPerDay {
		return fmt.Errorf("connection window [%d, %d] minutes: %w", o.MinConnection, o.MaxConnection, domain.ErrInvalidInput)
	}
	if o.DistanceRatio < 1 {
		return fmt.Errorf("distance ratio %.2f below 1: %w", o.DistanceRatio, domain.ErrInvalidInput)
	}
	return nil
}

// Connection returns the ground time between arriving on in and departing
// on out, wrapping across midnight.
func Connection(in, out domain.Flight) int {
	return domain.Elapsed(in.Arrival, out.Departure)
}

type builder struct {
	opts  Options
	table domain.DistanceTable
}

func (b builder) connects(in, out domain.Flight) bool {
	if in.Number == out.Number || in.Destination != out.Origin {
		return false
	}
	c := Connection(in, out)
	return c >= b.opts.MinConnection && c <= b.opts.MaxConnection
}

// legDistance is the table distance of a leg. The table is the single
// source so that circuity compares like with like.
func (b builder) legDistance(f domain.Flight) (float64, error) {
	d, ok := b.table.Lookup(f.Origin, f.Destination)
	if !ok {
		return 0, fmt.Errorf("no distance for %s-%s: %w", f.Origin, f.Destination, domain.ErrInvalidInput)
	}
	return d, nil
}

// assemble validates circuity for legs and, if retained, returns the
// itinerary with its timing filled in.
func (b builder) assemble(legs []domain.Flight) (domain.BuiltItinerary, bool, error) {
	first, last := legs[0], legs[len(legs)-1]

	total := 0.0
	for _, l := range legs {
		d, err := b.legDistance(l)
		if err != nil {
			return domain.BuiltItinerary{}, false, err
		}
		total += d
	}
	direct, ok := b.table.Lookup(first.Origin, last.Destination)
	if !ok {
		return domain.BuiltItinerary{}, false, fmt.Errorf("no distance for %s-%s: %w",
			first.Origin, last.Destination, domain.ErrInvalidInput)
	}
	if total > b.opts.DistanceRatio*direct {
		return domain.BuiltItinerary{}, false, nil
	}

	transit, block := 0, 0
	numbers := make([]int, 0, len(legs))
	for i, l := range legs {
		numbers = append(numbers, l.Number)
		block += l.BlockMinutes()
		if i > 0 {
			transit += Connection(legs[i-1], l)
		}
	}

	typ := domain.SingleStop
	if len(legs) == 3 {
		typ = domain.DoubleStop
	}

	return domain.BuiltItinerary{
		Legs:        numbers,
		Type:        typ,
		Origin:      first.Origin,
		Destination: last.Destination,
		Departure:   first.Departure,
		Arrival:     last.Arrival,
		Transit:     transit,
		Total:       transit + block,
		Distance:    total,
	}, true, nil
}

// SingleStop returns every two-leg connection within the connection window
// that does not return to its origin and passes the circuity cap.
func SingleStop(flights []domain.Flight, table domain.DistanceTable, opts Options) ([]domain.BuiltItinerary, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("single stop: %w", err)
	}
	b := builder{opts: opts, table: table}

	var out []domain.BuiltItinerary
	for _, in := range flights {
		for _, next := range flights {
			if !b.connects(in, next) || in.Origin == next.Destination {
				continue
			}
			it, ok, err := b.assemble([]domain.Flight{in, next})
			if err != nil {
				return nil, fmt.Errorf("single stop %d-%d: %w", in.Number, next.Number, err)
			}
			if ok {
				out = append(out, it)
			}
		}
	}
	return out, nil
}

// DoubleStop extends each single-stop itinerary with a third leg under the
// same window and circuity rules. The third leg may not return to either
// earlier origin.
func DoubleStop(flights []domain.Flight, singles []domain.BuiltItinerary, table domain.DistanceTable, opts Options) ([]domain.BuiltItinerary, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("double stop: %w", err)
	}
	idx, err := domain.NewFlightIndex(flights)
	if err != nil {
		return nil, fmt.Errorf("double stop: %w", err)
	}
	b := builder{opts: opts, table: table}

	var out []domain.BuiltItinerary
	for _, s := range singles {
		if len(s.Legs) != 2 {
			continue
		}
		f1, ok1 := idx[s.Legs[0]]
		f2, ok2 := idx[s.Legs[1]]
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("double stop: single-stop legs %v not in flight table: %w", s.Legs, domain.ErrInvalidItinerary)
		}
		for _, f3 := range flights {
			if f3.Number == f1.Number || !b.connects(f2, f3) {
				continue
			}
			if f3.Destination == f1.Origin || f3.Destination == f2.Origin {
				continue
			}
			it, ok, err := b.assemble([]domain.Flight{f1, f2, f3})
			if err != nil {
				return nil, fmt.Errorf("double stop %d-%d-%d: %w", f1.Number, f2.Number, f3.Number, err)
			}
			if ok {
				out = append(out, it)
			}
		}
	}
	return out, nil
}

// Build runs both passes and numbers the surviving itineraries 1..N,
// single stops first.
func Build(ctx context.Context, flights []domain.Flight, table domain.DistanceTable, opts Options) (_ []domain.BuiltItinerary, err error) {
	defer obs.Time(ctx, "itinerary.Build")(&err)

	singles, err := SingleStop(flights, table, opts)
	if err != nil {
		return nil, fmt.Errorf("build itineraries: %w", err)
	}
	doubles, err := DoubleStop(flights, singles, table, opts)
	if err != nil {
		return nil, fmt.Errorf("build itineraries: %w", err)
	}

	all := append(singles, doubles...)
	for i := range all {
		all[i].ID = i + 1
	}
	return all, nil
}
