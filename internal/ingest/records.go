package ingest

import (
	"encoding/csv"
	"fleet-planning-service/internal/domain"
	"fleet-planning-service/internal/platform/validation"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// FlightRecord is one flight row after parsing, before it becomes a
// domain.Flight.
type FlightRecord struct {
	Number      int     `validate:"gt=0"`
	Origin      string  `validate:"required,alpha"`
	Destination string  `validate:"required,alpha,nefield=Origin"`
	Departure   int     `validate:"gte=0"`
	Arrival     int     `validate:"gte=0"`
	Distance    float64 `validate:"gte=0"`
	Duration    float64 `validate:"gte=0"`
}

type ItineraryRecord struct {
	ID     int     `validate:"gt=0"`
	Demand int     `validate:"gte=0"`
	Fare   float64 `validate:"gte=0"`
	Legs   []int   `validate:"min=1,max=3,dive,gt=0"`
}

type FleetRecord struct {
	Type        string  `validate:"required"`
	CostPerMile float64 `validate:"gte=0"`
	Seats       int     `validate:"gt=0"`
	Count       int     `validate:"gte=0"`
}

type AirportRecord struct {
	Code string  `validate:"required,alpha"`
	Lat  float64 `validate:"gte=-90,lte=90"`
	Lon  float64 `validate:"gte=-180,lte=180"`
}

// ReadCSV splits a CSV table into its header and data rows.
func ReadCSV(r io.Reader) (header []string, rows [][]string, err error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	all, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w: %w", domain.ErrInvalidInput, err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("read csv: empty table: %w", domain.ErrInvalidInput)
	}
	return all[0], all[1:], nil
}

// rowReader pulls typed cells out of one row and remembers the first
// failure, so callers can read every field and check once.
type rowReader struct {
	row   int
	cells []string
	err   error
}

func (r *rowReader) fail(field, value string, err error) {
	if r.err == nil {
		r.err = &domain.ValidationError{Row: r.row, Field: field, Value: value, Err: err}
	}
}

func (r *rowReader) str(field string, col int) string {
	if col == Absent {
		return ""
	}
	if col < 0 || col >= len(r.cells) {
		r.fail(field, "", fmt.Errorf("column %d missing", col))
		return ""
	}
	return strings.TrimSpace(r.cells[col])
}

func (r *rowReader) integer(field string, col int) int {
	s := r.str(field, col)
	// Spreadsheet exports write whole numbers as "42.0".
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		r.fail(field, s, fmt.Errorf("not an integer"))
		return 0
	}
	return int(f)
}

func (r *rowReader) number(field string, col int) float64 {
	s := r.str(field, col)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		r.fail(field, s, fmt.Errorf("not a number"))
		return 0
	}
	return f
}

func (r *rowReader) optionalNumber(field string, col int) float64 {
	if col == Absent || r.str(field, col) == "" {
		return 0
	}
	return r.number(field, col)
}

func (r *rowReader) clock(field string, col int) int {
	s := r.str(field, col)
	m, err := domain.ParseClock(s)
	if err != nil {
		r.fail(field, s, err)
		return 0
	}
	return m
}

func (r *rowReader) validate(v any) error {
	if r.err != nil {
		return r.err
	}
	if err := validation.Struct(v); err != nil {
		return &domain.ValidationError{Row: r.row, Field: validation.FailedField(err), Err: err}
	}
	return nil
}

// ParseFlights converts flight rows. Rows are numbered from 1. A missing
// duration is derived from the clock times; a missing distance stays 0
// until the flights are annotated with a distance table.
func ParseFlights(rows [][]string, cols FlightColumns) ([]domain.Flight, error) {
	out := make([]domain.Flight, 0, len(rows))
	for i, cells := range rows {
		r := &rowReader{row: i + 1, cells: cells}
		rec := FlightRecord{
			Number:      r.integer("flight", cols.Number),
			Origin:      strings.ToUpper(r.str("origin", cols.Origin)),
			Destination: strings.ToUpper(r.str("destination", cols.Destination)),
			Departure:   r.clock("departure", cols.Departure),
			Arrival:     r.clock("arrival", cols.Arrival),
			Distance:    r.optionalNumber("distance", cols.Distance),
			Duration:    r.optionalNumber("duration", cols.Duration),
		}
		if err := r.validate(rec); err != nil {
			return nil, fmt.Errorf("parse flights: %w", err)
		}

		f := domain.Flight{
			Number:      rec.Number,
			Origin:      rec.Origin,
			Destination: rec.Destination,
			Departure:   rec.Departure,
			Arrival:     rec.Arrival,
			Distance:    rec.Distance,
			Duration:    rec.Duration,
		}
		if f.Duration == 0 {
			f.Duration = float64(f.BlockMinutes()) / 60
		}
		out = append(out, f)
	}

	if _, err := domain.NewFlightIndex(out); err != nil {
		return nil, fmt.Errorf("parse flights: %w", err)
	}
	return out, nil
}

// ParseLegs splits a flight list such as "101, 205" into flight numbers.
func ParseLegs(s string) ([]int, error) {
	var legs []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("parse legs %q: %w", s, domain.ErrInvalidInput)
		}
		legs = append(legs, n)
	}
	if len(legs) == 0 {
		return nil, fmt.Errorf("parse legs %q: empty: %w", s, domain.ErrInvalidInput)
	}
	return legs, nil
}

// ParseItineraries converts itinerary rows. Without a type column, one
// leg is non-stop, two single-stop and three double-stop.
func ParseItineraries(rows [][]string, cols ItineraryColumns) ([]domain.Itinerary, error) {
	out := make([]domain.Itinerary, 0, len(rows))
	for i, cells := range rows {
		r := &rowReader{row: i + 1, cells: cells}

		rawLegs := r.str("flights", cols.Flights)
		legs, err := ParseLegs(rawLegs)
		if err != nil {
			r.fail("flights", rawLegs, err)
		}
		rec := ItineraryRecord{
			ID:     r.integer("itinerary", cols.ID),
			Demand: r.integer("demand", cols.Demand),
			Fare:   r.number("fare", cols.Fare),
			Legs:   legs,
		}

		typ := TypeForLegs(len(legs))
		if raw := r.str("type", cols.Type); raw != "" {
			t, err := domain.ParseItineraryType(raw)
			if err != nil {
				r.fail("type", raw, err)
			}
			typ = t
		}
		if err := r.validate(rec); err != nil {
			return nil, fmt.Errorf("parse itineraries: %w", err)
		}

		out = append(out, domain.Itinerary{
			ID:     rec.ID,
			Legs:   rec.Legs,
			Demand: rec.Demand,
			Fare:   rec.Fare,
			Type:   typ,
		})
	}
	return out, nil
}

// TypeForLegs is the itinerary type implied by the number of legs when
// none is given.
func TypeForLegs(n int) domain.ItineraryType {
	switch n {
	case 2:
		return domain.SingleStop
	case 3:
		return domain.DoubleStop
	}
	return domain.NonStop
}

func ParseFleets(rows [][]string, cols FleetColumns) ([]domain.Fleet, error) {
	out := make([]domain.Fleet, 0, len(rows))
	for i, cells := range rows {
		r := &rowReader{row: i + 1, cells: cells}
		rec := FleetRecord{
			Type:        r.str("fleet", cols.Type),
			CostPerMile: r.number("cost_per_mile", cols.CostPerMile),
			Seats:       r.integer("seats", cols.Seats),
			Count:       r.integer("count", cols.Count),
		}
		if err := r.validate(rec); err != nil {
			return nil, fmt.Errorf("parse fleets: %w", err)
		}
		out = append(out, domain.Fleet(rec))
	}
	return out, nil
}

func ParseAirports(rows [][]string, cols AirportColumns) ([]domain.Airport, error) {
	out := make([]domain.Airport, 0, len(rows))
	for i, cells := range rows {
		r := &rowReader{row: i + 1, cells: cells}
		rec := AirportRecord{
			Code: strings.ToUpper(r.str("airport", cols.Code)),
			Lat:  r.number("latitude", cols.Lat),
			Lon:  r.number("longitude", cols.Lon),
		}
		if err := r.validate(rec); err != nil {
			return nil, fmt.Errorf("parse airports: %w", err)
		}
		out = append(out, domain.Airport{Code: rec.Code, Coordinates: domain.Coordinates{Lat: rec.Lat, Lon: rec.Lon}})
	}
	return out, nil
}

// MarkOptional flags the listed flight numbers as optional. Every number
// must name a flight.
func MarkOptional(flights []domain.Flight, numbers []int) ([]domain.Flight, error) {
	want := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		want[n] = true
	}

	out := make([]domain.Flight, len(flights))
	for i, f := range flights {
		if want[f.Number] {
			f.Optional = true
			delete(want, f.Number)
		}
		out[i] = f
	}
	for n := range want {
		return nil, fmt.Errorf("mark optional: unknown flight %d: %w", n, domain.ErrInvalidInput)
	}
	return out, nil
}
