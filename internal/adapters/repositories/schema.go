package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fleet-planning-service/internal/domain"
	"fleet-planning-service/internal/ingest"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Initialize the Postgres schema for schedules and caches.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createFlightsQuery := `
	CREATE TABLE IF NOT EXISTS flights (
		flight_number INTEGER PRIMARY KEY,
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		departure_minutes INTEGER NOT NULL,
		arrival_minutes INTEGER NOT NULL,
		distance_miles DOUBLE PRECISION NOT NULL DEFAULT 0,
		optional BOOLEAN NOT NULL DEFAULT FALSE
	);
	`

	createFleetsQuery := `
	CREATE TABLE IF NOT EXISTS fleets (
		fleet_type TEXT PRIMARY KEY,
		cost_per_mile DOUBLE PRECISION NOT NULL,
		seats INTEGER NOT NULL,
		aircraft_count INTEGER NOT NULL
	);
	`

	createItinerariesQuery := `
	CREATE TABLE IF NOT EXISTS itineraries (
		itinerary_id INTEGER PRIMARY KEY,
		flights TEXT NOT NULL,
		demand INTEGER NOT NULL,
		fare DOUBLE PRECISION NOT NULL,
		itinerary_type TEXT NOT NULL
	);
	`

	createAirportsQuery := `
	CREATE TABLE IF NOT EXISTS airports (
		code TEXT PRIMARY KEY,
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL
	);
	`

	createDistanceCacheQuery := `
	CREATE TABLE IF NOT EXISTS distance_cache (
        origin TEXT NOT NULL,
        destination TEXT NOT NULL,
        distance_miles DOUBLE PRECISION NOT NULL,
        PRIMARY KEY (origin, destination)
    );
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_distance_cache_destination_origin
    ON distance_cache(destination, origin);
	`

	statements := []string{
		createFlightsQuery,
		createFleetsQuery,
		createItinerariesQuery,
		createAirportsQuery,
		createDistanceCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// Schedule is everything one seeding run writes.
type Schedule struct {
	Flights     []domain.Flight
	Fleets      []domain.Fleet
	Itineraries []domain.Itinerary
	Airports    []domain.Airport
}

type FlightSeed struct {
	Number      int     `json:"flight_number"`
	Origin      string  `json:"origin"`
	Departure   string  `json:"departure"`
	Destination string  `json:"destination"`
	Arrival     string  `json:"arrival"`
	Distance    float64 `json:"distance_miles"`
	Optional    bool    `json:"optional"`
}

type FleetSeed struct {
	Type        string  `json:"fleet_type"`
	CostPerMile float64 `json:"cost_per_mile"`
	Seats       int     `json:"seats"`
	Count       int     `json:"aircraft_count"`
}

type ItinerarySeed struct {
	ID      int     `json:"itinerary_id"`
	Flights string  `json:"flights"`
	Demand  int     `json:"demand"`
	Fare    float64 `json:"fare"`
	Type    string  `json:"type"`
}

type AirportSeed struct {
	Code string  `json:"code"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

type ScheduleSeed struct {
	Flights     []FlightSeed    `json:"flights"`
	Fleets      []FleetSeed     `json:"fleets"`
	Itineraries []ItinerarySeed `json:"itineraries"`
	Airports    []AirportSeed   `json:"airports"`
}

// LoadSeedJSON reads a schedule seed file. Flight and itinerary rows go
// through the same parsing as tabular uploads.
func LoadSeedJSON(jsonPath string) (Schedule, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return Schedule{}, fmt.Errorf("load seed: read %q: %w", jsonPath, err)
	}

	var seed ScheduleSeed
	if err := json.Unmarshal(bytes, &seed); err != nil {
		return Schedule{}, fmt.Errorf("load seed: parse json: %w", err)
	}

	num := func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

	flightRows := make([][]string, 0, len(seed.Flights))
	var optional []int
	for _, f := range seed.Flights {
		flightRows = append(flightRows, []string{strconv.Itoa(f.Number), f.Origin, f.Departure, f.Destination, f.Arrival, num(f.Distance)})
		if f.Optional {
			optional = append(optional, f.Number)
		}
	}
	flights, err := ingest.ParseFlights(flightRows, ingest.FlightColumns{
		Number: 0, Origin: 1, Departure: 2, Destination: 3, Arrival: 4, Distance: 5, Duration: ingest.Absent,
	})
	if err != nil {
		return Schedule{}, fmt.Errorf("load seed: %w", err)
	}
	if flights, err = ingest.MarkOptional(flights, optional); err != nil {
		return Schedule{}, fmt.Errorf("load seed: %w", err)
	}

	itRows := make([][]string, 0, len(seed.Itineraries))
	for _, it := range seed.Itineraries {
		itRows = append(itRows, []string{strconv.Itoa(it.ID), it.Flights, strconv.Itoa(it.Demand), num(it.Fare), it.Type})
	}
	its, err := ingest.ParseItineraries(itRows, ingest.ItineraryColumns{ID: 0, Flights: 1, Demand: 2, Fare: 3, Type: 4})
	if err != nil {
		return Schedule{}, fmt.Errorf("load seed: %w", err)
	}

	s := Schedule{Flights: flights, Itineraries: its}
	for i, e := range seed.Fleets {
		if strings.TrimSpace(e.Type) == "" || e.Seats <= 0 || e.Count < 0 {
			return Schedule{}, fmt.Errorf("load seed: fleet at index %d is invalid: %w", i+1, domain.ErrInvalidInput)
		}
		s.Fleets = append(s.Fleets, domain.Fleet{Type: e.Type, CostPerMile: e.CostPerMile, Seats: e.Seats, Count: e.Count})
	}
	for i, a := range seed.Airports {
		code := strings.ToUpper(strings.TrimSpace(a.Code))
		if code == "" {
			return Schedule{}, fmt.Errorf("load seed: airport at index %d: code cannot be empty: %w", i+1, domain.ErrInvalidInput)
		}
		s.Airports = append(s.Airports, domain.Airport{Code: code, Coordinates: domain.Coordinates{Lat: a.Lat, Lon: a.Lon}})
	}
	return s, nil
}

// SeedFromJSON loads a seed file and writes it.
func SeedFromJSON(ctx context.Context, db *sql.DB, jsonPath string) error {
	s, err := LoadSeedJSON(jsonPath)
	if err != nil {
		return fmt.Errorf("seed schedule: %w", err)
	}
	return SaveSchedule(ctx, db, s)
}

func formatLegs(legs []int) string {
	parts := make([]string, len(legs))
	for i, n := range legs {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}

// SaveSchedule upserts every record of s in one transaction.
func SaveSchedule(ctx context.Context, db *sql.DB, s Schedule) error {
	if db == nil {
		return errors.New("save schedule: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save schedule: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	type batch struct {
		name  string
		query string
		rows  [][]any
	}

	var flights, fleets, its, airports [][]any
	for _, f := range s.Flights {
		flights = append(flights, []any{f.Number, f.Origin, f.Destination, f.Departure, f.Arrival, f.Distance, f.Optional})
	}
	for _, e := range s.Fleets {
		fleets = append(fleets, []any{e.Type, e.CostPerMile, e.Seats, e.Count})
	}
	for _, it := range s.Itineraries {
		its = append(its, []any{it.ID, formatLegs(it.Legs), it.Demand, it.Fare, it.Type.String()})
	}
	for _, a := range s.Airports {
		airports = append(airports, []any{a.Code, a.Lat, a.Lon})
	}

	batches := []batch{
		{"flights", `
	INSERT INTO flights (flight_number, origin, destination, departure_minutes, arrival_minutes, distance_miles, optional)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (flight_number) DO UPDATE
	SET origin = EXCLUDED.origin,
		destination = EXCLUDED.destination,
		departure_minutes = EXCLUDED.departure_minutes,
		arrival_minutes = EXCLUDED.arrival_minutes,
		distance_miles = EXCLUDED.distance_miles,
		optional = EXCLUDED.optional;
	`, flights},
		{"fleets", `
	INSERT INTO fleets (fleet_type, cost_per_mile, seats, aircraft_count)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (fleet_type) DO UPDATE
	SET cost_per_mile = EXCLUDED.cost_per_mile,
		seats = EXCLUDED.seats,
		aircraft_count = EXCLUDED.aircraft_count;
	`, fleets},
		{"itineraries", `
	INSERT INTO itineraries (itinerary_id, flights, demand, fare, itinerary_type)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (itinerary_id) DO UPDATE
	SET flights = EXCLUDED.flights,
		demand = EXCLUDED.demand,
		fare = EXCLUDED.fare,
		itinerary_type = EXCLUDED.itinerary_type;
	`, its},
		{"airports", `
	INSERT INTO airports (code, lat, lon)
	VALUES ($1, $2, $3)
	ON CONFLICT (code) DO UPDATE
	SET lat = EXCLUDED.lat,
		lon = EXCLUDED.lon;
	`, airports},
	}

	for _, b := range batches {
		if len(b.rows) == 0 {
			continue
		}
		stmt, err := tx.PrepareContext(ctx, b.query)
		if err != nil {
			return fmt.Errorf("save schedule: prepare %s insert: %w", b.name, err)
		}
		for i, row := range b.rows {
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				stmt.Close()
				return fmt.Errorf("save schedule: insert %s row %d: %w", b.name, i+1, err)
			}
		}
		stmt.Close()
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save schedule: commit tx: %w", err)
	}

	return nil
}
