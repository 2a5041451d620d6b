package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fleet-planning-service/internal/domain"
	"fleet-planning-service/internal/ingest"
	"fleet-planning-service/internal/platform/obs"
	"fmt"
)

// Postgres-backed implementation of the ScheduleRepository port.
type PostgresScheduleRepository struct{ DB *sql.DB }

func NewPostgresScheduleRepository(db *sql.DB) *PostgresScheduleRepository {
	return &PostgresScheduleRepository{DB: db}
}

func (p *PostgresScheduleRepository) query(ctx context.Context, op, q string) (*sql.Rows, error) {
	if p.DB == nil {
		return nil, errors.New("postgres schedule repository: DB is nil")
	}
	rows, err := p.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	return rows, nil
}

// Return all flights ordered by flight number.
func (p *PostgresScheduleRepository) ListFlights(ctx context.Context) (_ []domain.Flight, err error) {
	defer obs.Time(ctx, "repo.ListFlights")(&err)

	rows, err := p.query(ctx, "list flights", `
	SELECT
		flight_number,
		origin,
		destination,
		departure_minutes,
		arrival_minutes,
		distance_miles,
		optional
	FROM flights
	ORDER BY flight_number;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0, 64)
	for rows.Next() {
		var f domain.Flight
		if err := rows.Scan(&f.Number, &f.Origin, &f.Destination, &f.Departure, &f.Arrival, &f.Distance, &f.Optional); err != nil {
			return nil, fmt.Errorf("list flights: scan row: %w", err)
		}
		f.Duration = float64(f.BlockMinutes()) / 60
		flights = append(flights, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list flights: row iteration: %w", err)
	}

	return flights, nil
}

func (p *PostgresScheduleRepository) ListFleets(ctx context.Context) ([]domain.Fleet, error) {
	rows, err := p.query(ctx, "list fleets", `
	SELECT fleet_type, cost_per_mile, seats, aircraft_count
	FROM fleets
	ORDER BY fleet_type;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fleets []domain.Fleet
	for rows.Next() {
		var e domain.Fleet
		if err := rows.Scan(&e.Type, &e.CostPerMile, &e.Seats, &e.Count); err != nil {
			return nil, fmt.Errorf("list fleets: scan row: %w", err)
		}
		fleets = append(fleets, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list fleets: row iteration: %w", err)
	}

	return fleets, nil
}

func (p *PostgresScheduleRepository) ListItineraries(ctx context.Context) ([]domain.Itinerary, error) {
	rows, err := p.query(ctx, "list itineraries", `
	SELECT itinerary_id, flights, demand, fare, itinerary_type
	FROM itineraries
	ORDER BY itinerary_id;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var its []domain.Itinerary
	for rows.Next() {
		var it domain.Itinerary
		var legs, typ string
		if err := rows.Scan(&it.ID, &legs, &it.Demand, &it.Fare, &typ); err != nil {
			return nil, fmt.Errorf("list itineraries: scan row: %w", err)
		}
		if it.Legs, err = ingest.ParseLegs(legs); err != nil {
			return nil, fmt.Errorf("list itineraries: itinerary %d: %w", it.ID, err)
		}
		if it.Type, err = domain.ParseItineraryType(typ); err != nil {
			return nil, fmt.Errorf("list itineraries: itinerary %d: %w", it.ID, err)
		}
		its = append(its, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list itineraries: row iteration: %w", err)
	}

	return its, nil
}

func (p *PostgresScheduleRepository) ListAirports(ctx context.Context) ([]domain.Airport, error) {
	rows, err := p.query(ctx, "list airports", `
	SELECT code, lat, lon
	FROM airports
	ORDER BY code;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var airports []domain.Airport
	for rows.Next() {
		var a domain.Airport
		if err := rows.Scan(&a.Code, &a.Lat, &a.Lon); err != nil {
			return nil, fmt.Errorf("list airports: scan row: %w", err)
		}
		airports = append(airports, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list airports: row iteration: %w", err)
	}

	return airports, nil
}
