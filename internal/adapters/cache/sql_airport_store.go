package cache

import (
	"context"
	"database/sql"
	"errors"
	"fleet-planning-service/internal/domain"
	"fleet-planning-service/internal/platform/obs"
	"fmt"
	"strings"
)

// SQLAirportStore maps station codes to coordinates in the airports table.
type SQLAirportStore struct {
	DB *sql.DB
}

func NewSQLAirportStore(db *sql.DB) *SQLAirportStore {
	return &SQLAirportStore{DB: db}
}

// Fetch stored coordinates for the given station codes.
func (s *SQLAirportStore) GetMany(
	ctx context.Context,
	codes []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "airport.store.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("airport store: db is nil")
	}

	uniq := uniqueKeys(codes)
	if len(uniq) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	q := `
	SELECT code, lat, lon
    FROM airports
    WHERE code = ANY($1::text[]);
	`

	rows, err := s.DB.QueryContext(ctx, q, uniq)
	if err != nil {
		return nil, fmt.Errorf("get airports: query airports table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Coordinates, len(uniq))
	for rows.Next() {
		var code string
		var lat, lon float64
		if err := rows.Scan(&code, &lat, &lon); err != nil {
			return nil, fmt.Errorf("get airports: scan rows: %w", err)
		}
		out[code] = domain.Coordinates{Lat: lat, Lon: lon}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get airports: row iteration: %w", err)
	}

	return out, nil
}

// Store station -> coordinate mappings.
func (s *SQLAirportStore) PutMany(ctx context.Context, airports map[string]domain.Coordinates) error {
	if s.DB == nil {
		return errors.New("airport store: db is nil")
	}

	if len(airports) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert airports: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO airports (code, lat, lon)
    VALUES ($1, $2, $3)
	ON CONFLICT (code) DO UPDATE
	SET lat = EXCLUDED.lat,
		lon = EXCLUDED.lon;
	`)
	if err != nil {
		return fmt.Errorf("insert airports: db prepare: %w", err)
	}
	defer stmt.Close()

	for code, c := range airports {
		if strings.TrimSpace(code) == "" {
			return fmt.Errorf("insert airports: empty station code")
		}

		if _, err := stmt.ExecContext(ctx, code, c.Lat, c.Lon); err != nil {
			return fmt.Errorf("insert airports code=%q: %w", code, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert airports commit: %w", err)
	}

	return nil
}
