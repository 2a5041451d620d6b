package repositories

import (
	"errors"
	"fleet-planning-service/internal/ingest"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Seed tables looked up in a CSV seed directory. Only flights.csv is required.
const (
	FlightsCSV     = "flights.csv"
	FleetsCSV      = "fleets.csv"
	ItinerariesCSV = "itineraries.csv"
	AirportsCSV    = "airports.csv"
)

// readTable returns the header and rows of dir/name, or ok=false when the
// file does not exist.
func readTable(dir, name string) (header []string, rows [][]string, ok bool, err error) {
	f, err := os.Open(filepath.Join(dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	header, rows, err = ingest.ReadCSV(f)
	if err != nil {
		return nil, nil, false, fmt.Errorf("%s: %w", name, err)
	}
	return header, rows, true, nil
}

// LoadSeedCSV reads a directory of schedule tables. Columns are located by
// header name, so exports with reordered or renamed columns load as is.
// optional lists flight numbers to mark optional.
func LoadSeedCSV(dir string, optional []int) (Schedule, error) {
	var s Schedule

	header, rows, ok, err := readTable(dir, FlightsCSV)
	if err != nil {
		return s, fmt.Errorf("load csv seed: %w", err)
	}
	if !ok {
		return s, fmt.Errorf("load csv seed: %s not found in %q", FlightsCSV, dir)
	}
	fc, err := ingest.FlightColumnsFromHeader(header)
	if err != nil {
		return s, fmt.Errorf("load csv seed: %w", err)
	}
	if s.Flights, err = ingest.ParseFlights(rows, fc); err != nil {
		return s, fmt.Errorf("load csv seed: %s: %w", FlightsCSV, err)
	}
	if s.Flights, err = ingest.MarkOptional(s.Flights, optional); err != nil {
		return s, fmt.Errorf("load csv seed: %w", err)
	}

	if header, rows, ok, err = readTable(dir, FleetsCSV); err != nil {
		return s, fmt.Errorf("load csv seed: %w", err)
	} else if ok {
		cols, err := ingest.FleetColumnsFromHeader(header)
		if err != nil {
			return s, fmt.Errorf("load csv seed: %w", err)
		}
		if s.Fleets, err = ingest.ParseFleets(rows, cols); err != nil {
			return s, fmt.Errorf("load csv seed: %s: %w", FleetsCSV, err)
		}
	}

	if header, rows, ok, err = readTable(dir, ItinerariesCSV); err != nil {
		return s, fmt.Errorf("load csv seed: %w", err)
	} else if ok {
		cols, err := ingest.ItineraryColumnsFromHeader(header)
		if err != nil {
			return s, fmt.Errorf("load csv seed: %w", err)
		}
		if s.Itineraries, err = ingest.ParseItineraries(rows, cols); err != nil {
			return s, fmt.Errorf("load csv seed: %s: %w", ItinerariesCSV, err)
		}
	}

	if header, rows, ok, err = readTable(dir, AirportsCSV); err != nil {
		return s, fmt.Errorf("load csv seed: %w", err)
	} else if ok {
		cols, err := ingest.AirportColumnsFromHeader(header)
		if err != nil {
			return s, fmt.Errorf("load csv seed: %w", err)
		}
		if s.Airports, err = ingest.ParseAirports(rows, cols); err != nil {
			return s, fmt.Errorf("load csv seed: %s: %w", AirportsCSV, err)
		}
	}

	return s, nil
}
