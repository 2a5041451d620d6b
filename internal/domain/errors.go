package domain

import (
	"errors"
	"fmt"
)

var (
	// Input rejected at ingestion.
	ErrInvalidInput = errors.New("invalid input")

	// Topology problems found while resolving the schedule.
	ErrInvalidItinerary    = errors.New("invalid itinerary")
	ErrDisconnectedStation = errors.New("disconnected station")

	// Solver outcomes other than optimal.
	ErrInfeasible = errors.New("infeasible")
	ErrUnbounded  = errors.New("unbounded")
	ErrSolver     = errors.New("solver error")

	// A time, node or combination budget ran out before a plan was found.
	ErrBudgetExceeded = errors.New("budget exceeded")

	// No multi-day combination satisfies the hub and continuity rules.
	ErrInsufficientFPD = errors.New("insufficient flights per day")
)

// ValidationError names the offending record and field.
type ValidationError struct {
	Row   int
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("row %d: %s=%q: %v", e.Row, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("row %d: %s=%q is invalid", e.Row, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidInput, e.Err}
	}
	return []error{ErrInvalidInput}
}

// ItineraryError reports an itinerary that does not map onto the flight table.
type ItineraryError struct {
	ItineraryID  int
	FlightNumber int
	Reason       string
}

func (e *ItineraryError) Error() string {
	if e.FlightNumber != 0 {
		return fmt.Sprintf("itinerary %d: flight %d: %s", e.ItineraryID, e.FlightNumber, e.Reason)
	}
	return fmt.Sprintf("itinerary %d: %s", e.ItineraryID, e.Reason)
}

func (e *ItineraryError) Unwrap() error { return ErrInvalidItinerary }

// StationError reports a station aircraft can reach but never leave, or the reverse.
type StationError struct {
	Station string
}

func (e *StationError) Error() string {
	return fmt.Sprintf("station %s is never both departed from and arrived at", e.Station)
}

func (e *StationError) Unwrap() error { return ErrDisconnectedStation }

// InsufficientFPDError carries the request that produced no feasible rotation.
type InsufficientFPDError struct {
	FlightsPerDay int
	Days          int
	Hubs          []string
}

func (e *InsufficientFPDError) Error() string {
	return fmt.Sprintf("no %d-day rotation at %d flights per day touches hubs %v; try a different flights-per-day value",
		e.Days, e.FlightsPerDay, e.Hubs)
}

func (e *InsufficientFPDError) Unwrap() error { return ErrInsufficientFPD }
