package ports

import (
	"context"
	"fleet-planning-service/internal/domain"
)

// Port: a boundary for reading the stored schedule.
type ScheduleRepository interface {
	ListFlights(ctx context.Context) ([]domain.Flight, error)
	ListFleets(ctx context.Context) ([]domain.Fleet, error)
	// Itineraries come back unresolved: legs only, no derived stations.
	ListItineraries(ctx context.Context) ([]domain.Itinerary, error)
	ListAirports(ctx context.Context) ([]domain.Airport, error)
}
