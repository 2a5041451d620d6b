package ports

import "context"

// Great-circle distance between two stations.
type DistanceResult struct {
	Miles float64
}

// Contract for retrieving the distance between two stations.
type DistanceProvider interface {
	// Return the distance between two station codes.
	GetDistance(ctx context.Context, origin string, destination string) (DistanceResult, error)
}
