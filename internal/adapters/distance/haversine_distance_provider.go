package distance

import (
	"context"
	"errors"
	"fleet-planning-service/internal/adapters/cache"
	"fleet-planning-service/internal/domain"
	"fleet-planning-service/internal/platform/obs"
	"fleet-planning-service/internal/ports"
	"fmt"
	"log"
	"strings"
)

// HaversineDistanceProvider implements DistanceMatrixProvider with
// great-circle distances between airport coordinates.
//
// It coordinates:
//   - Station code normalization
//   - Coordinates supplied with the request, then the airports table
//   - Persistent distance caching
//
// The provider is safe for concurrent use.
type HaversineDistanceProvider struct {
	coords        map[string]domain.Coordinates
	distanceCache *cache.SQLDistanceCache
	airportStore  *cache.SQLAirportStore
}

// NewHaversineDistanceProvider takes the request's airports; either
// store may be nil.
func NewHaversineDistanceProvider(
	airports []domain.Airport,
	distanceCache *cache.SQLDistanceCache,
	airportStore *cache.SQLAirportStore,
) *HaversineDistanceProvider {
	coords := make(map[string]domain.Coordinates, len(airports))
	for _, a := range airports {
		coords[normalize(a.Code)] = a.Coordinates
	}
	return &HaversineDistanceProvider{
		coords:        coords,
		distanceCache: distanceCache,
		airportStore:  airportStore,
	}
}

// normalize ensures consistent cache keys for station codes.
func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Delegate to batched path to reuse caching logic.
func (h *HaversineDistanceProvider) GetDistance(
	ctx context.Context,
	origin string,
	destination string,
) (ports.DistanceResult, error) {
	normOrigin, normDestination := normalize(origin), normalize(destination)
	if normOrigin == "" || normDestination == "" {
		return ports.DistanceResult{}, errors.New("get distance: origin and destination must be non-empty")
	}
	if normOrigin == normDestination {
		return ports.DistanceResult{}, nil
	}

	results, err := h.GetDistances(ctx, normOrigin, []string{normDestination})
	if err != nil {
		return ports.DistanceResult{}, fmt.Errorf("get distances %q -> %q: %w", normOrigin, normDestination, err)
	}

	result, ok := results[normDestination]
	if !ok {
		return ports.DistanceResult{}, fmt.Errorf("no distance result for %q -> %q", origin, destination)
	}

	return result, nil
}

// Compute distances from a single origin to many destinations.
func (h *HaversineDistanceProvider) GetDistances(
	ctx context.Context,
	origin string,
	destinations []string,
) (_ map[string]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "haversine.GetDistances")(&err)

	normOrigin := normalize(origin)
	if normOrigin == "" {
		return nil, errors.New("origin must be non-empty")
	}

	seen := make(map[string]struct{}, len(destinations))
	destList := make([]string, 0, len(destinations))
	for _, d := range destinations {
		nd := normalize(d)
		if nd == "" || nd == normOrigin {
			continue
		}
		if _, ok := seen[nd]; ok {
			continue
		}
		seen[nd] = struct{}{}
		destList = append(destList, nd)
	}

	if len(destList) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}

	hits := make(map[string]ports.DistanceResult)
	// Check persistent distance cache before computing anything.
	if h.distanceCache != nil {
		hits, err = h.distanceCache.GetMany(ctx, normOrigin, destList)
		if err != nil {
			return nil, fmt.Errorf("get distance cache: %w", err)
		}
	}

	misses := make([]string, 0, len(destList))
	for _, d := range destList {
		if _, ok := hits[d]; !ok {
			misses = append(misses, d)
		}
	}

	if len(misses) == 0 {
		return hits, nil
	}

	coords, err := h.coordinates(ctx, append([]string{normOrigin}, misses...))
	if err != nil {
		return nil, err
	}

	originCoord, ok := coords[normOrigin]
	if !ok {
		return nil, fmt.Errorf("missing coordinates for origin %q: %w", normOrigin, domain.ErrInvalidInput)
	}

	fresh := make(map[string]ports.DistanceResult, len(misses))
	for _, d := range misses {
		c, ok := coords[d]
		if !ok {
			return nil, fmt.Errorf("missing coordinates for destination %q: %w", d, domain.ErrInvalidInput)
		}
		fresh[d] = ports.DistanceResult{Miles: domain.GreatCircleMiles(originCoord, c)}
	}

	if h.distanceCache != nil {
		if err := h.distanceCache.PutMany(ctx, normOrigin, fresh); err != nil {
			log.Printf("distance cache write failed: %v", err)
		}
	}

	out := make(map[string]ports.DistanceResult, len(hits)+len(fresh))
	for k, v := range hits {
		out[k] = v
	}
	for k, v := range fresh {
		out[k] = v
	}

	return out, nil
}

// coordinates resolves codes from the request first and the airports
// table for the rest.
func (h *HaversineDistanceProvider) coordinates(ctx context.Context, codes []string) (map[string]domain.Coordinates, error) {
	out := make(map[string]domain.Coordinates, len(codes))
	var unknown []string
	for _, c := range codes {
		if coord, ok := h.coords[c]; ok {
			out[c] = coord
			continue
		}
		unknown = append(unknown, c)
	}

	if len(unknown) == 0 || h.airportStore == nil {
		return out, nil
	}

	stored, err := h.airportStore.GetMany(ctx, unknown)
	if err != nil {
		return nil, fmt.Errorf("get airport coordinates: %w", err)
	}
	for k, v := range stored {
		out[k] = v
	}
	return out, nil
}
