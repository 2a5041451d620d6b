package domain

import "math"

// EarthRadiusMiles is the sphere radius used for great-circle distances.
const EarthRadiusMiles = 3959.0

// Immutable geographic coordinates in degrees.
type Coordinates struct {
	Lat float64
	Lon float64
}

// Airport ties a station code to its coordinates.
type Airport struct {
	Code string
	Coordinates
}

// GreatCircleMiles returns the haversine distance between two points.
func GreatCircleMiles(a, b Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusMiles * math.Asin(math.Min(1, math.Sqrt(h)))
}

// DistanceTable holds origin-destination distances in miles.
type DistanceTable map[Market]float64

// NewDistanceTable computes every ordered pair of distinct airports.
func NewDistanceTable(airports []Airport) DistanceTable {
	t := make(DistanceTable, len(airports)*len(airports))
	for _, a := range airports {
		for _, b := range airports {
			if a.Code == b.Code {
				continue
			}
			t[Market{From: a.Code, To: b.Code}] = GreatCircleMiles(a.Coordinates, b.Coordinates)
		}
	}
	return t
}

// Lookup returns the distance between two stations. A station is zero
// miles from itself.
func (t DistanceTable) Lookup(from, to string) (float64, bool) {
	if from == to {
		return 0, true
	}
	d, ok := t[Market{From: from, To: to}]
	return d, ok
}
