// Package ingest turns column-mapped tabular rows into validated domain
// records.
package ingest

import (
	"fleet-planning-service/internal/domain"
	"fmt"
	"strings"
)

// Absent marks an optional column that the table does not carry.
const Absent = -1

type FlightColumns struct {
	Number      int
	Origin      int
	Departure   int
	Destination int
	Arrival     int
	Distance    int
	Duration    int
}

type ItineraryColumns struct {
	ID      int
	Demand  int
	Fare    int
	Flights int
	Type    int
}

type FleetColumns struct {
	Type        int
	CostPerMile int
	Seats       int
	Count       int
}

type AirportColumns struct {
	Code int
	Lat  int
	Lon  int
}

var (
	flightAliases = map[string][]string{
		"number":      {"flight", "flights", "flight number", "flightnumber", "flight no"},
		"origin":      {"origin", "from", "orig"},
		"departure":   {"departure", "dep", "departure time", "departuretime"},
		"destination": {"destination", "dest", "to"},
		"arrival":     {"arrival", "arr", "arrival time", "arrivaltime"},
		"distance":    {"distance", "miles", "distance (miles)"},
		"duration":    {"duration", "flight duration", "flightduration"},
	}
	itineraryAliases = map[string][]string{
		"id":      {"itinerary", "itinerary id", "itineraryid", "id"},
		"demand":  {"demand", "passengers"},
		"fare":    {"fare", "price"},
		"flights": {"flights", "flight", "flight list", "legs"},
		"type":    {"type", "itinerary type"},
	}
	fleetAliases = map[string][]string{
		"type":  {"fleet", "fleet type", "type", "aircraft"},
		"cost":  {"cost per mile", "costpermile", "cpm", "cost"},
		"seats": {"seats", "capacity"},
		"count": {"count", "number of aircraft", "aircraft count", "ne"},
	}
	airportAliases = map[string][]string{
		"code": {"airport", "name", "code", "station", "iata"},
		"lat":  {"latitude", "lat"},
		"lon":  {"longitude", "lon", "lng", "long"},
	}
)

// findColumn returns the index of the first header matching one of the
// aliases, ignoring case and surrounding space.
func findColumn(header []string, aliases []string) int {
	for _, a := range aliases {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), a) {
				return i
			}
		}
	}
	return Absent
}

func resolve(table string, header []string, aliases map[string][]string, required, optional []string) (map[string]int, error) {
	out := make(map[string]int, len(required)+len(optional))
	var missing []string
	for _, name := range required {
		i := findColumn(header, aliases[name])
		if i == Absent {
			missing = append(missing, name)
		}
		out[name] = i
	}
	for _, name := range optional {
		out[name] = findColumn(header, aliases[name])
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s columns: missing %s: %w", table, strings.Join(missing, ", "), domain.ErrInvalidInput)
	}
	return out, nil
}

// FlightColumnsFromHeader locates the flight columns by their usual
// header names. Distance and duration may be absent.
func FlightColumnsFromHeader(header []string) (FlightColumns, error) {
	c, err := resolve("flight", header, flightAliases,
		[]string{"number", "origin", "departure", "destination", "arrival"},
		[]string{"distance", "duration"})
	if err != nil {
		return FlightColumns{}, err
	}
	return FlightColumns{
		Number: c["number"], Origin: c["origin"], Departure: c["departure"],
		Destination: c["destination"], Arrival: c["arrival"],
		Distance: c["distance"], Duration: c["duration"],
	}, nil
}

// ItineraryColumnsFromHeader locates the itinerary columns. The type
// column may be absent, in which case the type follows the leg count.
func ItineraryColumnsFromHeader(header []string) (ItineraryColumns, error) {
	c, err := resolve("itinerary", header, itineraryAliases,
		[]string{"id", "demand", "fare", "flights"},
		[]string{"type"})
	if err != nil {
		return ItineraryColumns{}, err
	}
	return ItineraryColumns{ID: c["id"], Demand: c["demand"], Fare: c["fare"], Flights: c["flights"], Type: c["type"]}, nil
}

func FleetColumnsFromHeader(header []string) (FleetColumns, error) {
	c, err := resolve("fleet", header, fleetAliases, []string{"type", "cost", "seats", "count"}, nil)
	if err != nil {
		return FleetColumns{}, err
	}
	return FleetColumns{Type: c["type"], CostPerMile: c["cost"], Seats: c["seats"], Count: c["count"]}, nil
}

func AirportColumnsFromHeader(header []string) (AirportColumns, error) {
	c, err := resolve("airport", header, airportAliases, []string{"code", "lat", "lon"}, nil)
	if err != nil {
		return AirportColumns{}, err
	}
	return AirportColumns{Code: c["code"], Lat: c["lat"], Lon: c["lon"]}, nil
}
