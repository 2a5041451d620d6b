package dto

import (
	"fleet-planning-service/internal/domain"
	"fleet-planning-service/internal/ingest"
	"fmt"
)

// Clock fields are "HH:MM" or "HH:MM:SS"; hours past 23 mark legs that
// land after midnight.
type FlightDTO struct {
	Number        int     `json:"number" validate:"gt=0"`
	Origin        string  `json:"origin" validate:"required,alpha"`
	Destination   string  `json:"destination" validate:"required,alpha"`
	Departure     string  `json:"departure" validate:"required"`
	Arrival       string  `json:"arrival" validate:"required"`
	DistanceMiles float64 `json:"distance_miles,omitempty" validate:"gte=0"`
	Optional      bool    `json:"optional,omitempty"`
}

func (f FlightDTO) ToDomain() (domain.Flight, error) {
	dep, err := domain.ParseClock(f.Departure)
	if err != nil {
		return domain.Flight{}, fmt.Errorf("flight %d departure: %w", f.Number, err)
	}
	arr, err := domain.ParseClock(f.Arrival)
	if err != nil {
		return domain.Flight{}, fmt.Errorf("flight %d arrival: %w", f.Number, err)
	}
	return domain.Flight{
		Number:      f.Number,
		Origin:      f.Origin,
		Destination: f.Destination,
		Departure:   dep,
		Arrival:     arr,
		Distance:    f.DistanceMiles,
		Optional:    f.Optional,
	}, nil
}

func FlightFromDomain(f domain.Flight) FlightDTO {
	return FlightDTO{
		Number:        f.Number,
		Origin:        f.Origin,
		Destination:   f.Destination,
		Departure:     domain.FormatClock(f.Departure),
		Arrival:       domain.FormatClock(f.Arrival),
		DistanceMiles: f.Distance,
		Optional:      f.Optional,
	}
}

type FleetDTO struct {
	Type        string  `json:"type" validate:"required"`
	CostPerMile float64 `json:"cost_per_mile" validate:"gte=0"`
	Seats       int     `json:"seats" validate:"gt=0"`
	Count       int     `json:"count" validate:"gte=0"`
}

func (f FleetDTO) ToDomain() domain.Fleet { return domain.Fleet(f) }

type ItineraryDTO struct {
	ID      int     `json:"id" validate:"gt=0"`
	Flights []int   `json:"flights" validate:"min=1,max=3,dive,gt=0"`
	Demand  int     `json:"demand" validate:"gte=0"`
	Fare    float64 `json:"fare" validate:"gte=0"`
	// Type defaults from the number of legs.
	Type string `json:"type,omitempty"`
}

func (it ItineraryDTO) ToDomain() (domain.Itinerary, error) {
	typ := ingest.TypeForLegs(len(it.Flights))
	if it.Type != "" {
		t, err := domain.ParseItineraryType(it.Type)
		if err != nil {
			return domain.Itinerary{}, fmt.Errorf("itinerary %d: %w", it.ID, err)
		}
		typ = t
	}
	return domain.Itinerary{
		ID:     it.ID,
		Legs:   append([]int(nil), it.Flights...),
		Demand: it.Demand,
		Fare:   it.Fare,
		Type:   typ,
	}, nil
}

func ItineraryFromDomain(it domain.Itinerary) ItineraryDTO {
	return ItineraryDTO{
		ID:      it.ID,
		Flights: it.Legs,
		Demand:  it.Demand,
		Fare:    it.Fare,
		Type:    it.Type.String(),
	}
}

type AirportDTO struct {
	Code string  `json:"code" validate:"required,alpha"`
	Lat  float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon  float64 `json:"lon" validate:"gte=-180,lte=180"`
}

func (a AirportDTO) ToDomain() domain.Airport {
	return domain.Airport{Code: a.Code, Coordinates: domain.Coordinates{Lat: a.Lat, Lon: a.Lon}}
}

func AirportFromDomain(a domain.Airport) AirportDTO {
	return AirportDTO{Code: a.Code, Lat: a.Lat, Lon: a.Lon}
}

// ScheduleDTO is an inline schedule. Empty sections fall back to the
// stored schedule.
type ScheduleDTO struct {
	Flights         []FlightDTO    `json:"flights" validate:"dive"`
	Fleets          []FleetDTO     `json:"fleets" validate:"dive"`
	Itineraries     []ItineraryDTO `json:"itineraries" validate:"dive"`
	Airports        []AirportDTO   `json:"airports" validate:"dive"`
	OptionalFlights []int          `json:"optional_flights" validate:"dive,gt=0"`
}

type ScheduleResponse struct {
	Flights     []FlightDTO    `json:"flights"`
	Fleets      []FleetDTO     `json:"fleets"`
	Itineraries []ItineraryDTO `json:"itineraries"`
	Airports    []AirportDTO   `json:"airports"`
}

func Flights(in []FlightDTO) ([]domain.Flight, error) {
	out := make([]domain.Flight, 0, len(in))
	for _, f := range in {
		d, err := f.ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func Fleets(in []FleetDTO) []domain.Fleet {
	out := make([]domain.Fleet, 0, len(in))
	for _, f := range in {
		out = append(out, f.ToDomain())
	}
	return out
}

func Itineraries(in []ItineraryDTO) ([]domain.Itinerary, error) {
	out := make([]domain.Itinerary, 0, len(in))
	for _, it := range in {
		d, err := it.ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func Airports(in []AirportDTO) []domain.Airport {
	out := make([]domain.Airport, 0, len(in))
	for _, a := range in {
		out = append(out, a.ToDomain())
	}
	return out
}
