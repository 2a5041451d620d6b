package handlers

import (
	"fleet-planning-service/internal/api/dto"
	"fleet-planning-service/internal/ports"
	"log"
	"net/http"
)

// ScheduleHandler exposes the stored schedule read-only.
type ScheduleHandler struct {
	Repo ports.ScheduleRepository
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	flights, err := h.Repo.ListFlights(ctx)
	if err != nil {
		log.Printf("list flights failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	fleets, err := h.Repo.ListFleets(ctx)
	if err != nil {
		log.Printf("list fleets failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	its, err := h.Repo.ListItineraries(ctx)
	if err != nil {
		log.Printf("list itineraries failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	airports, err := h.Repo.ListAirports(ctx)
	if err != nil {
		log.Printf("list airports failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ScheduleResponse{
		Flights:     make([]dto.FlightDTO, 0, len(flights)),
		Fleets:      make([]dto.FleetDTO, 0, len(fleets)),
		Itineraries: make([]dto.ItineraryDTO, 0, len(its)),
		Airports:    make([]dto.AirportDTO, 0, len(airports)),
	}
	for _, f := range flights {
		res.Flights = append(res.Flights, dto.FlightFromDomain(f))
	}
	for _, f := range fleets {
		res.Fleets = append(res.Fleets, dto.FleetDTO(f))
	}
	for _, it := range its {
		res.Itineraries = append(res.Itineraries, dto.ItineraryFromDomain(it))
	}
	for _, a := range airports {
		res.Airports = append(res.Airports, dto.AirportFromDomain(a))
	}

	writeJSON(w, r, http.StatusOK, res)
}
