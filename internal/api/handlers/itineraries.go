package handlers

import (
	"fleet-planning-service/internal/api/dto"
	"fleet-planning-service/internal/platform/obs"
	"fleet-planning-service/internal/services"
	"net/http"
)

type ItineraryHandler struct {
	Planner *services.Planner
}

// Build generates single- and double-stop itineraries over the posted
// flights, or the stored ones when none are posted.
func (h *ItineraryHandler) Build(w http.ResponseWriter, r *http.Request) {
	var req dto.ItinerariesRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	flights, err := dto.Flights(req.Flights)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	opts := req.Options(h.Planner.Config.ItineraryOptions())
	its, err := h.Planner.BuildItineraries(r.Context(), services.BuildItinerariesRequest{
		Schedule: services.Schedule{Flights: flights, Airports: dto.Airports(req.Airports)},
		Options:  &opts,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.ItinerariesFromDomain(obs.RunID(r.Context()), its))
}
