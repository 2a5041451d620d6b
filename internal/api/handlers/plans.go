package handlers

import (
	"fleet-planning-service/internal/api/dto"
	"fleet-planning-service/internal/fam"
	"fleet-planning-service/internal/platform/obs"
	"fleet-planning-service/internal/services"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type PlanHandler struct {
	Planner *services.Planner
}

// Fleet builds and solves the fleet assignment variant named in the path
// over the inline schedule, falling back to the stored one.
func (h *PlanHandler) Fleet(w http.ResponseWriter, r *http.Request) {
	variant, err := fam.ParseVariant(chi.URLParam(r, "variant"))
	if err != nil {
		writeError(w, r, http.StatusNotFound, "unknown plan variant")
		return
	}

	var req dto.FleetPlanRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	schedule, err := toSchedule(req.Schedule)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	svcReq := services.PlanFleetRequest{
		Variant:  variant,
		Schedule: schedule,
		Costs:    dto.Costs(req.Costs),
	}
	if req.Params != nil {
		params := req.Params.Apply(h.Planner.Config.FAMParams())
		svcReq.Params = &params
	}

	plan, err := h.Planner.PlanFleet(r.Context(), svcReq)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.FleetPlanFromDomain(obs.RunID(r.Context()), plan))
}

// Routing searches multi-day rotations for one fleet's flights.
func (h *PlanHandler) Routing(w http.ResponseWriter, r *http.Request) {
	var req dto.RoutingRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	flights, err := dto.Flights(req.Flights)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	plan, err := h.Planner.PlanRotations(r.Context(), services.PlanRotationsRequest{
		Flights:       flights,
		FlightsPerDay: req.FlightsPerDay,
		Days:          req.Days,
		Aircraft:      req.Aircraft,
		Hubs:          req.Hubs,
		Turnaround:    req.TurnaroundMinutes,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.RoutingFromDomain(obs.RunID(r.Context()), plan))
}

func toSchedule(in dto.ScheduleDTO) (services.Schedule, error) {
	flights, err := dto.Flights(in.Flights)
	if err != nil {
		return services.Schedule{}, err
	}
	its, err := dto.Itineraries(in.Itineraries)
	if err != nil {
		return services.Schedule{}, err
	}
	return services.Schedule{
		Flights:         flights,
		Fleets:          dto.Fleets(in.Fleets),
		Itineraries:     its,
		Airports:        dto.Airports(in.Airports),
		OptionalFlights: in.OptionalFlights,
	}, nil
}
