package api

import (
	"fleet-planning-service/internal/api/handlers"
	"fleet-planning-service/internal/platform/metrics"
	"fleet-planning-service/internal/services"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(planner *services.Planner, reg *metrics.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(runIDMiddleware)
	r.Use(loggingMiddleware)
	r.Use(metricsMiddleware(reg))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	scheduleHandler := &handlers.ScheduleHandler{Repo: planner.Repo}
	itineraryHandler := &handlers.ItineraryHandler{Planner: planner}
	planHandler := &handlers.PlanHandler{Planner: planner}

	r.Get("/health", handlers.Health)
	r.Method(http.MethodGet, "/metrics", reg.Handler())
	r.Get("/schedule", scheduleHandler.Get)
	r.Post("/itineraries", itineraryHandler.Build)
	r.Post("/plans/routing", planHandler.Routing)
	r.Post("/plans/{variant}", planHandler.Fleet)

	return r
}
