package main

import (
	"context"
	"fleet-planning-service/internal/adapters/cache"
	"fleet-planning-service/internal/adapters/distance"
	"fleet-planning-service/internal/adapters/repositories"
	"fleet-planning-service/internal/api"
	"fleet-planning-service/internal/config"
	"fleet-planning-service/internal/domain"
	"fleet-planning-service/internal/platform/db"
	"fleet-planning-service/internal/platform/metrics"
	"fleet-planning-service/internal/ports"
	"fleet-planning-service/internal/services"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, haversine distances) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := config.Get("DATABASE_URL", "")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	port := config.Get("PORT", "8080")

	optimizer, err := config.Load(config.Get("OPTIMIZER_CONFIG", ""))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	pool := db.DefaultPool()
	pool.MaxOpenConns = config.GetInt("DB_MAX_CONNS", pool.MaxOpenConns)
	pool.MaxIdleConns = pool.MaxOpenConns
	conn, err := db.Open(ctx, databaseURL, pool)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	if err := repositories.InitSchema(ctx, conn); err != nil {
		log.Fatal(err)
	}

	// Distances persist across runs; coordinates posted with a request win
	// over the airports table.
	distanceCache := cache.NewSQLDistanceCache(conn)
	airportStore := cache.NewSQLAirportStore(conn)
	newProvider := func(airports []domain.Airport) ports.DistanceProvider {
		return distance.NewHaversineDistanceProvider(airports, distanceCache, airportStore)
	}

	repo := repositories.NewPostgresScheduleRepository(conn)
	reg := metrics.DefaultRegistry()
	planner := services.NewPlanner(optimizer, repo, newProvider, reg)
	router := api.NewRouter(planner, reg)

	// Write timeout covers the solver time limit plus the routing search timeout.
	writeTimeout := optimizer.Solver.TimeLimit + optimizer.Routing.Timeout + 10*time.Second

	log.Printf("Server listening addr=:%s", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}
