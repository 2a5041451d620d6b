package main

import (
	"context"
	"database/sql"
	"fleet-planning-service/internal/adapters/repositories"
	"fleet-planning-service/internal/config"
	"fleet-planning-service/internal/ingest"
	"fleet-planning-service/internal/platform/db"
	"fmt"
	"log"

	"github.com/joho/godotenv"
)

// dbtool creates the schedule tables and seeds them, from a JSON file
// (SEED_PATH) or from a directory of CSV exports (SEED_CSV_DIR).
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := config.Get("DATABASE_URL", "")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, databaseURL, db.DefaultPool())
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	if err := initAndSeed(ctx, conn); err != nil {
		log.Fatal(err)
	}
}

func initAndSeed(ctx context.Context, conn *sql.DB) error {
	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	log.Println("Schema ready.")

	if dir := config.Get("SEED_CSV_DIR", ""); dir != "" {
		var optional []int
		if raw := config.Get("OPTIONAL_FLIGHTS", ""); raw != "" {
			var err error
			if optional, err = ingest.ParseLegs(raw); err != nil {
				return fmt.Errorf("OPTIONAL_FLIGHTS: %w", err)
			}
		}

		log.Printf("Seeding database from csv dir=%s", dir)
		s, err := repositories.LoadSeedCSV(dir, optional)
		if err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
		if err := repositories.SaveSchedule(ctx, conn, s); err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
		log.Printf("Seeding complete. flights=%d fleets=%d itineraries=%d airports=%d",
			len(s.Flights), len(s.Fleets), len(s.Itineraries), len(s.Airports))
		return nil
	}

	seedPath := config.Get("SEED_PATH", "data/seeds/schedule.json")
	log.Printf("Seeding database from json path=%s", seedPath)
	if err := repositories.SeedFromJSON(ctx, conn, seedPath); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	log.Println("Seeding complete.")

	return nil
}
