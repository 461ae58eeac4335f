package main

import (
	"log"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"parcel-delivery-service/internal/adapters/repositories"
	"parcel-delivery-service/internal/platform/db"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	database, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()

	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(database); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	log.Println("Seeding reference data...")
	if err := repositories.SeedReferenceData(database); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Println("Seeding complete.")
}
