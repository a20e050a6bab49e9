package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/ignite/publisher-inbox/internal/config"
	"github.com/ignite/publisher-inbox/internal/storage"
)

func main() {
	godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := storage.Open(config.DatabaseConfig{URL: dsn})
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer db.Close()
	log.Println("Connected to database")

	if err := storage.EnsureSchema(context.Background(), db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("Schema ensured")
}
