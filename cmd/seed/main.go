package main

import (
	"context"
	"log"

	"github.com/afabl/decision-matrix/internal/auth"
	"github.com/afabl/decision-matrix/internal/config"
	"github.com/afabl/decision-matrix/internal/db"
	"github.com/afabl/decision-matrix/internal/matrices"
	"github.com/afabl/decision-matrix/internal/seeds"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal(config.ErrMissingDatabaseURL)
	}

	d, err := db.Connect(cfg.DatabaseURL, cfg.DBSlowThreshold)
	if err != nil {
		log.Fatal(err)
	}
	if err := auth.Migrate(d); err != nil {
		log.Fatal(err)
	}
	if err := matrices.Migrate(d); err != nil {
		log.Fatal(err)
	}

	hasher := auth.NewPasswordHasher(cfg.Auth.Argon2, cfg.Auth.HashConcurrency)
	if err := seeds.SeedAll(context.Background(), d, hasher); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
}
