package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/afabl/decision-matrix/internal/auth"
	"github.com/afabl/decision-matrix/internal/db"
	"github.com/afabl/decision-matrix/internal/matrices"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env.local")

	var (
		dbURL = flag.String("db", os.Getenv("DATABASE_URL"), "DATABASE_URL")
		prune = flag.Bool("prune", false, "also delete expired sessions and email verification tokens")
	)
	flag.Parse()

	if *dbURL == "" {
		flag.Usage()
		os.Exit(2)
	}

	d, err := db.Connect(*dbURL, time.Second)
	if err != nil {
		log.Fatal(err)
	}

	if err := auth.Migrate(d); err != nil {
		log.Fatalf("[migrate] %v", err)
	}
	if err := matrices.Migrate(d); err != nil {
		log.Fatalf("[migrate] %v", err)
	}
	log.Println("[migrate] schema up to date")

	if *prune {
		sessions, tokens, err := auth.PruneExpired(d, time.Now())
		if err != nil {
			log.Fatalf("[migrate] %v", err)
		}
		log.Printf("[migrate] pruned %d sessions, %d email verification tokens", sessions, tokens)
	}
}
