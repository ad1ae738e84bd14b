package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/afabl/decision-matrix/internal/auth"
	"github.com/afabl/decision-matrix/internal/config"
	"github.com/afabl/decision-matrix/internal/db"
	"github.com/afabl/decision-matrix/internal/mailer"
	"github.com/afabl/decision-matrix/internal/matrices"
	"github.com/afabl/decision-matrix/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
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

	sender, err := mailer.New(cfg.Mail)
	if err != nil {
		log.Fatal(err)
	}
	authModule, err := auth.New(cfg.Auth, auth.NewGormStore(d), sender)
	if err != nil {
		log.Fatal(err)
	}
	matrixHandlers := matrices.NewHandlers(matrices.NewGormStore(d))

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Get("/", RootHandler)

	r.Mount("/auth", auth.SetupRoutes(authModule.Handlers, authModule.Middleware))
	r.Group(func(r chi.Router) {
		r.Use(authModule.Middleware.Handler)
		auth.ConfirmRoute(r, authModule.Handlers)
	})
	r.Mount("/matrices", matrices.SetupRoutes(matrixHandlers, authModule.Middleware))

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Server listening on port :%s...", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
