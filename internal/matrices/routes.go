package matrices

import (
	"net/http"

	"github.com/afabl/decision-matrix/internal/auth"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes returns the /matrices router. Every route requires a session
// with a confirmed email.
func SetupRoutes(h *Handlers, mw *auth.Middleware) http.Handler {
	r := chi.NewRouter()
	r.Use(mw.Handler)
	r.Use(auth.RequireSession)
	r.Use(auth.RequireVerifiedEmailHandler)
	Register(r, h)
	return r
}

// Register adds the matrix endpoints to r without any access checks.
func Register(r chi.Router, h *Handlers) {
	r.Get("/", h.List)
	r.Post("/matrix", h.Create)
	r.Get("/matrix/{id}", h.Get)
	r.Put("/matrix/{id}", h.Update)
	r.Delete("/matrix/{id}", h.Delete)
}
