package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes returns the /auth router. The confirmation link route is
// registered at the root by ConfirmRoute.
func SetupRoutes(h *Handlers, mw *Middleware) http.Handler {
	r := chi.NewRouter()
	r.Use(mw.Handler)

	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)
	r.Post("/resend-confirmation-email", h.ResendConfirmation)
	r.Post("/signout", h.Signout)

	r.With(RequireSession).Get("/me", h.Me)

	return r
}

// ConfirmRoute registers GET /confirm-email/{id}, the path mailed to users.
func ConfirmRoute(r chi.Router, h *Handlers) {
	r.Get("/confirm-email/{id}", h.ConfirmEmail)
}
