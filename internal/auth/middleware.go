package auth

import (
	"log"
	"net/http"

	"github.com/afabl/decision-matrix/internal/config"
)

// Middleware resolves the Identity of every request.
type Middleware struct {
	sessions           *SessionManager
	csrf               CSRFGuard
	cookies            CookieCodec
	transport          config.Transport
	trustForwardedHost bool
}

func NewMiddleware(sessions *SessionManager, csrf CSRFGuard, cookies CookieCodec, cfg config.Auth) *Middleware {
	transport := cfg.Transport
	if transport == "" {
		transport = config.TransportBoth
	}
	return &Middleware{
		sessions:           sessions,
		csrf:               csrf,
		cookies:            cookies,
		transport:          transport,
		trustForwardedHost: cfg.TrustForwardedHost,
	}
}

// Authenticate validates the session carried by r and returns the caller's
// identity. It writes cookies or headers on w when the session was rotated
// or has to be cleared; it never modifies r.
//
// Mutating requests that carry the session cookie must pass the CSRF guard.
// A rejected cookie is ignored without consulting the session store.
// Bearer tokens skip the origin check. When both are present the bearer
// token is tried first and the cookie is used if it does not validate.
func (m *Middleware) Authenticate(w http.ResponseWriter, r *http.Request) (Identity, error) {
	var (
		bearerID, cookieID   string
		hasBearer, hasCookie bool
	)
	if m.transport != config.TransportCookie {
		bearerID, hasBearer = DecodeBearer(r.Header.Get("Authorization"))
	}
	if m.transport != config.TransportBearer {
		cookieID, hasCookie = m.cookies.FromRequest(r)
	}

	if hasCookie && IsMutating(r.Method) {
		if err := m.csrf.Check(r.Method, r.Header.Get("Origin"), m.requestHost(r)); err != nil {
			log.Printf("[auth] %s %s: %v", r.Method, r.URL.Path, err)
			hasCookie = false
		}
	}

	if hasBearer {
		identity, err := m.sessions.ValidateSession(r.Context(), bearerID)
		if err != nil {
			return Anonymous{}, err
		}
		if a, ok := identity.(Authenticated); ok {
			if a.Session.Fresh {
				w.Header().Set(SessionTokenHeader, a.Session.ID)
			}
			return a, nil
		}
	}
	if !hasCookie {
		return Anonymous{}, nil
	}

	identity, err := m.sessions.ValidateSession(r.Context(), cookieID)
	if err != nil {
		return Anonymous{}, err
	}
	switch v := identity.(type) {
	case Authenticated:
		if v.Session.Fresh {
			http.SetCookie(w, m.cookies.Encode(v.Session))
		}
	case Anonymous:
		http.SetCookie(w, m.cookies.Blank())
	}
	return identity, nil
}

// Handler runs Authenticate and passes the identity to next via the request context.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := m.Authenticate(w, r)
		if err != nil {
			log.Printf("[auth] validate session: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

func (m *Middleware) requestHost(r *http.Request) string {
	if m.trustForwardedHost {
		if h := r.Header.Get("X-Forwarded-Host"); h != "" {
			return h
		}
	}
	return r.Host
}

// RequireSession rejects Anonymous callers with 401.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFrom(r.Context()).(Authenticated); !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireVerifiedEmail returns ErrEmailNotVerified unless id is an
// authenticated user with a confirmed email.
func RequireVerifiedEmail(id Identity) error {
	a, ok := id.(Authenticated)
	if !ok || !a.User.EmailVerified {
		return ErrEmailNotVerified
	}
	return nil
}

// RequireVerifiedEmailHandler rejects callers failing RequireVerifiedEmail with 403.
func RequireVerifiedEmailHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := RequireVerifiedEmail(IdentityFrom(r.Context())); err != nil {
			http.Error(w, "Email not verified", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
