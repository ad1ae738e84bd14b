package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Handlers serves the /auth endpoints.
type Handlers struct {
	svc         *Service
	cookies     CookieCodec
	frontendURL string
	validate    *validator.Validate
}

func NewHandlers(svc *Service, cookies CookieCodec, frontendURL string) *Handlers {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return &Handlers{
		svc:         svc,
		cookies:     cookies,
		frontendURL: frontendURL,
		validate:    v,
	}
}

type signupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=31,username"`
	Password string `json:"password" validate:"required,min=6,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
}

type credentialsRequest struct {
	Username string `json:"username" validate:"required,min=3,max=31,username"`
	Password string `json:"password" validate:"required,min=6,max=255"`
}

type sessionResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Fresh     bool      `json:"fresh"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type authResponse struct {
	TokenType string          `json:"tokenType"`
	Session   sessionResponse `json:"session"`
	Username  string          `json:"username"`
}

type MeResponse struct {
	UserID        string `json:"user_id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !h.decode(w, r, &req) {
		return
	}

	_, err := h.svc.Signup(r.Context(), SignupInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, sess, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, h.cookies.Encode(sess))
	writeJSON(w, http.StatusOK, authResponse{
		TokenType: "Bearer",
		Session: sessionResponse{
			ID:        sess.ID,
			UserID:    sess.UserID,
			Fresh:     sess.Fresh,
			ExpiresAt: sess.ExpiresAt,
		},
		Username: user.Username,
	})
}

func (h *Handlers) ResendConfirmation(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.svc.ResendConfirmation(r.Context(), req.Username, req.Password); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ConfirmEmail redeems the token in the {id} path segment and redirects to the frontend.
func (h *Handlers) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	tokenID := chi.URLParam(r, "id")

	_, err := h.svc.ConfirmEmail(r.Context(), tokenID)
	switch {
	case err == nil:
		http.Redirect(w, r, h.frontendURL+"/login", http.StatusFound)
	case errors.Is(err, ErrTokenExpired):
		http.Redirect(w, r, h.frontendURL+"/email-confirmation-expired", http.StatusFound)
	default:
		writeError(w, err)
	}
}

// Signout ends the caller's session, whether it arrived as a cookie or a bearer token.
func (h *Handlers) Signout(w http.ResponseWriter, r *http.Request) {
	var sessionID string
	if _, sess, ok := CurrentUser(r.Context()); ok {
		sessionID = sess.ID
	} else if id, ok := DecodeBearer(r.Header.Get("Authorization")); ok {
		sessionID = id
	}

	if err := h.svc.Signout(r.Context(), sessionID); err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, h.cookies.Blank())
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	user, _, ok := CurrentUser(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, MeResponse{
		UserID:        user.ID,
		Username:      user.Username,
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
	})
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			http.Error(w, "Invalid field: "+verrs[0].Field(), http.StatusBadRequest)
			return false
		}
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return false
	}
	return true
}

// statusFor maps auth errors to the message and status shown to clients.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusBadRequest, "Invalid username or password"
	case errors.Is(err, ErrEmailNotVerified):
		return http.StatusBadRequest, "Email not verified"
	case errors.Is(err, ErrEmailAlreadyVerified):
		return http.StatusBadRequest, "Email already verified"
	case errors.Is(err, ErrUserExists):
		return http.StatusConflict, "Username or email already taken"
	case errors.Is(err, ErrTokenMismatch):
		return http.StatusBadRequest, "Problem confirming email"
	case errors.Is(err, ErrTokenExpired):
		return http.StatusBadRequest, "Email confirmation link expired"
	case errors.Is(err, ErrDeliveryFailed):
		return http.StatusBadGateway, "Unable to send confirmation email"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[auth] %s: %v", msg, err)
	}
	writeJSON(w, status, map[string]string{"message": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[auth] encode response: %v", err)
	}
}
