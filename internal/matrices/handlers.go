package matrices

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/afabl/decision-matrix/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Handlers struct {
	store    Store
	validate *validator.Validate
}

func NewHandlers(store Store) *Handlers {
	return &Handlers{
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type updateRequest struct {
	Name    string      `json:"name" validate:"required,max=255"`
	Choices []string    `json:"choices" validate:"max=64,dive,max=255"`
	Factors []string    `json:"factors" validate:"max=64,dive,max=255"`
	Scores  [][]float64 `json:"scores"`
}

func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	user, _, _ := auth.CurrentUser(r.Context())

	list, err := h.store.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	user, _, _ := auth.CurrentUser(r.Context())

	m := NewMatrix(uuid.NewString(), user.ID)
	if err := h.store.Create(r.Context(), m); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	user, _, _ := auth.CurrentUser(r.Context())

	m, err := h.store.Get(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Update replaces the name, labels and scores of the caller's matrix.
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	user, _, _ := auth.CurrentUser(r.Context())

	var req updateRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			http.Error(w, "Invalid field: "+verrs[0].Field(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	m := Matrix{
		ID:      chi.URLParam(r, "id"),
		UserID:  user.ID,
		Name:    req.Name,
		Choices: req.Choices,
		Factors: req.Factors,
		Scores:  req.Scores,
	}
	if m.Choices == nil {
		m.Choices = []string{}
	}
	if m.Factors == nil {
		m.Factors = []string{}
	}
	if m.Scores == nil {
		m.Scores = Scores{}
	}
	if err := m.CheckShape(); err != nil {
		writeError(w, err)
		return
	}

	if err := h.store.Update(r.Context(), m); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	user, _, _ := auth.CurrentUser(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.store.Delete(r.Context(), user.ID, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "Not Found", http.StatusNotFound)
	case errors.Is(err, ErrScoresShape):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("[matrices] %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[matrices] encode response: %v", err)
	}
}
