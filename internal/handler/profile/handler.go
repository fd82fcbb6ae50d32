package profile

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shikharsehgal1/tassnewnewinsurancebot/internal/model/profile"
	"github.com/shikharsehgal1/tassnewnewinsurancebot/pkg/utils"
)

// Handler exposes the active assistant profile.
type Handler struct {
	active profile.Profile
}

// New creates a profile handler.
func New(active profile.Profile) *Handler {
	return &Handler{active: active}
}

// RegisterRoutes registers the profile routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/profile", h.handleGetProfile)
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.active)
}
