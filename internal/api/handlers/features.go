package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"bullhorn/internal/core"
)

// FeatureFlags is the subset of configuration surfaced to the authoring
// frontend so it can hide disabled UI.
type FeatureFlags struct {
	EnableReplies bool `json:"enableReplies"`
}

// FeatureHandler serves the feature flag snapshot.
type FeatureHandler struct {
	flags FeatureFlags
}

// NewFeatureHandler creates a FeatureHandler for the given flags.
func NewFeatureHandler(flags FeatureFlags) *FeatureHandler {
	return &FeatureHandler{flags: flags}
}

// RegisterRoutes mounts the feature routes on the provided chi.Router.
func (h *FeatureHandler) RegisterRoutes(r chi.Router) {
	r.Get("/features", h.Get)
}

// Get handles GET /v1/features.
func (h *FeatureHandler) Get(w http.ResponseWriter, r *http.Request) {
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: h.flags})
}
