package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/mudra/internal/store"
)

// SettingsHandler serves the viewer's color and sprite shape.
type SettingsHandler struct {
	store    *store.Store
	pipeline Pipeline
}

// NewSettingsHandler creates a SettingsHandler. With a pipeline, updates
// are applied live; without one they are only stored.
func NewSettingsHandler(s *store.Store, p Pipeline) *SettingsHandler {
	return &SettingsHandler{store: s, pipeline: p}
}

// ServeHTTP handles GET and PUT /api/settings.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.put(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *SettingsHandler) get(w http.ResponseWriter, r *http.Request) {
	v, err := h.store.Settings().Viewer()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// put merges the fields present in the body over the stored settings.
func (h *SettingsHandler) put(w http.ResponseWriter, r *http.Request) {
	v, err := h.store.Settings().Viewer()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load settings")
		return
	}

	var req struct {
		Color *string `json:"color"`
		Shape *string `json:"shape"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Color != nil {
		v.Color = *req.Color
	}
	if req.Shape != nil {
		v.Shape = *req.Shape
	}

	if h.pipeline != nil {
		err = h.pipeline.ApplySettings(r.Context(), v)
	} else {
		err = h.store.Settings().SaveViewer(v)
	}
	if errors.Is(err, store.ErrInvalidSetting) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}

	writeJSON(w, http.StatusOK, v)
}
