package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/store"
)

// ProfileHandler handles HTTP requests for calibration profiles.
type ProfileHandler struct {
	store    *store.Store
	pipeline Pipeline
}

// NewProfileHandler creates a ProfileHandler. pipeline may be nil, in which
// case activation is unavailable.
func NewProfileHandler(s *store.Store, p Pipeline) *ProfileHandler {
	return &ProfileHandler{store: s, pipeline: p}
}

// ServeHTTP routes /api/profiles, /api/profiles/{id},
// /api/profiles/{id}/activate and /api/profiles/{id}/history.
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/profiles")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	id, action, _ := strings.Cut(path, "/")
	switch action {
	case "":
	case "activate":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.activate(w, r, id)
		return
	case "history":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.history(w, r, id)
		return
	default:
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

type profileRequest struct {
	Name    string   `json:"name"`
	MinOpen *float64 `json:"minOpen"`
	MaxOpen *float64 `json:"maxOpen"`
}

type profileResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	MinOpen   *float64 `json:"minOpen"`
	MaxOpen   *float64 `json:"maxOpen"`
	Active    bool     `json:"active"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

type listProfilesResponse struct {
	Profiles []profileResponse `json:"profiles"`
}

type calibrationEventResponse struct {
	Bound     string  `json:"bound"`
	Value     float64 `json:"value"`
	CreatedAt string  `json:"created_at"`
}

type historyResponse struct {
	Events []calibrationEventResponse `json:"events"`
}

func (h *ProfileHandler) activeID() string {
	if h.pipeline == nil {
		return ""
	}
	return h.pipeline.State().ProfileID
}

func (h *ProfileHandler) toResponse(p *store.Profile) profileResponse {
	return profileResponse{
		ID:        p.ID,
		Name:      p.Name,
		MinOpen:   p.MinOpen,
		MaxOpen:   p.MaxOpen,
		Active:    p.ID == h.activeID(),
		CreatedAt: formatTime(p.CreatedAt),
		UpdatedAt: formatTime(p.UpdatedAt),
	}
}

// list handles GET /api/profiles.
func (h *ProfileHandler) list(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.Profiles().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list profiles")
		return
	}

	response := listProfilesResponse{Profiles: make([]profileResponse, 0, len(profiles))}
	for _, p := range profiles {
		response.Profiles = append(response.Profiles, h.toResponse(p))
	}
	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/profiles/{id}.
func (h *ProfileHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		h.writeStoreError(w, err, "Failed to get profile")
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(p))
}

// create handles POST /api/profiles.
func (h *ProfileHandler) create(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	p := &store.Profile{
		ID:      uuid.New().String(),
		Name:    strings.TrimSpace(req.Name),
		MinOpen: req.MinOpen,
		MaxOpen: req.MaxOpen,
	}
	if err := h.store.Profiles().Create(p); err != nil {
		h.writeStoreError(w, err, "Failed to create profile")
		return
	}

	writeJSON(w, http.StatusCreated, h.toResponse(p))
}

// update handles PUT /api/profiles/{id}. Name is kept when empty; both bounds
// are replaced, so a missing bound clears it.
func (h *ProfileHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		h.writeStoreError(w, err, "Failed to get profile")
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		p.Name = name
	}
	p.MinOpen = req.MinOpen
	p.MaxOpen = req.MaxOpen

	if err := h.store.Profiles().Update(p); err != nil {
		h.writeStoreError(w, err, "Failed to update profile")
		return
	}

	if h.pipeline != nil && p.ID == h.activeID() {
		if err := h.pipeline.ReloadProfile(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to reload active profile")
			return
		}
	}

	writeJSON(w, http.StatusOK, h.toResponse(p))
}

// delete handles DELETE /api/profiles/{id}. The active profile cannot be deleted.
func (h *ProfileHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if id == h.activeID() {
		writeError(w, http.StatusConflict, "Cannot delete the active profile")
		return
	}

	if err := h.store.Profiles().Delete(id); err != nil {
		h.writeStoreError(w, err, "Failed to delete profile")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// activate handles POST /api/profiles/{id}/activate.
func (h *ProfileHandler) activate(w http.ResponseWriter, r *http.Request, id string) {
	if h.pipeline == nil {
		writeError(w, http.StatusServiceUnavailable, "Pipeline not available")
		return
	}

	if err := h.pipeline.ActivateProfile(r.Context(), id); err != nil {
		h.writeStoreError(w, err, "Failed to activate profile")
		return
	}

	writeJSON(w, http.StatusOK, h.pipeline.State())
}

// history handles GET /api/profiles/{id}/history.
func (h *ProfileHandler) history(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.store.Profiles().GetByID(id); err != nil {
		h.writeStoreError(w, err, "Failed to get profile")
		return
	}

	events, err := h.store.Profiles().History(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}

	response := historyResponse{Events: make([]calibrationEventResponse, 0, len(events))}
	for _, e := range events {
		response.Events = append(response.Events, calibrationEventResponse{
			Bound:     string(e.Bound),
			Value:     e.Value,
			CreatedAt: formatTime(e.CreatedAt),
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *ProfileHandler) writeStoreError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Profile not found")
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "Profile name already exists")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
