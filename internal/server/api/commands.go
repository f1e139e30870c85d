package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/app"
)

// CommandHandler applies pipeline commands posted by the viewer.
type CommandHandler struct {
	pipeline Pipeline
}

// NewCommandHandler creates a CommandHandler for the given pipeline.
func NewCommandHandler(p Pipeline) *CommandHandler {
	return &CommandHandler{pipeline: p}
}

type listCommandsResponse struct {
	Commands []app.Command `json:"commands"`
}

// ServeHTTP handles GET /api/commands and POST /api/commands/{name}.
func (h *CommandHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/commands"), "/")

	if name == "" {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, listCommandsResponse{Commands: app.Commands()})
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	cmd, err := app.ParseCommand(name)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	state, err := h.pipeline.Execute(r.Context(), cmd)
	switch {
	case errors.Is(err, app.ErrNotRunning):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to apply command")
	default:
		writeJSON(w, http.StatusOK, state)
	}
}
