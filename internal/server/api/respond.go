// Package api provides the HTTP handlers for profiles, viewer settings and
// pipeline commands.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/store"
)

// Pipeline is the running gesture pipeline the handlers drive.
type Pipeline interface {
	State() app.State
	Execute(ctx context.Context, cmd app.Command) (app.State, error)
	ActivateProfile(ctx context.Context, id string) error
	ReloadProfile(ctx context.Context) error
	ApplySettings(ctx context.Context, v store.ViewerSettings) error
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}
