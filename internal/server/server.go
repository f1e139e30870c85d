// Package server provides the HTTP server for the mudra viewer: the REST
// API, the viewer WebSocket, the MJPEG camera feed and the static viewer files.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       *app.App
}

// Server represents the HTTP server for the mudra application.
type Server struct {
	config Config
	mux    *http.ServeMux
	hub    *Hub
	start  time.Time

	mu   sync.Mutex
	http *http.Server
}

// New creates a new Server with the given configuration. When an App is
// configured the server's hub is registered as one of its sinks.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	if config.App != nil {
		s.hub = NewHub(config.App)
		config.App.AddSink(s.hub)
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	var pipeline api.Pipeline
	if s.config.App != nil {
		pipeline = s.config.App

		s.mux.HandleFunc("/api/state", s.handleState)

		commands := api.NewCommandHandler(pipeline)
		s.mux.Handle("/api/commands", commands)
		s.mux.Handle("/api/commands/", commands)

		s.mux.Handle("/api/stream", NewStreamHandler(s.config.App.Feed()))
		s.mux.Handle("/ws", s.hub)
	}

	if s.config.Store != nil {
		profiles := api.NewProfileHandler(s.config.Store, pipeline)
		s.mux.Handle("/api/profiles", profiles)
		s.mux.Handle("/api/profiles/", profiles)
		s.mux.Handle("/api/settings", api.NewSettingsHandler(s.config.Store, pipeline))
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// Hub returns the viewer hub, or nil without an App.
func (s *Server) Hub() *Hub {
	return s.hub
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.App != nil {
		response["source"] = s.config.App.Source()
	}
	if s.hub != nil {
		response["viewers"] = s.hub.Clients()
	}

	writeJSON(w, response)
}

// handleState handles GET /api/state with the latest published state.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.config.App.State())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ListenAndServe starts the HTTP server on the given address and blocks
// until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}
	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()

	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown disconnects viewers and stops accepting requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.hub != nil {
		s.hub.Close()
	}
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
