// Package server provides the HTTP surface for the Madhubani drawing board.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ayusman/madhubani/internal/board"
	"github.com/ayusman/madhubani/internal/menu"
	"github.com/ayusman/madhubani/internal/server/api"
	"github.com/ayusman/madhubani/internal/store"
)

// App is the surface the HTTP layer needs from the frame loop. Reads come
// from published per-frame copies; writes are queued and applied by the
// loop between frames, so every mutating endpoint answers 202.
type App interface {
	LatestState() board.Snapshot
	LatestFrame() ([]byte, uint64)
	UpdateSettings(u menu.Update) error
	CloseMenu()
	SetRegions(regions []menu.Region)
	Regions() []menu.Region
	OnSelection(fn func(menu.Region))
	OnHover(fn func(id string, active bool))
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       App
}

// Server represents the HTTP server for the Madhubani application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	// Register live board endpoints if the frame loop is configured
	if s.config.App != nil {
		s.mux.HandleFunc("/api/board", s.handleBoard)
		s.mux.HandleFunc("/api/settings", s.handleSettings)
		s.mux.HandleFunc("/api/regions", s.handleRegions)
		s.mux.HandleFunc("/api/menu/close", s.handleMenuClose)
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.App))
		s.mux.Handle("/api/events", NewEventsHandler(s.config.App))
	}

	// Register session history if Store is configured
	if s.config.Store != nil {
		s.mux.Handle("/api/sessions", api.NewSessionsHandler(s.config.Store))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type errorResponse struct {
	Error string `json:"error"`
}

type queuedResponse struct {
	Queued bool `json:"queued"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
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

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}
	if s.config.App != nil {
		response["mode"] = s.config.App.LatestState().Mode
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// handleBoard handles GET requests to /api/board with the latest published
// snapshot.
func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, s.config.App.LatestState())
}

// handleSettings handles GET and PUT requests to /api/settings.
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.config.App.LatestState().Style)

	case http.MethodPut:
		var u menu.Update
		if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}

		if err := s.config.App.UpdateSettings(u); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		writeJSON(w, http.StatusAccepted, queuedResponse{Queued: true})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type regionsRequest struct {
	Regions []menu.Region `json:"regions"`
}

type regionsResponse struct {
	Regions []menu.Region `json:"regions"`
}

// handleRegions handles GET and PUT requests to /api/regions.
func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, regionsResponse{Regions: s.config.App.Regions()})

	case http.MethodPut:
		var req regionsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}

		if err := validateRegions(req.Regions); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		s.config.App.SetRegions(req.Regions)
		writeJSON(w, http.StatusAccepted, queuedResponse{Queued: true})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleMenuClose handles POST requests to /api/menu/close.
func (s *Server) handleMenuClose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.config.App.CloseMenu()
	writeJSON(w, http.StatusAccepted, queuedResponse{Queued: true})
}

// validateRegions rejects a layout before it reaches the dwell engine: IDs
// must be unique and non-empty, bounds must have positive extent, and every
// region must stand for a valid settings change.
func validateRegions(regions []menu.Region) error {
	seen := make(map[string]bool, len(regions))
	for i, region := range regions {
		if region.ID == "" {
			return fmt.Errorf("region %d: missing id", i)
		}
		if seen[region.ID] {
			return fmt.Errorf("region %s: duplicate id", region.ID)
		}
		seen[region.ID] = true

		if region.Bounds.W <= 0 || region.Bounds.H <= 0 {
			return fmt.Errorf("region %s: empty bounds", region.ID)
		}

		if _, err := (menu.Selection{Region: region}).Update(); err != nil {
			return err
		}
	}
	return nil
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
