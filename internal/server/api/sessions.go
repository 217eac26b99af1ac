// Package api provides store-backed HTTP API handlers for the Madhubani
// drawing board.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ayusman/madhubani/internal/store"
)

// DefaultSessionLimit is how many sessions a list request returns when the
// client does not ask for a count.
const DefaultSessionLimit = 20

// MaxSessionLimit caps how many sessions one request may return.
const MaxSessionLimit = 100

// SessionsHandler handles HTTP requests for recorded drawing sessions.
type SessionsHandler struct {
	store *store.Store
}

// NewSessionsHandler creates a new SessionsHandler with the given store.
func NewSessionsHandler(s *store.Store) *SessionsHandler {
	return &SessionsHandler{store: s}
}

type sessionResponse struct {
	ID        int64   `json:"id"`
	StartedAt string  `json:"started_at"`
	EndedAt   *string `json:"ended_at"`
	Frames    int64   `json:"frames"`
	Strokes   int64   `json:"strokes"`
	Dissolves int64   `json:"dissolves"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toResponse converts a store.Session to a sessionResponse.
func toResponse(s store.Session) sessionResponse {
	resp := sessionResponse{
		ID:        s.ID,
		StartedAt: s.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
		Frames:    s.Frames,
		Strokes:   s.Strokes,
		Dissolves: s.Dissolves,
	}
	if s.EndedAt != nil {
		ended := s.EndedAt.Format("2006-01-02T15:04:05Z07:00")
		resp.EndedAt = &ended
	}
	return resp
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

// ServeHTTP handles GET /api/sessions and lists recent sessions, newest
// first.
func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := DefaultSessionLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		if n > MaxSessionLimit {
			n = MaxSessionLimit
		}
		limit = n
	}

	sessions, err := h.store.Sessions().Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	response := listSessionsResponse{
		Sessions: make([]sessionResponse, 0, len(sessions)),
	}
	for _, s := range sessions {
		response.Sessions = append(response.Sessions, toResponse(s))
	}

	writeJSON(w, http.StatusOK, response)
}
