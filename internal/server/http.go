package server

import (
	"encoding/json"
	"net/http"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *Server) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/events", s.handleCreateEvent)
	mux.HandleFunc("GET /v1/events", s.handleListEvents)
	mux.HandleFunc("DELETE /v1/events/{id}", s.handleDeleteEvent)
	mux.HandleFunc("POST /v1/guests", s.handleCreateGuest)
	mux.HandleFunc("GET /v1/guests", s.handleListGuests)
	mux.HandleFunc("GET /v1/guests/{id}", s.handleGetGuest)
	mux.HandleFunc("DELETE /v1/guests/{id}", s.handleDeleteGuest)
	mux.HandleFunc("POST /v1/checkin", s.handleCheckIn)
	mux.HandleFunc("GET /v1/checkin/stream", s.handleEventStream)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	return AuthMiddleware(authToken, mux)
}

// handleHealth handles GET /v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatus handles GET /v1/status. A plain store has no sync layer and
// reports as online with nothing pending.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	if sr, ok := s.store.(statusReporter); ok {
		writeJSON(w, http.StatusOK, sr.Status())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"offline":           false,
		"pending_mutations": 0,
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
