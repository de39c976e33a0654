package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/showtimehq/doorlist/internal/events"
	"github.com/showtimehq/doorlist/internal/model"
	"github.com/showtimehq/doorlist/internal/store"
)

type createEventInput struct {
	Name string `json:"name"`
}

// handleCreateEvent handles POST /v1/events.
func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var in createEventInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// The store mints the event ID.
	event := &model.Event{
		Name:      strings.TrimSpace(in.Name),
		CreatedAt: time.Now().UTC(),
	}
	if err := model.ValidateEvent(event); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.CreateEvent(r.Context(), event); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create event")
		return
	}

	s.publish(r.Context(), events.TopicEventCreated, events.EventCreated{Event: event})

	writeJSON(w, http.StatusCreated, event)
}

// handleListEvents handles GET /v1/events. Each event carries its guest and
// checked-in counts for the organizer dashboard.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.store.ListEventSummaries(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	// Ensure events is never null in JSON output.
	if summaries == nil {
		summaries = []*model.EventSummary{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events": summaries,
		"total":  len(summaries),
	})
}

// handleDeleteEvent handles DELETE /v1/events/{id}. Deleting an event
// removes its guests with it.
func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	// Count the guests the cascade will remove before they are gone.
	_, guestCount, err := s.store.ListGuests(r.Context(), model.GuestFilter{EventID: id})
	if err != nil {
		guestCount = 0
	}

	if err := s.store.DeleteEvent(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete event")
		return
	}

	s.publish(r.Context(), events.TopicEventDeleted, events.EventDeleted{
		EventID:    id,
		GuestCount: guestCount,
	})

	w.WriteHeader(http.StatusNoContent)
}
