package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/showtimehq/doorlist/internal/events"
	"github.com/showtimehq/doorlist/internal/idgen"
	"github.com/showtimehq/doorlist/internal/model"
	"github.com/showtimehq/doorlist/internal/store"
)

type createGuestInput struct {
	Name        string `json:"name"`
	Company     string `json:"company"`
	AccessLevel int    `json:"access_level"`
	EventID     string `json:"event_id"`
	InvitedBy   string `json:"invited_by"`
}

// handleCreateGuest handles POST /v1/guests. The token is minted by the
// store; clients never choose it.
func (s *Server) handleCreateGuest(w http.ResponseWriter, r *http.Request) {
	var in createGuestInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	guest := &model.Guest{
		EventID:     strings.TrimSpace(in.EventID),
		Name:        strings.TrimSpace(in.Name),
		Company:     strings.TrimSpace(in.Company),
		AccessLevel: model.AccessLevel(in.AccessLevel),
		InvitedBy:   strings.TrimSpace(in.InvitedBy),
		CreatedAt:   time.Now().UTC(),
	}
	if err := model.ValidateGuest(guest); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.CreateGuest(r.Context(), guest); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "event not found")
		case errors.Is(err, idgen.ErrCapacityExceeded):
			writeError(w, http.StatusInternalServerError, "token space exhausted")
		default:
			writeError(w, http.StatusInternalServerError, "failed to create guest")
		}
		return
	}

	s.publish(r.Context(), events.TopicGuestCreated, events.GuestCreated{Guest: guest})

	writeJSON(w, http.StatusCreated, guest)
}

// handleListGuests handles GET /v1/guests.
func (s *Server) handleListGuests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.GuestFilter{
		EventID: q.Get("event_id"),
	}
	if v := q.Get("checked_in"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			filter.CheckedIn = &b
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	guests, total, err := s.store.ListGuests(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list guests")
		return
	}

	// Ensure guests is never null in JSON output.
	if guests == nil {
		guests = []*model.Guest{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"guests": guests,
		"total":  total,
	})
}

// handleGetGuest handles GET /v1/guests/{id}.
func (s *Server) handleGetGuest(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	guest, err := s.store.GetGuest(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "guest not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get guest")
		return
	}

	writeJSON(w, http.StatusOK, guest)
}

// handleDeleteGuest handles DELETE /v1/guests/{id}.
func (s *Server) handleDeleteGuest(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	guest, err := s.store.GetGuest(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "guest not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete guest")
		return
	}

	if err := s.store.DeleteGuest(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "guest not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete guest")
		return
	}

	s.publish(r.Context(), events.TopicGuestDeleted, events.GuestDeleted{
		GuestID: id,
		EventID: guest.EventID,
	})

	w.WriteHeader(http.StatusNoContent)
}
