package server

import (
	"encoding/json"
	"net/http"

	"github.com/showtimehq/doorlist/internal/events"
	"github.com/showtimehq/doorlist/internal/model"
)

type checkInInput struct {
	// Payload is the scanned QR payload or a typed token; the resolver
	// handles normalization.
	Payload string `json:"payload"`
	// EventID scopes the door: guests from other events are turned away.
	EventID string `json:"event_id"`
}

// handleCheckIn handles POST /v1/checkin. The three outcomes are data, not
// transport errors: a turned-away guest is still a 200.
func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	var in checkInInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if in.EventID == "" {
		writeError(w, http.StatusBadRequest, "event_id is required")
		return
	}

	result := s.resolver.CheckIn(r.Context(), in.Payload, in.EventID)

	switch result.Status {
	case model.CheckInSuccess:
		s.publish(r.Context(), events.TopicGuestCheckedIn, events.GuestCheckedIn{Guest: result.Guest})
	case model.CheckInDuplicate:
		s.publish(r.Context(), events.TopicGuestCheckedIn, events.GuestCheckedIn{
			Guest:     result.Guest,
			Duplicate: true,
		})
	case model.CheckInNotFound:
		s.publish(r.Context(), events.TopicCheckInDenied, events.CheckInDenied{
			Token:      in.Payload,
			EventID:    in.EventID,
			CrossEvent: result.CrossEvent,
		})
	}

	writeJSON(w, http.StatusOK, result)
}
