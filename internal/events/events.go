// Package events defines the roster activity topics published by the
// doorlist server, with NATS and no-op publisher implementations.
package events

import (
	"context"

	"github.com/showtimehq/doorlist/internal/model"
)

// Event topic constants
const (
	TopicEventCreated = "doorlist.event.created"
	TopicEventDeleted = "doorlist.event.deleted"

	TopicGuestCreated   = "doorlist.guest.created"
	TopicGuestDeleted   = "doorlist.guest.deleted"
	TopicGuestCheckedIn = "doorlist.guest.checked_in"

	// TopicCheckInDenied covers NOT_FOUND outcomes, including the
	// cross-event variant, so venue dashboards can surface turn-aways.
	TopicCheckInDenied = "doorlist.checkin.denied"
)

// Event types

type EventCreated struct {
	Event *model.Event `json:"event"`
}

type EventDeleted struct {
	EventID string `json:"event_id"`
	// GuestCount is the number of guests removed by the cascade.
	GuestCount int `json:"guest_count"`
}

type GuestCreated struct {
	Guest *model.Guest `json:"guest"`
}

type GuestDeleted struct {
	GuestID string `json:"guest_id"`
	EventID string `json:"event_id"`
}

type GuestCheckedIn struct {
	Guest *model.Guest `json:"guest"`
	// Duplicate is true when the scan resolved to ALREADY_CHECKED_IN.
	Duplicate bool `json:"duplicate,omitempty"`
}

type CheckInDenied struct {
	Token      string `json:"token"`
	EventID    string `json:"event_id"`
	CrossEvent bool   `json:"cross_event,omitempty"`
}

// Publisher publishes roster activity to an event bus.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
