// Package client provides a transport-agnostic interface for the doorlist
// service and an HTTP/JSON implementation that talks to the doorlist REST API.
package client

import (
	"context"

	"github.com/showtimehq/doorlist/internal/model"
	"github.com/showtimehq/doorlist/internal/roster"
)

// DoorlistClient is the interface that all doorlist CLI commands use to
// communicate with the server. It is implemented by HTTPClient (default)
// and can be backed by any transport.
type DoorlistClient interface {
	// Events
	CreateEvent(ctx context.Context, name string) (*model.Event, error)
	ListEvents(ctx context.Context) ([]*model.EventSummary, error)
	DeleteEvent(ctx context.Context, id string) error

	// Guests
	CreateGuest(ctx context.Context, req *CreateGuestRequest) (*model.Guest, error)
	GetGuest(ctx context.Context, id string) (*model.Guest, error)
	ListGuests(ctx context.Context, req *ListGuestsRequest) (*ListGuestsResponse, error)
	DeleteGuest(ctx context.Context, id string) error

	// Door
	CheckIn(ctx context.Context, payload, eventID string) (*model.CheckInResult, error)

	// Sync status
	Status(ctx context.Context) (*roster.Status, error)

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// CreateGuestRequest holds parameters for registering a guest.
type CreateGuestRequest struct {
	Name        string `json:"name"`
	Company     string `json:"company,omitempty"`
	AccessLevel int    `json:"access_level"`
	EventID     string `json:"event_id"`
	InvitedBy   string `json:"invited_by,omitempty"`
}

// ListGuestsRequest holds parameters for listing guests.
type ListGuestsRequest struct {
	EventID   string `json:"event_id,omitempty"`
	CheckedIn *bool  `json:"checked_in,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

// ListGuestsResponse is the response from ListGuests.
type ListGuestsResponse struct {
	Guests []*model.Guest `json:"guests"`
	Total  int            `json:"total"`
}
