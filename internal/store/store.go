// Package store defines the persistence interface for the guest roster.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/showtimehq/doorlist/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrAlreadyCheckedIn is returned by MarkCheckedIn when the guest's
// checked-in timestamp was already set by an earlier (or concurrent)
// writer. The accompanying guest carries the existing state.
var ErrAlreadyCheckedIn = errors.New("store: guest already checked in")

// Store is the authoritative roster: events, guests, and check-in state.
type Store interface {
	// CreateEvent persists a new event. The event's ID is assigned by the
	// store if empty.
	CreateEvent(ctx context.Context, event *model.Event) error
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	ListEvents(ctx context.Context) ([]*model.Event, error)

	// ListEventSummaries returns every event with its guest and
	// checked-in counters.
	ListEventSummaries(ctx context.Context) ([]*model.EventSummary, error)

	// DeleteEvent removes the event and every guest registered under it.
	// The cascade is all-or-nothing: a partial failure must not leave
	// orphaned guests behind.
	DeleteEvent(ctx context.Context, id string) error

	// CreateGuest persists a new guest, minting a roster-unique token
	// into guest.ID. Returns idgen.ErrCapacityExceeded (wrapped) if the
	// token space is exhausted.
	CreateGuest(ctx context.Context, guest *model.Guest) error
	GetGuest(ctx context.Context, id string) (*model.Guest, error)
	ListGuests(ctx context.Context, filter model.GuestFilter) ([]*model.Guest, int, error)
	DeleteGuest(ctx context.Context, id string) error

	// MarkCheckedIn is a compare-and-swap: it sets the guest's checked-in
	// timestamp only if it is currently null. On success it returns the
	// updated guest. If another writer got there first it returns the
	// existing guest together with ErrAlreadyCheckedIn; it never
	// overwrites a timestamp that is already set.
	MarkCheckedIn(ctx context.Context, id string, at time.Time) (*model.Guest, error)

	// Lifecycle
	Close() error
}
