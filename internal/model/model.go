// Package model defines the core domain types for the doorlist service.
package model

import "time"

// AccessLevel is the display-only guest classification. It carries no
// enforcement semantics; controllers use it for badge styling only.
type AccessLevel int

const (
	AccessLevel1 AccessLevel = 1
	AccessLevel2 AccessLevel = 2
	AccessLevel3 AccessLevel = 3
)

// IsValid checks whether the access level is a known tier.
func (l AccessLevel) IsValid() bool {
	switch l {
	case AccessLevel1, AccessLevel2, AccessLevel3:
		return true
	}
	return false
}

// Event is a venue event owning a set of guests.
type Event struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Guest is a single invitee on the roster. ID doubles as the scannable
// token and is unique across the entire roster, not just within an event,
// so a scanned token resolves without knowing its event first.
type Guest struct {
	ID          string      `json:"id"`
	EventID     string      `json:"event_id"`
	Name        string      `json:"name"`
	Company     string      `json:"company"`
	AccessLevel AccessLevel `json:"access_level"`
	CheckedInAt *time.Time  `json:"checked_in_at,omitempty"`
	InvitedBy   string      `json:"invited_by,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// IsCheckedIn reports whether the guest has already been admitted.
func (g *Guest) IsCheckedIn() bool {
	return g.CheckedInAt != nil
}

// Clone returns a deep copy of the guest.
func (g *Guest) Clone() *Guest {
	clone := *g
	if g.CheckedInAt != nil {
		t := *g.CheckedInAt
		clone.CheckedInAt = &t
	}
	return &clone
}

// CheckInStatus is the terminal outcome of a check-in attempt.
type CheckInStatus string

const (
	CheckInSuccess   CheckInStatus = "SUCCESS"
	CheckInDuplicate CheckInStatus = "ALREADY_CHECKED_IN"
	CheckInNotFound  CheckInStatus = "NOT_FOUND"
)

// IsValid checks whether the status is a known value.
func (s CheckInStatus) IsValid() bool {
	switch s {
	case CheckInSuccess, CheckInDuplicate, CheckInNotFound:
		return true
	}
	return false
}

// CheckInResult is the outcome surfaced to controllers for every check-in
// attempt. Guest is nil for NOT_FOUND unless the token resolved to a guest
// outside the controller's selected event; in that case CrossEvent is true
// and the guest is returned with its true event name substituted into the
// Company field so staff can redirect the visitor.
type CheckInResult struct {
	Status CheckInStatus `json:"status"`
	Guest  *Guest        `json:"guest,omitempty"`

	// CrossEvent marks the NOT_FOUND variant where the token is valid for
	// a different event than the one the controller has selected.
	CrossEvent bool `json:"cross_event,omitempty"`
}

// GuestFilter narrows ListGuests results.
type GuestFilter struct {
	EventID   string
	CheckedIn *bool
	Limit     int
	Offset    int
}

// EventSummary is an event plus roster counters for admin overviews.
type EventSummary struct {
	Event
	GuestCount     int `json:"guest_count"`
	CheckedInCount int `json:"checked_in_count"`
}
