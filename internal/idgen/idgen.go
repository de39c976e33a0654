// Package idgen mints short, human-typeable guest tokens backed by nanoid.
package idgen

import (
	"errors"
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet is the 36-symbol character set tokens are drawn from. Uppercase
// only: tokens must survive being read aloud or typed by door staff, and
// lookups normalize to uppercase anyway.
var Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of characters in a token (~31 bits of entropy).
var Length = 6

// MaxAttempts bounds the collision-redraw loop in Unique. With realistic
// roster sizes a redraw is already rare; hitting the bound means the token
// space is effectively exhausted.
const MaxAttempts = 100

// ErrCapacityExceeded is returned when Unique cannot find an unused token
// within MaxAttempts draws.
var ErrCapacityExceeded = errors.New("idgen: token space exhausted")

// eventAlphabet and eventLength size event IDs, which are machine-facing
// and never typed by hand.
const (
	eventAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	eventLength   = 10
	eventPrefix   = "evt-"
)

// NewEventID returns a new event identifier.
func NewEventID() (string, error) {
	id, err := nanoid.Generate(eventAlphabet, eventLength)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return eventPrefix + id, nil
}

// Generate returns a new random token. It does not check for collisions;
// use Unique when an existing-token set is available.
func Generate() (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return id, nil
}

// Unique returns a token not present in existing, redrawing on collision.
// Tokens are unique across the whole roster, not per event, so existing
// must be the full guest-token set.
func Unique(existing map[string]struct{}) (string, error) {
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		id, err := Generate()
		if err != nil {
			return "", err
		}
		if _, taken := existing[id]; !taken {
			return id, nil
		}
	}
	return "", ErrCapacityExceeded
}
