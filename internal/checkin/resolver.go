package checkin

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/showtimehq/doorlist/internal/model"
	"github.com/showtimehq/doorlist/internal/store"
)

// InScope reports whether the guest belongs to the controller's currently
// selected event. Pure function, no side effects.
func InScope(guest *model.Guest, selectedEventID string) bool {
	return guest.EventID == selectedEventID
}

// Resolver decides the outcome of a check-in attempt and performs the
// at-most-once admission through the store's compare-and-swap.
type Resolver struct {
	store  store.Store
	logger *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewResolver returns a Resolver backed by the given store.
func NewResolver(s store.Store, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:  s,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CheckIn resolves a scanned payload against the roster, scoped to the
// controller's selected event, and admits the guest at most once.
//
// The outcome is always one of the three CheckInResult statuses; resolver
// errors never escape this boundary. A malformed payload, an unknown token,
// and an out-of-scope guest are all denials, not failures.
func (r *Resolver) CheckIn(ctx context.Context, payload, selectedEventID string) model.CheckInResult {
	token, err := ParseToken(payload)
	if err != nil {
		return model.CheckInResult{Status: model.CheckInNotFound}
	}

	guest, err := r.store.GetGuest(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return model.CheckInResult{Status: model.CheckInNotFound}
	}
	if err != nil {
		r.logger.Warn("check-in lookup failed", "token", token, "err", err)
		return model.CheckInResult{Status: model.CheckInNotFound}
	}

	if !InScope(guest, selectedEventID) {
		return r.crossEventDenial(ctx, guest)
	}

	if guest.IsCheckedIn() {
		return model.CheckInResult{Status: model.CheckInDuplicate, Guest: guest}
	}

	return r.admit(ctx, token)
}

// admit runs the CAS and normalizes a lost race into ALREADY_CHECKED_IN.
func (r *Resolver) admit(ctx context.Context, token string) model.CheckInResult {
	at := r.now()
	guest, err := r.store.MarkCheckedIn(ctx, token, at)
	switch {
	case err == nil:
		return model.CheckInResult{Status: model.CheckInSuccess, Guest: guest}
	case errors.Is(err, store.ErrAlreadyCheckedIn):
		return model.CheckInResult{Status: model.CheckInDuplicate, Guest: guest}
	case errors.Is(err, store.ErrNotFound):
		// Guest deleted between lookup and write.
		return model.CheckInResult{Status: model.CheckInNotFound}
	}

	// The write's outcome is unknown (timeout, connection drop). Re-read
	// and derive the outcome from current state instead of failing the
	// scan: the CAS may well have landed.
	r.logger.Warn("check-in write outcome unknown, re-reading", "token", token, "err", err)
	return r.recover(ctx, token, at)
}

// recover re-derives the outcome after an ambiguous CAS write. If the
// timestamp now matches the one this attempt wrote, the write landed and
// the scan succeeded; any other timestamp means another controller won. A
// still-null timestamp means the write never landed, and the CAS is safe
// to retry once because it is naturally idempotent.
func (r *Resolver) recover(ctx context.Context, token string, at time.Time) model.CheckInResult {
	guest, err := r.store.GetGuest(ctx, token)
	if err != nil {
		r.logger.Error("check-in recovery read failed", "token", token, "err", err)
		return model.CheckInResult{Status: model.CheckInNotFound}
	}

	if guest.IsCheckedIn() {
		if guest.CheckedInAt.Equal(at) {
			return model.CheckInResult{Status: model.CheckInSuccess, Guest: guest}
		}
		return model.CheckInResult{Status: model.CheckInDuplicate, Guest: guest}
	}

	guest, err = r.store.MarkCheckedIn(ctx, token, at)
	switch {
	case err == nil:
		return model.CheckInResult{Status: model.CheckInSuccess, Guest: guest}
	case errors.Is(err, store.ErrAlreadyCheckedIn):
		return model.CheckInResult{Status: model.CheckInDuplicate, Guest: guest}
	default:
		r.logger.Error("check-in retry failed", "token", token, "err", err)
		return model.CheckInResult{Status: model.CheckInNotFound}
	}
}

// crossEventDenial builds the NOT_FOUND variant for a token that belongs
// to a different event. The guest comes back with its true event name in
// the display-facing Company field so door staff can redirect the visitor;
// the status stays a denial and checkedInAt is never touched.
func (r *Resolver) crossEventDenial(ctx context.Context, guest *model.Guest) model.CheckInResult {
	display := guest.Clone()
	if event, err := r.store.GetEvent(ctx, guest.EventID); err == nil {
		display.Company = event.Name
	}
	return model.CheckInResult{
		Status:     model.CheckInNotFound,
		Guest:      display,
		CrossEvent: true,
	}
}
