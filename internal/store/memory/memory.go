// Package memory implements store.Store with an in-process map, guarded by
// a single mutex. It backs the local side of the roster cache and is the
// store of choice for tests and single-venue offline operation.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/showtimehq/doorlist/internal/idgen"
	"github.com/showtimehq/doorlist/internal/model"
	"github.com/showtimehq/doorlist/internal/store"
)

// MemoryStore implements store.Store backed by in-process maps.
type MemoryStore struct {
	mu     sync.Mutex
	events map[string]*model.Event
	guests map[string]*model.Guest
}

// Compile-time check that MemoryStore implements store.Store.
var _ store.Store = (*MemoryStore)(nil)

// New returns an empty MemoryStore.
func New() *MemoryStore {
	return &MemoryStore{
		events: make(map[string]*model.Event),
		guests: make(map[string]*model.Guest),
	}
}

// CreateEvent stores a new event, minting an ID when none is set.
func (s *MemoryStore) CreateEvent(_ context.Context, event *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.ID == "" {
		id, err := idgen.NewEventID()
		if err != nil {
			return err
		}
		event.ID = id
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	clone := *event
	s.events[event.ID] = &clone
	return nil
}

func (s *MemoryStore) GetEvent(_ context.Context, id string) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *e
	return &clone, nil
}

func (s *MemoryStore) ListEvents(_ context.Context) ([]*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*model.Event, 0, len(s.events))
	for _, e := range s.events {
		clone := *e
		result = append(result, &clone)
	}
	sortEvents(result)
	return result, nil
}

func (s *MemoryStore) ListEventSummaries(_ context.Context) ([]*model.EventSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*model.EventSummary, 0, len(s.events))
	for _, e := range s.events {
		summary := &model.EventSummary{Event: *e}
		for _, g := range s.guests {
			if g.EventID != e.ID {
				continue
			}
			summary.GuestCount++
			if g.IsCheckedIn() {
				summary.CheckedInCount++
			}
		}
		result = append(result, summary)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// DeleteEvent removes the event and all guests registered under it. The
// single mutex makes the cascade atomic: no reader ever observes the event
// gone while its guests remain.
func (s *MemoryStore) DeleteEvent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.events, id)
	for gid, g := range s.guests {
		if g.EventID == id {
			delete(s.guests, gid)
		}
	}
	return nil
}

// CreateGuest stores a new guest. When guest.ID is empty a roster-unique
// token is minted; a preset ID (a record replicated from the authoritative
// store) is kept as-is.
func (s *MemoryStore) CreateGuest(_ context.Context, guest *model.Guest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[guest.EventID]; !ok {
		return store.ErrNotFound
	}

	if guest.ID == "" {
		existing := make(map[string]struct{}, len(s.guests))
		for id := range s.guests {
			existing[id] = struct{}{}
		}
		id, err := idgen.Unique(existing)
		if err != nil {
			return err
		}
		guest.ID = id
	}
	if guest.CreatedAt.IsZero() {
		guest.CreatedAt = time.Now().UTC()
	}

	s.guests[guest.ID] = guest.Clone()
	return nil
}

func (s *MemoryStore) GetGuest(_ context.Context, id string) (*model.Guest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.guests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return g.Clone(), nil
}

func (s *MemoryStore) ListGuests(_ context.Context, filter model.GuestFilter) ([]*model.Guest, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*model.Guest
	for _, g := range s.guests {
		if filter.EventID != "" && g.EventID != filter.EventID {
			continue
		}
		if filter.CheckedIn != nil && g.IsCheckedIn() != *filter.CheckedIn {
			continue
		}
		result = append(result, g.Clone())
	}
	sortGuests(result)

	total := len(result)
	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			result = nil
		} else {
			result = result[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, total, nil
}

func (s *MemoryStore) DeleteGuest(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.guests[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.guests, id)
	return nil
}

// MarkCheckedIn performs the check-in compare-and-swap. The mutex spans the
// read and the write, so two concurrent callers can never both observe a
// null timestamp.
func (s *MemoryStore) MarkCheckedIn(_ context.Context, id string, at time.Time) (*model.Guest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.guests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if g.IsCheckedIn() {
		return g.Clone(), store.ErrAlreadyCheckedIn
	}

	t := at.UTC()
	g.CheckedInAt = &t
	return g.Clone(), nil
}

// Reset replaces the entire roster in one step. Used by the cache layer to
// hydrate from an authoritative snapshot.
func (s *MemoryStore) Reset(events []*model.Event, guests []*model.Guest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = make(map[string]*model.Event, len(events))
	for _, e := range events {
		clone := *e
		s.events[e.ID] = &clone
	}
	s.guests = make(map[string]*model.Guest, len(guests))
	for _, g := range guests {
		s.guests[g.ID] = g.Clone()
	}
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

func sortEvents(events []*model.Event) {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].CreatedAt.Before(events[j].CreatedAt)
		}
		return events[i].ID < events[j].ID
	})
}

func sortGuests(guests []*model.Guest) {
	sort.Slice(guests, func(i, j int) bool {
		if !guests[i].CreatedAt.Equal(guests[j].CreatedAt) {
			return guests[i].CreatedAt.Before(guests[j].CreatedAt)
		}
		return guests[i].ID < guests[j].ID
	})
}
