package roster

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/showtimehq/doorlist/internal/model"
	"github.com/showtimehq/doorlist/internal/store"
	"github.com/showtimehq/doorlist/internal/store/memory"
)

var errRemoteDown = errors.New("dial tcp: connection refused")

// faultyStore wraps a MemoryStore and fails every call while the fail
// flag is set, standing in for an unreachable authoritative store.
type faultyStore struct {
	inner *memory.MemoryStore

	mu   sync.Mutex
	fail bool
}

func newFaultyStore(inner *memory.MemoryStore) *faultyStore {
	return &faultyStore{inner: inner}
}

func (s *faultyStore) setFail(v bool) {
	s.mu.Lock()
	s.fail = v
	s.mu.Unlock()
}

func (s *faultyStore) err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errRemoteDown
	}
	return nil
}

func (s *faultyStore) CreateEvent(ctx context.Context, event *model.Event) error {
	if err := s.err(); err != nil {
		return err
	}
	return s.inner.CreateEvent(ctx, event)
}

func (s *faultyStore) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if err := s.err(); err != nil {
		return nil, err
	}
	return s.inner.GetEvent(ctx, id)
}

func (s *faultyStore) ListEvents(ctx context.Context) ([]*model.Event, error) {
	if err := s.err(); err != nil {
		return nil, err
	}
	return s.inner.ListEvents(ctx)
}

func (s *faultyStore) ListEventSummaries(ctx context.Context) ([]*model.EventSummary, error) {
	if err := s.err(); err != nil {
		return nil, err
	}
	return s.inner.ListEventSummaries(ctx)
}

func (s *faultyStore) DeleteEvent(ctx context.Context, id string) error {
	if err := s.err(); err != nil {
		return err
	}
	return s.inner.DeleteEvent(ctx, id)
}

func (s *faultyStore) CreateGuest(ctx context.Context, guest *model.Guest) error {
	if err := s.err(); err != nil {
		return err
	}
	return s.inner.CreateGuest(ctx, guest)
}

func (s *faultyStore) GetGuest(ctx context.Context, id string) (*model.Guest, error) {
	if err := s.err(); err != nil {
		return nil, err
	}
	return s.inner.GetGuest(ctx, id)
}

func (s *faultyStore) ListGuests(ctx context.Context, filter model.GuestFilter) ([]*model.Guest, int, error) {
	if err := s.err(); err != nil {
		return nil, 0, err
	}
	return s.inner.ListGuests(ctx, filter)
}

func (s *faultyStore) DeleteGuest(ctx context.Context, id string) error {
	if err := s.err(); err != nil {
		return err
	}
	return s.inner.DeleteGuest(ctx, id)
}

func (s *faultyStore) MarkCheckedIn(ctx context.Context, id string, at time.Time) (*model.Guest, error) {
	if err := s.err(); err != nil {
		return nil, err
	}
	return s.inner.MarkCheckedIn(ctx, id, at)
}

func (s *faultyStore) Close() error { return s.inner.Close() }

var _ store.Store = (*faultyStore)(nil)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func fastOptions() Options {
	return Options{
		PollInterval:  20 * time.Millisecond,
		FlushInterval: 10 * time.Millisecond,
		Debounce:      10 * time.Millisecond,
		Timeout:       time.Second,
		Logger:        testLogger(),
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestCachedStoreHydratesFromRemote(t *testing.T) {
	remote := newFaultyStore(seedRoster(t))
	cache := NewCachedStore(remote, fastOptions())
	defer cache.Close()

	ctx := context.Background()
	events, err := cache.ListEvents(ctx)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	guest, err := cache.GetGuest(ctx, "AAAAAA")
	if err != nil {
		t.Fatalf("get guest: %v", err)
	}
	if guest.Name != "Ada Lovelace" {
		t.Fatalf("unexpected guest: %+v", guest)
	}

	status := cache.Status()
	if status.Offline {
		t.Fatal("expected online after successful hydration")
	}
	if status.LastSyncedAt.IsZero() {
		t.Fatal("expected LastSyncedAt to be set")
	}
}

func TestCachedStoreStartsFromSnapshotWhenRemoteDown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.jsonl")
	dest := NewFileDestination(path)
	seeded := seedRoster(t)
	snapshot(t, seeded, dest)

	remote := newFaultyStore(memory.New())
	remote.setFail(true)

	opts := fastOptions()
	opts.SnapshotPath = path
	cache := NewCachedStore(remote, opts)
	defer cache.Close()

	if !cache.Status().Offline {
		t.Fatal("expected offline status")
	}
	guests, total, err := cache.ListGuests(context.Background(), model.GuestFilter{})
	if err != nil {
		t.Fatalf("list guests: %v", err)
	}
	if total != 3 || len(guests) != 3 {
		t.Fatalf("expected 3 guests from snapshot, got %d", total)
	}
}

func TestCachedStoreStartsEmptyWithoutSnapshot(t *testing.T) {
	remote := newFaultyStore(memory.New())
	remote.setFail(true)

	cache := NewCachedStore(remote, fastOptions())
	defer cache.Close()

	if !cache.Status().Offline {
		t.Fatal("expected offline status")
	}
	events, err := cache.ListEvents(context.Background())
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected empty roster, got %d events", len(events))
	}
}

func TestCachedStoreMutationsReplayAfterOutage(t *testing.T) {
	remote := newFaultyStore(memory.New())
	cache := NewCachedStore(remote, fastOptions())
	defer cache.Close()

	remote.setFail(true)
	ctx := context.Background()

	event := &model.Event{ID: "evt-gala", Name: "Gala Night", CreatedAt: time.Now().UTC()}
	if err := cache.CreateEvent(ctx, event); err != nil {
		t.Fatalf("create event: %v", err)
	}
	guest := &model.Guest{EventID: "evt-gala", Name: "Ada Lovelace", AccessLevel: model.AccessLevel1}
	if err := cache.CreateGuest(ctx, guest); err != nil {
		t.Fatalf("create guest: %v", err)
	}
	if guest.ID == "" {
		t.Fatal("expected token minted during outage")
	}
	at := time.Now().UTC().Truncate(time.Millisecond)
	if _, err := cache.MarkCheckedIn(ctx, guest.ID, at); err != nil {
		t.Fatalf("mark checked in: %v", err)
	}

	// The door keeps serving from the local view.
	got, err := cache.GetGuest(ctx, guest.ID)
	if err != nil {
		t.Fatalf("get guest: %v", err)
	}
	if !got.IsCheckedIn() {
		t.Fatal("expected guest checked in locally")
	}

	waitFor(t, time.Second, func() bool { return cache.Status().Offline })
	if pending := cache.Status().PendingMutations; pending != 3 {
		t.Fatalf("expected 3 pending mutations, got %d", pending)
	}

	// Connectivity returns; the queue drains in order.
	remote.setFail(false)
	waitFor(t, 2*time.Second, func() bool {
		s := cache.Status()
		return !s.Offline && s.PendingMutations == 0
	})

	synced, err := remote.inner.GetGuest(ctx, guest.ID)
	if err != nil {
		t.Fatalf("remote guest missing after replay: %v", err)
	}
	if synced.CheckedInAt == nil || !synced.CheckedInAt.Equal(at) {
		t.Fatalf("remote check-in timestamp mismatch: %v", synced.CheckedInAt)
	}
}

func TestCachedStoreCheckInAtMostOnce(t *testing.T) {
	remote := newFaultyStore(seedRoster(t))
	cache := NewCachedStore(remote, fastOptions())
	defer cache.Close()

	ctx := context.Background()
	first := time.Now().UTC()
	if _, err := cache.MarkCheckedIn(ctx, "AAAAAA", first); err != nil {
		t.Fatalf("first check-in: %v", err)
	}

	existing, err := cache.MarkCheckedIn(ctx, "AAAAAA", first.Add(time.Minute))
	if !errors.Is(err, store.ErrAlreadyCheckedIn) {
		t.Fatalf("expected ErrAlreadyCheckedIn, got %v", err)
	}
	if existing == nil || existing.CheckedInAt == nil || !existing.CheckedInAt.Equal(first) {
		t.Fatal("expected original timestamp preserved")
	}
	// The losing attempt must not be queued for replay.
	waitFor(t, time.Second, func() bool { return cache.Status().PendingMutations == 0 })
}

func TestCachedStoreReconcileAdoptsRemoteChanges(t *testing.T) {
	seeded := seedRoster(t)
	remote := newFaultyStore(seeded)
	cache := NewCachedStore(remote, fastOptions())
	defer cache.Close()

	ctx := context.Background()
	// Another device admits Ada directly against the authoritative store.
	at := time.Now().UTC()
	if _, err := seeded.MarkCheckedIn(ctx, "AAAAAA", at); err != nil {
		t.Fatalf("remote check-in: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		g, err := cache.GetGuest(ctx, "AAAAAA")
		return err == nil && g.IsCheckedIn()
	})
}

func TestCachedStoreDebounceShieldsLocalWrites(t *testing.T) {
	seeded := seedRoster(t)
	remote := newFaultyStore(seeded)

	opts := fastOptions()
	opts.Debounce = time.Hour
	cache := NewCachedStore(remote, opts)
	defer cache.Close()

	ctx := context.Background()
	event := &model.Event{ID: "evt-new", Name: "Launch Party", CreatedAt: time.Now().UTC()}
	if err := cache.CreateEvent(ctx, event); err != nil {
		t.Fatalf("create event: %v", err)
	}
	waitFor(t, time.Second, func() bool { return cache.Status().PendingMutations == 0 })

	// Delete the event remotely; the local write is newer, so no poll
	// inside the debounce window may clobber it.
	if err := seeded.DeleteEvent(ctx, "evt-new"); err != nil {
		t.Fatalf("remote delete: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	if _, err := cache.GetEvent(ctx, "evt-new"); err != nil {
		t.Fatalf("local write clobbered by stale remote read: %v", err)
	}
}

// gatedStore lets a test hold a remote roster read in flight: after the
// stale data is captured, ListGuests blocks until the gate is released.
type gatedStore struct {
	*faultyStore

	gateMu  sync.Mutex
	gate    chan struct{}
	entered chan struct{}
}

// arm gates the next ListGuests call. entered closes once the stale read
// has been captured; closing release lets the call return.
func (s *gatedStore) arm() (entered <-chan struct{}, release chan struct{}) {
	s.gateMu.Lock()
	defer s.gateMu.Unlock()
	s.gate = make(chan struct{})
	s.entered = make(chan struct{})
	return s.entered, s.gate
}

func (s *gatedStore) ListGuests(ctx context.Context, filter model.GuestFilter) ([]*model.Guest, int, error) {
	guests, total, err := s.faultyStore.ListGuests(ctx, filter)

	s.gateMu.Lock()
	gate, entered := s.gate, s.entered
	s.gate, s.entered = nil, nil
	s.gateMu.Unlock()

	if entered != nil {
		close(entered)
		<-gate
	}
	return guests, total, err
}

func TestCachedStoreCheckInDuringPollIsNotReverted(t *testing.T) {
	seeded := seedRoster(t)
	remote := &gatedStore{faultyStore: newFaultyStore(seeded)}

	opts := fastOptions()
	opts.PollInterval = time.Hour
	opts.Debounce = time.Hour
	cache := NewCachedStore(remote, opts)
	defer cache.Close()

	ctx := context.Background()

	// Start a reconcile and park it after it has read the roster, so it
	// holds a snapshot in which Ada is not yet checked in.
	entered, release := remote.arm()
	done := make(chan struct{})
	go func() {
		cache.reconcile(ctx)
		close(done)
	}()
	<-entered

	// Ada is admitted at the door while the poll is in flight.
	at := time.Now().UTC()
	if _, err := cache.MarkCheckedIn(ctx, "AAAAAA", at); err != nil {
		t.Fatalf("check-in: %v", err)
	}

	close(release)
	<-done

	// The stale snapshot must not have reverted the admission.
	g, err := cache.GetGuest(ctx, "AAAAAA")
	if err != nil {
		t.Fatalf("get guest: %v", err)
	}
	if !g.IsCheckedIn() || !g.CheckedInAt.Equal(at) {
		t.Fatalf("check-in reverted by stale poll: %+v", g)
	}
	if _, err := cache.MarkCheckedIn(ctx, "AAAAAA", time.Now().UTC()); !errors.Is(err, store.ErrAlreadyCheckedIn) {
		t.Fatalf("second scan after poll: err = %v, want ErrAlreadyCheckedIn", err)
	}
}

func TestCachedStoreDropsReplayAgainstDeletedTarget(t *testing.T) {
	seeded := seedRoster(t)
	remote := newFaultyStore(seeded)
	cache := NewCachedStore(remote, fastOptions())
	defer cache.Close()

	remote.setFail(true)
	ctx := context.Background()
	if _, err := cache.MarkCheckedIn(ctx, "CCCCCC", time.Now().UTC()); err != nil {
		t.Fatalf("check-in: %v", err)
	}

	// The event (and its guests) disappear remotely during the outage.
	if err := seeded.DeleteEvent(ctx, "evt-after"); err != nil {
		t.Fatalf("remote delete: %v", err)
	}
	remote.setFail(false)

	// The queued check-in targets a deleted guest; it is dropped rather
	// than wedging the queue.
	waitFor(t, 2*time.Second, func() bool {
		s := cache.Status()
		return !s.Offline && s.PendingMutations == 0
	})
}

func snapshot(t *testing.T, s store.Store, dest Destination) {
	t.Helper()
	logger := testLogger()
	sched := NewScheduler(s, []Destination{dest}, time.Hour, logger)
	sched.Start()
	time.Sleep(30 * time.Millisecond)
	sched.Stop()
}
