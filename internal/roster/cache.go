package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/showtimehq/doorlist/internal/model"
	"github.com/showtimehq/doorlist/internal/store"
	"github.com/showtimehq/doorlist/internal/store/memory"
)

// ErrRemoteUnavailable classifies connectivity failures against the
// authoritative store. It is advisory: the cache keeps serving locally and
// retries in the background.
var ErrRemoteUnavailable = errors.New("remote store unavailable")

// Option defaults. Poll and flush cadences are deliberately short: a venue
// door tolerates seconds of staleness, not minutes.
const (
	defaultPollInterval  = 15 * time.Second
	defaultFlushInterval = 2 * time.Second
	defaultDebounce      = 5 * time.Second
	defaultTimeout       = 5 * time.Second
)

// Options configures a CachedStore.
type Options struct {
	// PollInterval is how often the remote roster is re-read and folded
	// into the local view. 0 means the default.
	PollInterval time.Duration
	// FlushInterval is how often queued local mutations are replayed
	// against the remote. 0 means the default.
	FlushInterval time.Duration
	// Debounce is the window after a local mutation during which a
	// competing remote read is ignored, closing the read-after-write race
	// where a stale poll clobbers a just-written local change.
	Debounce time.Duration
	// Timeout bounds each remote call so the door never blocks on the
	// network.
	Timeout time.Duration
	// SnapshotPath, when set, is a local JSONL snapshot loaded if the
	// remote is unreachable at startup.
	SnapshotPath string

	Logger *slog.Logger
}

func (o *Options) withDefaults() {
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = defaultFlushInterval
	}
	if o.Debounce <= 0 {
		o.Debounce = defaultDebounce
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Status describes the cache's relationship with the authoritative store.
// Offline and PendingMutations are advisory: they never fail a check-in,
// they tell the operator the last change is not yet synced.
type Status struct {
	Offline          bool      `json:"offline"`
	PendingMutations int       `json:"pending_mutations"`
	LastSyncedAt     time.Time `json:"last_synced_at,omitempty"`
	LastMutatedAt    time.Time `json:"last_mutated_at,omitempty"`
}

type opKind int

const (
	opCreateEvent opKind = iota
	opDeleteEvent
	opCreateGuest
	opDeleteGuest
	opMarkCheckedIn
)

// pendingOp is a local mutation awaiting propagation to the remote store.
type pendingOp struct {
	kind  opKind
	event *model.Event
	guest *model.Guest
	id    string
	at    time.Time
}

// CachedStore is a write-through cache over an authoritative remote store.
// Reads are always served locally; mutations apply locally first (the
// caller never blocks on the network) and are replayed against the remote
// in the background. A mutation is never discarded because a sync failed —
// data loss is the worst failure mode for an admission ledger.
type CachedStore struct {
	remote store.Store
	local  *memory.MemoryStore
	opts   Options
	logger *slog.Logger

	mu          sync.Mutex
	offline     bool
	pending     []*pendingOp
	lastMutated time.Time
	lastSynced  time.Time

	kick   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Compile-time check that CachedStore implements store.Store.
var _ store.Store = (*CachedStore)(nil)

// NewCachedStore hydrates a local view from the remote store and starts
// the background flush/reconcile loop. If the remote is unreachable the
// cache starts from the local snapshot (when configured) or empty, marked
// offline; startup never fails on connectivity alone.
func NewCachedStore(remote store.Store, opts Options) *CachedStore {
	opts.withDefaults()
	c := &CachedStore{
		remote: remote,
		local:  memory.New(),
		opts:   opts,
		logger: opts.Logger,
		kick:   make(chan struct{}, 1),
	}

	c.hydrate()

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(ctx)
	}()
	return c
}

func (c *CachedStore) hydrate() {
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.Timeout)
	defer cancel()

	events, guests, err := c.readRemote(ctx)
	if err == nil {
		c.local.Reset(events, guests)
		c.mu.Lock()
		c.lastSynced = time.Now().UTC()
		c.mu.Unlock()
		return
	}

	c.logger.Warn("authoritative store unreachable, starting offline", "err", err)
	c.mu.Lock()
	c.offline = true
	c.mu.Unlock()

	if c.opts.SnapshotPath == "" {
		return
	}
	events, guests, err = LoadSnapshotFile(c.opts.SnapshotPath)
	if err != nil {
		c.logger.Warn("local snapshot unusable, starting empty", "path", c.opts.SnapshotPath, "err", err)
		return
	}
	c.local.Reset(events, guests)
	c.logger.Info("roster loaded from local snapshot", "path", c.opts.SnapshotPath,
		"events", len(events), "guests", len(guests))
}

func (c *CachedStore) run(ctx context.Context) {
	poll := time.NewTicker(c.opts.PollInterval)
	defer poll.Stop()
	flush := time.NewTicker(c.opts.FlushInterval)
	defer flush.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.kick:
			c.flush(ctx)
		case <-flush.C:
			c.flush(ctx)
		case <-poll.C:
			c.flush(ctx)
			c.reconcile(ctx)
		}
	}
}

// flush replays queued mutations against the remote, in order. It stops at
// the first connectivity failure, keeping the rest of the queue intact.
func (c *CachedStore) flush(ctx context.Context) {
	for {
		c.mu.Lock()
		if len(c.pending) == 0 {
			c.mu.Unlock()
			return
		}
		op := c.pending[0]
		c.mu.Unlock()

		err := c.applyRemote(ctx, op)
		switch {
		case err == nil:
		case errors.Is(err, store.ErrAlreadyCheckedIn):
			// Another device admitted the guest first; the remote's
			// timestamp is the true one and the next reconcile adopts it.
			c.logger.Info("check-in replay lost the race", "guest", op.id)
		case errors.Is(err, store.ErrNotFound):
			// The record is gone remotely (event cascade, guest
			// deleted). Nothing left to propagate.
			c.logger.Warn("queued mutation target no longer exists", "guest", op.id)
		default:
			c.mu.Lock()
			c.offline = true
			c.mu.Unlock()
			c.logger.Warn("mutation not yet synced, will retry", "err", err, "pending", c.Status().PendingMutations)
			return
		}

		c.mu.Lock()
		c.pending = c.pending[1:]
		c.offline = false
		c.lastSynced = time.Now().UTC()
		c.mu.Unlock()
	}
}

func (c *CachedStore) applyRemote(ctx context.Context, op *pendingOp) error {
	callCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	switch op.kind {
	case opCreateEvent:
		return c.remote.CreateEvent(callCtx, op.event)
	case opDeleteEvent:
		return c.remote.DeleteEvent(callCtx, op.id)
	case opCreateGuest:
		return c.remote.CreateGuest(callCtx, op.guest)
	case opDeleteGuest:
		return c.remote.DeleteGuest(callCtx, op.id)
	case opMarkCheckedIn:
		_, err := c.remote.MarkCheckedIn(callCtx, op.id, op.at)
		return err
	}
	return nil
}

// reconcile folds the remote roster into the local view. It is skipped
// while mutations are pending or inside the debounce window after a local
// write: the local mutation clock always wins over a stale remote read.
func (c *CachedStore) reconcile(ctx context.Context) {
	c.mu.Lock()
	if len(c.pending) > 0 || time.Since(c.lastMutated) < c.opts.Debounce {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	events, guests, err := c.readRemote(callCtx)
	if err != nil {
		c.mu.Lock()
		c.offline = true
		c.mu.Unlock()
		c.logger.Warn("roster reconcile failed", "err", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Re-check under the lock: a mutation may have landed while the
	// remote read was in flight. The lock stays held across the Reset;
	// writers hold the same lock across their local apply and enqueue,
	// so a write cannot slip in between this check and the fold.
	if len(c.pending) > 0 || time.Since(c.lastMutated) < c.opts.Debounce {
		return
	}
	c.local.Reset(events, guests)
	c.offline = false
	c.lastSynced = time.Now().UTC()
}

func (c *CachedStore) readRemote(ctx context.Context) ([]*model.Event, []*model.Guest, error) {
	events, err := c.remote.ListEvents(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: list events: %v", ErrRemoteUnavailable, err)
	}
	guests, _, err := c.remote.ListGuests(ctx, model.GuestFilter{})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: list guests: %v", ErrRemoteUnavailable, err)
	}
	return events, guests, nil
}

// enqueueLocked appends a mutation to the replay queue and wakes the
// flush loop. Callers hold c.mu.
func (c *CachedStore) enqueueLocked(op *pendingOp) {
	c.pending = append(c.pending, op)
	c.lastMutated = time.Now().UTC()

	select {
	case c.kick <- struct{}{}:
	default:
	}
}

// Status reports the cache's sync state.
func (c *CachedStore) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		Offline:          c.offline,
		PendingMutations: len(c.pending),
		LastSyncedAt:     c.lastSynced,
		LastMutatedAt:    c.lastMutated,
	}
}

// --- store.Store: reads served from the local view ---

func (c *CachedStore) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	return c.local.GetEvent(ctx, id)
}

func (c *CachedStore) ListEvents(ctx context.Context) ([]*model.Event, error) {
	return c.local.ListEvents(ctx)
}

func (c *CachedStore) ListEventSummaries(ctx context.Context) ([]*model.EventSummary, error) {
	return c.local.ListEventSummaries(ctx)
}

func (c *CachedStore) GetGuest(ctx context.Context, id string) (*model.Guest, error) {
	return c.local.GetGuest(ctx, id)
}

func (c *CachedStore) ListGuests(ctx context.Context, filter model.GuestFilter) ([]*model.Guest, int, error) {
	return c.local.ListGuests(ctx, filter)
}

// --- store.Store: mutations apply locally, then propagate ---
//
// Each mutation holds c.mu across the local apply and the queue append.
// reconcile holds the same lock across its stale-check and fold, so a
// write can never land between a poll's pending/debounce check and the
// remote snapshot overwriting the local view.

func (c *CachedStore) CreateEvent(ctx context.Context, event *model.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.local.CreateEvent(ctx, event); err != nil {
		return err
	}
	clone := *event
	c.enqueueLocked(&pendingOp{kind: opCreateEvent, event: &clone})
	return nil
}

func (c *CachedStore) DeleteEvent(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.local.DeleteEvent(ctx, id); err != nil {
		return err
	}
	c.enqueueLocked(&pendingOp{kind: opDeleteEvent, id: id})
	return nil
}

// CreateGuest mints the token against the local view, which mirrors the
// authoritative roster after hydration. The remote replay keeps the preset
// token, and the remote's uniqueness constraint backstops the rare
// cross-device collision.
func (c *CachedStore) CreateGuest(ctx context.Context, guest *model.Guest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.local.CreateGuest(ctx, guest); err != nil {
		return err
	}
	c.enqueueLocked(&pendingOp{kind: opCreateGuest, guest: guest.Clone()})
	return nil
}

func (c *CachedStore) DeleteGuest(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.local.DeleteGuest(ctx, id); err != nil {
		return err
	}
	c.enqueueLocked(&pendingOp{kind: opDeleteGuest, id: id})
	return nil
}

// MarkCheckedIn runs the CAS against the local view so the door decision
// is immediate, then replays it remotely with the same timestamp. The
// replay tolerates losing the cross-device race; the reconcile loop then
// adopts the earlier winner's timestamp.
func (c *CachedStore) MarkCheckedIn(ctx context.Context, id string, at time.Time) (*model.Guest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	guest, err := c.local.MarkCheckedIn(ctx, id, at)
	if err != nil {
		return guest, err
	}
	c.enqueueLocked(&pendingOp{kind: opMarkCheckedIn, id: id, at: at})
	return guest, nil
}

// Close stops the background loop, makes a final attempt to drain the
// queue, and closes the remote store.
func (c *CachedStore) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), c.opts.Timeout)
	defer cancel()
	c.flush(ctx)

	if n := c.Status().PendingMutations; n > 0 {
		c.logger.Warn("closing with unsynced mutations", "pending", n)
	}
	return c.remote.Close()
}
