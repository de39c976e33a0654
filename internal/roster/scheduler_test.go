package roster

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/showtimehq/doorlist/internal/store/memory"
)

// mockDestination records calls to Write.
type mockDestination struct {
	writes atomic.Int64
	last   atomic.Value // []byte
}

func (d *mockDestination) Write(_ context.Context, data []byte) error {
	d.writes.Add(1)
	cp := make([]byte, len(data))
	copy(cp, data)
	d.last.Store(cp)
	return nil
}

func TestSchedulerStartStop(t *testing.T) {
	ms := seedRoster(t)
	dest := &mockDestination{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	sched := NewScheduler(ms, []Destination{dest}, 50*time.Millisecond, logger)
	sched.Start()

	// Wait for at least the initial snapshot + one tick.
	time.Sleep(120 * time.Millisecond)
	sched.Stop()

	if writes := dest.writes.Load(); writes < 2 {
		t.Fatalf("expected at least 2 writes, got %d", writes)
	}

	data, ok := dest.last.Load().([]byte)
	if !ok || len(data) == 0 {
		t.Fatal("expected non-empty data")
	}
	lines := nonEmptyLines(string(data))
	// 1 header + 2 events + 3 guests = 6
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d", len(lines))
	}
}

func TestSchedulerStop_NoStart(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	sched := NewScheduler(memory.New(), nil, time.Minute, logger)
	// Stop without Start should not panic.
	sched.Stop()
}

func TestSchedulerMultipleDestinations(t *testing.T) {
	dest1 := &mockDestination{}
	dest2 := &mockDestination{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	sched := NewScheduler(memory.New(), []Destination{dest1, dest2}, time.Second, logger)
	sched.Start()

	// Wait for the initial snapshot.
	time.Sleep(50 * time.Millisecond)
	sched.Stop()

	if dest1.writes.Load() < 1 {
		t.Fatal("dest1 expected at least 1 write")
	}
	if dest2.writes.Load() < 1 {
		t.Fatal("dest2 expected at least 1 write")
	}
}

func TestFileDestinationRoundTrip(t *testing.T) {
	ms := seedRoster(t)
	path := filepath.Join(t.TempDir(), "backups", "roster.jsonl")

	dest := NewFileDestination(path)
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	sched := NewScheduler(ms, []Destination{dest}, time.Second, logger)
	sched.Start()
	time.Sleep(50 * time.Millisecond)
	sched.Stop()

	events, guests, err := LoadSnapshotFile(path)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if len(events) != 2 || len(guests) != 3 {
		t.Fatalf("got %d events, %d guests", len(events), len(guests))
	}
}

func TestLoadSnapshotFile_Missing(t *testing.T) {
	if _, _, err := LoadSnapshotFile(filepath.Join(t.TempDir(), "nope.jsonl")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadSnapshotFile_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.jsonl")
	if err := os.WriteFile(path, []byte("not a snapshot\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadSnapshotFile(path); err == nil {
		t.Fatal("expected error for corrupt file")
	}
}
