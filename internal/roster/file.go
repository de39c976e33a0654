package roster

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/showtimehq/doorlist/internal/model"
)

// FileDestination writes roster snapshots to a local file. The same file
// feeds LoadSnapshotFile when the authoritative store is unreachable at
// startup, so a controller device can keep admitting guests offline.
type FileDestination struct {
	path string
}

// NewFileDestination creates a file destination at the given path.
func NewFileDestination(path string) *FileDestination {
	return &FileDestination{path: path}
}

// Write atomically replaces the snapshot file (write to a temp file in the
// same directory, then rename) so a crash mid-write never leaves a
// truncated snapshot behind.
func (d *FileDestination) Write(_ context.Context, data []byte) error {
	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".roster-*.jsonl")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, d.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// LoadSnapshotFile reads a roster snapshot from disk. A missing or corrupt
// file yields an error; callers treat either as "start empty", matching
// how the controller UI discarded malformed local data rather than crash.
func LoadSnapshotFile(path string) ([]*model.Event, []*model.Guest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return ImportJSONL(f)
}
