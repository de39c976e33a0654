// Package roster keeps a local view of the guest roster serviceable when
// the authoritative store is slow or unreachable, and reconciles the two
// once connectivity returns. It also exports periodic JSONL snapshots of
// the roster to backup destinations.
package roster

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/showtimehq/doorlist/internal/model"
	"github.com/showtimehq/doorlist/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version    string    `json:"version"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	EventCount int       `json:"event_count"`
	GuestCount int       `json:"guest_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ExportJSONL writes the full roster (events, then guests) as JSONL to w.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	events, err := s.ListEvents(ctx)
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}
	guests, _, err := s.ListGuests(ctx, model.GuestFilter{})
	if err != nil {
		return fmt.Errorf("list guests: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:    "1",
		Type:       "header",
		Timestamp:  time.Now().UTC(),
		EventCount: len(events),
		GuestCount: len(guests),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, e := range events {
		if err := encodeRecord(enc, "event", e); err != nil {
			return fmt.Errorf("encode event %s: %w", e.ID, err)
		}
	}
	for _, g := range guests {
		if err := encodeRecord(enc, "guest", g); err != nil {
			return fmt.Errorf("encode guest %s: %w", g.ID, err)
		}
	}
	return nil
}

func encodeRecord(enc *json.Encoder, typ string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return enc.Encode(record{Type: typ, Data: raw})
}

// ImportJSONL reads a roster snapshot produced by ExportJSONL. Unknown
// record types are skipped so newer snapshots stay readable. A snapshot
// that does not start with a valid header is rejected outright; callers
// treat that as "no usable snapshot", not a fatal condition.
func ImportJSONL(r io.Reader) ([]*model.Event, []*model.Guest, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	if !scanner.Scan() {
		return nil, nil, fmt.Errorf("empty snapshot")
	}
	var h header
	if err := json.Unmarshal(scanner.Bytes(), &h); err != nil || h.Type != "header" {
		return nil, nil, fmt.Errorf("malformed snapshot header")
	}

	var (
		events []*model.Event
		guests []*model.Guest
	)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, nil, fmt.Errorf("malformed snapshot record: %w", err)
		}
		switch rec.Type {
		case "event":
			var e model.Event
			if err := json.Unmarshal(rec.Data, &e); err != nil {
				return nil, nil, fmt.Errorf("malformed event record: %w", err)
			}
			events = append(events, &e)
		case "guest":
			var g model.Guest
			if err := json.Unmarshal(rec.Data, &g); err != nil {
				return nil, nil, fmt.Errorf("malformed guest record: %w", err)
			}
			guests = append(guests, &g)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read snapshot: %w", err)
	}
	return events, guests, nil
}
