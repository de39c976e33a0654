package roster

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/showtimehq/doorlist/internal/model"
	"github.com/showtimehq/doorlist/internal/store/memory"
)

func seedRoster(t *testing.T) *memory.MemoryStore {
	t.Helper()
	ms := memory.New()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	for _, e := range []*model.Event{
		{ID: "evt-gala", Name: "Gala Night", CreatedAt: now},
		{ID: "evt-after", Name: "Afterparty", CreatedAt: now.Add(time.Minute)},
	} {
		if err := ms.CreateEvent(ctx, e); err != nil {
			t.Fatalf("create event %s: %v", e.ID, err)
		}
	}
	checked := now.Add(time.Hour)
	for _, g := range []*model.Guest{
		{ID: "AAAAAA", EventID: "evt-gala", Name: "Ada Lovelace", Company: "Analytical", AccessLevel: model.AccessLevel1, CreatedAt: now},
		{ID: "BBBBBB", EventID: "evt-gala", Name: "Edsger Dijkstra", AccessLevel: model.AccessLevel2, CheckedInAt: &checked, CreatedAt: now},
		{ID: "CCCCCC", EventID: "evt-after", Name: "Grace Hopper", AccessLevel: model.AccessLevel3, CreatedAt: now},
	} {
		if err := ms.CreateGuest(ctx, g); err != nil {
			t.Fatalf("create guest %s: %v", g.ID, err)
		}
	}
	return ms
}

func TestExportJSONL_Empty(t *testing.T) {
	ms := memory.New()
	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (header only), got %d", len(lines))
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.Version != "1" || h.Type != "header" || h.EventCount != 0 || h.GuestCount != 0 {
		t.Fatalf("unexpected header: %+v", h)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ms := seedRoster(t)

	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	// 1 header + 2 events + 3 guests = 6
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d:\n%s", len(lines), buf.String())
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.EventCount != 2 || h.GuestCount != 3 {
		t.Fatalf("header counts: events=%d guests=%d", h.EventCount, h.GuestCount)
	}

	events, guests, err := ImportJSONL(&buf)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(events) != 2 || len(guests) != 3 {
		t.Fatalf("imported %d events and %d guests", len(events), len(guests))
	}
	if events[0].ID != "evt-gala" || events[0].Name != "Gala Night" {
		t.Fatalf("unexpected first event: %+v", events[0])
	}

	byID := make(map[string]*model.Guest, len(guests))
	for _, g := range guests {
		byID[g.ID] = g
	}
	checked, ok := byID["BBBBBB"]
	if !ok {
		t.Fatal("guest BBBBBB missing from import")
	}
	if !checked.IsCheckedIn() {
		t.Fatal("check-in timestamp lost in round trip")
	}
	if byID["AAAAAA"].AccessLevel != model.AccessLevel1 {
		t.Fatalf("access level lost: %+v", byID["AAAAAA"])
	}
}

func TestImportJSONL_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not json", "guest list goes here\n"},
		{"missing header", `{"type":"event","data":{"id":"evt-1"}}` + "\n"},
		{"garbage record", `{"version":"1","type":"header"}` + "\n" + "{{{\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ImportJSONL(strings.NewReader(tt.input)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestImportJSONL_SkipsUnknownRecordTypes(t *testing.T) {
	input := `{"version":"1","type":"header","event_count":1,"guest_count":0}
{"type":"venue","data":{"id":"x"}}
{"type":"event","data":{"id":"evt-1","name":"Gala"}}
`
	events, guests, err := ImportJSONL(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || len(guests) != 0 {
		t.Fatalf("got %d events, %d guests", len(events), len(guests))
	}
}

func nonEmptyLines(s string) []string {
	var result []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			result = append(result, line)
		}
	}
	return result
}
