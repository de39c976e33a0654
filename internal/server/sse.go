package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// feedReplayDepth is how many recent entries are kept for
	// Last-Event-ID replay. A door controller reconnecting after a
	// dropped link needs the last stretch of scans, not the whole night.
	feedReplayDepth = 256

	// feedKeepalive is how often comment lines are sent so idle
	// connections are not reaped by proxies.
	feedKeepalive = 15 * time.Second
)

// feedEntry is one piece of door activity: a check-in, a denial, or a
// roster change, as published on the corresponding events topic.
type feedEntry struct {
	Seq   uint64
	Topic string
	Data  json.RawMessage
	At    time.Time
}

// feedWatcher is one connected stream consumer, typically a door
// dashboard. An empty topic list watches everything.
type feedWatcher struct {
	topics []string
	ch     chan *feedEntry
}

// activityFeed fans door activity out to watchers and keeps a bounded
// replay window so reconnecting controllers can catch up.
type activityFeed struct {
	mu       sync.Mutex
	seq      uint64
	watchers map[*feedWatcher]struct{}
	replay   []feedEntry // oldest first, at most feedReplayDepth entries
}

func newActivityFeed() *activityFeed {
	return &activityFeed{
		watchers: make(map[*feedWatcher]struct{}),
	}
}

// broadcast records an entry in the replay window and delivers it to every
// watcher whose topic filter matches. Slow watchers lose entries rather
// than stalling the door.
func (f *activityFeed) broadcast(topic string, payload []byte) {
	f.mu.Lock()
	f.seq++
	entry := &feedEntry{
		Seq:   f.seq,
		Topic: topic,
		Data:  payload,
		At:    time.Now().UTC(),
	}

	f.replay = append(f.replay, *entry)
	if len(f.replay) > feedReplayDepth {
		f.replay = f.replay[1:]
	}

	for w := range f.watchers {
		if w.matches(topic) {
			select {
			case w.ch <- entry:
			default:
			}
		}
	}
	f.mu.Unlock()
}

func (f *activityFeed) watch(topics []string) *feedWatcher {
	w := &feedWatcher{
		topics: topics,
		ch:     make(chan *feedEntry, 64),
	}
	f.mu.Lock()
	f.watchers[w] = struct{}{}
	f.mu.Unlock()
	return w
}

func (f *activityFeed) drop(w *feedWatcher) {
	f.mu.Lock()
	delete(f.watchers, w)
	f.mu.Unlock()
}

// entriesAfter returns the buffered entries with Seq > seq, oldest first.
// Entries older than the replay window are gone; the caller just misses
// them.
func (f *activityFeed) entriesAfter(seq uint64) []*feedEntry {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*feedEntry
	for i := range f.replay {
		if f.replay[i].Seq > seq {
			out = append(out, &f.replay[i])
		}
	}
	return out
}

// matches reports whether the watcher wants the given topic. An empty
// filter list matches everything.
func (w *feedWatcher) matches(topic string) bool {
	if len(w.topics) == 0 {
		return true
	}
	for _, pattern := range w.topics {
		if topicMatches(pattern, topic) {
			return true
		}
	}
	return false
}

// topicMatches matches a dot-separated topic against a pattern, with "*"
// as a single-segment wildcard and ">" as a multi-segment suffix wildcard,
// the same grammar the events topics use on NATS.
func topicMatches(pattern, topic string) bool {
	if pattern == topic {
		return true
	}

	patParts := strings.Split(pattern, ".")
	topParts := strings.Split(topic, ".")

	for i, pp := range patParts {
		if pp == ">" {
			return i < len(topParts)
		}
		if i >= len(topParts) {
			return false
		}
		if pp != "*" && pp != topParts[i] {
			return false
		}
	}

	return len(patParts) == len(topParts)
}

// handleEventStream handles GET /v1/checkin/stream. Controllers and
// dashboards hold this open for the night; `?topics=` narrows the feed
// (e.g. topics=doorlist.checkin.*) and Last-Event-ID resumes after a
// dropped connection.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	var topics []string
	if q := r.URL.Query().Get("topics"); q != "" {
		for _, t := range strings.Split(q, ",") {
			t = strings.TrimSpace(t)
			if t != "" {
				topics = append(topics, t)
			}
		}
	}

	watcher := s.feed.watch(topics)
	defer s.feed.drop(watcher)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if lastIDStr := r.Header.Get("Last-Event-ID"); lastIDStr != "" {
		if lastID, err := strconv.ParseUint(lastIDStr, 10, 64); err == nil {
			for _, entry := range s.feed.entriesAfter(lastID) {
				if watcher.matches(entry.Topic) {
					writeFeedEntry(w, entry)
				}
			}
			flusher.Flush()
		}
	}

	ctx := r.Context()
	keepalive := time.NewTicker(feedKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case entry := <-watcher.ch:
			writeFeedEntry(w, entry)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprintf(w, ":keepalive\n\n")
			flusher.Flush()
		}
	}
}

func writeFeedEntry(w http.ResponseWriter, entry *feedEntry) {
	fmt.Fprintf(w, "id:%d\n", entry.Seq)
	fmt.Fprintf(w, "event:%s\n", entry.Topic)
	fmt.Fprintf(w, "data:%s\n\n", entry.Data)
}

// broadcastEvent mirrors a published event onto the SSE feed.
func (s *Server) broadcastEvent(topic string, event any) {
	if s.feed == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Warn("failed to marshal event for stream", "topic", topic, "error", err)
		return
	}
	s.feed.broadcast(topic, payload)
}
