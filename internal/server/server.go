// Package server exposes the guest roster and check-in flow over an HTTP
// JSON API, with an SSE feed of door activity for dashboards.
package server

import (
	"context"
	"log/slog"

	"github.com/showtimehq/doorlist/internal/checkin"
	"github.com/showtimehq/doorlist/internal/events"
	"github.com/showtimehq/doorlist/internal/roster"
	"github.com/showtimehq/doorlist/internal/store"
)

// statusReporter is implemented by the roster cache. A store that does not
// report sync status is treated as always-online (direct database mode).
type statusReporter interface {
	Status() roster.Status
}

// Server handles the HTTP API backed by the given store and publisher.
type Server struct {
	store     store.Store
	resolver  *checkin.Resolver
	publisher events.Publisher
	feed      *activityFeed
}

// New returns a Server backed by the given store and publisher.
func New(s store.Store, p events.Publisher) *Server {
	return &Server{
		store:     s,
		resolver:  checkin.NewResolver(s, slog.Default()),
		publisher: p,
		feed:      newActivityFeed(),
	}
}

// publish sends an event to NATS and fans it out to SSE clients. Both are
// best-effort; failures are logged but never block the caller.
func (s *Server) publish(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		slog.Warn("failed to publish event", "topic", topic, "error", err)
	}
	s.broadcastEvent(topic, event)
}

// inputError indicates invalid user input. The transport layer maps it to 400.
type inputError string

func (e inputError) Error() string { return string(e) }
