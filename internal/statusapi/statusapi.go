// Package statusapi exposes the FSM's session.Status as a local-loopback
// HTTP surface for external introspection: spec.md names a "log sink" and
// leaves it external, but does not forbid a read-only status endpoint, and
// the teacher pairs every long-running driver process with one (cmd/driver/
// hasher-host/main.go's gin REST API). Grounded on that shape — a gin
// router in gin.ReleaseMode with gin.Recovery() only, one route group,
// JSON responses via gin.H — trimmed to the two read-only routes this
// system's introspection need actually calls for.
package statusapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"arincloader/internal/session"
)

// EventLog is a bounded ring of recent status events for GET /events,
// fed by the same session.Status.Update calls the FSM already makes.
type EventLog struct {
	mu     sync.Mutex
	events []session.StatusSnapshot
	cap    int
}

// NewEventLog returns an EventLog retaining at most capacity entries.
func NewEventLog(capacity int) *EventLog {
	if capacity <= 0 {
		capacity = 1
	}
	return &EventLog{cap: capacity}
}

// Append records snap, evicting the oldest entry once capacity is reached.
func (l *EventLog) Append(snap session.StatusSnapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, snap)
	if len(l.events) > l.cap {
		l.events = l.events[len(l.events)-l.cap:]
	}
}

// Snapshot returns a copy of the retained events, oldest first.
func (l *EventLog) Snapshot() []session.StatusSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]session.StatusSnapshot, len(l.events))
	copy(out, l.events)
	return out
}

// Server is the loopback status/events HTTP surface.
type Server struct {
	status *session.Status
	events *EventLog
	http   *http.Server
}

// New builds a Server serving status and the entries already in events. Callers
// wanting an event feed must separately poll status.Snapshot() and call
// events.Append — Server itself never mutates session state.
func New(addr string, status *session.Status, events *EventLog) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{status: status, events: events}

	api := router.Group("/")
	{
		api.GET("/status", s.handleStatus)
		api.GET("/events", s.handleEvents)
	}

	s.http = &http.Server{
		Addr:    addr,
		Handler: router,
	}
	return s
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.status.Snapshot())
}

func (s *Server) handleEvents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"events": s.events.Snapshot()})
}

// ListenAndServe runs the HTTP server until Shutdown is called, matching
// the teacher's runAPIServer goroutine contract (ignore ErrServerClosed).
func (s *Server) ListenAndServe() error {
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Addr reports the server's configured listen address.
func (s *Server) Addr() string {
	return s.http.Addr
}

// Shutdown gracefully stops the server within the given timeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}

// PollInterval is how often cmd/loader samples status into the EventLog.
const PollInterval = 500 * time.Millisecond

// RunPoller periodically appends status snapshots to events until ctx is
// cancelled, giving GET /events a history without the FSM loop needing to
// know statusapi exists.
func RunPoller(ctx context.Context, status *session.Status, events *EventLog) {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	var last string
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := status.Snapshot()
			key := snap.State + "/" + snap.LastEvent
			if key != last {
				events.Append(snap)
				last = key
			}
		}
	}
}
