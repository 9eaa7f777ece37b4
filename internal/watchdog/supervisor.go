// Package watchdog implements the Watchdog/Supervisor (C5): periodically
// inspecting each venue session's last-message timestamp and transport
// state, restarting stalled sessions, and owning session lifecycle end to
// end — including orderly shutdown.
//
// Grounded on the teacher's risk.Manager: a standalone goroutine driven by
// a ticker, running Run(ctx) until cancelled, with a single mutex guarding
// the tracked state. Where Manager inspects exposure and emits a
// KillSignal, Supervisor inspects staleness and restarts a session
// in-place — the monitoring-loop shape is the same, the decision it makes
// is this domain's.
package watchdog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"arbitrage-monitor/pkg/types"
)

// Session is the narrow view the watchdog needs of a venue session. The
// concrete *venue.Session satisfies this without referencing it directly,
// keeping this package independent of venue's REST/WS plumbing and easy to
// drive with a fake in tests.
type Session interface {
	Start(ctx context.Context) error
	Stop()
	State() types.TransportState
	LastMessageTime() time.Time
}

// handle tracks one venue's running session and its restart bookkeeping,
// per spec §4.5 ("a handle to the running session task, start timestamp,
// last restart timestamp, restart counter").
type handle struct {
	name    string
	factory func() Session

	session Session
	cancel  context.CancelFunc
	done    chan struct{}

	startTime   time.Time
	lastRestart time.Time
	restarts    int
}

// Supervisor is the C5 watchdog. It is constructed once, has each venue
// registered with a factory that creates a fresh *venue.Session sharing
// the venue's persistent *book.OrderBook (so a restart reuses the Order
// Book and Consumed Ledger per §4.5's explicit wart-preserving rule), and
// then is run until its context is cancelled.
type Supervisor struct {
	mu      sync.Mutex
	handles map[string]*handle

	checkInterval  time.Duration
	transportStale time.Duration
	hardStale      time.Duration

	// OnRestart, if set, is called after a session is restarted — used to
	// drive dashboard restart-event broadcast without this package
	// importing internal/api.
	OnRestart func(venue string, restarts int)

	logger *slog.Logger
}

// New constructs a Supervisor with the staleness thresholds from config
// (defaults: 5s check interval, 5s transport-stale, 10s hard-stale, per
// spec §4.5).
func New(checkInterval, transportStale, hardStale time.Duration, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		handles:        make(map[string]*handle),
		checkInterval:  checkInterval,
		transportStale: transportStale,
		hardStale:      hardStale,
		logger:         logger.With("component", "watchdog"),
	}
}

// Register adds a venue under supervision. factory must return a new
// *venue.Session each call, bound to the same Order Book every time (the
// caller captures it in the closure) so state survives across restarts.
// Register must be called before Run.
func (s *Supervisor) Register(name string, factory func() Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handles[name] = &handle{name: name, factory: factory}
}

// Run starts every registered session and then loops, checking staleness
// every checkInterval, until ctx is cancelled. On cancellation it stops
// the watchdog loop first and then every session, per §4.5/§5's ordering
// guarantee ("Shutdown cancels the watchdog first... then both sessions").
func (s *Supervisor) Run(ctx context.Context) {
	s.mu.Lock()
	for _, h := range s.handles {
		s.launchLocked(ctx, h)
	}
	s.mu.Unlock()

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.stopAll()
			return
		case <-ticker.C:
			s.checkAll(ctx)
		}
	}
}

// launchLocked starts h's session in its own goroutine. Caller holds s.mu.
func (s *Supervisor) launchLocked(ctx context.Context, h *handle) {
	sessCtx, cancel := context.WithCancel(ctx)
	sess := h.factory()

	h.session = sess
	h.cancel = cancel
	h.done = make(chan struct{})
	h.startTime = time.Now()

	done := h.done
	go func() {
		if err := sess.Start(sessCtx); err != nil && sessCtx.Err() == nil {
			s.logger.Error("session exited", "venue", h.name, "error", err)
		}
		close(done)
	}()

	s.logger.Info("session started", "venue", h.name)
}

// checkAll inspects every registered venue's liveness and restarts the
// ones that need it.
func (s *Supervisor) checkAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, h := range s.handles {
		if s.needsRestartLocked(h) {
			s.restartLocked(ctx, h)
		}
	}
}

// needsRestartLocked implements the restart condition from §4.5: the
// session task already completed on its own, or
// `dt > 5s && transport beyond Open`, or `dt > 10s` regardless.
func (s *Supervisor) needsRestartLocked(h *handle) bool {
	select {
	case <-h.done:
		return true
	default:
	}

	dt := time.Since(h.session.LastMessageTime())
	state := h.session.State()

	if dt > s.transportStale && (state == types.Closing || state == types.Closed) {
		return true
	}
	return dt > s.hardStale
}

// restartLocked stops h's current session and launches a fresh one,
// reusing the same Order Book via h.factory. Caller holds s.mu.
func (s *Supervisor) restartLocked(ctx context.Context, h *handle) {
	s.logger.Warn("restarting stalled session", "venue", h.name, "restart_count", h.restarts+1)

	h.cancel()
	h.session.Stop()
	<-h.done

	h.restarts++
	h.lastRestart = time.Now()
	s.launchLocked(ctx, h)

	if s.OnRestart != nil {
		s.OnRestart(h.name, h.restarts)
	}
}

// Restarts returns how many times the named venue's session has been
// restarted so far. Used by the dashboard snapshot.
func (s *Supervisor) Restarts(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.handles[name]; ok {
		return h.restarts
	}
	return 0
}

// stopAll cancels and waits for every session on shutdown.
func (s *Supervisor) stopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var wg sync.WaitGroup
	for _, h := range s.handles {
		wg.Add(1)
		go func(h *handle) {
			defer wg.Done()
			h.cancel()
			h.session.Stop()
			<-h.done
		}(h)
	}
	wg.Wait()
	s.logger.Info("all sessions stopped")
}
