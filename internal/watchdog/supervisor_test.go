package watchdog

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"arbitrage-monitor/pkg/types"
)

// fakeSession is a minimal Session double: it blocks in Start until either
// its own "crash" fires or ctx is cancelled, and tracks staleness via a
// manually-set lastMsg so tests can force restart conditions.
type fakeSession struct {
	mu      sync.Mutex
	state   types.TransportState
	lastMsg time.Time

	starts int32
	stops  int32

	crash chan struct{}
}

func newFakeSession() *fakeSession {
	return &fakeSession{state: types.Open, lastMsg: time.Now(), crash: make(chan struct{})}
}

func (f *fakeSession) Start(ctx context.Context) error {
	atomic.AddInt32(&f.starts, 1)
	select {
	case <-ctx.Done():
		return nil
	case <-f.crash:
		return nil
	}
}

func (f *fakeSession) Stop() {
	atomic.AddInt32(&f.stops, 1)
}

func (f *fakeSession) State() types.TransportState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSession) LastMessageTime() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastMsg
}

func (f *fakeSession) setStale(ago time.Duration) {
	f.mu.Lock()
	f.lastMsg = time.Now().Add(-ago)
	f.mu.Unlock()
}

func TestSupervisorRestartsOnHardStale(t *testing.T) {
	t.Parallel()

	sessions := make(chan *fakeSession, 4)
	sup := New(20*time.Millisecond, time.Hour, 30*time.Millisecond, slog.Default())
	sup.Register("binance", func() Session {
		fs := newFakeSession()
		sessions <- fs
		return fs
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sup.Run(ctx)

	first := <-sessions
	first.setStale(time.Hour) // force dt > hardStale immediately

	select {
	case second := <-sessions:
		if second == first {
			t.Fatal("expected a new session instance on restart")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for restart")
	}
}

func TestSupervisorShutdownStopsSessions(t *testing.T) {
	t.Parallel()

	fs := newFakeSession()
	sup := New(10*time.Millisecond, time.Hour, time.Hour, slog.Default())
	sup.Register("ftx", func() Session { return fs })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after shutdown")
	}

	if atomic.LoadInt32(&fs.stops) == 0 {
		t.Error("expected Stop() to be called on shutdown")
	}
}
