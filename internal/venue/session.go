// session.go implements the Venue Session (C1): snapshot seed, streaming
// subscribe, frame decode loop, and delta hand-off into an Order Book.
//
// Grounded on the teacher's exchange/ws.go for the dial/subscribe/read-loop
// shape and exchange/client.go + market/scanner.go for the resty snapshot
// client construction. Unlike the teacher's WSFeed, a Session does not
// reconnect itself on failure — spec §4.1 assigns restart policy entirely
// to the watchdog (C5); a Session simply runs until it hits a transport or
// decode error, or its context is cancelled, and returns.
package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"

	"arbitrage-monitor/internal/book"
	"arbitrage-monitor/internal/config"
	"arbitrage-monitor/pkg/types"
)

// streamFrame is the common outer envelope both venues in scope wrap
// updates in: {"data": {...venue-specific payload...}}. Per §4.6, the
// adapter only ever sees the unwrapped "data" bytes.
type streamFrame struct {
	Data json.RawMessage `json:"data"`
}

// Session owns one venue's REST snapshot client, streaming connection, and
// Order Book. It is created and destroyed only by the Watchdog/Supervisor
// (§3, "Lifecycles").
type Session struct {
	adapter Adapter
	pair    string
	cfg     config.VenueURLConfig

	httpClient *resty.Client
	dialer     *websocket.Dialer
	limiter    *TokenBucket

	Book *book.OrderBook

	mu          sync.Mutex
	conn        *websocket.Conn
	state       types.TransportState
	lastMsg     time.Time
	numMessages uint64

	logger *slog.Logger
}

// NewSession constructs a Session for one venue. ob is owned by the
// caller (the supervisor) so it can be reused across restarts per §4.5.
func NewSession(adapter Adapter, pair string, cfg config.VenueURLConfig, ob *book.OrderBook, logger *slog.Logger) *Session {
	httpClient := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &Session{
		adapter:    adapter,
		pair:       pair,
		cfg:        cfg,
		httpClient: httpClient,
		dialer:     &websocket.Dialer{EnableCompression: true, HandshakeTimeout: 10 * time.Second},
		limiter:    NewTokenBucket(5, 1), // at most a handful of snapshot refetches in quick succession
		Book:       ob,
		state:      types.Connecting,
		logger:     logger.With("component", "venue-session", "venue", adapter.Name),
	}
}

// Name returns the venue name this session is for.
func (s *Session) Name() string { return s.adapter.Name }

// State returns the current transport state.
func (s *Session) State() types.TransportState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastMessageTime returns the wall-clock time of the most recently parsed
// message, used by the watchdog's staleness check (§4.5).
func (s *Session) LastMessageTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastMsg
}

func (s *Session) setState(state types.TransportState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) markMessage() {
	s.mu.Lock()
	s.lastMsg = time.Now()
	s.numMessages++
	s.mu.Unlock()
}

// Start performs the full session lifecycle (§4.1): GET the snapshot,
// apply it, open the stream, subscribe, then read frames until ctx is
// cancelled or a transport/decode error occurs. It does not self-retry;
// the caller (the watchdog) decides what to do when Start returns.
func (s *Session) Start(ctx context.Context) error {
	s.setState(types.Connecting)

	if err := s.fetchAndApplySnapshot(ctx); err != nil {
		s.setState(types.Closed)
		return fmt.Errorf("%s: snapshot: %w", s.adapter.Name, err)
	}

	conn, _, err := s.dialer.DialContext(ctx, s.cfg.StreamURL, nil)
	if err != nil {
		s.setState(types.Closed)
		return fmt.Errorf("%s: dial: %w", s.adapter.Name, err)
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	sub, err := s.adapter.BuildSubscribeMessage(s.pair)
	if err != nil {
		s.closeConn()
		s.setState(types.Closed)
		return fmt.Errorf("%s: build subscribe message: %w", s.adapter.Name, err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		s.closeConn()
		s.setState(types.Closed)
		return fmt.Errorf("%s: send subscribe: %w", s.adapter.Name, err)
	}

	s.setState(types.Open)
	s.markMessage() // the subscribe round-trip counts as initial liveness

	err = s.readLoop(ctx, conn)
	s.closeConn()
	s.setState(types.Closed)
	return err
}

func (s *Session) fetchAndApplySnapshot(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	url := s.adapter.BuildSnapshotURL(s.cfg.SnapshotURL, s.adapter.FormatPairForURL(s.pair))
	resp, err := s.httpClient.R().SetContext(ctx).Get(url)
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	if resp.IsError() {
		return fmt.Errorf("GET %s: status %d", url, resp.StatusCode())
	}

	snap, err := s.adapter.ParseSnapshot(resp.Body())
	if err != nil {
		return err
	}

	s.Book.ApplySnapshot(snap)
	s.markMessage()
	return nil
}

// readLoop consumes frames until ctx is cancelled or a read/decode error
// terminates the session. Per §4.1, decode errors of a single frame are
// fatal — they indicate a venue protocol change, not a transient blip.
func (s *Session) readLoop(ctx context.Context, conn *websocket.Conn) error {
	go func() {
		<-ctx.Done()
		s.closeConn()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil // orderly cancellation, not a transport failure
			}
			return fmt.Errorf("%s: read: %w", s.adapter.Name, err)
		}

		var frame streamFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			return fmt.Errorf("%s: decode frame envelope: %w", s.adapter.Name, err)
		}
		if len(frame.Data) == 0 {
			continue
		}

		bids, asks, err := s.adapter.ParseStreamPayload(frame.Data)
		if err != nil {
			return fmt.Errorf("%s: decode frame payload: %w", s.adapter.Name, err)
		}

		if len(bids) > 0 {
			s.Book.Bids.ApplyDeltas(bids)
		}
		if len(asks) > 0 {
			s.Book.Asks.ApplyDeltas(asks)
		}
		s.markMessage()
	}
}

// Stop closes the transport. Idempotent.
func (s *Session) Stop() {
	s.setState(types.Closing)
	s.closeConn()
}

func (s *Session) closeConn() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}
