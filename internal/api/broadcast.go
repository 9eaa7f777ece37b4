package api

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// broadcaster fans DashboardEvents out to every connected dashboard client.
//
// The teacher's Hub serialized client (de)registration and broadcast
// through three channels and a dedicated Run loop — the right shape for a
// matching engine multiplexing order-book updates to many concurrent
// traders. This dashboard pushes four event types (snapshot, top_changed,
// deal, restart) to a handful of read-only observers, so a mutex-guarded
// client set does the same job with less machinery: no Run() goroutine to
// start, no registration round-trip before a client can receive anything.
type broadcaster struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
	logger  *slog.Logger
}

// wsClient is one connected dashboard WebSocket.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

func newBroadcaster(logger *slog.Logger) *broadcaster {
	return &broadcaster{
		clients: make(map[*wsClient]struct{}),
		logger:  logger.With("component", "dashboard-ws"),
	}
}

// add registers conn as a client and starts its pumps.
func (b *broadcaster) add(conn *websocket.Conn) *wsClient {
	c := &wsClient{conn: conn, send: make(chan []byte, 16)}

	b.mu.Lock()
	b.clients[c] = struct{}{}
	count := len(b.clients)
	b.mu.Unlock()
	b.logger.Info("dashboard client connected", "count", count)

	go b.writePump(c)
	go b.readPump(c)
	return c
}

func (b *broadcaster) remove(c *wsClient) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.send)
	}
	count := len(b.clients)
	b.mu.Unlock()
	b.logger.Info("dashboard client disconnected", "count", count)
}

// broadcast sends evt to every connected client, dropping clients that
// can't keep up rather than blocking the caller.
func (b *broadcaster) broadcast(evt DashboardEvent) {
	data, err := json.Marshal(evt)
	if err != nil {
		b.logger.Error("failed to marshal dashboard event", "error", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		select {
		case c.send <- data:
		default:
			delete(b.clients, c)
			close(c.send)
		}
	}
}

// sendTo delivers evt to a single newly-connected client (its initial
// snapshot), without blocking if the client's buffer is already full.
func (b *broadcaster) sendTo(c *wsClient, evt DashboardEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	select {
	case c.send <- data:
	default:
		b.logger.Warn("failed to send initial snapshot to client")
	}
	return nil
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// Read limit for inbound client messages. The dashboard is read-only
	// and ignores what clients send; outbound events are not limited by it.
	maxMessageSize = 64 * 1024
)

func (b *broadcaster) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (b *broadcaster) readPump(c *wsClient) {
	defer func() {
		b.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				b.logger.Error("dashboard websocket error", "error", err)
			}
			return
		}
		// The dashboard is read-only; any inbound client message is ignored.
	}
}
