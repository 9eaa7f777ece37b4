// Package api implements the optional observability dashboard: a
// read-only HTTP + WebSocket view of venue status and the running
// arbitrage tally. It never accepts commands back — every handler here
// only ever reads from a SnapshotProvider or forwards events onto a
// broadcaster.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"arbitrage-monitor/internal/config"
)

// Server runs the dashboard's HTTP and WebSocket endpoints.
type Server struct {
	cfg         config.DashboardConfig
	provider    SnapshotProvider
	fullCfg     config.Config
	broadcaster *broadcaster
	httpServer  *http.Server
	logger      *slog.Logger
}

// NewServer builds a dashboard server bound to cfg.Port, serving
// /health, /api/snapshot, and /ws.
func NewServer(cfg config.DashboardConfig, provider SnapshotProvider, fullCfg config.Config, logger *slog.Logger) *Server {
	s := &Server{
		cfg:         cfg,
		provider:    provider,
		fullCfg:     fullCfg,
		broadcaster: newBroadcaster(logger),
		logger:      logger.With("component", "dashboard-server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/snapshot", s.handleSnapshot)
	mux.HandleFunc("/ws", s.handleWebSocket)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start runs the event consumer and serves HTTP until Stop is called.
func (s *Server) Start() error {
	go s.consumeEvents()

	s.logger.Info("dashboard server starting", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.logger.Info("stopping dashboard server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// consumeEvents forwards every event the runtime produces (top-changed,
// deal, restart) to connected dashboard clients, for as long as the
// provider's event channel stays open.
func (s *Server) consumeEvents() {
	src, ok := s.provider.(interface{ DashboardEvents() <-chan DashboardEvent })
	if !ok {
		return
	}
	ch := src.DashboardEvents()
	if ch == nil {
		return
	}
	for evt := range ch {
		s.broadcaster.broadcast(evt)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot := BuildSnapshot(s.provider, s.fullCfg)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		s.logger.Error("failed to encode snapshot", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(req *http.Request) bool {
			return isOriginAllowed(req.Header.Get("Origin"), s.cfg.AllowedOrigins, req.Host)
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := s.broadcaster.add(conn)
	snapshot := BuildSnapshot(s.provider, s.fullCfg)
	s.broadcaster.sendTo(client, DashboardEvent{Type: "snapshot", Timestamp: time.Now(), Data: snapshot})
}

// isOriginAllowed decides whether a dashboard WebSocket connection should
// be accepted. This dashboard has one audience — whoever the operator put
// in dashboard.allowed_origins, plus same-host/localhost by default — so
// unlike a public-facing API this only needs an exact-match allowlist, not
// the teacher's full scheme/host normalization matrix.
func isOriginAllowed(origin string, allowed []string, reqHost string) bool {
	if origin == "" {
		return true // non-browser clients (curl, scripts) omit Origin
	}

	for _, a := range allowed {
		if strings.EqualFold(origin, a) {
			return true
		}
	}
	if len(allowed) > 0 {
		return false
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return true
	}

	reqHostname := reqHost
	if h, _, err := net.SplitHostPort(reqHost); err == nil {
		reqHostname = h
	}
	return strings.EqualFold(host, reqHostname)
}
