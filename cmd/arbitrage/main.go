// Arbitrage Monitor — watches Binance and FTX order books for the same
// trading pair, detects crossed-book arbitrage opportunities, and fires
// simulated trades.
//
// Architecture:
//
//	main.go                  — entry point: loads config, wires every component, waits for SIGINT/SIGTERM
//	internal/venue           — Venue Session (C1): REST snapshot + WS streaming per venue
//	internal/venue (adapter) — Adapter (C6): per-venue pair formatting, URLs, payload shapes
//	internal/book            — Order Book (C2): best bid/ask maintenance, top-changed events
//	internal/ledger          — Consumed Ledger (C3): suppresses double-counting a simulated fill
//	internal/arbitrage       — Evaluator (C4): crossed-book detection, profit computation, tally
//	internal/watchdog        — Supervisor (C5): restarts a session once it goes stale
//	internal/store           — tally persistence (survives restarts)
//	internal/api             — optional observability dashboard (HTTP + WebSocket)
//
// How it makes money (simulated):
//
//	When one venue's best ask is below the other venue's best bid and the
//	profit on the crossing quantity reaches the configured profit threshold,
//	the monitor "buys" at the ask and "sells" at the bid for that quantity,
//	logs the simulated deal,
//	and updates a running tally. No real orders are ever placed.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"arbitrage-monitor/internal/api"
	"arbitrage-monitor/internal/arbitrage"
	"arbitrage-monitor/internal/book"
	"arbitrage-monitor/internal/config"
	"arbitrage-monitor/internal/store"
	"arbitrage-monitor/internal/venue"
	"arbitrage-monitor/internal/watchdog"
	"arbitrage-monitor/pkg/types"
)

func main() {
	cfgPath := "config.json"
	if p := os.Getenv("ARB_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Logging.Level)}
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)

	rt, err := newRuntime(*cfg, logger)
	if err != nil {
		logger.Error("failed to initialize runtime", "error", err)
		os.Exit(1)
	}

	var apiServer *api.Server
	if cfg.Dashboard.Enabled {
		apiServer = api.NewServer(cfg.Dashboard, rt, *cfg, logger)
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error("dashboard server failed", "error", err)
			}
		}()
		logger.Info("dashboard started", "url", fmt.Sprintf("http://localhost:%d", cfg.Dashboard.Port))
	}

	ctx, cancel := context.WithCancel(context.Background())
	go rt.consumeTopChanged(ctx)
	go rt.sup.Run(ctx)

	logger.Info("arbitrage monitor started",
		"pair", cfg.Pair, "profit_size", cfg.ProfitSize, "demo", cfg.Demo)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	// Per §4.5/§5's ordering guarantee: cancel the watchdog (and every
	// session it supervises) before anything else, then persist the final
	// tally, then stop the dashboard.
	cancel()

	if err := rt.store.SaveTally(rt.eval.Tally()); err != nil {
		logger.Error("failed to persist final tally", "error", err)
	}

	if apiServer != nil {
		if err := apiServer.Stop(); err != nil {
			logger.Error("failed to stop dashboard", "error", err)
		}
	}
}

// runtime wires every component together and is the api.SnapshotProvider
// the dashboard reads from.
type runtime struct {
	cfg    config.Config
	sup    *watchdog.Supervisor
	eval   *arbitrage.Evaluator
	store  *store.Store
	logger *slog.Logger

	binanceBook *book.OrderBook
	ftxBook     *book.OrderBook

	binanceSession atomic.Pointer[venue.Session]
	ftxSession     atomic.Pointer[venue.Session]

	topCh  chan types.TopChanged
	events chan api.DashboardEvent
}

func newRuntime(cfg config.Config, logger *slog.Logger) (*runtime, error) {
	st, err := store.Open(cfg.Store.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	rt := &runtime{
		cfg:    cfg,
		store:  st,
		logger: logger,
		topCh:  make(chan types.TopChanged, 256),
		events: make(chan api.DashboardEvent, 256),
	}

	rt.binanceBook = book.New("binance", rt.topCh, logger)
	rt.ftxBook = book.New("ftx", rt.topCh, logger)

	rt.sup = watchdog.New(cfg.Watchdog.CheckInterval, cfg.Watchdog.TransportStale, cfg.Watchdog.HardStale, logger)
	rt.sup.OnRestart = rt.onRestart
	rt.sup.Register("binance", func() watchdog.Session {
		sess := venue.NewSession(venue.NewBinanceAdapter(), cfg.Pair, cfg.Binance, rt.binanceBook, logger)
		rt.binanceSession.Store(sess)
		return sess
	})
	rt.sup.Register("ftx", func() watchdog.Session {
		sess := venue.NewSession(venue.NewFTXAdapter(), cfg.Pair, cfg.FTX, rt.ftxBook, logger)
		rt.ftxSession.Store(sess)
		return sess
	})

	binanceVenue := &arbitrage.Venue{Name: "binance", Book: rt.binanceBook}
	ftxVenue := &arbitrage.Venue{Name: "ftx", Book: rt.ftxBook}
	rt.eval = arbitrage.New(binanceVenue, ftxVenue, cfg.ProfitSize, cfg.Demo, rt.onDeal, logger)

	if tally, err := st.LoadTally(); err != nil {
		logger.Warn("failed to load persisted tally, starting fresh", "error", err)
	} else if tally != nil {
		rt.eval.SetTally(*tally)
		logger.Info("restored tally", "total_deals", tally.TotalDeals, "total_profit", tally.TotalProfit)
	}

	return rt, nil
}

// consumeTopChanged is the single reader of top-changed events, handing
// each to the evaluator and mirroring it to the dashboard feed.
func (rt *runtime) consumeTopChanged(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-rt.topCh:
			rt.eval.OnTopChanged(evt)
			rt.broadcast("top_changed", api.NewTopChangedEvent(evt))
		}
	}
}

func (rt *runtime) onDeal(deal types.Deal, tally types.Tally) {
	if err := rt.store.SaveTally(tally); err != nil {
		rt.logger.Error("failed to persist tally", "error", err)
	}
	rt.broadcast("deal", api.NewDealEvent(deal, tally))
}

func (rt *runtime) onRestart(venueName string, restarts int) {
	rt.broadcast("restart", api.RestartEvent{Venue: venueName, Restarts: restarts})
}

func (rt *runtime) broadcast(eventType string, data interface{}) {
	evt := api.DashboardEvent{Type: eventType, Timestamp: time.Now(), Data: data}
	select {
	case rt.events <- evt:
	default:
		rt.logger.Warn("dashboard event channel full, dropping event", "type", eventType)
	}
}

// VenueStatuses implements api.SnapshotProvider.
func (rt *runtime) VenueStatuses() []api.VenueStatus {
	return []api.VenueStatus{
		rt.venueStatus("binance", rt.binanceSession.Load(), rt.binanceBook),
		rt.venueStatus("ftx", rt.ftxSession.Load(), rt.ftxBook),
	}
}

func (rt *runtime) venueStatus(name string, sess *venue.Session, ob *book.OrderBook) api.VenueStatus {
	status := api.VenueStatus{Name: name, Restarts: rt.sup.Restarts(name)}
	if sess != nil {
		status.TransportState = sess.State().String()
		status.LastMessageTime = sess.LastMessageTime()
	}
	bid := ob.Bids.Best()
	ask := ob.Asks.Best()
	status.BestBidPrice, status.BestBidQty = bid.Price, bid.Qty
	status.BestAskPrice, status.BestAskQty = ask.Price, ask.Qty
	return status
}

// Tally implements api.SnapshotProvider.
func (rt *runtime) Tally() types.Tally { return rt.eval.Tally() }

// DashboardEvents implements the event-source interface consumeEvents
// expects.
func (rt *runtime) DashboardEvents() <-chan api.DashboardEvent { return rt.events }

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
