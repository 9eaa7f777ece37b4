package api

import (
	"time"

	"arbitrage-monitor/internal/config"
	"arbitrage-monitor/pkg/types"
)

// DashboardSnapshot represents the complete dashboard state: the top of
// book on both venues, the running arbitrage tally, and the configuration
// currently in effect.
type DashboardSnapshot struct {
	Timestamp time.Time `json:"timestamp"`

	Pair   string        `json:"pair"`
	Venues []VenueStatus `json:"venues"`
	Tally  types.Tally   `json:"tally"`

	Config ConfigSummary `json:"config"`
}

// VenueStatus represents one venue's session and order book state.
type VenueStatus struct {
	Name            string    `json:"name"`
	TransportState  string    `json:"transport_state"`
	LastMessageTime time.Time `json:"last_message_time"`

	BestBidPrice float64 `json:"best_bid_price"`
	BestBidQty   float64 `json:"best_bid_qty"`
	BestAskPrice float64 `json:"best_ask_price"`
	BestAskQty   float64 `json:"best_ask_qty"`

	Restarts int `json:"restarts"`
}

// ConfigSummary represents the operational configuration, surfaced
// read-only on the dashboard.
type ConfigSummary struct {
	Pair       string  `json:"pair"`
	ProfitSize float64 `json:"profit_size"`
	Demo       bool    `json:"demo"`

	TransportStale string `json:"transport_stale"`
	HardStale      string `json:"hard_stale"`
}

// NewConfigSummary creates a config summary from the loaded configuration.
func NewConfigSummary(cfg config.Config) ConfigSummary {
	return ConfigSummary{
		Pair:           cfg.Pair,
		ProfitSize:     cfg.ProfitSize,
		Demo:           cfg.Demo,
		TransportStale: cfg.Watchdog.TransportStale.String(),
		HardStale:      cfg.Watchdog.HardStale.String(),
	}
}
