package api

import (
	"time"

	"arbitrage-monitor/internal/config"
	"arbitrage-monitor/pkg/types"
)

// SnapshotProvider provides read-only access to venue and tally state for
// the dashboard. cmd/arbitrage's runtime implements this over its live
// book.OrderBook/venue.Session/arbitrage.Evaluator instances.
type SnapshotProvider interface {
	VenueStatuses() []VenueStatus
	Tally() types.Tally
}

// BuildSnapshot aggregates state from the provider into a dashboard
// snapshot.
func BuildSnapshot(provider SnapshotProvider, cfg config.Config) DashboardSnapshot {
	return DashboardSnapshot{
		Timestamp: time.Now(),
		Pair:      cfg.Pair,
		Venues:    provider.VenueStatuses(),
		Tally:     provider.Tally(),
		Config:    NewConfigSummary(cfg),
	}
}
