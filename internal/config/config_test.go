package config

import "testing"

func validConfig() Config {
	return Config{
		Pair:       "BTC/USDT",
		ProfitSize: 0.5,
		Demo:       true,
		Binance: VenueURLConfig{
			SnapshotURL: "https://example.invalid/depth",
			StreamURL:   "wss://example.invalid/stream",
		},
		FTX: VenueURLConfig{
			SnapshotURL: "https://example.invalid/orderbook",
			StreamURL:   "wss://example.invalid/ws",
		},
		Store:    StoreConfig{DataDir: "./data"},
		Watchdog: WatchdogConfig{CheckInterval: 5e9, TransportStale: 5e9, HardStale: 10e9},
	}
}

func TestValidateAccepsWellFormedConfig(t *testing.T) {
	t.Parallel()

	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidateRejectsMissingPair(t *testing.T) {
	t.Parallel()

	c := validConfig()
	c.Pair = ""
	if err := c.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for missing pair")
	}
}

func TestValidateRejectsMalformedPair(t *testing.T) {
	t.Parallel()

	c := validConfig()
	c.Pair = "BTCUSDT"
	if err := c.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for pair without slash")
	}
}

func TestValidateRejectsNegativeProfitSize(t *testing.T) {
	t.Parallel()

	c := validConfig()
	c.ProfitSize = -1
	if err := c.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for negative profit_size")
	}
}

func TestValidateRequiresDashboardPortWhenEnabled(t *testing.T) {
	t.Parallel()

	c := validConfig()
	c.Dashboard.Enabled = true
	c.Dashboard.Port = 0
	if err := c.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for enabled dashboard without port")
	}
}
