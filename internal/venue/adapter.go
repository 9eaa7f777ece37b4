// Package venue implements the Venue Session (C1) and Adapter layer (C6):
// per-venue REST snapshot fetch, WebSocket streaming, frame decoding, and
// delta hand-off into an Order Book.
package venue

import "arbitrage-monitor/pkg/types"

// Adapter collapses the per-venue "polymorphism via class attributes" the
// original source used (exchange_name, template_subscribe_msg, …) into a
// single record, per spec §4.6/§9: one Session type, many Adapter values.
// Where the original attributes were plain template strings, the fields
// here are small functions — Go has no class-attribute polymorphism, so
// the per-venue behavior (string vs. numeric level rows, differently
// shaped subscribe messages) is carried as closures instead of templates,
// without changing the "one type, many adapter values" shape spec.md
// calls for.
type Adapter struct {
	// Name identifies the venue in logs and dashboard events.
	Name string

	// FormatPairForSubscribe converts "BTC/USDT" into this venue's
	// subscribe-channel spelling, e.g. "btcusdt@depth@100ms" (Binance) or
	// "BTC/USDT" unchanged (FTX).
	FormatPairForSubscribe func(pair string) string

	// FormatPairForURL converts "BTC/USDT" into this venue's REST path
	// spelling, e.g. "BTCUSDT" (Binance) or "BTC/USDT" unchanged (FTX).
	FormatPairForURL func(pair string) string

	// BuildSnapshotURL returns the full REST snapshot URL for pair, given
	// the configured base URL template.
	BuildSnapshotURL func(baseURL, pair string) string

	// BuildSubscribeMessage returns the JSON body to send once the stream
	// connection is open.
	BuildSubscribeMessage func(pair string) ([]byte, error)

	// ParseSnapshot decodes a REST snapshot response body into a
	// BookSnapshot, applying response_root unwrapping (identity for
	// Binance, body["result"] for FTX) internally.
	ParseSnapshot func(body []byte) (types.BookSnapshot, error)

	// ParseStreamPayload decodes the venue-specific payload nested under
	// a stream frame's "data" key (the envelope itself is common to both
	// venues in scope and is peeled off by Session before this is
	// called) into bid/ask deltas.
	ParseStreamPayload func(data []byte) (bids, asks []types.PriceLevel, err error)
}
