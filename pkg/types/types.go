// Package types defines shared data structures used across all packages.
//
// This package is the common vocabulary for the monitor — venue sides,
// price levels, order book snapshots, and streaming event payloads. It has
// no dependencies on internal packages, so it can be imported by any layer.
package types

import "time"

// ————————————————————————————————————————————————————————————————————————
// Core enums
// ————————————————————————————————————————————————————————————————————————

// Side identifies a half of an order book: Bid or Ask.
type Side string

const (
	Bid Side = "bid"
	Ask Side = "ask"
)

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

// TransportState tracks the lifecycle of a venue session's streaming
// connection, mirrored from spec §3's Session state.
type TransportState int

const (
	Connecting TransportState = iota
	Open
	Closing
	Closed
)

func (t TransportState) String() string {
	switch t {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// ————————————————————————————————————————————————————————————————————————
// Price levels and book payloads
// ————————————————————————————————————————————————————————————————————————

// PriceLevel is a single (price, quantity) pair as reported by a venue.
// Quantity zero means "level removed" per spec §3.
type PriceLevel struct {
	Price float64
	Qty   float64
}

// BookSnapshot is the venue-authoritative dump used to seed an Order Book.
type BookSnapshot struct {
	Bids []PriceLevel
	Asks []PriceLevel
}

// TopChanged is emitted by an OrderBookSide whenever its extremum changes.
// Carries (side, new_best_price, new_best_effective_quantity) per spec §4.2.
type TopChanged struct {
	Venue string
	Side  Side
	Price float64
	Qty   float64
}

// BestQuote is the return shape of OrderBookSide.Best(): the current
// extremum price and its effective quantity, or (0,0) if the side is empty.
type BestQuote struct {
	Price float64
	Qty   float64
}

// Empty reports whether the quote represents an empty side.
func (q BestQuote) Empty() bool {
	return q.Price == 0 && q.Qty == 0
}

// ————————————————————————————————————————————————————————————————————————
// Streaming frame envelopes (raw wire shapes, decoded by the adapter layer)
// ————————————————————————————————————————————————————————————————————————

// BinanceDepthSnapshot is the JSON body of a Binance REST depth snapshot.
type BinanceDepthSnapshot struct {
	LastUpdateID int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}

// BinanceDepthEvent is the payload nested under "data" in a Binance
// `@depth` stream frame.
type BinanceDepthEvent struct {
	EventType string     `json:"e"`
	EventTime int64      `json:"E"`
	Symbol    string     `json:"s"`
	Bids      [][]string `json:"b"`
	Asks      [][]string `json:"a"`
}

// FTXOrderBookResult is the "result" object of an FTX REST orderbook
// response.
type FTXOrderBookResult struct {
	Bids [][]float64 `json:"bids"`
	Asks [][]float64 `json:"asks"`
}

// FTXOrderBookSnapshot is the JSON body of an FTX REST orderbook snapshot:
// `{"result": {...}}`.
type FTXOrderBookSnapshot struct {
	Result FTXOrderBookResult `json:"result"`
}

// FTXOrderBookEvent is the payload nested under "data" in an FTX
// `orderbook` channel frame.
type FTXOrderBookEvent struct {
	Bids [][]float64 `json:"bids"`
	Asks [][]float64 `json:"asks"`
}

// ————————————————————————————————————————————————————————————————————————
// Arbitrage accounting
// ————————————————————————————————————————————————————————————————————————

// Deal records one fired simulated trade pair for logging/persistence.
type Deal struct {
	Time          time.Time `json:"time"`
	BuyVenue      string    `json:"buy_venue"`
	SellVenue     string    `json:"sell_venue"`
	Qty           float64   `json:"qty"`
	AskPrice      float64   `json:"ask_price"`
	BidPrice      float64   `json:"bid_price"`
	PurchaseCost  float64   `json:"purchase_cost"`
	SaleProceeds  float64   `json:"sale_proceeds"`
	Profit        float64   `json:"profit"`
}

// Tally is the running, persisted arbitrage tally from spec §3 — monotonic
// across the life of the monitor (and, with store persistence, across
// restarts of the process itself).
type Tally struct {
	TotalProfit float64 `json:"total_profit"`
	TotalDeals  int     `json:"total_deals"`
}
