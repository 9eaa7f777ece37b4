package api

import (
	"time"

	"arbitrage-monitor/pkg/types"
)

// DashboardEvent is the wrapper for all events pushed to the dashboard over
// the WebSocket feed.
type DashboardEvent struct {
	Type      string      `json:"type"` // "snapshot", "top_changed", "deal", "restart"
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// TopChangedEvent mirrors a top-of-book change on one venue's book.
type TopChangedEvent struct {
	Venue string  `json:"venue"`
	Side  string  `json:"side"`
	Price float64 `json:"price"`
	Qty   float64 `json:"qty"`
}

// DealEvent is emitted whenever the evaluator fires a simulated trade.
type DealEvent struct {
	BuyVenue     string  `json:"buy_venue"`
	SellVenue    string  `json:"sell_venue"`
	Qty          float64 `json:"qty"`
	AskPrice     float64 `json:"ask_price"`
	BidPrice     float64 `json:"bid_price"`
	PurchaseCost float64 `json:"purchase_cost"`
	SaleProceeds float64 `json:"sale_proceeds"`
	Profit       float64 `json:"profit"`

	TotalProfit float64 `json:"total_profit"`
	TotalDeals  int     `json:"total_deals"`
}

// RestartEvent is emitted whenever the watchdog restarts a stalled session.
type RestartEvent struct {
	Venue    string `json:"venue"`
	Restarts int    `json:"restarts"`
}

// NewTopChangedEvent converts a types.TopChanged into its dashboard form.
func NewTopChangedEvent(evt types.TopChanged) TopChangedEvent {
	side := "bid"
	if evt.Side == types.Ask {
		side = "ask"
	}
	return TopChangedEvent{Venue: evt.Venue, Side: side, Price: evt.Price, Qty: evt.Qty}
}

// NewDealEvent converts a fired deal and the tally after it into its
// dashboard form.
func NewDealEvent(deal types.Deal, tally types.Tally) DealEvent {
	return DealEvent{
		BuyVenue:     deal.BuyVenue,
		SellVenue:    deal.SellVenue,
		Qty:          deal.Qty,
		AskPrice:     deal.AskPrice,
		BidPrice:     deal.BidPrice,
		PurchaseCost: deal.PurchaseCost,
		SaleProceeds: deal.SaleProceeds,
		Profit:       deal.Profit,
		TotalProfit:  tally.TotalProfit,
		TotalDeals:   tally.TotalDeals,
	}
}
