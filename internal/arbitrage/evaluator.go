// Package arbitrage implements the Arbitrage Evaluator (C4): reacting to
// top-of-book changes, detecting a crossed book across two venues,
// computing quantity and profit, and firing simulated trades.
//
// Grounded on the teacher's strategy.Maker for the "react to an event,
// compute a decision, reconcile state, log the outcome" control shape.
// Unlike Maker, nothing here posts resting orders — it reacts to crossings
// that already exist and settles them immediately, so there is no
// inventory-skew or quote-reconciliation concern to carry over, only the
// control shape.
package arbitrage

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"arbitrage-monitor/internal/book"
	"arbitrage-monitor/pkg/types"
)

const simulatedTradeDelay = 10 * time.Millisecond

// Venue is the narrow view of a venue session the evaluator needs: its
// name (for logging and Deal records) and its Order Book. The evaluator
// never touches a Session's transport directly — only its Book, mutably
// for ApplyConsumption and read-only for Best() — matching spec §3's
// "borrows both sessions read-only for prices/quantities and mutably for
// ledger updates."
type Venue struct {
	Name string
	Book *book.OrderBook
}

// DealHandler is notified after a deal is fired and the tally updated.
// Used to drive dashboard broadcast and tally persistence without the
// evaluator importing either package directly.
type DealHandler func(deal types.Deal, tally types.Tally)

// Evaluator is the singleton arbitrage decision loop described in §4.4.
// It is constructed once with both venues fixed (spec.md's Non-goal caps
// the design at N=2) and is safe to invoke concurrently from multiple
// goroutines, though in this repository it is driven by a single
// top-changed consumer loop (see cmd/arbitrage).
type Evaluator struct {
	a, b *Venue

	profitThreshold decimal.Decimal
	demo            bool

	mu    sync.Mutex
	tally types.Tally

	onDeal DealHandler
	logger *slog.Logger
}

// New constructs an Evaluator for exactly two venues.
func New(a, b *Venue, profitThreshold float64, demo bool, onDeal DealHandler, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		a:               a,
		b:               b,
		profitThreshold: decimal.NewFromFloat(profitThreshold),
		demo:            demo,
		onDeal:          onDeal,
		logger:          logger.With("component", "evaluator"),
	}
}

// SetTally restores a previously persisted tally (startup, §4 domain
// expansion in SPEC_FULL.md — tally survives a process restart).
func (e *Evaluator) SetTally(t types.Tally) {
	e.mu.Lock()
	e.tally = t
	e.mu.Unlock()
}

// Tally returns a snapshot of the current running tally.
func (e *Evaluator) Tally() types.Tally {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tally
}

func (e *Evaluator) resolve(venueName string) (self, other *Venue) {
	switch venueName {
	case e.a.Name:
		return e.a, e.b
	case e.b.Name:
		return e.b, e.a
	default:
		return nil, nil
	}
}

// OnTopChanged implements spec §4.4's algorithm. It is safe under
// reentrancy from step 7c's consumption updates: every invocation re-reads
// Best() from both books, so a later, re-entrant call never acts on a
// stale read.
func (e *Evaluator) OnTopChanged(evt types.TopChanged) {
	self, other := e.resolve(evt.Venue)
	if self == nil {
		e.logger.Warn("top-changed event from unknown venue", "venue", evt.Venue)
		return
	}

	var buyVenue, sellVenue *Venue
	var ask, bid types.BestQuote
	if evt.Side == types.Ask {
		buyVenue, sellVenue = self, other
		ask, bid = self.Book.Asks.Best(), other.Book.Bids.Best()
	} else {
		buyVenue, sellVenue = other, self
		ask, bid = other.Book.Asks.Best(), self.Book.Bids.Best()
	}

	if !(ask.Price > 0 && ask.Price < bid.Price) {
		return
	}

	qty := math.Min(ask.Qty, bid.Qty)
	if qty <= 0 {
		return
	}

	askD := decimal.NewFromFloat(ask.Price)
	bidD := decimal.NewFromFloat(bid.Price)
	qtyD := decimal.NewFromFloat(qty)

	purchaseCost := qtyD.Mul(askD).RoundBank(2)
	saleProceeds := qtyD.Mul(bidD).RoundBank(2)
	profit := saleProceeds.Sub(purchaseCost)

	if profit.LessThan(e.profitThreshold) {
		e.logger.Info("no opportunity: profit below threshold",
			"buy_venue", buyVenue.Name, "sell_venue", sellVenue.Name,
			"ask", ask.Price, "bid", bid.Price, "profit", profit.String())
		return
	}

	e.logger.Info("arbitrage opportunity",
		"buy_venue", buyVenue.Name, "sell_venue", sellVenue.Name,
		"qty", qty, "ask", ask.Price, "bid", bid.Price, "profit", profit.String())

	if !e.demo {
		// demo=false is undefined upstream; this repo treats it as a
		// conservative no-op (log only, no simulated trade, no ledger
		// mutation) per SPEC_FULL.md's Open Question 3.
		return
	}

	e.simulateTradePair()

	profitF, _ := profit.Float64()
	purchaseCostF, _ := purchaseCost.Float64()
	saleProceedsF, _ := saleProceeds.Float64()

	e.mu.Lock()
	e.tally.TotalDeals++
	e.tally.TotalProfit += profitF
	tallySnapshot := e.tally
	e.mu.Unlock()

	deal := types.Deal{
		Time:         time.Now(),
		BuyVenue:     buyVenue.Name,
		SellVenue:    sellVenue.Name,
		Qty:          qty,
		AskPrice:     ask.Price,
		BidPrice:     bid.Price,
		PurchaseCost: purchaseCostF,
		SaleProceeds: saleProceedsF,
		Profit:       profitF,
	}
	e.logger.Info("deal",
		"buy_venue", deal.BuyVenue, "sell_venue", deal.SellVenue, "qty", deal.Qty,
		"profit", deal.Profit, "total_deals", tallySnapshot.TotalDeals,
		"total_profit", tallySnapshot.TotalProfit)

	if e.onDeal != nil {
		e.onDeal(deal, tallySnapshot)
	}

	// Per §5's ordering note, consumption updates happen after the
	// simulated trade awaits complete — a deliberate cap on how quickly
	// the evaluator can re-fire on the same level.
	buyVenue.Book.Asks.ApplyConsumption(ask.Price, qty)
	sellVenue.Book.Bids.ApplyConsumption(bid.Price, qty)
}

// simulateTradePair launches the buy and sell simulated trade tasks and
// waits for both, per §4.4 step 7a. Each is a fixed short delay with no
// real side effect, matching the original source's behavior.
func (e *Evaluator) simulateTradePair() {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); time.Sleep(simulatedTradeDelay) }()
	go func() { defer wg.Done(); time.Sleep(simulatedTradeDelay) }()
	wg.Wait()
}
