// Package book implements the Order Book (C2): a per-venue, per-side
// price→quantity map that tracks the current best bid/ask and emits a
// "top-changed" signal only when that extremum actually moves.
//
// Grounded on the teacher's market.Book — an RWMutex-guarded snapshot of
// venue state with a derived best-price accessor — generalized here to the
// explicit apply_deltas/apply_consumption operations spec'd for this
// domain, and to the explicit positive-quantity set the original Python
// source keeps for O(1) extremum maintenance on small books.
package book

import (
	"log/slog"
	"math"
	"sync"

	"arbitrage-monitor/internal/ledger"
	"arbitrage-monitor/pkg/types"
)

// OrderBookSide maintains one half (bids or asks) of one venue's order
// book. Mutation happens under mu; the top-changed signal for a batch is
// computed once, under the lock, and delivered outside it so a slow
// consumer cannot stall the feed (§4.2, "handlers must not block the
// feed").
type OrderBookSide struct {
	mu sync.RWMutex

	venue string
	side  types.Side

	raw      map[float64]float64   // last raw venue-reported qty, by price
	positive map[float64]struct{}  // prices with effective qty > 0
	extremum float64               // best price, or the empty sentinel

	ledger *ledger.Ledger
	topCh  chan<- types.TopChanged
	logger *slog.Logger
}

// newSide constructs one side of a venue's book. topCh may be nil, in
// which case top-changed events are computed but not delivered (used by
// tests that only care about Best()).
func newSide(venue string, side types.Side, topCh chan<- types.TopChanged, logger *slog.Logger) *OrderBookSide {
	return &OrderBookSide{
		venue:    venue,
		side:     side,
		raw:      make(map[float64]float64),
		positive: make(map[float64]struct{}),
		extremum: emptySentinel(side),
		ledger:   ledger.New(),
		topCh:    topCh,
		logger:   logger,
	}
}

func emptySentinel(side types.Side) float64 {
	if side == types.Bid {
		return math.Inf(-1)
	}
	return math.Inf(1)
}

// ApplyDeltas overwrites each listed price's reported quantity (deltas in
// this protocol are absolute level quantities, not increments) and emits a
// top-changed event at most once for the whole batch, iff the side's
// extremum differs before and after.
func (s *OrderBookSide) ApplyDeltas(levels []types.PriceLevel) {
	s.mu.Lock()
	before := s.extremum
	for _, lvl := range levels {
		s.applyOneLocked(lvl.Price, lvl.Qty)
	}
	changed := s.extremum != before
	var evt types.TopChanged
	if changed {
		evt = s.topChangedLocked()
	}
	s.mu.Unlock()

	if changed {
		s.emit(evt)
	}
}

// applyOneLocked applies the effective-quantity rule from §4.2 to a single
// reported (price, raw qty) pair. Caller holds s.mu.
func (s *OrderBookSide) applyOneLocked(price, raw float64) {
	oldEff := s.effectiveLocked(price)

	if raw == 0 {
		s.ledger.Reset(price)
		delete(s.raw, price)
		s.updateMembershipLocked(price, oldEff, 0)
		return
	}

	s.raw[price] = raw
	newEff := s.effectiveLocked(price)
	s.updateMembershipLocked(price, oldEff, newEff)
}

// effectiveLocked computes the effective quantity at price: the venue's
// raw reported quantity minus what the ledger says has already been
// simulated away, floored at zero. Caller holds s.mu (read or write).
func (s *OrderBookSide) effectiveLocked(price float64) float64 {
	raw, ok := s.raw[price]
	if !ok {
		return 0
	}
	eff := raw - s.ledger.Get(price)
	if eff < 0 {
		return 0
	}
	return eff
}

// updateMembershipLocked adjusts the positive-quantity set and, if needed,
// the tracked extremum, in response to a price's effective quantity moving
// between oldEff and newEff. Caller holds s.mu.
func (s *OrderBookSide) updateMembershipLocked(price, oldEff, newEff float64) {
	wasPositive := oldEff > 0
	isPositive := newEff > 0

	switch {
	case !wasPositive && isPositive:
		s.positive[price] = struct{}{}
		s.extendExtremumLocked(price)
	case wasPositive && !isPositive:
		delete(s.positive, price)
		if price == s.extremum {
			s.recomputeExtremumLocked()
		}
	}
	// wasPositive && isPositive: price unchanged, extremum unaffected.
}

// extendExtremumLocked compares a newly-added price against the current
// extremum in O(1), per §4.2's "otherwise compare against the current
// extremum in O(1) for the added/changed price."
func (s *OrderBookSide) extendExtremumLocked(price float64) {
	if s.side == types.Bid {
		if price > s.extremum {
			s.extremum = price
		}
		return
	}
	if price < s.extremum {
		s.extremum = price
	}
}

// recomputeExtremumLocked rescans the positive set. Only called when the
// price removed from the set equaled the current extremum (§4.2's lazy
// recompute rule).
func (s *OrderBookSide) recomputeExtremumLocked() {
	best := emptySentinel(s.side)
	for p := range s.positive {
		if s.side == types.Bid {
			if p > best {
				best = p
			}
		} else if p < best {
			best = p
		}
	}
	s.extremum = best
}

// ApplyConsumption increments the Consumed Ledger at price by qty,
// recomputes that price's effective quantity, and may emit a top-changed
// signal if doing so drives the extremum off that price.
func (s *OrderBookSide) ApplyConsumption(price, qty float64) {
	s.mu.Lock()
	before := s.extremum
	oldEff := s.effectiveLocked(price)
	s.ledger.Add(price, qty)
	newEff := s.effectiveLocked(price)
	s.updateMembershipLocked(price, oldEff, newEff)
	changed := s.extremum != before
	var evt types.TopChanged
	if changed {
		evt = s.topChangedLocked()
	}
	s.mu.Unlock()

	if changed {
		s.emit(evt)
	}
}

// Best returns the current extremum price and its effective quantity, or
// the zero BestQuote if the side has no positive-quantity price.
func (s *OrderBookSide) Best() types.BestQuote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bestLocked()
}

func (s *OrderBookSide) bestLocked() types.BestQuote {
	if len(s.positive) == 0 {
		return types.BestQuote{}
	}
	return types.BestQuote{Price: s.extremum, Qty: s.effectiveLocked(s.extremum)}
}

func (s *OrderBookSide) topChangedLocked() types.TopChanged {
	bq := s.bestLocked()
	return types.TopChanged{Venue: s.venue, Side: s.side, Price: bq.Price, Qty: bq.Qty}
}

// emit performs a non-blocking send of a top-changed event, dropping and
// logging if the consumer is behind. This is what keeps the feed from
// ever blocking on a slow evaluator (§4.2).
func (s *OrderBookSide) emit(evt types.TopChanged) {
	if s.topCh == nil {
		return
	}
	select {
	case s.topCh <- evt:
	default:
		if s.logger != nil {
			s.logger.Warn("top-changed channel full, dropping event",
				"venue", s.venue, "side", s.side, "price", evt.Price)
		}
	}
}

// OrderBook is one venue's full book: a bid side and an ask side, each
// maintained independently. Invariants (enforced by construction, not
// checked at runtime): every positive-quantity bid price is <= the best
// bid, every positive-quantity ask price is >= the best ask, within this
// single venue.
type OrderBook struct {
	Bids *OrderBookSide
	Asks *OrderBookSide
}

// New constructs an empty OrderBook for one venue. topCh receives
// top-changed events from either side; it should be sized to absorb a
// reasonable burst (the teacher's read/trade buffers are sized similarly
// for the same reason — a producer that must never block on a consumer).
func New(venue string, topCh chan<- types.TopChanged, logger *slog.Logger) *OrderBook {
	return &OrderBook{
		Bids: newSide(venue, types.Bid, topCh, logger),
		Asks: newSide(venue, types.Ask, topCh, logger),
	}
}

// ApplySnapshot seeds both sides from a venue-authoritative snapshot. Per
// §4.5, a snapshot taken after a supervisor restart does not clear
// previously-known levels absent from it — this method only ever
// overwrites prices present in the snapshot it is given, by design; the
// caller decides whether to construct a fresh OrderBook (full clear) or
// reuse an existing one (wart-preserving restart) by which object it
// calls this on.
func (b *OrderBook) ApplySnapshot(snap types.BookSnapshot) {
	b.Bids.ApplyDeltas(snap.Bids)
	b.Asks.ApplyDeltas(snap.Asks)
}

// Side returns the OrderBookSide for the given Side value.
func (b *OrderBook) Side(side types.Side) *OrderBookSide {
	if side == types.Bid {
		return b.Bids
	}
	return b.Asks
}
