// Package ledger implements the Consumed Ledger (C3): a per-price record of
// quantity the strategy has already traded against a venue's reported book,
// so that a stale level re-advertised by the venue at unchanged quantity
// does not re-trigger a deal.
package ledger

import "sync"

// Ledger is a per-side map from price to cumulative simulated-consumed
// quantity. It is zeroed at a price when the venue reports quantity zero
// for that price (§4.2) — the venue's own signal that the level is gone and
// the simulation may re-arm for future re-postings at that price.
//
// No eviction otherwise; size is bounded by the number of distinct price
// points visited over the session's lifetime, which is acceptable for the
// strategy's time horizon.
type Ledger struct {
	mu       sync.Mutex
	consumed map[float64]float64
}

// New returns an empty Ledger.
func New() *Ledger {
	return &Ledger{consumed: make(map[float64]float64)}
}

// Add increments the cumulative consumed quantity at price by qty.
func (l *Ledger) Add(price, qty float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.consumed[price] += qty
}

// Reset zeroes the consumed quantity at price.
func (l *Ledger) Reset(price float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.consumed, price)
}

// Get returns the cumulative consumed quantity at price, 0 if untouched.
func (l *Ledger) Get(price float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.consumed[price]
}
