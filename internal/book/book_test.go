package book

import (
	"testing"

	"arbitrage-monitor/pkg/types"
)

func levels(pairs ...float64) []types.PriceLevel {
	out := make([]types.PriceLevel, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, types.PriceLevel{Price: pairs[i], Qty: pairs[i+1]})
	}
	return out
}

func TestBestBidAskEmpty(t *testing.T) {
	t.Parallel()

	ob := New("test", nil, nil)
	if got := ob.Bids.Best(); !got.Empty() {
		t.Errorf("empty bid side Best() = %+v, want zero value", got)
	}
	if got := ob.Asks.Best(); !got.Empty() {
		t.Errorf("empty ask side Best() = %+v, want zero value", got)
	}
}

func TestApplyDeltasTracksExtremum(t *testing.T) {
	t.Parallel()

	ob := New("test", nil, nil)
	ob.Bids.ApplyDeltas(levels(100, 1, 101, 2, 99, 3))

	best := ob.Bids.Best()
	if best.Price != 101 || best.Qty != 2 {
		t.Errorf("Best() = %+v, want {101 2}", best)
	}
}

func TestApplyDeltasAskExtremumIsMin(t *testing.T) {
	t.Parallel()

	ob := New("test", nil, nil)
	ob.Asks.ApplyDeltas(levels(105, 1, 103, 2, 110, 3))

	best := ob.Asks.Best()
	if best.Price != 103 || best.Qty != 2 {
		t.Errorf("Best() = %+v, want {103 2}", best)
	}
}

func TestZeroDeltaRemovesLevelAndResetsLedger(t *testing.T) {
	t.Parallel()

	ob := New("test", nil, nil)
	ob.Bids.ApplyDeltas(levels(100, 1))
	ob.Bids.ApplyConsumption(100, 1) // effective drops to 0, but raw still 1

	if eff := ob.Bids.Best(); !eff.Empty() {
		t.Errorf("after full consumption Best() = %+v, want empty", eff)
	}

	// Venue re-advertises unchanged raw qty: ledger still suppresses it.
	ob.Bids.ApplyDeltas(levels(100, 1))
	if eff := ob.Bids.Best(); !eff.Empty() {
		t.Errorf("replay at unchanged raw qty should stay suppressed, got %+v", eff)
	}

	// Venue signals removal with qty 0: ledger resets.
	ob.Bids.ApplyDeltas(levels(100, 0))
	ob.Bids.ApplyDeltas(levels(100, 1))
	if got := ob.Bids.Best(); got.Price != 100 || got.Qty != 1 {
		t.Errorf("after zero-reset and re-post, Best() = %+v, want {100 1}", got)
	}
}

func TestApplyConsumptionPartial(t *testing.T) {
	t.Parallel()

	ob := New("test", nil, nil)
	ob.Asks.ApplyDeltas(levels(100, 1.0))
	ob.Asks.ApplyConsumption(100, 0.3)

	got := ob.Asks.Best()
	if got.Price != 100 {
		t.Errorf("Best().Price = %v, want 100", got.Price)
	}
	if diff := got.Qty - 0.7; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Best().Qty = %v, want 0.7", got.Qty)
	}
}

func TestTopChangedFiresOnceOnlyWhenExtremumDiffers(t *testing.T) {
	t.Parallel()

	ch := make(chan types.TopChanged, 8)
	ob := New("test", ch, nil)

	// Batch that changes the extremum (empty -> 101) fires once.
	ob.Bids.ApplyDeltas(levels(100, 1, 101, 1))
	select {
	case evt := <-ch:
		if evt.Price != 101 {
			t.Errorf("top-changed price = %v, want 101", evt.Price)
		}
	default:
		t.Fatal("expected a top-changed event")
	}
	select {
	case evt := <-ch:
		t.Fatalf("expected exactly one event for the batch, got extra %+v", evt)
	default:
	}

	// A batch that doesn't move the extremum (new lower bid) fires nothing.
	ob.Bids.ApplyDeltas(levels(50, 1))
	select {
	case evt := <-ch:
		t.Fatalf("expected no event when extremum unchanged, got %+v", evt)
	default:
	}
}

func TestNoDoubleDealViaLedgerSuppression(t *testing.T) {
	t.Parallel()

	ob := New("test", nil, nil)
	ob.Asks.ApplyDeltas(levels(10000, 1.0))
	ob.Asks.ApplyConsumption(10000, 1.0)

	// Venue re-emits the same raw quantity — effective stays suppressed.
	ob.Asks.ApplyDeltas(levels(10000, 1.0))
	if got := ob.Asks.Best(); !got.Empty() {
		t.Errorf("Best() after replay = %+v, want empty (ledger should suppress)", got)
	}
}
