package types

import "testing"

func TestSideOther(t *testing.T) {
	t.Parallel()

	if Bid.Other() != Ask {
		t.Errorf("Bid.Other() = %v, want Ask", Bid.Other())
	}
	if Ask.Other() != Bid {
		t.Errorf("Ask.Other() = %v, want Bid", Ask.Other())
	}
}

func TestTransportStateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state TransportState
		want  string
	}{
		{Connecting, "connecting"},
		{Open, "open"},
		{Closing, "closing"},
		{Closed, "closed"},
		{TransportState(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("TransportState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestBestQuoteEmpty(t *testing.T) {
	t.Parallel()

	if !(BestQuote{}).Empty() {
		t.Errorf("zero-value BestQuote should be Empty()")
	}
	if (BestQuote{Price: 1, Qty: 1}).Empty() {
		t.Errorf("non-zero BestQuote should not be Empty()")
	}
}
