package api

import (
	"log/slog"
	"testing"
	"time"
)

func TestIsOriginAllowed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		origin  string
		allowed []string
		reqHost string
		want    bool
	}{
		{
			name:    "empty origin is allowed",
			origin:  "",
			reqHost: "localhost:8090",
			want:    true,
		},
		{
			name:    "localhost origin allowed by default",
			origin:  "http://localhost:8090",
			reqHost: "localhost:8090",
			want:    true,
		},
		{
			name:    "non-local origin denied by default",
			origin:  "https://evil.example",
			reqHost: "localhost:8090",
			want:    false,
		},
		{
			name:    "allowlist permits exact origin",
			origin:  "https://dash.example.com",
			allowed: []string{"https://dash.example.com"},
			reqHost: "0.0.0.0:8090",
			want:    true,
		},
		{
			name:    "allowlist denies everything else",
			origin:  "https://evil.example",
			allowed: []string{"https://dash.example.com"},
			reqHost: "0.0.0.0:8090",
			want:    false,
		},
		{
			name:    "same host allowed when no allowlist",
			origin:  "https://arb.internal:8090",
			reqHost: "arb.internal:8090",
			want:    true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isOriginAllowed(tt.origin, tt.allowed, tt.reqHost); got != tt.want {
				t.Fatalf("isOriginAllowed(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}

func TestBroadcasterDropsUnreachableClientsWithoutBlocking(t *testing.T) {
	t.Parallel()

	b := newBroadcaster(slog.Default())
	c := &wsClient{send: make(chan []byte)} // unbuffered, no reader draining it
	b.clients[c] = struct{}{}

	done := make(chan struct{})
	go func() {
		b.broadcast(DashboardEvent{Type: "top_changed"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on an unreachable client instead of dropping it")
	}

	if _, stillThere := b.clients[c]; stillThere {
		t.Error("expected unreachable client to be dropped from the broadcast set")
	}
}
