package store

import (
	"testing"

	"arbitrage-monitor/pkg/types"
)

func TestSaveAndLoadTally(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	tally := types.Tally{TotalProfit: 123.45, TotalDeals: 7}

	if err := s.SaveTally(tally); err != nil {
		t.Fatalf("SaveTally: %v", err)
	}

	loaded, err := s.LoadTally()
	if err != nil {
		t.Fatalf("LoadTally: %v", err)
	}
	if loaded == nil {
		t.Fatal("LoadTally returned nil")
	}
	if loaded.TotalProfit != tally.TotalProfit {
		t.Errorf("TotalProfit = %v, want %v", loaded.TotalProfit, tally.TotalProfit)
	}
	if loaded.TotalDeals != tally.TotalDeals {
		t.Errorf("TotalDeals = %v, want %v", loaded.TotalDeals, tally.TotalDeals)
	}
}

func TestLoadTallyMissing(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	loaded, err := s.LoadTally()
	if err != nil {
		t.Fatalf("LoadTally: %v", err)
	}
	if loaded != nil {
		t.Errorf("expected nil for missing tally, got %+v", loaded)
	}
}

func TestSaveTallyOverwrites(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	_ = s.SaveTally(types.Tally{TotalDeals: 1})
	_ = s.SaveTally(types.Tally{TotalDeals: 2})

	loaded, err := s.LoadTally()
	if err != nil {
		t.Fatalf("LoadTally: %v", err)
	}
	if loaded.TotalDeals != 2 {
		t.Errorf("TotalDeals = %v, want 2 (latest save)", loaded.TotalDeals)
	}
}
