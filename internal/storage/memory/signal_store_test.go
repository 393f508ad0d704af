package memory

import (
	"context"
	"errors"
	"testing"

	"sweep-signal-lab/internal/domain"
	"sweep-signal-lab/internal/storage"
)

func testSignal(id string, tsMs int64) *domain.Signal {
	return &domain.Signal{
		ID:          id,
		Symbol:      "NQ",
		Side:        domain.SideBuy,
		EntryPrice:  104.5,
		StopLoss:    96,
		TakeProfit:  120,
		Quantity:    1,
		MaxHoldBars: 240,
		TimestampMs: tsMs,
		Metadata: domain.SignalMetadata{
			EntryModel:  domain.ModelSweep,
			StructureTF: domain.TF15m,
			EntryTF:     domain.TF5m,
			RiskReward:  1.82,
		},
	}
}

func TestSignalStore_InsertAndGetByID(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testSignal("sig1", 1000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "sig1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.EntryPrice != 104.5 || got.Metadata.EntryModel != domain.ModelSweep {
		t.Errorf("Signal round-trip mismatch: %+v", got)
	}
}

func TestSignalStore_NotFound(t *testing.T) {
	store := NewSignalStore()

	_, err := store.GetByID(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSignalStore_DuplicateKey(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testSignal("sig1", 1000)); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	err := store.Insert(ctx, testSignal("sig1", 2000))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestSignalStore_GetBySymbolOrdered(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	for _, sig := range []*domain.Signal{
		testSignal("b", 2000),
		testSignal("a", 2000),
		testSignal("c", 1000),
	} {
		if err := store.Insert(ctx, sig); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	signals, err := store.GetBySymbol(ctx, "NQ")
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}
	if len(signals) != 3 {
		t.Fatalf("Expected 3 signals, got %d", len(signals))
	}
	// Timestamp ASC, then ID for equal timestamps.
	if signals[0].ID != "c" || signals[1].ID != "a" || signals[2].ID != "b" {
		t.Errorf("Order = %s, %s, %s, want c, a, b", signals[0].ID, signals[1].ID, signals[2].ID)
	}
}

func TestSignalStore_GetByTimeRange(t *testing.T) {
	store := NewSignalStore()
	ctx := context.Background()

	for i, ts := range []int64{1000, 2000, 3000} {
		if err := store.Insert(ctx, testSignal(string(rune('a'+i)), ts)); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	signals, err := store.GetByTimeRange(ctx, "NQ", 2000, 3000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(signals) != 2 {
		t.Errorf("Expected 2 signals in range, got %d", len(signals))
	}
}
