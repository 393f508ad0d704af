package verification

import (
	"context"
	"testing"
	"time"

	"sweep-signal-lab/internal/config"
	"sweep-signal-lab/internal/domain"
	"sweep-signal-lab/internal/storage/memory"
)

func quietBar(tsMs int64) *domain.Bar {
	return &domain.Bar{
		Symbol:      "NQ",
		TimestampMs: tsMs,
		Open:        100,
		High:        100.5,
		Low:         99.5,
		Close:       100,
		Volume:      10,
	}
}

func TestVerifySymbol_EmptyRunMatches(t *testing.T) {
	barStore := memory.NewBarStore()
	signalStore := memory.NewSignalStore()
	ctx := context.Background()

	// Flat bars produce no sweeps, so neither run emits anything.
	start := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC).UnixMilli()
	for i := int64(0); i < 10; i++ {
		if err := barStore.Insert(ctx, quietBar(start+i*60_000)); err != nil {
			t.Fatalf("insert bar: %v", err)
		}
	}

	v := NewReplayVerifier(ReplayVerifierOptions{
		BarStore:    barStore,
		SignalStore: signalStore,
		Config:      config.Default(),
	})

	report, err := v.VerifySymbol(ctx, "NQ")
	if err != nil {
		t.Fatalf("VerifySymbol: %v", err)
	}
	if !report.Match() {
		t.Errorf("report should match: %+v", report)
	}
	if report.TotalSignals != 0 {
		t.Errorf("TotalSignals = %d, want 0", report.TotalSignals)
	}
}

func TestVerifySymbol_StoredSignalMissingFromReplay(t *testing.T) {
	barStore := memory.NewBarStore()
	signalStore := memory.NewSignalStore()
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC).UnixMilli()
	if err := barStore.Insert(ctx, quietBar(start)); err != nil {
		t.Fatalf("insert bar: %v", err)
	}
	if err := signalStore.Insert(ctx, testSignal("phantom")); err != nil {
		t.Fatalf("insert signal: %v", err)
	}

	v := NewReplayVerifier(ReplayVerifierOptions{
		BarStore:    barStore,
		SignalStore: signalStore,
		Config:      config.Default(),
	})

	report, err := v.VerifySymbol(ctx, "NQ")
	if err != nil {
		t.Fatalf("VerifySymbol: %v", err)
	}
	if report.Match() {
		t.Error("report should not match")
	}
	if report.MissingReplayed != 1 {
		t.Errorf("MissingReplayed = %d, want 1", report.MissingReplayed)
	}
}
