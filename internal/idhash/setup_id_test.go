package idhash

import (
	"testing"

	"sweep-signal-lab/internal/domain"
)

func TestComputeSetupID(t *testing.T) {
	got := ComputeSetupID("NQ", domain.ModelSweep, domain.Bullish, domain.TF15m, "prior_day_low", 21000.25, 1700000000000)

	if len(got) != 64 {
		t.Errorf("ComputeSetupID() length = %d, want 64", len(got))
	}

	// Same inputs produce the same ID.
	again := ComputeSetupID("NQ", domain.ModelSweep, domain.Bullish, domain.TF15m, "prior_day_low", 21000.25, 1700000000000)
	if got != again {
		t.Errorf("ComputeSetupID() not deterministic: %s != %s", got, again)
	}

	// Any differing field produces a different ID.
	other := ComputeSetupID("NQ", domain.ModelSweep, domain.Bearish, domain.TF15m, "prior_day_low", 21000.25, 1700000000000)
	if got == other {
		t.Error("ComputeSetupID() collided for different directions")
	}
}

func TestComputeSignalID(t *testing.T) {
	a := ComputeSignalID("setup-abc", "NQ", 1700000000000)
	b := ComputeSignalID("setup-abc", "NQ", 1700000000000)
	c := ComputeSignalID("setup-abc", "NQ", 1700000060000)

	if len(a) != 64 {
		t.Errorf("ComputeSignalID() length = %d, want 64", len(a))
	}
	if a != b {
		t.Error("ComputeSignalID() not deterministic")
	}
	if a == c {
		t.Error("ComputeSignalID() collided for different timestamps")
	}
}
