package config

import (
	"errors"
	"strings"
	"testing"

	"sweep-signal-lab/internal/domain"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config failed validation: %v", err)
	}
}

func TestValidate_RejectsStructureTFOutsideActiveSet(t *testing.T) {
	cfg := Default()
	cfg.StructureTimeframes = []domain.Timeframe{domain.TF4h}
	cfg.ActiveTimeframes = []domain.Timeframe{domain.TF5m, domain.TF15m}

	err := cfg.Validate()
	if !errors.Is(err, ErrUnknownTimeframe) {
		t.Errorf("Expected ErrUnknownTimeframe, got %v", err)
	}
}

func TestValidate_RejectsBaseTimeframeAsActive(t *testing.T) {
	cfg := Default()
	cfg.ActiveTimeframes = append(cfg.ActiveTimeframes, domain.TF1m)

	if err := cfg.Validate(); !errors.Is(err, ErrUnknownTimeframe) {
		t.Errorf("Expected ErrUnknownTimeframe for 1m active timeframe, got %v", err)
	}
}

func TestValidate_RejectsBadEntryMode(t *testing.T) {
	cfg := Default()
	cfg.EntryMode = "limit"

	if err := cfg.Validate(); !errors.Is(err, ErrInvalidEntryMode) {
		t.Errorf("Expected ErrInvalidEntryMode, got %v", err)
	}
}

func TestValidate_RejectsNonPositiveOption(t *testing.T) {
	cfg := Default()
	cfg.Quantity = 0

	err := cfg.Validate()
	if !errors.Is(err, ErrNonPositiveOption) {
		t.Fatalf("Expected ErrNonPositiveOption, got %v", err)
	}
	if !strings.Contains(err.Error(), "quantity") {
		t.Errorf("Error %q does not name the offending option", err)
	}
}

func TestValidate_ReportsNonPositiveOptionsInFixedOrder(t *testing.T) {
	// Several options broken at once must always surface the same one.
	cfg := Default()
	cfg.Quantity = 0
	cfg.TargetRR = -1
	cfg.ConfirmBars = 0

	for i := 0; i < 20; i++ {
		err := cfg.Validate()
		if !errors.Is(err, ErrNonPositiveOption) {
			t.Fatalf("Expected ErrNonPositiveOption, got %v", err)
		}
		if !strings.Contains(err.Error(), "confirm_bars") {
			t.Fatalf("Error %q, want confirm_bars reported first every run", err)
		}
	}
}

func TestValidate_RejectsInvertedStopBounds(t *testing.T) {
	cfg := Default()
	cfg.MinStopPoints = 100
	cfg.MaxStopPoints = 10

	if err := cfg.Validate(); !errors.Is(err, ErrStopBoundsInverted) {
		t.Errorf("Expected ErrStopBoundsInverted, got %v", err)
	}
}
