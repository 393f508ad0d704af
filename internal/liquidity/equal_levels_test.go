package liquidity

import (
	"testing"

	"sweep-signal-lab/internal/domain"
)

func equalsConfig() EqualLevelConfig {
	return EqualLevelConfig{
		Tolerance:  2,
		MinSepMs:   60_000,
		MaxAgeMs:   3_600_000,
		MaxTouches: 5,
	}
}

func swingAt(price float64, kind domain.SwingKind, tsMs int64) domain.SwingPoint {
	return domain.SwingPoint{Price: price, Kind: kind, TimestampMs: tsMs, Timeframe: domain.TF15m}
}

func TestEqualLevels_ClustersWithinTolerance(t *testing.T) {
	d := NewEqualLevelDetector(equalsConfig())

	d.AddSwing(swingAt(100, domain.SwingHigh, 0))
	d.AddSwing(swingAt(101.5, domain.SwingHigh, 120_000))

	levels := d.Levels()
	if len(levels) != 1 {
		t.Fatalf("Expected 1 equal level, got %d", len(levels))
	}
	lv := levels[0]
	if lv.Touches != 2 {
		t.Errorf("Touches = %d, want 2", lv.Touches)
	}
	if lv.Price != 100.75 {
		t.Errorf("Price = %v, want running mean 100.75", lv.Price)
	}
	if lv.Kind != domain.SwingHigh {
		t.Errorf("Kind = %s, want high", lv.Kind)
	}
}

func TestEqualLevels_SingleTouchIsNotALevel(t *testing.T) {
	d := NewEqualLevelDetector(equalsConfig())

	d.AddSwing(swingAt(100, domain.SwingHigh, 0))
	if levels := d.Levels(); len(levels) != 0 {
		t.Errorf("Single swing reported as equal level: %+v", levels)
	}
}

func TestEqualLevels_RetestTooSoonNotCounted(t *testing.T) {
	d := NewEqualLevelDetector(equalsConfig())

	d.AddSwing(swingAt(100, domain.SwingHigh, 0))
	d.AddSwing(swingAt(100.5, domain.SwingHigh, 30_000)) // under min separation

	if levels := d.Levels(); len(levels) != 0 {
		t.Errorf("Too-soon retest counted as a touch: %+v", levels)
	}
}

func TestEqualLevels_KindsDoNotMix(t *testing.T) {
	d := NewEqualLevelDetector(equalsConfig())

	d.AddSwing(swingAt(100, domain.SwingHigh, 0))
	d.AddSwing(swingAt(100, domain.SwingLow, 120_000))

	if levels := d.Levels(); len(levels) != 0 {
		t.Errorf("High and low swings clustered together: %+v", levels)
	}
}

func TestEqualLevels_DistantSwingStartsNewCluster(t *testing.T) {
	d := NewEqualLevelDetector(equalsConfig())

	d.AddSwing(swingAt(100, domain.SwingHigh, 0))
	d.AddSwing(swingAt(110, domain.SwingHigh, 120_000))
	d.AddSwing(swingAt(110.5, domain.SwingHigh, 240_000))

	levels := d.Levels()
	if len(levels) != 1 || levels[0].Price != 110.25 {
		t.Errorf("Levels = %+v, want one cluster near 110.25", levels)
	}
}

func TestEqualLevels_TouchCap(t *testing.T) {
	d := NewEqualLevelDetector(equalsConfig())

	for i := 0; i < 8; i++ {
		d.AddSwing(swingAt(100, domain.SwingHigh, int64(i)*120_000))
	}

	levels := d.Levels()
	if len(levels) != 1 {
		t.Fatalf("Expected 1 level, got %d", len(levels))
	}
	if levels[0].Touches != 5 {
		t.Errorf("Touches = %d, want capped at 5", levels[0].Touches)
	}
}

func TestEqualLevels_PruneDropsStaleClusters(t *testing.T) {
	d := NewEqualLevelDetector(equalsConfig())

	d.AddSwing(swingAt(100, domain.SwingHigh, 0))
	d.AddSwing(swingAt(100, domain.SwingHigh, 120_000))

	d.Prune(120_000 + 3_600_000 + 1)
	if levels := d.Levels(); len(levels) != 0 {
		t.Errorf("Stale cluster survived prune: %+v", levels)
	}
}
