package liquidity

import (
	"math"

	"sweep-signal-lab/internal/domain"
)

// RangeDay classifies the current day's range against its rolling average.
type RangeDay string

// RangeDay values.
const (
	RangeCompressed RangeDay = "compressed"
	RangeNormal     RangeDay = "normal"
	RangeExpanded   RangeDay = "expanded"
)

// RangeTrackerConfig holds the averaging window and classification ratios.
type RangeTrackerConfig struct {
	AvgDays         int
	CompressedRatio float64 // current/avg at or below this is compressed
	ExpandedRatio   float64 // current/avg at or above this is expanded
}

// RangeTracker maintains a rolling average of completed daily ranges and
// classifies the developing day against it. The classification feeds
// signal metadata only.
type RangeTracker struct {
	cfg RangeTrackerConfig

	dayHigh, dayLow float64
	dayValid        bool

	completed []float64 // ranges of finished days, oldest first
}

// NewRangeTracker creates a tracker.
func NewRangeTracker(cfg RangeTrackerConfig) *RangeTracker {
	return &RangeTracker{cfg: cfg}
}

// Update folds one base bar and its day context into the tracker. The
// finished day's range enters the rolling window on the first bar of the
// next day.
func (t *RangeTracker) Update(bar domain.Bar, ctx domain.DayContext) {
	if ctx.NewDay {
		if t.dayValid {
			t.completed = append(t.completed, t.dayHigh-t.dayLow)
			if len(t.completed) > t.cfg.AvgDays {
				t.completed = t.completed[len(t.completed)-t.cfg.AvgDays:]
			}
		}
		t.dayHigh, t.dayLow = bar.High, bar.Low
		t.dayValid = true
		return
	}
	t.dayHigh = math.Max(t.dayHigh, bar.High)
	t.dayLow = math.Min(t.dayLow, bar.Low)
}

// AverageRange returns the rolling average of completed daily ranges, or
// 0 before the first completed day.
func (t *RangeTracker) AverageRange() float64 {
	if len(t.completed) == 0 {
		return 0
	}
	var sum float64
	for _, r := range t.completed {
		sum += r
	}
	return sum / float64(len(t.completed))
}

// Classify reports the current day's range class. Days without an
// established average are normal.
func (t *RangeTracker) Classify() RangeDay {
	avg := t.AverageRange()
	if avg <= 0 || !t.dayValid {
		return RangeNormal
	}
	ratio := (t.dayHigh - t.dayLow) / avg
	switch {
	case ratio <= t.cfg.CompressedRatio:
		return RangeCompressed
	case ratio >= t.cfg.ExpandedRatio:
		return RangeExpanded
	default:
		return RangeNormal
	}
}
