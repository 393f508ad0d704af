// Package structure implements the per-timeframe structure analyzer. One
// analyzer instance consumes the completed bars of a single timeframe and
// reports swing points, structure shifts, reaction zones, and
// filled-then-rejected zones.
package structure

import (
	"sweep-signal-lab/internal/domain"
)

// barHistory bounds the analyzer's own bar window.
const barHistory = 300

// maxLiveZones bounds the live zone list; oldest zones are dropped first.
const maxLiveZones = 24

// avgBodyWindow is the window for the impulse-bar body baseline.
const avgBodyWindow = 10

// Config holds the analyzer thresholds.
type Config struct {
	SwingLookback     int     // bars on each side of a fractal pivot
	MinSwingPoints    float64 // minimum pivot prominence
	ShiftConfirmBars  int     // closes that must hold beyond the broken swing
	MinGapPoints      float64 // minimum imbalance-zone height
	ImpulseBodyFactor float64 // body multiple marking an impulse bar
}

// Result lists everything one completed bar produced. An empty result is
// the normal outcome, including whenever history is still insufficient.
type Result struct {
	Swings   []domain.SwingPoint
	Shift    *domain.StructureShift
	Zones    []domain.Zone
	Rejected []domain.Zone
}

// pendingShift is a structure break awaiting its hold confirmation.
type pendingShift struct {
	direction  domain.Direction
	breakLevel float64
	causal     domain.SwingPoint
	impulseLo  float64
	impulseHi  float64
	holdCount  int
}

// Analyzer tracks structure for one timeframe. It is stateful only over
// its own bar stream and is driven synchronously by the orchestrator.
type Analyzer struct {
	tf  domain.Timeframe
	cfg Config

	bars []domain.Bar

	lastSwingHigh *domain.SwingPoint
	lastSwingLow  *domain.SwingPoint

	pending *pendingShift
	trend   domain.Direction // direction of the last confirmed shift

	// Timestamps of swings already consumed by a shift, so one swing can
	// only be broken once.
	usedHighTs int64
	usedLowTs  int64

	zones []domain.Zone
}

// New creates an analyzer for one timeframe.
func New(tf domain.Timeframe, cfg Config) *Analyzer {
	return &Analyzer{tf: tf, cfg: cfg}
}

// Timeframe returns the analyzer's timeframe.
func (a *Analyzer) Timeframe() domain.Timeframe {
	return a.tf
}

// Trend returns the direction of the most recent confirmed structure
// shift, or "" before the first shift.
func (a *Analyzer) Trend() domain.Direction {
	return a.trend
}

// Zones returns the live zones, freshest last.
func (a *Analyzer) Zones() []domain.Zone {
	return a.zones
}

// OnBar ingests one newly completed bar of the analyzer's timeframe and
// returns the structural events it produced, in detection order: swings,
// shift, zones, rejections.
func (a *Analyzer) OnBar(bar domain.Bar) Result {
	a.bars = append(a.bars, bar)
	if len(a.bars) > barHistory {
		a.bars = a.bars[len(a.bars)-barHistory:]
	}

	a.ageZones()

	var res Result
	res.Swings = a.detectSwings()
	res.Shift = a.detectShift(bar)
	res.Zones = a.detectZones(bar)
	res.Rejected = a.updateZones(bar)
	return res
}

// ageZones ticks every live zone by one bar of this timeframe.
func (a *Analyzer) ageZones() {
	for i := range a.zones {
		a.zones[i].AgeInBars++
	}
}

// detectSwings checks whether the bar that just left the lookback window
// is a confirmed fractal pivot. A pivot is reported SwingLookback bars
// after it printed, which is the earliest it can be known.
func (a *Analyzer) detectSwings() []domain.SwingPoint {
	l := a.cfg.SwingLookback
	window := 2*l + 1
	if l <= 0 || len(a.bars) < window {
		return nil
	}

	pivotIdx := len(a.bars) - 1 - l
	pivot := a.bars[pivotIdx]
	start := pivotIdx - l

	isHigh, isLow := true, true
	winHigh, winLow := pivot.High, pivot.Low
	for i := start; i < len(a.bars); i++ {
		if i == pivotIdx {
			continue
		}
		b := a.bars[i]
		if b.High >= pivot.High {
			isHigh = false
		}
		if b.Low <= pivot.Low {
			isLow = false
		}
		if b.High > winHigh {
			winHigh = b.High
		}
		if b.Low < winLow {
			winLow = b.Low
		}
	}

	var swings []domain.SwingPoint
	if isHigh && pivot.High-winLow >= a.cfg.MinSwingPoints {
		sp := domain.SwingPoint{Price: pivot.High, Kind: domain.SwingHigh, TimestampMs: pivot.TimestampMs, Timeframe: a.tf}
		a.lastSwingHigh = &sp
		swings = append(swings, sp)
	}
	if isLow && winHigh-pivot.Low >= a.cfg.MinSwingPoints {
		sp := domain.SwingPoint{Price: pivot.Low, Kind: domain.SwingLow, TimestampMs: pivot.TimestampMs, Timeframe: a.tf}
		a.lastSwingLow = &sp
		swings = append(swings, sp)
	}
	return swings
}

// detectShift runs the two-stage break-of-structure check: a close beyond
// the most recent opposite swing arms a pending shift, and the shift is
// confirmed only once ShiftConfirmBars consecutive closes hold beyond the
// broken level. A close back through the level discards the candidate.
func (a *Analyzer) detectShift(bar domain.Bar) *domain.StructureShift {
	if p := a.pending; p != nil {
		held := (p.direction == domain.Bullish && bar.Close > p.breakLevel) ||
			(p.direction == domain.Bearish && bar.Close < p.breakLevel)
		if !held {
			a.pending = nil
		} else {
			if bar.High > p.impulseHi {
				p.impulseHi = bar.High
			}
			if bar.Low < p.impulseLo {
				p.impulseLo = bar.Low
			}
			p.holdCount++
			if p.holdCount >= a.cfg.ShiftConfirmBars {
				return a.confirmShift(bar)
			}
		}
		return nil
	}

	if a.lastSwingHigh != nil && a.lastSwingLow != nil &&
		bar.Close > a.lastSwingHigh.Price && a.lastSwingHigh.TimestampMs != a.usedHighTs {
		a.usedHighTs = a.lastSwingHigh.TimestampMs
		a.pending = &pendingShift{
			direction:  domain.Bullish,
			breakLevel: a.lastSwingHigh.Price,
			causal:     *a.lastSwingLow,
			impulseLo:  bar.Low,
			impulseHi:  bar.High,
			holdCount:  1,
		}
	} else if a.lastSwingHigh != nil && a.lastSwingLow != nil &&
		bar.Close < a.lastSwingLow.Price && a.lastSwingLow.TimestampMs != a.usedLowTs {
		a.usedLowTs = a.lastSwingLow.TimestampMs
		a.pending = &pendingShift{
			direction:  domain.Bearish,
			breakLevel: a.lastSwingLow.Price,
			causal:     *a.lastSwingHigh,
			impulseLo:  bar.Low,
			impulseHi:  bar.High,
			holdCount:  1,
		}
	}

	if p := a.pending; p != nil && p.holdCount >= a.cfg.ShiftConfirmBars {
		return a.confirmShift(bar)
	}
	return nil
}

func (a *Analyzer) confirmShift(bar domain.Bar) *domain.StructureShift {
	p := a.pending
	a.pending = nil
	a.trend = p.direction

	lo := p.impulseLo
	hi := p.impulseHi
	if p.direction == domain.Bullish && p.causal.Price < lo {
		lo = p.causal.Price
	}
	if p.direction == domain.Bearish && p.causal.Price > hi {
		hi = p.causal.Price
	}

	return &domain.StructureShift{
		Direction:   p.direction,
		CausalSwing: p.causal.Price,
		BreakLevel:  p.breakLevel,
		ImpulseLow:  lo,
		ImpulseHigh: hi,
		Timeframe:   a.tf,
		TimestampMs: bar.TimestampMs,
	}
}

// detectZones finds new reaction zones ending at the current bar: a
// three-bar imbalance gap, and an order block when the current bar is an
// impulse preceded by an opposing bar.
func (a *Analyzer) detectZones(bar domain.Bar) []domain.Zone {
	if len(a.bars) < 3 {
		return nil
	}

	var zones []domain.Zone

	c1 := a.bars[len(a.bars)-3]
	c3 := bar

	// Bullish imbalance: gap between the first bar's high and the third
	// bar's low that the middle bar's expansion left unfilled.
	if c3.Low-c1.High >= a.cfg.MinGapPoints {
		zones = append(zones, domain.Zone{
			Kind:        domain.ZoneImbalance,
			Direction:   domain.Bullish,
			Top:         c3.Low,
			Bottom:      c1.High,
			TimestampMs: bar.TimestampMs,
			Timeframe:   a.tf,
		})
	}
	if c1.Low-c3.High >= a.cfg.MinGapPoints {
		zones = append(zones, domain.Zone{
			Kind:        domain.ZoneImbalance,
			Direction:   domain.Bearish,
			Top:         c1.Low,
			Bottom:      c3.High,
			TimestampMs: bar.TimestampMs,
			Timeframe:   a.tf,
		})
	}

	if ob := a.detectOrderBlock(bar); ob != nil {
		zones = append(zones, *ob)
	}

	a.zones = append(a.zones, zones...)
	if len(a.zones) > maxLiveZones {
		a.zones = a.zones[len(a.zones)-maxLiveZones:]
	}
	return zones
}

// detectOrderBlock reports the previous bar as an order block when the
// current bar is an impulse in the opposite color of its predecessor.
func (a *Analyzer) detectOrderBlock(bar domain.Bar) *domain.Zone {
	n := len(a.bars)
	if n < avgBodyWindow+2 {
		return nil
	}

	var sum float64
	for _, b := range a.bars[n-1-avgBodyWindow : n-1] {
		sum += b.Body()
	}
	avgBody := sum / avgBodyWindow
	if avgBody <= 0 || bar.Body() < a.cfg.ImpulseBodyFactor*avgBody {
		return nil
	}

	prev := a.bars[n-2]
	switch {
	case bar.IsBullish() && prev.IsBearish():
		return &domain.Zone{
			Kind:        domain.ZoneOrderBlock,
			Direction:   domain.Bullish,
			Top:         prev.High,
			Bottom:      prev.Low,
			TimestampMs: prev.TimestampMs,
			Timeframe:   a.tf,
		}
	case bar.IsBearish() && prev.IsBullish():
		return &domain.Zone{
			Kind:        domain.ZoneOrderBlock,
			Direction:   domain.Bearish,
			Top:         prev.High,
			Bottom:      prev.Low,
			TimestampMs: prev.TimestampMs,
			Timeframe:   a.tf,
		}
	}
	return nil
}

// updateZones tracks fills, rejections, and invalidations on live zones.
// A zone the bar trades into is filled; a filled zone the bar then closes
// away from in the zone's direction is reported as rejected (it seeds the
// momentum-continuation model) and retired; a close through the far side
// invalidates the zone silently.
func (a *Analyzer) updateZones(bar domain.Bar) []domain.Zone {
	var rejected []domain.Zone
	kept := a.zones[:0]

	for _, z := range a.zones {
		// Zones created this bar (age 0) cannot be filled by the bar
		// that created them.
		if z.AgeInBars == 0 {
			kept = append(kept, z)
			continue
		}

		if !z.Filled && bar.Low <= z.Top && bar.High >= z.Bottom {
			z.Filled = true
		}

		invalidated := (z.Direction == domain.Bullish && bar.Close < z.Bottom) ||
			(z.Direction == domain.Bearish && bar.Close > z.Top)
		if invalidated {
			continue
		}

		if z.Filled {
			rejectedNow := (z.Direction == domain.Bullish && bar.Close > z.Top) ||
				(z.Direction == domain.Bearish && bar.Close < z.Bottom)
			if rejectedNow {
				rejected = append(rejected, z)
				continue
			}
		}

		kept = append(kept, z)
	}

	a.zones = kept
	return rejected
}
