// Package aggregate folds the 1-minute base bar stream into higher
// timeframe bar streams. Bucket boundaries are computed purely from the
// base bar timestamp, so a replayed stream produces bit-identical bars.
package aggregate

import (
	"sweep-signal-lab/internal/domain"
)

// defaultHistory bounds the per-series bar window. Analyzers only need a
// lookback-sized tail, so older bars are discarded.
const defaultHistory = 500

// Series accumulates bars for a single timeframe.
type Series struct {
	tf      domain.Timeframe
	bars    []domain.Bar
	history int
	sealed  int64 // count of bars sealed since creation
}

// NewSeries creates a series for one timeframe with a bounded history.
func NewSeries(tf domain.Timeframe, history int) *Series {
	if history <= 0 {
		history = defaultHistory
	}
	return &Series{tf: tf, history: history}
}

// Add folds one base bar into the series and returns the current bar
// window. The last element is the in-progress bar; when a boundary was
// just crossed the second-to-last element is the just-sealed bar.
// Non-monotonic input is a caller contract violation and is not handled.
func (s *Series) Add(base domain.Bar) []domain.Bar {
	bucket := s.tf.FloorMs(base.TimestampMs)

	if n := len(s.bars); n == 0 || bucket > s.bars[n-1].TimestampMs {
		if n > 0 {
			s.sealed++
		}
		s.bars = append(s.bars, domain.Bar{
			Symbol:      base.Symbol,
			TimestampMs: bucket,
			Open:        base.Open,
			High:        base.High,
			Low:         base.Low,
			Close:       base.Close,
			Volume:      base.Volume,
		})
		if len(s.bars) > s.history {
			s.bars = s.bars[len(s.bars)-s.history:]
		}
		return s.bars
	}

	cur := &s.bars[len(s.bars)-1]
	if base.High > cur.High {
		cur.High = base.High
	}
	if base.Low < cur.Low {
		cur.Low = base.Low
	}
	cur.Close = base.Close
	cur.Volume += base.Volume
	return s.bars
}

// Bars returns the current window. The last element may be in progress.
func (s *Series) Bars() []domain.Bar {
	return s.bars
}

// Timeframe returns the series timeframe.
func (s *Series) Timeframe() domain.Timeframe {
	return s.tf
}

// Completed holds a just-sealed bar for one timeframe.
type Completed struct {
	Timeframe domain.Timeframe
	Bar       domain.Bar
}

// Aggregator fans one base stream into parallel higher-timeframe series.
type Aggregator struct {
	order  []domain.Timeframe
	series map[domain.Timeframe]*Series
}

// New creates an aggregator for the given timeframes, preserving their
// order for deterministic completion reporting.
func New(timeframes []domain.Timeframe, history int) *Aggregator {
	a := &Aggregator{
		order:  append([]domain.Timeframe(nil), timeframes...),
		series: make(map[domain.Timeframe]*Series, len(timeframes)),
	}
	for _, tf := range timeframes {
		a.series[tf] = NewSeries(tf, history)
	}
	return a
}

// Add feeds one base bar to every series and returns the bars sealed by
// this call, in the aggregator's fixed timeframe order.
func (a *Aggregator) Add(base domain.Bar) []Completed {
	var completed []Completed
	for _, tf := range a.order {
		s := a.series[tf]
		before := s.sealed
		bars := s.Add(base)
		if s.sealed > before {
			completed = append(completed, Completed{Timeframe: tf, Bar: bars[len(bars)-2]})
		}
	}
	return completed
}

// Series returns the series for a timeframe, or nil if not tracked.
func (a *Aggregator) Series(tf domain.Timeframe) *Series {
	return a.series[tf]
}
