// Package killzone gates entries by time of day. The check is a pure
// function of the bar timestamp and the setup's structure timeframe:
// lower timeframes require one of the named institutional-activity
// windows, higher timeframes bypass the gate entirely.
package killzone

import (
	"time"

	"sweep-signal-lab/internal/domain"
)

// window is a named wall-clock span [startMin, endMin) in minutes from
// midnight market time.
type window struct {
	name     string
	startMin int
	endMin   int
}

// The institutional-activity windows, in market (New York) time.
var windows = []window{
	{name: "london_open", startMin: 2 * 60, endMin: 5 * 60},
	{name: "ny_am", startMin: 8*60 + 30, endMin: 11 * 60},
	{name: "ny_pm", startMin: 13 * 60, endMin: 15 * 60},
}

// Filter answers whether a given structure timeframe may enter at a
// given time.
type Filter struct {
	loc    *time.Location
	bypass map[domain.Timeframe]bool
}

// New creates a filter. Timeframes listed in bypass never require a
// window.
func New(loc *time.Location, bypass []domain.Timeframe) *Filter {
	m := make(map[domain.Timeframe]bool, len(bypass))
	for _, tf := range bypass {
		m[tf] = true
	}
	return &Filter{loc: loc, bypass: m}
}

// Check reports whether an entry on the given structure timeframe is
// allowed at tsMs, and the name of the active window if any. Bypassed
// timeframes are always allowed; the window name is still reported so
// prioritization can prefer killzone-active setups.
func (f *Filter) Check(tsMs int64, structureTF domain.Timeframe) (allowed bool, name string) {
	name = f.activeWindow(tsMs)
	if f.bypass[structureTF] {
		return true, name
	}
	return name != "", name
}

// activeWindow returns the name of the window containing tsMs, or "".
func (f *Filter) activeWindow(tsMs int64) string {
	t := time.UnixMilli(tsMs).In(f.loc)
	minute := t.Hour()*60 + t.Minute()
	for _, w := range windows {
		if minute >= w.startMin && minute < w.endMin {
			return w.name
		}
	}
	return ""
}
