package liquidity

import (
	"fmt"
	"time"

	"sweep-signal-lab/internal/domain"
)

// Calendar derives the shared day/session context from bar timestamps.
// It is the single owner of "current trading day" logic; every other
// component receives the resulting DayContext by value.
type Calendar struct {
	loc  *time.Location
	prev *domain.DayContext
}

// NewCalendar creates a calendar in the given market timezone.
func NewCalendar(loc *time.Location) *Calendar {
	return &Calendar{loc: loc}
}

// Next computes the context for a bar timestamp. New* flags fire on the
// first bar of each period relative to the previous call.
func (c *Calendar) Next(tsMs int64) domain.DayContext {
	t := time.UnixMilli(tsMs).In(c.loc)

	year, week := t.ISOWeek()
	ctx := domain.DayContext{
		TimestampMs: tsMs,
		DayKey:      t.Format("2006-01-02"),
		WeekKey:     fmt.Sprintf("%04d-W%02d", year, week),
		MonthKey:    t.Format("2006-01"),
		Session:     sessionAt(t),
	}

	if c.prev == nil {
		ctx.NewDay, ctx.NewWeek, ctx.NewMonth, ctx.NewSession = true, true, true, true
	} else {
		ctx.NewDay = ctx.DayKey != c.prev.DayKey
		ctx.NewWeek = ctx.WeekKey != c.prev.WeekKey
		ctx.NewMonth = ctx.MonthKey != c.prev.MonthKey
		// Asia spans midnight, so a date change alone does not end a
		// session; a long gap (weekend, halt) does.
		gap := tsMs - c.prev.TimestampMs
		ctx.NewSession = ctx.Session != c.prev.Session || gap >= 8*time.Hour.Milliseconds()
	}

	c.prev = &ctx
	return ctx
}

// sessionAt maps a wall-clock time to its trading session. The three
// sessions partition the day contiguously: Asia 18:00-02:00, London
// 02:00-08:00, New York 08:00-18:00.
func sessionAt(t time.Time) domain.Session {
	h := t.Hour()
	switch {
	case h >= 18 || h < 2:
		return domain.SessionAsia
	case h < 8:
		return domain.SessionLondon
	default:
		return domain.SessionNY
	}
}
