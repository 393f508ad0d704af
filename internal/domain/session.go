package domain

// Session names one of the three fixed trading sessions. The sessions
// partition the futures day contiguously in New York time: Asia 18:00-02:00,
// London 02:00-08:00, New York 08:00-18:00.
type Session string

// Session constants.
const (
	SessionAsia   Session = "asia"
	SessionLondon Session = "london"
	SessionNY     Session = "new_york"
)

// DayContext is the shared calendar state for one base bar, computed once
// per bar by the liquidity registry and passed by value to every component
// that needs "current day" or "current session". New* flags fire on the
// first bar of the respective period.
type DayContext struct {
	TimestampMs int64
	DayKey      string // trading day, e.g. "2026-03-02"
	WeekKey     string // ISO week, e.g. "2026-W10"
	MonthKey    string // e.g. "2026-03"
	Session     Session
	NewDay      bool
	NewWeek     bool
	NewMonth    bool
	NewSession  bool
}
