package domain

// PoolKind names the origin of a liquidity reference price.
type PoolKind string

// Pool kind constants.
const (
	PoolPriorDayHigh PoolKind = "prior_day_high"
	PoolPriorDayLow  PoolKind = "prior_day_low"
	PoolSessionHigh  PoolKind = "session_high"
	PoolSessionLow   PoolKind = "session_low"
	PoolDailyOpen    PoolKind = "daily_open"
	PoolWeeklyOpen   PoolKind = "weekly_open"
	PoolMonthlyOpen  PoolKind = "monthly_open"
	PoolEqualHighs   PoolKind = "equal_highs"
	PoolEqualLows    PoolKind = "equal_lows"
	PoolSwingHigh    PoolKind = "swing_high"
	PoolSwingLow     PoolKind = "swing_low"
)

// PoolDirection indicates which side of current price the pool sits on:
// resting liquidity above price acts as resistance, below as support.
type PoolDirection string

// Pool direction constants.
const (
	PoolAbove PoolDirection = "above"
	PoolBelow PoolDirection = "below"
)

// Base strength rank per pool kind, used only for deterministic
// tie-breaking when pools are sorted. Equal-level pools add touch count
// on top of their base rank.
var poolStrength = map[PoolKind]int{
	PoolPriorDayHigh: 10,
	PoolPriorDayLow:  10,
	PoolEqualHighs:   8,
	PoolEqualLows:    8,
	PoolSessionHigh:  7,
	PoolSessionLow:   7,
	PoolWeeklyOpen:   6,
	PoolMonthlyOpen:  6,
	PoolDailyOpen:    5,
	PoolSwingHigh:    3,
	PoolSwingLow:     3,
}

// StrengthFor returns the base strength rank for a pool kind.
func StrengthFor(kind PoolKind) int {
	return poolStrength[kind]
}

// LiquidityPool is a derived, recomputed-on-demand liquidity reference.
type LiquidityPool struct {
	Price     float64
	Kind      PoolKind
	Source    Timeframe // originating timeframe for swing pools, TF1m otherwise
	Direction PoolDirection
	Strength  int
}

// SweepEvent records an intrabar excursion through a pool price that
// closed back on the origin side.
type SweepEvent struct {
	Pool        LiquidityPool
	Direction   Direction // resulting setup bias: sweep below => bullish
	WickExtreme float64   // the excursion extreme (bar high or low)
	ClosePrice  float64
	TimestampMs int64
}
