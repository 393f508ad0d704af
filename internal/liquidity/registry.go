// Package liquidity maintains every liquidity reference price the engine
// sweeps against: prior-day and session extremes, period opens, equal
// levels, and recent swing points from all timeframes.
package liquidity

import (
	"math"
	"sort"

	"sweep-signal-lab/internal/domain"
)

// RegistryConfig holds the registry bounds and sweep thresholds.
type RegistryConfig struct {
	SweepMinWick      float64 // wick points beyond the pool price
	SweepRequireClose bool    // require close back on the origin side
	SwingPoolCap      int     // most recent swings kept
	SwingPoolMaxAgeMs int64   // swings older than this are ignored on read
}

// sessionExtreme is a finalized session high/low pair.
type sessionExtreme struct {
	high, low float64
	valid     bool
}

// Registry tracks liquidity reference prices. It also owns the shared
// calendar: Update computes the bar's DayContext exactly once and hands
// it to the caller for distribution.
type Registry struct {
	cfg      RegistryConfig
	calendar *Calendar
	equals   *EqualLevelDetector

	priorDayHigh, priorDayLow float64
	priorDayValid             bool
	dayHigh, dayLow           float64
	dayValid                  bool

	dailyOpen, weeklyOpen, monthlyOpen float64
	opensValid                         bool

	curSession        domain.Session
	curHigh, curLow   float64
	curSessionValid   bool
	finalizedSessions map[domain.Session]sessionExtreme

	swings []domain.SwingPoint // ring, most recent last
}

// NewRegistry creates a registry with its calendar and equal-level
// detector collaborators.
func NewRegistry(cfg RegistryConfig, cal *Calendar, equals *EqualLevelDetector) *Registry {
	return &Registry{
		cfg:               cfg,
		calendar:          cal,
		equals:            equals,
		finalizedSessions: make(map[domain.Session]sessionExtreme),
	}
}

// Update folds one base bar into the registry and returns the bar's day
// context. Day/session boundaries finalize the respective extremes;
// period opens are captured from the first bar of each period.
func (r *Registry) Update(bar domain.Bar) domain.DayContext {
	ctx := r.calendar.Next(bar.TimestampMs)

	if ctx.NewDay {
		if r.dayValid {
			r.priorDayHigh, r.priorDayLow = r.dayHigh, r.dayLow
			r.priorDayValid = true
		}
		r.dayHigh, r.dayLow = bar.High, bar.Low
		r.dayValid = true
		r.dailyOpen = bar.Open
		r.opensValid = true
	} else {
		r.dayHigh = math.Max(r.dayHigh, bar.High)
		r.dayLow = math.Min(r.dayLow, bar.Low)
	}

	if ctx.NewWeek {
		r.weeklyOpen = bar.Open
	}
	if ctx.NewMonth {
		r.monthlyOpen = bar.Open
	}

	if ctx.NewSession {
		if r.curSessionValid {
			r.finalizedSessions[r.curSession] = sessionExtreme{high: r.curHigh, low: r.curLow, valid: true}
		}
		r.curSession = ctx.Session
		r.curHigh, r.curLow = bar.High, bar.Low
		r.curSessionValid = true
	} else {
		r.curHigh = math.Max(r.curHigh, bar.High)
		r.curLow = math.Min(r.curLow, bar.Low)
	}

	r.equals.Prune(bar.TimestampMs)
	return ctx
}

// AddSwing records a swing point from any structure analyzer, feeding
// both the swing pool ring and the equal-level detector.
func (r *Registry) AddSwing(sp domain.SwingPoint) {
	r.swings = append(r.swings, sp)
	if len(r.swings) > r.cfg.SwingPoolCap {
		r.swings = r.swings[len(r.swings)-r.cfg.SwingPoolCap:]
	}
	r.equals.AddSwing(sp)
}

// Pools returns every live liquidity pool relative to the given price,
// sorted by descending strength then ascending distance then price. The
// ordering is the tie-break contract consumed by sweep scanning and
// opposing-pool selection and is deterministic for identical inputs.
func (r *Registry) Pools(price float64, nowMs int64) []domain.LiquidityPool {
	var pools []domain.LiquidityPool

	add := func(kind domain.PoolKind, level float64, source domain.Timeframe, strength int) {
		if level <= 0 {
			return
		}
		dir := domain.PoolBelow
		if level >= price {
			dir = domain.PoolAbove
		}
		pools = append(pools, domain.LiquidityPool{
			Price:     level,
			Kind:      kind,
			Source:    source,
			Direction: dir,
			Strength:  strength,
		})
	}

	if r.priorDayValid {
		add(domain.PoolPriorDayHigh, r.priorDayHigh, domain.TF1m, domain.StrengthFor(domain.PoolPriorDayHigh))
		add(domain.PoolPriorDayLow, r.priorDayLow, domain.TF1m, domain.StrengthFor(domain.PoolPriorDayLow))
	}
	// Fixed iteration order keeps the pre-sort pool slice, and therefore
	// the stable sort result, identical across replays.
	for _, s := range []domain.Session{domain.SessionAsia, domain.SessionLondon, domain.SessionNY} {
		ext, ok := r.finalizedSessions[s]
		if !ok || !ext.valid {
			continue
		}
		add(domain.PoolSessionHigh, ext.high, domain.TF1m, domain.StrengthFor(domain.PoolSessionHigh))
		add(domain.PoolSessionLow, ext.low, domain.TF1m, domain.StrengthFor(domain.PoolSessionLow))
	}
	if r.opensValid {
		add(domain.PoolDailyOpen, r.dailyOpen, domain.TF1m, domain.StrengthFor(domain.PoolDailyOpen))
		add(domain.PoolWeeklyOpen, r.weeklyOpen, domain.TF1m, domain.StrengthFor(domain.PoolWeeklyOpen))
		add(domain.PoolMonthlyOpen, r.monthlyOpen, domain.TF1m, domain.StrengthFor(domain.PoolMonthlyOpen))
	}

	for _, lv := range r.equals.Levels() {
		kind := domain.PoolEqualLows
		if lv.Kind == domain.SwingHigh {
			kind = domain.PoolEqualHighs
		}
		// Touch count strengthens the level on top of its base rank.
		add(kind, lv.Price, domain.TF1m, domain.StrengthFor(kind)+lv.Touches-2)
	}

	for _, sp := range r.swings {
		if nowMs-sp.TimestampMs > r.cfg.SwingPoolMaxAgeMs {
			continue
		}
		kind := domain.PoolSwingLow
		if sp.Kind == domain.SwingHigh {
			kind = domain.PoolSwingHigh
		}
		add(kind, sp.Price, sp.Timeframe, domain.StrengthFor(kind))
	}

	sort.SliceStable(pools, func(i, j int) bool {
		a, b := pools[i], pools[j]
		if a.Strength != b.Strength {
			return a.Strength > b.Strength
		}
		da := math.Abs(a.Price - price)
		db := math.Abs(b.Price - price)
		if da != db {
			return da < db
		}
		if a.Price != b.Price {
			return a.Price < b.Price
		}
		return a.Kind < b.Kind
	})
	return pools
}

// CheckSweep reports whether the bar swept the pool: the wick must pierce
// the pool price by at least the configured minimum and, when close
// confirmation is on, the bar must close back on the origin side. A sweep
// below resting support biases bullish, and vice versa.
func (r *Registry) CheckSweep(bar domain.Bar, pool domain.LiquidityPool) *domain.SweepEvent {
	switch pool.Direction {
	case domain.PoolAbove:
		if bar.High < pool.Price+r.cfg.SweepMinWick {
			return nil
		}
		if r.cfg.SweepRequireClose && bar.Close >= pool.Price {
			return nil
		}
		return &domain.SweepEvent{
			Pool:        pool,
			Direction:   domain.Bearish,
			WickExtreme: bar.High,
			ClosePrice:  bar.Close,
			TimestampMs: bar.TimestampMs,
		}
	case domain.PoolBelow:
		if bar.Low > pool.Price-r.cfg.SweepMinWick {
			return nil
		}
		if r.cfg.SweepRequireClose && bar.Close <= pool.Price {
			return nil
		}
		return &domain.SweepEvent{
			Pool:        pool,
			Direction:   domain.Bullish,
			WickExtreme: bar.Low,
			ClosePrice:  bar.Close,
			TimestampMs: bar.TimestampMs,
		}
	}
	return nil
}

// OpposingPool selects the target-side pool for a swept pool: among pools
// on the opposite side of price, the strongest and closest candidate.
// Returns nil when no pool sits on that side.
func (r *Registry) OpposingPool(swept domain.LiquidityPool, price float64, nowMs int64) *domain.LiquidityPool {
	want := domain.PoolAbove
	if swept.Direction == domain.PoolAbove {
		want = domain.PoolBelow
	}
	for _, p := range r.Pools(price, nowMs) {
		if p.Direction == want {
			pool := p
			return &pool
		}
	}
	return nil
}
