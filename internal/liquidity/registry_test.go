package liquidity

import (
	"testing"
	"time"

	"sweep-signal-lab/internal/domain"
)

func registryConfig() RegistryConfig {
	return RegistryConfig{
		SweepMinWick:      3,
		SweepRequireClose: true,
		SwingPoolCap:      4,
		SwingPoolMaxAgeMs: 3_600_000,
	}
}

func newTestRegistry(t *testing.T, cfg RegistryConfig) *Registry {
	t.Helper()
	loc := etLocation(t)
	return NewRegistry(cfg, NewCalendar(loc), NewEqualLevelDetector(equalsConfig()))
}

func barAt(tsMs int64, o, h, l, c float64) domain.Bar {
	return domain.Bar{Symbol: "NQ", TimestampMs: tsMs, Open: o, High: h, Low: l, Close: c, Volume: 1}
}

func TestRegistry_SweepAboveNeedsWickAndClose(t *testing.T) {
	r := newTestRegistry(t, registryConfig())
	pool := domain.LiquidityPool{Price: 110, Kind: domain.PoolPriorDayHigh, Direction: domain.PoolAbove}

	ev := r.CheckSweep(barAt(0, 108, 113, 107, 109), pool)
	if ev == nil {
		t.Fatal("Wick exactly min-wick beyond the pool with a close back under must sweep")
	}
	if ev.Direction != domain.Bearish {
		t.Errorf("Direction = %s, want bearish", ev.Direction)
	}
	if ev.WickExtreme != 113 {
		t.Errorf("WickExtreme = %v, want 113", ev.WickExtreme)
	}

	if ev := r.CheckSweep(barAt(0, 108, 112, 107, 109), pool); ev != nil {
		t.Error("Wick short of min-wick must not sweep")
	}
	if ev := r.CheckSweep(barAt(0, 108, 113, 107, 110), pool); ev != nil {
		t.Error("Close at or above the pool must not sweep when close confirmation is on")
	}
}

func TestRegistry_SweepBelowIsBullish(t *testing.T) {
	r := newTestRegistry(t, registryConfig())
	pool := domain.LiquidityPool{Price: 90, Kind: domain.PoolPriorDayLow, Direction: domain.PoolBelow}

	ev := r.CheckSweep(barAt(0, 92, 93, 87, 91), pool)
	if ev == nil {
		t.Fatal("Expected a sweep of the low")
	}
	if ev.Direction != domain.Bullish || ev.WickExtreme != 87 {
		t.Errorf("Event = %+v, want bullish with wick 87", ev)
	}

	if ev := r.CheckSweep(barAt(0, 92, 93, 88, 91), pool); ev != nil {
		t.Error("Wick short of min-wick must not sweep")
	}
}

func TestRegistry_SweepWithoutCloseConfirmation(t *testing.T) {
	cfg := registryConfig()
	cfg.SweepRequireClose = false
	r := newTestRegistry(t, cfg)
	pool := domain.LiquidityPool{Price: 110, Kind: domain.PoolPriorDayHigh, Direction: domain.PoolAbove}

	if ev := r.CheckSweep(barAt(0, 108, 113, 107, 111), pool); ev == nil {
		t.Error("With close confirmation off, the wick alone must sweep")
	}
}

// feedTwoDays runs one full Monday and the first Tuesday bar: prior-day
// extremes 110/90, finalized New York session 110/90, daily open 101,
// weekly and monthly opens 100.
func feedTwoDays(t *testing.T, r *Registry) int64 {
	t.Helper()
	loc := etLocation(t)

	r.Update(barAt(etMs(loc, 2026, time.March, 2, 10, 0), 100, 105, 95, 100))
	r.Update(barAt(etMs(loc, 2026, time.March, 2, 11, 0), 100, 110, 90, 100))

	ts := etMs(loc, 2026, time.March, 3, 10, 0)
	ctx := r.Update(barAt(ts, 101, 102, 100, 101))
	if !ctx.NewDay {
		t.Fatal("Tuesday bar must start a new day")
	}
	return ts
}

func TestRegistry_PoolOrderingIsDeterministic(t *testing.T) {
	r := newTestRegistry(t, registryConfig())
	now := feedTwoDays(t, r)

	pools := r.Pools(100, now)

	want := []struct {
		kind  domain.PoolKind
		price float64
		dir   domain.PoolDirection
	}{
		{domain.PoolPriorDayLow, 90, domain.PoolBelow},
		{domain.PoolPriorDayHigh, 110, domain.PoolAbove},
		{domain.PoolSessionLow, 90, domain.PoolBelow},
		{domain.PoolSessionHigh, 110, domain.PoolAbove},
		{domain.PoolMonthlyOpen, 100, domain.PoolAbove},
		{domain.PoolWeeklyOpen, 100, domain.PoolAbove},
		{domain.PoolDailyOpen, 101, domain.PoolAbove},
	}
	if len(pools) != len(want) {
		t.Fatalf("Got %d pools, want %d: %+v", len(pools), len(want), pools)
	}
	for i, w := range want {
		p := pools[i]
		if p.Kind != w.kind || p.Price != w.price || p.Direction != w.dir {
			t.Errorf("pools[%d] = %+v, want %s %v %s", i, p, w.kind, w.price, w.dir)
		}
	}
}

func TestRegistry_OpposingPool(t *testing.T) {
	r := newTestRegistry(t, registryConfig())
	now := feedTwoDays(t, r)

	swept := domain.LiquidityPool{Price: 90, Kind: domain.PoolPriorDayLow, Direction: domain.PoolBelow}
	opp := r.OpposingPool(swept, 100, now)
	if opp == nil {
		t.Fatal("Expected an opposing pool above price")
	}
	if opp.Kind != domain.PoolPriorDayHigh || opp.Price != 110 {
		t.Errorf("Opposing pool = %+v, want prior day high 110", opp)
	}
}

func TestRegistry_SwingPoolCapAndAge(t *testing.T) {
	cfg := registryConfig()
	cfg.SwingPoolCap = 2
	r := newTestRegistry(t, cfg)

	r.AddSwing(swingAt(120, domain.SwingHigh, 0))
	r.AddSwing(swingAt(80, domain.SwingLow, 1_000))
	r.AddSwing(swingAt(125, domain.SwingHigh, 2_000))

	pools := r.Pools(100, 2_000)
	if len(pools) != 2 {
		t.Fatalf("Got %d pools, want the 2 capped swings: %+v", len(pools), pools)
	}
	if pools[0].Price != 80 || pools[1].Price != 125 {
		t.Errorf("Pools = %+v, want nearer 80 before 125", pools)
	}

	// Reading an hour later drops the older swing.
	pools = r.Pools(100, 1_000+cfg.SwingPoolMaxAgeMs+1)
	if len(pools) != 1 || pools[0].Price != 125 {
		t.Errorf("Pools after aging = %+v, want only 125", pools)
	}
}

func TestRegistry_EqualLevelOutranksSwings(t *testing.T) {
	r := newTestRegistry(t, registryConfig())

	r.AddSwing(swingAt(100, domain.SwingHigh, 0))
	r.AddSwing(swingAt(100.5, domain.SwingHigh, 120_000))

	pools := r.Pools(95, 120_000)
	if len(pools) == 0 {
		t.Fatal("Expected pools")
	}
	first := pools[0]
	if first.Kind != domain.PoolEqualHighs {
		t.Fatalf("First pool = %+v, want the equal-highs cluster", first)
	}
	if first.Price != 100.25 {
		t.Errorf("Cluster price = %v, want 100.25", first.Price)
	}
	if first.Strength != domain.StrengthFor(domain.PoolEqualHighs) {
		t.Errorf("Strength = %d, want base rank for two touches", first.Strength)
	}
}
