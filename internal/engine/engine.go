// Package engine implements the strategy orchestrator: it drives every
// collaborator in a fixed per-bar order and emits at most one trade
// signal per base bar.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"sweep-signal-lab/internal/aggregate"
	"sweep-signal-lab/internal/config"
	"sweep-signal-lab/internal/domain"
	"sweep-signal-lab/internal/idhash"
	"sweep-signal-lab/internal/killzone"
	"sweep-signal-lab/internal/liquidity"
	"sweep-signal-lab/internal/observability"
	"sweep-signal-lab/internal/setups"
	"sweep-signal-lab/internal/structure"
)

// Engine is the single-threaded strategy orchestrator. One base bar in,
// at most one signal out; all state is owned by the call graph, so no
// locking exists anywhere below this type.
type Engine struct {
	cfg config.Config
	log zerolog.Logger
	met *observability.Metrics // optional

	agg       *aggregate.Aggregator
	registry  *liquidity.Registry
	ranges    *liquidity.RangeTracker
	analyzers map[domain.Timeframe]*structure.Analyzer
	kz        *killzone.Filter
	tracker   *setups.Tracker

	tradeDay     string
	signalsToday int
	lastSignalMs int64
}

// New builds an engine from a validated configuration. Configuration
// errors fail construction; nothing in the per-bar path returns them.
func New(cfg config.Config, log zerolog.Logger, met *observability.Metrics) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg: cfg,
		log: log.With().Str("component", "engine").Logger(),
		met: met,
	}
	e.build()
	return e, nil
}

// build constructs all collaborators from the current configuration.
func (e *Engine) build() {
	cfg := e.cfg
	loc, _ := cfg.Location() // validated at construction

	e.agg = aggregate.New(cfg.ActiveTimeframes, 0)
	e.registry = liquidity.NewRegistry(
		liquidity.RegistryConfig{
			SweepMinWick:      cfg.SweepMinWickPoints,
			SweepRequireClose: cfg.SweepRequireClose,
			SwingPoolCap:      cfg.SwingPoolCap,
			SwingPoolMaxAgeMs: int64(cfg.SwingPoolMaxAgeH) * time.Hour.Milliseconds(),
		},
		liquidity.NewCalendar(loc),
		liquidity.NewEqualLevelDetector(liquidity.EqualLevelConfig{
			Tolerance:  cfg.EqualLevelTolerance,
			MinSepMs:   int64(cfg.EqualLevelMinSepMin) * time.Minute.Milliseconds(),
			MaxAgeMs:   int64(cfg.EqualLevelMaxAgeH) * time.Hour.Milliseconds(),
			MaxTouches: cfg.EqualLevelMaxTouches,
		}),
	)
	e.ranges = liquidity.NewRangeTracker(liquidity.RangeTrackerConfig{
		AvgDays:         cfg.RangeAvgDays,
		CompressedRatio: cfg.RangeCompressedRatio,
		ExpandedRatio:   cfg.RangeExpandedRatio,
	})
	e.analyzers = make(map[domain.Timeframe]*structure.Analyzer, len(cfg.ActiveTimeframes))
	for _, tf := range cfg.ActiveTimeframes {
		e.analyzers[tf] = structure.New(tf, structure.Config{
			SwingLookback:     cfg.SwingLookback,
			MinSwingPoints:    cfg.MinSwingPoints,
			ShiftConfirmBars:  cfg.ShiftConfirmBars,
			MinGapPoints:      cfg.MinGapPoints,
			ImpulseBodyFactor: cfg.ImpulseBodyFactor,
		})
	}
	e.kz = killzone.New(loc, cfg.KillzoneBypass)
	e.tracker = setups.NewTracker(setups.TrackerConfig{
		Symbol:             cfg.Symbol,
		StructureTFs:       cfg.StructureTimeframes,
		MaxZoneEntryAge:    cfg.MaxZoneEntryAge,
		EntryMode:          cfg.EntryMode,
		ConfirmBars:        cfg.ConfirmBars,
		InvalidationBuffer: cfg.InvalidationBuffer,
		ExpiryMultiplier:   float64(cfg.ExpiryMultiplier),
		MaxSetups:          cfg.MaxSetups,
	})
	e.tradeDay = ""
	e.signalsToday = 0
	e.lastSignalMs = 0
}

// UpdateParams replaces the configuration between runs. All analyzer,
// liquidity, and setup state is rebuilt; calling this mid-stream
// discards accumulated history by design of the replacement contract.
func (e *Engine) UpdateParams(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.cfg = cfg
	e.build()
	return nil
}

// Config returns the engine's current configuration.
func (e *Engine) Config() config.Config {
	return e.cfg
}

// OnBar runs the fixed pipeline for one base bar. Returns nil, nil when
// the bar produced no opportunity. Bars must arrive in non-decreasing
// timestamp order; out-of-order input is a caller contract violation.
func (e *Engine) OnBar(ctx context.Context, bar domain.Bar, aux *domain.AuxContext) (*domain.Signal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.met != nil {
		e.met.BarsProcessed.Inc()
	}

	dayCtx := e.registry.Update(bar)
	e.ranges.Update(bar, dayCtx)
	if dayCtx.NewDay && dayCtx.DayKey != e.tradeDay {
		e.tradeDay = dayCtx.DayKey
		e.signalsToday = 0
	}

	e.runAnalyzers(bar)
	e.detectSweeps(bar)

	res := e.tracker.Tick(bar)
	e.recordTick(res)

	cands, geoms := e.filterReady(bar, res.Ready)
	winner := setups.Pick(setups.PriorityMode(e.cfg.PriorityMode), cands)
	if winner == nil {
		return nil, nil
	}

	if reason := e.throttled(bar.TimestampMs); reason != "" {
		// The winner stays tracked; it may fire once the throttle clears.
		e.log.Debug().Str("setup", winner.Setup.ID).Str("reason", reason).Msg("signal throttled")
		if e.met != nil {
			e.met.SignalsThrottled.WithLabelValues(reason).Inc()
		}
		return nil, nil
	}

	sig := e.buildSignal(bar, winner.Setup, geoms[winner.Setup.ID], aux)
	e.tracker.Remove(winner.Setup.ID)
	e.signalsToday++
	e.lastSignalMs = bar.TimestampMs

	if e.met != nil {
		e.met.SignalsEmitted.WithLabelValues(string(sig.Side)).Inc()
		e.met.LiveSetups.Set(float64(e.tracker.Len()))
	}
	e.log.Info().
		Str("signal", sig.ID).
		Str("side", string(sig.Side)).
		Float64("entry", sig.EntryPrice).
		Float64("stop", sig.StopLoss).
		Float64("target", sig.TakeProfit).
		Str("model", string(sig.Metadata.EntryModel)).
		Str("structure_tf", string(sig.Metadata.StructureTF)).
		Msg("signal emitted")
	return sig, nil
}

// runAnalyzers feeds sealed higher-timeframe bars through their
// analyzers and routes every structural event to the liquidity registry
// and the setup tracker.
func (e *Engine) runAnalyzers(bar domain.Bar) {
	for _, done := range e.agg.Add(bar) {
		if e.met != nil {
			e.met.BarsAggregated.WithLabelValues(string(done.Timeframe)).Inc()
		}
		res := e.analyzers[done.Timeframe].OnBar(done.Bar)

		for _, sw := range res.Swings {
			e.registry.AddSwing(sw)
		}
		if res.Shift != nil {
			e.log.Debug().
				Str("timeframe", string(done.Timeframe)).
				Str("direction", string(res.Shift.Direction)).
				Float64("break_level", res.Shift.BreakLevel).
				Msg("structure shift confirmed")
			if e.met != nil {
				e.met.StructureShifts.WithLabelValues(string(done.Timeframe)).Inc()
			}
			created := e.tracker.OnShift(*res.Shift)
			e.recordCreated(created)
			e.offerLiveZones()
		}
		for _, z := range res.Zones {
			if e.met != nil {
				e.met.ZonesDetected.WithLabelValues(string(z.Kind)).Inc()
			}
			e.tracker.OnZone(z)
		}
		for _, z := range res.Rejected {
			if s := e.tracker.OnRejectedZone(z); s != nil {
				e.recordCreated([]*domain.Setup{s})
			}
		}
	}
}

// offerLiveZones replays every analyzer's live zones through the
// tracker. A shift can confirm after a matching zone sealed; the setups
// it just advanced would otherwise wait for a zone that never reprints.
// The tracker's age window still gates each replayed zone.
func (e *Engine) offerLiveZones() {
	for _, tf := range e.cfg.ActiveTimeframes {
		for _, z := range e.analyzers[tf].Zones() {
			if z.Filled {
				continue
			}
			e.tracker.OnZone(z)
		}
	}
}

// detectSweeps checks the base bar against every live pool.
func (e *Engine) detectSweeps(bar domain.Bar) {
	for _, pool := range e.registry.Pools(bar.Close, bar.TimestampMs) {
		ev := e.registry.CheckSweep(bar, pool)
		if ev == nil {
			continue
		}
		e.log.Debug().
			Str("pool_kind", string(pool.Kind)).
			Float64("pool_price", pool.Price).
			Str("direction", string(ev.Direction)).
			Msg("liquidity sweep")
		if e.met != nil {
			e.met.SweepsDetected.WithLabelValues(string(pool.Kind)).Inc()
		}
		e.recordCreated(e.tracker.OnSweep(*ev))
	}
}

// filterReady applies the entry filters to this bar's ready setups and
// returns the surviving candidates with their signal geometry. Rejected
// setups are removed; they had their chance.
func (e *Engine) filterReady(bar domain.Bar, ready []*domain.Setup) ([]setups.Candidate, map[string]geometry) {
	var cands []setups.Candidate
	geoms := make(map[string]geometry, len(ready))

	for _, s := range ready {
		if (s.Direction == domain.Bullish && !e.cfg.LongEnabled) ||
			(s.Direction == domain.Bearish && !e.cfg.ShortEnabled) {
			e.reject(s, "direction disabled")
			continue
		}

		allowed, name := e.kz.Check(bar.TimestampMs, s.StructureTF)
		s.KillzoneOK = allowed
		s.KillzoneName = name
		if !allowed {
			e.reject(s, "outside killzone")
			continue
		}

		if e.cfg.RequireTrendAlignment && e.analyzers[s.StructureTF].Trend() != s.Direction {
			e.reject(s, "trend misaligned")
			continue
		}

		geom, err := e.buildGeometry(bar, s)
		if err != nil {
			e.reject(s, err.Error())
			continue
		}
		if geom.riskReward < e.cfg.MinRiskReward {
			e.reject(s, "risk reward below minimum")
			continue
		}

		geoms[s.ID] = geom
		cands = append(cands, setups.Candidate{Setup: s, RiskReward: geom.riskReward})
	}
	return cands, geoms
}

func (e *Engine) reject(s *domain.Setup, reason string) {
	e.log.Debug().Str("setup", s.ID).Str("reason", reason).Msg("entry-ready setup rejected")
	e.tracker.Remove(s.ID)
}

// throttled returns a non-empty reason when the daily trade cap or the
// cooldown blocks emission at tsMs.
func (e *Engine) throttled(tsMs int64) string {
	if e.cfg.DailyTradeCap > 0 && e.signalsToday >= e.cfg.DailyTradeCap {
		return "daily cap"
	}
	cooldown := int64(e.cfg.CooldownMinutes) * time.Minute.Milliseconds()
	if e.lastSignalMs > 0 && tsMs-e.lastSignalMs < cooldown {
		return "cooldown"
	}
	return ""
}

// buildSignal assembles the final signal for the winning setup.
func (e *Engine) buildSignal(bar domain.Bar, s *domain.Setup, geom geometry, aux *domain.AuxContext) *domain.Signal {
	meta := domain.SignalMetadata{
		EntryModel:     s.Model,
		StructureTF:    s.StructureTF,
		EntryTF:        s.EntryTF,
		CausalSwing:    geom.stopRef,
		RiskReward:     geom.riskReward,
		StopDistance:   geom.stopDistance,
		TargetDistance: geom.targetDistance,
		TargetSource:   geom.targetSource,
		IsKillzone:     s.KillzoneName != "",
		Killzone:       s.KillzoneName,
		RangeDay:       string(e.ranges.Classify()),
	}
	if s.Sweep != nil {
		level := s.Sweep.Pool.Price
		meta.SweepLevel = &level
		meta.SweepKind = s.Sweep.Pool.Kind
	}
	if s.EntryZone != nil {
		meta.EntryZoneTop = s.EntryZone.Top
		meta.EntryZoneLow = s.EntryZone.Bottom
	}
	if aux != nil {
		meta.BookImbalance = aux.BookImbalance
	}

	return &domain.Signal{
		ID:          idhash.ComputeSignalID(s.ID, e.cfg.Symbol, bar.TimestampMs),
		Symbol:      e.cfg.Symbol,
		Side:        s.Direction.Side(),
		EntryPrice:  s.EntryPrice,
		StopLoss:    geom.stop,
		TakeProfit:  geom.target,
		Quantity:    e.cfg.Quantity,
		MaxHoldBars: e.cfg.MaxHoldBars,
		TimestampMs: bar.TimestampMs,
		Metadata:    meta,
	}
}

func (e *Engine) recordCreated(created []*domain.Setup) {
	for _, s := range created {
		e.log.Debug().
			Str("setup", s.ID).
			Str("model", string(s.Model)).
			Str("direction", string(s.Direction)).
			Str("structure_tf", string(s.StructureTF)).
			Msg("setup created")
		if e.met != nil {
			e.met.SetupsCreated.WithLabelValues(string(s.Model)).Inc()
		}
	}
	if e.met != nil {
		e.met.LiveSetups.Set(float64(e.tracker.Len()))
	}
}

func (e *Engine) recordTick(res setups.TickResult) {
	if e.met == nil {
		return
	}
	e.met.SetupsExpired.Add(float64(len(res.Expired)))
	e.met.SetupsInvalid.Add(float64(len(res.Invalidated)))
	e.met.SetupsEvicted.Add(float64(len(res.Evicted)))
	e.met.LiveSetups.Set(float64(e.tracker.Len()))
}
