package engine

import (
	"errors"

	"sweep-signal-lab/internal/domain"
)

// Geometry rejection reasons. These reject a candidate signal inside the
// filter step; they are never returned from OnBar.
var (
	ErrNoStopReference = errors.New("no stop reference price")
	ErrStopWrongSide   = errors.New("stop on the wrong side of entry")
	ErrStopTooTight    = errors.New("stop distance below minimum")
	ErrStopTooWide     = errors.New("stop distance above maximum")
)

// geometry is the computed stop/target layout for one candidate.
type geometry struct {
	stop           float64
	target         float64
	stopRef        float64 // causal swing or sweep extreme the stop hangs off
	stopDistance   float64
	targetDistance float64
	riskReward     float64
	targetSource   string // "opposing_pool" or "fixed_rr"
}

// buildGeometry computes stop and target for an entry-ready setup. The
// stop sits beyond the causal swing when a structure shift backs the
// setup, falling back to the sweep extreme, then to the entry zone's far
// edge. The target is an opposing liquidity pool when one offers enough
// reward, else a fixed risk:reward multiple.
func (e *Engine) buildGeometry(bar domain.Bar, s *domain.Setup) (geometry, error) {
	ref, err := stopReference(s)
	if err != nil {
		return geometry{}, err
	}

	var g geometry
	g.stopRef = ref
	if s.Direction == domain.Bullish {
		g.stop = ref - e.cfg.StopBufferPoints
		g.stopDistance = s.EntryPrice - g.stop
	} else {
		g.stop = ref + e.cfg.StopBufferPoints
		g.stopDistance = g.stop - s.EntryPrice
	}
	if g.stopDistance <= 0 {
		return geometry{}, ErrStopWrongSide
	}
	if g.stopDistance < e.cfg.MinStopPoints {
		return geometry{}, ErrStopTooTight
	}
	if g.stopDistance > e.cfg.MaxStopPoints {
		return geometry{}, ErrStopTooWide
	}

	g.target, g.targetSource = e.pickTarget(bar, s, g.stopDistance)
	if s.Direction == domain.Bullish {
		g.targetDistance = g.target - s.EntryPrice
	} else {
		g.targetDistance = s.EntryPrice - g.target
	}
	g.riskReward = g.targetDistance / g.stopDistance
	return g, nil
}

// stopReference picks the price the stop hangs off, by preference order.
func stopReference(s *domain.Setup) (float64, error) {
	switch {
	case s.Shift != nil:
		return s.Shift.CausalSwing, nil
	case s.Sweep != nil:
		return s.Sweep.WickExtreme, nil
	case s.EntryZone != nil:
		if s.Direction == domain.Bullish {
			return s.EntryZone.Bottom, nil
		}
		return s.EntryZone.Top, nil
	}
	return 0, ErrNoStopReference
}

// pickTarget selects an opposing liquidity pool when it sits far enough
// away, otherwise a fixed risk:reward multiple of the stop distance.
func (e *Engine) pickTarget(bar domain.Bar, s *domain.Setup, stopDistance float64) (float64, string) {
	pool := e.targetPool(bar, s)
	if pool != nil {
		var dist float64
		if s.Direction == domain.Bullish {
			dist = pool.Price - s.EntryPrice
		} else {
			dist = s.EntryPrice - pool.Price
		}
		if dist/stopDistance >= e.cfg.MinOpposingPoolRR {
			return pool.Price, "opposing_pool"
		}
	}

	if s.Direction == domain.Bullish {
		return s.EntryPrice + e.cfg.TargetRR*stopDistance, "fixed_rr"
	}
	return s.EntryPrice - e.cfg.TargetRR*stopDistance, "fixed_rr"
}

// targetPool finds the profit-side pool: the opposing pool of the swept
// pool for sweep-backed setups, the strongest nearby profit-side pool
// otherwise.
func (e *Engine) targetPool(bar domain.Bar, s *domain.Setup) *domain.LiquidityPool {
	if s.Sweep != nil {
		return e.registry.OpposingPool(s.Sweep.Pool, s.EntryPrice, bar.TimestampMs)
	}

	want := domain.PoolBelow
	if s.Direction == domain.Bullish {
		want = domain.PoolAbove
	}
	for _, p := range e.registry.Pools(s.EntryPrice, bar.TimestampMs) {
		if p.Direction == want {
			pool := p
			return &pool
		}
	}
	return nil
}
