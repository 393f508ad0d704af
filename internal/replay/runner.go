// Package replay feeds archived bars back through a strategy engine in
// deterministic order, so two runs over the same archive produce the
// same signal sequence.
package replay

import (
	"context"
	"fmt"

	"sweep-signal-lab/internal/domain"
	"sweep-signal-lab/internal/storage"
)

// Runner loads bars from storage and replays them through an engine.
type Runner struct {
	barStore storage.BarStore
}

// NewRunner creates a new replay runner.
func NewRunner(barStore storage.BarStore) *Runner {
	return &Runner{barStore: barStore}
}

// Run loads bars for a symbol within [from, to] and replays them through
// the engine. Returns the signals emitted during the run.
func (r *Runner) Run(ctx context.Context, symbol string, from, to int64, engine BarEngine) ([]*domain.Signal, error) {
	bars, err := r.barStore.GetByTimeRange(ctx, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("load bars: %w", err)
	}
	return ReplayBars(ctx, bars, engine)
}

// RunAll loads all bars for a symbol and replays them through the engine.
func (r *Runner) RunAll(ctx context.Context, symbol string, engine BarEngine) ([]*domain.Signal, error) {
	bars, err := r.barStore.GetBySymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("load bars: %w", err)
	}
	return ReplayBars(ctx, bars, engine)
}

// ReplayBars feeds a bar slice through the engine, enforcing
// non-decreasing timestamps. Returns the emitted signals.
func ReplayBars(ctx context.Context, bars []*domain.Bar, engine BarEngine) ([]*domain.Signal, error) {
	var (
		signals []*domain.Signal
		lastTs  int64 = -1
	)
	for _, b := range bars {
		if b.TimestampMs < lastTs {
			return signals, ErrOutOfOrder
		}
		lastTs = b.TimestampMs

		sig, err := engine.OnBar(ctx, *b, nil)
		if err != nil {
			return signals, err
		}
		if sig != nil {
			signals = append(signals, sig)
		}
	}
	return signals, nil
}
