package verification

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"sweep-signal-lab/internal/config"
	"sweep-signal-lab/internal/engine"
	"sweep-signal-lab/internal/replay"
	"sweep-signal-lab/internal/storage"
)

// ReplayVerifier replays a symbol's bar archive through a fresh engine
// and compares the emitted signals against the stored run.
type ReplayVerifier struct {
	barStore    storage.BarStore
	signalStore storage.SignalStore
	cfg         config.Config
}

// ReplayVerifierOptions contains configuration for creating a ReplayVerifier.
type ReplayVerifierOptions struct {
	BarStore    storage.BarStore
	SignalStore storage.SignalStore
	// Config must match the configuration of the stored run; a changed
	// parameter set makes divergence expected rather than diagnostic.
	Config config.Config
}

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(opts ReplayVerifierOptions) *ReplayVerifier {
	return &ReplayVerifier{
		barStore:    opts.BarStore,
		signalStore: opts.SignalStore,
		cfg:         opts.Config,
	}
}

// VerifySymbol replays all archived bars for a symbol and compares the
// result against stored signals.
func (v *ReplayVerifier) VerifySymbol(ctx context.Context, symbol string) (*Report, error) {
	stored, err := v.signalStore.GetBySymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("load stored signals: %w", err)
	}

	eng, err := engine.New(v.cfg, zerolog.Nop(), nil)
	if err != nil {
		return nil, fmt.Errorf("build replay engine: %w", err)
	}

	replayed, err := replay.NewRunner(v.barStore).RunAll(ctx, symbol, eng)
	if err != nil {
		return nil, fmt.Errorf("replay bars: %w", err)
	}

	return CompareRuns(stored, replayed), nil
}
