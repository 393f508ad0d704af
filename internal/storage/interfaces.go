// Package storage defines the persistence interfaces of the lab. Bars
// are archived for replay; signals are recorded for comparison across
// runs. All stores are append-only.
package storage

import (
	"context"

	"sweep-signal-lab/internal/domain"
)

// BarStore provides access to archived base-resolution bars.
type BarStore interface {
	// Insert adds a new bar. Returns ErrDuplicateKey if (symbol, timestamp) exists.
	Insert(ctx context.Context, b *domain.Bar) error

	// InsertBulk adds multiple bars atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, bars []*domain.Bar) error

	// GetBySymbol retrieves all bars for a symbol, ordered by timestamp ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.Bar, error)

	// GetByTimeRange retrieves bars for a symbol within [start, end] (inclusive),
	// ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]*domain.Bar, error)
}

// SignalStore provides access to emitted signals.
type SignalStore interface {
	// Insert adds a new signal. Returns ErrDuplicateKey if the ID exists.
	Insert(ctx context.Context, s *domain.Signal) error

	// GetByID retrieves a signal by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Signal, error)

	// GetBySymbol retrieves all signals for a symbol, ordered by timestamp ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.Signal, error)

	// GetByTimeRange retrieves signals for a symbol within [start, end]
	// (inclusive), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]*domain.Signal, error)
}
