package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sweep-signal-lab/internal/domain"
	"sweep-signal-lab/internal/observability"
	"sweep-signal-lab/internal/storage"
)

// dbName labels this store's query metrics.
const dbName = "postgres"

// SignalStore implements storage.SignalStore using PostgreSQL.
type SignalStore struct {
	pool *Pool
	met  *observability.Metrics // optional
}

// NewSignalStore creates a new SignalStore.
func NewSignalStore(pool *Pool) *SignalStore {
	return &SignalStore{pool: pool}
}

// WithMetrics attaches query instrumentation and returns the store.
func (s *SignalStore) WithMetrics(met *observability.Metrics) *SignalStore {
	s.met = met
	return s
}

// Compile-time interface check.
var _ storage.SignalStore = (*SignalStore)(nil)

// Insert adds a new signal. Returns ErrDuplicateKey if the ID exists.
func (s *SignalStore) Insert(ctx context.Context, sig *domain.Signal) (err error) {
	if sig == nil || sig.ID == "" || sig.Symbol == "" {
		return storage.ErrInvalidInput
	}

	meta, err := json.Marshal(sig.Metadata)
	if err != nil {
		return fmt.Errorf("marshal signal metadata: %w", err)
	}
	defer func(start time.Time) {
		s.met.RecordDBQuery(dbName, "insert", time.Since(start).Seconds(), err)
	}(time.Now())

	query := `
		INSERT INTO signals (
			id, symbol, side, entry_price, stop_loss, take_profit,
			quantity, max_hold_bars, timestamp_ms, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.pool.Exec(ctx, query,
		sig.ID,
		sig.Symbol,
		string(sig.Side),
		sig.EntryPrice,
		sig.StopLoss,
		sig.TakeProfit,
		sig.Quantity,
		sig.MaxHoldBars,
		sig.TimestampMs,
		meta,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

// GetByID retrieves a signal by its ID. Returns ErrNotFound if not exists.
func (s *SignalStore) GetByID(ctx context.Context, id string) (_ *domain.Signal, err error) {
	query := `
		SELECT id, symbol, side, entry_price, stop_loss, take_profit,
		       quantity, max_hold_bars, timestamp_ms, metadata
		FROM signals
		WHERE id = $1
	`
	defer func(start time.Time) {
		s.met.RecordDBQuery(dbName, "get_by_id", time.Since(start).Seconds(), err)
	}(time.Now())

	sig, err := scanSignal(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get signal by id: %w", err)
	}
	return sig, nil
}

// GetBySymbol retrieves all signals for a symbol, ordered by timestamp ASC.
func (s *SignalStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.Signal, error) {
	query := `
		SELECT id, symbol, side, entry_price, stop_loss, take_profit,
		       quantity, max_hold_bars, timestamp_ms, metadata
		FROM signals
		WHERE symbol = $1
		ORDER BY timestamp_ms ASC, id ASC
	`
	return s.querySignals(ctx, "get_by_symbol", query, symbol)
}

// GetByTimeRange retrieves signals for a symbol within [start, end]
// (inclusive), ordered by timestamp ASC.
func (s *SignalStore) GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]*domain.Signal, error) {
	query := `
		SELECT id, symbol, side, entry_price, stop_loss, take_profit,
		       quantity, max_hold_bars, timestamp_ms, metadata
		FROM signals
		WHERE symbol = $1 AND timestamp_ms >= $2 AND timestamp_ms <= $3
		ORDER BY timestamp_ms ASC, id ASC
	`
	return s.querySignals(ctx, "get_by_time_range", query, symbol, start, end)
}

func (s *SignalStore) querySignals(ctx context.Context, operation, query string, args ...any) (_ []*domain.Signal, err error) {
	defer func(start time.Time) {
		s.met.RecordDBQuery(dbName, operation, time.Since(start).Seconds(), err)
	}(time.Now())

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var out []*domain.Signal
	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		out = append(out, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signals: %w", err)
	}
	return out, nil
}

// rowScanner abstracts pgx.Row and pgx.Rows for scanSignal.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSignal(row rowScanner) (*domain.Signal, error) {
	var (
		sig  domain.Signal
		side string
		meta []byte
	)
	err := row.Scan(
		&sig.ID,
		&sig.Symbol,
		&side,
		&sig.EntryPrice,
		&sig.StopLoss,
		&sig.TakeProfit,
		&sig.Quantity,
		&sig.MaxHoldBars,
		&sig.TimestampMs,
		&meta,
	)
	if err != nil {
		return nil, err
	}
	sig.Side = domain.Side(side)
	if err := json.Unmarshal(meta, &sig.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal signal metadata: %w", err)
	}
	return &sig, nil
}
