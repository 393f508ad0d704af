package clickhouse

import (
	"context"
	"fmt"
	"time"

	"sweep-signal-lab/internal/domain"
	"sweep-signal-lab/internal/observability"
	"sweep-signal-lab/internal/storage"
)

// dbName labels this store's query metrics.
const dbName = "clickhouse"

// BarStore implements storage.BarStore using ClickHouse.
type BarStore struct {
	conn *Conn
	met  *observability.Metrics // optional
}

// NewBarStore creates a new BarStore.
func NewBarStore(conn *Conn) *BarStore {
	return &BarStore{conn: conn}
}

// WithMetrics attaches query instrumentation and returns the store.
func (s *BarStore) WithMetrics(met *observability.Metrics) *BarStore {
	s.met = met
	return s
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

// Insert adds a new bar. Returns ErrDuplicateKey if (symbol, timestamp) exists.
func (s *BarStore) Insert(ctx context.Context, b *domain.Bar) error {
	if b == nil || b.Symbol == "" {
		return storage.ErrInvalidInput
	}
	return s.InsertBulk(ctx, []*domain.Bar{b})
}

// InsertBulk adds multiple bars. Fails entire batch on duplicate
// (symbol, timestamp_ms).
func (s *BarStore) InsertBulk(ctx context.Context, bars []*domain.Bar) (err error) {
	if len(bars) == 0 {
		return nil
	}
	defer func(start time.Time) {
		s.met.RecordDBQuery(dbName, "insert", time.Since(start).Seconds(), err)
	}(time.Now())

	// Check for intra-batch duplicates
	type key struct {
		symbol      string
		timestampMs int64
	}
	seen := make(map[key]struct{})
	for _, b := range bars {
		if b == nil || b.Symbol == "" {
			return storage.ErrInvalidInput
		}
		k := key{b.Symbol, b.TimestampMs}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, b := range bars {
		exists, err := s.exists(ctx, b.Symbol, b.TimestampMs)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO bars (
			symbol, timestamp_ms, open, high, low, close, volume
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, b := range bars {
		err = batch.Append(
			b.Symbol, uint64(b.TimestampMs),
			b.Open, b.High, b.Low, b.Close, b.Volume,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetBySymbol retrieves all bars for a symbol, ordered by timestamp ASC.
func (s *BarStore) GetBySymbol(ctx context.Context, symbol string) (_ []*domain.Bar, err error) {
	query := `
		SELECT symbol, timestamp_ms, open, high, low, close, volume
		FROM bars
		WHERE symbol = ?
		ORDER BY timestamp_ms ASC
	`
	defer func(start time.Time) {
		s.met.RecordDBQuery(dbName, "get_by_symbol", time.Since(start).Seconds(), err)
	}(time.Now())

	rows, err := s.conn.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("query by symbol: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// GetByTimeRange retrieves bars for a symbol within [start, end] (inclusive).
func (s *BarStore) GetByTimeRange(ctx context.Context, symbol string, start, end int64) (_ []*domain.Bar, err error) {
	query := `
		SELECT symbol, timestamp_ms, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`
	defer func(began time.Time) {
		s.met.RecordDBQuery(dbName, "get_by_time_range", time.Since(began).Seconds(), err)
	}(time.Now())

	rows, err := s.conn.Query(ctx, query, symbol, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// exists checks if a bar with the given key exists.
func (s *BarStore) exists(ctx context.Context, symbol string, timestampMs int64) (bool, error) {
	query := `
		SELECT count(*) FROM bars
		WHERE symbol = ? AND timestamp_ms = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, symbol, uint64(timestampMs)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanBars scans multiple rows.
func scanBars(rows chRows) ([]*domain.Bar, error) {
	var bars []*domain.Bar

	for rows.Next() {
		var b domain.Bar
		var timestampMs uint64

		err := rows.Scan(
			&b.Symbol, &timestampMs,
			&b.Open, &b.High, &b.Low, &b.Close, &b.Volume,
		)
		if err != nil {
			return nil, fmt.Errorf("scan bar row: %w", err)
		}

		b.TimestampMs = int64(timestampMs)
		bars = append(bars, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bar rows: %w", err)
	}

	return bars, nil
}
