// Package memory provides in-memory store implementations, used by the
// replay runner and in tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"sweep-signal-lab/internal/domain"
	"sweep-signal-lab/internal/storage"
)

// BarStore is an in-memory implementation of storage.BarStore.
type BarStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Bar // keyed by symbol|timestamp
}

// NewBarStore creates a new in-memory bar store.
func NewBarStore() *BarStore {
	return &BarStore{data: make(map[string]*domain.Bar)}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

func barKey(symbol string, timestampMs int64) string {
	return fmt.Sprintf("%s|%d", symbol, timestampMs)
}

// Insert adds a new bar. Returns ErrDuplicateKey if exists.
func (s *BarStore) Insert(_ context.Context, b *domain.Bar) error {
	if b == nil || b.Symbol == "" {
		return storage.ErrInvalidInput
	}
	key := barKey(b.Symbol, b.TimestampMs)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}
	cp := *b
	s.data[key] = &cp
	return nil
}

// InsertBulk adds multiple bars atomically. Fails entire batch on any duplicate.
func (s *BarStore) InsertBulk(_ context.Context, bars []*domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[string]struct{}, len(bars))
	for _, b := range bars {
		if b == nil || b.Symbol == "" {
			return storage.ErrInvalidInput
		}
		key := barKey(b.Symbol, b.TimestampMs)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[key]; exists {
			return storage.ErrDuplicateKey
		}
		batch[key] = struct{}{}
	}

	for _, b := range bars {
		cp := *b
		s.data[barKey(b.Symbol, b.TimestampMs)] = &cp
	}
	return nil
}

// GetBySymbol retrieves all bars for a symbol, ordered by timestamp ASC.
func (s *BarStore) GetBySymbol(_ context.Context, symbol string) ([]*domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Bar
	for _, b := range s.data {
		if b.Symbol == symbol {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimestampMs < out[j].TimestampMs })
	return out, nil
}

// GetByTimeRange retrieves bars within [start, end] inclusive, ordered by
// timestamp ASC.
func (s *BarStore) GetByTimeRange(_ context.Context, symbol string, start, end int64) ([]*domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Bar
	for _, b := range s.data {
		if b.Symbol == symbol && b.TimestampMs >= start && b.TimestampMs <= end {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimestampMs < out[j].TimestampMs })
	return out, nil
}
