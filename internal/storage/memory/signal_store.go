package memory

import (
	"context"
	"sort"
	"sync"

	"sweep-signal-lab/internal/domain"
	"sweep-signal-lab/internal/storage"
)

// SignalStore is an in-memory implementation of storage.SignalStore.
type SignalStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Signal // keyed by signal ID
}

// NewSignalStore creates a new in-memory signal store.
func NewSignalStore() *SignalStore {
	return &SignalStore{data: make(map[string]*domain.Signal)}
}

// Compile-time interface check.
var _ storage.SignalStore = (*SignalStore)(nil)

// Insert adds a new signal. Returns ErrDuplicateKey if the ID exists.
func (s *SignalStore) Insert(_ context.Context, sig *domain.Signal) error {
	if sig == nil || sig.ID == "" || sig.Symbol == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[sig.ID]; exists {
		return storage.ErrDuplicateKey
	}
	cp := *sig
	s.data[sig.ID] = &cp
	return nil
}

// GetByID retrieves a signal by ID. Returns ErrNotFound if not exists.
func (s *SignalStore) GetByID(_ context.Context, id string) (*domain.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sig, ok := s.data[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *sig
	return &cp, nil
}

// GetBySymbol retrieves all signals for a symbol, ordered by timestamp ASC.
func (s *SignalStore) GetBySymbol(_ context.Context, symbol string) ([]*domain.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Signal
	for _, sig := range s.data {
		if sig.Symbol == symbol {
			cp := *sig
			out = append(out, &cp)
		}
	}
	sortSignals(out)
	return out, nil
}

// GetByTimeRange retrieves signals within [start, end] inclusive, ordered
// by timestamp ASC.
func (s *SignalStore) GetByTimeRange(_ context.Context, symbol string, start, end int64) ([]*domain.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Signal
	for _, sig := range s.data {
		if sig.Symbol == symbol && sig.TimestampMs >= start && sig.TimestampMs <= end {
			cp := *sig
			out = append(out, &cp)
		}
	}
	sortSignals(out)
	return out, nil
}

// sortSignals orders by timestamp then ID so equal-timestamp signals
// come back in a stable order.
func sortSignals(signals []*domain.Signal) {
	sort.Slice(signals, func(i, j int) bool {
		if signals[i].TimestampMs != signals[j].TimestampMs {
			return signals[i].TimestampMs < signals[j].TimestampMs
		}
		return signals[i].ID < signals[j].ID
	})
}
