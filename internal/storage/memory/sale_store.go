package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"knights-market/internal/domain"
	"knights-market/internal/storage"
)

// SaleStore is an in-memory implementation of storage.SaleStore.
type SaleStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SaleRecord // keyed by signature
}

// NewSaleStore creates a new in-memory sale store.
func NewSaleStore() *SaleStore {
	return &SaleStore{
		data: make(map[string]*domain.SaleRecord),
	}
}

// Upsert persists sales, ignoring records whose signature already exists.
func (s *SaleStore) Upsert(_ context.Context, sales []*domain.SaleRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sale := range sales {
		if sale == nil || sale.Signature == "" {
			return 0, storage.ErrInvalidInput
		}
	}

	for _, sale := range sales {
		if _, exists := s.data[sale.Signature]; exists {
			continue
		}
		copy := *sale
		if copy.CreatedAt.IsZero() {
			copy.CreatedAt = time.Now().UTC()
		}
		s.data[sale.Signature] = &copy
	}

	return len(sales), nil
}

// GetSince retrieves sales with block_time >= since, newest first.
// A zero since returns all sales.
func (s *SaleStore) GetSince(_ context.Context, since time.Time) ([]*domain.SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SaleRecord
	for _, sale := range s.data {
		if !sale.BlockTime.Before(since) {
			copy := *sale
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].BlockTime.Equal(result[j].BlockTime) {
			return result[i].BlockTime.After(result[j].BlockTime)
		}
		return result[i].Signature < result[j].Signature
	})

	return result, nil
}

// GetBySignature retrieves a sale by its signature. Returns ErrNotFound
// if not exists.
func (s *SaleStore) GetBySignature(_ context.Context, signature string) (*domain.SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, exists := s.data[signature]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *sale
	return &copy, nil
}

// Count returns the number of persisted sales.
func (s *SaleStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.data)), nil
}

var _ storage.SaleStore = (*SaleStore)(nil)
