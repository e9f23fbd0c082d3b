package memory

import (
	"context"
	"sort"
	"sync"

	"knights-market/internal/domain"
	"knights-market/internal/storage"
)

// VolumeSnapshotStore is an in-memory implementation of
// storage.VolumeSnapshotStore.
type VolumeSnapshotStore struct {
	mu   sync.RWMutex
	data []*domain.VolumeSnapshot
}

// NewVolumeSnapshotStore creates a new in-memory snapshot store.
func NewVolumeSnapshotStore() *VolumeSnapshotStore {
	return &VolumeSnapshotStore{}
}

// Insert appends a new snapshot.
func (s *VolumeSnapshotStore) Insert(_ context.Context, snap *domain.VolumeSnapshot) error {
	if snap == nil || snap.CollectionSymbol == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *snap
	s.data = append(s.data, &copy)
	return nil
}

// GetByCollection retrieves all snapshots for a collection, ordered by
// taken_at ASC.
func (s *VolumeSnapshotStore) GetByCollection(_ context.Context, symbol string) ([]*domain.VolumeSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.VolumeSnapshot
	for _, snap := range s.data {
		if snap.CollectionSymbol == symbol {
			copy := *snap
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TakenAt < result[j].TakenAt
	})

	return result, nil
}

var _ storage.VolumeSnapshotStore = (*VolumeSnapshotStore)(nil)
