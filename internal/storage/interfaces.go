package storage

import (
	"context"
	"time"

	"knights-market/internal/domain"
)

// SaleStore provides access to sales storage.
type SaleStore interface {
	// Upsert persists sales in sequential batches, ignoring records whose
	// signature already exists. Returns the number of records submitted;
	// on a mid-sequence batch failure the committed prefix stays persisted
	// and its count is returned with the error.
	Upsert(ctx context.Context, sales []*domain.SaleRecord) (int, error)

	// GetSince retrieves sales with block_time >= since, newest first.
	// A zero since returns all sales.
	GetSince(ctx context.Context, since time.Time) ([]*domain.SaleRecord, error)

	// GetBySignature retrieves a sale by its signature. Returns ErrNotFound
	// if not exists.
	GetBySignature(ctx context.Context, signature string) (*domain.SaleRecord, error)

	// Count returns the number of persisted sales.
	Count(ctx context.Context) (int64, error)
}

// VolumeSnapshotStore provides access to volume_snapshots storage.
// Snapshots are append-only.
type VolumeSnapshotStore interface {
	// Insert appends a new snapshot.
	Insert(ctx context.Context, s *domain.VolumeSnapshot) error

	// GetByCollection retrieves all snapshots for a collection, ordered by
	// taken_at ASC.
	GetByCollection(ctx context.Context, symbol string) ([]*domain.VolumeSnapshot, error)
}
