package clickhouse

import (
	"context"
	"fmt"

	"knights-market/internal/domain"
	"knights-market/internal/storage"
)

// VolumeSnapshotStore implements storage.VolumeSnapshotStore using ClickHouse.
// Snapshots are an append-only series; MergeTree's lack of uniqueness
// enforcement is fine here.
type VolumeSnapshotStore struct {
	conn *Conn
}

// NewVolumeSnapshotStore creates a new VolumeSnapshotStore.
func NewVolumeSnapshotStore(conn *Conn) *VolumeSnapshotStore {
	return &VolumeSnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.VolumeSnapshotStore = (*VolumeSnapshotStore)(nil)

// Insert appends a new snapshot.
func (s *VolumeSnapshotStore) Insert(ctx context.Context, snap *domain.VolumeSnapshot) error {
	if snap == nil || snap.CollectionSymbol == "" {
		return storage.ErrInvalidInput
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO volume_snapshots (collection_symbol, sales, volume, taken_at)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	if err := batch.Append(snap.CollectionSymbol, uint64(snap.Sales), snap.Volume, uint64(snap.TakenAt)); err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByCollection retrieves all snapshots for a collection, ordered by
// taken_at ASC.
func (s *VolumeSnapshotStore) GetByCollection(ctx context.Context, symbol string) ([]*domain.VolumeSnapshot, error) {
	query := `
		SELECT collection_symbol, sales, volume, taken_at
		FROM volume_snapshots
		WHERE collection_symbol = ?
		ORDER BY taken_at ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("query snapshots by collection: %w", err)
	}
	defer rows.Close()

	var snaps []*domain.VolumeSnapshot
	for rows.Next() {
		var snap domain.VolumeSnapshot
		var sales, takenAt uint64

		if err := rows.Scan(&snap.CollectionSymbol, &sales, &snap.Volume, &takenAt); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		snap.Sales = int64(sales)
		snap.TakenAt = int64(takenAt)
		snaps = append(snaps, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return snaps, nil
}
