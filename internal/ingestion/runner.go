package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"knights-market/internal/domain"
	"knights-market/internal/storage"
)

// DefaultFetchLimit caps how many activities a single sync run pulls from
// the marketplace.
const DefaultFetchLimit = 10000

// SyncRunner orchestrates a single sync run: fetch collection activities,
// transform them into sale records, and upsert them into the sale store.
type SyncRunner struct {
	source        ActivitySource
	saleStore     storage.SaleStore
	snapshotStore storage.VolumeSnapshotStore
	collection    string
	fetchLimit    int
	logger        *log.Logger
	now           func() time.Time
}

// SyncRunnerOptions contains configuration for creating a SyncRunner.
type SyncRunnerOptions struct {
	Source        ActivitySource
	SaleStore     storage.SaleStore
	SnapshotStore storage.VolumeSnapshotStore // optional; snapshots skipped when nil
	Collection    string
	FetchLimit    int              // Default: 10000
	Logger        *log.Logger      // Default: log.Default()
	Now           func() time.Time // Default: time.Now
}

// NewSyncRunner creates a new sync runner.
func NewSyncRunner(opts SyncRunnerOptions) *SyncRunner {
	fetchLimit := opts.FetchLimit
	if fetchLimit <= 0 {
		fetchLimit = DefaultFetchLimit
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &SyncRunner{
		source:        opts.Source,
		saleStore:     opts.SaleStore,
		snapshotStore: opts.SnapshotStore,
		collection:    opts.Collection,
		fetchLimit:    fetchLimit,
		logger:        logger,
		now:           now,
	}
}

// SyncResult summarizes a completed sync run.
type SyncResult struct {
	ActivitiesFetched int
	SalesUpserted     int
}

// Run executes one sync pass. Duplicate sales are skipped by the store, so
// repeated runs over overlapping activity windows are safe.
func (r *SyncRunner) Run(ctx context.Context) (*SyncResult, error) {
	if r.collection == "" {
		return nil, errors.New("sync runner: collection symbol is required")
	}

	r.logger.Printf("[sync] Fetching activities for %s (limit %d)", r.collection, r.fetchLimit)

	activities, err := r.source.CollectionActivities(ctx, r.collection, r.fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch activities for %s: %w", r.collection, err)
	}

	sales := Transform(activities, r.collection, r.now().UTC())
	result := &SyncResult{ActivitiesFetched: len(activities)}

	if len(sales) == 0 {
		r.logger.Printf("[sync] No realized trades among %d activities for %s", len(activities), r.collection)
		return result, nil
	}

	upserted, err := r.saleStore.Upsert(ctx, sales)
	result.SalesUpserted = upserted
	if err != nil {
		return result, fmt.Errorf("upsert %d sales for %s: %w", len(sales), r.collection, err)
	}

	r.logger.Printf("[sync] Upserted %d sales from %d activities for %s", upserted, len(activities), r.collection)

	r.writeSnapshot(ctx)

	return result, nil
}

// writeSnapshot records collection-level volume totals after a successful
// run. Snapshot failures are logged but never fail the sync.
func (r *SyncRunner) writeSnapshot(ctx context.Context) {
	if r.snapshotStore == nil {
		return
	}

	sales, err := r.saleStore.GetSince(ctx, time.Time{})
	if err != nil {
		r.logger.Printf("[sync] Error loading sales for snapshot: %v", err)
		return
	}

	var volume float64
	for _, sale := range sales {
		volume += sale.Price
	}

	snapshot := &domain.VolumeSnapshot{
		CollectionSymbol: r.collection,
		Sales:            int64(len(sales)),
		Volume:           volume,
		TakenAt:          r.now().UTC().UnixMilli(),
	}

	if err := r.snapshotStore.Insert(ctx, snapshot); err != nil {
		r.logger.Printf("[sync] Error writing volume snapshot: %v", err)
		return
	}

	r.logger.Printf("[sync] Volume snapshot: %d sales, total volume %.4f", snapshot.Sales, snapshot.Volume)
}
