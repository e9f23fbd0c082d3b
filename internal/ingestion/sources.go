package ingestion

import (
	"context"

	"knights-market/internal/magiceden"
)

// ActivitySource provides raw marketplace activities from external sources.
type ActivitySource interface {
	// CollectionActivities returns up to limit activities for a collection,
	// newest first. A non-empty result alongside a nil error may still be
	// partial when the upstream failed mid-pagination.
	CollectionActivities(ctx context.Context, symbol string, limit int) ([]*magiceden.Activity, error)
}
