package ingestion

import (
	"time"

	"knights-market/internal/domain"
	"knights-market/internal/magiceden"
	"knights-market/internal/sanitize"
)

// Transform converts raw marketplace activities into sale records ready for
// storage. Activities that are not realized trades, or that lack a buyer or
// signature, are dropped. All string fields are sanitized to printable ASCII
// before they reach storage.
func Transform(activities []*magiceden.Activity, collectionSymbol string, now time.Time) []*domain.SaleRecord {
	sales := make([]*domain.SaleRecord, 0, len(activities))

	for _, activity := range activities {
		if activity == nil || !activity.IsRealizedTrade() {
			continue
		}

		signature := sanitize.String(activity.Signature)
		buyer := sanitize.String(activity.Buyer)
		if signature == "" || buyer == "" {
			continue
		}

		blockTime := now
		if activity.BlockTime > 0 {
			blockTime = time.Unix(activity.BlockTime, 0).UTC()
		}

		price := activity.Price
		if price < 0 {
			price = 0
		}

		sales = append(sales, &domain.SaleRecord{
			Signature:        signature,
			CollectionSymbol: sanitize.String(collectionSymbol),
			Buyer:            buyer,
			Seller:           sanitize.String(activity.Seller),
			Price:            price,
			BlockTime:        blockTime,
			Source:           domain.SourceMagicEden,
		})
	}

	return sales
}
