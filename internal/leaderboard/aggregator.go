// Package leaderboard computes ranked trading-volume leaderboards from
// persisted sales. Entries are recomputed from storage on every call;
// nothing is cached or persisted here.
package leaderboard

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"knights-market/internal/domain"
	"knights-market/internal/storage"
)

// Top50 is the leaderboard size after truncation.
const Top50 = 50

// Rounding precision applied once at output time, not during accumulation.
const (
	volumePrecision  = 4
	royaltyPrecision = 5
)

// Aggregator computes leaderboards from the sale store.
type Aggregator struct {
	saleStore storage.SaleStore
	policy    domain.CreditPolicy
	now       func() time.Time
}

// Options for creating an Aggregator.
type Options struct {
	SaleStore storage.SaleStore
	Policy    domain.CreditPolicy
	Now       func() time.Time // defaults to time.Now
}

// New creates a new Aggregator.
func New(opts Options) *Aggregator {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	policy := opts.Policy
	if policy == "" {
		policy = domain.CreditFullCredit
	}

	return &Aggregator{
		saleStore: opts.SaleStore,
		policy:    policy,
		now:       now,
	}
}

// Compute builds the ranked leaderboard for a timeframe, truncated to the
// top 50 entries. Ranks are dense, 1-based, and assigned over the full
// sorted list before truncation.
func (a *Aggregator) Compute(ctx context.Context, timeframe domain.Timeframe) ([]*domain.LeaderboardEntry, error) {
	since := a.windowStart(timeframe)

	sales, err := a.saleStore.GetSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load sales for %s leaderboard: %w", timeframe, err)
	}

	// Single pass: address -> credited volume, first-seen order retained
	// so the stable sort has a deterministic tie order.
	volumes := make(map[string]float64)
	var order []string
	credit := func(address string, amount float64) {
		if address == "" {
			return
		}
		if _, seen := volumes[address]; !seen {
			order = append(order, address)
		}
		volumes[address] += amount
	}

	for _, sale := range sales {
		switch a.policy {
		case domain.CreditEvenSplitWithRoyalty:
			credit(sale.Buyer, sale.Price/2)
			credit(sale.Seller, sale.Price/2)
		default:
			credit(sale.Buyer, sale.Price)
			credit(sale.Seller, sale.Price)
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return volumes[order[i]] > volumes[order[j]]
	})

	entries := make([]*domain.LeaderboardEntry, 0, len(order))
	for rank, address := range order {
		volume := volumes[address]

		entry := &domain.LeaderboardEntry{
			Rank:    rank + 1,
			Address: address,
			Avatar:  avatar(address),
			Volume:  round(volume, volumePrecision),
		}
		if a.policy == domain.CreditEvenSplitWithRoyalty {
			entry.Donated = round(volume*domain.RoyaltyDonatedFraction, royaltyPrecision)
			entry.Burned = round(volume*domain.RoyaltyBurnedFraction, royaltyPrecision)
		}
		entries = append(entries, entry)
	}

	if len(entries) > Top50 {
		entries = entries[:Top50]
	}
	return entries, nil
}

// windowStart returns the lower block_time bound for a timeframe.
// All windows are open-ended up to now; allTime has no lower bound.
func (a *Aggregator) windowStart(timeframe domain.Timeframe) time.Time {
	switch timeframe {
	case domain.TimeframeDaily:
		return a.now().Add(-24 * time.Hour)
	case domain.TimeframeMonthly:
		return a.now().Add(-30 * 24 * time.Hour)
	default:
		return time.Time{}
	}
}

// avatar derives a display token from an address. No semantic meaning.
func avatar(address string) string {
	if len(address) < 2 {
		return strings.ToUpper(address)
	}
	return strings.ToUpper(address[:2])
}

// round rounds half away from zero to the given number of decimals.
func round(v float64, decimals int) float64 {
	shift := math.Pow(10, float64(decimals))
	return math.Round(v*shift) / shift
}
