package domain

import "fmt"

// Timeframe selects the lower bound of the aggregation window.
// All windows are open-ended up to now.
type Timeframe string

// Supported timeframes.
const (
	TimeframeDaily   Timeframe = "daily"   // now - 24h
	TimeframeMonthly Timeframe = "monthly" // now - 30d
	TimeframeAllTime Timeframe = "allTime" // no lower bound
)

// ParseTimeframe parses a query-string timeframe value.
// An empty value defaults to allTime.
func ParseTimeframe(s string) (Timeframe, error) {
	switch s {
	case "":
		return TimeframeAllTime, nil
	case string(TimeframeDaily):
		return TimeframeDaily, nil
	case string(TimeframeMonthly):
		return TimeframeMonthly, nil
	case string(TimeframeAllTime):
		return TimeframeAllTime, nil
	default:
		return "", fmt.Errorf("unknown timeframe %q", s)
	}
}

// CreditPolicy determines how a trade's price is attributed to the buyer
// and seller addresses when aggregating volume.
type CreditPolicy string

const (
	// CreditFullCredit credits both sides the full trade price.
	// Volume measures activity touched, each trade is double-counted.
	CreditFullCredit CreditPolicy = "FULL_CREDIT"

	// CreditEvenSplitWithRoyalty credits each side half the trade price and
	// reports donated/burned royalty carve-outs per entry.
	CreditEvenSplitWithRoyalty CreditPolicy = "EVEN_SPLIT_ROYALTY"
)

// Royalty carve-out fractions for the even-split policy (0.345% each,
// 0.69% total). Display figures, not a separate ledger.
const (
	RoyaltyDonatedFraction = 0.00345
	RoyaltyBurnedFraction  = 0.00345
)

// LeaderboardEntry is one ranked row of a volume leaderboard.
// Entries are recomputed per request and never persisted.
type LeaderboardEntry struct {
	Rank    int     `json:"rank"`
	Address string  `json:"address"`
	Avatar  string  `json:"avatar"`
	Volume  float64 `json:"volume"`
	Donated float64 `json:"donated,omitempty"`
	Burned  float64 `json:"burned,omitempty"`
}

// ParseCreditPolicy parses a configuration value into a credit policy.
// An empty value defaults to full credit.
func ParseCreditPolicy(s string) (CreditPolicy, error) {
	switch s {
	case "", "full":
		return CreditFullCredit, nil
	case "even-split":
		return CreditEvenSplitWithRoyalty, nil
	default:
		return "", fmt.Errorf("unknown credit policy %q (want full or even-split)", s)
	}
}

// VolumeSnapshot is a collection-level volume total captured after a sync
// run, kept as an append-only series for the treasury page.
type VolumeSnapshot struct {
	CollectionSymbol string  `json:"collection_symbol"`
	Sales            int64   `json:"sales"`
	Volume           float64 `json:"volume"`
	TakenAt          int64   `json:"taken_at"` // Unix timestamp in milliseconds
}
