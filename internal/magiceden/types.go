package magiceden

// Activity type strings as returned by the Magic Eden v2 API.
const (
	ActivityBuyNow    = "buyNow"
	ActivityAcceptBid = "acceptBid"
	ActivityList      = "list"
	ActivityDelist    = "delist"
	ActivityBid       = "bid"
	ActivityCancelBid = "cancelBid"
)

// Activity is one raw activity record from the marketplace API.
// Every field is optional on the wire; missing numbers decode to zero and
// missing strings to empty. Nothing here is trusted until it passes the
// ingestion transformer.
type Activity struct {
	Type      string  `json:"type"`
	Signature string  `json:"signature"`
	Buyer     string  `json:"buyer"`
	Seller    string  `json:"seller"`
	Price     float64 `json:"price"`
	BlockTime int64   `json:"blockTime"` // Unix seconds, 0 when absent
}

// IsRealizedTrade reports whether the activity represents a completed
// ownership transfer with payment, as opposed to intent-only activity
// (listing, bidding, cancellation).
func (a *Activity) IsRealizedTrade() bool {
	return a.Type == ActivityBuyNow || a.Type == ActivityAcceptBid
}
