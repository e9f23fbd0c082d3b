package domain

import "time"

// Marketplace source tags.
const (
	SourceMagicEden = "magiceden"
)

// SaleRecord represents a realized trade persisted to the sales table.
// The transaction signature is the natural key: source-chain transactions
// are immutable, so re-ingesting the same signature is a no-op.
type SaleRecord struct {
	Signature        string    // Solana transaction signature, unique
	CollectionSymbol string    // marketplace collection symbol
	Buyer            string    // buyer wallet address
	Seller           string    // seller wallet address, may be empty
	Price            float64   // trade price in SOL
	BlockTime        time.Time // on-chain block time, ingestion time if the source omitted it
	Source           string    // origin marketplace tag
	CreatedAt        time.Time // record creation timestamp, set by the store
}
