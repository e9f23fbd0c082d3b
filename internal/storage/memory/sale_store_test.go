package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"knights-market/internal/domain"
	"knights-market/internal/storage"
)

func makeSale(signature string, blockTime time.Time, price float64) *domain.SaleRecord {
	return &domain.SaleRecord{
		Signature:        signature,
		CollectionSymbol: "vibe_knights",
		Buyer:            "Buyer" + signature,
		Seller:           "Seller" + signature,
		Price:            price,
		BlockTime:        blockTime,
		Source:           domain.SourceMagicEden,
	}
}

func TestSaleStore_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewSaleStore()

	now := time.Now().UTC().Truncate(time.Second)
	sales := []*domain.SaleRecord{
		makeSale("sig1", now.Add(-1*time.Hour), 10),
		makeSale("sig2", now.Add(-2*time.Hour), 20),
	}

	count, err := store.Upsert(ctx, sales)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 submitted, got %d", count)
	}

	sale, err := store.GetBySignature(ctx, "sig1")
	if err != nil {
		t.Fatalf("GetBySignature: %v", err)
	}
	if sale.Price != 10 {
		t.Errorf("expected price 10, got %v", sale.Price)
	}
}

func TestSaleStore_UpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewSaleStore()

	now := time.Now().UTC()
	sales := []*domain.SaleRecord{
		makeSale("sig1", now, 10),
		makeSale("sig2", now, 20),
	}

	if _, err := store.Upsert(ctx, sales); err != nil {
		t.Fatalf("first Upsert: %v", err)
	}
	// Re-ingesting the same set must not error and must not duplicate.
	if _, err := store.Upsert(ctx, sales); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	total, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 rows after re-ingestion, got %d", total)
	}
}

func TestSaleStore_DuplicateKeepsFirstWrite(t *testing.T) {
	ctx := context.Background()
	store := NewSaleStore()

	now := time.Now().UTC()
	if _, err := store.Upsert(ctx, []*domain.SaleRecord{makeSale("sig1", now, 10)}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	changed := makeSale("sig1", now, 999)
	if _, err := store.Upsert(ctx, []*domain.SaleRecord{changed}); err != nil {
		t.Fatalf("Upsert duplicate: %v", err)
	}

	sale, err := store.GetBySignature(ctx, "sig1")
	if err != nil {
		t.Fatalf("GetBySignature: %v", err)
	}
	if sale.Price != 10 {
		t.Errorf("expected first write to win, got price %v", sale.Price)
	}
}

func TestSaleStore_GetSince(t *testing.T) {
	ctx := context.Background()
	store := NewSaleStore()

	now := time.Now().UTC()
	sales := []*domain.SaleRecord{
		makeSale("old", now.Add(-48*time.Hour), 1),
		makeSale("recent", now.Add(-1*time.Hour), 2),
		makeSale("newest", now, 3),
	}
	if _, err := store.Upsert(ctx, sales); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := store.GetSince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("GetSince: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 sales in window, got %d", len(got))
	}
	// Newest first.
	if got[0].Signature != "newest" || got[1].Signature != "recent" {
		t.Errorf("unexpected order: %s, %s", got[0].Signature, got[1].Signature)
	}

	all, err := store.GetSince(ctx, time.Time{})
	if err != nil {
		t.Fatalf("GetSince zero: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected all 3 sales for zero since, got %d", len(all))
	}
}

func TestSaleStore_GetBySignatureNotFound(t *testing.T) {
	store := NewSaleStore()

	_, err := store.GetBySignature(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaleStore_UpsertInvalidInput(t *testing.T) {
	store := NewSaleStore()

	_, err := store.Upsert(context.Background(), []*domain.SaleRecord{{Signature: ""}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
