package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"knights-market/internal/domain"
	"knights-market/internal/storage"
)

// UpsertBatchSize bounds how many sales go into a single upsert statement.
const UpsertBatchSize = 100

// SaleStore implements storage.SaleStore using PostgreSQL.
type SaleStore struct {
	pool *Pool
}

// NewSaleStore creates a new SaleStore.
func NewSaleStore(pool *Pool) *SaleStore {
	return &SaleStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SaleStore = (*SaleStore)(nil)

// Upsert persists sales in sequential batches of UpsertBatchSize.
// Duplicate signatures are ignored: source-chain transactions are
// immutable, so ON CONFLICT DO NOTHING makes re-ingestion over
// overlapping ranges a safe no-op. A batch failure aborts the remaining
// batches; earlier batches stay committed and their count is returned
// with the error.
func (s *SaleStore) Upsert(ctx context.Context, sales []*domain.SaleRecord) (int, error) {
	submitted := 0

	for start := 0; start < len(sales); start += UpsertBatchSize {
		end := start + UpsertBatchSize
		if end > len(sales) {
			end = len(sales)
		}

		if err := s.upsertBatch(ctx, sales[start:end]); err != nil {
			return submitted, fmt.Errorf("upsert sales batch at offset %d: %w", start, err)
		}
		submitted += end - start
	}

	return submitted, nil
}

// upsertBatch submits one batch inside a transaction.
func (s *SaleStore) upsertBatch(ctx context.Context, sales []*domain.SaleRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO sales (
			signature, collection_symbol, buyer, seller, price, block_time, source
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
		ON CONFLICT (signature) DO NOTHING
	`

	for _, sale := range sales {
		if sale == nil || sale.Signature == "" {
			return storage.ErrInvalidInput
		}

		_, err := tx.Exec(ctx, query,
			sale.Signature, sale.CollectionSymbol, sale.Buyer, sale.Seller,
			sale.Price, sale.BlockTime, sale.Source,
		)
		if err != nil {
			return fmt.Errorf("insert sale %s: %w", sale.Signature, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetSince retrieves sales with block_time >= since, newest first.
// A zero since returns all sales.
func (s *SaleStore) GetSince(ctx context.Context, since time.Time) ([]*domain.SaleRecord, error) {
	query := `
		SELECT signature, collection_symbol, buyer, seller, price, block_time, source, created_at
		FROM sales
		WHERE block_time >= $1
		ORDER BY block_time DESC, signature ASC
	`

	rows, err := s.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("get sales since %v: %w", since, err)
	}
	defer rows.Close()

	return scanSaleRecords(rows)
}

// GetBySignature retrieves a sale by its signature. Returns ErrNotFound
// if not exists.
func (s *SaleStore) GetBySignature(ctx context.Context, signature string) (*domain.SaleRecord, error) {
	query := `
		SELECT signature, collection_symbol, buyer, seller, price, block_time, source, created_at
		FROM sales
		WHERE signature = $1
	`

	row := s.pool.QueryRow(ctx, query, signature)
	sale, err := scanSaleRecord(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get sale by signature: %w", err)
	}
	return sale, nil
}

// Count returns the number of persisted sales.
func (s *SaleStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sales`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count sales: %w", err)
	}
	return count, nil
}

// scanSaleRecord scans a single row into a SaleRecord.
func scanSaleRecord(row pgx.Row) (*domain.SaleRecord, error) {
	var sale domain.SaleRecord

	err := row.Scan(
		&sale.Signature, &sale.CollectionSymbol, &sale.Buyer, &sale.Seller,
		&sale.Price, &sale.BlockTime, &sale.Source, &sale.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &sale, nil
}

// scanSaleRecords scans multiple rows into a slice of SaleRecord.
func scanSaleRecords(rows pgx.Rows) ([]*domain.SaleRecord, error) {
	var sales []*domain.SaleRecord

	for rows.Next() {
		var sale domain.SaleRecord

		err := rows.Scan(
			&sale.Signature, &sale.CollectionSymbol, &sale.Buyer, &sale.Seller,
			&sale.Price, &sale.BlockTime, &sale.Source, &sale.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan sale row: %w", err)
		}

		sales = append(sales, &sale)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sale rows: %w", err)
	}

	return sales, nil
}
