// Package main runs one sync pass from the command line: fetch collection
// activities, transform them into sale records, and upsert them into
// PostgreSQL. Intended for cron jobs and manual backfills; the HTTP trigger
// in cmd/server does the same work behind auth.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"knights-market/internal/ingestion"
	"knights-market/internal/magiceden"
	"knights-market/internal/storage"
	chstore "knights-market/internal/storage/clickhouse"
	"knights-market/internal/storage/migrations"
	pgstore "knights-market/internal/storage/postgres"
)

func main() {
	loadEnvFile()

	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional, enables volume snapshots)")
	marketplaceURL := flag.String("marketplace-url", envOr("MAGICEDEN_BASE_URL", magiceden.DefaultBaseURL), "Magic Eden API base URL")
	collection := flag.String("collection", envOr("COLLECTION_SYMBOL", "vibe_knights"), "Marketplace collection symbol")
	fetchLimit := flag.Int("fetch-limit", ingestion.DefaultFetchLimit, "Max activities fetched")
	timeout := flag.Duration("timeout", 10*time.Minute, "Overall run timeout")

	flag.Parse()

	logger := log.New(os.Stdout, "[sync] ", log.LstdFlags)

	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn (or POSTGRES_DSN) is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	var snapshotStore storage.VolumeSnapshotStore
	if *clickhouseDSN != "" {
		chConn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("Failed to connect to clickhouse: %v", err)
		}
		defer chConn.Close()
		snapshotStore = chstore.NewVolumeSnapshotStore(chConn)
	}

	runner := ingestion.NewSyncRunner(ingestion.SyncRunnerOptions{
		Source:        magiceden.NewClient(magiceden.WithBaseURL(*marketplaceURL)),
		SaleStore:     pgstore.NewSaleStore(pool),
		SnapshotStore: snapshotStore,
		Collection:    *collection,
		FetchLimit:    *fetchLimit,
		Logger:        logger,
	})

	start := time.Now()
	result, err := runner.Run(ctx)
	if err != nil {
		logger.Fatalf("Sync failed: %v", err)
	}

	fmt.Printf("Synced %d sales from %d activities in %v\n",
		result.SalesUpserted, result.ActivitiesFetched, time.Since(start).Round(time.Millisecond))
}

// envOr returns the environment variable value or a fallback default.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
