// Package main runs the marketplace sync and leaderboard HTTP service:
// - POST /api/sync: authenticated sync trigger (fetch, transform, upsert)
// - GET /api/leaderboard, /api/volume, /api/snapshots: read endpoints
// - /health, /metrics: operational endpoints
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"knights-market/internal/api"
	"knights-market/internal/domain"
	"knights-market/internal/ingestion"
	"knights-market/internal/leaderboard"
	"knights-market/internal/magiceden"
	"knights-market/internal/storage"
	chstore "knights-market/internal/storage/clickhouse"
	"knights-market/internal/storage/memory"
	"knights-market/internal/storage/migrations"
	pgstore "knights-market/internal/storage/postgres"
)

// allStores holds all storage implementations.
type allStores struct {
	saleStore     storage.SaleStore
	snapshotStore storage.VolumeSnapshotStore // nil when ClickHouse is not configured
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	addr := flag.String("addr", envOr("SERVER_ADDR", ":8080"), "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional, enables volume snapshots)")
	marketplaceURL := flag.String("marketplace-url", envOr("MAGICEDEN_BASE_URL", magiceden.DefaultBaseURL), "Magic Eden API base URL")
	collection := flag.String("collection", envOr("COLLECTION_SYMBOL", "vibe_knights"), "Marketplace collection symbol")
	syncSecret := flag.String("sync-secret", os.Getenv("SYNC_SECRET_KEY"), "Shared secret for the sync trigger")
	fetchLimit := flag.Int("fetch-limit", ingestion.DefaultFetchLimit, "Max activities fetched per sync run")
	creditPolicy := flag.String("credit-policy", envOr("CREDIT_POLICY", "full"), "Volume credit policy: full or even-split")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if *syncSecret == "" {
		logger.Fatal("--sync-secret (or SYNC_SECRET_KEY) is required")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	policy, err := domain.ParseCreditPolicy(*creditPolicy)
	if err != nil {
		logger.Fatalf("Invalid --credit-policy: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create stores
	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Wire components
	client := magiceden.NewClient(magiceden.WithBaseURL(*marketplaceURL))

	runner := ingestion.NewSyncRunner(ingestion.SyncRunnerOptions{
		Source:        client,
		SaleStore:     stores.saleStore,
		SnapshotStore: stores.snapshotStore,
		Collection:    *collection,
		FetchLimit:    *fetchLimit,
		Logger:        log.New(os.Stdout, "[sync] ", log.LstdFlags),
	})

	aggregator := leaderboard.New(leaderboard.Options{
		SaleStore: stores.saleStore,
		Policy:    policy,
	})

	server := api.New(api.Options{
		Syncer:        runner,
		Leaderboard:   aggregator,
		WalletSource:  client,
		SnapshotStore: stores.snapshotStore,
		Collection:    *collection,
		SyncSecret:    *syncSecret,
		Logger:        logger,
	})

	httpServer := &http.Server{
		Addr:         *addr,
		Handler:      server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown error: %v", err)
		}
		cancel()
	}()

	logger.Printf("Serving %s leaderboard on %s (policy %s)", *collection, *addr, policy)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("HTTP server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates all required stores and runs migrations.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			saleStore:     memory.NewSaleStore(),
			snapshotStore: memory.NewVolumeSnapshotStore(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	stores := &allStores{saleStore: pgstore.NewSaleStore(pool)}
	cleanup := func() { pool.Close() }

	// ClickHouse (optional analytics sink)
	if clickhouseDSN != "" {
		chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		stores.snapshotStore = chstore.NewVolumeSnapshotStore(chConn)
		cleanup = func() {
			chConn.Close()
			pool.Close()
		}
	}

	return stores, cleanup, nil
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
