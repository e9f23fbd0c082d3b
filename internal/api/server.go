// Package api exposes the HTTP surface: the authenticated sync trigger,
// leaderboard and wallet-volume reads, and operational endpoints.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mr-tron/base58"

	"knights-market/internal/domain"
	"knights-market/internal/ingestion"
	"knights-market/internal/magiceden"
	"knights-market/internal/observability"
	"knights-market/internal/storage"
)

// WalletFetchLimit caps how many wallet activities the volume endpoint
// reads from the marketplace.
const WalletFetchLimit = 500

// Syncer runs one sync pass over the collection.
type Syncer interface {
	Run(ctx context.Context) (*ingestion.SyncResult, error)
}

// LeaderboardComputer builds the ranked leaderboard for a timeframe.
type LeaderboardComputer interface {
	Compute(ctx context.Context, timeframe domain.Timeframe) ([]*domain.LeaderboardEntry, error)
}

// WalletActivitySource lists marketplace activities for a single wallet.
type WalletActivitySource interface {
	WalletActivities(ctx context.Context, address string, limit int) ([]*magiceden.Activity, error)
}

// Server handles HTTP requests.
type Server struct {
	syncer        Syncer
	leaderboard   LeaderboardComputer
	walletSource  WalletActivitySource
	snapshotStore storage.VolumeSnapshotStore
	collection    string
	syncSecret    string
	logger        *log.Logger
}

// Options contains configuration for creating a Server.
type Options struct {
	Syncer        Syncer
	Leaderboard   LeaderboardComputer
	WalletSource  WalletActivitySource
	SnapshotStore storage.VolumeSnapshotStore // optional
	Collection    string
	SyncSecret    string
	Logger        *log.Logger // Default: log.Default()
}

// New creates a new Server.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Server{
		syncer:        opts.Syncer,
		leaderboard:   opts.Leaderboard,
		walletSource:  opts.WalletSource,
		snapshotStore: opts.SnapshotStore,
		collection:    opts.Collection,
		syncSecret:    opts.SyncSecret,
		logger:        logger,
	}
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/sync", s.handleSync)
	mux.HandleFunc("/api/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("/api/volume", s.handleVolume)
	mux.HandleFunc("/api/snapshots", s.handleSnapshots)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())

	return mux
}

// handleSync triggers a sync run. The shared-secret check happens before
// any collaborator is touched.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	start := time.Now()
	result, err := s.syncer.Run(r.Context())
	if err != nil {
		s.logger.Printf("[api] Sync failed: %v", err)
		observability.RecordSyncRun("error", time.Since(start).Seconds())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	observability.RecordSyncRun("success", time.Since(start).Seconds())
	observability.RecordSyncCounts(result.ActivitiesFetched, result.SalesUpserted)
	observability.MarkSyncSuccess(time.Now().Unix())

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Synced %d sales from %d activities", result.SalesUpserted, result.ActivitiesFetched),
	})
}

// authorized checks the Bearer token against the configured sync secret.
func (s *Server) authorized(r *http.Request) bool {
	if s.syncSecret == "" {
		return false
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.syncSecret)) == 1
}

// handleLeaderboard returns the ranked leaderboard for a timeframe.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	timeframe, err := domain.ParseTimeframe(r.URL.Query().Get("timeframe"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	start := time.Now()
	entries, err := s.leaderboard.Compute(r.Context(), timeframe)
	observability.RecordRequestDuration("leaderboard", time.Since(start).Seconds())
	if err != nil {
		s.logger.Printf("[api] Leaderboard failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Failed to fetch leaderboard",
			"details": err.Error(),
		})
		return
	}
	observability.RecordLeaderboardRequest(string(timeframe))

	// Entries are truncated and ranked; safe to cache briefly at the edge.
	w.Header().Set("Cache-Control", "public, s-maxage=60, stale-while-revalidate=60")
	writeJSON(w, http.StatusOK, entries)
}

// handleVolume returns the realized-trade volume for a single wallet.
func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	address := r.URL.Query().Get("address")
	if !validWalletAddress(address) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid wallet address"})
		return
	}

	start := time.Now()
	activities, err := s.walletSource.WalletActivities(r.Context(), address, WalletFetchLimit)
	observability.RecordRequestDuration("volume", time.Since(start).Seconds())
	if err != nil {
		s.logger.Printf("[api] Wallet volume failed for %s: %v", address, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch wallet volume"})
		return
	}
	observability.RecordVolumeRequest()

	var volume float64
	for _, activity := range activities {
		if activity.IsRealizedTrade() {
			volume += activity.Price
		}
	}

	writeJSON(w, http.StatusOK, map[string]float64{"volume": volume})
}

// validWalletAddress reports whether the address decodes to a 32-byte
// Solana public key.
func validWalletAddress(address string) bool {
	if address == "" {
		return false
	}
	decoded, err := base58.Decode(address)
	return err == nil && len(decoded) == 32
}

// handleSnapshots returns the volume-snapshot history for the collection.
// Serves an empty list when no snapshot store is wired.
func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	snapshots := []*domain.VolumeSnapshot{}
	if s.snapshotStore != nil {
		var err error
		snapshots, err = s.snapshotStore.GetByCollection(r.Context(), s.collection)
		if err != nil {
			s.logger.Printf("[api] Snapshots failed: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch snapshots"})
			return
		}
		if snapshots == nil {
			snapshots = []*domain.VolumeSnapshot{}
		}
	}

	writeJSON(w, http.StatusOK, snapshots)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
