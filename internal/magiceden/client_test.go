package magiceden

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
)

// makeActivities builds n buyNow activities with distinct signatures.
func makeActivities(n, start int) []Activity {
	acts := make([]Activity, n)
	for i := range acts {
		acts[i] = Activity{
			Type:      ActivityBuyNow,
			Signature: fmt.Sprintf("sig-%d", start+i),
			Buyer:     "buyer",
			Seller:    "seller",
			Price:     1.5,
			BlockTime: 1700000000,
		}
	}
	return acts
}

func TestCollectionActivities_StopsAtLimit(t *testing.T) {
	var requests atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		// Always a full page: only the limit should stop pagination.
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(makeActivities(limit, 0))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithPageDelay(0))

	acts, err := client.CollectionActivities(context.Background(), "vibe_knights", 150)
	if err != nil {
		t.Fatalf("CollectionActivities: %v", err)
	}

	if got := requests.Load(); got != 1 {
		t.Errorf("expected 1 page request, got %d", got)
	}
	if len(acts) != 150 {
		t.Errorf("expected 150 activities, got %d", len(acts))
	}
}

func TestCollectionActivities_StopsOnShortPage(t *testing.T) {
	var requests atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		w.Header().Set("Content-Type", "application/json")
		if n == 1 {
			json.NewEncoder(w).Encode(makeActivities(500, offset))
			return
		}
		// Second page is short: source exhausted.
		json.NewEncoder(w).Encode(makeActivities(20, offset))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithPageDelay(0))

	acts, err := client.CollectionActivities(context.Background(), "vibe_knights", 10000)
	if err != nil {
		t.Fatalf("CollectionActivities: %v", err)
	}

	if got := requests.Load(); got != 2 {
		t.Errorf("expected 2 page requests, got %d", got)
	}
	if len(acts) != 520 {
		t.Errorf("expected 520 activities, got %d", len(acts))
	}
	if acts[500].Signature != "sig-500" {
		t.Errorf("expected second page to continue at offset 500, got %s", acts[500].Signature)
	}
}

func TestCollectionActivities_PartialSuccessOnPageFailure(t *testing.T) {
	var requests atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) > 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(makeActivities(200, 0))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithPageSize(200), WithPageDelay(0))

	acts, err := client.CollectionActivities(context.Background(), "vibe_knights", 10000)
	if err != nil {
		t.Fatalf("expected partial success, got error: %v", err)
	}
	if len(acts) != 200 {
		t.Errorf("expected the 200 accumulated activities, got %d", len(acts))
	}
}

func TestCollectionActivities_FailsWhenNoPageSucceeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithPageDelay(0))

	_, err := client.CollectionActivities(context.Background(), "vibe_knights", 10000)
	if err == nil {
		t.Fatal("expected error when zero pages succeeded")
	}
}

func TestCollectionActivities_MalformedBodyIsHardFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithPageDelay(0))

	_, err := client.CollectionActivities(context.Background(), "vibe_knights", 10000)
	if err == nil {
		t.Fatal("expected error for malformed body")
	}
}

func TestCollectionActivities_EmptyCollection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithPageDelay(0))

	acts, err := client.CollectionActivities(context.Background(), "vibe_knights", 10000)
	if err != nil {
		t.Fatalf("CollectionActivities: %v", err)
	}
	if len(acts) != 0 {
		t.Errorf("expected no activities, got %d", len(acts))
	}
}

func TestWalletActivities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wallets/SomeWallet/activities" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "500" {
			t.Errorf("expected limit=500, got %s", got)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(makeActivities(3, 0))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	acts, err := client.WalletActivities(context.Background(), "SomeWallet", 500)
	if err != nil {
		t.Fatalf("WalletActivities: %v", err)
	}
	if len(acts) != 3 {
		t.Errorf("expected 3 activities, got %d", len(acts))
	}
}

func TestIsRealizedTrade(t *testing.T) {
	realized := map[string]bool{
		ActivityBuyNow:    true,
		ActivityAcceptBid: true,
		ActivityList:      false,
		ActivityDelist:    false,
		ActivityBid:       false,
		ActivityCancelBid: false,
		"unknown":         false,
	}

	for typ, want := range realized {
		a := Activity{Type: typ}
		if got := a.IsRealizedTrade(); got != want {
			t.Errorf("IsRealizedTrade(%s) = %v, want %v", typ, got, want)
		}
	}
}
