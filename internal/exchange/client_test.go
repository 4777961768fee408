package exchange

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ReNothingg/giftsniper/pkg/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestDryRunPlaceOfferReturnsDeterministicID(t *testing.T) {
	t.Parallel()
	c := NewClient("http://unused.invalid", "token", nil, time.Second, true, testLogger())

	id, err := c.PlaceOffer(context.Background(), "nft-1", decimal.NewFromFloat(0.5), 7)
	if err != nil {
		t.Fatalf("PlaceOffer: %v", err)
	}
	if id != "dry-offer-nft-1" {
		t.Errorf("dry-run offer id = %q, want dry-offer-nft-1", id)
	}
}

func TestDryRunMutationsNeverHitNetwork(t *testing.T) {
	t.Parallel()
	c := NewClient("http://127.0.0.1:1", "token", nil, time.Second, true, testLogger())

	if err := c.CancelOffer(context.Background(), "offer-1"); err != nil {
		t.Errorf("CancelOffer: %v", err)
	}
	if _, err := c.CreateListing(context.Background(), "nft-1", decimal.NewFromFloat(1), 7); err != nil {
		t.Errorf("CreateListing: %v", err)
	}
	if err := c.UpdateListing(context.Background(), "listing-1", decimal.NewFromFloat(1.1)); err != nil {
		t.Errorf("UpdateListing: %v", err)
	}
}

func TestFetchLatestListingsParsesArray(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-request-id") == "" {
			t.Errorf("expected x-request-id header on every request")
		}
		if r.Header.Get("authorization") != "Bearer token" {
			t.Errorf("authorization header = %q", r.Header.Get("authorization"))
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"nft_id": "n1", "ask_price": "1.00"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token", nil, time.Second, false, testLogger())
	listings, err := c.FetchLatestListings(context.Background(), 10)
	if err != nil {
		t.Fatalf("FetchLatestListings: %v", err)
	}
	if len(listings) != 1 || listings[0]["nft_id"] != "n1" {
		t.Fatalf("unexpected listings: %+v", listings)
	}
}

func TestTransportErrorExtractsMessageField(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "upstream unavailable"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token", nil, time.Second, false, testLogger())
	_, err := c.FetchLatestListings(context.Background(), 10)
	if err == nil {
		t.Fatal("expected transport error")
	}
	te, ok := err.(*types.TransportError)
	if !ok {
		t.Fatalf("expected *types.TransportError, got %T", err)
	}
	if te.Message != "upstream unavailable" {
		t.Errorf("message = %q, want extracted message field", te.Message)
	}
	if te.Code != http.StatusBadGateway {
		t.Errorf("code = %d, want %d", te.Code, http.StatusBadGateway)
	}
}

func TestCheckAuthRejectsUnauthorized(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad-token", nil, time.Second, false, testLogger())
	if err := c.CheckAuth(context.Background()); err == nil {
		t.Fatal("expected auth error on 401")
	}
}

func TestCheckAuthAcceptsOK(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token", nil, time.Second, false, testLogger())
	if err := c.CheckAuth(context.Background()); err != nil {
		t.Fatalf("CheckAuth: %v", err)
	}
}

func TestRouteOverridesMergeOverDefaults(t *testing.T) {
	t.Parallel()

	c := NewClient("http://unused.invalid", "token", map[string]string{"search": "/v2/search"}, time.Second, true, testLogger())
	if c.route("search") != "/v2/search" {
		t.Errorf("route override not applied, got %q", c.route("search"))
	}
	if c.route("sales") != defaultRoutes["sales"] {
		t.Errorf("unrelated route should keep default, got %q", c.route("sales"))
	}
}
