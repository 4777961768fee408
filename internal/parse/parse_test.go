package parse

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMarketListingRejectsMissingID(t *testing.T) {
	t.Parallel()

	if _, ok := MarketListing(map[string]any{"name": "foo"}); ok {
		t.Fatal("expected missing nft_id to be rejected")
	}
}

func TestMarketListingParsesCoreFields(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"nft_id":        "n1",
		"name":          "Plush Pepe",
		"collection_id": "plush-pepe",
		"ask_price":     "1.50",
		"is_crafted":    true,
		"model":         "Gold",
		"background":    "Azure",
		"listed_at":     float64(1_700_000_000),
	}
	l, ok := MarketListing(raw)
	if !ok {
		t.Fatal("expected listing to parse")
	}
	if l.NftID != "n1" || l.Name != "Plush Pepe" || !l.IsCrafted {
		t.Fatalf("unexpected listing: %+v", l)
	}
	if l.AskPrice == nil || !l.AskPrice.Equal(mustDecimal("1.50")) {
		t.Fatalf("AskPrice = %v, want 1.50", l.AskPrice)
	}
	if l.ListedAtTS == nil || *l.ListedAtTS != 1_700_000_000 {
		t.Fatalf("ListedAtTS = %v, want 1700000000", l.ListedAtTS)
	}
}

func TestMarketListingFloorFallsBackWhenAbsent(t *testing.T) {
	t.Parallel()

	raw := map[string]any{"nft_id": "n1", "ask_price": "2.00"}
	l, ok := MarketListing(raw)
	if !ok {
		t.Fatal("expected listing to parse")
	}
	if l.FloorPrice != nil {
		t.Fatalf("expected nil FloorPrice when absent, got %v", l.FloorPrice)
	}
	if got := l.Floor(); got == nil || !got.Equal(mustDecimal("2.00")) {
		t.Fatalf("Floor() = %v, want 2.00 (fallback to ask)", got)
	}
}

func TestTradeEventClassifiesBuyAndSell(t *testing.T) {
	t.Parallel()

	buy, ok := TradeEvent("acct1", map[string]any{"id": "e1", "type": "buy", "price": "1.00", "fee": "0.05", "nft_id": "n1"})
	if !ok {
		t.Fatal("expected buy event to parse")
	}
	if buy.Kind != "buy" {
		t.Errorf("Kind = %q, want buy", buy.Kind)
	}

	sell, ok := TradeEvent("acct1", map[string]any{"id": "e2", "type": "SELL_COMPLETE", "price": "2.00", "nft_id": "n1"})
	if !ok {
		t.Fatal("expected sell event to parse")
	}
	if sell.Kind != "sell" {
		t.Errorf("Kind = %q, want sell", sell.Kind)
	}
}

func TestTradeEventRejectsUnknownType(t *testing.T) {
	t.Parallel()

	if _, ok := TradeEvent("acct1", map[string]any{"id": "e1", "type": "transfer"}); ok {
		t.Fatal("expected unrecognized event type to be rejected")
	}
}

func TestTradeEventRejectsMissingEventID(t *testing.T) {
	t.Parallel()

	if _, ok := TradeEvent("acct1", map[string]any{"type": "buy"}); ok {
		t.Fatal("expected missing event id to be rejected")
	}
}

func TestRemoteActionFromRawExtractsCompetitorPrice(t *testing.T) {
	t.Parallel()

	raw := map[string]any{"id": "offer-1", "nft_id": "n1", "price": "0.80", "top_competitor_price": "0.85"}
	a, ok := RemoteActionFromRaw(raw)
	if !ok {
		t.Fatal("expected row to parse")
	}
	if a.RemoteID != "offer-1" || a.NftID != "n1" {
		t.Fatalf("unexpected RemoteAction: %+v", a)
	}
	if a.CompetitorPrice == nil || !a.CompetitorPrice.Equal(mustDecimal("0.85")) {
		t.Fatalf("CompetitorPrice = %v, want 0.85", a.CompetitorPrice)
	}
}

func TestRemoteActionFromRawRejectsMissingID(t *testing.T) {
	t.Parallel()

	if _, ok := RemoteActionFromRaw(map[string]any{"nft_id": "n1"}); ok {
		t.Fatal("expected missing remote id to be rejected")
	}
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
