package ledger

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ReNothingg/giftsniper/pkg/types"
)

func mustDecimal(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func openTemp(t *testing.T) *Ledger {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRecordTradeOpensPosition(t *testing.T) {
	l := openTemp(t)

	accepted, err := l.RecordTrade(types.TradeEvent{
		Account: "main", EventID: "e1", Kind: types.EventBuy,
		NftID: "nft1", GiftName: "Plush Pepe", Price: mustDecimal("1.50"), TS: 1000,
	})
	if err != nil {
		t.Fatalf("RecordTrade: %v", err)
	}
	if !accepted {
		t.Fatal("expected first insert to be accepted")
	}

	price, err := l.GetBuyPrice("main", "nft1")
	if err != nil {
		t.Fatalf("GetBuyPrice: %v", err)
	}
	if price == nil || !price.Equal(mustDecimal("1.50")) {
		t.Fatalf("buy price = %v, want 1.50", price)
	}

	positions, err := l.GetOpenPositions(10, "main")
	if err != nil {
		t.Fatalf("GetOpenPositions: %v", err)
	}
	if len(positions) != 1 || positions[0].Status != types.PositionOpen {
		t.Fatalf("positions = %+v, want one open position", positions)
	}
}

func TestRecordTradeIsIdempotent(t *testing.T) {
	l := openTemp(t)

	event := types.TradeEvent{
		Account: "main", EventID: "e1", Kind: types.EventBuy,
		NftID: "nft1", Price: mustDecimal("1.50"), TS: 1000,
	}
	first, err := l.RecordTrade(event)
	if err != nil || !first {
		t.Fatalf("first insert: accepted=%v err=%v", first, err)
	}
	second, err := l.RecordTrade(event)
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if second {
		t.Fatal("expected duplicate event id to be rejected")
	}

	events, err := l.GetRecentEvents(10, "main")
	if err != nil {
		t.Fatalf("GetRecentEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1 (duplicate must not double-insert)", len(events))
	}
}

func TestRecordTradeClosesPositionOnSell(t *testing.T) {
	l := openTemp(t)

	_, err := l.RecordTrade(types.TradeEvent{
		Account: "main", EventID: "buy1", Kind: types.EventBuy,
		NftID: "nft1", Price: mustDecimal("1.00"), TS: 1000,
	})
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	_, err = l.RecordTrade(types.TradeEvent{
		Account: "main", EventID: "sell1", Kind: types.EventSell,
		NftID: "nft1", Price: mustDecimal("1.40"), TS: 2000,
	})
	if err != nil {
		t.Fatalf("sell: %v", err)
	}

	open, err := l.GetOpenPositions(10, "main")
	if err != nil {
		t.Fatalf("GetOpenPositions: %v", err)
	}
	if len(open) != 0 {
		t.Fatalf("expected no open positions after sell, got %d", len(open))
	}

	stats, err := l.GetProfitStats("main", 0)
	if err != nil {
		t.Fatalf("GetProfitStats: %v", err)
	}
	if stats.BuyCount != 1 || stats.SellCount != 1 {
		t.Fatalf("stats = %+v, want 1 buy and 1 sell", stats)
	}
	if !stats.RealizedProfit.Equal(mustDecimal("0.40")) {
		t.Errorf("RealizedProfit = %s, want 0.40", stats.RealizedProfit)
	}
	if !stats.NetProfit.Equal(mustDecimal("0.40")) {
		t.Errorf("NetProfit = %s, want 0.40", stats.NetProfit)
	}
}

func TestGetBuyPriceNilWhenNoPosition(t *testing.T) {
	l := openTemp(t)

	price, err := l.GetBuyPrice("main", "unknown")
	if err != nil {
		t.Fatalf("GetBuyPrice: %v", err)
	}
	if price != nil {
		t.Fatalf("expected nil buy price, got %v", price)
	}
}

func TestProfitStatsScopesByAccountAndWindow(t *testing.T) {
	l := openTemp(t)

	_, _ = l.RecordTrade(types.TradeEvent{Account: "a", EventID: "1", Kind: types.EventBuy, NftID: "n1", Price: mustDecimal("1.00"), TS: 100})
	_, _ = l.RecordTrade(types.TradeEvent{Account: "b", EventID: "2", Kind: types.EventBuy, NftID: "n2", Price: mustDecimal("5.00"), TS: 900})

	stats, err := l.GetProfitStats("a", 0)
	if err != nil {
		t.Fatalf("GetProfitStats: %v", err)
	}
	if stats.BuyCount != 1 || !stats.TotalBuy.Equal(mustDecimal("1.00")) {
		t.Fatalf("stats = %+v, want only account a's buy", stats)
	}

	stats, err = l.GetProfitStats("", 500)
	if err != nil {
		t.Fatalf("GetProfitStats: %v", err)
	}
	if stats.BuyCount != 1 || !stats.TotalBuy.Equal(mustDecimal("5.00")) {
		t.Fatalf("stats = %+v, want only events since ts=500", stats)
	}
}
