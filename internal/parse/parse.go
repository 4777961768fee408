// Package parse maps the marketplace API's untyped JSON bags into the
// bot's typed domain model. Nothing past this layer should see a raw
// map[string]any.
package parse

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ReNothingg/giftsniper/pkg/money"
	"github.com/ReNothingg/giftsniper/pkg/types"
)

// MarketListing converts one raw listing bag into a types.MarketListing.
// Returns false if the bag has no usable nft_id.
func MarketListing(raw map[string]any) (types.MarketListing, bool) {
	id := stringField(raw, "nft_id", "id")
	if id == "" {
		return types.MarketListing{}, false
	}

	l := types.MarketListing{
		NftID:        id,
		Name:         stringField(raw, "name"),
		CollectionID: stringField(raw, "collection_id", "collection"),
		TgID:         stringField(raw, "tg_id"),
		Model:        stringField(raw, "model"),
		Background:   stringField(raw, "background"),
		IsCrafted:    boolField(raw, "is_crafted", "crafted"),
		Raw:          raw,
	}
	l.AskPrice = decimalField(raw, "ask_price", "price")
	l.FloorPrice = decimalField(raw, "floor_price", "floor")
	l.ListedAtTS = timestampField(raw, "listed_at", "listed_at_ts")
	return l, true
}

// MarketListings converts a raw listing array, dropping entries with no
// usable id.
func MarketListings(raws []map[string]any) []types.MarketListing {
	out := make([]types.MarketListing, 0, len(raws))
	for _, raw := range raws {
		if l, ok := MarketListing(raw); ok {
			out = append(out, l)
		}
	}
	return out
}

// InventoryGift converts one raw inventory bag into a types.InventoryGift.
func InventoryGift(raw map[string]any) (types.InventoryGift, bool) {
	id := stringField(raw, "nft_id", "id")
	if id == "" {
		return types.InventoryGift{}, false
	}
	return types.InventoryGift{
		NftID:        id,
		Name:         stringField(raw, "name"),
		CollectionID: stringField(raw, "collection_id", "collection"),
		Model:        stringField(raw, "model"),
		Background:   stringField(raw, "background"),
		Listed:       boolField(raw, "listed", "is_listed"),
		Raw:          raw,
	}, true
}

// InventoryGifts converts a raw inventory array, dropping entries with no
// usable id.
func InventoryGifts(raws []map[string]any) []types.InventoryGift {
	out := make([]types.InventoryGift, 0, len(raws))
	for _, raw := range raws {
		if g, ok := InventoryGift(raw); ok {
			out = append(out, g)
		}
	}
	return out
}

// TradeEvent converts one raw activity entry into a types.TradeEvent.
// Only entries whose type contains "buy"/"purchase" or "sell" are
// recognized; everything else returns false.
func TradeEvent(account string, raw map[string]any) (types.TradeEvent, bool) {
	kind, ok := classifyEventKind(stringField(raw, "type", "kind"))
	if !ok {
		return types.TradeEvent{}, false
	}
	eventID := stringField(raw, "id", "event_id")
	if eventID == "" {
		return types.TradeEvent{}, false
	}

	ts, _ := timestampOrNow(raw)
	return types.TradeEvent{
		Account:    account,
		EventID:    eventID,
		Kind:       kind,
		NftID:      stringField(raw, "nft_id"),
		GiftName:   stringField(raw, "name", "gift_name"),
		Model:      stringField(raw, "model"),
		Background: stringField(raw, "background"),
		Price:      decimalFieldOrZero(raw, "price"),
		Fee:        decimalFieldOrZero(raw, "fee"),
		TS:         ts,
	}, true
}

// RemoteAction is a parsed row from my_offers/my_orders/my_listings: enough
// to match it back to a ManagedAction and read its current competing price.
type RemoteAction struct {
	RemoteID        string
	NftID           string
	Price           *decimal.Decimal
	CompetitorPrice *decimal.Decimal
}

// RemoteActionFromRaw converts one raw my_offers/my_orders/my_listings row.
// Returns false if the row has no usable remote id.
func RemoteActionFromRaw(raw map[string]any) (RemoteAction, bool) {
	id := stringField(raw, "id", "offer_id", "order_id", "listing_id")
	if id == "" {
		return RemoteAction{}, false
	}
	return RemoteAction{
		RemoteID:        id,
		NftID:           stringField(raw, "nft_id"),
		Price:           decimalField(raw, "price"),
		CompetitorPrice: decimalField(raw, "top_competitor_price", "competitor_price", "best_competitor_price"),
	}, true
}

func classifyEventKind(raw string) (types.TradeEventKind, bool) {
	lowered := strings.ToLower(raw)
	switch {
	case strings.Contains(lowered, "buy"), strings.Contains(lowered, "purchase"):
		return types.EventBuy, true
	case strings.Contains(lowered, "sell"):
		return types.EventSell, true
	default:
		return "", false
	}
}

func timestampOrNow(raw map[string]any) (int64, bool) {
	if ts := timestampField(raw, "ts", "timestamp", "created_at"); ts != nil {
		return *ts, true
	}
	return money.SystemClock{}.NowUnix(), false
}

// ————————————————————————————————————————————————————————————————————————
// Field extraction helpers
// ————————————————————————————————————————————————————————————————————————

func stringField(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func boolField(raw map[string]any, keys ...string) bool {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			if b, ok := v.(bool); ok {
				return b
			}
		}
	}
	return false
}

func decimalField(raw map[string]any, keys ...string) *decimal.Decimal {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if t == "" {
				continue
			}
			d, err := decimal.NewFromString(t)
			if err != nil {
				continue
			}
			return &d
		case float64:
			d := decimal.NewFromFloat(t)
			return &d
		}
	}
	return nil
}

func decimalFieldOrZero(raw map[string]any, keys ...string) decimal.Decimal {
	if d := decimalField(raw, keys...); d != nil {
		return *d
	}
	return decimal.Zero
}

func timestampField(raw map[string]any, keys ...string) *int64 {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		if ts, ok := money.ParseUnixTS(v); ok {
			return &ts
		}
	}
	return nil
}
