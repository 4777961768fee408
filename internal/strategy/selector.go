// Package strategy implements the pure price-evaluation algebra: selector
// matching, offer/order pricing, the liquidity gate, outbid bumping, sell
// pricing, and reprice-below-floor. Every function here is free of I/O and
// of worker state, so it is exercised directly by tests against the
// literal scenarios the engine must reproduce.
package strategy

import (
	"strings"

	"github.com/ReNothingg/giftsniper/pkg/types"
)

// MatchesListing reports whether a listing satisfies every non-empty
// filter in the selector.
func MatchesListing(sel types.RuleSelector, l types.MarketListing, nowUnix int64) bool {
	if !matchSet(sel.CollectionIDs, l.CollectionID) {
		return false
	}
	if !matchSet(sel.Models, l.Model) {
		return false
	}
	if !matchSet(sel.Backgrounds, l.Background) {
		return false
	}
	if !matchSet(sel.GiftNames, l.Name) {
		return false
	}
	if len(sel.NameContains) > 0 && !anySubstring(sel.NameContains, l.Name) {
		return false
	}
	if sel.OnlyRecentSeconds > 0 {
		if l.ListedAtTS == nil || nowUnix-*l.ListedAtTS > sel.OnlyRecentSeconds {
			return false
		}
	}
	return true
}

// MatchesInventory reports whether a selector matches an inventory gift.
// The set filters and the name-substring filter apply; the freshness
// window has no inventory-side signal and is ignored.
func MatchesInventory(sel types.RuleSelector, g types.InventoryGift) bool {
	if !matchSet(sel.CollectionIDs, g.CollectionID) {
		return false
	}
	if !matchSet(sel.Models, g.Model) {
		return false
	}
	if !matchSet(sel.Backgrounds, g.Background) {
		return false
	}
	if !matchSet(sel.GiftNames, g.Name) {
		return false
	}
	if len(sel.NameContains) > 0 && !anySubstring(sel.NameContains, g.Name) {
		return false
	}
	return true
}

func matchSet(allowed []string, value string) bool {
	if len(allowed) == 0 {
		return true
	}
	lowered := strings.ToLower(value)
	for _, a := range allowed {
		if a == lowered {
			return true
		}
	}
	return false
}

func anySubstring(substrs []string, value string) bool {
	lowered := strings.ToLower(value)
	for _, s := range substrs {
		if strings.Contains(lowered, s) {
			return true
		}
	}
	return false
}

// SelectorPayload builds the collection-wide order payload from a
// selector's first matched value per field, per §4.4.
func SelectorPayload(sel types.RuleSelector) map[string]any {
	return map[string]any{
		"collection_id": firstOrEmpty(sel.CollectionIDs),
		"gift_name":     firstOrEmpty(sel.GiftNames),
		"model":         firstOrEmpty(sel.Models),
		"background":    firstOrEmpty(sel.Backgrounds),
	}
}

func firstOrEmpty(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}
