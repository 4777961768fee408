package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/ReNothingg/giftsniper/pkg/money"
	"github.com/ReNothingg/giftsniper/pkg/types"
)

// ComputeSellPrice implements §4.4's sell-price computation for un-listed
// inventory: markup over the current trait-key floor, falling back to the
// known buy price when no floor is available.
func ComputeSellPrice(floor *decimal.Decimal, buy *decimal.Decimal, rule types.SellRule) (decimal.Decimal, bool) {
	var candidate decimal.Decimal
	if floor != nil && floor.GreaterThan(decimal.Zero) {
		hundred := decimal.NewFromInt(100)
		candidate = money.Quantize2(floor.Mul(decimal.NewFromInt(1).Add(rule.MarkupPct.Div(hundred))))
	} else if buy != nil {
		candidate = money.Quantize2(*buy)
	} else {
		candidate = decimal.Zero
	}

	if rule.MinSellPrice != nil && candidate.LessThan(*rule.MinSellPrice) {
		candidate = *rule.MinSellPrice
	}
	if rule.MaxSellPrice != nil && candidate.GreaterThan(*rule.MaxSellPrice) {
		candidate = *rule.MaxSellPrice
	}
	if !candidate.GreaterThan(decimal.Zero) {
		return decimal.Zero, false
	}
	return candidate, true
}
