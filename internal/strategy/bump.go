package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/ReNothingg/giftsniper/pkg/money"
)

// ComputeBumpPrice implements §4.4's outbid-bump rule: returns the bumped
// price and true, or zero and false when no bump should happen.
func ComputeBumpPrice(own decimal.Decimal, competitor *decimal.Decimal, step decimal.Decimal, cap *decimal.Decimal) (decimal.Decimal, bool) {
	if competitor == nil || competitor.LessThan(own) {
		return decimal.Zero, false
	}
	bumped := money.Quantize2(competitor.Add(step))
	if !bumped.GreaterThan(own) {
		return decimal.Zero, false
	}
	if cap != nil && bumped.GreaterThan(*cap) {
		return decimal.Zero, false
	}
	return bumped, true
}

// ComputeReprice implements §4.4's reprice-below-floor rule: returns the
// new listing price and true, or zero and false when no reprice should
// happen.
func ComputeReprice(competitorFloor *decimal.Decimal, current, step decimal.Decimal, min *decimal.Decimal) (decimal.Decimal, bool) {
	if competitorFloor == nil {
		return decimal.Zero, false
	}
	target := money.Quantize2(competitorFloor.Sub(step))
	if !target.GreaterThan(decimal.Zero) {
		return decimal.Zero, false
	}
	if !target.LessThan(current) {
		return decimal.Zero, false
	}
	if min != nil && target.LessThan(*min) {
		return decimal.Zero, false
	}
	return target, true
}
