package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/ReNothingg/giftsniper/pkg/money"
	"github.com/ReNothingg/giftsniper/pkg/types"
)

// RejectReason names why a buy-side evaluation produced no price.
type RejectReason string

const (
	RejectNone               RejectReason = ""
	RejectNoAskOrFloor       RejectReason = "no_ask_or_floor"
	RejectCrafted            RejectReason = "crafted"
	RejectAskOutOfBounds     RejectReason = "ask_out_of_bounds"
	RejectFloorOutOfBounds   RejectReason = "floor_out_of_bounds"
	RejectAskFarFromFloor    RejectReason = "ask_far_from_floor"
	RejectMaxAllowedNonPos   RejectReason = "max_allowed_non_positive"
	RejectBelowMinOffer      RejectReason = "below_min_offer"
)

// OfferEvaluation is the outcome of EvaluateOfferPrice.
type OfferEvaluation struct {
	Price  decimal.Decimal
	Reason RejectReason
	OK     bool
}

// EvaluateOfferPrice implements §4.4's per-listing offer pricing algebra.
func EvaluateOfferPrice(l types.MarketListing, r types.OfferOrderRule) OfferEvaluation {
	ask := l.AskPrice
	floor := l.Floor()
	if ask == nil || !ask.GreaterThan(decimal.Zero) || floor == nil || !floor.GreaterThan(decimal.Zero) {
		return OfferEvaluation{Reason: RejectNoAskOrFloor}
	}

	if r.SkipCrafted && l.IsCrafted {
		return OfferEvaluation{Reason: RejectCrafted}
	}

	if r.MinAsk != nil && ask.LessThan(*r.MinAsk) {
		return OfferEvaluation{Reason: RejectAskOutOfBounds}
	}
	if r.MaxAsk != nil && ask.GreaterThan(*r.MaxAsk) {
		return OfferEvaluation{Reason: RejectAskOutOfBounds}
	}
	if r.MinFloor != nil && floor.LessThan(*r.MinFloor) {
		return OfferEvaluation{Reason: RejectFloorOutOfBounds}
	}
	if r.MaxFloor != nil && floor.GreaterThan(*r.MaxFloor) {
		return OfferEvaluation{Reason: RejectFloorOutOfBounds}
	}

	if ask.GreaterThan(floor.Mul(r.MaxListingToFloor)) {
		return OfferEvaluation{Reason: RejectAskFarFromFloor}
	}

	candidate := money.Quantize2(floor.Mul(r.OfferFactor))
	candidate = applyDiscountBounds(candidate, *floor, r)

	maxAllowed := money.Quantize2(ask.Sub(r.OutbidStep))
	if !maxAllowed.GreaterThan(decimal.Zero) {
		return OfferEvaluation{Reason: RejectMaxAllowedNonPos}
	}
	if candidate.GreaterThan(maxAllowed) {
		candidate = maxAllowed
	}
	if r.MaxOffer != nil && candidate.GreaterThan(*r.MaxOffer) {
		candidate = *r.MaxOffer
	}

	if candidate.LessThan(r.MinOffer) || !candidate.GreaterThan(decimal.Zero) {
		return OfferEvaluation{Reason: RejectBelowMinOffer}
	}
	return OfferEvaluation{Price: candidate, OK: true}
}

// EvaluateOrderPrice implements §4.4's collection-wide order pricing
// algebra: the same discount/clamp pipeline as an offer, but gated only on
// floor (no ask, no crafted check).
func EvaluateOrderPrice(floor decimal.Decimal, r types.OfferOrderRule) OfferEvaluation {
	if !floor.GreaterThan(decimal.Zero) {
		return OfferEvaluation{Reason: RejectNoAskOrFloor}
	}
	if r.MinFloor != nil && floor.LessThan(*r.MinFloor) {
		return OfferEvaluation{Reason: RejectFloorOutOfBounds}
	}
	if r.MaxFloor != nil && floor.GreaterThan(*r.MaxFloor) {
		return OfferEvaluation{Reason: RejectFloorOutOfBounds}
	}

	candidate := money.Quantize2(floor.Mul(r.OfferFactor))
	candidate = applyDiscountBounds(candidate, floor, r)

	if r.MaxOffer != nil && candidate.GreaterThan(*r.MaxOffer) {
		candidate = *r.MaxOffer
	}
	if candidate.LessThan(r.MinOffer) || !candidate.GreaterThan(decimal.Zero) {
		return OfferEvaluation{Reason: RejectBelowMinOffer}
	}
	return OfferEvaluation{Price: candidate, OK: true}
}

func applyDiscountBounds(candidate, floor decimal.Decimal, r types.OfferOrderRule) decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	if r.MinDiscountPct != nil {
		upperBound := money.Quantize2(floor.Mul(decimal.NewFromInt(1).Sub(r.MinDiscountPct.Div(hundred))))
		if candidate.GreaterThan(upperBound) {
			candidate = upperBound
		}
	}
	if r.MaxDiscountPct != nil {
		floorBound := money.Quantize2(floor.Mul(decimal.NewFromInt(1).Sub(r.MaxDiscountPct.Div(hundred))))
		if candidate.LessThan(floorBound) {
			candidate = floorBound
		}
	}
	return candidate
}

// LiquidityInput is the per-traitKey demand signal consulted before placing
// a buy-side action.
type LiquidityInput struct {
	RecentSalesCount    int
	TotalActiveListings int
	LastSalePrice       decimal.Decimal
	ListingFloorPrice   *decimal.Decimal
}

// LiquidityGate implements §4.4's liquidity gate.
func LiquidityGate(settings types.LiquiditySettings, in LiquidityInput) bool {
	if !settings.Enabled {
		return true
	}
	if in.RecentSalesCount < settings.MinRecentSales {
		return false
	}
	if in.TotalActiveListings > 0 {
		sellThrough := decimal.NewFromInt(int64(in.RecentSalesCount)).Div(decimal.NewFromInt(int64(in.TotalActiveListings)))
		if sellThrough.LessThan(settings.MinSellThrough) {
			return false
		}
	}
	if settings.MaxFloorToLastSale != nil && in.LastSalePrice.GreaterThan(decimal.Zero) && in.ListingFloorPrice != nil {
		ratio := in.ListingFloorPrice.Div(in.LastSalePrice)
		if ratio.GreaterThan(*settings.MaxFloorToLastSale) {
			return false
		}
	}
	return true
}
