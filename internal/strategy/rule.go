package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/ReNothingg/giftsniper/pkg/types"
)

// EvalContext carries whichever signal a PriceRule variant needs:
// a listing for offer rules, a resolved floor for order rules.
type EvalContext struct {
	Listing *types.MarketListing
	Floor   decimal.Decimal
}

// PriceRule is the common capability shared by offer and order rules: an
// evaluation step and an action-table key, keeping the single `mode`-tagged
// OfferOrderRule usable as either variant without a type switch at every
// call site.
type PriceRule interface {
	Mode() types.RuleMode
	KeyFor(ctx EvalContext) string
	Evaluate(ctx EvalContext) OfferEvaluation
}

// OfferVariant evaluates an OfferOrderRule in offer mode, against a
// specific listing.
type OfferVariant struct {
	Rule types.OfferOrderRule
}

func (v OfferVariant) Mode() types.RuleMode { return types.ModeOffer }

func (v OfferVariant) KeyFor(ctx EvalContext) string {
	nftID := ""
	if ctx.Listing != nil {
		nftID = ctx.Listing.NftID
	}
	return "offer:" + nftID + ":" + v.Rule.Name
}

func (v OfferVariant) Evaluate(ctx EvalContext) OfferEvaluation {
	if ctx.Listing == nil {
		return OfferEvaluation{Reason: RejectNoAskOrFloor}
	}
	return EvaluateOfferPrice(*ctx.Listing, v.Rule)
}

// OrderVariant evaluates an OfferOrderRule in order mode, against a
// collection-wide floor.
type OrderVariant struct {
	Rule        types.OfferOrderRule
	SelectorKey string
}

func (v OrderVariant) Mode() types.RuleMode { return types.ModeOrder }

func (v OrderVariant) KeyFor(_ EvalContext) string {
	return "order:" + v.Rule.Name + ":" + v.SelectorKey
}

func (v OrderVariant) Evaluate(ctx EvalContext) OfferEvaluation {
	return EvaluateOrderPrice(ctx.Floor, v.Rule)
}

// NewPriceRule builds the PriceRule variant matching rule.Mode.
func NewPriceRule(rule types.OfferOrderRule) PriceRule {
	if rule.Mode == types.ModeOrder {
		return OrderVariant{Rule: rule, SelectorKey: rule.Selector.Fingerprint()}
	}
	return OfferVariant{Rule: rule}
}
