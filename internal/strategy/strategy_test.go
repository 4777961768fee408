package strategy

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ReNothingg/giftsniper/pkg/types"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(s string) *decimal.Decimal { v := d(s); return &v }

func baseRule(name string) types.OfferOrderRule {
	return types.OfferOrderRule{
		Name:              name,
		Enabled:           true,
		Mode:              types.ModeOffer,
		OfferFactor:       d("0.8"),
		MinOffer:          d("0.1"),
		MaxListingToFloor: d("1.25"),
		OutbidStep:        d("0.01"),
		BumpIfOutbid:      true,
		SkipCrafted:       true,
	}
}

// Scenario 1: offer on an under-priced listing.
func TestScenarioOfferOnUnderpricedListing(t *testing.T) {
	t.Parallel()

	rule := baseRule("r1")
	ask := d("1.00")
	listing := types.MarketListing{NftID: "nft1", AskPrice: &ask, FloorPrice: &ask, IsCrafted: false}

	got := EvaluateOfferPrice(listing, rule)
	if !got.OK {
		t.Fatalf("expected OK, got reason %q", got.Reason)
	}
	if !got.Price.Equal(d("0.80")) {
		t.Errorf("price = %s, want 0.80", got.Price)
	}
	capPrice := ask.Sub(rule.OutbidStep)
	if !capPrice.Equal(d("0.99")) {
		t.Errorf("cap price = %s, want 0.99", capPrice)
	}
	key := OfferVariant{Rule: rule}.KeyFor(EvalContext{Listing: &listing})
	if key != "offer:nft1:r1" {
		t.Errorf("key = %q, want offer:nft1:r1", key)
	}
}

// Scenario 2: reject crafted listing.
func TestScenarioRejectCrafted(t *testing.T) {
	t.Parallel()

	rule := baseRule("r1")
	ask := d("1.00")
	listing := types.MarketListing{NftID: "nft1", AskPrice: &ask, FloorPrice: &ask, IsCrafted: true}

	got := EvaluateOfferPrice(listing, rule)
	if got.OK {
		t.Fatalf("expected rejection, got price %s", got.Price)
	}
	if got.Reason != RejectCrafted {
		t.Errorf("reason = %q, want %q", got.Reason, RejectCrafted)
	}
}

// Scenario 3: reject ask too far from floor.
func TestScenarioRejectAskFarFromFloor(t *testing.T) {
	t.Parallel()

	rule := baseRule("r1")
	ask := d("2.00")
	floor := d("1.00")
	listing := types.MarketListing{NftID: "nft1", AskPrice: &ask, FloorPrice: &floor}

	got := EvaluateOfferPrice(listing, rule)
	if got.OK {
		t.Fatalf("expected rejection, got price %s", got.Price)
	}
	if got.Reason != RejectAskFarFromFloor {
		t.Errorf("reason = %q, want %q", got.Reason, RejectAskFarFromFloor)
	}
}

// Scenario 4: order on a collection with a derived floor across three listings.
func TestScenarioOrderOnCollection(t *testing.T) {
	t.Parallel()

	rule := baseRule("order-rule")
	rule.Mode = types.ModeOrder
	rule.OfferFactor = d("0.5")
	rule.MinOffer = d("0.10")
	sel := types.RuleSelector{CollectionIDs: []string{"c1"}}
	rule.Selector = sel

	floors := []decimal.Decimal{d("5.00"), d("4.50"), d("6.00")}
	minFloor := floors[0]
	for _, f := range floors[1:] {
		if f.LessThan(minFloor) {
			minFloor = f
		}
	}

	got := EvaluateOrderPrice(minFloor, rule)
	if !got.OK {
		t.Fatalf("expected OK, got reason %q", got.Reason)
	}
	if !got.Price.Equal(d("2.25")) {
		t.Errorf("price = %s, want 2.25", got.Price)
	}
	variant := OrderVariant{Rule: rule, SelectorKey: sel.Fingerprint()}
	key := variant.KeyFor(EvalContext{})
	if key != "order:order-rule:"+sel.Fingerprint() {
		t.Errorf("key = %q, want order:order-rule:%s", key, sel.Fingerprint())
	}
}

// Scenario 5: outbid bump, with and without a cap that blocks it.
func TestScenarioOutbidBump(t *testing.T) {
	t.Parallel()

	own := d("0.80")
	competitor := d("0.85")
	step := d("0.01")

	bumped, ok := ComputeBumpPrice(own, &competitor, step, ptr("0.99"))
	if !ok {
		t.Fatal("expected bump to apply")
	}
	if !bumped.Equal(d("0.86")) {
		t.Errorf("bumped = %s, want 0.86", bumped)
	}

	_, ok = ComputeBumpPrice(own, &competitor, step, ptr("0.85"))
	if ok {
		t.Fatal("expected bump to be blocked by cap")
	}
}

// Scenario 7: reprice below floor.
func TestScenarioRepriceBelowFloor(t *testing.T) {
	t.Parallel()

	current := d("5.00")
	floor := d("4.80")
	step := d("0.01")

	target, ok := ComputeReprice(&floor, current, step, nil)
	if !ok {
		t.Fatal("expected reprice to apply")
	}
	if !target.Equal(d("4.79")) {
		t.Errorf("target = %s, want 4.79", target)
	}
}

// Invariant: offer price bounds always hold.
func TestInvariantOfferPriceBounds(t *testing.T) {
	t.Parallel()

	rule := baseRule("r1")
	ask := d("10.00")
	floor := d("9.00")
	listing := types.MarketListing{NftID: "nft1", AskPrice: &ask, FloorPrice: &floor}

	got := EvaluateOfferPrice(listing, rule)
	if !got.OK {
		t.Fatalf("expected OK, got %q", got.Reason)
	}
	maxAllowed := ask.Sub(rule.OutbidStep)
	if got.Price.LessThan(rule.MinOffer) {
		t.Errorf("price %s below min_offer %s", got.Price, rule.MinOffer)
	}
	if got.Price.GreaterThan(maxAllowed) {
		t.Errorf("price %s above ask-outbid_step %s", got.Price, maxAllowed)
	}
}

// Invariant: evaluateOrderPrice(0, rule) = reject.
func TestInvariantOrderPriceZeroFloorRejects(t *testing.T) {
	t.Parallel()

	rule := baseRule("r1")
	rule.Mode = types.ModeOrder

	got := EvaluateOrderPrice(decimal.Zero, rule)
	if got.OK {
		t.Fatalf("expected rejection for zero floor, got price %s", got.Price)
	}
}

// Invariant: liquidity gate admits everything when fully disabled thresholds.
func TestInvariantLiquidityGateAdmitsWhenThresholdsZero(t *testing.T) {
	t.Parallel()

	settings := types.LiquiditySettings{
		Enabled:        true,
		MinRecentSales: 0,
		MinSellThrough: decimal.Zero,
	}
	in := LiquidityInput{RecentSalesCount: 0, TotalActiveListings: 100}
	if !LiquidityGate(settings, in) {
		t.Fatal("expected gate to admit when thresholds are zero and no max_floor_to_last_sale")
	}
}

func TestSelectorMatchesCaseInsensitive(t *testing.T) {
	t.Parallel()

	sel := types.RuleSelector{CollectionIDs: []string{"plush-pepe"}, NameContains: []string{"golden"}}
	l := types.MarketListing{CollectionID: "Plush-Pepe", Name: "The Golden Goose"}
	if !MatchesListing(sel, l, 0) {
		t.Fatal("expected case-insensitive match")
	}
}

func TestSelectorRejectsStaleListing(t *testing.T) {
	t.Parallel()

	ts := int64(1000)
	sel := types.RuleSelector{OnlyRecentSeconds: 60}
	l := types.MarketListing{ListedAtTS: &ts}
	if MatchesListing(sel, l, 2000) {
		t.Fatal("expected stale listing to be rejected")
	}
}

func TestComputeSellPriceUsesFloorMarkup(t *testing.T) {
	t.Parallel()

	floor := d("4.00")
	rule := types.SellRule{MarkupPct: d("10")}
	price, ok := ComputeSellPrice(&floor, nil, rule)
	if !ok {
		t.Fatal("expected a sell price")
	}
	if !price.Equal(d("4.40")) {
		t.Errorf("price = %s, want 4.40", price)
	}
}

func TestComputeSellPriceFallsBackToBuyPrice(t *testing.T) {
	t.Parallel()

	buy := d("3.00")
	rule := types.SellRule{MarkupPct: d("10")}
	price, ok := ComputeSellPrice(nil, &buy, rule)
	if !ok {
		t.Fatal("expected a sell price")
	}
	if !price.Equal(d("3.00")) {
		t.Errorf("price = %s, want 3.00 (no markup without floor)", price)
	}
}
