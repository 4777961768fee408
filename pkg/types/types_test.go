package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRuleSelectorFingerprintOrderIndependent(t *testing.T) {
	t.Parallel()

	a := RuleSelector{CollectionIDs: []string{"foo", "bar"}, Models: []string{"gold"}}
	b := RuleSelector{CollectionIDs: []string{"bar", "foo"}, Models: []string{"gold"}}

	if !a.Equal(b) {
		t.Fatalf("expected selectors with reordered slices to be equal: %q vs %q", a.Fingerprint(), b.Fingerprint())
	}
}

func TestRuleSelectorFingerprintDistinguishesFields(t *testing.T) {
	t.Parallel()

	a := RuleSelector{CollectionIDs: []string{"foo"}}
	b := RuleSelector{GiftNames: []string{"foo"}}

	if a.Equal(b) {
		t.Fatalf("selectors on different fields with same value should not be equal")
	}
}

func TestRuleSelectorFingerprintEmpty(t *testing.T) {
	t.Parallel()

	a := RuleSelector{}
	b := RuleSelector{}

	if a.Fingerprint() != b.Fingerprint() {
		t.Fatalf("two empty selectors should fingerprint identically")
	}
}

func TestMarketListingFloorFallsBackToAsk(t *testing.T) {
	t.Parallel()

	ask := decimal.NewFromFloat(1.5)
	l := MarketListing{AskPrice: &ask}

	got := l.Floor()
	if got == nil || !got.Equal(ask) {
		t.Fatalf("Floor() = %v, want %v", got, ask)
	}
}

func TestMarketListingFloorPrefersExplicitFloor(t *testing.T) {
	t.Parallel()

	ask := decimal.NewFromFloat(2.0)
	floor := decimal.NewFromFloat(1.2)
	l := MarketListing{AskPrice: &ask, FloorPrice: &floor}

	got := l.Floor()
	if got == nil || !got.Equal(floor) {
		t.Fatalf("Floor() = %v, want %v", got, floor)
	}
}

func TestTraitKeyLowercasesAndJoins(t *testing.T) {
	t.Parallel()

	got := TraitKey("Plush-Pepe", "GOLD", "Azure")
	want := "plush-pepe|gold|azure"
	if got != want {
		t.Fatalf("TraitKey() = %q, want %q", got, want)
	}
}

func TestMarketListingTraitKeyMatchesPackageFunc(t *testing.T) {
	t.Parallel()

	l := MarketListing{CollectionID: "Foo", Model: "Bar", Background: "Baz"}
	if l.TraitKey() != TraitKey("Foo", "Bar", "Baz") {
		t.Fatalf("MarketListing.TraitKey() diverges from types.TraitKey()")
	}
}

func TestErrorKindsFormatting(t *testing.T) {
	t.Parallel()

	if (&ConfigError{Msg: "missing field"}).Error() != "config: missing field" {
		t.Errorf("unexpected ConfigError message")
	}
	if (&AuthError{Msg: "401"}).Error() != "auth: 401" {
		t.Errorf("unexpected AuthError message")
	}
	te := &TransportError{Code: 503, Message: "unavailable"}
	if te.Error() != "transport: status 503: unavailable" {
		t.Errorf("unexpected TransportError message: %q", te.Error())
	}
}

func TestLedgerErrorUnwrap(t *testing.T) {
	t.Parallel()

	inner := &TransportError{Code: 500, Message: "boom"}
	le := &LedgerError{Msg: "record trade", Err: inner}

	if le.Unwrap() != inner {
		t.Fatalf("LedgerError.Unwrap() did not return wrapped error")
	}
}
