package worker

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ReNothingg/giftsniper/pkg/types"
)

func TestActionKeyFormats(t *testing.T) {
	t.Parallel()

	if got := OfferKey("nft1", "r1"); got != "offer:nft1:r1" {
		t.Errorf("OfferKey = %q", got)
	}
	if got := OrderKey("r1", "fp"); got != "order:r1:fp" {
		t.Errorf("OrderKey = %q", got)
	}
	if got := ListingKey("nft1", "r1"); got != "listing:nft1:r1" {
		t.Errorf("ListingKey = %q", got)
	}
}

func TestActionTablePutGetDelete(t *testing.T) {
	t.Parallel()

	tbl := newActionTable()
	key := OfferKey("nft1", "r1")
	tbl.Put(types.ManagedAction{Key: key, Kind: types.ActionOffer, Price: decimal.NewFromFloat(0.5)})

	got, ok := tbl.Get(key)
	if !ok || !got.Price.Equal(decimal.NewFromFloat(0.5)) {
		t.Fatalf("Get = %+v, %v", got, ok)
	}

	tbl.Delete(key)
	if _, ok := tbl.Get(key); ok {
		t.Fatal("expected action to be gone after Delete")
	}
}

func TestActionTableExpiredSweepsOnlyPastDeadline(t *testing.T) {
	t.Parallel()

	tbl := newActionTable()
	past := int64(100)
	future := int64(9999)
	tbl.Put(types.ManagedAction{Key: "a", ExpiresTS: &past})
	tbl.Put(types.ManagedAction{Key: "b", ExpiresTS: &future})
	tbl.Put(types.ManagedAction{Key: "c"})

	expired := tbl.Expired(200)
	if len(expired) != 1 || expired[0].Key != "a" {
		t.Fatalf("Expired = %+v, want only key a", expired)
	}
}

func TestActionTableByKind(t *testing.T) {
	t.Parallel()

	tbl := newActionTable()
	tbl.Put(types.ManagedAction{Key: "offer:1:r", Kind: types.ActionOffer})
	tbl.Put(types.ManagedAction{Key: "order:r:fp", Kind: types.ActionOrder})

	offers := tbl.ByKind(types.ActionOffer)
	if len(offers) != 1 || offers[0].Kind != types.ActionOffer {
		t.Fatalf("ByKind(offer) = %+v", offers)
	}
}
