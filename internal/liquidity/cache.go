// Package liquidity provides the per-worker liquidity observation cache
// consulted before placing a buy-side action. It has a single owner (the
// account worker goroutine) and therefore needs no locking, the same
// ownership model as the worker's other in-memory state.
package liquidity

import (
	"github.com/shopspring/decimal"

	"github.com/ReNothingg/giftsniper/internal/strategy"
	"github.com/ReNothingg/giftsniper/pkg/money"
)

// ttlSeconds is how long an observed liquidity snapshot stays usable before
// it must be refetched, per §4.6 step 4.
const ttlSeconds = 45

type entry struct {
	input      strategy.LiquidityInput
	observedTS int64
}

// Cache holds one liquidity observation per trait key, expiring entries
// older than 45 seconds.
type Cache struct {
	byTraitKey map[string]entry
}

// NewCache builds an empty liquidity cache.
func NewCache() *Cache {
	return &Cache{byTraitKey: make(map[string]entry)}
}

// Get returns the cached observation for traitKey if it is still fresh.
func (c *Cache) Get(traitKey string, nowUnix int64) (strategy.LiquidityInput, bool) {
	e, ok := c.byTraitKey[traitKey]
	if !ok || money.IsStale(e.observedTS, nowUnix, ttlSeconds) {
		return strategy.LiquidityInput{}, false
	}
	return e.input, true
}

// Put stores a fresh observation for traitKey.
func (c *Cache) Put(traitKey string, input strategy.LiquidityInput, nowUnix int64) {
	c.byTraitKey[traitKey] = entry{input: input, observedTS: nowUnix}
}

// DeriveInput builds a LiquidityInput from recent sales and the current
// page's active-listing count for a trait key.
func DeriveInput(recentSales []decimal.Decimal, activeListings int, listingFloor *decimal.Decimal) strategy.LiquidityInput {
	in := strategy.LiquidityInput{
		RecentSalesCount:    len(recentSales),
		TotalActiveListings: activeListings,
		ListingFloorPrice:   listingFloor,
	}
	if len(recentSales) > 0 {
		in.LastSalePrice = recentSales[0]
	}
	return in
}
