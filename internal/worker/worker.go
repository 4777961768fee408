// Package worker implements the Account Worker: the cyclic state machine
// that drives one marketplace account through warm start, polling,
// new-listing offers, order maintenance, outbid synchronization, expired
// action cleanup, the sell path, reprice-below-floor, and activity
// ingestion into the ledger.
//
// Grounded on the teacher pack's per-market strategy goroutine (one
// independent, serially-executing loop per unit of work, all in-memory
// state owned exclusively by that goroutine), generalized here to one
// goroutine per configured account instead of per market.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ReNothingg/giftsniper/internal/exchange"
	"github.com/ReNothingg/giftsniper/internal/ledger"
	"github.com/ReNothingg/giftsniper/internal/liquidity"
	"github.com/ReNothingg/giftsniper/internal/parse"
	"github.com/ReNothingg/giftsniper/internal/strategy"
	"github.com/ReNothingg/giftsniper/pkg/money"
	"github.com/ReNothingg/giftsniper/pkg/types"
)

// Worker runs the state machine for a single account. Every method
// besides Status and Run is unexported: the worker's internal state
// (seen cache, action table, liquidity cache, poll timestamps, burst
// counter) is touched only from the goroutine running Run.
type Worker struct {
	account types.Account
	cfg     *types.AppConfig
	client  *exchange.Client
	ledger  *ledger.Ledger
	notify  Notifier
	clock   money.Clock
	logger  *slog.Logger

	seen    *seenCache
	actions *actionTable
	liq     *liquidity.Cache

	burstLeft         int
	lastActivityPoll  int64
	lastInventoryPoll int64
	lastOrdersPoll    int64
	lastListingsPoll  int64

	status statusBox
}

// NewWorker builds a worker for one account. notify may be nil, in which
// case notifications are silently dropped.
func NewWorker(account types.Account, cfg *types.AppConfig, client *exchange.Client, led *ledger.Ledger, notify Notifier, logger *slog.Logger) *Worker {
	if notify == nil {
		notify = noopNotifier{}
	}
	return &Worker{
		account: account,
		cfg:     cfg,
		client:  client,
		ledger:  led,
		notify:  notify,
		clock:   money.SystemClock{},
		logger:  logger.With("component", "worker", "account", account.Name),
		seen:    newSeenCache(cfg.Runtime.SeenCacheSize),
		actions: newActionTable(),
		liq:     liquidity.NewCache(),
	}
}

// Status returns the worker's current state, safe to call from another
// goroutine (the chat collaborator's "workers" command).
func (w *Worker) Status() string { return w.status.Get() }

// Run drives the state machine until ctx is cancelled or a fatal auth
// failure occurs. It never returns an error for transient conditions;
// those are logged and retried on the next cycle.
func (w *Worker) Run(ctx context.Context) {
	w.status.Set("booting")
	w.status.Set("auth")

	if err := w.client.CheckAuth(ctx); err != nil {
		w.status.Set("auth_fail:" + err.Error())
		w.logger.Error("auth check failed, worker stopping", "error", err)
		return
	}

	w.status.Set("warm_start")
	if w.cfg.Runtime.WarmStart {
		w.warmStart(ctx)
	}

	w.status.Set("running")
	for {
		if ctx.Err() != nil {
			w.status.Set("stopped")
			return
		}

		cycleStart := time.Now()
		acted, err := w.runCycle(ctx)
		if err != nil {
			w.status.Set("net_err:" + err.Error())
			w.logger.Warn("cycle failed, retrying", "error", err)
			if !w.sleep(ctx, maxDuration(time.Second, w.cfg.Runtime.IdlePollInterval)) {
				return
			}
			w.status.Set("running")
			continue
		}

		if acted {
			w.burstLeft = w.cfg.Runtime.HotCycles
		}
		interval := w.cfg.Runtime.IdlePollInterval
		if w.burstLeft > 0 {
			interval = w.cfg.Runtime.HotPollInterval
			w.burstLeft--
		}
		w.status.Set(fmt.Sprintf("running seen=%d actions=%d burst=%d", len(w.seen.order), w.actions.Len(), w.burstLeft))
		elapsed := time.Since(cycleStart)
		remaining := interval - elapsed
		if remaining < 0 {
			remaining = 0
		}
		if !w.sleep(ctx, remaining) {
			return
		}
	}
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		w.status.Set("stopped")
		return false
	case <-timer.C:
		return true
	}
}

// warmStart fetches the first page of latest listings and seeds the seen
// cache without acting on them, so the first running cycle does not treat
// the whole existing market as new.
func (w *Worker) warmStart(ctx context.Context) {
	raws, err := w.client.FetchLatestListings(ctx, w.cfg.Runtime.SearchLimit)
	if err != nil {
		w.logger.Warn("warm start fetch failed, proceeding without seeding", "error", err)
		return
	}
	for _, l := range parse.MarketListings(raws) {
		w.seen.Add(l.NftID)
	}
}

// ————————————————————————————————————————————————————————————————————————
// One cycle
// ————————————————————————————————————————————————————————————————————————

type pageIndices struct {
	floorByTraits map[string]decimal.Decimal
	activeCount   map[string]int
	floorByNft    map[string]decimal.Decimal
}

// runCycle executes steps 1-11 of the running state and reports whether any
// buy-side action was taken (used to decide the post-cycle poll cadence).
func (w *Worker) runCycle(ctx context.Context) (bool, error) {
	now := w.clock.NowUnix()
	acted := false

	listings, err := w.fetchListings(ctx)
	if err != nil {
		return false, err
	}
	idx := buildIndices(listings)

	newListings := w.selectNewListings(listings)

	if n, err := w.placeOffers(ctx, newListings, idx, now); err != nil {
		return acted, err
	} else if n > 0 {
		acted = true
	}

	if n, err := w.maintainOrders(ctx, listings, idx, now); err != nil {
		return acted, err
	} else if n > 0 {
		acted = true
	}

	if w.due(w.lastOrdersPoll, w.cfg.Runtime.OrdersPollEverySec, now) {
		if err := w.syncOutbidOffers(ctx); err != nil {
			w.logger.Warn("offer outbid sync failed", "error", err)
		}
		if err := w.syncOutbidOrders(ctx); err != nil {
			w.logger.Warn("order outbid sync failed", "error", err)
		}
		w.lastOrdersPoll = now
	}

	w.expireActions(ctx, now)

	if w.due(w.lastInventoryPoll, w.cfg.Runtime.InventoryPollEverySec, now) {
		if err := w.sellUnlistedInventory(ctx, idx); err != nil {
			w.logger.Warn("sell path failed", "error", err)
		}
		w.lastInventoryPoll = now
	}

	if w.due(w.lastListingsPoll, w.cfg.Runtime.ListingsPollEverySec, now) {
		if err := w.repriceListings(ctx, idx); err != nil {
			w.logger.Warn("reprice path failed", "error", err)
		}
		w.lastListingsPoll = now
	}

	if w.due(w.lastActivityPoll, w.cfg.Runtime.ActivityPollEverySec, now) {
		if err := w.ingestActivity(ctx); err != nil {
			w.logger.Warn("activity ingestion failed", "error", err)
		}
		w.lastActivityPoll = now
	}

	return acted, nil
}

func (w *Worker) due(last int64, everySec int, now int64) bool {
	if everySec <= 0 {
		return true
	}
	return now-last >= int64(everySec)
}

// Step 1: fetch and parse the latest-listings page.
func (w *Worker) fetchListings(ctx context.Context) ([]types.MarketListing, error) {
	raws, err := w.client.FetchLatestListings(ctx, w.cfg.Runtime.SearchLimit)
	if err != nil {
		return nil, err
	}
	return parse.MarketListings(raws), nil
}

// Step 2: build per-traitKey floor/active-count indices and an explicit
// per-nft floor map.
func buildIndices(listings []types.MarketListing) pageIndices {
	idx := pageIndices{
		floorByTraits: make(map[string]decimal.Decimal),
		activeCount:   make(map[string]int),
		floorByNft:    make(map[string]decimal.Decimal),
	}
	for _, l := range listings {
		tk := l.TraitKey()
		idx.activeCount[tk]++
		if l.AskPrice != nil {
			if cur, ok := idx.floorByTraits[tk]; !ok || l.AskPrice.LessThan(cur) {
				idx.floorByTraits[tk] = *l.AskPrice
			}
		}
		if l.FloorPrice != nil {
			idx.floorByNft[l.NftID] = *l.FloorPrice
		}
	}
	return idx
}

// Step 3: walk listings in received order, collecting unseen ids up to
// max_new_per_cycle, stopping early once seen_break_streak consecutive
// already-seen ids have been observed.
func (w *Worker) selectNewListings(listings []types.MarketListing) []types.MarketListing {
	out := make([]types.MarketListing, 0, w.cfg.Runtime.MaxNewPerCycle)
	streak := 0
	for _, l := range listings {
		if w.seen.Has(l.NftID) {
			streak++
			if w.cfg.Runtime.SeenBreakStreak > 0 && streak >= w.cfg.Runtime.SeenBreakStreak {
				break
			}
			continue
		}
		streak = 0
		w.seen.Add(l.NftID)
		if len(out) < w.cfg.Runtime.MaxNewPerCycle {
			out = append(out, l)
		}
	}
	return out
}

// Step 4: offer the first matching, pricing rule that yields a price for
// each new listing, gated by the liquidity cache.
func (w *Worker) placeOffers(ctx context.Context, newListings []types.MarketListing, idx pageIndices, now int64) (int, error) {
	placed := 0
	for _, l := range newListings {
		if placed >= w.cfg.Runtime.MaxOffersPerCycle {
			break
		}
		rule, eval, ok := w.firstMatchingOfferRule(l, now)
		if !ok {
			continue
		}

		tk := l.TraitKey()
		in, cached := w.liq.Get(tk, now)
		if !cached {
			in = w.observeLiquidity(ctx, l, idx)
			w.liq.Put(tk, in, now)
		}
		if !strategy.LiquidityGate(w.cfg.Liquidity, in) {
			continue
		}

		key := OfferKey(l.NftID, rule.Name)
		if _, exists := w.actions.Get(key); exists {
			continue
		}

		capPrice := money.Quantize2(l.AskPrice.Sub(rule.OutbidStep))
		if rule.MaxOffer != nil && capPrice.GreaterThan(*rule.MaxOffer) {
			capPrice = *rule.MaxOffer
		}

		remoteID, err := w.client.PlaceOffer(ctx, l.NftID, eval.Price, rule.ExpirationDays)
		if err != nil {
			w.logger.Warn("place offer failed", "nft_id", l.NftID, "rule", rule.Name, "error", err)
			continue
		}
		expires := expiryFromRule(now, rule.ExpirationDays, rule.ExpirationSeconds)
		w.actions.Put(types.ManagedAction{
			Key: key, Kind: types.ActionOffer, RuleName: rule.Name,
			RemoteID: remoteID, NftID: l.NftID, Price: eval.Price,
			CapPrice: &capPrice, CreatedTS: now, ExpiresTS: expires,
		})
		w.notify.Notify("offer placed: " + l.Name + " @ " + eval.Price.StringFixed(2) + " (" + rule.Name + ")")
		placed++
	}
	return placed, nil
}

func (w *Worker) firstMatchingOfferRule(l types.MarketListing, now int64) (types.OfferOrderRule, strategy.OfferEvaluation, bool) {
	for _, rule := range w.cfg.OfferRules {
		if !rule.Enabled {
			continue
		}
		if !strategy.MatchesListing(rule.Selector, l, now) {
			continue
		}
		eval := strategy.EvaluateOfferPrice(l, rule)
		if eval.OK {
			return rule, eval, true
		}
	}
	return types.OfferOrderRule{}, strategy.OfferEvaluation{}, false
}

// observeLiquidity fetches recent sales for a listing's trait key and
// derives a LiquidityInput, used when the 45s cache has no fresh entry.
func (w *Worker) observeLiquidity(ctx context.Context, l types.MarketListing, idx pageIndices) strategy.LiquidityInput {
	raws, err := w.client.FetchRecentSales(ctx, l.CollectionID, l.Model, l.Background, 10)
	if err != nil {
		w.logger.Warn("fetch recent sales failed", "trait_key", l.TraitKey(), "error", err)
		return strategy.LiquidityInput{TotalActiveListings: idx.activeCount[l.TraitKey()], ListingFloorPrice: l.Floor()}
	}
	sales := make([]decimal.Decimal, 0, len(raws))
	for _, raw := range raws {
		if p, ok := raw["price"]; ok {
			if s, ok := p.(string); ok {
				if d, err := decimal.NewFromString(s); err == nil {
					sales = append(sales, d)
				}
			}
		}
	}
	return liquidity.DeriveInput(sales, idx.activeCount[l.TraitKey()], l.Floor())
}

// Step 5: maintain one order per order rule against the page's derived
// collection floor.
func (w *Worker) maintainOrders(ctx context.Context, listings []types.MarketListing, idx pageIndices, now int64) (int, error) {
	acted := 0
	for _, rule := range w.cfg.OrderRules {
		if !rule.Enabled {
			continue
		}
		floor, ok := deriveSelectorFloor(listings, rule.Selector, now)
		if !ok {
			continue
		}
		eval := strategy.EvaluateOrderPrice(floor, rule)
		if !eval.OK {
			continue
		}

		selKey := rule.Selector.Fingerprint()
		key := OrderKey(rule.Name, selKey)
		existing, exists := w.actions.Get(key)
		if !exists {
			remoteID, err := w.client.PlaceOrder(ctx, strategy.SelectorPayload(rule.Selector), eval.Price, rule.ExpirationDays)
			if err != nil {
				w.logger.Warn("place order failed", "rule", rule.Name, "error", err)
				continue
			}
			w.actions.Put(types.ManagedAction{
				Key: key, Kind: types.ActionOrder, RuleName: rule.Name,
				RemoteID: remoteID, SelectorKey: selKey, Price: eval.Price,
				CreatedTS: now, ExpiresTS: expiryFromRule(now, rule.ExpirationDays, rule.ExpirationSeconds),
			})
			acted++
			continue
		}
		if existing.Price.LessThan(eval.Price) {
			if err := w.client.CancelOrder(ctx, existing.RemoteID); err != nil {
				w.logger.Warn("cancel order for replace failed", "rule", rule.Name, "error", err)
				continue
			}
			w.actions.Delete(key)
			remoteID, err := w.client.PlaceOrder(ctx, strategy.SelectorPayload(rule.Selector), eval.Price, rule.ExpirationDays)
			if err != nil {
				w.logger.Warn("re-place order failed", "rule", rule.Name, "error", err)
				continue
			}
			w.actions.Put(types.ManagedAction{
				Key: key, Kind: types.ActionOrder, RuleName: rule.Name,
				RemoteID: remoteID, SelectorKey: selKey, Price: eval.Price,
				CreatedTS: now, ExpiresTS: expiryFromRule(now, rule.ExpirationDays, rule.ExpirationSeconds),
			})
			acted++
		}
	}
	return acted, nil
}

func deriveSelectorFloor(listings []types.MarketListing, sel types.RuleSelector, nowUnix int64) (decimal.Decimal, bool) {
	var floor decimal.Decimal
	found := false
	for _, l := range listings {
		if !strategy.MatchesListing(sel, l, nowUnix) {
			continue
		}
		f := l.Floor()
		if f == nil {
			continue
		}
		if !found || f.LessThan(floor) {
			floor = *f
			found = true
		}
	}
	return floor, found
}

// Steps 6 & 7: outbid synchronization for live offers and orders.
func (w *Worker) syncOutbidOffers(ctx context.Context) error {
	raws, err := w.client.FetchMyOffers(ctx, 200)
	if err != nil {
		return err
	}
	byNft := make(map[string]parse.RemoteAction, len(raws))
	for _, raw := range raws {
		if ra, ok := parse.RemoteActionFromRaw(raw); ok && ra.NftID != "" {
			byNft[ra.NftID] = ra
		}
	}

	for _, a := range w.actions.ByKind(types.ActionOffer) {
		rule := w.findOfferOrderRule(w.cfg.OfferRules, a.RuleName)
		if rule == nil || !rule.BumpIfOutbid {
			continue
		}
		remote, ok := byNft[a.NftID]
		if !ok {
			continue
		}
		target, shouldBump := strategy.ComputeBumpPrice(a.Price, remote.CompetitorPrice, rule.OutbidStep, a.CapPrice)
		if !shouldBump {
			continue
		}
		if err := w.replaceAction(ctx, a, target, func() error { return w.client.CancelOffer(ctx, a.RemoteID) },
			func() (string, error) { return w.client.PlaceOffer(ctx, a.NftID, target, rule.ExpirationDays) }); err != nil {
			w.logger.Warn("bump offer failed", "nft_id", a.NftID, "error", err)
		}
	}
	return nil
}

func (w *Worker) syncOutbidOrders(ctx context.Context) error {
	raws, err := w.client.FetchMyOrders(ctx, 200)
	if err != nil {
		return err
	}
	byRemoteID := make(map[string]parse.RemoteAction, len(raws))
	for _, raw := range raws {
		if ra, ok := parse.RemoteActionFromRaw(raw); ok {
			byRemoteID[ra.RemoteID] = ra
		}
	}

	for _, a := range w.actions.ByKind(types.ActionOrder) {
		rule := w.findOfferOrderRule(w.cfg.OrderRules, a.RuleName)
		if rule == nil || !rule.BumpIfOutbid {
			continue
		}
		remote, ok := byRemoteID[a.RemoteID]
		if !ok {
			continue
		}
		target, shouldBump := strategy.ComputeBumpPrice(a.Price, remote.CompetitorPrice, rule.OutbidStep, a.CapPrice)
		if !shouldBump {
			continue
		}
		payload := strategy.SelectorPayload(rule.Selector)
		if err := w.replaceAction(ctx, a, target, func() error { return w.client.CancelOrder(ctx, a.RemoteID) },
			func() (string, error) { return w.client.PlaceOrder(ctx, payload, target, rule.ExpirationDays) }); err != nil {
			w.logger.Warn("bump order failed", "rule", a.RuleName, "error", err)
		}
	}
	return nil
}

func (w *Worker) findOfferOrderRule(rules []types.OfferOrderRule, name string) *types.OfferOrderRule {
	for i := range rules {
		if rules[i].Name == name {
			return &rules[i]
		}
	}
	return nil
}

// replaceAction implements §4.7's replace sequence: cancel the remote
// side, drop the local entry, then create at the new price. A cancel
// failure leaves the action in place untouched.
func (w *Worker) replaceAction(ctx context.Context, a types.ManagedAction, target decimal.Decimal, cancel func() error, create func() (string, error)) error {
	if w.cfg.Runtime.DryRun {
		a.Price = target
		w.actions.Put(a)
		return nil
	}
	if err := cancel(); err != nil {
		return err
	}
	w.actions.Delete(a.Key)
	remoteID, err := create()
	if err != nil {
		return err
	}
	a.RemoteID = remoteID
	a.Price = target
	w.actions.Put(a)
	return nil
}

// Step 8: drop and cancel every action past its expiration.
func (w *Worker) expireActions(ctx context.Context, now int64) {
	for _, a := range w.actions.Expired(now) {
		var err error
		switch a.Kind {
		case types.ActionOffer:
			err = w.client.CancelOffer(ctx, a.RemoteID)
		case types.ActionOrder:
			err = w.client.CancelOrder(ctx, a.RemoteID)
		case types.ActionListing:
			err = w.client.CancelListing(ctx, a.RemoteID)
		}
		if err != nil {
			w.logger.Warn("expire cancel failed", "key", a.Key, "error", err)
			continue
		}
		w.actions.Delete(a.Key)
	}
}

// Step 9: list un-listed inventory against the first matching sell rule.
func (w *Worker) sellUnlistedInventory(ctx context.Context, idx pageIndices) error {
	invRaws, err := w.client.FetchInventory(ctx, 200)
	if err != nil {
		return err
	}
	gifts := parse.InventoryGifts(invRaws)

	for _, g := range gifts {
		if g.Listed {
			continue
		}
		rule, ok := w.firstMatchingSellRule(g)
		if !ok {
			continue
		}

		key := ListingKey(g.NftID, rule.Name)
		if _, exists := w.actions.Get(key); exists {
			continue
		}

		tk := types.TraitKey(g.CollectionID, g.Model, g.Background)
		var floor *decimal.Decimal
		if f, ok := idx.floorByTraits[tk]; ok {
			floor = &f
		}
		buy, err := w.ledger.GetBuyPrice(w.account.Name, g.NftID)
		if err != nil {
			w.logger.Warn("get buy price failed", "nft_id", g.NftID, "error", err)
		}

		price, ok := strategy.ComputeSellPrice(floor, buy, rule)
		if !ok {
			continue
		}

		remoteID, err := w.client.CreateListing(ctx, g.NftID, price, rule.ExpirationDays)
		if err != nil {
			w.logger.Warn("create listing failed", "nft_id", g.NftID, "error", err)
			continue
		}
		now := w.clock.NowUnix()
		w.actions.Put(types.ManagedAction{
			Key: key, Kind: types.ActionListing, RuleName: rule.Name,
			RemoteID: remoteID, NftID: g.NftID, Price: price,
			CreatedTS: now, ExpiresTS: expiryFromRule(now, rule.ExpirationDays, rule.ExpirationSeconds),
		})
		w.notify.Notify("listed: " + g.Name + " @ " + price.StringFixed(2) + " (" + rule.Name + ")")
	}
	return nil
}

func (w *Worker) firstMatchingSellRule(g types.InventoryGift) (types.SellRule, bool) {
	for _, rule := range w.cfg.SellRules {
		if !rule.Enabled {
			continue
		}
		if strategy.MatchesInventory(rule.Selector, g) {
			return rule, true
		}
	}
	return types.SellRule{}, false
}

// Step 10: reprice existing listings below a newly observed competitor
// floor, respecting the buy-price-derived minimum.
func (w *Worker) repriceListings(ctx context.Context, idx pageIndices) error {
	raws, err := w.client.FetchMyListings(ctx, 200)
	if err != nil {
		return err
	}

	for _, raw := range raws {
		remote, ok := parse.RemoteActionFromRaw(raw)
		if !ok || remote.Price == nil {
			continue
		}
		g, ok := parse.InventoryGift(raw)
		if !ok {
			continue
		}
		rule, ok := w.firstMatchingSellRule(g)
		if !ok || !rule.AutoRepriceBelowFloor {
			continue
		}

		tk := types.TraitKey(g.CollectionID, g.Model, g.Background)
		competitor, ok := idx.floorByTraits[tk]
		if !ok {
			continue
		}

		minPrice := rule.MinSellPrice
		if buy, err := w.ledger.GetBuyPrice(w.account.Name, g.NftID); err == nil && buy != nil {
			hundred := decimal.NewFromInt(100)
			floorFromBuy := money.Quantize2(buy.Mul(decimal.NewFromInt(1).Add(rule.MarkupPct.Div(hundred))))
			if minPrice == nil || floorFromBuy.GreaterThan(*minPrice) {
				minPrice = &floorFromBuy
			}
		}

		target, ok := strategy.ComputeReprice(&competitor, *remote.Price, rule.RepriceStep, minPrice)
		if !ok {
			continue
		}
		if err := w.client.UpdateListing(ctx, remote.RemoteID, target); err != nil {
			w.logger.Warn("update listing failed", "nft_id", g.NftID, "error", err)
			continue
		}
		w.notify.Notify("repriced: " + g.Name + " -> " + target.StringFixed(2))
	}
	return nil
}

// Step 11: ingest activity into the ledger, notifying on first acceptance.
func (w *Worker) ingestActivity(ctx context.Context) error {
	raws, err := w.client.FetchActivity(ctx, 200)
	if err != nil {
		return err
	}
	for _, raw := range raws {
		event, ok := parse.TradeEvent(w.account.Name, raw)
		if !ok {
			continue
		}
		accepted, err := w.ledger.RecordTrade(event)
		if err != nil {
			w.logger.Warn("record trade failed", "event_id", event.EventID, "error", err)
			continue
		}
		if accepted {
			w.notify.Notify(string(event.Kind) + ": " + event.GiftName + " @ " + event.Price.StringFixed(2))
		}
	}
	return nil
}

func expiryFromRule(now int64, days int, seconds *int64) *int64 {
	if seconds != nil {
		exp := now + *seconds
		return &exp
	}
	exp := now + int64(days)*86400
	return &exp
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
