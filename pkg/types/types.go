// Package types defines shared data structures used across all packages.
//
// This package is the common vocabulary for the bot — listings, inventory,
// rules, actions, and trade events. It has no dependencies on internal
// packages, so it can be imported by any layer.
package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ————————————————————————————————————————————————————————————————————————
// Rule selectors
// ————————————————————————————————————————————————————————————————————————

// RuleSelector is a conjunction of optional filters used to match listings
// and inventory gifts. Every non-empty set must match; an empty set imposes
// no constraint. All string comparisons are case-insensitive.
type RuleSelector struct {
	CollectionIDs     []string // lowercased, allowed collection ids
	GiftNames         []string // lowercased, allowed gift names
	Models            []string // lowercased, allowed models
	Backgrounds       []string // lowercased, allowed backgrounds
	NameContains      []string // lowercased substrings, any-of match against name
	OnlyRecentSeconds int64    // 0 = no freshness window
}

// Fingerprint returns a stable string key built from the selector's
// normalized parts, suitable as a map key for order-rule action keys.
func (s RuleSelector) Fingerprint() string {
	return fmt.Sprintf(
		"c=%s|g=%s|m=%s|b=%s|n=%s|r=%d",
		joinSorted(s.CollectionIDs),
		joinSorted(s.GiftNames),
		joinSorted(s.Models),
		joinSorted(s.Backgrounds),
		joinSorted(s.NameContains),
		s.OnlyRecentSeconds,
	)
}

// Equal reports whether two selectors have identical normalized tuples.
func (s RuleSelector) Equal(other RuleSelector) bool {
	return s.Fingerprint() == other.Fingerprint()
}

func joinSorted(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	cp := append([]string(nil), vals...)
	sortStrings(cp)
	out := cp[0]
	for _, v := range cp[1:] {
		out += "," + v
	}
	return out
}

// sortStrings is a tiny insertion sort, enough for a handful of selector
// entries, keeping Fingerprint deterministic without pulling in sort.
func sortStrings(vals []string) {
	for i := 1; i < len(vals); i++ {
		for j := i; j > 0 && vals[j-1] > vals[j]; j-- {
			vals[j-1], vals[j] = vals[j], vals[j-1]
		}
	}
}

// ————————————————————————————————————————————————————————————————————————
// Rules
// ————————————————————————————————————————————————————————————————————————

// RuleMode distinguishes per-listing offers from collection-wide orders.
type RuleMode string

const (
	ModeOffer RuleMode = "offer"
	ModeOrder RuleMode = "order"
)

// OfferOrderRule is a buy-side rule: either an "offer" against a specific
// listing or an "order" against a collection's floor.
type OfferOrderRule struct {
	Name     string // unique
	Enabled  bool
	Mode     RuleMode
	Selector RuleSelector

	OfferFactor        decimal.Decimal // default 0.85
	MinOffer           decimal.Decimal // default 0.10
	MaxOffer           *decimal.Decimal
	MinAsk             *decimal.Decimal
	MaxAsk             *decimal.Decimal
	MinFloor           *decimal.Decimal
	MaxFloor           *decimal.Decimal
	MaxListingToFloor  decimal.Decimal // default 1.25
	MinDiscountPct     *decimal.Decimal
	MaxDiscountPct     *decimal.Decimal
	OutbidStep         decimal.Decimal // default 0.01
	BumpIfOutbid       bool            // default true
	SkipCrafted        bool            // default true
	ExpirationDays     int             // clamped [1,30]
	ExpirationSeconds  *int64
	MaxActionsPerCycle int // default 4
}

// SellRule is a sell-side rule applied to un-listed inventory and existing
// listings (for reprice-below-floor).
type SellRule struct {
	Name     string
	Enabled  bool
	Selector RuleSelector

	MarkupPct             decimal.Decimal
	FloorUndercutStep     decimal.Decimal
	MinSellPrice          *decimal.Decimal
	MaxSellPrice          *decimal.Decimal
	AutoRepriceBelowFloor bool
	RepriceStep           decimal.Decimal
	ExpirationDays        int
	ExpirationSeconds     *int64
}

// LiquiditySettings gates buy-side actions on recent demand signals.
type LiquiditySettings struct {
	Enabled            bool
	MinRecentSales     int             // default 2
	MinSellThrough     decimal.Decimal // default 0.02
	MaxFloorToLastSale *decimal.Decimal // default 1.8
}

// RuntimeSettings tunes the account worker's polling cadence and limits.
type RuntimeSettings struct {
	DryRun                bool
	IdlePollInterval      time.Duration
	HotPollInterval       time.Duration
	HotCycles             int
	RequestTimeout        time.Duration
	SearchLimit           int
	WarmStart             bool
	SeenCacheSize         int
	SeenBreakStreak       int
	MaxNewPerCycle        int
	MaxOffersPerCycle     int
	ActivityPollEverySec  int
	InventoryPollEverySec int
	OrdersPollEverySec    int
	ListingsPollEverySec  int
}

// ————————————————————————————————————————————————————————————————————————
// Market model
// ————————————————————————————————————————————————————————————————————————

// MarketListing is a parsed, typed view of a marketplace listing.
type MarketListing struct {
	NftID        string
	Name         string
	CollectionID string
	TgID         string
	AskPrice     *decimal.Decimal
	FloorPrice   *decimal.Decimal // falls back to AskPrice when absent
	ListedAtTS   *int64
	Model        string
	Background   string
	IsCrafted    bool
	Raw          map[string]any // unparsed bag, for fields the client layer didn't type
}

// Floor returns the effective floor price: FloorPrice if present, else
// AskPrice, else nil.
func (l MarketListing) Floor() *decimal.Decimal {
	if l.FloorPrice != nil {
		return l.FloorPrice
	}
	return l.AskPrice
}

// TraitKey is the unit of aggregation for floor and liquidity:
// lower(collection_id)|lower(model)|lower(background).
func (l MarketListing) TraitKey() string {
	return traitKey(l.CollectionID, l.Model, l.Background)
}

func traitKey(collectionID, model, background string) string {
	return lower(collectionID) + "|" + lower(model) + "|" + lower(background)
}

// TraitKey builds a trait key from raw parts, used when the values come
// from something other than a MarketListing (such as an inventory gift).
func TraitKey(collectionID, model, background string) string {
	return traitKey(collectionID, model, background)
}

func lower(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// InventoryGift is a parsed, typed view of an owned gift in an account's
// inventory.
type InventoryGift struct {
	NftID        string
	Name         string
	CollectionID string
	Model        string
	Background   string
	Listed       bool
	Raw          map[string]any
}

// ————————————————————————————————————————————————————————————————————————
// Managed actions
// ————————————————————————————————————————————————————————————————————————

// ActionKind distinguishes the three kinds of remote state the worker
// tracks in its action table.
type ActionKind string

const (
	ActionOffer   ActionKind = "offer"
	ActionOrder   ActionKind = "order"
	ActionListing ActionKind = "listing"
)

// ManagedAction is a single tracked remote side effect (an open offer,
// order, or listing) keyed by Key. At most one ManagedAction exists per
// key at any time; see internal/worker's action table.
type ManagedAction struct {
	Key         string
	Kind        ActionKind
	RuleName    string
	RemoteID    string
	NftID       string
	SelectorKey string
	Price       decimal.Decimal
	CapPrice    *decimal.Decimal
	CreatedTS   int64
	ExpiresTS   *int64
	Extra       map[string]any
}

// ————————————————————————————————————————————————————————————————————————
// Trade ledger
// ————————————————————————————————————————————————————————————————————————

// TradeEventKind distinguishes buy fills from sell fills.
type TradeEventKind string

const (
	EventBuy  TradeEventKind = "buy"
	EventSell TradeEventKind = "sell"
)

// TradeEvent is a single marketplace-assigned activity entry, ready to be
// recorded into the ledger. Primary key is (Account, EventID); duplicate
// inserts are a no-op.
type TradeEvent struct {
	Account    string
	EventID    string
	Kind       TradeEventKind
	NftID      string
	GiftName   string
	Model      string
	Background string
	Price      decimal.Decimal
	Fee        decimal.Decimal
	TS         int64
}

// PositionStatus distinguishes an open position (bought, not yet sold) from
// a closed one.
type PositionStatus string

const (
	PositionOpen   PositionStatus = "open"
	PositionClosed PositionStatus = "closed"
)

// Position is the per-(account,nft_id) ledger aggregate derived from
// recorded TradeEvents.
type Position struct {
	Account    string
	NftID      string
	GiftName   string
	Model      string
	Background string
	BuyPrice   decimal.Decimal // 0 if opened by a sell event without a prior buy
	BuyTS      int64
	SellPrice  decimal.Decimal
	SellTS     int64
	Status     PositionStatus
}

// ProfitStats aggregates ledger activity over a window.
type ProfitStats struct {
	BuyCount       int
	SellCount      int
	TotalBuy       decimal.Decimal
	TotalSell      decimal.Decimal
	TotalFee       decimal.Decimal
	NetProfit      decimal.Decimal // TotalSell - TotalBuy - TotalFee
	RealizedProfit decimal.Decimal // sum(sell_price - buy_price) over closed positions in window
}

// ————————————————————————————————————————————————————————————————————————
// Accounts & config
// ————————————————————————————————————————————————————————————————————————

// Account is one configured marketplace identity the engine trades under.
type Account struct {
	Name string
	Auth string // resolved bearer token
}

// AppConfig is the fully resolved, immutable configuration produced by the
// configuration loader (internal/config).
type AppConfig struct {
	APIBase     string
	Routes      map[string]string // overridable route templates, keyed by logical route name
	Accounts    []Account
	OfferRules  []OfferOrderRule
	OrderRules  []OfferOrderRule
	SellRules   []SellRule
	Liquidity   LiquiditySettings
	Runtime     RuntimeSettings
	StateDBPath string
	Telegram    TelegramConfig
}

// TelegramConfig configures the chat collaborator (§4.9). It is optional:
// the engine never requires it to be enabled.
type TelegramConfig struct {
	Enabled bool
	Token   string
	ChatIDs []int64
}

// ————————————————————————————————————————————————————————————————————————
// Error kinds (§7)
// ————————————————————————————————————————————————————————————————————————

// ConfigError is raised synchronously at startup and terminates the
// process with exit code 1.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return "config: " + e.Msg }

// AuthError means check_auth failed at worker start; the worker enters a
// terminal auth_fail state while other workers continue.
type AuthError struct {
	Msg string
}

func (e *AuthError) Error() string { return "auth: " + e.Msg }

// TransportError wraps a non-2xx marketplace response or network failure.
type TransportError struct {
	Code    int
	Message string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: status %d: %s", e.Code, e.Message)
}

// LedgerError wraps a failure to record a trade or query the ledger. The
// offending event is safe to retry: recording is idempotent.
type LedgerError struct {
	Msg string
	Err error
}

func (e *LedgerError) Error() string { return "ledger: " + e.Msg + ": " + e.Err.Error() }
func (e *LedgerError) Unwrap() error  { return e.Err }

// NotifyOverflow means the chat collaborator's notification queue was
// full; the notification was dropped, never blocking the worker.
type NotifyOverflow struct {
	Text string
}

func (e *NotifyOverflow) Error() string { return "notify overflow: dropped notification" }
