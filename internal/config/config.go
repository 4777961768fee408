// Package config resolves the bot's configuration from CLI flags, the
// PORTAL_* / TELEGRAM_* environment variables, a strategy file, and an
// accounts file, producing an immutable types.AppConfig.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/ReNothingg/giftsniper/pkg/types"
)

const (
	defaultAPIBase     = "https://portals-market.com/api"
	defaultStateDBPath = "sniper-state.db"

	minIdleOrHotPoll  = 50 * time.Millisecond
	minOtherPollSecs  = 3

	defaultExpirationDays = 7
)

// Flags mirrors the sniper CLI's flag set (§6).
type Flags struct {
	APIBase      string
	AuthFile     string
	StrategyFile string
	AccountsFile string
	StateDBPath  string
	Live         bool
	NoWarmStart  bool
}

// Load resolves Flags plus environment variables plus the strategy and
// accounts files into a fully validated AppConfig. Any failure is returned
// as a *types.ConfigError.
func Load(flags Flags) (*types.AppConfig, error) {
	v := newViper()

	apiBase := resolve(flags.APIBase, v.GetString("api_base"), defaultAPIBase)
	strategyPath := resolve(flags.StrategyFile, v.GetString("strategy_file"), "")
	accountsPath := resolve(flags.AccountsFile, v.GetString("accounts_file"), "")
	stateDBPath := resolve(flags.StateDBPath, v.GetString("state_db_path"), defaultStateDBPath)
	authFile := resolve(flags.AuthFile, v.GetString("auth_file"), "")

	globalAuth, err := resolveGlobalAuth(v.GetString("auth"), authFile)
	if err != nil {
		return nil, err
	}

	var doc strategyFileDoc
	if strategyPath != "" {
		if err := readJSONFile(strategyPath, &doc); err != nil {
			return nil, &types.ConfigError{Msg: fmt.Sprintf("strategy file %q: %v", strategyPath, err)}
		}
	}
	bridgeLegacyStrategy(&doc)

	offerRules, err := resolveRules(doc.OfferRules, types.ModeOffer)
	if err != nil {
		return nil, err
	}
	orderRules, err := resolveRules(doc.OrderRules, types.ModeOrder)
	if err != nil {
		return nil, err
	}
	sellRules, err := resolveSellRules(doc.SellRules)
	if err != nil {
		return nil, err
	}

	runtime := resolveRuntime(doc.Runtime, flags, v)
	liquidity := resolveLiquidity(doc.Liquidity)

	accounts, err := resolveAccounts(accountsPath, globalAuth)
	if err != nil {
		return nil, err
	}

	telegram := resolveTelegram(doc.Telegram, v)

	var routes map[string]string
	if doc.API != nil {
		if doc.API.Base != "" {
			apiBase = doc.API.Base
		}
		routes = doc.API.Routes
	}

	cfg := &types.AppConfig{
		APIBase:     apiBase,
		Routes:      routes,
		Accounts:    accounts,
		OfferRules:  offerRules,
		OrderRules:  orderRules,
		SellRules:   sellRules,
		Liquidity:   liquidity,
		Runtime:     runtime,
		StateDBPath: stateDBPath,
		Telegram:    telegram,
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	_ = v.BindEnv("api_base", "PORTAL_API_BASE")
	_ = v.BindEnv("auth", "PORTAL_AUTH")
	_ = v.BindEnv("auth_file", "AUTH_FILE")
	_ = v.BindEnv("strategy_file", "STRATEGY_FILE")
	_ = v.BindEnv("accounts_file", "PORTAL_ACCOUNTS_FILE")
	_ = v.BindEnv("state_db_path", "STATE_DB_PATH")
	_ = v.BindEnv("telegram_token", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("telegram_chat_ids", "TELEGRAM_CHAT_IDS")
	_ = v.BindEnv("telegram_enabled", "TELEGRAM_ENABLED")
	return v
}

// resolve returns the first non-empty value among flag, env, default.
func resolve(flagVal, envVal, fallback string) string {
	if flagVal != "" {
		return flagVal
	}
	if envVal != "" {
		return envVal
	}
	return fallback
}

func resolveGlobalAuth(envAuth, authFile string) (string, error) {
	if envAuth != "" {
		return envAuth, nil
	}
	if authFile != "" {
		raw, err := os.ReadFile(authFile)
		if err != nil {
			return "", &types.ConfigError{Msg: fmt.Sprintf("auth file %q: %v", authFile, err)}
		}
		return strings.TrimSpace(string(raw)), nil
	}
	return "", nil
}

func readJSONFile(path string, dest any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// ————————————————————————————————————————————————————————————————————————
// Strategy file shape
// ————————————————————————————————————————————————————————————————————————

type ruleSelectorDoc struct {
	CollectionIDs     []string `json:"collection_ids"`
	GiftNames         []string `json:"gift_names"`
	Models            []string `json:"models"`
	Backgrounds       []string `json:"backgrounds"`
	NameContains      []string `json:"name_contains"`
	OnlyRecentSeconds *int64   `json:"only_recent_seconds"`
}

func (d ruleSelectorDoc) isEmpty() bool {
	return len(d.CollectionIDs) == 0 && len(d.GiftNames) == 0 && len(d.Models) == 0 &&
		len(d.Backgrounds) == 0 && len(d.NameContains) == 0 && d.OnlyRecentSeconds == nil
}

func (d ruleSelectorDoc) toSelector() types.RuleSelector {
	var recent int64
	if d.OnlyRecentSeconds != nil {
		recent = *d.OnlyRecentSeconds
	}
	return types.RuleSelector{
		CollectionIDs:     lowerAll(d.CollectionIDs),
		GiftNames:         lowerAll(d.GiftNames),
		Models:            lowerAll(d.Models),
		Backgrounds:       lowerAll(d.Backgrounds),
		NameContains:      lowerAll(d.NameContains),
		OnlyRecentSeconds: recent,
	}
}

func lowerAll(vals []string) []string {
	if vals == nil {
		return nil
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = strings.ToLower(v)
	}
	return out
}

type offerOrderRuleDoc struct {
	Name               string           `json:"name"`
	Enabled            *bool            `json:"enabled"`
	Mode               string           `json:"mode"`
	Selector           ruleSelectorDoc  `json:"selector"`
	OfferFactor        *decimal.Decimal `json:"offer_factor"`
	MinOffer           *decimal.Decimal `json:"min_offer"`
	MaxOffer           *decimal.Decimal `json:"max_offer"`
	MinAsk             *decimal.Decimal `json:"min_ask"`
	MaxAsk             *decimal.Decimal `json:"max_ask"`
	MinFloor           *decimal.Decimal `json:"min_floor"`
	MaxFloor           *decimal.Decimal `json:"max_floor"`
	MaxListingToFloor  *decimal.Decimal `json:"max_listing_to_floor"`
	MinDiscountPct     *decimal.Decimal `json:"min_discount_pct"`
	MaxDiscountPct     *decimal.Decimal `json:"max_discount_pct"`
	OutbidStep         *decimal.Decimal `json:"outbid_step"`
	BumpIfOutbid       *bool            `json:"bump_if_outbid"`
	SkipCrafted        *bool            `json:"skip_crafted"`
	ExpirationDays     *int             `json:"expiration_days"`
	ExpirationSeconds  *int64           `json:"expiration_seconds"`
	MaxActionsPerCycle *int             `json:"max_actions_per_cycle"`
}

// mergeOver fills any nil field of r with the corresponding field of base,
// used to apply legacy "defaults" onto a per-rule override document.
func (r offerOrderRuleDoc) mergeOver(base offerOrderRuleDoc) offerOrderRuleDoc {
	out := r
	if out.Enabled == nil {
		out.Enabled = base.Enabled
	}
	if out.Mode == "" {
		out.Mode = base.Mode
	}
	if out.Selector.isEmpty() {
		out.Selector = base.Selector
	}
	if out.OfferFactor == nil {
		out.OfferFactor = base.OfferFactor
	}
	if out.MinOffer == nil {
		out.MinOffer = base.MinOffer
	}
	if out.MaxOffer == nil {
		out.MaxOffer = base.MaxOffer
	}
	if out.MinAsk == nil {
		out.MinAsk = base.MinAsk
	}
	if out.MaxAsk == nil {
		out.MaxAsk = base.MaxAsk
	}
	if out.MinFloor == nil {
		out.MinFloor = base.MinFloor
	}
	if out.MaxFloor == nil {
		out.MaxFloor = base.MaxFloor
	}
	if out.MaxListingToFloor == nil {
		out.MaxListingToFloor = base.MaxListingToFloor
	}
	if out.MinDiscountPct == nil {
		out.MinDiscountPct = base.MinDiscountPct
	}
	if out.MaxDiscountPct == nil {
		out.MaxDiscountPct = base.MaxDiscountPct
	}
	if out.OutbidStep == nil {
		out.OutbidStep = base.OutbidStep
	}
	if out.BumpIfOutbid == nil {
		out.BumpIfOutbid = base.BumpIfOutbid
	}
	if out.SkipCrafted == nil {
		out.SkipCrafted = base.SkipCrafted
	}
	if out.ExpirationDays == nil {
		out.ExpirationDays = base.ExpirationDays
	}
	if out.ExpirationSeconds == nil {
		out.ExpirationSeconds = base.ExpirationSeconds
	}
	if out.MaxActionsPerCycle == nil {
		out.MaxActionsPerCycle = base.MaxActionsPerCycle
	}
	return out
}

type sellRuleDoc struct {
	Name                  string           `json:"name"`
	Enabled               *bool            `json:"enabled"`
	Selector              ruleSelectorDoc  `json:"selector"`
	MarkupPct             *decimal.Decimal `json:"markup_pct"`
	FloorUndercutStep     *decimal.Decimal `json:"floor_undercut_step"`
	MinSellPrice          *decimal.Decimal `json:"min_sell_price"`
	MaxSellPrice          *decimal.Decimal `json:"max_sell_price"`
	AutoRepriceBelowFloor *bool            `json:"auto_reprice_below_floor"`
	RepriceStep           *decimal.Decimal `json:"reprice_step"`
	ExpirationDays        *int             `json:"expiration_days"`
	ExpirationSeconds     *int64           `json:"expiration_seconds"`
}

type runtimeDoc struct {
	DryRun                *bool    `json:"dry_run"`
	IdlePollInterval      *float64 `json:"idle_poll_interval"`
	HotPollInterval       *float64 `json:"hot_poll_interval"`
	HotCycles             *int     `json:"hot_cycles"`
	RequestTimeout        *float64 `json:"request_timeout"`
	SearchLimit           *int     `json:"search_limit"`
	WarmStart             *bool    `json:"warm_start"`
	SeenCacheSize         *int     `json:"seen_cache_size"`
	SeenBreakStreak       *int     `json:"seen_break_streak"`
	MaxNewPerCycle        *int     `json:"max_new_per_cycle"`
	MaxOffersPerCycle     *int     `json:"max_offers_per_cycle"`
	ActivityPollEverySec  *int     `json:"activity_poll_every_sec"`
	InventoryPollEverySec *int     `json:"inventory_poll_every_sec"`
	OrdersPollEverySec    *int     `json:"orders_poll_every_sec"`
	ListingsPollEverySec  *int     `json:"listings_poll_every_sec"`
}

type liquidityDoc struct {
	Enabled            *bool            `json:"enabled"`
	MinRecentSales     *int             `json:"min_recent_sales"`
	MinSellThrough     *decimal.Decimal `json:"min_sell_through"`
	MaxFloorToLastSale *decimal.Decimal `json:"max_floor_to_last_sale"`
}

type apiDoc struct {
	Base   string            `json:"base"`
	Routes map[string]string `json:"routes"`
}

type telegramDoc struct {
	Enabled *bool   `json:"enabled"`
	Token   string  `json:"token"`
	ChatIDs []int64 `json:"chat_ids"`
}

type strategyFileDoc struct {
	OfferRules []offerOrderRuleDoc `json:"offer_rules"`
	OrderRules []offerOrderRuleDoc `json:"order_rules"`
	SellRules  []sellRuleDoc       `json:"sell_rules"`
	Runtime    *runtimeDoc         `json:"runtime"`
	Liquidity  *liquidityDoc       `json:"liquidity"`
	API        *apiDoc             `json:"api"`
	Telegram   *telegramDoc        `json:"telegram"`

	// Legacy shape, bridged by bridgeLegacyStrategy.
	Rules         []offerOrderRuleDoc `json:"rules"`
	GlobalOffer   *offerOrderRuleDoc  `json:"global_offer"`
	GlobalFilters *ruleSelectorDoc    `json:"global_filters"`
	Defaults      *offerOrderRuleDoc  `json:"defaults"`
}

// bridgeLegacyStrategy converts the legacy rules/global_offer/global_filters
// /defaults shape into offer_rules, when the modern arrays are absent (§4.2).
func bridgeLegacyStrategy(doc *strategyFileDoc) {
	if len(doc.OfferRules) > 0 || len(doc.OrderRules) > 0 || len(doc.SellRules) > 0 {
		return
	}
	if len(doc.Rules) == 0 && doc.Defaults == nil && doc.GlobalOffer == nil {
		return
	}

	var base offerOrderRuleDoc
	if doc.Defaults != nil {
		base = *doc.Defaults
	}
	if doc.GlobalOffer != nil {
		base = doc.GlobalOffer.mergeOver(base)
	}
	if doc.GlobalFilters != nil && base.Selector.isEmpty() {
		base.Selector = *doc.GlobalFilters
	}

	if len(doc.Rules) == 0 {
		base.Name = "default_offer_rule"
		if base.Mode == "" {
			base.Mode = string(types.ModeOffer)
		}
		doc.OfferRules = []offerOrderRuleDoc{base}
		return
	}

	for _, item := range doc.Rules {
		merged := item.mergeOver(base)
		if merged.Mode == "" {
			merged.Mode = string(types.ModeOffer)
		}
		doc.OfferRules = append(doc.OfferRules, merged)
	}
}

// ————————————————————————————————————————————————————————————————————————
// Rule resolution & validation
// ————————————————————————————————————————————————————————————————————————

func resolveRules(docs []offerOrderRuleDoc, mode types.RuleMode) ([]types.OfferOrderRule, error) {
	out := make([]types.OfferOrderRule, 0, len(docs))
	for _, d := range docs {
		r, err := resolveRule(d, mode)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func resolveRule(d offerOrderRuleDoc, defaultMode types.RuleMode) (types.OfferOrderRule, error) {
	if d.Name == "" {
		return types.OfferOrderRule{}, &types.ConfigError{Msg: "rule name is required"}
	}
	mode := defaultMode
	if d.Mode != "" {
		mode = types.RuleMode(d.Mode)
	}
	if mode != types.ModeOffer && mode != types.ModeOrder {
		return types.OfferOrderRule{}, &types.ConfigError{Msg: fmt.Sprintf("rule %q: invalid mode %q", d.Name, d.Mode)}
	}

	r := types.OfferOrderRule{
		Name:               d.Name,
		Enabled:            boolOr(d.Enabled, true),
		Mode:               mode,
		Selector:           d.Selector.toSelector(),
		OfferFactor:        decimalOr(d.OfferFactor, decimal.NewFromFloat(0.85)),
		MinOffer:           decimalOr(d.MinOffer, decimal.NewFromFloat(0.10)),
		MaxOffer:           d.MaxOffer,
		MinAsk:             d.MinAsk,
		MaxAsk:             d.MaxAsk,
		MinFloor:           d.MinFloor,
		MaxFloor:           d.MaxFloor,
		MaxListingToFloor:  decimalOr(d.MaxListingToFloor, decimal.NewFromFloat(1.25)),
		MinDiscountPct:     d.MinDiscountPct,
		MaxDiscountPct:     d.MaxDiscountPct,
		OutbidStep:         decimalOr(d.OutbidStep, decimal.NewFromFloat(0.01)),
		BumpIfOutbid:       boolOr(d.BumpIfOutbid, true),
		SkipCrafted:        boolOr(d.SkipCrafted, true),
		ExpirationDays:     clampExpirationDays(intOr(d.ExpirationDays, defaultExpirationDays)),
		ExpirationSeconds:  d.ExpirationSeconds,
		MaxActionsPerCycle: intOr(d.MaxActionsPerCycle, 4),
	}

	if !r.OfferFactor.GreaterThan(decimal.Zero) {
		return types.OfferOrderRule{}, &types.ConfigError{Msg: fmt.Sprintf("rule %q: offer_factor must be > 0", r.Name)}
	}
	if !r.MaxListingToFloor.GreaterThan(decimal.Zero) {
		return types.OfferOrderRule{}, &types.ConfigError{Msg: fmt.Sprintf("rule %q: max_listing_to_floor must be > 0", r.Name)}
	}
	if invertedPair(r.MinAsk, r.MaxAsk) || invertedPair(r.MinFloor, r.MaxFloor) || invertedDecPtr(r.MinDiscountPct, r.MaxDiscountPct) {
		return types.OfferOrderRule{}, &types.ConfigError{Msg: fmt.Sprintf("rule %q: inverted min/max bound", r.Name)}
	}
	return r, nil
}

func resolveSellRules(docs []sellRuleDoc) ([]types.SellRule, error) {
	out := make([]types.SellRule, 0, len(docs))
	for _, d := range docs {
		if d.Name == "" {
			return nil, &types.ConfigError{Msg: "sell rule name is required"}
		}
		r := types.SellRule{
			Name:                  d.Name,
			Enabled:               boolOr(d.Enabled, true),
			Selector:              d.Selector.toSelector(),
			MarkupPct:             decimalOr(d.MarkupPct, decimal.Zero),
			FloorUndercutStep:     decimalOr(d.FloorUndercutStep, decimal.NewFromFloat(0.01)),
			MinSellPrice:          d.MinSellPrice,
			MaxSellPrice:          d.MaxSellPrice,
			AutoRepriceBelowFloor: boolOr(d.AutoRepriceBelowFloor, false),
			RepriceStep:           decimalOr(d.RepriceStep, decimal.NewFromFloat(0.01)),
			ExpirationDays:        clampExpirationDays(intOr(d.ExpirationDays, defaultExpirationDays)),
			ExpirationSeconds:     d.ExpirationSeconds,
		}
		if invertedPair(r.MinSellPrice, r.MaxSellPrice) {
			return nil, &types.ConfigError{Msg: fmt.Sprintf("sell rule %q: inverted min/max sell price", r.Name)}
		}
		out = append(out, r)
	}
	return out, nil
}

func resolveRuntime(d *runtimeDoc, flags Flags, v *viper.Viper) types.RuntimeSettings {
	if d == nil {
		d = &runtimeDoc{}
	}
	rt := types.RuntimeSettings{
		DryRun:                !flags.Live && boolOr(d.DryRun, true),
		IdlePollInterval:      clampDuration(secondsOr(d.IdlePollInterval, 4.0), minIdleOrHotPoll),
		HotPollInterval:       clampDuration(secondsOr(d.HotPollInterval, 0.75), minIdleOrHotPoll),
		HotCycles:             intOr(d.HotCycles, 3),
		RequestTimeout:        clampDuration(secondsOr(d.RequestTimeout, 6.0), time.Second),
		SearchLimit:           intOr(d.SearchLimit, 50),
		WarmStart:             !flags.NoWarmStart && boolOr(d.WarmStart, true),
		SeenCacheSize:         intOr(d.SeenCacheSize, 2000),
		SeenBreakStreak:       intOr(d.SeenBreakStreak, 20),
		MaxNewPerCycle:        intOr(d.MaxNewPerCycle, 20),
		MaxOffersPerCycle:     intOr(d.MaxOffersPerCycle, 10),
		ActivityPollEverySec:  clampPollSeconds(intOr(d.ActivityPollEverySec, 30)),
		InventoryPollEverySec: clampPollSeconds(intOr(d.InventoryPollEverySec, 60)),
		OrdersPollEverySec:    clampPollSeconds(intOr(d.OrdersPollEverySec, 45)),
		ListingsPollEverySec:  clampPollSeconds(intOr(d.ListingsPollEverySec, 60)),
	}
	if flags.Live {
		rt.DryRun = false
	}
	_ = v // reserved for future scalar overrides of runtime settings
	return rt
}

func resolveLiquidity(d *liquidityDoc) types.LiquiditySettings {
	if d == nil {
		return types.LiquiditySettings{
			Enabled:            true,
			MinRecentSales:     2,
			MinSellThrough:     decimal.NewFromFloat(0.02),
			MaxFloorToLastSale: decimalPtrOr(nil, decimal.NewFromFloat(1.8)),
		}
	}
	return types.LiquiditySettings{
		Enabled:            boolOr(d.Enabled, true),
		MinRecentSales:     intOr(d.MinRecentSales, 2),
		MinSellThrough:     decimalOr(d.MinSellThrough, decimal.NewFromFloat(0.02)),
		MaxFloorToLastSale: decimalPtrOr(d.MaxFloorToLastSale, decimal.NewFromFloat(1.8)),
	}
}

func resolveTelegram(d *telegramDoc, v *viper.Viper) types.TelegramConfig {
	cfg := types.TelegramConfig{}
	if d != nil {
		cfg.Enabled = boolOr(d.Enabled, false)
		cfg.Token = d.Token
		cfg.ChatIDs = d.ChatIDs
	}
	if tok := v.GetString("telegram_token"); tok != "" {
		cfg.Token = tok
	}
	if ids := v.GetString("telegram_chat_ids"); ids != "" {
		cfg.ChatIDs = parseChatIDs(ids)
	}
	if raw := v.GetString("telegram_enabled"); raw != "" {
		if b, err := strconv.ParseBool(raw); err == nil {
			cfg.Enabled = b
		}
	}
	if cfg.Token == "" {
		cfg.Enabled = false
	}
	return cfg
}

func parseChatIDs(raw string) []int64 {
	parts := strings.Split(raw, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if id, err := strconv.ParseInt(p, 10, 64); err == nil {
			out = append(out, id)
		}
	}
	return out
}

// ————————————————————————————————————————————————————————————————————————
// Accounts file
// ————————————————————————————————————————————————————————————————————————

type accountDoc struct {
	Name    string `json:"name"`
	Auth    string `json:"auth"`
	AuthEnv string `json:"auth_env"`
}

type accountsFileDoc struct {
	Accounts []accountDoc `json:"accounts"`
}

func resolveAccounts(path, globalAuth string) ([]types.Account, error) {
	if path == "" {
		return synthesizeMainAccount(globalAuth)
	}
	var doc accountsFileDoc
	if err := readJSONFile(path, &doc); err != nil {
		return nil, &types.ConfigError{Msg: fmt.Sprintf("accounts file %q: %v", path, err)}
	}
	if len(doc.Accounts) == 0 {
		return synthesizeMainAccount(globalAuth)
	}

	out := make([]types.Account, 0, len(doc.Accounts))
	for _, a := range doc.Accounts {
		if a.Name == "" {
			return nil, &types.ConfigError{Msg: "account entry missing name"}
		}
		auth := a.Auth
		if auth == "" && a.AuthEnv != "" {
			auth = os.Getenv(a.AuthEnv)
		}
		if auth == "" {
			return nil, &types.ConfigError{Msg: fmt.Sprintf("account %q: could not resolve auth", a.Name)}
		}
		out = append(out, types.Account{Name: a.Name, Auth: auth})
	}
	return out, nil
}

func synthesizeMainAccount(globalAuth string) ([]types.Account, error) {
	if globalAuth == "" {
		return nil, &types.ConfigError{Msg: "no accounts configured and no global auth source resolved"}
	}
	return []types.Account{{Name: "main", Auth: globalAuth}}, nil
}

// ————————————————————————————————————————————————————————————————————————
// Validation & small helpers
// ————————————————————————————————————————————————————————————————————————

func validate(cfg *types.AppConfig) error {
	if cfg.APIBase == "" {
		return &types.ConfigError{Msg: "api base url is required"}
	}
	if len(cfg.Accounts) == 0 {
		return &types.ConfigError{Msg: "at least one account is required"}
	}
	if len(cfg.OfferRules) == 0 && len(cfg.OrderRules) == 0 && len(cfg.SellRules) == 0 {
		return &types.ConfigError{Msg: "no offer, order, or sell rules configured"}
	}
	return nil
}

func clampExpirationDays(days int) int {
	if days < 1 {
		return 1
	}
	if days > 30 {
		return 30
	}
	return days
}

func clampDuration(d time.Duration, floor time.Duration) time.Duration {
	if d < floor {
		return floor
	}
	return d
}

func clampPollSeconds(secs int) int {
	if secs < minOtherPollSecs {
		return minOtherPollSecs
	}
	return secs
}

func boolOr(p *bool, fallback bool) bool {
	if p == nil {
		return fallback
	}
	return *p
}

func intOr(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}

func secondsOr(p *float64, fallback float64) time.Duration {
	if p == nil {
		return time.Duration(fallback * float64(time.Second))
	}
	return time.Duration(*p * float64(time.Second))
}

func decimalOr(p *decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
	if p == nil {
		return fallback
	}
	return *p
}

func decimalPtrOr(p *decimal.Decimal, fallback decimal.Decimal) *decimal.Decimal {
	if p == nil {
		return &fallback
	}
	return p
}

func invertedPair(min, max *decimal.Decimal) bool {
	if min == nil || max == nil {
		return false
	}
	return min.GreaterThan(*max)
}

func invertedDecPtr(min, max *decimal.Decimal) bool {
	return invertedPair(min, max)
}
