package telegram

import (
	"fmt"
	"strings"
	"time"

	"github.com/ReNothingg/giftsniper/internal/ledger"
)

// WorkerStatus is one row of the supervisor's status snapshot, read by the
// workers command.
type WorkerStatus struct {
	Account string
	Status  string
}

// StatusSnapshotFunc is the supervisor-provided callback the workers command
// reads from; it never touches worker internals directly.
type StatusSnapshotFunc func() []WorkerStatus

// CommandRouter dispatches the six read-only commands in §4.9, all
// answered from the ledger and the status snapshot callback.
type CommandRouter struct {
	led      *ledger.Ledger
	snapshot StatusSnapshotFunc
}

// NewCommandRouter builds a CommandRouter. snapshot may be nil, in which
// case the workers command reports that no snapshot is available.
func NewCommandRouter(led *ledger.Ledger, snapshot StatusSnapshotFunc) *CommandRouter {
	return &CommandRouter{led: led, snapshot: snapshot}
}

// HandleCommand dispatches one inbound message's text, generalized from the
// teacher's switch-over-Fields dispatch to the spec's six read-only verbs.
func (r *CommandRouter) HandleCommand(text string) string {
	parts := strings.Fields(text)
	if len(parts) == 0 {
		return ""
	}
	cmd := strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	switch cmd {
	case "start":
		return "giftsniper chat collaborator online. Commands: stats, today, positions, last, workers."
	case "stats":
		return r.stats(0)
	case "today":
		return r.stats(todayStartUnix())
	case "positions":
		return r.positions()
	case "last":
		return r.last()
	case "workers":
		return r.workers()
	default:
		return "Unknown command. Try: stats, today, positions, last, workers."
	}
}

func (r *CommandRouter) stats(sinceTS int64) string {
	s, err := r.led.GetProfitStats("", sinceTS)
	if err != nil {
		return fmt.Sprintf("failed to read stats: %v", err)
	}
	return fmt.Sprintf(
		"buys=%d sells=%d total_buy=%s total_sell=%s fees=%s net=%s realized=%s",
		s.BuyCount, s.SellCount,
		s.TotalBuy.StringFixed(2), s.TotalSell.StringFixed(2),
		s.TotalFee.StringFixed(2), s.NetProfit.StringFixed(2), s.RealizedProfit.StringFixed(2),
	)
}

func (r *CommandRouter) positions() string {
	positions, err := r.led.GetOpenPositions(10, "")
	if err != nil {
		return fmt.Sprintf("failed to read positions: %v", err)
	}
	if len(positions) == 0 {
		return "no open positions"
	}
	var sb strings.Builder
	for _, p := range positions {
		fmt.Fprintf(&sb, "%s %s buy=%s @%d\n", p.Account, p.NftID, p.BuyPrice.StringFixed(2), p.BuyTS)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func (r *CommandRouter) last() string {
	events, err := r.led.GetRecentEvents(10, "")
	if err != nil {
		return fmt.Sprintf("failed to read events: %v", err)
	}
	if len(events) == 0 {
		return "no events recorded"
	}
	var sb strings.Builder
	for _, e := range events {
		fmt.Fprintf(&sb, "%s %s %s @%s ts=%d\n", e.Account, e.Kind, e.NftID, e.Price.StringFixed(2), e.TS)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func (r *CommandRouter) workers() string {
	if r.snapshot == nil {
		return "no status snapshot available"
	}
	rows := r.snapshot()
	if len(rows) == 0 {
		return "no workers running"
	}
	var sb strings.Builder
	for _, w := range rows {
		fmt.Fprintf(&sb, "%s: %s\n", w.Account, w.Status)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func todayStartUnix() int64 {
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return start.Unix()
}
