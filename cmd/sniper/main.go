// Command sniper is the giftsniper CLI: an autonomous trading bot for a
// gift/NFT marketplace.
//
// Architecture:
//
//	main.go              — entry point: parses flags, loads config, runs the supervisor until SIGINT/SIGTERM
//	internal/supervisor  — orchestrator: opens the ledger, starts the chat collaborator, spawns one worker per account
//	internal/worker      — per-account cycle loop: warm start, polling, offers, order maintenance, outbid sync, sells, reprice, activity ingestion
//	internal/strategy    — pure pricing/selection functions (offer/order pricing, bump/reprice, liquidity gate, selector matching)
//	internal/exchange    — REST client for the marketplace API, with a token-bucket rate limiter
//	internal/ledger      — durable (GORM/SQLite) trade ledger and profit/position queries
//	internal/liquidity   — short-TTL liquidity cache used to gate offer placement
//	internal/parse       — raw JSON response parsing into typed domain values
//	internal/telegram    — chat collaborator: outbound notifications and inbound read-only commands
//	internal/config      — CLI flags, env vars, strategy/accounts files resolved into one AppConfig
//
// How it makes money:
//
//	The bot places buy-side offers below the floor on newly listed gifts and
//	standing collection-wide orders, then resells acquired inventory above
//	its purchase price. It tracks every outstanding offer/order/listing in
//	an in-memory action table per account, reprices or cancels when
//	outbid, and records every fill to a durable ledger for profit reporting.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ReNothingg/giftsniper/internal/config"
	"github.com/ReNothingg/giftsniper/internal/supervisor"
)

// Exit codes per the CLI contract: 0 normal stop, 1 configuration error,
// 2 reserved for an unimplemented run mode (none exist yet).
const (
	exitOK          = 0
	exitConfigError = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	var flags config.Flags
	var logFormat string
	var logLevel string

	fs := flag.NewFlagSet("sniper", flag.ContinueOnError)
	fs.StringVar(&flags.APIBase, "api-base", "", "marketplace API base URL (default https://portals-market.com/api)")
	fs.StringVar(&flags.AuthFile, "auth-file", "", "path to a file containing the bearer auth token")
	fs.StringVar(&flags.StrategyFile, "strategy-file", "", "path to the strategy JSON file")
	fs.StringVar(&flags.AccountsFile, "accounts-file", "", "path to the accounts JSON file")
	fs.StringVar(&flags.StateDBPath, "state-db", "", "path to the local ledger state file")
	fs.BoolVar(&flags.Live, "live", false, "place real orders instead of dry-run")
	fs.BoolVar(&flags.NoWarmStart, "no-warm-start", false, "skip the warm-start seeding pass")
	fs.StringVar(&logFormat, "log-format", "text", "log output format: text or json")
	fs.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return exitConfigError
	}

	logger := newLogger(logFormat, logLevel)

	cfg, err := config.Load(flags)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return exitConfigError
	}

	if flags.NoWarmStart {
		cfg.Runtime.WarmStart = false
	}

	if cfg.Runtime.DryRun {
		logger.Warn("DRY-RUN MODE — no real offers, orders, or listings will be placed")
	}

	logger.Info("giftsniper starting",
		"api_base", cfg.APIBase,
		"accounts", len(cfg.Accounts),
		"dry_run", cfg.Runtime.DryRun,
		"warm_start", cfg.Runtime.WarmStart,
		"telegram_enabled", cfg.Telegram.Enabled,
	)

	sup, err := supervisor.New(cfg, logger)
	if err != nil {
		logger.Error("failed to start supervisor", "error", err)
		return exitConfigError
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sup.Run(ctx)

	logger.Info("giftsniper stopped")
	return exitOK
}

func newLogger(format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(level)}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
