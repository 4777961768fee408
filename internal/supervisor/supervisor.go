// Package supervisor is the Engine Supervisor (§4.8): it opens the ledger,
// starts the chat collaborator best-effort, spawns one Account Worker per
// configured account sharing that ledger handle, and drives an orderly
// shutdown on cancellation.
//
// Grounded on the teacher pack's engine.Engine lifecycle (New -> Start ->
// Stop, a sync.WaitGroup plus a context.CancelFunc per run, and an ordered
// shutdown: cancel contexts, a safety-net cancel pass, persist state, wait
// for goroutines, close resources last), generalized here from one
// goroutine per traded market to one goroutine per configured account.
package supervisor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ReNothingg/giftsniper/internal/exchange"
	"github.com/ReNothingg/giftsniper/internal/ledger"
	"github.com/ReNothingg/giftsniper/internal/telegram"
	"github.com/ReNothingg/giftsniper/internal/worker"
	"github.com/ReNothingg/giftsniper/pkg/types"
)

// DefaultShutdownTimeout bounds how long Stop waits for workers to observe
// cancellation before giving up on a graceful stop, per §5.
const DefaultShutdownTimeout = 8 * time.Second

// Supervisor owns the ledger, the optional chat collaborator, and one
// Worker per configured account.
type Supervisor struct {
	cfg    *types.AppConfig
	logger *slog.Logger

	ShutdownTimeout time.Duration

	led *ledger.Ledger
	bot *telegram.Bot

	workers []*worker.Worker
	names   []string

	cancelWorkers  context.CancelFunc
	cancelTelegram context.CancelFunc
	workersWg      sync.WaitGroup
	telegramWg     sync.WaitGroup
}

// New opens the ledger and builds one Worker per account, but starts
// nothing yet; call Run to start the chat collaborator and all workers.
func New(cfg *types.AppConfig, logger *slog.Logger) (*Supervisor, error) {
	led, err := ledger.Open(cfg.StateDBPath)
	if err != nil {
		return nil, err
	}

	s := &Supervisor{
		cfg:             cfg,
		logger:          logger.With("component", "supervisor"),
		ShutdownTimeout: DefaultShutdownTimeout,
		led:             led,
	}

	if cfg.Telegram.Enabled {
		s.bot = telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.ChatIDs, logger)
	}

	for _, account := range cfg.Accounts {
		client := exchange.NewClient(cfg.APIBase, account.Auth, cfg.Routes, cfg.Runtime.RequestTimeout, cfg.Runtime.DryRun, logger)
		var notify worker.Notifier
		if s.bot != nil {
			notify = s.bot
		}
		s.workers = append(s.workers, worker.NewWorker(account, cfg, client, led, notify, logger))
		s.names = append(s.names, account.Name)
	}

	return s, nil
}

// Snapshot reports every worker's current status, for the chat
// collaborator's "workers" command.
func (s *Supervisor) Snapshot() []telegram.WorkerStatus {
	rows := make([]telegram.WorkerStatus, len(s.workers))
	for i, w := range s.workers {
		rows[i] = telegram.WorkerStatus{Account: s.names[i], Status: w.Status()}
	}
	return rows
}

// Run starts the chat collaborator (best-effort) and every account worker,
// then blocks until ctx is cancelled, at which point it performs an
// orderly shutdown and returns.
func (s *Supervisor) Run(ctx context.Context) {
	telegramCtx, cancelTelegram := context.WithCancel(context.Background())
	s.cancelTelegram = cancelTelegram
	defer cancelTelegram()

	if s.bot != nil && s.bot.Enabled() {
		router := telegram.NewCommandRouter(s.led, s.Snapshot)
		poller := telegram.NewPoller(s.bot, router, s.cfg.Telegram.ChatIDs)

		s.telegramWg.Add(2)
		go func() {
			defer s.telegramWg.Done()
			s.bot.RunSender(telegramCtx)
		}()
		go func() {
			defer s.telegramWg.Done()
			poller.Run(telegramCtx)
		}()
		s.logger.Info("chat collaborator started")
	} else {
		s.logger.Info("chat collaborator disabled, skipping")
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	s.cancelWorkers = cancelWorkers
	defer cancelWorkers()

	for i, w := range s.workers {
		s.workersWg.Add(1)
		account := s.names[i]
		worker := w
		go func() {
			defer s.workersWg.Done()
			worker.Run(workerCtx)
		}()
		s.logger.Info("worker started", "account", account)
	}

	<-ctx.Done()
	s.shutdown()
}

// shutdown cancels the workers first and waits for them to observe
// cancellation, then stops the chat collaborator, per §4.8's ordering.
// Both waits are bounded by ShutdownTimeout so a worker that ignores
// cancellation cannot hang the process forever; the ledger closes last
// regardless of whether either wait timed out.
func (s *Supervisor) shutdown() {
	s.logger.Info("shutting down")

	s.cancelWorkers()
	if !waitWithTimeout(&s.workersWg, s.ShutdownTimeout) {
		s.logger.Warn("shutdown timeout elapsed, some workers did not stop in time", "timeout", s.ShutdownTimeout)
	}

	s.cancelTelegram()
	if !waitWithTimeout(&s.telegramWg, s.ShutdownTimeout) {
		s.logger.Warn("chat collaborator did not stop in time", "timeout", s.ShutdownTimeout)
	}

	if err := s.led.Close(); err != nil {
		s.logger.Error("failed to close ledger", "error", err)
	}
}

func waitWithTimeout(wg *sync.WaitGroup, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
