// Package telegram implements the chat collaborator (§4.9): an outbound
// notification sender and an inbound command poller over the Telegram Bot
// API, wired to the worker package's Notifier interface and a supervisor-
// provided status snapshot.
//
// Grounded on the teacher pack's Bot-API notifier (one HTTP POST per
// message, enabled only when both a token and a destination are set) and on
// the teacher's scanner ticker loop for the inbound long-poll side.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	notifyQueueSize = 2000
	sendTimeout     = 10 * time.Second
)

// Bot sends outbound notifications to one or more chat ids and, when
// enabled, polls for inbound commands. It implements worker.Notifier.
type Bot struct {
	token      string
	chatIDs    []int64
	httpClient *http.Client
	baseURL    string // overridable for tests; defaults to the real Bot API
	logger     *slog.Logger

	queue chan string
}

// NewBot builds a Bot. A zero-value token disables sending entirely; Notify
// still never blocks, dropping messages once the queue is full.
func NewBot(token string, chatIDs []int64, logger *slog.Logger) *Bot {
	b := &Bot{
		token:      token,
		chatIDs:    chatIDs,
		httpClient: &http.Client{Timeout: sendTimeout},
		logger:     logger.With("component", "telegram"),
		queue:      make(chan string, notifyQueueSize),
	}
	return b
}

// Enabled reports whether the bot has a token to send with.
func (b *Bot) Enabled() bool { return b.token != "" }

// Notify implements worker.Notifier: non-blocking, drops and logs on
// overflow rather than ever stalling the caller's worker goroutine.
func (b *Bot) Notify(text string) {
	select {
	case b.queue <- text:
	default:
		b.logger.Warn("notify queue full, dropping message")
	}
}

// RunSender drains the notify queue until ctx is cancelled, posting each
// message to every configured chat id.
func (b *Bot) RunSender(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-b.queue:
			b.broadcast(ctx, text)
		}
	}
}

func (b *Bot) broadcast(ctx context.Context, text string) {
	if !b.Enabled() {
		return
	}
	for _, chatID := range b.chatIDs {
		if err := b.send(ctx, chatID, text); err != nil {
			b.logger.Warn("send failed", "chat_id", chatID, "error", err)
		}
	}
}

func (b *Bot) send(ctx context.Context, chatID int64, text string) error {
	endpoint := b.endpoint("sendMessage")
	vals := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"text":    {text},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", err)
	}
	req.URL.RawQuery = vals.Encode()

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Description string `json:"description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return fmt.Errorf("telegram: status %d: %s", resp.StatusCode, body.Description)
	}
	return nil
}

func (b *Bot) endpoint(method string) string {
	if b.baseURL != "" {
		return b.baseURL + "/bot" + b.token + "/" + method
	}
	return "https://api.telegram.org/bot" + b.token + "/" + method
}
