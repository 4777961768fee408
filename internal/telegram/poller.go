package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	pollLongPollSeconds = 25
	pollHTTPTimeout     = pollLongPollSeconds*time.Second + 10*time.Second
)

type tgUpdate struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
}

type getUpdatesResponse struct {
	OK     bool       `json:"ok"`
	Result []tgUpdate `json:"result"`
}

// Poller long-polls getUpdates and dispatches each inbound message to
// router, replying only to chat ids on the allow-list (empty allow-list
// means every chat id is accepted, per §4.9).
type Poller struct {
	bot        *Bot
	router     *CommandRouter
	allowed    map[int64]bool
	httpClient *http.Client
	offset     int64
}

// NewPoller builds a Poller. An empty allowedChatIDs accepts replies to any
// chat id that messages the bot.
func NewPoller(bot *Bot, router *CommandRouter, allowedChatIDs []int64) *Poller {
	allowed := make(map[int64]bool, len(allowedChatIDs))
	for _, id := range allowedChatIDs {
		allowed[id] = true
	}
	return &Poller{
		bot:        bot,
		router:     router,
		allowed:    allowed,
		httpClient: &http.Client{Timeout: pollHTTPTimeout},
	}
}

// Run polls until ctx is cancelled, grounded on the teacher's scan-loop
// shape (do one pass, then loop on a timer) but driven by the blocking
// getUpdates call itself instead of a ticker.
func (p *Poller) Run(ctx context.Context) {
	if !p.bot.Enabled() {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		updates, err := p.fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.bot.logger.Warn("get updates failed", "error", err)
			p.sleep(ctx, 2*time.Second)
			continue
		}
		for _, u := range updates {
			p.handle(ctx, u)
		}
	}
}

func (p *Poller) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (p *Poller) fetch(ctx context.Context) ([]tgUpdate, error) {
	endpoint := p.bot.endpoint("getUpdates")
	endpoint += fmt.Sprintf("?offset=%d&timeout=%d", p.offset, pollLongPollSeconds)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var decoded getUpdatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	if !decoded.OK {
		return nil, fmt.Errorf("telegram: getUpdates returned not-ok")
	}
	for _, u := range decoded.Result {
		if u.UpdateID >= p.offset {
			p.offset = u.UpdateID + 1
		}
	}
	return decoded.Result, nil
}

func (p *Poller) handle(ctx context.Context, u tgUpdate) {
	if u.Message == nil || u.Message.Text == "" {
		return
	}
	chatID := u.Message.Chat.ID
	if len(p.allowed) > 0 && !p.allowed[chatID] {
		p.bot.logger.Warn("rejected message from chat id not on allow-list", "chat_id", chatID)
		return
	}
	reply := p.router.HandleCommand(u.Message.Text)
	if reply == "" {
		return
	}
	if err := p.bot.send(ctx, chatID, reply); err != nil {
		p.bot.logger.Warn("reply send failed", "chat_id", chatID, "error", err)
	}
}
