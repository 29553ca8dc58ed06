package channels

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/nullclaw/nullclaw/internal/logger"
)

// Inbound is the callback an inbound Poller invokes for every received
// message: chatID addresses the reply, text is the raw message body.
type Inbound func(chatID, text string)

// TelegramChannel is an inbound+outbound channel backed by the Telegram
// Bot API long-polling updates feed.
type TelegramChannel struct {
	bot     *telego.Bot
	inbound Inbound
}

// NewTelegramChannel authenticates bot with token. inbound is invoked
// once per received text message.
func NewTelegramChannel(token string, inbound Inbound) (*TelegramChannel, error) {
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &TelegramChannel{bot: bot, inbound: inbound}, nil
}

// Poll runs the long-polling updates loop until stopRequested, per
// spec.md §4.8's Poller contract: it checks stopRequested before each
// blocking GetUpdates round-trip and calls touch() on every update.
func (c *TelegramChannel) Poll(stopRequested *atomic.Bool, touch func()) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := c.bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		logger.ErrorCF("telegram", "long polling start failed", logger.Fields{"error": err.Error()})
		return
	}

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			touch()
			if update.Message != nil && update.Message.Text != "" {
				chatID := fmt.Sprintf("%d", update.Message.Chat.ID)
				if c.inbound != nil {
					c.inbound(chatID, update.Message.Text)
				}
			}
		case <-time.After(500 * time.Millisecond):
			if stopRequested.Load() {
				return
			}
		}
	}
}

// HealthProbe has no active liveness check beyond staleness tracking.
func (c *TelegramChannel) HealthProbe() bool { return true }

// Send delivers payload as a plain text message to chatID.
func (c *TelegramChannel) Send(chatID, payload string) error {
	id, err := parseTelegramChatID(chatID)
	if err != nil {
		return fmt.Errorf("telegram send: invalid chat id %q: %w", chatID, err)
	}
	_, err = c.bot.SendMessage(context.Background(), tu.Message(tu.ID(id), payload))
	return err
}

func parseTelegramChatID(chatIDStr string) (int64, error) {
	var id int64
	_, err := fmt.Sscanf(chatIDStr, "%d", &id)
	return id, err
}
