package channels

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/tencent-connect/botgo"
	"github.com/tencent-connect/botgo/dto"
	"github.com/tencent-connect/botgo/event"
	"github.com/tencent-connect/botgo/openapi"
	"github.com/tencent-connect/botgo/token"

	"github.com/nullclaw/nullclaw/internal/logger"
)

// TencentChannel is an inbound+outbound channel backed by the QQ/Tencent
// bot platform's websocket gateway (botgo's SessionManager), the same
// connect-then-reconnect-forever idiom as the other websocket-gateway
// channels in this package.
type TencentChannel struct {
	api      openapi.OpenAPI
	botToken *token.Token
	inbound  Inbound
}

// NewTencentChannel authenticates with appID/botSecret.
func NewTencentChannel(appID uint64, botSecret string, inbound Inbound) *TencentChannel {
	botToken := token.BotToken(appID, botSecret)
	api := botgo.NewOpenAPI(botToken).WithTimeout(5 * time.Second)
	return &TencentChannel{api: api, botToken: botToken, inbound: inbound}
}

// Poll opens the websocket gateway and runs botgo's session manager,
// which owns its own reconnect loop; Poll returns once stopRequested is
// observed, matching spec.md §5's note that external gateway I/O is not
// cooperatively cancelled mid-flight.
func (c *TencentChannel) Poll(stopRequested *atomic.Bool, touch func()) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ws, err := c.api.WS(ctx, nil, "")
	if err != nil {
		logger.ErrorCF("tencent", "gateway ws info fetch failed", logger.Fields{"error": err.Error()})
		return
	}

	var atMessageHandler event.ATMessageEventHandler = func(payload *dto.WSPayload, data *dto.WSATMessageData) error {
		touch()
		if c.inbound != nil && data.Content != "" {
			c.inbound(data.ChannelID, data.Content)
		}
		return nil
	}
	intent := event.RegisterHandlers(atMessageHandler)

	go func() {
		if err := botgo.NewSessionManager().Start(ws, c.botToken, &intent); err != nil {
			logger.ErrorCF("tencent", "session manager stopped", logger.Fields{"error": err.Error()})
		}
	}()

	for !stopRequested.Load() {
		time.Sleep(500 * time.Millisecond)
	}
}

// HealthProbe has no active liveness check beyond staleness tracking.
func (c *TencentChannel) HealthProbe() bool { return true }

// Send posts payload as a channel message to the channel addressed by
// chatID.
func (c *TencentChannel) Send(chatID, payload string) error {
	_, err := c.api.PostMessage(context.Background(), chatID, &dto.MessageToCreate{Content: payload})
	return err
}
