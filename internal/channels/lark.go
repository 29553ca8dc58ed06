package channels

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	"github.com/larksuite/oapi-sdk-go/v3/event/dispatcher"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	larkws "github.com/larksuite/oapi-sdk-go/v3/ws"

	"github.com/nullclaw/nullclaw/internal/logger"
)

// LarkChannel is an inbound+outbound channel backed by Lark/Feishu's
// long-lived websocket event stream, which (like Slack Socket Mode)
// avoids a public webhook endpoint.
type LarkChannel struct {
	client  *lark.Client
	ws      *larkws.Client
	inbound Inbound
}

// NewLarkChannel authenticates a custom app with appID/appSecret and
// wires the P2MessageReceiveV1 event into inbound.
func NewLarkChannel(appID, appSecret string, inbound Inbound) *LarkChannel {
	c := &LarkChannel{
		client:  lark.NewClient(appID, appSecret),
		inbound: inbound,
	}

	handler := dispatcher.NewEventDispatcher("", "").
		OnP2MessageReceiveV1(func(ctx context.Context, event *larkim.P2MessageReceiveV1) error {
			if event.Event == nil || event.Event.Message == nil {
				return nil
			}
			msg := event.Event.Message
			chatID := ""
			if msg.ChatId != nil {
				chatID = *msg.ChatId
			}
			text := ""
			if msg.Content != nil {
				text = *msg.Content
			}
			if c.inbound != nil && text != "" {
				c.inbound(chatID, text)
			}
			return nil
		})

	c.ws = larkws.NewClient(appID, appSecret, larkws.WithEventHandler(handler))
	return c
}

// Poll starts the websocket event client and blocks until it exits or
// stopRequested is observed.
func (c *LarkChannel) Poll(stopRequested *atomic.Bool, touch func()) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		for !stopRequested.Load() {
			time.Sleep(500 * time.Millisecond)
			touch()
		}
		cancel()
	}()

	if err := c.ws.Start(ctx); err != nil && ctx.Err() == nil {
		logger.ErrorCF("lark", "websocket client stopped", logger.Fields{"error": err.Error()})
	}
}

// HealthProbe has no active liveness check beyond staleness tracking;
// the websocket client reconnects internally on transient drops.
func (c *LarkChannel) HealthProbe() bool { return true }

// Send posts payload as a plain text message to the chat addressed by
// chatID.
func (c *LarkChannel) Send(chatID, payload string) error {
	body := fmt.Sprintf(`{"text":%q}`, payload)
	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType("chat_id").
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType("text").
			Content(body).
			Build()).
		Build()

	resp, err := c.client.Im.Message.Create(context.Background(), req)
	if err != nil {
		return err
	}
	if !resp.Success() {
		return fmt.Errorf("lark send failed: %s", resp.Msg)
	}
	return nil
}
