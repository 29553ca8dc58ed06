package channels

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/open-dingtalk/dingtalk-stream-sdk-go/chatbot"
	"github.com/open-dingtalk/dingtalk-stream-sdk-go/client"

	"github.com/nullclaw/nullclaw/internal/logger"
)

// DingTalkChannel is an inbound+outbound channel backed by DingTalk's
// Stream Mode client, which long-lives a websocket to the DingTalk
// gateway instead of exposing a public callback URL.
type DingTalkChannel struct {
	cli     *client.StreamClient
	inbound Inbound
}

// NewDingTalkChannel authenticates a robot app with clientID/clientSecret
// and wires the chatbot message callback into inbound.
func NewDingTalkChannel(clientID, clientSecret string, inbound Inbound) *DingTalkChannel {
	c := &DingTalkChannel{inbound: inbound}

	cli := client.NewStreamClient(client.WithAppCredential(client.NewAppCredentialConfig(clientID, clientSecret)))
	cli.RegisterChatBotCallbackRouter(func(ctx context.Context, data *chatbot.ChatBotMessage) ([]byte, error) {
		if c.inbound != nil && data.Text.Content != "" {
			c.inbound(data.ConversationId, data.Text.Content)
		}
		return []byte(""), nil
	})
	c.cli = cli
	return c
}

// Poll starts the stream client and blocks until it exits or
// stopRequested is observed.
func (c *DingTalkChannel) Poll(stopRequested *atomic.Bool, touch func()) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		for !stopRequested.Load() {
			time.Sleep(500 * time.Millisecond)
			touch()
		}
		cancel()
		c.cli.Close()
	}()

	if err := c.cli.Start(ctx); err != nil && ctx.Err() == nil {
		logger.ErrorCF("dingtalk", "stream client stopped", logger.Fields{"error": err.Error()})
	}
}

// HealthProbe has no active liveness check beyond staleness tracking.
func (c *DingTalkChannel) HealthProbe() bool { return true }

// Send is a no-op placeholder: DingTalk Stream Mode chatbot replies are
// returned synchronously from the callback router rather than sent out
// of band, so outbound dispatch for this channel is not wired.
func (c *DingTalkChannel) Send(chatID, payload string) error {
	return nil
}
