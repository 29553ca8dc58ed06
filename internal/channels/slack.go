package channels

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/nullclaw/nullclaw/internal/logger"
)

// SlackChannel is an inbound+outbound channel backed by Slack's
// Socket Mode event stream, which avoids exposing a public webhook
// endpoint (matching this daemon's no-public-ingress posture).
type SlackChannel struct {
	api     *slack.Client
	client  *socketmode.Client
	inbound Inbound
}

// NewSlackChannel authenticates with a bot token and an app-level token
// (required for Socket Mode).
func NewSlackChannel(botToken, appToken string, inbound Inbound) *SlackChannel {
	api := slack.New(botToken, slack.OptionAppLevelToken(appToken))
	client := socketmode.New(api)
	return &SlackChannel{api: api, client: client, inbound: inbound}
}

// Poll runs the Socket Mode event loop until stopRequested, acking every
// events-API envelope and touching on every event received.
func (c *SlackChannel) Poll(stopRequested *atomic.Bool, touch func()) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		for !stopRequested.Load() {
			time.Sleep(500 * time.Millisecond)
		}
		cancel()
	}()

	go c.handleEvents(touch)

	if err := c.client.RunContext(ctx); err != nil && ctx.Err() == nil {
		logger.ErrorCF("slack", "socket mode run failed", logger.Fields{"error": err.Error()})
	}
}

func (c *SlackChannel) handleEvents(touch func()) {
	for evt := range c.client.Events {
		switch evt.Type {
		case socketmode.EventTypeEventsAPI:
			ev, ok := evt.Data.(slackevents.EventsAPIEvent)
			if !ok {
				continue
			}
			if evt.Request != nil {
				c.client.Ack(*evt.Request)
			}
			touch()
			if inner, ok := ev.InnerEvent.Data.(*slackevents.MessageEvent); ok && inner.BotID == "" {
				if c.inbound != nil {
					c.inbound(inner.Channel, inner.Text)
				}
			}
		case socketmode.EventTypeConnected, socketmode.EventTypeHello:
			touch()
		}
	}
}

// HealthProbe has no active liveness check beyond staleness tracking.
func (c *SlackChannel) HealthProbe() bool { return true }

// Send posts payload as a plain text message to the channel addressed
// by chatID.
func (c *SlackChannel) Send(chatID, payload string) error {
	_, _, err := c.api.PostMessage(chatID, slack.MsgOptionText(payload, false))
	return err
}
