package channels

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/nullclaw/nullclaw/internal/logger"
)

// DiscordChannel is an inbound+outbound channel backed by a Discord bot
// gateway session. discordgo's event model is callback-driven rather
// than poll-driven, so Poll opens the session once and then blocks on a
// stopRequested poll loop, touching on every MessageCreate event the
// gateway delivers in the background.
type DiscordChannel struct {
	session *discordgo.Session
	inbound Inbound
}

// NewDiscordChannel authenticates a bot session with token (without the
// "Bot " prefix; it is added here).
func NewDiscordChannel(token string, inbound Inbound) (*DiscordChannel, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session init: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages
	return &DiscordChannel{session: session, inbound: inbound}, nil
}

func (c *DiscordChannel) onMessageCreate(touch func()) func(*discordgo.Session, *discordgo.MessageCreate) {
	return func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author != nil && m.Author.Bot {
			return
		}
		touch()
		if c.inbound != nil && m.Content != "" {
			c.inbound(m.ChannelID, m.Content)
		}
	}
}

// Poll opens the gateway connection and blocks until stopRequested,
// closing the session on return.
func (c *DiscordChannel) Poll(stopRequested *atomic.Bool, touch func()) {
	handlerRemove := c.session.AddHandler(c.onMessageCreate(touch))
	defer handlerRemove()

	if err := c.session.Open(); err != nil {
		logger.ErrorCF("discord", "gateway open failed", logger.Fields{"error": err.Error()})
		return
	}
	defer c.session.Close()

	for !stopRequested.Load() {
		time.Sleep(500 * time.Millisecond)
	}
}

// HealthProbe reports the gateway's last known connection state.
func (c *DiscordChannel) HealthProbe() bool {
	return c.session != nil && c.session.DataReady
}

// Send posts payload as a plain text message to the channel addressed
// by chatID (a Discord channel ID).
func (c *DiscordChannel) Send(chatID, payload string) error {
	_, err := c.session.ChannelMessageSend(chatID, payload)
	return err
}
