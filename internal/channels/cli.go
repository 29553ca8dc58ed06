package channels

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/chzyer/readline"

	"github.com/nullclaw/nullclaw/internal/logger"
)

// CLILocalChatID is the single fixed chat identity used for the local
// readline channel: there is exactly one operator console per daemon.
const CLILocalChatID = "local"

// CLIChannel is an inbound+outbound channel that reads lines from an
// interactive readline prompt on the daemon's own terminal, for local
// operation without any external messaging platform configured.
type CLIChannel struct {
	rl      *readline.Instance
	inbound Inbound
}

// NewCLIChannel opens a readline prompt with the given line prefix.
func NewCLIChannel(prompt string, inbound Inbound) (*CLIChannel, error) {
	rl, err := readline.New(prompt)
	if err != nil {
		return nil, fmt.Errorf("readline init: %w", err)
	}
	return &CLIChannel{rl: rl, inbound: inbound}, nil
}

// Poll reads one line at a time, checking stopRequested before each
// blocking Readline call. Readline has no way to interrupt a read in
// progress from another goroutine, so stopRequested is only observed
// between lines, matching spec.md §5's external-I/O cancellation model.
func (c *CLIChannel) Poll(stopRequested *atomic.Bool, touch func()) {
	defer c.rl.Close()

	for {
		if stopRequested.Load() {
			return
		}
		line, err := c.rl.Readline()
		if err == readline.ErrInterrupt || err == io.EOF {
			return
		}
		if err != nil {
			logger.WarnCF("cli", "readline error", logger.Fields{"error": err.Error()})
			return
		}
		touch()
		if line == "" {
			continue
		}
		if c.inbound != nil {
			c.inbound(CLILocalChatID, line)
		}
	}
}

// HealthProbe has no active liveness check beyond staleness tracking.
func (c *CLIChannel) HealthProbe() bool { return true }

// Send prints payload to the terminal.
func (c *CLIChannel) Send(chatID, payload string) error {
	_, err := fmt.Fprintln(c.rl.Stdout(), payload)
	return err
}
