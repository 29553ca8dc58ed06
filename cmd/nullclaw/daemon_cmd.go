package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nullclaw/nullclaw/internal/bus"
	"github.com/nullclaw/nullclaw/internal/channels"
	"github.com/nullclaw/nullclaw/internal/config"
	"github.com/nullclaw/nullclaw/internal/daemon"
	"github.com/nullclaw/nullclaw/internal/logger"
	"github.com/nullclaw/nullclaw/internal/mcp"
	"github.com/nullclaw/nullclaw/internal/metrics"
	"github.com/nullclaw/nullclaw/internal/providers"
	"github.com/nullclaw/nullclaw/internal/scheduler"
	"github.com/nullclaw/nullclaw/internal/toolpolicy"
)

// schedulerPollInterval is how often the Scheduler Supervisor checks
// its cron jobs for due work between gronx evaluations.
const schedulerPollInterval = 10 * time.Second

// channelMaxRestarts is max_restarts from spec.md §4.8 step 4.
const channelMaxRestarts = 5

// runDaemon implements the "nullclaw daemon --host <addr> --port <u16>"
// entry point from spec.md §6: CLI flags override config, start-up
// failure exits non-zero, Ctrl+C requests a clean shutdown (exit 0).
func runDaemon(args []string) error {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	host := fs.String("host", "", "gateway bind host (overrides config)")
	port := fs.Int("port", 0, "gateway bind port (overrides config)")
	configPath := fs.String("config", config.DefaultPath(), "path to config.json")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadAndResolve(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *host != "" {
		cfg.GatewayHost = *host
	}
	if *port != 0 {
		cfg.GatewayPort = *port
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := daemon.EnsureDir(cfg.Workspace + "/"); err != nil {
		return fmt.Errorf("preparing workspace: %w", err)
	}

	holder, err := providers.New(providers.Spec{
		Name:         cfg.Provider,
		APIKey:       cfg.APIKey,
		DefaultModel: cfg.Model,
	})
	if err != nil {
		return fmt.Errorf("resolving default provider %q: %w", cfg.Provider, err)
	}
	_ = holder.Provider() // validated reachable; wired into the channel runtime's provider pipeline

	b := bus.New()
	registry := channels.NewRegistry()
	sched := scheduler.NewScheduler(scheduler.LoadJobs(cfg.Workspace+"/jobs.json"), schedulerPollInterval)

	statePath := cfg.Workspace + "/daemon_state.json"
	gatewayAddr := fmt.Sprintf("%s:%d", cfg.GatewayHost, cfg.GatewayPort)

	d := daemon.New(statePath, gatewayAddr, nil, b, registry, sched)

	toolPolicy := toolpolicy.NewPolicy(toolpolicy.ParseAllowlist(cfg.ToolAllowlist))
	_ = toolPolicy // consulted by the (external) tool executor before each ToolCall

	tracker := metrics.NewTracker(cfg.Workspace)
	_ = tracker // Record is called from the provider pipeline's response handling

	mcpManager := mcp.NewManager()
	mcpManager.StartFromConfig(cfg.MCPServers)

	spawnChannels(d, registry, cfg.Channels)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.InfoCF("daemon", "shutdown requested", nil)
		d.RequestShutdown()
	}()

	logger.InfoCF("daemon", "starting", logger.Fields{"gateway": gatewayAddr, "provider": cfg.Provider})
	d.Run()
	mcpManager.StopAll()
	logger.InfoCF("daemon", "stopped cleanly", nil)
	return nil
}

// inboundLogger builds the Inbound callback shared by every channel
// poller. The channel runtime's provider/tool-executor pipeline that
// would act on the message is external per spec.md §1; nullclaw's core
// only needs to observe that a message arrived.
func inboundLogger(channelName string) channels.Inbound {
	return func(chatID, text string) {
		logger.InfoCF("channels", "inbound message received", logger.Fields{
			"channel": channelName,
			"chat_id": chatID,
		})
	}
}

// spawnChannels constructs and spawns a poller for every channel whose
// credentials are configured, registering its Sender half with registry
// so the Outbound Dispatcher can route replies to it. A channel with no
// credentials configured is left unspawned rather than erroring, per
// ChannelCredentials' documented contract.
func spawnChannels(d *daemon.Daemon, registry *channels.Registry, creds config.ChannelCredentials) {
	onRunning := func(name string) func(bool) {
		return func(running bool) {
			logger.InfoCF("channels", "component state changed", logger.Fields{"name": name, "running": running})
		}
	}

	if creds.TelegramToken != "" {
		ch, err := channels.NewTelegramChannel(creds.TelegramToken, inboundLogger("telegram"))
		if err != nil {
			logger.ErrorCF("channels", "telegram channel not started", logger.Fields{"error": err.Error()})
		} else {
			registry.Register("telegram", ch)
			d.Channels.Spawn("telegram", ch, channelMaxRestarts, onRunning("telegram"))
		}
	}

	if creds.DiscordToken != "" {
		ch, err := channels.NewDiscordChannel(creds.DiscordToken, inboundLogger("discord"))
		if err != nil {
			logger.ErrorCF("channels", "discord channel not started", logger.Fields{"error": err.Error()})
		} else {
			registry.Register("discord", ch)
			d.Channels.Spawn("discord", ch, channelMaxRestarts, onRunning("discord"))
		}
	}

	if creds.SlackBotToken != "" && creds.SlackAppToken != "" {
		ch := channels.NewSlackChannel(creds.SlackBotToken, creds.SlackAppToken, inboundLogger("slack"))
		registry.Register("slack", ch)
		d.Channels.Spawn("slack", ch, channelMaxRestarts, onRunning("slack"))
	}

	if creds.LarkAppID != "" && creds.LarkAppSecret != "" {
		ch := channels.NewLarkChannel(creds.LarkAppID, creds.LarkAppSecret, inboundLogger("lark"))
		registry.Register("lark", ch)
		d.Channels.Spawn("lark", ch, channelMaxRestarts, onRunning("lark"))
	}

	if creds.DingTalkClientID != "" && creds.DingTalkClientSecret != "" {
		ch := channels.NewDingTalkChannel(creds.DingTalkClientID, creds.DingTalkClientSecret, inboundLogger("dingtalk"))
		registry.Register("dingtalk", ch)
		d.Channels.Spawn("dingtalk", ch, channelMaxRestarts, onRunning("dingtalk"))
	}

	if creds.TencentAppID != 0 && creds.TencentBotSecret != "" {
		ch := channels.NewTencentChannel(creds.TencentAppID, creds.TencentBotSecret, inboundLogger("tencent"))
		registry.Register("tencent", ch)
		d.Channels.Spawn("tencent", ch, channelMaxRestarts, onRunning("tencent"))
	}

	if creds.BridgeWebsocketURL != "" {
		ch, err := channels.NewWebsocketBridgeChannel(creds.BridgeWebsocketURL, inboundLogger("bridge"))
		if err != nil {
			logger.ErrorCF("channels", "websocket bridge channel not started", logger.Fields{"error": err.Error()})
		} else {
			registry.Register("bridge", ch)
			d.Channels.Spawn("bridge", ch, channelMaxRestarts, onRunning("bridge"))
		}
	}

	if creds.CLIEnabled {
		ch, err := channels.NewCLIChannel("nullclaw> ", inboundLogger("cli"))
		if err != nil {
			logger.ErrorCF("channels", "cli channel not started", logger.Fields{"error": err.Error()})
		} else {
			registry.Register("cli", ch)
			d.Channels.Spawn("cli", ch, channelMaxRestarts, onRunning("cli"))
		}
	}
}
