// Package config loads, overrides, and validates the daemon's on-disk
// configuration, per spec.md §6-7. JSON loading is tolerant (unknown
// keys ignored, malformed top-level file falls back to defaults);
// validation of the resolved values is strict (spec.md §7's
// Policy/validation kind fails startup, it is never silently clamped).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	envparse "github.com/caarlos0/env/v11"

	"github.com/nullclaw/nullclaw/internal/logger"
)

// Route mirrors spec.md §3's Route entity.
type Route struct {
	Hint         string `json:"hint"`
	ProviderName string `json:"provider_name"`
	Model        string `json:"model"`
	APIKey       string `json:"api_key,omitempty"`
}

// ChannelCredentials holds the per-platform secrets needed to start an
// inbound channel poller. A channel with an empty/zero credential is
// left unconfigured and simply not spawned at start-up.
type ChannelCredentials struct {
	TelegramToken        string `json:"telegram_token,omitempty"`
	DiscordToken         string `json:"discord_token,omitempty"`
	SlackBotToken        string `json:"slack_bot_token,omitempty"`
	SlackAppToken        string `json:"slack_app_token,omitempty"`
	LarkAppID            string `json:"lark_app_id,omitempty"`
	LarkAppSecret        string `json:"lark_app_secret,omitempty"`
	DingTalkClientID     string `json:"dingtalk_client_id,omitempty"`
	DingTalkClientSecret string `json:"dingtalk_client_secret,omitempty"`
	TencentAppID         uint64 `json:"tencent_app_id,omitempty"`
	TencentBotSecret     string `json:"tencent_bot_secret,omitempty"`
	BridgeWebsocketURL   string `json:"bridge_websocket_url,omitempty"`
	CLIEnabled           bool   `json:"cli_enabled,omitempty"`
}

// MCPServerConfig describes one external MCP tool server to launch.
type MCPServerConfig struct {
	Name    string            `json:"name"`
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	Enabled bool              `json:"enabled"`
}

// Config is the full shape of ~/.nullclaw/config.json plus the
// environment-overridable scalars from spec.md §6.
type Config struct {
	Provider    string  `json:"provider"`
	APIKey      string  `json:"api_key"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	BaseURL     string  `json:"base_url,omitempty"`

	GatewayHost      string `json:"gateway_host"`
	GatewayPort      int    `json:"gateway_port"`
	AllowPublicBind  bool   `json:"allow_public_bind"`
	Workspace        string `json:"workspace"`

	ProviderRetries int   `json:"provider_retries"`
	BackoffCapMs    int64 `json:"backoff_cap_ms"`

	Routes []Route `json:"routes,omitempty"`

	Channels ChannelCredentials `json:"channels,omitempty"`

	ToolAllowlist string            `json:"tool_allowlist,omitempty"`
	MCPServers    []MCPServerConfig `json:"mcp_servers,omitempty"`

	TranscriptionProvider string `json:"transcription_provider,omitempty"`
}

// envOverrides is the subset of Config that github.com/caarlos0/env/v11
// can express directly: independent scalar fields with no fan-in
// ordering. Provider-key fan-in (§4.4) is hand-parsed separately since
// it is order-sensitive business logic env can't express.
type envOverrides struct {
	Provider        string  `env:"NULLCLAW_PROVIDER"`
	APIKey          string  `env:"NULLCLAW_API_KEY"`
	Model           string  `env:"NULLCLAW_MODEL"`
	Temperature     *string `env:"NULLCLAW_TEMPERATURE"`
	GatewayPort     *string `env:"NULLCLAW_GATEWAY_PORT"`
	GatewayHost     string  `env:"NULLCLAW_GATEWAY_HOST"`
	Workspace       string  `env:"NULLCLAW_WORKSPACE"`
	AllowPublicBind string  `env:"NULLCLAW_ALLOW_PUBLIC_BIND"`
	BaseURL         string  `env:"NULLCLAW_BASE_URL"`
}

// Defaults returns the built-in configuration used when config.json is
// absent or unreadable.
func Defaults() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Provider:        "openrouter",
		Model:           "",
		Temperature:     1.0,
		GatewayHost:     "127.0.0.1",
		GatewayPort:     8877,
		AllowPublicBind: false,
		Workspace:       filepath.Join(home, ".nullclaw"),
		ProviderRetries: 3,
		BackoffCapMs:    60000,
	}
}

// DefaultPath returns ~/.nullclaw/config.json.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".nullclaw", "config.json")
}

// Load reads path, tolerantly: a missing file or one that fails to
// parse at the top level yields Defaults() rather than an error, since
// the daemon must still start from nothing on first run. Routes whose
// individual array entry fails to parse are skipped rather than
// aborting the whole load (encoding/json already stops at the first
// malformed element inside a []Route, so routes are decoded into
// json.RawMessage first and each filtered independently).
func Load(path string) Config {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	var raw struct {
		Config
		Routes []json.RawMessage `json:"routes,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.WarnCF("config", "config.json malformed, falling back to defaults", logger.Fields{
			"path": path,
		})
		return cfg
	}
	cfg = raw.Config

	cfg.Routes = nil
	for i, entry := range raw.Routes {
		var r Route
		if err := json.Unmarshal(entry, &r); err != nil {
			logger.WarnCF("config", "skipping malformed route entry", logger.Fields{"index": i})
			continue
		}
		cfg.Routes = append(cfg.Routes, r)
	}

	return cfg
}

// ApplyEnv layers the scalar environment overrides from spec.md §6 onto
// cfg, returning the overridden copy. Parse failures on a typed field
// (temperature, port) are treated as Policy/validation errors per §7:
// they are returned, not silently ignored, so the caller can fail
// startup.
func ApplyEnv(cfg Config) (Config, error) {
	var env envOverrides
	if err := envparse.Parse(&env); err != nil {
		return cfg, fmt.Errorf("parsing environment overrides: %w", err)
	}

	if env.Provider != "" {
		cfg.Provider = env.Provider
	}
	if env.APIKey != "" {
		cfg.APIKey = env.APIKey
	}
	if env.Model != "" {
		cfg.Model = env.Model
	}
	if env.BaseURL != "" {
		cfg.BaseURL = env.BaseURL
	}
	if env.GatewayHost != "" {
		cfg.GatewayHost = env.GatewayHost
	}
	if env.Workspace != "" {
		cfg.Workspace = env.Workspace
	}
	if env.AllowPublicBind != "" {
		v := strings.TrimSpace(strings.ToLower(env.AllowPublicBind))
		cfg.AllowPublicBind = v == "1" || v == "true"
	}
	if env.Temperature != nil {
		t, err := strconv.ParseFloat(strings.TrimSpace(*env.Temperature), 64)
		if err != nil {
			return cfg, fmt.Errorf("NULLCLAW_TEMPERATURE: %w", err)
		}
		cfg.Temperature = t
	}
	if env.GatewayPort != nil {
		p, err := strconv.ParseUint(strings.TrimSpace(*env.GatewayPort), 10, 16)
		if err != nil {
			return cfg, fmt.Errorf("NULLCLAW_GATEWAY_PORT: %w", err)
		}
		cfg.GatewayPort = int(p)
	}

	return cfg, nil
}

// Validate enforces spec.md §7's Policy/validation kind: these
// conditions fail startup (or, for a single request's temperature,
// reject the request) rather than being silently clamped.
func Validate(cfg Config) error {
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return fmt.Errorf("temperature %v out of range [0,2]", cfg.Temperature)
	}
	if cfg.GatewayPort <= 0 || cfg.GatewayPort > 65535 {
		return fmt.Errorf("gateway port %d invalid", cfg.GatewayPort)
	}
	if cfg.ProviderRetries > 100 {
		return fmt.Errorf("provider_retries %d exceeds maximum of 100", cfg.ProviderRetries)
	}
	if cfg.BackoffCapMs > 600000 {
		return fmt.Errorf("backoff_cap_ms %d exceeds maximum of 600000", cfg.BackoffCapMs)
	}
	return nil
}

// LoadAndResolve loads path, applies environment overrides, and
// validates the result in one call, the sequence cmd/nullclaw uses at
// startup.
func LoadAndResolve(path string) (Config, error) {
	cfg := Load(path)
	cfg, err := ApplyEnv(cfg)
	if err != nil {
		return cfg, err
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
