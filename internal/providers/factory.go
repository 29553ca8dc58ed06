package providers

import (
	"fmt"
	"os"
	"strings"
)

// envLookup reads and trims a single environment variable, returning ""
// on miss.
func envLookup(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}

// Kind tags which concrete provider variant a ProviderHolder carries.
type Kind int

const (
	KindOpenAICompatible Kind = iota
	KindAnthropic
	KindGemini
	KindClaudeCLI
	KindCodexCLI
	KindOpenAICodex
)

// ProviderHolder is the tagged-variant container named in spec.md §4:
// exactly one concrete provider struct is embedded by value, keeping its
// internal state (HTTP client, subprocess args) at a stable address for
// the daemon's lifetime rather than boxed behind a second allocation.
// Only one of the embedded fields is populated, selected by Kind.
type ProviderHolder struct {
	Kind Kind

	openaiLike *OpenAICompatibleProvider
	anthropic  *AnthropicProvider
	gemini     *GeminiProvider
	cli        *CLIProvider
}

// Provider returns the active variant as the uniform Provider interface.
func (h *ProviderHolder) Provider() Provider {
	switch h.Kind {
	case KindAnthropic:
		return h.anthropic
	case KindGemini:
		return h.gemini
	case KindClaudeCLI, KindCodexCLI, KindOpenAICodex:
		return h.cli
	default:
		return h.openaiLike
	}
}

// Spec is the factory input for one configured provider slot: a name
// (resolved against the recognized provider/base-URL tables, or a
// custom:/anthropic-custom: URL, or a CLI-subprocess provider name), an
// optional explicit API key, and a default model used when a ChatRequest
// leaves Model empty.
type Spec struct {
	Name         string
	APIKey       string
	DefaultModel string
}

// New builds a ProviderHolder for spec, resolving credentials through
// the fan-in precedence in credentials.go and wire format through the
// matching concrete provider constructor. Returns an error only when a
// required credential cannot be resolved by any fan-in source; an
// unrecognized Name never errors; it resolves through ResolveBaseURL's
// OpenRouter fallback instead, per spec.md §4.4/§4.5.
func New(spec Spec) (*ProviderHolder, error) {
	switch spec.Name {
	case "anthropic":
		return newAnthropicHolder(spec)
	case "gemini":
		return newGeminiHolder(spec)
	case "claude-cli":
		return &ProviderHolder{Kind: KindClaudeCLI, cli: NewClaudeCLIProvider(spec.DefaultModel)}, nil
	case "codex-cli":
		return &ProviderHolder{Kind: KindCodexCLI, cli: NewCodexCLIProvider(spec.DefaultModel)}, nil
	case "openai-codex":
		return &ProviderHolder{Kind: KindOpenAICodex, cli: NewOpenAICodexProvider(spec.DefaultModel)}, nil
	default:
		return newOpenAICompatibleHolder(spec)
	}
}

func newAnthropicHolder(spec Spec) (*ProviderHolder, error) {
	// ANTHROPIC_OAUTH_TOKEN takes the bearer code path; it is checked
	// ahead of an explicit config key or ANTHROPIC_API_KEY, mirroring
	// providerEnvVars' ordering for this provider.
	if spec.APIKey == "" {
		if token := envLookup("ANTHROPIC_OAUTH_TOKEN"); token != "" {
			provider := NewAnthropicProviderOAuth(func() (string, error) { return token, nil }, spec.DefaultModel)
			return &ProviderHolder{Kind: KindAnthropic, anthropic: provider}, nil
		}
	}
	key := ResolveAPIKey("anthropic", spec.APIKey)
	if key == "" {
		return nil, fmt.Errorf("no credential found for provider %q", spec.Name)
	}
	return &ProviderHolder{Kind: KindAnthropic, anthropic: NewAnthropicProvider(key, spec.DefaultModel)}, nil
}

func newGeminiHolder(spec Spec) (*ProviderHolder, error) {
	if token, ok := ResolveGeminiOAuth(); ok {
		return &ProviderHolder{
			Kind:   KindGemini,
			gemini: NewGeminiProviderOAuth(func() (string, error) { return token, nil }, spec.DefaultModel),
		}, nil
	}
	key := ResolveAPIKey("gemini", spec.APIKey)
	if key == "" {
		return nil, fmt.Errorf("no credential found for provider %q", spec.Name)
	}
	return &ProviderHolder{Kind: KindGemini, gemini: NewGeminiProvider(key, spec.DefaultModel)}, nil
}

func newOpenAICompatibleHolder(spec Spec) (*ProviderHolder, error) {
	baseURL, display := ResolveBaseURL(spec.Name)
	key := ResolveAPIKey(spec.Name, spec.APIKey)
	if key == "" {
		return nil, fmt.Errorf("no credential found for provider %q", spec.Name)
	}
	provider := NewOpenAICompatibleProvider(key, baseURL, display, spec.DefaultModel)
	return &ProviderHolder{Kind: KindOpenAICompatible, openaiLike: provider}, nil
}
