package providers

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// providerEnvVars lists the provider-specific environment variables
// consulted in credential fan-in step 2, per spec.md §6.
var providerEnvVars = map[string][]string{
	"anthropic":       {"ANTHROPIC_OAUTH_TOKEN", "ANTHROPIC_API_KEY"},
	"openai":          {"OPENAI_API_KEY"},
	"openai-codex":    {"OPENAI_API_KEY"},
	"gemini":          {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"groq":            {"GROQ_API_KEY"},
	"mistral":         {"MISTRAL_API_KEY"},
	"deepseek":        {"DEEPSEEK_API_KEY"},
	"xai":             {"XAI_API_KEY"},
	"grok":            {"XAI_API_KEY"},
	"together":        {"TOGETHER_API_KEY"},
	"fireworks":       {"FIREWORKS_API_KEY"},
	"perplexity":      {"PERPLEXITY_API_KEY"},
	"cohere":          {"COHERE_API_KEY"},
	"venice":          {"VENICE_API_KEY"},
	"moonshot":        {"MOONSHOT_API_KEY"},
	"kimi":            {"MOONSHOT_API_KEY"},
	"nvidia":          {"NVIDIA_API_KEY"},
	"astrai":          {"ASTRAI_API_KEY"},
	"openrouter":      {"OPENROUTER_API_KEY"},
}

// genericEnvVars is step 3 of credential fan-in: generic fallbacks
// consulted after any provider-specific variable misses.
var genericEnvVars = []string{"NULLCLAW_API_KEY", "API_KEY"}

// geminiOAuthWindow is how close to expiry an OAuth token must be before
// it is treated as expired and rejected, per spec.md §4.4.
const geminiOAuthWindow = 5 * time.Minute

// ResolveAPIKey implements the fan-in precedence from spec.md §4.4 and
// §9: (1) an explicit key from config, trimmed, empty rejected; (2)
// provider-specific environment variable(s), checked in order; (3)
// generic fallbacks. The order is observable behavior and must not
// change, and no hidden source may be inserted ahead of it.
func ResolveAPIKey(providerName, explicitKey string) string {
	if k := strings.TrimSpace(explicitKey); k != "" {
		return k
	}
	for _, envVar := range providerEnvVars[providerName] {
		if v := strings.TrimSpace(os.Getenv(envVar)); v != "" {
			return v
		}
	}
	for _, envVar := range genericEnvVars {
		if v := strings.TrimSpace(os.Getenv(envVar)); v != "" {
			return v
		}
	}
	return ""
}

// geminiOAuthCreds is the shape of <home>/.gemini/oauth_creds.json.
type geminiOAuthCreds struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
}

// ResolveGeminiOAuth implements the fourth Gemini-only credential source
// (spec.md §4.4): the local OAuth credential file. Returns ok=false if
// the file is absent, unparseable, or the token is within 5 minutes of
// expiry (or already expired).
func ResolveGeminiOAuth() (accessToken string, ok bool) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	path := filepath.Join(home, ".gemini", "oauth_creds.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}

	var creds geminiOAuthCreds
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", false
	}
	if creds.AccessToken == "" {
		return "", false
	}
	if creds.ExpiresAt > 0 {
		expiry := time.Unix(creds.ExpiresAt, 0)
		if time.Until(expiry) < geminiOAuthWindow {
			return "", false
		}
	}
	return creds.AccessToken, true
}
