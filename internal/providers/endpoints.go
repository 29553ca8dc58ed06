package providers

import "strings"

// baseURLs maps a recognized provider name to its OpenAI-compatible base
// URL (no trailing slash), per spec.md §6. Unknown names fall back to
// OpenRouter.
var baseURLs = map[string]string{
	"openai":      "https://api.openai.com",
	"openrouter":  "https://openrouter.ai/api/v1",
	"groq":        "https://api.groq.com/openai",
	"mistral":     "https://api.mistral.ai",
	"xai":         "https://api.x.ai",
	"grok":        "https://api.x.ai",
	"deepseek":    "https://api.deepseek.com",
	"together":    "https://api.together.xyz",
	"fireworks":   "https://api.fireworks.ai/inference/v1",
	"perplexity":  "https://api.perplexity.ai",
	"cohere":      "https://api.cohere.com/compatibility",
	"venice":      "https://api.venice.ai",
	"moonshot":    "https://api.moonshot.cn",
	"kimi":        "https://api.moonshot.cn",
	"cloudflare":  "https://gateway.ai.cloudflare.com/v1",
	"vercel":      "https://api.vercel.ai",
	"zai-coding":  "https://api.z.ai/api/coding/paas/v4",
	"zai-glm":     "https://api.z.ai/api/paas/v4",
	"minimax":     "https://api.minimaxi.com/v1",
	"bedrock":     "https://bedrock-runtime.us-east-1.amazonaws.com",
	"qianfan":     "https://aip.baidubce.com",
	"qwen":        "https://dashscope.aliyuncs.com/compatible-mode/v1",
	"qwen-intl":   "https://dashscope-intl.aliyuncs.com/compatible-mode/v1",
	"qwen-us":     "https://dashscope-us.aliyuncs.com/compatible-mode/v1",
	"copilot":     "https://api.githubcopilot.com",
	"lmstudio":    "http://localhost:1234/v1",
	"ollama":      "http://localhost:11434/v1",
	"nvidia":      "https://integrate.api.nvidia.com/v1",
	"astrai":      "https://as-trai.com/v1",
	"poe":         "https://api.poe.com/v1",
	"opencode":    "https://api.opencode.ai",
}

// displayNames maps a recognized provider name to its human-readable
// form, used only for diagnostics (Provider.Name()).
var displayNames = map[string]string{
	"openai":     "OpenAI",
	"openrouter": "OpenRouter",
	"groq":       "Groq",
	"mistral":    "Mistral",
	"xai":        "xAI",
	"grok":       "xAI",
	"deepseek":   "DeepSeek",
	"together":   "Together AI",
	"fireworks":  "Fireworks",
	"perplexity": "Perplexity",
	"cohere":     "Cohere",
	"venice":     "Venice",
	"moonshot":   "Moonshot",
	"kimi":       "Moonshot",
	"cloudflare": "Cloudflare AI Gateway",
	"vercel":     "Vercel AI",
	"zai-coding": "Z.ai Coding",
	"zai-glm":    "Z.ai GLM",
	"minimax":    "MiniMax",
	"bedrock":    "Amazon Bedrock",
	"qianfan":    "Baidu Qianfan",
	"qwen":       "Qwen",
	"qwen-intl":  "Qwen International",
	"qwen-us":    "Qwen US",
	"copilot":    "GitHub Copilot",
	"lmstudio":   "LM Studio",
	"ollama":     "Ollama",
	"nvidia":     "NVIDIA",
	"astrai":     "AstrAI",
	"poe":        "Poe",
	"opencode":   "OpenCode",
}

// ResolveBaseURL returns the base URL for a recognized OpenAI-compatible
// provider name. The custom:<url> and anthropic-custom:<url> prefixes
// supply the URL inline. Unknown names route via OpenRouter.
func ResolveBaseURL(name string) (url string, display string) {
	if u, ok := strings.CutPrefix(name, "custom:"); ok {
		return u, "Custom"
	}
	if u, ok := strings.CutPrefix(name, "anthropic-custom:"); ok {
		return u, "Custom Anthropic"
	}
	if u, ok := baseURLs[name]; ok {
		return u, displayNames[name]
	}
	return baseURLs["openrouter"], "OpenRouter (fallback)"
}

// transcriptionEndpoints maps a provider name to its audio transcription
// endpoint, per spec.md §6/§4.11.
var transcriptionEndpoints = map[string]string{
	"openai": "https://api.openai.com/v1/audio/transcriptions",
	"groq":   "https://api.groq.com/openai/v1/audio/transcriptions",
}

// ResolveTranscriptionEndpoint implements §4.11's endpoint resolution:
// an explicit endpoint always wins; otherwise a known provider name maps
// to its URL; an unknown name falls back to the Groq-compatible URL.
func ResolveTranscriptionEndpoint(explicit, providerName string) string {
	if explicit != "" {
		return explicit
	}
	if u, ok := transcriptionEndpoints[providerName]; ok {
		return u
	}
	return transcriptionEndpoints["groq"]
}
