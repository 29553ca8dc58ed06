package providers

import "testing"

func TestNew_ExplicitKeyTakesPrecedence(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "env-key")
	t.Setenv("NULLCLAW_API_KEY", "")
	t.Setenv("API_KEY", "")

	holder, err := New(Spec{Name: "groq", APIKey: "  explicit-key  ", DefaultModel: "llama-3.3-70b"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if holder.Kind != KindOpenAICompatible {
		t.Fatalf("Kind = %v, want KindOpenAICompatible", holder.Kind)
	}
	if holder.Provider().Name() != "Groq" {
		t.Errorf("Name() = %q, want Groq", holder.Provider().Name())
	}
}

func TestNew_MissingCredentialErrors(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("NULLCLAW_API_KEY", "")
	t.Setenv("API_KEY", "")

	_, err := New(Spec{Name: "groq"})
	if err == nil {
		t.Fatal("expected error when no credential resolves")
	}
}

func TestNew_UnknownNameFallsBackToOpenRouter(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("NULLCLAW_API_KEY", "fallback-key")

	holder, err := New(Spec{Name: "some-totally-unknown-provider"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if holder.Provider().Name() != "OpenRouter (fallback)" {
		t.Errorf("Name() = %q, want OpenRouter (fallback)", holder.Provider().Name())
	}
}

func TestNew_AnthropicOAuthTakesPrecedenceOverAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_OAUTH_TOKEN", "oauth-tok")
	t.Setenv("ANTHROPIC_API_KEY", "should-not-be-used")

	holder, err := New(Spec{Name: "anthropic", DefaultModel: "claude-opus-4"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if holder.Kind != KindAnthropic {
		t.Fatalf("Kind = %v, want KindAnthropic", holder.Kind)
	}
}

func TestNew_CLIProviders(t *testing.T) {
	cases := []struct {
		name string
		kind Kind
	}{
		{"claude-cli", KindClaudeCLI},
		{"codex-cli", KindCodexCLI},
		{"openai-codex", KindOpenAICodex},
	}
	for _, tc := range cases {
		holder, err := New(Spec{Name: tc.name})
		if err != nil {
			t.Fatalf("New(%q): %v", tc.name, err)
		}
		if holder.Kind != tc.kind {
			t.Errorf("New(%q).Kind = %v, want %v", tc.name, holder.Kind, tc.kind)
		}
	}
}

func TestNew_Gemini(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("NULLCLAW_API_KEY", "")
	t.Setenv("API_KEY", "")
	t.Setenv("HOME", t.TempDir())

	holder, err := New(Spec{Name: "gemini", APIKey: "gk"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if holder.Kind != KindGemini {
		t.Fatalf("Kind = %v, want KindGemini", holder.Kind)
	}
}
