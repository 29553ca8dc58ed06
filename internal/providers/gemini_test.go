package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestComposeGeminiURL(t *testing.T) {
	cases := []struct {
		name  string
		model string
		key   string
		oauth bool
		want  string
	}{
		{
			name:  "bare model name gets models prefix, api key",
			model: "gemini-2.0-flash",
			key:   "abc123",
			oauth: false,
			want:  "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent?key=abc123",
		},
		{
			name:  "already prefixed model is not double-prefixed",
			model: "models/gemini-2.0-flash",
			key:   "abc123",
			oauth: false,
			want:  "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent?key=abc123",
		},
		{
			name:  "oauth omits query string",
			model: "gemini-2.0-flash",
			oauth: true,
			want:  "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComposeGeminiURL(tc.model, tc.key, tc.oauth)
			if got != tc.want {
				t.Errorf("ComposeGeminiURL(%q, %q, %v) = %q, want %q", tc.model, tc.key, tc.oauth, got, tc.want)
			}
		})
	}
}

func TestGeminiProvider_ChatAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.String(), "key=testkey") {
			t.Errorf("expected key query param, got %s", r.URL.String())
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("api-key path must not set Authorization header")
		}
		var body geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body.SystemInstruction == nil || len(body.SystemInstruction.Parts) == 0 {
			t.Errorf("expected system instruction to be set")
		}
		_ = json.NewEncoder(w).Encode(geminiResponse{
			Candidates: []geminiCandidate{
				{Content: geminiContent{Role: "model", Parts: []geminiPart{{Text: "hello there"}}}},
			},
			UsageMetadata: geminiUsageMetadata{PromptTokenCount: 5, CandidatesTokenCount: 3, TotalTokenCount: 8},
			ModelVersion:  "gemini-2.0-flash",
		})
	}))
	defer server.Close()

	p := NewGeminiProvider("testkey", "gemini-2.0-flash")
	p.httpClient = server.Client()

	resp, err := p.Chat(context.Background(), ChatRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: "be terse"},
			{Role: RoleUser, Content: "hi"},
		},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "hello there" {
		t.Errorf("Content = %q, want %q", resp.Content, "hello there")
	}
	if resp.Usage.TotalTokens != 8 {
		t.Errorf("TotalTokens = %d, want 8", resp.Usage.TotalTokens)
	}
}

func TestGeminiProvider_ChatOAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "" {
			t.Errorf("oauth path must not include key query param")
		}
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			t.Errorf("Authorization header = %q", r.Header.Get("Authorization"))
		}
		_ = json.NewEncoder(w).Encode(geminiResponse{
			Candidates: []geminiCandidate{
				{Content: geminiContent{Role: "model", Parts: []geminiPart{{Text: "ok"}}}},
			},
		})
	}))
	defer server.Close()

	p := NewGeminiProviderOAuth(func() (string, error) { return "tok-123", nil }, "gemini-2.0-flash")
	p.httpClient = server.Client()

	_, err := p.Chat(context.Background(), ChatRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
}

func TestGeminiProvider_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer server.Close()

	p := NewGeminiProvider("testkey", "gemini-2.0-flash")
	p.httpClient = server.Client()

	_, err := p.Chat(context.Background(), ChatRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if !apiErr.Retriable() {
		t.Errorf("429 should be retriable")
	}
}

func TestGeminiRoleMapping(t *testing.T) {
	cases := []struct {
		role Role
		want string
	}{
		{RoleUser, "user"},
		{RoleAssistant, "model"},
		{RoleTool, "user"},
	}
	for _, tc := range cases {
		if got := geminiRole(tc.role); got != tc.want {
			t.Errorf("geminiRole(%v) = %q, want %q", tc.role, got, tc.want)
		}
	}
}
