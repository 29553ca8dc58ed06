package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nullclaw/nullclaw/internal/usage"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

const defaultMaxOutputTokens = 8192

// GeminiProvider implements Provider against the Gemini generateContent
// REST endpoint. Built directly against the documented wire format
// (rather than google.golang.org/genai — see SPEC_FULL.md) because the
// OAuth-bearer-to-generativelanguage.googleapis.com flow used by the
// Gemini CLI credential file has no equivalent in that SDK.
type GeminiProvider struct {
	httpClient   *http.Client
	apiKey       string
	oauthSource  func() (string, error)
	defaultModel string
}

// NewGeminiProvider authenticates with a Gemini Developer API key,
// appended as a ?key= query parameter.
func NewGeminiProvider(apiKey, defaultModel string) *GeminiProvider {
	return &GeminiProvider{httpClient: http.DefaultClient, apiKey: apiKey, defaultModel: defaultModel}
}

// NewGeminiProviderOAuth authenticates via Authorization: Bearer using a
// token refreshed on demand by oauthSource (the local
// ~/.gemini/oauth_creds.json flow).
func NewGeminiProviderOAuth(oauthSource func() (string, error), defaultModel string) *GeminiProvider {
	return &GeminiProvider{httpClient: http.DefaultClient, oauthSource: oauthSource, defaultModel: defaultModel}
}

func (p *GeminiProvider) Name() string { return "Gemini" }

func (p *GeminiProvider) SupportsNativeTools() bool { return false }

// ComposeGeminiURL builds the generateContent URL for model, per spec.md
// §4.4 / §8 scenario 8: prepend "models/" unless the model name already
// carries that prefix (never double-prefix); API-key auth appends
// ?key=apiKey, OAuth auth carries no query string.
func ComposeGeminiURL(model, apiKey string, oauth bool) string {
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	url := fmt.Sprintf("%s/%s:generateContent", geminiBaseURL, model)
	if !oauth {
		url += "?key=" + apiKey
	}
	return url
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiSystemInstruction struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent          `json:"contents"`
	SystemInstruction *geminiSystemInstruction `json:"system_instruction,omitempty"`
	GenerationConfig  geminiGenerationConfig   `json:"generationConfig"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type geminiResponse struct {
	Candidates    []geminiCandidate    `json:"candidates"`
	UsageMetadata geminiUsageMetadata  `json:"usageMetadata"`
	ModelVersion  string               `json:"modelVersion"`
}

// geminiRole maps a uniform Role to Gemini's two-role content model:
// user->user, assistant->model, tool->user (tool output is replayed to
// the model as if the user supplied it, since Gemini has no distinct
// tool role in this code path).
func geminiRole(r Role) string {
	switch r {
	case RoleAssistant:
		return "model"
	default:
		return "user"
	}
}

func (p *GeminiProvider) ChatWithSystem(ctx context.Context, system, user, model string, temperature float64) (string, error) {
	msgs := []Message{{Role: RoleUser, Content: user}}
	if system != "" {
		msgs = append([]Message{{Role: RoleSystem, Content: system}}, msgs...)
	}
	resp, err := p.Chat(ctx, ChatRequest{Messages: msgs, Model: model, Temperature: temperature})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (p *GeminiProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	gr := geminiRequest{
		GenerationConfig: geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: defaultMaxOutputTokens,
		},
	}
	if req.MaxTokens > 0 {
		gr.GenerationConfig.MaxOutputTokens = req.MaxTokens
	}

	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			if gr.SystemInstruction == nil {
				gr.SystemInstruction = &geminiSystemInstruction{}
			}
			gr.SystemInstruction.Parts = append(gr.SystemInstruction.Parts, geminiPart{Text: m.Content})
			continue
		}
		gr.Contents = append(gr.Contents, geminiContent{
			Role:  geminiRole(m.Role),
			Parts: []geminiPart{{Text: m.Content}},
		})
	}
	var oauth bool
	var apiKey string
	var bearer string
	if p.oauthSource != nil {
		token, err := p.oauthSource()
		if err != nil {
			return nil, fmt.Errorf("gemini oauth token: %w", err)
		}
		oauth = true
		bearer = token
	} else {
		apiKey = p.apiKey
	}

	url := ComposeGeminiURL(model, apiKey, oauth)

	body, err := json.Marshal(gr)
	if err != nil {
		return nil, fmt.Errorf("marshal gemini request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if oauth {
		httpReq.Header.Set("Authorization", "Bearer "+bearer)
	}

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("gemini response body: %w", err)
	}
	if httpResp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: httpResp.StatusCode, Body: string(respBody)}
	}

	var gresp geminiResponse
	if err := json.Unmarshal(respBody, &gresp); err != nil {
		return nil, fmt.Errorf("malformed gemini response: %w", err)
	}
	if len(gresp.Candidates) == 0 {
		return nil, fmt.Errorf("malformed gemini response: no candidates")
	}

	var content strings.Builder
	for _, part := range gresp.Candidates[0].Content.Parts {
		content.WriteString(part.Text)
	}

	return &ChatResponse{
		Content: content.String(),
		Model:   gresp.ModelVersion,
		// Gemini reports its own total_token_count; it is kept as-is, not
		// recomputed from prompt+completion (spec.md §4.13).
		Usage: usage.FromCounts(gresp.UsageMetadata.PromptTokenCount, gresp.UsageMetadata.CandidatesTokenCount, gresp.UsageMetadata.TotalTokenCount),
	}, nil
}

// APIError classifies an upstream HTTP error response. Callers use
// StatusCode to decide retriability per spec.md §7 (5xx/429 retriable,
// everything else not).
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream error (status %d): %s", e.StatusCode, e.Body)
}

// Retriable reports whether this error class should be retried under
// the Router's fallback chain (spec.md §7: transient network,
// upstream-5xx, and rate-limit are retriable; everything else is not).
func (e *APIError) Retriable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}
