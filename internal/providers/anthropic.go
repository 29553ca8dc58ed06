package providers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/nullclaw/nullclaw/internal/usage"
)

// AnthropicProvider implements Provider against the native Anthropic
// Messages API: a separate top-level system field and a content-block
// array, as opposed to the OpenAI-compatible flat message list.
// Supports both a plain API key and an OAuth bearer token source.
type AnthropicProvider struct {
	client       *anthropic.Client
	tokenSource  func() (string, error)
	defaultModel string
}

// NewAnthropicProvider authenticates with a static API key sent as
// x-api-key.
func NewAnthropicProvider(apiKey, defaultModel string) *AnthropicProvider {
	client := anthropic.NewClient(option.WithAuthToken(apiKey))
	return &AnthropicProvider{client: &client, defaultModel: defaultModel}
}

// NewAnthropicProviderOAuth authenticates via Authorization: Bearer using
// a token refreshed on demand by tokenSource, for Claude subscription
// OAuth credentials rather than a raw API key.
func NewAnthropicProviderOAuth(tokenSource func() (string, error), defaultModel string) *AnthropicProvider {
	client := anthropic.NewClient(option.WithMiddleware(oauthBearerMiddleware(tokenSource)))
	return &AnthropicProvider{client: &client, tokenSource: tokenSource, defaultModel: defaultModel}
}

// oauthBearerMiddleware strips the SDK's default x-api-key header and
// substitutes an OAuth bearer token, mirroring the CLI auth dance
// required by Claude Max/Pro subscriptions.
func oauthBearerMiddleware(tokenSource func() (string, error)) option.Middleware {
	return func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		token, err := tokenSource()
		if err != nil {
			return nil, fmt.Errorf("refreshing anthropic oauth token: %w", err)
		}
		req.Header.Del("X-Api-Key")
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("anthropic-beta", "oauth-2025-04-20")
		return next(req)
	}
}

func (p *AnthropicProvider) Name() string { return "Anthropic" }

func (p *AnthropicProvider) SupportsNativeTools() bool { return true }

func (p *AnthropicProvider) ChatWithSystem(ctx context.Context, system, user, model string, temperature float64) (string, error) {
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

func (p *AnthropicProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	var system []anthropic.TextBlockParam
	var messages []anthropic.MessageParam

	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case RoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		case RoleTool:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false)))
		}
	}

	maxTokens := int64(4096)
	if req.MaxTokens > 0 {
		maxTokens = int64(req.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(req.Temperature),
	}
	if len(system) > 0 {
		params.System = system
	}
	if len(req.Tools) > 0 {
		params.Tools = adaptAnthropicTools(req.Tools)
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic chat: %w", err)
	}

	return parseAnthropicResponse(resp), nil
}

func adaptAnthropicTools(tools []ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		tool := anthropic.ToolParam{
			Name: t.Name,
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: t.Parameters["properties"],
			},
		}
		if t.Description != "" {
			tool.Description = anthropic.String(t.Description)
		}
		if req, ok := t.Parameters["required"].([]interface{}); ok {
			var required []string
			for _, r := range req {
				if s, ok := r.(string); ok {
					required = append(required, s)
				}
			}
			tool.InputSchema.Required = required
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &tool})
	}
	return out
}

func parseAnthropicResponse(resp *anthropic.Message) *ChatResponse {
	var content string
	var calls []ToolCall

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			content += block.AsText().Text
		case "tool_use":
			tu := block.AsToolUse()
			calls = append(calls, ToolCall{
				ID:        tu.ID,
				Name:      tu.Name,
				Arguments: string(tu.Input),
			})
		}
	}

	return &ChatResponse{
		Content:   content,
		ToolCalls: calls,
		Model:     string(resp.Model),
		// Anthropic reports input/output tokens but no total; total here is
		// defined as their sum since there is no provider-reported total to
		// preserve independently of it (unlike OpenAI-compatible responses,
		// where a reported total is kept as-is, see usage.ParseOptional).
		Usage: usage.FromCounts(int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens), int(resp.Usage.InputTokens+resp.Usage.OutputTokens)),
	}
}
