package providers

import (
	"context"
	"encoding/json"
	"fmt"

	sdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/nullclaw/nullclaw/internal/usage"
)

// OpenAICompatibleProvider implements Provider against any endpoint that
// speaks the OpenAI Chat Completions wire format — OpenAI itself, and
// the ~40 compatible endpoints resolved via ResolveBaseURL.
type OpenAICompatibleProvider struct {
	client      sdk.Client
	displayName string
	defaultModel string
}

// NewOpenAICompatibleProvider builds a provider pointed at baseURL,
// authenticated with apiKey. displayName is used only by Name().
func NewOpenAICompatibleProvider(apiKey, baseURL, displayName, defaultModel string) *OpenAICompatibleProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAICompatibleProvider{
		client:       sdk.NewClient(opts...),
		displayName:  displayName,
		defaultModel: defaultModel,
	}
}

func (p *OpenAICompatibleProvider) Name() string { return p.displayName }

func (p *OpenAICompatibleProvider) SupportsNativeTools() bool { return true }

func (p *OpenAICompatibleProvider) ChatWithSystem(ctx context.Context, system, user, model string, temperature float64) (string, error) {
	var msgs []Message
	if system != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: system})
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: user})

	resp, err := p.Chat(ctx, ChatRequest{Messages: msgs, Model: model, Temperature: temperature})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (p *OpenAICompatibleProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	params := sdk.ChatCompletionNewParams{
		Model:       sdk.ChatModel(model),
		Messages:    adaptMessages(req.Messages),
		Temperature: sdk.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = sdk.Int(int64(req.MaxTokens))
	}
	if len(req.Tools) > 0 {
		params.Tools = adaptTools(req.Tools)
	}

	comp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s chat completion: %w", p.displayName, err)
	}
	if len(comp.Choices) == 0 {
		return nil, fmt.Errorf("%s returned no choices", p.displayName)
	}

	choice := comp.Choices[0]
	var calls []ToolCall
	for _, tc := range choice.Message.ToolCalls {
		calls = append(calls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return &ChatResponse{
		Content:   choice.Message.Content,
		ToolCalls: calls,
		Model:     string(comp.Model),
		Usage: usage.FromCounts(int(comp.Usage.PromptTokens), int(comp.Usage.CompletionTokens), int(comp.Usage.TotalTokens)),
	}, nil
}

func adaptMessages(msgs []Message) []sdk.ChatCompletionMessageParamUnion {
	out := make([]sdk.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, sdk.SystemMessage(m.Content))
		case RoleUser:
			out = append(out, sdk.UserMessage(m.Content))
		case RoleAssistant:
			out = append(out, sdk.AssistantMessage(m.Content))
		case RoleTool:
			out = append(out, sdk.ToolMessage(m.Content, m.ToolCallID))
		}
	}
	return out
}

func adaptTools(tools []ToolDefinition) []sdk.ChatCompletionToolUnionParam {
	out := make([]sdk.ChatCompletionToolUnionParam, 0, len(tools))
	for _, t := range tools {
		params := t.Parameters
		if params == nil {
			params = map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
		}
		raw, _ := json.Marshal(params)
		var fnParams map[string]interface{}
		_ = json.Unmarshal(raw, &fnParams)

		out = append(out, sdk.ChatCompletionFunctionTool(sdk.FunctionDefinitionParam{
			Name:        t.Name,
			Description: sdk.String(t.Description),
			Parameters:  fnParams,
		}))
	}
	return out
}
