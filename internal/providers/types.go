// Package providers implements the uniform capability surface over the
// daemon's LLM backends: a tagged-variant holder storing each concrete
// provider by value so its internal state stays at a stable address for
// the daemon's lifetime (spec.md §4.4, §9).
package providers

import (
	"context"

	"github.com/nullclaw/nullclaw/internal/usage"
)

// Role identifies the speaker of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is an immutable role-tagged chat turn.
type Message struct {
	Role       Role
	Content    string
	Name       string
	ToolCallID string
}

// ToolCall is a single tool invocation requested by a provider reply.
// Arguments is carried as opaque JSON text; the caller decides how to
// unmarshal it per tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolResult pairs a tool's output back to the ToolCall that produced
// it.
type ToolResult struct {
	ToolCallID string
	Content    string
}

// ToolDefinition is a single tool specification offered to a provider
// that supports native tool calling.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// ChatRequest is the uniform request shape accepted by every provider
// kind, independent of wire format.
type ChatRequest struct {
	Messages    []Message
	Model       string
	Temperature float64
	MaxTokens   int
	Tools       []ToolDefinition
}

// UsageInfo normalizes a provider's token accounting. It is an alias of
// usage.Info (internal/usage), which owns the parsing rules from
// spec.md §4.13: missing fields default to 0 and the sum of
// Prompt+Completion is not recomputed against Total.
type UsageInfo = usage.Info

// ChatResponse is the uniform reply shape returned by every provider
// kind.
type ChatResponse struct {
	Content   string
	ToolCalls []ToolCall
	Usage     UsageInfo
	Model     string
}

// Provider is the capability surface every concrete provider kind
// implements. ChatWithTools defaults to Chat when a provider has no
// distinct tool-calling code path.
type Provider interface {
	// Name returns a diagnostic-only identifier, never used for routing.
	Name() string
	// Chat sends a full request (including tools, if any) and returns the
	// normalized response.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	// ChatWithSystem is a convenience wrapper for a single system+user
	// turn with no tool calling.
	ChatWithSystem(ctx context.Context, system, user, model string, temperature float64) (string, error)
	// SupportsNativeTools reports whether Chat can be given ToolDefinitions
	// directly, versus requiring the caller to embed tool descriptions in
	// the prompt.
	SupportsNativeTools() bool
}

// Warmer is implemented by providers that benefit from an explicit
// connection warmup call before serving traffic.
type Warmer interface {
	Warmup(ctx context.Context) error
}

// StreamingCapable is implemented by providers that can report whether
// they support token streaming (no streaming transport is specified by
// spec.md; this is a capability probe only).
type StreamingCapable interface {
	SupportsStreaming() bool
}
