package providers

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/nullclaw/nullclaw/internal/usage"
)

// CLIProvider wraps a locally installed agentic CLI (claude, codex) as a
// Provider, invoking it once per Chat call in non-interactive/print mode
// and reading its stdout as the reply: a one-shot request/response
// subprocess invocation rather than a long-lived pipe, since none of
// these CLIs expose a stable stdin protocol for multi-turn chat.
type CLIProvider struct {
	name       string
	binary     string
	buildArgs  func(prompt string, model string) []string
	defaultModel string
}

// NewClaudeCLIProvider drives the `claude` CLI in print mode: `claude -p
// <prompt> --model <model>`, relying on the CLI's own OAuth session.
func NewClaudeCLIProvider(defaultModel string) *CLIProvider {
	return &CLIProvider{
		name:   "ClaudeCLI",
		binary: "claude",
		buildArgs: func(prompt, model string) []string {
			args := []string{"-p", prompt}
			if model != "" {
				args = append(args, "--model", model)
			}
			return args
		},
		defaultModel: defaultModel,
	}
}

// NewCodexCLIProvider drives the `codex` CLI in non-interactive mode:
// `codex exec <prompt>`.
func NewCodexCLIProvider(defaultModel string) *CLIProvider {
	return &CLIProvider{
		name:   "CodexCLI",
		binary: "codex",
		buildArgs: func(prompt, model string) []string {
			args := []string{"exec"}
			if model != "" {
				args = append(args, "--model", model)
			}
			return append(args, prompt)
		},
		defaultModel: defaultModel,
	}
}

// NewOpenAICodexProvider drives the `openai` Codex CLI variant shipped
// by some installs as a distinct binary from `codex`:
// `openai-codex exec <prompt>`.
func NewOpenAICodexProvider(defaultModel string) *CLIProvider {
	return &CLIProvider{
		name:   "OpenAICodex",
		binary: "openai-codex",
		buildArgs: func(prompt, model string) []string {
			args := []string{"exec"}
			if model != "" {
				args = append(args, "--model", model)
			}
			return append(args, prompt)
		},
		defaultModel: defaultModel,
	}
}

func (p *CLIProvider) Name() string { return p.name }

// SupportsNativeTools is false: the CLI subprocess has no structured
// tool-call wire format the daemon can parse, so tool descriptions must
// be embedded in the prompt text by the caller.
func (p *CLIProvider) SupportsNativeTools() bool { return false }

func (p *CLIProvider) ChatWithSystem(ctx context.Context, system, user, model string, temperature float64) (string, error) {
	prompt := user
	if system != "" {
		prompt = system + "\n\n" + user
	}
	resp, err := p.Chat(ctx, ChatRequest{Messages: []Message{{Role: RoleUser, Content: prompt}}, Model: model})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// Chat flattens req.Messages into a single transcript (the CLI has no
// structured multi-message input) and invokes the subprocess once.
func (p *CLIProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	prompt := flattenTranscript(req.Messages)

	args := p.buildArgs(prompt, model)
	cmd := exec.CommandContext(ctx, p.binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", p.binary, err, stderr.String())
	}

	return &ChatResponse{
		Content: strings.TrimRight(stdout.String(), "\n"),
		Model:   model,
		// The CLI subprocess reports no usage object at all; ParseOptional's
		// nil-payload case is exactly this shape, not a special case of it.
		Usage: usage.ParseOptional(nil),
	}, nil
}

func flattenTranscript(msgs []Message) string {
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch m.Role {
		case RoleSystem:
			b.WriteString("System: ")
		case RoleAssistant:
			b.WriteString("Assistant: ")
		case RoleTool:
			b.WriteString("Tool result: ")
		default:
			b.WriteString("User: ")
		}
		b.WriteString(m.Content)
	}
	return b.String()
}
