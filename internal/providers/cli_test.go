package providers

import "testing"

func TestFlattenTranscript(t *testing.T) {
	msgs := []Message{
		{Role: RoleSystem, Content: "be terse"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleTool, Content: "42"},
	}
	got := flattenTranscript(msgs)
	want := "System: be terse\n\nUser: hi\n\nAssistant: hello\n\nTool result: 42"
	if got != want {
		t.Errorf("flattenTranscript = %q, want %q", got, want)
	}
}

func TestClaudeCLIProvider_ArgBuilding(t *testing.T) {
	p := NewClaudeCLIProvider("claude-opus")
	if p.Name() != "ClaudeCLI" {
		t.Errorf("Name() = %q", p.Name())
	}
	if p.binary != "claude" {
		t.Errorf("binary = %q, want claude", p.binary)
	}
	args := p.buildArgs("hello", "claude-sonnet")
	want := []string{"-p", "hello", "--model", "claude-sonnet"}
	if len(args) != len(want) {
		t.Fatalf("args = %v, want %v", args, want)
	}
	for i := range args {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestCodexCLIProvider_ArgBuilding(t *testing.T) {
	p := NewCodexCLIProvider("gpt-5-codex")
	args := p.buildArgs("hello", "")
	want := []string{"exec", "hello"}
	if len(args) != len(want) {
		t.Fatalf("args = %v, want %v", args, want)
	}
	for i := range args {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestOpenAICodexProvider_Name(t *testing.T) {
	p := NewOpenAICodexProvider("")
	if p.Name() != "OpenAICodex" {
		t.Errorf("Name() = %q", p.Name())
	}
	if p.binary != "openai-codex" {
		t.Errorf("binary = %q, want openai-codex", p.binary)
	}
	if p.SupportsNativeTools() {
		t.Errorf("CLI providers must not claim native tool support")
	}
}
