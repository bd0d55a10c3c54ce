package strategy

import (
	"strings"
	"testing"
	"time"
)

func TestRegistryGetKnownAndUnknown(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Get("aider"); err != nil {
		t.Fatalf("expected aider registered: %v", err)
	}
	if _, err := r.Get("not-a-cli"); err == nil {
		t.Fatalf("expected error for unknown operator")
	}
}

func TestAiderBuildIncludesContextFilesAsPositional(t *testing.T) {
	s := AiderStrategy{Bin: "aider"}
	inv := s.Build(ModeQuick, "fix it", []string{"a.go", "b.go"}, "", "")
	if inv.Bin != "aider" {
		t.Fatalf("expected aider binary, got %s", inv.Bin)
	}
	if inv.Args[len(inv.Args)-2] != "a.go" || inv.Args[len(inv.Args)-1] != "b.go" {
		t.Fatalf("expected trailing positional context files, got %v", inv.Args)
	}
	if inv.Timeout != 300*time.Second {
		t.Fatalf("expected quick timeout 300s, got %v", inv.Timeout)
	}
}

func TestAiderDoesNotSupportSession(t *testing.T) {
	if (AiderStrategy{}).SupportsSession() {
		t.Fatalf("aider does not support sessions")
	}
}

func TestOpenCodeBuildAddsContinueFlagAndQualifiesModel(t *testing.T) {
	s := OpenCodeStrategy{Bin: "opencode"}
	inv := s.Build(ModeSequential, "do the thing", []string{"f.go"}, "gpt-5", "sess-123")
	joined := joinArgs(inv.Args)
	if !strings.Contains(joined, "--continue sess-123") {
		t.Fatalf("expected --continue sess-123 present, got %v", inv.Args)
	}
	if !strings.Contains(joined, "--model openai/gpt-5") {
		t.Fatalf("expected model qualified with provider tag, got %v", inv.Args)
	}
	if !strings.Contains(joined, "--file f.go") {
		t.Fatalf("expected --file flag for context path, got %v", inv.Args)
	}
}

func TestOpenCodeLeavesAlreadyQualifiedModelAlone(t *testing.T) {
	s := OpenCodeStrategy{Bin: "opencode"}
	inv := s.Build(ModeQuick, "x", nil, "anthropic/claude-3", "")
	if !strings.Contains(joinArgs(inv.Args), "--model anthropic/claude-3") {
		t.Fatalf("expected already-qualified model preserved, got %v", inv.Args)
	}
}

func TestGeminiBuildUsesPromptFlag(t *testing.T) {
	s := GeminiStrategy{Bin: "gemini"}
	inv := s.Build(ModeQuick, "do it", []string{"x.go"}, "", "")
	if !strings.Contains(joinArgs(inv.Args), "--prompt do it") {
		t.Fatalf("expected --prompt flag, got %v", inv.Args)
	}
}

func TestClaudeBuildUsesPrintFlagOnly(t *testing.T) {
	s := ClaudeStrategy{Bin: "claude"}
	inv := s.Build(ModeQuick, "hello", []string{"ignored.go"}, "model-x", "sess")
	if len(inv.Args) != 2 || inv.Args[0] != "--print" || inv.Args[1] != "hello" {
		t.Fatalf("expected exactly [--print hello], got %v", inv.Args)
	}
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}
