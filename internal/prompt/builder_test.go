package prompt

import (
	"strings"
	"testing"

	"github.com/angkira/ninja-cli-mcp/internal/taskmodel"
)

func TestBuildQuickDeterministic(t *testing.T) {
	ctx := Context{RepoRoot: "/repo", CLIName: "aider", SessionID: "s1"}
	a := BuildQuick(ctx, "fix the bug")
	b := BuildQuick(ctx, "fix the bug")
	if a != b {
		t.Fatalf("expected byte-identical output for identical input")
	}
	if a == "" {
		t.Fatalf("expected non-empty prompt")
	}
}

func TestBuildQuickEmptyTaskOmitsSection(t *testing.T) {
	ctx := Context{RepoRoot: "/repo", CLIName: "aider"}
	p := BuildQuick(ctx, "   ")
	if len(p) == 0 {
		t.Fatalf("expected non-empty preamble-only prompt")
	}
	if strings.Contains(p, "Task:") {
		t.Fatalf("expected no Task section for a blank task, got:\n%s", p)
	}
}

func TestBuildSequentialNumbersSteps(t *testing.T) {
	ctx := Context{RepoRoot: "/repo", CLIName: "claude", SessionID: "s2"}
	steps := []taskmodel.PlanStep{
		{ID: "1", Title: "first", Task: "do first thing"},
		{ID: "2", Title: "second", Task: "do second thing", ContextPaths: []string{"src/a.go"}},
	}
	a := BuildSequential(ctx, steps)
	b := BuildSequential(ctx, steps)
	if a != b {
		t.Fatalf("expected deterministic output")
	}
	if !strings.Contains(a, "Step 1") || !strings.Contains(a, "Step 2") {
		t.Fatalf("expected both steps numbered in order, got:\n%s", a)
	}
	if !strings.Contains(a, "src/a.go") {
		t.Fatalf("expected context path to be included")
	}
}

func TestBuildParallelListsAllTasksWithoutOrder(t *testing.T) {
	ctx := Context{RepoRoot: "/repo", CLIName: "gemini"}
	steps := []taskmodel.PlanStep{
		{ID: "a", Title: "alpha", Task: "do alpha"},
		{ID: "b", Title: "beta", Task: "do beta"},
	}
	p := BuildParallel(ctx, steps)
	if !strings.Contains(p, "Task a") || !strings.Contains(p, "Task b") {
		t.Fatalf("expected both task ids present, got:\n%s", p)
	}
}

func TestBuildRejectsUnknownMode(t *testing.T) {
	ctx := Context{RepoRoot: "/repo"}
	if _, err := Build(ctx, Mode("bogus"), "x", nil); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
