package executor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/angkira/ninja-cli-mcp/internal/strategy"
	"github.com/angkira/ninja-cli-mcp/internal/taskmodel"
)

// echoStrategy is a test double that shells out to bash so ExecuteQuickTask
// and executePlan can be exercised without a real CLI operator installed.
type echoStrategy struct {
	output string
	sleep  time.Duration
}

func (e echoStrategy) Name() string         { return "echo" }
func (e echoStrategy) SupportsSession() bool { return true }

func (e echoStrategy) Build(mode strategy.Mode, prompt string, contextPaths []string, model, sessionID string) strategy.Invocation {
	script := `printf '%s' "$1"`
	if e.sleep > 0 {
		script = "sleep 5 && " + script
	}
	return strategy.Invocation{
		Bin:     "bash",
		Args:    []string{"-c", script, "_", e.output},
		Timeout: 2 * time.Second,
	}
}

func newTestExecutor(t *testing.T, s strategy.Strategy) *PlanExecutor {
	t.Helper()
	reg := strategy.NewRegistry()
	reg.Register(s)
	exec, err := NewWithRegistry(t.TempDir(), reg)
	if err != nil {
		t.Fatalf("new executor: %v", err)
	}
	return exec
}

func TestExecuteQuickTaskSuccess(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "out.go"), []byte("package main"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	output := "```json\n{\"id\":\"quick\",\"status\":\"ok\",\"summary\":\"done\",\"files_touched\":[\"out.go\"]}\n```"
	e := newTestExecutor(t, echoStrategy{output: output})

	result, err := e.ExecuteQuickTask(context.Background(), Request{RepoRoot: dir, Operator: "echo", ConfigHash: "h1"}, "fix it")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.OverallStatus != taskmodel.StatusSuccess {
		t.Fatalf("expected success, got %s (%+v)", result.OverallStatus, result)
	}
}

func TestExecuteQuickTaskTimeout(t *testing.T) {
	e := newTestExecutor(t, echoStrategy{output: "irrelevant", sleep: 5 * time.Second})
	result, err := e.ExecuteQuickTask(context.Background(), Request{RepoRoot: t.TempDir(), Operator: "echo", ConfigHash: "h1"}, "wait quietly then do nothing")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.OverallStatus != taskmodel.StatusFailed || result.ErrorKind != taskmodel.ErrTimeout {
		t.Fatalf("expected failed/timeout, got %+v", result)
	}
}

func TestExecuteSequentialPlanRejectsEmptyPlan(t *testing.T) {
	e := newTestExecutor(t, echoStrategy{output: "{}"})
	if _, err := e.ExecuteSequentialPlan(context.Background(), Request{RepoRoot: t.TempDir(), Operator: "echo"}, nil); err == nil {
		t.Fatalf("expected error for empty plan")
	}
}

func TestExecuteSequentialPlanEnforcesScope(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "secrets"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "secrets", "k.env"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	output := "```json\n[{\"id\":\"1\",\"status\":\"ok\",\"summary\":\"done\",\"files_touched\":[\"secrets/k.env\"]}]\n```"
	e := newTestExecutor(t, echoStrategy{output: output})

	steps := []taskmodel.PlanStep{{ID: "1", Title: "t", Task: "x", DenyGlobs: []string{"secrets/**"}}}
	req := Request{
		RepoRoot: dir,
		Operator: "echo",
	}
	result, err := e.ExecuteSequentialPlan(context.Background(), req, steps)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.OverallStatus != taskmodel.StatusFailed {
		t.Fatalf("expected failed due to out-of-scope write, got %+v", result)
	}
}

func TestSessionPersistedForSessionCapableStrategy(t *testing.T) {
	dir := t.TempDir()
	output := "session: 123e4567-e89b-12d3-a456-426614174000\n```json\n{\"id\":\"quick\",\"status\":\"ok\",\"summary\":\"done\",\"files_touched\":[]}\n```"
	sessionsDir := filepath.Join(t.TempDir(), "sessions")
	reg := strategy.NewRegistry()
	reg.Register(echoStrategy{output: output})
	e, err := NewWithRegistry(sessionsDir, reg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if _, err := e.ExecuteQuickTask(context.Background(), Request{RepoRoot: dir, Operator: "echo"}, "do it"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, err := os.Stat(filepath.Join(sessionsDir, "123e4567-e89b-12d3-a456-426614174000.json")); err != nil {
		t.Fatalf("expected session file persisted: %v", err)
	}
}
