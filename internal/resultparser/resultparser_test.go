package resultparser

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/angkira/ninja-cli-mcp/internal/pathguard"
	"github.com/angkira/ninja-cli-mcp/internal/taskmodel"
)

func TestDetectErrorKindAuth(t *testing.T) {
	kind, found := DetectErrorKind("Error: Authentication failed for provider")
	if !found || kind != taskmodel.ErrAuth {
		t.Fatalf("expected auth error kind, got %v found=%v", kind, found)
	}
}

func TestDetectErrorKindNone(t *testing.T) {
	_, found := DetectErrorKind("everything worked fine")
	if found {
		t.Fatalf("did not expect an error kind match")
	}
}

func TestExtractSessionID(t *testing.T) {
	raw := "starting up\nsession: 123e4567-e89b-12d3-a456-426614174000\ndone"
	id := ExtractSessionID(raw)
	if id != "123e4567-e89b-12d3-a456-426614174000" {
		t.Fatalf("expected session id extracted, got %q", id)
	}
}

func TestParsePlanOutputFencedJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw := "some preamble\n```json\n{\"id\":\"1\",\"status\":\"ok\",\"summary\":\"done\",\"files_touched\":[\"main.go\"]}\n```\nsome trailer"
	steps := []taskmodel.PlanStep{{ID: "1", Title: "t", Task: "x"}}
	parsed := ParsePlanOutput(raw, dir, steps, time.Now().UTC())
	if len(parsed.Steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(parsed.Steps))
	}
	if parsed.Steps[0].Status != taskmodel.StepOK {
		t.Fatalf("expected ok status, got %s", parsed.Steps[0].Status)
	}
}

func TestParsePlanOutputSuspiciousSuccessDemoted(t *testing.T) {
	dir := t.TempDir()
	raw := "```json\n{\"id\":\"1\",\"status\":\"ok\",\"summary\":\"done\",\"files_touched\":[\"nonexistent.go\"]}\n```"
	steps := []taskmodel.PlanStep{{ID: "1", Title: "t", Task: "x"}}
	parsed := ParsePlanOutput(raw, dir, steps, time.Now().UTC())
	if parsed.Steps[0].Status != taskmodel.StepFail {
		t.Fatalf("expected suspicious success to be demoted to fail, got %s", parsed.Steps[0].Status)
	}
}

func TestParsePlanOutputHeuristicFallback(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "util.go"), []byte("package main"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw := "no json here, but I did modify `util.go` to add the helper"
	steps := []taskmodel.PlanStep{{ID: "1", Title: "t", Task: "x"}}
	parsed := ParsePlanOutput(raw, dir, steps, time.Now().UTC())
	if len(parsed.Steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(parsed.Steps))
	}
	if parsed.Steps[0].Status != taskmodel.StepOK {
		t.Fatalf("expected heuristic extraction to find util.go and mark ok, got %s: %s", parsed.Steps[0].Status, parsed.Steps[0].Summary)
	}
}

func TestParsePlanOutputMtimeFallback(t *testing.T) {
	dir := t.TempDir()
	start := time.Now().UTC()
	if err := os.WriteFile(filepath.Join(dir, "generated.go"), []byte("package main"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw := "working on it...\nall done, the change is complete"
	steps := []taskmodel.PlanStep{{ID: "1", Title: "t", Task: "x"}}
	parsed := ParsePlanOutput(raw, dir, steps, start)
	if parsed.Steps[0].Status != taskmodel.StepOK {
		t.Fatalf("expected mtime fallback to find generated.go and mark ok, got %s: %s", parsed.Steps[0].Status, parsed.Steps[0].Summary)
	}
	found := false
	for _, f := range parsed.Steps[0].FilesTouched {
		if f == "generated.go" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected generated.go among files_touched, got %v", parsed.Steps[0].FilesTouched)
	}
}

func TestParsePlanOutputNoEvidenceOfChangeFails(t *testing.T) {
	dir := t.TempDir()
	raw := "I finished the task, everything is done."
	steps := []taskmodel.PlanStep{{ID: "1", Title: "t", Task: "x"}}
	parsed := ParsePlanOutput(raw, dir, steps, time.Now().UTC())
	if parsed.Steps[0].Status != taskmodel.StepFail {
		t.Fatalf("expected claimed-but-unverified edit to fail, got %s", parsed.Steps[0].Status)
	}
	if parsed.Steps[0].ErrorMessage != noFilesModifiedMessage {
		t.Fatalf("expected canned no-files-modified message, got %q", parsed.Steps[0].ErrorMessage)
	}
}

func TestParsePlanOutputNoEvidenceAtAllIsSkipped(t *testing.T) {
	dir := t.TempDir()
	raw := "still thinking about the best approach"
	steps := []taskmodel.PlanStep{{ID: "1", Title: "t", Task: "x"}}
	parsed := ParsePlanOutput(raw, dir, steps, time.Now().UTC())
	if parsed.Steps[0].Status != taskmodel.StepSkipped {
		t.Fatalf("expected skip when no action was even claimed, got %s", parsed.Steps[0].Status)
	}
}

func TestVerifyFilesDropsOutOfScopeTouchedPaths(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "secret.env"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw := "```json\n{\"id\":\"1\",\"status\":\"ok\",\"summary\":\"done\",\"files_touched\":[\"secret.env\"]}\n```"
	steps := []taskmodel.PlanStep{{ID: "1", Title: "t", Task: "x", DenyGlobs: []string{"secret.env"}}}
	parsed := ParsePlanOutput(raw, dir, steps, time.Now().UTC())
	if parsed.Steps[0].Status != taskmodel.StepFail {
		t.Fatalf("expected out-of-scope touched file to empty the set and fail, got %s", parsed.Steps[0].Status)
	}
}

func TestParseSimpleResultFailed(t *testing.T) {
	raw := "Error: authentication failed, invalid api key"
	result := ParseSimpleResult(raw, t.TempDir(), time.Now().UTC(), pathguard.Scope{})
	if result.OverallStatus != taskmodel.StatusFailed {
		t.Fatalf("expected failed status, got %s", result.OverallStatus)
	}
	if result.ErrorKind != taskmodel.ErrAuth {
		t.Fatalf("expected auth error kind, got %s", result.ErrorKind)
	}
}
