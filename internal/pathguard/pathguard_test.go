package pathguard

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateRepoRootRejectsMissing(t *testing.T) {
	if _, err := ValidateRepoRoot(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatalf("expected error for missing path")
	}
}

func TestValidateRepoRootRejectsFile(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ValidateRepoRoot(f); err == nil {
		t.Fatalf("expected error for non-directory path")
	}
}

func TestValidateRepoRootOK(t *testing.T) {
	dir := t.TempDir()
	resolved, err := ValidateRepoRoot(dir)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if resolved == "" {
		t.Fatalf("expected non-empty resolved path")
	}
}

func TestIsWithin(t *testing.T) {
	root := t.TempDir()
	if !IsWithin(filepath.Join(root, "src", "main.go"), root) {
		t.Fatalf("expected path inside root to be within")
	}
	if IsWithin(filepath.Join(root, "..", "escape.go"), root) {
		t.Fatalf("expected traversal path to be rejected")
	}
}

func TestScopeAllowsWriteRequiresAllowedGlob(t *testing.T) {
	root := t.TempDir()
	scope := Scope{AllowedGlobs: []string{"src/**"}}
	if !scope.AllowsWrite(root, filepath.Join(root, "src", "a.go")) {
		t.Fatalf("expected src/** to allow src/a.go")
	}
	if scope.AllowsWrite(root, filepath.Join(root, "docs", "a.md")) {
		t.Fatalf("expected docs/a.md to be rejected outside scope")
	}
}

func TestScopeAllowsWriteEmptyScopeAllowsAnyInternal(t *testing.T) {
	root := t.TempDir()
	scope := Scope{}
	if !scope.AllowsWrite(root, filepath.Join(root, "anything.go")) {
		t.Fatalf("expected empty scope to allow any in-root path")
	}
}

func TestScopeAllowsWriteDenyGlobWins(t *testing.T) {
	root := t.TempDir()
	scope := Scope{AllowedGlobs: []string{"**"}, DenyGlobs: []string{"secrets/**"}}
	if scope.AllowsWrite(root, filepath.Join(root, "secrets", "k.env")) {
		t.Fatalf("expected deny glob to win over allow glob")
	}
}

func TestScopeAllowsWriteRejectsBuiltinDeny(t *testing.T) {
	root := t.TempDir()
	scope := Scope{}
	if scope.AllowsWrite(root, filepath.Join(root, ".git", "config")) {
		t.Fatalf("expected .git/** to always be rejected")
	}
	if scope.AllowsWrite(root, filepath.Join(root, InternalDirName, "logs", "x.jsonl")) {
		t.Fatalf("expected internal dir to always be rejected")
	}
}

func TestEnsureInternalDirs(t *testing.T) {
	root := t.TempDir()
	base, err := EnsureInternalDirs(root)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	for _, sub := range []string{"logs", "tasks", "metadata"} {
		if info, err := os.Stat(filepath.Join(base, sub)); err != nil || !info.IsDir() {
			t.Fatalf("expected %s to exist", sub)
		}
	}
}
