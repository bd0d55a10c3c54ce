// Package pathguard validates repo roots and enforces allow/deny glob scope
// for writes the coder subsystem reports back to the client (spec §4.4).
package pathguard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// builtinDeny mirrors the host OS's own housekeeping paths. These are
// rejected in addition to whatever deny_globs a caller supplies.
var builtinDeny = []string{
	".git/**",
	".DS_Store",
	"Thumbs.db",
}

// InternalDirName is the per-repo hidden directory PathGuard owns.
const InternalDirName = ".ninja-cli-mcp"

// InvalidPathError is returned by ValidateRepoRoot.
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}

// ValidateRepoRoot canonicalizes path and fails if it does not exist, is not
// a directory, or still carries traversal segments after resolution. Symlinks
// are followed (SPEC_FULL open-question decision #2).
func ValidateRepoRoot(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", &InvalidPathError{Path: path, Reason: "empty path"}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &InvalidPathError{Path: path, Reason: err.Error()}
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", &InvalidPathError{Path: path, Reason: err.Error()}
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", &InvalidPathError{Path: path, Reason: err.Error()}
	}
	if !info.IsDir() {
		return "", &InvalidPathError{Path: path, Reason: "not a directory"}
	}
	return filepath.Clean(resolved), nil
}

// IsWithin reports whether candidate resolves inside root, following symlinks
// on both sides before comparing.
func IsWithin(candidate, root string) bool {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	resolvedRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		resolvedRoot = filepath.Clean(absRoot)
	}

	absCandidate := candidate
	if !filepath.IsAbs(absCandidate) {
		absCandidate = filepath.Join(resolvedRoot, candidate)
	}
	absCandidate, err = filepath.Abs(absCandidate)
	if err != nil {
		return false
	}
	resolvedCandidate, err := filepath.EvalSymlinks(absCandidate)
	if err != nil {
		// candidate may not exist yet (a path about to be created); fall
		// back to lexical comparison against the resolved root.
		resolvedCandidate = filepath.Clean(absCandidate)
	}

	resolvedCandidate = filepath.Clean(resolvedCandidate)
	resolvedRoot = filepath.Clean(resolvedRoot)
	if resolvedCandidate == resolvedRoot {
		return true
	}
	return strings.HasPrefix(resolvedCandidate, resolvedRoot+string(os.PathSeparator))
}

// EnsureInternalDirs creates the per-repo hidden directory with logs/tasks/
// metadata subfolders, mode 0700.
func EnsureInternalDirs(root string) (string, error) {
	base := filepath.Join(root, InternalDirName)
	for _, sub := range []string{"logs", "tasks", "metadata"} {
		if err := os.MkdirAll(filepath.Join(base, sub), 0o700); err != nil {
			return "", fmt.Errorf("ensure internal dir %s: %w", sub, err)
		}
	}
	return base, nil
}

// Scope bundles the allow/deny glob pair supplied on a PlanStep or quick task.
type Scope struct {
	AllowedGlobs []string
	DenyGlobs    []string
}

// AllowsWrite implements the §4.4 enforcement rule: p must be inside root,
// match at least one AllowedGlobs pattern (when AllowedGlobs is non-empty —
// an empty AllowedGlobs means "no declared scope", not "allow nothing"; see
// §3's invariant, which only fires the restriction when AllowedGlobs is
// non-empty), match none of DenyGlobs, and none of the built-in deny list.
func (s Scope) AllowsWrite(root, p string) bool {
	if !IsWithin(p, root) {
		return false
	}
	rel, err := relativeTo(root, p)
	if err != nil {
		return false
	}
	for _, pattern := range builtinDeny {
		if matchGlob(pattern, rel) {
			return false
		}
	}
	if matchGlob(InternalDirName+"/**", rel) {
		return false
	}
	for _, pattern := range s.DenyGlobs {
		if matchGlob(pattern, rel) {
			return false
		}
	}
	if len(s.AllowedGlobs) == 0 {
		return true
	}
	for _, pattern := range s.AllowedGlobs {
		if matchGlob(pattern, rel) {
			return true
		}
	}
	return false
}

func relativeTo(root, p string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	absP := p
	if !filepath.IsAbs(absP) {
		absP = filepath.Join(absRoot, p)
	}
	rel, err := filepath.Rel(absRoot, absP)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// matchGlob supports git-style "**" segments in addition to filepath.Match's
// single-segment globbing, following the host OS's ignore-file conventions
// (spec §4.4).
func matchGlob(pattern, name string) bool {
	pattern = filepath.ToSlash(pattern)
	name = filepath.ToSlash(name)

	if strings.Contains(pattern, "**") {
		return matchDoubleStar(pattern, name)
	}
	ok, err := filepath.Match(pattern, name)
	if err == nil && ok {
		return true
	}
	// A pattern without "**" matches the whole relative path only: "src"
	// does not match "src/a.go"; use "src/**" for a subtree.
	return false
}

func matchDoubleStar(pattern, name string) bool {
	segs := strings.Split(pattern, "/")
	nameSegs := strings.Split(name, "/")
	return matchSegments(segs, nameSegs)
}

func matchSegments(pattern, name []string) bool {
	if len(pattern) == 0 {
		return len(name) == 0
	}
	if pattern[0] == "**" {
		if len(pattern) == 1 {
			return true
		}
		for i := 0; i <= len(name); i++ {
			if matchSegments(pattern[1:], name[i:]) {
				return true
			}
		}
		return false
	}
	if len(name) == 0 {
		return false
	}
	ok, err := filepath.Match(pattern[0], name[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(pattern[1:], name[1:])
}
