// Package strategy builds per-CLI command lines and timeout budgets for the
// four supported operators (spec §4.6's CLIStrategy family). Each strategy
// is a thin, stateless command builder; actually running the command and
// parsing its output belongs to internal/procdriver and
// internal/resultparser respectively, mirroring how the teacher keeps
// codex-interactive-driver (spawn) and codex-stdout-parser (parse) as
// separate binaries rather than one monolith.
package strategy

import (
	"fmt"
	"strings"
	"time"
)

// Mode mirrors prompt.Mode; duplicated here (rather than imported) so this
// package stays free of a dependency on internal/prompt, since a strategy
// only needs to know the mode's name to pick a timeout budget.
type Mode string

const (
	ModeQuick      Mode = "quick"
	ModeSequential Mode = "sequential"
	ModeParallel   Mode = "parallel"
)

// Invocation is a ready-to-run command: binary name, argv, and the timeout
// that should bound it.
type Invocation struct {
	Bin     string
	Args    []string
	Timeout time.Duration
}

// Strategy builds the Invocation for one CLI operator.
type Strategy interface {
	// Name is the registered operator name ("aider", "opencode", ...).
	Name() string
	// SupportsSession reports whether this operator can resume a prior
	// conversation via a session ID.
	SupportsSession() bool
	// Build constructs the command for a single prompt. sessionID is
	// empty unless SupportsSession() is true and a prior session exists.
	Build(mode Mode, prompt string, contextPaths []string, model, sessionID string) Invocation
}

// Registry holds every known strategy, keyed by operator name.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry returns a Registry pre-populated with the four built-in
// strategies.
func NewRegistry() *Registry {
	r := &Registry{strategies: map[string]Strategy{}}
	for _, s := range []Strategy{
		AiderStrategy{Bin: "aider"},
		OpenCodeStrategy{Bin: "opencode"},
		GeminiStrategy{Bin: "gemini"},
		ClaudeStrategy{Bin: "claude"},
	} {
		r.strategies[s.Name()] = s
	}
	return r
}

// Get returns the named strategy, or an error if unregistered.
func (r *Registry) Get(name string) (Strategy, error) {
	s, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("strategy: unknown operator %q", name)
	}
	return s, nil
}

// Register adds or replaces the strategy under its own Name(), letting a
// caller extend the registry with a new CLI operator or swap one out for a
// test double.
func (r *Registry) Register(s Strategy) {
	r.strategies[s.Name()] = s
}

// timeoutFor returns the per-mode timeout budget in seconds given an
// operator's table from spec §4.6 (quick/sequential/parallel).
func timeoutFor(mode Mode, quick, seq, par int) time.Duration {
	switch mode {
	case ModeQuick:
		return time.Duration(quick) * time.Second
	case ModeSequential:
		return time.Duration(seq) * time.Second
	case ModeParallel:
		return time.Duration(par) * time.Second
	default:
		return time.Duration(seq) * time.Second
	}
}

func quoteArgs(paths []string) []string {
	out := make([]string, len(paths))
	copy(out, paths)
	return out
}

func trimmedOrEmpty(s string) string {
	return strings.TrimSpace(s)
}
