// Package prompt assembles the text handed to a CLI operator for a task.
// Every template is pure: identical PlanStep/Mode input must produce a
// byte-identical prompt (spec §4.5's determinism invariant), the same way
// the teacher's codexDyadPreamble builds a fixed preamble string from fixed
// inputs before appending the caller's task text.
package prompt

import (
	"fmt"
	"strings"

	"github.com/angkira/ninja-cli-mcp/internal/taskmodel"
)

// Mode selects which template shape to render.
type Mode string

const (
	ModeQuick      Mode = "quick"
	ModeSequential Mode = "sequential"
	ModeParallel   Mode = "parallel"
)

// Context carries the repo-wide framing every mode's preamble includes.
type Context struct {
	RepoRoot   string
	CLIName    string
	SessionID  string
}

func preamble(ctx Context) string {
	return strings.TrimSpace(fmt.Sprintf(
		`NINJA CODER TASK
- repo: %s
- operator: %s
- session: %s

Instructions:
- Make the requested change directly in the repo.
- Keep output concise and operational.
- Report every file you create, modify, or delete.`,
		emptyIf(ctx.RepoRoot, "unknown"),
		emptyIf(ctx.CLIName, "unknown"),
		emptyIf(ctx.SessionID, "none"),
	))
}

func emptyIf(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}

// BuildQuick renders the prompt for a single, session-less task string
// (coder_simple_task).
func BuildQuick(ctx Context, task string) string {
	p := strings.TrimSpace(task)
	if p == "" {
		return preamble(ctx)
	}
	return preamble(ctx) + "\n\nTask:\n" + p
}

// BuildSequential renders one prompt for an entire ordered plan: every step
// is numbered in order, since sequential execution is a single ProcessDriver
// invocation that must see the whole plan up front (spec §4.7).
func BuildSequential(ctx Context, steps []taskmodel.PlanStep) string {
	var b strings.Builder
	b.WriteString(preamble(ctx))
	b.WriteString("\n\nExecute the following steps in order. Complete each fully before starting the next.\n")
	for i, step := range steps {
		b.WriteString(fmt.Sprintf("\nStep %d (%s): %s\n%s\n", i+1, step.ID, step.Title, strings.TrimSpace(step.Task)))
		if len(step.ContextPaths) > 0 {
			b.WriteString("Relevant paths: " + strings.Join(step.ContextPaths, ", ") + "\n")
		}
	}
	b.WriteString("\nWhen finished, summarize which files changed per step.")
	return b.String()
}

// BuildParallel renders one prompt for a set of independent steps the
// operator may tackle in any order, since they share no sequencing
// dependency (spec §4.7).
func BuildParallel(ctx Context, steps []taskmodel.PlanStep) string {
	var b strings.Builder
	b.WriteString(preamble(ctx))
	b.WriteString("\n\nThe following steps are independent. Complete all of them; order does not matter.\n")
	for _, step := range steps {
		b.WriteString(fmt.Sprintf("\nTask %s (%s):\n%s\n", step.ID, step.Title, strings.TrimSpace(step.Task)))
		if len(step.ContextPaths) > 0 {
			b.WriteString("Relevant paths: " + strings.Join(step.ContextPaths, ", ") + "\n")
		}
	}
	b.WriteString("\nWhen finished, summarize which files changed per task id.")
	return b.String()
}

// Build dispatches to the mode-appropriate template.
func Build(ctx Context, mode Mode, task string, steps []taskmodel.PlanStep) (string, error) {
	switch mode {
	case ModeQuick:
		return BuildQuick(ctx, task), nil
	case ModeSequential:
		return BuildSequential(ctx, steps), nil
	case ModeParallel:
		return BuildParallel(ctx, steps), nil
	default:
		return "", fmt.Errorf("prompt: unknown mode %q", mode)
	}
}
