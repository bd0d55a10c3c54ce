// Package taskmodel holds the closed request/response types shared by the
// coder subsystem: plans, steps, and results (spec §3, §9).
package taskmodel

import "fmt"

// OverallStatus is the closed sum for PlanExecutionResult.overall_status.
type OverallStatus string

const (
	StatusSuccess OverallStatus = "success"
	StatusPartial OverallStatus = "partial"
	StatusFailed  OverallStatus = "failed"
)

func (s OverallStatus) IsValid() bool {
	switch s {
	case StatusSuccess, StatusPartial, StatusFailed:
		return true
	}
	return false
}

// StepStatus is the closed sum for StepResult.status.
type StepStatus string

const (
	StepOK      StepStatus = "ok"
	StepFail    StepStatus = "fail"
	StepSkipped StepStatus = "skipped"
)

func (s StepStatus) IsValid() bool {
	switch s {
	case StepOK, StepFail, StepSkipped:
		return true
	}
	return false
}

// ErrorKind is the closed sum from spec §7.
type ErrorKind string

const (
	ErrInvalidRequest     ErrorKind = "invalid_request"
	ErrAuth               ErrorKind = "auth_error"
	ErrInsufficientCredit ErrorKind = "insufficient_credits"
	ErrCLINotFound        ErrorKind = "cli_not_found"
	ErrTimeout            ErrorKind = "timeout"
	ErrParseFailure       ErrorKind = "parse_failure"
	ErrInternal           ErrorKind = "internal_error"
)

func (k ErrorKind) IsValid() bool {
	switch k {
	case ErrInvalidRequest, ErrAuth, ErrInsufficientCredit, ErrCLINotFound, ErrTimeout, ErrParseFailure, ErrInternal:
		return true
	}
	return false
}

// TaskType is the closed sum produced by the TaskAnalyzer (spec §4.7).
type TaskType string

const (
	TaskQuickFix    TaskType = "quick_fix"
	TaskRefactor    TaskType = "refactor"
	TaskFeature     TaskType = "feature"
	TaskArchitect   TaskType = "architecture"
	TaskMultiAgent  TaskType = "multi_agent"
)

func (t TaskType) IsValid() bool {
	switch t {
	case TaskQuickFix, TaskRefactor, TaskFeature, TaskArchitect, TaskMultiAgent:
		return true
	}
	return false
}

// TaskComplexity is the closed sum produced by the TaskAnalyzer.
type TaskComplexity string

const (
	ComplexitySimple    TaskComplexity = "simple"
	ComplexityModerate  TaskComplexity = "moderate"
	ComplexityComplex   TaskComplexity = "complex"
	ComplexityFullStack TaskComplexity = "full_stack"
)

func (c TaskComplexity) IsValid() bool {
	switch c {
	case ComplexitySimple, ComplexityModerate, ComplexityComplex, ComplexityFullStack:
		return true
	}
	return false
}

// PlanStep is immutable once constructed: id, title, task, context/scope globs.
type PlanStep struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Task          string   `json:"task"`
	ContextPaths  []string `json:"context_paths,omitempty"`
	AllowedGlobs  []string `json:"allowed_globs,omitempty"`
	DenyGlobs     []string `json:"deny_globs,omitempty"`
}

// Validate checks the step-level invariants from spec §3 (id/title/task required).
func (s PlanStep) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("plan step: id is required")
	}
	if s.Title == "" {
		return fmt.Errorf("plan step %q: title is required", s.ID)
	}
	if s.Task == "" {
		return fmt.Errorf("plan step %q: task is required", s.ID)
	}
	return nil
}

// ValidatePlan enforces unique step IDs and a non-empty plan (spec §8 boundary behaviors).
func ValidatePlan(steps []PlanStep) error {
	if len(steps) == 0 {
		return fmt.Errorf("plan: at least one step is required")
	}
	seen := make(map[string]bool, len(steps))
	for _, s := range steps {
		if err := s.Validate(); err != nil {
			return err
		}
		if seen[s.ID] {
			return fmt.Errorf("plan: duplicate step id %q", s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}

// StepResult is produced by PlanExecutor for one PlanStep.
type StepResult struct {
	ID            string     `json:"id"`
	Status        StepStatus `json:"status"`
	Summary       string     `json:"summary"`
	FilesTouched  []string   `json:"files_touched"`
	ErrorMessage  string     `json:"error_message,omitempty"`
}

// PlanExecutionResult is the response for sequential/parallel plan execution.
type PlanExecutionResult struct {
	OverallStatus  OverallStatus `json:"overall_status"`
	Steps          []StepResult  `json:"steps"`
	FilesModified  []string      `json:"files_modified"`
	Notes          string        `json:"notes,omitempty"`
	ExecutionTime  float64       `json:"execution_time"`
	ErrorKind      ErrorKind     `json:"error_kind,omitempty"`
}

// ComputeOverallStatus implements the spec §3 / §8 invariant:
// success iff all ok, failed iff none ok, else partial.
func ComputeOverallStatus(steps []StepResult) OverallStatus {
	if len(steps) == 0 {
		return StatusFailed
	}
	okCount := 0
	for _, s := range steps {
		if s.Status == StepOK {
			okCount++
		}
	}
	switch {
	case okCount == len(steps):
		return StatusSuccess
	case okCount == 0:
		return StatusFailed
	default:
		return StatusPartial
	}
}

// UnionFilesModified dedupes files_touched across all steps, preserving first-seen order.
func UnionFilesModified(steps []StepResult) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, s := range steps {
		for _, f := range s.FilesTouched {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}
