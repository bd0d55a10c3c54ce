// Package executor implements PlanExecutor: the component that turns a
// quick task or a plan (sequential/parallel) into one bounded CLI
// invocation and a structured result, following the shape of the
// teacher's DriveCodexExecTask turn-driving loop (agents/critic/internal/
// codex_loop.go) generalized from a single Codex turn to any of the four
// registered CLI operators and from a single task string to a whole
// ordered or unordered plan.
package executor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/angkira/ninja-cli-mcp/internal/pathguard"
	"github.com/angkira/ninja-cli-mcp/internal/procdriver"
	"github.com/angkira/ninja-cli-mcp/internal/prompt"
	"github.com/angkira/ninja-cli-mcp/internal/resultparser"
	"github.com/angkira/ninja-cli-mcp/internal/strategy"
	"github.com/angkira/ninja-cli-mcp/internal/taskmodel"
)

// PlanExecutor ties a strategy registry, a process driver, and a session
// store together to run one quick task or one whole plan per call.
type PlanExecutor struct {
	registry *strategy.Registry
	cache    *StrategyCache
	driver   *procdriver.Driver
	sessions *SessionStore
}

// New constructs a PlanExecutor. sessionsDir is created if missing.
func New(sessionsDir string) (*PlanExecutor, error) {
	return NewWithRegistry(sessionsDir, strategy.NewRegistry())
}

// NewWithRegistry is New with an explicit strategy registry, letting a
// caller (or a test) register a stand-in CLI strategy.
func NewWithRegistry(sessionsDir string, registry *strategy.Registry) (*PlanExecutor, error) {
	sessions, err := NewSessionStore(sessionsDir)
	if err != nil {
		return nil, err
	}
	return &PlanExecutor{
		registry: registry,
		cache:    NewStrategyCache(),
		driver:   procdriver.New(0),
		sessions: sessions,
	}, nil
}

// Request bundles everything one execution call needs.
type Request struct {
	RepoRoot    string
	Operator    string
	ConfigHash  string
	Model       string
	SessionID   string
	Scope       pathguard.Scope
}

// ExecuteQuickTask runs a single free-form task string through the chosen
// operator (spec §4.7's quick-task path).
func (e *PlanExecutor) ExecuteQuickTask(ctx context.Context, req Request, task string) (taskmodel.PlanExecutionResult, error) {
	s, err := e.cache.Get(e.registry, req.Operator, req.ConfigHash)
	if err != nil {
		return taskmodel.PlanExecutionResult{}, err
	}

	p := prompt.BuildQuick(prompt.Context{RepoRoot: req.RepoRoot, CLIName: req.Operator, SessionID: req.SessionID}, task)
	inv := s.Build(strategy.ModeQuick, p, nil, req.Model, resolvedSessionID(s, req.SessionID))

	start := time.Now().UTC()
	result, err := e.run(ctx, req, inv)
	if err != nil {
		return taskmodel.PlanExecutionResult{}, err
	}
	return e.finish(result, req, s, resultparser.ParseSimpleResult(result.Output, req.RepoRoot, start, req.Scope))
}

// ExecuteSequentialPlan runs an entire ordered plan through a single CLI
// invocation: every step is folded into one prompt, since the spec treats
// sequential execution as one operator session working through the plan
// in order rather than one subprocess per step (spec §4.7).
func (e *PlanExecutor) ExecuteSequentialPlan(ctx context.Context, req Request, steps []taskmodel.PlanStep) (taskmodel.PlanExecutionResult, error) {
	if err := taskmodel.ValidatePlan(steps); err != nil {
		return taskmodel.PlanExecutionResult{}, err
	}
	return e.executePlan(ctx, req, steps, prompt.ModeSequential)
}

// ExecuteParallelPlan runs an entire unordered plan through a single CLI
// invocation (spec §4.7); "parallel" describes the steps' independence, not
// concurrent subprocesses — a CLI operator is still driven by one
// ProcessDriver call per plan.
func (e *PlanExecutor) ExecuteParallelPlan(ctx context.Context, req Request, steps []taskmodel.PlanStep) (taskmodel.PlanExecutionResult, error) {
	if err := taskmodel.ValidatePlan(steps); err != nil {
		return taskmodel.PlanExecutionResult{}, err
	}
	return e.executePlan(ctx, req, steps, prompt.ModeParallel)
}

func (e *PlanExecutor) executePlan(ctx context.Context, req Request, steps []taskmodel.PlanStep, mode prompt.Mode) (taskmodel.PlanExecutionResult, error) {
	s, err := e.cache.Get(e.registry, req.Operator, req.ConfigHash)
	if err != nil {
		return taskmodel.PlanExecutionResult{}, err
	}

	p, err := prompt.Build(prompt.Context{RepoRoot: req.RepoRoot, CLIName: req.Operator, SessionID: req.SessionID}, mode, "", steps)
	if err != nil {
		return taskmodel.PlanExecutionResult{}, err
	}

	contextPaths := collectContextPaths(steps)
	strategyMode := strategy.Mode(mode)
	inv := s.Build(strategyMode, p, contextPaths, req.Model, resolvedSessionID(s, req.SessionID))

	start := time.Now().UTC()
	result, err := e.run(ctx, req, inv)
	if err != nil {
		return taskmodel.PlanExecutionResult{}, err
	}

	parsed := resultparser.ParsePlanOutput(result.Output, req.RepoRoot, steps, start)
	overall := taskmodel.ComputeOverallStatus(parsed.Steps)
	execResult := taskmodel.PlanExecutionResult{
		OverallStatus: overall,
		Steps:         parsed.Steps,
		FilesModified: taskmodel.UnionFilesModified(parsed.Steps),
		ExecutionTime: result.Duration.Seconds(),
	}
	if overall != taskmodel.StatusSuccess {
		if result.TimedOut {
			execResult.ErrorKind = taskmodel.ErrTimeout
		} else if parsed.ErrorKind != "" {
			execResult.ErrorKind = parsed.ErrorKind
		}
	}

	e.persistSession(s, req, parsed.SessionID)
	return execResult, nil
}

func (e *PlanExecutor) run(ctx context.Context, req Request, inv strategy.Invocation) (procdriver.Result, error) {
	runCtx, cancel := context.WithTimeout(ctx, inv.Timeout)
	defer cancel()
	return e.driver.Run(runCtx, req.RepoRoot, inv.Bin, inv.Args, nil)
}

func (e *PlanExecutor) finish(result procdriver.Result, req Request, s strategy.Strategy, parsed taskmodel.PlanExecutionResult) (taskmodel.PlanExecutionResult, error) {
	parsed.ExecutionTime = result.Duration.Seconds()
	if result.TimedOut {
		parsed.OverallStatus = taskmodel.StatusFailed
		parsed.ErrorKind = taskmodel.ErrTimeout
	}
	if sid := resultparser.ExtractSessionID(result.Output); sid != "" {
		e.persistSession(s, req, sid)
	}
	return parsed, nil
}

func (e *PlanExecutor) persistSession(s strategy.Strategy, req Request, sessionID string) {
	if !s.SupportsSession() || sessionID == "" {
		return
	}
	now := time.Now().UTC()
	sess := Session{
		ID:        sessionID,
		Operator:  s.Name(),
		RepoRoot:  req.RepoRoot,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing, ok, err := e.sessions.Load(sessionID); err == nil && ok {
		sess.CreatedAt = existing.CreatedAt
	}
	_ = e.sessions.Save(sess)
}

func resolvedSessionID(s strategy.Strategy, requested string) string {
	if !s.SupportsSession() {
		return ""
	}
	return requested
}

// NewSessionID mints a fresh random session identifier (a UUID). The
// executor's own paths do not call it; a session ID reaches them only
// through Request.SessionID.
func NewSessionID() string {
	return uuid.NewString()
}

func collectContextPaths(steps []taskmodel.PlanStep) []string {
	seen := map[string]bool{}
	var out []string
	for _, step := range steps {
		for _, p := range step.ContextPaths {
			if seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
