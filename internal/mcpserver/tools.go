package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/angkira/ninja-cli-mcp/internal/pathguard"
	"github.com/angkira/ninja-cli-mcp/internal/taskmodel"
)

// SimpleTaskInput is coder_simple_task's request shape (spec §4.11).
type SimpleTaskInput struct {
	Task         string   `json:"task"`
	RepoRoot     string   `json:"repo_root"`
	ContextPaths []string `json:"context_paths,omitempty"`
	AllowedGlobs []string `json:"allowed_globs,omitempty"`
	DenyGlobs    []string `json:"deny_globs,omitempty"`
	Model        string   `json:"model,omitempty"`
}

// PlanOutput is the shared response shape for every execution tool.
type PlanOutput struct {
	OverallStatus string   `json:"overall_status"`
	FilesModified []string `json:"files_modified"`
	Notes         string   `json:"notes,omitempty"`
	ExecutionTime float64  `json:"execution_time"`
	ErrorKind     string   `json:"error_kind,omitempty"`
	Steps         []StepOutput `json:"steps"`
}

// StepOutput mirrors taskmodel.StepResult in the wire format.
type StepOutput struct {
	ID           string   `json:"id"`
	Status       string   `json:"status"`
	Summary      string   `json:"summary,omitempty"`
	FilesTouched []string `json:"files_touched,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty"`
}

func toPlanOutput(r taskmodel.PlanExecutionResult) PlanOutput {
	out := PlanOutput{
		OverallStatus: string(r.OverallStatus),
		FilesModified: r.FilesModified,
		Notes:         r.Notes,
		ExecutionTime: r.ExecutionTime,
		ErrorKind:     string(r.ErrorKind),
	}
	for _, s := range r.Steps {
		out.Steps = append(out.Steps, StepOutput{
			ID:           s.ID,
			Status:       string(s.Status),
			Summary:      s.Summary,
			FilesTouched: s.FilesTouched,
			ErrorMessage: s.ErrorMessage,
		})
	}
	return out
}

func (s *ToolServer) simpleTask(ctx context.Context, _ *mcp.CallToolRequest, in SimpleTaskInput) (*mcp.CallToolResult, PlanOutput, error) {
	repoRoot, err := pathguard.ValidateRepoRoot(in.RepoRoot)
	if err != nil {
		return nil, PlanOutput{}, err
	}
	for _, p := range in.ContextPaths {
		if !pathguard.IsWithin(p, repoRoot) {
			return nil, PlanOutput{}, errors.New("mcpserver: context path outside repo_root: " + p)
		}
	}

	req := s.baseRequest(repoRoot, in.AllowedGlobs, in.DenyGlobs, in.Model)
	result, err := s.exec.ExecuteQuickTask(ctx, req, in.Task)
	if err != nil {
		return nil, PlanOutput{}, err
	}
	return nil, toPlanOutput(result), nil
}

// ExecutePlanInput is shared by coder_execute_plan_sequential and
// coder_execute_plan_parallel.
type ExecutePlanInput struct {
	RepoRoot string               `json:"repo_root"`
	Steps    []taskmodel.PlanStep `json:"steps"`
	Fanout   int                  `json:"fanout,omitempty"`
	Model    string               `json:"model,omitempty"`
}

func (s *ToolServer) executeSequential(ctx context.Context, _ *mcp.CallToolRequest, in ExecutePlanInput) (*mcp.CallToolResult, PlanOutput, error) {
	if err := validatePlanInputShape(in); err != nil {
		return nil, PlanOutput{}, err
	}
	repoRoot, err := pathguard.ValidateRepoRoot(in.RepoRoot)
	if err != nil {
		return nil, PlanOutput{}, err
	}
	req := s.baseRequest(repoRoot, nil, nil, in.Model)
	result, err := s.exec.ExecuteSequentialPlan(ctx, req, in.Steps)
	if err != nil {
		return nil, PlanOutput{}, err
	}
	return nil, toPlanOutput(result), nil
}

func (s *ToolServer) executeParallel(ctx context.Context, _ *mcp.CallToolRequest, in ExecutePlanInput) (*mcp.CallToolResult, PlanOutput, error) {
	if err := validatePlanInputShape(in); err != nil {
		return nil, PlanOutput{}, err
	}
	repoRoot, err := pathguard.ValidateRepoRoot(in.RepoRoot)
	if err != nil {
		return nil, PlanOutput{}, err
	}
	req := s.baseRequest(repoRoot, nil, nil, in.Model)
	result, err := s.exec.ExecuteParallelPlan(ctx, req, in.Steps)
	if err != nil {
		return nil, PlanOutput{}, err
	}
	return nil, toPlanOutput(result), nil
}

func validatePlanInputShape(in ExecutePlanInput) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return validatePlanShape(raw)
}

// RunTestsInput is coder_run_tests' request shape.
type RunTestsInput struct {
	RepoRoot string   `json:"repo_root"`
	Commands []string `json:"commands"`
}

// RunTestsOutput reports each command's exit status.
type RunTestsOutput struct {
	OverallStatus string            `json:"overall_status"`
	Results       []TestCommandResult `json:"results"`
}

// TestCommandResult is one command's outcome.
type TestCommandResult struct {
	Command  string `json:"command"`
	ExitCode int    `json:"exit_code"`
	Output   string `json:"output"`
}

func (s *ToolServer) runTests(ctx context.Context, _ *mcp.CallToolRequest, in RunTestsInput) (*mcp.CallToolResult, RunTestsOutput, error) {
	repoRoot, err := pathguard.ValidateRepoRoot(in.RepoRoot)
	if err != nil {
		return nil, RunTestsOutput{}, err
	}
	if len(in.Commands) == 0 {
		return nil, RunTestsOutput{}, errors.New("mcpserver: commands is required and must be non-empty")
	}

	out := RunTestsOutput{OverallStatus: string(taskmodel.StatusSuccess)}
	for _, command := range in.Commands {
		result, err := s.driver.Run(ctx, repoRoot, "bash", []string{"-lc", command}, nil)
		if err != nil {
			return nil, RunTestsOutput{}, err
		}
		out.Results = append(out.Results, TestCommandResult{Command: command, ExitCode: result.ExitCode, Output: result.Output})
		if result.ExitCode != 0 {
			out.OverallStatus = string(taskmodel.StatusFailed)
		}
	}
	return nil, out, nil
}

// ApplyPatchInput is coder_apply_patch's request shape. Unlike the CLI-
// driven tools, a patch is a concrete, fully-known diff, so its touched
// paths are checked against scope before dispatch rather than after (spec
// §4.4's pre-dispatch hard-reject path).
type ApplyPatchInput struct {
	RepoRoot     string   `json:"repo_root"`
	Patch        string   `json:"patch"`
	AllowedGlobs []string `json:"allowed_globs,omitempty"`
	DenyGlobs    []string `json:"deny_globs,omitempty"`
}

// ApplyPatchOutput reports whether the patch applied and which files it
// touched.
type ApplyPatchOutput struct {
	OverallStatus string   `json:"overall_status"`
	FilesModified []string `json:"files_modified"`
	ErrorMessage  string   `json:"error_message,omitempty"`
}

func (s *ToolServer) applyPatch(ctx context.Context, _ *mcp.CallToolRequest, in ApplyPatchInput) (*mcp.CallToolResult, ApplyPatchOutput, error) {
	repoRoot, err := pathguard.ValidateRepoRoot(in.RepoRoot)
	if err != nil {
		return nil, ApplyPatchOutput{}, err
	}
	if strings.TrimSpace(in.Patch) == "" {
		return nil, ApplyPatchOutput{}, errors.New("mcpserver: patch is required")
	}

	touched := extractPatchTargets(in.Patch)
	scope := pathguard.Scope{AllowedGlobs: in.AllowedGlobs, DenyGlobs: in.DenyGlobs}
	for _, f := range touched {
		if !scope.AllowsWrite(repoRoot, repoRoot+"/"+f) {
			return nil, ApplyPatchOutput{
				OverallStatus: string(taskmodel.StatusFailed),
				ErrorMessage:  "patch touches path outside declared scope: " + f,
			}, nil
		}
	}

	result, err := s.driver.Run(ctx, repoRoot, "bash", []string{"-c", `printf '%s' "$1" | patch -p1`, "_", in.Patch}, nil)
	if err != nil {
		return nil, ApplyPatchOutput{}, err
	}
	if result.ExitCode != 0 {
		return nil, ApplyPatchOutput{OverallStatus: string(taskmodel.StatusFailed), ErrorMessage: result.Output}, nil
	}
	return nil, ApplyPatchOutput{OverallStatus: string(taskmodel.StatusSuccess), FilesModified: touched}, nil
}

// extractPatchTargets pulls the "b/<path>" target out of every unified-diff
// "+++ " header line.
func extractPatchTargets(patch string) []string {
	var out []string
	for _, line := range strings.Split(patch, "\n") {
		if !strings.HasPrefix(line, "+++ ") {
			continue
		}
		target := strings.TrimSpace(strings.TrimPrefix(line, "+++ "))
		target = strings.TrimPrefix(target, "b/")
		if target == "" || target == "/dev/null" {
			continue
		}
		out = append(out, target)
	}
	return out
}

// QueryLogsInput is coder_query_logs' request shape.
type QueryLogsInput struct {
	SessionID string `json:"session_id,omitempty"`
	TaskID    string `json:"task_id,omitempty"`
	CLIName   string `json:"cli_name,omitempty"`
	Level     string `json:"level,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// QueryLogsOutput wraps the matched log entries.
type QueryLogsOutput struct {
	Entries []LogEntryOutput `json:"entries"`
}

// LogEntryOutput mirrors logger.Entry in the wire format.
type LogEntryOutput struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	TaskID    string `json:"task_id,omitempty"`
	CLIName   string `json:"cli_name,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// AgentsOutput is coder_get_agents' response: the multi-agent roster, kept
// in the catalog even when empty (spec §4.11/§9).
type AgentsOutput struct {
	Agents []string `json:"agents"`
}

func (s *ToolServer) getAgents(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, AgentsOutput, error) {
	return nil, AgentsOutput{Agents: s.multiAgentRoster}, nil
}

// MultiAgentTaskInput is coder_multi_agent_task's request shape.
type MultiAgentTaskInput struct {
	Task         string   `json:"task"`
	RepoRoot     string   `json:"repo_root"`
	ContextPaths []string `json:"context_paths,omitempty"`
	AllowedGlobs []string `json:"allowed_globs,omitempty"`
	DenyGlobs    []string `json:"deny_globs,omitempty"`
	Model        string   `json:"model,omitempty"`
}

// multiAgentTriggerWord is appended to the task so a CLI operator
// configured to recognize it can opt into multi-agent coordination; this is
// the spec's documented "quick-task with a trigger word" equivalence, not a
// distinct execution path.
const multiAgentTriggerWord = "[multi-agent]"

func (s *ToolServer) multiAgentTask(ctx context.Context, req *mcp.CallToolRequest, in MultiAgentTaskInput) (*mcp.CallToolResult, PlanOutput, error) {
	if len(s.multiAgentRoster) == 0 {
		return nil, PlanOutput{
			OverallStatus: "unavailable",
			Notes:         "no multi-agent roster configured",
		}, nil
	}
	simple := SimpleTaskInput{
		Task:         strings.TrimSpace(in.Task) + " " + multiAgentTriggerWord,
		RepoRoot:     in.RepoRoot,
		ContextPaths: in.ContextPaths,
		AllowedGlobs: in.AllowedGlobs,
		DenyGlobs:    in.DenyGlobs,
		Model:        in.Model,
	}
	return s.simpleTask(ctx, req, simple)
}
