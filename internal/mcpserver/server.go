// Package mcpserver wires the coder tool catalogue (spec §4.11) onto the
// MCP go-sdk, the way tools/credentials-mcp/main.go wires its own six
// tools: one mcp.NewServer, one mcp.AddTool call per tool, and a transport
// that can serve either stdio (the default editor integration) or HTTP.
package mcpserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/angkira/ninja-cli-mcp/internal/config"
	"github.com/angkira/ninja-cli-mcp/internal/executor"
	"github.com/angkira/ninja-cli-mcp/internal/logger"
	"github.com/angkira/ninja-cli-mcp/internal/pathguard"
	"github.com/angkira/ninja-cli-mcp/internal/procdriver"
)

// ToolServer holds every dependency a tool handler needs: the executor that
// drives CLI operators, a direct process driver for coder_run_tests and
// coder_apply_patch, the live config store (for operator/model defaults and
// its content hash), and a structured logger.
type ToolServer struct {
	exec             *executor.PlanExecutor
	driver           *procdriver.Driver
	cfg              *config.Store
	log              *logger.StructuredLogger
	multiAgentRoster []string
}

// New builds a ToolServer. multiAgentRoster is the configured list of
// secondary agents coder_get_agents/coder_multi_agent_task report; an empty
// roster is valid and keeps both tools in the catalog rather than removing
// them: coder_get_agents then reports an empty roster and
// coder_multi_agent_task an "unavailable" status (spec §4.11).
func New(exec *executor.PlanExecutor, cfg *config.Store, log *logger.StructuredLogger, multiAgentRoster []string) *ToolServer {
	return &ToolServer{
		exec:             exec,
		driver:           procdriver.New(0),
		cfg:              cfg,
		log:              log,
		multiAgentRoster: multiAgentRoster,
	}
}

func (s *ToolServer) baseRequest(repoRoot string, allowedGlobs, denyGlobs []string, model string) executor.Request {
	doc := s.cfg.Document()
	if model == "" {
		model = doc.Coder.Models.Default
	}
	return executor.Request{
		RepoRoot:   repoRoot,
		Operator:   doc.Coder.Operator,
		ConfigHash: doc.Hash(),
		Model:      model,
		Scope:      pathguard.Scope{AllowedGlobs: allowedGlobs, DenyGlobs: denyGlobs},
	}
}

// implementation describes this server to any MCP client that inspects
// server metadata during initialize.
func implementation() *mcp.Implementation {
	return &mcp.Implementation{
		Name:    "ninja-cli-mcp",
		Title:   "Ninja CLI MCP Coder",
		Version: "0.1.0",
	}
}

// BuildServer registers every tool in the catalogue on a fresh mcp.Server.
func (s *ToolServer) BuildServer() *mcp.Server {
	server := mcp.NewServer(implementation(), &mcp.ServerOptions{HasTools: true})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "coder_simple_task",
		Description: "Run a single free-form coding task through the configured CLI operator and report which files it touched.",
	}, s.simpleTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "coder_execute_plan_sequential",
		Description: "Run an ordered list of steps through one CLI operator invocation, in order, as a single working session.",
	}, s.executeSequential)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "coder_execute_plan_parallel",
		Description: "Run an unordered list of independent steps through one CLI operator invocation.",
	}, s.executeParallel)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "coder_run_tests",
		Description: "Run one or more shell commands in the repository and report their exit codes and output.",
	}, s.runTests)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "coder_apply_patch",
		Description: "Apply a unified diff patch to the repository, rejecting it outright if it touches a path outside the declared scope.",
	}, s.applyPatch)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "coder_query_logs",
		Description: "Query structured execution logs by session, task, CLI name, or level.",
	}, s.queryLogs)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "coder_get_agents",
		Description: "List the configured secondary agents available for multi-agent tasks; empty when no multi-agent backend is configured.",
	}, s.getAgents)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "coder_multi_agent_task",
		Description: "Run a task intended for multi-agent coordination; reports unavailable when no agent roster is configured.",
	}, s.multiAgentTask)

	return server
}

// ServeStdio runs the tool server over stdio, the default transport an
// editor's MCP client expects when it launches ninja-coder as a subprocess.
func (s *ToolServer) ServeStdio(ctx context.Context) error {
	server := s.BuildServer()
	return server.Run(ctx, &mcp.StdioTransport{})
}

// StreamHandler returns the bare streamable-HTTP transport handler, with no
// path of its own, so a caller can mount it at whichever routes it needs
// (the daemon's /sse, /messages, and /mcp all resolve to the same
// streamable endpoint per spec §4.12). Mirrors credentials-mcp's single
// long-lived mcp.Server reused across requests.
func (s *ToolServer) StreamHandler() http.Handler {
	server := s.BuildServer()
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

// HTTPHandler exposes the tool server as a self-contained mux, for callers
// that want the MCP transport and /healthz bundled on a single handler
// rather than routed individually (e.g. a bare net/http.ListenAndServe
// without chi).
func (s *ToolServer) HTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/mcp", s.StreamHandler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (s *ToolServer) queryLogs(ctx context.Context, _ *mcp.CallToolRequest, in QueryLogsInput) (*mcp.CallToolResult, QueryLogsOutput, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = 100
	}
	entries, err := s.log.Query(logger.Query{
		SessionID: in.SessionID,
		TaskID:    in.TaskID,
		CLIName:   in.CLIName,
		Level:     logger.Level(in.Level),
		Limit:     limit,
	})
	if err != nil {
		return nil, QueryLogsOutput{}, fmt.Errorf("query logs: %w", err)
	}
	out := QueryLogsOutput{}
	for _, e := range entries {
		out.Entries = append(out.Entries, LogEntryOutput{
			Timestamp: e.Timestamp,
			Level:     string(e.Level),
			Message:   e.Message,
			SessionID: e.SessionID,
			TaskID:    e.TaskID,
			CLIName:   e.CLIName,
			ErrorKind: string(e.ErrorKind),
		})
	}
	return nil, out, nil
}
