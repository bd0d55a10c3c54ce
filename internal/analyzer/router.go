package analyzer

import (
	"log"

	"github.com/angkira/ninja-cli-mcp/internal/taskmodel"
)

// Preference lets a caller override the analyzer's automatic routing for a
// single task (a host editor that already knows it wants sequential
// execution, say).
type Preference struct {
	ForceTaskType     taskmodel.TaskType
	ForceMultiAgent   *bool
	ForceSession      *bool
}

// RoutingDecision is what the executor acts on: which execution mode to use
// and whether to persist a session.
type RoutingDecision struct {
	TaskType        taskmodel.TaskType
	UseSession      bool
	UseMultiAgent   bool
	Warning         string
}

// Route combines an Analysis with an optional caller Preference into a
// final decision. Preference wins over the analyzer's own heuristic, then
// the multi-agent/session rules fire, and anything left ambiguous falls
// back to the analyzer's pick with a logged warning — mirroring the
// teacher's envOr-then-heuristic fallback chain in codexConfigForTask.
func Route(a Analysis, pref Preference, logger *log.Logger) RoutingDecision {
	decision := RoutingDecision{
		TaskType:      a.TaskType,
		UseSession:    a.RequiresSession,
		UseMultiAgent: a.RequiresMultiAgent,
	}

	if pref.ForceTaskType != "" {
		if pref.ForceTaskType.IsValid() {
			decision.TaskType = pref.ForceTaskType
		} else {
			decision.Warning = "ignored invalid forced task_type preference, falling back to analyzer classification"
			logWarn(logger, decision.Warning)
		}
	}
	if pref.ForceMultiAgent != nil {
		decision.UseMultiAgent = *pref.ForceMultiAgent
	}
	if pref.ForceSession != nil {
		decision.UseSession = *pref.ForceSession
	}

	if decision.UseMultiAgent && !decision.UseSession {
		// A multi-agent run always needs a session so later turns can
		// reference earlier agents' output.
		decision.UseSession = true
	}

	return decision
}

func logWarn(logger *log.Logger, msg string) {
	if logger == nil {
		return
	}
	logger.Printf("[WARN] %s", msg)
}
