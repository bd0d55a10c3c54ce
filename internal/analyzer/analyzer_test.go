package analyzer

import (
	"log"
	"os"
	"testing"

	"github.com/angkira/ninja-cli-mcp/internal/taskmodel"
)

func TestAnalyzeQuickFix(t *testing.T) {
	a := Analyze("fix the typo in the README")
	if a.TaskType != taskmodel.TaskQuickFix {
		t.Fatalf("expected quick_fix, got %s", a.TaskType)
	}
	if a.Complexity != taskmodel.ComplexitySimple {
		t.Fatalf("expected simple complexity, got %s", a.Complexity)
	}
	if a.RequiresMultiAgent {
		t.Fatalf("did not expect multi-agent for a typo fix")
	}
}

func TestAnalyzeFullStackRequiresMultiAgentAndSession(t *testing.T) {
	a := Analyze("build a full stack feature across services, frontend and backend")
	if a.Complexity != taskmodel.ComplexityFullStack {
		t.Fatalf("expected full_stack complexity, got %s", a.Complexity)
	}
	if !a.RequiresMultiAgent {
		t.Fatalf("expected multi-agent requirement for full stack task")
	}
	if !a.RequiresSession {
		t.Fatalf("expected session requirement for full stack task")
	}
}

func TestAnalyzeArchitectTask(t *testing.T) {
	a := Analyze("design the new architecture for the auth migration")
	if a.TaskType != taskmodel.TaskArchitect {
		t.Fatalf("expected architect, got %s", a.TaskType)
	}
	if !a.RequiresSession {
		t.Fatalf("expected architect tasks to require a session")
	}
}

func TestAnalyzeDefaultsToFeatureWhenNoKeywordsMatch(t *testing.T) {
	a := Analyze("zzz qqq xyz unrelated words")
	if a.TaskType != taskmodel.TaskFeature {
		t.Fatalf("expected default feature classification, got %s", a.TaskType)
	}
}

func TestRoutePreferenceOverridesAnalyzer(t *testing.T) {
	a := Analyze("fix a typo")
	pref := Preference{ForceTaskType: taskmodel.TaskArchitect}
	d := Route(a, pref, log.New(os.Stderr, "", 0))
	if d.TaskType != taskmodel.TaskArchitect {
		t.Fatalf("expected forced task type to win, got %s", d.TaskType)
	}
}

func TestRouteInvalidPreferenceFallsBackWithWarning(t *testing.T) {
	a := Analyze("fix a typo")
	pref := Preference{ForceTaskType: taskmodel.TaskType("not-a-real-type")}
	d := Route(a, pref, log.New(os.Stderr, "", 0))
	if d.TaskType != a.TaskType {
		t.Fatalf("expected fallback to analyzer classification, got %s", d.TaskType)
	}
	if d.Warning == "" {
		t.Fatalf("expected a warning to be recorded")
	}
}

func TestRouteMultiAgentForcesSession(t *testing.T) {
	a := Analyze("fix a typo")
	multi := true
	pref := Preference{ForceMultiAgent: &multi}
	d := Route(a, pref, nil)
	if !d.UseMultiAgent || !d.UseSession {
		t.Fatalf("expected multi-agent to force a session, got %+v", d)
	}
}
