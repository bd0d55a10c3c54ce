// Package analyzer classifies an incoming task description into a
// TaskComplexity/TaskType pair and decides whether it needs a persisted
// session or multiple cooperating agents, following the keyword-bucket
// idiom the teacher's normalizeComplexity/codexConfigForTask pair uses to
// turn a free-form priority/complexity string into one of a small closed
// set of tiers (spec §4.5).
package analyzer

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/angkira/ninja-cli-mcp/internal/taskmodel"
)

// Analysis is the result of classifying a task description.
type Analysis struct {
	Complexity         taskmodel.TaskComplexity
	TaskType           taskmodel.TaskType
	EstimatedFiles     int
	RequiresSession    bool
	RequiresMultiAgent bool
	Keywords           []string
}

var typeKeywords = map[taskmodel.TaskType][]string{
	taskmodel.TaskQuickFix: {"fix", "bug", "typo", "small", "quick", "patch"},
	taskmodel.TaskRefactor: {"refactor", "rename", "cleanup", "restructure", "simplify", "extract"},
	taskmodel.TaskFeature:  {"add", "implement", "feature", "build", "create", "support"},
	taskmodel.TaskArchitect: {"design", "architecture", "plan", "migrate", "redesign"},
	taskmodel.TaskMultiAgent: {"across", "multiple files", "full stack", "end to end", "coordinate"},
}

var complexityKeywords = map[taskmodel.TaskComplexity][]string{
	taskmodel.ComplexitySimple:    {"typo", "rename variable", "one line", "small fix", "trivial"},
	taskmodel.ComplexityModerate:  {"add endpoint", "add function", "update logic", "moderate"},
	taskmodel.ComplexityComplex:   {"refactor", "redesign", "migration", "complex", "multiple modules"},
	taskmodel.ComplexityFullStack: {"full stack", "frontend and backend", "end to end", "across services"},
}

// fuzzyThreshold is how many extra characters (the rank from
// fuzzy.RankMatchNormalizedFold) a token in the task text may carry around a
// keyword's letters and still count as a match: the token must contain every
// letter of the keyword in order, so "fixes" matches "fix" but a token that
// drops a keyword letter, such as "refactr", does not.
const fuzzyThreshold = 2

// Analyze classifies task, a free-form description, and returns the tiers
// that drive strategy selection and session/multi-agent routing.
func Analyze(task string) Analysis {
	lower := strings.ToLower(task)
	tokens := strings.Fields(lower)

	taskType, typeKw := classifyType(lower, tokens)
	complexity, complexityKw := classifyComplexity(lower, tokens)

	keywords := dedupe(append(typeKw, complexityKw...))

	return Analysis{
		Complexity:         complexity,
		TaskType:           taskType,
		EstimatedFiles:     estimateFiles(complexity),
		RequiresSession:    requiresSession(taskType, complexity),
		RequiresMultiAgent: taskType == taskmodel.TaskMultiAgent || complexity == taskmodel.ComplexityFullStack,
		Keywords:           keywords,
	}
}

func classifyType(lower string, tokens []string) (taskmodel.TaskType, []string) {
	best := taskmodel.TaskQuickFix
	var bestKw []string
	bestScore := -1
	// Iterate in a fixed priority order so ties resolve deterministically.
	order := []taskmodel.TaskType{
		taskmodel.TaskMultiAgent,
		taskmodel.TaskArchitect,
		taskmodel.TaskFeature,
		taskmodel.TaskRefactor,
		taskmodel.TaskQuickFix,
	}
	for _, t := range order {
		score, matched := matchKeywords(lower, tokens, typeKeywords[t])
		if score > bestScore {
			bestScore = score
			best = t
			bestKw = matched
		}
	}
	if bestScore <= 0 {
		return taskmodel.TaskFeature, nil
	}
	return best, bestKw
}

func classifyComplexity(lower string, tokens []string) (taskmodel.TaskComplexity, []string) {
	order := []taskmodel.TaskComplexity{
		taskmodel.ComplexityFullStack,
		taskmodel.ComplexityComplex,
		taskmodel.ComplexityModerate,
		taskmodel.ComplexitySimple,
	}
	best := taskmodel.ComplexityModerate
	var bestKw []string
	bestScore := -1
	for _, c := range order {
		score, matched := matchKeywords(lower, tokens, complexityKeywords[c])
		if score > bestScore {
			bestScore = score
			best = c
			bestKw = matched
		}
	}
	if bestScore <= 0 {
		return taskmodel.ComplexityModerate, nil
	}
	return best, bestKw
}

func matchKeywords(lower string, tokens []string, keywords []string) (int, []string) {
	score := 0
	var matched []string
	for _, kw := range keywords {
		if strings.Contains(kw, " ") {
			if strings.Contains(lower, kw) {
				score++
				matched = append(matched, kw)
			}
			continue
		}
		for _, tok := range tokens {
			if tok == kw {
				score += 2
				matched = append(matched, kw)
				break
			}
			if fuzzy.RankMatchNormalizedFold(kw, tok) >= 0 && fuzzy.RankMatchNormalizedFold(kw, tok) <= fuzzyThreshold {
				score++
				matched = append(matched, kw)
				break
			}
		}
	}
	return score, matched
}

func estimateFiles(c taskmodel.TaskComplexity) int {
	switch c {
	case taskmodel.ComplexitySimple:
		return 1
	case taskmodel.ComplexityModerate:
		return 3
	case taskmodel.ComplexityComplex:
		return 8
	case taskmodel.ComplexityFullStack:
		return 15
	default:
		return 3
	}
}

func requiresSession(t taskmodel.TaskType, c taskmodel.TaskComplexity) bool {
	if t == taskmodel.TaskArchitect || t == taskmodel.TaskMultiAgent {
		return true
	}
	return c == taskmodel.ComplexityComplex || c == taskmodel.ComplexityFullStack
}

func dedupe(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range in {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
