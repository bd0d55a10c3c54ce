package strategy

import "strings"

// openCodeProviderTags lists the provider prefixes OpenCode expects on a
// model name; a bare model name that matches none of them is given the
// default provider tag.
var openCodeProviderTags = []string{"openai/", "anthropic/", "google/", "openrouter/"}

const defaultOpenCodeProviderTag = "openai/"

// OpenCodeStrategy builds `opencode run --model <m> [--continue <sid>]
// [--file f]* "<prompt>"` per spec §4.6. OpenCode is the only one of the
// four operators that supports session continuation.
type OpenCodeStrategy struct {
	Bin string
}

func (o OpenCodeStrategy) Name() string         { return "opencode" }
func (o OpenCodeStrategy) SupportsSession() bool { return true }

func (o OpenCodeStrategy) Build(mode Mode, prompt string, contextPaths []string, model, sessionID string) Invocation {
	args := []string{"run"}
	m := trimmedOrEmpty(model)
	if m != "" {
		args = append(args, "--model", qualifyModel(m))
	}
	if sid := trimmedOrEmpty(sessionID); sid != "" {
		args = append(args, "--continue", sid)
	}
	for _, p := range contextPaths {
		args = append(args, "--file", p)
	}
	args = append(args, prompt)
	return Invocation{
		Bin:     o.Bin,
		Args:    args,
		Timeout: timeoutFor(mode, 1200, 1200, 1200),
	}
}

func qualifyModel(model string) string {
	for _, tag := range openCodeProviderTags {
		if strings.HasPrefix(model, tag) {
			return model
		}
	}
	return defaultOpenCodeProviderTag + model
}
