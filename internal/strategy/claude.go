package strategy

// ClaudeStrategy builds `claude --print "<prompt>"` per spec §4.6. Claude is
// used here as a general-purpose CLI with no plan-mode flags, no context-
// file flag, and no session support.
type ClaudeStrategy struct {
	Bin string
}

func (c ClaudeStrategy) Name() string         { return "claude" }
func (c ClaudeStrategy) SupportsSession() bool { return false }

func (c ClaudeStrategy) Build(mode Mode, prompt string, contextPaths []string, model, sessionID string) Invocation {
	return Invocation{
		Bin:     c.Bin,
		Args:    []string{"--print", prompt},
		Timeout: timeoutFor(mode, 300, 300, 300),
	}
}
