package strategy

// AiderStrategy builds `aider --message "<prompt>" --yes [--model m] [files…]`
// per spec §4.6. Aider has no session-continuation flag, and context files
// are passed as trailing positional arguments rather than a repeated flag.
type AiderStrategy struct {
	Bin string
}

func (a AiderStrategy) Name() string            { return "aider" }
func (a AiderStrategy) SupportsSession() bool    { return false }

func (a AiderStrategy) Build(mode Mode, prompt string, contextPaths []string, model, sessionID string) Invocation {
	args := []string{"--message", prompt, "--yes"}
	if m := trimmedOrEmpty(model); m != "" {
		args = append(args, "--model", m)
	}
	args = append(args, quoteArgs(contextPaths)...)
	return Invocation{
		Bin:     a.Bin,
		Args:    args,
		Timeout: timeoutFor(mode, 300, 900, 1200),
	}
}
