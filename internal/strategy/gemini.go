package strategy

// GeminiStrategy builds `gemini --prompt "<prompt>" [--file f]*` per spec
// §4.6. Gemini authenticates via Google environment variables and has no
// explicit model-routing flag or session support.
type GeminiStrategy struct {
	Bin string
}

func (g GeminiStrategy) Name() string         { return "gemini" }
func (g GeminiStrategy) SupportsSession() bool { return false }

func (g GeminiStrategy) Build(mode Mode, prompt string, contextPaths []string, model, sessionID string) Invocation {
	args := []string{"--prompt", prompt}
	for _, p := range contextPaths {
		args = append(args, "--file", p)
	}
	return Invocation{
		Bin:     g.Bin,
		Args:    args,
		Timeout: timeoutFor(mode, 300, 900, 900),
	}
}
