// Package config implements the ninja-cli-mcp configuration document:
// typed per-component settings (coder/researcher/secretary) persisted as a
// single JSON file, written atomically the way the teacher's store layers
// write sqlite files under a freshly-created parent directory, plus legacy
// env-file migration and fsnotify-driven hot reload (spec §4.2).
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// OperatorSettings holds per-operator tuning: which model to prefer, any
// extra CLI flags to thread through, and a request timeout override.
type OperatorSettings struct {
	Model          string            `json:"model,omitempty"`
	TimeoutSeconds int               `json:"timeout_seconds,omitempty"`
	ExtraFlags     []string          `json:"extra_flags,omitempty"`
	Env            map[string]string `json:"env,omitempty"`
}

// ModelSlots names the model assigned to each of the four execution tiers
// spec §3 defines: "default" backs an ordinary call with no override,
// "quick" is coder_simple_task's preferred model, "heavy" is reserved for
// architecture-grade tasks, and "parallel" backs coder_execute_plan_parallel.
// An empty slot means "fall back to default".
type ModelSlots struct {
	Default  string `json:"default,omitempty"`
	Quick    string `json:"quick,omitempty"`
	Heavy    string `json:"heavy,omitempty"`
	Parallel string `json:"parallel,omitempty"`
}

// ComponentConfig is the settings block shared by coder/researcher/secretary:
// which CLI operator backs the component and that operator's settings.
type ComponentConfig struct {
	Operator         string                      `json:"operator"`
	OperatorSettings map[string]OperatorSettings `json:"operator_settings,omitempty"`
	Models           ModelSlots                  `json:"models,omitempty"`
}

// Document is the full configuration tree. Researcher and Secretary are
// carried even though this module only implements the Coder component
// (spec's stated scope), because the document format is shared across all
// three components and a coder-only document would reject a researcher
// config section a host editor already wrote.
type Document struct {
	Coder      ComponentConfig `json:"coder"`
	Researcher ComponentConfig `json:"researcher,omitempty"`
	Secretary  ComponentConfig `json:"secretary,omitempty"`
}

// registeredOperators is the closed set of CLI operator names the coder
// component accepts. Keep in sync with internal/strategy's registry.
var registeredOperators = map[string]bool{
	"aider":    true,
	"opencode": true,
	"gemini":   true,
	"claude":   true,
}

// Validate rejects an operator name outside the registered strategy set
// (spec §4.2's boundary: unknown operators are rejected, never silently
// defaulted).
func (d Document) Validate() error {
	if d.Coder.Operator == "" {
		return fmt.Errorf("config: coder.operator is required")
	}
	if !registeredOperators[d.Coder.Operator] {
		return fmt.Errorf("config: coder.operator %q is not a registered CLI operator", d.Coder.Operator)
	}
	return nil
}

// Default returns a Document seeded with the aider operator, matching the
// CLI's documented out-of-the-box behavior.
func Default() Document {
	return Document{
		Coder: ComponentConfig{
			Operator: "aider",
		},
	}
}

// Hash returns a stable fingerprint of the document's coder configuration,
// used by the executor's strategy cache to invalidate on change without
// needing a full deep-equal (spec §4.2/§4.7).
func (d Document) Hash() string {
	data, err := json.Marshal(d.Coder)
	if err != nil {
		return d.Coder.Operator
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
