package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Bootstrap holds the process-level settings every ninja-* binary reads
// before it ever touches the ConfigDocument: where things live on disk,
// which port to bind, and whether the daemon is enabled at all. Modeled on
// ReleaseParty's own env-first Config.Load (env(key, def) helper, typed
// fields, no framework), just scoped to this system's own variables
// (spec §6 "Environment variables").
type Bootstrap struct {
	Module          string
	ConfigDir       string
	CacheDir        string
	OperatorBin     string
	CredentialPass  string
	Port            int
	DaemonEnabled   bool
	OperatorTimeout map[string]int
}

// LoadBootstrap reads process-level settings for module ("coder",
// "researcher", "secretary", ...) from the environment, defaulting
// directories to the user's config/cache directories.
func LoadBootstrap(module string) (Bootstrap, error) {
	configDir, err := defaultConfigDir()
	if err != nil {
		return Bootstrap{}, fmt.Errorf("bootstrap: resolve config dir: %w", err)
	}
	cacheDir, err := defaultCacheDir()
	if err != nil {
		return Bootstrap{}, fmt.Errorf("bootstrap: resolve cache dir: %w", err)
	}

	b := Bootstrap{
		Module:         module,
		ConfigDir:      env("NINJA_CONFIG_DIR", configDir),
		CacheDir:       env("NINJA_CACHE_DIR", cacheDir),
		OperatorBin:    env("NINJA_CODE_BIN", ""),
		CredentialPass: os.Getenv("NINJA_CREDENTIAL_PASSWORD"),
		Port:           envInt(fmt.Sprintf("NINJA_%s_PORT", strings.ToUpper(module)), defaultPortForModule(module)),
		DaemonEnabled:  env("NINJA_ENABLE_DAEMON", "false") == "true",
	}
	return b, nil
}

// ConfigFilePath returns the path to config.json under ConfigDir.
func (b Bootstrap) ConfigFilePath() string {
	return filepath.Join(b.ConfigDir, "config.json")
}

// CredentialsDBPath returns the path to credentials.db under ConfigDir.
func (b Bootstrap) CredentialsDBPath() string {
	return filepath.Join(b.ConfigDir, "credentials.db")
}

// SessionsDir returns the cache-dir sessions/ directory.
func (b Bootstrap) SessionsDir() string {
	return filepath.Join(b.CacheDir, "sessions")
}

// LogsDir returns the cache-dir logs/ directory.
func (b Bootstrap) LogsDir() string {
	return filepath.Join(b.CacheDir, "logs")
}

func defaultPortForModule(module string) int {
	ports := map[string]int{
		"coder":      8100,
		"researcher": 8101,
		"secretary":  8102,
		"resources":  8106,
		"prompts":    8107,
	}
	return ports[module]
}

func defaultConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "ninja-cli-mcp"), nil
}

func defaultCacheDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "ninja-cli-mcp"), nil
}

func env(key, def string) string {
	if v := os.Getenv(key); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
