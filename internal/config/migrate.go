package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/angkira/ninja-cli-mcp/internal/credstore"
	"github.com/angkira/ninja-cli-mcp/internal/logger"
)

// credentialNamePatterns routes a legacy KEY=VALUE env entry to the
// credential store instead of the config document when its name looks like
// a secret (spec §4.2's migration rule).
var credentialNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)_API_KEY$`),
	regexp.MustCompile(`(?i)_KEY$`),
	regexp.MustCompile(`(?i)_TOKEN$`),
	regexp.MustCompile(`(?i)_SECRET$`),
	regexp.MustCompile(`(?i)_PASSWORD$`),
}

// providerInference maps a recognized env-var name prefix to the provider
// label recorded alongside the migrated credential.
var providerInference = map[string]string{
	"OPENAI":     "openai",
	"ANTHROPIC":  "anthropic",
	"GEMINI":     "gemini",
	"GOOGLE":     "google",
	"AIDER":      "aider",
	"OPENROUTER": "openrouter",
	"PERPLEXITY": "perplexity",
	"SERPER":     "serper",
	"ZAI":        "zai",
}

// configKeyMapping routes a recognized non-credential legacy env key into
// the typed ConfigDocument (spec §4.2 step 4): the CLI-binary var becomes
// coder.operator, each model var lands in its own coder.models slot, and
// the sibling components' binary vars land in their own operator field. A
// key not in this table is not dropped silently — it is recorded in
// ConfigKeysIgnored, since this system has no typed home for it.
var configKeyMapping = map[string]func(*Document, string){
	"NINJA_CODE_BIN":            func(d *Document, v string) { d.Coder.Operator = v },
	"CODER_OPERATOR":            func(d *Document, v string) { d.Coder.Operator = v },
	"NINJA_CODE_MODEL":          func(d *Document, v string) { d.Coder.Models.Default = v },
	"CODER_MODEL":               func(d *Document, v string) { d.Coder.Models.Default = v },
	"NINJA_CODE_QUICK_MODEL":    func(d *Document, v string) { d.Coder.Models.Quick = v },
	"NINJA_CODE_HEAVY_MODEL":    func(d *Document, v string) { d.Coder.Models.Heavy = v },
	"NINJA_CODE_PARALLEL_MODEL": func(d *Document, v string) { d.Coder.Models.Parallel = v },
	"NINJA_RESEARCHER_BIN":      func(d *Document, v string) { d.Researcher.Operator = v },
	"NINJA_SECRETARY_BIN":       func(d *Document, v string) { d.Secretary.Operator = v },
}

// MigrationResult summarizes what a legacy env-file migration did.
type MigrationResult struct {
	CredentialsMigrated []string
	ConfigKeysApplied   []string
	ConfigKeysIgnored   []string
	BackupPath          string
	MigrationLogPath    string
}

// MigrateEnvFile parses a legacy KEY=VALUE env file (quotes, comments, and
// "export " prefixes all tolerated, matching the dotenv-style parsing the
// teacher's vault tooling uses). Credential-shaped names route into store;
// everything else checked against configKeyMapping routes into cfgStore's
// ConfigDocument, with anything left over recorded as ignored. The
// original file is backed up and renamed to "<path>.migrated" so a second
// run is a no-op, and one migration log entry is written under a
// migrations/ directory alongside a single structured log line (spec §4.2
// step 5), whether or not log is nil (a nil logger just skips the line).
func MigrateEnvFile(path string, store *credstore.Store, cfgStore *Store, log *logger.StructuredLogger) (MigrationResult, error) {
	result := MigrationResult{}
	f, err := os.Open(path)
	if err != nil {
		return result, fmt.Errorf("config: open env file %s: %w", path, err)
	}
	defer f.Close()

	entries, err := parseEnvFile(f)
	if err != nil {
		return result, fmt.Errorf("config: parse env file %s: %w", path, err)
	}

	doc := cfgStore.Document()
	configChanged := false
	for _, e := range entries {
		switch {
		case isCredentialName(e.Key):
			provider := inferProvider(e.Key)
			if err := store.Set(e.Key, e.Value, provider); err != nil {
				return result, fmt.Errorf("config: migrate %s: %w", e.Key, err)
			}
			result.CredentialsMigrated = append(result.CredentialsMigrated, e.Key)
		default:
			if apply, ok := configKeyMapping[strings.ToUpper(e.Key)]; ok {
				apply(&doc, e.Value)
				result.ConfigKeysApplied = append(result.ConfigKeysApplied, e.Key)
				configChanged = true
			} else {
				result.ConfigKeysIgnored = append(result.ConfigKeysIgnored, e.Key)
			}
		}
	}
	if configChanged {
		if err := cfgStore.Save(doc); err != nil {
			return result, fmt.Errorf("config: save migrated document: %w", err)
		}
	}

	backupPath := path + ".bak." + strconv.FormatInt(time.Now().UTC().Unix(), 10)
	if err := copyFile(path, backupPath); err != nil {
		return result, fmt.Errorf("config: backup %s: %w", path, err)
	}
	result.BackupPath = backupPath

	if err := os.Rename(path, path+".migrated"); err != nil {
		return result, fmt.Errorf("config: rename migrated env file: %w", err)
	}

	logPath, err := writeMigrationLog(path, result)
	if err != nil {
		return result, err
	}
	result.MigrationLogPath = logPath

	if log != nil {
		log.Info("legacy env file migrated", logger.Entry{Extra: map[string]any{
			"env_path":             path,
			"credentials_migrated": len(result.CredentialsMigrated),
			"config_keys_applied":  len(result.ConfigKeysApplied),
			"config_keys_ignored":  len(result.ConfigKeysIgnored),
			"migration_log_path":   logPath,
		}})
	}

	return result, nil
}

// writeMigrationLog records one JSON file under <env file dir>/migrations/
// naming exactly what the migration did, independent of the structured
// logger (which may rotate or not be wired at all in a one-off CLI run).
func writeMigrationLog(envPath string, result MigrationResult) (string, error) {
	dir := filepath.Join(filepath.Dir(envPath), "migrations")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("config: create migrations dir: %w", err)
	}
	logPath := filepath.Join(dir, time.Now().UTC().Format("20060102T150405Z")+".json")
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("config: marshal migration log: %w", err)
	}
	if err := os.WriteFile(logPath, data, 0o600); err != nil {
		return "", fmt.Errorf("config: write migration log: %w", err)
	}
	return logPath, nil
}

type envEntry struct {
	Key   string
	Value string
}

func parseEnvFile(f *os.File) ([]envEntry, error) {
	var out []envEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		idx := strings.Index(line, "=")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		value = unquote(value)
		if key == "" {
			continue
		}
		out = append(out, envEntry{Key: key, Value: value})
	}
	return out, scanner.Err()
}

func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

func isCredentialName(name string) bool {
	for _, re := range credentialNamePatterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

func inferProvider(name string) string {
	upper := strings.ToUpper(name)
	for prefix, provider := range providerInference {
		if strings.HasPrefix(upper, prefix) {
			return provider
		}
	}
	return "unknown"
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o700); err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o600)
}
