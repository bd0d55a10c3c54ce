package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/angkira/ninja-cli-mcp/internal/credstore"
	"github.com/angkira/ninja-cli-mcp/internal/logger"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Document().Coder.Operator != "aider" {
		t.Fatalf("expected default operator aider, got %q", s.Document().Coder.Operator)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	s, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	doc := Default()
	doc.Coder.Operator = "claude"
	doc.Coder.Models = ModelSlots{Default: "opus", Quick: "sonnet"}
	if err := s.Save(doc); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Document().Coder.Operator != "claude" {
		t.Fatalf("expected persisted operator claude, got %q", reloaded.Document().Coder.Operator)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected mode 0600, got %v", info.Mode().Perm())
	}
}

func TestSaveRejectsUnregisteredOperator(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	doc := Default()
	doc.Coder.Operator = "not-a-real-cli"
	if err := s.Save(doc); err == nil {
		t.Fatalf("expected error for unregistered operator")
	}
}

func TestHashChangesWithOperator(t *testing.T) {
	a := Default()
	b := Default()
	b.Coder.Operator = "claude"
	if a.Hash() == b.Hash() {
		t.Fatalf("expected distinct hashes for distinct operators")
	}
}

func TestWatchReloadsOnExternalWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := s.Save(Default()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Watch(); err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer s.Close()

	changed := make(chan Document, 1)
	s.OnChange(func(d Document) { changed <- d })

	updated := Default()
	updated.Coder.Operator = "opencode"
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, mustMarshal(t, updated), 0o600); err != nil {
		t.Fatalf("write tmp: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("rename: %v", err)
	}

	select {
	case d := <-changed:
		if d.Coder.Operator != "opencode" {
			t.Fatalf("expected reloaded operator opencode, got %q", d.Coder.Operator)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for watch reload")
	}
}

func mustMarshal(t *testing.T, d Document) []byte {
	t.Helper()
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestMigrateEnvFileRoutesCredentialsAndBacksUp(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "# comment\nexport OPENAI_API_KEY=\"sk-abc123\"\nRP_ADDR=:8080\nANTHROPIC_TOKEN=tok-xyz\nNINJA_CODE_BIN=claude\nNINJA_CODE_MODEL=opus\n\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}

	store, err := credstore.Open(filepath.Join(dir, "creds.db"))
	if err != nil {
		t.Fatalf("open credstore: %v", err)
	}
	defer store.Close()

	cfgStore, err := Load(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	defer cfgStore.Close()

	log, err := logger.New("migrate-test", filepath.Join(dir, "logs"))
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	defer log.Close()

	result, err := MigrateEnvFile(envPath, store, cfgStore, log)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if len(result.CredentialsMigrated) != 2 {
		t.Fatalf("expected 2 credentials migrated, got %d: %v", len(result.CredentialsMigrated), result.CredentialsMigrated)
	}
	if len(result.ConfigKeysIgnored) != 1 || result.ConfigKeysIgnored[0] != "RP_ADDR" {
		t.Fatalf("expected RP_ADDR to be ignored as non-credential, got %v", result.ConfigKeysIgnored)
	}
	if len(result.ConfigKeysApplied) != 2 {
		t.Fatalf("expected 2 config keys applied, got %d: %v", len(result.ConfigKeysApplied), result.ConfigKeysApplied)
	}

	value, err := store.Get("OPENAI_API_KEY")
	if err != nil || value != "sk-abc123" {
		t.Fatalf("expected migrated value sk-abc123, got %q err=%v", value, err)
	}

	doc := cfgStore.Document()
	if doc.Coder.Operator != "claude" || doc.Coder.Models.Default != "opus" {
		t.Fatalf("expected migrated config keys applied to document, got %+v", doc.Coder)
	}

	if _, err := os.Stat(envPath); !os.IsNotExist(err) {
		t.Fatalf("expected original env file to be renamed away")
	}
	if _, err := os.Stat(envPath + ".migrated"); err != nil {
		t.Fatalf("expected .migrated file to exist: %v", err)
	}
	if _, err := os.Stat(result.BackupPath); err != nil {
		t.Fatalf("expected backup file to exist: %v", err)
	}
	if _, err := os.Stat(result.MigrationLogPath); err != nil {
		t.Fatalf("expected migration log file to exist: %v", err)
	}
}
