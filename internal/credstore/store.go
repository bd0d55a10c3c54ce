// Package credstore implements the encrypted credential store from spec
// §4.1: a single sqlite file holding name/value pairs, each value sealed
// with AES-256-GCM under a key derived once via PBKDF2-HMAC-SHA256 and
// cached for the life of the Store. Schema and connection handling follow
// the teacher's ReleaseParty backend store (apps/ReleaseParty/backend/
// internal/store/store.go): sql.Open("sqlite", path), SetMaxOpenConns(1),
// and an idempotent migrate() run at Open.
package credstore

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 100_000
	keyLength        = 32
	saltLength       = 32
	nonceLength      = 12
)

// PassphraseEnvVar is read, when set, as extra entropy folded into the
// master key alongside the machine identifier. Its absence is not an
// error: the machine identifier alone still derives a stable key.
const PassphraseEnvVar = "NINJA_CREDENTIAL_PASSWORD"

// Credential is the listing-safe view of a stored value: the value itself
// is never included, only a masked preview (spec §4.1's list operation).
type Credential struct {
	Name        string
	Provider    string
	MaskedValue string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastUsed    *time.Time
}

// Store is the credential store handle. One Store owns one sqlite file and
// one cached master key.
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	key  []byte
}

// Open creates or opens the sqlite file at path, running migrations and
// deriving (or loading) the master key's salt.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &ValueError{Field: "path", Reason: "required"}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, &DatabaseError{Op: "mkdir", Err: err}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &DatabaseError{Op: "open", Err: err}
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{db: db}
	ctx := context.Background()
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	salt, err := s.loadOrCreateSalt(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.key = deriveKey(salt)
	return s, nil
}

// Close closes the underlying database handle and wipes the cached key.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	for i := range s.key {
		s.key[i] = 0
	}
	s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS credentials (
			name TEXT PRIMARY KEY,
			provider TEXT NOT NULL DEFAULT '',
			encrypted_value TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			last_used TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS kdf_metadata (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			salt_hex TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return &DatabaseError{Op: "migrate", Err: err}
		}
	}
	return nil
}

func (s *Store) loadOrCreateSalt(ctx context.Context) ([]byte, error) {
	row := s.db.QueryRowContext(ctx, `SELECT salt_hex FROM kdf_metadata WHERE id = 1`)
	var saltHex string
	err := row.Scan(&saltHex)
	if err == nil {
		return hex.DecodeString(saltHex)
	}
	if err != sql.ErrNoRows {
		return nil, &DatabaseError{Op: "load salt", Err: err}
	}
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, &EncryptionError{Op: "generate salt", Err: err}
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO kdf_metadata (id, salt_hex) VALUES (1, ?)`, hex.EncodeToString(salt)); err != nil {
		return nil, &DatabaseError{Op: "store salt", Err: err}
	}
	return salt, nil
}

// deriveKey runs PBKDF2-HMAC-SHA256 over the machine identifier (plus any
// optional passphrase) and the per-store salt.
func deriveKey(salt []byte) []byte {
	secret := machineIdentifier()
	if pass := os.Getenv(PassphraseEnvVar); pass != "" {
		secret = secret + "\x00" + pass
	}
	return pbkdf2.Key([]byte(secret), salt, pbkdf2Iterations, keyLength, sha256.New)
}

func machineIdentifier() string {
	for _, path := range []string{"/etc/machine-id", "/var/lib/dbus/machine-id"} {
		if data, err := os.ReadFile(path); err == nil {
			if id := strings.TrimSpace(string(data)); id != "" {
				return id
			}
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "ninja-cli-mcp-default-identifier"
}

func (s *Store) seal(plaintext string) (string, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return "", &EncryptionError{Op: "new cipher", Err: err}
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", &EncryptionError{Op: "new gcm", Err: err}
	}
	nonce := make([]byte, nonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return "", &EncryptionError{Op: "generate nonce", Err: err}
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *Store) open(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", &EncryptionError{Op: "decode", Err: err}
	}
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return "", &EncryptionError{Op: "new cipher", Err: err}
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", &EncryptionError{Op: "new gcm", Err: err}
	}
	if len(raw) < nonceLength {
		return "", &EncryptionError{Op: "open", Err: fmt.Errorf("ciphertext too short")}
	}
	nonce, ciphertext := raw[:nonceLength], raw[nonceLength:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", &EncryptionError{Op: "open", Err: err}
	}
	return string(plaintext), nil
}

// Set encrypts value and upserts it under name. provider is an optional
// free-form hint ("openai", "anthropic", ...) used only for listing.
func (s *Store) Set(name, value, provider string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &ValueError{Field: "name", Reason: "required"}
	}
	if value == "" {
		return &ValueError{Field: "value", Reason: "required"}
	}
	s.mu.Lock()
	sealed, err := s.seal(value)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.Exec(`
		INSERT INTO credentials (name, provider, encrypted_value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			provider = excluded.provider,
			encrypted_value = excluded.encrypted_value,
			updated_at = excluded.updated_at
	`, name, provider, sealed, now, now)
	if err != nil {
		return &DatabaseError{Op: "set", Err: err}
	}
	return nil
}

// Get decrypts and returns the value stored under name, touching last_used.
func (s *Store) Get(name string) (string, error) {
	name = strings.TrimSpace(name)
	row := s.db.QueryRow(`SELECT encrypted_value FROM credentials WHERE name = ?`, name)
	var sealed string
	if err := row.Scan(&sealed); err != nil {
		if err == sql.ErrNoRows {
			return "", &CredentialNotFoundError{Name: name}
		}
		return "", &DatabaseError{Op: "get", Err: err}
	}
	s.mu.Lock()
	value, err := s.open(sealed)
	s.mu.Unlock()
	if err != nil {
		return "", err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, _ = s.db.Exec(`UPDATE credentials SET last_used = ? WHERE name = ?`, now, name)
	return value, nil
}

// Exists reports whether name has a stored value, without decrypting it.
func (s *Store) Exists(name string) (bool, error) {
	row := s.db.QueryRow(`SELECT 1 FROM credentials WHERE name = ?`, strings.TrimSpace(name))
	var one int
	err := row.Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, &DatabaseError{Op: "exists", Err: err}
	}
	return true, nil
}

// List returns every stored credential's metadata with a masked value
// preview (the first and last four characters with asterisks between them;
// a value of eight characters or fewer is all asterisks); raw values are
// never included.
func (s *Store) List() ([]Credential, error) {
	rows, err := s.db.Query(`SELECT name, provider, encrypted_value, created_at, updated_at, last_used FROM credentials ORDER BY name`)
	if err != nil {
		return nil, &DatabaseError{Op: "list", Err: err}
	}
	defer rows.Close()

	var out []Credential
	for rows.Next() {
		var (
			name, provider, sealed, createdAt, updatedAt string
			lastUsed                                     sql.NullString
		)
		if err := rows.Scan(&name, &provider, &sealed, &createdAt, &updatedAt, &lastUsed); err != nil {
			return nil, &DatabaseError{Op: "list scan", Err: err}
		}
		c := Credential{Name: name, Provider: provider}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			c.CreatedAt = t
		}
		if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
			c.UpdatedAt = t
		}
		if lastUsed.Valid {
			if t, err := time.Parse(time.RFC3339, lastUsed.String); err == nil {
				c.LastUsed = &t
			}
		}
		s.mu.Lock()
		value, decErr := s.open(sealed)
		s.mu.Unlock()
		if decErr == nil {
			c.MaskedValue = maskValue(value)
		} else {
			c.MaskedValue = "****"
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func maskValue(value string) string {
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}

// Delete removes name's row, reporting whether a row existed. The sealed
// value is overwritten with random bytes before the row is deleted so the
// plaintext ciphertext does not linger in the WAL longer than necessary.
func (s *Store) Delete(name string) (bool, error) {
	name = strings.TrimSpace(name)
	exists, err := s.Exists(name)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	junk := make([]byte, 64)
	_, _ = rand.Read(junk)
	_, _ = s.db.Exec(`UPDATE credentials SET encrypted_value = ? WHERE name = ?`, base64.StdEncoding.EncodeToString(junk), name)
	if _, err := s.db.Exec(`DELETE FROM credentials WHERE name = ?`, name); err != nil {
		return false, &DatabaseError{Op: "delete", Err: err}
	}
	return true, nil
}
