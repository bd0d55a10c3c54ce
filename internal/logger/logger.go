// Package logger implements the structured JSONL logger from spec §4.3: one
// daily file per module, mirrored to the console the way every teacher
// binary's log.New(os.Stdout, "<prefix> ", log.LstdFlags|log.LUTC) does.
package logger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level is the closed set of log severities.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Entry is one JSONL line. Extra carries module-specific fields that don't
// warrant their own column (spec §4.3's "open extra map").
type Entry struct {
	Timestamp string         `json:"timestamp"`
	Level     Level          `json:"level"`
	Logger    string         `json:"logger_name"`
	Message   string         `json:"message"`
	SessionID string         `json:"session_id,omitempty"`
	TaskID    string         `json:"task_id,omitempty"`
	CLIName   string         `json:"cli_name,omitempty"`
	Model     string         `json:"model,omitempty"`
	ErrorKind string         `json:"error_kind,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// StructuredLogger writes one JSONL file per day under dir/<name>-YYYYMMDD.jsonl
// and mirrors every entry to the console logger. Known limitation: rotation
// is by day only, not by size (SPEC_FULL open-question decision #3).
type StructuredLogger struct {
	name    string
	dir     string
	console *log.Logger

	mu      sync.Mutex
	day     string
	file    *os.File
	writer  *bufio.Writer
}

// New creates a StructuredLogger for the named module, writing daily files
// under dir. dir is created with mode 0700 if missing.
func New(name, dir string) (*StructuredLogger, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("logger: create dir: %w", err)
	}
	return &StructuredLogger{
		name:    name,
		dir:     dir,
		console: log.New(os.Stdout, name+" ", log.LstdFlags|log.LUTC),
	}, nil
}

func (l *StructuredLogger) currentFile(now time.Time) (*bufio.Writer, error) {
	day := now.UTC().Format("20060102")
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.day == day && l.writer != nil {
		return l.writer, nil
	}
	if l.file != nil {
		_ = l.writer.Flush()
		_ = l.file.Close()
	}
	path := filepath.Join(l.dir, fmt.Sprintf("%s-%s.jsonl", l.name, day))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("logger: open %s: %w", path, err)
	}
	l.file = f
	l.writer = bufio.NewWriter(f)
	l.day = day
	return l.writer, nil
}

// Log appends one JSONL entry and mirrors a formatted line to the console.
func (l *StructuredLogger) Log(level Level, message string, fields Entry) {
	now := time.Now().UTC()
	fields.Timestamp = now.Format(time.RFC3339)
	fields.Level = level
	fields.Logger = l.name
	fields.Message = message

	w, err := l.currentFile(now)
	if err != nil {
		l.console.Printf("logger write error: %v", err)
	} else {
		l.mu.Lock()
		data, encErr := json.Marshal(fields)
		if encErr == nil {
			_, _ = w.Write(data)
			_, _ = w.Write([]byte("\n"))
			_ = w.Flush()
		}
		l.mu.Unlock()
	}

	consoleMsg := message
	if fields.ErrorKind != "" {
		consoleMsg = fmt.Sprintf("%s [%s]", message, fields.ErrorKind)
	}
	l.console.Printf("[%s] %s", level, consoleMsg)
}

func (l *StructuredLogger) Debug(message string, fields Entry) { l.Log(LevelDebug, message, fields) }
func (l *StructuredLogger) Info(message string, fields Entry)  { l.Log(LevelInfo, message, fields) }
func (l *StructuredLogger) Warn(message string, fields Entry)  { l.Log(LevelWarn, message, fields) }
func (l *StructuredLogger) Error(message string, fields Entry) { l.Log(LevelError, message, fields) }

// Close flushes and closes the current day's file, if open.
func (l *StructuredLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	if err := l.writer.Flush(); err != nil {
		return err
	}
	return l.file.Close()
}
