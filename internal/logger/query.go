package logger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Query filters a module's JSONL log files. Query never mutates logger
// behavior; it is a diagnostic-only read (spec §4.3).
type Query struct {
	SessionID string
	TaskID    string
	CLIName   string
	Level     Level
	Limit     int
}

// Query runs q against this logger's own directory and name.
func (l *StructuredLogger) Query(q Query) ([]Entry, error) {
	return QueryLogs(l.dir, l.name, q)
}

// QueryLogs scans every <name>-*.jsonl file under dir (newest day first) and
// returns up to Limit entries matching Query, most recent first.
func QueryLogs(dir, name string, q Query) ([]Entry, error) {
	files, err := matchingFiles(dir, name)
	if err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	var out []Entry
	for _, path := range files {
		entries, err := readFile(path)
		if err != nil {
			return nil, fmt.Errorf("query logs: read %s: %w", path, err)
		}
		for i := len(entries) - 1; i >= 0; i-- {
			e := entries[i]
			if !matches(e, q) {
				continue
			}
			out = append(out, e)
			if len(out) >= limit {
				return out, nil
			}
		}
	}
	return out, nil
}

func matches(e Entry, q Query) bool {
	if q.SessionID != "" && e.SessionID != q.SessionID {
		return false
	}
	if q.TaskID != "" && e.TaskID != q.TaskID {
		return false
	}
	if q.CLIName != "" && e.CLIName != q.CLIName {
		return false
	}
	if q.Level != "" && e.Level != q.Level {
		return false
	}
	return true
}

func matchingFiles(dir, name string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	prefix := name + "-"
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		if strings.HasPrefix(n, prefix) && strings.HasSuffix(n, ".jsonl") {
			files = append(files, filepath.Join(dir, n))
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	return files, nil
}

func readFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, scanner.Err()
}
