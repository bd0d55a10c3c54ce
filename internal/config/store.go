package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Store owns one on-disk JSON document and notifies subscribers (the
// executor's strategy cache) when the file changes on disk, through an
// fsnotify loop modelled on the pack's repo watcher; every qualifying event
// triggers a reload, with no debouncing.
type Store struct {
	path string

	mu  sync.RWMutex
	doc Document

	watcher   *fsnotify.Watcher
	listeners []func(Document)
}

// Load reads path, falling back to Default() when the file does not yet
// exist (first run).
func Load(path string) (*Store, error) {
	s := &Store{path: path, doc: Default()}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	s.doc = doc
	return s, nil
}

// Document returns the current in-memory document.
func (s *Store) Document() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// Save validates doc and writes it atomically: write-temp-then-rename with
// an fsync in between, mode 0600, following the teacher's store Open()
// idiom of MkdirAll-then-sql.Open against a freshly-ensured parent dir.
func (s *Store) Save(doc Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("config: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("config: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("config: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("config: fsync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("config: close temp: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		return fmt.Errorf("config: chmod temp: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("config: rename into place: %w", err)
	}

	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
	s.notify(doc)
	return nil
}

// OnChange registers fn to be called whenever the document changes, either
// via Save or a file-system write detected by Watch.
func (s *Store) OnChange(fn func(Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notify(doc Document) {
	s.mu.RLock()
	listeners := append([]func(Document){}, s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(doc)
	}
}

// Watch starts an fsnotify watcher on the config file's directory and
// reloads the document whenever the file is written, created, or renamed
// into place (editors commonly save via temp-then-rename, same as Save
// above). Stop with Close.
func (s *Store) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: new watcher: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		watcher.Close()
		return fmt.Errorf("config: mkdir %s: %w", dir, err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("config: watch %s: %w", dir, err)
	}
	s.watcher = watcher

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(s.path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				s.reload()
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return nil
}

func (s *Store) reload() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return
	}
	if err := doc.Validate(); err != nil {
		return
	}
	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
	s.notify(doc)
}

// Close stops the fsnotify watcher, if started.
func (s *Store) Close() error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Close()
}
