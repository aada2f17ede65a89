package script

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Loader loads and optionally hot-reloads scripts from YAML files.
type Loader struct {
	dir string

	mu      sync.RWMutex
	scripts map[string]*Script
}

// NewLoader creates a new script loader for the given directory.
func NewLoader(dir string) *Loader {
	return &Loader{
		dir:     dir,
		scripts: make(map[string]*Script),
	}
}

// LoadAll loads all .yaml and .yml files from the configured directory and
// replaces the loaded set. On error the previous set is kept.
func (l *Loader) LoadAll() (map[string]*Script, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read script dir %q: %w", l.dir, err)
	}

	result := make(map[string]*Script)
	for _, entry := range entries {
		if entry.IsDir() || !isScriptFile(entry.Name()) {
			continue
		}

		path := filepath.Join(l.dir, entry.Name())
		s, err := loadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load %q: %w", path, err)
		}
		if _, dup := result[s.Name]; dup {
			return nil, fmt.Errorf("load %q: duplicate script name %q", path, s.Name)
		}
		result[s.Name] = s
	}

	l.mu.Lock()
	l.scripts = result
	l.mu.Unlock()

	return result, nil
}

// Get returns a loaded script by name.
func (l *Loader) Get(name string) (*Script, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.scripts[name]
	return s, ok
}

// Names returns the loaded script names in sorted order.
func (l *Loader) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.scripts))
	for name := range l.scripts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func loadFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	if s.Name == "" {
		base := filepath.Base(path)
		s.Name = base[:len(base)-len(filepath.Ext(base))]
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func isScriptFile(name string) bool {
	ext := filepath.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}

// WatchAndReload watches the script directory and reloads on changes.
// It blocks until done is closed.
func (l *Loader) WatchAndReload(done <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(l.dir); err != nil {
		return fmt.Errorf("watch dir %q: %w", l.dir, err)
	}

	for {
		select {
		case <-done:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isScriptFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				if _, err := l.LoadAll(); err != nil {
					slog.Warn("script reload failed, keeping previous scripts",
						slog.String("dir", l.dir), slog.String("error", err.Error()))
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
