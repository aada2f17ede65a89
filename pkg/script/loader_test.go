package script

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

const wordScript = `
name: apple-card
description: Say the word, then say it slowly
steps:
  - text: apple
  - pause: 300ms
  - text: apple
    slow: true
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoaderLoadAll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "apple.yaml", wordScript)
	writeFile(t, dir, "unnamed.yml", "steps:\n  - text: hello\n")
	writeFile(t, dir, "notes.txt", "ignored")

	loader := NewLoader(dir)
	scripts, err := loader.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(scripts) != 2 {
		t.Fatalf("loaded %d scripts, want 2", len(scripts))
	}

	s, ok := loader.Get("apple-card")
	if !ok {
		t.Fatal("script 'apple-card' not found")
	}
	if len(s.Steps) != 3 || !s.Steps[2].Slow || s.Steps[1].Pause != "300ms" {
		t.Errorf("steps = %+v", s.Steps)
	}

	if _, ok := loader.Get("unnamed"); !ok {
		t.Error("script without name should take its file name")
	}
	if got, want := loader.Names(), []string{"apple-card", "unnamed"}; !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestLoaderInvalidScriptKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "apple.yaml", wordScript)

	loader := NewLoader(dir)
	if _, err := loader.LoadAll(); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	writeFile(t, dir, "broken.yaml", "name: broken\nsteps: []\n")
	if _, err := loader.LoadAll(); err == nil {
		t.Fatal("LoadAll should reject a script without steps")
	}
	if _, ok := loader.Get("apple-card"); !ok {
		t.Error("previous scripts were dropped after a failed load")
	}
}

func TestLoaderDuplicateNames(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", wordScript)
	writeFile(t, dir, "b.yaml", wordScript)

	if _, err := NewLoader(dir).LoadAll(); err == nil {
		t.Fatal("LoadAll should reject duplicate script names")
	}
}

func TestLoaderMissingDir(t *testing.T) {
	if _, err := NewLoader(filepath.Join(t.TempDir(), "missing")).LoadAll(); err == nil {
		t.Fatal("LoadAll should fail for a missing directory")
	}
}

func TestLoaderWatchAndReload(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "apple.yaml", wordScript)

	loader := NewLoader(dir)
	if _, err := loader.LoadAll(); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	done := make(chan struct{})
	watchErr := make(chan error, 1)
	go func() { watchErr <- loader.WatchAndReload(done) }()
	defer func() {
		close(done)
		if err := <-watchErr; err != nil {
			t.Errorf("WatchAndReload: %v", err)
		}
	}()

	// Give the watcher time to register the directory.
	time.Sleep(50 * time.Millisecond)
	writeFile(t, dir, "banana.yaml", "name: banana\nsteps:\n  - text: banana\n")

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := loader.Get("banana"); ok {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("new script was not picked up")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
