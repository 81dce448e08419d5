package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherSeesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "peadb.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: info\n"), 0640); err != nil {
		t.Fatalf("write: %v", err)
	}

	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	changed := make(chan string, 4)
	w.OnChange(func(p string) { changed <- p })
	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	w.StartAsync()

	// Give the watcher a moment to register before writing.
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("log:\n  level: debug\n"), 0640); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	select {
	case p := <-changed:
		if filepath.Base(p) != "peadb.yaml" {
			t.Fatalf("changed path = %q", p)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no change event within 3s")
	}
}

func TestWatcherStop(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	w.StartAsync()
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
