package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPollingWatcherDetectsCreateModifyDelete(t *testing.T) {
	dir := t.TempDir()
	w := NewPollingWatcher(0)
	if err := w.AddDirectory(dir); err != nil {
		t.Fatalf("AddDirectory: %v", err)
	}

	// Baseline poll: directory is empty.
	if _, err := w.Poll(); err != nil {
		t.Fatalf("initial Poll: %v", err)
	}

	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("one"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	events, err := w.Poll()
	if err != nil {
		t.Fatalf("Poll after create: %v", err)
	}
	if len(events) != 1 || events[0].Kind != Created {
		t.Fatalf("expected one Created event, got %+v", events)
	}

	time.Sleep(10 * time.Millisecond)
	if err := os.WriteFile(path, []byte("one-longer"), 0o644); err != nil {
		t.Fatalf("WriteFile modify: %v", err)
	}
	events, err = w.Poll()
	if err != nil {
		t.Fatalf("Poll after modify: %v", err)
	}
	if len(events) != 1 || events[0].Kind != Modified {
		t.Fatalf("expected one Modified event, got %+v", events)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	events, err = w.Poll()
	if err != nil {
		t.Fatalf("Poll after delete: %v", err)
	}
	if len(events) != 1 || events[0].Kind != Deleted {
		t.Fatalf("expected one Deleted event, got %+v", events)
	}
}

func TestPollingWatcherRespectsInterval(t *testing.T) {
	dir := t.TempDir()
	w := NewPollingWatcher(time.Hour)
	if err := w.AddDirectory(dir); err != nil {
		t.Fatalf("AddDirectory: %v", err)
	}
	if _, err := w.Poll(); err != nil {
		t.Fatalf("first Poll: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "b.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	events, err := w.Poll()
	if err != nil {
		t.Fatalf("second Poll: %v", err)
	}
	if events != nil {
		t.Fatalf("expected no events before interval elapses, got %+v", events)
	}
}
