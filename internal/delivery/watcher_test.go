package delivery

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// waitForID drains ch until want arrives. Filesystem notification may
// emit more than one event per write, so duplicates and other ids are
// skipped rather than failed.
func waitForID(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case id, ok := <-ch:
			if !ok {
				t.Fatalf("watch channel closed before %q arrived", want)
			}
			if id == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}

func TestWatchEmitsSessionIDOnDrop(t *testing.T) {
	box := NewDropbox(t.TempDir(), 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := box.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	if err := box.Drop("s1", "hello"); err != nil {
		t.Fatalf("drop: %v", err)
	}
	waitForID(t, ch, "s1")
}

func TestWatchIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	box := NewDropbox(dir, 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := box.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := box.Drop("s2", "after"); err != nil {
		t.Fatalf("drop: %v", err)
	}

	// The foreign file must never surface; the drop right after it must.
	deadline := time.After(3 * time.Second)
	for {
		select {
		case id, ok := <-ch:
			if !ok {
				t.Fatalf("watch channel closed early")
			}
			if id == "notes" || id == "notes.txt" {
				t.Fatalf("foreign file surfaced as %q", id)
			}
			if id == "s2" {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for s2")
		}
	}
}

func TestWatchClosesOnCancel(t *testing.T) {
	box := NewDropbox(t.TempDir(), 0, nil)
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := box.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	cancel()

	deadline := time.After(3 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("watch channel did not close after cancel")
		}
	}
}
