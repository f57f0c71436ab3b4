package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	ioutils "github.com/handiism/concert-scanner/internal/io"
)

var imageExts = ioutils.NewExtensionSet(".png", ".jpg", ".jpeg", ".gif", ".webp")

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestWatcher_Backlog(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.JPG", "a.png", "notes.txt", "c.webp", "README"} {
		touch(t, filepath.Join(dir, name))
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.png"), 0755); err != nil {
		t.Fatal(err)
	}
	touch(t, filepath.Join(dir, "nested.png", "inner.png"))

	files, err := NewWatcher(dir, imageExts, nil).Backlog()
	if err != nil {
		t.Fatalf("Backlog() error = %v", err)
	}

	want := []string{"a.png", "b.JPG", "c.webp"}
	if len(files) != len(want) {
		t.Fatalf("Backlog() = %v, want %v", files, want)
	}
	for i, name := range want {
		if files[i] != filepath.Join(dir, name) {
			t.Errorf("files[%d] = %s, want %s", i, files[i], name)
		}
	}
}

func TestWatcher_BacklogFollowsSymlinks(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(t.TempDir(), "original.jpg")
	touch(t, target)
	if err := os.Symlink(target, filepath.Join(dir, "linked.jpg")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	if err := os.Symlink(filepath.Join(dir, "missing.jpg"), filepath.Join(dir, "dangling.png")); err != nil {
		t.Fatal(err)
	}

	files, err := NewWatcher(dir, imageExts, nil).Backlog()
	if err != nil {
		t.Fatalf("Backlog() error = %v", err)
	}
	if len(files) != 1 || files[0] != filepath.Join(dir, "linked.jpg") {
		t.Errorf("Backlog() = %v, want only linked.jpg", files)
	}
}

func TestWatcher_BacklogMissingDir(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "missing"), imageExts, nil)
	if _, err := w.Backlog(); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestWatcher_States(t *testing.T) {
	w := NewWatcher(t.TempDir(), imageExts, func(string) {})
	if w.State() != StateIdle {
		t.Fatalf("new watcher state = %s", w.State())
	}

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if w.State() != StateObserving {
		t.Errorf("state after Start = %s", w.State())
	}
	if err := w.Start(context.Background()); !errors.Is(err, ErrNotIdle) {
		t.Errorf("second Start() = %v, want ErrNotIdle", err)
	}

	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
	if w.State() != StateStopped {
		t.Errorf("state after Stop = %s", w.State())
	}
	if err := w.Start(context.Background()); !errors.Is(err, ErrNotIdle) {
		t.Errorf("Start() after Stop = %v, want ErrNotIdle", err)
	}
}

func TestWatcher_StartMissingDir(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "missing"), imageExts, func(string) {})
	if err := w.Start(context.Background()); err == nil {
		w.Stop()
		t.Fatal("Start() on a missing directory should fail")
	}
	if w.State() != StateIdle {
		t.Errorf("failed Start should leave the watcher idle, got %s", w.State())
	}
}

func TestWatcher_DispatchesNewImages(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var seen []string
	got := make(chan string, 10)
	w := NewWatcher(dir, imageExts, func(path string) {
		mu.Lock()
		seen = append(seen, filepath.Base(path))
		mu.Unlock()
		got <- path
	})
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	touch(t, filepath.Join(dir, "notes.txt"))
	if err := os.Mkdir(filepath.Join(dir, "folder.png"), 0755); err != nil {
		t.Fatal(err)
	}
	touch(t, filepath.Join(dir, "poster.jpg"))

	select {
	case path := <-got:
		if filepath.Base(path) != "poster.jpg" {
			t.Errorf("handler got %s, want poster.jpg", path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("handler not called for new image")
	}

	if err := w.Stop(); err != nil {
		t.Fatal(err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 {
		t.Errorf("handler called for %v, want only poster.jpg", seen)
	}
}

func TestWatcher_StopWaitsForHandler(t *testing.T) {
	dir := t.TempDir()

	started := make(chan struct{})
	release := make(chan struct{})
	var finished bool
	w := NewWatcher(dir, imageExts, func(string) {
		close(started)
		<-release
		finished = true
	})
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	touch(t, filepath.Join(dir, "slow.png"))
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("handler not called")
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()
	if err := w.Stop(); err != nil {
		t.Fatal(err)
	}
	if !finished {
		t.Error("Stop returned before the running handler completed")
	}
}
