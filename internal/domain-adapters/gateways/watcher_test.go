package gateways

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestFileWatcher_Watch_FiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ci.yml")
	if err := os.WriteFile(path, []byte("a:\n  script: [true]\n"), 0600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var fired atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- NewFileWatcher(50*time.Millisecond).Watch(ctx, path, func() {
			fired.Add(1)
			cancel()
		})
	}()

	// Give the watcher time to register before touching the file
	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(path, []byte("a:\n  script: [false]\n"), 0600); err != nil {
		t.Fatal(err)
	}

	err := <-done
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Watch() error = %v", err)
	}
	if fired.Load() == 0 {
		t.Error("Watch() callback never fired after a write")
	}
}

func TestFileWatcher_Watch_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ci.yml")
	if err := os.WriteFile(path, []byte("a:\n  script: [true]\n"), 0600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 600*time.Millisecond)
	defer cancel()

	var fired atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- NewFileWatcher(50*time.Millisecond).Watch(ctx, path, func() {
			fired.Add(1)
		})
	}()

	time.Sleep(150 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "other.yml"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	<-done
	if fired.Load() != 0 {
		t.Error("Watch() fired for an unrelated sibling file")
	}
}

func TestFileWatcher_Watch_MissingDirectory(t *testing.T) {
	err := NewFileWatcher(0).Watch(context.Background(), "/nonexistent/dir/ci.yml", func() {})
	if err == nil {
		t.Error("Watch() should return error for missing directory")
	}
}
