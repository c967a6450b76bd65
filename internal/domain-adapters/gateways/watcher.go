package gateways

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher invokes a callback when a watched file changes, with
// debouncing so editor write bursts trigger a single invocation.
type FileWatcher struct {
	debounce time.Duration
}

// NewFileWatcher creates a new file watcher
func NewFileWatcher(debounce time.Duration) *FileWatcher {
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	return &FileWatcher{debounce: debounce}
}

// Watch blocks until ctx is done, calling onChange after each debounced
// change to filePath. The parent directory is watched rather than the
// file itself so rename-based saves keep working.
func (w *FileWatcher) Watch(ctx context.Context, filePath string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	//nolint:errcheck // Defer close on watcher shutdown
	defer watcher.Close()

	dir := filepath.Dir(filePath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", filePath, err)
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || abs != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch error: %w", err)
		}
	}
}
