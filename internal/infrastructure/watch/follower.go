package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Follower watches a single file and invokes a callback after each
// debounced change. The parent directory is watched rather than the
// file itself so that atomic rewrites (write-then-rename) are seen.
type Follower struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange func()
}

// NewFollower creates a follower for the given file path.
func NewFollower(path string, debounce time.Duration, onChange func()) (*Follower, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if debounce == 0 {
		debounce = 250 * time.Millisecond
	}
	return &Follower{
		path:     path,
		watcher:  w,
		debounce: debounce,
		onChange: onChange,
	}, nil
}

// Run starts the event loop. It blocks until the context is cancelled.
func (f *Follower) Run(ctx context.Context) error {
	defer f.watcher.Close()

	if err := f.watcher.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(f.path), err)
	}

	debouncer := NewDebouncer(f.debounce, func() {
		if f.onChange != nil {
			f.onChange()
		}
	})
	defer debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-f.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(f.path) {
				continue
			}
			if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Rename) {
				debouncer.Trigger()
			}
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}
