package sources

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for writes to settle
const DefaultDebounce = 500 * time.Millisecond

// FileWatcher calls OnChange when the watched export file is written,
// created or renamed into place. Bursts of events are collapsed into one call.
type FileWatcher struct {
	path     string
	debounce time.Duration
	onChange func()
}

// WatchOption configures a FileWatcher
type WatchOption func(*FileWatcher)

// WithDebounce overrides the debounce interval
func WithDebounce(d time.Duration) WatchOption {
	return func(w *FileWatcher) {
		w.debounce = d
	}
}

// NewFileWatcher creates a watcher for path
func NewFileWatcher(path string, onChange func(), opts ...WatchOption) (*FileWatcher, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if onChange == nil {
		return nil, fmt.Errorf("change callback is required")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	w := &FileWatcher{path: abs, debounce: DefaultDebounce, onChange: onChange}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches the file until ctx is cancelled. The parent directory is
// watched so that exports replaced through rename are picked up.
func (w *FileWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	slog.Info("Started watching source file", "path", w.path)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping source file watcher")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher event channel closed")
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				slog.Debug("Source file event", "path", w.path, "op", event.Op.String())
				pending = time.After(w.debounce)
			}

		case <-pending:
			pending = nil
			slog.Info("Source file changed", "path", w.path)
			w.onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			slog.Error("File watcher error", "error", err)
		}
	}
}
