package clients

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/aussiebroadwan/accounts/pkg/slogx"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events editors and config
// management tools produce for a single save.
const DefaultDebounce = 250 * time.Millisecond

// Watch reloads r whenever the file at path changes, until ctx is done. The
// parent directory is watched rather than the file so atomic replace via
// rename is picked up.
func Watch(ctx context.Context, r *Registry, path string, debounce time.Duration) error {
	log := slogx.FromContext(ctx)
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("clients: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("clients: watch %q: %w", filepath.Dir(path), err)
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("client registry watcher error", "error", err)

		case <-timer.C:
			if err := r.Reload(ctx); err != nil {
				log.Error("client registry reload failed, keeping previous snapshot", "error", err)
			}
		}
	}
}
