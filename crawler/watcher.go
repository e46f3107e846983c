package crawler

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 200 * time.Millisecond

// Watch blocks, reloading the store whenever the backing file changes on
// disk, until ctx is cancelled. It watches the parent directory because
// editors and Commit both replace the file by rename, which would orphan
// a watch on the file itself. Run it in its own goroutine.
func (s *JSONRuleStorage) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("crawler: create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("crawler: watch %s: %w", dir, err)
	}
	base := filepath.Base(s.path)
	debounce := newDebouncer(reloadDebounce)
	defer debounce.stop()

	s.logger.Info("watching rule file", "path", s.path)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("rule file watch stopped")
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("crawler: watcher events channel closed")
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			debounce.trigger(func() {
				if err := s.Reload(); err != nil {
					s.logger.Warn("rule file reload failed", "path", s.path, "error", err)
					return
				}
				s.logger.Info("rule file reloaded", "path", s.path, "hosts", len(s.Hosts()))
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("crawler: watcher errors channel closed")
			}
			s.logger.Warn("rule file watch error", "error", err)
		}
	}
}

// debouncer coalesces bursts of file events into one callback after a
// quiet period. Saving a file typically fires several events back to
// back.
type debouncer struct {
	mu       sync.Mutex
	interval time.Duration
	timer    *time.Timer
}

func newDebouncer(interval time.Duration) *debouncer {
	return &debouncer{interval: interval}
}

func (d *debouncer) trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, fn)
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
