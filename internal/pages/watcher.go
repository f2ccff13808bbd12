package pages

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/huangsam/statdash/internal/contract"
	"go.uber.org/zap"
)

// DefaultDebounce collapses the burst of events an editor emits on save.
const DefaultDebounce = 200 * time.Millisecond

// ConfigWatcher signals when a config file changes on disk.
type ConfigWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	changes  chan struct{}
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// NewConfigWatcher watches the directory holding path, so that editors that
// replace the file through a rename are still noticed.
func NewConfigWatcher(path string, debounce time.Duration) (*ConfigWatcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(absPath), err)
	}

	cw := &ConfigWatcher{
		watcher:  watcher,
		path:     absPath,
		debounce: debounce,
		changes:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	cw.wg.Go(cw.processEvents)
	return cw, nil
}

func (cw *ConfigWatcher) processEvents() {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != cw.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			contract.Logger().Debug("config file event", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(cw.debounce)
			} else {
				timer.Reset(cw.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			select {
			case cw.changes <- struct{}{}:
			default: // A change is already pending
			}

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			contract.Logger().Warn("config watch error", zap.Error(err))

		case <-cw.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// Changes delivers one signal per settled burst of config file changes.
func (cw *ConfigWatcher) Changes() <-chan struct{} {
	return cw.changes
}

// Close stops watching.
func (cw *ConfigWatcher) Close() error {
	var err error
	cw.once.Do(func() {
		close(cw.done)
		err = cw.watcher.Close()
		cw.wg.Wait()
	})
	return err
}
