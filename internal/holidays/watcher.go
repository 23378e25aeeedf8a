package holidays

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"

	"worklog/backend/internal/logfields"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher reloads the holidays file into a Calendar whenever the file changes, then calls
// onReload. Editors often write through a rename, so the containing directory is watched.
type Watcher struct {
	path     string
	calendar *Calendar
	onReload func()
	clock    clockwork.Clock
	debounce time.Duration
	logger   *slog.Logger
}

func NewWatcher(path string, calendar *Calendar, onReload func(), clock clockwork.Clock, logger *slog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve holidays path: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if onReload == nil {
		onReload = func() {}
	}
	return &Watcher{
		path:     abs,
		calendar: calendar,
		onReload: onReload,
		clock:    clock,
		debounce: defaultDebounce,
		logger:   logger,
	}, nil
}

// Run blocks until ctx ends or the watch cannot be established.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.logger.Info("Watching holidays file", logfields.Path(w.path))
	return w.loop(ctx, fsw.Events, fsw.Errors)
}

func (w *Watcher) loop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) error {
	var timer clockwork.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || !relevant(ev.Op) {
				continue
			}
			if timer == nil {
				timer = w.clock.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.Chan()
		case <-fire:
			fire = nil
			w.reload()
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			w.logger.Warn("Holidays watcher error", logfields.Error(err))
		}
	}
}

func relevant(op fsnotify.Op) bool {
	return op.Has(fsnotify.Write) || op.Has(fsnotify.Create) || op.Has(fsnotify.Rename)
}

func (w *Watcher) reload() {
	loaded, err := LoadFile(w.path)
	if err != nil {
		w.logger.Error("Holidays reload failed, keeping previous dates", logfields.Path(w.path), logfields.Error(err))
		return
	}
	w.calendar.Set(loaded)
	w.logger.Info("Holidays reloaded", logfields.Path(w.path), logfields.Count(len(loaded)))
	w.onReload()
}
