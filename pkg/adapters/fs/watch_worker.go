package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/fsnotify/fsnotify"

	"github.com/veikko/jamb/pkg/core"
)

type watchWorker struct {
	*worker.BaseWorker
	repo      *Repository
	pattern   string
	events    chan<- core.Event
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cancel    context.CancelFunc
}

func newWatchWorker(repo *Repository, pattern string, events chan<- core.Event) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("fs-watcher"),
		repo:       repo,
		pattern:    pattern,
		events:     events,
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := w.repo.recursiveAdd(watcher); err != nil {
		_ = watcher.Close()
		return err
	}

	w.watcher = watcher
	w.debouncer = newDebouncer(50 * time.Millisecond)
	w.repo.setWatcherActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}

	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
		}
	})
}

// handleLockEvent processes events for the revision lock file. While
// another process holds the lock, element files churn under it, so the
// watcher pauses and reconciles once the lock is released.
// Returns true if the event was the lock file.
func (w *watchWorker) handleLockEvent(event fsnotify.Event, locked *bool) (handled bool, lockedNew bool) {
	lockedNew = *locked

	lockName := w.repo.config.SystemDir + ".lock"
	if filepath.Base(event.Name) != lockName || filepath.Dir(event.Name) != filepath.Clean(w.repo.Path) {
		return false, lockedNew
	}

	if event.Has(fsnotify.Create) {
		lockedNew = true
		if w.repo.config.Logger != nil {
			w.repo.config.Logger.Debug("revision lock taken, pausing watcher")
		}
	} else if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		lockedNew = false
		if w.repo.config.Logger != nil {
			w.repo.config.Logger.Debug("revision lock released, reconciling")
		}
	}
	return true, lockedNew
}

// reconcileAfterUnlock catches up on events missed while the revision
// lock was held.
func (w *watchWorker) reconcileAfterUnlock(ctx context.Context) {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		reconciled, err := w.repo.Reconcile(ctx)
		if err != nil {
			if w.repo.config.Logger != nil {
				w.repo.config.Logger.Error("reconcile failed", "error", err)
			}
			return err
		}
		for _, e := range reconciled {
			w.sendEvent(ctx, e)
		}
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		if w.repo.config.ErrorHandler != nil {
			w.repo.config.ErrorHandler(fmt.Errorf("reconcile panic: %w", err))
		} else if w.repo.config.Logger != nil {
			w.repo.config.Logger.Error("reconcile panic", "error", err)
		}
	}))
}

// maybeWatchNewDir registers directories created after the watcher
// started, so files written under them are seen. Returns true if the
// event was for a directory.
func (w *watchWorker) maybeWatchNewDir(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) {
		return false
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.IsDir() {
		return false
	}

	name := filepath.Base(event.Name)
	if name == ".git" || name == w.repo.config.SystemDir {
		return true
	}
	if err := w.watcher.Add(event.Name); err != nil && w.repo.config.Logger != nil {
		w.repo.config.Logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
	}
	return true
}

// processFilesystemEvent filters, maps, and debounces one fsnotify
// event. Returns false if the event was ignored.
func (w *watchWorker) processFilesystemEvent(ctx context.Context, event fsnotify.Event) bool {
	if w.repo.config.Logger != nil {
		w.repo.config.Logger.Debug("event received", "name", event.Name)
	}

	if w.repo.shouldIgnore(event, w.pattern) {
		return false
	}

	eType := w.repo.mapEventType(event)
	if eType == "" {
		return false
	}

	id, err := w.repo.resolveID(event.Name)
	if err != nil {
		if w.repo.config.ErrorHandler != nil {
			w.repo.config.ErrorHandler(fmt.Errorf("failed to resolve ID for %s: %w", event.Name, err))
		} else if w.repo.config.Logger != nil {
			w.repo.config.Logger.Debug("resolveID failed", "path", event.Name, "err", err)
		}
		return false
	}

	w.sendEvent(ctx, core.Event{
		Type:      eType,
		ID:        id,
		Timestamp: time.Now().Unix(),
	})
	return true
}

// sendEvent enqueues an event via the debouncer. The recover guards
// against the events channel closing during shutdown.
func (w *watchWorker) sendEvent(ctx context.Context, event core.Event) {
	w.debouncer.add(event, func(e core.Event) {
		defer func() {
			_ = recover()
		}()
		select {
		case w.events <- e:
		case <-ctx.Done():
		}
	})
}

func (w *watchWorker) handleWatcherError(err error) {
	if w.repo.config.Logger != nil {
		w.repo.config.Logger.Error("fsnotify error", "error", err)
	}
	if w.repo.config.ErrorHandler != nil {
		w.repo.config.ErrorHandler(err)
	}
}

func (w *watchWorker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			panicErr := fmt.Errorf("watcher panic: %v", recovered)

			// Full stack only at debug level; production logs stay lean.
			var stack string
			if w.repo.config.Logger != nil && w.repo.config.Logger.Enabled(ctx, slog.LevelDebug) {
				stack = string(debug.Stack())
			}

			if stack != "" {
				w.repo.config.Logger.Error("watcher panic", "error", panicErr, "stack", stack)
			} else if w.repo.config.Logger != nil {
				w.repo.config.Logger.Error("watcher panic", "error", panicErr)
			}
		}
	}()
	defer w.repo.setWatcherActive(false)
	defer w.watcher.Close()

	var locked bool
	err = w.mainEventLoop(ctx, &locked)

	// Drain the debouncer before the caller closes the events channel.
	w.debouncer.stopAndWait(5 * time.Second)

	return err
}

func (w *watchWorker) mainEventLoop(ctx context.Context, locked *bool) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}

			if handled, newLocked := w.handleLockEvent(event, locked); handled {
				wasLocked := *locked
				*locked = newLocked
				if wasLocked && !newLocked {
					w.reconcileAfterUnlock(ctx)
				}
				continue
			}

			if *locked {
				continue
			}

			if w.maybeWatchNewDir(event) {
				continue
			}

			w.processFilesystemEvent(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.handleWatcherError(wErr)
		}
	}
}
