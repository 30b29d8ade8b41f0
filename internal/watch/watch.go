// Package watch rebuilds when files under a source directory change.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	dberrors "git.home.luguber.info/inful/docsmith/internal/foundation/errors"
	"git.home.luguber.info/inful/docsmith/internal/logfields"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 300 * time.Millisecond

// Trigger runs one rebuild. Its error is logged; watching continues.
type Trigger func(ctx context.Context) error

// Watcher monitors a directory tree and calls its trigger once per batch of
// changes. Triggers never overlap.
type Watcher struct {
	root     string
	trigger  Trigger
	debounce time.Duration
	exclude  []string
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a rebuild.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithExclude ignores events under the given absolute paths, typically the
// destination when it lives inside the source.
func WithExclude(paths ...string) Option {
	return func(w *Watcher) { w.exclude = append(w.exclude, paths...) }
}

// WithLogger sets the watcher's logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a watcher for root. Call Run to start it.
func New(root string, trigger Trigger, opts ...Option) (*Watcher, error) {
	if trigger == nil {
		return nil, dberrors.InternalError("watch trigger must not be nil").Build()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, dberrors.WrapError(err, dberrors.CategoryFileSystem, "resolve watch root").Build()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, dberrors.WrapError(err, dberrors.CategoryRuntime, "failed to create file watcher").Build()
	}

	w := &Watcher{
		root:     abs,
		trigger:  trigger,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		watcher:  fw,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches until ctx is canceled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	if err := w.addTree(w.root); err != nil {
		return err
	}
	w.logger.Info("Watching for changes", logfields.Path(w.root))

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("Change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			if event.Has(fsnotify.Create) {
				// New directories need their own watch.
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
					}
				}
			}
			timer.Reset(w.debounce)

		case <-timer.C:
			w.logger.Info("Rebuilding")
			if err := w.trigger(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Error("Rebuild failed", logfields.Error(err))
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	for _, ex := range w.exclude {
		if event.Name == ex || strings.HasPrefix(event.Name, ex+string(filepath.Separator)) {
			return false
		}
	}
	return true
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		for _, ex := range w.exclude {
			if p == ex {
				return filepath.SkipDir
			}
		}
		if err := w.watcher.Add(p); err != nil {
			return dberrors.WrapError(err, dberrors.CategoryFileSystem, "failed to watch directory").
				WithContext("path", p).
				Build()
		}
		return nil
	})
}
