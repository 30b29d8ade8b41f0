// Package reader loads a source directory into the in-memory file model.
package reader

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docsmith/internal/config"
	"git.home.luguber.info/inful/docsmith/internal/files"
	dberrors "git.home.luguber.info/inful/docsmith/internal/foundation/errors"
	"git.home.luguber.info/inful/docsmith/internal/frontmatter"
	"git.home.luguber.info/inful/docsmith/internal/ignore"
	"git.home.luguber.info/inful/docsmith/internal/logfields"
)

// ReadError reports a failure to enumerate or load the entry at Path.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return "failed to read " + e.Path + ": " + e.Err.Error()
}

func (e *ReadError) Unwrap() error { return e.Err }

// Category implements dberrors.Categorized.
func (e *ReadError) Category() dberrors.ErrorCategory { return dberrors.CategoryRead }

// Option configures a read.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// entry is one regular file found during enumeration.
type entry struct {
	abs  string
	rel  string
	info fs.FileInfo
}

// Read loads every non-ignored file under dir. An empty dir means the
// settings' source directory; a relative one resolves against the working
// directory. Either the complete model is returned or the first error.
func Read(ctx context.Context, dir string, s *config.Settings, opts ...Option) (files.Files, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if dir == "" {
		dir = s.Source()
	} else {
		dir = s.Path(dir)
	}

	start := time.Now()
	entries, err := enumerate(dir, s.Matcher(), o.logger)
	if err != nil {
		return nil, err
	}

	out := make(files.Files, len(entries))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if n := s.Concurrency(); n > 0 {
		g.SetLimit(n)
	}
	for _, e := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := load(e, s)
			if err != nil {
				return err
			}
			mu.Lock()
			out[e.rel] = f
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	o.logger.Debug("Read source directory",
		logfields.Path(dir),
		logfields.Files(len(out)),
		logfields.Concurrency(s.Concurrency()),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return out, nil
}

func load(e entry, s *config.Settings) (*files.File, error) {
	data, err := os.ReadFile(e.abs)
	if err != nil {
		return nil, &ReadError{Path: e.abs, Err: err}
	}

	f := &files.File{
		Contents: data,
		Mode:     files.FormatMode(e.info.Mode()),
		Stats:    e.info,
		Metadata: map[string]any{},
	}
	if !s.Frontmatter() {
		return f, nil
	}

	fields, body, err := s.Parser().Parse(data)
	if err != nil {
		return nil, &ReadError{Path: e.abs, Err: &frontmatter.ParseError{Path: e.rel, Err: err}}
	}
	for k, v := range fields {
		f.Metadata[k] = v
	}
	f.Contents = body
	return f, nil
}

// enumerate walks root following symlinks. A directory link that points back
// at one of its own ancestors is skipped.
func enumerate(root string, m *ignore.Matcher, logger *slog.Logger) ([]entry, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, &ReadError{Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &ReadError{Path: root, Err: errors.New("not a directory")}
	}
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, &ReadError{Path: root, Err: err}
	}

	w := walker{root: root, matcher: m, logger: logger}
	if err := w.walk(root, map[string]bool{resolved: true}); err != nil {
		return nil, err
	}
	return w.entries, nil
}

type walker struct {
	root    string
	matcher *ignore.Matcher
	logger  *slog.Logger
	entries []entry
}

func (w *walker) walk(dir string, ancestors map[string]bool) error {
	list, err := os.ReadDir(dir)
	if err != nil {
		return &ReadError{Path: dir, Err: err}
	}
	for _, de := range list {
		abs := filepath.Join(dir, de.Name())
		rel, err := filepath.Rel(w.root, abs)
		if err != nil {
			return &ReadError{Path: abs, Err: err}
		}
		rel = filepath.ToSlash(rel)

		// os.Stat follows symlinks so the matcher and the model see the target.
		info, err := os.Stat(abs)
		if err != nil {
			return &ReadError{Path: abs, Err: err}
		}
		if w.matcher.ShouldIgnore(rel, info) {
			continue
		}

		if !info.IsDir() {
			if info.Mode().IsRegular() {
				w.entries = append(w.entries, entry{abs: abs, rel: rel, info: info})
			}
			continue
		}

		resolved, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return &ReadError{Path: abs, Err: err}
		}
		if ancestors[resolved] {
			w.logger.Debug("Skipping symlink cycle", logfields.Path(rel))
			continue
		}
		ancestors[resolved] = true
		err = w.walk(abs, ancestors)
		delete(ancestors, resolved)
		if err != nil {
			return err
		}
	}
	return nil
}
