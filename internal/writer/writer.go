// Package writer materializes the file model into a destination directory.
package writer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docsmith/internal/config"
	"git.home.luguber.info/inful/docsmith/internal/files"
	dberrors "git.home.luguber.info/inful/docsmith/internal/foundation/errors"
	"git.home.luguber.info/inful/docsmith/internal/logfields"
)

// ErrUnsafeClean is returned instead of removing a destination that is the
// working directory or contains the source directory.
var ErrUnsafeClean = errors.New("refusing to clean destination")

// ErrOutsideDestination is returned for a file key that resolves to the
// destination itself or to a path outside it.
var ErrOutsideDestination = errors.New("path escapes the destination directory")

// Op names the filesystem operation a WriteError came from.
type Op string

const (
	OpClean Op = "clean"
	OpMkdir Op = "mkdir"
	OpWrite Op = "write"
	OpChmod Op = "chmod"
	OpMode  Op = "mode"
)

// WriteError reports a failed operation on Path.
type WriteError struct {
	Path string
	Op   Op
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Category implements dberrors.Categorized.
func (e *WriteError) Category() dberrors.ErrorCategory { return dberrors.CategoryWrite }

// Option configures a write.
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

// Write stores every file of docs under dir, creating parent directories and
// applying each file's mode. An empty dir means the settings' destination.
// When the settings ask for it, dir is removed first.
func Write(ctx context.Context, docs files.Files, dir string, s *config.Settings, opts ...Option) error {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if dir == "" {
		dir = s.Destination()
	} else {
		dir = s.Path(dir)
	}

	start := time.Now()
	if s.Clean() {
		if err := clean(dir, s); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &WriteError{Path: dir, Op: OpMkdir, Err: err}
	}

	g, gctx := errgroup.WithContext(ctx)
	if n := s.Concurrency(); n > 0 {
		g.SetLimit(n)
	}
	for rel, f := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			target, err := targetPath(dir, rel)
			if err != nil {
				return err
			}
			return writeFile(target, f)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	o.logger.Debug("Wrote destination directory",
		logfields.Path(dir),
		logfields.Files(len(docs)),
		logfields.Concurrency(s.Concurrency()),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return nil
}

// targetPath joins the model key rel under dir. Keys that climb out of dir
// are rejected rather than rewritten.
func targetPath(dir, rel string) (string, error) {
	target := filepath.Join(dir, filepath.FromSlash(strings.ReplaceAll(rel, "\\", "/")))
	if target == filepath.Clean(dir) || !isWithin(target, dir) {
		return "", &WriteError{Path: rel, Op: OpWrite, Err: ErrOutsideDestination}
	}
	return filepath.Join(dir, filepath.FromSlash(files.NormalizePath(rel))), nil
}

func writeFile(target string, f *files.File) error {
	if f == nil {
		f = &files.File{}
	}
	mode, err := f.WriteMode()
	if err != nil {
		return &WriteError{Path: target, Op: OpMode, Err: err}
	}
	// Concurrent tasks may create the same parents; MkdirAll tolerates that.
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return &WriteError{Path: target, Op: OpMkdir, Err: err}
	}
	if err := os.WriteFile(target, f.Contents, mode.Perm()); err != nil {
		return &WriteError{Path: target, Op: OpWrite, Err: err}
	}
	// WriteFile's mode is filtered by the umask and ignored for existing files.
	if err := os.Chmod(target, mode); err != nil {
		return &WriteError{Path: target, Op: OpChmod, Err: err}
	}
	return nil
}

func clean(dir string, s *config.Settings) error {
	if isWithin(s.Directory(), dir) || isWithin(s.Source(), dir) {
		return &WriteError{Path: dir, Op: OpClean, Err: ErrUnsafeClean}
	}
	if err := os.RemoveAll(dir); err != nil {
		return &WriteError{Path: dir, Op: OpClean, Err: err}
	}
	return nil
}

// isWithin reports whether target equals dir or lies below it.
func isWithin(target, dir string) bool {
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
