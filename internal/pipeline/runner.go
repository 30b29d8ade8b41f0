package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"git.home.luguber.info/inful/docsmith/internal/files"
	dberrors "git.home.luguber.info/inful/docsmith/internal/foundation/errors"
	"git.home.luguber.info/inful/docsmith/internal/logfields"
	"git.home.luguber.info/inful/docsmith/internal/metrics"
)

// ErrStepTimeout is reported when an async plugin does not resolve within
// the configured step timeout.
var ErrStepTimeout = errors.New("plugin did not complete before the step timeout")

// PluginError reports the step that failed. Step is zero-based.
type PluginError struct {
	Step int
	Name string
	Err  error
}

func (e *PluginError) Error() string {
	return fmt.Sprintf("plugin %s (step %d) failed: %v", e.Name, e.Step, e.Err)
}

func (e *PluginError) Unwrap() error { return e.Err }

// Category implements dberrors.Categorized.
func (e *PluginError) Category() dberrors.ErrorCategory { return dberrors.CategoryPlugin }

// Runner executes plugins strictly in order.
type Runner struct {
	logger      *slog.Logger
	recorder    metrics.Recorder
	stepTimeout time.Duration
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the runner's logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder for per-step durations.
func WithRecorder(rec metrics.Recorder) RunnerOption {
	return func(r *Runner) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// WithStepTimeout bounds how long a single step may take. Zero disables the
// bound, in which case an async plugin that never resolves blocks until ctx
// is canceled.
func WithStepTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) { r.stepTimeout = d }
}

// NewRunner returns a Runner with the given options applied.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{logger: slog.Default(), recorder: metrics.NoopRecorder{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run applies plugins to docs in order and returns the same model, mutated in
// place. It stops at the first failure; later plugins never start.
func (r *Runner) Run(ctx context.Context, docs files.Files, plugins []Plugin, rc *RunContext) (files.Files, error) {
	if rc == nil || rc.settings == nil {
		return nil, dberrors.InternalError("pipeline run requires a run context with settings").Build()
	}
	if docs == nil {
		docs = files.New()
	}
	for i, p := range plugins {
		if err := ctx.Err(); err != nil {
			return nil, &PluginError{Step: i, Name: p.label(i), Err: err}
		}
		if !p.Valid() {
			return nil, &PluginError{Step: i, Name: p.label(i), Err: errors.New("plugin has no function")}
		}

		logger := r.logger.With(logfields.Step(i), logfields.Plugin(p.label(i)))
		start := time.Now()
		err := r.step(ctx, i, p, docs, rc.forStep(logger), logger)
		elapsed := time.Since(start)
		r.recorder.ObservePluginDuration(p.label(i), elapsed, err == nil)

		if err != nil {
			logger.Debug("Plugin failed", logfields.Error(err), logfields.DurationMS(float64(elapsed.Milliseconds())))
			return nil, &PluginError{Step: i, Name: p.label(i), Err: err}
		}
		logger.Debug("Plugin completed", logfields.Files(len(docs)), logfields.DurationMS(float64(elapsed.Milliseconds())))
	}
	return docs, nil
}

func (r *Runner) step(ctx context.Context, i int, p Plugin, docs files.Files, rc *RunContext, logger *slog.Logger) error {
	stepCtx := ctx
	if r.stepTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeoutCause(ctx, r.stepTimeout, ErrStepTimeout)
		defer cancel()
	}

	if p.kind == KindSync {
		return callSync(stepCtx, p.sync, docs, rc)
	}

	done := newCompletion(p.label(i), logger)
	if err := callAsync(stepCtx, p.async, docs, rc, done); err != nil {
		// A panic before resolution fails the step; a later Resolve is a no-op.
		done.Resolve(err)
	}

	select {
	case <-done.Wait():
		return done.Err()
	case <-stepCtx.Done():
		return context.Cause(stepCtx)
	}
}

func callSync(ctx context.Context, fn SyncFunc, docs files.Files, rc *RunContext) (err error) {
	defer recoverPanic(&err)
	return fn(ctx, docs, rc)
}

func callAsync(ctx context.Context, fn AsyncFunc, docs files.Files, rc *RunContext, done *Completion) (err error) {
	defer recoverPanic(&err)
	fn(ctx, docs, rc, done)
	return nil
}

func recoverPanic(err *error) {
	if v := recover(); v != nil {
		*err = dberrors.NewError(dberrors.CategoryPlugin, fmt.Sprintf("plugin panicked: %v", v)).
			Fatal().
			WithContext("stack", string(debug.Stack())).
			Build()
	}
}
