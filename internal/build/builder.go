package build

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docsmith/internal/config"
	"git.home.luguber.info/inful/docsmith/internal/eventstore"
	"git.home.luguber.info/inful/docsmith/internal/files"
	"git.home.luguber.info/inful/docsmith/internal/logfields"
	"git.home.luguber.info/inful/docsmith/internal/metrics"
	"git.home.luguber.info/inful/docsmith/internal/pipeline"
	"git.home.luguber.info/inful/docsmith/internal/reader"
	"git.home.luguber.info/inful/docsmith/internal/writer"
)

const (
	modeBuild   = "build"
	modeProcess = "process"
)

// Builder holds one configuration and its ordered plugin list.
type Builder struct {
	settings    *config.Settings
	plugins     []pipeline.Plugin
	logger      *slog.Logger
	recorder    metrics.Recorder
	store       eventstore.Store
	stepTimeout time.Duration
	newID       func() string
}

// New creates a Builder for s with no plugins, a NoopRecorder and no
// history store.
func New(s *config.Settings) *Builder {
	return &Builder{
		settings: s,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
		newID:    uuid.NewString,
	}
}

// WithLogger sets the logger for all stages.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	if l != nil {
		b.logger = l
	}
	return b
}

// WithRecorder sets the metrics recorder.
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	if r != nil {
		b.recorder = r
	}
	return b
}

// WithEventStore enables build history. Store failures are logged and never
// fail a build.
func (b *Builder) WithEventStore(s eventstore.Store) *Builder {
	b.store = s
	return b
}

// WithStepTimeout bounds each plugin step. Zero disables the bound.
func (b *Builder) WithStepTimeout(d time.Duration) *Builder {
	b.stepTimeout = d
	return b
}

// WithIDGenerator replaces the build ID source (for testing).
func (b *Builder) WithIDGenerator(fn func() string) *Builder {
	if fn != nil {
		b.newID = fn
	}
	return b
}

// Settings returns the builder's configuration.
func (b *Builder) Settings() *config.Settings { return b.settings }

// Use appends plugins to the pipeline in order.
func (b *Builder) Use(plugins ...pipeline.Plugin) *Builder {
	b.plugins = append(b.plugins, plugins...)
	return b
}

// UseFunc appends any function shape pipeline.From accepts.
func (b *Builder) UseFunc(name string, fn any) error {
	p, err := pipeline.From(name, fn)
	if err != nil {
		return err
	}
	b.Use(p)
	return nil
}

// Plugins returns a copy of the registered plugins.
func (b *Builder) Plugins() []pipeline.Plugin { return slices.Clone(b.plugins) }

// Read loads dir into a new file model. An empty dir reads the source
// directory.
func (b *Builder) Read(ctx context.Context, dir string) (files.Files, error) {
	return reader.Read(ctx, dir, b.settings, reader.WithLogger(b.logger))
}

// Run applies plugins to docs. Calling it without a plugin argument runs the
// registered plugins; passing an empty non-nil slice (plugins...) runs none.
func (b *Builder) Run(ctx context.Context, docs files.Files, plugins ...pipeline.Plugin) (files.Files, error) {
	if plugins == nil {
		plugins = b.plugins
	}
	return b.run(ctx, b.newID(), docs, plugins)
}

// Write stores docs under dir, or the destination directory when dir is empty.
func (b *Builder) Write(ctx context.Context, docs files.Files, dir string) error {
	return writer.Write(ctx, docs, dir, b.settings, writer.WithLogger(b.logger))
}

// Process reads the source directory and runs the pipeline without writing.
func (b *Builder) Process(ctx context.Context) (files.Files, error) {
	return b.execute(ctx, modeProcess)
}

// Build reads, runs the pipeline and writes the destination directory.
func (b *Builder) Build(ctx context.Context) (files.Files, error) {
	return b.execute(ctx, modeBuild)
}

func (b *Builder) run(ctx context.Context, buildID string, docs files.Files, plugins []pipeline.Plugin) (files.Files, error) {
	logger := b.logger.With(logfields.BuildID(buildID))
	runner := pipeline.NewRunner(
		pipeline.WithLogger(logger),
		pipeline.WithRecorder(b.recorder),
		pipeline.WithStepTimeout(b.stepTimeout),
	)
	return runner.Run(ctx, docs, plugins, pipeline.NewRunContext(b.settings, buildID, logger))
}

func (b *Builder) execute(ctx context.Context, mode string) (files.Files, error) {
	t := &trace{
		b:       b,
		id:      b.newID(),
		started: time.Now(),
	}
	t.logger = b.logger.With(logfields.BuildID(t.id))
	t.begin(ctx, mode)

	var docs files.Files
	err := t.stage(ctx, metrics.StageRead, func() (int, error) {
		var err error
		docs, err = reader.Read(ctx, "", b.settings, reader.WithLogger(t.logger))
		return len(docs), err
	})
	if err == nil {
		err = t.stage(ctx, metrics.StageRun, func() (int, error) {
			var err error
			docs, err = b.run(ctx, t.id, docs, b.plugins)
			return len(docs), err
		})
	}
	if err == nil && mode == modeBuild {
		err = t.stage(ctx, metrics.StageWrite, func() (int, error) {
			return len(docs), writer.Write(ctx, docs, "", b.settings, writer.WithLogger(t.logger))
		})
	}

	t.end(ctx, mode, len(docs), err)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// trace carries the per-call observability state.
type trace struct {
	b         *Builder
	id        string
	started   time.Time
	logger    *slog.Logger
	lastStage string
}

func (t *trace) begin(ctx context.Context, mode string) {
	s := t.b.settings
	meta := eventstore.BuildStartedMeta{
		Mode:        mode,
		Source:      s.Source(),
		Concurrency: s.Concurrency(),
	}
	if mode == modeBuild {
		meta.Destination = s.Destination()
	}
	for i, p := range t.b.plugins {
		name := p.Name()
		if name == "" {
			name = "#" + strconv.Itoa(i)
		}
		meta.Plugins = append(meta.Plugins, name)
	}
	t.b.recorder.SetConcurrency(s.Concurrency())
	t.logger.Info("Build started",
		slog.String("mode", mode),
		logfields.Path(s.Source()),
		logfields.Concurrency(s.Concurrency()))
	t.record(ctx, func() (eventstore.Event, error) { return eventstore.NewBuildStarted(t.id, meta) })
}

func (t *trace) stage(ctx context.Context, name string, fn func() (int, error)) error {
	t.lastStage = name
	start := time.Now()
	n, err := fn()
	elapsed := time.Since(start)

	rec := t.b.recorder
	rec.ObserveStageDuration(name, elapsed)
	rec.IncStageResult(name, metrics.ResultFor(err, isCanceled(err)))
	if err != nil {
		return err
	}
	if name != metrics.StageRun {
		rec.AddFiles(name, n)
	}
	t.logger.Debug("Stage completed",
		logfields.Stage(name),
		logfields.Files(n),
		logfields.DurationMS(float64(elapsed.Milliseconds())))
	t.record(ctx, func() (eventstore.Event, error) { return eventstore.NewStageCompleted(t.id, name, n, elapsed) })
	return nil
}

func (t *trace) end(ctx context.Context, mode string, n int, err error) {
	elapsed := time.Since(t.started)
	t.b.recorder.ObserveBuildDuration(elapsed)

	if err != nil {
		outcome := metrics.BuildOutcomeFailed
		if isCanceled(err) {
			outcome = metrics.BuildOutcomeCanceled
		}
		t.b.recorder.IncBuildOutcome(outcome)
		t.logger.Error("Build failed",
			slog.String("mode", mode),
			logfields.Stage(t.lastStage),
			logfields.Error(err))
		// Record the failure even when ctx is what ended the build.
		t.record(context.WithoutCancel(ctx), func() (eventstore.Event, error) {
			return eventstore.NewBuildFailed(t.id, t.lastStage, err.Error())
		})
		return
	}

	t.b.recorder.IncBuildOutcome(metrics.BuildOutcomeSuccess)
	t.logger.Info("Build completed",
		slog.String("mode", mode),
		logfields.Files(n),
		logfields.DurationMS(float64(elapsed.Milliseconds())))
	t.record(ctx, func() (eventstore.Event, error) { return eventstore.NewBuildCompleted(t.id, n, elapsed) })
}

func (t *trace) record(ctx context.Context, build func() (eventstore.Event, error)) {
	if t.b.store == nil {
		return
	}
	e, err := build()
	if err == nil {
		err = eventstore.Record(ctx, t.b.store, e)
	}
	if err != nil {
		t.logger.Warn("Failed to record build event", logfields.Error(err))
	}
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
