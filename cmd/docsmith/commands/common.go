// Package commands implements the docsmith command line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docsmith/internal/build"
	"git.home.luguber.info/inful/docsmith/internal/config"
	"git.home.luguber.info/inful/docsmith/internal/eventstore"
	dberrors "git.home.luguber.info/inful/docsmith/internal/foundation/errors"
	"git.home.luguber.info/inful/docsmith/internal/logfields"
	"git.home.luguber.info/inful/docsmith/internal/metrics"
	"git.home.luguber.info/inful/docsmith/internal/pipeline"
	"git.home.luguber.info/inful/docsmith/internal/plugins"
	"git.home.luguber.info/inful/docsmith/internal/version"
)

// Global is the state shared by every subcommand.
type Global struct {
	Context context.Context
	Logger  *slog.Logger
	Stdout  io.Writer
	Stderr  io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config      string           `short:"c" help:"Configuration file path" default:"docsmith.yaml" type:"path"`
	Verbose     bool             `short:"v" help:"Enable verbose logging"`
	HistoryDB   string           `name:"history-db" help:"SQLite database recording build history" type:"path"`
	MetricsFile string           `name:"metrics-file" help:"Write Prometheus metrics to this file after each build" type:"path"`
	Version     kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" default:"1" help:"Read the source directory, run the plugins and write the destination"`
	Process ProcessCmd `cmd:"" help:"Run the plugins and list the resulting files without writing"`
	Watch   WatchCmd   `cmd:"" help:"Build, then rebuild whenever the source directory changes"`
	History HistoryCmd `cmd:"" help:"List recorded builds"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = slog.New(slog.NewTextHandler(g.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(g.Logger)
	return nil
}

// Main parses args, runs the selected command and returns the exit code.
func Main(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	g := &Global{Context: ctx, Logger: slog.Default(), Stdout: stdout, Stderr: stderr}
	cli := &CLI{}
	exit := -1
	parser, err := kong.New(cli,
		kong.Name("docsmith"),
		kong.Description("Pluggable static file pipeline."),
		kong.Vars{"version": version.String()},
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { exit = code }),
		kong.Bind(g),
	)
	if err != nil {
		return dberrors.NewCLIErrorAdapter(false, g.Logger).HandleError(
			dberrors.WrapError(err, dberrors.CategoryInternal, "invalid command line definition").Build())
	}

	kctx, err := parser.Parse(args)
	if exit >= 0 {
		// --help and --version end here.
		return exit
	}
	if err != nil {
		return dberrors.NewCLIErrorAdapter(false, g.Logger).HandleError(
			dberrors.WrapError(err, dberrors.CategoryValidation, "invalid arguments").Build())
	}
	if err := kctx.Run(g, cli); err != nil {
		return dberrors.NewCLIErrorAdapter(cli.Verbose, g.Logger).HandleError(err)
	}
	return 0
}

// project is a loaded configuration ready to build.
type project struct {
	settings *config.Settings
	plugins  []pipeline.Plugin
}

// loadProject reads the configuration file. Its directory is the working
// directory for every relative path it names.
func (c *CLI) loadProject(extra ...config.Option) (*project, error) {
	file, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	s, err := file.Settings(filepath.Dir(c.Config), extra...)
	if err != nil {
		return nil, err
	}
	ps, err := plugins.Default().ResolveAll(file.Plugins)
	if err != nil {
		return nil, err
	}
	return &project{settings: s, plugins: ps}, nil
}

// session owns the optional history store and metrics registry of one
// command invocation.
type session struct {
	metricsFile string
	registry    *prom.Registry
	store       *eventstore.SQLiteStore
	logger      *slog.Logger
}

func (c *CLI) openSession(g *Global) (*session, error) {
	s := &session{metricsFile: c.MetricsFile, logger: g.Logger}
	if c.MetricsFile != "" {
		s.registry = prom.NewRegistry()
	}
	if c.HistoryDB != "" {
		store, err := eventstore.NewSQLiteStore(c.HistoryDB)
		if err != nil {
			return nil, err
		}
		s.store = store
	}
	return s, nil
}

// builder wires the session's recorder and store into a Builder for p.
func (s *session) builder(p *project) *build.Builder {
	b := build.New(p.settings).WithLogger(s.logger).Use(p.plugins...)
	if s.registry != nil {
		b.WithRecorder(metrics.NewPrometheusRecorder(s.registry))
	}
	if s.store != nil {
		b.WithEventStore(s.store)
	}
	return b
}

// flush writes the metrics file, if one was requested.
func (s *session) flush() {
	if s.registry == nil {
		return
	}
	if err := metrics.WriteTextfile(s.metricsFile, s.registry); err != nil {
		s.logger.Warn("Failed to write metrics file", logfields.Path(s.metricsFile), logfields.Error(err))
	}
}

func (s *session) close() {
	s.flush()
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn("Failed to close history database", logfields.Error(err))
		}
	}
}

// describe rewrites plugin failures into the message users see.
func describe(err error) error {
	var pe *pipeline.PluginError
	if errors.As(err, &pe) && pe.Name != "" {
		return fmt.Errorf("error using plugin %q: %w", pe.Name, err)
	}
	return err
}
