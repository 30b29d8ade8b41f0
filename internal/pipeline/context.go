package pipeline

import (
	"log/slog"

	"git.home.luguber.info/inful/docsmith/internal/config"
)

// RunContext gives plugins read access to the build's settings.
type RunContext struct {
	// BuildID uniquely identifies the build this run belongs to.
	BuildID string

	// Logger is scoped to the build and step.
	Logger *slog.Logger

	settings *config.Settings
}

// NewRunContext returns a RunContext over s.
func NewRunContext(s *config.Settings, buildID string, logger *slog.Logger) *RunContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunContext{BuildID: buildID, Logger: logger, settings: s}
}

// Settings returns the immutable build settings.
func (rc *RunContext) Settings() *config.Settings { return rc.settings }

// Path resolves segments against the working directory.
func (rc *RunContext) Path(segments ...string) string { return rc.settings.Path(segments...) }

// Metadata returns a copy of the global metadata.
func (rc *RunContext) Metadata() map[string]any { return rc.settings.Metadata() }

func (rc *RunContext) forStep(logger *slog.Logger) *RunContext {
	clone := *rc
	clone.Logger = logger
	return &clone
}
