package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID     = "build_id"
	KeyStage       = "stage"
	KeyPlugin      = "plugin"
	KeyStep        = "step"
	KeyPath        = "path"
	KeyFiles       = "files"
	KeyConcurrency = "concurrency"
	KeyDurationMS  = "duration_ms"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Plugin(name string) slog.Attr    { return slog.String(KeyPlugin, name) }
func Step(n int) slog.Attr            { return slog.Int(KeyStep, n) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Files(n int) slog.Attr           { return slog.Int(KeyFiles, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

// Concurrency renders the limit, with 0 reported as "unbounded".
func Concurrency(n int) slog.Attr {
	if n <= 0 {
		return slog.String(KeyConcurrency, "unbounded")
	}
	return slog.Int(KeyConcurrency, n)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
