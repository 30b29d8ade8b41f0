// Package version carries build metadata injected at link time.
package version

// Version is set with
// go build -ldflags "-X git.home.luguber.info/inful/docsmith/internal/version.Version=v1.0.0".
var Version = "unknown"

// Build metadata, also set via ldflags.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by --version.
func String() string {
	return Version + " (commit " + GitCommit + ", built " + BuildTime + ")"
}
