// Package errors provides the classified error primitives shared across docsmith.
//
// Every failure the engine surfaces carries a broad ErrorCategory so that the
// CLI can choose an exit code and log level without knowing which stage
// produced it.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, read, plugin, write, ...)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - RetryStrategy: Retry hint; the pipeline itself never retries
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLIErrorAdapter: exit code and message presentation
//
// Example usage:
//
//	err := errors.ConfigError("You must pass a source path").
//		WithContext("option", "source").
//		Build()
package errors
