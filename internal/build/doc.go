// Package build orchestrates a docsmith build: read the source directory,
// run the plugin pipeline, then write the result.
//
// All execution paths (CLI build, process and watch) route through Builder.
// Stages run strictly in order and the first stage failure ends the build;
// later stages never start. Every Build and Process call gets its own build
// ID, which tags log lines, metrics and history events.
package build
