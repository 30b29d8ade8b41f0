// Package metrics records build and stage observations for docsmith.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so callers never need nil checks:
//
//	b := build.New(settings) // NoopRecorder
//	b = build.New(settings, build.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// The CLI gathers the registry into a node-exporter textfile after each build
// when --metrics-file is set (see WriteTextfile).
package metrics
