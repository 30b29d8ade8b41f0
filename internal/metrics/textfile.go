package metrics

import (
	prom "github.com/prometheus/client_golang/prometheus"

	dberrors "git.home.luguber.info/inful/docsmith/internal/foundation/errors"
)

// WriteTextfile gathers g and writes it atomically to path in the Prometheus
// text exposition format.
func WriteTextfile(path string, g prom.Gatherer) error {
	if err := prom.WriteToTextfile(path, g); err != nil {
		return dberrors.WrapError(err, dberrors.CategoryFileSystem, "write metrics textfile").
			WithContext("path", path).
			Build()
	}
	return nil
}
