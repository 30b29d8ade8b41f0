package plugins

import (
	"context"
	"strings"

	"git.home.luguber.info/inful/docsmith/internal/files"
	"git.home.luguber.info/inful/docsmith/internal/logfields"
	"git.home.luguber.info/inful/docsmith/internal/pipeline"
)

// DraftsName is the registry name of the draft filter.
const DraftsName = "drafts"

type draftsOptions struct {
	Include bool `yaml:"include"`
}

// NewDrafts removes files whose "draft" metadata is true.
//
// Options: include (keep drafts, default false).
func NewDrafts(opts map[string]any) (pipeline.Plugin, error) {
	var o draftsOptions
	if err := decodeOptions(opts, &o); err != nil {
		return pipeline.Plugin{}, err
	}

	return pipeline.Sync(DraftsName, func(_ context.Context, docs files.Files, rc *pipeline.RunContext) error {
		if o.Include {
			return nil
		}
		for p, f := range docs {
			if isDraft(f) {
				delete(docs, p)
				rc.Logger.Debug("Dropped draft", logfields.Path(p))
			}
		}
		return nil
	}), nil
}

func isDraft(f *files.File) bool {
	v, _ := f.Get("draft")
	switch d := v.(type) {
	case bool:
		return d
	case string:
		return strings.EqualFold(strings.TrimSpace(d), "true")
	default:
		return false
	}
}
