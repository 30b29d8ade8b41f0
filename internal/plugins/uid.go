package plugins

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/docsmith/internal/files"
	"git.home.luguber.info/inful/docsmith/internal/pipeline"
)

// UIDName is the registry name of the stable identifier plugin.
const UIDName = "uid"

type uidOptions struct {
	Pattern string `yaml:"pattern"`
	Alias   bool   `yaml:"alias"`
}

// NewUID gives every matching file a "uid" metadata key unless it already
// has one. With alias enabled it also adds "/_uid/<uid>/" to "aliases".
//
// Options: pattern (glob, default "**"), alias (default false).
func NewUID(opts map[string]any) (pipeline.Plugin, error) {
	o := uidOptions{Pattern: "**"}
	if err := decodeOptions(opts, &o); err != nil {
		return pipeline.Plugin{}, err
	}
	if err := validatePattern(o.Pattern); err != nil {
		return pipeline.Plugin{}, err
	}

	return pipeline.Sync(UIDName, func(_ context.Context, docs files.Files, _ *pipeline.RunContext) error {
		for p, f := range docs {
			if f == nil {
				continue
			}
			if ok, _ := doublestar.Match(o.Pattern, p); !ok {
				continue
			}
			id := ensureUID(f)
			if o.Alias {
				ensureAlias(f, id)
			}
		}
		return nil
	}), nil
}

func ensureUID(f *files.File) string {
	if v, ok := f.Get("uid"); ok {
		if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
			return s
		}
	}
	id := uuid.NewString()
	f.Set("uid", id)
	return id
}

func ensureAlias(f *files.File, id string) {
	expected := "/_uid/" + id + "/"

	var aliases []string
	switch v := f.Metadata["aliases"].(type) {
	case nil:
	case []string:
		aliases = slices.Clone(v)
	case []any:
		for _, item := range v {
			aliases = append(aliases, fmt.Sprint(item))
		}
	default:
		if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
			aliases = append(aliases, s)
		}
	}
	if !slices.Contains(aliases, expected) {
		aliases = append(aliases, expected)
	}
	f.Set("aliases", aliases)
}
