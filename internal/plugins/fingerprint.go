package plugins

import (
	"context"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/docsmith/internal/files"
	"git.home.luguber.info/inful/docsmith/internal/frontmatter"
	"git.home.luguber.info/inful/docsmith/internal/pipeline"
)

// FingerprintName is the registry name of the content fingerprint plugin.
const FingerprintName = "fingerprint"

// Metadata keys left out of the fingerprint input.
var fingerprintExcluded = []string{mdfp.FingerprintField, "lastmod", "uid", "aliases"}

type fingerprintOptions struct {
	Pattern string `yaml:"pattern"`
	Field   string `yaml:"field"`
}

// NewFingerprint stores a content fingerprint of each matching file's
// metadata and body under a metadata key.
//
// Options: pattern (glob, default "**"), field (default "fingerprint").
func NewFingerprint(opts map[string]any) (pipeline.Plugin, error) {
	o := fingerprintOptions{Pattern: "**", Field: mdfp.FingerprintField}
	if err := decodeOptions(opts, &o); err != nil {
		return pipeline.Plugin{}, err
	}
	if err := validatePattern(o.Pattern); err != nil {
		return pipeline.Plugin{}, err
	}

	return pipeline.Sync(FingerprintName, func(ctx context.Context, docs files.Files, _ *pipeline.RunContext) error {
		for p, f := range docs {
			if err := ctx.Err(); err != nil {
				return err
			}
			if f == nil {
				continue
			}
			if ok, _ := doublestar.Match(o.Pattern, p); !ok {
				continue
			}
			fp, err := Fingerprint(f.Metadata, f.Contents, o.Field)
			if err != nil {
				return err
			}
			f.Set(o.Field, fp)
		}
		return nil
	}), nil
}

// Fingerprint computes the canonical fingerprint of metadata and body. The
// field itself and volatile keys are excluded.
func Fingerprint(metadata map[string]any, body []byte, field string) (string, error) {
	forHash := make(map[string]any, len(metadata))
	for k, v := range metadata {
		if k == field || slices.Contains(fingerprintExcluded, k) {
			continue
		}
		forHash[k] = v
	}

	fm := ""
	if len(forHash) > 0 {
		serialized, err := frontmatter.SerializeYAML(forHash, frontmatter.Style{Newline: "\n"})
		if err != nil {
			return "", err
		}
		fm = strings.TrimSuffix(string(serialized), "\n")
	}
	return mdfp.CalculateFingerprintFromParts(fm, string(body)), nil
}
