package plugins

import (
	"bytes"
	"context"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/docsmith/internal/files"
	"git.home.luguber.info/inful/docsmith/internal/pipeline"
)

// MarkdownName is the registry name of the Markdown renderer.
const MarkdownName = "markdown"

type markdownOptions struct {
	Pattern string `yaml:"pattern"`
	Unsafe  bool   `yaml:"unsafe"`
	GFM     *bool  `yaml:"gfm"`
}

// NewMarkdown renders Markdown files to HTML and renames them from .md (or
// .markdown) to .html. Metadata and mode carry over.
//
// Options: pattern (glob, default "**/*.{md,markdown}"), unsafe (allow raw
// HTML, default false), gfm (GitHub extensions, default true).
func NewMarkdown(opts map[string]any) (pipeline.Plugin, error) {
	o := markdownOptions{Pattern: "**/*.{md,markdown}"}
	if err := decodeOptions(opts, &o); err != nil {
		return pipeline.Plugin{}, err
	}
	if err := validatePattern(o.Pattern); err != nil {
		return pipeline.Plugin{}, err
	}

	var gmOpts []goldmark.Option
	if o.GFM == nil || *o.GFM {
		gmOpts = append(gmOpts, goldmark.WithExtensions(extension.GFM))
	}
	if o.Unsafe {
		gmOpts = append(gmOpts, goldmark.WithRendererOptions(html.WithUnsafe()))
	}
	md := goldmark.New(gmOpts...)

	return pipeline.Sync(MarkdownName, func(ctx context.Context, docs files.Files, _ *pipeline.RunContext) error {
		for _, p := range docs.Paths() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if ok, _ := doublestar.Match(o.Pattern, p); !ok {
				continue
			}
			f := docs[p]
			if f == nil {
				continue
			}
			var buf bytes.Buffer
			if err := md.Convert(f.Contents, &buf); err != nil {
				return err
			}
			f.Contents = buf.Bytes()
			docs.Rename(p, htmlPath(p))
		}
		return nil
	}), nil
}

func htmlPath(p string) string {
	return strings.TrimSuffix(p, path.Ext(p)) + ".html"
}
