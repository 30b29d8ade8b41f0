package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	dberrors "git.home.luguber.info/inful/docsmith/internal/foundation/errors"
)

// DefaultFileName is the configuration file looked up in the working directory.
const DefaultFileName = "docsmith.yaml"

// File is the on-disk docsmith.yaml configuration.
type File struct {
	Source      string         `yaml:"source,omitempty"`
	Destination string         `yaml:"destination,omitempty"`
	Concurrency *int           `yaml:"concurrency,omitempty"`
	Clean       *bool          `yaml:"clean,omitempty"`
	Frontmatter *bool          `yaml:"frontmatter,omitempty"`
	Ignore      []string       `yaml:"ignore,omitempty"`
	Metadata    map[string]any `yaml:"metadata,omitempty"`
	Plugins     []PluginSpec   `yaml:"plugins,omitempty"`
}

// PluginSpec names a registered plugin and its options. In YAML it can be
// written as a bare name, as {name: x, options: {...}}, or as {x: {...}}.
type PluginSpec struct {
	Name    string         `yaml:"name"`
	Options map[string]any `yaml:"options,omitempty"`
}

// UnmarshalYAML accepts the three plugin spellings.
func (p *PluginSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		p.Name = node.Value
		return nil
	case yaml.MappingNode:
		if hasKey(node, "name") {
			type plain PluginSpec
			return node.Decode((*plain)(p))
		}
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: plugin entry must name exactly one plugin", node.Line)
		}
		p.Name = node.Content[0].Value
		if opts := node.Content[1]; opts.Tag != "!!null" {
			return opts.Decode(&p.Options)
		}
		return nil
	default:
		return fmt.Errorf("line %d: plugin entry must be a name or a mapping", node.Line)
	}
}

func hasKey(node *yaml.Node, key string) bool {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return true
		}
	}
	return false
}

// Load reads the configuration file at path. Variables from a .env file next
// to it are loaded first (existing environment wins) and ${VAR} references
// in the file are expanded.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, dberrors.ConfigError(fmt.Sprintf("could not find a %s configuration file.", filepath.Base(path))).
			WithContext("path", path).
			Build()
	}
	if err != nil {
		return nil, dberrors.WrapError(err, dberrors.CategoryConfig, "read configuration file").
			Fatal().
			WithContext("path", path).
			Build()
	}

	if err := loadEnvFile(filepath.Dir(path)); err != nil {
		return nil, err
	}

	return Parse(bytes.NewReader([]byte(os.ExpandEnv(string(data)))))
}

// Parse decodes and validates a configuration document.
func Parse(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, dberrors.WrapError(err, dberrors.CategoryConfig, "invalid configuration").
			Fatal().
			UserAction().
			Build()
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks values that the YAML types alone cannot rule out.
func (f *File) Validate() error {
	if f.Concurrency != nil && *f.Concurrency < 0 {
		return dberrors.ConfigError("concurrency must be a positive number or unbounded").
			WithContext("concurrency", *f.Concurrency).
			Build()
	}
	for i, p := range f.Plugins {
		if p.Name == "" {
			return dberrors.ConfigError("plugin name must not be empty").
				WithContext("index", i).
				Build()
		}
	}
	return nil
}

// Settings converts the file into Settings rooted at dir, applying extra
// options last.
func (f *File) Settings(dir string, extra ...Option) (*Settings, error) {
	var opts []Option
	if f.Source != "" {
		opts = append(opts, WithSource(f.Source))
	}
	if f.Destination != "" {
		opts = append(opts, WithDestination(f.Destination))
	}
	if f.Concurrency != nil {
		opts = append(opts, WithConcurrency(*f.Concurrency))
	}
	if f.Clean != nil {
		opts = append(opts, WithClean(*f.Clean))
	}
	if f.Frontmatter != nil {
		opts = append(opts, WithFrontmatter(*f.Frontmatter))
	}
	if len(f.Ignore) > 0 {
		opts = append(opts, WithIgnorePatterns(f.Ignore...))
	}
	if f.Metadata != nil {
		opts = append(opts, WithMetadata(f.Metadata))
	}
	return New(dir, append(opts, extra...)...)
}

func loadEnvFile(dir string) error {
	for _, name := range []string{".env", ".env.local"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return dberrors.WrapError(err, dberrors.CategoryConfig, "load environment file").
				Fatal().
				WithContext("path", p).
				Build()
		}
	}
	return nil
}
