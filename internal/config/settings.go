// Package config holds the immutable build Settings and the docsmith.yaml loader.
package config

import (
	"path/filepath"
	"slices"

	dberrors "git.home.luguber.info/inful/docsmith/internal/foundation/errors"
	"git.home.luguber.info/inful/docsmith/internal/frontmatter"
	"git.home.luguber.info/inful/docsmith/internal/ignore"
)

const (
	// DefaultSource is the source directory relative to the working directory.
	DefaultSource = "src"
	// DefaultDestination is the destination directory relative to the working directory.
	DefaultDestination = "build"
	// Unbounded disables the per-stage concurrency limit.
	Unbounded = 0
)

// Settings is the read-only configuration of one build. Construct it with New
// and derive variants with With; a Settings value is never mutated after
// construction.
type Settings struct {
	directory   string
	source      string
	destination string
	concurrency int
	clean       bool
	frontmatter bool
	parser      frontmatter.Parser
	ignores     []ignore.Rule
	metadata    map[string]any
}

// Option configures Settings. Options validate their input and fail with a
// config-category error.
type Option func(*Settings) error

// New returns Settings rooted at the working directory dir.
func New(dir string, opts ...Option) (*Settings, error) {
	s := &Settings{
		source:      DefaultSource,
		destination: DefaultDestination,
		concurrency: Unbounded,
		clean:       true,
		frontmatter: true,
		parser:      frontmatter.YAMLParser{},
		metadata:    map[string]any{},
	}
	if err := WithDirectory(dir)(s); err != nil {
		return nil, err
	}
	return s.apply(opts)
}

// With returns a copy of s with opts applied. s itself is left untouched.
func (s *Settings) With(opts ...Option) (*Settings, error) {
	clone := *s
	clone.ignores = slices.Clone(s.ignores)
	clone.metadata = cloneMap(s.metadata)
	return clone.apply(opts)
}

func (s *Settings) apply(opts []Option) (*Settings, error) {
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// WithDirectory replaces the working directory.
func WithDirectory(dir string) Option {
	return func(s *Settings) error {
		if dir == "" {
			return dberrors.ConfigError("You must pass a working directory path.").Build()
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return dberrors.WrapError(err, dberrors.CategoryConfig, "resolve working directory").
				Fatal().
				WithContext("directory", dir).
				Build()
		}
		s.directory = abs
		return nil
	}
}

// WithSource sets the source directory, relative to the working directory
// unless absolute.
func WithSource(dir string) Option {
	return func(s *Settings) error {
		if dir == "" {
			return dberrors.ConfigError("You must pass a source path.").Build()
		}
		s.source = dir
		return nil
	}
}

// WithDestination sets the destination directory, relative to the working
// directory unless absolute.
func WithDestination(dir string) Option {
	return func(s *Settings) error {
		if dir == "" {
			return dberrors.ConfigError("You must pass a destination path.").Build()
		}
		s.destination = dir
		return nil
	}
}

// WithConcurrency limits simultaneous reads and writes per stage. Unbounded
// (0) removes the limit.
func WithConcurrency(n int) Option {
	return func(s *Settings) error {
		if n < 0 {
			return dberrors.ConfigError("concurrency must be a positive number or unbounded").
				WithContext("concurrency", n).
				Build()
		}
		s.concurrency = n
		return nil
	}
}

// WithClean controls removal of the destination before writing.
func WithClean(clean bool) Option {
	return func(s *Settings) error {
		s.clean = clean
		return nil
	}
}

// WithFrontmatter controls frontmatter parsing while reading.
func WithFrontmatter(enabled bool) Option {
	return func(s *Settings) error {
		s.frontmatter = enabled
		return nil
	}
}

// WithFrontmatterParser replaces the default YAML frontmatter parser.
func WithFrontmatterParser(p frontmatter.Parser) Option {
	return func(s *Settings) error {
		if p == nil {
			return dberrors.ConfigError("frontmatter parser must not be nil").Build()
		}
		s.parser = p
		return nil
	}
}

// WithIgnore appends ignore rules.
func WithIgnore(rules ...ignore.Rule) Option {
	return func(s *Settings) error {
		s.ignores = append(s.ignores, rules...)
		return nil
	}
}

// WithIgnorePatterns appends glob ignore rules.
func WithIgnorePatterns(patterns ...string) Option {
	return func(s *Settings) error {
		for _, p := range patterns {
			r, err := ignore.Glob(p)
			if err != nil {
				return err
			}
			s.ignores = append(s.ignores, r)
		}
		return nil
	}
}

// WithIgnoreFunc appends a predicate ignore rule.
func WithIgnoreFunc(pred ignore.Predicate) Option {
	return func(s *Settings) error {
		r, err := ignore.Func(pred)
		if err != nil {
			return err
		}
		s.ignores = append(s.ignores, r)
		return nil
	}
}

// WithMetadata replaces the global metadata with a copy of m.
func WithMetadata(m map[string]any) Option {
	return func(s *Settings) error {
		if m == nil {
			return dberrors.ConfigError("You must pass a metadata object.").Build()
		}
		s.metadata = cloneMap(m)
		return nil
	}
}

// Directory returns the absolute working directory.
func (s *Settings) Directory() string { return s.directory }

// Source returns the absolute source directory.
func (s *Settings) Source() string { return s.Path(s.source) }

// Destination returns the absolute destination directory.
func (s *Settings) Destination() string { return s.Path(s.destination) }

// Concurrency returns the per-stage limit; Unbounded means no limit.
func (s *Settings) Concurrency() int { return s.concurrency }

// Clean reports whether the destination is removed before writing.
func (s *Settings) Clean() bool { return s.clean }

// Frontmatter reports whether frontmatter is parsed while reading.
func (s *Settings) Frontmatter() bool { return s.frontmatter }

// Parser returns the frontmatter parser.
func (s *Settings) Parser() frontmatter.Parser { return s.parser }

// Ignores returns a copy of the ignore rules in registration order.
func (s *Settings) Ignores() []ignore.Rule { return slices.Clone(s.ignores) }

// Matcher returns a matcher over the ignore rules.
func (s *Settings) Matcher() *ignore.Matcher { return ignore.NewMatcher(s.ignores...) }

// Metadata returns a copy of the global metadata.
func (s *Settings) Metadata() map[string]any { return cloneMap(s.metadata) }

// Path joins segments onto the working directory. An absolute result is
// returned as is.
func (s *Settings) Path(segments ...string) string {
	p := filepath.Join(segments...)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.directory, p)
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		return cloneMap(vv)
	case []any:
		out := make([]any, len(vv))
		for i, item := range vv {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
