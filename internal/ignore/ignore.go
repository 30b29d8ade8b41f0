// Package ignore decides which source entries the reader skips.
package ignore

import (
	"io/fs"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	dberrors "git.home.luguber.info/inful/docsmith/internal/foundation/errors"
)

// Predicate reports whether the entry at relPath should be ignored.
// relPath uses forward slashes and is relative to the source directory.
type Predicate func(relPath string, info fs.FileInfo) bool

// Rule is either a glob pattern or a Predicate.
type Rule struct {
	pattern string
	pred    Predicate
}

// Glob returns a rule matching relative paths against pattern. Patterns
// without a slash also match an entry's base name at any depth, so "nested"
// ignores every directory or file called nested.
func Glob(pattern string) (Rule, error) {
	pattern = strings.TrimPrefix(strings.TrimSpace(pattern), "/")
	if pattern == "" {
		return Rule{}, dberrors.ConfigError("ignore pattern must not be empty").Build()
	}
	if !doublestar.ValidatePattern(pattern) {
		return Rule{}, dberrors.ConfigError("invalid ignore pattern").
			WithContext("pattern", pattern).
			Build()
	}
	return Rule{pattern: pattern}, nil
}

// MustGlob is Glob for patterns known to be valid; it panics otherwise.
func MustGlob(pattern string) Rule {
	r, err := Glob(pattern)
	if err != nil {
		panic(err)
	}
	return r
}

// Func returns a rule backed by pred.
func Func(pred Predicate) (Rule, error) {
	if pred == nil {
		return Rule{}, dberrors.ConfigError("ignore predicate must not be nil").Build()
	}
	return Rule{pred: pred}, nil
}

// String returns the glob pattern, or "<func>" for predicate rules.
func (r Rule) String() string {
	if r.pred != nil {
		return "<func>"
	}
	return r.pattern
}

// Match applies the rule to a single entry.
func (r Rule) Match(relPath string, info fs.FileInfo) bool {
	if r.pred != nil {
		return r.pred(relPath, info)
	}
	if r.pattern == "" {
		return false
	}
	if ok, _ := doublestar.Match(r.pattern, relPath); ok {
		return true
	}
	if !strings.Contains(r.pattern, "/") {
		ok, _ := doublestar.Match(r.pattern, path.Base(relPath))
		return ok
	}
	return false
}

// Matcher evaluates an ordered rule list.
type Matcher struct {
	rules []Rule
}

// NewMatcher returns a Matcher over a copy of rules.
func NewMatcher(rules ...Rule) *Matcher {
	return &Matcher{rules: append([]Rule(nil), rules...)}
}

// ShouldIgnore reports whether any rule matches. A directory that matches
// must not be descended into.
func (m *Matcher) ShouldIgnore(relPath string, info fs.FileInfo) bool {
	if m == nil {
		return false
	}
	for _, r := range m.rules {
		if r.Match(relPath, info) {
			return true
		}
	}
	return false
}

// Len returns the number of rules.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.rules)
}
