package frontmatter

import (
	"errors"
	"fmt"

	dberrors "git.home.luguber.info/inful/docsmith/internal/foundation/errors"
)

// Parser turns raw file bytes into a metadata mapping plus the remaining body.
// Implementations must be pure and safe for concurrent use.
type Parser interface {
	Parse(content []byte) (map[string]any, []byte, error)
}

// ParserFunc adapts a plain function to Parser.
type ParserFunc func(content []byte) (map[string]any, []byte, error)

// Parse calls f(content).
func (f ParserFunc) Parse(content []byte) (map[string]any, []byte, error) {
	return f(content)
}

// YAMLParser is the default Parser: a `---` fenced YAML block at the very
// start of the content.
type YAMLParser struct{}

// Parse implements Parser using Split and ParseYAML.
func (YAMLParser) Parse(content []byte) (map[string]any, []byte, error) {
	return Parse(content)
}

// Parse extracts a leading YAML block. Without one it returns an empty map and
// content unchanged. An opening fence that is never closed is not a block:
// Markdown bodies may start with a `---` thematic break.
func Parse(content []byte) (map[string]any, []byte, error) {
	fm, body, had, _, err := Split(content)
	if errors.Is(err, ErrMissingClosingDelimiter) {
		return map[string]any{}, content, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if !had {
		return map[string]any{}, content, nil
	}

	fields, err := ParseYAML(fm)
	if err != nil {
		return nil, nil, err
	}
	return fields, body, nil
}

// ParseError reports a malformed metadata block in the file at Path.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid frontmatter in %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Category classifies parse failures as read failures.
func (e *ParseError) Category() dberrors.ErrorCategory { return dberrors.CategoryRead }
