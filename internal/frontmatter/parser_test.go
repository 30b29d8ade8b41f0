package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	dberrors "git.home.luguber.info/inful/docsmith/internal/foundation/errors"
)

func TestParse_WithBlock_ReturnsFieldsAndRemainder(t *testing.T) {
	fields, body, err := Parse([]byte("---\ntitle: A Title\n---\nbody"))
	require.NoError(t, err)
	require.Equal(t, map[string]any{"title": "A Title"}, fields)
	require.Equal(t, "body", string(body))
}

func TestParse_WithoutBlock_ReturnsContentUnchanged(t *testing.T) {
	input := []byte("body")
	fields, body, err := Parse(input)
	require.NoError(t, err)
	require.Empty(t, fields)
	require.Equal(t, input, body)
}

func TestParse_BinaryContent_Untouched(t *testing.T) {
	input := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0x00}
	fields, body, err := YAMLParser{}.Parse(input)
	require.NoError(t, err)
	require.Empty(t, fields)
	require.Equal(t, input, body)
}

func TestParse_MalformedBlock_ReturnsError(t *testing.T) {
	_, _, err := Parse([]byte("---\ntitle: [unclosed\n---\nbody"))
	require.Error(t, err)
}

func TestParse_UnclosedFence_IsBody(t *testing.T) {
	input := []byte("---\n\nparagraph after a thematic break\n")
	fields, body, err := Parse(input)
	require.NoError(t, err)
	require.Empty(t, fields)
	require.Equal(t, input, body)
}

func TestParserFunc(t *testing.T) {
	p := ParserFunc(func(content []byte) (map[string]any, []byte, error) {
		return map[string]any{"len": len(content)}, nil, nil
	})
	fields, _, err := p.Parse([]byte("abc"))
	require.NoError(t, err)
	require.Equal(t, 3, fields["len"])
}

func TestParseError_CarriesPathAndCategory(t *testing.T) {
	cause := errors.New("yaml: bad")
	err := error(&ParseError{Path: "posts/a.md", Err: cause})

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "posts/a.md")
	require.Equal(t, dberrors.CategoryRead, dberrors.GetCategory(err))
}
