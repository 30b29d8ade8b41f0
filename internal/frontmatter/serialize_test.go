package frontmatter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSerializeYAML_EmptyMap_ReturnsEmpty(t *testing.T) {
	out, err := SerializeYAML(map[string]any{}, Style{Newline: "\n"})
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestSerializeYAML_DeterministicOrder(t *testing.T) {
	fields := map[string]any{
		"b": "two",
		"a": "one",
		"c": 3,
	}

	out1, err := SerializeYAML(fields, Style{Newline: "\n"})
	require.NoError(t, err)
	out2, err := SerializeYAML(fields, Style{Newline: "\n"})
	require.NoError(t, err)

	require.Equal(t, string(out1), string(out2))
	require.Equal(t, "a: one\nb: two\nc: 3\n", string(out1))
}

func TestSerializeYAML_NewlineStyle_CRLF(t *testing.T) {
	out, err := SerializeYAML(map[string]any{"a": "one"}, Style{Newline: "\r\n"})
	require.NoError(t, err)
	require.Equal(t, "a: one\r\n", string(out))
}

func TestSerializeYAML_NestedMap_SortsKeysRecursively(t *testing.T) {
	fields := map[string]any{
		"outer": map[string]any{"b": 2, "a": 1},
		"tags":  []any{"x", "y"},
	}

	out, err := SerializeYAML(fields, Style{})
	require.NoError(t, err)
	require.Equal(t, "outer:\n  a: 1\n  b: 2\ntags:\n  - x\n  - y\n", string(out))
}

func TestSerializeYAML_ParsedFieldsRoundTrip(t *testing.T) {
	fields, err := ParseYAML([]byte("title: A Title\ndraft: false\nweight: 2\n"))
	require.NoError(t, err)

	out, err := SerializeYAML(fields, Style{})
	require.NoError(t, err)
	require.Equal(t, "draft: false\ntitle: A Title\nweight: 2\n", string(out))
}

func TestSerializeYAML_FallbackEncodesTime(t *testing.T) {
	ts := time.Date(2013, 12, 2, 0, 0, 0, 0, time.UTC)
	out, err := SerializeYAML(map[string]any{"date": ts}, Style{})
	require.NoError(t, err)
	require.Contains(t, string(out), "2013-12-02")
}
