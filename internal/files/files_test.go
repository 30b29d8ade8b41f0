package files

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"index.md":          "index.md",
		"/index.md":         "index.md",
		"./nested/index.md": "nested/index.md",
		`nested\deep\a.md`:  "nested/deep/a.md",
		"nested//a/../b.md": "nested/b.md",
		"Nested/Index.MD":   "Nested/Index.MD",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizePath(in), in)
	}
}

func TestFiles_AddGetDeleteRename(t *testing.T) {
	model := New()
	model.Add("./one", NewFile([]byte("one")))

	f, ok := model.Get("one")
	require.True(t, ok)
	assert.Equal(t, "one", string(f.Contents))

	require.True(t, model.Rename("one", "dir/two"))
	_, ok = model.Get("one")
	assert.False(t, ok)
	_, ok = model["dir/two"]
	assert.True(t, ok)
	assert.False(t, model.Rename("missing", "x"))

	model.Delete("/dir/two")
	assert.Empty(t, model)
}

func TestFiles_PathsSorted(t *testing.T) {
	model := Files{"b": NewFile(nil), "a/z": NewFile(nil), "a": NewFile(nil)}
	assert.Equal(t, []string{"a", "a/z", "b"}, model.Paths())
}

func TestFile_MetadataAccessors(t *testing.T) {
	f := &File{}
	_, ok := f.Get("title")
	assert.False(t, ok)

	f.Set("title", "A Title")
	assert.Equal(t, "A Title", f.GetString("title"))

	f.Set("weight", 3)
	assert.Empty(t, f.GetString("weight"))
}

func TestFile_Clone(t *testing.T) {
	orig := &File{Contents: []byte("abc"), Mode: "0600", Metadata: map[string]any{"k": "v"}}
	c := orig.Clone()
	c.Contents[0] = 'x'
	c.Set("k", "changed")

	assert.Equal(t, "abc", string(orig.Contents))
	assert.Equal(t, "v", orig.Metadata["k"])
	assert.Equal(t, "0600", c.Mode)
}

func TestFormatAndParseMode(t *testing.T) {
	cases := []struct {
		mode fs.FileMode
		str  string
	}{
		{0o644, "0644"},
		{0o755, "0755"},
		{0o777, "0777"},
		{0o755 | fs.ModeSetuid, "4755"},
		{0o775 | fs.ModeSetgid, "2775"},
		{0o777 | fs.ModeSticky, "1777"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.str, FormatMode(tc.mode))
		parsed, err := ParseMode(tc.str)
		require.NoError(t, err)
		assert.Equal(t, tc.mode, parsed)
	}
}

func TestFormatMode_IgnoresTypeBits(t *testing.T) {
	assert.Equal(t, "0755", FormatMode(fs.ModeDir|0o755))
}

func TestParseMode_Invalid(t *testing.T) {
	for _, s := range []string{"", "rwx", "0999", "17777"} {
		_, err := ParseMode(s)
		assert.Error(t, err, s)
	}
}

func TestWriteMode_DefaultsWhenEmpty(t *testing.T) {
	m, err := (&File{}).WriteMode()
	require.NoError(t, err)
	assert.Equal(t, DefaultFileMode, m)

	m, err = (&File{Mode: "0777"}).WriteMode()
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0o777), m)
}
