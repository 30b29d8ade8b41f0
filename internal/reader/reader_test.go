package reader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsmith/internal/config"
	dberrors "git.home.luguber.info/inful/docsmith/internal/foundation/errors"
	"git.home.luguber.info/inful/docsmith/internal/frontmatter"
	"git.home.luguber.info/inful/docsmith/internal/testutil"
)

func newSettings(t *testing.T, opts ...config.Option) (*config.Settings, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := config.New(dir, opts...)
	require.NoError(t, err)
	return s, dir
}

func TestRead_ParsesFrontmatter(t *testing.T) {
	s, dir := newSettings(t)
	testutil.WriteTree(t, dir, map[string]string{
		"src/index.md": "---\ntitle: A Title\n---\nbody",
		"src/plain.md": "body",
	})

	got, err := Read(t.Context(), "", s)
	require.NoError(t, err)
	require.Len(t, got, 2)

	index := got["index.md"]
	require.NotNil(t, index)
	assert.Equal(t, "body", string(index.Contents))
	assert.Equal(t, "A Title", index.Metadata["title"])
	assert.Equal(t, "0644", index.Mode)
	require.NotNil(t, index.Stats)
	assert.Equal(t, int64(len("---\ntitle: A Title\n---\nbody")), index.Stats.Size())

	plain := got["plain.md"]
	assert.Equal(t, "body", string(plain.Contents))
	assert.Empty(t, plain.Metadata)
}

func TestRead_FrontmatterDisabled(t *testing.T) {
	s, dir := newSettings(t, config.WithFrontmatter(false))
	raw := "---\ntitle: A Title\n---\nbody"
	testutil.WriteTree(t, dir, map[string]string{"src/index.md": raw})

	got, err := Read(t.Context(), "", s)
	require.NoError(t, err)
	assert.Equal(t, raw, string(got["index.md"].Contents))
	assert.Empty(t, got["index.md"].Metadata)
}

func TestRead_NestedKeysUseForwardSlashes(t *testing.T) {
	s, dir := newSettings(t)
	testutil.WriteTree(t, dir, map[string]string{
		"src/a/b/c.txt": "deep",
		"src/a/d.txt":   "shallow",
	})

	got, err := Read(t.Context(), "", s)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a/b/c.txt", "a/d.txt"}, got.Paths())
}

func TestRead_ExplicitDirectory(t *testing.T) {
	s, dir := newSettings(t)
	testutil.WriteTree(t, dir, map[string]string{
		"src/ignored.txt":   "x",
		"other/picked.txt":  "y",
		"other/sub/too.txt": "z",
	})

	got, err := Read(t.Context(), "other", s)
	require.NoError(t, err)
	assert.Equal(t, []string{"picked.txt", "sub/too.txt"}, got.Paths())

	abs, err := Read(t.Context(), filepath.Join(dir, "other"), s)
	require.NoError(t, err)
	assert.Equal(t, got.Paths(), abs.Paths())
}

func TestRead_BinaryPreserved(t *testing.T) {
	s, dir := newSettings(t)
	bin := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff, '-', '-', '-'}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "img.png"), bin, 0o644))

	got, err := Read(t.Context(), "", s)
	require.NoError(t, err)
	assert.Equal(t, bin, got["img.png"].Contents)
}

func TestRead_IgnorePatternPrunesDirectory(t *testing.T) {
	s, dir := newSettings(t, config.WithIgnorePatterns("nested"))
	testutil.WriteTree(t, dir, map[string]string{
		"src/index.md":          "a",
		"src/nested/index.md":   "b",
		"src/deep/nested/x.txt": "c",
	})

	got, err := Read(t.Context(), "", s)
	require.NoError(t, err)
	assert.Equal(t, []string{"index.md"}, got.Paths())
}

func TestRead_IgnoreFuncSeesStats(t *testing.T) {
	s, dir := newSettings(t, config.WithIgnoreFunc(func(rel string, info fs.FileInfo) bool {
		return !info.IsDir() && info.Size() > 3
	}))
	testutil.WriteTree(t, dir, map[string]string{
		"src/small.txt": "abc",
		"src/big.txt":   "abcdef",
	})

	got, err := Read(t.Context(), "", s)
	require.NoError(t, err)
	assert.Equal(t, []string{"small.txt"}, got.Paths())
}

func TestRead_PreservesMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not portable")
	}
	s, dir := newSettings(t)
	testutil.WriteTree(t, dir, map[string]string{"src/run.sh": "#!/bin/sh"})
	require.NoError(t, os.Chmod(filepath.Join(dir, "src", "run.sh"), 0o755))

	got, err := Read(t.Context(), "", s)
	require.NoError(t, err)
	assert.Equal(t, "0755", got["run.sh"].Mode)
}

func TestRead_FollowsSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	s, dir := newSettings(t)
	testutil.WriteTree(t, dir, map[string]string{
		"shared/dir/inner.txt": "inner",
		"shared/file.txt":      "file",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(dir, "shared", "dir"), filepath.Join(dir, "src", "dir")))
	require.NoError(t, os.Symlink(filepath.Join(dir, "shared", "file.txt"), filepath.Join(dir, "src", "file.txt")))

	got, err := Read(t.Context(), "", s)
	require.NoError(t, err)
	assert.Equal(t, []string{"dir/inner.txt", "file.txt"}, got.Paths())
	assert.Equal(t, "inner", string(got["dir/inner.txt"].Contents))
}

func TestRead_SkipsSymlinkCycles(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	s, dir := newSettings(t)
	testutil.WriteTree(t, dir, map[string]string{"src/a/file.txt": "x"})
	require.NoError(t, os.Symlink(filepath.Join(dir, "src"), filepath.Join(dir, "src", "a", "loop")))

	got, err := Read(t.Context(), "", s)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/file.txt"}, got.Paths())
}

func TestRead_ConcurrencyLimits(t *testing.T) {
	for _, n := range []int{1, 3, config.Unbounded} {
		t.Run(fmt.Sprintf("concurrency=%d", n), func(t *testing.T) {
			s, dir := newSettings(t, config.WithConcurrency(n))
			tree := map[string]string{}
			for i := range 10 {
				tree[fmt.Sprintf("src/file-%02d.md", i)] = fmt.Sprintf("---\nn: %d\n---\nbody %d", i, i)
			}
			testutil.WriteTree(t, dir, tree)

			got, err := Read(t.Context(), "", s)
			require.NoError(t, err)
			require.Len(t, got, 10)
			for i := range 10 {
				f := got[fmt.Sprintf("file-%02d.md", i)]
				require.NotNil(t, f)
				assert.Equal(t, i, f.Metadata["n"])
				assert.Equal(t, fmt.Sprintf("body %d", i), string(f.Contents))
			}
		})
	}
}

func TestRead_BoundsTasksInFlight(t *testing.T) {
	for _, n := range []int{1, 2, 4} {
		t.Run(fmt.Sprintf("concurrency=%d", n), func(t *testing.T) {
			var inFlight, peak atomic.Int32
			slow := frontmatter.ParserFunc(func(content []byte) (map[string]any, []byte, error) {
				cur := inFlight.Add(1)
				defer inFlight.Add(-1)
				for {
					old := peak.Load()
					if cur <= old || peak.CompareAndSwap(old, cur) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				return map[string]any{}, content, nil
			})
			s, dir := newSettings(t, config.WithConcurrency(n), config.WithFrontmatterParser(slow))
			tree := map[string]string{}
			for i := range 20 {
				tree[fmt.Sprintf("src/file-%02d.txt", i)] = "x"
			}
			testutil.WriteTree(t, dir, tree)

			got, err := Read(t.Context(), "", s)
			require.NoError(t, err)
			assert.Len(t, got, 20)
			assert.LessOrEqual(t, int(peak.Load()), n)
			assert.GreaterOrEqual(t, int(peak.Load()), 1)
		})
	}
}

func TestRead_LeadingThematicBreakIsBody(t *testing.T) {
	s, dir := newSettings(t)
	testutil.WriteTree(t, dir, map[string]string{"src/rule.md": "---\n\nparagraph"})

	got, err := Read(t.Context(), "", s)
	require.NoError(t, err)
	assert.Equal(t, "---\n\nparagraph", string(got["rule.md"].Contents))
	assert.Empty(t, got["rule.md"].Metadata)
}

func TestRead_MalformedFrontmatter(t *testing.T) {
	s, dir := newSettings(t)
	testutil.WriteTree(t, dir, map[string]string{
		"src/ok.md":  "fine",
		"src/bad.md": "---\ntitle: [unclosed\n---\nbody",
	})

	got, err := Read(t.Context(), "", s)
	require.Error(t, err)
	assert.Nil(t, got)

	var readErr *ReadError
	require.ErrorAs(t, err, &readErr)
	var parseErr *frontmatter.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "bad.md", parseErr.Path)
	assert.Equal(t, dberrors.CategoryRead, dberrors.GetCategory(err))
}

func TestRead_CustomParserFailure(t *testing.T) {
	boom := errors.New("boom")
	s, dir := newSettings(t, config.WithFrontmatterParser(frontmatter.ParserFunc(
		func([]byte) (map[string]any, []byte, error) { return nil, nil, boom },
	)))
	testutil.WriteTree(t, dir, map[string]string{"src/a.md": "x"})

	_, err := Read(t.Context(), "", s)
	require.ErrorIs(t, err, boom)
}

func TestRead_MissingDirectory(t *testing.T) {
	s, _ := newSettings(t)
	_, err := Read(t.Context(), "", s)
	require.Error(t, err)
	require.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, dberrors.CategoryRead, dberrors.GetCategory(err))
}

func TestRead_CanceledContext(t *testing.T) {
	s, dir := newSettings(t)
	testutil.WriteTree(t, dir, map[string]string{"src/a.md": "x"})

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := Read(ctx, "", s)
	require.Error(t, err)
}
