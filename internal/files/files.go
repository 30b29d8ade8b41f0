// Package files holds the in-memory file model shared by every pipeline stage.
package files

import (
	"io/fs"
	"maps"
	"path"
	"slices"
	"strings"
)

// File is one logical input or output file.
type File struct {
	// Contents is always raw bytes; plugins decode and re-encode as needed.
	Contents []byte

	// Mode is a 4-digit octal permission string such as "0644". Empty means
	// DefaultFileMode on write.
	Mode string

	// Stats is the filesystem snapshot taken when the file was read. Nil for
	// files created by plugins.
	Stats fs.FileInfo

	// Metadata holds frontmatter keys and anything plugins attach.
	Metadata map[string]any
}

// NewFile returns a File with contents and an initialized metadata map.
func NewFile(contents []byte) *File {
	return &File{Contents: contents, Metadata: map[string]any{}}
}

// Get returns the metadata value stored under key.
func (f *File) Get(key string) (any, bool) {
	if f == nil || f.Metadata == nil {
		return nil, false
	}
	v, ok := f.Metadata[key]
	return v, ok
}

// GetString returns the metadata value under key when it is a string.
func (f *File) GetString(key string) string {
	v, _ := f.Get(key)
	s, _ := v.(string)
	return s
}

// Set stores a metadata value, allocating the map on first use.
func (f *File) Set(key string, value any) {
	if f.Metadata == nil {
		f.Metadata = map[string]any{}
	}
	f.Metadata[key] = value
}

// Clone returns a copy whose contents and metadata map can be mutated
// independently. Metadata values are copied shallowly.
func (f *File) Clone() *File {
	return &File{
		Contents: slices.Clone(f.Contents),
		Mode:     f.Mode,
		Stats:    f.Stats,
		Metadata: maps.Clone(f.Metadata),
	}
}

// Files maps normalized relative paths to files. It is an unordered
// collection and is not safe for concurrent mutation.
type Files map[string]*File

// New returns an empty model.
func New() Files {
	return Files{}
}

// Add inserts f under the normalized form of p, replacing any existing file.
func (m Files) Add(p string, f *File) {
	m[NormalizePath(p)] = f
}

// Get looks up p after normalizing it.
func (m Files) Get(p string) (*File, bool) {
	f, ok := m[NormalizePath(p)]
	return f, ok
}

// Delete removes p after normalizing it.
func (m Files) Delete(p string) {
	delete(m, NormalizePath(p))
}

// Rename moves the file at from to to. It reports false when from is absent.
func (m Files) Rename(from, to string) bool {
	from = NormalizePath(from)
	f, ok := m[from]
	if !ok {
		return false
	}
	delete(m, from)
	m[NormalizePath(to)] = f
	return true
}

// Paths returns the keys sorted, for callers that need a stable order.
func (m Files) Paths() []string {
	return slices.Sorted(maps.Keys(m))
}

// NormalizePath converts p to the model's key form: forward slashes, no
// leading slash or "./", cleaned. Case is preserved.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}
