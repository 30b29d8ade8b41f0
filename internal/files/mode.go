package files

import (
	"fmt"
	"io/fs"
	"strconv"
)

// DefaultFileMode is applied to files written without an explicit Mode.
const DefaultFileMode fs.FileMode = 0o644

// FormatMode renders the permission and special bits of m as a 4-digit
// octal string, e.g. "0644" or "4755".
func FormatMode(m fs.FileMode) string {
	bits := uint32(m.Perm())
	if m&fs.ModeSetuid != 0 {
		bits |= 0o4000
	}
	if m&fs.ModeSetgid != 0 {
		bits |= 0o2000
	}
	if m&fs.ModeSticky != 0 {
		bits |= 0o1000
	}
	return fmt.Sprintf("%04o", bits)
}

// ParseMode is the inverse of FormatMode.
func ParseMode(s string) (fs.FileMode, error) {
	bits, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid file mode %q: %w", s, err)
	}
	if bits > 0o7777 {
		return 0, fmt.Errorf("invalid file mode %q: out of range", s)
	}

	m := fs.FileMode(bits & 0o777)
	if bits&0o4000 != 0 {
		m |= fs.ModeSetuid
	}
	if bits&0o2000 != 0 {
		m |= fs.ModeSetgid
	}
	if bits&0o1000 != 0 {
		m |= fs.ModeSticky
	}
	return m, nil
}

// WriteMode returns the mode to apply when writing f.
func (f *File) WriteMode() (fs.FileMode, error) {
	if f.Mode == "" {
		return DefaultFileMode, nil
	}
	return ParseMode(f.Mode)
}
