package file

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// maxFileNameLen is the longest file name most filesystems accept.
const maxFileNameLen = 255

// IsSubPath checks if the target path is a subpath of the base path
func IsSubPath(base, target string) (bool, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return false, err
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil {
		return false, err
	}
	if rel == "." {
		return true, nil
	}
	if strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return false, nil
	}
	return true, nil
}

// FormatChecksum renders an xxHash64 sum the way the mod registry lists it:
// sixteen lowercase hex digits.
func FormatChecksum(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}

// HashReader streams r through xxHash64 and returns the formatted checksum.
func HashReader(r io.Reader) (string, error) {
	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return FormatChecksum(h.Sum64()), nil
}

// HashFile computes the xxHash64 checksum of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sum, err := HashReader(f)
	if err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return sum, nil
}

// ReplaceHomeDirWithTilde shortens paths under the user's home directory for display.
func ReplaceHomeDirWithTilde(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if path == home {
		return "~"
	}
	if rest, ok := strings.CutPrefix(path, home+string(filepath.Separator)); ok {
		return filepath.Join("~", rest)
	}
	return path
}

// Sanitize turns an arbitrary name into something safe to use as a file name.
// Path separators and shell-hostile characters become underscores, control
// characters are dropped, runs of whitespace collapse to one space, a leading
// dot is removed and the result is capped at 255 bytes. An empty result is
// replaced by "unnamed".
func Sanitize(name string) string {
	trimmed := strings.TrimSpace(name)
	trimmed = strings.TrimPrefix(trimmed, ".")
	collapsed := strings.Join(strings.Fields(trimmed), " ")

	var b strings.Builder
	b.Grow(len(collapsed))
	for _, r := range collapsed {
		switch r {
		case '\r', '\n', '\x00':
			continue
		case '/', '\\', '*', '?', ':', ';':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	result := b.String()
	if len(result) > maxFileNameLen {
		result = result[:maxFileNameLen]
	}
	if result == "" {
		return "unnamed"
	}
	return result
}
