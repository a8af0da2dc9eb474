package security

import (
	"fmt"
	"os"
	"path/filepath"
)

// SymlinkPolicy defines how to handle symlinks
type SymlinkPolicy int

const (
	// RejectSymlinks refuses to operate on a path that is a symlink.
	RejectSymlinks SymlinkPolicy = iota
	// ResolveSymlinks follows the link and operates on its target.
	ResolveSymlinks
)

// CheckSymlink applies policy to path and returns the path that should
// actually be opened.
func CheckSymlink(path string, policy SymlinkPolicy) (string, error) {
	if policy != RejectSymlinks && policy != ResolveSymlinks {
		return "", fmt.Errorf("invalid symlink policy: %d", policy)
	}

	info, err := os.Lstat(path)
	if err != nil {
		return "", fmt.Errorf("failed to get file info for %s: %w", path, err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return path, nil
	}

	if policy == RejectSymlinks {
		return "", fmt.Errorf("symlinks are not allowed: %s", path)
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve symlink %s: %w", path, err)
	}
	return resolved, nil
}

// SafeReadFile reads a file after performing symlink checks
func SafeReadFile(path string, policy SymlinkPolicy) ([]byte, error) {
	resolved, err := CheckSymlink(path, policy)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(resolved)
}

// SafeWriteFile writes data to path, refusing or resolving an existing
// symlink at that path according to policy.
func SafeWriteFile(path string, data []byte, perm os.FileMode, policy SymlinkPolicy) error {
	if _, err := os.Lstat(path); err == nil {
		resolved, err := CheckSymlink(path, policy)
		if err != nil {
			return fmt.Errorf("existing file symlink check failed: %w", err)
		}
		path = resolved
	}
	return os.WriteFile(path, data, perm)
}
