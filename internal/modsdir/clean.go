package modsdir

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/everest-mods/everest-mod-cli/internal/modpackage/pkgfetcher"
	fileutil "github.com/everest-mods/everest-mod-cli/internal/utils/file"
)

// CleanOptions defines which leftover downloads should be removed.
type CleanOptions struct {
	ModsDir   string
	OlderThan time.Duration // only files last modified at least this long ago
	DryRun    bool          // report actions without deleting anything
}

// CleanResult contains the outcome of a cleanup run.
type CleanResult struct {
	RemovedPaths []string
	SkippedPaths []string
}

// Clean removes temporary files left in the mods directory by interrupted
// downloads.
func Clean(opts CleanOptions) (*CleanResult, error) {
	if opts.ModsDir == "" {
		return nil, fmt.Errorf("mods directory must be specified")
	}

	targets, err := filepath.Glob(filepath.Join(opts.ModsDir, pkgfetcher.TempPattern))
	if err != nil {
		return nil, fmt.Errorf("listing temporary downloads: %w", err)
	}

	removed := make([]string, 0, len(targets))
	var skipped []string
	cutoff := time.Now().Add(-opts.OlderThan)

	for _, target := range targets {
		if err := ensureSubPath(opts.ModsDir, target); err != nil {
			return nil, err
		}

		info, err := os.Lstat(target)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				skipped = append(skipped, target)
				continue
			}
			return nil, fmt.Errorf("checking %s: %w", target, err)
		}
		if !info.Mode().IsRegular() || info.ModTime().After(cutoff) {
			skipped = append(skipped, target)
			continue
		}

		if opts.DryRun {
			removed = append(removed, target)
			continue
		}

		if err := os.Remove(target); err != nil {
			return nil, fmt.Errorf("removing %s: %w", target, err)
		}
		removed = append(removed, target)
	}

	sort.Strings(removed)
	sort.Strings(skipped)

	return &CleanResult{
		RemovedPaths: removed,
		SkippedPaths: skipped,
	}, nil
}

func ensureSubPath(base, target string) error {
	ok, err := fileutil.IsSubPath(base, target)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("refusing to operate on %s because it is outside %s", target, base)
	}
	return nil
}
