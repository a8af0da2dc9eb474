// Package modsdir knows the layout of the Celeste Mods directory: where
// installed archives live and which ones the updater must leave alone.
package modsdir

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/everest-mods/everest-mod-cli/internal/utils/logger"
)

// BlacklistFileName lists archives, one file name per line, that the
// update command must not replace. Lines starting with # are comments.
const BlacklistFileName = "updaterblacklist.txt"

// FindArchives returns the .zip files directly inside dir, sorted.
// Directories, hidden files and in-progress downloads are ignored.
func FindArchives(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading mods directory %s: %w", dir, err)
	}

	var archives []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if !strings.EqualFold(filepath.Ext(name), ".zip") {
			continue
		}
		archives = append(archives, filepath.Join(dir, name))
	}
	sort.Strings(archives)
	logger.Logger().Debugf("Found %d archives in %s", len(archives), dir)
	return archives, nil
}

// ReadUpdaterBlacklist returns the absolute paths listed in dir's updater
// blacklist. A missing blacklist yields an empty set.
func ReadUpdaterBlacklist(dir string) (map[string]struct{}, error) {
	path := filepath.Join(dir, BlacklistFileName)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]struct{}{}, nil
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	blacklist := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		blacklist[filepath.Join(dir, line)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	logger.Logger().Infof("Updater blacklist holds %d entries", len(blacklist))
	return blacklist, nil
}

// FilterBlacklisted drops the paths present in blacklist, keeping order.
func FilterBlacklisted(paths []string, blacklist map[string]struct{}) []string {
	if len(blacklist) == 0 {
		return paths
	}
	kept := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, skip := blacklist[filepath.Clean(p)]; skip {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}
