// Package localmod reads the mod archives already installed in the mods
// directory.
package localmod

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/everest-mods/everest-mod-cli/internal/modpackage/manifest"
	"github.com/everest-mods/everest-mod-cli/internal/utils/file"
	"github.com/everest-mods/everest-mod-cli/internal/utils/logger"
	"golang.org/x/sync/errgroup"
)

// ManifestFileName is the manifest every mod archive carries at its root.
const ManifestFileName = "everest.yaml"

// maxManifestSize bounds how much of everest.yaml is read.
const maxManifestSize = 1 << 20

// ErrManifestNotFound is returned for an archive without a root everest.yaml.
var ErrManifestNotFound = errors.New("the manifest file could not be found. It may be misspelled or have the extension `.yml`")

// LocalMod is an installed mod archive and its manifest.
type LocalMod struct {
	Location string
	Manifest *manifest.Manifest

	checksum func() (string, error)
}

// New builds a LocalMod for an archive whose manifest is already known.
func New(location string, m *manifest.Manifest) *LocalMod {
	return &LocalMod{
		Location: location,
		Manifest: m,
		checksum: sync.OnceValues(func() (string, error) {
			return file.HashFile(location)
		}),
	}
}

// Name is the mod name declared by the manifest.
func (m *LocalMod) Name() string {
	return m.Manifest.Name
}

// Checksum returns the xxHash64 of the archive. The file is hashed on the
// first call only; later calls return the same result.
func (m *LocalMod) Checksum() (string, error) {
	return m.checksum()
}

// FromPath opens the archive at path and decodes its manifest.
func FromPath(path string) (*LocalMod, error) {
	data, err := readManifest(path)
	if err != nil {
		return nil, err
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return New(path, m), nil
}

func readManifest(path string) ([]byte, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != ManifestFileName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s in %s: %w", ManifestFileName, path, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(io.LimitReader(rc, maxManifestSize))
		if err != nil {
			return nil, fmt.Errorf("reading %s in %s: %w", ManifestFileName, path, err)
		}
		return data, nil
	}
	return nil, ErrManifestNotFound
}

// LoadLocalMods reads every archive in paths in parallel. Archives without a
// manifest are skipped with a warning and unreadable ones with an error log,
// so one broken archive never stops the scan. The result keeps the order of
// paths.
func LoadLocalMods(paths []string) []*LocalMod {
	log := logger.Logger()
	log.Infof("Found %d mod archives to load", len(paths))

	loaded := make([]*LocalMod, len(paths))
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		g.Go(func() error {
			m, err := FromPath(path)
			switch {
			case errors.Is(err, ErrManifestNotFound):
				log.Warnf("%s: %v", filepath.Base(path), err)
			case err != nil:
				log.Errorf("Failed to load mod from %s: %v", path, err)
			default:
				loaded[i] = m
			}
			return nil
		})
	}
	_ = g.Wait()

	mods := make([]*LocalMod, 0, len(paths))
	for _, m := range loaded {
		if m != nil {
			mods = append(mods, m)
		}
	}
	log.Infof("Successfully loaded %d local mods", len(mods))
	return mods
}

// Names returns the set of mod names in mods.
func Names(mods []*LocalMod) map[string]struct{} {
	names := make(map[string]struct{}, len(mods))
	for _, m := range mods {
		names[m.Name()] = struct{}{}
	}
	return names
}
