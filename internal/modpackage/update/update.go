// Package update finds installed mods whose archive differs from the one the
// registry currently publishes.
package update

import (
	"context"
	"runtime"
	"sort"

	"github.com/everest-mods/everest-mod-cli/internal/modpackage"
	"github.com/everest-mods/everest-mod-cli/internal/modpackage/localmod"
	"github.com/everest-mods/everest-mod-cli/internal/modpackage/resolver"
	"github.com/everest-mods/everest-mod-cli/internal/utils/logger"
	"golang.org/x/sync/errgroup"
)

// Available describes one outdated mod.
type Available struct {
	Entry         modpackage.Entry
	Location      string // installed archive
	LocalVersion  string
	RemoteVersion string
}

// CheckUpdatesDetailed hashes every local mod that the registry knows and
// reports those whose checksum is not in the registry's accepted set. Mods
// the registry does not carry are skipped, as are mods whose archive cannot
// be hashed. The result is sorted by name.
func CheckUpdatesDetailed(ctx context.Context, mods []*localmod.LocalMod, reg resolver.ModSource) ([]Available, error) {
	log := logger.Logger()

	found := make([]*Available, len(mods))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, m := range mods {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			remote, ok := reg.Lookup(m.Name())
			if !ok {
				return nil
			}
			local, err := m.Checksum()
			if err != nil {
				log.Warnf("Failed to compute checksum for %s: %v", m.Name(), err)
				return nil
			}
			if remote.HasMatchingHash(local) {
				return nil
			}
			log.Infof("Update available for '%s': %s -> %s", m.Name(), m.Manifest.Version, remote.Version)
			found[i] = &Available{
				Entry:         modpackage.Entry{Name: m.Name(), Info: remote},
				Location:      m.Location,
				LocalVersion:  m.Manifest.Version,
				RemoteVersion: remote.Version,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var updates []Available
	for _, a := range found {
		if a != nil {
			updates = append(updates, *a)
		}
	}
	sort.SliceStable(updates, func(i, j int) bool {
		return updates[i].Entry.Name < updates[j].Entry.Name
	})
	return updates, nil
}

// CheckUpdates is CheckUpdatesDetailed reduced to the entries to download.
func CheckUpdates(ctx context.Context, mods []*localmod.LocalMod, reg resolver.ModSource) ([]modpackage.Entry, error) {
	updates, err := CheckUpdatesDetailed(ctx, mods, reg)
	if err != nil {
		return nil, err
	}
	entries := make([]modpackage.Entry, len(updates))
	for i, u := range updates {
		entries[i] = u.Entry
	}
	return entries, nil
}
