// Package installer drives the install and update commands: it resolves
// targets against the online database and hands the fetch sets to the
// download pool.
package installer

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/everest-mods/everest-mod-cli/internal/modpackage"
	"github.com/everest-mods/everest-mod-cli/internal/modpackage/mirror"
	"github.com/everest-mods/everest-mod-cli/internal/modpackage/pkgfetcher"
	"github.com/everest-mods/everest-mod-cli/internal/modpackage/registry"
	"github.com/everest-mods/everest-mod-cli/internal/modpackage/resolver"
	"github.com/everest-mods/everest-mod-cli/internal/modpackage/update"
	"github.com/everest-mods/everest-mod-cli/internal/utils/logger"
)

// Installer downloads mods into ModsDir.
type Installer struct {
	Client   *http.Client
	ModsDir  string
	Mirrors  []mirror.Mirror
	Workers  int
	Progress io.Writer

	// OnPlan, when set, is called with each target's plan before anything
	// is downloaded for it.
	OnPlan func(TargetReport)
}

// TargetReport is what happened to one install target.
type TargetReport struct {
	Name             string
	AlreadyInstalled bool
	Resolved         resolver.Result
	Results          []pkgfetcher.Result
}

// NothingToFetch reports whether the target and all its dependencies were
// already present.
func (r TargetReport) NothingToFetch() bool {
	return !r.AlreadyInstalled && len(r.Resolved.FetchSet) == 0
}

func (in *Installer) options() pkgfetcher.Options {
	return pkgfetcher.Options{
		DestDir:  in.ModsDir,
		Workers:  in.Workers,
		Mirrors:  in.Mirrors,
		Progress: in.Progress,
	}
}

// Install installs each target and its missing dependencies. Targets are
// handled in order; whatever one target installs counts as installed for
// the next, so shared dependencies are fetched once. installed is updated
// in place.
func (in *Installer) Install(ctx context.Context, targets []string, graph *registry.DependencyGraph, reg *registry.Registry, installed map[string]struct{}) []TargetReport {
	log := logger.Logger()
	reports := make([]TargetReport, 0, len(targets))

	for _, name := range targets {
		report := TargetReport{Name: name}
		if _, ok := installed[name]; ok {
			log.Infof("%s is already installed", name)
			report.AlreadyInstalled = true
			in.plan(report)
			reports = append(reports, report)
			continue
		}

		report.Resolved = resolver.Resolve(name, graph, reg, installed)
		in.plan(report)
		if len(report.Resolved.FetchSet) == 0 {
			reports = append(reports, report)
			continue
		}

		log.Infof("Downloading %s and %d dependencies", name, len(report.Resolved.FetchSet)-1)
		report.Results = pkgfetcher.FetchMods(ctx, in.Client, report.Resolved.FetchSet, in.options())
		for _, r := range report.Results {
			if r.OK {
				installed[r.Name] = struct{}{}
			}
		}
		reports = append(reports, report)
	}
	return reports
}

func (in *Installer) plan(r TargetReport) {
	if in.OnPlan != nil {
		in.OnPlan(r)
	}
}

// Update downloads the newer archives. When a new archive lands under a
// different file name, the archive it replaces is removed so the game does
// not load two versions of the same mod.
func (in *Installer) Update(ctx context.Context, updates []update.Available) []pkgfetcher.Result {
	log := logger.Logger()

	entries := make([]modpackage.Entry, len(updates))
	for i, u := range updates {
		entries[i] = u.Entry
	}
	results := pkgfetcher.FetchMods(ctx, in.Client, entries, in.options())

	for i, r := range results {
		if !r.OK {
			continue
		}
		old := updates[i].Location
		if old == "" || filepath.Clean(old) == filepath.Clean(r.Path) {
			continue
		}
		if err := os.Remove(old); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warnf("Installed %s but could not remove previous archive %s: %v", r.Name, old, err)
			continue
		}
		log.Infof("Removed previous archive %s of %s", old, r.Name)
	}
	return results
}
