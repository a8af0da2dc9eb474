package main

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/everest-mods/everest-mod-cli/internal/config"
	"github.com/everest-mods/everest-mod-cli/internal/modpackage/installer"
	"github.com/everest-mods/everest-mod-cli/internal/modpackage/localmod"
	"github.com/everest-mods/everest-mod-cli/internal/modpackage/pkgfetcher"
	"github.com/everest-mods/everest-mod-cli/internal/modpackage/registry"
	"github.com/everest-mods/everest-mod-cli/internal/modsdir"
	"github.com/everest-mods/everest-mod-cli/internal/utils/file"
)

func databaseURLs() registry.URLs {
	gc := config.Global()
	return registry.URLs{
		Registry:        gc.RegistryURL,
		DependencyGraph: gc.DependencyGraphURL,
	}
}

// scanModsDir loads every archive in the mods directory and reports how
// many could not be read.
func scanModsDir(dir string) ([]*localmod.LocalMod, int, error) {
	paths, err := modsdir.FindArchives(dir)
	if err != nil {
		return nil, 0, err
	}
	mods := localmod.LoadLocalMods(paths)
	return mods, len(paths) - len(mods), nil
}

// newInstaller builds an Installer from the global configuration.
func newInstaller(client *http.Client, modsDir string, progress io.Writer) (*installer.Installer, error) {
	mirrors, err := config.Mirrors()
	if err != nil {
		return nil, err
	}
	return &installer.Installer{
		Client:   client,
		ModsDir:  modsDir,
		Mirrors:  mirrors,
		Workers:  config.Workers(),
		Progress: progress,
	}, nil
}

// printResults lists each download and returns the success and failure counts.
func printResults(w io.Writer, results []pkgfetcher.Result) (succeeded, failed int) {
	for _, r := range results {
		if r.OK {
			printSuccess(w, "%s %s %s (%s, %s)", r.Name, iconArrow,
				file.ReplaceHomeDirWithTilde(r.Path), r.Mirror, r.Duration.Round(time.Millisecond))
			continue
		}
		printError(w, "%s: %v", r.Name, r.Error)
	}
	return pkgfetcher.Summarize(results)
}

func printSummary(w io.Writer, succeeded, failed int) error {
	fmt.Fprintln(w)
	line := fmt.Sprintf("%d succeeded, %d failed", succeeded, failed)
	if failed > 0 {
		printError(w, "%s", line)
		return fmt.Errorf("%d of %d downloads failed", failed, succeeded+failed)
	}
	printSuccess(w, "%s", line)
	return nil
}
