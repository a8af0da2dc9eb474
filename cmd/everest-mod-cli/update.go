package main

import (
	"fmt"
	"path/filepath"

	"github.com/everest-mods/everest-mod-cli/internal/config"
	"github.com/everest-mods/everest-mod-cli/internal/modpackage/localmod"
	"github.com/everest-mods/everest-mod-cli/internal/modpackage/registry"
	"github.com/everest-mods/everest-mod-cli/internal/modpackage/update"
	"github.com/everest-mods/everest-mod-cli/internal/modsdir"
	"github.com/everest-mods/everest-mod-cli/internal/utils/logger"
	"github.com/everest-mods/everest-mod-cli/internal/utils/network"
	"github.com/spf13/cobra"
)

// createUpdateCommand creates the update subcommand
func createUpdateCommand() *cobra.Command {
	var install bool

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Check installed mods for updates",
		Long: `Compare every installed mod against the Everest update registry and list
the ones with a newer archive.

Archives listed in updaterblacklist.txt in the Mods directory are never
checked. Pass --install to download the updates; the archive being replaced
is removed once the new one is in place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeUpdate(cmd, install)
		},
	}

	updateCmd.Flags().BoolVar(&install, "install", false, "Download the available updates")

	return updateCmd
}

// executeUpdate handles the update command logic
func executeUpdate(cmd *cobra.Command, install bool) error {
	log := logger.Logger()
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	modsDir, err := config.ModsDir()
	if err != nil {
		return err
	}

	paths, err := modsdir.FindArchives(modsDir)
	if err != nil {
		return err
	}
	blacklist, err := modsdir.ReadUpdaterBlacklist(modsDir)
	if err != nil {
		return err
	}
	if len(blacklist) > 0 {
		before := len(paths)
		paths = modsdir.FilterBlacklisted(paths, blacklist)
		log.Infof("Skipping %d blacklisted archives", before-len(paths))
	}
	mods := localmod.LoadLocalMods(paths)

	client := network.NewSecureHTTPClient()
	reg, err := registry.FetchRegistry(ctx, client, config.Global().RegistryURL)
	if err != nil {
		return err
	}

	available, err := update.CheckUpdatesDetailed(ctx, mods, reg)
	if err != nil {
		return err
	}
	if len(available) == 0 {
		printSuccess(out, "All %d mods are up to date", len(mods))
		return nil
	}

	printTitle(out, fmt.Sprintf("%d updates available", len(available)))
	for _, a := range available {
		printDetail(out, "%s %s %s %s (%s)", a.Entry.Name, a.LocalVersion, iconArrow, a.RemoteVersion,
			filepath.Base(a.Location))
	}
	if !install {
		fmt.Fprintln(out)
		printInfo(out, "Run with --install to download them")
		return nil
	}

	inst, err := newInstaller(client, modsDir, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	succeeded, failed := printResults(out, inst.Update(ctx, available))
	return printSummary(out, succeeded, failed)
}
