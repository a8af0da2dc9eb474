package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/everest-mods/everest-mod-cli/internal/config"
	"github.com/everest-mods/everest-mod-cli/internal/modpackage/installer"
	"github.com/everest-mods/everest-mod-cli/internal/modpackage/localmod"
	"github.com/everest-mods/everest-mod-cli/internal/modpackage/registry"
	"github.com/everest-mods/everest-mod-cli/internal/utils/logger"
	"github.com/everest-mods/everest-mod-cli/internal/utils/network"
	"github.com/spf13/cobra"
)

// createInstallCommand creates the install subcommand
func createInstallCommand() *cobra.Command {
	installCmd := &cobra.Command{
		Use:   "install <mod-page-url | mod-name>",
		Short: "Install a mod and its missing dependencies",
		Long: `Install a mod together with every dependency that is not installed yet.

The argument is either a GameBanana mod page URL, in which case every mod
published on that page is installed, or a mod name as listed in the Everest
update registry.

Examples:
  # Install from a mod page
  everest-mod-cli install https://gamebanana.com/mods/150813

  # Install by name
  everest-mod-cli install StrawberryJam2021`,
		Args: cobra.ExactArgs(1),
		RunE: executeInstall,
	}

	return installCmd
}

// executeInstall handles the install command logic
func executeInstall(cmd *cobra.Command, args []string) error {
	log := logger.Logger()
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	modsDir, err := config.ModsDir()
	if err != nil {
		return err
	}

	client := network.NewSecureHTTPClient()
	reg, graph, err := registry.FetchOnlineDatabase(ctx, client, databaseURLs(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	targets, err := installer.Targets(args[0], reg)
	if err != nil {
		return err
	}
	log.Debugf("Install targets: %s", strings.Join(targets, ", "))

	mods, unreadable, err := scanModsDir(modsDir)
	if err != nil {
		return err
	}
	if unreadable > 0 {
		log.Warnf("%d archives in %s could not be read", unreadable, modsDir)
	}

	inst, err := newInstaller(client, modsDir, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	inst.OnPlan = func(r installer.TargetReport) { printPlan(out, r, graph) }

	reports := inst.Install(ctx, targets, graph, reg, localmod.Names(mods))

	var succeeded, failed int
	for _, r := range reports {
		s, f := printResults(out, r.Results)
		succeeded += s
		failed += f
	}
	if succeeded+failed == 0 {
		return nil
	}
	return printSummary(out, succeeded, failed)
}

// printPlan shows what is about to be downloaded for one target. Optional
// dependencies are listed but never installed.
func printPlan(w io.Writer, r installer.TargetReport, graph *registry.DependencyGraph) {
	switch {
	case r.AlreadyInstalled:
		printInfo(w, "%s is already installed", r.Name)
		return
	case r.NothingToFetch():
		printInfo(w, "All dependencies of %s are already installed", r.Name)
	}

	if len(r.Resolved.Missing) > 0 {
		printWarning(w, "Not in the registry, skipped: %s", strings.Join(r.Resolved.Missing, ", "))
	}
	if len(r.Resolved.FetchSet) == 0 {
		return
	}

	printTitle(w, fmt.Sprintf("Installing %s (%d to download)", r.Name, len(r.Resolved.FetchSet)))
	for _, e := range r.Resolved.FetchSet {
		printDetail(w, "%s %s", e.Name, e.Info.Version)
	}
	if optional := graph.OptionalDependencies(r.Name); len(optional) > 0 {
		printDetail(w, "optional: %s", strings.Join(optional, ", "))
	}
}
