package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/everest-mods/everest-mod-cli/internal/config"
	"github.com/everest-mods/everest-mod-cli/internal/utils/file"
	"github.com/spf13/cobra"
)

// createListCommand creates the list subcommand
func createListCommand() *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List installed mods",
		Args:  cobra.NoArgs,
		RunE:  executeList,
	}

	return listCmd
}

// executeList handles the list command logic
func executeList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	modsDir, err := config.ModsDir()
	if err != nil {
		return err
	}
	mods, unreadable, err := scanModsDir(modsDir)
	if err != nil {
		return err
	}

	sort.SliceStable(mods, func(i, j int) bool {
		return mods[i].Name() < mods[j].Name()
	})

	printTitle(out, fmt.Sprintf("Installed mods in %s", file.ReplaceHomeDirWithTilde(modsDir)))
	for _, m := range mods {
		fmt.Fprintf(out, "  %s %s %s\n", m.Name(), styleDim.Render(m.Manifest.Version),
			styleDim.Render("("+filepath.Base(m.Location)+")"))
	}
	fmt.Fprintln(out)
	printInfo(out, "%d mods installed", len(mods))
	if unreadable > 0 {
		printWarning(out, "%d archives could not be read", unreadable)
	}
	return nil
}
