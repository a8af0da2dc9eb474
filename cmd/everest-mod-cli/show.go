package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/everest-mods/everest-mod-cli/internal/config"
	"github.com/everest-mods/everest-mod-cli/internal/modpackage/manifest"
	"github.com/everest-mods/everest-mod-cli/internal/utils/file"
	"github.com/spf13/cobra"
)

// createShowCommand creates the show subcommand
func createShowCommand() *cobra.Command {
	showCmd := &cobra.Command{
		Use:   "show <mod-name>",
		Short: "Show the manifest of an installed mod",
		Args:  cobra.ExactArgs(1),
		RunE:  executeShow,
	}

	return showCmd
}

// executeShow handles the show command logic
func executeShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	name := args[0]

	modsDir, err := config.ModsDir()
	if err != nil {
		return err
	}
	mods, _, err := scanModsDir(modsDir)
	if err != nil {
		return err
	}

	for _, m := range mods {
		if m.Name() != name {
			continue
		}
		checksum, err := m.Checksum()
		if err != nil {
			checksum = "unavailable: " + err.Error()
		}

		printTitle(out, m.Name())
		printKeyValue(out, "Version", m.Manifest.Version)
		printKeyValue(out, "File", filepath.Base(m.Location))
		printKeyValue(out, "Location", file.ReplaceHomeDirWithTilde(m.Location))
		printKeyValue(out, "xxHash", checksum)
		if m.Manifest.DLL != "" {
			printKeyValue(out, "DLL", m.Manifest.DLL)
		}
		printKeyValue(out, "Dependencies", formatDependencies(m.Manifest.Dependencies))
		printKeyValue(out, "Optional", formatDependencies(m.Manifest.OptionalDependencies))
		return nil
	}
	return fmt.Errorf("mod %q is not installed in %s", name, modsDir)
}

func formatDependencies(deps []manifest.Dependency) string {
	if len(deps) == 0 {
		return styleDim.Render("none")
	}
	parts := make([]string, len(deps))
	for i, d := range deps {
		parts[i] = d.Name
		if d.Version != "" {
			parts[i] += " " + d.Version
		}
	}
	return strings.Join(parts, ", ")
}
