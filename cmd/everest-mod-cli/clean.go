package main

import (
	"fmt"

	"github.com/everest-mods/everest-mod-cli/internal/config"
	"github.com/everest-mods/everest-mod-cli/internal/modsdir"
	"github.com/spf13/cobra"
)

func createCleanCommand() *cobra.Command {
	var opts modsdir.CleanOptions

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove leftovers of interrupted downloads",
		Long: `Remove the temporary .download-* files that an interrupted install or
update leaves in the Mods directory. Installed archives are never touched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			modsDir, err := config.ModsDir()
			if err != nil {
				return err
			}
			opts.ModsDir = modsDir

			result, err := modsdir.Clean(opts)
			if err != nil {
				return err
			}

			output := []string{}
			if opts.DryRun {
				output = append(output, "Dry run: no files were deleted.")
			}

			if len(result.RemovedPaths) > 0 {
				header := "Removed paths:"
				if opts.DryRun {
					header = "Would remove:"
				}
				output = append(output, header)
				output = append(output, indentPaths(result.RemovedPaths)...)
			}

			if len(result.RemovedPaths) == 0 && len(result.SkippedPaths) == 0 {
				output = append(output, "No temporary download files found.")
			}

			if len(result.SkippedPaths) > 0 {
				output = append(output, "Skipped:")
				output = append(output, indentPaths(result.SkippedPaths)...)
			}

			writer := cmd.OutOrStdout()
			for _, line := range output {
				fmt.Fprintln(writer, line)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Show what would be removed without deleting anything")
	cmd.Flags().DurationVar(&opts.OlderThan, "older-than", 0, "Only remove files last modified at least this long ago")

	return cmd
}

func indentPaths(values []string) []string {
	lines := make([]string, len(values))
	for i, v := range values {
		lines[i] = "  " + v
	}
	return lines
}
