package main

import (
	"fmt"
	"os"

	"github.com/everest-mods/everest-mod-cli/internal/config"
	"github.com/everest-mods/everest-mod-cli/internal/utils/file"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// createConfigCommand creates the config subcommand
func createConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage the everest-mod-cli configuration file.

Available commands:
  init    Write a configuration file with default values
  show    Print the effective configuration`,
	}

	configCmd.AddCommand(createConfigInitCommand())
	configCmd.AddCommand(createConfigShowCommand())

	return configCmd
}

// createConfigInitCommand creates the config init subcommand
func createConfigInitCommand() *cobra.Command {
	var force bool

	initCmd := &cobra.Command{
		Use:   "init [config-file]",
		Short: "Initialize a new configuration file",
		Long: `Initialize a new configuration file with default values.

If no path is specified, the file is created as
$XDG_CONFIG_HOME/everest-mod-cli/config.yaml (~/.config when unset).

Examples:
  # Create config in the default location
  everest-mod-cli config init

  # Create config at a specific location
  everest-mod-cli config init ./everest-mod-cli.yml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeConfigInit(cmd, args, force)
		},
	}

	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration file")

	return initCmd
}

// executeConfigInit handles the config init command logic
func executeConfigInit(cmd *cobra.Command, args []string, force bool) error {
	out := cmd.OutOrStdout()

	configPath := config.DefaultConfigPath()
	if len(args) > 0 {
		configPath = args[0]
	}
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file %s already exists; use --force to overwrite", configPath)
	}

	defaultConfig := config.DefaultGlobalConfig()
	if err := defaultConfig.SaveGlobalConfigWithComments(configPath); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	printSuccess(out, "Configuration file created at: %s", file.ReplaceHomeDirWithTilde(configPath))
	fmt.Fprintln(out)
	printTitle(out, "Default configuration settings:")
	printConfig(cmd, defaultConfig)
	fmt.Fprintln(out)
	printInfo(out, "Edit the configuration file to customize these settings.")

	return nil
}

func createConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration after the configuration file and command-line
flags have been applied, as YAML.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(config.Global())
			if err != nil {
				return fmt.Errorf("encoding configuration: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func printConfig(cmd *cobra.Command, gc *config.GlobalConfig) {
	out := cmd.OutOrStdout()
	printKeyValue(out, "Mods Dir", file.ReplaceHomeDirWithTilde(gc.ModsDir))
	printKeyValue(out, "Mirrors", gc.MirrorPriority)
	printKeyValue(out, "Workers", fmt.Sprint(gc.Workers))
	printKeyValue(out, "Registry", gc.RegistryURL)
	printKeyValue(out, "Graph", gc.DependencyGraphURL)
	printKeyValue(out, "Log Level", gc.Logging.Level)
	printKeyValue(out, "Log File", file.ReplaceHomeDirWithTilde(gc.Logging.File))
}
