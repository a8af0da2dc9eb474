package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/everest-mods/everest-mod-cli/internal/config"
	"github.com/everest-mods/everest-mod-cli/internal/modpackage/mirror"
	"github.com/everest-mods/everest-mod-cli/internal/utils/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// rootFlags are the command-line overrides for config file settings.
type rootFlags struct {
	configFile string
	logLevel   string // empty means use config file value
	verbose    bool
	modsDir    string
	workers    int
	mirrors    mirrorPriorityValue
}

// mirrorPriorityValue rejects unknown mirror IDs at flag parsing time.
type mirrorPriorityValue struct {
	raw string
}

var _ pflag.Value = (*mirrorPriorityValue)(nil)

func (v *mirrorPriorityValue) String() string { return v.raw }

func (v *mirrorPriorityValue) Set(s string) error {
	if _, err := mirror.ParsePriority(s); err != nil {
		return err
	}
	v.raw = s
	return nil
}

func (v *mirrorPriorityValue) Type() string { return "mirrors" }

var closeLogger = func() {}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := createRootCommand()
	err := rootCmd.ExecuteContext(ctx)

	stop()
	closeLogger()
	if err != nil {
		os.Exit(1)
	}
}

// createRootCommand creates and configures the root cobra command with all subcommands
func createRootCommand() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "everest-mod-cli",
		Short: "Command-line mod manager for Celeste and Everest",
		Long: `everest-mod-cli installs and updates Celeste mods from the command line.

Mods are looked up in the Everest update registry, their dependencies are
resolved through the mod dependency graph, and archives are downloaded
concurrently from the GameBanana mirrors and checked against their xxHash
before they are placed in the Mods directory.

Use 'everest-mod-cli --help' to see available commands.
Use 'everest-mod-cli <command> --help' for more information about a command.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupGlobalConfig(cmd, flags)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "",
		"Path to configuration file")
	pf.StringVar(&flags.logLevel, "log-level", "",
		"Log level (debug, info, warn, error)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false,
		"Enable debug logging")
	pf.StringVarP(&flags.modsDir, "mods-dir", "d", "",
		"Celeste Mods directory (overrides configuration file)")
	pf.IntVarP(&flags.workers, "workers", "w", 0,
		fmt.Sprintf("Concurrent downloads, 1-%d (overrides configuration file)", config.MaxWorkers))
	pf.VarP(&flags.mirrors, "mirror-priority", "m",
		"Comma-separated mirror IDs tried in order, e.g. "+mirror.DefaultPriority)

	rootCmd.AddCommand(createInstallCommand())
	rootCmd.AddCommand(createListCommand())
	rootCmd.AddCommand(createShowCommand())
	rootCmd.AddCommand(createUpdateCommand())
	rootCmd.AddCommand(createCleanCommand())
	rootCmd.AddCommand(createConfigCommand())
	rootCmd.AddCommand(createVersionCommand())

	return rootCmd
}

// setupGlobalConfig loads the configuration file, applies flag overrides and
// initializes the logger before any subcommand runs.
func setupGlobalConfig(cmd *cobra.Command, flags *rootFlags) error {
	configFilePath := flags.configFile
	if configFilePath == "" {
		configFilePath = config.FindConfigFile()
	}

	globalConfig, err := config.LoadGlobalConfig(configFilePath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	if flags.modsDir != "" {
		globalConfig.ModsDir = flags.modsDir
	}
	if cmd.Flags().Changed("workers") {
		globalConfig.Workers = flags.workers
	}
	if flags.mirrors.raw != "" {
		globalConfig.MirrorPriority = flags.mirrors.raw
	}
	if flags.logLevel != "" {
		globalConfig.Logging.Level = flags.logLevel
	}
	if flags.verbose {
		globalConfig.Logging.Level = "debug"
	}
	if err := globalConfig.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	config.SetGlobal(globalConfig)

	closeLogger()
	_, cleanup, err := logger.InitWithConfig(logger.Config{
		Level:    globalConfig.Logging.Level,
		FilePath: globalConfig.Logging.File,
	})
	if err != nil {
		return err
	}
	closeLogger = cleanup

	log := logger.Logger()
	if configFilePath != "" {
		log.Infof("Using configuration from: %s", configFilePath)
	}
	log.Debugf("Config: workers=%d, mods_dir=%s, mirror_priority=%s",
		globalConfig.Workers, globalConfig.ModsDir, globalConfig.MirrorPriority)
	return nil
}
