package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tnk4on/edxctl/internal/config"
	"github.com/tnk4on/edxctl/internal/logging"
	"github.com/tnk4on/edxctl/internal/plugins"
)

var (
	rootDir    string
	pluginsDir string
	logFile    string
	verbose    bool
	jsonOut    bool
	dryRun     bool

	cfg      *config.Config
	registry *plugins.Registry

	closeLog func() error
)

var rootCmd = &cobra.Command{
	Use:   "edxctl",
	Short: "edxctl - build, pull and push the container images of an Open edX platform",
	Long: `edxctl manages the container images of an Open edX deployment.

It provides:
  - Builds of the platform images, plugin images and dev images
  - Pulls of platform, vendor and plugin images
  - Pushes of platform and plugin images
  - Project configuration management

Images are selected by name, or with "all" for every image.
Each command wraps the docker CLI transparently.
   Use --verbose to see the actual commands being executed.
   Use --dry-run to see commands without executing them.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(cmd); err != nil {
			return err
		}

		// Commands that never read the project
		switch cmd.Name() {
		case "version", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return nil
		}

		return loadProject()
	},
}

func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func ExecuteWithContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&rootDir, "root", "r", "",
		"project root (default is $EDXCTL_ROOT or ~/.local/share/edxctl)")
	rootCmd.PersistentFlags().StringVar(&pluginsDir, "plugins-dir", "",
		"plugin manifests directory (default is $EDXCTL_PLUGINS_ROOT or ~/.config/edxctl/plugins)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose output (shows equivalent docker commands)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false,
		"output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false,
		"show equivalent docker commands without executing")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"also write logs to this file (rotated)")

	// Add subcommands
	rootCmd.AddCommand(imagesCmd)
	rootCmd.AddCommand(pluginsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(completionCmd)
}

func setupLogging(cmd *cobra.Command) error {
	closeLogFile()
	var err error
	closeLog, err = logging.Setup(logging.Options{
		Verbose: verbose,
		File:    logFile,
		Console: cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	return nil
}

func closeLogFile() {
	if closeLog == nil {
		return
	}
	if err := closeLog(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
	}
	closeLog = nil
}

// loadProject loads the configuration of the project root and the
// plugins it enables. Plugin defaults are merged below user values.
func loadProject() error {
	root := rootDir
	if root == "" {
		root = config.DefaultRoot()
	}

	var err error
	cfg, err = config.Load(root)
	if err != nil {
		return err
	}

	dir := pluginsDir
	if dir == "" {
		dir = plugins.DefaultDir()
	}
	registry, err = plugins.Load(cfg, dir, version)
	if err != nil {
		return err
	}
	cfg.MergeDefaults(registry.ConfigDefaults())

	if err := cfg.Validate(); err != nil {
		return err
	}

	logrus.Debugf("Project root: %s (%d plugins enabled)", cfg.Root(), len(registry.Plugins()))
	return nil
}

func getConfig() *config.Config {
	if cfg == nil {
		return config.DefaultConfig()
	}
	return cfg
}

func getRegistry() *plugins.Registry {
	if registry == nil {
		return plugins.NewRegistry()
	}
	return registry
}
