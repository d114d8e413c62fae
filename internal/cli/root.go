// Package cli provides the command-line interface for contrastlens.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/contrastlens/internal/colour"
	"github.com/jmylchreest/contrastlens/internal/config"
	"github.com/jmylchreest/contrastlens/internal/logging"
	"github.com/jmylchreest/contrastlens/internal/version"
)

// ErrViolationsFound is returned by --strict runs that find failing blocks or pairs.
var ErrViolationsFound = errors.New("contrast violations found")

var (
	// Global flags
	globalConfigPath string
	globalVerbose    bool
	globalQuiet      bool
	globalNoColour   bool

	// Loaded in PersistentPreRunE, shared by all commands.
	appConfig *config.Config
	appLogger hclog.Logger

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "contrastlens",
		Short: "Find low-contrast regions in screenshots",
		Long: `contrastlens scans a screenshot for regions whose two dominant colours fail
the WCAG AA contrast ratio of 3:1.

The image is split into a grid of blocks. For each block the two dominant
colours are found with k-means, their contrast ratio is computed, and blocks
below 3:1 are reported with a severity score between 0 and 1.`,
		Version:           version.Short(),
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&globalConfigPath, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&globalVerbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&globalQuiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&globalNoColour, "no-colour", false, "disable ANSI colour output")
	rootCmd.PersistentFlags().String("log-level", config.DefaultLogLevel, "log level (trace, debug, info, warn, error, off)")
	rootCmd.PersistentFlags().Bool("log-json", false, "emit logs as JSON")

	// Set version template
	rootCmd.SetVersionTemplate(version.String() + "\n")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(pairCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadConfig merges the config file, environment and flags, then builds the logger.
func loadConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(globalConfigPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.ApplyFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level := cfg.LogLevel
	if globalVerbose {
		level = "debug"
	}
	appConfig = cfg
	appLogger = logging.New(logging.Options{
		Name:  "contrastlens",
		Level: level,
		JSON:  cfg.LogJSON,
		Quiet: globalQuiet,
	})

	if globalNoColour {
		colour.DisableColourOutput = true
	}
	return nil
}

// verbosef writes a progress line to stderr when --verbose is set.
func verbosef(format string, args ...any) {
	if globalVerbose && !globalQuiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print detailed version information including build date, commit hash, and Go version.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String())
	},
}
