// Package cli provides the command-line interface wrapping the panel
// engine: a thin driver invoking mapping load, per-wave pipeline, merge,
// validation, and export, in that order.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hxia920/PSID/internal/cli/commands"
	"github.com/hxia920/PSID/internal/cli/config"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

var cfgFile string

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "psid",
		Short: "PSID - longitudinal survey panel builder",
		Long: `psid converts per-wave PSID files with wave-specific variable names into
one normalized long-format panel keyed by (person, wave year), driven by a
declarative variable-mapping table.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			commands.Setup(cfg, logger)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./psid.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "Path to the raw wave data directory")
	rootCmd.PersistentFlags().String("mapping", "", "Path to the variable-mapping YAML")
	rootCmd.PersistentFlags().String("state", "", "Path to the run-history database")
	rootCmd.PersistentFlags().Int("workers", 0, "Concurrent wave workers (0 = all CPUs)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(commands.NewBuildCommand())
	rootCmd.AddCommand(commands.NewCheckCommand())
	rootCmd.AddCommand(commands.NewWavesCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version, GitCommit))

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
