// Package cli provides the command-line interface for leapcatalog.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/leapcatalog/internal/cli/commands"
	cliconfig "github.com/leapstack-labs/leapcatalog/internal/cli/config"
	"github.com/spf13/cobra"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "leapcatalog",
		Short: "leapcatalog - Stored Procedure Lineage Extractor",
		Long: `leapcatalog scans database stored procedures, extracts table-level
lineage from their bodies, and emits metadata change proposals for a
data catalog.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := cliconfig.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			ctx := cliconfig.WithConfig(cmd.Context(), cfg)
			ctx = cliconfig.WithLogger(ctx, logger)
			cmd.SetContext(ctx)

			if cfg.Verbose {
				if configFile := cliconfig.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./leapcatalog.yaml)")
	rootCmd.PersistentFlags().String("platform", "", "Source platform identifier (e.g. postgres, mssql)")
	rootCmd.PersistentFlags().String("platform-instance", "", "Platform instance name")
	rootCmd.PersistentFlags().String("database", "", "Database to scan")
	rootCmd.PersistentFlags().String("env", "", "Environment name (e.g. PROD)")
	rootCmd.PersistentFlags().String("container-name", "", "Name of the procedures container")
	rootCmd.PersistentFlags().String("external-url", "", "URL linking emitted entities to a source UI")
	rootCmd.PersistentFlags().Bool("strict", false, "Fail the run when any statement cannot be parsed")
	rootCmd.PersistentFlags().Int("workers", 0, "Concurrent procedure extractions")
	rootCmd.PersistentFlags().String("state", "", "Path to the run-history database")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	// Source flags
	rootCmd.PersistentFlags().String("source-type", "", "Procedure source (postgres|static)")
	rootCmd.PersistentFlags().String("source-host", "", "Source database host")
	rootCmd.PersistentFlags().Int("source-port", 0, "Source database port")
	rootCmd.PersistentFlags().String("source-user", "", "Source database user")
	rootCmd.PersistentFlags().String("source-password", "", "Source database password")
	rootCmd.PersistentFlags().String("source-sslmode", "", "Source database sslmode")

	// Sink flags
	rootCmd.PersistentFlags().String("sink-type", "", "Proposal sink (file|rest|stdout)")
	rootCmd.PersistentFlags().String("sink-path", "", "Output path for the file sink")
	rootCmd.PersistentFlags().String("sink-endpoint", "", "Endpoint for the rest sink")
	rootCmd.PersistentFlags().String("sink-token", "", "Bearer token for the rest sink")

	// Add subcommands
	rootCmd.AddCommand(commands.NewExtractCommand())
	rootCmd.AddCommand(commands.NewRunsCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version, GitCommit, BuildDate))

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
