// Package main is the vcedit command line: it serves a visual editing
// session over HTTP, replays edit scripts against a document and prints the
// structural changes between two documents.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dannyswat/vcedit/internal/config"
	"github.com/dannyswat/vcedit/internal/logging"
)

var (
	// Global flags
	configPath string
	logLevel   string
	verbose    bool

	// Set up by the root command before any subcommand runs.
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "vcedit",
	Short: "vcedit - visual editor for standalone HTML documents",
	Long: `vcedit loads an HTML document into an editing session with three modes:
content editing, multi-selection with style and structure commands, and
pointer-driven repositioning. Every committed edit lands in an undo history
of full-document snapshots.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadOrDefault(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = logLevel
		}
		if verbose {
			cfg.Log.Level = "debug"
			cfg.Log.Development = true
		}
		logger, err = logging.New(cfg.Log.Level, cfg.Log.Development)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "vcedit.yaml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose development logging")

	rootCmd.AddCommand(serveCmd, runCmd, diffCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
