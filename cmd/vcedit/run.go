package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dannyswat/vcedit/internal/script"
)

var outputPath string

var runCmd = &cobra.Command{
	Use:   "run <file> <script.yaml>",
	Short: "Apply an edit script to a document and write the result",
	Long: `Replays the gestures and commands of a YAML edit script against the
document. The exported document is written to --output, or to stdout.`,
	Args: cobra.ExactArgs(2),
	RunE: runScript,
}

func init() {
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the edited document here instead of stdout")
}

func runScript(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	f, err := os.Open(args[1])
	if err != nil {
		return fmt.Errorf("open script: %w", err)
	}
	defer f.Close()
	sc, err := script.Parse(f)
	if err != nil {
		return err
	}

	session, cleanup, err := newSession(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := session.Open(filepath.Base(args[0]), string(content)); err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	runner := &script.Runner{Session: session, Log: logger.Named("script")}
	if err := runner.Run(sc); err != nil {
		return err
	}

	out, err := session.Export()
	if err != nil {
		return err
	}
	logger.Info("script applied",
		zap.Int("steps", len(sc.Steps)),
		zap.Int("history", session.State().History.Length))

	if outputPath == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	}
	if err := os.WriteFile(outputPath, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
