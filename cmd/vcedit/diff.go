package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dannyswat/vcedit"
)

var diffCmd = &cobra.Command{
	Use:   "diff <original> <edited>",
	Short: "Print the structural changes between two HTML documents",
	Args:  cobra.ExactArgs(2),
	RunE:  runDiff,
}

func runDiff(cmd *cobra.Command, args []string) error {
	before, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read original: %w", err)
	}
	after, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("read edited: %w", err)
	}
	changes, err := vcedit.Changes(string(before), string(after))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(changes) == 0 {
		fmt.Fprintln(out, "no changes")
		return nil
	}
	for _, c := range changes {
		fmt.Fprintln(out, c.String())
	}
	return nil
}
