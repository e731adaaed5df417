package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amonks/cserun/internal/ui"
)

var whereCmd = &cobra.Command{
	Use:   "where",
	Short: "Print the workspace that owns the current directory",
	Args:  cobra.NoArgs,
	RunE:  runWhere,
}

func init() {
	rootCmd.AddCommand(whereCmd)
}

func runWhere(cmd *cobra.Command, args []string) error {
	resolved, err := resolveWorkingDir()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.HighlightID(resolved.ID), resolved.Root)
	return nil
}
