package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amonks/cserun/internal/paths"
	"github.com/amonks/cserun/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the current workspace's configuration changed since init",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cwd, err := paths.WorkingDir()
	if err != nil {
		return err
	}
	status, err := newResolver().Status(cwd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Workspace %s\n", ui.HighlightID(status.ID))
	fmt.Fprintf(out, "Root      %s\n", status.Root)
	switch {
	case status.BaselineMissing:
		fmt.Fprintln(out, ui.Warn("Config    baseline missing; cannot tell whether it was edited"))
	case status.Drifted():
		fmt.Fprintln(out, "Config    edited since init")
	default:
		fmt.Fprintln(out, "Config    unchanged since init")
	}
	return nil
}
