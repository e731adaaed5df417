package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/amonks/cserun/internal/editor"
	"github.com/amonks/cserun/internal/ui"
	"github.com/amonks/cserun/workspace"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the configuration of the current workspace in $EDITOR",
	Args:  cobra.NoArgs,
	RunE:  runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	resolved, err := resolveWorkingDir()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(filepath.Join(resolved.Dir, workspace.ConfigFileName))
	if err != nil {
		return err
	}
	edited, err := editor.EditBytes(data, "cserun-config-*.json", cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	_, changed, err := workspace.UpdateConfig(resolved, edited)
	if err != nil {
		return fmt.Errorf("edit: %w", err)
	}

	out := cmd.OutOrStdout()
	if !changed {
		fmt.Fprintln(out, "No changes.")
		return nil
	}
	fmt.Fprintf(out, "Updated configuration for workspace %s\n", ui.HighlightID(resolved.ID))
	return nil
}
