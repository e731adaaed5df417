package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amonks/cserun/internal/ui"
	"github.com/amonks/cserun/workspace"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered workspaces",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var listJSON bool

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	items, err := newResolver().List()
	if err != nil {
		return fmt.Errorf("list workspaces: %w", err)
	}

	out := cmd.OutOrStdout()
	if listJSON {
		return encodeJSON(out, items)
	}

	if len(items) == 0 {
		fmt.Fprintln(out, "No workspaces registered. Run cserun init in a directory to create one.")
		return nil
	}

	fmt.Fprint(out, formatWorkspaceTable(items))
	return nil
}

func formatWorkspaceTable(items []workspace.Info) string {
	builder := ui.NewTableBuilder([]string{"ID", "ROOT", "STATUS"}, len(items))
	for _, item := range items {
		status := "ok"
		if !item.RootExists {
			status = ui.Warn("missing")
		}
		builder.AddRow([]string{ui.HighlightID(item.ID), item.Root, status})
	}
	return builder.String()
}
