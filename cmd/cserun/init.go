package main

import (
	"fmt"
	"path/filepath"

	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"

	"github.com/amonks/cserun/internal/paths"
	"github.com/amonks/cserun/internal/ui"
	"github.com/amonks/cserun/workspace"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a workspace for the current directory",
	Long: `Create a workspace for the current directory.

The workspace root defaults to the current directory, or to the "root" field of
the configuration file given with --config. Unless --yes is given, the root is
confirmed interactively before anything is written.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var (
	initConfigPath string
	initYes        bool
)

func init() {
	rootCmd.AddCommand(initCmd)
	addInitFlagAliases(initCmd)
	initCmd.Flags().StringVarP(&initConfigPath, "config", "c", "", "Configuration file to start from (JSON or YAML)")
	initCmd.Flags().BoolVarP(&initYes, "yes", "y", false, "Accept the root without asking")
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := paths.WorkingDir()
	if err != nil {
		return err
	}

	var confirmer workspace.Confirmer = workspace.AutoConfirm{}
	if !initYes {
		confirmer = workspace.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout(), terminalWidth())
	}

	factory := workspace.NewFactory(current.store, workspace.FactoryOptions{
		Guard:     current.guard,
		Confirmer: confirmer,
		Logger:    current.logger,
	})
	created, err := factory.Create(workspace.CreateOptions{
		ConfigPath: initConfigPath,
		WorkingDir: cwd,
	})
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created workspace %s for %s\n", ui.HighlightID(created.ID), created.Root)
	fmt.Fprintln(out, wordwrap.String(fmt.Sprintf(
		"Workspace files are in %s. Edit %s to change the server and sync settings.",
		created.Dir, filepath.Join(created.Dir, workspace.ConfigFileName),
	), terminalWidth()))
	return nil
}
