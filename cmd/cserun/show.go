package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amonks/cserun/internal/markdown"
	"github.com/amonks/cserun/workspace"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the configuration of the current workspace",
	Args:  cobra.NoArgs,
	RunE:  runShow,
}

var showJSON bool

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output the configuration document as JSON")
}

func runShow(cmd *cobra.Command, args []string) error {
	resolved, err := resolveWorkingDir()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if showJSON {
		data, err := resolved.Config.Encode()
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}

	rendered := markdown.Render(terminalWidth(), 0, []byte(configMarkdown(resolved)))
	_, err = fmt.Fprintf(out, "%s\n", rendered)
	return err
}

// configMarkdown summarizes a workspace configuration. The password is never
// printed.
func configMarkdown(resolved *workspace.Resolved) string {
	cfg := resolved.Config
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", resolved.ID)
	fmt.Fprintf(&b, "Root: `%s`\n\n", resolved.Root)
	fmt.Fprintf(&b, "Config: `%s`\n\n", filepath.Join(resolved.Dir, workspace.ConfigFileName))

	b.WriteString("## Server\n\n")
	fmt.Fprintf(&b, "- Address: `%s@%s:%d`\n", cfg.Server.Username, cfg.Server.Host, cfg.Server.Port)
	fmt.Fprintf(&b, "- Identity file: `%s`\n", cfg.Auth.IdentityFile)
	if cfg.Auth.Password != "" {
		b.WriteString("- Password: set\n")
	}

	b.WriteString("\n## Sync\n\n")
	fmt.Fprintf(&b, "- Type: %s\n", cfg.Sync.SyncType)
	fmt.Fprintf(&b, "- Frequency: %ds, early stop %ds, lifetime %ds\n", cfg.Sync.Frequency, cfg.Sync.EarlyStop, cfg.Sync.Lifetime)
	fmt.Fprintf(&b, "- Threads: %s\n", threadsLabel(cfg.Sync.NThreads))
	fmt.Fprintf(&b, "- Timeout: %ds\n", cfg.Sync.Timeout)
	fmt.Fprintf(&b, "- Space limit: %d %s\n", cfg.Sync.MaxSyncSpaceSize, cfg.Sync.MaxSyncSpaceUnit)
	fmt.Fprintf(&b, "- Ignore binary files: %s\n", yesNo(cfg.Sync.IgnoreBinary))
	fmt.Fprintf(&b, "- Alert on removal: %s\n", yesNo(cfg.Sync.RmAlert))
	fmt.Fprintf(&b, "- Compress: %s\n", yesNo(cfg.Sync.CompressWhileSync))

	writeList(&b, "Ignore patterns", cfg.Sync.Ignore)
	writeList(&b, "Extra ignore files", cfg.Sync.ExtraIgnoreFile)
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	fmt.Fprintf(b, "\n### %s\n\n", title)
	if len(items) == 0 {
		b.WriteString("None.\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- `%s`\n", item)
	}
}

func threadsLabel(n int8) string {
	if n < 0 {
		return "automatic"
	}
	return fmt.Sprintf("%d", n)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
