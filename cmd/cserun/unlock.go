package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/amonks/cserun/internal/lockfile"
	"github.com/amonks/cserun/internal/ui"
)

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Show or remove the registry lock",
	Long: `Show which process holds the registry lock.

A process that crashed while registering a workspace can leave the lock behind,
making every later init time out. With --force the lock is removed. Only do
this when the holder is no longer running.`,
	Args: cobra.NoArgs,
	RunE: runUnlock,
}

var unlockForce bool

func init() {
	rootCmd.AddCommand(unlockCmd)
	unlockCmd.Flags().BoolVar(&unlockForce, "force", false, "Remove the lock even though another process may hold it")
}

func runUnlock(cmd *cobra.Command, args []string) error {
	holder, err := current.guard.Holder()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if holder == nil {
		fmt.Fprintln(out, "Registry is not locked.")
		return nil
	}

	fmt.Fprintf(out, "Registry locked by %s\n", describeHolder(holder, time.Now()))
	if !unlockForce {
		fmt.Fprintln(out, "Run cserun unlock --force to remove the lock if that process is gone.")
		return nil
	}

	if err := current.guard.Break(); err != nil {
		return err
	}
	fmt.Fprintln(out, "Lock removed.")
	return nil
}

func describeHolder(holder *lockfile.Holder, now time.Time) string {
	desc := holder.String()
	if !holder.AcquiredAt.IsZero() {
		desc += " (" + ui.FormatTimeAgo(holder.AcquiredAt, now) + ")"
	}
	return desc
}
