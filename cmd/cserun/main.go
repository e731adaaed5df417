// Package main implements the cserun CLI tool.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/amonks/cserun/internal/config"
	"github.com/amonks/cserun/internal/lockfile"
	"github.com/amonks/cserun/internal/logging"
	"github.com/amonks/cserun/internal/paths"
	"github.com/amonks/cserun/internal/registry"
	"github.com/amonks/cserun/workspace"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var exitErr interface{ ExitCode() int }
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

var rootCmd = &cobra.Command{
	Use:               "cserun",
	Short:             "Register directories as workspaces for remote synchronization",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: bootstrap,
}

var (
	rootLogLevel string
	rootDirFlag  string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "", "Diagnostic log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&rootDirFlag, "root-dir", "", "Root storage directory (default ~/"+paths.RootDirName+")")
	_ = rootCmd.PersistentFlags().MarkHidden("root-dir")
}

// app holds what every command needs once the root directory exists.
type app struct {
	store  *registry.Store
	guard  *lockfile.Guard
	logger *slog.Logger
}

var current *app

// bootstrap loads settings, configures logging, and makes sure the root
// storage directory and an empty registry exist.
func bootstrap(cmd *cobra.Command, args []string) error {
	settingsPath, err := paths.DefaultSettingsPath()
	if err != nil {
		return err
	}
	settings, err := config.Load(settingsPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cmd.ErrOrStderr(), logging.SelectLevel(rootLogLevel, settings.Log.Level))
	if err != nil {
		return err
	}

	rootDir, err := paths.ResolveWithDefault(rootDirFlag, paths.DefaultRootDir)
	if err != nil {
		return err
	}
	store := registry.NewStore(rootDir)

	lockOpts := settings.LockOptions()
	lockOpts.Logger = logger
	guard := lockfile.New(store.LockPath(), lockOpts)

	created, err := store.Init(guard)
	if err != nil {
		return err
	}
	if created {
		logger.Info("created root directory", "dir", rootDir)
	}

	current = &app{store: store, guard: guard, logger: logger}
	return nil
}

func newResolver() *workspace.Resolver {
	return workspace.NewResolver(current.store, workspace.ResolverOptions{Logger: current.logger})
}

// resolveWorkingDir resolves the workspace owning the current directory.
func resolveWorkingDir() (*workspace.Resolved, error) {
	cwd, err := paths.WorkingDir()
	if err != nil {
		return nil, err
	}
	return newResolver().Resolve(cwd)
}
