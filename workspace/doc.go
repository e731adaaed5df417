// Package workspace creates workspaces and resolves directories to them.
//
// A workspace is a root directory registered in the per-user registry
// (~/.cserunner/workspace_list.json) together with its configuration
// document (~/.cserunner/<id>/config.json). The synchronization engine reads
// that configuration; this package only creates it and finds it.
//
// # Basic Usage
//
// Create a workspace for the current directory:
//
//	store := registry.NewStore(rootDir)
//	factory := workspace.NewFactory(store, workspace.FactoryOptions{
//	    Confirmer: workspace.NewPrompter(os.Stdin, os.Stdout, 80),
//	})
//	created, err := factory.Create(workspace.CreateOptions{WorkingDir: cwd})
//
// Find the workspace governing a directory:
//
//	resolved, err := workspace.NewResolver(store, workspace.ResolverOptions{}).Resolve(cwd)
//
// When registered roots are nested, the innermost (longest) root wins.
//
// # Concurrency
//
// Create registers the workspace with a locked read-modify-write of the
// registry, so concurrent creates from separate processes never lose an
// entry. Resolution does not lock; it relies on the registry being replaced
// atomically.
//
// # Errors
//
// Failures match one of the package's sentinel errors with errors.Is:
// ErrFileDoesNotExist, ErrConfigCorrupt, ErrWorkspaceAlreadyExists,
// ErrInvalidRoot, ErrLockTimeout, ErrWorkspaceNotFound, ErrRootChanged or
// ErrAborted.
package workspace
