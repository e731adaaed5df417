// Package registry persists the mapping from workspace identifiers to the root
// directories they govern.
//
// The registry document (~/.cserunner/workspace_list.json) is shared by every
// cserun process. Store performs no locking of its own: callers that mutate
// the registry hold the sentinel lock (see package lockfile) across the whole
// load-modify-save sequence. Saves replace the document atomically, so
// unlocked readers always observe a complete, previously committed registry.
package registry

import (
	"path/filepath"
	"sort"
)

// Registry is the decoded registry document.
type Registry struct {
	WorkspaceMapping map[string]string `json:"workspace_mapping"`
}

// Entry is one registered workspace.
type Entry struct {
	ID   string
	Root string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{WorkspaceMapping: make(map[string]string)}
}

// Add registers root under id, replacing any previous root for id.
func (r *Registry) Add(id, root string) {
	if r.WorkspaceMapping == nil {
		r.WorkspaceMapping = make(map[string]string)
	}
	r.WorkspaceMapping[id] = root
}

// Root returns the root registered for id.
func (r *Registry) Root(id string) (string, bool) {
	root, ok := r.WorkspaceMapping[id]
	return root, ok
}

// IDForRoot returns the workspace registered at root. Paths are compared after
// cleaning. If several identifiers claim the same root the smallest wins.
func (r *Registry) IDForRoot(root string) (string, bool) {
	root = filepath.Clean(root)
	found := ""
	for id, candidate := range r.WorkspaceMapping {
		if filepath.Clean(candidate) != root {
			continue
		}
		if found == "" || id < found {
			found = id
		}
	}
	return found, found != ""
}

// Entries returns every registered workspace ordered by root, then id.
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, 0, len(r.WorkspaceMapping))
	for id, root := range r.WorkspaceMapping {
		entries = append(entries, Entry{ID: id, Root: root})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Root != entries[j].Root {
			return entries[i].Root < entries[j].Root
		}
		return entries[i].ID < entries[j].ID
	})
	return entries
}

// Len returns the number of registered workspaces.
func (r *Registry) Len() int {
	return len(r.WorkspaceMapping)
}
