package ids

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// WorkspacePrefix starts every workspace identifier.
	WorkspacePrefix = "workspace_"

	// WorkspaceSuffixLength is the number of random characters after the prefix.
	WorkspaceSuffixLength = 16

	alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// NewWorkspaceID returns a fresh workspace identifier.
//
// Identifiers are not checked against the registry. With 62^16 possible
// suffixes a collision is treated as impossible in practice.
func NewWorkspaceID() (string, error) {
	suffix, err := Random(WorkspaceSuffixLength)
	if err != nil {
		return "", err
	}
	return WorkspacePrefix + suffix, nil
}

// Random returns n characters drawn uniformly from [A-Za-z0-9].
func Random(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	limit := big.NewInt(int64(len(alphanumeric)))
	var builder strings.Builder
	builder.Grow(n)
	for range n {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate random id: %w", err)
		}
		builder.WriteByte(alphanumeric[idx.Int64()])
	}
	return builder.String(), nil
}

// IsWorkspaceID reports whether id has the shape of a workspace identifier.
func IsWorkspaceID(id string) bool {
	suffix, ok := strings.CutPrefix(id, WorkspacePrefix)
	if !ok || len(suffix) != WorkspaceSuffixLength {
		return false
	}
	for i := 0; i < len(suffix); i++ {
		if !strings.ContainsRune(alphanumeric, rune(suffix[i])) {
			return false
		}
	}
	return true
}
