package testsupport

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	"github.com/amonks/cserun/internal/paths"
	"github.com/amonks/cserun/internal/registry"
)

var (
	buildOnce  sync.Once
	cserunPath string
	buildErr   error
)

// BuildCserun builds the cserun binary once and returns its path.
func BuildCserun(t testing.TB) string {
	t.Helper()

	buildOnce.Do(func() {
		moduleRoot, err := findModuleRoot()
		if err != nil {
			buildErr = err
			return
		}

		binDir, err := os.MkdirTemp("", "cserun-bin-")
		if err != nil {
			buildErr = err
			return
		}

		cserunPath = filepath.Join(binDir, "cserun")
		cmd := exec.Command("go", "build", "-o", cserunPath, "./cmd/cserun")
		cmd.Dir = moduleRoot
		output, err := cmd.CombinedOutput()
		if err != nil {
			buildErr = fmt.Errorf("build cserun: %w: %s", err, strings.TrimSpace(string(output)))
		}
	})

	if buildErr != nil {
		t.Fatalf("%v", buildErr)
	}

	return cserunPath
}

// SetupScriptEnv configures common environment variables for testscript.
func SetupScriptEnv(t testing.TB, env *testscript.Env) error {
	t.Helper()

	env.Setenv("CSERUN", BuildCserun(t))

	homeDir := filepath.Join(env.WorkDir, "home")
	if err := EnsureHomeDirs(homeDir); err != nil {
		return err
	}
	env.Setenv("HOME", homeDir)
	env.Setenv("NO_COLOR", "1")
	env.Setenv("CSERUN_LOG_LEVEL", "")
	return nil
}

// CmdEnvSet stores the trimmed contents of a file in an env var.
func CmdEnvSet(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("envset does not support negation")
	}
	if len(args) != 2 {
		ts.Fatalf("usage: envset VAR FILE")
	}

	value := strings.TrimSpace(ts.ReadFile(args[1]))
	ts.Setenv(args[0], value)
}

// CmdWorkspaceID looks up the workspace registered for a root directory and
// stores its ID in an env var.
func CmdWorkspaceID(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("workspaceid does not support negation")
	}
	if len(args) != 2 {
		ts.Fatalf("usage: workspaceid ROOT VAR")
	}

	store := registry.NewStore(filepath.Join(ts.Getenv("HOME"), paths.RootDirName))
	reg, err := store.Load()
	if err != nil {
		ts.Fatalf("load registry: %v", err)
	}

	id, ok := reg.IDForRoot(ts.MkAbs(args[0]))
	if !ok {
		ts.Fatalf("no workspace registered for %s", args[0])
	}
	ts.Setenv(args[1], id)
}

func findModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find module root (go.mod)")
		}
		dir = parent
	}
}
