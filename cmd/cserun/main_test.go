package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/amonks/cserun/internal/paths"
	"github.com/amonks/cserun/internal/testsupport"
	"github.com/amonks/cserun/workspace"
)

type cliResult struct {
	stdout string
	stderr string
	err    error
}

// runCLI executes the root command in-process with fresh flag values.
func runCLI(t *testing.T, stdin string, args ...string) cliResult {
	t.Helper()

	rootLogLevel, rootDirFlag = "", ""
	initConfigPath, initYes = "", false
	showJSON, listJSON, unlockForce = false, false, false
	current = nil

	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	err := rootCmd.Execute()
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// setupCLI gives the test a fresh home directory and a project directory to
// work in, and returns the project directory.
func setupCLI(t *testing.T) string {
	t.Helper()
	testsupport.SetupTestHome(t)
	t.Setenv("NO_COLOR", "1")
	t.Setenv("CSERUN_LOG_LEVEL", "")

	project := t.TempDir()
	t.Chdir(project)
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	return cwd
}

func initWorkspace(t *testing.T) string {
	t.Helper()
	res := runCLI(t, "", "init", "--yes")
	if res.err != nil {
		t.Fatalf("init: %v", res.err)
	}
	id := strings.Fields(strings.TrimPrefix(res.stdout, "Created workspace "))[0]
	return id
}

func rootDir(t *testing.T) string {
	t.Helper()
	dir, err := paths.DefaultRootDir()
	if err != nil {
		t.Fatalf("root dir: %v", err)
	}
	return dir
}

func TestRootCommandName(t *testing.T) {
	if rootCmd.Use != "cserun" {
		t.Fatalf("expected root command name cserun, got %q", rootCmd.Use)
	}
}

type codedError struct{ code int }

func (e codedError) Error() string { return fmt.Sprintf("exit %d", e.code) }
func (e codedError) ExitCode() int { return e.code }

func TestExitCode(t *testing.T) {
	if got := exitCode(errors.New("plain")); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := exitCode(fmt.Errorf("wrapped: %w", codedError{code: 3})); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestBootstrapCreatesRegistry(t *testing.T) {
	setupCLI(t)

	res := runCLI(t, "", "list")
	if res.err != nil {
		t.Fatalf("list: %v", res.err)
	}
	if !strings.Contains(res.stdout, "No workspaces registered") {
		t.Fatalf("unexpected output %q", res.stdout)
	}

	data, err := os.ReadFile(filepath.Join(rootDir(t), "workspace_list.json"))
	if err != nil {
		t.Fatalf("read registry: %v", err)
	}
	if string(data) != "{\n  \"workspace_mapping\": {}\n}\n" {
		t.Fatalf("unexpected registry %q", data)
	}
}

func TestInitThenWhere(t *testing.T) {
	project := setupCLI(t)
	id := initWorkspace(t)

	if err := os.MkdirAll(filepath.Join(project, "src", "pkg"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	t.Chdir(filepath.Join(project, "src", "pkg"))

	res := runCLI(t, "", "where")
	if res.err != nil {
		t.Fatalf("where: %v", res.err)
	}
	if res.stdout != id+" "+project+"\n" {
		t.Fatalf("unexpected output %q", res.stdout)
	}
}

func TestInitTwiceFails(t *testing.T) {
	setupCLI(t)
	initWorkspace(t)

	res := runCLI(t, "", "init", "-y")
	if !errors.Is(res.err, workspace.ErrWorkspaceAlreadyExists) {
		t.Fatalf("expected ErrWorkspaceAlreadyExists, got %v", res.err)
	}
	if exitCode(res.err) != 1 {
		t.Fatalf("expected exit code 1, got %d", exitCode(res.err))
	}
}

func TestInitPromptsForRoot(t *testing.T) {
	project := setupCLI(t)
	if err := os.Mkdir(filepath.Join(project, "app"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	res := runCLI(t, "n\nmissing\nn\napp\ny\n", "init")
	if res.err != nil {
		t.Fatalf("init: %v", res.err)
	}
	if !strings.Contains(strings.Join(strings.Fields(res.stdout), " "), "Please enter a valid directory.") {
		t.Fatalf("expected invalid directory message, got %q", res.stdout)
	}
	if !strings.Contains(res.stdout, "for "+filepath.Join(project, "app")+"\n") {
		t.Fatalf("expected workspace for app dir, got %q", res.stdout)
	}
}

func TestInitWithConfigFile(t *testing.T) {
	project := setupCLI(t)
	cfg := workspace.DefaultConfig()
	cfg.Server.Host = "build.example.com"
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(filepath.Join(project, "sync.json"), data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	res := runCLI(t, "", "init", "-y", "-c", "sync.json")
	if res.err != nil {
		t.Fatalf("init: %v", res.err)
	}

	res = runCLI(t, "", "show", "--json")
	if res.err != nil {
		t.Fatalf("show: %v", res.err)
	}
	shown, err := workspace.ParseConfig([]byte(res.stdout))
	if err != nil {
		t.Fatalf("parse shown config: %v", err)
	}
	if shown.Server.Host != "build.example.com" || shown.Root != project {
		t.Fatalf("unexpected config %+v", shown)
	}
}

func TestInitMissingConfigFile(t *testing.T) {
	setupCLI(t)

	res := runCLI(t, "", "init", "-y", "--config", "nope.json")
	if !errors.Is(res.err, workspace.ErrFileDoesNotExist) {
		t.Fatalf("expected ErrFileDoesNotExist, got %v", res.err)
	}
}

func TestWhereOutsideWorkspace(t *testing.T) {
	setupCLI(t)

	res := runCLI(t, "", "where")
	if !errors.Is(res.err, workspace.ErrWorkspaceNotFound) {
		t.Fatalf("expected ErrWorkspaceNotFound, got %v", res.err)
	}
}

func TestShowMarkdownHidesPassword(t *testing.T) {
	setupCLI(t)
	id := initWorkspace(t)

	res := runCLI(t, "", "show")
	if res.err != nil {
		t.Fatalf("show: %v", res.err)
	}
	for _, want := range []string{id, "Server", "root@localhost:22", "Password: set", "*.tmp"} {
		if !strings.Contains(res.stdout, want) {
			t.Fatalf("expected %q in output %q", want, res.stdout)
		}
	}
	if strings.Contains(res.stdout, `"password"`) || strings.Contains(res.stdout, ": password") {
		t.Fatalf("expected password to stay hidden, got %q", res.stdout)
	}
}

func TestStatusReportsDrift(t *testing.T) {
	setupCLI(t)
	id := initWorkspace(t)

	res := runCLI(t, "", "status")
	if res.err != nil {
		t.Fatalf("status: %v", res.err)
	}
	if !strings.Contains(res.stdout, "unchanged since init") {
		t.Fatalf("expected unchanged status, got %q", res.stdout)
	}

	configPath := filepath.Join(rootDir(t), id, workspace.ConfigFileName)
	cfg, err := workspace.ReadConfig(configPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	cfg.Sync.Frequency = 30
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	res = runCLI(t, "", "status")
	if res.err != nil {
		t.Fatalf("status: %v", res.err)
	}
	if !strings.Contains(res.stdout, "edited since init") {
		t.Fatalf("expected edited status, got %q", res.stdout)
	}
}

func TestListJSON(t *testing.T) {
	project := setupCLI(t)
	id := initWorkspace(t)

	res := runCLI(t, "", "list", "--json")
	if res.err != nil {
		t.Fatalf("list: %v", res.err)
	}
	var items []workspace.Info
	if err := json.Unmarshal([]byte(res.stdout), &items); err != nil {
		t.Fatalf("parse list: %v", err)
	}
	if len(items) != 1 || items[0].ID != id || items[0].Root != project || !items[0].RootExists {
		t.Fatalf("unexpected items %+v", items)
	}

	res = runCLI(t, "", "list")
	if res.err != nil {
		t.Fatalf("list: %v", res.err)
	}
	if !strings.HasPrefix(res.stdout, "ID") || !strings.Contains(res.stdout, id) {
		t.Fatalf("unexpected table %q", res.stdout)
	}
}

func TestUnlock(t *testing.T) {
	setupCLI(t)

	res := runCLI(t, "", "unlock")
	if res.err != nil {
		t.Fatalf("unlock: %v", res.err)
	}
	if res.stdout != "Registry is not locked.\n" {
		t.Fatalf("unexpected output %q", res.stdout)
	}

	sentinel := filepath.Join(rootDir(t), "workspace_list.json.lock")
	if err := os.WriteFile(sentinel, []byte(`{"token":"t","pid":4242,"acquired_at":"2026-01-02T03:04:05Z"}`), 0o644); err != nil {
		t.Fatalf("write sentinel: %v", err)
	}

	res = runCLI(t, "", "unlock")
	if res.err != nil {
		t.Fatalf("unlock: %v", res.err)
	}
	if !strings.Contains(res.stdout, "Registry locked by pid 4242") {
		t.Fatalf("unexpected output %q", res.stdout)
	}
	if _, err := os.Stat(sentinel); err != nil {
		t.Fatalf("expected sentinel to remain without --force: %v", err)
	}

	res = runCLI(t, "", "unlock", "--force")
	if res.err != nil {
		t.Fatalf("unlock --force: %v", res.err)
	}
	if _, err := os.Stat(sentinel); !os.IsNotExist(err) {
		t.Fatalf("expected sentinel to be removed, stat error: %v", err)
	}
}

func TestSettingsLockTimeout(t *testing.T) {
	setupCLI(t)
	settingsPath, err := paths.DefaultSettingsPath()
	if err != nil {
		t.Fatalf("settings path: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(settingsPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(settingsPath, []byte("[lock]\ntimeout = \"50ms\"\npoll-interval = \"5ms\"\n"), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	// Create the registry first so bootstrap does not need the lock.
	if res := runCLI(t, "", "list"); res.err != nil {
		t.Fatalf("list: %v", res.err)
	}
	if err := os.WriteFile(filepath.Join(rootDir(t), "workspace_list.json.lock"), nil, 0o644); err != nil {
		t.Fatalf("write sentinel: %v", err)
	}

	res := runCLI(t, "", "init", "-y")
	if !errors.Is(res.err, workspace.ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %v", res.err)
	}

	entries, err := os.ReadDir(rootDir(t))
	if err != nil {
		t.Fatalf("read root dir: %v", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			t.Fatalf("expected no workspace directory after timeout, found %s", entry.Name())
		}
	}
}

func TestInvalidLogLevel(t *testing.T) {
	setupCLI(t)

	res := runCLI(t, "", "--log-level", "loud", "list")
	if res.err == nil || !strings.Contains(res.err.Error(), "unknown log level") {
		t.Fatalf("expected log level error, got %v", res.err)
	}
}

func TestDebugLoggingGoesToStderr(t *testing.T) {
	setupCLI(t)

	res := runCLI(t, "", "--log-level", "debug", "init", "-y")
	if res.err != nil {
		t.Fatalf("init: %v", res.err)
	}
	if !strings.Contains(res.stderr, "workspace created") {
		t.Fatalf("expected debug log on stderr, got %q", res.stderr)
	}
	if strings.Contains(res.stdout, "level=") {
		t.Fatalf("expected no log lines on stdout, got %q", res.stdout)
	}
}
