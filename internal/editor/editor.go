// Package editor provides utilities for interactive editing with $EDITOR.
package editor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"golang.org/x/term"
)

// ErrNoEditor indicates no editor can be started: $EDITOR is unset and
// stdin is not a terminal for the fallback.
var ErrNoEditor = errors.New("no editor available; set EDITOR")

// IsInteractive returns true if stdin is a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Command returns the editor to run: $EDITOR, or vi when stdin is a terminal.
func Command() (string, error) {
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor, nil
	}
	if !IsInteractive() {
		return "", ErrNoEditor
	}
	return "vi", nil
}

// Edit opens the given file in the editor and waits for it to exit.
// Returns nil if the editor exits with status 0, otherwise returns an error.
func Edit(path string, stdin io.Reader, stdout, stderr io.Writer) error {
	editor, err := Command()
	if err != nil {
		return err
	}

	cmd := exec.Command(editor, path)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("editor exited with status %d", exitErr.ExitCode())
		}
		return fmt.Errorf("failed to run editor: %w", err)
	}

	return nil
}

// EditBytes writes data to a temporary file named after pattern, opens it in
// the editor, and returns the edited contents.
func EditBytes(data []byte, pattern string, stdin io.Reader, stdout, stderr io.Writer) ([]byte, error) {
	file, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	path := file.Name()
	defer os.Remove(path)

	_, err = file.Write(data)
	if closeErr := file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("write temp file: %w", err)
	}

	if err := Edit(path, stdin, stdout, stderr); err != nil {
		return nil, err
	}

	edited, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read edited file: %w", err)
	}
	return edited, nil
}
