package workspace_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/muesli/reflow/wordwrap"

	"github.com/amonks/cserun/workspace"
)

// dirValidator accepts only the directories in valid.
func dirValidator(valid ...string) func(string) (string, error) {
	return func(candidate string) (string, error) {
		for _, dir := range valid {
			if candidate == dir {
				return filepath.Clean(candidate), nil
			}
		}
		return "", fmt.Errorf("%w: %s does not exist", workspace.ErrInvalidRoot, candidate)
	}
}

func TestPrompter_ConfirmRoot(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		output   []string
	}{
		{name: "empty answer accepts", input: "\n", expected: "/proj"},
		{name: "yes accepts", input: "y\n", expected: "/proj"},
		{name: "answers are case insensitive", input: "YES\n", expected: "/proj"},
		{name: "end of input accepts", input: "", expected: "/proj"},
		{
			name:     "alternate root is confirmed",
			input:    "n\n/other\n\n",
			expected: "/other",
			output:   []string{"Please enter the correct root directory: ", "The root directory is set to '/other'."},
		},
		{
			name:     "invalid alternate asks again",
			input:    "n\n/missing\nn\n/other\ny\n",
			expected: "/other",
			output:   []string{"/missing does not exist. Please enter a valid directory."},
		},
		{
			name:     "unrecognized answer repeats the question",
			input:    "maybe\nyes\n",
			expected: "/proj",
			output:   []string{"Invalid input. Please enter 'y' or 'n'."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			prompter := workspace.NewPrompter(strings.NewReader(tt.input), &out, 200)

			root, err := prompter.ConfirmRoot("/proj", dirValidator("/other"))
			if err != nil {
				t.Fatalf("confirm: %v", err)
			}
			if root != tt.expected {
				t.Fatalf("expected %q, got %q", tt.expected, root)
			}
			if !strings.HasPrefix(out.String(), "The root directory is set to '/proj'. Is this correct? [Y/n] ") {
				t.Fatalf("unexpected question %q", out.String())
			}
			for _, want := range tt.output {
				if !strings.Contains(out.String(), want) {
					t.Fatalf("expected output to contain %q, got %q", want, out.String())
				}
			}
		})
	}
}

func TestPrompter_AbortsWithoutAlternate(t *testing.T) {
	var out strings.Builder
	prompter := workspace.NewPrompter(strings.NewReader("n\n"), &out, 0)

	_, err := prompter.ConfirmRoot("/proj", dirValidator())
	if !errors.Is(err, workspace.ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestPrompter_WrapsLongMessages(t *testing.T) {
	var out strings.Builder
	prompter := workspace.NewPrompter(strings.NewReader("n\n/x\ny\n"), &out, 30)
	reject := errors.New("that directory is not one we can sync from")
	validate := func(string) (string, error) { return "", reject }

	if _, err := prompter.ConfirmRoot("/proj", validate); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	wrapped := wordwrap.String(reject.Error()+". Please enter a valid directory.", 30)
	if !strings.Contains(wrapped, "\n") {
		t.Fatalf("expected message to need wrapping: %q", wrapped)
	}
	if !strings.Contains(out.String(), wrapped+"\n") {
		t.Fatalf("expected wrapped message %q in %q", wrapped, out.String())
	}
}

func TestPrompter_Terminal(t *testing.T) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	defer ptmx.Close()
	defer tty.Close()

	// Drain the terminal output so writes to the tty never block.
	echoed := make(chan string, 1)
	go func() {
		var b strings.Builder
		buf := make([]byte, 1024)
		for !strings.Contains(b.String(), "'/other'. Is this correct?") {
			n, err := ptmx.Read(buf)
			b.Write(buf[:n])
			if err != nil {
				break
			}
		}
		echoed <- b.String()
	}()

	if _, err := ptmx.Write([]byte("n\n/other\ny\n")); err != nil {
		t.Fatalf("write answers: %v", err)
	}

	prompter := workspace.NewPrompter(tty, tty, 80)
	done := make(chan error, 1)
	var root string
	go func() {
		var err error
		root, err = prompter.ConfirmRoot("/proj", dirValidator("/other"))
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("confirm: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("prompt did not finish")
	}
	if root != "/other" {
		t.Fatalf("expected /other, got %q", root)
	}

	select {
	case output := <-echoed:
		if !strings.Contains(output, "The root directory is set to '/proj'.") {
			t.Fatalf("expected question on the terminal, got %q", output)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("terminal output not received")
	}
}
