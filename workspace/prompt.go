package workspace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/muesli/reflow/wordwrap"
)

// Confirmer asks the user to confirm the root of a new workspace.
//
// ConfirmRoot returns the accepted root. When the user rejects the proposed
// root it asks for another one, which must pass validate before it is offered
// for confirmation. validate returns the normalized root.
type Confirmer interface {
	ConfirmRoot(root string, validate func(string) (string, error)) (string, error)
}

// AutoConfirm accepts every proposed root without asking.
type AutoConfirm struct{}

// ConfirmRoot returns root unchanged.
func (AutoConfirm) ConfirmRoot(root string, _ func(string) (string, error)) (string, error) {
	return root, nil
}

// Prompter asks for confirmation on a line-oriented reader and writer,
// usually the terminal.
type Prompter struct {
	in    *bufio.Reader
	out   io.Writer
	width int
}

// NewPrompter returns a Prompter reading answers from in and writing
// questions to out, wrapping messages at width columns (80 when width < 1).
func NewPrompter(in io.Reader, out io.Writer, width int) *Prompter {
	if width < 1 {
		width = 80
	}
	return &Prompter{in: bufio.NewReader(in), out: out, width: width}
}

// ConfirmRoot implements Confirmer. An empty answer or end of input accepts
// the proposed root.
func (p *Prompter) ConfirmRoot(root string, validate func(string) (string, error)) (string, error) {
	for {
		fmt.Fprintf(p.out, "The root directory is set to '%s'. Is this correct? [Y/n] ", root)
		answer, err := p.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(p.out)
				return root, nil
			}
			return "", fmt.Errorf("read answer: %w", err)
		}

		switch strings.ToLower(answer) {
		case "", "y", "yes":
			return root, nil
		case "n", "no":
			fmt.Fprint(p.out, "Please enter the correct root directory: ")
			candidate, err := p.readLine()
			if err != nil {
				if errors.Is(err, io.EOF) {
					fmt.Fprintln(p.out)
					return "", fmt.Errorf("%w: no root directory entered", ErrAborted)
				}
				return "", fmt.Errorf("read root directory: %w", err)
			}
			normalized, err := validate(candidate)
			if err != nil {
				p.printWrapped(fmt.Sprintf("%v. Please enter a valid directory.", err))
				continue
			}
			root = normalized
		default:
			fmt.Fprintln(p.out, "Invalid input. Please enter 'y' or 'n'.")
		}
	}
}

// readLine returns the next trimmed line. A final line without a newline is
// returned without error; io.EOF is returned only when nothing was read.
func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *Prompter) printWrapped(msg string) {
	fmt.Fprintln(p.out, wordwrap.String(msg, p.width))
}
