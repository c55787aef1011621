package killer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// ConfirmPrompt is shown before signaling unconfirmed processes.
	ConfirmPrompt = "Confirm (y/[n]) ? "
	// Affirmative is the only answer that lets signals through.
	Affirmative = "y"
)

// ErrConfirmationUnavailable is returned when signals need a confirmation
// that cannot be asked for.
var ErrConfirmationUnavailable = errors.New("confirmation required but no input available")

// Confirmer asks the operator before processes are signaled.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// PromptConfirmer reads the answer as one line of text.
type PromptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

var _ Confirmer = (*PromptConfirmer)(nil)

func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{
		in:  bufio.NewReader(in),
		out: out,
	}
}

func (c *PromptConfirmer) Confirm(prompt string) (bool, error) {
	if _, err := fmt.Fprint(c.out, prompt); err != nil {
		return false, err
	}
	answer, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && answer != "") {
		if errors.Is(err, io.EOF) {
			return false, ErrConfirmationUnavailable
		}
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	return strings.TrimSpace(answer) == Affirmative, nil
}
