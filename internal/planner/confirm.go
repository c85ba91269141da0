package planner

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirmer gates operator-confirmed transitions. Injected so unattended runs
// and tests never touch a terminal.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// TerminalConfirmer prompts on Out and reads a y/N answer from In.
type TerminalConfirmer struct {
	In  io.Reader
	Out io.Writer
}

func (t *TerminalConfirmer) Confirm(prompt string) (bool, error) {
	fmt.Fprintf(t.Out, "%s [y/N]: ", prompt)
	reader := bufio.NewReader(t.In)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	return strings.EqualFold(strings.TrimSpace(line), "y"), nil
}

// StaticConfirmer answers every prompt the same way. Used for auto-apply mode
// and tests.
type StaticConfirmer bool

func (s StaticConfirmer) Confirm(string) (bool, error) {
	return bool(s), nil
}
