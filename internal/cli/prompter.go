package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/agentx-labs/skilldocs/internal/registry"
	"github.com/agentx-labs/skilldocs/internal/workflow"
	"github.com/mattn/go-isatty"
)

// linePrompter asks the user to pick a suggestion by number.
type linePrompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newLinePrompter(in io.Reader, out io.Writer) *linePrompter {
	return &linePrompter{in: bufio.NewScanner(in), out: out}
}

// Choose implements workflow.Prompter.
func (p *linePrompter) Choose(name string, suggestions []registry.Entry) (registry.Entry, bool) {
	fmt.Fprintf(p.out, "? No skill named %q. Did you mean:\n", name)
	for i, e := range suggestions {
		fmt.Fprintf(p.out, "  %d) %s (%s)\n", i+1, e.Name, e.Slug)
	}
	fmt.Fprintf(p.out, "? Choose 1-%d, or press Enter to skip: ", len(suggestions))

	if !p.in.Scan() {
		fmt.Fprintln(p.out)
		return registry.Entry{}, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(p.in.Text()))
	if err != nil || n < 1 || n > len(suggestions) {
		return registry.Entry{}, false
	}
	return suggestions[n-1], true
}

// interactivePrompter returns a prompter bound to stdin, or nil when stdin is
// not a terminal or prompts are disabled.
func interactivePrompter(out io.Writer, disabled bool) workflow.Prompter {
	if disabled {
		return nil
	}
	fd := os.Stdin.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return nil
	}
	return newLinePrompter(os.Stdin, out)
}
