package ui

import (
	"fmt"
	"io"
	"os"
)

// Printer writes one-off result boxes for commands that do not need a Runner.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter returns a Printer for w, or os.Stdout when w is nil.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{out: w, width: GetTerminalWidth()}
}

// PrintSuccess prints a success box with details.
func (p *Printer) PrintSuccess(title string, details map[string]string) {
	p.print(Result{Kind: Success, Title: title, Details: details})
}

// PrintWarning prints a warning box listing warnings.
func (p *Printer) PrintWarning(title string, warnings ...string) {
	p.print(Result{Kind: Warning, Title: title, Notes: warnings})
}

func (p *Printer) print(r Result) {
	_, _ = fmt.Fprintln(p.out, r.Render(p.width))
}
