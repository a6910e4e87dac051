package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/muurk/luxws/internal/snapshot"
)

// Printer provides methods for printing UI components to a writer.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// Width returns the current terminal width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// SetWidth overrides the detected terminal width.
func (p *Printer) SetWidth(width int) *Printer {
	p.width = width
	return p
}

// Print writes content to the output
func (p *Printer) Print(content string) {
	_, _ = fmt.Fprint(p.out, content)
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintTitle prints a title bar with a muted subtitle underneath.
func (p *Printer) PrintTitle(title, subtitle string) {
	p.Println(TitleStyle.Render(title))
	if subtitle != "" {
		p.Println(SubtitleStyle.Render(subtitle))
	}
	p.Newline()
}

// PrintLeaves prints leaves as a table.
func (p *Printer) PrintLeaves(leaves []snapshot.Leaf) {
	p.Println(RenderLeafTable(leaves, 0))
}

// PrintResult prints a result box sized to the printer.
func (p *Printer) PrintResult(r *Result) {
	p.Println(r.SetWidth(p.width).Render())
}
