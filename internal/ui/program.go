package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/lookaround/lookaround/internal/client"
)

// Printer writes command output, styled on a terminal and plain otherwise.
// Plain output is what scripts parse, so it never carries escape codes.
type Printer struct {
	out   io.Writer
	width int
	plain bool
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used. Output is plain unless w is a terminal.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	plain := true
	if f, ok := w.(*os.File); ok {
		plain = !IsTerminal(f)
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
		plain: plain,
	}
}

// SetPlain forces plain (true) or styled (false) output
func (p *Printer) SetPlain(plain bool) *Printer {
	p.plain = plain
	return p
}

// Plain reports whether output is unstyled
func (p *Printer) Plain() bool {
	return p.plain
}

// Width returns the current terminal width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Printf writes formatted content
func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

// PrintHeader prints a command header box. Plain output skips it.
func (p *Printer) PrintHeader(title, command string, params ...Param) {
	if p.plain {
		return
	}
	p.Println(NewHeader(title, command, params...).SetWidth(p.width).Render())
}

// PrintSuccess prints a success result
func (p *Printer) PrintSuccess(title string, details ...Param) {
	if p.plain {
		p.Println(title)
		for _, d := range details {
			p.Printf("%s: %s\n", d.Key, d.Value)
		}
		return
	}
	p.Println(NewSuccessResult(title, details...).SetWidth(p.width).Render())
}

// PrintWarning prints a warning result
func (p *Printer) PrintWarning(title string, details ...Param) {
	if p.plain {
		p.Println("warning: " + title)
		for _, d := range details {
			p.Printf("%s: %s\n", d.Key, d.Value)
		}
		return
	}
	p.Println(NewWarningResult(title, details...).SetWidth(p.width).Render())
}

// PrintError prints a failure result with troubleshooting tips
func (p *Printer) PrintError(title string, err error, troubleshooting []string) {
	if p.plain {
		p.Printf("%s: %v\n", title, err)
		return
	}
	p.Println(NewFailureResult(title, err, troubleshooting).SetWidth(p.width).Render())
}

// PrintReport prints a discovery report
func (p *Printer) PrintReport(reports []client.PeerReport) {
	if p.plain {
		_ = WritePlainReport(p.out, reports)
		return
	}
	p.Println(RenderReport(reports))
}
