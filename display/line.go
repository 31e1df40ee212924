package display

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/riadafridishibly/sqlitevacuum/status"
)

// clearLine returns the cursor to column 0 and erases the line.
const clearLine = "\r\x1b[2K"

// Line prints events as lines. On a terminal, progress and scan status
// share a single status line that each update overwrites; errors and the
// summary clear it and are printed on lines of their own. Otherwise every
// progress event gets its own line and scan status is not shown.
type Line struct {
	out    io.Writer
	errOut io.Writer
	tty    bool

	// status line drawn on out without a trailing newline
	pending bool

	found  *color.Color
	path   *color.Color
	size   *color.Color
	failed *color.Color
	done   *color.Color
	dim    *color.Color
}

// NewTerminal writes to stdout and stderr, with colors only when both are
// terminals.
func NewTerminal() *Line {
	return NewLine(os.Stdout, os.Stderr, isTerminal(os.Stdout) && isTerminal(os.Stderr))
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func NewLine(out, errOut io.Writer, tty bool) *Line {
	l := &Line{
		out:    out,
		errOut: errOut,
		tty:    tty,
		found:  color.New(color.FgGreen, color.Bold),
		path:   color.New(color.FgWhite),
		size:   color.New(color.FgYellow, color.Bold),
		failed: color.New(color.FgRed),
		done:   color.New(color.FgGreen, color.Bold),
		dim:    color.New(color.Faint),
	}
	for _, c := range []*color.Color{l.found, l.path, l.size, l.failed, l.done, l.dim} {
		if tty {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return l
}

// redraw replaces the status line with msg.
func (l *Line) redraw(msg string) {
	fmt.Fprintf(l.out, "%s%s", clearLine, msg)
	l.pending = true
}

// clearStatus erases the status line, if one is drawn.
func (l *Line) clearStatus() {
	if l.pending {
		fmt.Fprint(l.out, clearLine)
		l.pending = false
	}
}

func (l *Line) Progress(p status.Progress) {
	msg := p.Message
	if msg == "" {
		msg = ProgressMessage(p.Outcome)
	}
	if !l.tty {
		fmt.Fprintln(l.out, msg)
		return
	}
	l.redraw(l.found.Sprint(msg))
}

// Scanning shows the entry the scanner is visiting. Terminals only.
func (l *Line) Scanning(visited int64, path string) {
	if !l.tty {
		return
	}
	l.redraw(l.dim.Sprintf("Scanning (%d entries) %s", visited, path))
}

func (l *Line) Error(err *status.Error) {
	l.clearStatus()
	fmt.Fprintln(l.errOut, l.failed.Sprintf("Error [%s] %s", err.Kind, err.Error()))
}

func (l *Line) Summary(t status.Totals) {
	l.clearStatus()
	fmt.Fprintf(l.out, "%s %s %s %s\n",
		l.done.Sprint("Done."),
		l.path.Sprint("Total size reduction:"),
		l.size.Sprint(FormatSize(t.Delta)),
		l.path.Sprintf("(%d compacted, %d errors)", t.Compacted, t.Errors),
	)
}

// ProgressMessage describes one compaction: path, sizes and delta.
func ProgressMessage(o status.Outcome) string {
	return fmt.Sprintf("Compacted %s %s -> %s (%s)",
		o.Path,
		FormatSize(o.SizeBefore),
		FormatSize(o.SizeAfter),
		FormatSize(o.Delta),
	)
}
