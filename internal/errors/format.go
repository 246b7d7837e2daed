package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiRed   = "\033[31m"
	ansiBlue  = "\033[34m"
	ansiCyan  = "\033[36m"
	ansiGray  = "\033[90m"
)

// colorEnabled honours NO_COLOR (https://no-color.org).
var colorEnabled = os.Getenv("NO_COLOR") == ""

// SetColor turns ANSI colors in Format and PrintError on or off.
func SetColor(on bool) {
	colorEnabled = on
}

func paint(text string, codes ...string) string {
	if !colorEnabled || len(codes) == 0 {
		return text
	}
	return strings.Join(codes, "") + text + ansiReset
}

// snippetWidth is the width of the line-number gutter in source snippets.
const snippetWidth = 4

// Format renders the error for a terminal: a header, the source snippet
// around the location with a caret under the column, the wrapped detail,
// the hint and the documentation link.
func (e *Error) Format() string {
	var b strings.Builder
	b.WriteString("\n")
	e.writeHeader(&b)

	if e.Location != nil {
		fmt.Fprintf(&b, "  %s\n\n", paint(e.Location.String(), ansiCyan))
		if len(e.Context) > 0 {
			e.writeSnippet(&b)
			b.WriteString("\n")
		}
	}
	if e.Detail != "" {
		for _, line := range wrapText(e.Detail, 70) {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		b.WriteString("\n")
	}
	if e.Wrapped != nil {
		fmt.Fprintf(&b, "  %s %s\n\n", paint("Cause:", ansiGray), e.Wrapped)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  %s %s\n\n", paint("Hint:", ansiCyan), e.Suggestion)
	}
	if e.DocURL != "" {
		fmt.Fprintf(&b, "  %s %s\n", paint("Learn more:", ansiGray), paint(e.DocURL, ansiBlue))
	}
	return b.String()
}

func (e *Error) writeHeader(b *strings.Builder) {
	label := "ERROR"
	if e.Code != "" {
		label += " " + e.Code
	}
	fmt.Fprintf(b, "%s %s\n\n", paint(label+":", ansiRed, ansiBold), paint(e.Message, ansiBold))
}

// writeSnippet prints the context lines centred on the error line.
func (e *Error) writeSnippet(b *strings.Builder) {
	first := e.Location.Line - len(e.Context)/2
	for i, line := range e.Context {
		n := first + i
		marker := "  "
		if n == e.Location.Line {
			marker = paint("→ ", ansiRed)
		}
		fmt.Fprintf(b, "  %s%*d%s%s\n", marker, snippetWidth, n, paint(" │ ", ansiGray), line)

		if n == e.Location.Line && e.Location.Column > 0 {
			pad := strings.Repeat(" ", snippetWidth+3)
			fmt.Fprintf(b, "%s%s%s%s\n", pad, paint("│ ", ansiGray), strings.Repeat(" ", e.Location.Column-1), paint("^", ansiRed))
		}
	}
}

// Plain renders the error without color, as
// "<file:line:col>: <code>: <message>" followed by the detail on its own
// line. The dev server uses it for failed module responses, where the browser
// shows it as the module's evaluation error.
func (e *Error) Plain() string {
	var b strings.Builder
	if e.Location != nil {
		b.WriteString(e.Location.String())
		b.WriteString(": ")
	}
	b.WriteString(e.Error())
	if e.Detail != "" {
		b.WriteString("\n")
		b.WriteString(e.Detail)
	}
	return b.String()
}

// wrapText breaks text into lines of at most width characters on word
// boundaries. Words longer than width get a line of their own.
func wrapText(text string, width int) []string {
	var (
		lines []string
		line  string
	)
	for _, word := range strings.Fields(text) {
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) > width:
			lines = append(lines, line)
			line = word
		default:
			line += " " + word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// PrintError writes err to stderr, in full when it is (or wraps) an *Error.
func PrintError(err error) {
	fprintError(os.Stderr, err)
}

func fprintError(w io.Writer, err error) {
	var e *Error
	if stderrors.As(err, &e) {
		fmt.Fprint(w, e.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", paint("ERROR:", ansiRed, ansiBold), err)
}
