// Package writer provides an indentation-aware text builder used by every
// emitter. The indent unit is configurable per target (tabs for Go, two or
// four spaces elsewhere), as is the comment leader ("//", "#", "///").
package writer

import (
	"fmt"
	"strings"
)

// Writer accumulates generated source text with automatic indentation.
type Writer struct {
	sb          strings.Builder
	level       int
	unit        string
	prefix      string
	needsIndent bool
}

// New creates a writer using the given indent unit for each level.
func New(unit string) *Writer {
	return &Writer{unit: unit, needsIndent: true}
}

// Indent increases the indentation level.
func (w *Writer) Indent() {
	w.level++
	w.prefix = strings.Repeat(w.unit, w.level)
}

// Dedent decreases the indentation level.
func (w *Writer) Dedent() {
	if w.level > 0 {
		w.level--
		w.prefix = strings.Repeat(w.unit, w.level)
	}
}

// Write appends a string without a trailing newline. The current line prefix
// is emitted first if this starts a new line.
func (w *Writer) Write(s string) {
	if w.needsIndent && s != "" {
		w.sb.WriteString(w.prefix)
		w.needsIndent = false
	}
	w.sb.WriteString(s)
}

// Writef appends a formatted string without a trailing newline.
func (w *Writer) Writef(format string, args ...interface{}) {
	w.Write(fmt.Sprintf(format, args...))
}

// Line appends a string followed by a newline.
func (w *Writer) Line(s string) {
	w.Write(s)
	w.Newline()
}

// Linef appends a formatted string followed by a newline.
func (w *Writer) Linef(format string, args ...interface{}) {
	w.Writef(format, args...)
	w.Newline()
}

// Newline terminates the current line.
func (w *Writer) Newline() {
	w.sb.WriteString("\n")
	w.needsIndent = true
}

// Blank inserts an empty separator line, collapsing runs of blanks.
func (w *Writer) Blank() {
	if w.sb.Len() > 0 && !strings.HasSuffix(w.sb.String(), "\n\n") {
		w.Newline()
	}
}

// Block writes opener, the indented content, then closer on its own line.
func (w *Writer) Block(opener, closer string, content func()) {
	w.Line(opener)
	w.Indent()
	content()
	w.Dedent()
	w.Line(closer)
}

// DocComment writes doc as a comment block, one leader-prefixed line per
// source line. Empty docs write nothing.
func (w *Writer) DocComment(leader, doc string) {
	if doc == "" {
		return
	}
	for _, line := range strings.Split(strings.TrimSpace(doc), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			w.Line(leader)
			continue
		}
		w.Linef("%s %s", leader, line)
	}
}

// Level returns the current indentation level.
func (w *Writer) Level() int {
	return w.level
}

// String returns the accumulated text.
func (w *Writer) String() string {
	return w.sb.String()
}

// Bytes returns the accumulated text as a byte slice.
func (w *Writer) Bytes() []byte {
	return []byte(w.sb.String())
}
