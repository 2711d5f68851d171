// Package diag defines source spans and compiler diagnostics shared by
// every stage of the ClassQL pipeline.
//
// A Diagnostic is a value, not a Go error: stages return them alongside
// their results and the CLI decides how to render them. Each diagnostic
// carries a half-open byte span into the original query text suitable for
// caret-and-underline rendering.
package diag

import (
	"fmt"
	"strings"

	"golang.org/x/text/width"
)

// Span is a half-open byte range [Start, End) into the source text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// NewSpan creates a span covering [start, end).
func NewSpan(start, end int) Span {
	return Span{Start: start, End: end}
}

// Join returns the smallest span covering both s and other.
func (s Span) Join(other Span) Span {
	out := s
	if other.Start < out.Start {
		out.Start = other.Start
	}
	if other.End > out.End {
		out.End = other.End
	}
	return out
}

// Len returns the number of bytes the span covers.
func (s Span) Len() int {
	return s.End - s.Start
}

// Kind categorizes a diagnostic by the stage that produced it.
type Kind string

const (
	// Lexical indicates an unrecognized character in the source.
	Lexical Kind = "lexical"

	// Syntactic indicates an unexpected token or unexpected end of input.
	Syntactic Kind = "syntactic"

	// Semantic indicates an operator/field mismatch, a malformed time,
	// or an unknown synonym.
	Semantic Kind = "semantic"
)

// Diagnostic describes a single compilation failure.
type Diagnostic struct {
	Kind     Kind   `json:"kind"`
	Message  string `json:"message"`
	Span     Span   `json:"span"`
	Expected string `json:"expected,omitempty"`
}

// New creates a diagnostic of the given kind.
func New(kind Kind, span Span, format string, args ...any) Diagnostic {
	return Diagnostic{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Span:    span,
	}
}

// WithExpected attaches an "expected" hint to the diagnostic.
func (d Diagnostic) WithExpected(expected string) Diagnostic {
	d.Expected = expected
	return d
}

// String formats the diagnostic on a single line.
func (d Diagnostic) String() string {
	if d.Expected != "" {
		return fmt.Sprintf("%s error at %d..%d: %s (expected %s)",
			d.Kind, d.Span.Start, d.Span.End, d.Message, d.Expected)
	}
	return fmt.Sprintf("%s error at %d..%d: %s", d.Kind, d.Span.Start, d.Span.End, d.Message)
}

// Render formats the diagnostic with the offending source line and a
// caret underline:
//
//	lexical error: unrecognized character "#"
//	  prof contains # alan
//	                ^
//
// Column alignment accounts for East Asian wide runes so the caret lines
// up under the offending text in a terminal.
func (d Diagnostic) Render(source string) string {
	var b strings.Builder
	b.WriteString(string(d.Kind))
	b.WriteString(" error: ")
	b.WriteString(d.Message)
	if d.Expected != "" {
		b.WriteString("\n  expected: ")
		b.WriteString(d.Expected)
	}
	if source == "" {
		return b.String()
	}

	line, lineStart := lineAt(source, d.Span.Start)
	b.WriteString("\n  ")
	b.WriteString(line)
	b.WriteString("\n  ")
	b.WriteString(strings.Repeat(" ", displayWidth(line[:clamp(d.Span.Start-lineStart, 0, len(line))])))

	n := d.Span.Len()
	if n < 1 {
		n = 1
	}
	underline := clamp(d.Span.End-lineStart, 0, len(line)) - clamp(d.Span.Start-lineStart, 0, len(line))
	if underline < 1 {
		underline = 1
	}
	b.WriteString("^")
	if underline > 1 {
		seg := line[clamp(d.Span.Start-lineStart, 0, len(line)):clamp(d.Span.End-lineStart, 0, len(line))]
		w := displayWidth(seg)
		if w > 1 {
			b.WriteString(strings.Repeat("~", w-1))
		}
	}
	return b.String()
}

// lineAt returns the line containing byte offset pos and the offset of
// its first byte. Offsets past the end of the source map to the last line.
func lineAt(source string, pos int) (string, int) {
	if pos > len(source) {
		pos = len(source)
	}
	start := strings.LastIndexByte(source[:pos], '\n') + 1
	end := strings.IndexByte(source[start:], '\n')
	if end == -1 {
		return source[start:], start
	}
	return source[start : start+end], start
}

// displayWidth returns the terminal cell width of s, counting East Asian
// wide and fullwidth runes as two cells.
func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			w += 2
		default:
			w++
		}
	}
	return w
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
