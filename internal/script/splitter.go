package script

import (
	"iter"
	"strings"
)

// Markers of the exported procedure encoding.
const (
	ProcedureMetaMarker = "-- PROCEDURE_META"
	InParamMarker       = "-- IN"
	OutParamMarker      = "-- OUT"
)

const (
	setTermDirective   = "SET TERM"
	createProcedureKw  = "CREATE PROCEDURE"
	procedureEndMarker = "END"
)

// Split turns script text into its statements, trimmed and in source order.
//
// Outside a procedure a statement ends on a line whose trimmed text ends with
// ';'. A line starting with CREATE PROCEDURE or the PROCEDURE_META marker
// switches to procedure mode, where only a line consisting of a bare END
// closes the statement. Nested blocks are not tracked: the first bare END
// line ends the procedure, so nested blocks must close with "END;" or
// "END <something>". SET TERM lines are dropped.
//
// Every call returns an independent sequence that can be ranged over again.
func Split(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if strings.TrimSpace(text) == "" {
			return
		}

		var buf strings.Builder
		inProcedure := false

		flush := func() bool {
			stmt := strings.TrimSpace(buf.String())
			buf.Reset()
			if stmt == "" {
				return true
			}
			return yield(stmt)
		}

		for _, line := range Lines(text) {
			trimmed := strings.TrimSpace(line)

			if hasPrefixFold(trimmed, setTermDirective) {
				continue
			}
			if hasPrefixFold(trimmed, createProcedureKw) || hasPrefixFold(trimmed, ProcedureMetaMarker) {
				inProcedure = true
			}

			buf.WriteString(line)
			buf.WriteByte('\n')

			switch {
			case !inProcedure && strings.HasSuffix(trimmed, ";"):
				if !flush() {
					return
				}
			case inProcedure && strings.EqualFold(trimmed, procedureEndMarker):
				inProcedure = false
				if !flush() {
					return
				}
			}
		}

		flush()
	}
}

// ClosesProcedure reports whether a procedure body ends the way Split ends a
// procedure block: its first bare END line is its last non-blank line. A
// body failing this would run into the next block once encoded.
func ClosesProcedure(body string) bool {
	closed := false
	for _, line := range Lines(body) {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
		case closed:
			return false
		case strings.EqualFold(trimmed, procedureEndMarker):
			closed = true
		}
	}
	return closed
}

// Statements collects Split into a slice.
func Statements(text string) []string {
	var out []string
	for stmt := range Split(text) {
		out = append(out, stmt)
	}
	return out
}

// Lines splits text on "\n", dropping the '\r' of "\r\n" endings.
func Lines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
