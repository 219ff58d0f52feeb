package script

import "strings"

// Kind is the class of a statement, derived from its leading keywords.
type Kind int

const (
	KindOther Kind = iota
	KindDomain
	KindTable
	KindProcedure
)

func (k Kind) String() string {
	switch k {
	case KindDomain:
		return "domain"
	case KindTable:
		return "table"
	case KindProcedure:
		return "procedure"
	default:
		return "other"
	}
}

// Classify sniffs the leading keywords of stmt. Leading comment lines are
// skipped, except the PROCEDURE_META marker which makes stmt a procedure
// block. The result is recomputed on every call.
func Classify(stmt string) Kind {
	head := Head(stmt)
	switch {
	case hasPrefixFold(head, ProcedureMetaMarker),
		hasPrefixFold(head, createProcedureKw),
		isKeyword(head, "BEGIN"):
		return KindProcedure
	case hasPrefixFold(head, "CREATE TABLE"):
		return KindTable
	case hasPrefixFold(head, "CREATE DOMAIN"):
		return KindDomain
	default:
		return KindOther
	}
}

// Head returns stmt starting at its first line that is neither blank nor a
// plain "--" comment. The PROCEDURE_META marker counts as content.
func Head(stmt string) string {
	lines := Lines(stmt)
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "--") && !hasPrefixFold(trimmed, ProcedureMetaMarker) {
			continue
		}
		lines[i] = trimmed
		return strings.Join(lines[i:], "\n")
	}
	return ""
}

// isKeyword reports whether s starts with kw as a whole word.
func isKeyword(s, kw string) bool {
	if !hasPrefixFold(s, kw) {
		return false
	}
	if len(s) == len(kw) {
		return true
	}
	switch s[len(kw)] {
	case ' ', '\t', '\n', '\r', ';':
		return true
	}
	return false
}
