package script

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingProcedureMeta is returned for a procedure block that carries
// neither a PROCEDURE_META marker nor a native CREATE PROCEDURE header.
var ErrMissingProcedureMeta = errors.New("procedure block has no PROCEDURE_META marker")

// Direction of a procedure parameter. CreateProcedure leaves it out of the
// header; databases that declare parameter modes render it.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

type Parameter struct {
	Name      string
	Domain    string
	Direction Direction
}

// ProcedureBlock is the parsed form of one procedure block.
type ProcedureBlock struct {
	Name       string
	Parameters []Parameter
	Body       []string

	// Native is set when the block was a plain CREATE PROCEDURE statement
	// without metadata; Body then holds the statement unchanged.
	Native bool
}

// ParseProcedure parses a block produced by Split. The block is either the
// exported encoding (marker, IN/OUT lines, body) or a native CREATE
// PROCEDURE statement.
func ParseProcedure(block string) (*ProcedureBlock, error) {
	p := &ProcedureBlock{}
	seenMeta, inBody := false, false

	for _, line := range Lines(block) {
		trimmed := strings.TrimSpace(line)
		fields := strings.Fields(trimmed)

		switch {
		case hasPrefixFold(trimmed, ProcedureMetaMarker):
			if len(fields) < 3 {
				return nil, fmt.Errorf("%w: marker without a name: %q", ErrMissingProcedureMeta, trimmed)
			}
			p.Name = fields[2]
			seenMeta = true
		case !inBody && isParamLine(fields, DirectionIn):
			p.Parameters = append(p.Parameters, newParameter(fields, DirectionIn))
		case !inBody && isParamLine(fields, DirectionOut):
			p.Parameters = append(p.Parameters, newParameter(fields, DirectionOut))
		case !seenMeta && (trimmed == "" || strings.HasPrefix(trimmed, "--")):
			// header comments of the file or block
		default:
			p.Body = append(p.Body, line)
			inBody = inBody || trimmed != ""
		}
	}

	if seenMeta {
		p.Body = trimBlankLines(p.Body)
		if len(p.Body) > 0 && hasPrefixFold(strings.TrimSpace(p.Body[0]), createProcedureKw) {
			// metadata in front of an already complete statement
			p.Native = true
		}
		return p, nil
	}

	head := Head(block)
	if hasPrefixFold(head, createProcedureKw) {
		name := procedureNameFromHeader(head)
		if name == "" {
			return nil, fmt.Errorf("%w: cannot read name from %q", ErrMissingProcedureMeta, firstLine(head))
		}
		return &ProcedureBlock{Name: name, Body: Lines(head), Native: true}, nil
	}
	return nil, ErrMissingProcedureMeta
}

// ProcedureDDL renders a CREATE PROCEDURE statement from a block's name,
// parameters and body. Each database has its own header syntax.
type ProcedureDDL func(name string, params []Parameter, body string) string

// CreateProcedure is the plain rendering: CREATE PROCEDURE name, the
// parameters positionally in parentheses, AS, then the body.
func CreateProcedure(name string, params []Parameter, body string) string {
	header := "CREATE PROCEDURE " + name
	if len(params) > 0 {
		defs := make([]string, len(params))
		for i, prm := range params {
			defs[i] = prm.Definition()
		}
		header += " (" + strings.Join(defs, ", ") + ")"
	}
	return header + " AS\n" + body
}

// DDL renders the executable CREATE PROCEDURE statement through render, or
// CreateProcedure when render is nil. Native blocks are returned as written.
func (p *ProcedureBlock) DDL(render ProcedureDDL) string {
	if p.Native {
		return strings.Join(p.Body, "\n")
	}
	if render == nil {
		render = CreateProcedure
	}
	return render(p.Name, p.Parameters, strings.Join(p.Body, "\n"))
}

// Source is the procedure body without header, as a catalog stores it.
func (p *ProcedureBlock) Source() string {
	if !p.Native {
		return strings.Join(p.Body, "\n")
	}
	ddl := strings.Join(p.Body, "\n")
	if i := indexKeyword(ddl, "AS"); i >= 0 {
		return strings.TrimSpace(ddl[i+2:])
	}
	return ddl
}

// Definition is the "name domain" pair used in the procedure header.
func (p Parameter) Definition() string {
	if p.Domain == "" {
		return p.Name
	}
	return p.Name + " " + p.Domain
}

// RewriteProcedure converts a procedure block into executable DDL rendered by
// render (CreateProcedure when nil).
func RewriteProcedure(block string, render ProcedureDDL) (string, error) {
	p, err := ParseProcedure(block)
	if err != nil {
		return "", err
	}
	return p.DDL(render), nil
}

// EncodeProcedure writes a procedure in the exported encoding read back by
// ParseProcedure.
func EncodeProcedure(name string, params []Parameter, source string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", ProcedureMetaMarker, name)
	for _, prm := range params {
		dir := prm.Direction
		if dir == "" {
			dir = DirectionIn
		}
		fmt.Fprintf(&b, "-- %s %s\n", dir, prm.Definition())
	}
	b.WriteString("\n")
	b.WriteString(strings.TrimRight(source, " \t\r\n"))
	b.WriteString("\n")
	return b.String()
}

func isParamLine(fields []string, dir Direction) bool {
	return len(fields) >= 3 && fields[0] == "--" && strings.EqualFold(fields[1], string(dir))
}

func newParameter(fields []string, dir Direction) Parameter {
	return Parameter{
		Name:      fields[2],
		Domain:    strings.Join(fields[3:], " "),
		Direction: dir,
	}
}

func procedureNameFromHeader(head string) string {
	fields := strings.FieldsFunc(firstLine(head), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '('
	})
	if len(fields) < 3 {
		return ""
	}
	return fields[2]
}

func trimBlankLines(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

// indexKeyword finds kw as a standalone, case-insensitive word.
func indexKeyword(s, kw string) int {
	upper := strings.ToUpper(s)
	kw = strings.ToUpper(kw)
	for from := 0; ; {
		i := strings.Index(upper[from:], kw)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(kw)
		if (i == 0 || isSpaceOrParen(upper[i-1])) && (end == len(upper) || isSpaceOrParen(upper[end])) {
			return i
		}
		from = end
	}
}

func isSpaceOrParen(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '(' || c == ')'
}
