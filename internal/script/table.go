package script

import (
	"fmt"
	"regexp"
	"strings"
)

// ColumnDef is one entry of a CREATE TABLE column list.
type ColumnDef struct {
	Name       string
	Definition string
}

// TableDescriptor is the declared shape of a table. Column order is kept for
// rendering, but comparisons use the name only.
type TableDescriptor struct {
	Name    string
	Columns []ColumnDef
}

// columnSeparator is a comma ending a line.
var columnSeparator = regexp.MustCompile(`,[ \t]*\r?\n`)

// tableConstraintKeywords start entries of a column list that are not
// columns.
var tableConstraintKeywords = []string{"CONSTRAINT", "PRIMARY", "UNIQUE", "FOREIGN", "CHECK"}

// TableName returns the table name of a CREATE TABLE statement.
func TableName(stmt string) (string, error) {
	fields := strings.FieldsFunc(Head(stmt), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '('
	})
	if len(fields) < 3 || !strings.EqualFold(fields[0], "CREATE") || !strings.EqualFold(fields[1], "TABLE") {
		return "", fmt.Errorf("not a CREATE TABLE statement: %q", firstLine(Head(stmt)))
	}
	return fields[2], nil
}

// ParseTable reads the name and column list of a CREATE TABLE statement.
//
// The list between the first '(' and the last ')' is split on a comma
// followed by a line break, so types such as NUMERIC(10,2) stay intact as
// long as every column sits on its own line. Only a comma that ends the line
// separates: "ID INTEGER, -- key" is not split, so the next line is read as
// part of the same column. Column lines must not carry trailing comments.
func ParseTable(stmt string) (*TableDescriptor, error) {
	name, err := TableName(stmt)
	if err != nil {
		return nil, err
	}
	t := &TableDescriptor{Name: name}

	head := Head(stmt)
	start := strings.IndexByte(head, '(')
	end := strings.LastIndexByte(head, ')')
	if start <= 0 || end <= start {
		return t, nil
	}

	for _, def := range columnSeparator.Split(head[start+1:end], -1) {
		def = strings.TrimSpace(def)
		if def == "" {
			continue
		}
		col := strings.Fields(def)[0]
		if isTableConstraint(col) {
			continue
		}
		t.Columns = append(t.Columns, ColumnDef{Name: col, Definition: def})
	}
	return t, nil
}

// Column looks a declared column up by case-insensitive name.
func (t *TableDescriptor) Column(name string) (ColumnDef, bool) {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return ColumnDef{}, false
}

// EncodeTable renders a CREATE TABLE statement in the layout ParseTable
// reads back.
func EncodeTable(name string, columns []ColumnDef) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = "    " + c.Definition
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n);\n", name, strings.Join(defs, ",\n"))
}

// EncodeDomain renders a CREATE DOMAIN statement.
func EncodeDomain(name, sqlType string) string {
	return fmt.Sprintf("CREATE DOMAIN %s %s;\n", name, sqlType)
}

func isTableConstraint(word string) bool {
	for _, kw := range tableConstraintKeywords {
		if strings.EqualFold(word, kw) {
			return true
		}
	}
	return false
}
