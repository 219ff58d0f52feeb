package dialect

import (
	"fmt"
	"strings"

	"dbmeta/internal/script"
)

// ComposeType renders a named type with its length or precision, for
// catalogs that report them separately (SQL Server, Oracle).
func ComposeType(ft FieldType) string {
	name := strings.TrimSpace(ft.Name)
	if name == "" {
		return UnknownType
	}
	switch strings.ToLower(name) {
	case "char", "varchar", "nchar", "nvarchar", "binary", "varbinary", "varchar2", "nvarchar2", "raw":
		if ft.Length < 0 {
			return name + "(max)"
		}
		if ft.Length > 0 {
			return fmt.Sprintf("%s(%d)", name, ft.Length)
		}
	case "decimal", "numeric", "number":
		if ft.Precision > 0 {
			return fmt.Sprintf("%s(%d,%d)", name, ft.Precision, abs(ft.Scale))
		}
	}
	return name
}

// DefaultColumnType returns source when it names a domain, the rendered type
// otherwise.
func DefaultColumnType(d Dialect, source string, ft FieldType) string {
	if s := strings.TrimSpace(source); s != "" {
		return s
	}
	return d.SQLType(ft)
}

// parameterMode is IN unless the parameter is marked OUT.
func parameterMode(p script.Parameter) script.Direction {
	if p.Direction == script.DirectionOut {
		return script.DirectionOut
	}
	return script.DirectionIn
}

func defaultAddColumnQuery(table, definition string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD %s", table, definition)
}

func defaultDropColumnQuery(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP %s", table, column)
}

func defaultDropProcedureQuery(name string) string {
	return fmt.Sprintf("DROP PROCEDURE %s", name)
}

// messageContains reports whether the error text contains any of the
// fragments, case-insensitively.
func messageContains(err error, fragments ...string) bool {
	msg := strings.ToLower(err.Error())
	for _, f := range fragments {
		if strings.Contains(msg, strings.ToLower(f)) {
			return true
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
