package dialect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"dbmeta/internal/script"
)

type PostgresDialect struct{}

// SQLSTATE codes the engine cares about.
const (
	pgUniqueViolation   = "23505"
	pgDuplicateObject   = "42710"
	pgDuplicateTable    = "42P07"
	pgDuplicateColumn   = "42701"
	pgDuplicateFunction = "42723"
	pgDuplicateSchema   = "42P06"
	pgUndefinedTable    = "42P01"
	pgUndefinedColumn   = "42703"
	pgUndefinedFunction = "42883"
	pgUndefinedObject   = "42704"
)

func (d *PostgresDialect) Driver() string { return "postgres" }

func (d *PostgresDialect) TablesQuery() string {
	return `SELECT table_name FROM information_schema.tables
WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
ORDER BY table_name`
}

// ColumnsQuery reports domain-typed columns by their domain name; the type
// name is already rendered by format_type.
func (d *PostgresDialect) ColumnsQuery() string {
	return `SELECT
    a.attname,
    CASE WHEN t.typtype = 'd' THEN t.typname ELSE '' END,
    format_type(a.atttypid, a.atttypmod),
    0, 0, 0, 0, ''
FROM pg_attribute a
JOIN pg_class c ON c.oid = a.attrelid
JOIN pg_namespace n ON n.oid = c.relnamespace
JOIN pg_type t ON t.oid = a.atttypid
WHERE n.nspname = current_schema() AND c.relname = ` + d.Placeholder(0) + `
AND a.attnum > 0 AND NOT a.attisdropped
ORDER BY a.attnum`
}

// Procedures are not read back: prosrc bodies end with "END;", which never
// closes a procedure block in a script, so an export could not be built.
// Updates therefore replace every procedure block.
func (d *PostgresDialect) ProceduresQuery() string { return "" }
func (d *PostgresDialect) ParametersQuery() string { return "" }

func (d *PostgresDialect) DomainsQuery() string {
	return `SELECT t.typname, format_type(t.typbasetype, t.typtypmod), 0, 0, 0, 0, ''
FROM pg_type t
JOIN pg_namespace n ON n.oid = t.typnamespace
WHERE t.typtype = 'd' AND n.nspname = current_schema()
ORDER BY t.typname`
}

func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index+1)
}

func (d *PostgresDialect) NormalizeIdentifier(name string) string {
	if quoted, ok := unquote(name); ok {
		return quoted
	}
	return strings.ToLower(name)
}

func (d *PostgresDialect) SQLType(ft FieldType) string {
	if ft.Name == "" {
		return UnknownType
	}
	return ft.Name
}

func (d *PostgresDialect) ColumnType(source string, ft FieldType) string {
	return DefaultColumnType(d, source, ft)
}

// CreateProcedureQuery renders a PL/pgSQL procedure with IN/OUT modes and the
// body dollar quoted.
func (d *PostgresDialect) CreateProcedureQuery(name string, params []script.Parameter, body string) string {
	defs := make([]string, len(params))
	for i, p := range params {
		defs[i] = string(parameterMode(p)) + " " + p.Definition()
	}
	return fmt.Sprintf("CREATE PROCEDURE %s (%s)\nLANGUAGE plpgsql\nAS $$\n%s\n$$", name, strings.Join(defs, ", "), body)
}

func (d *PostgresDialect) DropProcedureQuery(name string) string {
	return defaultDropProcedureQuery(name)
}

func (d *PostgresDialect) AddColumnQuery(table, definition string) string {
	return defaultAddColumnQuery(table, definition)
}

func (d *PostgresDialect) DropColumnQuery(table, column string) string {
	return defaultDropColumnQuery(table, column)
}

func (d *PostgresDialect) ClassifyError(err error) ErrorKind {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return ErrorOther
	}
	switch string(pqErr.Code) {
	case pgUniqueViolation:
		return ErrorDuplicateKey
	case pgDuplicateObject, pgDuplicateTable, pgDuplicateColumn, pgDuplicateFunction, pgDuplicateSchema:
		return ErrorAlreadyExists
	case pgUndefinedTable, pgUndefinedColumn, pgUndefinedFunction, pgUndefinedObject:
		return ErrorNotFound
	default:
		return ErrorOther
	}
}
