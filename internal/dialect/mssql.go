package dialect

import (
	"errors"
	"fmt"
	"strings"

	mssql "github.com/denisenkom/go-mssqldb"

	"dbmeta/internal/script"
)

type MSSQLDialect struct{}

// Server error numbers.
const (
	msInvalidObject     = 208
	msDuplicateKeyIndex = 2601
	msUniqueConstraint  = 2627
	msDuplicateColumn   = 2705
	msObjectExists      = 2714
	msCannotDrop        = 3701
	msDropColumnMissing = 4924
)

func (d *MSSQLDialect) Driver() string { return "sqlserver" }

func (d *MSSQLDialect) TablesQuery() string {
	return `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = SCHEMA_NAME() AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME`
}

// ColumnsQuery reports alias-typed columns by their alias type name.
func (d *MSSQLDialect) ColumnsQuery() string {
	return `
		SELECT
			c.COLUMN_NAME,
			COALESCE(c.DOMAIN_NAME, ''),
			c.DATA_TYPE,
			0,
			COALESCE(c.CHARACTER_MAXIMUM_LENGTH, 0),
			COALESCE(c.NUMERIC_SCALE, 0),
			COALESCE(c.NUMERIC_PRECISION, 0),
			COALESCE(c.CHARACTER_SET_NAME, '')
		FROM INFORMATION_SCHEMA.COLUMNS c
		WHERE c.TABLE_SCHEMA = SCHEMA_NAME() AND c.TABLE_NAME = ` + d.Placeholder(0) + `
		ORDER BY c.ORDINAL_POSITION
	`
}

func (d *MSSQLDialect) ProceduresQuery() string {
	return `
		SELECT p.name, m.definition
		FROM sys.procedures p
		JOIN sys.sql_modules m ON m.object_id = p.object_id
		WHERE p.schema_id = SCHEMA_ID()
		ORDER BY p.name
	`
}

// ParametersQuery strips the leading '@' from parameter names.
func (d *MSSQLDialect) ParametersQuery() string {
	return `
		SELECT
			STUFF(p.name, 1, 1, ''),
			'',
			CAST(p.is_output AS INT),
			TYPE_NAME(p.user_type_id),
			0,
			p.max_length,
			p.scale,
			p.precision,
			''
		FROM sys.parameters p
		WHERE p.object_id = OBJECT_ID(` + d.Placeholder(0) + `)
		ORDER BY p.parameter_id
	`
}

// Alias types are created with CREATE TYPE, so they are not exported as
// domains.
func (d *MSSQLDialect) DomainsQuery() string {
	return ""
}

func (d *MSSQLDialect) Placeholder(index int) string {
	return fmt.Sprintf("@p%d", index+1)
}

func (d *MSSQLDialect) NormalizeIdentifier(name string) string {
	return strings.TrimSuffix(strings.TrimPrefix(name, "["), "]")
}

func (d *MSSQLDialect) SQLType(ft FieldType) string {
	return ComposeType(ft)
}

func (d *MSSQLDialect) ColumnType(source string, ft FieldType) string {
	return DefaultColumnType(d, source, ft)
}

// CreateProcedureQuery writes T-SQL parameters, '@' prefixed and OUTPUT
// marked, without parentheses.
func (d *MSSQLDialect) CreateProcedureQuery(name string, params []script.Parameter, body string) string {
	header := "CREATE PROCEDURE " + name
	if len(params) > 0 {
		defs := make([]string, len(params))
		for i, p := range params {
			defs[i] = "@" + strings.TrimPrefix(p.Definition(), "@")
			if parameterMode(p) == script.DirectionOut {
				defs[i] += " OUTPUT"
			}
		}
		header += " " + strings.Join(defs, ", ")
	}
	return header + "\nAS\n" + body
}

func (d *MSSQLDialect) DropProcedureQuery(name string) string {
	return defaultDropProcedureQuery(name)
}

func (d *MSSQLDialect) AddColumnQuery(table, definition string) string {
	return defaultAddColumnQuery(table, definition)
}

func (d *MSSQLDialect) DropColumnQuery(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", table, column)
}

func (d *MSSQLDialect) ClassifyError(err error) ErrorKind {
	var msErr mssql.Error
	if !errors.As(err, &msErr) {
		return ErrorOther
	}
	switch msErr.Number {
	case msUniqueConstraint, msDuplicateKeyIndex:
		return ErrorDuplicateKey
	case msObjectExists, msDuplicateColumn:
		return ErrorAlreadyExists
	case msCannotDrop, msDropColumnMissing, msInvalidObject:
		return ErrorNotFound
	default:
		return ErrorOther
	}
}
