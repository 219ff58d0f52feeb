package dialect

import (
	"fmt"
	"strings"

	"dbmeta/internal/script"
)

type OracleDialect struct{}

// ORA- codes, matched in the message text go-ora returns.
const (
	oraUniqueConstraint = "ORA-00001"
	oraInvalidID        = "ORA-00904"
	oraNoTable          = "ORA-00942"
	oraNameUsed         = "ORA-00955"
	oraColumnExists     = "ORA-01430"
	oraNoObject         = "ORA-04043"
)

func (d *OracleDialect) Driver() string { return "oracle" }

// USER_* views list the objects owned by the connected user.
func (d *OracleDialect) TablesQuery() string {
	return `SELECT TABLE_NAME FROM USER_TABLES ORDER BY TABLE_NAME`
}

func (d *OracleDialect) ColumnsQuery() string {
	return `
SELECT
    COLUMN_NAME,
    NULL,
    DATA_TYPE,
    0,
    COALESCE(CHAR_LENGTH, 0),
    COALESCE(DATA_SCALE, 0),
    COALESCE(DATA_PRECISION, 0),
    CHARACTER_SET_NAME
FROM USER_TAB_COLUMNS
WHERE TABLE_NAME = ` + d.Placeholder(0) + `
ORDER BY COLUMN_ID`
}

// Procedures are not read back: USER_SOURCE holds the whole unit, header
// included, ending with "END;" or "END name;", which never closes a
// procedure block in a script. Updates therefore replace every procedure
// block.
func (d *OracleDialect) ProceduresQuery() string { return "" }
func (d *OracleDialect) ParametersQuery() string { return "" }

// Oracle has no domains.
func (d *OracleDialect) DomainsQuery() string {
	return ""
}

func (d *OracleDialect) Placeholder(index int) string {
	// Oracle uses :1, :2, ...
	return fmt.Sprintf(":%d", index+1)
}

func (d *OracleDialect) NormalizeIdentifier(name string) string {
	if quoted, ok := unquote(name); ok {
		return quoted
	}
	return strings.ToUpper(name)
}

func (d *OracleDialect) SQLType(ft FieldType) string {
	return ComposeType(ft)
}

func (d *OracleDialect) ColumnType(source string, ft FieldType) string {
	return DefaultColumnType(d, source, ft)
}

// CreateProcedureQuery writes "name IN|OUT type" parameters and terminates
// the PL/SQL body with ';', which scripts leave off the closing END.
func (d *OracleDialect) CreateProcedureQuery(name string, params []script.Parameter, body string) string {
	header := "CREATE PROCEDURE " + name
	if len(params) > 0 {
		defs := make([]string, len(params))
		for i, p := range params {
			defs[i] = strings.TrimSpace(p.Name + " " + string(parameterMode(p)) + " " + p.Domain)
		}
		header += " (" + strings.Join(defs, ", ") + ")"
	}
	body = strings.TrimRight(body, " \t\r\n")
	if !strings.HasSuffix(body, ";") {
		body += ";"
	}
	return header + " AS\n" + body
}

func (d *OracleDialect) DropProcedureQuery(name string) string {
	return defaultDropProcedureQuery(name)
}

func (d *OracleDialect) AddColumnQuery(table, definition string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD (%s)", table, definition)
}

func (d *OracleDialect) DropColumnQuery(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", table, column)
}

func (d *OracleDialect) ClassifyError(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorOther
	case messageContains(err, oraUniqueConstraint):
		return ErrorDuplicateKey
	case messageContains(err, oraNameUsed, oraColumnExists):
		return ErrorAlreadyExists
	case messageContains(err, oraNoObject, oraNoTable, oraInvalidID):
		return ErrorNotFound
	default:
		return ErrorOther
	}
}
