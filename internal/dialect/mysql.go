package dialect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"dbmeta/internal/script"
)

type MysqlDialect struct{}

// Server error numbers.
const (
	myTableExists     = 1050
	myDupFieldName    = 1060
	myDupKeyName      = 1061
	myDupEntry        = 1062
	myCantDropField   = 1091
	myNoSuchTable     = 1146
	mySpAlreadyExists = 1304
	mySpDoesNotExist  = 1305
	myDupForeignKey   = 1826
)

func (d *MysqlDialect) Driver() string { return "mysql" }

func (d *MysqlDialect) TablesQuery() string {
	return `SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME`
}

func (d *MysqlDialect) ColumnsQuery() string {
	return `SELECT COLUMN_NAME, '', COLUMN_TYPE, 0, COALESCE(CHARACTER_MAXIMUM_LENGTH, 0), COALESCE(NUMERIC_SCALE, 0), COALESCE(NUMERIC_PRECISION, 0), COALESCE(CHARACTER_SET_NAME, '') FROM information_schema.COLUMNS WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ` + d.Placeholder(0) + ` ORDER BY ORDINAL_POSITION`
}

func (d *MysqlDialect) ProceduresQuery() string {
	return `SELECT ROUTINE_NAME, ROUTINE_DEFINITION FROM information_schema.ROUTINES WHERE ROUTINE_SCHEMA = DATABASE() AND ROUTINE_TYPE = 'PROCEDURE' ORDER BY ROUTINE_NAME`
}

func (d *MysqlDialect) ParametersQuery() string {
	return `SELECT PARAMETER_NAME, '', IF(PARAMETER_MODE = 'OUT', 1, 0), DTD_IDENTIFIER, 0, 0, 0, 0, '' FROM information_schema.PARAMETERS WHERE SPECIFIC_SCHEMA = DATABASE() AND SPECIFIC_NAME = ` + d.Placeholder(0) + ` AND ROUTINE_TYPE = 'PROCEDURE' ORDER BY ORDINAL_POSITION`
}

// MySQL has no domains.
func (d *MysqlDialect) DomainsQuery() string {
	return ""
}

func (d *MysqlDialect) Placeholder(index int) string {
	return "?"
}

func (d *MysqlDialect) NormalizeIdentifier(name string) string {
	if len(name) >= 2 && name[0] == '`' && name[len(name)-1] == '`' {
		return name[1 : len(name)-1]
	}
	return name
}

func (d *MysqlDialect) SQLType(ft FieldType) string {
	if ft.Name == "" {
		return UnknownType
	}
	return ft.Name
}

func (d *MysqlDialect) ColumnType(source string, ft FieldType) string {
	return DefaultColumnType(d, source, ft)
}

// CreateProcedureQuery writes IN/OUT modes in the parameter list; the body
// follows the header directly, without AS.
func (d *MysqlDialect) CreateProcedureQuery(name string, params []script.Parameter, body string) string {
	defs := make([]string, len(params))
	for i, p := range params {
		defs[i] = string(parameterMode(p)) + " " + p.Definition()
	}
	return fmt.Sprintf("CREATE PROCEDURE %s (%s)\n%s", name, strings.Join(defs, ", "), body)
}

func (d *MysqlDialect) DropProcedureQuery(name string) string {
	return defaultDropProcedureQuery(name)
}

func (d *MysqlDialect) AddColumnQuery(table, definition string) string {
	return defaultAddColumnQuery(table, definition)
}

func (d *MysqlDialect) DropColumnQuery(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", table, column)
}

func (d *MysqlDialect) ClassifyError(err error) ErrorKind {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return ErrorOther
	}
	switch myErr.Number {
	case myDupEntry:
		return ErrorDuplicateKey
	case myTableExists, myDupFieldName, myDupKeyName, mySpAlreadyExists, myDupForeignKey:
		return ErrorAlreadyExists
	case myCantDropField, myNoSuchTable, mySpDoesNotExist:
		return ErrorNotFound
	default:
		return ErrorOther
	}
}
