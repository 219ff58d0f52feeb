package dialect

import (
	"fmt"
	"strings"

	"dbmeta/internal/script"
)

type FirebirdDialect struct{}

// Firebird RDB$FIELD_TYPE codes.
const (
	fbSmallint    = 7
	fbInteger     = 8
	fbFloat       = 10
	fbDate        = 12
	fbTime        = 13
	fbChar        = 14
	fbBigint      = 16
	fbBoolean     = 23
	fbDecfloat16  = 24
	fbDecfloat34  = 25
	fbInt128      = 26
	fbDouble      = 27
	fbTimeTZ      = 28
	fbTimestampTZ = 29
	fbTimestamp   = 35
	fbVarchar     = 37
	fbBlob        = 261
)

// implicitDomainPrefix marks the domains Firebird creates for inline column
// and parameter types.
const implicitDomainPrefix = "RDB$"

func (d *FirebirdDialect) Driver() string { return "firebirdsql" }

func (d *FirebirdDialect) TablesQuery() string {
	return `SELECT TRIM(R.RDB$RELATION_NAME)
FROM RDB$RELATIONS R
WHERE COALESCE(R.RDB$SYSTEM_FLAG, 0) = 0 AND R.RDB$VIEW_BLR IS NULL
ORDER BY R.RDB$RELATION_NAME`
}

func (d *FirebirdDialect) ColumnsQuery() string {
	return `SELECT
    TRIM(RF.RDB$FIELD_NAME),
    TRIM(RF.RDB$FIELD_SOURCE),
    CAST(NULL AS VARCHAR(1)),
    F.RDB$FIELD_TYPE,
    F.RDB$FIELD_LENGTH,
    F.RDB$FIELD_SCALE,
    F.RDB$FIELD_PRECISION,
    TRIM(CS.RDB$CHARACTER_SET_NAME)
FROM RDB$RELATION_FIELDS RF
JOIN RDB$FIELDS F ON F.RDB$FIELD_NAME = RF.RDB$FIELD_SOURCE
LEFT JOIN RDB$CHARACTER_SETS CS ON CS.RDB$CHARACTER_SET_ID = F.RDB$CHARACTER_SET_ID
WHERE RF.RDB$RELATION_NAME = ` + d.Placeholder(0) + `
ORDER BY RF.RDB$FIELD_POSITION`
}

func (d *FirebirdDialect) ProceduresQuery() string {
	return `SELECT TRIM(P.RDB$PROCEDURE_NAME), P.RDB$PROCEDURE_SOURCE
FROM RDB$PROCEDURES P
WHERE COALESCE(P.RDB$SYSTEM_FLAG, 0) = 0
ORDER BY P.RDB$PROCEDURE_NAME`
}

func (d *FirebirdDialect) ParametersQuery() string {
	return `SELECT
    TRIM(PP.RDB$PARAMETER_NAME),
    TRIM(PP.RDB$FIELD_SOURCE),
    PP.RDB$PARAMETER_TYPE,
    CAST(NULL AS VARCHAR(1)),
    F.RDB$FIELD_TYPE,
    F.RDB$FIELD_LENGTH,
    F.RDB$FIELD_SCALE,
    F.RDB$FIELD_PRECISION,
    TRIM(CS.RDB$CHARACTER_SET_NAME)
FROM RDB$PROCEDURE_PARAMETERS PP
JOIN RDB$FIELDS F ON F.RDB$FIELD_NAME = PP.RDB$FIELD_SOURCE
LEFT JOIN RDB$CHARACTER_SETS CS ON CS.RDB$CHARACTER_SET_ID = F.RDB$CHARACTER_SET_ID
WHERE PP.RDB$PROCEDURE_NAME = ` + d.Placeholder(0) + `
ORDER BY PP.RDB$PARAMETER_TYPE, PP.RDB$PARAMETER_NUMBER`
}

func (d *FirebirdDialect) DomainsQuery() string {
	return `SELECT
    TRIM(F.RDB$FIELD_NAME),
    CAST(NULL AS VARCHAR(1)),
    F.RDB$FIELD_TYPE,
    F.RDB$FIELD_LENGTH,
    F.RDB$FIELD_SCALE,
    F.RDB$FIELD_PRECISION,
    TRIM(CS.RDB$CHARACTER_SET_NAME)
FROM RDB$FIELDS F
LEFT JOIN RDB$CHARACTER_SETS CS ON CS.RDB$CHARACTER_SET_ID = F.RDB$CHARACTER_SET_ID
WHERE COALESCE(F.RDB$SYSTEM_FLAG, 0) = 0
AND F.RDB$FIELD_NAME NOT STARTING WITH 'RDB$'
ORDER BY F.RDB$FIELD_NAME`
}

func (d *FirebirdDialect) Placeholder(index int) string {
	return "?"
}

func (d *FirebirdDialect) NormalizeIdentifier(name string) string {
	if quoted, ok := unquote(name); ok {
		return quoted
	}
	return strings.ToUpper(name)
}

// SQLType maps RDB$FIELD_TYPE to DDL. Character lengths are stored in bytes
// and converted back to characters for multi-byte character sets.
func (d *FirebirdDialect) SQLType(ft FieldType) string {
	numeric := fmt.Sprintf("NUMERIC(%d,%d)", ft.Precision, abs(ft.Scale))

	switch ft.Code {
	case fbSmallint:
		if ft.Scale != 0 {
			return numeric
		}
		return "SMALLINT"
	case fbInteger:
		if ft.Scale != 0 {
			return numeric
		}
		return "INTEGER"
	case fbBigint:
		if ft.Scale == 0 && ft.Precision == 0 {
			return "BIGINT"
		}
		return numeric
	case fbInt128:
		if ft.Scale == 0 && ft.Precision == 0 {
			return "INT128"
		}
		return numeric
	case fbFloat:
		return "FLOAT"
	case fbDouble:
		if ft.Scale != 0 {
			return numeric
		}
		return "DOUBLE PRECISION"
	case fbDecfloat16:
		return "DECFLOAT(16)"
	case fbDecfloat34:
		return "DECFLOAT(34)"
	case fbDate:
		return "DATE"
	case fbTime:
		return "TIME"
	case fbTimeTZ:
		return "TIME WITH TIME ZONE"
	case fbTimestamp:
		return "TIMESTAMP"
	case fbTimestampTZ:
		return "TIMESTAMP WITH TIME ZONE"
	case fbBoolean:
		return "BOOLEAN"
	case fbChar:
		return fmt.Sprintf("CHAR(%d)", charLength(ft))
	case fbVarchar:
		return fmt.Sprintf("VARCHAR(%d)", charLength(ft))
	case fbBlob:
		return "BLOB"
	default:
		return UnknownType
	}
}

func (d *FirebirdDialect) ColumnType(source string, ft FieldType) string {
	source = strings.TrimSpace(source)
	if source == "" || strings.HasPrefix(strings.ToUpper(source), implicitDomainPrefix) {
		return d.SQLType(ft)
	}
	return source
}

// CreateProcedureQuery lists parameters positionally; PSQL bodies read their
// directions from the metadata comments only.
func (d *FirebirdDialect) CreateProcedureQuery(name string, params []script.Parameter, body string) string {
	return script.CreateProcedure(name, params, body)
}

func (d *FirebirdDialect) DropProcedureQuery(name string) string {
	return defaultDropProcedureQuery(name)
}

func (d *FirebirdDialect) AddColumnQuery(table, definition string) string {
	return defaultAddColumnQuery(table, definition)
}

func (d *FirebirdDialect) DropColumnQuery(table, column string) string {
	return defaultDropColumnQuery(table, column)
}

// ClassifyError matches the status vector text, which carries the reason in
// plain words across server versions.
func (d *FirebirdDialect) ClassifyError(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorOther
	case messageContains(err, "violation of PRIMARY or UNIQUE KEY constraint", "attempt to store duplicate value"):
		return ErrorDuplicateKey
	case messageContains(err, "already exists"):
		return ErrorAlreadyExists
	case messageContains(err, "not found", "does not exist", "is not defined"):
		return ErrorNotFound
	default:
		return ErrorOther
	}
}

func (d *FirebirdDialect) Extension() string { return "fdb" }

func (d *FirebirdDialect) CreateDriver() string { return "firebirdsql_createdb" }

// FileDSN builds user:password@host[:port]/path. An absolute unix path keeps
// its leading slash, giving host//path.
func (d *FirebirdDialect) FileDSN(path string, c Credentials) string {
	host := c.Host
	if host == "" {
		host = "localhost"
	}
	if c.Port > 0 {
		host = fmt.Sprintf("%s:%d", host, c.Port)
	}
	return fmt.Sprintf("%s:%s@%s/%s", c.User, c.Password, host, path)
}

func charLength(ft FieldType) int {
	switch strings.ToUpper(strings.TrimSpace(ft.Charset)) {
	case "UTF8":
		return ft.Length / 4
	case "UNICODE_FSS":
		return ft.Length / 3
	default:
		return ft.Length
	}
}

func unquote(name string) (string, bool) {
	if len(name) >= 2 && name[0] == '"' && name[len(name)-1] == '"' {
		return name[1 : len(name)-1], true
	}
	return name, false
}
