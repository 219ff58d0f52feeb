package dialect

import "dbmeta/internal/script"

type SqliteDialect struct{}

func (d *SqliteDialect) Driver() string { return "sqlite" }

func (d *SqliteDialect) TablesQuery() string {
	return `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
}

func (d *SqliteDialect) ColumnsQuery() string {
	return `SELECT name, '', type, 0, 0, 0, 0, '' FROM pragma_table_info(` + d.Placeholder(0) + `) ORDER BY cid`
}

// SQLite has neither stored procedures nor domains.
func (d *SqliteDialect) ProceduresQuery() string { return "" }
func (d *SqliteDialect) ParametersQuery() string { return "" }
func (d *SqliteDialect) DomainsQuery() string    { return "" }

func (d *SqliteDialect) Placeholder(index int) string {
	return "?"
}

func (d *SqliteDialect) NormalizeIdentifier(name string) string {
	if quoted, ok := unquote(name); ok {
		return quoted
	}
	return name
}

// SQLType returns the declared type. Columns declared without one render as
// nothing, which SQLite accepts.
func (d *SqliteDialect) SQLType(ft FieldType) string {
	return ft.Name
}

func (d *SqliteDialect) ColumnType(source string, ft FieldType) string {
	return DefaultColumnType(d, source, ft)
}

func (d *SqliteDialect) CreateProcedureQuery(name string, params []script.Parameter, body string) string {
	return script.CreateProcedure(name, params, body)
}

func (d *SqliteDialect) DropProcedureQuery(name string) string {
	return defaultDropProcedureQuery(name)
}

func (d *SqliteDialect) AddColumnQuery(table, definition string) string {
	return defaultAddColumnQuery(table, definition)
}

func (d *SqliteDialect) DropColumnQuery(table, column string) string {
	return defaultDropColumnQuery(table, column)
}

// ClassifyError matches the result text; the extended result codes are not
// stable across the driver's error wrappers.
func (d *SqliteDialect) ClassifyError(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorOther
	case messageContains(err, "UNIQUE constraint failed", "PRIMARY KEY constraint failed"):
		return ErrorDuplicateKey
	case messageContains(err, "already exists", "duplicate column name"):
		return ErrorAlreadyExists
	case messageContains(err, "no such table", "no such column", "no such procedure"):
		return ErrorNotFound
	default:
		return ErrorOther
	}
}

func (d *SqliteDialect) Extension() string { return "db" }

// CreateDriver is the regular driver: the file is created on first connect.
func (d *SqliteDialect) CreateDriver() string { return "sqlite" }

func (d *SqliteDialect) FileDSN(path string, _ Credentials) string {
	return path
}
