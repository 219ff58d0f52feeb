package dialect

import "dbmeta/internal/script"

// Dialect abstracts database-specific catalog access and DDL details.
type Dialect interface {
	// Driver is the database/sql driver name.
	Driver() string

	// Catalog queries. Each returns "" when the database has no such object
	// kind. Result shapes:
	//   tables:     name
	//   columns:    name, source, type_name, type_code, length, scale, precision, charset
	//   procedures: name, source
	//   parameters: name, source, is_output, type_name, type_code, length, scale, precision, charset
	//   domains:    name, type_name, type_code, length, scale, precision, charset
	// ColumnsQuery and ParametersQuery take the owning object's name as their
	// only argument, bound with Placeholder(0).
	TablesQuery() string
	ColumnsQuery() string
	ProceduresQuery() string
	ParametersQuery() string
	DomainsQuery() string

	// Placeholder is the bind marker of the index-th (0-based) query argument.
	Placeholder(index int) string

	// NormalizeIdentifier folds an unquoted identifier the way the catalog
	// stores it.
	NormalizeIdentifier(name string) string

	// SQLType renders a field type as DDL.
	SQLType(ft FieldType) string
	// ColumnType picks the declared type of a column or parameter: its
	// domain when it has a user-visible one, SQLType otherwise.
	ColumnType(source string, ft FieldType) string

	// DDL generation
	CreateProcedureQuery(name string, params []script.Parameter, body string) string
	DropProcedureQuery(name string) string
	AddColumnQuery(table, definition string) string
	DropColumnQuery(table, column string) string

	// ClassifyError maps a driver error onto the kinds the engine tolerates.
	ClassifyError(err error) ErrorKind
}

// FileDatabase is implemented by dialects whose database is a local file the
// tool creates itself.
type FileDatabase interface {
	// Extension of the database file, without the dot.
	Extension() string
	// CreateDriver is the driver name that creates the file on first connect.
	CreateDriver() string
	// FileDSN builds the DSN addressing the database file at path.
	FileDSN(path string, c Credentials) string
}

// Credentials used when creating a file database on a server.
type Credentials struct {
	User     string
	Password string
	Host     string
	Port     int
}
