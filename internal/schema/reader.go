package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"dbmeta/internal/dialect"
)

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Reader reads schema metadata through the dialect's catalog queries. It
// never modifies the database.
type Reader struct {
	db Querier
	d  dialect.Dialect
}

func NewReader(db Querier, d dialect.Dialect) *Reader {
	return &Reader{db: db, d: d}
}

// Tables lists user table names.
func (r *Reader) Tables(ctx context.Context) ([]string, error) {
	rows, err := r.query(ctx, r.d.TablesQuery())
	if err != nil || rows == nil {
		return nil, wrap("query tables", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name sql.NullString
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		if name.Valid {
			tables = append(tables, strings.TrimSpace(name.String))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return tables, nil
}

// Columns lists the columns of table in position order.
func (r *Reader) Columns(ctx context.Context, table string) ([]*Column, error) {
	rows, err := r.query(ctx, r.d.ColumnsQuery(), r.d.NormalizeIdentifier(table))
	if err != nil || rows == nil {
		return nil, wrap("query columns of "+table, err)
	}
	defer rows.Close()

	var cols []*Column
	for rows.Next() {
		var name, source sql.NullString
		var ft fieldTypeScan
		if err := rows.Scan(append([]any{&name, &source}, ft.targets()...)...); err != nil {
			return nil, fmt.Errorf("failed to scan column (table: %s): %w", table, err)
		}
		if !name.Valid {
			continue
		}
		col := &Column{
			Name:   strings.TrimSpace(name.String),
			Source: strings.TrimSpace(source.String),
			Type:   ft.fieldType(),
		}
		col.SQLType = r.d.ColumnType(col.Source, col.Type)
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}
	return cols, nil
}

// Procedures lists stored procedures with their sources. Parameters are read
// separately.
func (r *Reader) Procedures(ctx context.Context) ([]*Procedure, error) {
	rows, err := r.query(ctx, r.d.ProceduresQuery())
	if err != nil || rows == nil {
		return nil, wrap("query procedures", err)
	}
	defer rows.Close()

	var procs []*Procedure
	for rows.Next() {
		var name, source sql.NullString
		if err := rows.Scan(&name, &source); err != nil {
			return nil, fmt.Errorf("failed to scan procedure: %w", err)
		}
		if !name.Valid {
			continue
		}
		procs = append(procs, &Procedure{
			Name:   strings.TrimSpace(name.String),
			Source: strings.TrimRight(source.String, " \t\r\n"),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating procedures: %w", err)
	}
	return procs, nil
}

// Parameters lists the parameters of procedure, inputs first.
func (r *Reader) Parameters(ctx context.Context, procedure string) ([]*Parameter, error) {
	rows, err := r.query(ctx, r.d.ParametersQuery(), r.d.NormalizeIdentifier(procedure))
	if err != nil || rows == nil {
		return nil, wrap("query parameters of "+procedure, err)
	}
	defer rows.Close()

	var params []*Parameter
	for rows.Next() {
		var name, source sql.NullString
		var output sql.NullInt64
		var ft fieldTypeScan
		if err := rows.Scan(append([]any{&name, &source, &output}, ft.targets()...)...); err != nil {
			return nil, fmt.Errorf("failed to scan parameter (procedure: %s): %w", procedure, err)
		}
		if !name.Valid {
			continue
		}
		p := &Parameter{
			Name:   strings.TrimSpace(name.String),
			Source: strings.TrimSpace(source.String),
			Output: output.Int64 == 1,
			Type:   ft.fieldType(),
		}
		p.SQLType = r.d.ColumnType(p.Source, p.Type)
		params = append(params, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating parameters: %w", err)
	}
	return params, nil
}

// Domains lists user-defined domains.
func (r *Reader) Domains(ctx context.Context) ([]*Domain, error) {
	rows, err := r.query(ctx, r.d.DomainsQuery())
	if err != nil || rows == nil {
		return nil, wrap("query domains", err)
	}
	defer rows.Close()

	var domains []*Domain
	for rows.Next() {
		var name sql.NullString
		var ft fieldTypeScan
		if err := rows.Scan(append([]any{&name}, ft.targets()...)...); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		if !name.Valid {
			continue
		}
		dom := &Domain{Name: strings.TrimSpace(name.String), Type: ft.fieldType()}
		dom.SQLType = r.d.SQLType(dom.Type)
		domains = append(domains, dom)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating domains: %w", err)
	}
	return domains, nil
}

// query returns nil rows without error for an unsupported object kind.
func (r *Reader) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	if q == "" {
		return nil, nil
	}
	return r.db.QueryContext(ctx, q, args...)
}

func wrap(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to %s: %w", what, err)
}

// fieldTypeScan receives the type_name, type_code, length, scale, precision
// and charset result columns.
type fieldTypeScan struct {
	name, charset                  sql.NullString
	code, length, scale, precision sql.NullInt64
}

func (f *fieldTypeScan) targets() []any {
	return []any{&f.name, &f.code, &f.length, &f.scale, &f.precision, &f.charset}
}

func (f *fieldTypeScan) fieldType() dialect.FieldType {
	return dialect.FieldType{
		Code:      int(f.code.Int64),
		Name:      strings.TrimSpace(f.name.String),
		Length:    int(f.length.Int64),
		Scale:     int(f.scale.Int64),
		Precision: int(f.precision.Int64),
		Charset:   strings.TrimSpace(f.charset.String),
	}
}
