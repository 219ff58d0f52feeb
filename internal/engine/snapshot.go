package engine

import (
	"context"
	"fmt"
	"strings"

	"dbmeta/internal/schema"
)

// Catalog is the read-only metadata the engine works from. schema.Reader is
// the database-backed implementation.
type Catalog interface {
	Tables(ctx context.Context) ([]string, error)
	Columns(ctx context.Context, table string) ([]*schema.Column, error)
	Procedures(ctx context.Context) ([]*schema.Procedure, error)
	Parameters(ctx context.Context, procedure string) ([]*schema.Parameter, error)
	Domains(ctx context.Context) ([]*schema.Domain, error)
}

var _ Catalog = (*schema.Reader)(nil)

// Snapshot is the engine's view of the catalog during one run. Tables are
// read up front; columns and procedures on first use. It is updated as
// statements succeed, so it also reflects changes a dry run only pretends to
// make.
type Snapshot struct {
	catalog Catalog

	tables  map[string]bool
	columns map[string][]string // table key -> column names in order

	procedures       map[string]*schema.Procedure
	proceduresLoaded bool
	paramsLoaded     map[string]bool
}

// LoadSnapshot reads the table list of catalog.
func LoadSnapshot(ctx context.Context, catalog Catalog) (*Snapshot, error) {
	names, err := catalog.Tables(ctx)
	if err != nil {
		return nil, err
	}
	s := &Snapshot{
		catalog:      catalog,
		tables:       make(map[string]bool, len(names)),
		columns:      make(map[string][]string),
		paramsLoaded: make(map[string]bool),
	}
	for _, n := range names {
		s.tables[key(n)] = true
	}
	return s, nil
}

func (s *Snapshot) HasTable(name string) bool {
	return s.tables[key(name)]
}

// AddTable records a table created by the run, with its declared columns.
func (s *Snapshot) AddTable(name string, columns []string) {
	s.tables[key(name)] = true
	s.columns[key(name)] = append([]string(nil), columns...)
}

// Columns returns the column names of a known table.
func (s *Snapshot) Columns(ctx context.Context, table string) ([]string, error) {
	k := key(table)
	if cols, ok := s.columns[k]; ok {
		return cols, nil
	}
	catalogCols, err := s.catalog.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	cols := make([]string, 0, len(catalogCols))
	for _, c := range catalogCols {
		cols = append(cols, c.Name)
	}
	s.columns[k] = cols
	return cols, nil
}

func (s *Snapshot) HasColumn(ctx context.Context, table, column string) (bool, error) {
	cols, err := s.Columns(ctx, table)
	if err != nil {
		return false, err
	}
	for _, c := range cols {
		if strings.EqualFold(c, column) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Snapshot) AddColumn(table, column string) {
	k := key(table)
	s.columns[k] = append(s.columns[k], column)
}

func (s *Snapshot) DropColumn(table, column string) {
	k := key(table)
	cols := s.columns[k][:0:0]
	for _, c := range s.columns[k] {
		if !strings.EqualFold(c, column) {
			cols = append(cols, c)
		}
	}
	s.columns[k] = cols
}

// Procedure looks a procedure up, loading the procedure list on first use
// and the procedure's parameters on first lookup of it.
func (s *Snapshot) Procedure(ctx context.Context, name string) (*schema.Procedure, bool, error) {
	if !s.proceduresLoaded {
		procs, err := s.catalog.Procedures(ctx)
		if err != nil {
			return nil, false, err
		}
		if s.procedures == nil {
			s.procedures = make(map[string]*schema.Procedure, len(procs))
		}
		for _, p := range procs {
			// procedures created earlier in the run win
			if _, ok := s.procedures[key(p.Name)]; !ok {
				s.procedures[key(p.Name)] = p
			}
		}
		s.proceduresLoaded = true
	}

	k := key(name)
	p, ok := s.procedures[k]
	if !ok {
		return nil, false, nil
	}
	if !s.paramsLoaded[k] {
		params, err := s.catalog.Parameters(ctx, p.Name)
		if err != nil {
			return nil, false, fmt.Errorf("parameters of %s: %w", p.Name, err)
		}
		p.Parameters = params
		s.paramsLoaded[k] = true
	}
	return p, true, nil
}

// PutProcedure records a procedure created by the run.
func (s *Snapshot) PutProcedure(p *schema.Procedure) {
	if s.procedures == nil {
		s.procedures = make(map[string]*schema.Procedure)
	}
	s.procedures[key(p.Name)] = p
	s.paramsLoaded[key(p.Name)] = true
}

func key(name string) string {
	name = strings.TrimSpace(name)
	if len(name) >= 2 && name[0] == '"' && name[len(name)-1] == '"' {
		name = name[1 : len(name)-1]
	}
	return strings.ToUpper(name)
}
