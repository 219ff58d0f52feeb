package engine_test

import (
	"context"
	"strings"

	"dbmeta/internal/engine"
	"dbmeta/internal/schema"
)

// fakeExecutor records statements per transaction outcome. Queries listed in
// failures fail on Exec with the given error.
type fakeExecutor struct {
	committed  []string
	rolledBack []string
	failures   map[string]error
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{failures: map[string]error{}}
}

func (f *fakeExecutor) Begin(ctx context.Context) (engine.Tx, error) {
	return &fakeTx{f: f}, nil
}

type fakeTx struct {
	f       *fakeExecutor
	pending []string
}

func (t *fakeTx) Exec(ctx context.Context, query string, args ...any) error {
	t.pending = append(t.pending, query)
	if err, ok := t.f.failures[query]; ok {
		return err
	}
	return nil
}

func (t *fakeTx) Commit() error {
	t.f.committed = append(t.f.committed, t.pending...)
	return nil
}

func (t *fakeTx) Rollback() error {
	t.f.rolledBack = append(t.f.rolledBack, t.pending...)
	return nil
}

// fakeCatalog is an in-memory catalog.
type fakeCatalog struct {
	tables  []string
	columns map[string][]*schema.Column
	procs   []*schema.Procedure
	params  map[string][]*schema.Parameter
	domains []*schema.Domain

	columnReads []string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		columns: map[string][]*schema.Column{},
		params:  map[string][]*schema.Parameter{},
	}
}

// addTable registers a table with "NAME TYPE" column specs.
func (c *fakeCatalog) addTable(name string, specs ...string) {
	c.tables = append(c.tables, name)
	for _, spec := range specs {
		parts := strings.SplitN(spec, " ", 2)
		c.columns[name] = append(c.columns[name], &schema.Column{Name: parts[0], SQLType: parts[1]})
	}
}

func (c *fakeCatalog) Tables(ctx context.Context) ([]string, error) {
	return c.tables, nil
}

func (c *fakeCatalog) Columns(ctx context.Context, table string) ([]*schema.Column, error) {
	c.columnReads = append(c.columnReads, table)
	return c.columns[table], nil
}

func (c *fakeCatalog) Procedures(ctx context.Context) ([]*schema.Procedure, error) {
	return c.procs, nil
}

func (c *fakeCatalog) Parameters(ctx context.Context, procedure string) ([]*schema.Parameter, error) {
	return c.params[procedure], nil
}

func (c *fakeCatalog) Domains(ctx context.Context) ([]*schema.Domain, error) {
	return c.domains, nil
}
