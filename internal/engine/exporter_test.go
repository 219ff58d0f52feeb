package engine_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbmeta/internal/dialect"
	"dbmeta/internal/engine"
	"dbmeta/internal/schema"
	"dbmeta/internal/script"
)

func exportFixture() *fakeCatalog {
	fb := &dialect.FirebirdDialect{}
	cat := newFakeCatalog()

	idType := dialect.FieldType{Code: 8}
	nameType := dialect.FieldType{Code: 37, Length: 200, Charset: "UTF8"}
	cat.domains = []*schema.Domain{
		{Name: "DM_ID", Type: idType, SQLType: fb.SQLType(idType)},
		{Name: "DM_NAME", Type: nameType, SQLType: fb.SQLType(nameType)},
	}

	cat.tables = []string{"CUSTOMERS"}
	cat.columns["CUSTOMERS"] = []*schema.Column{
		{Name: "ID", Source: "DM_ID", SQLType: fb.ColumnType("DM_ID", idType)},
		{Name: "NAME", Source: "DM_NAME", SQLType: fb.ColumnType("DM_NAME", nameType)},
		{Name: "BALANCE", Source: "RDB$12", SQLType: fb.ColumnType("RDB$12", dialect.FieldType{Code: 16, Scale: -2, Precision: 18})},
	}

	cat.procs = []*schema.Procedure{{Name: "GET_NAME", Source: "BEGIN\n  SELECT NAME FROM CUSTOMERS WHERE ID = :CUST_ID INTO :CUST_NAME;\n  SUSPEND;\nEND"}}
	cat.params["GET_NAME"] = []*schema.Parameter{
		{Name: "CUST_ID", SQLType: "DM_ID"},
		{Name: "CUST_NAME", SQLType: "DM_NAME", Output: true},
	}
	return cat
}

func TestExport_Files(t *testing.T) {
	files, err := engine.NewExporter(exportFixture(), nil).Export(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 3)

	assert.Equal(t, engine.DomainsFile, files[0].Name)
	assert.Equal(t, "-- Domains\nCREATE DOMAIN DM_ID INTEGER;\n\nCREATE DOMAIN DM_NAME VARCHAR(50);\n\n", files[0].Text)

	assert.Equal(t, engine.TablesFile, files[1].Name)
	assert.Equal(t, "-- Tables\nCREATE TABLE CUSTOMERS (\n    ID DM_ID,\n    NAME DM_NAME,\n    BALANCE NUMERIC(18,2)\n);\n\n", files[1].Text)

	assert.Equal(t, engine.ProceduresFile, files[2].Name)
	assert.Equal(t, "-- Procedures\n"+
		"-- PROCEDURE_META GET_NAME\n"+
		"-- IN CUST_ID DM_ID\n"+
		"-- OUT CUST_NAME DM_NAME\n"+
		"\n"+
		"BEGIN\n  SELECT NAME FROM CUSTOMERS WHERE ID = :CUST_ID INTO :CUST_NAME;\n  SUSPEND;\nEND\n\n", files[2].Text)
}

// Exported scripts build the same schema back.
func TestExport_BuildsBack(t *testing.T) {
	cat := exportFixture()
	files, err := engine.NewExporter(cat, nil).Export(context.Background())
	require.NoError(t, err)

	exec := newFakeExecutor()
	report, err := engine.NewBuilder(exec, &dialect.FirebirdDialect{}, engine.Options{}).Build(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"CREATE DOMAIN DM_ID INTEGER",
		"CREATE DOMAIN DM_NAME VARCHAR(50)",
		"CREATE TABLE CUSTOMERS (\n    ID DM_ID,\n    NAME DM_NAME,\n    BALANCE NUMERIC(18,2)\n)",
		"CREATE PROCEDURE GET_NAME (CUST_ID DM_ID, CUST_NAME DM_NAME) AS\n" + cat.procs[0].Source,
	}, exec.committed)
	assert.Equal(t, 4, report.Applied)
}

// Updating a database with its own export changes nothing.
func TestExport_UpdateIsNoop(t *testing.T) {
	cat := exportFixture()
	files, err := engine.NewExporter(cat, nil).Export(context.Background())
	require.NoError(t, err)

	exec := newFakeExecutor()
	exec.failures["CREATE DOMAIN DM_ID INTEGER"] = errAlreadyExists("DM_ID")
	exec.failures["CREATE DOMAIN DM_NAME VARCHAR(50)"] = errAlreadyExists("DM_NAME")

	report, err := engine.NewSynchronizer(exec, cat, &dialect.FirebirdDialect{}, engine.Options{}).Run(context.Background(), files)
	require.NoError(t, err)

	assert.Empty(t, exec.committed)
	assert.Equal(t, 2, report.Tolerated)
	assert.Equal(t, 1, report.ProceduresUnchanged)
}

func TestExport_EmptyCatalog(t *testing.T) {
	files, err := engine.NewExporter(newFakeCatalog(), nil).Export(context.Background())
	require.NoError(t, err)

	for _, f := range files {
		stmts := script.Statements(f.Text)
		require.Len(t, stmts, 1, f.Name)
		assert.Empty(t, script.Head(stmts[0]), "%s holds only its header", f.Name)
	}
}

type captureLogger struct{ lines []string }

func (l *captureLogger) Printf(format string, v ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}

// A procedure without a closing END line would swallow the next block, so it
// is left out with a warning.
func TestExport_SkipsUnclosedProcedures(t *testing.T) {
	cat := newFakeCatalog()
	cat.procs = []*schema.Procedure{
		{Name: "P_A", Source: ""},
		{Name: "P_B", Source: "BEGIN\n  EXIT;\nEND"},
		{Name: "P_C", Source: "BEGIN SELECT 1; END"},
	}

	logger := &captureLogger{}
	files, err := engine.NewExporter(cat, logger).Export(context.Background())
	require.NoError(t, err)

	blocks := script.Statements(files[2].Text)
	require.Len(t, blocks, 1)
	p, err := script.ParseProcedure(blocks[0])
	require.NoError(t, err)
	assert.Equal(t, "P_B", p.Name)
	assert.Equal(t, "BEGIN\n  EXIT;\nEND", p.Source())

	var warned []string
	for _, line := range logger.lines {
		if strings.HasPrefix(line, "WARNING:") {
			warned = append(warned, line)
		}
	}
	require.Len(t, warned, 2)
	assert.Contains(t, warned[0], "P_A")
	assert.Contains(t, warned[1], "P_C")
	assert.Contains(t, logger.lines, "Exported 1 procedures")
}

// A MySQL procedure exported from the catalog builds back with MySQL's own
// CREATE PROCEDURE syntax.
func TestExport_BuildsBackMysql(t *testing.T) {
	cat := newFakeCatalog()
	cat.procs = []*schema.Procedure{{Name: "p_add", Source: "BEGIN\n  SET b = a + 1;\nEND"}}
	cat.params["p_add"] = []*schema.Parameter{
		{Name: "a", SQLType: "int"},
		{Name: "b", SQLType: "int", Output: true},
	}

	files, err := engine.NewExporter(cat, nil).Export(context.Background())
	require.NoError(t, err)

	exec := newFakeExecutor()
	_, err = engine.NewBuilder(exec, &dialect.MysqlDialect{}, engine.Options{}).Build(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, []string{"CREATE PROCEDURE p_add (IN a int, OUT b int)\nBEGIN\n  SET b = a + 1;\nEND"}, exec.committed)
}

type metadataError string

func (e metadataError) Error() string { return string(e) }

func errAlreadyExists(name string) error {
	return metadataError("unsuccessful metadata update\nDomain " + name + " already exists")
}
