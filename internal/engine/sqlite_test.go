package engine_test

import (
	"bytes"
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"dbmeta/internal/dialect"
	"dbmeta/internal/engine"
	"dbmeta/internal/schema"
	"dbmeta/internal/script"
)

const (
	initialScript = `-- Tables
CREATE TABLE T (
    ID INTEGER NOT NULL PRIMARY KEY,
    NAME VARCHAR(20)
);

INSERT INTO T (ID, NAME) VALUES (1, 'first');
`
	updatedScript = `-- Tables
CREATE TABLE T (
    ID INTEGER NOT NULL PRIMARY KEY,
    EMAIL VARCHAR(50)
);

INSERT INTO T (ID) VALUES (1);
`
)

func openSqlite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func columnNames(t *testing.T, r *schema.Reader, table string) []string {
	t.Helper()
	cols, err := r.Columns(context.Background(), table)
	require.NoError(t, err)
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

func TestSqlite_BuildUpdateExport(t *testing.T) {
	ctx := context.Background()
	d := &dialect.SqliteDialect{}
	db := openSqlite(t)
	exec := engine.NewSQLExecutor(db)
	reader := schema.NewReader(db, d)

	report, err := engine.NewBuilder(exec, d, engine.Options{}).
		Build(ctx, []script.File{{Name: "02_tables.sql", Text: initialScript}})
	require.NoError(t, err)
	assert.Equal(t, 1, report.TablesCreated)
	assert.Equal(t, 2, report.Applied)
	assert.Equal(t, []string{"ID", "NAME"}, columnNames(t, reader, "T"))

	files := []script.File{{Name: "02_tables.sql", Text: updatedScript}}
	report, err = engine.NewSynchronizer(exec, reader, d, engine.Options{}).Run(ctx, files)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ColumnsAdded)
	assert.Equal(t, 1, report.ColumnsDropped)
	assert.Equal(t, 1, report.Tolerated, "duplicate insert is tolerated")
	assert.Equal(t, []string{"ID", "EMAIL"}, columnNames(t, reader, "T"))

	var rows int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM T").Scan(&rows))
	assert.Equal(t, 1, rows)

	// a second update has nothing left to do
	report, err = engine.NewSynchronizer(exec, reader, d, engine.Options{}).Run(ctx, files)
	require.NoError(t, err)
	assert.Zero(t, report.ColumnsAdded)
	assert.Zero(t, report.ColumnsDropped)
	assert.Zero(t, report.TablesCreated)
	assert.Zero(t, report.Applied)

	exported, err := engine.NewExporter(reader, nil).Export(ctx)
	require.NoError(t, err)
	require.Len(t, exported, 3)
	assert.Equal(t, "-- Tables\nCREATE TABLE T (\n    ID INTEGER,\n    EMAIL VARCHAR(50)\n);\n\n", exported[1].Text)

	fresh := openSqlite(t)
	report, err = engine.NewBuilder(engine.NewSQLExecutor(fresh), d, engine.Options{}).Build(ctx, exported)
	require.NoError(t, err)
	assert.Equal(t, 1, report.TablesCreated)
	assert.Equal(t, 2, report.Skipped, "header-only domain and procedure files")
	assert.Equal(t, []string{"ID", "EMAIL"}, columnNames(t, schema.NewReader(fresh, d), "T"))
}

func TestSqlite_DryRunLeavesDatabaseAlone(t *testing.T) {
	ctx := context.Background()
	d := &dialect.SqliteDialect{}
	db := openSqlite(t)
	reader := schema.NewReader(db, d)

	_, err := engine.NewBuilder(engine.NewSQLExecutor(db), d, engine.Options{}).
		Build(ctx, []script.File{{Name: "02_tables.sql", Text: initialScript}})
	require.NoError(t, err)

	var out bytes.Buffer
	dry := engine.NewDryRunExecutor(&out)
	_, err = engine.NewSynchronizer(dry, reader, d, engine.Options{}).
		Run(ctx, []script.File{{Name: "02_tables.sql", Text: updatedScript}})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"ALTER TABLE T ADD EMAIL VARCHAR(50)",
		"ALTER TABLE T DROP NAME",
		"INSERT INTO T (ID) VALUES (1)",
	}, dry.Statements())
	assert.Equal(t, []string{"ID", "NAME"}, columnNames(t, reader, "T"))
}

func TestSqlite_UpdateCreatesMissingTable(t *testing.T) {
	ctx := context.Background()
	d := &dialect.SqliteDialect{}
	db := openSqlite(t)
	reader := schema.NewReader(db, d)

	report, err := engine.NewSynchronizer(engine.NewSQLExecutor(db), reader, d, engine.Options{}).
		Run(ctx, []script.File{{Name: "02_tables.sql", Text: updatedScript}})
	require.NoError(t, err)
	assert.Equal(t, 1, report.TablesCreated)
	assert.Equal(t, 2, report.Applied)

	tables, err := reader.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"T"}, tables)
}
