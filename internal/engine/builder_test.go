package engine_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbmeta/internal/dialect"
	"dbmeta/internal/engine"
	"dbmeta/internal/script"
)

func TestBuild_DomainThenTable(t *testing.T) {
	exec := newFakeExecutor()
	b := engine.NewBuilder(exec, &dialect.FirebirdDialect{}, engine.Options{})

	report, err := b.Build(context.Background(), []script.File{
		{Name: "01_domains.sql", Text: "-- Domains\nCREATE DOMAIN DM_ID INTEGER;\n\n"},
		{Name: "02_tables.sql", Text: "-- Tables\nCREATE TABLE T (\n    ID DM_ID\n);\n\n"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"CREATE DOMAIN DM_ID INTEGER",
		"CREATE TABLE T (\n    ID DM_ID\n)",
	}, exec.committed)
	assert.Equal(t, 1, report.DomainsCreated)
	assert.Equal(t, 1, report.TablesCreated)
	assert.Equal(t, 2, report.Applied)
}

func TestBuild_RewritesProcedures(t *testing.T) {
	exec := newFakeExecutor()
	b := engine.NewBuilder(exec, &dialect.FirebirdDialect{}, engine.Options{})

	text := "-- Procedures\n" + script.EncodeProcedure("P_ADD",
		[]script.Parameter{{Name: "A", Domain: "INTEGER", Direction: script.DirectionIn}},
		"BEGIN\n  A = A + 1;\nEND") + "\n"

	report, err := b.Build(context.Background(), []script.File{{Name: "03_procedures.sql", Text: text}})
	require.NoError(t, err)

	require.Len(t, exec.committed, 1)
	assert.Equal(t, "CREATE PROCEDURE P_ADD (A INTEGER) AS\nBEGIN\n  A = A + 1;\nEND", exec.committed[0])
	assert.Equal(t, 1, report.ProceduresApplied)
}

func TestBuild_AbortsOnFirstFailure(t *testing.T) {
	exec := newFakeExecutor()
	boom := errors.New("Dynamic SQL Error\nToken unknown")
	exec.failures["CREATE TABLE B (ID INTEGER)"] = boom

	var progress int
	b := engine.NewBuilder(exec, &dialect.FirebirdDialect{}, engine.Options{OnStatement: func() { progress++ }})

	_, err := b.Build(context.Background(), []script.File{
		{Name: "01.sql", Text: "CREATE TABLE A (ID INTEGER);\nCREATE TABLE B (ID INTEGER);\nCREATE TABLE C (ID INTEGER);\n"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var stmtErr *engine.StatementError
	require.ErrorAs(t, err, &stmtErr)
	assert.Equal(t, "01.sql", stmtErr.File)
	assert.Equal(t, 2, stmtErr.Index)

	assert.Equal(t, []string{"CREATE TABLE A (ID INTEGER)"}, exec.committed)
	assert.Equal(t, []string{"CREATE TABLE B (ID INTEGER)"}, exec.rolledBack)
	assert.Equal(t, 2, progress)
}

// Build does not tolerate errors an update would.
func TestBuild_AlreadyExistsIsFatal(t *testing.T) {
	exec := newFakeExecutor()
	exec.failures["CREATE DOMAIN DM_ID INTEGER"] = errors.New("unsuccessful metadata update\nDomain DM_ID already exists")

	_, err := engine.NewBuilder(exec, &dialect.FirebirdDialect{}, engine.Options{}).
		Build(context.Background(), []script.File{{Name: "01.sql", Text: "CREATE DOMAIN DM_ID INTEGER;"}})
	assert.Error(t, err)
}

func TestBuild_MissingProcedureMeta(t *testing.T) {
	exec := newFakeExecutor()
	_, err := engine.NewBuilder(exec, &dialect.FirebirdDialect{}, engine.Options{}).
		Build(context.Background(), []script.File{{Name: "03.sql", Text: "BEGIN\n  EXIT;\nEND\n"}})

	assert.ErrorIs(t, err, script.ErrMissingProcedureMeta)
	assert.Empty(t, exec.committed)
}

func TestBuild_SkipsCommentOnlyStatements(t *testing.T) {
	exec := newFakeExecutor()
	report, err := engine.NewBuilder(exec, &dialect.FirebirdDialect{}, engine.Options{}).
		Build(context.Background(), []script.File{{Name: "03_procedures.sql", Text: "-- Procedures\n\n"}})

	require.NoError(t, err)
	assert.Empty(t, exec.committed)
	assert.Equal(t, 1, report.Skipped)
}

func TestBuild_DryRun(t *testing.T) {
	var out bytes.Buffer
	exec := engine.NewDryRunExecutor(&out)

	_, err := engine.NewBuilder(exec, &dialect.FirebirdDialect{}, engine.Options{}).
		Build(context.Background(), []script.File{{Name: "01.sql", Text: "CREATE DOMAIN DM_ID INTEGER;\nCREATE TABLE T (ID DM_ID);\n"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"CREATE DOMAIN DM_ID INTEGER", "CREATE TABLE T (ID DM_ID)"}, exec.Statements())
	assert.Equal(t, "CREATE DOMAIN DM_ID INTEGER;\n\nCREATE TABLE T (ID DM_ID);\n\n", out.String())
}
