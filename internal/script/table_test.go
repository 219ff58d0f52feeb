package script_test

import (
	"testing"

	"dbmeta/internal/script"
)

func TestParseTable(t *testing.T) {
	stmt := `-- Tables

CREATE TABLE ORDERS (
    ID DM_ID NOT NULL,
    TOTAL NUMERIC(10,2),
    NOTE VARCHAR(200),
    CONSTRAINT PK_ORDERS PRIMARY KEY (ID),
    UNIQUE (NOTE)
);`
	tbl, err := script.ParseTable(stmt)
	if err != nil {
		t.Fatalf("ParseTable failed: %v", err)
	}
	if tbl.Name != "ORDERS" {
		t.Errorf("Expected ORDERS, got %s", tbl.Name)
	}

	want := []script.ColumnDef{
		{Name: "ID", Definition: "ID DM_ID NOT NULL"},
		{Name: "TOTAL", Definition: "TOTAL NUMERIC(10,2)"},
		{Name: "NOTE", Definition: "NOTE VARCHAR(200)"},
	}
	if len(tbl.Columns) != len(want) {
		t.Fatalf("Expected %d columns, got %+v", len(want), tbl.Columns)
	}
	for i, c := range want {
		if tbl.Columns[i] != c {
			t.Errorf("Column %d: got %+v, want %+v", i, tbl.Columns[i], c)
		}
	}

	if _, ok := tbl.Column("total"); !ok {
		t.Error("Column lookup should be case-insensitive")
	}
}

func TestParseTable_CRLF(t *testing.T) {
	tbl, err := script.ParseTable("CREATE TABLE T (\r\n    ID INTEGER,\r\n    NAME VARCHAR(10)\r\n);")
	if err != nil {
		t.Fatalf("ParseTable failed: %v", err)
	}
	if len(tbl.Columns) != 2 || tbl.Columns[1].Name != "NAME" {
		t.Errorf("Unexpected columns: %+v", tbl.Columns)
	}
}

// A comment after the separating comma keeps the comma off the line end, so
// the following column is read into the same definition.
func TestParseTable_TrailingCommentMergesColumns(t *testing.T) {
	tbl, err := script.ParseTable("CREATE TABLE T (\n    ID INTEGER, -- key\n    NAME VARCHAR(10)\n);")
	if err != nil {
		t.Fatalf("ParseTable failed: %v", err)
	}
	if len(tbl.Columns) != 1 || tbl.Columns[0].Name != "ID" {
		t.Fatalf("Expected the single merged column ID, got %+v", tbl.Columns)
	}
	if _, ok := tbl.Column("NAME"); ok {
		t.Error("NAME should not be read as a column of its own")
	}
}

func TestTableName(t *testing.T) {
	tests := map[string]string{
		"CREATE TABLE T (ID INTEGER);":               "T",
		"create table customers(\n ID INTEGER\n);":   "customers",
		"-- c\nCREATE TABLE X\n(\n ID INTEGER\n);": "X",
	}
	for stmt, want := range tests {
		got, err := script.TableName(stmt)
		if err != nil {
			t.Errorf("TableName(%q) failed: %v", stmt, err)
			continue
		}
		if got != want {
			t.Errorf("TableName(%q) = %s, want %s", stmt, got, want)
		}
	}

	if _, err := script.TableName("CREATE VIEW V AS SELECT 1 FROM T;"); err == nil {
		t.Error("Expected error for a non-table statement")
	}
}

func TestEncodeTable_ParsesBack(t *testing.T) {
	cols := []script.ColumnDef{
		{Name: "ID", Definition: "ID INTEGER NOT NULL"},
		{Name: "PRICE", Definition: "PRICE NUMERIC(12,4)"},
	}
	text := script.EncodeTable("ITEMS", cols)
	if text != "CREATE TABLE ITEMS (\n    ID INTEGER NOT NULL,\n    PRICE NUMERIC(12,4)\n);\n" {
		t.Errorf("Unexpected encoding: %q", text)
	}

	tbl, err := script.ParseTable(text)
	if err != nil {
		t.Fatalf("ParseTable failed: %v", err)
	}
	if len(tbl.Columns) != 2 || tbl.Columns[0] != cols[0] || tbl.Columns[1] != cols[1] {
		t.Errorf("Parsed back %+v, want %+v", tbl.Columns, cols)
	}
}

func TestEncodeDomain(t *testing.T) {
	if got := script.EncodeDomain("DM_ID", "INTEGER"); got != "CREATE DOMAIN DM_ID INTEGER;\n" {
		t.Errorf("Unexpected domain encoding: %q", got)
	}
}
