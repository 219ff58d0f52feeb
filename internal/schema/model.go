package schema

import "dbmeta/internal/dialect"

type Column struct {
	Name   string
	Source string // domain the column is declared with, if any
	Type   dialect.FieldType

	// SQLType is the type written in DDL: the domain name or the rendered
	// field type.
	SQLType string
}

type Procedure struct {
	Name       string
	Source     string // body as stored by the catalog
	Parameters []*Parameter
}

type Parameter struct {
	Name    string
	Source  string
	Output  bool
	Type    dialect.FieldType
	SQLType string
}

type Domain struct {
	Name    string
	Type    dialect.FieldType
	SQLType string
}

// Definition is the column as it appears in a CREATE TABLE column list.
func (c *Column) Definition() string {
	if c.SQLType == "" {
		return c.Name
	}
	return c.Name + " " + c.SQLType
}
