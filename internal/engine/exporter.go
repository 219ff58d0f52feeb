package engine

import (
	"context"
	"fmt"
	"strings"

	"dbmeta/internal/dialect"
	"dbmeta/internal/script"
)

// Exported file names, in the order a build must run them.
const (
	DomainsFile    = "01_domains.sql"
	TablesFile     = "02_tables.sql"
	ProceduresFile = "03_procedures.sql"
)

// Exporter writes a database's schema back into scripts that Builder and
// Synchronizer read.
type Exporter struct {
	catalog Catalog
	log     Logger
}

func NewExporter(catalog Catalog, logger Logger) *Exporter {
	if logger == nil {
		logger = NullLogger{}
	}
	return &Exporter{catalog: catalog, log: logger}
}

func (e *Exporter) Export(ctx context.Context) ([]script.File, error) {
	domains, err := e.domains(ctx)
	if err != nil {
		return nil, err
	}
	tables, err := e.tables(ctx)
	if err != nil {
		return nil, err
	}
	procedures, err := e.procedures(ctx)
	if err != nil {
		return nil, err
	}
	return []script.File{
		{Name: DomainsFile, Text: domains},
		{Name: TablesFile, Text: tables},
		{Name: ProceduresFile, Text: procedures},
	}, nil
}

func (e *Exporter) domains(ctx context.Context) (string, error) {
	domains, err := e.catalog.Domains(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read domains: %w", err)
	}

	var b strings.Builder
	b.WriteString("-- Domains\n")
	for _, d := range domains {
		e.checkType("domain "+d.Name, d.SQLType, d.Type)
		b.WriteString(script.EncodeDomain(d.Name, d.SQLType))
		b.WriteString("\n")
	}
	e.log.Printf("Exported %d domains", len(domains))
	return b.String(), nil
}

func (e *Exporter) tables(ctx context.Context) (string, error) {
	names, err := e.catalog.Tables(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read tables: %w", err)
	}

	var b strings.Builder
	b.WriteString("-- Tables\n")
	for _, name := range names {
		cols, err := e.catalog.Columns(ctx, name)
		if err != nil {
			return "", fmt.Errorf("failed to read columns of %s: %w", name, err)
		}
		defs := make([]script.ColumnDef, len(cols))
		for i, c := range cols {
			e.checkType("column "+name+"."+c.Name, c.SQLType, c.Type)
			defs[i] = script.ColumnDef{Name: c.Name, Definition: c.Definition()}
		}
		b.WriteString(script.EncodeTable(name, defs))
		b.WriteString("\n")
	}
	e.log.Printf("Exported %d tables", len(names))
	return b.String(), nil
}

func (e *Exporter) procedures(ctx context.Context) (string, error) {
	procs, err := e.catalog.Procedures(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read procedures: %w", err)
	}

	var b strings.Builder
	b.WriteString("-- Procedures\n")
	exported := 0
	for _, p := range procs {
		if !script.ClosesProcedure(p.Source) {
			e.log.Printf("WARNING: procedure %s skipped, its source is empty or does not end with a bare END line", p.Name)
			continue
		}
		params, err := e.catalog.Parameters(ctx, p.Name)
		if err != nil {
			return "", fmt.Errorf("failed to read parameters of %s: %w", p.Name, err)
		}
		encoded := make([]script.Parameter, len(params))
		for i, prm := range params {
			dir := script.DirectionIn
			if prm.Output {
				dir = script.DirectionOut
			}
			encoded[i] = script.Parameter{Name: prm.Name, Domain: prm.SQLType, Direction: dir}
		}
		b.WriteString(script.EncodeProcedure(p.Name, encoded, p.Source))
		b.WriteString("\n")
		exported++
	}
	e.log.Printf("Exported %d procedures", exported)
	return b.String(), nil
}

func (e *Exporter) checkType(what, sqlType string, ft dialect.FieldType) {
	if sqlType == dialect.UnknownType {
		e.log.Printf("WARNING: %s has unsupported %s, written as %s", what, ft, dialect.UnknownType)
	}
}
