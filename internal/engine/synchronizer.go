package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dbmeta/internal/dialect"
	"dbmeta/internal/schema"
	"dbmeta/internal/script"
)

// Synchronizer moves an existing database toward the state its scripts
// describe. Additions are fatal when they fail; removals and re-runs of
// idempotent statements are tolerated.
type Synchronizer struct {
	applier *Applier
	catalog Catalog
	d       dialect.Dialect
	opts    Options
}

func NewSynchronizer(exec Executor, catalog Catalog, d dialect.Dialect, opts Options) *Synchronizer {
	if opts.Procedures == "" {
		opts.Procedures = ProceduresChanged
	}
	return &Synchronizer{applier: NewApplier(exec, d), catalog: catalog, d: d, opts: opts}
}

// run holds the state of one Run call.
type run struct {
	*Synchronizer
	snap   *Snapshot
	report *Report
	log    Logger
}

func (s *Synchronizer) Run(ctx context.Context, files []script.File) (*Report, error) {
	start := time.Now()
	report := &Report{}
	defer func() { report.Elapsed = time.Since(start) }()

	snap, err := LoadSnapshot(ctx, s.catalog)
	if err != nil {
		return report, fmt.Errorf("failed to read catalog: %w", err)
	}
	r := &run{Synchronizer: s, snap: snap, report: report, log: s.opts.logger()}

	for _, f := range files {
		r.log.Printf("Processing %s...", f.Name)
		index := 0
		for stmt := range script.Split(f.Text) {
			index++
			report.Statements++
			err := r.statement(ctx, stmt)
			s.opts.progress()
			if err != nil {
				return report, &StatementError{File: f.Name, Index: index, SQL: stmt, Err: err}
			}
		}
	}
	return report, nil
}

func (r *run) statement(ctx context.Context, stmt string) error {
	if script.Head(stmt) == "" {
		r.report.Skipped++
		return nil
	}
	switch script.Classify(stmt) {
	case script.KindProcedure:
		return r.procedure(ctx, stmt)
	case script.KindTable:
		return r.table(ctx, stmt)
	default:
		return r.other(ctx, stmt)
	}
}

// procedure drops and recreates the procedure. A failed drop usually means
// the procedure did not exist yet.
func (r *run) procedure(ctx context.Context, stmt string) error {
	block, err := script.ParseProcedure(stmt)
	if err != nil {
		return err
	}

	if r.opts.Procedures == ProceduresChanged && !block.Native {
		current, ok, err := r.snap.Procedure(ctx, block.Name)
		if err != nil {
			return fmt.Errorf("failed to read procedure %s: %w", block.Name, err)
		}
		if ok && sameProcedure(block, current) {
			r.log.Printf("Procedure %s unchanged", block.Name)
			r.report.ProceduresUnchanged++
			return nil
		}
	}

	if res := r.applier.Apply(ctx, r.d.DropProcedureQuery(block.Name)); !res.OK() {
		r.log.Printf("Drop of procedure %s skipped (%s): %v", block.Name, res.Status, res.Err)
		r.report.Tolerated++
	}

	res := r.applier.Apply(ctx, block.DDL(r.d.CreateProcedureQuery))
	if !res.OK() {
		return fmt.Errorf("create procedure %s: %w", block.Name, res.Err)
	}
	r.log.Printf("Procedure %s applied", block.Name)
	r.report.Applied++
	r.report.ProceduresApplied++
	r.snap.PutProcedure(procedureFromBlock(block))
	return nil
}

func (r *run) table(ctx context.Context, stmt string) error {
	desc, err := script.ParseTable(stmt)
	if err != nil {
		return err
	}
	names := make([]string, len(desc.Columns))
	for i, c := range desc.Columns {
		names[i] = c.Name
	}

	if !r.snap.HasTable(desc.Name) {
		res := r.applier.Apply(ctx, executable(stmt))
		if !res.OK() {
			return fmt.Errorf("create table %s: %w", desc.Name, res.Err)
		}
		r.log.Printf("Table %s created", desc.Name)
		r.report.Applied++
		r.report.TablesCreated++
		r.snap.AddTable(desc.Name, names)
		return nil
	}

	if len(desc.Columns) == 0 {
		r.log.Printf("Table %s: no column list found, left as is", desc.Name)
		return nil
	}

	current, err := r.snap.Columns(ctx, desc.Name)
	if err != nil {
		return fmt.Errorf("failed to read columns of %s: %w", desc.Name, err)
	}

	for _, col := range desc.Columns {
		known, err := r.snap.HasColumn(ctx, desc.Name, col.Name)
		if err != nil {
			return fmt.Errorf("failed to read columns of %s: %w", desc.Name, err)
		}
		if known {
			continue
		}
		res := r.applier.Apply(ctx, r.d.AddColumnQuery(desc.Name, col.Definition))
		if !res.OK() {
			return fmt.Errorf("add column %s.%s: %w", desc.Name, col.Name, res.Err)
		}
		r.log.Printf("Column %s.%s added", desc.Name, col.Name)
		r.report.Applied++
		r.report.ColumnsAdded++
		r.snap.AddColumn(desc.Name, col.Name)
	}

	for _, name := range current {
		if _, declared := desc.Column(name); declared {
			continue
		}
		res := r.applier.Apply(ctx, r.d.DropColumnQuery(desc.Name, name))
		if !res.OK() {
			r.log.Printf("Column %s.%s kept, drop failed (%s): %v", desc.Name, name, res.Status, res.Err)
			r.report.Tolerated++
			r.report.ColumnsKept++
			continue
		}
		r.log.Printf("Column %s.%s dropped", desc.Name, name)
		r.report.Applied++
		r.report.ColumnsDropped++
		r.snap.DropColumn(desc.Name, name)
	}
	return nil
}

// other runs any remaining statement. Errors saying its effect is already in
// place are tolerated.
func (r *run) other(ctx context.Context, stmt string) error {
	res := r.applier.Apply(ctx, executable(stmt))
	switch {
	case res.OK():
		r.report.Applied++
		if script.Classify(stmt) == script.KindDomain {
			r.report.DomainsCreated++
		}
		return nil
	case res.Idempotent():
		r.log.Printf("Skipped (%s): %s", res.Status, summarize(stmt))
		r.report.Tolerated++
		return nil
	default:
		return res.Err
	}
}

// sameProcedure compares a block with the catalog's version of it.
func sameProcedure(block *script.ProcedureBlock, current *schema.Procedure) bool {
	if normalizeSource(block.Source()) != normalizeSource(current.Source) {
		return false
	}
	if len(block.Parameters) != len(current.Parameters) {
		return false
	}
	for i, p := range block.Parameters {
		c := current.Parameters[i]
		if !strings.EqualFold(p.Name, c.Name) ||
			!strings.EqualFold(squeeze(p.Domain), squeeze(c.SQLType)) ||
			(p.Direction == script.DirectionOut) != c.Output {
			return false
		}
	}
	return true
}

func procedureFromBlock(block *script.ProcedureBlock) *schema.Procedure {
	p := &schema.Procedure{Name: block.Name, Source: block.Source()}
	for _, prm := range block.Parameters {
		p.Parameters = append(p.Parameters, &schema.Parameter{
			Name:    prm.Name,
			Source:  prm.Domain,
			Output:  prm.Direction == script.DirectionOut,
			SQLType: prm.Domain,
		})
	}
	return p
}

// normalizeSource drops trailing spaces and surrounding blank lines.
func normalizeSource(src string) string {
	lines := script.Lines(src)
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}

func squeeze(s string) string {
	return strings.Join(strings.Fields(s), "")
}
