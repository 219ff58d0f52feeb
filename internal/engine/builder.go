package engine

import (
	"context"
	"time"

	"dbmeta/internal/dialect"
	"dbmeta/internal/script"
)

// Builder runs scripts against an empty database. The first failing
// statement aborts the build.
type Builder struct {
	applier *Applier
	d       dialect.Dialect
	opts    Options
}

func NewBuilder(exec Executor, d dialect.Dialect, opts Options) *Builder {
	return &Builder{applier: NewApplier(exec, d), d: d, opts: opts}
}

// Build runs every statement of files in order, procedure blocks rewritten
// into DDL first.
func (b *Builder) Build(ctx context.Context, files []script.File) (*Report, error) {
	log := b.opts.logger()
	report := &Report{}
	start := time.Now()
	defer func() { report.Elapsed = time.Since(start) }()

	for _, f := range files {
		log.Printf("Processing %s...", f.Name)
		index := 0
		for stmt := range script.Split(f.Text) {
			index++
			report.Statements++
			err := b.apply(ctx, stmt, report)
			b.opts.progress()
			if err != nil {
				return report, &StatementError{File: f.Name, Index: index, SQL: stmt, Err: err}
			}
		}
	}
	return report, nil
}

func (b *Builder) apply(ctx context.Context, stmt string, report *Report) error {
	if script.Head(stmt) == "" {
		report.Skipped++
		return nil
	}

	kind := script.Classify(stmt)
	query := executable(stmt)
	if kind == script.KindProcedure {
		ddl, err := script.RewriteProcedure(stmt, b.d.CreateProcedureQuery)
		if err != nil {
			return err
		}
		query = ddl
	}

	res := b.applier.Apply(ctx, query)
	if !res.OK() {
		return res.Err
	}

	report.Applied++
	switch kind {
	case script.KindDomain:
		report.DomainsCreated++
	case script.KindTable:
		report.TablesCreated++
	case script.KindProcedure:
		report.ProceduresApplied++
	}
	return nil
}
