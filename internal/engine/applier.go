package engine

import (
	"context"
	"fmt"
	"strings"

	"dbmeta/internal/dialect"
	"dbmeta/internal/script"
)

// Status is the outcome of one applied statement.
type Status int

const (
	StatusApplied Status = iota
	StatusNotFound
	StatusAlreadyExists
	StatusDuplicateKey
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusApplied:
		return "applied"
	case StatusNotFound:
		return "not found"
	case StatusAlreadyExists:
		return "already exists"
	case StatusDuplicateKey:
		return "duplicate key"
	default:
		return "failed"
	}
}

// Result of Applier.Apply. Err is set for every status but StatusApplied.
type Result struct {
	Status Status
	SQL    string
	Err    error
}

func (r Result) OK() bool { return r.Status == StatusApplied }

// Idempotent reports a failure that means the statement's effect is already
// present.
func (r Result) Idempotent() bool {
	return r.Status == StatusAlreadyExists || r.Status == StatusDuplicateKey
}

// Applier runs each statement in a transaction of its own: committed on
// success, rolled back on failure.
type Applier struct {
	exec Executor
	d    dialect.Dialect
}

func NewApplier(exec Executor, d dialect.Dialect) *Applier {
	return &Applier{exec: exec, d: d}
}

func (a *Applier) Apply(ctx context.Context, stmt string) Result {
	res := Result{SQL: stmt}

	tx, err := a.exec.Begin(ctx)
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}
	if err := tx.Exec(ctx, stmt); err != nil {
		_ = tx.Rollback()
		return a.failed(res, err)
	}
	// Some servers report DDL errors only when the transaction commits.
	if err := tx.Commit(); err != nil {
		return a.failed(res, err)
	}
	res.Status = StatusApplied
	return res
}

func (a *Applier) failed(res Result, err error) Result {
	res.Err = err
	switch a.d.ClassifyError(err) {
	case dialect.ErrorNotFound:
		res.Status = StatusNotFound
	case dialect.ErrorAlreadyExists:
		res.Status = StatusAlreadyExists
	case dialect.ErrorDuplicateKey:
		res.Status = StatusDuplicateKey
	default:
		res.Status = StatusFailed
	}
	return res
}

// StatementError is a fatal failure of one script statement.
type StatementError struct {
	File  string
	Index int // 1-based position in the file
	SQL   string
	Err   error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("%s, statement %d (%s): %v", e.File, e.Index, summarize(e.SQL), e.Err)
}

func (e *StatementError) Unwrap() error { return e.Err }

// executable strips leading comment lines and the terminating ';' from a
// plain statement. Procedure blocks are passed through the rewriter instead.
func executable(stmt string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(script.Head(stmt)), ";"))
}

func summarize(stmt string) string {
	line := strings.TrimSpace(script.Head(stmt))
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i]) + " ..."
	}
	const limit = 80
	if len(line) > limit {
		line = line[:limit] + "..."
	}
	return line
}
