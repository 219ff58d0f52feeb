package engine

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// DryRunExecutor prints the statements it is given instead of running them.
// Every statement succeeds.
type DryRunExecutor struct {
	out        io.Writer
	statements []string
}

func NewDryRunExecutor(out io.Writer) *DryRunExecutor {
	return &DryRunExecutor{out: out}
}

func (e *DryRunExecutor) Begin(ctx context.Context) (Tx, error) {
	return &dryRunTx{e: e}, nil
}

// Statements returns what has been committed so far.
func (e *DryRunExecutor) Statements() []string {
	return e.statements
}

type dryRunTx struct {
	e       *DryRunExecutor
	pending []string
}

func (t *dryRunTx) Exec(ctx context.Context, query string, args ...any) error {
	t.pending = append(t.pending, query)
	return nil
}

func (t *dryRunTx) Commit() error {
	for _, q := range t.pending {
		t.e.statements = append(t.e.statements, q)
		if t.e.out == nil {
			continue
		}
		if _, err := fmt.Fprintf(t.e.out, "%s\n\n", terminate(q)); err != nil {
			return err
		}
	}
	t.pending = nil
	return nil
}

func (t *dryRunTx) Rollback() error {
	t.pending = nil
	return nil
}

// terminate appends ';' unless the statement is a block ending in END.
func terminate(q string) string {
	q = strings.TrimSpace(q)
	if strings.HasSuffix(q, ";") || strings.EqualFold(lastLine(q), "END") {
		return q
	}
	return q + ";"
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return strings.TrimSpace(s)
}
