package engine

import (
	"fmt"
	"io"
	"time"
)

// Report counts what a build or update run did.
type Report struct {
	Statements int // statements read from the scripts
	Skipped    int // comment-only statements
	Applied    int
	Tolerated  int

	DomainsCreated      int
	TablesCreated       int
	ColumnsAdded        int
	ColumnsDropped      int
	ColumnsKept         int // surplus columns whose drop failed
	ProceduresApplied   int
	ProceduresUnchanged int

	Elapsed time.Duration
}

// Print writes the end-of-run summary.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintln(w, "\n📊 Summary Report:")
	fmt.Fprintf(w, "  Statements : %d (applied %d, tolerated %d, skipped %d)\n", r.Statements, r.Applied, r.Tolerated, r.Skipped)
	fmt.Fprintf(w, "  Domains    : %d created\n", r.DomainsCreated)
	fmt.Fprintf(w, "  Tables     : %d created\n", r.TablesCreated)
	fmt.Fprintf(w, "  Columns    : %d added, %d dropped, %d kept\n", r.ColumnsAdded, r.ColumnsDropped, r.ColumnsKept)
	fmt.Fprintf(w, "  Procedures : %d applied, %d unchanged\n", r.ProceduresApplied, r.ProceduresUnchanged)
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Time Elapsed: %s\n", r.Elapsed.Round(time.Millisecond))
}
