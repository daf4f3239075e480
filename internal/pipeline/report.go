package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"salesdw/internal/scrub"
	"salesdw/internal/warehouse"
)

// RunStatus is the overall outcome of a run.
type RunStatus string

const (
	// StatusSuccess: every step completed. Rejected rows do not demote
	// a run; they are expected output of scrubbing.
	StatusSuccess RunStatus = "success"

	// StatusPartialFailure: the run finished but skipped a source,
	// failed a table load, or dropped fact rows with unresolved
	// foreign keys, so the warehouse may be incomplete.
	StatusPartialFailure RunStatus = "partial_failure"

	// StatusFailure: nothing reached the warehouse.
	StatusFailure RunStatus = "failure"
)

// SourceReport is the per-source slice of the run report.
type SourceReport struct {
	Name       string
	File       string
	Skipped    bool
	SkipReason string
	RowsRead   int
	RowsKept   int
	Rejected   scrub.Rejections
}

// RunReport is the complete account of one pipeline run.
type RunReport struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Status     RunStatus

	Sources         []SourceReport
	UnresolvedFacts int
	FactsBuilt      int
	LoadResults     []warehouse.TableResult
	Steps           []StepState
}

// Duration returns the wall-clock duration of the run.
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// RowsRead sums raw rows across sources.
func (r *RunReport) RowsRead() int {
	total := 0
	for _, s := range r.Sources {
		total += s.RowsRead
	}
	return total
}

// RowsRejected sums scrub rejections across sources.
func (r *RunReport) RowsRejected() int {
	total := 0
	for _, s := range r.Sources {
		total += s.Rejected.Total()
	}
	return total
}

// FactsLoaded returns the number of fact rows that reached the
// warehouse, zero when the fact load failed or never ran.
func (r *RunReport) FactsLoaded() int {
	for _, lr := range r.LoadResults {
		if lr.Table == "sales_fact" && !lr.Failed() {
			return lr.Rows
		}
	}
	return 0
}

// ExitCode maps the run status onto the process exit code contract:
// 0 success, 1 partial failure, 2 failure.
func (r *RunReport) ExitCode() int {
	switch r.Status {
	case StatusSuccess:
		return 0
	case StatusPartialFailure:
		return 1
	default:
		return 2
	}
}

// Summary renders a one-paragraph human summary for the end-of-run log.
func (r *RunReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s %s in %s: %d rows read, %d rejected, %d facts built, %d unresolved",
		r.RunID, r.Status, r.Duration().Round(time.Millisecond),
		r.RowsRead(), r.RowsRejected(), r.FactsBuilt, r.UnresolvedFacts)
	for _, s := range r.Sources {
		if s.Skipped {
			fmt.Fprintf(&b, "; source %s skipped (%s)", s.Name, s.SkipReason)
		}
	}
	for _, lr := range r.LoadResults {
		if lr.Failed() {
			fmt.Fprintf(&b, "; table %s failed", lr.Table)
		}
	}
	return b.String()
}
