package warehouse

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// RunRecord is one row of the etl_runs audit table.
type RunRecord struct {
	RunID           uuid.UUID
	StartedAt       time.Time
	FinishedAt      time.Time
	Status          string
	RowsRead        int
	RowsRejected    int
	UnresolvedFacts int
	FactsLoaded     int
	Detail          string
}

const insertRunSQL = `
	INSERT INTO etl_runs (run_id, started_at, finished_at, status,
		rows_read, rows_rejected, unresolved_facts, facts_loaded, detail)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// RecordRun appends the run to the audit table. Audit rows accumulate
// across runs; they are never replaced.
func (s *Store) RecordRun(ctx context.Context, run RunRecord) error {
	_, err := s.db.ExecContext(ctx, insertRunSQL,
		run.RunID, run.StartedAt, run.FinishedAt, run.Status,
		run.RowsRead, run.RowsRejected, run.UnresolvedFacts, run.FactsLoaded, run.Detail)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.RunID, err)
	}

	s.logger.Info("run recorded",
		slog.String("run_id", run.RunID.String()),
		slog.String("status", run.Status))
	return nil
}
