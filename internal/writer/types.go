package writer

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TxBeginner opens a transaction. Satisfied by *pgxpool.Pool and *pgx.Conn.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// WriterMetrics holds metrics for a writer.
type WriterMetrics struct {
	Pages        int64 // Non-empty pages attempted
	Upserts      int64
	Skipped      int64 // Absent entries and records without an id
	Failed       int64 // Per-record upserts rolled back to their savepoint
	CommitErrors int64
}
