package db

import (
	"database/sql"
	"fmt"
)

// Execution outcome values recorded in pipeline_executions.
const (
	ExecSuccess = "success"
	ExecFailed  = "failed"
	ExecDryRun  = "dry-run"
)

// ExecutionRecord is one append-only row of the pipeline_executions log.
type ExecutionRecord struct {
	ID         int
	SessionID  string
	Label      string
	Status     string
	ExecutedAt string
	BatchID    *int
}

// LogExecution appends an execution record. batchID may be nil for steps not
// tied to a batch (bootstrap actions). Records are never mutated afterwards.
func (d *DB) LogExecution(sessionID, label, status string, batchID *int) error {
	_, err := d.conn.Exec(
		`INSERT INTO pipeline_executions (session_id, label, status, batch_month_id) VALUES (?, ?, ?, ?)`,
		sessionID, label, status, batchID,
	)
	if err != nil {
		return fmt.Errorf("log execution: %w", err)
	}
	return nil
}

// SessionHistory returns all records for a session in attempt order.
func (d *DB) SessionHistory(sessionID string) ([]ExecutionRecord, error) {
	rows, err := d.conn.Query(
		`SELECT id, session_id, label, status, executed_at_utc, batch_month_id
		 FROM pipeline_executions WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("get session history: %w", err)
	}
	defer rows.Close()

	var records []ExecutionRecord
	for rows.Next() {
		var r ExecutionRecord
		var batchID sql.NullInt64
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Label, &r.Status, &r.ExecutedAt, &batchID); err != nil {
			return nil, fmt.Errorf("scan execution record: %w", err)
		}
		if batchID.Valid {
			v := int(batchID.Int64)
			r.BatchID = &v
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// LastSuccessfulRun returns the UTC timestamp of the most recent successful
// execution of the labelled step, or "" if it never succeeded. Drives the
// bootstrap freshness predicate.
func (d *DB) LastSuccessfulRun(label string) (string, error) {
	var ts sql.NullString
	err := d.conn.QueryRow(
		`SELECT MAX(executed_at_utc) FROM pipeline_executions WHERE label = ? AND status = 'success'`,
		label,
	).Scan(&ts)
	if err != nil {
		return "", fmt.Errorf("get last successful run of %q: %w", label, err)
	}
	if !ts.Valid {
		return "", nil
	}
	return ts.String, nil
}
