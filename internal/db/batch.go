package db

import (
	"database/sql"
	"fmt"
)

// Batch represents a row in the month_batches table.
type Batch struct {
	ID             int
	Month          string
	BatchNumber    int
	AssetsCount    int
	StatusCode     string
	LatestImportID string
	CreatedAt      string
	UpdatedAt      string
}

const batchColumns = `id, month, batch_number, assets_count, status_code,
	COALESCE(latest_import_id, ''), created_at_utc, updated_at_utc`

func scanBatch(row interface{ Scan(...any) error }) (Batch, error) {
	var b Batch
	err := row.Scan(&b.ID, &b.Month, &b.BatchNumber, &b.AssetsCount, &b.StatusCode,
		&b.LatestImportID, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// UpsertBatch creates a batch for the month if absent. Existing batches keep
// their status and counters untouched.
func (d *DB) UpsertBatch(month, initialStatus string) error {
	if err := d.checkStatusCode(initialStatus); err != nil {
		return err
	}
	_, err := d.conn.Exec(
		`INSERT INTO month_batches (month, status_code) VALUES (?, ?)
		 ON CONFLICT(month) DO NOTHING`,
		month, initialStatus,
	)
	if err != nil {
		return fmt.Errorf("upsert batch %s: %w", month, err)
	}
	return nil
}

// SetBatchStatus moves the batch for month to newCode and touches its update
// timestamp. newCode must exist in the status catalog.
func (d *DB) SetBatchStatus(month, newCode string) error {
	if err := d.checkStatusCode(newCode); err != nil {
		return err
	}
	res, err := d.conn.Exec(
		`UPDATE month_batches SET status_code = ?, updated_at_utc = datetime('now') WHERE month = ?`,
		newCode, month,
	)
	if err != nil {
		return fmt.Errorf("set status for %s: %w", month, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no batch for month %s", month)
	}
	return nil
}

// checkStatusCode fails when code is not present in the status catalog.
// An unknown code is a configuration error, never a soft miss.
func (d *DB) checkStatusCode(code string) error {
	var one int
	err := d.conn.QueryRow(`SELECT 1 FROM batch_status WHERE code = ?`, code).Scan(&one)
	if err == sql.ErrNoRows {
		return fmt.Errorf("status code %q not in catalog", code)
	}
	if err != nil {
		return fmt.Errorf("check status code %q: %w", code, err)
	}
	return nil
}

// SetLatestImport advances the import watermark for the month's batch.
func (d *DB) SetLatestImport(month, importID string) error {
	_, err := d.conn.Exec(
		`UPDATE month_batches SET latest_import_id = ?, updated_at_utc = datetime('now') WHERE month = ?`,
		importID, month,
	)
	if err != nil {
		return fmt.Errorf("set latest import for %s: %w", month, err)
	}
	return nil
}

// SetAssetsCount records how many source assets belong to the month's batch.
func (d *DB) SetAssetsCount(month string, count int) error {
	_, err := d.conn.Exec(
		`UPDATE month_batches SET assets_count = ?, updated_at_utc = datetime('now') WHERE month = ?`,
		count, month,
	)
	if err != nil {
		return fmt.Errorf("set assets count for %s: %w", month, err)
	}
	return nil
}

// GetBatch returns the batch for a month, or nil if none exists.
func (d *DB) GetBatch(month string) (*Batch, error) {
	row := d.conn.QueryRow(`SELECT `+batchColumns+` FROM month_batches WHERE month = ?`, month)
	b, err := scanBatch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get batch %s: %w", month, err)
	}
	return &b, nil
}

// ListBatches returns every batch ordered by month descending, the order the
// planner consumes them in.
func (d *DB) ListBatches() ([]Batch, error) {
	rows, err := d.conn.Query(`SELECT ` + batchColumns + ` FROM month_batches ORDER BY month DESC`)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// BatchesInErrorState returns batches whose status is an error variant,
// newest month first.
func (d *DB) BatchesInErrorState() ([]Batch, error) {
	rows, err := d.conn.Query(
		`SELECT ` + batchColumns + ` FROM month_batches WHERE status_code LIKE '%E' ORDER BY month DESC`)
	if err != nil {
		return nil, fmt.Errorf("list error batches: %w", err)
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error batch: %w", err)
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}
