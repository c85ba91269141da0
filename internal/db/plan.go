package db

import (
	"database/sql"
	"fmt"
)

// SetPlannedMonth replaces any prior planned execution with a single active
// row for month.
func (d *DB) SetPlannedMonth(month string) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM planned_execution`); err != nil {
		return fmt.Errorf("clear planned execution: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO planned_execution (planned_month, active) VALUES (?, 1)`, month); err != nil {
		return fmt.Errorf("insert planned execution: %w", err)
	}
	return tx.Commit()
}

// PlannedMonth returns the active planned month, or "" when no plan is active.
func (d *DB) PlannedMonth() (string, error) {
	var month string
	err := d.conn.QueryRow(
		`SELECT planned_month FROM planned_execution WHERE active = 1 LIMIT 1`).Scan(&month)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get planned month: %w", err)
	}
	return month, nil
}

// ConsumePlan deactivates the active planned execution row once the executor
// has walked the whole plan.
func (d *DB) ConsumePlan() error {
	_, err := d.conn.Exec(`UPDATE planned_execution SET active = 0 WHERE active = 1`)
	if err != nil {
		return fmt.Errorf("consume plan: %w", err)
	}
	return nil
}
