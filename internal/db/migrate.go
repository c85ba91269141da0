package db

import (
	"database/sql"
	"fmt"
)

// Migration is a single schema upgrade step. Migrations are applied in
// registry order, each inside its own transaction, and tracked in the
// schema_migrations ledger as pending or applied.
type Migration struct {
	ID          string
	Description string
	Run         func(tx *sql.Tx) error
}

// LedgerEntry is one row of the schema_migrations ledger.
type LedgerEntry struct {
	Migration   string
	Status      string // "applied" or "pending"
	Description string
	AppliedAt   string
}

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    migration      TEXT NOT NULL UNIQUE,
    applied_at_utc TEXT,
    status         TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('applied','pending')),
    description    TEXT
);`

// syncLedger creates the ledger table if needed and records every registered
// migration not yet present as pending.
func (d *DB) syncLedger() error {
	if _, err := d.conn.Exec(ledgerSchema); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	for _, m := range migrations {
		_, err := d.conn.Exec(
			`INSERT OR IGNORE INTO schema_migrations (migration, status, description) VALUES (?, 'pending', ?)`,
			m.ID, m.Description,
		)
		if err != nil {
			return fmt.Errorf("record migration %s: %w", m.ID, err)
		}
	}
	return nil
}

// Pending returns the IDs of registered migrations not yet applied, in
// registry order.
func (d *DB) Pending() ([]string, error) {
	if err := d.syncLedger(); err != nil {
		return nil, err
	}
	applied := make(map[string]bool)
	rows, err := d.conn.Query(`SELECT migration FROM schema_migrations WHERE status = 'applied'`)
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan migration id: %w", err)
		}
		applied[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var pending []string
	for _, m := range migrations {
		if !applied[m.ID] {
			pending = append(pending, m.ID)
		}
	}
	return pending, nil
}

// Migrate applies all pending migrations in strict registry order. A failed
// migration aborts immediately, leaving its ledger row pending.
func (d *DB) Migrate() error {
	pending, err := d.Pending()
	if err != nil {
		return err
	}
	byID := make(map[string]Migration, len(migrations))
	for _, m := range migrations {
		byID[m.ID] = m
	}
	for _, id := range pending {
		m := byID[id]
		if err := d.applyOne(m); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.ID, err)
		}
	}
	return nil
}

func (d *DB) applyOne(m Migration) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := m.Run(tx); err != nil {
		return err
	}
	_, err = tx.Exec(
		`UPDATE schema_migrations SET status = 'applied', applied_at_utc = datetime('now') WHERE migration = ?`,
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("mark applied: %w", err)
	}
	return tx.Commit()
}

// Ledger returns every ledger row in registry order, pending rows last within
// their original position preserved.
func (d *DB) Ledger() ([]LedgerEntry, error) {
	if err := d.syncLedger(); err != nil {
		return nil, err
	}
	rows, err := d.conn.Query(
		`SELECT migration, status, COALESCE(description, ''), COALESCE(applied_at_utc, '') FROM schema_migrations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.Migration, &e.Status, &e.Description, &e.AppliedAt); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
