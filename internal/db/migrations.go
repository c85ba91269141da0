package db

import "database/sql"

// migrations is the ordered registry of every schema upgrade step. Entries are
// append-only: released migrations are never edited or reordered.
var migrations = []Migration{
	{
		ID:          "001_initial_schema",
		Description: "Core tables: batches, status catalog, transitions, plan, execution log",
		Run: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE batch_status (
    code             TEXT PRIMARY KEY,
    short_label      TEXT NOT NULL,
    full_description TEXT,
    pipeline_stage   TEXT,
    script_name      TEXT
);

CREATE TABLE batch_transitions (
    preceding_code  TEXT NOT NULL REFERENCES batch_status(code),
    code            TEXT NOT NULL REFERENCES batch_status(code),
    transition_type TEXT NOT NULL DEFAULT 'pipeline'
        CHECK(transition_type IN ('pipeline','manual','retryable')),
    PRIMARY KEY (preceding_code, code)
);

CREATE TABLE month_batches (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    month          TEXT NOT NULL UNIQUE,
    batch_number   INTEGER NOT NULL DEFAULT 1,
    assets_count   INTEGER NOT NULL DEFAULT 0 CHECK(assets_count >= 0),
    status_code    TEXT NOT NULL REFERENCES batch_status(code),
    created_at_utc TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at_utc TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE planned_execution (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    planned_month TEXT NOT NULL,
    active        INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE pipeline_executions (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id      TEXT NOT NULL,
    label           TEXT NOT NULL,
    status          TEXT NOT NULL CHECK(status IN ('success','failed','dry-run')),
    executed_at_utc TEXT NOT NULL DEFAULT (datetime('now')),
    batch_month_id  INTEGER REFERENCES month_batches(id)
);
CREATE INDEX idx_executions_session ON pipeline_executions(session_id, id);
CREATE INDEX idx_executions_label ON pipeline_executions(label, status);
`)
			return err
		},
	},
	{
		ID:          "002_seed_status_catalog",
		Description: "Main-line statuses 000 through 400 and their pipeline transitions",
		Run: func(tx *sql.Tx) error {
			statuses := []struct {
				code, label, desc, stage, script string
			}{
				{"000", "added", "Batch initialized and added to DB", "1.2", ""},
				{"100", "album_verified", "Export album verified for current month", "2.1", "verify_export_album {month}"},
				{"200", "exported", "Photos exported to staging", "2.2", "export_photos {month}"},
				{"210", "deduplicated", "Duplicate assets removed from staging", "2.2.5", "deduplicate_assets {month}"},
				{"400", "uploaded", "Staging folder uploaded to cloud photo account", "2.4", "upload_photos {month}"},
			}
			for _, s := range statuses {
				_, err := tx.Exec(
					`INSERT INTO batch_status (code, short_label, full_description, pipeline_stage, script_name)
					 VALUES (?, ?, ?, ?, ?)`,
					s.code, s.label, s.desc, s.stage, s.script,
				)
				if err != nil {
					return err
				}
			}
			edges := [][2]string{{"000", "100"}, {"100", "200"}, {"200", "210"}, {"210", "400"}}
			for _, e := range edges {
				_, err := tx.Exec(
					`INSERT INTO batch_transitions (preceding_code, code, transition_type) VALUES (?, ?, 'pipeline')`,
					e[0], e[1],
				)
				if err != nil {
					return err
				}
			}
			return nil
		},
	},
	{
		ID:          "003_add_error_variants",
		Description: "Error counterparts 100E, 200E, 400E for failed verification, export, upload",
		Run: func(tx *sql.Tx) error {
			variants := []struct {
				code, label, desc, stage string
			}{
				{"100E", "verify_failed", "Export album verification failed", "2.1"},
				{"200E", "export_failed", "Photo export to staging failed", "2.2"},
				{"400E", "upload_failed", "Upload to cloud photo account failed", "2.4"},
			}
			for _, v := range variants {
				_, err := tx.Exec(
					`INSERT INTO batch_status (code, short_label, full_description, pipeline_stage) VALUES (?, ?, ?, ?)`,
					v.code, v.label, v.desc, v.stage,
				)
				if err != nil {
					return err
				}
			}
			return nil
		},
	},
	{
		ID:          "004_add_partial_upload",
		Description: "Status 399 (quota-constrained partial upload) with retryable 399->400",
		Run: func(tx *sql.Tx) error {
			_, err := tx.Exec(
				`INSERT INTO batch_status (code, short_label, full_description, pipeline_stage, script_name)
				 VALUES ('399', 'partial_upload', 'Partial upload due to insufficient cloud storage', '4', 'upload_photos {month}')`)
			if err != nil {
				return err
			}
			_, err = tx.Exec(
				`INSERT INTO batch_transitions (preceding_code, code, transition_type) VALUES ('399', '400', 'retryable')`)
			return err
		},
	},
	{
		ID:          "005_add_curation_stages",
		Description: "Manual 400->500 curation gate and 500->550 favorites pull",
		Run: func(tx *sql.Tx) error {
			statuses := []struct {
				code, label, desc, stage, script string
			}{
				{"500", "curated", "AI curation list reviewed in cloud account", "3.1", ""},
				{"550", "favorites_pulled", "Cloud favorites pulled and asset flags updated", "3.2", "pull_favorites {month}"},
			}
			for _, s := range statuses {
				_, err := tx.Exec(
					`INSERT INTO batch_status (code, short_label, full_description, pipeline_stage, script_name)
					 VALUES (?, ?, ?, ?, ?)`,
					s.code, s.label, s.desc, s.stage, s.script,
				)
				if err != nil {
					return err
				}
			}
			if _, err := tx.Exec(
				`INSERT INTO batch_transitions (preceding_code, code, transition_type) VALUES ('400', '500', 'manual')`); err != nil {
				return err
			}
			_, err := tx.Exec(
				`INSERT INTO batch_transitions (preceding_code, code, transition_type) VALUES ('500', '550', 'pipeline')`)
			return err
		},
	},
	{
		ID:          "006_add_latest_import_watermark",
		Description: "Track the newest source import seen per batch",
		Run: func(tx *sql.Tx) error {
			_, err := tx.Exec(`ALTER TABLE month_batches ADD COLUMN latest_import_id TEXT`)
			return err
		},
	},
	{
		ID:          "007_create_assets",
		Description: "Asset metadata mirrored from the source photo library",
		Run: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE assets (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid               TEXT,
    original_filename  TEXT NOT NULL,
    month              TEXT NOT NULL,
    import_id          TEXT,
    file_hash          TEXT,
    size_bytes         INTEGER,
    date_created_utc   TEXT,
    imported_date_utc  TEXT,
    uploaded_to_google INTEGER NOT NULL DEFAULT 0,
    created_at_utc     TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at_utc     TEXT NOT NULL DEFAULT (datetime('now')),
    UNIQUE(original_filename, month)
);
CREATE INDEX idx_assets_month ON assets(month);
`)
			return err
		},
	},
	{
		ID:          "008_add_google_favorite",
		Description: "Favorite flag pulled back from the cloud account",
		Run: func(tx *sql.Tx) error {
			_, err := tx.Exec(`ALTER TABLE assets ADD COLUMN google_favorite INTEGER NOT NULL DEFAULT 0`)
			return err
		},
	},
}
