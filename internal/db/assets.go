package db

import (
	"database/sql"
	"fmt"
)

// Asset mirrors one source-library asset in the assets table.
type Asset struct {
	ID               int
	UUID             string
	OriginalFilename string
	Month            string
	ImportID         string
	FileHash         string
	SizeBytes        int64
	DateCreatedUTC   string
	ImportedDateUTC  string
	Uploaded         bool
	GoogleFavorite   bool
}

// UpsertAsset inserts or refreshes an asset row keyed on (filename, month).
func (d *DB) UpsertAsset(a Asset) error {
	_, err := d.conn.Exec(
		`INSERT INTO assets (uuid, original_filename, month, import_id, file_hash, size_bytes,
		                     date_created_utc, imported_date_utc)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(original_filename, month) DO UPDATE SET
		     uuid = excluded.uuid,
		     import_id = excluded.import_id,
		     file_hash = excluded.file_hash,
		     size_bytes = excluded.size_bytes,
		     date_created_utc = excluded.date_created_utc,
		     imported_date_utc = excluded.imported_date_utc,
		     updated_at_utc = datetime('now')`,
		a.UUID, a.OriginalFilename, a.Month, a.ImportID, a.FileHash, a.SizeBytes,
		a.DateCreatedUTC, a.ImportedDateUTC,
	)
	if err != nil {
		return fmt.Errorf("upsert asset %s/%s: %w", a.Month, a.OriginalFilename, err)
	}
	return nil
}

// AssetsByMonth returns all assets for a month ordered by filename.
func (d *DB) AssetsByMonth(month string) ([]Asset, error) {
	rows, err := d.conn.Query(
		`SELECT id, COALESCE(uuid, ''), original_filename, month, COALESCE(import_id, ''),
		        COALESCE(file_hash, ''), COALESCE(size_bytes, 0),
		        COALESCE(date_created_utc, ''), COALESCE(imported_date_utc, ''),
		        uploaded_to_google, google_favorite
		 FROM assets WHERE month = ? ORDER BY original_filename`,
		month,
	)
	if err != nil {
		return nil, fmt.Errorf("get assets for %s: %w", month, err)
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		var a Asset
		if err := rows.Scan(&a.ID, &a.UUID, &a.OriginalFilename, &a.Month, &a.ImportID,
			&a.FileHash, &a.SizeBytes, &a.DateCreatedUTC, &a.ImportedDateUTC,
			&a.Uploaded, &a.GoogleFavorite); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// AssetMonths returns the distinct months present in the assets table,
// oldest first.
func (d *DB) AssetMonths() ([]string, error) {
	rows, err := d.conn.Query(`SELECT DISTINCT month FROM assets ORDER BY month`)
	if err != nil {
		return nil, fmt.Errorf("list asset months: %w", err)
	}
	defer rows.Close()

	var months []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scan month: %w", err)
		}
		months = append(months, m)
	}
	return months, rows.Err()
}

// CountAssets returns how many assets are recorded for a month.
func (d *DB) CountAssets(month string) (int, error) {
	var n int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM assets WHERE month = ?`, month).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count assets for %s: %w", month, err)
	}
	return n, nil
}

// MaxImportID returns the newest import id seen for a month, or "".
func (d *DB) MaxImportID(month string) (string, error) {
	var id sql.NullString
	err := d.conn.QueryRow(`SELECT MAX(import_id) FROM assets WHERE month = ?`, month).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("max import id for %s: %w", month, err)
	}
	if !id.Valid {
		return "", nil
	}
	return id.String, nil
}

// MarkUploaded flags an asset as uploaded and records its content hash.
func (d *DB) MarkUploaded(month, filename, fileHash string) error {
	_, err := d.conn.Exec(
		`UPDATE assets SET uploaded_to_google = 1, file_hash = ?, updated_at_utc = datetime('now')
		 WHERE original_filename = ? AND month = ?`,
		fileHash, filename, month,
	)
	if err != nil {
		return fmt.Errorf("mark uploaded %s/%s: %w", month, filename, err)
	}
	return nil
}

// SetFavorite updates the cloud-favorite flag for an asset.
func (d *DB) SetFavorite(month, filename string, favorite bool) error {
	_, err := d.conn.Exec(
		`UPDATE assets SET google_favorite = ?, updated_at_utc = datetime('now')
		 WHERE original_filename = ? AND month = ?`,
		favorite, filename, month,
	)
	if err != nil {
		return fmt.Errorf("set favorite %s/%s: %w", month, filename, err)
	}
	return nil
}
