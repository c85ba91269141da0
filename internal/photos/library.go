// Package photos reads asset metadata out of the source photo library
// database and mirrors it into the organizer store.
package photos

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Library is a read-only handle on the source photo library database.
type Library struct {
	Path string
	conn *sql.DB
}

// OpenLibrary opens the source library read-only. The library is owned by the
// photo application; the organizer never writes to it.
func OpenLibrary(path string) (*Library, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("photo library not found: %w", err)
	}
	conn, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open photo library: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping photo library: %w", err)
	}
	return &Library{Path: path, conn: conn}, nil
}

// Close releases the library connection.
func (l *Library) Close() error {
	return l.conn.Close()
}

// LastModified returns the library file's modification time, the signal the
// bootstrap freshness predicate compares against the last successful sync.
func (l *Library) LastModified() (time.Time, error) {
	info, err := os.Stat(l.Path)
	if err != nil {
		return time.Time{}, fmt.Errorf("stat photo library: %w", err)
	}
	return info.ModTime(), nil
}

// SourceAsset is one asset row read from the library's export view.
type SourceAsset struct {
	UUID             string
	OriginalFilename string
	ImportID         string
	CreatedUTC       string // "2006-01-02 15:04:05"
	ImportedUTC      string
}

// Assets reads every asset exposed by the library's photos_assets_view.
// The view is expected to provide uuid, original_filename, import_uuid and
// the UTC creation/import datetimes.
func (l *Library) Assets() ([]SourceAsset, error) {
	rows, err := l.conn.Query(`
		SELECT uuid, original_filename, import_uuid,
		       COALESCE(creation_datetime_utc, ''), COALESCE(import_datetime_utc, '')
		FROM photos_assets_view
		WHERE creation_datetime_utc IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("query photo library assets: %w", err)
	}
	defer rows.Close()

	var assets []SourceAsset
	for rows.Next() {
		var a SourceAsset
		if err := rows.Scan(&a.UUID, &a.OriginalFilename, &a.ImportID, &a.CreatedUTC, &a.ImportedUTC); err != nil {
			return nil, fmt.Errorf("scan library asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// LocalMonth converts a stored UTC datetime string to the local YYYY-MM month
// key batches are grouped by. Returns "" for unparseable input.
func LocalMonth(utc string) string {
	if utc == "" {
		return ""
	}
	t, err := time.Parse("2006-01-02 15:04:05", utc)
	if err != nil {
		return ""
	}
	return t.UTC().Local().Format("2006-01")
}
