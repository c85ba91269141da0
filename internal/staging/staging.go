// Package staging manages the on-disk holding area for exported months: one
// subdirectory per YYYY-MM under the staging root.
package staging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// MediaExtensions are the file types moved through the pipeline. Anything
// else in a staging folder is ignored.
var MediaExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".heic": true, ".mov": true, ".mp4": true,
}

// Tree resolves month folders under a staging root.
type Tree struct {
	Root string
}

// MonthDir returns the staging directory for a month.
func (t *Tree) MonthDir(month string) string {
	return filepath.Join(t.Root, month)
}

// Exists reports whether a staging folder is present for the month.
func (t *Tree) Exists(month string) bool {
	info, err := os.Stat(t.MonthDir(month))
	return err == nil && info.IsDir()
}

// MonthSize returns the total byte size of media files staged for the month.
// This is the pending-content size the retryable quota check compares against
// remaining remote storage.
func (t *Tree) MonthSize(month string) (int64, error) {
	var total int64
	dir := t.MonthDir(month)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isMedia(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("size staging dir %s: %w", dir, err)
	}
	return total, nil
}

// MediaFiles lists the media files staged for a month, sorted by WalkDir's
// lexical order.
func (t *Tree) MediaFiles(month string) ([]string, error) {
	var files []string
	dir := t.MonthDir(month)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isMedia(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list staging dir %s: %w", dir, err)
	}
	return files, nil
}

func isMedia(path string) bool {
	return MediaExtensions[strings.ToLower(filepath.Ext(path))]
}

// HashFile returns the hex SHA-256 of a file's content, read in chunks.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
