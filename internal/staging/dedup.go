package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// DedupResult summarizes one deduplication pass over a month's staging folder.
type DedupResult struct {
	Examined  int
	Removed   []string
	Misplaced []string // files whose EXIF capture month disagrees with the folder
}

// Dedup removes duplicate media files from a month's staging folder.
// Candidates are grouped by byte size first, then confirmed by content hash;
// within a duplicate group the lexicographically first name is kept. When
// dryRun is set nothing is deleted and Removed lists what would go.
func (t *Tree) Dedup(month string, dryRun bool) (*DedupResult, error) {
	files, err := t.MediaFiles(month)
	if err != nil {
		return nil, err
	}

	res := &DedupResult{Examined: len(files)}

	bySize := make(map[int64][]string)
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", f, err)
		}
		bySize[info.Size()] = append(bySize[info.Size()], f)

		if misplaced, ok := captureMonthMismatch(f, month); ok {
			res.Misplaced = append(res.Misplaced, misplaced)
		}
	}

	for _, group := range bySize {
		if len(group) < 2 {
			continue
		}
		byHash := make(map[string][]string)
		for _, f := range group {
			h, err := HashFile(f)
			if err != nil {
				return nil, err
			}
			byHash[h] = append(byHash[h], f)
		}
		for _, dupes := range byHash {
			if len(dupes) < 2 {
				continue
			}
			sort.Strings(dupes)
			for _, f := range dupes[1:] {
				if !dryRun {
					if err := os.Remove(f); err != nil {
						return nil, fmt.Errorf("remove duplicate %s: %w", f, err)
					}
				}
				res.Removed = append(res.Removed, f)
			}
		}
	}
	sort.Strings(res.Removed)
	return res, nil
}

// captureMonthMismatch reads the EXIF capture date of an image and reports the
// file if it was shot in a different month than its staging folder. Files
// without readable EXIF (videos, stripped images) are not flagged.
func captureMonthMismatch(path, month string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".heic" && ext != ".png" {
		return "", false
	}
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return "", false
	}
	taken, err := x.DateTime()
	if err != nil {
		return "", false
	}
	if taken.Format("2006-01") != month {
		return path, true
	}
	return "", false
}
