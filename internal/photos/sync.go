package photos

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"media-organizer/internal/db"
)

// Sync mirrors the library's asset metadata into the organizer's assets
// table, keyed on (filename, month). Re-running is idempotent.
func Sync(store *db.DB, lib *Library, logger *zap.Logger) error {
	assets, err := lib.Assets()
	if err != nil {
		return err
	}

	synced := 0
	for _, a := range assets {
		month := LocalMonth(a.CreatedUTC)
		if month == "" {
			logger.Warn("asset without usable creation date skipped",
				zap.String("uuid", a.UUID), zap.String("filename", a.OriginalFilename))
			continue
		}
		err := store.UpsertAsset(db.Asset{
			UUID:             a.UUID,
			OriginalFilename: a.OriginalFilename,
			Month:            month,
			ImportID:         a.ImportID,
			DateCreatedUTC:   a.CreatedUTC,
			ImportedDateUTC:  a.ImportedUTC,
		})
		if err != nil {
			return fmt.Errorf("sync asset metadata: %w", err)
		}
		synced++
	}
	logger.Info("asset metadata synced", zap.Int("assets", synced))
	return nil
}

// GenerateBatches creates a batch row for every complete month present in the
// assets table. The current month is never batched: its imports may still be
// arriving. Existing batches keep their status but get a refreshed asset
// count and import watermark.
func GenerateBatches(store *db.DB, logger *zap.Logger, now time.Time) error {
	months, err := store.AssetMonths()
	if err != nil {
		return err
	}
	current := now.Format("2006-01")

	for _, month := range months {
		if month >= current {
			continue
		}
		if err := store.UpsertBatch(month, "000"); err != nil {
			return err
		}
		count, err := store.CountAssets(month)
		if err != nil {
			return err
		}
		if err := store.SetAssetsCount(month, count); err != nil {
			return err
		}
		importID, err := store.MaxImportID(month)
		if err != nil {
			return err
		}
		if importID != "" {
			if err := store.SetLatestImport(month, importID); err != nil {
				return err
			}
		}
		logger.Debug("batch refreshed",
			zap.String("month", month), zap.Int("assets", count), zap.String("latest_import", importID))
	}
	return nil
}
