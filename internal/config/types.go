package config

// Config is the top-level structure parsed from organizer YAML.
type Config struct {
	Organizer Organizer `yaml:"organizer"`
}

// Organizer holds paths to the local store, the source photo library, and the
// staging tree, plus planner tuning.
type Organizer struct {
	// DBPath is the organizer's own SQLite store. Empty means the default
	// ~/.organizer/media-organizer.db.
	DBPath string `yaml:"db_path"`

	// PhotosDBPath is the source photo library database, opened read-only
	// by the metadata sync.
	PhotosDBPath string `yaml:"photos_db_path"`

	// StagingRoot contains one subdirectory per month holding exported
	// assets between export and upload.
	StagingRoot string `yaml:"staging_root"`

	// ActionsDir is prepended to relative action commands from the status
	// catalog.
	ActionsDir string `yaml:"actions_dir"`

	// QuotaCommand prints the remaining cloud storage quota in bytes on
	// stdout (or "unlimited"). Empty disables the retryable path.
	QuotaCommand string `yaml:"quota_command"`

	Bootstrap Bootstrap `yaml:"bootstrap"`
}

// Bootstrap tunes the pre-flight refresh steps run before every planning cycle.
type Bootstrap struct {
	// MetadataSyncFreshFor skips the source metadata resync when its last
	// success postdates the library's modification time and is younger
	// than this window. Duration string, default "15m".
	MetadataSyncFreshFor string `yaml:"metadata_sync_fresh_for"`
}
