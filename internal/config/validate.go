package config

import (
	"fmt"
	"time"
)

// ValidationError represents a single validation issue with a config.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the config for structural errors and returns the first one
// found, or nil if valid.
func (c *Config) Validate() error {
	o := c.Organizer

	if o.PhotosDBPath == "" {
		return ValidationError{Field: "organizer.photos_db_path", Message: "is required"}
	}
	if o.StagingRoot == "" {
		return ValidationError{Field: "organizer.staging_root", Message: "is required"}
	}
	if _, err := time.ParseDuration(o.Bootstrap.MetadataSyncFreshFor); err != nil {
		return ValidationError{
			Field:   "organizer.bootstrap.metadata_sync_fresh_for",
			Message: fmt.Sprintf("invalid duration %q", o.Bootstrap.MetadataSyncFreshFor),
		}
	}
	return nil
}

// MetadataSyncWindow returns the parsed freshness window. Validate must have
// passed.
func (o Organizer) MetadataSyncWindow() time.Duration {
	d, _ := time.ParseDuration(o.Bootstrap.MetadataSyncFreshFor)
	return d
}
