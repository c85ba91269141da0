package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"media-organizer/internal/config"
	"media-organizer/internal/db"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "organizer",
	Short: "media-organizer — monthly photo batch pipeline",
	Long: `media-organizer moves monthly photo batches through export, dedup,
upload and enrichment stages, recording progress in a local SQLite store so
the pipeline can be resumed or replayed after interruption.

Run "organizer plan" to select the next unit of work and "organizer run" to
execute the recorded plan step by step.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(dbCmd)
}

// newLogger builds the process logger. Console encoding: the organizer is an
// interactive batch job, not a service.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// openStore loads the config and opens the organizer database.
func openStore() (*db.DB, *config.Config, error) {
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, nil, err
	}
	path := cfg.Organizer.DBPath
	if path == "" {
		path, err = db.DefaultPath()
		if err != nil {
			return nil, nil, err
		}
	}
	store, err := db.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}
