package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"media-organizer/internal/config"
	"media-organizer/internal/staging"
)

var dedupCmd = &cobra.Command{
	Use:   "dedup <month>",
	Short: "Remove duplicate media files from a month's staging folder",
	Long: `dedup scans a month's staging folder for byte-identical media files,
keeping the lexicographically first name of each duplicate group. Files whose
EXIF capture month disagrees with the folder are reported but never touched.

The pipeline's deduplicate step runs the same pass; this command exists for
manual cleanup outside a plan.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		month := args[0]

		cfg, err := config.LoadDefault()
		if err != nil {
			return err
		}
		tree := &staging.Tree{Root: cfg.Organizer.StagingRoot}
		if !tree.Exists(month) {
			return fmt.Errorf("no staging folder for %s under %s", month, tree.Root)
		}

		res, err := tree.Dedup(month, dryRun)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		verb := "Removed"
		if dryRun {
			verb = "Would remove"
		}
		fmt.Fprintf(w, "Examined %d media files. %s %d duplicate(s).\n", res.Examined, verb, len(res.Removed))
		for _, f := range res.Removed {
			fmt.Fprintf(w, "  - %s\n", filepath.Base(f))
		}
		for _, f := range res.Misplaced {
			fmt.Fprintf(w, "  ! %s: capture month differs from folder\n", filepath.Base(f))
		}
		return nil
	},
}

func init() {
	dedupCmd.Flags().Bool("dry-run", false, "List duplicates without deleting them")

	rootCmd.AddCommand(dedupCmd)
}
