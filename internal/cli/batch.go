package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"media-organizer/internal/action"
	"media-organizer/internal/catalog"
	"media-organizer/internal/db"
	"media-organizer/internal/executor"
	"media-organizer/internal/planner"
	"media-organizer/internal/session"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Inspect and adjust month batches",
}

var batchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all month batches",
	RunE: func(cmd *cobra.Command, args []string) error {
		errorsOnly, _ := cmd.Flags().GetBool("errors")

		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		var batches []db.Batch
		if errorsOnly {
			batches, err = store.BatchesInErrorState()
		} else {
			batches, err = store.ListBatches()
		}
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if len(batches) == 0 {
			fmt.Fprintln(w, "No batches found.")
			return nil
		}
		fmt.Fprintf(w, "%-9s %-7s %-8s %-14s %s\n", "MONTH", "STATUS", "ASSETS", "LATEST IMPORT", "UPDATED (UTC)")
		fmt.Fprintf(w, "%-9s %-7s %-8s %-14s %s\n",
			strings.Repeat("-", 9), strings.Repeat("-", 7), strings.Repeat("-", 8),
			strings.Repeat("-", 14), strings.Repeat("-", 13))
		for _, b := range batches {
			fmt.Fprintf(w, "%-9s %-7s %-8d %-14s %s\n",
				b.Month, b.StatusCode, b.AssetsCount, b.LatestImportID, b.UpdatedAt)
		}
		return nil
	},
}

var batchShowCmd = &cobra.Command{
	Use:   "show <month>",
	Short: "Show a batch and its mirrored assets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		month := args[0]

		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		b, err := store.GetBatch(month)
		if err != nil {
			return err
		}
		if b == nil {
			return fmt.Errorf("no batch for month %s", month)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Month:         %s\n", b.Month)
		fmt.Fprintf(w, "Status:        %s\n", b.StatusCode)
		fmt.Fprintf(w, "Assets:        %d\n", b.AssetsCount)
		fmt.Fprintf(w, "Latest import: %s\n", b.LatestImportID)
		fmt.Fprintf(w, "Updated (UTC): %s\n", b.UpdatedAt)

		assets, err := store.AssetsByMonth(month)
		if err != nil {
			return err
		}
		if len(assets) == 0 {
			fmt.Fprintln(w, "\nNo mirrored assets.")
			return nil
		}
		fmt.Fprintf(w, "\n%-32s %10s %-9s %s\n", "FILENAME", "BYTES", "UPLOADED", "FAVORITE")
		for _, a := range assets {
			fmt.Fprintf(w, "%-32s %10d %-9s %s\n",
				a.OriginalFilename, a.SizeBytes, yesNo(a.Uploaded), yesNo(a.GoogleFavorite))
		}
		return nil
	},
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

var batchFailCmd = &cobra.Command{
	Use:   "fail <month>",
	Short: "Promote a batch to the error variant of its next status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync()

		store, cfg, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		cat, err := catalog.Load(store.Conn())
		if err != nil {
			return err
		}
		exec := &executor.Executor{
			Store:      store,
			Catalog:    cat,
			Runner:     &action.ExecRunner{},
			Confirm:    planner.StaticConfirmer(false),
			Sess:       session.New(logger),
			ActionsDir: cfg.Organizer.ActionsDir,
		}
		return exec.PromoteError(args[0])
	},
}

func init() {
	batchListCmd.Flags().Bool("errors", false, "Show only batches in an error state")

	batchCmd.AddCommand(batchListCmd)
	batchCmd.AddCommand(batchShowCmd)
	batchCmd.AddCommand(batchFailCmd)
}
