package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"media-organizer/internal/action"
	"media-organizer/internal/photos"
	"media-organizer/internal/planner"
	"media-organizer/internal/quota"
	"media-organizer/internal/session"
	"media-organizer/internal/staging"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Run one planning cycle and record the next unit of work",
	Long: `plan refreshes source data (migrations, metadata sync, batch generation),
then selects the single next unit of work across all month batches.

Manual and retryable transitions are applied in place after confirmation.
A pipeline selection records the month in the planned execution table for
"organizer run" to execute.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		autoApply, _ := cmd.Flags().GetBool("auto-apply")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

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

		library, err := photos.OpenLibrary(cfg.Organizer.PhotosDBPath)
		if err != nil {
			return err
		}
		defer library.Close()

		var checker quota.Checker
		if cfg.Organizer.QuotaCommand != "" {
			checker = &quota.CommandChecker{
				Command: cfg.Organizer.QuotaCommand,
				Runner:  &action.ExecRunner{},
			}
		}

		p := &planner.Planner{
			Store:       store,
			Library:     library,
			Staging:     &staging.Tree{Root: cfg.Organizer.StagingRoot},
			Quota:       checker,
			Confirm:     &planner.TerminalConfirmer{In: os.Stdin, Out: cmd.OutOrStdout()},
			Sess:        session.New(logger),
			AutoApply:   autoApply,
			DryRun:      dryRun,
			FreshWindow: cfg.Organizer.MetadataSyncWindow(),
		}

		sel, err := p.Plan(cmd.Context())
		if errors.Is(err, planner.ErrNoWork) {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to plan: no eligible batch or transition.")
			return nil
		}
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		switch {
		case sel.Applied:
			fmt.Fprintf(w, "Applied %s transition for month %s.\n", sel.Kind, sel.Month)
		default:
			fmt.Fprintf(w, "Planned month %s (%d pipeline steps):\n", sel.Month, len(sel.Plan))
			for _, t := range sel.Plan {
				fmt.Fprintf(w, "  %s -> %s\n", t.From, t.To)
			}
			if dryRun {
				fmt.Fprintln(w, "Dry run: plan not recorded.")
			} else {
				fmt.Fprintln(w, "Run \"organizer run\" to execute.")
			}
		}
		return nil
	},
}

func init() {
	planCmd.Flags().Bool("auto-apply", false, "Skip interactive confirmations (manual transitions are declined, unblocked retryable ones applied)")
	planCmd.Flags().Bool("dry-run", false, "Evaluate the cycle without mutating any state")
}
