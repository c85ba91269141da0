package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"media-organizer/internal/report"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize batch states and step durations",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")

		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Migrate(); err != nil {
			return err
		}

		since := ""
		if days > 0 {
			since = time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02 15:04:05")
		}
		w := cmd.OutOrStdout()

		counts, err := report.BatchesByStatus(store)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "Batches by status:")
		if len(counts) == 0 {
			fmt.Fprintln(w, "  (none)")
		}
		for _, c := range counts {
			fmt.Fprintf(w, "  %-5s %-18s %d\n", c.Code, c.Label, c.Count)
		}

		outcomes, err := report.Outcomes(store, since)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "\nExecution outcomes:")
		if len(outcomes) == 0 {
			fmt.Fprintln(w, "  (none)")
		}
		for _, o := range outcomes {
			fmt.Fprintf(w, "  %-8s %d\n", o.Status, o.Count)
		}

		durations, err := report.StepDurations(store, since)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "\nStep durations (minutes):")
		if len(durations) == 0 {
			fmt.Fprintln(w, "  (none)")
			return nil
		}
		fmt.Fprintf(w, "  %-32s %5s %8s %8s %8s\n", "STEP", "RUNS", "AVG", "P50", "P95")
		fmt.Fprintf(w, "  %-32s %5s %8s %8s %8s\n",
			strings.Repeat("-", 32), "----", "---", "---", "---")
		for _, d := range durations {
			fmt.Fprintf(w, "  %-32s %5d %8.1f %8.1f %8.1f\n", d.Label, d.Count, d.Avg, d.P50, d.P95)
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().Int("days", 0, "Limit execution stats to the last N days (0 = all time)")

	rootCmd.AddCommand(statsCmd)
}
