package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database management",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		pending, err := store.Pending()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if len(pending) == 0 {
			fmt.Fprintln(w, "No pending migrations.")
			return nil
		}
		if dryRun {
			fmt.Fprintln(w, "Pending migrations:")
			for _, id := range pending {
				fmt.Fprintf(w, "  - %s\n", id)
			}
			return nil
		}
		if err := store.Migrate(); err != nil {
			return err
		}
		fmt.Fprintf(w, "Applied %d migration(s).\n", len(pending))
		return nil
	},
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the migration ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.Ledger()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-36s %-8s %-20s %s\n", "MIGRATION", "STATUS", "APPLIED AT (UTC)", "DESCRIPTION")
		fmt.Fprintf(w, "%-36s %-8s %-20s %s\n",
			strings.Repeat("-", 36), strings.Repeat("-", 8), strings.Repeat("-", 20), strings.Repeat("-", 11))
		for _, e := range entries {
			fmt.Fprintf(w, "%-36s %-8s %-20s %s\n", e.Migration, e.Status, e.AppliedAt, e.Description)
		}
		return nil
	},
}

var dbResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the database (destructive!)",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Reset(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Database reset and re-migrated.")
		return nil
	},
}

func init() {
	dbMigrateCmd.Flags().Bool("dry-run", false, "List pending migrations without applying them")

	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbResetCmd)
}
