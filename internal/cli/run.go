package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"media-organizer/internal/action"
	"media-organizer/internal/catalog"
	"media-organizer/internal/executor"
	"media-organizer/internal/planner"
	"media-organizer/internal/session"
	"media-organizer/internal/staging"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the recorded plan step by step",
	Long: `run replays the active plan produced by "organizer plan": each step invokes
its external action, advances the batch status on success, and appends an
execution record. The first failure halts the run; the batch stays at its
last successful status and the plan remains active for a retry.

Without --from/--to an interactive picker selects the step range.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetInt("from")
		to, _ := cmd.Flags().GetInt("to")
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

		if err := store.Migrate(); err != nil {
			return err
		}
		cat, err := catalog.Load(store.Conn())
		if err != nil {
			return err
		}

		exec := &executor.Executor{
			Store:      store,
			Catalog:    cat,
			Runner:     &action.ExecRunner{},
			Confirm:    &planner.TerminalConfirmer{In: os.Stdin, Out: cmd.OutOrStdout()},
			Sess:       session.New(logger),
			Staging:    &staging.Tree{Root: cfg.Organizer.StagingRoot},
			ActionsDir: cfg.Organizer.ActionsDir,
			DryRun:     dryRun,
		}

		if err := exec.OfferErrorRetry(); err != nil {
			return err
		}

		plan, err := exec.BuildPlan()
		if errors.Is(err, executor.ErrNoActivePlan) {
			return fmt.Errorf("no active plan; run \"organizer plan\" first")
		}
		if err != nil {
			return err
		}
		if len(plan.Steps) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Batch %s is at a terminal status; nothing to execute.\n", plan.Month)
			return exec.Run(cmd.Context(), plan, executor.RunOpts{})
		}

		opts := executor.RunOpts{From: from, To: to}
		if !cmd.Flags().Changed("from") && !cmd.Flags().Changed("to") {
			opts, err = pickStepRange(plan, os.Stdin, cmd.OutOrStdout())
			if err != nil {
				return err
			}
		}

		return exec.Run(cmd.Context(), plan, opts)
	},
}

// pickStepRange lists the plan's steps and reads inclusive start/end indexes,
// defaulting to the whole plan.
func pickStepRange(plan *executor.Plan, in io.Reader, out io.Writer) (executor.RunOpts, error) {
	fmt.Fprintf(out, "\nPlan for month %s:\n", plan.Month)
	for i, s := range plan.Steps {
		fmt.Fprintf(out, "  %2d: %s\n", i, s.Label)
	}

	reader := bufio.NewReader(in)
	from, err := readIndex(reader, out, "Start step index", 0)
	if err != nil {
		return executor.RunOpts{}, err
	}
	to, err := readIndex(reader, out, "End step index (inclusive)", len(plan.Steps)-1)
	if err != nil {
		return executor.RunOpts{}, err
	}
	return executor.RunOpts{From: from, To: to}, nil
}

func readIndex(reader *bufio.Reader, out io.Writer, prompt string, def int) (int, error) {
	fmt.Fprintf(out, "%s [default: %d]: ", prompt, def)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("read step index: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		return 0, fmt.Errorf("invalid step index %q", line)
	}
	return n, nil
}

func init() {
	runCmd.Flags().Int("from", 0, "First step index to execute")
	runCmd.Flags().Int("to", -1, "Last step index to execute (inclusive, -1 = end)")
	runCmd.Flags().Bool("dry-run", false, "Log each step without running actions or mutating state")
}
