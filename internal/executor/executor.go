// Package executor walks the recorded plan step by step, invoking external
// actions and advancing batch state on success.
package executor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"media-organizer/internal/action"
	"media-organizer/internal/catalog"
	"media-organizer/internal/db"
	"media-organizer/internal/planner"
	"media-organizer/internal/session"
	"media-organizer/internal/staging"
)

// ErrNoActivePlan is returned when no planning cycle has recorded a plan.
var ErrNoActivePlan = errors.New("no active planned execution")

// Step is one unit of the plan: the external action entering Target.
type Step struct {
	Label   string
	Target  catalog.Code
	Command string // catalog command template, {month} unexpanded
}

// Plan is the resolved unit of work for one executor run.
type Plan struct {
	Month string
	Batch db.Batch
	Steps []Step
}

// Executor drives a plan to completion, fail-fast.
type Executor struct {
	Store      *db.DB
	Catalog    *catalog.Catalog
	Runner     action.Runner
	Confirm    planner.Confirmer
	Sess       *session.Session
	Staging    *staging.Tree
	ActionsDir string
	DryRun     bool
}

// BuildPlan resolves the active planned month into an ordered step list by
// walking the pipeline transitions from the batch's current status.
func (e *Executor) BuildPlan() (*Plan, error) {
	month, err := e.Store.PlannedMonth()
	if err != nil {
		return nil, err
	}
	if month == "" {
		return nil, ErrNoActivePlan
	}
	batch, err := e.Store.GetBatch(month)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, fmt.Errorf("planned month %s has no batch", month)
	}

	from, err := catalog.ParseCode(batch.StatusCode)
	if err != nil {
		return nil, err
	}
	walk, err := e.Catalog.Walk(from)
	if err != nil {
		return nil, err
	}

	steps := make([]Step, 0, len(walk))
	for _, tr := range walk {
		target, err := e.Catalog.Status(tr.To)
		if err != nil {
			return nil, err
		}
		if target.Script == "" {
			return nil, fmt.Errorf("status %s has no action script", tr.To)
		}
		steps = append(steps, Step{
			Label:   fmt.Sprintf("%s %s", target.Code, target.Label),
			Target:  target.Code,
			Command: target.Script,
		})
	}
	return &Plan{Month: month, Batch: *batch, Steps: steps}, nil
}

// OfferErrorRetry checks for batches stuck in an error state and, when the
// operator confirms, rewinds the newest one to the status preceding the
// failed step and re-points the plan at it. Declining leaves everything
// untouched.
func (e *Executor) OfferErrorRetry() error {
	errBatches, err := e.Store.BatchesInErrorState()
	if err != nil {
		return err
	}
	if len(errBatches) == 0 {
		return nil
	}

	b := errBatches[0]
	log := e.Sess.Logger.With(zap.String("month", b.Month), zap.String("code", b.StatusCode))

	ok, err := e.Confirm.Confirm(fmt.Sprintf(
		"Batch %s is in error state (%s). Retry failed batch?", b.Month, b.StatusCode))
	if err != nil {
		return err
	}
	if !ok {
		log.Info("error batch left as-is, proceeding with planned batch")
		return nil
	}

	code, err := catalog.ParseCode(b.StatusCode)
	if err != nil {
		return err
	}
	pred, err := e.Catalog.PipelinePredecessor(code)
	if err != nil {
		return fmt.Errorf("rewind %s: %w", b.Month, err)
	}
	if e.DryRun {
		log.Info("dry-run: would rewind error batch", zap.String("to", pred.Code.String()))
		return nil
	}
	if err := e.Store.SetBatchStatus(b.Month, pred.Code.String()); err != nil {
		return err
	}
	if err := e.Store.SetPlannedMonth(b.Month); err != nil {
		return err
	}
	log.Info("error batch rewound for retry", zap.String("to", pred.Code.String()))
	return nil
}

// RunOpts bounds which plan steps execute. Indexes are inclusive; To < 0
// means through the end.
type RunOpts struct {
	From int
	To   int
}

// Run executes the plan's steps in order. The first failure halts the run:
// remaining steps never execute and the batch stays at its last successful
// status. The plan row is consumed only after a full, successful walk.
func (e *Executor) Run(ctx context.Context, plan *Plan, opts RunOpts) error {
	// A batch already at a terminal status has nothing left to run; retire
	// the plan row so it does not stay active forever.
	if len(plan.Steps) == 0 {
		if e.DryRun {
			return nil
		}
		if err := e.Store.ConsumePlan(); err != nil {
			return err
		}
		e.Sess.Logger.Info("plan has no executable steps, consumed",
			zap.String("month", plan.Month))
		return nil
	}

	if opts.To < 0 || opts.To >= len(plan.Steps) {
		opts.To = len(plan.Steps) - 1
	}
	if opts.From < 0 {
		opts.From = 0
	}
	if opts.From > opts.To {
		return fmt.Errorf("empty step range %d..%d", opts.From, opts.To)
	}

	log := e.Sess.Logger.With(zap.String("month", plan.Month))
	batchID := plan.Batch.ID

	for i := opts.From; i <= opts.To; i++ {
		step := plan.Steps[i]
		if err := e.runStep(ctx, log, plan.Month, batchID, step); err != nil {
			return err
		}
	}

	if e.DryRun {
		return nil
	}
	// Partial runs leave the plan active for the next invocation.
	if opts.From == 0 && opts.To == len(plan.Steps)-1 {
		if err := e.Store.ConsumePlan(); err != nil {
			return err
		}
		log.Info("plan fully consumed")
	}
	return nil
}

func (e *Executor) runStep(ctx context.Context, log *zap.Logger, month string, batchID int, step Step) error {
	stepLog := log.With(zap.String("step", step.Label))
	stepLog.Info("starting step")

	if e.DryRun {
		cmd := action.ExpandCommand(step.Command, e.ActionsDir, month, true)
		stepLog.Info("dry-run, action not invoked", zap.String("command", cmd))
		return e.Store.LogExecution(e.Sess.ID, step.Label, db.ExecDryRun, &batchID)
	}

	stdout, err := e.invoke(ctx, stepLog, month, step)
	if err != nil {
		_ = e.Store.LogExecution(e.Sess.ID, step.Label, db.ExecFailed, &batchID)
		return err
	}

	if err := e.reconcile(stepLog, month, step, stdout); err != nil {
		return err
	}
	if err := e.Store.SetBatchStatus(month, step.Target.String()); err != nil {
		return err
	}
	if err := e.Store.LogExecution(e.Sess.ID, step.Label, db.ExecSuccess, &batchID); err != nil {
		return err
	}
	stepLog.Info("step completed",
		zap.String("status", step.Target.String()),
		zap.String("stdout", strings.TrimSpace(stdout)))
	return nil
}

// builtinDedup is the catalog script name dispatched to the in-process
// staging dedup instead of an external command.
const builtinDedup = "deduplicate_assets"

// invoke runs a step's action: the dedup step runs in-process against the
// staging tree, everything else shells out through the Runner.
func (e *Executor) invoke(ctx context.Context, log *zap.Logger, month string, step Step) (string, error) {
	if program(step.Command) == builtinDedup {
		return e.dedupStep(log, month)
	}

	cmd := action.ExpandCommand(step.Command, e.ActionsDir, month, false)
	stdout, stderr, exitCode, err := e.Runner.Run(ctx, cmd)
	if err != nil {
		return "", fmt.Errorf("step %q: %w", step.Label, err)
	}
	if exitCode != 0 {
		log.Error("step failed, halting remaining plan",
			zap.Int("exit_code", exitCode),
			zap.String("stderr", strings.TrimSpace(stderr)))
		return "", fmt.Errorf("step %q exited %d", step.Label, exitCode)
	}
	return stdout, nil
}

func program(template string) string {
	fields := strings.Fields(template)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func (e *Executor) dedupStep(log *zap.Logger, month string) (string, error) {
	if e.Staging == nil {
		return "", fmt.Errorf("dedup step: no staging tree configured")
	}
	if !e.Staging.Exists(month) {
		return "", fmt.Errorf("dedup step: no staging folder for %s", month)
	}
	res, err := e.Staging.Dedup(month, false)
	if err != nil {
		return "", fmt.Errorf("dedup %s: %w", month, err)
	}
	for _, f := range res.Misplaced {
		log.Warn("staged file capture month disagrees with folder", zap.String("file", f))
	}
	return fmt.Sprintf("examined %d files, removed %d duplicates", res.Examined, len(res.Removed)), nil
}

// reconcile applies post-step bookkeeping to the asset mirror: a completed
// upload marks every staged file uploaded with its content hash, and a
// favorites pull flags the filenames the action printed on stdout, one per
// line.
func (e *Executor) reconcile(log *zap.Logger, month string, step Step, stdout string) error {
	switch step.Target.String() {
	case "400":
		return e.markUploaded(log, month)
	case "550":
		return e.markFavorites(log, month, stdout)
	}
	return nil
}

func (e *Executor) markUploaded(log *zap.Logger, month string) error {
	if e.Staging == nil || !e.Staging.Exists(month) {
		return nil
	}
	files, err := e.Staging.MediaFiles(month)
	if err != nil {
		return err
	}
	for _, f := range files {
		hash, err := staging.HashFile(f)
		if err != nil {
			return err
		}
		if err := e.Store.MarkUploaded(month, filepath.Base(f), hash); err != nil {
			return err
		}
	}
	log.Info("staged files marked uploaded", zap.Int("files", len(files)))
	return nil
}

func (e *Executor) markFavorites(log *zap.Logger, month, stdout string) error {
	n := 0
	for _, line := range strings.Split(stdout, "\n") {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		if err := e.Store.SetFavorite(month, name, true); err != nil {
			return err
		}
		n++
	}
	log.Info("cloud favorites recorded", zap.Int("favorites", n))
	return nil
}

// PromoteError explicitly marks a batch as failed entering its next pipeline
// status: the batch moves to the error variant of that status. Step failures
// never do this automatically; promotion is a narrower, deliberate operation.
func (e *Executor) PromoteError(month string) error {
	batch, err := e.Store.GetBatch(month)
	if err != nil {
		return err
	}
	if batch == nil {
		return fmt.Errorf("no batch for month %s", month)
	}
	code, err := catalog.ParseCode(batch.StatusCode)
	if err != nil {
		return err
	}
	next, err := e.Catalog.NextStatus(code)
	if err != nil {
		return fmt.Errorf("batch %s has no pipeline step to fail: %w", month, err)
	}
	errStatus, err := e.Catalog.ErrorStatus(next.Code)
	if err != nil {
		return err
	}
	if err := e.Store.SetBatchStatus(month, errStatus.Code.String()); err != nil {
		return err
	}
	e.Sess.Logger.Warn("batch promoted to error state",
		zap.String("month", month),
		zap.String("from", code.String()),
		zap.String("to", errStatus.Code.String()))
	return nil
}
