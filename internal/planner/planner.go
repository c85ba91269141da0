package planner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"media-organizer/internal/catalog"
	"media-organizer/internal/db"
	"media-organizer/internal/photos"
	"media-organizer/internal/quota"
	"media-organizer/internal/session"
	"media-organizer/internal/staging"
)

// Bootstrap step labels. The metadata sync label doubles as the key the
// freshness predicate looks up in the execution log.
const (
	LabelStorageStatus = "0.1 storage status"
	LabelSyncMetadata  = "0.3 sync photo metadata"
	LabelGenBatches    = "1.1 generate month batches"
)

// bootstrapStep is one pre-flight refresh action. Steps run in order; any
// failure aborts the whole planning cycle. Steps marked always still run
// under dry-run: the rest of the cycle depends on them.
type bootstrapStep struct {
	label  string
	always bool
	skip   func() (bool, string, error)
	run    func(ctx context.Context) error
}

// Planner refreshes source data and selects the next unit of work.
type Planner struct {
	Store     *db.DB
	Library   *photos.Library
	Staging   *staging.Tree
	Quota     quota.Checker
	Confirm   Confirmer
	Sess      *session.Session
	AutoApply bool
	DryRun    bool
	// FreshWindow bounds how old a successful metadata sync may be before it
	// is repeated even if the library looks unchanged.
	FreshWindow time.Duration
}

// Plan runs one full planning cycle: bootstrap refresh, catalog load,
// selection. Returns ErrNoWork when nothing is eligible.
func (p *Planner) Plan(ctx context.Context) (*Selection, error) {
	if err := p.runBootstrap(ctx); err != nil {
		return nil, err
	}

	cat, err := catalog.Load(p.Store.Conn())
	if err != nil {
		return nil, err
	}

	sel := &Selector{
		Store:     p.Store,
		Catalog:   cat,
		Staging:   p.Staging,
		Quota:     p.Quota,
		Confirm:   p.Confirm,
		AutoApply: p.AutoApply,
		DryRun:    p.DryRun,
		Logger:    p.Sess.Logger,
	}
	return sel.Select(ctx)
}

func (p *Planner) runBootstrap(ctx context.Context) error {
	log := p.Sess.Logger

	steps := []bootstrapStep{
		{
			label:  LabelStorageStatus,
			always: true,
			run: func(context.Context) error {
				pending, err := p.Store.Pending()
				if err != nil {
					return err
				}
				if len(pending) > 0 {
					log.Info("applying pending migrations", zap.Strings("migrations", pending))
				}
				return p.Store.Migrate()
			},
		},
		{
			label: LabelSyncMetadata,
			skip:  p.metadataSyncFresh,
			run: func(context.Context) error {
				return photos.Sync(p.Store, p.Library, log)
			},
		},
		{
			label: LabelGenBatches,
			run: func(context.Context) error {
				return photos.GenerateBatches(p.Store, log, time.Now())
			},
		},
	}

	for _, step := range steps {
		if step.skip != nil {
			skip, reason, err := step.skip()
			if err != nil {
				log.Warn("freshness check failed, running step anyway",
					zap.String("step", step.label), zap.Error(err))
			} else if skip {
				log.Info("bootstrap step skipped", zap.String("step", step.label), zap.String("reason", reason))
				continue
			}
		}
		if p.DryRun && !step.always {
			log.Info("bootstrap step dry-run", zap.String("step", step.label))
			if err := p.Store.LogExecution(p.Sess.ID, step.label, db.ExecDryRun, nil); err != nil {
				return err
			}
			continue
		}
		if err := step.run(ctx); err != nil {
			_ = p.Store.LogExecution(p.Sess.ID, step.label, db.ExecFailed, nil)
			return fmt.Errorf("bootstrap step %q: %w", step.label, err)
		}
		if err := p.Store.LogExecution(p.Sess.ID, step.label, db.ExecSuccess, nil); err != nil {
			return err
		}
		log.Info("bootstrap step completed", zap.String("step", step.label))
	}
	return nil
}

// metadataSyncFresh reports whether the last successful metadata sync
// postdates the photo library's modification time and is younger than the
// freshness window.
func (p *Planner) metadataSyncFresh() (bool, string, error) {
	last, err := p.Store.LastSuccessfulRun(LabelSyncMetadata)
	if err != nil {
		return false, "", err
	}
	if last == "" {
		return false, "", nil
	}
	lastAt, err := time.Parse("2006-01-02 15:04:05", last)
	if err != nil {
		return false, "", fmt.Errorf("parse last sync time %q: %w", last, err)
	}
	lastAt = lastAt.UTC()

	mtime, err := p.Library.LastModified()
	if err != nil {
		return false, "", err
	}

	if lastAt.After(mtime.UTC()) && time.Since(lastAt) < p.FreshWindow {
		return true, fmt.Sprintf("last sync %s postdates library mtime %s",
			lastAt.Format(time.RFC3339), mtime.UTC().Format(time.RFC3339)), nil
	}
	return false, "", nil
}
