package planner

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"media-organizer/internal/catalog"
	"media-organizer/internal/db"
	"media-organizer/internal/quota"
	"media-organizer/internal/staging"
)

// ErrNoWork signals that no batch has an eligible transition. Normal
// termination, not a failure.
var ErrNoWork = errors.New("no eligible batch or transition")

// Selection is the single unit of work a planning cycle produced.
type Selection struct {
	Kind  catalog.Kind
	Month string
	// Applied is set for manual and retryable selections, which advance the
	// batch in place and need no external action.
	Applied bool
	// Plan is the ordered pipeline walk, set only for pipeline selections.
	Plan []catalog.Transition
}

// Selector picks exactly one (month, transition) to act on next, applying the
// precedence manual > retryable > pipeline. Within a kind the most recent
// month wins (lexicographic max on the YYYY-MM key, which sorts
// chronologically; months are unique per batch so no further tie-break is
// needed).
type Selector struct {
	Store     *db.DB
	Catalog   *catalog.Catalog
	Staging   *staging.Tree
	Quota     quota.Checker
	Confirm   Confirmer
	AutoApply bool
	DryRun    bool
	Logger    *zap.Logger
}

type candidate struct {
	batch db.Batch
	tr    catalog.Transition
}

// Select runs one selection pass over all batches.
func (s *Selector) Select(ctx context.Context) (*Selection, error) {
	batches, err := s.Store.ListBatches()
	if err != nil {
		return nil, err
	}

	buckets := map[catalog.Kind][]candidate{}
	for _, b := range batches {
		code, err := catalog.ParseCode(b.StatusCode)
		if err != nil {
			return nil, fmt.Errorf("batch %s: %w", b.Month, err)
		}
		for _, tr := range s.Catalog.TransitionsOf(code) {
			buckets[tr.Kind] = append(buckets[tr.Kind], candidate{batch: b, tr: tr})
		}
	}

	if c := mostRecent(buckets[catalog.KindManual]); c != nil {
		sel, err := s.handleManual(*c)
		if err != nil || sel != nil {
			return sel, err
		}
	}
	if c := mostRecent(buckets[catalog.KindRetryable]); c != nil {
		sel, err := s.handleRetryable(ctx, *c)
		if err != nil || sel != nil {
			return sel, err
		}
	}
	if c := mostRecent(buckets[catalog.KindPipeline]); c != nil {
		return s.handlePipeline(*c)
	}

	s.Logger.Info("no eligible work", zap.Int("batches", len(batches)))
	return nil, ErrNoWork
}

// mostRecent picks the candidate with the lexicographically greatest month.
func mostRecent(cands []candidate) *candidate {
	var best *candidate
	for i := range cands {
		if best == nil || cands[i].batch.Month > best.batch.Month {
			best = &cands[i]
		}
	}
	return best
}

// handleManual offers a manual transition to the operator. Confirmed manual
// transitions are applied directly, no external action runs. In auto-apply
// mode the prompt is skipped and treated as declined; a nil, nil return means
// fall through to the next bucket.
func (s *Selector) handleManual(c candidate) (*Selection, error) {
	log := s.Logger.With(
		zap.String("month", c.batch.Month),
		zap.String("from", c.tr.From.String()),
		zap.String("to", c.tr.To.String()))

	if s.AutoApply {
		log.Info("manual transition skipped in auto-apply mode")
		return nil, nil
	}

	ok, err := s.Confirm.Confirm(fmt.Sprintf(
		"Apply manual transition %s->%s for month %s?", c.tr.From, c.tr.To, c.batch.Month))
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Info("manual transition declined")
		return nil, nil
	}
	if err := s.apply(c); err != nil {
		return nil, err
	}
	log.Info("manual transition applied")
	return &Selection{Kind: catalog.KindManual, Month: c.batch.Month, Applied: true}, nil
}

// handleRetryable re-evaluates the blocking quota condition for a partial
// upload. Unblocked transitions advance the batch directly; still-blocked
// ones log the shortfall and fall through.
func (s *Selector) handleRetryable(ctx context.Context, c candidate) (*Selection, error) {
	log := s.Logger.With(
		zap.String("month", c.batch.Month),
		zap.String("from", c.tr.From.String()),
		zap.String("to", c.tr.To.String()))

	if s.Quota == nil {
		log.Warn("no quota checker configured, retryable transition stays blocked")
		return nil, nil
	}
	if !s.Staging.Exists(c.batch.Month) {
		log.Warn("staging folder missing for month, skipping retryable transition")
		return nil, nil
	}

	pending, err := s.Staging.MonthSize(c.batch.Month)
	if err != nil {
		return nil, err
	}
	available, err := s.Quota.AvailableBytes(ctx)
	if err != nil {
		return nil, fmt.Errorf("evaluate quota: %w", err)
	}

	if available != quota.Unlimited && available < pending {
		log.Warn("insufficient remote storage, transition stays blocked",
			zap.Int64("pending_bytes", pending),
			zap.Int64("available_bytes", available),
			zap.Int64("shortfall_bytes", pending-available))
		return nil, nil
	}

	// Unblocked. Auto-apply takes it without a prompt.
	if !s.AutoApply {
		ok, err := s.Confirm.Confirm(fmt.Sprintf(
			"Quota available: apply transition %s->%s for month %s?", c.tr.From, c.tr.To, c.batch.Month))
		if err != nil {
			return nil, err
		}
		if !ok {
			log.Info("retryable transition declined")
			return nil, nil
		}
	}
	if err := s.apply(c); err != nil {
		return nil, err
	}
	log.Info("retryable transition applied",
		zap.Int64("pending_bytes", pending), zap.Int64("available_bytes", available))
	return &Selection{Kind: catalog.KindRetryable, Month: c.batch.Month, Applied: true}, nil
}

// handlePipeline builds the multi-step plan: a greedy walk along pipeline
// transitions from the batch's current status. Only this kind persists a
// planned execution row; the walk is hypothetical until the executor runs it.
func (s *Selector) handlePipeline(c candidate) (*Selection, error) {
	from, err := catalog.ParseCode(c.batch.StatusCode)
	if err != nil {
		return nil, err
	}
	plan, err := s.Catalog.Walk(from)
	if err != nil {
		return nil, err
	}

	steps := make([]string, len(plan))
	for i, t := range plan {
		steps[i] = fmt.Sprintf("%s->%s", t.From, t.To)
	}
	s.Logger.Info("pipeline plan selected",
		zap.String("month", c.batch.Month), zap.Strings("transitions", steps))

	if !s.DryRun {
		if err := s.Store.SetPlannedMonth(c.batch.Month); err != nil {
			return nil, err
		}
	}
	return &Selection{Kind: catalog.KindPipeline, Month: c.batch.Month, Plan: plan}, nil
}

func (s *Selector) apply(c candidate) error {
	if s.DryRun {
		return nil
	}
	return s.Store.SetBatchStatus(c.batch.Month, c.tr.To.String())
}
