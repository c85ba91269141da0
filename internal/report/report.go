// Package report computes summary statistics over the execution log and the
// batch table for the stats command.
package report

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
	"time"
)

// DB is the interface for database queries used by reporting.
type DB interface {
	Conn() *sql.DB
}

// StepDuration holds duration stats for one labelled step.
type StepDuration struct {
	Label string
	Count int
	Avg   float64 // minutes
	P50   float64
	P95   float64
}

// timestamp formats to try when parsing timestamps from the database
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, f := range timestampFormats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}

// StepDurations returns average and percentile wall-clock durations per step
// label. Each successful record is paired with the preceding record of the
// same session; the gap is attributed to the later step. since, when
// non-empty, bounds the window by executed_at_utc.
func StepDurations(database DB, since string) ([]StepDuration, error) {
	query := `
		SELECT pe1.label, pe1.executed_at_utc,
			(SELECT MAX(pe2.executed_at_utc) FROM pipeline_executions pe2
			 WHERE pe2.session_id = pe1.session_id
			 AND pe2.id < pe1.id) as start_ts
		FROM pipeline_executions pe1
		WHERE pe1.status = 'success'`

	args := []interface{}{}
	if since != "" {
		query += ` AND pe1.executed_at_utc >= ?`
		args = append(args, since)
	}

	rows, err := database.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query step durations: %w", err)
	}
	defer rows.Close()

	byLabel := make(map[string][]float64)
	for rows.Next() {
		var label, endTS string
		var startTS sql.NullString
		if err := rows.Scan(&label, &endTS, &startTS); err != nil {
			return nil, fmt.Errorf("scan step duration: %w", err)
		}
		if !startTS.Valid {
			continue
		}
		start, err := parseTimestamp(startTS.String)
		if err != nil {
			continue
		}
		end, err := parseTimestamp(endTS)
		if err != nil {
			continue
		}
		minutes := end.Sub(start).Minutes()
		if minutes < 0 {
			continue
		}
		byLabel[label] = append(byLabel[label], minutes)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []StepDuration
	for label, durations := range byLabel {
		sort.Float64s(durations)
		out = append(out, StepDuration{
			Label: label,
			Count: len(durations),
			Avg:   round1(avg(durations)),
			P50:   round1(percentile(durations, 0.50)),
			P95:   round1(percentile(durations, 0.95)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

// StatusCount is the number of batches sitting at one status code.
type StatusCount struct {
	Code  string
	Label string
	Count int
}

// BatchesByStatus returns how many batches occupy each status, ordered by
// code. Statuses with no batches are omitted.
func BatchesByStatus(database DB) ([]StatusCount, error) {
	rows, err := database.Conn().Query(`
		SELECT mb.status_code, COALESCE(bs.short_label, ''), COUNT(*)
		FROM month_batches mb
		LEFT JOIN batch_status bs ON bs.code = mb.status_code
		GROUP BY mb.status_code
		ORDER BY mb.status_code`)
	if err != nil {
		return nil, fmt.Errorf("query batches by status: %w", err)
	}
	defer rows.Close()

	var out []StatusCount
	for rows.Next() {
		var c StatusCount
		if err := rows.Scan(&c.Code, &c.Label, &c.Count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// OutcomeCount tallies execution outcomes over a window.
type OutcomeCount struct {
	Status string
	Count  int
}

// Outcomes returns success/failed/dry-run totals, optionally since a UTC
// timestamp.
func Outcomes(database DB, since string) ([]OutcomeCount, error) {
	query := `SELECT status, COUNT(*) FROM pipeline_executions`
	args := []interface{}{}
	if since != "" {
		query += ` WHERE executed_at_utc >= ?`
		args = append(args, since)
	}
	query += ` GROUP BY status ORDER BY status`

	rows, err := database.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var out []OutcomeCount
	for rows.Next() {
		var c OutcomeCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func avg(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// percentile on sorted input, nearest-rank.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
