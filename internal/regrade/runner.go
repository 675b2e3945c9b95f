// Package regrade replays grading over historical observations, so a method
// change can be scored against every moment the pipeline ever saw.
package regrade

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"plusev/internal/grade"
	"plusev/internal/store"
)

// Runner re-grades every observation in a date range as of the instant it was
// seen. Replayed grades append to the grades table under the runner's method
// version, so they sit alongside the live ones without displacing them.
type Runner struct {
	store  *store.Store
	grader *grade.Grader
}

func NewRunner(st *store.Store, grader *grade.Grader) *Runner {
	return &Runner{store: st, grader: grader}
}

// Run replays the range and, when csvPath is set, exports the replayed grades
// as CSV. Dates are "2006-01-02"; from defaults to one year ago, to defaults
// to now and is inclusive of the named day.
func (r *Runner) Run(fromStr, toStr, csvPath string) error {
	from, to, err := parseDateRange(fromStr, toStr)
	if err != nil {
		return err
	}

	slog.Info("regrade starting",
		"from", from.Format("2006-01-02"),
		"to", to.Format("2006-01-02"),
		"method", r.grader.Method().Version,
	)

	inputs, err := r.store.LoadHistoriesObservedBetween(from, to)
	if err != nil {
		return fmt.Errorf("loading observation histories: %w", err)
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no observations found in range %s to %s",
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	var records []grade.Record
	for _, in := range inputs {
		for cut, snap := range in.History {
			if snap.ObservedAt.Before(from) || !snap.ObservedAt.Before(to) {
				continue
			}
			asOf := grade.Input{
				BetID:     in.BetID,
				EventTime: in.EventTime,
				History:   in.History[:cut+1],
			}
			rec, err := r.grader.Evaluate(asOf)
			if err != nil {
				slog.Warn("replay grading failed", "bet_id", in.BetID, "error", err)
				continue
			}
			if err := r.store.InsertGrade(rec); err != nil {
				slog.Warn("saving replayed grade failed", "bet_id", in.BetID, "error", err)
				continue
			}
			records = append(records, rec)
		}
	}

	if csvPath != "" {
		if err := writeCSV(csvPath, records); err != nil {
			return fmt.Errorf("writing grade export: %w", err)
		}
		slog.Info("grade export written", "path", csvPath, "rows", len(records))
	}

	slog.Info("=== REGRADE RESULTS ===",
		"period", fmt.Sprintf("%s to %s", from.Format("2006-01-02"), to.Format("2006-01-02")),
		"bets", len(inputs),
		"grades_written", len(records),
	)
	return nil
}

func parseDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	var from, to time.Time

	if fromStr == "" {
		from = time.Now().AddDate(-1, 0, 0) // Default: 1 year ago.
	} else {
		var err error
		from, err = time.Parse("2006-01-02", fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parsing from date: %w", err)
		}
	}

	if toStr == "" {
		to = time.Now()
	} else {
		day, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parsing to date: %w", err)
		}
		to = day.AddDate(0, 0, 1)
	}

	if !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("empty date range %s to %s", fromStr, toStr)
	}
	return from, to, nil
}

func writeCSV(path string, records []grade.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"bet_id", "evaluated_at", "ev_score", "timing_score",
		"trend_score", "confidence", "composite", "letter", "method"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{
			rec.BetID,
			rec.EvaluatedAt.Format("2006-01-02 15:04:05"),
			formatScore(rec.EVScore),
			formatScore(rec.TimingScore),
			formatScore(rec.TrendScore),
			formatScore(rec.Confidence),
			formatScore(rec.Composite),
			rec.Letter,
			rec.Method,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
