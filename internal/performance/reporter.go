package performance

import (
	"log/slog"
)

// letterOrder fixes the report traversal, strongest band first.
var letterOrder = []string{"A", "B", "C", "D", "F"}

// LogReport logs the performance report as structured JSON.
func LogReport(r *Report) {
	slog.Info("=== PERFORMANCE REPORT ===",
		"total_bets", r.TotalBets,
		"graded_bets", r.GradedBets,
		"resolved_bets", r.ResolvedBets,
		"pending_manual", r.PendingManual,
		"hit_rate", r.HitRate,
		"units_pnl", r.UnitsPnL.String(),
		"staked", r.Staked.String(),
		"roi", r.ROI.String(),
	)

	for _, letter := range letterOrder {
		stats, ok := r.LetterStats[letter]
		if !ok {
			continue
		}
		slog.Info("letter performance",
			"letter", letter,
			"graded", stats.Graded,
			"resolved", stats.Resolved,
			"wins", stats.Wins,
			"losses", stats.Losses,
			"ties", stats.Ties,
			"hit_rate", stats.HitRate,
			"units_pnl", stats.UnitsPnL.String(),
			"roi", stats.ROI.String(),
			"avg_composite", stats.AvgComposite,
		)
	}
}
