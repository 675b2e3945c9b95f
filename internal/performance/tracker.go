// Package performance answers whether the grades mean anything: it joins each
// bet's latest grade with its latest outcome and reports hit rates and
// profit by letter band.
package performance

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"plusev/internal/resolve"
)

// Tracker computes performance metrics from the database. tieCounting decides
// how pushes enter the hit rate: "excluded", "win", or "loss".
type Tracker struct {
	db          *sql.DB
	tieCounting string
}

func NewTracker(db *sql.DB, tieCounting string) *Tracker {
	return &Tracker{db: db, tieCounting: tieCounting}
}

// Report aggregates settled outcomes under each bet's latest grade.
type Report struct {
	TotalBets     int
	GradedBets    int
	ResolvedBets  int
	PendingManual int
	HitRate       float64
	UnitsPnL      decimal.Decimal
	Staked        decimal.Decimal
	ROI           decimal.Decimal
	LetterStats   map[string]LetterStats
}

// LetterStats is the settled record of one grade band.
type LetterStats struct {
	Graded       int
	Resolved     int
	Wins         int
	Losses       int
	Ties         int
	HitRate      float64
	UnitsPnL     decimal.Decimal
	Staked       decimal.Decimal
	ROI          decimal.Decimal
	AvgComposite float64
}

// Generate computes the full performance report.
func (t *Tracker) Generate() (*Report, error) {
	r := &Report{
		LetterStats: make(map[string]LetterStats),
		UnitsPnL:    decimal.Zero,
		Staked:      decimal.Zero,
		ROI:         decimal.Zero,
	}

	if err := t.countBets(r); err != nil {
		return nil, fmt.Errorf("counting bets: %w", err)
	}
	if err := t.aggregateLetters(r); err != nil {
		return nil, fmt.Errorf("aggregating letter stats: %w", err)
	}

	return r, nil
}

func (t *Tracker) countBets(r *Report) error {
	row := t.db.QueryRow(`SELECT COUNT(*) FROM bets`)
	if err := row.Scan(&r.TotalBets); err != nil {
		return err
	}
	row = t.db.QueryRow(`SELECT COUNT(DISTINCT bet_id) FROM grades`)
	return row.Scan(&r.GradedBets)
}

type letterAccum struct {
	graded       int
	wins         int
	losses       int
	ties         int
	pending      int
	compositeSum float64
	pnl          decimal.Decimal
	staked       decimal.Decimal
}

func (t *Tracker) aggregateLetters(r *Report) error {
	rows, err := t.db.Query(`
		SELECT lg.letter, lg.composite, lo.result, lo.stake, lo.profit_loss
		FROM (
			SELECT g.bet_id, g.letter, g.composite
			FROM grades g
			JOIN (
				SELECT bet_id, MAX(evaluated_at) AS latest
				FROM grades GROUP BY bet_id
			) m ON m.bet_id = g.bet_id AND m.latest = g.evaluated_at
		) lg
		LEFT JOIN (
			SELECT o.bet_id, o.result, o.stake, o.profit_loss
			FROM outcomes o
			JOIN (
				SELECT bet_id, MAX(evaluated_at) AS latest
				FROM outcomes GROUP BY bet_id
			) m ON m.bet_id = o.bet_id AND m.latest = o.evaluated_at
		) lo ON lo.bet_id = lg.bet_id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	accum := make(map[string]*letterAccum)
	for rows.Next() {
		var letter string
		var composite float64
		var result, stake, pnl sql.NullString
		if err := rows.Scan(&letter, &composite, &result, &stake, &pnl); err != nil {
			return err
		}

		acc := accum[letter]
		if acc == nil {
			acc = &letterAccum{pnl: decimal.Zero, staked: decimal.Zero}
			accum[letter] = acc
		}
		acc.graded++
		acc.compositeSum += composite

		if !result.Valid {
			continue
		}
		switch resolve.Result(result.String) {
		case resolve.Win:
			acc.wins++
		case resolve.Loss:
			acc.losses++
		case resolve.Tie:
			acc.ties++
		case resolve.PendManual:
			acc.pending++
			continue
		}
		if stake.Valid {
			d, err := decimal.NewFromString(stake.String)
			if err != nil {
				return fmt.Errorf("parsing stake %q: %w", stake.String, err)
			}
			acc.staked = acc.staked.Add(d)
		}
		if pnl.Valid {
			d, err := decimal.NewFromString(pnl.String)
			if err != nil {
				return fmt.Errorf("parsing profit_loss %q: %w", pnl.String, err)
			}
			acc.pnl = acc.pnl.Add(d)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	var wins, losses, ties int
	for letter, acc := range accum {
		stats := LetterStats{
			Graded:       acc.graded,
			Resolved:     acc.wins + acc.losses + acc.ties,
			Wins:         acc.wins,
			Losses:       acc.losses,
			Ties:         acc.ties,
			HitRate:      t.hitRate(acc.wins, acc.losses, acc.ties),
			UnitsPnL:     acc.pnl,
			Staked:       acc.staked,
			ROI:          roi(acc.pnl, acc.staked),
			AvgComposite: acc.compositeSum / float64(acc.graded),
		}
		r.LetterStats[letter] = stats

		r.ResolvedBets += stats.Resolved
		r.PendingManual += acc.pending
		r.UnitsPnL = r.UnitsPnL.Add(acc.pnl)
		r.Staked = r.Staked.Add(acc.staked)
		wins += acc.wins
		losses += acc.losses
		ties += acc.ties
	}
	r.HitRate = t.hitRate(wins, losses, ties)
	r.ROI = roi(r.UnitsPnL, r.Staked)
	return nil
}

func (t *Tracker) hitRate(wins, losses, ties int) float64 {
	num, den := float64(wins), float64(wins+losses)
	switch t.tieCounting {
	case "win":
		num += float64(ties)
		den += float64(ties)
	case "loss":
		den += float64(ties)
	}
	if den == 0 {
		return 0
	}
	return num / den
}

func roi(pnl, staked decimal.Decimal) decimal.Decimal {
	if !staked.IsPositive() {
		return decimal.Zero
	}
	return pnl.Div(staked).Round(4)
}
