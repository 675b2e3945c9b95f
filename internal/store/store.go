// Package store is the persistence layer over SQLite: opportunity upserts,
// observation history, grades, and outcomes. Grades and outcomes are
// append-only; the bets table always reflects the latest quote.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"plusev/internal/feed"
	"plusev/internal/grade"
	"plusev/internal/ledger"
	"plusev/internal/resolve"
)

const timeLayout = "2006-01-02 15:04:05"

// Store wraps the database with the operations the pipeline needs.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// SaveRecord upserts the opportunity and appends the observation to its
// history. Re-observing a known bet refreshes the current quote and keeps
// first_seen_at from the original sighting.
func (s *Store) SaveRecord(rec feed.Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning save: %w", err)
	}
	defer tx.Rollback()

	observed := rec.ObservedAt.Format(timeLayout)
	_, err = tx.Exec(`
		INSERT INTO bets (bet_id, event_time, event_teams, sport_league, bet_type, description,
		                  sportsbook, current_ev, current_odds, bet_size, win_probability,
		                  first_seen_at, last_observed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(bet_id) DO UPDATE SET
			current_ev = excluded.current_ev,
			current_odds = excluded.current_odds,
			bet_size = excluded.bet_size,
			win_probability = excluded.win_probability,
			last_observed_at = excluded.last_observed_at`,
		rec.BetID,
		rec.EventTime.Format(feed.EventTimeLayout),
		rec.EventTeams,
		rec.SportLeague,
		rec.BetType,
		rec.Description,
		rec.Sportsbook,
		rec.EVPercent,
		rec.Odds,
		rec.BetSize,
		rec.WinProbability,
		observed,
		observed,
	)
	if err != nil {
		return fmt.Errorf("upserting bet %s: %w", rec.BetID, err)
	}

	_, err = tx.Exec(`
		INSERT INTO bet_observations (bet_id, observed_at, ev_percent, odds)
		VALUES (?, ?, ?, ?)`,
		rec.BetID, observed, rec.EVPercent, rec.Odds,
	)
	if err != nil {
		return fmt.Errorf("appending observation for %s: %w", rec.BetID, err)
	}

	return tx.Commit()
}

// LoadGradeable returns every opportunity whose event starts after now, with
// its full observation history oldest first.
func (s *Store) LoadGradeable(now time.Time) ([]grade.Input, error) {
	rows, err := s.db.Query(`
		SELECT b.bet_id, b.event_time, o.observed_at, o.ev_percent, o.odds
		FROM bets b
		JOIN bet_observations o ON o.bet_id = b.bet_id
		WHERE b.event_time > ?
		ORDER BY b.bet_id, o.observed_at, o.id`,
		now.Format(feed.EventTimeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("querying gradeable bets: %w", err)
	}
	defer rows.Close()
	return scanInputs(rows)
}

// LoadHistoriesObservedBetween returns full histories for every opportunity
// with at least one observation in [from, to). Replays truncate to an as-of
// point themselves.
func (s *Store) LoadHistoriesObservedBetween(from, to time.Time) ([]grade.Input, error) {
	rows, err := s.db.Query(`
		SELECT b.bet_id, b.event_time, o.observed_at, o.ev_percent, o.odds
		FROM bets b
		JOIN bet_observations o ON o.bet_id = b.bet_id
		WHERE b.bet_id IN (
			SELECT DISTINCT bet_id FROM bet_observations
			WHERE observed_at >= ? AND observed_at < ?
		)
		ORDER BY b.bet_id, o.observed_at, o.id`,
		from.Format(timeLayout), to.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("querying observed window: %w", err)
	}
	defer rows.Close()
	return scanInputs(rows)
}

func scanInputs(rows *sql.Rows) ([]grade.Input, error) {
	var inputs []grade.Input
	var cur *grade.Input

	for rows.Next() {
		var betID, eventTime, observedAt string
		var ev float64
		var odds int
		if err := rows.Scan(&betID, &eventTime, &observedAt, &ev, &odds); err != nil {
			return nil, fmt.Errorf("scanning observation row: %w", err)
		}

		if cur == nil || cur.BetID != betID {
			inputs = append(inputs, grade.Input{BetID: betID})
			cur = &inputs[len(inputs)-1]
			et, err := time.Parse(feed.EventTimeLayout, eventTime)
			if err != nil {
				slog.Warn("stored event time unreadable", "bet_id", betID, "event_time", eventTime)
			} else {
				cur.EventTime = et
			}
		}

		at, err := time.Parse(timeLayout, observedAt)
		if err != nil {
			slog.Warn("stored observation time unreadable, skipping row", "bet_id", betID, "observed_at", observedAt)
			continue
		}
		cur.History = append(cur.History, grade.Snapshot{ObservedAt: at, EVPercent: ev, Odds: odds})
	}
	return inputs, rows.Err()
}

// PendingBet is one concluded bet still owed a final outcome. LastReason
// carries the reason of the latest PEND_MANUAL outcome, empty when the bet
// has never been through resolution.
type PendingBet struct {
	Bet        resolve.Bet
	LastReason string
}

// LoadUnresolved returns concluded bets still owed a final outcome: those
// with no outcome at all, and those whose latest outcome is PEND_MANUAL so a
// later corpus load can settle them.
func (s *Store) LoadUnresolved(before time.Time) ([]PendingBet, error) {
	rows, err := s.db.Query(`
		SELECT b.bet_id, b.description, b.bet_type, b.event_teams, b.event_time,
		       COALESCE(last.reason, '')
		FROM bets b
		LEFT JOIN (
			SELECT o.bet_id, o.result, o.reason
			FROM outcomes o
			JOIN (
				SELECT bet_id, MAX(evaluated_at) AS latest
				FROM outcomes GROUP BY bet_id
			) m ON m.bet_id = o.bet_id AND m.latest = o.evaluated_at
		) last ON last.bet_id = b.bet_id
		WHERE b.event_time < ? AND (last.result IS NULL OR last.result = ?)
		ORDER BY b.event_time, b.bet_id`,
		before.Format(feed.EventTimeLayout), string(resolve.PendManual),
	)
	if err != nil {
		return nil, fmt.Errorf("querying unresolved bets: %w", err)
	}
	defer rows.Close()

	var bets []PendingBet
	for rows.Next() {
		var p PendingBet
		var eventTime string
		if err := rows.Scan(&p.Bet.BetID, &p.Bet.Description, &p.Bet.BetType,
			&p.Bet.EventTeams, &eventTime, &p.LastReason); err != nil {
			return nil, fmt.Errorf("scanning unresolved bet: %w", err)
		}
		if et, err := time.Parse(feed.EventTimeLayout, eventTime); err == nil {
			p.Bet.EventTime = et
		} else {
			slog.Warn("stored event time unreadable", "bet_id", p.Bet.BetID, "event_time", eventTime)
		}
		bets = append(bets, p)
	}
	return bets, rows.Err()
}

// InsertGrade appends one grading record.
func (s *Store) InsertGrade(g grade.Record) error {
	var diag *string
	if len(g.Diagnostics) > 0 {
		d := strings.Join(g.Diagnostics, "; ")
		diag = &d
	}
	_, err := s.db.Exec(`
		INSERT INTO grades (id, bet_id, evaluated_at, ev_score, timing_score, trend_score,
		                    confidence, composite, letter, method, diagnostics)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		g.BetID,
		g.EvaluatedAt.Format(timeLayout),
		g.EVScore,
		g.TimingScore,
		g.TrendScore,
		g.Confidence,
		g.Composite,
		g.Letter,
		g.Method,
		diag,
	)
	if err != nil {
		return fmt.Errorf("inserting grade for %s: %w", g.BetID, err)
	}
	return nil
}

// InsertOutcome appends one resolution outcome. entry is nil for PEND_MANUAL
// outcomes, which have no monetary consequence yet.
func (s *Store) InsertOutcome(out resolve.Outcome, entry *ledger.Entry) error {
	var stake, pnl, clv *string
	var closing *int
	if entry != nil {
		st := entry.Stake.String()
		pl := entry.ProfitLoss.String()
		stake, pnl = &st, &pl
		if entry.ClosingOdds != 0 {
			c := entry.ClosingOdds
			v := entry.CLVPercent.String()
			closing, clv = &c, &v
		}
	}
	_, err := s.db.Exec(`
		INSERT INTO outcomes (id, bet_id, evaluated_at, result, matched_value, reason,
		                      stake, profit_loss, closing_odds, clv_percent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		out.BetID,
		out.EvaluatedAt.Format(timeLayout),
		string(out.Result),
		out.MatchedValue,
		out.Reason,
		stake,
		pnl,
		closing,
		clv,
	)
	if err != nil {
		return fmt.Errorf("inserting outcome for %s: %w", out.BetID, err)
	}
	return nil
}

// SettlementInfo returns what the ledger needs for one bet: the advertised
// stake if the feed carried one, the odds at first sight, and the last
// observed odds as the closing line.
func (s *Store) SettlementInfo(betID string) (stake *float64, taken, closing int, err error) {
	var size sql.NullFloat64
	row := s.db.QueryRow(`SELECT bet_size FROM bets WHERE bet_id = ?`, betID)
	if err = row.Scan(&size); err != nil {
		return nil, 0, 0, fmt.Errorf("reading stake for %s: %w", betID, err)
	}
	if size.Valid {
		stake = &size.Float64
	}

	row = s.db.QueryRow(`
		SELECT odds FROM bet_observations
		WHERE bet_id = ? ORDER BY observed_at ASC, id ASC LIMIT 1`, betID)
	if err = row.Scan(&taken); err != nil {
		return nil, 0, 0, fmt.Errorf("reading first odds for %s: %w", betID, err)
	}

	row = s.db.QueryRow(`
		SELECT odds FROM bet_observations
		WHERE bet_id = ? ORDER BY observed_at DESC, id DESC LIMIT 1`, betID)
	if err = row.Scan(&closing); err != nil {
		return nil, 0, 0, fmt.Errorf("reading last odds for %s: %w", betID, err)
	}
	return stake, taken, closing, nil
}

// BetDetail is the feed-facing view of one bet, used when publishing a
// graded opportunity downstream.
type BetDetail struct {
	BetID       string
	Description string
	BetType     string
	EventTeams  string
	EventTime   string
	Sportsbook  string
	CurrentEV   float64
	CurrentOdds int
}

// LoadBetDetail reads the current quote and identity fields for one bet.
func (s *Store) LoadBetDetail(betID string) (BetDetail, error) {
	var d BetDetail
	row := s.db.QueryRow(`
		SELECT bet_id, description, bet_type, event_teams, event_time, sportsbook,
		       current_ev, current_odds
		FROM bets WHERE bet_id = ?`, betID)
	if err := row.Scan(&d.BetID, &d.Description, &d.BetType, &d.EventTeams,
		&d.EventTime, &d.Sportsbook, &d.CurrentEV, &d.CurrentOdds); err != nil {
		return BetDetail{}, fmt.Errorf("reading bet %s: %w", betID, err)
	}
	return d, nil
}

// CountOpen returns how many tracked opportunities have not started yet.
func (s *Store) CountOpen(now time.Time) (int, error) {
	var n int
	row := s.db.QueryRow(`SELECT COUNT(*) FROM bets WHERE event_time > ?`,
		now.Format(feed.EventTimeLayout))
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("counting open bets: %w", err)
	}
	return n, nil
}
