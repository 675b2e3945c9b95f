package resolve

import (
	"fmt"
	"strings"
	"time"

	"plusev/internal/corpus"
)

// derivedCategories are the stats counted toward a double or triple double.
// Turnovers do not count.
var derivedCategories = [...]Category{Points, Rebounds, Assists, Steals, Blocks}

// Resolve decides one concluded bet against a corpus snapshot. evaluatedAt is
// attribution only: the decision depends solely on the bet and the snapshot,
// so re-running with the same corpus always reproduces the outcome, and a
// PEND_MANUAL settles once the missing data lands.
func Resolve(bet Bet, snap *corpus.Snapshot, evaluatedAt time.Time) Outcome {
	out := Outcome{BetID: bet.BetID, EvaluatedAt: evaluatedAt}

	cond, err := Parse(bet.Description, bet.BetType)
	if err != nil {
		return pend(out, err.Error())
	}

	if bet.EventTime.IsZero() {
		return pend(out, "no event date on bet")
	}
	home, away, err := SplitTeams(bet.EventTeams)
	if err != nil {
		return pend(out, fmt.Sprintf("cannot identify event teams: %v", err))
	}
	date := bet.EventTime.Format("2006-01-02")
	game, ok := lookupGame(snap, date, home, away)
	if !ok {
		return pend(out, fmt.Sprintf("no corpus game for %s vs %s on %s", home, away, date))
	}

	switch cond.Market {
	case MarketDoubleDouble, MarketTripleDouble:
		return resolveDerived(out, cond, game, snap)
	case MarketMoneyline:
		return resolveMoneyline(out, cond, game)
	case MarketSpread:
		return resolveSpread(out, cond, game)
	case MarketTotal:
		return resolveTotal(out, cond, game)
	default:
		return resolvePlayerStat(out, cond, game, snap)
	}
}

// lookupGame tries both team orderings: the feed and the corpus do not agree
// on who is listed first.
func lookupGame(snap *corpus.Snapshot, date, a, b string) (corpus.Game, bool) {
	for _, g := range snap.GamesOn(date) {
		gh, ga := NormalizeTeam(g.Home), NormalizeTeam(g.Away)
		if (sameTeam(a, gh) && sameTeam(b, ga)) || (sameTeam(a, ga) && sameTeam(b, gh)) {
			return g, true
		}
	}
	return corpus.Game{}, false
}

func sameTeam(a, b string) bool {
	return foldName(a) == foldName(b)
}

func resolvePlayerStat(out Outcome, cond Condition, game corpus.Game, snap *corpus.Snapshot) Outcome {
	name, err := MatchSubject(cond.Subject, snap.PlayerNames(game.ID))
	if err != nil {
		return pend(out, err.Error())
	}
	line, ok := snap.PlayerLine(game.ID, name)
	if !ok {
		return pend(out, fmt.Sprintf("no stat line recorded for %s", name))
	}

	total := 0.0
	for _, cat := range cond.Categories {
		v := statValue(line, cat)
		if v == nil {
			return pend(out, fmt.Sprintf("%s not recorded for %s (did not play?)", cat, name))
		}
		total += *v
	}
	out.MatchedValue = &total
	return compare(out, cond, fmt.Sprintf("%s %s", name, cond.CategoryLabel()), total)
}

func resolveDerived(out Outcome, cond Condition, game corpus.Game, snap *corpus.Snapshot) Outcome {
	name, err := MatchSubject(cond.Subject, snap.PlayerNames(game.ID))
	if err != nil {
		return pend(out, err.Error())
	}
	line, ok := snap.PlayerLine(game.ID, name)
	if !ok {
		return pend(out, fmt.Sprintf("no stat line recorded for %s", name))
	}

	count := 0.0
	for _, cat := range derivedCategories {
		v := statValue(line, cat)
		if v == nil {
			return pend(out, fmt.Sprintf("%s not recorded for %s (did not play?)", cat, name))
		}
		if *v >= 10 {
			count++
		}
	}

	need := 2.0
	if cond.Market == MarketTripleDouble {
		need = 3.0
	}
	out.MatchedValue = &count
	if count >= need {
		out.Result = Win
		out.Reason = fmt.Sprintf("%s posted %v categories of 10+, %s lands", name, count, cond.Market)
	} else {
		out.Result = Loss
		out.Reason = fmt.Sprintf("%s posted %v categories of 10+, %s misses", name, count, cond.Market)
	}
	return out
}

func resolveMoneyline(out Outcome, cond Condition, game corpus.Game) Outcome {
	own, opp, name, ok := pickSide(cond.Subject, game)
	if !ok {
		return pend(out, fmt.Sprintf("team %q not in game %s vs %s", cond.Subject, game.Home, game.Away))
	}
	out.MatchedValue = &own
	switch {
	case own > opp:
		out.Result = Win
		out.Reason = fmt.Sprintf("%s wins %v to %v", name, own, opp)
	case own < opp:
		out.Result = Loss
		out.Reason = fmt.Sprintf("%s loses %v to %v", name, own, opp)
	default:
		out.Result = Tie
		out.Reason = fmt.Sprintf("%s level at %v", name, own)
	}
	return out
}

func resolveSpread(out Outcome, cond Condition, game corpus.Game) Outcome {
	own, opp, name, ok := pickSide(cond.Subject, game)
	if !ok {
		return pend(out, fmt.Sprintf("team %q not in game %s vs %s", cond.Subject, game.Home, game.Away))
	}
	margin := own - opp
	out.MatchedValue = &margin
	adjusted := own + cond.Threshold
	switch {
	case adjusted > opp:
		out.Result = Win
		out.Reason = fmt.Sprintf("%s %+.1f covers: %v%+.1f over %v", name, cond.Threshold, own, cond.Threshold, opp)
	case adjusted < opp:
		out.Result = Loss
		out.Reason = fmt.Sprintf("%s %+.1f misses: %v%+.1f under %v", name, cond.Threshold, own, cond.Threshold, opp)
	default:
		out.Result = Tie
		out.Reason = fmt.Sprintf("%s %+.1f lands exactly on %v", name, cond.Threshold, opp)
	}
	return out
}

func resolveTotal(out Outcome, cond Condition, game corpus.Game) Outcome {
	sum := float64(game.HomeScore + game.AwayScore)
	out.MatchedValue = &sum
	return compare(out, cond, fmt.Sprintf("%s/%s total", game.Home, game.Away), sum)
}

// compare applies the comparator. Equality under Over/Under is always a
// push: counting it as a win or loss would corrupt the hit rates downstream.
func compare(out Outcome, cond Condition, label string, actual float64) Outcome {
	switch {
	case actual == cond.Threshold && cond.Comparator != Exact:
		out.Result = Tie
		out.Reason = fmt.Sprintf("%s %v pushes at %v", label, actual, cond.Threshold)
	case cond.Comparator == Over && actual > cond.Threshold:
		out.Result = Win
		out.Reason = fmt.Sprintf("%s %v clears over %v", label, actual, cond.Threshold)
	case cond.Comparator == Under && actual < cond.Threshold:
		out.Result = Win
		out.Reason = fmt.Sprintf("%s %v stays under %v", label, actual, cond.Threshold)
	case cond.Comparator == Exact && actual == cond.Threshold:
		out.Result = Win
		out.Reason = fmt.Sprintf("%s %v hits exactly", label, actual)
	default:
		out.Result = Loss
		out.Reason = fmt.Sprintf("%s %v misses %s %v", label, actual,
			strings.ToLower(cond.Comparator.String()), cond.Threshold)
	}
	return out
}

func pickSide(subject string, game corpus.Game) (own, opp float64, name string, ok bool) {
	s := NormalizeTeam(subject)
	if sameTeam(s, NormalizeTeam(game.Home)) {
		return float64(game.HomeScore), float64(game.AwayScore), game.Home, true
	}
	if sameTeam(s, NormalizeTeam(game.Away)) {
		return float64(game.AwayScore), float64(game.HomeScore), game.Away, true
	}
	return 0, 0, "", false
}

func statValue(line corpus.PlayerLine, c Category) *float64 {
	switch c {
	case Points:
		return line.Points
	case Rebounds:
		return line.Rebounds
	case Assists:
		return line.Assists
	case Steals:
		return line.Steals
	case Blocks:
		return line.Blocks
	case Turnovers:
		return line.Turnovers
	case MadeThrees:
		return line.MadeThrees
	default:
		return nil
	}
}

func pend(out Outcome, reason string) Outcome {
	out.Result = PendManual
	out.Reason = reason
	return out
}
