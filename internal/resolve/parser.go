package resolve

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnparseable marks descriptions the grammar cannot extract a condition
// from. It is the dominant path into PEND_MANUAL.
var ErrUnparseable = errors.New("unparseable bet")

// categoryPatterns is the ordered stat grammar. Combined markets come before
// their components, longest first, so "Points + Rebounds + Assists" never
// half-matches as "Points".
var categoryPatterns = []struct {
	text string
	cats []Category
}{
	{"Points + Rebounds + Assists", []Category{Points, Rebounds, Assists}},
	{"Points + Rebounds", []Category{Points, Rebounds}},
	{"Points + Assists", []Category{Points, Assists}},
	{"Rebounds + Assists", []Category{Rebounds, Assists}},
	{"Steals + Blocks", []Category{Steals, Blocks}},
	{"Three Pointers Made", []Category{MadeThrees}},
	{"Made Threes", []Category{MadeThrees}},
	{"Points", []Category{Points}},
	{"Rebounds", []Category{Rebounds}},
	{"Assists", []Category{Assists}},
	{"Steals", []Category{Steals}},
	{"Blocks", []Category{Blocks}},
	{"Turnovers", []Category{Turnovers}},
}

// Parse extracts a structured condition from a free-text description and the
// bet's declared category. It never guesses: descriptions the grammar cannot
// place return ErrUnparseable for the resolver to surface as PEND_MANUAL.
func Parse(description, betType string) (Condition, error) {
	desc := strings.TrimSpace(description)
	bt := strings.TrimSpace(betType)
	parts := strings.Fields(desc)
	cl := parseClause(parts)
	beforeClause := strings.Join(parts[:cl.cut], " ")

	// Derived double/triple markets name no primitive stat.
	if containsFold(desc, "Triple Double") || containsFold(bt, "Triple Double") {
		return Condition{Subject: stripDerived(desc), Market: MarketTripleDouble}, nil
	}
	if containsFold(desc, "Double Double") || containsFold(bt, "Double Double") {
		return Condition{Subject: stripDerived(desc), Market: MarketDoubleDouble}, nil
	}

	// Stat keywords inline in the description: the subject is everything
	// before the first keyword.
	if cats, idx, ok := scanCategories(desc); ok {
		if !cl.ok {
			return Condition{}, fmt.Errorf("%w: stat keyword but no comparator or threshold in %q", ErrUnparseable, description)
		}
		return Condition{
			Subject:    strings.TrimSpace(desc[:idx]),
			Market:     MarketPlayerStat,
			Categories: cats,
			Comparator: cl.comp,
			Threshold:  cl.threshold,
		}, nil
	}

	// Game-level markets are identified by the declared category, before
	// falling back to its stat keywords: "Total Points" is a game total, not
	// a points prop.
	switch {
	case containsFold(bt, "Moneyline"):
		return Condition{Subject: beforeClause, Market: MarketMoneyline}, nil
	case containsFold(bt, "Spread"), containsFold(bt, "Handicap"):
		if !cl.ok {
			return Condition{}, fmt.Errorf("%w: spread with no line in %q", ErrUnparseable, description)
		}
		return Condition{Subject: beforeClause, Market: MarketSpread, Comparator: Exact, Threshold: cl.threshold}, nil
	case containsFold(bt, "Total"):
		if !cl.ok {
			return Condition{}, fmt.Errorf("%w: total with no threshold in %q", ErrUnparseable, description)
		}
		return Condition{Market: MarketTotal, Comparator: cl.comp, Threshold: cl.threshold}, nil
	}

	// Plain descriptions like "Brandon Clarke Under 6.5" lean on the declared
	// category for the stat.
	if cats, _, ok := scanCategories(bt); ok {
		if !cl.ok {
			return Condition{}, fmt.Errorf("%w: no comparator or threshold in %q", ErrUnparseable, description)
		}
		return Condition{
			Subject:    beforeClause,
			Market:     MarketPlayerStat,
			Categories: cats,
			Comparator: cl.comp,
			Threshold:  cl.threshold,
		}, nil
	}

	return Condition{}, fmt.Errorf("%w: no stat keyword or market in %q (category %q)", ErrUnparseable, description, betType)
}

type clause struct {
	comp      Comparator
	threshold float64
	cut       int
	ok        bool
}

// parseClause reads the trailing comparator clause: "Over 28.5", "Under 6.5",
// or a bare trailing number, which is an exact-value bet. cut is the index of
// the first clause token, len(parts) when there is none.
func parseClause(parts []string) clause {
	n := len(parts)
	if n == 0 {
		return clause{cut: 0}
	}
	v, err := strconv.ParseFloat(parts[n-1], 64)
	if err != nil {
		return clause{cut: n}
	}
	if n >= 2 {
		switch strings.ToLower(parts[n-2]) {
		case "over":
			return clause{comp: Over, threshold: v, cut: n - 2, ok: true}
		case "under":
			return clause{comp: Under, threshold: v, cut: n - 2, ok: true}
		}
	}
	return clause{comp: Exact, threshold: v, cut: n - 1, ok: true}
}

func scanCategories(s string) ([]Category, int, bool) {
	lower := strings.ToLower(s)
	for _, p := range categoryPatterns {
		if idx := strings.Index(lower, strings.ToLower(p.text)); idx >= 0 {
			return p.cats, idx, true
		}
	}
	return nil, 0, false
}

func stripDerived(desc string) string {
	s := desc
	for _, pat := range []string{"Player Triple Double", "Player Double Double", "Triple Double", "Double Double"} {
		s = removeFold(s, pat)
	}
	return strings.Join(strings.Fields(s), " ")
}

func containsFold(s, pat string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(pat))
}

func removeFold(s, pat string) string {
	idx := strings.Index(strings.ToLower(s), strings.ToLower(pat))
	if idx < 0 {
		return s
	}
	return s[:idx] + s[idx+len(pat):]
}
