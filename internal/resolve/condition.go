// Package resolve settles concluded bets. A parser extracts a structured
// condition from the free-text description, the subject is matched against
// the result corpus, and the condition is evaluated to WIN, LOSS, TIE, or
// PEND_MANUAL with a reason trail. Everything here is pure: the same bet and
// corpus always produce the same outcome.
package resolve

import (
	"strings"
	"time"
)

// Category is one primitive box-score statistic.
type Category int

const (
	Points Category = iota
	Rebounds
	Assists
	Steals
	Blocks
	Turnovers
	MadeThrees
)

func (c Category) String() string {
	switch c {
	case Points:
		return "Points"
	case Rebounds:
		return "Rebounds"
	case Assists:
		return "Assists"
	case Steals:
		return "Steals"
	case Blocks:
		return "Blocks"
	case Turnovers:
		return "Turnovers"
	case MadeThrees:
		return "Made Threes"
	default:
		return "Unknown"
	}
}

// Market is the kind of bet a condition settles.
type Market int

const (
	MarketPlayerStat Market = iota
	MarketDoubleDouble
	MarketTripleDouble
	MarketMoneyline
	MarketSpread
	MarketTotal
)

func (m Market) String() string {
	switch m {
	case MarketPlayerStat:
		return "player stat"
	case MarketDoubleDouble:
		return "double double"
	case MarketTripleDouble:
		return "triple double"
	case MarketMoneyline:
		return "moneyline"
	case MarketSpread:
		return "spread"
	case MarketTotal:
		return "total"
	default:
		return "unknown"
	}
}

// Comparator relates the matched value to the threshold. Exact means the bet
// wins only on equality; under Over/Under, equality is a push.
type Comparator int

const (
	Over Comparator = iota
	Under
	Exact
)

func (c Comparator) String() string {
	switch c {
	case Over:
		return "Over"
	case Under:
		return "Under"
	default:
		return "Exact"
	}
}

// Condition is the structured form of a bet description. Categories holds the
// primitive stats whose sum is compared for player-stat markets; it is empty
// for derived and game-level markets.
type Condition struct {
	Subject    string
	Market     Market
	Categories []Category
	Comparator Comparator
	Threshold  float64
}

// CategoryLabel renders the stat combination the way the feed writes it,
// e.g. "Points + Rebounds".
func (c Condition) CategoryLabel() string {
	labels := make([]string, len(c.Categories))
	for i, cat := range c.Categories {
		labels[i] = cat.String()
	}
	return strings.Join(labels, " + ")
}

// Result is the terminal state of a resolution pass.
type Result string

const (
	Win        Result = "WIN"
	Loss       Result = "LOSS"
	Tie        Result = "TIE"
	PendManual Result = "PEND_MANUAL"
)

// Bet is the slice of an opportunity the resolver needs.
type Bet struct {
	BetID       string
	Description string
	BetType     string
	EventTeams  string
	EventTime   time.Time
}

// Outcome records one resolution decision. MatchedValue is the corpus number
// the condition was evaluated against, nil when nothing could be matched.
// Reason documents the decision for review; PEND_MANUAL outcomes carry a
// distinct reason per failure class.
type Outcome struct {
	BetID        string
	EvaluatedAt  time.Time
	Result       Result
	MatchedValue *float64
	Reason       string
}
