package resolve

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"plusev/internal/corpus"
)

func ptr(v float64) *float64 { return &v }

var (
	tipoff      = time.Date(2025, time.February, 5, 19, 30, 0, 0, time.UTC)
	evaluatedAt = time.Date(2025, time.February, 6, 9, 0, 0, 0, time.UTC)
)

func grizzliesNuggets() *corpus.Snapshot {
	games := []corpus.Game{
		{ID: "2025-02-05:Memphis:Denver", Date: "2025-02-05", Home: "Memphis", Away: "Denver", HomeScore: 112, AwayScore: 109},
	}
	lines := []corpus.PlayerLine{
		{
			GameID: games[0].ID, Player: "Brandon Clarke", Team: "Memphis",
			Points: ptr(8), Rebounds: ptr(4), Assists: ptr(1),
			Steals: ptr(0), Blocks: ptr(1), Turnovers: ptr(2), MadeThrees: ptr(0),
		},
		{
			GameID: games[0].ID, Player: "Jaren Jackson Jr.", Team: "Memphis",
			Points: ptr(18), Rebounds: ptr(9), Assists: ptr(3),
			Steals: ptr(2), Blocks: ptr(3), Turnovers: ptr(1), MadeThrees: ptr(2),
		},
		{
			GameID: games[0].ID, Player: "Vince Williams Jr.", Team: "Memphis",
			Points: ptr(5),
		},
		{
			GameID: games[0].ID, Player: "Nikola Jokic", Team: "Denver",
			Points: ptr(28), Rebounds: ptr(11), Assists: ptr(10),
			Steals: ptr(2), Blocks: ptr(1), Turnovers: ptr(3), MadeThrees: ptr(1),
		},
	}
	return corpus.NewSnapshot(games, lines)
}

func clarkeReboundsBet() Bet {
	return Bet{
		BetID:       "b-clarke-reb",
		Description: "Brandon Clarke Under 6.5",
		BetType:     "Player Rebounds",
		EventTeams:  "Memphis Grizzlies vs Denver Nuggets",
		EventTime:   tipoff,
	}
}

func TestResolve_UnderClearsAgainstRecordedLine(t *testing.T) {
	out := Resolve(clarkeReboundsBet(), grizzliesNuggets(), evaluatedAt)

	if out.Result != Win {
		t.Fatalf("result = %v (%s), want WIN", out.Result, out.Reason)
	}
	if out.MatchedValue == nil || *out.MatchedValue != 4 {
		t.Errorf("matched value = %v, want 4", out.MatchedValue)
	}
	if out.BetID != "b-clarke-reb" || !out.EvaluatedAt.Equal(evaluatedAt) {
		t.Errorf("attribution = %q %v, want bet id and evaluation time carried through", out.BetID, out.EvaluatedAt)
	}
}

func TestResolve_ExactLinePushes(t *testing.T) {
	games := []corpus.Game{
		{ID: "g1", Date: "2025-02-05", Home: "Memphis", Away: "Denver", HomeScore: 112, AwayScore: 109},
	}
	lines := []corpus.PlayerLine{
		{GameID: "g1", Player: "Brandon Clarke", Rebounds: ptr(6.5)},
	}
	out := Resolve(clarkeReboundsBet(), corpus.NewSnapshot(games, lines), evaluatedAt)

	if out.Result != Tie {
		t.Fatalf("result = %v (%s), want TIE on the number", out.Result, out.Reason)
	}
	if !strings.Contains(out.Reason, "pushes") {
		t.Errorf("reason = %q, want a push explanation", out.Reason)
	}
}

func TestResolve_CombinedStatsSumAgainstLine(t *testing.T) {
	bet := Bet{
		BetID:       "b-jjj-pr",
		Description: "Jaren Jackson Jr. Points + Rebounds Over 28.5",
		BetType:     "Player Points + Rebounds",
		EventTeams:  "Memphis Grizzlies vs Denver Nuggets",
		EventTime:   tipoff,
	}
	out := Resolve(bet, grizzliesNuggets(), evaluatedAt)

	if out.Result != Loss {
		t.Fatalf("result = %v (%s), want LOSS at 27", out.Result, out.Reason)
	}
	if out.MatchedValue == nil || *out.MatchedValue != 27 {
		t.Errorf("matched value = %v, want 27 (18 points + 9 rebounds)", out.MatchedValue)
	}
}

func TestResolve_AbsentSubjectPendsManual(t *testing.T) {
	bet := Bet{
		BetID:       "b-bane",
		Description: "Desmond Bane Over 21.5",
		BetType:     "Player Points",
		EventTeams:  "Memphis Grizzlies vs Denver Nuggets",
		EventTime:   tipoff,
	}
	out := Resolve(bet, grizzliesNuggets(), evaluatedAt)

	if out.Result != PendManual {
		t.Fatalf("result = %v, want PEND_MANUAL", out.Result)
	}
	if !strings.Contains(out.Reason, "no corpus match") {
		t.Errorf("reason = %q, want the missing-subject class", out.Reason)
	}
	if out.MatchedValue != nil {
		t.Errorf("matched value = %v, want nil when nothing matched", *out.MatchedValue)
	}
}

func TestResolve_SameInputsReproduceOutcome(t *testing.T) {
	snap := grizzliesNuggets()
	bet := clarkeReboundsBet()

	first := Resolve(bet, snap, evaluatedAt)
	second := Resolve(bet, snap, evaluatedAt)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("outcomes diverge:\n%+v\n%+v", first, second)
	}
}

func TestResolve_UnparseablePendsManual(t *testing.T) {
	bet := Bet{
		BetID:       "b-exotic",
		Description: "First Basket Scorer",
		BetType:     "Exotic",
		EventTeams:  "Memphis Grizzlies vs Denver Nuggets",
		EventTime:   tipoff,
	}
	out := Resolve(bet, grizzliesNuggets(), evaluatedAt)

	if out.Result != PendManual {
		t.Fatalf("result = %v, want PEND_MANUAL", out.Result)
	}
	if !strings.Contains(out.Reason, "unparseable") {
		t.Errorf("reason = %q, want the parser failure class", out.Reason)
	}
}

func TestResolve_UnrecordedStatPendsManual(t *testing.T) {
	bet := Bet{
		BetID:       "b-vwj",
		Description: "Vince Williams Jr. Under 3.5",
		BetType:     "Player Rebounds",
		EventTeams:  "Memphis Grizzlies vs Denver Nuggets",
		EventTime:   tipoff,
	}
	out := Resolve(bet, grizzliesNuggets(), evaluatedAt)

	if out.Result != PendManual {
		t.Fatalf("result = %v (%s), want PEND_MANUAL for the missing category", out.Result, out.Reason)
	}
	if !strings.Contains(out.Reason, "not recorded") {
		t.Errorf("reason = %q, want the unrecorded-stat class", out.Reason)
	}
}

func TestResolve_NoGameOnDatePendsManual(t *testing.T) {
	bet := clarkeReboundsBet()
	bet.EventTime = time.Date(2025, time.February, 7, 19, 30, 0, 0, time.UTC)
	out := Resolve(bet, grizzliesNuggets(), evaluatedAt)

	if out.Result != PendManual {
		t.Fatalf("result = %v, want PEND_MANUAL", out.Result)
	}
	if !strings.Contains(out.Reason, "no corpus game") {
		t.Errorf("reason = %q, want the missing-game class", out.Reason)
	}
}

func TestResolve_MissingEventTimePendsManual(t *testing.T) {
	bet := clarkeReboundsBet()
	bet.EventTime = time.Time{}
	out := Resolve(bet, grizzliesNuggets(), evaluatedAt)

	if out.Result != PendManual || !strings.Contains(out.Reason, "no event date") {
		t.Errorf("got %v (%s), want PEND_MANUAL for the dateless bet", out.Result, out.Reason)
	}
}

func TestResolve_UnsplittableTeamsPendsManual(t *testing.T) {
	bet := clarkeReboundsBet()
	bet.EventTeams = "TBD"
	out := Resolve(bet, grizzliesNuggets(), evaluatedAt)

	if out.Result != PendManual || !strings.Contains(out.Reason, "cannot identify event teams") {
		t.Errorf("got %v (%s), want PEND_MANUAL for the unsplittable teams", out.Result, out.Reason)
	}
}

func TestResolve_TeamOrderDoesNotMatter(t *testing.T) {
	bet := clarkeReboundsBet()
	bet.EventTeams = "Denver Nuggets vs Memphis Grizzlies"
	out := Resolve(bet, grizzliesNuggets(), evaluatedAt)

	if out.Result != Win {
		t.Errorf("result = %v (%s), want WIN regardless of listing order", out.Result, out.Reason)
	}
}

func TestResolve_MoneylineDecidedByFinalScore(t *testing.T) {
	snap := grizzliesNuggets()
	base := Bet{
		BetID:      "b-ml",
		BetType:    "Moneyline",
		EventTeams: "Memphis Grizzlies vs Denver Nuggets",
		EventTime:  tipoff,
	}

	winner := base
	winner.Description = "Memphis Grizzlies"
	if out := Resolve(winner, snap, evaluatedAt); out.Result != Win {
		t.Errorf("Memphis moneyline = %v (%s), want WIN at 112-109", out.Result, out.Reason)
	}

	loser := base
	loser.Description = "Denver Nuggets"
	if out := Resolve(loser, snap, evaluatedAt); out.Result != Loss {
		t.Errorf("Denver moneyline = %v (%s), want LOSS at 109-112", out.Result, out.Reason)
	}
}

func TestResolve_SpreadAdjustsBeforeComparing(t *testing.T) {
	snap := grizzliesNuggets()
	tests := []struct {
		desc string
		want Result
	}{
		{"Denver Nuggets +3.5", Win},
		{"Denver Nuggets +3", Tie},
		{"Memphis Grizzlies -4.5", Loss},
		{"Memphis Grizzlies -2.5", Win},
	}
	for _, tt := range tests {
		bet := Bet{
			BetID:       "b-spread",
			Description: tt.desc,
			BetType:     "Spread",
			EventTeams:  "Memphis Grizzlies vs Denver Nuggets",
			EventTime:   tipoff,
		}
		out := Resolve(bet, snap, evaluatedAt)
		if out.Result != tt.want {
			t.Errorf("%q = %v (%s), want %v", tt.desc, out.Result, out.Reason, tt.want)
		}
	}
}

func TestResolve_TotalComparesCombinedScore(t *testing.T) {
	snap := grizzliesNuggets()
	tests := []struct {
		desc string
		want Result
	}{
		{"Under 222.5", Win},
		{"Over 221", Tie},
		{"Over 215.5", Win},
		{"Under 215.5", Loss},
	}
	for _, tt := range tests {
		bet := Bet{
			BetID:       "b-total",
			Description: tt.desc,
			BetType:     "Total Points",
			EventTeams:  "Memphis Grizzlies vs Denver Nuggets",
			EventTime:   tipoff,
		}
		out := Resolve(bet, snap, evaluatedAt)
		if out.Result != tt.want {
			t.Errorf("%q = %v (%s), want %v", tt.desc, out.Result, out.Reason, tt.want)
		}
	}
}

func TestResolve_DerivedDoublesCountTenPlusCategories(t *testing.T) {
	snap := grizzliesNuggets()
	tests := []struct {
		desc      string
		betType   string
		want      Result
		wantCount float64
	}{
		{"Nikola Jokic", "Player Double Double", Win, 3},
		{"Nikola Jokic", "Player Triple Double", Win, 3},
		{"Brandon Clarke", "Player Double Double", Loss, 0},
		{"Jaren Jackson Jr.", "Player Triple Double", Loss, 1},
	}
	for _, tt := range tests {
		bet := Bet{
			BetID:       "b-derived",
			Description: tt.desc,
			BetType:     tt.betType,
			EventTeams:  "Memphis Grizzlies vs Denver Nuggets",
			EventTime:   tipoff,
		}
		out := Resolve(bet, snap, evaluatedAt)
		if out.Result != tt.want {
			t.Errorf("%s %s = %v (%s), want %v", tt.desc, tt.betType, out.Result, out.Reason, tt.want)
		}
		if out.MatchedValue == nil || *out.MatchedValue != tt.wantCount {
			t.Errorf("%s %s matched = %v, want %v categories", tt.desc, tt.betType, out.MatchedValue, tt.wantCount)
		}
	}
}
