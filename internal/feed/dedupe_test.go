package feed

import "testing"

func TestDedupe_PrefersSimplerMarket(t *testing.T) {
	cands := []Candidate{
		{BetID: "pra", Event: "2025-02-05|MEM-DEN", Subject: "Brandon Clarke", Components: 3, EVPercent: 6.0},
		{BetID: "reb", Event: "2025-02-05|MEM-DEN", Subject: "Brandon Clarke", Components: 1, EVPercent: 4.5},
	}

	out := Dedupe(cands)
	if len(out) != 1 {
		t.Fatalf("got %d candidates, want 1", len(out))
	}
	if out[0].BetID != "reb" {
		t.Errorf("kept %s, want the single-stat line", out[0].BetID)
	}
}

func TestDedupe_HigherEVWinsOnEqualComplexity(t *testing.T) {
	cands := []Candidate{
		{BetID: "low", Event: "e", Subject: "Ja Morant", Components: 1, EVPercent: 3.2},
		{BetID: "high", Event: "e", Subject: "Ja Morant", Components: 1, EVPercent: 5.8},
	}

	out := Dedupe(cands)
	if len(out) != 1 || out[0].BetID != "high" {
		t.Fatalf("got %v, want the higher-EV line", out)
	}
}

func TestDedupe_KeepsDistinctSubjectsAndEvents(t *testing.T) {
	cands := []Candidate{
		{BetID: "a", Event: "e1", Subject: "Ja Morant", Components: 1, EVPercent: 4.0},
		{BetID: "b", Event: "e1", Subject: "Brandon Clarke", Components: 1, EVPercent: 4.0},
		{BetID: "c", Event: "e2", Subject: "Ja Morant", Components: 1, EVPercent: 4.0},
	}

	out := Dedupe(cands)
	if len(out) != 3 {
		t.Fatalf("got %d candidates, want all 3 kept", len(out))
	}
}

func TestDedupe_IncumbentSurvivesFullTie(t *testing.T) {
	cands := []Candidate{
		{BetID: "first", Event: "e", Subject: "Ja Morant", Components: 1, EVPercent: 4.0},
		{BetID: "second", Event: "e", Subject: "ja morant", Components: 1, EVPercent: 4.0},
	}

	out := Dedupe(cands)
	if len(out) != 1 || out[0].BetID != "first" {
		t.Fatalf("got %v, want the first-seen line", out)
	}
}
