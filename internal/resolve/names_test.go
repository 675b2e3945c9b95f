package resolve

import (
	"errors"
	"strings"
	"testing"
)

func TestFoldName_StripsAccentsAndPunctuation(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Nikola Jokić", "nikola jokic"},
		{"Jaren Jackson Jr.", "jaren jackson jr"},
		{"  Luka   Dončić ", "luka doncic"},
		{"D'Angelo Russell", "dangelo russell"},
	}
	for _, tt := range tests {
		if got := foldName(tt.in); got != tt.want {
			t.Errorf("foldName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeTeam_MapsFeedNamesToCorpusForms(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Memphis Grizzlies", "Memphis"},
		{"Los Angeles Clippers", "LA"},
		{"Los Angeles Lakers", "Los Angeles"},
		{"memphis grizzlies", "Memphis"},
		{"Memphis", "Memphis"},
		{"Gonzaga Bulldogs", "Gonzaga Bulldogs"},
	}
	for _, tt := range tests {
		if got := NormalizeTeam(tt.in); got != tt.want {
			t.Errorf("NormalizeTeam(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitTeams_HandlesSeparatorVariants(t *testing.T) {
	tests := []struct {
		in    string
		wantA string
		wantB string
	}{
		{"Memphis Grizzlies vs Denver Nuggets", "Memphis", "Denver"},
		{"Memphis Grizzlies vs. Denver Nuggets", "Memphis", "Denver"},
		{"Memphis Grizzlies @ Denver Nuggets", "Memphis", "Denver"},
	}
	for _, tt := range tests {
		a, b, err := SplitTeams(tt.in)
		if err != nil {
			t.Fatalf("SplitTeams(%q): %v", tt.in, err)
		}
		if a != tt.wantA || b != tt.wantB {
			t.Errorf("SplitTeams(%q) = %q, %q, want %q, %q", tt.in, a, b, tt.wantA, tt.wantB)
		}
	}

	if _, _, err := SplitTeams("TBD"); err == nil {
		t.Error("SplitTeams(TBD) = nil error, want failure")
	}
}

func TestMatchSubject_ExactFoldedEquality(t *testing.T) {
	got, err := MatchSubject("Nikola Jokić", []string{"Ja Morant", "Nikola Jokic"})
	if err != nil {
		t.Fatalf("MatchSubject: %v", err)
	}
	if got != "Nikola Jokic" {
		t.Errorf("matched %q, want Nikola Jokic", got)
	}
}

func TestMatchSubject_InitialedForm(t *testing.T) {
	candidates := []string{"Jaren Jackson Jr.", "Reggie Jackson", "Ja Morant"}
	got, err := MatchSubject("J. Jackson", candidates)
	if err != nil {
		t.Fatalf("MatchSubject: %v", err)
	}
	if got != "Jaren Jackson Jr." {
		t.Errorf("matched %q, want Jaren Jackson Jr.", got)
	}
}

func TestMatchSubject_SuffixedNameMatchesByContainment(t *testing.T) {
	got, err := MatchSubject("Jaren Jackson", []string{"Jaren Jackson Jr.", "Ja Morant"})
	if err != nil {
		t.Fatalf("MatchSubject: %v", err)
	}
	if got != "Jaren Jackson Jr." {
		t.Errorf("matched %q, want Jaren Jackson Jr.", got)
	}
}

func TestMatchSubject_AmbiguousSurnameErrors(t *testing.T) {
	candidates := []string{"Jaren Jackson Jr.", "Reggie Jackson", "Ja Morant"}
	_, err := MatchSubject("Jackson", candidates)
	if !errors.Is(err, ErrAmbiguous) {
		t.Fatalf("MatchSubject = %v, want ErrAmbiguous", err)
	}
	if !strings.Contains(err.Error(), "Reggie Jackson") {
		t.Errorf("error %q does not list the candidates", err)
	}
}

func TestMatchSubject_AbsentSubjectErrors(t *testing.T) {
	_, err := MatchSubject("Desmond Bane", []string{"Jaren Jackson Jr.", "Ja Morant"})
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("MatchSubject = %v, want ErrNoMatch", err)
	}
}
