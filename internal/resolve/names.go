package resolve

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrNoMatch   = errors.New("no corpus match")
	ErrAmbiguous = errors.New("ambiguous subject")
)

// nbaTeams maps the feed's full franchise names onto the short forms the
// result corpus records. The Clippers go by "LA"; the Lakers keep the full
// city.
var nbaTeams = map[string]string{
	"Atlanta Hawks":          "Atlanta",
	"Boston Celtics":         "Boston",
	"Brooklyn Nets":          "Brooklyn",
	"Charlotte Hornets":      "Charlotte",
	"Chicago Bulls":          "Chicago",
	"Cleveland Cavaliers":    "Cleveland",
	"Dallas Mavericks":       "Dallas",
	"Denver Nuggets":         "Denver",
	"Detroit Pistons":        "Detroit",
	"Golden State Warriors":  "Golden State",
	"Houston Rockets":        "Houston",
	"Indiana Pacers":         "Indiana",
	"Los Angeles Clippers":   "LA",
	"Los Angeles Lakers":     "Los Angeles",
	"Memphis Grizzlies":      "Memphis",
	"Miami Heat":             "Miami",
	"Milwaukee Bucks":        "Milwaukee",
	"Minnesota Timberwolves": "Minnesota",
	"New Orleans Pelicans":   "New Orleans",
	"New York Knicks":        "New York",
	"Oklahoma City Thunder":  "Oklahoma City",
	"Orlando Magic":          "Orlando",
	"Philadelphia 76ers":     "Philadelphia",
	"Phoenix Suns":           "Phoenix",
	"Portland Trail Blazers": "Portland",
	"Sacramento Kings":       "Sacramento",
	"San Antonio Spurs":      "San Antonio",
	"Toronto Raptors":        "Toronto",
	"Utah Jazz":              "Utah",
	"Washington Wizards":     "Washington",
}

var foldChain = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldName lowercases, strips accents and punctuation, and collapses spaces,
// so "Jokić" matches "jokic" and "Jr." matches "jr".
func foldName(s string) string {
	folded, _, err := transform.String(foldChain, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NormalizeTeam maps a feed team name onto its corpus form. Unknown names
// pass through trimmed, so leagues outside the table still match on
// equality.
func NormalizeTeam(name string) string {
	name = strings.TrimSpace(name)
	if short, ok := nbaTeams[name]; ok {
		return short
	}
	folded := foldName(name)
	for full, short := range nbaTeams {
		if foldName(full) == folded || foldName(short) == folded {
			return short
		}
	}
	return name
}

// SplitTeams breaks "Memphis Grizzlies vs Denver Nuggets" into its two
// normalized sides.
func SplitTeams(eventTeams string) (string, string, error) {
	for _, sep := range []string{" vs ", " vs. ", " @ "} {
		if a, b, ok := strings.Cut(eventTeams, sep); ok {
			return NormalizeTeam(a), NormalizeTeam(b), nil
		}
	}
	return "", "", fmt.Errorf("cannot split teams from %q", eventTeams)
}

// MatchSubject finds the corpus subject a bet's name refers to. Exact folded
// equality wins; otherwise containment either way and initialed forms
// ("J. Jackson" for "Jaren Jackson Jr.") are tolerated. Multiple candidates
// are an error, never a silent pick.
func MatchSubject(subject string, candidates []string) (string, error) {
	want := foldName(subject)
	if want == "" {
		return "", fmt.Errorf("%w: empty subject", ErrNoMatch)
	}

	for _, c := range candidates {
		if foldName(c) == want {
			return c, nil
		}
	}

	var hits []string
	for _, c := range candidates {
		f := foldName(c)
		if strings.Contains(f, want) || strings.Contains(want, f) || initialedMatch(want, f) {
			hits = append(hits, c)
		}
	}

	switch len(hits) {
	case 0:
		return "", fmt.Errorf("%w for %q", ErrNoMatch, subject)
	case 1:
		return hits[0], nil
	default:
		listed := hits
		if len(listed) > 5 {
			listed = listed[:5]
		}
		return "", fmt.Errorf("%w %q: matches %s", ErrAmbiguous, subject, strings.Join(listed, ", "))
	}
}

// initialedMatch accepts "j jackson" for "jaren jackson jr": the surname must
// appear as a token and the first initials must agree.
func initialedMatch(want, candidate string) bool {
	w := strings.Fields(want)
	c := strings.Fields(candidate)
	if len(w) < 2 || len(c) < 2 {
		return false
	}
	surname := w[len(w)-1]
	found := false
	for _, tok := range c[1:] {
		if tok == surname {
			found = true
		}
	}
	return found && strings.HasPrefix(c[0], w[0][:1])
}
