package feed

import "strings"

// Candidate is one bet competing to be the canonical entry for its event and
// subject. Components counts the primitive stat categories the bet's market
// covers, so a plain rebounds line is 1 and points+rebounds+assists is 3.
type Candidate struct {
	BetID      string
	Event      string
	Subject    string
	Components int
	EVPercent  float64
}

// Preferred reports whether a should displace b as the canonical bet for
// their shared group. Simpler markets win; on equal complexity the higher EV
// does. Everything else is a full tie and the incumbent stays.
func Preferred(a, b Candidate) bool {
	if a.Components != b.Components {
		return a.Components < b.Components
	}
	return a.EVPercent > b.EVPercent
}

// Dedupe collapses candidates down to one canonical bet per (event, subject)
// group. Group order follows first appearance in the input, so the result is
// deterministic for a given input order.
func Dedupe(cands []Candidate) []Candidate {
	best := make(map[string]int, len(cands))
	var order []string

	for i, c := range cands {
		key := groupKey(c)
		j, seen := best[key]
		if !seen {
			best[key] = i
			order = append(order, key)
			continue
		}
		if Preferred(c, cands[j]) {
			best[key] = i
		}
	}

	out := make([]Candidate, 0, len(order))
	for _, key := range order {
		out = append(out, cands[best[key]])
	}
	return out
}

func groupKey(c Candidate) string {
	return c.Event + "|" + strings.ToLower(strings.TrimSpace(c.Subject))
}
