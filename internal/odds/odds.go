// Package odds converts between American odds, decimal odds, and implied
// probabilities, and parses the string forms they arrive in on the feed.
package odds

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AmericanToDecimal converts American odds to decimal odds.
// +150 → 2.50, -150 → 1.67.
func AmericanToDecimal(american int) (float64, error) {
	if american == 0 {
		return 0, fmt.Errorf("invalid American odds: cannot be 0")
	}
	if american > 0 {
		return (float64(american) / 100.0) + 1.0, nil
	}
	return (100.0 / float64(-american)) + 1.0, nil
}

// DecimalToAmerican converts decimal odds to American odds.
// 2.50 → +150, 1.67 → -150.
func DecimalToAmerican(decimal float64) (int, error) {
	if decimal <= 1.0 {
		return 0, fmt.Errorf("invalid decimal odds %.4f: must be > 1.0", decimal)
	}
	if decimal >= 2.0 {
		return int(math.Round((decimal - 1.0) * 100.0)), nil
	}
	return int(math.Round(-100.0 / (decimal - 1.0))), nil
}

// ImpliedProbability returns the probability implied by American odds, in [0,1].
func ImpliedProbability(american int) (float64, error) {
	decimal, err := AmericanToDecimal(american)
	if err != nil {
		return 0, err
	}
	return 1.0 / decimal, nil
}

// ParseAmerican parses American odds as they appear on the feed: "+150",
// "-110", "EVEN" (treated as +100).
func ParseAmerican(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty odds string")
	}
	if strings.EqualFold(s, "EVEN") || strings.EqualFold(s, "EV") {
		return 100, nil
	}
	s = strings.TrimPrefix(s, "+")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parsing American odds %q: %w", s, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("invalid American odds: cannot be 0")
	}
	return n, nil
}

// ParsePercent parses a percentage string from the feed: "4.5%", "+4.5%",
// "-2.1%". The sign is preserved.
func ParsePercent(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return 0, fmt.Errorf("empty percent string")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing percent %q: %w", s, err)
	}
	return v, nil
}

// ExpectedValue returns the EV percent of a bet priced at the given American
// odds when the true win probability is winProb.
// EV% = (winProb × netPayout − (1 − winProb)) × 100, per unit staked.
func ExpectedValue(american int, winProb float64) (float64, error) {
	if winProb < 0 || winProb > 1 {
		return 0, fmt.Errorf("invalid win probability %.4f: must be in [0,1]", winProb)
	}
	decimal, err := AmericanToDecimal(american)
	if err != nil {
		return 0, err
	}
	net := decimal - 1.0
	return (winProb*net - (1.0 - winProb)) * 100.0, nil
}
