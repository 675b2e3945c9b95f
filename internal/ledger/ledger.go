// Package ledger turns settled outcomes into money movements. Amounts are
// decimals end to end: a season of unit stakes has to sum exactly.
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"plusev/internal/resolve"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Entry is the monetary consequence of one settled outcome. ClosingOdds is
// zero when no closing line was captured, and CLVPercent stays zero with it.
type Entry struct {
	Stake       decimal.Decimal
	ProfitLoss  decimal.Decimal
	ClosingOdds int
	CLVPercent  decimal.Decimal
}

// Settle returns the profit or loss of a stake at American odds under a
// final result. A push returns the stake untouched, so the movement is zero.
// PEND_MANUAL has no monetary consequence and is an error to settle.
func Settle(result resolve.Result, stake decimal.Decimal, americanOdds int) (decimal.Decimal, error) {
	if stake.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative stake %s", stake)
	}
	switch result {
	case resolve.Win:
		mult, err := payoutMultiple(americanOdds)
		if err != nil {
			return decimal.Zero, err
		}
		return stake.Mul(mult).Round(2), nil
	case resolve.Loss:
		return stake.Neg(), nil
	case resolve.Tie:
		return decimal.Zero, nil
	default:
		return decimal.Zero, fmt.Errorf("result %s has no settlement", result)
	}
}

// CLV is the percent by which the taken price beats the closing price in
// decimal-odds space. Positive means the line moved against late money.
func CLV(takenOdds, closingOdds int) (decimal.Decimal, error) {
	taken, err := decimalOdds(takenOdds)
	if err != nil {
		return decimal.Zero, fmt.Errorf("taken odds: %w", err)
	}
	closing, err := decimalOdds(closingOdds)
	if err != nil {
		return decimal.Zero, fmt.Errorf("closing odds: %w", err)
	}
	return taken.Sub(closing).Div(closing).Mul(hundred).Round(2), nil
}

// ForOutcome assembles the full entry for one settled bet. takenOdds is the
// price at first sight, which is when the opportunity would have been taken.
func ForOutcome(result resolve.Result, stake decimal.Decimal, takenOdds, closingOdds int) (Entry, error) {
	pl, err := Settle(result, stake, takenOdds)
	if err != nil {
		return Entry{}, err
	}
	e := Entry{Stake: stake, ProfitLoss: pl}
	if closingOdds != 0 && closingOdds != takenOdds {
		clv, err := CLV(takenOdds, closingOdds)
		if err != nil {
			return Entry{}, err
		}
		e.ClosingOdds = closingOdds
		e.CLVPercent = clv
	} else if closingOdds != 0 {
		e.ClosingOdds = closingOdds
	}
	return e, nil
}

// payoutMultiple is the net profit per unit staked at American odds.
func payoutMultiple(american int) (decimal.Decimal, error) {
	switch {
	case american >= 100:
		return decimal.NewFromInt(int64(american)).Div(hundred), nil
	case american <= -100:
		return hundred.Div(decimal.NewFromInt(int64(-american))), nil
	default:
		return decimal.Zero, fmt.Errorf("american odds %d out of range", american)
	}
}

func decimalOdds(american int) (decimal.Decimal, error) {
	mult, err := payoutMultiple(american)
	if err != nil {
		return decimal.Zero, err
	}
	return mult.Add(one), nil
}
