package ledger

import (
	"testing"

	"github.com/shopspring/decimal"

	"plusev/internal/resolve"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSettle_WinPaysNetAtPositiveOdds(t *testing.T) {
	got, err := Settle(resolve.Win, dec("10"), 150)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if !got.Equal(dec("15")) {
		t.Errorf("pnl = %s, want 15 (10 units at +150)", got)
	}
}

func TestSettle_WinPaysNetAtNegativeOdds(t *testing.T) {
	got, err := Settle(resolve.Win, dec("11"), -110)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if !got.Equal(dec("10")) {
		t.Errorf("pnl = %s, want 10 (11 units at -110)", got)
	}
}

func TestSettle_LossForfeitsStake(t *testing.T) {
	got, err := Settle(resolve.Loss, dec("2.50"), -120)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if !got.Equal(dec("-2.50")) {
		t.Errorf("pnl = %s, want -2.50", got)
	}
}

func TestSettle_TieMovesNothing(t *testing.T) {
	got, err := Settle(resolve.Tie, dec("5"), 200)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("pnl = %s, want 0 on a push", got)
	}
}

func TestSettle_PendManualHasNoSettlement(t *testing.T) {
	if _, err := Settle(resolve.PendManual, dec("1"), 150); err == nil {
		t.Error("Settle(PEND_MANUAL) = nil error, want failure")
	}
}

func TestSettle_RejectsInvalidOdds(t *testing.T) {
	for _, odds := range []int{0, 50, -99} {
		if _, err := Settle(resolve.Win, dec("1"), odds); err == nil {
			t.Errorf("Settle at odds %d = nil error, want failure", odds)
		}
	}
}

func TestCLV_PositiveWhenPriceBeatsClose(t *testing.T) {
	got, err := CLV(150, 120)
	if err != nil {
		t.Fatalf("CLV: %v", err)
	}
	if !got.Equal(dec("13.64")) {
		t.Errorf("clv = %s, want 13.64 (2.50 taken vs 2.20 close)", got)
	}
}

func TestCLV_NegativeWhenCloseBeatsPrice(t *testing.T) {
	got, err := CLV(100, 150)
	if err != nil {
		t.Fatalf("CLV: %v", err)
	}
	if !got.Equal(dec("-20")) {
		t.Errorf("clv = %s, want -20 (2.00 taken vs 2.50 close)", got)
	}
}

func TestForOutcome_BundlesStakePnLAndCLV(t *testing.T) {
	e, err := ForOutcome(resolve.Win, dec("1"), 150, 120)
	if err != nil {
		t.Fatalf("ForOutcome: %v", err)
	}
	if !e.Stake.Equal(dec("1")) || !e.ProfitLoss.Equal(dec("1.5")) {
		t.Errorf("stake/pnl = %s/%s, want 1/1.5", e.Stake, e.ProfitLoss)
	}
	if e.ClosingOdds != 120 || !e.CLVPercent.Equal(dec("13.64")) {
		t.Errorf("closing/clv = %d/%s, want 120/13.64", e.ClosingOdds, e.CLVPercent)
	}
}

func TestForOutcome_NoClosingLineLeavesCLVZero(t *testing.T) {
	e, err := ForOutcome(resolve.Loss, dec("1"), 150, 0)
	if err != nil {
		t.Fatalf("ForOutcome: %v", err)
	}
	if e.ClosingOdds != 0 || !e.CLVPercent.IsZero() {
		t.Errorf("closing/clv = %d/%s, want unset", e.ClosingOdds, e.CLVPercent)
	}
}
