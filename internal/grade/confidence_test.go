package grade

import (
	"testing"
	"time"
)

var tipoff = time.Date(2025, 2, 5, 19, 30, 0, 0, time.UTC)

func trajectory(firstEV, currentEV float64) History {
	return History{
		{ObservedAt: tipoff.Add(-6 * time.Hour), EVPercent: firstEV, Odds: 150},
		{ObservedAt: tipoff.Add(-90 * time.Minute), EVPercent: currentEV, Odds: 160},
	}
}

func TestConfidence_SingleSnapshotFloors(t *testing.T) {
	e := NewEstimator(DefaultMethod())
	hist := History{{ObservedAt: tipoff.Add(-2 * time.Hour), EVPercent: 6.0, Odds: 120}}

	score, diags := e.Confidence(hist, tipoff)
	if score != DefaultMethod().ConfidenceFloor {
		t.Errorf("score = %v, want floor %v", score, DefaultMethod().ConfidenceFloor)
	}
	if len(diags) == 0 {
		t.Error("degraded input produced no diagnostics")
	}
}

func TestConfidence_ImprovementBeatsDecline(t *testing.T) {
	e := NewEstimator(DefaultMethod())

	up, _ := e.Confidence(trajectory(5.0, 8.0), tipoff)
	down, _ := e.Confidence(trajectory(8.0, 5.0), tipoff)

	if up <= down {
		t.Errorf("improving EV scored %v, declining scored %v", up, down)
	}
	if up <= 50 {
		t.Errorf("improving EV scored %v, want above neutral", up)
	}
}

func TestConfidence_LargerImprovementScoresHigher(t *testing.T) {
	e := NewEstimator(DefaultMethod())

	small, _ := e.Confidence(trajectory(5.0, 6.0), tipoff)
	large, _ := e.Confidence(trajectory(5.0, 11.0), tipoff)

	if large <= small {
		t.Errorf("delta +6 scored %v, delta +1 scored %v", large, small)
	}
}

func TestConfidence_OutlierJumpSaturates(t *testing.T) {
	e := NewEstimator(DefaultMethod())

	huge, _ := e.Confidence(trajectory(5.0, 500.0), tipoff)
	big, _ := e.Confidence(trajectory(5.0, 25.0), tipoff)

	if huge > 100 || huge < 0 {
		t.Fatalf("score %v outside [0,100]", huge)
	}
	// tanh saturation: a 100x jump should barely outrank a strong move.
	if huge-big > 10 {
		t.Errorf("outlier jump scored %v vs %v, want damped", huge, big)
	}
}

func TestConfidence_MissingEventTimeDegrades(t *testing.T) {
	e := NewEstimator(DefaultMethod())

	score, diags := e.Confidence(trajectory(5.0, 8.0), time.Time{})
	if score < 0 || score > 100 {
		t.Fatalf("score %v outside [0,100]", score)
	}
	if len(diags) == 0 {
		t.Error("missing event time produced no diagnostics")
	}
}

func TestConfidence_Deterministic(t *testing.T) {
	e := NewEstimator(DefaultMethod())

	a, _ := e.Confidence(trajectory(5.0, 8.0), tipoff)
	b, _ := e.Confidence(trajectory(5.0, 8.0), tipoff)
	if a != b {
		t.Errorf("identical inputs scored %v then %v", a, b)
	}
}
