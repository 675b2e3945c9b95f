// Package grade scores open betting opportunities. Each evaluation combines
// the quote's current EV, its timing relative to the event, the EV trend
// since first sight, and a Bayesian confidence estimate into one composite
// score and letter grade.
package grade

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Snapshot is one observation of an opportunity's quote. The line itself is
// part of the bet's identity and does not vary across snapshots.
type Snapshot struct {
	ObservedAt time.Time
	EVPercent  float64
	Odds       int
}

// History is the append-only observation sequence for one opportunity,
// oldest first. The first element is the first-seen quote.
type History []Snapshot

func (h History) First() (Snapshot, bool) {
	if len(h) == 0 {
		return Snapshot{}, false
	}
	return h[0], true
}

func (h History) Latest() (Snapshot, bool) {
	if len(h) == 0 {
		return Snapshot{}, false
	}
	return h[len(h)-1], true
}

// Input bundles everything one grading pass needs. History must be ordered
// oldest first and end with the observation being graded.
type Input struct {
	BetID     string
	EventTime time.Time
	History   History
}

// Record is the result of one grading pass. Component scores and the
// composite all live in [0,100]. Diagnostics carries degraded-input and
// override notes for observability; it never affects control flow.
type Record struct {
	BetID       string
	EvaluatedAt time.Time
	EVScore     float64
	TimingScore float64
	TrendScore  float64
	Confidence  float64
	Composite   float64
	Letter      string
	Method      string
	Diagnostics []string
}

// Weights are the fixed component shares of the composite score. They must
// sum to 1.
type Weights struct {
	EV         float64
	Timing     float64
	Trend      float64
	Confidence float64
}

// Thresholds are the letter-grade cut lines, closed on the lower bound.
// Anything below D is an F.
type Thresholds struct {
	A float64
	B float64
	C float64
	D float64
}

// Method is the versioned set of constants a grade is computed under.
// Changing any value changes historical comparability, so the version string
// travels with every Record it produces.
type Method struct {
	Version         string
	EVCeiling       float64
	EVDecaySlope    float64
	TimingPeakHours float64
	TimingWidth     float64
	VolatilityScale float64
	ConfidencePrior float64
	ConfidenceFloor float64
	Weights         Weights
	Thresholds      Thresholds
}

// DefaultMethod returns the bayes-v2 method. The EV ceiling is a chosen
// tunable: quotes reporting EV above it are treated as likely pricing errors
// and scored down past the ceiling, not up.
func DefaultMethod() Method {
	return Method{
		Version:         "bayes-v2",
		EVCeiling:       15.0,
		EVDecaySlope:    0.5,
		TimingPeakHours: 2.0,
		TimingWidth:     1.2,
		VolatilityScale: 5.0,
		ConfidencePrior: 0.52,
		ConfidenceFloor: 50.0,
		Weights:         Weights{EV: 0.50, Timing: 0.15, Trend: 0.15, Confidence: 0.20},
		Thresholds:      Thresholds{A: 90, B: 80, C: 70, D: 65},
	}
}

func (m Method) Validate() error {
	if m.Version == "" {
		return errors.New("method version is empty")
	}
	w := m.Weights
	if w.EV < 0 || w.Timing < 0 || w.Trend < 0 || w.Confidence < 0 {
		return errors.New("component weights must not be negative")
	}
	sum := w.EV + w.Timing + w.Trend + w.Confidence
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("component weights sum to %v, want 1", sum)
	}
	t := m.Thresholds
	if !(t.A > t.B && t.B > t.C && t.C > t.D) {
		return errors.New("grade thresholds must descend A > B > C > D")
	}
	if m.EVCeiling <= 0 || m.EVDecaySlope < 0 {
		return errors.New("ev ceiling must be positive and decay slope non-negative")
	}
	if m.TimingPeakHours <= 0 || m.TimingWidth <= 0 {
		return errors.New("timing peak and width must be positive")
	}
	if m.VolatilityScale <= 0 {
		return errors.New("volatility scale must be positive")
	}
	if m.ConfidencePrior <= 0 || m.ConfidencePrior >= 1 {
		return fmt.Errorf("confidence prior %v outside (0,1)", m.ConfidencePrior)
	}
	if m.ConfidenceFloor < 0 || m.ConfidenceFloor > 100 {
		return fmt.Errorf("confidence floor %v outside [0,100]", m.ConfidenceFloor)
	}
	return nil
}

// Composite combines the four component scores under the method's weights,
// clamped to [0,100].
func (m Method) Composite(ev, timing, trend, confidence float64) float64 {
	w := m.Weights
	return clamp(w.EV*ev+w.Timing*timing+w.Trend*trend+w.Confidence*confidence, 0, 100)
}

// Letter maps a composite score onto the grade bands.
func (m Method) Letter(composite float64) string {
	switch {
	case composite >= m.Thresholds.A:
		return "A"
	case composite >= m.Thresholds.B:
		return "B"
	case composite >= m.Thresholds.C:
		return "C"
	case composite >= m.Thresholds.D:
		return "D"
	default:
		return "F"
	}
}

// timingBump is the shared time-to-event curve: a log-normal bump peaking at
// TimingPeakHours, falling off toward both very early and last-moment quotes.
// Events already started score zero.
func (m Method) timingBump(hoursToEvent float64) float64 {
	if hoursToEvent <= 0 {
		return 0
	}
	d := math.Log(hoursToEvent) - math.Log(m.TimingPeakHours)
	return clamp(100*math.Exp(-(d*d)/(2*m.TimingWidth*m.TimingWidth)), 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
