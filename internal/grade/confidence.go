package grade

import (
	"math"
	"time"
)

// Estimator turns an opportunity's EV trajectory and timing into a single
// confidence score: how likely the quoted edge is to hold rather than
// regress before the event starts.
type Estimator struct {
	method Method
}

func NewEstimator(m Method) *Estimator {
	return &Estimator{method: m}
}

// Confidence returns a score in [0,100]. A history with fewer than two
// snapshots carries no trajectory, so the score degrades to the method's
// floor instead of failing. Other missing inputs substitute neutral defaults;
// every substitution is reported in the returned diagnostics.
func (e *Estimator) Confidence(hist History, eventTime time.Time) (float64, []string) {
	m := e.method

	first, ok := hist.First()
	if !ok {
		return m.ConfidenceFloor, []string{"no observations; confidence floored"}
	}
	latest, _ := hist.Latest()
	if len(hist) < 2 {
		return m.ConfidenceFloor, []string{"single observation; confidence floored"}
	}

	var diags []string

	// Share of the runway from first sight to tip-off that we have actually
	// watched. Drift observed over most of the runway means more than a jump
	// seconds after first sight.
	fraction := 1.0
	if eventTime.IsZero() {
		diags = append(diags, "event time missing; confidence uses neutral timing")
	} else if runway := eventTime.Sub(first.ObservedAt); runway <= 0 {
		diags = append(diags, "first seen after event start; confidence uses neutral timing")
	} else {
		fraction = clamp(latest.ObservedAt.Sub(first.ObservedAt).Hours()/runway.Hours(), 0, 1)
	}

	delta := latest.EVPercent - first.EVPercent
	evEvidence := 0.5 + 0.4*math.Tanh(delta/m.VolatilityScale)*math.Sqrt(fraction)

	timingEvidence := 0.65
	if !eventTime.IsZero() {
		timingEvidence = 0.4 + 0.5*(m.timingBump(eventTime.Sub(latest.ObservedAt).Hours())/100)
	}

	posterior := bayes(m.ConfidencePrior, evEvidence, timingEvidence)
	return clamp(posterior*100, 0, 100), diags
}

// bayes folds two independent likelihoods into the prior in odds form.
func bayes(prior, l1, l2 float64) float64 {
	num := prior * l1 * l2
	den := num + (1-prior)*(1-l1)*(1-l2)
	if den == 0 {
		return prior
	}
	return num / den
}
