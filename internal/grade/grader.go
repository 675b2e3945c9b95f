package grade

import (
	"errors"
	"fmt"
	"math"
)

// Grader applies one grading method to opportunity histories. It holds no
// mutable state, so a single Grader may evaluate many opportunities
// concurrently.
type Grader struct {
	method Method
	conf   *Estimator
}

func NewGrader(m Method) (*Grader, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid grading method: %w", err)
	}
	return &Grader{method: m, conf: NewEstimator(m)}, nil
}

func (g *Grader) Method() Method {
	return g.method
}

// Evaluate grades one opportunity from its observation history. The latest
// snapshot is the observation instant, so replaying a truncated history
// reproduces the grade the bet would have received at that moment. Identical
// inputs always produce an identical Record.
func (g *Grader) Evaluate(in Input) (Record, error) {
	if in.BetID == "" {
		return Record{}, errors.New("opportunity has no identity")
	}
	latest, ok := in.History.Latest()
	if !ok {
		return Record{}, fmt.Errorf("bet %s: no observations to grade", in.BetID)
	}
	first, _ := in.History.First()

	rec := Record{
		BetID:       in.BetID,
		EvaluatedAt: latest.ObservedAt,
		Method:      g.method.Version,
	}

	rec.EVScore = g.evScore(latest.EVPercent, &rec)

	if in.EventTime.IsZero() {
		rec.Diagnostics = append(rec.Diagnostics, "event time missing; timing scored 0")
	} else {
		rec.TimingScore = g.method.timingBump(in.EventTime.Sub(latest.ObservedAt).Hours())
	}

	rec.TrendScore = g.trendScore(first.EVPercent, latest.EVPercent)

	conf, diags := g.conf.Confidence(in.History, in.EventTime)
	rec.Confidence = conf
	rec.Diagnostics = append(rec.Diagnostics, diags...)

	rec.Composite = g.method.Composite(rec.EVScore, rec.TimingScore, rec.TrendScore, rec.Confidence)
	rec.Letter = g.method.Letter(rec.Composite)
	return rec, nil
}

// evScore maps EV percent to [0,100]. Quotes above the ceiling are almost
// always stale or mispriced, so instead of rewarding them the score walks
// back down the further past the ceiling they go. The raw value is kept in
// the diagnostics for audit.
func (g *Grader) evScore(raw float64, rec *Record) float64 {
	effective := raw
	if raw > g.method.EVCeiling {
		effective = g.method.EVCeiling - (raw-g.method.EVCeiling)*g.method.EVDecaySlope
		if effective < 0 {
			effective = 0
		}
		rec.Diagnostics = append(rec.Diagnostics,
			fmt.Sprintf("ev %.2f above ceiling %.2f, scored as %.2f", raw, g.method.EVCeiling, effective))
	}
	return clamp((effective+10)*5, 0, 100)
}

// trendScore rewards EV that has improved since first sight. An opportunity
// whose edge is widening signals market confirmation; identical current EV on
// a declining path is usually a mispricing about to be corrected.
func (g *Grader) trendScore(firstEV, currentEV float64) float64 {
	return clamp(50+50*math.Tanh((currentEV-firstEV)/g.method.VolatilityScale), 0, 100)
}
