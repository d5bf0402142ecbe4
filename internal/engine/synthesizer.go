package engine

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/types"
)

// recentNews is how many evidence articles a recommendation keeps.
const recentNews = 5

type Weights struct {
	News        float64
	Technical   float64
	Fundamental float64
}

// EqualWeights is the default when nothing is configured.
var EqualWeights = Weights{News: 1, Technical: 1, Fundamental: 1}

func (w Weights) of(kind types.SignalKind) float64 {
	switch kind {
	case types.SignalNews:
		return w.News
	case types.SignalTechnical:
		return w.Technical
	case types.SignalFundamental:
		return w.Fundamental
	}
	return 0
}

// Synthesizer turns signal scores into a recommendation. Action, composite and
// confidence depend only on the scores, weights and thresholds.
type Synthesizer struct {
	weights Weights
	buy     float64
	sell    float64
	now     func() time.Time
	newID   func() string
}

// NewSynthesizer uses closed thresholds: composite >= buy is BUY, composite <= sell is SELL.
func NewSynthesizer(w Weights, buy, sell float64) *Synthesizer {
	return &Synthesizer{
		weights: w,
		buy:     buy,
		sell:    sell,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Composite is the weighted mean over present signals, rounded to 4 decimals.
func (s *Synthesizer) Composite(signals map[types.SignalKind]types.SignalScore) float64 {
	var sum, wsum float64
	for _, kind := range types.AllSignals {
		sig, ok := signals[kind]
		if !ok {
			continue
		}
		w := s.weights.of(kind)
		sum += w * sig.Value
		wsum += w
	}
	if wsum <= 0 {
		return 0
	}
	return round4(math.Max(-1, math.Min(1, sum/wsum)))
}

func (s *Synthesizer) Action(composite float64) types.Action {
	switch {
	case composite >= s.buy:
		return types.ActionBuy
	case composite <= s.sell:
		return types.ActionSell
	}
	return types.ActionHold
}

// Confidence combines how decisively the composite clears (or sits inside) the
// thresholds, how much the signals agree in sign, and how many signals were present.
func (s *Synthesizer) Confidence(composite float64, signals map[types.SignalKind]types.SignalScore) float64 {
	var magnitude float64
	switch s.Action(composite) {
	case types.ActionBuy:
		magnitude = 0.5 + 0.5*ratio(composite-s.buy, 1-s.buy)
	case types.ActionSell:
		magnitude = 0.5 + 0.5*ratio(s.sell-composite, 1+s.sell)
	default:
		edge := s.buy
		if composite < 0 {
			edge = -s.sell
		}
		magnitude = 0.5 + 0.3*ratio(edge-math.Abs(composite), edge)
	}

	vals := make([]float64, 0, len(signals))
	for _, kind := range types.AllSignals {
		if sig, ok := signals[kind]; ok {
			vals = append(vals, sig.Value)
		}
	}
	pairs, opposed := 0, 0
	for i := range vals {
		for j := i + 1; j < len(vals); j++ {
			pairs++
			if vals[i]*vals[j] < 0 {
				opposed++
			}
		}
	}
	agreement := 1.0
	if pairs > 0 {
		agreement = 0.6 + 0.4*(1-float64(opposed)/float64(pairs))
	}

	coverage := 0.7 + 0.3*float64(len(vals))/float64(len(types.AllSignals))

	return round4(clamp01(magnitude * agreement * coverage))
}

// Synthesize needs at least two signals; otherwise it returns *types.SynthesisError.
func (s *Synthesizer) Synthesize(a *interfaces.Analysis) (types.Recommendation, error) {
	if len(a.Signals) < 2 {
		return types.Recommendation{}, &types.SynthesisError{Symbol: a.Symbol, Present: len(a.Signals)}
	}

	composite := s.Composite(a.Signals)
	action := s.Action(composite)
	rec := types.Recommendation{
		ID:                  s.newID(),
		Symbol:              a.Symbol,
		Action:              action,
		Confidence:          s.Confidence(composite, a.Signals),
		Composite:           composite,
		Reasoning:           s.reasoning(composite, action, a.Signals),
		MissingSignals:      missing(a.Signals),
		RecentNews:          a.Evidence.Top(recentNews),
		TechnicalIndicators: a.Technical,
		CreatedAt:           s.now().UTC(),
	}
	for kind, sig := range a.Signals {
		v := sig.Value
		switch kind {
		case types.SignalNews:
			rec.NewsSentiment = &v
		case types.SignalTechnical:
			rec.TechnicalScore = &v
		case types.SignalFundamental:
			rec.FundamentalScore = &v
		}
	}
	return rec, nil
}

var labels = map[types.SignalKind]string{
	types.SignalNews:        "News sentiment",
	types.SignalTechnical:   "Technical analysis",
	types.SignalFundamental: "Fundamental analysis",
}

func (s *Synthesizer) reasoning(composite float64, action types.Action, signals map[types.SignalKind]types.SignalScore) string {
	lines := []string{fmt.Sprintf("%s: composite score %+.2f from %d of %d signals.",
		action, composite, len(signals), len(types.AllSignals))}

	for _, kind := range types.AllSignals {
		sig, ok := signals[kind]
		if !ok {
			lines = append(lines, fmt.Sprintf("%s unavailable; weights renormalized over the remaining signals.", labels[kind]))
			continue
		}
		rationale := strings.TrimSpace(sig.Rationale)
		if rationale == "" {
			rationale = "No rationale given."
		}
		lines = append(lines, fmt.Sprintf("%s (%+.2f, supports %s): %s",
			labels[kind], sig.Value, s.Action(sig.Value), rationale))
	}
	return strings.Join(lines, "\n")
}

func missing(signals map[types.SignalKind]types.SignalScore) []types.SignalKind {
	var out []types.SignalKind
	for _, kind := range types.AllSignals {
		if _, ok := signals[kind]; !ok {
			out = append(out, kind)
		}
	}
	return out
}

// ratio is clamp01(num/span); a zero span means the composite sits on the bound.
func ratio(num, span float64) float64 {
	if span <= 0 {
		return 1
	}
	return clamp01(num / span)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
