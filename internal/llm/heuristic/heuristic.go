package heuristic

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/llm"
	"equity-advisor/internal/types"
)

// Reasoner is an offline, rule based stand-in for a language model. It reads the
// structured Facts and Texts of a prompt and never fails on well formed input.
type Reasoner struct{}

var _ interfaces.Reasoner = (*Reasoner)(nil)

func NewReasoner() *Reasoner { return &Reasoner{} }

func (r *Reasoner) Name() string { return "heuristic" }

func (r *Reasoner) Infer(ctx context.Context, p types.Prompt) (types.Inference, error) {
	if err := ctx.Err(); err != nil {
		return types.Inference{}, err
	}
	switch p.Kind {
	case types.SignalNews:
		return scoreNews(p.Texts), nil
	case types.SignalTechnical:
		return scoreTechnical(p.Facts), nil
	case types.SignalFundamental:
		return scoreFundamental(p.Facts), nil
	}
	return types.Inference{}, fmt.Errorf("%w: unknown signal kind %q", types.ErrUnparsableResponse, p.Kind)
}

func scoreNews(texts []string) types.Inference {
	if len(texts) == 0 {
		return types.Inference{Score: 0, Rationale: "No recent relevant news; sentiment treated as neutral."}
	}

	pos, neg := 0, 0
	for _, t := range texts {
		for _, w := range tokenize(t) {
			if positiveWords[w] {
				pos++
			}
			if negativeWords[w] {
				neg++
			}
		}
	}

	// two phantom neutral words keep a single headline from saturating the score
	score := round(llm.Clamp(float64(pos-neg) / float64(pos+neg+2)))
	tone := "balanced"
	switch {
	case score > 0.15:
		tone = "positive"
	case score < -0.15:
		tone = "negative"
	}
	return types.Inference{
		Score:     score,
		Rationale: fmt.Sprintf("%d articles read with %s tone (%d positive, %d negative cues).", len(texts), tone, pos, neg),
	}
}

type driver struct {
	weight float64
	note   string
}

func scoreTechnical(f map[string]float64) types.Inference {
	var ds []driver

	if v, ok := f[types.FactRSI]; ok {
		switch {
		case v < 30:
			ds = append(ds, driver{0.3, fmt.Sprintf("RSI %.1f oversold", v)})
		case v > 70:
			ds = append(ds, driver{-0.3, fmt.Sprintf("RSI %.1f overbought", v)})
		default:
			ds = append(ds, driver{0, fmt.Sprintf("RSI %.1f neutral", v)})
		}
	}
	if v, ok := f[types.FactPriceVsMA20]; ok {
		ds = append(ds, driver{llm.Clamp(v/10) * 0.25, fmt.Sprintf("%+.1f%% vs MA20", v)})
	}
	if v, ok := f[types.FactPriceVsMA50]; ok {
		ds = append(ds, driver{llm.Clamp(v/15) * 0.2, fmt.Sprintf("%+.1f%% vs MA50", v)})
	}
	if v, ok := f[types.FactMomentum1M]; ok {
		ds = append(ds, driver{llm.Clamp(v/15) * 0.25, fmt.Sprintf("1M momentum %+.1f%%", v)})
	}
	if v, ok := f[types.FactMomentum1W]; ok {
		ds = append(ds, driver{llm.Clamp(v/8) * 0.1, fmt.Sprintf("1W momentum %+.1f%%", v)})
	}

	inf := combine(ds, "technical")
	if v, ok := f[types.FactVolumeRatio]; ok && v > 1.5 {
		inf.Score = round(llm.Clamp(inf.Score * 1.2))
		inf.Rationale += fmt.Sprintf(" Volume %.1fx average confirms the move.", v)
	}
	return inf
}

func scoreFundamental(f map[string]float64) types.Inference {
	var ds []driver

	if v, ok := f[types.FactTrailingPE]; ok && v > 0 {
		switch {
		case v < 15:
			ds = append(ds, driver{0.2, fmt.Sprintf("P/E %.1f inexpensive", v)})
		case v > 40:
			ds = append(ds, driver{-0.2, fmt.Sprintf("P/E %.1f stretched", v)})
		default:
			ds = append(ds, driver{0, fmt.Sprintf("P/E %.1f fair", v)})
		}
	}
	if v, ok := f[types.FactPEG]; ok && v > 0 {
		switch {
		case v < 1:
			ds = append(ds, driver{0.15, fmt.Sprintf("PEG %.2f", v)})
		case v > 2:
			ds = append(ds, driver{-0.15, fmt.Sprintf("PEG %.2f", v)})
		}
	}
	if v, ok := f[types.FactDebtToEquity]; ok {
		switch {
		case v < 50:
			ds = append(ds, driver{0.1, fmt.Sprintf("low leverage (D/E %.0f)", v)})
		case v > 150:
			ds = append(ds, driver{-0.2, fmt.Sprintf("high leverage (D/E %.0f)", v)})
		}
	}
	if v, ok := f[types.FactROE]; ok {
		switch {
		case v > 0.15:
			ds = append(ds, driver{0.2, fmt.Sprintf("ROE %.0f%%", v*100)})
		case v < 0.05:
			ds = append(ds, driver{-0.15, fmt.Sprintf("ROE %.0f%%", v*100)})
		}
	}
	if v, ok := f[types.FactRevenueGrowth]; ok {
		ds = append(ds, driver{llm.Clamp(v/0.2) * 0.15, fmt.Sprintf("revenue growth %+.0f%%", v*100)})
	}
	if v, ok := f[types.FactEarningsGrowth]; ok {
		ds = append(ds, driver{llm.Clamp(v/0.25) * 0.15, fmt.Sprintf("earnings growth %+.0f%%", v*100)})
	}
	if v, ok := f[types.FactTargetUpside]; ok {
		ds = append(ds, driver{llm.Clamp(v/20) * 0.2, fmt.Sprintf("%+.1f%% to analyst target", v)})
	}

	return combine(ds, "fundamental")
}

func combine(ds []driver, what string) types.Inference {
	if len(ds) == 0 {
		return types.Inference{Score: 0, Rationale: fmt.Sprintf("Insufficient %s data; treated as neutral.", what)}
	}
	sum := 0.0
	notes := make([]string, len(ds))
	for i, d := range ds {
		sum += d.weight
		notes[i] = d.note
	}
	return types.Inference{
		Score:     round(llm.Clamp(sum)),
		Rationale: strings.Join(notes, ", ") + ".",
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func round(v float64) float64 {
	return math.Round(v*1000) / 1000
}
