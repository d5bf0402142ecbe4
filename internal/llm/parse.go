package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"equity-advisor/internal/types"
)

// Instruction is appended to every user prompt so all providers answer in one shape.
const Instruction = `Respond ONLY with compact JSON: {"score": <number between -1 and 1>, "rationale": "<one or two sentences>"}`

// DefaultSystem is used when llm.system is not configured.
const DefaultSystem = "You are a disciplined equity research analyst. Score strictly from the data given and output STRICT JSON."

type reply struct {
	Score            *json.RawMessage `json:"score"`
	SentimentScore   *json.RawMessage `json:"sentiment_score"`
	TechnicalScore   *json.RawMessage `json:"technical_score"`
	FundamentalScore *json.RawMessage `json:"fundamental_score"`
	Rationale        string           `json:"rationale"`
	Reasoning        string           `json:"reasoning"`
	Summary          string           `json:"summary"`
}

// ParseInference extracts {score, rationale} from model output. It tolerates code
// fences and prose around the first JSON object, alternate key names and numeric
// strings. Scores are clamped to [-1, 1]. Anything else is ErrUnparsableResponse.
func ParseInference(text string) (types.Inference, error) {
	t := strings.TrimSpace(text)
	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start < 0 || end <= start {
		return types.Inference{}, fmt.Errorf("%w: no JSON object in %q", types.ErrUnparsableResponse, preview(t))
	}

	var r reply
	if err := json.Unmarshal([]byte(t[start:end+1]), &r); err != nil {
		return types.Inference{}, fmt.Errorf("%w: %v", types.ErrUnparsableResponse, err)
	}

	var raw *json.RawMessage
	for _, c := range []*json.RawMessage{r.Score, r.SentimentScore, r.TechnicalScore, r.FundamentalScore} {
		if c != nil {
			raw = c
			break
		}
	}
	if raw == nil {
		return types.Inference{}, fmt.Errorf("%w: score missing", types.ErrUnparsableResponse)
	}
	score, err := number(*raw)
	if err != nil {
		return types.Inference{}, fmt.Errorf("%w: %v", types.ErrUnparsableResponse, err)
	}

	rationale := r.Rationale
	if rationale == "" {
		rationale = r.Reasoning
	}
	if rationale == "" {
		rationale = r.Summary
	}
	return types.Inference{Score: Clamp(score), Rationale: strings.TrimSpace(rationale)}, nil
}

func number(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("score is neither number nor string: %s", string(raw))
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("score %q: %w", s, err)
	}
	return f, nil
}

// Clamp bounds v to [-1, 1]; NaN becomes 0.
func Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}

func preview(s string) string {
	if len(s) > 100 {
		return s[:100]
	}
	return s
}
