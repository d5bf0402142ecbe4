package heuristic

// Financial tone words, extended with headline verbs.
var positiveWords = set(
	"achieve", "beat", "beats", "benefit", "better", "bullish", "buyback", "expand", "expansion",
	"favorable", "gain", "gains", "good", "great", "grew", "growth", "improve", "improved",
	"improvement", "innovation", "jump", "jumped", "jumps", "leader", "leading", "opportunity",
	"optimistic", "outperform", "positive", "profitable", "raise", "raised", "raises", "rally",
	"record", "robust", "soar", "soars", "solid", "strength", "strong", "success", "successful",
	"surge", "surged", "surges", "upbeat", "upgrade", "upgraded", "upgrades", "win", "wins",
)

var negativeWords = set(
	"adverse", "bearish", "concern", "concerns", "crisis", "cut", "cuts", "decline", "declines",
	"default", "deficit", "disappoint", "disappointing", "downgrade", "downgraded", "downgrades",
	"downturn", "drop", "drops", "fall", "falling", "falls", "fraud", "headwind", "headwinds",
	"impairment", "investigation", "lawsuit", "loss", "losses", "miss", "misses", "negative",
	"penalty", "plunge", "plunges", "poor", "probe", "recession", "risk", "risks", "selloff",
	"slowdown", "slump", "slumps", "tumble", "tumbles", "underperform", "weak", "weakness",
	"worse", "worst",
)

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
