package news

import (
	"strings"

	"equity-advisor/internal/types"
)

const symbolPlaceholder = "{symbol}"

// Planner expands a symbol into one search query per template angle.
type Planner struct {
	lexicon *Lexicon
}

func NewPlanner(lx *Lexicon) *Planner {
	return &Planner{lexicon: lx}
}

// Plan performs no I/O and cannot fail.
func (p *Planner) Plan(symbol string) []string {
	symbol = types.NormalizeSymbol(symbol)
	templates := p.lexicon.Templates()
	queries := make([]string, 0, len(templates))
	for _, t := range templates {
		queries = append(queries, strings.ReplaceAll(t, symbolPlaceholder, symbol))
	}
	return queries
}
