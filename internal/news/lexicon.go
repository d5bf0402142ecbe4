package news

import (
	"sort"
	"strings"
	"unicode"
)

// DefaultTemplates are the three search angles: results, sell-side actions, corporate events.
func DefaultTemplates() []string {
	return []string{
		"{symbol} stock news today earnings financial results",
		"{symbol} analyst upgrade downgrade price target",
		"{symbol} company breaking news announcement merger",
	}
}

// DefaultKeywords weights high-impact terms above generic ones.
func DefaultKeywords() map[string]float64 {
	return map[string]float64{
		"earnings":     3.0,
		"upgrade":      3.0,
		"downgrade":    3.0,
		"price target": 2.5,
		"guidance":     2.0,
		"revenue":      2.0,
		"profit":       2.0,
		"merger":       2.0,
		"acquisition":  2.0,
		"results":      1.5,
		"analyst":      1.5,
		"outlook":      1.5,
		"dividend":     1.5,
		"buyback":      1.5,
		"rating":       1.0,
		"forecast":     1.0,
		"margin":       1.0,
		"quarter":      1.0,
		"partnership":  1.0,
		"announcement": 0.5,
	}
}

type keyword struct {
	phrase string
	tokens []string
	weight float64
}

// Lexicon is the immutable keyword/weight table and query template set.
// It is built once and shared read-only by concurrent analyses.
type Lexicon struct {
	keywords  []keyword
	templates []string
}

// NewLexicon copies the inputs; later changes to them do not affect the Lexicon.
// Empty inputs fall back to the defaults. Non-positive weights are ignored.
func NewLexicon(keywords map[string]float64, templates []string) *Lexicon {
	if len(keywords) == 0 {
		keywords = DefaultKeywords()
	}
	if len(templates) == 0 {
		templates = DefaultTemplates()
	}

	lx := &Lexicon{templates: append([]string(nil), templates...)}
	for phrase, w := range keywords {
		tokens := tokenize(phrase)
		if len(tokens) == 0 || w <= 0 {
			continue
		}
		lx.keywords = append(lx.keywords, keyword{
			phrase: strings.Join(tokens, " "),
			tokens: tokens,
			weight: w,
		})
	}
	// stable iteration keeps matched keyword order deterministic
	sort.Slice(lx.keywords, func(i, j int) bool {
		if lx.keywords[i].weight != lx.keywords[j].weight {
			return lx.keywords[i].weight > lx.keywords[j].weight
		}
		return lx.keywords[i].phrase < lx.keywords[j].phrase
	})
	return lx
}

// Templates returns a copy of the query templates.
func (lx *Lexicon) Templates() []string {
	return append([]string(nil), lx.templates...)
}

// Weight returns the weight of a keyword phrase, 0 when unknown.
func (lx *Lexicon) Weight(phrase string) float64 {
	norm := strings.Join(tokenize(phrase), " ")
	for _, kw := range lx.keywords {
		if kw.phrase == norm {
			return kw.weight
		}
	}
	return 0
}

// Match scores text against the keyword table. Each distinct keyword counts once.
func (lx *Lexicon) Match(text string) (float64, []string) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return 0, nil
	}

	var score float64
	var matched []string
	for _, kw := range lx.keywords {
		if containsPhrase(tokens, kw.tokens) {
			score += kw.weight
			matched = append(matched, kw.phrase)
		}
	}
	return score, matched
}

// maxInflection is how many trailing letters a token may add to a keyword ("upgrades", "mergers").
const maxInflection = 2

func tokenMatches(token, kw string) bool {
	if !strings.HasPrefix(token, kw) {
		return false
	}
	return len(token)-len(kw) <= maxInflection
}

func containsPhrase(tokens, phrase []string) bool {
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		ok := true
		for j, p := range phrase {
			if !tokenMatches(tokens[i+j], p) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// tokenize lower-cases text and splits it on anything that is not a letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
