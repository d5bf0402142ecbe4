package news

import (
	"net/url"
	"sort"
	"strings"

	"equity-advisor/internal/types"
)

// Similarity measures accepted for title deduplication.
const (
	MeasureJaccard     = "jaccard"
	MeasureContainment = "containment"
)

// containmentMinWords guards short titles from being swallowed by longer ones.
const containmentMinWords = 3

// FilterConfig tunes the evidence filter. Zero values fall back to DefaultFilterConfig.
type FilterConfig struct {
	DedupThreshold float64
	DedupMeasure   string
	SourceCap      int
	MaxArticles    int
}

func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		DedupThreshold: 0.80,
		DedupMeasure:   MeasureContainment,
		SourceCap:      2,
		MaxArticles:    10,
	}
}

// Filter turns raw search batches into an EvidenceSet.
type Filter struct {
	lexicon *Lexicon
	cfg     FilterConfig
}

func NewFilter(lx *Lexicon, cfg FilterConfig) *Filter {
	def := DefaultFilterConfig()
	if cfg.DedupThreshold <= 0 {
		cfg.DedupThreshold = def.DedupThreshold
	}
	if cfg.DedupMeasure == "" {
		cfg.DedupMeasure = def.DedupMeasure
	}
	if cfg.MaxArticles <= 0 {
		cfg.MaxArticles = def.MaxArticles
	}
	if cfg.SourceCap < 0 {
		cfg.SourceCap = 0
	}
	return &Filter{lexicon: lx, cfg: cfg}
}

type candidate struct {
	article types.ScoredArticle
	index   int
	words   map[string]struct{}
}

// Build scores, deduplicates, ranks, diversifies and bounds the articles of all batches.
// Batches are concatenated in order; input position breaks score ties.
func (f *Filter) Build(symbol string, batches ...[]types.RawArticle) types.EvidenceSet {
	var cands []candidate
	idx := 0
	for _, batch := range batches {
		for _, raw := range batch {
			pos := idx
			idx++

			raw.Title = strings.TrimSpace(raw.Title)
			if raw.Title == "" {
				continue
			}
			score, matched := f.lexicon.Match(raw.Title + " " + raw.Snippet)
			if len(matched) == 0 {
				continue
			}
			if raw.Source == "" {
				raw.Source = sourceFromURL(raw.URL)
			}
			cands = append(cands, candidate{
				article: types.ScoredArticle{
					RawArticle:      raw,
					RelevanceScore:  score,
					MatchedKeywords: matched,
				},
				index: pos,
				words: titleWords(raw.Title),
			})
		}
	}

	ranked := f.dedupe(cands)
	diverse := f.diversify(ranked)
	if len(diverse) > f.cfg.MaxArticles {
		diverse = diverse[:f.cfg.MaxArticles]
	}

	articles := make([]types.ScoredArticle, len(diverse))
	for i, c := range diverse {
		articles[i] = c.article
	}
	return types.EvidenceSet{Symbol: types.NormalizeSymbol(symbol), Articles: articles}
}

// dedupe keeps, for every group of similar titles, the best-scored (then earliest) article.
// Candidates are visited in priority order so the result is pairwise non-duplicate
// and already sorted by descending score.
func (f *Filter) dedupe(cands []candidate) []candidate {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].article.RelevanceScore != cands[j].article.RelevanceScore {
			return cands[i].article.RelevanceScore > cands[j].article.RelevanceScore
		}
		return cands[i].index < cands[j].index
	})

	kept := make([]candidate, 0, len(cands))
	for _, c := range cands {
		dup := false
		for _, k := range kept {
			if f.similar(c.words, k.words) {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, c)
		}
	}
	return kept
}

// diversify applies the per-source cap. Skipped articles are not replaced; if the
// cap would leave nothing, it is relaxed by one until something survives.
func (f *Filter) diversify(ranked []candidate) []candidate {
	if len(ranked) == 0 {
		return ranked
	}
	for limit := f.cfg.SourceCap; ; limit++ {
		out := capBySource(ranked, limit)
		if len(out) > 0 {
			return out
		}
	}
}

func capBySource(ranked []candidate, limit int) []candidate {
	counts := make(map[string]int)
	out := make([]candidate, 0, len(ranked))
	for _, c := range ranked {
		key := strings.ToLower(strings.TrimSpace(c.article.Source))
		if counts[key] >= limit {
			continue
		}
		counts[key]++
		out = append(out, c)
	}
	return out
}

func (f *Filter) similar(a, b map[string]struct{}) bool {
	return Similarity(a, b, f.cfg.DedupMeasure) > f.cfg.DedupThreshold
}

// Similarity computes word overlap between two title word sets.
func Similarity(a, b map[string]struct{}, measure string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for w := range a {
		if _, ok := b[w]; ok {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	jaccard := float64(shared) / float64(union)

	smaller := min(len(a), len(b))
	if measure != MeasureContainment || smaller < containmentMinWords {
		return jaccard
	}
	return float64(shared) / float64(smaller)
}

// TitleSimilarity is Similarity over raw titles.
func TitleSimilarity(a, b, measure string) float64 {
	return Similarity(titleWords(a), titleWords(b), measure)
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {}, "on": {},
	"for": {}, "with": {}, "at": {}, "by": {}, "from": {}, "as": {}, "is": {}, "are": {},
	"this": {}, "that": {}, "its": {}, "it": {}, "be": {}, "after": {}, "over": {},
}

// corporate-form suffixes carry no identity in a headline
var corporateForms = map[string]struct{}{
	"corp": {}, "corporation": {}, "inc": {}, "incorporated": {}, "ltd": {}, "limited": {},
	"co": {}, "plc": {}, "llc": {}, "company": {}, "group": {}, "holdings": {},
}

// titleWords returns the distinct lower-cased, punctuation-stripped words of a title
// without stopwords and corporate-form suffixes.
func titleWords(title string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range tokenize(title) {
		if _, skip := stopwords[w]; skip {
			continue
		}
		if _, skip := corporateForms[w]; skip {
			continue
		}
		words[w] = struct{}{}
	}
	return words
}

func sourceFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
