package news

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equity-advisor/internal/types"
)

func newTestFilter(cfg FilterConfig) *Filter {
	return NewFilter(NewLexicon(nil, nil), cfg)
}

func art(title, source string) types.RawArticle {
	return types.RawArticle{Title: title, Source: source, URL: "https://example.com/" + source}
}

func TestFilterDropsKeywordlessArticles(t *testing.T) {
	f := newTestFilter(DefaultFilterConfig())

	ev := f.Build("ACME",
		[]types.RawArticle{
			art("Acme opens a new office in Pune", "wire"),
			art("Weather turns sunny for the weekend", "wire"),
			art("Acme earnings beat estimates", "wire"),
		},
	)

	require.Len(t, ev.Articles, 1)
	assert.Equal(t, "Acme earnings beat estimates", ev.Articles[0].Title)
	for _, a := range ev.Articles {
		assert.NotEmpty(t, a.MatchedKeywords)
		assert.Greater(t, a.RelevanceScore, 0.0)
	}
}

func TestFilterCollapsesNearDuplicateTitles(t *testing.T) {
	f := newTestFilter(DefaultFilterConfig())

	ev := f.Build("ACME",
		[]types.RawArticle{art("Acme Corp beats earnings estimates", "reuters")},
		[]types.RawArticle{art("Acme beats earnings estimates this quarter", "bloomberg")},
	)

	require.Len(t, ev.Articles, 1)
	// "quarter" adds weight, so the second headline scores higher and is kept
	assert.Equal(t, "Acme beats earnings estimates this quarter", ev.Articles[0].Title)
	assert.Equal(t, 4.0, ev.Articles[0].RelevanceScore)
}

func TestFilterDuplicateTieKeepsEarliest(t *testing.T) {
	f := newTestFilter(DefaultFilterConfig())

	ev := f.Build("ACME", []types.RawArticle{
		art("Acme earnings beat estimates!", "first"),
		art("ACME earnings beat estimates", "second"),
	})

	require.Len(t, ev.Articles, 1)
	assert.Equal(t, "first", ev.Articles[0].Source)
}

func TestFilterSortsByScoreDescending(t *testing.T) {
	f := newTestFilter(DefaultFilterConfig())

	ev := f.Build("ACME", []types.RawArticle{
		art("Acme announces partnership", "a"),
		art("Analyst sets price target after upgrade", "b"),
		art("Acme quarterly revenue rises", "c"),
	})

	require.Len(t, ev.Articles, 3)
	for i := 1; i < len(ev.Articles); i++ {
		assert.GreaterOrEqual(t, ev.Articles[i-1].RelevanceScore, ev.Articles[i].RelevanceScore)
	}
	assert.Equal(t, "b", ev.Articles[0].Source)
}

func TestFilterAppliesSourceCap(t *testing.T) {
	cfg := DefaultFilterConfig()
	cfg.SourceCap = 2
	f := newTestFilter(cfg)

	ev := f.Build("ACME", []types.RawArticle{
		art("Acme earnings jump on strong demand", "wire"),
		art("Analyst upgrade lifts Acme shares", "wire"),
		art("Acme merger talks confirmed", "Wire"),
		art("Acme dividend raised", "other"),
	})

	counts := map[string]int{}
	for _, a := range ev.Articles {
		counts[a.Source]++
	}
	assert.Equal(t, 2, counts["wire"]+counts["Wire"])
	assert.Equal(t, 1, counts["other"])
	assert.Len(t, ev.Articles, 3)
}

func TestFilterRelaxesCapInsteadOfReturningEmpty(t *testing.T) {
	cfg := DefaultFilterConfig()
	cfg.SourceCap = 0
	f := newTestFilter(cfg)

	ev := f.Build("ACME", []types.RawArticle{
		art("Acme earnings jump", "wire"),
		art("Acme downgrade by broker", "wire"),
	})

	require.Len(t, ev.Articles, 1)
	assert.Equal(t, "Acme earnings jump", ev.Articles[0].Title)
}

func TestFilterBoundsToMaxArticles(t *testing.T) {
	cfg := DefaultFilterConfig()
	cfg.MaxArticles = 3
	cfg.SourceCap = 100
	f := newTestFilter(cfg)

	var batch []types.RawArticle
	for i := 0; i < 10; i++ {
		batch = append(batch, art(fmt.Sprintf("Unique%d headline%d earnings story%d", i, i, i), "wire"))
	}

	ev := f.Build("ACME", batch)
	assert.Len(t, ev.Articles, 3)
}

func TestFilterEmptyInputIsValid(t *testing.T) {
	f := newTestFilter(DefaultFilterConfig())

	ev := f.Build("acme", nil, []types.RawArticle{})
	assert.True(t, ev.Empty())
	assert.Equal(t, "ACME", ev.Symbol)
}

func TestFilterFallsBackToURLHostForSource(t *testing.T) {
	f := newTestFilter(DefaultFilterConfig())

	ev := f.Build("ACME", []types.RawArticle{
		{Title: "Acme earnings beat", URL: "https://www.moneycontrol.com/news/acme"},
	})

	require.Len(t, ev.Articles, 1)
	assert.Equal(t, "moneycontrol.com", ev.Articles[0].Source)
}

func TestFilterOutputIsPairwiseNonDuplicate(t *testing.T) {
	f := newTestFilter(FilterConfig{SourceCap: 50, MaxArticles: 50})

	words := []string{"acme", "earnings", "beat", "estimates", "revenue", "growth", "analyst", "upgrade"}
	var batch []types.RawArticle
	for i := 0; i < 40; i++ {
		title := ""
		for j := 0; j < 5; j++ {
			title += words[(i*3+j*(i%4+1))%len(words)] + " "
		}
		batch = append(batch, art(title, fmt.Sprintf("s%d", i)))
	}

	ev := f.Build("ACME", batch)
	require.NotEmpty(t, ev.Articles)
	for i := range ev.Articles {
		for j := i + 1; j < len(ev.Articles); j++ {
			a, b := ev.Articles[i].Title, ev.Articles[j].Title
			assert.LessOrEqual(t, TitleSimilarity(a, b, MeasureJaccard), 0.80, "%q vs %q", a, b)
			assert.LessOrEqual(t, TitleSimilarity(a, b, MeasureContainment), 0.80, "%q vs %q", a, b)
		}
	}
}

func TestJaccardMeasureKeepsLooselySimilarTitles(t *testing.T) {
	f := newTestFilter(FilterConfig{DedupMeasure: MeasureJaccard})

	ev := f.Build("ACME", []types.RawArticle{
		art("Acme Corp beats earnings estimates", "reuters"),
		art("Acme beats earnings estimates this quarter", "bloomberg"),
	})

	assert.Len(t, ev.Articles, 2)
}

func TestTitleSimilarityIgnoresCaseAndPunctuation(t *testing.T) {
	assert.Equal(t, 1.0, TitleSimilarity("Acme: Earnings BEAT!", "acme earnings beat", MeasureJaccard))
	assert.Equal(t, 0.0, TitleSimilarity("", "acme earnings beat", MeasureJaccard))
}
