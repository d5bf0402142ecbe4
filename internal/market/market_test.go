package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equity-advisor/internal/api"
	"equity-advisor/internal/cache"
	"equity-advisor/internal/types"
)

func fixedStatic() *Static {
	s := NewStatic()
	s.now = func() time.Time { return time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC) }
	return s
}

func TestStaticIsDeterministicPerSymbol(t *testing.T) {
	ctx := context.Background()
	s := fixedStatic()

	a, err := s.History(ctx, "infy", 60)
	require.NoError(t, err)
	b, err := s.History(ctx, " INFY ", 60)
	require.NoError(t, err)
	c, err := s.History(ctx, "TCS", 60)
	require.NoError(t, err)

	assert.Len(t, a, 60)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a[len(a)-1].Close, c[len(c)-1].Close)
	for i := 1; i < len(a); i++ {
		assert.Greater(t, a[i].Ts, a[i-1].Ts)
		assert.GreaterOrEqual(t, a[i].High, a[i].Low)
	}
}

func TestStaticPriceMatchesLastClose(t *testing.T) {
	ctx := context.Background()
	s := fixedStatic()

	cs, err := s.History(ctx, "INFY", 10)
	require.NoError(t, err)
	p, err := s.Price(ctx, "INFY")
	require.NoError(t, err)
	assert.Equal(t, cs[len(cs)-1].Close, p)

	f, err := s.Fundamentals(ctx, "INFY")
	require.NoError(t, err)
	assert.True(t, f.Known())
	require.NotNil(t, f.Price)
	assert.Equal(t, p, *f.Price)
}

func TestStaticHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fixedStatic().History(ctx, "INFY", 10)
	assert.ErrorIs(t, err, context.Canceled)
}

const chartBody = `{"chart":{"result":[{"meta":{"regularMarketPrice":101.5},
"timestamp":[1700000000,1700086400,1700172800],
"indicators":{"quote":[{"open":[100,null,101],"high":[102,null,103],"low":[99,null,100],
"close":[101,null,102],"volume":[1000,null,null]}]}}],"error":null}}`

const summaryBody = `{"quoteSummary":{"result":[{
"price":{"longName":"Infosys Limited","regularMarketPrice":{"raw":1500.5},"marketCap":{"raw":6.2e12}},
"summaryDetail":{"trailingPE":{"raw":24.1},"dividendYield":{"raw":0.025}},
"defaultKeyStatistics":{"pegRatio":{"raw":1.8}},
"financialData":{"targetMeanPrice":{"raw":1700},"debtToEquity":{"raw":9.5},"returnOnEquity":{"raw":0.31}},
"assetProfile":{"sector":"Technology","industry":"IT Services"}}],"error":null}}`

func yahooServer(t *testing.T) (*httptest.Server, *[]string) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch {
		case strings.HasPrefix(r.URL.Path, "/v8/finance/chart/"):
			w.Write([]byte(chartBody))
		case strings.HasPrefix(r.URL.Path, "/v10/finance/quoteSummary/"):
			w.Write([]byte(summaryBody))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &paths
}

func TestYahooHistorySkipsNullBars(t *testing.T) {
	srv, paths := yahooServer(t)
	y := NewYahoo(api.NewClient(), srv.URL, ".NS")

	cs, err := y.History(context.Background(), "infy", 30)
	require.NoError(t, err)

	require.Len(t, cs, 2)
	assert.Equal(t, 101.0, cs[0].Close)
	assert.Equal(t, 1000.0, cs[0].Vol)
	assert.Equal(t, 102.0, cs[1].Close)
	assert.Zero(t, cs[1].Vol)
	assert.Equal(t, "/v8/finance/chart/INFY.NS", (*paths)[0])
}

func TestYahooKeepsExplicitSuffix(t *testing.T) {
	y := NewYahoo(api.NewClient(), "", ".NS")
	assert.Equal(t, "RELIANCE.BO", y.ticker("reliance.bo"))
	assert.Equal(t, "TCS.NS", y.ticker("tcs"))
}

func TestYahooPrice(t *testing.T) {
	srv, _ := yahooServer(t)
	p, err := NewYahoo(api.NewClient(), srv.URL, "").Price(context.Background(), "INFY")
	require.NoError(t, err)
	assert.Equal(t, 101.5, p)
}

func TestYahooFundamentals(t *testing.T) {
	srv, _ := yahooServer(t)

	f, err := NewYahoo(api.NewClient(), srv.URL, ".NS").Fundamentals(context.Background(), "INFY")
	require.NoError(t, err)

	assert.Equal(t, "Infosys Limited", f.CompanyName)
	assert.Equal(t, "Technology", f.Sector)
	require.NotNil(t, f.TrailingPE)
	assert.Equal(t, 24.1, *f.TrailingPE)
	require.NotNil(t, f.ROE)
	assert.Equal(t, 0.31, *f.ROE)
	assert.Nil(t, f.ForwardPE)
	assert.Nil(t, f.RevenueGrowth)
}

func TestYahooNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	}))
	defer srv.Close()

	_, err := NewYahoo(api.NewClient(), srv.URL, "").History(context.Background(), "NOPE", 30)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestChartRange(t *testing.T) {
	assert.Equal(t, "5d", chartRange(1))
	assert.Equal(t, "6mo", chartRange(120))
	assert.Equal(t, "1y", chartRange(365))
	assert.Equal(t, "2y", chartRange(500))
}

type countingMarket struct {
	*Static
	history int
	fund    int
	fail    bool
}

func (c *countingMarket) History(ctx context.Context, symbol string, days int) ([]types.Candle, error) {
	c.history++
	if c.fail {
		return nil, errors.New("upstream down")
	}
	return c.Static.History(ctx, symbol, days)
}

func (c *countingMarket) Fundamentals(ctx context.Context, symbol string) (types.Fundamentals, error) {
	c.fund++
	return c.Static.Fundamentals(ctx, symbol)
}

func TestCachedServesRepeatLookupsFromCache(t *testing.T) {
	ctx := context.Background()
	inner := &countingMarket{Static: fixedStatic()}
	mem := cache.NewMemory(0)
	defer mem.Close()
	md := NewCached(inner, mem, time.Minute)

	first, err := md.History(ctx, "INFY", 30)
	require.NoError(t, err)
	second, err := md.History(ctx, "infy", 30)
	require.NoError(t, err)
	_, err = md.History(ctx, "INFY", 60)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, inner.history)

	f1, err := md.Fundamentals(ctx, "INFY")
	require.NoError(t, err)
	f2, err := md.Fundamentals(ctx, "INFY")
	require.NoError(t, err)
	assert.Equal(t, f1, f2)
	assert.Equal(t, 1, inner.fund)
}

func TestCachedDoesNotCacheFailures(t *testing.T) {
	ctx := context.Background()
	inner := &countingMarket{Static: fixedStatic(), fail: true}
	mem := cache.NewMemory(0)
	defer mem.Close()
	md := NewCached(inner, mem, time.Minute)

	_, err := md.History(ctx, "INFY", 30)
	require.Error(t, err)
	assert.Zero(t, mem.Len())

	inner.fail = false
	_, err = md.History(ctx, "INFY", 30)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.history)
}

func TestNewCachedWithoutCacheIsPassthrough(t *testing.T) {
	s := fixedStatic()
	assert.Same(t, s, NewCached(s, nil, time.Minute))
}

func TestCompositeTakesPriceFromQuotes(t *testing.T) {
	srv, _ := yahooServer(t)
	quotes := fixedStatic()
	c := NewComposite(quotes, NewYahoo(api.NewClient(), srv.URL, ""))

	f, err := c.Fundamentals(context.Background(), "INFY")
	require.NoError(t, err)

	p, _ := quotes.Price(context.Background(), "INFY")
	require.NotNil(t, f.Price)
	assert.Equal(t, p, *f.Price)
	assert.Equal(t, "Infosys Limited", f.CompanyName)
}

func TestInstrumentMapper(t *testing.T) {
	im := newInstrumentMapper()
	im.addMapping("INFY", 408065)

	tok, ok := im.getToken("INFY")
	assert.True(t, ok)
	assert.Equal(t, 408065, tok)
	_, ok = im.getToken("TCS")
	assert.False(t, ok)
	assert.Equal(t, 1, im.size())
}

func TestNewKiteRequiresCredentials(t *testing.T) {
	_, err := NewKite(KiteParams{APIKey: "k"})
	assert.Error(t, err)
}
