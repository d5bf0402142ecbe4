package market

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"equity-advisor/internal/interfaces"
	"equity-advisor/internal/logger"
	"equity-advisor/internal/types"
)

type KiteParams struct {
	APIKey      string
	AccessToken string
	Exchange    string
	BaseURI     string
	Timeout     time.Duration
}

// Kite serves prices and daily history from the Kite Connect REST API.
// It has no fundamentals source and is usually composed with Yahoo.
type Kite struct {
	p      KiteParams
	client *kiteconnect.Client
	mapper *instrumentMapper

	loadMu sync.Mutex
	loaded bool
	now    func() time.Time
}

// NewKite requires an API key and an access token.
var _ interfaces.MarketData = (*Kite)(nil)

func NewKite(p KiteParams) (*Kite, error) {
	if p.APIKey == "" || p.AccessToken == "" {
		return nil, fmt.Errorf("kite: api key and access token are required")
	}
	if p.Exchange == "" {
		p.Exchange = "NSE"
	}
	if p.Timeout <= 0 {
		p.Timeout = 15 * time.Second
	}

	kc := kiteconnect.New(p.APIKey)
	kc.SetAccessToken(p.AccessToken)
	kc.SetHTTPClient(&http.Client{Timeout: p.Timeout})
	if p.BaseURI != "" {
		kc.SetBaseURI(p.BaseURI)
	}

	return &Kite{p: p, client: kc, mapper: newInstrumentMapper(), now: time.Now}, nil
}

func (k *Kite) Price(ctx context.Context, symbol string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	key := k.p.Exchange + ":" + types.NormalizeSymbol(symbol)
	ltp, err := k.client.GetLTP(key)
	if err != nil {
		return 0, fmt.Errorf("kite ltp %s: %w", symbol, err)
	}
	q, ok := ltp[key]
	if !ok || q.LastPrice <= 0 {
		return 0, fmt.Errorf("kite ltp %s: %w", symbol, types.ErrNotFound)
	}
	return q.LastPrice, nil
}

func (k *Kite) History(ctx context.Context, symbol string, days int) ([]types.Candle, error) {
	if err := k.loadInstruments(ctx); err != nil {
		return nil, err
	}
	sym := types.NormalizeSymbol(symbol)
	token, ok := k.mapper.getToken(sym)
	if !ok {
		return nil, fmt.Errorf("kite: no instrument for %s on %s: %w", sym, k.p.Exchange, types.ErrNotFound)
	}
	if days <= 0 {
		days = 120
	}

	to := k.now()
	// calendar days, enough to cover weekends and exchange holidays
	from := to.AddDate(0, 0, -(days*7/5 + 10))

	data, err := k.client.GetHistoricalData(token, "day", from, to, false, false)
	if err != nil {
		return nil, fmt.Errorf("kite history %s: %w", sym, err)
	}

	cs := make([]types.Candle, 0, len(data))
	for _, d := range data {
		cs = append(cs, types.Candle{
			Ts:    d.Date.Unix(),
			Open:  d.Open,
			High:  d.High,
			Low:   d.Low,
			Close: d.Close,
			Vol:   float64(d.Volume),
		})
	}
	if len(cs) > days {
		cs = cs[len(cs)-days:]
	}
	return cs, nil
}

// Fundamentals is unsupported by Kite.
func (k *Kite) Fundamentals(context.Context, string) (types.Fundamentals, error) {
	return types.Fundamentals{}, fmt.Errorf("kite: fundamentals %w", types.ErrNotFound)
}

// loadInstruments fetches the exchange instrument dump once. A failed load is retried on the next call.
func (k *Kite) loadInstruments(ctx context.Context) error {
	k.loadMu.Lock()
	defer k.loadMu.Unlock()
	if k.loaded {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	instruments, err := k.client.GetInstrumentsByExchange(k.p.Exchange)
	if err != nil {
		return fmt.Errorf("kite instruments %s: %w", k.p.Exchange, err)
	}
	for _, in := range instruments {
		k.mapper.addMapping(in.Tradingsymbol, in.InstrumentToken)
	}
	k.loaded = true

	logger.Info(ctx, "Loaded Kite instruments", "exchange", k.p.Exchange, "count", k.mapper.size())
	return nil
}
