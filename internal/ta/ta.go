package ta

import (
	"math"

	"equity-advisor/internal/types"
)

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// SMA averages the last n values; NaN when fewer than n exist.
func SMA(vals []float64, n int) float64 {
	if n <= 0 || len(vals) < n {
		return math.NaN()
	}
	return mean(vals[len(vals)-n:])
}

// RSI uses simple averages of gains and losses over the last period changes.
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return math.NaN()
	}
	gain, loss := 0.0, 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	if loss == 0 {
		if gain == 0 {
			return 50
		}
		return 100
	}
	rs := gain / loss
	return 100 - 100/(1+rs)
}

func StdDev(vals []float64, n int) float64 {
	m := SMA(vals, n)
	if math.IsNaN(m) {
		return m
	}
	s := 0.0
	for _, v := range vals[len(vals)-n:] {
		s += (v - m) * (v - m)
	}
	return math.Sqrt(s / float64(n))
}

func Bollinger(closes []float64, n int, k float64) (mid, up, low float64) {
	mid = SMA(closes, n)
	sd := StdDev(closes, n)
	return mid, mid + k*sd, mid - k*sd
}

func ATR(highs, lows, closes []float64, period int) float64 {
	if len(highs) != len(closes) || len(lows) != len(closes) || period <= 0 || len(closes) < period+1 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		prev := closes[i-1]
		sum += math.Max(highs[i]-lows[i], math.Max(math.Abs(highs[i]-prev), math.Abs(lows[i]-prev)))
	}
	return sum / float64(period)
}

// Momentum is the percent change of the last value over the value `bars` positions earlier.
func Momentum(closes []float64, bars int) float64 {
	if bars <= 0 || len(closes) < bars+1 {
		return math.NaN()
	}
	base := closes[len(closes)-1-bars]
	if base == 0 {
		return math.NaN()
	}
	return (closes[len(closes)-1]/base - 1) * 100
}

// VolumeRatio compares the last volume with the average of the last n volumes.
func VolumeRatio(vols []float64, n int) float64 {
	avg := SMA(vols, n)
	if math.IsNaN(avg) || avg == 0 {
		return math.NaN()
	}
	return vols[len(vols)-1] / avg
}

// PctDiff is how far price sits above (positive) or below ref, in percent.
func PctDiff(price, ref float64) float64 {
	if math.IsNaN(ref) || ref == 0 {
		return math.NaN()
	}
	return (price/ref - 1) * 100
}

// Snapshot derives the indicator set used for technical analysis from candles
// ordered oldest first. Unavailable indicators are left nil.
func Snapshot(candles []types.Candle) types.TechnicalSnapshot {
	snap := types.TechnicalSnapshot{Bars: len(candles)}
	if len(candles) == 0 {
		return snap
	}

	closes := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	vols := make([]float64, len(candles))
	for i, c := range candles {
		closes[i], highs[i], lows[i], vols[i] = c.Close, c.High, c.Low, c.Vol
	}

	price := closes[len(closes)-1]
	snap.CurrentPrice = round(price)

	ma20, ma50 := SMA(closes, 20), SMA(closes, 50)
	snap.MA20 = opt(ma20)
	snap.MA50 = opt(ma50)
	snap.RSI = opt(RSI(closes, 14))
	snap.PriceVsMA20Pct = opt(PctDiff(price, ma20))
	snap.PriceVsMA50Pct = opt(PctDiff(price, ma50))
	snap.VolumeRatio = opt(VolumeRatio(vols, 20))
	snap.Momentum1WPct = opt(Momentum(closes, 5))
	snap.Momentum1MPct = opt(Momentum(closes, 20))

	_, up, low := Bollinger(closes, 20, 2)
	snap.BollingerUpper = opt(up)
	snap.BollingerLower = opt(low)
	snap.ATR = opt(ATR(highs, lows, closes, 14))
	return snap
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}

func opt(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	r := round(v)
	return &r
}
