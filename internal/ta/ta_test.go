package ta

import (
	"math"
	"testing"

	"equity-advisor/internal/types"
)

func series(n int, f func(i int) float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = f(i)
	}
	return out
}

func TestSMA(t *testing.T) {
	if got := SMA([]float64{1, 2, 3, 4}, 2); got != 3.5 {
		t.Errorf("Expected 3.5, got %v", got)
	}
	if got := SMA([]float64{1}, 2); !math.IsNaN(got) {
		t.Errorf("Expected NaN for short series, got %v", got)
	}
}

func TestRSIBounds(t *testing.T) {
	up := series(20, func(i int) float64 { return float64(100 + i) })
	if got := RSI(up, 14); got != 100 {
		t.Errorf("Expected 100 for a rising series, got %v", got)
	}
	down := series(20, func(i int) float64 { return float64(100 - i) })
	if got := RSI(down, 14); got != 0 {
		t.Errorf("Expected 0 for a falling series, got %v", got)
	}
	flat := series(20, func(int) float64 { return 100 })
	if got := RSI(flat, 14); got != 50 {
		t.Errorf("Expected 50 for a flat series, got %v", got)
	}
}

func TestMomentumAndVolumeRatio(t *testing.T) {
	closes := []float64{100, 101, 102, 103, 104, 110}
	if got := Momentum(closes, 5); math.Abs(got-10) > 1e-9 {
		t.Errorf("Expected 10%%, got %v", got)
	}
	if got := Momentum(closes, 6); !math.IsNaN(got) {
		t.Errorf("Expected NaN, got %v", got)
	}

	vols := []float64{10, 10, 10, 30}
	if got := VolumeRatio(vols, 4); got != 2 {
		t.Errorf("Expected 2, got %v", got)
	}
}

func TestSnapshotLeavesMissingIndicatorsNil(t *testing.T) {
	candles := make([]types.Candle, 25)
	for i := range candles {
		p := float64(100 + i)
		candles[i] = types.Candle{Open: p, High: p + 1, Low: p - 1, Close: p, Vol: 1000}
	}

	snap := Snapshot(candles)

	if snap.Bars != 25 || snap.CurrentPrice != 124 {
		t.Fatalf("Unexpected snapshot header: %+v", snap)
	}
	if snap.MA20 == nil || *snap.MA20 != 114.5 {
		t.Errorf("Expected MA20 114.5, got %v", snap.MA20)
	}
	if snap.MA50 != nil || snap.PriceVsMA50Pct != nil {
		t.Error("Expected MA50 to be unavailable with 25 bars")
	}
	if snap.RSI == nil || *snap.RSI != 100 {
		t.Errorf("Expected RSI 100, got %v", snap.RSI)
	}
	if snap.VolumeRatio == nil || *snap.VolumeRatio != 1 {
		t.Errorf("Expected volume ratio 1, got %v", snap.VolumeRatio)
	}
}

func TestSnapshotEmpty(t *testing.T) {
	snap := Snapshot(nil)
	if snap.Bars != 0 || snap.MA20 != nil || snap.RSI != nil {
		t.Errorf("Expected empty snapshot, got %+v", snap)
	}
}
