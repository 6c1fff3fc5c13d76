package market

import (
	"math"
	"math/rand"
	"testing"
)

func TestSMA(t *testing.T) {
	if got := SMA(nil); got != 0 {
		t.Errorf("SMA(nil) = %v, want 0", got)
	}
	if got := SMA([]float64{2, 4, 6}); got != 4 {
		t.Errorf("SMA = %v, want 4", got)
	}
}

func TestRSIBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	values := []float64{100}
	for i := 0; i < 200; i++ {
		next := values[len(values)-1] * (1 + (rng.Float64()-0.5)*0.1)
		values = append(values, next)
		if len(values) < RSIPeriod+1 {
			continue
		}
		rsi := RSI(values, RSIPeriod)
		if rsi < 0 || rsi > 100 {
			t.Fatalf("RSI out of bounds at step %d: %v", i, rsi)
		}
	}
}

func TestRSIExtremes(t *testing.T) {
	// Monotonic gains: RSI = 100.
	up := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	if got := RSI(up, RSIPeriod); got != 100 {
		t.Errorf("all-gains RSI = %v, want 100", got)
	}

	// No history to classify: RSI = 50.
	if got := RSI([]float64{3}, RSIPeriod); got != 50 {
		t.Errorf("no-history RSI = %v, want 50", got)
	}
	flat := []float64{5, 5, 5, 5}
	if got := RSI(flat, RSIPeriod); got != 50 {
		t.Errorf("flat RSI = %v, want 50", got)
	}

	// Monotonic losses: RSI = 0.
	down := []float64{8, 7, 6, 5, 4}
	if got := RSI(down, RSIPeriod); got != 0 {
		t.Errorf("all-losses RSI = %v, want 0", got)
	}
}

func TestBollingerOrdering(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	h := NewHistory(HistoryCapacity)
	price := 50.0
	for i := 0; i < 60; i++ {
		price *= 1 + (rng.Float64()-0.5)*0.08
		h.Append(price)
		if h.Len() < BollPeriod {
			continue
		}
		upper, middle, lower := Bollinger(h.Last(BollPeriod), BollStdDevs)
		if !(lower <= middle && middle <= upper) {
			t.Fatalf("band ordering violated: %v <= %v <= %v", lower, middle, upper)
		}
	}
}

func TestBollingerFlatSeries(t *testing.T) {
	values := make([]float64, BollPeriod)
	for i := range values {
		values[i] = 42
	}
	upper, middle, lower := Bollinger(values, BollStdDevs)
	if upper != 42 || middle != 42 || lower != 42 {
		t.Errorf("flat series bands = %v/%v/%v, want all 42", upper, middle, lower)
	}
}

func TestComputeIndicatorsWarmup(t *testing.T) {
	h := NewHistory(HistoryCapacity)
	for i := 0; i < 5; i++ {
		h.Append(10 + float64(i))
	}

	ind := ComputeIndicators(h)
	if ind.SMA7 != 0 {
		t.Errorf("SMA7 with 5 samples = %v, want 0", ind.SMA7)
	}
	if ind.SMA30 != 0 {
		t.Errorf("SMA30 with 5 samples = %v, want 0", ind.SMA30)
	}
	if ind.BollUpper != 0 || ind.BollLower != 0 {
		t.Errorf("bands with 5 samples = %v/%v, want 0", ind.BollUpper, ind.BollLower)
	}

	for i := 0; i < HistoryCapacity; i++ {
		h.Append(10 + math.Sin(float64(i)))
	}
	ind = ComputeIndicators(h)
	if ind.SMA7 == 0 || ind.SMA30 == 0 || ind.BollUpper == 0 {
		t.Errorf("expected all indicators defined with full history: %+v", ind)
	}
}
