package market

import "math"

// Indicator windows. The history buffer must hold at least BollPeriod
// entries for every indicator to be defined.
const (
	SMAShortPeriod = 7
	SMALongPeriod  = 30
	RSIPeriod      = 14
	BollPeriod     = 20
	BollStdDevs    = 2.0
)

// SMA returns the arithmetic mean of values, or 0 when empty.
func SMA(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// RSI computes the Relative Strength Index over the most recent `period`
// deltas of values. With no classifiable history it returns 50; with
// gains and no losses it returns 100.
func RSI(values []float64, period int) float64 {
	if len(values) < 2 {
		return 50
	}
	deltas := len(values) - 1
	if deltas > period {
		values = values[deltas-period:]
	}
	var gain, loss float64
	var gains, losses int
	for i := 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			gain += change
			gains++
		} else if change < 0 {
			loss -= change
			losses++
		}
	}
	if losses == 0 {
		if gains == 0 {
			return 50
		}
		return 100
	}
	n := float64(len(values) - 1)
	avgGain := gain / n
	avgLoss := loss / n
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// Bollinger returns the middle band (mean), and upper/lower bands at
// mean +/- stdDevs standard deviations. Zero-valued until values is
// non-empty.
func Bollinger(values []float64, stdDevs float64) (upper, middle, lower float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	middle = SMA(values)
	variance := 0.0
	for _, v := range values {
		diff := v - middle
		variance += diff * diff
	}
	variance /= float64(len(values))
	dev := math.Sqrt(variance) * stdDevs
	return middle + dev, middle, middle - dev
}

// ComputeIndicators re-derives all indicator values from the bounded
// history. Pure function of the series: no accumulator state that could
// drift from the raw prices.
func ComputeIndicators(h *History) Indicators {
	var ind Indicators
	if h.Len() >= SMAShortPeriod {
		ind.SMA7 = SMA(h.Last(SMAShortPeriod))
	}
	if h.Len() >= SMALongPeriod {
		ind.SMA30 = SMA(h.Last(SMALongPeriod))
	}
	ind.RSI = RSI(h.Last(RSIPeriod+1), RSIPeriod)
	if h.Len() >= BollPeriod {
		ind.BollUpper, ind.BollMiddle, ind.BollLower = Bollinger(h.Last(BollPeriod), BollStdDevs)
	}
	return ind
}
