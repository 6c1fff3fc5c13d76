package market

import (
	"math"
	"math/rand"
)

// ShockKind classifies a pump/dump override.
type ShockKind int

const (
	ShockPump ShockKind = iota
	ShockDump
)

func (k ShockKind) String() string {
	if k == ShockPump {
		return "PUMP"
	}
	return "DUMP"
}

// Shock reports that a pump/dump override replaced the additive model
// for one instrument this tick.
type Shock struct {
	Symbol string
	Kind   ShockKind
	Factor float64
}

// Params tunes the price engine. The additive pressures are fractional
// price-change contributions per tick.
type Params struct {
	PriceFloor   float64 // minimum stored price
	NoiseScale   float64 // volatility term scale
	MAPressure   float64 // momentum from sign(price - SMA7)
	RSIPressure  float64 // overbought/oversold correction
	BandPressure float64 // Bollinger mean reversion
	BonusDrift   float64 // persistent drift per unit of bonus above 1.0
	TrendDrift   float64 // directional drift per unit of trend multiplier above/below 1.0
	ShockProb    float64 // per-instrument pump/dump probability per tick
	MaxChange    float64 // clamp on the additive fractional change
}

// DefaultParams returns the standard simulation tuning.
func DefaultParams() Params {
	return Params{
		PriceFloor:   0.01,
		NoiseScale:   0.04,
		MAPressure:   0.002,
		RSIPressure:  0.004,
		BandPressure: 0.005,
		BonusDrift:   0.01,
		TrendDrift:   0.012,
		ShockProb:    0.01,
		MaxChange:    0.25,
	}
}

// PriceEngine advances instrument prices. It owns no instrument state;
// all mutation happens on the instrument passed to AdvanceTick.
type PriceEngine struct {
	params Params
	rng    *rand.Rand
}

// NewPriceEngine creates a price engine with the given tuning and
// random source. The source is injected so sessions and tests can be
// deterministic.
func NewPriceEngine(params Params, rng *rand.Rand) *PriceEngine {
	return &PriceEngine{params: params, rng: rng}
}

// Params returns the engine tuning.
func (e *PriceEngine) Params() Params { return e.params }

// AdvanceTick moves one instrument forward one tick under the given
// global trend multiplier. It returns a non-nil Shock when a pump/dump
// override fired. No side effects beyond the instrument itself.
func (e *PriceEngine) AdvanceTick(in *Instrument, trendMultiplier float64) *Shock {
	p := e.params

	var shock *Shock
	if p.ShockProb > 0 && e.rng.Float64() < p.ShockProb {
		// Pump/dump override, independent of the additive model.
		var factor float64
		var kind ShockKind
		if e.rng.Float64() < 0.5 {
			kind = ShockPump
			factor = 1.1 + 0.2*e.rng.Float64()
		} else {
			kind = ShockDump
			factor = 0.7 + 0.2*e.rng.Float64()
		}
		in.Price = math.Max(p.PriceFloor, in.Price*factor)
		shock = &Shock{Symbol: in.Symbol, Kind: kind, Factor: factor}
	} else {
		change := in.Volatility * p.NoiseScale * e.normalish()

		ind := in.Indicators
		if ind.SMA7 > 0 {
			if in.Price > ind.SMA7 {
				change += p.MAPressure
			} else if in.Price < ind.SMA7 {
				change -= p.MAPressure
			}
		}
		if ind.RSI > 70 {
			change -= p.RSIPressure
		} else if ind.RSI < 30 {
			change += p.RSIPressure
		}
		if ind.BollUpper > 0 {
			if in.Price > ind.BollUpper {
				change -= p.BandPressure
			} else if in.Price < ind.BollLower {
				change += p.BandPressure
			}
		}
		change += (in.Bonus - 1.0) * p.BonusDrift

		// The trend scales the combined change and contributes its own
		// drift, so depressed regimes actually push prices down instead
		// of merely damping movement.
		mult := 1.0 + (trendMultiplier-1.0)*in.TrendBias
		change = change*mult + (mult-1.0)*p.TrendDrift

		if change > p.MaxChange {
			change = p.MaxChange
		} else if change < -p.MaxChange {
			change = -p.MaxChange
		}
		in.Price = math.Max(p.PriceFloor, in.Price*(1+change))
	}

	if in.Price > in.High24 {
		in.High24 = in.Price
	}
	if in.Price < in.Low24 || in.Low24 == 0 {
		in.Low24 = in.Price
	}
	in.Volume24 += in.Supply * (0.001 + 0.004*e.rng.Float64())

	in.History.Append(in.Price)
	in.Indicators = ComputeIndicators(in.History)
	return shock
}

// normalish samples an approximately normal value in [-1, 1] by
// averaging uniform draws (Irwin-Hall, zero mean).
func (e *PriceEngine) normalish() float64 {
	sum := 0.0
	for i := 0; i < 3; i++ {
		sum += e.rng.Float64()*2 - 1
	}
	return sum / 3
}
